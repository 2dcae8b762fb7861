// pdftopdfa - convert PDF documents to PDF/A for long-term archiving
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package metadata

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/xmp"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDoc creates a document with a catalog and the given information
// dictionary entries.
func testDoc(info pdf.Dict) *pdf.Document {
	doc := pdf.NewDocument(pdf.V1_7)

	catalogRef := doc.Alloc()
	doc.Put(catalogRef, pdf.Dict{"Type": pdf.Name("Catalog")})
	doc.Trailer["Root"] = catalogRef

	if info != nil {
		infoRef := doc.Alloc()
		doc.Put(infoRef, info)
		doc.Trailer["Info"] = infoRef
	}
	return doc
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"D:20240315120000+02'00'", time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), true},
		{"D:20240315120000Z", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), true},
		{"D:20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"D:2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"20240315120000", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"D:not-a-date", time.Time{}, false},
	}
	for _, c := range cases {
		got, ok := ParseDate(c.in)
		if ok != c.ok {
			t.Errorf("ParseDate(%q): ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && !got.Equal(c.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	in := time.Date(2026, 8, 24, 14, 30, 5, 0, loc)
	got := string(FormatDate(in))
	want := "D:20260824123005+00'00'"
	if got != want {
		t.Errorf("FormatDate = %q, want %q", got, want)
	}
}

func TestExtractInfo(t *testing.T) {
	doc := testDoc(pdf.Dict{
		"Title":        pdf.TextString("Annual Report"),
		"Author":       pdf.TextString("Jane Smith"),
		"Trapped":      pdf.String("true"),
		"CreationDate": pdf.String("D:20240315120000Z"),
	})

	got := ExtractInfo(doc)
	want := &Info{
		Title:        "Annual Report",
		Author:       "Jane Smith",
		Trapped:      "True",
		CreationDate: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("info mismatch (-want +got):\n%s", d)
	}
}

func TestExtractInfoMissing(t *testing.T) {
	doc := testDoc(nil)
	got := ExtractInfo(doc)
	if d := cmp.Diff(&Info{}, got); d != "" {
		t.Errorf("info mismatch (-want +got):\n%s", d)
	}
}

func TestBuildXMPRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	info := &Info{
		Title:    "Annual Report",
		Author:   "Jane Smith",
		Subject:  "Finances",
		Keywords: "report, 2026",
	}

	data, err := BuildXMP(info, 2, 'b', now)
	if err != nil {
		t.Fatal(err)
	}

	packet, err := xmp.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	id := &PDFAID{}
	packet.Get(id)
	if id.Part.V != "2" {
		t.Errorf("pdfaid:part = %q, want %q", id.Part.V, "2")
	}
	if id.Conformance.V != "B" {
		t.Errorf("pdfaid:conformance = %q, want %q", id.Conformance.V, "B")
	}

	dc := &xmp.DublinCore{}
	packet.Get(dc)
	if got := dc.Title.Default.V; got != "Annual Report" {
		t.Errorf("dc:title = %q, want %q", got, "Annual Report")
	}

	props := &AdobePDF{}
	packet.Get(props)
	if props.Keywords.V != "report, 2026" {
		t.Errorf("pdf:Keywords = %q, want %q", props.Keywords.V, "report, 2026")
	}
}

func TestBuildXMPFallbacks(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	data, err := BuildXMP(&Info{}, 3, 'u', now)
	if err != nil {
		t.Fatal(err)
	}

	packet, err := xmp.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	dc := &xmp.DublinCore{}
	packet.Get(dc)
	if got := dc.Title.Default.V; got != "Untitled" {
		t.Errorf("dc:title = %q, want %q", got, "Untitled")
	}
	id := &PDFAID{}
	packet.Get(id)
	if id.Part.V != "3" || id.Conformance.V != "U" {
		t.Errorf("identification = %s/%s, want 3/U", id.Part.V, id.Conformance.V)
	}
}

func TestSync(t *testing.T) {
	doc := testDoc(pdf.Dict{
		"Title":      pdf.TextString("Annual Report"),
		"Trapped":    pdf.String("yes"),
		"CustomProp": pdf.TextString("should go away"),
	})
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	err := Sync(doc, 2, 'b', now, discardLog())
	if err != nil {
		t.Fatal(err)
	}

	info := doc.Info()
	if _, present := info["CustomProp"]; present {
		t.Error("non-standard key survived")
	}
	if got := info["Trapped"]; got != pdf.Name("Unknown") {
		t.Errorf("Trapped = %v, want /Unknown", got)
	}
	if got := doc.GetString(info["Author"]).AsTextString(); got != "Unknown" {
		t.Errorf("Author = %q, want Unknown", got)
	}
	if got := string(doc.GetString(info["ModDate"])); got != "D:20260824120000+00'00'" {
		t.Errorf("ModDate = %q", got)
	}

	stm := doc.GetStream(doc.Catalog()["Metadata"])
	if stm == nil {
		t.Fatal("no metadata stream")
	}
	if _, present := stm.Dict["Filter"]; present {
		t.Error("metadata stream is compressed")
	}
	if stm.Dict["Type"] != pdf.Name("Metadata") || stm.Dict["Subtype"] != pdf.Name("XML") {
		t.Errorf("bad stream dict: %v", stm.Dict)
	}
}

func TestSyncCreatesInfo(t *testing.T) {
	doc := testDoc(nil)
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	err := Sync(doc, 2, 'b', now, discardLog())
	if err != nil {
		t.Fatal(err)
	}

	info := doc.Info()
	if info == nil {
		t.Fatal("no information dictionary")
	}
	if got := string(doc.GetString(info["CreationDate"])); got != "D:20260824120000+00'00'" {
		t.Errorf("CreationDate = %q", got)
	}
}

func TestDetectLevel(t *testing.T) {
	doc := testDoc(nil)
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	if _, _, ok := DetectLevel(doc); ok {
		t.Error("detected conformance in empty document")
	}

	err := Sync(doc, 2, 'u', now, discardLog())
	if err != nil {
		t.Fatal(err)
	}

	part, conformance, ok := DetectLevel(doc)
	if !ok {
		t.Fatal("no conformance detected")
	}
	if part != 2 || conformance != 'U' {
		t.Errorf("detected PDF/A-%d%c, want PDF/A-2U", part, conformance)
	}
}

func TestStripObjectMetadata(t *testing.T) {
	doc := testDoc(nil)
	pageRef := doc.Alloc()
	metaRef := doc.Alloc()
	doc.Put(metaRef, &pdf.Stream{
		Dict: pdf.Dict{"Type": pdf.Name("Metadata"), "Subtype": pdf.Name("XML")},
		Raw:  []byte("<x/>"),
	})
	doc.Put(pageRef, pdf.Dict{
		"Type":     pdf.Name("Page"),
		"Metadata": metaRef,
	})

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	err := Sync(doc, 2, 'b', now, discardLog())
	if err != nil {
		t.Fatal(err)
	}

	page := doc.GetDict(pageRef)
	if _, present := page["Metadata"]; present {
		t.Error("page-level metadata survived")
	}
	if doc.GetStream(doc.Catalog()["Metadata"]) == nil {
		t.Error("document metadata was removed")
	}
}
