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

package pdf

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
)

// buildDoc creates a document with one page and the given page content.
func buildDoc(content string) *Document {
	doc := NewDocument(V1_7)

	contentRef := doc.Alloc()
	doc.Put(contentRef, NewFlateStream([]byte(content), nil))

	pagesRef := doc.Alloc()
	pageRef := doc.Alloc()
	doc.Put(pageRef, Dict{
		"Type":     Name("Page"),
		"Parent":   pagesRef,
		"Contents": contentRef,
	})
	doc.Put(pagesRef, Dict{
		"Type":     Name("Pages"),
		"Kids":     Array{pageRef},
		"Count":    Integer(1),
		"MediaBox": Array{Integer(0), Integer(0), Integer(612), Integer(792)},
	})

	catalogRef := doc.Alloc()
	doc.Put(catalogRef, Dict{
		"Type":  Name("Catalog"),
		"Pages": pagesRef,
	})
	doc.Trailer["Root"] = catalogRef
	return doc
}

func TestRoundTrip(t *testing.T) {
	doc := buildDoc("q Q")

	buf := &bytes.Buffer{}
	if err := doc.Write(buf, nil); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != V1_7 {
		t.Errorf("version = %s, want 1.7", got.Version)
	}
	if got.NumObjects() != doc.NumObjects() {
		t.Errorf("got %d objects, want %d", got.NumObjects(), doc.NumObjects())
	}

	pages := got.Pages()
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	stm := got.GetStream(pages[0].Dict["Contents"])
	data, err := got.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "q Q" {
		t.Errorf("page content = %q", data)
	}
}

func TestWriteDeterministic(t *testing.T) {
	a := &bytes.Buffer{}
	b := &bytes.Buffer{}
	if err := buildDoc("q Q").Write(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := buildDoc("q Q").Write(b, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical documents serialize differently")
	}

	doc, err := ReadBytes(a.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.ID) != 2 {
		t.Errorf("got %d /ID elements, want 2", len(doc.ID))
	}
}

func TestWriteBinaryComment(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := buildDoc("q Q").Write(buf, nil); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte("%PDF-1.7\n")) {
		t.Errorf("header = %q", data[:9])
	}
	line := data[len("%PDF-1.7\n"):]
	if line[0] != '%' {
		t.Fatal("no comment after header line")
	}
	high := 0
	for _, c := range line[1:5] {
		if c > 127 {
			high++
		}
	}
	if high < 4 {
		t.Errorf("binary comment has %d high bytes, want 4", high)
	}
}

func TestWriteDanglingReference(t *testing.T) {
	doc := buildDoc("q Q")
	catalog := doc.Catalog()
	catalog["Dangling"] = NewReference(999, 0)

	buf := &bytes.Buffer{}
	if err := doc.Write(buf, nil); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if val, ok := got.Catalog()["Dangling"]; ok && val != nil {
		t.Errorf("dangling reference serialized as %v, want null", val)
	}
}

func TestReadEncrypted(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := buildDoc("q Q").Write(buf, nil); err != nil {
		t.Fatal(err)
	}
	data := bytes.Replace(buf.Bytes(),
		[]byte("trailer\n<<"),
		[]byte("trailer\n<<\n/Encrypt 1 0 R"), 1)

	_, err := ReadBytes(data)
	if !errors.Is(err, ErrEncrypted) {
		t.Errorf("got %v, want ErrEncrypted", err)
	}
}

func TestReadMalformed(t *testing.T) {
	_, err := ReadBytes([]byte("this is not a PDF file"))
	var malformed *MalformedFileError
	if !errors.As(err, &malformed) {
		t.Errorf("got %T, want *MalformedFileError", err)
	}
}

func TestReadReconstructsXRef(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := buildDoc("q Q").Write(buf, nil); err != nil {
		t.Fatal(err)
	}
	// point startxref at a bogus offset to force reconstruction
	re := regexp.MustCompile(`startxref\s+\d+`)
	data := re.ReplaceAll(buf.Bytes(), []byte("startxref\n2"))

	doc, err := ReadBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages()) != 1 {
		t.Error("page lost during cross-reference reconstruction")
	}
}

func TestResolveLoop(t *testing.T) {
	doc := NewDocument(V1_7)
	a := doc.Alloc()
	b := doc.Alloc()
	doc.Put(a, b)
	doc.Put(b, a)

	if got := doc.Resolve(a); got != nil {
		t.Errorf("reference loop resolved to %v, want nil", got)
	}
}

func TestGetDictOnStream(t *testing.T) {
	doc := NewDocument(V1_7)
	ref := doc.Alloc()
	doc.Put(ref, &Stream{Dict: Dict{"Type": Name("Metadata")}})

	dict := doc.GetDict(ref)
	if doc.GetName(dict["Type"]) != "Metadata" {
		t.Error("stream dictionary not returned")
	}
}

func TestGetInteger(t *testing.T) {
	doc := NewDocument(V1_7)
	if x, ok := doc.GetInteger(Real(3.7)); !ok || x != 3 {
		t.Errorf("GetInteger(3.7) = %d, %v", x, ok)
	}
	if _, ok := doc.GetInteger(Name("three")); ok {
		t.Error("name accepted as integer")
	}
}

func TestPagesInheritance(t *testing.T) {
	doc := buildDoc("q Q")
	pages := doc.Pages()
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}

	// MediaBox lives on the Pages node
	box := doc.GetArray(pages[0].Inherited("MediaBox"))
	if len(box) != 4 {
		t.Fatalf("inherited MediaBox = %v", box)
	}
	if w, _ := doc.GetInteger(box[2]); w != 612 {
		t.Errorf("MediaBox width = %d, want 612", w)
	}

	// a value on the page itself wins
	pages[0].Dict["MediaBox"] = Array{Integer(0), Integer(0), Integer(100), Integer(100)}
	box = doc.GetArray(doc.Pages()[0].Inherited("MediaBox"))
	if w, _ := doc.GetInteger(box[2]); w != 100 {
		t.Errorf("page MediaBox width = %d, want 100", w)
	}
}

func TestPagesLoop(t *testing.T) {
	doc := buildDoc("q Q")
	// make the page tree cyclic
	pagesRef, _ := doc.Catalog()["Pages"].(Reference)
	pagesDict := doc.GetDict(pagesRef)
	pagesDict["Kids"] = append(doc.GetArray(pagesDict["Kids"]), pagesRef)

	pages := doc.Pages()
	if len(pages) != 1 {
		t.Errorf("got %d pages from cyclic tree, want 1", len(pages))
	}
}

func TestContentContexts(t *testing.T) {
	doc := buildDoc("/Fm1 Do")
	page := doc.Pages()[0]

	formRef := doc.Alloc()
	doc.Put(formRef, &Stream{
		Dict: Dict{
			"Type":    Name("XObject"),
			"Subtype": Name("Form"),
			"BBox":    Array{Integer(0), Integer(0), Integer(10), Integer(10)},
		},
		Raw: []byte("0 0 10 10 re f"),
	})
	page.Dict["Resources"] = Dict{"XObject": Dict{"Fm1": formRef}}

	var kinds []ContextKind
	err := doc.ContentContexts(func(ctx *ContentContext) error {
		kinds = append(kinds, ctx.Kind)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var havePage, haveForm bool
	for _, k := range kinds {
		switch k {
		case KindPage:
			havePage = true
		case KindFormXObject:
			haveForm = true
		}
	}
	if !havePage || !haveForm {
		t.Errorf("visited kinds %v, want page and form XObject", kinds)
	}
}

func TestSetContent(t *testing.T) {
	doc := buildDoc("q Q")

	err := doc.ContentContexts(func(ctx *ContentContext) error {
		if ctx.Kind == KindPage {
			ctx.SetContent([]byte("0 0 1 1 re f"))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	page := doc.Pages()[0]
	stm := doc.GetStream(page.Dict["Contents"])
	data, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0 0 1 1 re f" {
		t.Errorf("content = %q", data)
	}
}

func TestTextString(t *testing.T) {
	cases := []string{
		"plain ASCII",
		"Umlaute: äöü",
		"mixed: € and ASCII",
		"",
	}
	for _, s := range cases {
		if got := TextString(s).AsTextString(); got != s {
			t.Errorf("TextString round trip: got %q, want %q", got, s)
		}
	}
}
