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

// Package metadata creates the XMP metadata stream required by PDF/A
// and keeps it synchronized with the document information dictionary.
package metadata

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Info holds the fields of the document information dictionary which
// PDF/A requires to agree with the XMP metadata.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string

	// Trapped is "True", "False", "Unknown", or empty when the entry
	// is absent.
	Trapped string

	// CreationDate and ModDate are zero when the corresponding entry
	// is absent or malformed.
	CreationDate time.Time
	ModDate      time.Time
}

// infoKeys are the entries ISO 32000-1 table 317 defines for the
// information dictionary.  PDF/A forbids all others.
var infoKeys = map[pdf.Name]bool{
	"Title": true, "Author": true, "Subject": true, "Keywords": true,
	"Creator": true, "Producer": true, "CreationDate": true,
	"ModDate": true, "Trapped": true,
}

// ExtractInfo reads the document information dictionary.  Malformed
// values degrade to their zero value instead of failing.
func ExtractInfo(doc *pdf.Document) *Info {
	info := &Info{}
	dict := doc.Info()
	if dict == nil {
		return info
	}

	text := func(key pdf.Name) string {
		s := doc.GetString(dict[key])
		return sanitizeXMLText(s.AsTextString())
	}
	info.Title = text("Title")
	info.Author = text("Author")
	info.Subject = text("Subject")
	info.Keywords = text("Keywords")
	info.Creator = text("Creator")
	info.Producer = text("Producer")
	info.Trapped = normalizeTrapped(doc.Resolve(dict["Trapped"]))
	if t, ok := ParseDate(string(doc.GetString(dict["CreationDate"]))); ok {
		info.CreationDate = t
	}
	if t, ok := ParseDate(string(doc.GetString(dict["ModDate"]))); ok {
		info.ModDate = t
	}
	return info
}

// sanitizeXMLText removes control characters which XML 1.0 cannot
// represent.
func sanitizeXMLText(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// normalizeTrapped maps any /Trapped value to one of the three name
// values PDF allows.  Missing or empty values report the empty string.
func normalizeTrapped(obj pdf.Object) string {
	var v string
	switch x := obj.(type) {
	case pdf.Name:
		v = string(x)
	case pdf.String:
		v = x.AsTextString()
	case pdf.Bool:
		if x {
			v = "true"
		} else {
			v = "false"
		}
	default:
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return "True"
	case "false":
		return "False"
	case "":
		return ""
	}
	return "Unknown"
}

// pdfDateLayouts lists the date formats found in the wild, most
// specific first.
var pdfDateLayouts = []string{
	"D:20060102150405-0700",
	"D:20060102150405-07",
	"D:20060102150405Z",
	"D:20060102150405",
	"D:200601021504",
	"D:2006010215",
	"D:20060102",
	"D:200601",
	"D:2006",
}

// ParseDate converts a PDF date string to a time.Time in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if !strings.HasPrefix(s, "D:") {
		s = "D:" + s
	}
	// time.Parse does not know the apostrophes of the timezone part
	s = strings.ReplaceAll(s, "'", "")
	for _, layout := range pdfDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a time as a PDF date string in UTC.
func FormatDate(t time.Time) pdf.String {
	t = t.UTC()
	return pdf.String(t.Format("D:20060102150405") + "+00'00'")
}

// PDFAID is the XMP namespace for PDF/A identification,
// ISO 19005-2 clause 6.6.3.
type PDFAID struct {
	_           xmp.Namespace `xmp:"http://www.aiim.org/pdfa/ns/id/"`
	_           xmp.Prefix    `xmp:"pdfaid"`
	Part        xmp.Text      `xmp:"part"`
	Conformance xmp.Text      `xmp:"conformance"`
}

// AdobePDF is the XMP namespace for PDF properties.
type AdobePDF struct {
	_        xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_        xmp.Prefix    `xmp:"pdf"`
	Keywords xmp.Text
	Producer xmp.AgentName
	Trapped  xmp.Text
}

var xDefault = language.MustParse("x-default")

// BuildXMP creates the XMP packet for a converted document.  All
// properties are written fresh from the information dictionary so that
// the two cannot disagree.
func BuildXMP(info *Info, part int, conformance byte, now time.Time) ([]byte, error) {
	dc := &xmp.DublinCore{}
	title := info.Title
	if title == "" {
		title = "Untitled"
	}
	dc.Title.Set(xDefault, title)
	author := info.Author
	if author == "" {
		author = "Unknown"
	}
	dc.Creator.Append(xmp.NewProperName(author))
	if info.Subject != "" {
		dc.Description.Set(xDefault, info.Subject)
	}

	basic := &xmp.Basic{}
	createDate := info.CreationDate
	if createDate.IsZero() {
		createDate = now
	}
	basic.CreateDate = xmp.NewDate(createDate.UTC())
	basic.ModifyDate = xmp.NewDate(now.UTC())
	basic.MetadataDate = xmp.NewDate(now.UTC())
	if info.Creator != "" {
		basic.CreatorTool = xmp.NewAgentName(info.Creator)
	}

	pdfProps := &AdobePDF{}
	producer := info.Producer
	if producer == "" {
		producer = "pdftopdfa"
	}
	pdfProps.Producer = xmp.NewAgentName(producer)
	if info.Keywords != "" {
		pdfProps.Keywords = xmp.NewText(info.Keywords)
	}
	if info.Trapped != "" {
		pdfProps.Trapped = xmp.NewText(info.Trapped)
	}

	id := &PDFAID{
		Part:        xmp.NewText(fmt.Sprint(part)),
		Conformance: xmp.NewText(strings.ToUpper(string(conformance))),
	}

	packet := xmp.NewPacket()
	err := packet.Set(dc, basic, pdfProps, id)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	opt := &xmp.PacketOptions{Pretty: true}
	err = packet.Write(buf, opt)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Embed stores the XMP packet as the document's metadata stream.  The
// stream stays uncompressed, as required by ISO 19005-2 clause 6.1.11.
func Embed(doc *pdf.Document, data []byte) error {
	catalog := doc.Catalog()
	if catalog == nil {
		return fmt.Errorf("document has no catalog")
	}
	stream := &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("Metadata"),
			"Subtype": pdf.Name("XML"),
		},
		Raw: data,
	}
	if ref, isRef := catalog["Metadata"].(pdf.Reference); isRef {
		doc.Put(ref, stream)
	} else {
		ref := doc.Alloc()
		doc.Put(ref, stream)
		catalog["Metadata"] = ref
	}
	return nil
}

// Sync rewrites the XMP metadata for the given PDF/A level and brings
// the information dictionary in line with it: non-standard keys are
// removed, /Trapped becomes a name, and the date entries take the
// values written to XMP.
func Sync(doc *pdf.Document, part int, conformance byte, now time.Time, log *slog.Logger) error {
	info := ExtractInfo(doc)

	data, err := BuildXMP(info, part, conformance, now)
	if err != nil {
		return fmt.Errorf("building XMP metadata: %w", err)
	}
	err = Embed(doc, data)
	if err != nil {
		return err
	}

	dict := doc.Info()
	if dict == nil {
		dict = pdf.Dict{}
		ref := doc.Alloc()
		doc.Put(ref, dict)
		doc.Trailer["Info"] = ref
	}
	for key := range dict {
		if !infoKeys[key] {
			delete(dict, key)
			log.Debug("removed non-standard information entry", "key", key)
		}
	}
	if s := doc.GetString(dict["Author"]); strings.TrimSpace(s.AsTextString()) == "" {
		dict["Author"] = pdf.TextString("Unknown")
	}
	if _, present := dict["Trapped"]; present {
		if v := normalizeTrapped(doc.Resolve(dict["Trapped"])); v != "" {
			dict["Trapped"] = pdf.Name(v)
		} else {
			delete(dict, "Trapped")
		}
	}
	createDate := info.CreationDate
	if createDate.IsZero() {
		createDate = now
	}
	dict["CreationDate"] = FormatDate(createDate)
	dict["ModDate"] = FormatDate(now)

	if n := stripObjectMetadata(doc); n > 0 {
		log.Debug("removed object-level metadata streams", "count", n)
	}
	return nil
}

// stripObjectMetadata deletes /Metadata entries outside the document
// catalog.  Object-level XMP streams would each need their own
// extension schema declarations; removing them is always conforming.
func stripObjectMetadata(doc *pdf.Document) int {
	rootRef, _ := doc.Trailer["Root"].(pdf.Reference)
	removed := 0
	for _, ref := range doc.References() {
		if ref == rootRef {
			continue
		}
		var dict pdf.Dict
		switch obj := doc.Get(ref).(type) {
		case pdf.Dict:
			dict = obj
		case *pdf.Stream:
			dict = obj.Dict
		default:
			continue
		}
		if doc.GetName(dict["Type"]) == "Catalog" {
			continue
		}
		if _, present := dict["Metadata"]; present {
			delete(dict, "Metadata")
			removed++
		}
	}
	return removed
}

// DetectLevel reads the PDF/A identification from the document's XMP
// metadata.  It reports ok=false when the document does not claim
// conformance.
func DetectLevel(doc *pdf.Document) (part int, conformance byte, ok bool) {
	catalog := doc.Catalog()
	if catalog == nil {
		return 0, 0, false
	}
	stm := doc.GetStream(catalog["Metadata"])
	if stm == nil {
		return 0, 0, false
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		return 0, 0, false
	}
	packet, err := xmp.Read(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}

	id := &PDFAID{}
	packet.Get(id)
	p := strings.TrimSpace(id.Part.V)
	c := strings.ToUpper(strings.TrimSpace(id.Conformance.V))
	if len(p) != 1 || p[0] < '1' || p[0] > '4' {
		return 0, 0, false
	}
	if c != "A" && c != "B" && c != "U" {
		return 0, 0, false
	}
	return int(p[0] - '0'), c[0], true
}
