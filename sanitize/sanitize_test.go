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

package sanitize

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hhrutter/lzw"

	"seehuhn.de/go/sfnt"

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/font/tounicode"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// resourcePage builds a document with one page showing the given
// content stream with the given resource dictionary, and returns the
// page reference.
func resourcePage(doc *pdf.Document, contents string, res pdf.Dict) pdf.Reference {
	contRef := doc.Alloc()
	doc.Put(contRef, pdf.NewFlateStream([]byte(contents), nil))

	pagesRef := doc.Alloc()
	pageRef := doc.Alloc()
	doc.Put(pageRef, pdf.Dict{
		"Type":      pdf.Name("Page"),
		"Parent":    pagesRef,
		"MediaBox":  pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(612), pdf.Integer(792)},
		"Contents":  contRef,
		"Resources": res,
	})
	doc.Put(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  pdf.Array{pageRef},
		"Count": pdf.Integer(1),
	})
	rootRef := doc.Alloc()
	doc.Put(rootRef, pdf.Dict{
		"Type":  pdf.Name("Catalog"),
		"Pages": pagesRef,
	})
	doc.Trailer["Root"] = rootRef
	return pageRef
}

// singlePage builds a document with one page showing the given content
// stream.  The font object, if non-nil, appears under /F1.
func singlePage(doc *pdf.Document, contents string, fontObj pdf.Object) {
	res := pdf.Dict{}
	if fontObj != nil {
		res["Font"] = pdf.Dict{"F1": fontObj}
	}
	resourcePage(doc, contents, res)
}

func pageContent(t *testing.T, doc *pdf.Document) []content.Operation {
	t.Helper()
	var ops []content.Operation
	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		data, err := c.Content()
		if err != nil {
			return err
		}
		parsed, err := content.Parse(data)
		if err != nil {
			return err
		}
		ops = append(ops, parsed...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return ops
}

func TestParseLevel(t *testing.T) {
	for _, c := range []struct {
		in   string
		want Level
	}{
		{"2b", Level2B},
		{"2U", Level2U},
		{"3B", Level3B},
		{"3u", Level3U},
	} {
		got, err := ParseLevel(c.in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParseLevel("1b"); err == nil {
		t.Error("ParseLevel accepted 1b")
	}
	if got := Level3U.String(); got != "3u" {
		t.Errorf("got level string %q, want 3u", got)
	}
	if Level2B.Unicode() || !Level2U.Unicode() {
		t.Error("wrong Unicode() classification")
	}
}

func noopPass(name string, deps ...string) Pass {
	return &pass{name, deps, func(doc *pdf.Document, opts *Options) ([]Warning, error) {
		return nil, nil
	}}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(noopPass("c", "b"))
	r.Register(noopPass("b", "a"))
	r.Register(noopPass("a"))

	order, err := r.Order()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range order {
		names = append(names, p.Name())
	}
	if d := cmp.Diff([]string{"a", "b", "c"}, names); d != "" {
		t.Errorf("wrong pass order (-want +got):\n%s", d)
	}
}

func TestRegistryCycle(t *testing.T) {
	r := NewRegistry()
	r.Register(noopPass("a", "b"))
	r.Register(noopPass("b", "a"))
	if _, err := r.Order(); err == nil {
		t.Error("cycle not detected")
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	r.Register(noopPass("a"))
	r.Register(noopPass("a"))
	if _, err := r.Order(); err == nil {
		t.Error("duplicate pass not detected")
	}
}

func TestDefaultRegistry(t *testing.T) {
	order, err := DefaultRegistry().Order()
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[string]int)
	for i, p := range order {
		pos[p.Name()] = i
	}
	for _, p := range order {
		for _, dep := range p.RunsAfter() {
			if pos[dep] > pos[p.Name()] {
				t.Errorf("pass %s runs before its dependency %s",
					p.Name(), dep)
			}
		}
	}
}

func TestStructureLimitsObjects(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	singlePage(doc, "", nil)

	longName := pdf.Name(strings.Repeat("x", 200))
	ref := doc.Alloc()
	doc.Put(ref, pdf.Dict{
		longName: pdf.Integer(1) << 40,
		"Text":   pdf.String(bytes.Repeat([]byte("a"), 40000)),
		"Tiny":   pdf.Real(1e-40),
	})

	warnings, err := applyStructureLimits(doc, NewOptions(Level3B))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Fatal("no warnings for limit violations")
	}

	dict := doc.GetDict(ref)
	if _, ok := dict[longName]; ok {
		t.Error("overlong name not replaced")
	}
	var repl pdf.Name
	for key := range dict {
		if key != "Text" && key != "Tiny" {
			repl = key
		}
	}
	if len(repl) == 0 || len(repl) > 127 {
		t.Errorf("replacement name has %d bytes", len(repl))
	}
	if n, _ := doc.GetInteger(dict[repl]); n != 2147483647 {
		t.Errorf("integer clamped to %d, want 2147483647", n)
	}
	if s := doc.GetString(dict["Text"]); len(s) != 32767 {
		t.Errorf("string truncated to %d bytes, want 32767", len(s))
	}
	if v, _ := doc.GetNumber(dict["Tiny"]); v != 0 {
		t.Errorf("denormal real became %g, want 0", v)
	}
}

func TestStructureLimitsQNesting(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	singlePage(doc, strings.Repeat("q ", 32)+strings.Repeat("Q ", 32), nil)

	if _, err := applyStructureLimits(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	qCount, depth, maxDepth := 0, 0, 0
	for _, op := range pageContent(t, doc) {
		switch op.Operator {
		case "q":
			qCount++
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case "Q":
			depth--
		}
	}
	if maxDepth > 28 {
		t.Errorf("q nesting depth %d exceeds 28", maxDepth)
	}
	if qCount != 28 {
		t.Errorf("got %d q operators, want 28", qCount)
	}
	if depth != 0 {
		t.Errorf("unbalanced stream, final depth %d", depth)
	}
}

// embeddedFileDoc builds a document with one attachment in the
// EmbeddedFiles name tree and returns the file specification.
func embeddedFileDoc(doc *pdf.Document, data []byte) pdf.Dict {
	singlePage(doc, "", nil)

	stmRef := doc.Alloc()
	doc.Put(stmRef, pdf.NewFlateStream(data, nil))

	fs := pdf.Dict{
		"Type": pdf.Name("Filespec"),
		"F":    pdf.String("report.pdf"),
		"EF":   pdf.Dict{"F": stmRef},
	}
	fsRef := doc.Alloc()
	doc.Put(fsRef, fs)

	catalog := doc.Catalog()
	catalog["Names"] = pdf.Dict{
		"EmbeddedFiles": pdf.Dict{
			"Names": pdf.Array{pdf.String("report.pdf"), fsRef},
		},
	}
	return fs
}

func TestEmbeddedFilesPart3(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fs := embeddedFileDoc(doc, []byte("%PDF-1.4 payload"))

	if _, err := applyEmbeddedFiles(doc, NewOptions(Level3B)); err != nil {
		t.Fatal(err)
	}

	if rel := doc.GetName(fs["AFRelationship"]); rel != "Unspecified" {
		t.Errorf("got AFRelationship %q, want Unspecified", rel)
	}
	if uf := doc.GetString(fs["UF"]); string(uf) != "report.pdf" {
		t.Errorf("got UF %q, want report.pdf", uf)
	}
	if _, ok := fs["Desc"]; !ok {
		t.Error("no Desc added")
	}

	ef := doc.GetDict(fs["EF"])
	stm := doc.GetStream(ef["F"])
	if stm == nil {
		t.Fatal("embedded file stream lost")
	}
	if st := doc.GetName(stm.Dict["Subtype"]); st != "application/pdf" {
		t.Errorf("got stream Subtype %q, want application/pdf", st)
	}
	params := doc.GetDict(stm.Dict["Params"])
	if params == nil {
		t.Fatal("no Params added")
	}
	if d := doc.GetString(params["ModDate"]); !pdfDateRe.MatchString(string(d)) {
		t.Errorf("invalid ModDate %q", d)
	}

	af := doc.GetArray(doc.Catalog()["AF"])
	if len(af) != 1 {
		t.Errorf("got %d entries in /AF, want 1", len(af))
	}
}

func TestEmbeddedFilesPart2Removes(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fs := embeddedFileDoc(doc, []byte("plain text attachment"))

	warnings, err := applyEmbeddedFiles(doc, NewOptions(Level2B))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Error("no warning for removed attachment")
	}
	if _, ok := fs["EF"]; ok {
		t.Error("embedded content not removed")
	}
	names := doc.GetDict(doc.Catalog()["Names"])
	if _, ok := names["EmbeddedFiles"]; ok {
		t.Error("empty EmbeddedFiles tree not removed")
	}
}

func TestEmbeddedFilesPart2KeepsArchival(t *testing.T) {
	data := []byte(`%PDF-1.4
<x:xmpmeta xmlns:pdfaid="http://www.aiim.org/pdfa/ns/id/"
 pdfaid:part="2" pdfaid:conformance="B"/>`)
	doc := pdf.NewDocument(pdf.V1_7)
	fs := embeddedFileDoc(doc, data)

	if _, err := applyEmbeddedFiles(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}
	if _, ok := fs["EF"]; !ok {
		t.Error("conforming attachment removed")
	}
}

func TestEmbeddedFilesPart2Converts(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fs := embeddedFileDoc(doc, []byte("%PDF-1.5 not archival"))

	converted := []byte("%PDF-1.7 converted")
	opts := NewOptions(Level2B)
	opts.ConvertEmbedded = func(data []byte, depth int) ([]byte, error) {
		if depth != 1 {
			t.Errorf("got depth %d, want 1", depth)
		}
		return converted, nil
	}

	if _, err := applyEmbeddedFiles(doc, opts); err != nil {
		t.Fatal(err)
	}
	ef := doc.GetDict(fs["EF"])
	if ef == nil {
		t.Fatal("converted attachment removed")
	}
	stm := doc.GetStream(ef["F"])
	data, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, converted) {
		t.Errorf("got stream data %q, want %q", data, converted)
	}
}

func TestFontStructureRepair(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	font := pdf.Dict{
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Unknown-Regular"),
		"LastChar": pdf.Integer(67),
		"Widths":   pdf.Array{pdf.Integer(500), pdf.Integer(600), pdf.Integer(700)},
	}
	fontRef := doc.Alloc()
	doc.Put(fontRef, font)
	singlePage(doc, "BT /F1 12 Tf (ABC) Tj ET", fontRef)

	if _, err := applyFontStructure(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	if tp := doc.GetName(font["Type"]); tp != "Font" {
		t.Errorf("got Type %q, want Font", tp)
	}
	if first, _ := doc.GetInteger(font["FirstChar"]); first != 65 {
		t.Errorf("got FirstChar %d, want 65", first)
	}
}

func TestCIDFontRepair(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)

	cidRef := doc.Alloc()
	doc.Put(cidRef, pdf.Dict{
		"Type":        pdf.Name("Font"),
		"Subtype":     pdf.Name("CIDFontType2"),
		"BaseFont":    pdf.Name("Test-Font"),
		"CIDToGIDMap": pdf.Name("Bogus"),
		"CIDSystemInfo": pdf.Dict{
			"Registry":   pdf.String("Adobe"),
			"Ordering":   pdf.String("Japan1"),
			"Supplement": pdf.Integer(4),
		},
	})
	fontRef := doc.Alloc()
	doc.Put(fontRef, pdf.Dict{
		"Type":            pdf.Name("Font"),
		"Subtype":         pdf.Name("Type0"),
		"BaseFont":        pdf.Name("Test-Font"),
		"Encoding":        pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{cidRef},
	})
	singlePage(doc, "BT /F1 12 Tf <0041> Tj ET", fontRef)

	if _, err := applyCIDFont(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	cid := doc.GetDict(cidRef)
	if m := doc.GetName(cid["CIDToGIDMap"]); m != "Identity" {
		t.Errorf("got CIDToGIDMap %q, want Identity", m)
	}
	info := doc.GetDict(cid["CIDSystemInfo"])
	if ord := doc.GetString(info["Ordering"]); string(ord) != "Identity" {
		t.Errorf("got Ordering %q, want Identity", ord)
	}
}

func TestToUnicodeForbiddenValues(t *testing.T) {
	m := map[uint32][]rune{
		65: {0xFEFF},
		66: {'B'},
	}
	var buf bytes.Buffer
	if err := tounicode.New(m, false).Write(&buf); err != nil {
		t.Fatal(err)
	}

	doc := pdf.NewDocument(pdf.V1_7)
	tuRef := doc.Alloc()
	doc.Put(tuRef, pdf.NewFlateStream(buf.Bytes(), nil))
	font := pdf.Dict{
		"Type":      pdf.Name("Font"),
		"Subtype":   pdf.Name("Type1"),
		"BaseFont":  pdf.Name("Helvetica"),
		"ToUnicode": tuRef,
	}
	fontRef := doc.Alloc()
	doc.Put(fontRef, font)
	singlePage(doc, "BT /F1 12 Tf (AB) Tj ET", fontRef)

	if _, err := applyToUnicode(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	data, err := doc.DecodeStream(doc.GetStream(font["ToUnicode"]))
	if err != nil {
		t.Fatal(err)
	}
	info, err := tounicode.Read(data)
	if err != nil {
		t.Fatal(err)
	}
	got := info.All()
	if d := cmp.Diff([]rune{0xF0000 + 65}, got[65]); d != "" {
		t.Errorf("wrong replacement for code 65 (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]rune{'B'}, got[66]); d != "" {
		t.Errorf("valid mapping changed (-want +got):\n%s", d)
	}
}

func TestNotdefUsage(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	font := pdf.Dict{
		"Type":      pdf.Name("Font"),
		"Subtype":   pdf.Name("Type1"),
		"BaseFont":  pdf.Name("Unknown-Regular"),
		"FirstChar": pdf.Integer(65),
		"LastChar":  pdf.Integer(66),
		"Widths":    pdf.Array{pdf.Integer(500), pdf.Integer(500)},
	}
	fontRef := doc.Alloc()
	doc.Put(fontRef, font)
	singlePage(doc, "BT /F1 12 Tf (AZB) Tj ET", fontRef)

	if _, err := applyNotdefUsage(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	var shown pdf.String
	for _, op := range pageContent(t, doc) {
		if op.Operator == "Tj" && len(op.Operands) == 1 {
			shown, _ = op.Operands[0].(pdf.String)
		}
	}
	if string(shown) != "AB" {
		t.Errorf("got shown text %q, want AB", shown)
	}
}

// compositeFontDoc builds a document with one page showing the given
// text through a Type0 font with an embedded TrueType program.  The
// CIDToGIDMap stream holds the given mapping data.
func compositeFontDoc(t *testing.T, doc *pdf.Document, cidToGID []byte, text string) (pdf.Dict, pdf.Dict) {
	t.Helper()
	ttf, ok := font.Substitute("Helvetica", 0)
	if !ok {
		t.Fatal("no substitute program for Helvetica")
	}
	fileRef := doc.Alloc()
	doc.Put(fileRef, pdf.NewFlateStream(ttf, pdf.Dict{
		"Length1": pdf.Integer(len(ttf)),
	}))

	fd := pdf.Dict{
		"Type":      pdf.Name("FontDescriptor"),
		"FontName":  pdf.Name("Tester"),
		"Flags":     pdf.Integer(font.FlagNonsymbolic),
		"FontFile2": fileRef,
	}
	fdRef := doc.Alloc()
	doc.Put(fdRef, fd)

	mapRef := doc.Alloc()
	doc.Put(mapRef, pdf.NewFlateStream(cidToGID, nil))

	cidFont := pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("CIDFontType2"),
		"BaseFont": pdf.Name("Tester"),
		"CIDSystemInfo": pdf.Dict{
			"Registry":   pdf.String("Adobe"),
			"Ordering":   pdf.String("Identity"),
			"Supplement": pdf.Integer(0),
		},
		"FontDescriptor": fdRef,
		"CIDToGIDMap":    mapRef,
	}
	cidRef := doc.Alloc()
	doc.Put(cidRef, cidFont)

	fontRef := doc.Alloc()
	doc.Put(fontRef, pdf.Dict{
		"Type":            pdf.Name("Font"),
		"Subtype":         pdf.Name("Type0"),
		"BaseFont":        pdf.Name("Tester"),
		"Encoding":        pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{cidRef},
	})
	singlePage(doc, text, fontRef)
	return cidFont, fd
}

func TestNotdefUsageCompositeMapEnd(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	cidToGID := make([]byte, 2*0x43) // covers CIDs 0 to 0x42
	for cid := 1; cid <= 0x42; cid++ {
		cidToGID[2*cid+1] = 1
	}
	compositeFontDoc(t, doc, cidToGID, "BT /F1 12 Tf <004100420043> Tj ET")

	if _, err := applyNotdefUsage(doc, NewOptions(Level2U)); err != nil {
		t.Fatal(err)
	}

	var shown pdf.String
	for _, op := range pageContent(t, doc) {
		if op.Operator == "Tj" && len(op.Operands) == 1 {
			shown, _ = op.Operands[0].(pdf.String)
		}
	}
	want := pdf.String{0x00, 0x41, 0x00, 0x42}
	if !bytes.Equal(shown, want) {
		t.Errorf("got shown text <% x>, want <% x>", shown, want)
	}
}

func TestGlyphCoverageComposite(t *testing.T) {
	ttf, ok := font.Substitute("Helvetica", 0)
	if !ok {
		t.Fatal("no substitute program for Helvetica")
	}
	orig, err := sfnt.Read(bytes.NewReader(ttf))
	if err != nil {
		t.Fatal(err)
	}
	target := orig.NumGlyphs() + 2

	doc := pdf.NewDocument(pdf.V1_7)
	cidToGID := make([]byte, 2*0x42)
	cidToGID[2*0x41] = byte(target >> 8)
	cidToGID[2*0x41+1] = byte(target)
	_, fd := compositeFontDoc(t, doc, cidToGID, "BT /F1 12 Tf <0041> Tj ET")

	warnings, err := applyGlyphCoverage(doc, NewOptions(Level2B))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Fatal("no warning for extended font program")
	}

	prog := font.LoadProgram(doc, fd)
	if prog == nil || prog.SFNT == nil {
		t.Fatal("extended font program does not parse")
	}
	if got := prog.SFNT.NumGlyphs(); got != target+1 {
		t.Errorf("got %d glyphs, want %d", got, target+1)
	}

	warnings, err = applyGlyphCoverage(doc, NewOptions(Level2B))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("second run extended the program again: %v", warnings)
	}
}

func TestActualTextPrivateUse(t *testing.T) {
	var buf bytes.Buffer
	m := map[uint32][]rune{65: {0xE005}}
	if err := tounicode.New(m, false).Write(&buf); err != nil {
		t.Fatal(err)
	}

	doc := pdf.NewDocument(pdf.V1_7)
	tuRef := doc.Alloc()
	doc.Put(tuRef, pdf.NewFlateStream(buf.Bytes(), nil))
	fontRef := doc.Alloc()
	doc.Put(fontRef, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Helvetica"),
		"Encoding": pdf.Dict{
			"Type":        pdf.Name("Encoding"),
			"Differences": pdf.Array{pdf.Integer(65), pdf.Name("copyright")},
		},
		"ToUnicode": tuRef,
	})
	singlePage(doc, "BT /F1 12 Tf (A) Tj ET", fontRef)

	warnings, err := applyActualText(doc, NewOptions(Level2U))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Fatal("no warning for wrapped text operator")
	}

	ops := pageContent(t, doc)
	var actual pdf.String
	spans := 0
	for i, op := range ops {
		if op.Operator != "BDC" || len(op.Operands) != 2 {
			continue
		}
		spans++
		if props, ok := op.Operands[1].(pdf.Dict); ok {
			actual, _ = props["ActualText"].(pdf.String)
		}
		if i+2 >= len(ops) || ops[i+1].Operator != "Tj" || ops[i+2].Operator != "EMC" {
			t.Error("text operator not wrapped in a marked content span")
		}
	}
	if spans != 1 {
		t.Fatalf("got %d marked content spans, want 1", spans)
	}
	want := pdf.String{0xFE, 0xFF, 0x00, 0xA9}
	if !bytes.Equal(actual, want) {
		t.Errorf("got ActualText <% x>, want <% x>", actual, want)
	}

	// operators already inside a span must stay untouched
	if _, err := applyActualText(doc, NewOptions(Level2U)); err != nil {
		t.Fatal(err)
	}
	spans = 0
	for _, op := range pageContent(t, doc) {
		if op.Operator == "BDC" {
			spans++
		}
	}
	if spans != 1 {
		t.Errorf("second run wrapped again, %d spans", spans)
	}
}

func TestFiltersLZW(t *testing.T) {
	payload := []byte("LZW compressed stream payload")
	var buf bytes.Buffer
	lw := lzw.NewWriter(&buf, true)
	if _, err := lw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := lw.Close(); err != nil {
		t.Fatal(err)
	}

	doc := pdf.NewDocument(pdf.V1_7)
	singlePage(doc, "", nil)
	stm := &pdf.Stream{
		Dict: pdf.Dict{"Filter": pdf.Name("LZWDecode")},
		Raw:  buf.Bytes(),
	}
	doc.Put(doc.Alloc(), stm)

	if _, err := applyFilters(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	if f := doc.GetName(stm.Dict["Filter"]); f != "FlateDecode" {
		t.Errorf("got Filter %q, want FlateDecode", f)
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("got stream data %q, want %q", data, payload)
	}
}

func TestAnnotationsRepair(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	pageRef := resourcePage(doc, "", pdf.Dict{})

	soundRef := doc.Alloc()
	doc.Put(soundRef, pdf.Dict{
		"Type":    pdf.Name("Annot"),
		"Subtype": pdf.Name("Sound"),
		"Rect":    pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(10), pdf.Integer(10)},
	})
	text := pdf.Dict{
		"Type":    pdf.Name("Annot"),
		"Subtype": pdf.Name("Text"),
		"F":       pdf.Integer(annotFlagHidden),
		"Rect":    pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(10), pdf.Integer(10)},
	}
	textRef := doc.Alloc()
	doc.Put(textRef, text)

	annotsRef := doc.Alloc()
	doc.Put(annotsRef, pdf.Array{soundRef, textRef})
	page := doc.GetDict(pageRef)
	page["Annots"] = annotsRef

	warnings, err := applyAnnotations(doc, NewOptions(Level2B))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Error("no warning for removed annotation")
	}

	annots := doc.GetArray(page["Annots"])
	if len(annots) != 1 {
		t.Fatalf("got %d annotations, want 1", len(annots))
	}
	if ref, _ := annots[0].(pdf.Reference); ref != textRef {
		t.Error("wrong annotation kept")
	}

	flags, _ := doc.GetInteger(text["F"])
	if flags&annotFlagPrint == 0 {
		t.Error("Print flag not set")
	}
	if flags&annotFlagHidden != 0 {
		t.Error("Hidden flag not cleared")
	}
	if flags&(annotFlagNoZoom|annotFlagNoRotate) != annotFlagNoZoom|annotFlagNoRotate {
		t.Error("NoZoom and NoRotate not set on text annotation")
	}
	if doc.GetDict(text["AP"]) == nil {
		t.Error("no appearance dictionary added")
	}
}

func TestXObjectBitsPerComponent(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	img := &pdf.Stream{
		Dict: pdf.Dict{
			"Type":             pdf.Name("XObject"),
			"Subtype":          pdf.Name("Image"),
			"Width":            pdf.Integer(2),
			"Height":           pdf.Integer(1),
			"ColorSpace":       pdf.Name("DeviceGray"),
			"BitsPerComponent": pdf.Integer(3),
		},
		Raw: []byte{0xb8}, // samples 5 and 6 at 3 bits each
	}
	imgRef := doc.Alloc()
	doc.Put(imgRef, img)
	resourcePage(doc, "q 10 0 0 10 0 0 cm /Im1 Do Q", pdf.Dict{
		"XObject": pdf.Dict{"Im1": imgRef},
	})

	if _, err := applyXObjects(doc, NewOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	if bpc, _ := doc.GetInteger(img.Dict["BitsPerComponent"]); bpc != 8 {
		t.Errorf("got BitsPerComponent %d, want 8", bpc)
	}
	data, err := doc.DecodeStream(img)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{182, 219}
	if !bytes.Equal(data, want) {
		t.Errorf("got samples % x, want % x", data, want)
	}
}

func TestRunIdempotent(t *testing.T) {
	payload := []byte("stream payload")
	var buf bytes.Buffer
	lw := lzw.NewWriter(&buf, true)
	if _, err := lw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := lw.Close(); err != nil {
		t.Fatal(err)
	}

	doc := pdf.NewDocument(pdf.V1_7)
	fontRef := doc.Alloc()
	doc.Put(fontRef, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Helvetica"),
	})
	singlePage(doc, "BT /F1 12 Tf (AB) Tj ET", fontRef)
	doc.Put(doc.Alloc(), &pdf.Stream{
		Dict: pdf.Dict{"Filter": pdf.Name("LZWDecode")},
		Raw:  buf.Bytes(),
	})

	if _, err := Run(doc, NewOptions(Level2U)); err != nil {
		t.Fatal(err)
	}
	again, err := Run(doc, NewOptions(Level2U))
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range again {
		t.Errorf("second run not a no-op: %s", w)
	}
}
