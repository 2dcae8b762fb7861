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

package font

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/iRedPaul/pdftopdfa/font/tounicode"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// singlePageDoc builds a document with one page showing text with the
// given font dictionary under the resource name /F1.
func singlePageDoc(doc *pdf.Document, content string, fontObj pdf.Object) {
	contRef := doc.Alloc()
	doc.Put(contRef, pdf.NewFlateStream([]byte(content), nil))

	pagesRef := doc.Alloc()
	pageRef := doc.Alloc()
	doc.Put(pageRef, pdf.Dict{
		"Type":     pdf.Name("Page"),
		"Parent":   pagesRef,
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(612), pdf.Integer(792)},
		"Contents": contRef,
		"Resources": pdf.Dict{
			"Font": pdf.Dict{"F1": fontObj},
		},
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
}

func helveticaDict(doc *pdf.Document) pdf.Reference {
	ref := doc.Alloc()
	doc.Put(ref, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Helvetica"),
	})
	return ref
}

func TestDiscover(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fontRef := helveticaDict(doc)
	singlePageDoc(doc, "BT /F1 12 Tf (Hello) Tj ET", fontRef)

	fonts, err := Discover(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(fonts) != 1 {
		t.Fatalf("got %d fonts, want 1", len(fonts))
	}
	f := fonts[0]
	if f.Ref != fontRef {
		t.Errorf("got ref %s, want %s", f.Ref, fontRef)
	}
	if f.Subtype != "Type1" {
		t.Errorf("got subtype %q, want Type1", f.Subtype)
	}
	if f.IsEmbedded(doc) {
		t.Error("font without font program reported as embedded")
	}
	if !IsStandard14(f.BaseFont(doc)) {
		t.Error("Helvetica not recognized as standard font")
	}
}

func TestDiscoverAcroForm(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	pageFont := helveticaDict(doc)
	singlePageDoc(doc, "", pageFont)

	drFont := doc.Alloc()
	doc.Put(drFont, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Courier"),
	})
	root := doc.GetDict(doc.Trailer["Root"])
	root["AcroForm"] = pdf.Dict{
		"DR": pdf.Dict{"Font": pdf.Dict{"Helv": drFont}},
	}

	fonts, err := Discover(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(fonts) != 2 {
		t.Fatalf("got %d fonts, want 2", len(fonts))
	}
}

func TestScanUsage(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fontRef := helveticaDict(doc)
	singlePageDoc(doc, "BT /F1 12 Tf (AB) Tj [(C) -120 (D)] TJ ET", fontRef)

	usage, err := ScanUsage(doc)
	if err != nil {
		t.Fatal(err)
	}
	got := usage[fontRef]
	want := map[uint32]bool{'A': true, 'B': true, 'C': true, 'D': true}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("usage mismatch (-want +got):\n%s", d)
	}
}

func TestScanUsageRestoresFont(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fontRef := helveticaDict(doc)
	singlePageDoc(doc, "BT /F1 12 Tf q /F1 8 Tf (A) Tj Q (B) Tj ET", fontRef)

	usage, err := ScanUsage(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !usage[fontRef]['A'] || !usage[fontRef]['B'] {
		t.Errorf("got codes %v, want A and B", usage[fontRef])
	}
}

func TestEmbedSimple(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fontRef := helveticaDict(doc)
	singlePageDoc(doc, "BT /F1 12 Tf (Hello) Tj ET", fontRef)

	n, err := EmbedMissing(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d fonts changed, want 1", n)
	}

	dict := doc.GetDict(fontRef)
	if got := doc.GetName(dict["Subtype"]); got != "TrueType" {
		t.Errorf("got subtype %q, want TrueType", got)
	}
	if got := len(doc.GetArray(dict["Widths"])); got != 256 {
		t.Errorf("got %d widths, want 256", got)
	}
	fd := doc.GetDict(dict["FontDescriptor"])
	if doc.GetStream(fd["FontFile2"]) == nil {
		t.Error("no embedded font program")
	}
	if doc.GetStream(dict["ToUnicode"]) == nil {
		t.Error("no ToUnicode CMap")
	}

	fonts, err := Discover(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !fonts[0].IsEmbedded(doc) {
		t.Error("font still reported as not embedded")
	}

	// a second run must be a no-op
	n, err = EmbedMissing(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second run changed %d fonts, want 0", n)
	}
}

func TestEmbedComposite(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)

	tu := tounicode.New(map[uint32][]rune{
		0x0041: {'A'},
		0x0042: {'B'},
	}, true)
	tuRef, err := toUnicodeStream(doc, tu)
	if err != nil {
		t.Fatal(err)
	}

	cidFontRef := doc.Alloc()
	doc.Put(cidFontRef, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("CIDFontType0"),
		"BaseFont": pdf.Name("SomeMissingFont"),
		"CIDSystemInfo": pdf.Dict{
			"Registry":   pdf.String("Adobe"),
			"Ordering":   pdf.String("Identity"),
			"Supplement": pdf.Integer(0),
		},
	})
	fontRef := doc.Alloc()
	doc.Put(fontRef, pdf.Dict{
		"Type":            pdf.Name("Font"),
		"Subtype":         pdf.Name("Type0"),
		"BaseFont":        pdf.Name("SomeMissingFont"),
		"Encoding":        pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{cidFontRef},
		"ToUnicode":       tuRef,
	})
	singlePageDoc(doc, "BT /F1 12 Tf <00410042> Tj ET", fontRef)

	n, err := EmbedMissing(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d fonts changed, want 1", n)
	}

	cidFont := doc.GetDict(cidFontRef)
	if got := doc.GetName(cidFont["Subtype"]); got != "CIDFontType2" {
		t.Errorf("got subtype %q, want CIDFontType2", got)
	}
	fd := doc.GetDict(cidFont["FontDescriptor"])
	if doc.GetStream(fd["FontFile2"]) == nil {
		t.Error("no embedded font program")
	}
	base := string(doc.GetName(cidFont["BaseFont"]))
	if !regexp.MustCompile(`^[A-Z]{6}\+`).MatchString(base) {
		t.Errorf("BaseFont %q has no subset tag", base)
	}
	if got := doc.GetName(doc.GetDict(fontRef)["Encoding"]); got != "Identity-H" {
		t.Errorf("got encoding %q, want Identity-H", got)
	}
}

func TestSubsetTag(t *testing.T) {
	tag := SubsetTag([]glyph.ID{0, 12, 13, 40}, 1000)
	if !regexp.MustCompile(`^[A-Z]{6}$`).MatchString(tag) {
		t.Errorf("invalid subset tag %q", tag)
	}
	again := SubsetTag([]glyph.ID{40, 13, 0, 12}, 1000)
	if tag != again {
		t.Errorf("subset tag depends on glyph order: %q != %q", tag, again)
	}
	other := SubsetTag([]glyph.ID{0, 12, 13, 41}, 1000)
	if tag == other {
		t.Errorf("different subsets got the same tag %q", tag)
	}
}

func TestCompositeWidthsRoundTrip(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	ww := map[CID]float64{
		1: 500,
		2: 500,
		3: 500,
		7: 600,
		8: 620,
		9: 640,
	}
	w := EncodeComposite(ww, 1000)
	got, dw := DecodeComposite(doc, w, pdf.Real(1000))
	if dw != 1000 {
		t.Errorf("got dw %g, want 1000", dw)
	}
	if d := cmp.Diff(ww, got); d != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", d)
	}
}

func TestRepairSimpleWidths(t *testing.T) {
	actual := func(code byte) (float64, bool) {
		if code >= 'A' && code <= 'Z' {
			return 600, true
		}
		return 0, false
	}

	t.Run("within tolerance", func(t *testing.T) {
		doc := pdf.NewDocument(pdf.V1_7)
		widths := make(pdf.Array, 256)
		for i := range widths {
			widths[i] = pdf.Integer(601) // off by one is acceptable
		}
		dict := pdf.Dict{
			"FirstChar": pdf.Integer(0),
			"LastChar":  pdf.Integer(255),
			"Widths":    widths,
		}
		if RepairSimpleWidths(doc, dict, actual, nil) {
			t.Error("widths within tolerance were rewritten")
		}
	})

	t.Run("wrong widths", func(t *testing.T) {
		doc := pdf.NewDocument(pdf.V1_7)
		widths := make(pdf.Array, 256)
		for i := range widths {
			widths[i] = pdf.Integer(250)
		}
		dict := pdf.Dict{
			"FirstChar": pdf.Integer(0),
			"LastChar":  pdf.Integer(255),
			"Widths":    widths,
		}
		if !RepairSimpleWidths(doc, dict, actual, nil) {
			t.Fatal("wrong widths were not rewritten")
		}
		first, _ := doc.GetInteger(dict["FirstChar"])
		arr := doc.GetArray(dict["Widths"])
		w, _ := doc.GetNumber(arr['A'-int(first)])
		if w != 600 {
			t.Errorf("got width %g for A, want 600", w)
		}
	})
}

func TestBaseName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"ABCDEF+Helvetica", "Helvetica"},
		{"Helvetica", "Helvetica"},
		{"ABC+Helvetica", "ABC+Helvetica"},
		{"ABCDEFG+Foo", "ABCDEFG+Foo"},
	}
	for _, c := range cases {
		if got := BaseName(c.in); got != c.want {
			t.Errorf("BaseName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSubstitute(t *testing.T) {
	if _, exact := Substitute("Helvetica-Bold", 0); !exact {
		t.Error("no exact substitute for Helvetica-Bold")
	}
	if _, exact := Substitute("SomeUnknownFont", 0); exact {
		t.Error("unknown font reported as exact match")
	}
	ttf, _ := Substitute("SomeUnknownFont", Flags(FlagFixedPitch))
	mono, _ := Substitute("Courier", 0)
	if &ttf[0] != &mono[0] {
		t.Error("fixed pitch fallback is not the mono font")
	}
}

func TestEnsureToUnicode(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fontRef := helveticaDict(doc)
	singlePageDoc(doc, "BT /F1 12 Tf (AB) Tj ET", fontRef)

	n, err := EnsureToUnicode(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d fonts changed, want 1", n)
	}

	stm := doc.GetStream(doc.GetDict(fontRef)["ToUnicode"])
	if stm == nil {
		t.Fatal("no ToUnicode CMap written")
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	info, err := tounicode.Read(data)
	if err != nil {
		t.Fatal(err)
	}
	rr, ok := info.Lookup('A')
	if !ok || string(rr) != "A" {
		t.Errorf("got %q for code A, want A", string(rr))
	}

	// a second run must be a no-op
	n, err = EnsureToUnicode(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second run changed %d fonts, want 0", n)
	}
}

func TestUnicodeForNames(t *testing.T) {
	var table [256]string
	table['A'] = "adieresis"
	table['B'] = "f_i"
	table['C'] = "a9"
	table['D'] = "uni20AC"

	m := UnicodeForNames(table, "Helvetica")
	if string(m['A']) != "ä" {
		t.Errorf("got %q for adieresis, want ä", string(m['A']))
	}
	if string(m['B']) != "fi" {
		t.Errorf("got %q for f_i, want fi", string(m['B']))
	}
	if string(m['D']) != "€" {
		t.Errorf("got %q for uni20AC, want €", string(m['D']))
	}
	if _, ok := m['C']; ok {
		t.Error("dingbat name resolved outside ZapfDingbats")
	}

	z := UnicodeForNames(table, "ZapfDingbats")
	if string(z['C']) != "✠" {
		t.Errorf("got %q for a9 in ZapfDingbats, want ✠", string(z['C']))
	}
}

// embeddedCompositeDoc builds a document with a composite font whose
// TrueType program is one of the builtin substitutes, embedded in
// full with an Identity CIDToGIDMap.  The page shows the glyphs for
// the given runes; the returned glyph IDs double as character codes.
func embeddedCompositeDoc(t *testing.T, doc *pdf.Document, runes []rune) (pdf.Reference, pdf.Dict, []glyph.ID) {
	t.Helper()

	ttfData, _ := Substitute("Helvetica", 0)
	ttf, err := sfnt.Read(bytes.NewReader(ttfData))
	if err != nil {
		t.Fatal(err)
	}
	cmapTable, err := ttf.CMapTable.GetBest()
	if err != nil {
		t.Fatal(err)
	}
	var gids []glyph.ID
	for _, r := range runes {
		gid := cmapTable.Lookup(r)
		if gid == 0 {
			t.Fatalf("substitute font has no glyph for %q", r)
		}
		gids = append(gids, gid)
	}

	progRef := doc.Alloc()
	doc.Put(progRef, pdf.NewFlateStream(ttfData, pdf.Dict{
		"Length1": pdf.Integer(len(ttfData)),
	}))
	fdRef := doc.Alloc()
	doc.Put(fdRef, pdf.Dict{
		"Type":      pdf.Name("FontDescriptor"),
		"FontName":  pdf.Name("Tester"),
		"Flags":     pdf.Integer(FlagNonsymbolic),
		"FontFile2": progRef,
	})
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
		"CIDToGIDMap":    pdf.Name("Identity"),
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

	text := "<"
	for _, gid := range gids {
		text += fmt.Sprintf("%04X", gid)
	}
	text += ">"
	singlePageDoc(doc, "BT /F1 12 Tf "+text+" Tj ET", fontRef)
	return fontRef, cidFont, gids
}

func TestCompositeToUnicodeFromProgram(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fontRef, _, gids := embeddedCompositeDoc(t, doc, []rune{'A'})

	n, err := EnsureToUnicode(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d fonts changed, want 1", n)
	}

	stm := doc.GetStream(doc.GetDict(fontRef)["ToUnicode"])
	if stm == nil {
		t.Fatal("no ToUnicode CMap written")
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	info, err := tounicode.Read(data)
	if err != nil {
		t.Fatal(err)
	}
	rr, ok := info.Lookup(uint32(gids[0]))
	if !ok || string(rr) != "A" {
		t.Errorf("got %q for the glyph of A, want A", string(rr))
	}
}

func TestSubsetEmbeddedComposite(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	fontRef, cidFont, gids := embeddedCompositeDoc(t, doc, []rune{'A', 'B'})

	n, err := SubsetEmbedded(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d fonts subset, want 1", n)
	}

	base := string(doc.GetName(doc.GetDict(fontRef)["BaseFont"]))
	if !regexp.MustCompile(`^[A-Z]{6}\+`).MatchString(base) {
		t.Errorf("BaseFont %q has no subset tag", base)
	}
	fd := doc.GetDict(cidFont["FontDescriptor"])
	prog := LoadProgram(doc, fd)
	if prog == nil || prog.SFNT == nil {
		t.Fatal("subset font program cannot be parsed")
	}
	if got := prog.NumGlyphs(); got != 3 {
		t.Errorf("subset program has %d glyphs, want 3", got)
	}

	stm := doc.GetStream(cidFont["CIDToGIDMap"])
	if stm == nil {
		t.Fatal("CIDToGIDMap is not a stream after subsetting")
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	for _, gid := range gids {
		idx := 2 * int(gid)
		if idx+1 >= len(data) {
			t.Fatalf("CIDToGIDMap too short for CID %d", gid)
		}
		newGID := int(data[idx])<<8 | int(data[idx+1])
		if newGID == 0 || newGID >= prog.NumGlyphs() {
			t.Errorf("CID %d maps to glyph %d outside the subset", gid, newGID)
		}
	}

	// a second run must be a no-op
	n, err = SubsetEmbedded(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second run subset %d fonts, want 0", n)
	}
}

// cffFontStream builds a minimal bare CFF font program with the given
// named glyphs and embeds it as a FontFile3 stream.
func cffFontStream(t *testing.T, doc *pdf.Document, glyphs []*cff.Glyph) pdf.Reference {
	t.Helper()
	cf := &cff.Font{
		FontInfo: &type1.FontInfo{
			FontName:   "TestCFF",
			FontMatrix: matrix.Matrix{0.001, 0, 0, 0.001, 0, 0},
		},
		Outlines: &cff.Outlines{
			Glyphs:   glyphs,
			Private:  []*type1.PrivateDict{{}},
			FDSelect: func(glyph.ID) int { return 0 },
		},
	}
	var buf bytes.Buffer
	if err := cf.Write(&buf); err != nil {
		t.Fatal(err)
	}
	ref := doc.Alloc()
	doc.Put(ref, pdf.NewFlateStream(buf.Bytes(), pdf.Dict{
		"Subtype": pdf.Name("Type1C"),
	}))
	return ref
}

func TestValidateWidthsCFF(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)

	notdef := cff.NewGlyph(".notdef", 500)
	letterA := cff.NewGlyph("A", 600)
	letterA.MoveTo(50, 0)
	letterA.LineTo(550, 0)
	letterA.LineTo(300, 700)
	progRef := cffFontStream(t, doc, []*cff.Glyph{notdef, letterA})

	fdRef := doc.Alloc()
	doc.Put(fdRef, pdf.Dict{
		"Type":      pdf.Name("FontDescriptor"),
		"FontName":  pdf.Name("TestCFF"),
		"Flags":     pdf.Integer(FlagNonsymbolic),
		"FontFile3": progRef,
	})
	fontDict := pdf.Dict{
		"Type":           pdf.Name("Font"),
		"Subtype":        pdf.Name("Type1"),
		"BaseFont":       pdf.Name("TestCFF"),
		"FirstChar":      pdf.Integer(65),
		"LastChar":       pdf.Integer(65),
		"Widths":         pdf.Array{pdf.Integer(250)},
		"FontDescriptor": fdRef,
	}
	fontRef := doc.Alloc()
	doc.Put(fontRef, fontDict)
	singlePageDoc(doc, "BT /F1 12 Tf (A) Tj ET", fontRef)

	n, err := ValidateWidths(doc, discardLog())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d fonts changed, want 1", n)
	}

	first, _ := doc.GetInteger(fontDict["FirstChar"])
	arr := doc.GetArray(fontDict["Widths"])
	w, _ := doc.GetNumber(arr['A'-int(first)])
	if w != 600 {
		t.Errorf("got width %g for A, want 600", w)
	}
}

func TestLoadProgramFlavors(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)

	ttfData, _ := Substitute("Helvetica", 0)
	ttfRef := doc.Alloc()
	doc.Put(ttfRef, pdf.NewFlateStream(ttfData, pdf.Dict{
		"Length1": pdf.Integer(len(ttfData)),
	}))
	prog := LoadProgram(doc, pdf.Dict{"FontFile2": ttfRef})
	if prog == nil || prog.SFNT == nil || prog.Key != "FontFile2" {
		t.Fatal("TrueType program not loaded")
	}
	if prog.NumGlyphs() == 0 {
		t.Error("TrueType program reports no glyphs")
	}

	cffRef := cffFontStream(t, doc, []*cff.Glyph{
		cff.NewGlyph(".notdef", 500),
		cff.NewGlyph("A", 600),
	})
	prog = LoadProgram(doc, pdf.Dict{"FontFile3": cffRef})
	if prog == nil || prog.CFF == nil || prog.Key != "FontFile3" {
		t.Fatal("CFF program not loaded")
	}
	if gid := prog.GIDForName("A"); gid != 1 {
		t.Errorf("got glyph %d for name A, want 1", gid)
	}
	if prog.IsCIDKeyed() {
		t.Error("name-keyed program reported as CID-keyed")
	}

	if p := LoadProgram(doc, pdf.Dict{}); p != nil {
		t.Error("got a program from an empty descriptor")
	}
}

func TestSimpleEncodingDifferences(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	f := &Info{
		Dict: pdf.Dict{
			"Type":     pdf.Name("Font"),
			"Subtype":  pdf.Name("Type1"),
			"BaseFont": pdf.Name("Helvetica"),
			"Encoding": pdf.Dict{
				"BaseEncoding": pdf.Name("WinAnsiEncoding"),
				"Differences": pdf.Array{
					pdf.Integer(65), pdf.Name("alpha"), pdf.Name("beta"),
				},
			},
		},
		Subtype: "Type1",
	}
	table := f.SimpleEncoding(doc)
	if table[65] != "alpha" || table[66] != "beta" {
		t.Errorf("differences not applied: %q %q", table[65], table[66])
	}
	if table[67] != "C" {
		t.Errorf("base encoding lost: got %q for code 67", table[67])
	}
	if table[0xE9] != "eacute" {
		t.Errorf("got %q for 0xE9, want eacute", table[0xE9])
	}
}
