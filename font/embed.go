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
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/postscript/type1/names"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/iRedPaul/pdftopdfa/font/pdfenc"
	"github.com/iRedPaul/pdftopdfa/font/tounicode"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// EmbedMissing embeds a font program for every font of the document
// which has none.  Simple fonts are replaced in place by a visually
// similar TrueType font; composite fonts get a substitute CIDFontType2
// descendant with an Identity encoding.  EmbedMissing returns the
// number of font dictionaries changed.
func EmbedMissing(doc *pdf.Document, log *slog.Logger) (int, error) {
	fonts, err := Discover(doc)
	if err != nil {
		return 0, err
	}
	usage, err := ScanUsage(doc)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, f := range fonts {
		if f.Subtype == "Type3" || f.IsEmbedded(doc) {
			continue
		}
		var used map[uint32]bool
		if f.Ref != 0 {
			used = usage[f.Ref]
		}
		if f.Subtype == "Type0" {
			err = embedComposite(doc, f, used, log)
		} else {
			err = embedSimple(doc, f, log)
		}
		if err != nil {
			return changed, fmt.Errorf("font %q: %w", f.BaseFont(doc), err)
		}
		changed++
	}
	return changed, nil
}

// embedSimple replaces a simple font without an embedded font program
// by a substitute TrueType font.  The replacement happens in place, so
// every use of the font dictionary sees the new font.
func embedSimple(doc *pdf.Document, f *Info, log *slog.Logger) error {
	baseName := BaseName(f.BaseFont(doc))
	ttfData, exact := Substitute(baseName, f.Flags(doc))
	if !exact {
		log.Warn("no substitute for font, using fallback",
			"font", baseName)
	}
	ttf, err := sfnt.Read(bytes.NewReader(ttfData))
	if err != nil {
		return err
	}
	cmapTable, err := ttf.CMapTable.GetBest()
	if err != nil {
		return err
	}

	symbol := IsSymbolFont(baseName)
	var encTable [256]string
	var encObj pdf.Object
	if symbol {
		// the built-in encoding is not available in the substitute, so
		// it must be spelled out
		encTable = f.builtinEncoding(doc).Encoding
		encObj = differencesDict(encTable)
	} else {
		encTable = pdfenc.WinAnsi.Encoding
		encObj = pdf.Name("WinAnsiEncoding")
	}
	widths := make(pdf.Array, 256)
	missing := 0
	for code := 0; code < 256; code++ {
		var gid glyph.ID
		name := encTable[code]
		if name != "" && name != ".notdef" {
			if rr := []rune(names.ToUnicode(name, baseName)); len(rr) == 1 {
				gid = cmapTable.Lookup(rr[0])
			}
			if gid == 0 {
				missing++
			}
		}
		widths[code] = pdf.Integer(math.Round(ttf.GlyphWidthPDF(gid)))
	}
	if missing > 0 {
		log.Warn("substitute font is missing glyphs",
			"font", baseName, "glyphs", missing)
	}

	fontName := ttf.PostScriptName()
	fontFileRef, err := fontFileStream(doc, ttf)
	if err != nil {
		return err
	}
	fdRef := doc.Alloc()
	doc.Put(fdRef, descriptorDict(ttf, fontName, fontFileRef))

	widthsRef := doc.Alloc()
	doc.Put(widthsRef, widths)

	tuInfo := tounicode.New(UnicodeForNames(encTable, baseName), false)
	tuRef, err := toUnicodeStream(doc, tuInfo)
	if err != nil {
		return err
	}

	dict := f.Dict
	dict["Subtype"] = pdf.Name("TrueType")
	dict["BaseFont"] = pdf.Name(fontName)
	dict["FirstChar"] = pdf.Integer(0)
	dict["LastChar"] = pdf.Integer(255)
	dict["Widths"] = widthsRef
	dict["Encoding"] = encObj
	dict["FontDescriptor"] = fdRef
	dict["ToUnicode"] = tuRef
	return nil
}

// embedComposite gives a composite font without an embedded font
// program a substitute CIDFontType2 descendant.  The code-to-CID
// mapping is forced to Identity, and the CID-to-glyph mapping is
// reconstructed from the font's ToUnicode CMap where one is present.
func embedComposite(doc *pdf.Document, f *Info, used map[uint32]bool, log *slog.Logger) error {
	if f.CIDFont == nil {
		return errors.New("Type0 font without descendant font")
	}

	baseName := BaseName(f.BaseFont(doc))
	ttfData, exact := Substitute(baseName, f.Flags(doc))
	if !exact {
		log.Warn("no substitute for font, using fallback",
			"font", baseName)
	}
	origFont, err := sfnt.Read(bytes.NewReader(ttfData))
	if err != nil {
		return err
	}
	cmapTable, err := origFont.CMapTable.GetBest()
	if err != nil {
		return err
	}
	postScriptName := origFont.PostScriptName()

	var uni map[uint32][]rune
	if stm := doc.GetStream(f.Dict["ToUnicode"]); stm != nil {
		if data, err := doc.DecodeStream(stm); err == nil {
			if info, err := tounicode.Read(data); err == nil {
				uni = info.All()
			}
		}
	}

	// with an Identity encoding, codes and CIDs coincide
	cidSet := map[CID]bool{0: true}
	for code := range used {
		if code <= 0xFFFF {
			cidSet[CID(code)] = true
		}
	}
	if len(cidSet) == 1 {
		for code := range uni {
			if code <= 0xFFFF {
				cidSet[CID(code)] = true
			}
		}
	}

	usedGlyphs := make(map[glyph.ID]bool)
	cidToOrigGID := make(map[CID]glyph.ID)
	missing := 0
	for cid := range cidSet {
		var gid glyph.ID
		if rr := uni[uint32(cid)]; len(rr) > 0 {
			gid = cmapTable.Lookup(rr[0])
		}
		if gid == 0 && cid != 0 {
			missing++
		}
		cidToOrigGID[cid] = gid
		usedGlyphs[gid] = true
	}
	if missing > 0 {
		log.Warn("substitute font is missing glyphs",
			"font", baseName, "glyphs", missing)
	}

	origFont = origFont.Clone()
	origFont.CMapTable = nil
	origFont.Gdef = nil
	origFont.Gsub = nil
	origFont.Gpos = nil

	glyphs, newGID := subsetGlyphs(usedGlyphs)
	tag := SubsetTag(glyphs, origFont.NumGlyphs())
	subsetFont := origFont.Subset(glyphs)
	fontName := tag + "+" + postScriptName

	var maxCID CID
	for cid := range cidSet {
		if cid > maxCID {
			maxCID = cid
		}
	}
	cidToGID := make([]glyph.ID, int(maxCID)+1)
	ww := make(map[CID]float64, len(cidSet))
	isIdentity := true
	for cid := range cidSet {
		gid := newGID[cidToOrigGID[cid]]
		cidToGID[cid] = gid
		ww[cid] = math.Round(subsetFont.GlyphWidthPDF(gid))
		if CID(gid) != cid {
			isIdentity = false
		}
	}
	dw := DefaultWidth(ww)

	fontFileRef, err := fontFileStream(doc, subsetFont)
	if err != nil {
		return err
	}
	fdRef := doc.Alloc()
	doc.Put(fdRef, descriptorDict(subsetFont, fontName, fontFileRef))

	var cidToGIDObj pdf.Object = pdf.Name("Identity")
	if !isIdentity {
		buf := make([]byte, 2*len(cidToGID))
		for cid, gid := range cidToGID {
			buf[2*cid] = byte(gid >> 8)
			buf[2*cid+1] = byte(gid)
		}
		ref := doc.Alloc()
		doc.Put(ref, pdf.NewFlateStream(buf, nil))
		cidToGIDObj = ref
	}

	cidFont := f.CIDFont
	cidFont["Type"] = pdf.Name("Font")
	cidFont["Subtype"] = pdf.Name("CIDFontType2")
	cidFont["BaseFont"] = pdf.Name(fontName)
	cidFont["CIDSystemInfo"] = pdf.Dict{
		"Registry":   pdf.String("Adobe"),
		"Ordering":   pdf.String("Identity"),
		"Supplement": pdf.Integer(0),
	}
	cidFont["FontDescriptor"] = fdRef
	cidFont["CIDToGIDMap"] = cidToGIDObj
	delete(cidFont, "DW")
	if dw != 1000 {
		cidFont["DW"] = pdf.Real(dw)
	}
	if w := EncodeComposite(ww, dw); w != nil {
		cidFont["W"] = w
	} else {
		delete(cidFont, "W")
	}

	dict := f.Dict
	dict["BaseFont"] = pdf.Name(fontName)
	if enc := string(doc.GetName(dict["Encoding"])); strings.HasSuffix(enc, "-V") {
		dict["Encoding"] = pdf.Name("Identity-V")
	} else {
		dict["Encoding"] = pdf.Name("Identity-H")
	}
	if uni != nil {
		tuInfo := tounicode.New(uni, true)
		tuRef, err := toUnicodeStream(doc, tuInfo)
		if err != nil {
			return err
		}
		dict["ToUnicode"] = tuRef
	}
	return nil
}

// fontFileStream embeds a TrueType font program as a FontFile2 stream.
// See section 9.9 of PDF 32000-1:2008.
func fontFileStream(doc *pdf.Document, ttf *sfnt.Font) (pdf.Reference, error) {
	var buf bytes.Buffer
	length1, err := ttf.WriteTrueTypePDF(&buf)
	if err != nil {
		return 0, fmt.Errorf("font program %q: %w", ttf.PostScriptName(), err)
	}
	ref := doc.Alloc()
	doc.Put(ref, pdf.NewFlateStream(buf.Bytes(), pdf.Dict{
		"Length1": pdf.Integer(length1),
	}))
	return ref, nil
}

// descriptorDict builds a font descriptor for a substitute font.  The
// substitutes are Latin text fonts, so the nonsymbolic flag is always
// set.
func descriptorDict(ttf *sfnt.Font, fontName string, fontFileRef pdf.Reference) pdf.Dict {
	flags := FlagNonsymbolic
	if ttf.IsFixedPitch() {
		flags |= FlagFixedPitch
	}
	if ttf.IsSerif {
		flags |= FlagSerif
	}
	if ttf.IsScript {
		flags |= FlagScript
	}
	if ttf.IsItalic {
		flags |= FlagItalic
	}

	qv := 1000 * ttf.FontMatrix[3]
	stemV := 70
	if ttf.Weight >= 600 {
		stemV = 120
	}

	fd := pdf.Dict{
		"Type":        pdf.Name("FontDescriptor"),
		"FontName":    pdf.Name(fontName),
		"Flags":       pdf.Integer(flags),
		"FontBBox":    bboxArray(ttf.FontBBoxPDF()),
		"ItalicAngle": pdf.Real(ttf.ItalicAngle),
		"Ascent":      pdf.Integer(math.Round(float64(ttf.Ascent) * qv)),
		"Descent":     pdf.Integer(math.Round(float64(ttf.Descent) * qv)),
		"CapHeight":   pdf.Integer(math.Round(float64(ttf.CapHeight) * qv)),
		"StemV":       pdf.Integer(stemV),
		"FontFile2":   fontFileRef,
	}
	return fd
}

func bboxArray(b rect.Rect) pdf.Array {
	return pdf.Array{
		pdf.Integer(math.Floor(b.LLx)),
		pdf.Integer(math.Floor(b.LLy)),
		pdf.Integer(math.Ceil(b.URx)),
		pdf.Integer(math.Ceil(b.URy)),
	}
}

// differencesDict spells out an encoding table as an encoding
// dictionary with a Differences array.
func differencesDict(table [256]string) pdf.Dict {
	var diffs pdf.Array
	prev := -2
	for code, name := range table {
		if name == "" || name == ".notdef" {
			continue
		}
		if code != prev+1 {
			diffs = append(diffs, pdf.Integer(code))
		}
		diffs = append(diffs, pdf.Name(name))
		prev = code
	}
	return pdf.Dict{
		"Type":        pdf.Name("Encoding"),
		"Differences": diffs,
	}
}

// toUnicodeStream writes a ToUnicode CMap to a new stream object.
func toUnicodeStream(doc *pdf.Document, info *tounicode.Info) (pdf.Reference, error) {
	var buf bytes.Buffer
	if err := info.Write(&buf); err != nil {
		return 0, err
	}
	ref := doc.Alloc()
	doc.Put(ref, pdf.NewFlateStream(buf.Bytes(), nil))
	return ref, nil
}
