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
	"fmt"
	"sort"

	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// applyGlyphCoverage extends embedded font programs so that every
// glyph the document references actually exists, rule 6.2.11.4-1.
// Composite TrueType fonts get blank glyphs appended for glyph IDs the
// CIDToGIDMap points past the end of the glyf table; simple CFF fonts
// get blank charstrings for encoded glyph names the program lacks.
// Codes which still have no glyph afterwards are handled by the
// notdef-usage pass.
func applyGlyphCoverage(doc *pdf.Document, opts *Options) ([]Warning, error) {
	fonts, err := font.Discover(doc)
	if err != nil {
		return nil, err
	}
	usage, err := font.ScanUsage(doc)
	if err != nil {
		return nil, err
	}

	added := 0
	for _, f := range fonts {
		if f.Ref == 0 {
			continue
		}
		used := usage[f.Ref]
		if len(used) == 0 {
			continue
		}
		switch f.Subtype {
		case "Type0":
			added += coverCompositeGlyphs(doc, f, used)
		case "TrueType", "Type1", "MMType1":
			added += coverSimpleGlyphs(doc, f, used)
		}
	}

	if added == 0 {
		return nil, nil
	}
	return []Warning{{"glyph-coverage",
		fmt.Sprintf("added %d blank glyphs to embedded fonts", added)}}, nil
}

// coverCompositeGlyphs appends blank glyphs to the glyf table of a
// composite TrueType font until every glyph ID the used CIDs map to is
// valid.
func coverCompositeGlyphs(doc *pdf.Document, f *font.Info, used map[uint32]bool) int {
	if f.CIDFont == nil {
		return 0
	}
	fd := doc.GetDict(f.CIDFont["FontDescriptor"])
	if fd == nil {
		return 0
	}
	stm := doc.GetStream(fd["FontFile2"])
	if stm == nil {
		return 0
	}
	ttf := readFontProgram(doc, stm)
	if ttf == nil {
		return 0
	}
	outlines, ok := ttf.Outlines.(*glyf.Outlines)
	if !ok {
		return 0
	}

	var cidToGID []glyph.ID
	if c2g := doc.GetStream(f.CIDFont["CIDToGIDMap"]); c2g != nil {
		data, err := doc.DecodeStream(c2g)
		if err != nil {
			return 0
		}
		cidToGID = make([]glyph.ID, len(data)/2)
		for i := range cidToGID {
			cidToGID[i] = glyph.ID(data[2*i])<<8 | glyph.ID(data[2*i+1])
		}
	}

	maxGID := -1
	for code := range used {
		if code > 0xFFFF {
			continue
		}
		var gid int
		if cidToGID == nil {
			gid = int(code)
		} else if int(code) < len(cidToGID) {
			gid = int(cidToGID[code])
		} else {
			// CIDs past the map end stay unmapped
			continue
		}
		if gid > maxGID {
			maxGID = gid
		}
	}
	if maxGID < len(outlines.Glyphs) {
		return 0
	}

	added := maxGID + 1 - len(outlines.Glyphs)
	for len(outlines.Glyphs) <= maxGID {
		outlines.Glyphs = append(outlines.Glyphs, nil)
		if outlines.Widths != nil {
			outlines.Widths = append(outlines.Widths, 0)
		}
		if outlines.Names != nil {
			outlines.Names = append(outlines.Names, "")
		}
	}
	if replaceFontFile2(doc, fd, ttf) != nil {
		return 0
	}
	return added
}

// coverSimpleGlyphs appends blank charstrings to a bare CFF program
// for encoded glyph names the program does not contain.
func coverSimpleGlyphs(doc *pdf.Document, f *font.Info, used map[uint32]bool) int {
	fd := f.Descriptor(doc)
	if fd == nil {
		return 0
	}
	stm := doc.GetStream(fd["FontFile3"])
	if stm == nil || doc.GetName(stm.Dict["Subtype"]) == "OpenType" {
		return 0
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		return 0
	}
	cf, err := cff.Read(bytes.NewReader(data))
	if err != nil || cf.IsCIDKeyed() {
		return 0
	}

	present := make(map[string]bool, len(cf.Glyphs))
	for _, g := range cf.Glyphs {
		if g != nil {
			present[g.Name] = true
		}
	}

	codes := make([]uint32, 0, len(used))
	for code := range used {
		if code <= 0xFF {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	encTable := f.SimpleEncoding(doc)
	added := 0
	for _, code := range codes {
		name := encTable[code]
		if name == "" || name == ".notdef" || present[name] {
			continue
		}
		cf.Glyphs = append(cf.Glyphs, cff.NewGlyph(name, 0))
		present[name] = true
		added++
	}
	if added == 0 {
		return 0
	}

	var buf bytes.Buffer
	if cf.Write(&buf) != nil {
		return 0
	}
	subtype := doc.GetName(stm.Dict["Subtype"])
	if subtype == "" {
		subtype = "Type1C"
	}
	stream := pdf.NewFlateStream(buf.Bytes(), pdf.Dict{
		"Subtype": subtype,
	})
	if ref, isRef := fd["FontFile3"].(pdf.Reference); isRef {
		doc.Put(ref, stream)
	} else {
		fd["FontFile3"] = stream
	}
	return added
}
