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
	"log/slog"
	"math"

	"seehuhn.de/go/postscript/type1/names"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// ValidateWidths compares the widths stored in the font dictionaries of
// the document with the advance widths of the embedded font programs
// and rewrites entries which are off by more than one glyph space unit.
// TrueType, OpenType and bare CFF programs are checked; Type1 programs
// in FontFile streams are not.  ValidateWidths returns the number of
// font dictionaries changed.
func ValidateWidths(doc *pdf.Document, log *slog.Logger) (int, error) {
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
		if f.Subtype == "Type3" {
			continue
		}
		fd := f.Descriptor(doc)
		if fd == nil {
			continue
		}
		prog := LoadProgram(doc, fd)
		if prog == nil {
			continue
		}

		var used map[uint32]bool
		if f.Ref != 0 {
			used = usage[f.Ref]
		}

		var fixed bool
		if f.Subtype == "Type0" {
			fixed = checkCompositeWidths(doc, f, prog, used)
		} else {
			fixed = checkSimpleWidths(doc, f, prog, used)
		}
		if fixed {
			log.Info("corrected font widths", "font", f.BaseFont(doc))
			changed++
		}
	}
	return changed, nil
}

func checkSimpleWidths(doc *pdf.Document, f *Info, prog *Program, used map[uint32]bool) bool {
	encTable := f.SimpleEncoding(doc)
	fontName := BaseName(f.BaseFont(doc))

	var actual func(code byte) (float64, bool)
	if cmapTable := prog.BestCMap(); cmapTable != nil {
		actual = func(code byte) (float64, bool) {
			var gid glyph.ID
			if name := encTable[code]; name != "" && name != ".notdef" {
				if rr := []rune(names.ToUnicode(name, fontName)); len(rr) == 1 {
					gid = cmapTable.Lookup(rr[0])
				}
			}
			if gid == 0 {
				// symbolic fonts often use a (3,0) subtable based at 0xF000
				gid = cmapTable.Lookup(rune(0xF000 + int(code)))
			}
			if gid == 0 {
				return 0, false
			}
			return math.Round(prog.GlyphWidthPDF(gid)), true
		}
	} else if prog.CFF != nil && !prog.CFF.IsCIDKeyed() {
		actual = func(code byte) (float64, bool) {
			var gid glyph.ID
			if name := encTable[code]; name != "" && name != ".notdef" {
				gid = prog.GIDForName(name)
			}
			if gid == 0 && len(prog.CFF.Encoding) == 256 {
				gid = prog.CFF.Encoding[code]
			}
			if gid == 0 {
				return 0, false
			}
			return math.Round(prog.GlyphWidthPDF(gid)), true
		}
	} else {
		return false
	}
	return RepairSimpleWidths(doc, f.Dict, actual, used)
}

func checkCompositeWidths(doc *pdf.Document, f *Info, prog *Program, used map[uint32]bool) bool {
	if f.CIDFont == nil {
		return false
	}

	// resolve the CID-to-glyph mapping
	var gidFor func(cid CID) (glyph.ID, bool)
	if prog.IsCIDKeyed() {
		// CIDFontType0: the mapping comes from the charset of the
		// CFF program
		charset := prog.CIDToGID()
		gidFor = func(cid CID) (glyph.ID, bool) {
			if cid == 0 {
				return 0, true
			}
			gid, ok := charset[uint32(cid)]
			return gid, ok
		}
	} else if stm := doc.GetStream(f.CIDFont["CIDToGIDMap"]); stm != nil {
		data, err := doc.DecodeStream(stm)
		if err != nil {
			return false
		}
		cidToGID := make([]glyph.ID, len(data)/2)
		for i := range cidToGID {
			cidToGID[i] = glyph.ID(data[2*i])<<8 | glyph.ID(data[2*i+1])
		}
		gidFor = func(cid CID) (glyph.ID, bool) {
			if int(cid) >= len(cidToGID) {
				return 0, false
			}
			return cidToGID[cid], true
		}
	} else {
		gidFor = func(cid CID) (glyph.ID, bool) {
			gid := glyph.ID(cid)
			return gid, int(gid) < prog.NumGlyphs()
		}
	}

	// with an Identity encoding, codes and CIDs coincide; for other
	// encodings the stored widths cannot be verified here
	enc := string(doc.GetName(f.Dict["Encoding"]))
	if enc != "Identity-H" && enc != "Identity-V" {
		return false
	}

	widths := make(map[CID]float64)
	for code := range used {
		if code > 0xFFFF {
			continue
		}
		gid, ok := gidFor(CID(code))
		if !ok || gid == 0 {
			continue
		}
		widths[CID(code)] = math.Round(prog.GlyphWidthPDF(gid))
	}
	if len(widths) == 0 {
		return false
	}
	return RepairCompositeWidths(doc, f.CIDFont, widths)
}
