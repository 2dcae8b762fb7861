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

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Program is the font program embedded in a font descriptor.  Exactly
// one of SFNT and CFF is set: SFNT for FontFile2 streams and for
// OpenType-wrapped FontFile3 streams, CFF for bare Type1C and
// CIDFontType0C streams.
type Program struct {
	// Key is the descriptor entry the program was read from, either
	// "FontFile2" or "FontFile3".
	Key pdf.Name

	SFNT *sfnt.Font
	CFF  *cff.Font
}

// LoadProgram parses the font program embedded in a font descriptor.
// The result is nil when the descriptor holds no parsable program.
// Type1 programs in FontFile streams are not parsed.
func LoadProgram(doc *pdf.Document, fd pdf.Dict) *Program {
	if stm := doc.GetStream(fd["FontFile2"]); stm != nil {
		if data, err := doc.DecodeStream(stm); err == nil {
			if f, err := sfnt.Read(bytes.NewReader(data)); err == nil {
				return &Program{Key: "FontFile2", SFNT: f}
			}
		}
	}

	stm := doc.GetStream(fd["FontFile3"])
	if stm == nil {
		return nil
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		return nil
	}
	if doc.GetName(stm.Dict["Subtype"]) == "OpenType" {
		if f, err := sfnt.Read(bytes.NewReader(data)); err == nil {
			return &Program{Key: "FontFile3", SFNT: f}
		}
		return nil
	}
	if f, err := cff.Read(bytes.NewReader(data)); err == nil {
		return &Program{Key: "FontFile3", CFF: f}
	}
	return nil
}

// NumGlyphs returns the number of glyphs in the font program.
func (p *Program) NumGlyphs() int {
	if p.SFNT != nil {
		return p.SFNT.NumGlyphs()
	}
	return p.CFF.NumGlyphs()
}

// GlyphWidthPDF returns the advance width of a glyph in PDF glyph
// space units.
func (p *Program) GlyphWidthPDF(gid glyph.ID) float64 {
	if p.SFNT != nil {
		return p.SFNT.GlyphWidthPDF(gid)
	}
	return p.CFF.GlyphWidthPDF(gid)
}

// BestCMap returns the best character map subtable of an SFNT program,
// or nil when the program has none.
func (p *Program) BestCMap() cmap.Subtable {
	if p.SFNT == nil {
		return nil
	}
	sub, err := p.SFNT.CMapTable.GetBest()
	if err != nil {
		return nil
	}
	return sub
}

// GIDForName returns the glyph ID of the named glyph in a name-keyed
// CFF program, or 0 when the glyph is absent.
func (p *Program) GIDForName(name string) glyph.ID {
	if p.CFF == nil || p.CFF.IsCIDKeyed() {
		return 0
	}
	for gid, g := range p.CFF.Glyphs {
		if g != nil && g.Name == name {
			return glyph.ID(gid)
		}
	}
	return 0
}

// IsCIDKeyed reports whether the program is a CID-keyed CFF font.
func (p *Program) IsCIDKeyed() bool {
	return p.CFF != nil && p.CFF.IsCIDKeyed()
}

// CIDToGID returns the charset mapping of a CID-keyed CFF program as a
// map from character identifiers to glyph IDs.  The result is nil for
// all other program flavors.
func (p *Program) CIDToGID() map[uint32]glyph.ID {
	if !p.IsCIDKeyed() {
		return nil
	}
	m := make(map[uint32]glyph.ID, len(p.CFF.GIDToCID))
	for gid, cid := range p.CFF.GIDToCID {
		if gid != 0 {
			m[uint32(cid)] = glyph.ID(gid)
		}
	}
	return m
}

// MaxCID returns the largest character identifier of a CID-keyed CFF
// program, or -1 for all other program flavors.
func (p *Program) MaxCID() int64 {
	if !p.IsCIDKeyed() {
		return -1
	}
	var max int64
	for _, cid := range p.CFF.GIDToCID {
		if int64(cid) > max {
			max = int64(cid)
		}
	}
	return max
}
