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

	"seehuhn.de/go/postscript/type1/names"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"

	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// applyTrueTypeEncoding enforces the TrueType encoding rules of
// ISO 19005-2 clause 6.2.11.6.  Non-symbolic fonts must name
// WinAnsiEncoding or MacRomanEncoding and their font program needs a
// cmap subtable other than (3,0); symbolic fonts must not have an
// /Encoding entry and need a usable (3,0) subtable when the program
// carries more than one cmap.
func applyTrueTypeEncoding(doc *pdf.Document, opts *Options) ([]Warning, error) {
	fonts, err := font.Discover(doc)
	if err != nil {
		return nil, err
	}

	fixed := 0
	for _, f := range fonts {
		if f.Subtype != "TrueType" {
			continue
		}
		fd := f.Descriptor(doc)
		stm := doc.GetStream(fd["FontFile2"])
		if stm == nil {
			continue
		}

		if f.IsSymbolic(doc) {
			if _, ok := f.Dict["Encoding"]; ok {
				delete(f.Dict, "Encoding")
				fixed++
			}
			flags, _ := doc.GetInteger(fd["Flags"])
			if flags&pdf.Integer(font.FlagSymbolic) == 0 {
				fd["Flags"] = flags | pdf.Integer(font.FlagSymbolic)
				fixed++
			}
			fixed += fixSymbolicCMap(doc, fd, stm)
		} else {
			fixed += fixNonsymbolicEncoding(doc, f.Dict)
			fixed += fixNonsymbolicCMap(doc, fd, stm)
		}
	}

	if fixed == 0 {
		return nil, nil
	}
	return []Warning{{"truetype-encoding",
		fmt.Sprintf("repaired %d TrueType encoding entries", fixed)}}, nil
}

// fixNonsymbolicEncoding makes the /Encoding entry of a non-symbolic
// TrueType font name WinAnsiEncoding or MacRomanEncoding.  Differences
// arrays may only use glyph names with a known Unicode meaning.
func fixNonsymbolicEncoding(doc *pdf.Document, fontDict pdf.Dict) int {
	switch enc := doc.Resolve(fontDict["Encoding"]).(type) {
	case pdf.Name:
		if enc == "WinAnsiEncoding" || enc == "MacRomanEncoding" {
			return 0
		}
		fontDict["Encoding"] = pdf.Name("WinAnsiEncoding")
		return 1

	case pdf.Dict:
		fixed := 0
		base := doc.GetName(enc["BaseEncoding"])
		if base != "WinAnsiEncoding" && base != "MacRomanEncoding" {
			enc["BaseEncoding"] = pdf.Name("WinAnsiEncoding")
			fixed++
		}
		if diff := doc.GetArray(enc["Differences"]); diff != nil {
			if hasUnknownGlyphNames(diff) {
				delete(enc, "Differences")
				fixed++
			}
		}
		return fixed

	default:
		fontDict["Encoding"] = pdf.Name("WinAnsiEncoding")
		return 1
	}
}

func hasUnknownGlyphNames(diff pdf.Array) bool {
	for _, item := range diff {
		name, ok := item.(pdf.Name)
		if !ok || name == ".notdef" {
			continue
		}
		if len(names.ToUnicode(string(name), "")) == 0 {
			return true
		}
	}
	return false
}

// fixNonsymbolicCMap adds a (3,1) Microsoft Unicode subtable when the
// font program carries only (3,0) subtables.  Codes from the 0xF000
// symbol range are mapped to their low-byte equivalents.
func fixNonsymbolicCMap(doc *pdf.Document, fd pdf.Dict, stm *pdf.Stream) int {
	ttf := readFontProgram(doc, stm)
	if ttf == nil || len(ttf.CMapTable) == 0 {
		return 0
	}

	var source cmap.Subtable
	for key := range ttf.CMapTable {
		if key.PlatformID != 3 || key.EncodingID != 0 {
			return 0
		}
		if sub, err := ttf.CMapTable.Get(key); err == nil && source == nil {
			source = sub
		}
	}
	if source == nil {
		return 0
	}

	mapping := cmap.Format4{}
	for code := 0; code <= 0xFF; code++ {
		if gid := source.Lookup(rune(code)); gid != 0 {
			mapping[uint16(code)] = gid
		}
		if gid := source.Lookup(rune(0xF000 | code)); gid != 0 {
			mapping[uint16(code)] = gid
		}
	}
	if len(mapping) == 0 {
		return 0
	}

	ttf.CMapTable[cmap.Key{PlatformID: 3, EncodingID: 1}] = mapping.Encode(0)
	if replaceFontFile2(doc, fd, ttf) != nil {
		return 0
	}
	return 1
}

// fixSymbolicCMap adds a (3,0) subtable in the 0xF000 range when a
// symbolic font program has several cmap subtables but no usable
// symbol subtable.
func fixSymbolicCMap(doc *pdf.Document, fd pdf.Dict, stm *pdf.Stream) int {
	ttf := readFontProgram(doc, stm)
	if ttf == nil || len(ttf.CMapTable) <= 1 {
		return 0
	}

	for key := range ttf.CMapTable {
		if key.PlatformID == 3 && key.EncodingID == 0 {
			if sub, err := ttf.CMapTable.Get(key); err == nil && subtableInUse(sub) {
				return 0
			}
		}
	}

	source := bestSymbolSource(ttf.CMapTable)
	if source == nil {
		return 0
	}
	mapping := cmap.Format4{}
	for code := 0; code <= 0xFF; code++ {
		gid := source.Lookup(rune(code))
		if gid == 0 {
			gid = source.Lookup(rune(0xF000 | code))
		}
		if gid != 0 {
			mapping[uint16(0xF000|code)] = gid
		}
	}
	if len(mapping) == 0 {
		return 0
	}

	ttf.CMapTable[cmap.Key{PlatformID: 3, EncodingID: 0}] = mapping.Encode(0)
	if replaceFontFile2(doc, fd, ttf) != nil {
		return 0
	}
	return 1
}

// subtableInUse reports whether a symbol subtable maps any code from
// the byte or symbol ranges.
func subtableInUse(sub cmap.Subtable) bool {
	for code := 0; code <= 0xFF; code++ {
		if sub.Lookup(rune(code)) != 0 || sub.Lookup(rune(0xF000|code)) != 0 {
			return true
		}
	}
	return false
}

// bestSymbolSource picks the subtable a (3,0) mapping is derived from:
// Mac Roman first, then Microsoft Unicode, then any other subtable.
func bestSymbolSource(table cmap.Table) cmap.Subtable {
	var macRoman, msUnicode, other cmap.Subtable
	for key := range table {
		if key.PlatformID == 3 && key.EncodingID == 0 {
			continue
		}
		sub, err := table.Get(key)
		if err != nil {
			continue
		}
		switch {
		case key.PlatformID == 1 && key.EncodingID == 0:
			macRoman = sub
		case key.PlatformID == 3 && key.EncodingID == 1:
			msUnicode = sub
		default:
			if other == nil {
				other = sub
			}
		}
	}
	if macRoman != nil {
		return macRoman
	}
	if msUnicode != nil {
		return msUnicode
	}
	return other
}

func readFontProgram(doc *pdf.Document, stm *pdf.Stream) *sfnt.Font {
	data, err := doc.DecodeStream(stm)
	if err != nil {
		return nil
	}
	ttf, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return ttf
}

// replaceFontFile2 writes a modified font program back into the
// descriptor's FontFile2 stream.
func replaceFontFile2(doc *pdf.Document, fd pdf.Dict, ttf *sfnt.Font) error {
	var buf bytes.Buffer
	length1, err := ttf.WriteTrueTypePDF(&buf)
	if err != nil {
		return err
	}
	stream := pdf.NewFlateStream(buf.Bytes(), pdf.Dict{
		"Length1": pdf.Integer(length1),
	})
	if ref, isRef := fd["FontFile2"].(pdf.Reference); isRef {
		doc.Put(ref, stream)
	} else {
		fd["FontFile2"] = stream
	}
	return nil
}
