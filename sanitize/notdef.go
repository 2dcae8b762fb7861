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
	"fmt"

	"seehuhn.de/go/postscript/type1/names"

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// notdefCodes is the set of character codes of a font which render as
// the .notdef glyph.  For composite fonts with an Identity mapping the
// set also covers every CID at or above the glyph count of the font
// program, without storing them individually.
type notdefCodes struct {
	explicit map[uint32]bool
	maxValid int64 // -1 when no upper bound is known
}

func (n *notdefCodes) contains(code uint32) bool {
	if n.explicit[code] {
		return true
	}
	return n.maxValid >= 0 && int64(code) > n.maxValid
}

func (n *notdefCodes) empty() bool {
	return len(n.explicit) == 0 && n.maxValid < 0
}

// applyNotdefUsage strips character codes which render as .notdef from
// the text showing operators of all content streams, rule 6.2.11.8.
func applyNotdefUsage(doc *pdf.Document, opts *Options) ([]Warning, error) {
	cache := make(map[pdf.Reference]*notdefCodes)
	fixed := 0

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		res := c.Resources()
		if res == nil {
			return nil
		}
		fontRes := doc.GetDict(res["Font"])
		if fontRes == nil {
			return nil
		}
		fixed += stripNotdefCodes(doc, c, fontRes, cache)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fixed == 0 {
		return nil, nil
	}
	return []Warning{{"notdef-usage",
		fmt.Sprintf("removed .notdef codes from %d text operators", fixed)}}, nil
}

// stripNotdefCodes rewrites one content stream, filtering .notdef
// codes out of Tj, ', " and TJ operands.  The font selected by the
// last Tf operator decides which codes are .notdef.
func stripNotdefCodes(doc *pdf.Document, c *pdf.ContentContext, fontRes pdf.Dict, cache map[pdf.Reference]*notdefCodes) int {
	data, err := c.Content()
	if err != nil {
		return 0
	}
	ops, err := content.Parse(data)
	if err != nil {
		return 0
	}

	var current *notdefCodes
	isCID := false
	fixed := 0
	changed := false
	kept := ops[:0]
	for _, op := range ops {
		switch op.Operator {
		case "Tf":
			if len(op.Operands) == 2 {
				if name, ok := op.Operands[0].(pdf.Name); ok {
					current, isCID = notdefCodesFor(doc, fontRes[name], cache)
				}
			}

		case "Tj", "'", "\"":
			if current == nil || current.empty() {
				break
			}
			idx := 0
			if op.Operator == "\"" {
				idx = 2
			}
			if len(op.Operands) <= idx {
				break
			}
			s, ok := op.Operands[idx].(pdf.String)
			if !ok {
				break
			}
			filtered, modified := filterNotdefString(s, current, isCID)
			if !modified {
				break
			}
			fixed++
			changed = true
			if len(filtered) == 0 {
				continue
			}
			op.Operands[idx] = filtered

		case "TJ":
			if current == nil || current.empty() || len(op.Operands) != 1 {
				break
			}
			arr, ok := op.Operands[0].(pdf.Array)
			if !ok {
				break
			}
			newArr, anyStrings, modified := filterNotdefArray(arr, current, isCID)
			if !modified {
				break
			}
			fixed++
			changed = true
			if !anyStrings {
				continue
			}
			op.Operands[0] = newArr
		}
		kept = append(kept, op)
	}

	if changed {
		c.SetContent(content.Serialize(kept))
	}
	return fixed
}

func filterNotdefString(s pdf.String, codes *notdefCodes, isCID bool) (pdf.String, bool) {
	var filtered pdf.String
	if isCID {
		for i := 0; i+1 < len(s); i += 2 {
			cid := uint32(s[i])<<8 | uint32(s[i+1])
			if !codes.contains(cid) {
				filtered = append(filtered, s[i], s[i+1])
			}
		}
	} else {
		for _, b := range s {
			if !codes.contains(uint32(b)) {
				filtered = append(filtered, b)
			}
		}
	}
	if len(filtered) == len(s) {
		return s, false
	}
	return filtered, true
}

func filterNotdefArray(arr pdf.Array, codes *notdefCodes, isCID bool) (pdf.Array, bool, bool) {
	var newArr pdf.Array
	anyStrings := false
	modified := false
	for _, elem := range arr {
		s, ok := elem.(pdf.String)
		if !ok {
			newArr = append(newArr, elem)
			continue
		}
		filtered, m := filterNotdefString(s, codes, isCID)
		if m {
			modified = true
			if len(filtered) == 0 {
				continue
			}
		}
		newArr = append(newArr, filtered)
		anyStrings = true
	}
	return newArr, anyStrings, modified
}

// notdefCodesFor computes (and caches, for indirect fonts) the .notdef
// code set of a font resource entry.
func notdefCodesFor(doc *pdf.Document, obj pdf.Object, cache map[pdf.Reference]*notdefCodes) (*notdefCodes, bool) {
	ref, isRef := obj.(pdf.Reference)
	dict := doc.GetDict(obj)
	if dict == nil {
		return nil, false
	}
	subtype := doc.GetName(dict["Subtype"])
	isCID := subtype == "Type0"

	if isRef {
		if codes, ok := cache[ref]; ok {
			return codes, isCID
		}
	}

	var codes *notdefCodes
	switch subtype {
	case "TrueType", "Type1", "MMType1":
		codes = simpleNotdefCodes(doc, &font.Info{Ref: ref, Dict: dict, Subtype: subtype})
	case "Type0":
		codes = compositeNotdefCodes(doc, dict)
	default:
		codes = &notdefCodes{maxValid: -1}
	}

	if isRef {
		cache[ref] = codes
	}
	return codes, isCID
}

// simpleNotdefCodes flags codes outside [FirstChar, LastChar], codes
// without a glyph name, and codes whose glyph is absent from the
// embedded font program.
func simpleNotdefCodes(doc *pdf.Document, f *font.Info) *notdefCodes {
	codes := &notdefCodes{explicit: make(map[uint32]bool), maxValid: -1}

	first, okFirst := doc.GetInteger(f.Dict["FirstChar"])
	if !okFirst {
		first = 0
	}
	last, okLast := doc.GetInteger(f.Dict["LastChar"])
	if !okLast {
		last = 255
	}
	for code := pdf.Integer(0); code < 256; code++ {
		if code < first || code > last {
			codes.explicit[uint32(code)] = true
		}
	}

	fd := f.Descriptor(doc)
	if fd == nil {
		return codes
	}
	prog := font.LoadProgram(doc, fd)
	if prog == nil {
		return codes
	}
	cmapTable := prog.BestCMap()
	if cmapTable == nil && (prog.CFF == nil || prog.CFF.IsCIDKeyed()) {
		return codes
	}

	encTable := f.SimpleEncoding(doc)
	fontName := font.BaseName(f.BaseFont(doc))
	for code := first; code <= last && code < 256; code++ {
		if code < 0 {
			continue
		}
		name := encTable[code]
		if name == "" || name == ".notdef" {
			codes.explicit[uint32(code)] = true
			continue
		}
		var found bool
		if cmapTable != nil {
			if rr := []rune(names.ToUnicode(name, fontName)); len(rr) == 1 {
				found = cmapTable.Lookup(rr[0]) != 0
			}
			if !found {
				found = cmapTable.Lookup(rune(0xF000+code)) != 0
			}
		} else {
			found = prog.GIDForName(name) != 0
			if !found && len(prog.CFF.Encoding) == 256 {
				found = prog.CFF.Encoding[code] != 0
			}
		}
		if !found {
			codes.explicit[uint32(code)] = true
		}
	}
	return codes
}

// compositeNotdefCodes flags CID 0 and, when the glyph count of the
// font program is known, every CID beyond it.  Stream CIDToGIDMaps
// additionally reveal CIDs mapped to glyph 0.
func compositeNotdefCodes(doc *pdf.Document, fontDict pdf.Dict) *notdefCodes {
	codes := &notdefCodes{explicit: make(map[uint32]bool), maxValid: -1}

	desc := doc.GetArray(fontDict["DescendantFonts"])
	if len(desc) == 0 {
		return codes
	}
	cidFont := doc.GetDict(desc[0])
	if cidFont == nil {
		return codes
	}

	numGlyphs := int64(-1)
	var prog *font.Program
	if fd := doc.GetDict(cidFont["FontDescriptor"]); fd != nil {
		prog = font.LoadProgram(doc, fd)
	}
	if prog != nil {
		numGlyphs = int64(prog.NumGlyphs())
	}

	if prog != nil && prog.IsCIDKeyed() {
		// CIDFontType0: CIDs map through the charset of the CFF program
		codes.explicit[0] = true
		charset := prog.CIDToGID()
		codes.maxValid = prog.MaxCID()
		for cid := uint32(1); int64(cid) <= codes.maxValid; cid++ {
			if charset[cid] == 0 {
				codes.explicit[cid] = true
			}
		}
		return codes
	}

	if stm := doc.GetStream(cidFont["CIDToGIDMap"]); stm != nil {
		data, err := doc.DecodeStream(stm)
		if err != nil {
			codes.explicit[0] = true
			return codes
		}
		for cid := 0; 2*cid+1 < len(data); cid++ {
			gid := int64(data[2*cid])<<8 | int64(data[2*cid+1])
			if gid == 0 || (numGlyphs >= 0 && gid >= numGlyphs) {
				codes.explicit[uint32(cid)] = true
			}
		}
		// CIDs past the end of the map have no glyph either
		codes.maxValid = int64(len(data)/2) - 1
		return codes
	}

	// Identity or missing mapping: CID and glyph ID coincide
	codes.explicit[0] = true
	if numGlyphs > 0 {
		codes.maxValid = numGlyphs - 1
	}
	return codes
}
