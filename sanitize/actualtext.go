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
	"unicode/utf16"

	"seehuhn.de/go/postscript/type1/names"

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/font/tounicode"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// isPUA reports whether a rune lies in one of the Unicode private use
// areas.
func isPUA(r rune) bool {
	return (r >= 0xE000 && r <= 0xF8FF) ||
		(r >= 0xF0000 && r <= 0xFFFFD) ||
		(r >= 0x100000 && r <= 0x10FFFD)
}

// actualTextFont holds the per-font data needed to decide whether a
// text string maps into the private use area, and to spell out its
// replacement text.
type actualTextFont struct {
	uni     map[uint32][]rune // from the ToUnicode CMap
	resolve map[uint32][]rune // PUA codes resolved through glyph names
	twoByte bool
}

// applyActualText wraps text showing operators whose Unicode mapping
// contains private use area code points in /Span marked content with an
// /ActualText entry, rule 6.2.11.7.3-1.  The replacement text comes
// from the glyph names of the font's encoding; PUA codes without a
// meaningful glyph name are left out of the replacement and reported.
func applyActualText(doc *pdf.Document, opts *Options) ([]Warning, error) {
	cache := make(map[pdf.Reference]*actualTextFont)
	wrapped := 0
	unresolved := 0

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		res := c.Resources()
		if res == nil {
			return nil
		}
		fontRes := doc.GetDict(res["Font"])
		if fontRes == nil {
			return nil
		}
		w, u := wrapPUAText(doc, c, fontRes, cache)
		wrapped += w
		unresolved += u
		return nil
	})
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	if wrapped > 0 {
		warnings = append(warnings, Warning{"actual-text",
			fmt.Sprintf("wrapped %d text operators in ActualText spans", wrapped)})
	}
	if unresolved > 0 {
		warnings = append(warnings, Warning{"actual-text",
			fmt.Sprintf("%d private use area codes have no replacement text", unresolved)})
	}
	return warnings, nil
}

// wrapPUAText rewrites one content stream.  Operators already inside a
// marked content sequence with an /ActualText entry are left alone.
func wrapPUAText(doc *pdf.Document, c *pdf.ContentContext, fontRes pdf.Dict, cache map[pdf.Reference]*actualTextFont) (int, int) {
	data, err := c.Content()
	if err != nil {
		return 0, 0
	}
	ops, err := content.Parse(data)
	if err != nil {
		return 0, 0
	}

	var current *actualTextFont
	var mcStack []bool // true for sequences carrying ActualText
	wrapped := 0
	unresolved := 0
	changed := false
	var out []content.Operation
	for _, op := range ops {
		switch op.Operator {
		case "Tf":
			if len(op.Operands) == 2 {
				if name, ok := op.Operands[0].(pdf.Name); ok {
					current = actualTextFontFor(doc, fontRes[name], cache)
				}
			}
		case "BDC":
			hasActual := false
			if len(op.Operands) == 2 {
				if props, ok := op.Operands[1].(pdf.Dict); ok {
					_, hasActual = props["ActualText"]
				}
			}
			mcStack = append(mcStack, hasActual)
		case "BMC":
			mcStack = append(mcStack, false)
		case "EMC":
			if len(mcStack) > 0 {
				mcStack = mcStack[:len(mcStack)-1]
			}
		}

		if current != nil && content.IsTextShowing(op.Operator) && !insideActualText(mcStack) {
			if text, ok := shownText(op); ok && textHasPUA(current, text) {
				actual, missing := replacementText(current, text)
				unresolved += missing
				out = append(out, content.Operation{
					Operands: []pdf.Object{
						pdf.Name("Span"),
						pdf.Dict{"ActualText": actual},
					},
					Operator: "BDC",
				}, op, content.Operation{Operator: "EMC"})
				wrapped++
				changed = true
				continue
			}
		}
		out = append(out, op)
	}

	if changed {
		c.SetContent(content.Serialize(out))
	}
	return wrapped, unresolved
}

func insideActualText(mcStack []bool) bool {
	for _, hasActual := range mcStack {
		if hasActual {
			return true
		}
	}
	return false
}

// shownText collects the string bytes of a text showing operator.
func shownText(op content.Operation) (pdf.String, bool) {
	switch op.Operator {
	case "Tj", "'":
		if len(op.Operands) == 1 {
			if s, ok := op.Operands[0].(pdf.String); ok {
				return s, true
			}
		}
	case "\"":
		if len(op.Operands) == 3 {
			if s, ok := op.Operands[2].(pdf.String); ok {
				return s, true
			}
		}
	case "TJ":
		if len(op.Operands) == 1 {
			if arr, ok := op.Operands[0].(pdf.Array); ok {
				var text pdf.String
				for _, elem := range arr {
					if s, ok := elem.(pdf.String); ok {
						text = append(text, s...)
					}
				}
				return text, true
			}
		}
	}
	return nil, false
}

// textCodes splits string bytes into character codes.
func textCodes(f *actualTextFont, text pdf.String) []uint32 {
	var codes []uint32
	if f.twoByte {
		for i := 0; i+1 < len(text); i += 2 {
			codes = append(codes, uint32(text[i])<<8|uint32(text[i+1]))
		}
	} else {
		for _, b := range text {
			codes = append(codes, uint32(b))
		}
	}
	return codes
}

func textHasPUA(f *actualTextFont, text pdf.String) bool {
	for _, code := range textCodes(f, text) {
		for _, r := range f.uni[code] {
			if isPUA(r) {
				return true
			}
		}
	}
	return false
}

// replacementText builds the ActualText value for a text string as a
// UTF-16BE string with a byte order mark.  PUA codes use the text
// resolved from their glyph name; codes without replacement text are
// omitted and counted.
func replacementText(f *actualTextFont, text pdf.String) (pdf.String, int) {
	var rr []rune
	missing := 0
	for _, code := range textCodes(f, text) {
		uni := f.uni[code]
		pua := false
		for _, r := range uni {
			if isPUA(r) {
				pua = true
				break
			}
		}
		if !pua {
			rr = append(rr, uni...)
			continue
		}
		if res := f.resolve[code]; len(res) > 0 {
			rr = append(rr, res...)
		} else {
			missing++
		}
	}

	actual := pdf.String{0xFE, 0xFF}
	for _, u := range utf16.Encode(rr) {
		actual = append(actual, byte(u>>8), byte(u))
	}
	return actual, missing
}

// actualTextFontFor computes (and caches, for indirect fonts) the
// Unicode data of a font resource entry.  Fonts without a ToUnicode
// CMap are skipped.
func actualTextFontFor(doc *pdf.Document, obj pdf.Object, cache map[pdf.Reference]*actualTextFont) *actualTextFont {
	ref, isRef := obj.(pdf.Reference)
	if isRef {
		if f, ok := cache[ref]; ok {
			return f
		}
	}
	dict := doc.GetDict(obj)
	if dict == nil {
		return nil
	}

	var f *actualTextFont
	if stm := doc.GetStream(dict["ToUnicode"]); stm != nil {
		if data, err := doc.DecodeStream(stm); err == nil {
			if info, err := tounicode.Read(data); err == nil {
				f = &actualTextFont{
					uni:     info.All(),
					twoByte: doc.GetName(dict["Subtype"]) == "Type0",
				}
			}
		}
	}
	if f != nil && !f.twoByte {
		// PUA codes of simple fonts can often be resolved through
		// their glyph names; composite fonts have no names to use
		info := &font.Info{Ref: ref, Dict: dict, Subtype: doc.GetName(dict["Subtype"])}
		encTable := info.SimpleEncoding(doc)
		baseName := font.BaseName(info.BaseFont(doc))
		f.resolve = make(map[uint32][]rune)
		for code, name := range encTable {
			if name == "" || name == ".notdef" {
				continue
			}
			rr := []rune(names.ToUnicode(name, baseName))
			if len(rr) == 0 {
				continue
			}
			pua := false
			for _, r := range rr {
				if isPUA(r) {
					pua = true
					break
				}
			}
			if !pua {
				f.resolve[uint32(code)] = rr
			}
		}
	}

	if isRef {
		cache[ref] = f
	}
	return f
}
