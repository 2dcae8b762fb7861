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
	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Usage records, for each indirect font dictionary, the character codes
// the document shows with the font.  Fonts which are selected but never
// used to show text have an empty (non-nil) code set.
type Usage map[pdf.Reference]map[uint32]bool

// ScanUsage parses every content stream of the document and collects
// the character codes used with each font.  Content streams which
// cannot be decoded or parsed are skipped; fonts selected only there
// are reported as if all codes were used.
func ScanUsage(doc *pdf.Document) (Usage, error) {
	usage := make(Usage)
	codeBytes := make(map[pdf.Reference]int)

	bytesPerCode := func(ref pdf.Reference) int {
		if n, ok := codeBytes[ref]; ok {
			return n
		}
		n := 1
		if doc.GetName(doc.GetDict(ref)["Subtype"]) == "Type0" {
			n = 2
		}
		codeBytes[ref] = n
		return n
	}

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		data, err := c.Content()
		if err != nil {
			return nil
		}
		ops, err := content.Parse(data)
		if err != nil {
			return nil
		}
		fontRes := doc.GetDict(c.Resources()["Font"])

		type textState struct {
			font pdf.Reference
			nb   int
		}
		var cur textState
		var stack []textState

		for _, op := range ops {
			switch op.Operator {
			case "q":
				stack = append(stack, cur)
			case "Q":
				if n := len(stack); n > 0 {
					cur = stack[n-1]
					stack = stack[:n-1]
				}
			case "Tf":
				cur = textState{}
				if len(op.Operands) < 1 {
					break
				}
				name, ok := op.Operands[0].(pdf.Name)
				if !ok {
					break
				}
				if ref, ok := fontRes[name].(pdf.Reference); ok {
					cur = textState{ref, bytesPerCode(ref)}
					if usage[ref] == nil {
						usage[ref] = make(map[uint32]bool)
					}
				}
			default:
				if !content.IsTextShowing(op.Operator) || cur.font == 0 {
					break
				}
				for _, operand := range op.Operands {
					switch operand := operand.(type) {
					case pdf.String:
						recordCodes(usage[cur.font], []byte(operand), cur.nb)
					case pdf.Array:
						for _, elem := range operand {
							if s, ok := elem.(pdf.String); ok {
								recordCodes(usage[cur.font], []byte(s), cur.nb)
							}
						}
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func recordCodes(set map[uint32]bool, s []byte, nb int) {
	if nb == 2 {
		for i := 0; i+1 < len(s); i += 2 {
			set[uint32(s[i])<<8|uint32(s[i+1])] = true
		}
		if len(s)%2 == 1 {
			set[uint32(s[len(s)-1])<<8] = true
		}
		return
	}
	for _, c := range s {
		set[uint32(c)] = true
	}
}
