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
	"seehuhn.de/go/postscript/type1/names"

	"github.com/iRedPaul/pdftopdfa/font/pdfenc"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// builtinEncoding returns the encoding built into the font, as far as
// it can be determined without parsing the font program.
func (f *Info) builtinEncoding(doc *pdf.Document) *pdfenc.Encoding {
	switch BaseName(f.BaseFont(doc)) {
	case "Symbol":
		return &pdfenc.Symbol
	case "ZapfDingbats":
		return &pdfenc.ZapfDingbats
	}
	return &pdfenc.Standard
}

// SimpleEncoding resolves the effective code-to-glyph-name mapping of a
// simple font, from the /Encoding entry, the base encoding, and the
// /Differences array.  See section 9.6.6 of PDF 32000-1:2008.
func (f *Info) SimpleEncoding(doc *pdf.Document) [256]string {
	table := f.builtinEncoding(doc).Encoding

	enc := doc.Resolve(f.Dict["Encoding"])
	switch enc := enc.(type) {
	case pdf.Name:
		if e, ok := pdfenc.ByName(string(enc)); ok {
			table = e.Encoding
		}
	case pdf.Dict:
		if base, ok := pdfenc.ByName(string(doc.GetName(enc["BaseEncoding"]))); ok {
			table = base.Encoding
		}
		code := 0
		for _, obj := range doc.GetArray(enc["Differences"]) {
			switch obj := doc.Resolve(obj).(type) {
			case pdf.Integer:
				code = int(obj)
			case pdf.Name:
				if code >= 0 && code < 256 {
					table[code] = string(obj)
				}
				code++
			}
		}
	}
	return table
}

// UnicodeForNames maps each code of a glyph name table to its Unicode
// text content, using the Adobe Glyph List conventions.  Codes whose
// name has no Unicode meaning are absent from the result.
func UnicodeForNames(table [256]string, fontName string) map[uint32][]rune {
	m := make(map[uint32][]rune)
	for code, name := range table {
		if name == "" || name == ".notdef" {
			continue
		}
		rr := []rune(names.ToUnicode(name, fontName))
		if len(rr) > 0 {
			m[uint32(code)] = rr
		}
	}
	return m
}
