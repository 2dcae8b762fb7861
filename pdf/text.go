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

package pdf

import (
	"unicode/utf16"
)

func isUTF16(s []byte) bool {
	return len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF
}

func utf16Decode(s []byte) string {
	u := make([]uint16, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		u = append(u, uint16(s[i])<<8|uint16(s[i+1]))
	}
	return string(utf16.Decode(u))
}

func utf16Encode(s string) String {
	u := utf16.Encode([]rune(s))
	buf := make([]byte, 0, 2*len(u)+2)
	buf = append(buf, 0xFE, 0xFF)
	for _, x := range u {
		buf = append(buf, byte(x>>8), byte(x))
	}
	return String(buf)
}

// pdfDocSpecial maps the bytes where PDFDocEncoding differs from Latin-1.
// Codes 0x18-0x1F and 0x80-0x9F have assigned meanings, 0x7F and 0xAD are
// undefined.
var pdfDocSpecial = map[byte]rune{
	0x18: '˘', // breve
	0x19: 'ˇ', // caron
	0x1A: 'ˆ', // circumflex
	0x1B: '˙', // dotaccent
	0x1C: '˝', // hungarumlaut
	0x1D: '˛', // ogonek
	0x1E: '˚', // ring
	0x1F: '˜', // tilde
	0x7F: 0xFFFD,
	0x80: '•', // bullet
	0x81: '†', // dagger
	0x82: '‡', // daggerdbl
	0x83: '…', // ellipsis
	0x84: '—', // emdash
	0x85: '–', // endash
	0x86: 'ƒ', // florin
	0x87: '⁄', // fraction
	0x88: '‹', // guilsinglleft
	0x89: '›', // guilsinglright
	0x8A: '−', // minus
	0x8B: '‰', // perthousand
	0x8C: '„', // quotedblbase
	0x8D: '“', // quotedblleft
	0x8E: '”', // quotedblright
	0x8F: '‘', // quoteleft
	0x90: '’', // quoteright
	0x91: '‚', // quotesinglbase
	0x92: '™', // trademark
	0x93: 'ﬁ', // fi
	0x94: 'ﬂ', // fl
	0x95: 'Ł', // Lslash
	0x96: 'Œ', // OE
	0x97: 'Š', // Scaron
	0x98: 'Ÿ', // Ydieresis
	0x99: 'Ž', // Zcaron
	0x9A: 'ı', // dotlessi
	0x9B: 'ł', // lslash
	0x9C: 'œ', // oe
	0x9D: 'š', // scaron
	0x9E: 'ž', // zcaron
	0x9F: 0xFFFD,
	0xA0: '€', // Euro
	0xAD: 0xFFFD,
}

func pdfDocDecodeByte(c byte) rune {
	if r, ok := pdfDocSpecial[c]; ok {
		return r
	}
	return rune(c)
}

func pdfDocDecode(s String) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 || pdfDocDecodeByte(s[i]) != rune(s[i]) {
			goto Decode
		}
	}
	return string(s)

Decode:
	r := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		r[i] = pdfDocDecodeByte(s[i])
	}
	return string(r)
}

func pdfDocEncode(s string) (String, bool) {
	var rev map[rune]byte
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			if _, special := pdfDocSpecial[byte(r)]; special {
				return nil, false
			}
			buf = append(buf, byte(r))
			continue
		}
		if rev == nil {
			rev = make(map[rune]byte)
			for c, rr := range pdfDocSpecial {
				if rr != 0xFFFD {
					rev[rr] = c
				}
			}
		}
		if c, ok := rev[r]; ok {
			buf = append(buf, c)
		} else if r <= 0xFF && pdfDocDecodeByte(byte(r)) == r {
			buf = append(buf, byte(r))
		} else {
			return nil, false
		}
	}
	return String(buf), true
}
