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

package tounicode

import (
	"errors"
	"unicode/utf16"
)

// ErrInvalid indicates that a CMap could not be parsed.
var ErrInvalid = errors.New("invalid ToUnicode CMap")

type token struct {
	kind byte // 'h' hex string, 'k' keyword, '[' or ']'
	hex  []byte
	kw   string
}

func tokenize(data []byte) []token {
	var toks []token
	pos := 0
	for pos < len(data) {
		c := data[pos]
		switch {
		case c <= ' ':
			pos++
		case c == '%':
			for pos < len(data) && data[pos] != '\n' && data[pos] != '\r' {
				pos++
			}
		case c == '<':
			pos++
			var hex []byte
			digit := -1
			for pos < len(data) && data[pos] != '>' {
				x := unhex(data[pos])
				pos++
				if x < 0 {
					continue
				}
				if digit < 0 {
					digit = x
				} else {
					hex = append(hex, byte(digit<<4|x))
					digit = -1
				}
			}
			if pos < len(data) {
				pos++ // the '>'
			}
			toks = append(toks, token{kind: 'h', hex: hex})
		case c == '[' || c == ']':
			toks = append(toks, token{kind: c})
			pos++
		case c == '(':
			// skip literal strings (CIDSystemInfo values)
			pos++
			level := 1
			for pos < len(data) && level > 0 {
				switch data[pos] {
				case '\\':
					pos++
				case '(':
					level++
				case ')':
					level--
				}
				pos++
			}
		default:
			start := pos
			for pos < len(data) && data[pos] > ' ' &&
				data[pos] != '<' && data[pos] != '[' && data[pos] != ']' &&
				data[pos] != '(' && data[pos] != '%' {
				pos++
			}
			toks = append(toks, token{kind: 'k', kw: string(data[start:pos])})
		}
	}
	return toks
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	}
	return -1
}

func hexToCode(hex []byte) uint32 {
	var code uint32
	for _, b := range hex {
		code = code<<8 | uint32(b)
	}
	return code
}

func hexToRunes(hex []byte) []rune {
	var units []uint16
	for i := 0; i+1 < len(hex); i += 2 {
		units = append(units, uint16(hex[i])<<8|uint16(hex[i+1]))
	}
	if len(hex)%2 != 0 {
		units = append(units, uint16(hex[len(hex)-1]))
	}
	return utf16.Decode(units)
}

// Read parses a ToUnicode CMap.  Unparseable sections are skipped so
// that a damaged CMap still yields the mappings which could be read.
func Read(data []byte) (*Info, error) {
	toks := tokenize(data)
	if len(toks) == 0 {
		return nil, ErrInvalid
	}

	info := &Info{}
	sawCMap := false
	for i := 0; i < len(toks); i++ {
		if toks[i].kind != 'k' {
			continue
		}
		switch toks[i].kw {
		case "begincodespacerange":
			for i+2 < len(toks) && toks[i+1].kind == 'h' && toks[i+2].kind == 'h' {
				if len(toks[i+2].hex) >= 2 {
					info.TwoByte = true
				}
				i += 2
			}
			sawCMap = true
		case "beginbfchar":
			for i+2 < len(toks) && toks[i+1].kind == 'h' && toks[i+2].kind == 'h' {
				info.Singles = append(info.Singles, Single{
					Code:  hexToCode(toks[i+1].hex),
					Value: hexToRunes(toks[i+2].hex),
				})
				i += 2
			}
			sawCMap = true
		case "beginbfrange":
			for i+3 < len(toks) && toks[i+1].kind == 'h' && toks[i+2].kind == 'h' {
				r := Range{
					First: hexToCode(toks[i+1].hex),
					Last:  hexToCode(toks[i+2].hex),
				}
				if r.Last < r.First {
					break
				}
				switch toks[i+3].kind {
				case 'h':
					r.Values = [][]rune{hexToRunes(toks[i+3].hex)}
					i += 3
				case '[':
					i += 4
					for i < len(toks) && toks[i].kind == 'h' {
						r.Values = append(r.Values, hexToRunes(toks[i].hex))
						i++
					}
					if i < len(toks) && toks[i].kind == ']' {
						// keep i pointing at the last consumed token
					} else {
						i--
					}
				default:
					i += 2
					continue
				}
				info.Ranges = append(info.Ranges, r)
			}
			sawCMap = true
		}
	}

	if !sawCMap {
		return nil, ErrInvalid
	}
	return info, nil
}
