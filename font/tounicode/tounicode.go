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

// Package tounicode reads and writes ToUnicode CMaps, which map character
// codes to Unicode text.  PDF/A Unicode levels require every code used by
// a show-text operator to have such a mapping.
package tounicode

import (
	"sort"
)

// Single maps one character code to a Unicode string.
type Single struct {
	Code  uint32
	Value []rune
}

// Range maps a run of consecutive character codes.  If Values has length
// one, the last rune is incremented for each code in the range; otherwise
// Values must have Last-First+1 entries.
type Range struct {
	First  uint32
	Last   uint32
	Values [][]rune
}

// Info is the content of a ToUnicode CMap.
type Info struct {
	// TwoByte selects the code space: <0000> <FFFF> for composite
	// fonts, <00> <FF> for simple fonts.
	TwoByte bool

	Singles []Single
	Ranges  []Range
}

// New builds a CMap from a code-to-text mapping.  Runs of consecutive
// codes mapping to consecutive single runes are merged into bfrange
// entries.  Ranges never cross a 256-code boundary.
func New(m map[uint32][]rune, twoByte bool) *Info {
	codes := make([]uint32, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	info := &Info{TwoByte: twoByte}
	i := 0
	for i < len(codes) {
		j := i + 1
		if len(m[codes[i]]) == 1 {
			for j < len(codes) &&
				codes[j] == codes[j-1]+1 &&
				codes[j]>>8 == codes[i]>>8 &&
				len(m[codes[j]]) == 1 &&
				m[codes[j]][0] == m[codes[j-1]][0]+1 {
				j++
			}
		}
		if j-i >= 2 {
			info.Ranges = append(info.Ranges, Range{
				First:  codes[i],
				Last:   codes[j-1],
				Values: [][]rune{m[codes[i]]},
			})
		} else {
			info.Singles = append(info.Singles, Single{
				Code:  codes[i],
				Value: m[codes[i]],
			})
		}
		i = j
	}
	return info
}

// Lookup returns the Unicode value for a character code.
func (info *Info) Lookup(code uint32) ([]rune, bool) {
	for _, r := range info.Ranges {
		if code >= r.First && code <= r.Last {
			return lookupRange(r, code)
		}
	}
	for _, s := range info.Singles {
		if s.Code == code {
			return s.Value, true
		}
	}
	return nil, false
}

// All returns the full code-to-text mapping described by the CMap.
func (info *Info) All() map[uint32][]rune {
	m := make(map[uint32][]rune)
	for _, s := range info.Singles {
		m[s.Code] = s.Value
	}
	for _, r := range info.Ranges {
		for code := r.First; ; code++ {
			if val, ok := lookupRange(r, code); ok {
				m[code] = val
			}
			if code == r.Last {
				break
			}
		}
	}
	return m
}

func lookupRange(r Range, code uint32) ([]rune, bool) {
	if len(r.Values) > int(code-r.First) {
		return r.Values[code-r.First], true
	}
	if len(r.Values) == 0 || len(r.Values[0]) == 0 {
		return nil, false
	}
	rr := make([]rune, len(r.Values[0]))
	copy(rr, r.Values[0])
	rr[len(rr)-1] += rune(code - r.First)
	return rr, true
}

// IsForbidden reports whether a mapping value is one of the values PDF/A
// Unicode levels reject: empty, U+0000, U+FEFF, U+FFFE, or a UTF-16
// surrogate code point.
func IsForbidden(rr []rune) bool {
	if len(rr) == 0 {
		return true
	}
	for _, r := range rr {
		switch {
		case r == 0x0000, r == 0xFEFF, r == 0xFFFE:
			return true
		case r >= 0xD800 && r <= 0xDFFF:
			return true
		}
	}
	return false
}
