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

// Package pdfenc provides the standard PDF text encodings from
// Appendix D of PDF 32000-1:2008.
package pdfenc

// An Encoding is a mapping from single byte codes to glyph names.
type Encoding struct {
	Encoding [256]string
	Has      map[string]bool
}

func makeHas(table [256]string) map[string]bool {
	has := make(map[string]bool)
	for _, name := range table {
		if name != ".notdef" {
			has[name] = true
		}
	}
	return has
}

// Standard is the Adobe Standard Encoding for Latin text.
var Standard = Encoding{
	Encoding: standardEncoding,
	Has:      makeHas(standardEncoding),
}

// WinAnsi is the PDF version of the Microsoft Windows encoding for
// Latin text in Western writing systems.
var WinAnsi = Encoding{
	Encoding: winAnsiEncoding,
	Has:      makeHas(winAnsiEncoding),
}

// MacRoman is the PDF version of the MacOS standard encoding for Latin
// text in Western writing systems.
var MacRoman = Encoding{
	Encoding: macRomanEncoding,
	Has:      makeHas(macRomanEncoding),
}

// Symbol is the built-in encoding of the Symbol font.
var Symbol = Encoding{
	Encoding: symbolEncoding,
	Has:      makeHas(symbolEncoding),
}

// ZapfDingbats is the built-in encoding of the ZapfDingbats font.
var ZapfDingbats = Encoding{
	Encoding: zapfDingbatsEncoding,
	Has:      makeHas(zapfDingbatsEncoding),
}

// ByName returns the encoding registered under a PDF name, for the
// /BaseEncoding and /Encoding entries of font dictionaries.
func ByName(name string) (*Encoding, bool) {
	switch name {
	case "WinAnsiEncoding":
		return &WinAnsi, true
	case "MacRomanEncoding":
		return &MacRoman, true
	case "StandardEncoding":
		return &Standard, true
	}
	return nil, false
}

// IsNonSymbolic reports whether all glyph names are in the Adobe
// standard Latin character set.
func IsNonSymbolic(glyphNames []string) bool {
	for _, name := range glyphNames {
		if name == ".notdef" {
			continue
		}
		if !Standard.Has[name] && !WinAnsi.Has[name] && !MacRoman.Has[name] {
			return false
		}
	}
	return true
}
