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
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// standard14 lists the fonts every PDF viewer provides without
// embedding.  PDF/A requires an embedded font program even for these.
var standard14 = map[string]bool{
	"Courier":               true,
	"Courier-Bold":          true,
	"Courier-Oblique":       true,
	"Courier-BoldOblique":   true,
	"Helvetica":             true,
	"Helvetica-Bold":        true,
	"Helvetica-Oblique":     true,
	"Helvetica-BoldOblique": true,
	"Times-Roman":           true,
	"Times-Bold":            true,
	"Times-Italic":          true,
	"Times-BoldItalic":      true,
	"Symbol":                true,
	"ZapfDingbats":          true,
}

// IsStandard14 reports whether name (after removal of any subset tag)
// is one of the 14 standard PDF fonts.
func IsStandard14(name string) bool {
	return standard14[BaseName(name)]
}

// IsSymbolFont reports whether name is one of the two standard fonts
// with a non-Latin built-in encoding.
func IsSymbolFont(name string) bool {
	base := BaseName(name)
	return base == "Symbol" || base == "ZapfDingbats"
}

// replacements maps standard font names and common aliases to
// substitute font programs from the Go font family.
var replacements = map[string][]byte{
	"Helvetica":             goregular.TTF,
	"Helvetica-Bold":        gobold.TTF,
	"Helvetica-Oblique":     goitalic.TTF,
	"Helvetica-BoldOblique": gobolditalic.TTF,
	"Arial":                 goregular.TTF,
	"Arial-Bold":            gobold.TTF,
	"Arial,Bold":            gobold.TTF,
	"Arial-Italic":          goitalic.TTF,
	"Arial,Italic":          goitalic.TTF,
	"Arial-BoldItalic":      gobolditalic.TTF,
	"Arial,BoldItalic":      gobolditalic.TTF,
	"ArialMT":               goregular.TTF,
	"Arial-BoldMT":          gobold.TTF,
	"Arial-ItalicMT":        goitalic.TTF,
	"Arial-BoldItalicMT":    gobolditalic.TTF,

	"Times-Roman":                  gomedium.TTF,
	"Times-Bold":                   gobold.TTF,
	"Times-Italic":                 gomediumitalic.TTF,
	"Times-BoldItalic":             gobolditalic.TTF,
	"TimesNewRoman":                gomedium.TTF,
	"TimesNewRomanPSMT":            gomedium.TTF,
	"TimesNewRomanPS-BoldMT":       gobold.TTF,
	"TimesNewRomanPS-ItalicMT":     gomediumitalic.TTF,
	"TimesNewRomanPS-BoldItalicMT": gobolditalic.TTF,

	"Courier":               gomono.TTF,
	"Courier-Bold":          gomonobold.TTF,
	"Courier-Oblique":       gomonoitalic.TTF,
	"Courier-BoldOblique":   gomonobolditalic.TTF,
	"CourierNew":            gomono.TTF,
	"CourierNewPSMT":        gomono.TTF,
	"CourierNewPS-BoldMT":   gomonobold.TTF,
	"CourierNewPS-ItalicMT": gomonoitalic.TTF,
}

// Substitute returns a substitute font program for a font which is not
// embedded.  The choice uses the font name where it is recognized, and
// otherwise falls back on style information from the name and the
// descriptor flags.  The second return value is false when no exact
// match was found and the substitute is a guess.
func Substitute(name string, flags Flags) ([]byte, bool) {
	base := BaseName(name)
	if ttf, ok := replacements[base]; ok {
		return ttf, true
	}

	lower := strings.ToLower(base)
	bold := strings.Contains(lower, "bold") || flags&FlagForceBold != 0
	italic := strings.Contains(lower, "italic") ||
		strings.Contains(lower, "oblique") ||
		flags&FlagItalic != 0
	mono := strings.Contains(lower, "mono") ||
		strings.Contains(lower, "courier") ||
		flags&FlagFixedPitch != 0

	switch {
	case mono && bold && italic:
		return gomonobolditalic.TTF, false
	case mono && bold:
		return gomonobold.TTF, false
	case mono && italic:
		return gomonoitalic.TTF, false
	case mono:
		return gomono.TTF, false
	case bold && italic:
		return gobolditalic.TTF, false
	case bold:
		return gobold.TTF, false
	case italic:
		return goitalic.TTF, false
	default:
		return goregular.TTF, false
	}
}
