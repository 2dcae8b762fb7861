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

// Package font makes the fonts of a PDF document suitable for PDF/A:
// every font used for rendering text must embed its font program, carry
// correct widths, and (for Level U and A conformance) map all codes to
// Unicode.
package font

import (
	"regexp"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Info describes one font dictionary found in the document.
type Info struct {
	// Ref is the reference of the font dictionary, or 0 if the
	// dictionary is inlined into a resource dictionary.
	Ref pdf.Reference

	// Dict is the font dictionary.
	Dict pdf.Dict

	// Subtype is the font subtype: Type1, MMType1, TrueType, Type3, or
	// Type0.
	Subtype pdf.Name

	// CIDFont is the descendant CIDFont dictionary for Type0 fonts, nil
	// otherwise.
	CIDFont pdf.Dict
}

// Discover collects every font dictionary reachable from a resource
// dictionary of the document: page and XObject resources, appearance
// streams, tiling patterns, Type3 glyph procedures, and the interactive
// form's default resources.  Each indirect font dictionary is reported
// once.
func Discover(doc *pdf.Document) ([]*Info, error) {
	var fonts []*Info
	seen := make(map[pdf.Reference]bool)

	addDict := func(obj pdf.Object) {
		ref, isRef := obj.(pdf.Reference)
		if isRef {
			if seen[ref] {
				return
			}
			seen[ref] = true
		}
		dict := doc.GetDict(obj)
		if dict == nil || doc.GetName(dict["Type"]) != "Font" {
			return
		}
		info := &Info{
			Ref:     ref,
			Dict:    dict,
			Subtype: doc.GetName(dict["Subtype"]),
		}
		if info.Subtype == "Type0" {
			desc := doc.GetArray(dict["DescendantFonts"])
			if len(desc) > 0 {
				info.CIDFont = doc.GetDict(desc[0])
			}
		}
		fonts = append(fonts, info)
	}

	addResources := func(res pdf.Dict) {
		fontRes := doc.GetDict(res["Font"])
		if fontRes == nil {
			return
		}
		names := maps.Keys(fontRes)
		sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
		for _, name := range names {
			addDict(fontRes[name])
		}
	}

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		if res := c.Resources(); res != nil {
			addResources(res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// fonts in the AcroForm default resources may not occur on any page
	acroForm := doc.GetDict(doc.Catalog()["AcroForm"])
	if dr := doc.GetDict(acroForm["DR"]); dr != nil {
		addResources(dr)
	}

	return fonts, nil
}

// Descriptor returns the font descriptor dictionary, following the
// descendant font for Type0 fonts.  The result is nil if the font has
// no descriptor.
func (f *Info) Descriptor(doc *pdf.Document) pdf.Dict {
	if f.Subtype == "Type0" {
		return doc.GetDict(f.CIDFont["FontDescriptor"])
	}
	return doc.GetDict(f.Dict["FontDescriptor"])
}

// IsEmbedded reports whether a font program is embedded for the font.
// Type3 fonts carry their glyphs as content streams and always count as
// embedded.
func (f *Info) IsEmbedded(doc *pdf.Document) bool {
	if f.Subtype == "Type3" {
		return true
	}
	fd := f.Descriptor(doc)
	if fd == nil {
		return false
	}
	for _, key := range []pdf.Name{"FontFile", "FontFile2", "FontFile3"} {
		if doc.GetStream(fd[key]) != nil {
			return true
		}
	}
	return false
}

// BaseFont returns the BaseFont name of the font dictionary.
func (f *Info) BaseFont(doc *pdf.Document) string {
	return string(doc.GetName(f.Dict["BaseFont"]))
}

var subsetTagPat = regexp.MustCompile(`^[A-Z]{6}\+`)

// BaseName strips the subset tag prefix, if any, from a BaseFont name.
func BaseName(name string) string {
	return subsetTagPat.ReplaceAllString(name, "")
}

// Flags returns the font descriptor flags, or 0 if the font has no
// descriptor.
func (f *Info) Flags(doc *pdf.Document) Flags {
	fd := f.Descriptor(doc)
	if fd == nil {
		return 0
	}
	flags, _ := doc.GetInteger(fd["Flags"])
	return Flags(flags)
}

// IsSymbolic reports whether the symbolic flag is set in the font
// descriptor.
func (f *Info) IsSymbolic(doc *pdf.Document) bool {
	return f.Flags(doc)&FlagSymbolic != 0
}

// Flags represents PDF font descriptor flags.
// See section 9.8.2 of PDF 32000-1:2008.
type Flags uint32

// Possible values for PDF font descriptor flags.
const (
	FlagFixedPitch  Flags = 1 << 0
	FlagSerif       Flags = 1 << 1
	FlagSymbolic    Flags = 1 << 2
	FlagScript      Flags = 1 << 3
	FlagNonsymbolic Flags = 1 << 5
	FlagItalic      Flags = 1 << 6
	FlagAllCap      Flags = 1 << 16
	FlagSmallCap    Flags = 1 << 17
	FlagForceBold   Flags = 1 << 18
)
