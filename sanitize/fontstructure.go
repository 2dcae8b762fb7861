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

	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Subtype values allowed on FontFile3 streams, ISO 32000-1 table 127.
var validFontFile3Subtypes = map[pdf.Name]bool{
	"Type1C":        true,
	"CIDFontType0C": true,
	"OpenType":      true,
}

// applyFontStructure repairs the structural font dictionary rules of
// ISO 19005-2 clause 6.2.11.2: every font dictionary carries /Type and
// /Subtype, simple fonts have a consistent FirstChar/LastChar/Widths
// triple, /BaseFont is filled in from the descriptor, and font file
// streams carry only valid /Subtype entries.
func applyFontStructure(doc *pdf.Document, opts *Options) ([]Warning, error) {
	fonts, err := resourceFontDicts(doc)
	if err != nil {
		return nil, err
	}

	fixed := 0
	for _, fontDict := range fonts {
		fixed += fixFontTyping(doc, fontDict)

		if doc.GetName(fontDict["Subtype"]) == "Type0" {
			if desc := doc.GetArray(fontDict["DescendantFonts"]); len(desc) > 0 {
				if cidFont := doc.GetDict(desc[0]); cidFont != nil {
					fixed += fixFontTyping(doc, cidFont)
					fixed += fixFontFileStreams(doc, doc.GetDict(cidFont["FontDescriptor"]))
				}
			}
		}

		fixed += fixCharRange(doc, fontDict)
		fixed += fixFontFileStreams(doc, doc.GetDict(fontDict["FontDescriptor"]))
		fixed += ensureBaseFont(doc, fontDict)
	}

	if fixed == 0 {
		return nil, nil
	}
	return []Warning{{"font-structure",
		fmt.Sprintf("repaired %d font dictionary entries", fixed)}}, nil
}

// resourceFontDicts collects every font dictionary named in a /Font
// resource category, including fonts whose /Type entry is missing.
func resourceFontDicts(doc *pdf.Document) ([]pdf.Dict, error) {
	var fonts []pdf.Dict
	seen := make(map[pdf.Reference]bool)

	addResources := func(res pdf.Dict) {
		for _, obj := range doc.GetDict(res["Font"]) {
			if ref, isRef := obj.(pdf.Reference); isRef {
				if seen[ref] {
					continue
				}
				seen[ref] = true
			}
			if fontDict := doc.GetDict(obj); fontDict != nil {
				fonts = append(fonts, fontDict)
			}
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

	acroForm := doc.GetDict(doc.Catalog()["AcroForm"])
	if dr := doc.GetDict(acroForm["DR"]); dr != nil {
		addResources(dr)
	}
	return fonts, nil
}

// fixFontTyping adds a missing /Type entry and infers a missing
// /Subtype from the other entries of the dictionary.
func fixFontTyping(doc *pdf.Document, fontDict pdf.Dict) int {
	fixed := 0
	if doc.GetName(fontDict["Type"]) != "Font" {
		fontDict["Type"] = pdf.Name("Font")
		fixed++
	}
	if doc.GetName(fontDict["Subtype"]) != "" {
		return fixed
	}
	if subtype, ok := inferFontSubtype(doc, fontDict); ok {
		fontDict["Subtype"] = subtype
		fixed++
	}
	return fixed
}

func inferFontSubtype(doc *pdf.Document, fontDict pdf.Dict) (pdf.Name, bool) {
	if doc.GetDict(fontDict["CharProcs"]) != nil {
		return "Type3", true
	}
	if doc.GetArray(fontDict["DescendantFonts"]) != nil {
		return "Type0", true
	}
	fd := doc.GetDict(fontDict["FontDescriptor"])
	if doc.GetDict(fontDict["CIDSystemInfo"]) != nil {
		if fd != nil && fd["FontFile2"] != nil {
			return "CIDFontType2", true
		}
		return "CIDFontType0", true
	}
	if fd == nil {
		return "", false
	}
	if fd["FontFile2"] != nil {
		return "TrueType", true
	}
	if ff3 := doc.GetStream(fd["FontFile3"]); ff3 != nil {
		switch doc.GetName(ff3.Dict["Subtype"]) {
		case "Type1C":
			return "Type1", true
		case "OpenType":
			return "TrueType", true
		}
		return "", false
	}
	if fd["FontFile"] != nil {
		return "Type1", true
	}
	return "", false
}

// fixCharRange makes FirstChar, LastChar and Widths of a simple font
// mutually consistent.  Composite fonts, Type3 fonts and non-embedded
// standard 14 fonts are exempt from the rule.
func fixCharRange(doc *pdf.Document, fontDict pdf.Dict) int {
	switch doc.GetName(fontDict["Subtype"]) {
	case "Type0", "Type3", "CIDFontType0", "CIDFontType2":
		return 0
	case "Type1", "MMType1":
		base := font.BaseName(string(doc.GetName(fontDict["BaseFont"])))
		if font.IsStandard14(base) && doc.GetDict(fontDict["FontDescriptor"]) == nil {
			return 0
		}
	}

	widths := doc.GetArray(fontDict["Widths"])
	first, haveFirst := doc.GetInteger(fontDict["FirstChar"])
	last, haveLast := doc.GetInteger(fontDict["LastChar"])

	fixed := 0
	if widths != nil {
		n := pdf.Integer(len(widths))
		switch {
		case !haveFirst && haveLast:
			first = last - n + 1
			if first < 0 {
				first = 0
			}
			fontDict["FirstChar"] = pdf.Integer(first)
			fixed++
		case haveFirst && !haveLast:
			last = first + n - 1
			fontDict["LastChar"] = pdf.Integer(last)
			fixed++
		case !haveFirst && !haveLast:
			first, last = 0, n-1
			fontDict["FirstChar"] = pdf.Integer(first)
			fontDict["LastChar"] = pdf.Integer(last)
			fixed++
		}
		if want := last - first + 1; want > 0 && pdf.Integer(len(widths)) != want {
			resized := make(pdf.Array, want)
			for i := range resized {
				if i < len(widths) {
					resized[i] = widths[i]
				} else {
					resized[i] = pdf.Integer(0)
				}
			}
			setArrayEntry(doc, fontDict, "Widths", resized)
			fixed++
		}
		return fixed
	}

	if haveFirst && haveLast && last >= first {
		zero := make(pdf.Array, last-first+1)
		for i := range zero {
			zero[i] = pdf.Integer(0)
		}
		fontDict["Widths"] = zero
		fixed++
	}
	return fixed
}

func setArrayEntry(doc *pdf.Document, owner pdf.Dict, key pdf.Name, arr pdf.Array) {
	if ref, isRef := owner[key].(pdf.Reference); isRef {
		doc.Put(ref, arr)
	} else {
		owner[key] = arr
	}
}

// ensureBaseFont fills in a missing /BaseFont from the descriptor's
// /FontName.  Type3 fonts have no BaseFont.
func ensureBaseFont(doc *pdf.Document, fontDict pdf.Dict) int {
	if doc.GetName(fontDict["Subtype"]) == "Type3" {
		return 0
	}
	if doc.GetName(fontDict["BaseFont"]) != "" {
		return 0
	}
	fd := doc.GetDict(fontDict["FontDescriptor"])
	if fd == nil {
		return 0
	}
	name := doc.GetName(fd["FontName"])
	if name == "" {
		return 0
	}
	fontDict["BaseFont"] = name
	return 1
}

// fixFontFileStreams removes invalid /Subtype entries from the font
// program streams of a descriptor.  FontFile and FontFile2 streams
// have no defined subtypes; FontFile3 allows only the three values of
// ISO 32000-1 table 127.
func fixFontFileStreams(doc *pdf.Document, fd pdf.Dict) int {
	if fd == nil {
		return 0
	}
	fixed := 0
	for _, key := range []pdf.Name{"FontFile", "FontFile2"} {
		if stream := doc.GetStream(fd[key]); stream != nil {
			if _, ok := stream.Dict["Subtype"]; ok {
				delete(stream.Dict, "Subtype")
				fixed++
			}
		}
	}
	if stream := doc.GetStream(fd["FontFile3"]); stream != nil {
		if subtype, ok := stream.Dict["Subtype"]; ok {
			if !validFontFile3Subtypes[doc.GetName(subtype)] {
				delete(stream.Dict, "Subtype")
				fixed++
			}
		}
	}
	return fixed
}
