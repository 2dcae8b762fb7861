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

// Package color makes the color usage of a PDF document suitable for
// PDF/A: device color spaces need an OutputIntent or Default color
// space, transparency groups and calibrated spaces are rewritten to
// ICC-based spaces, and malformed special color spaces are repaired.
package color

import (
	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Analysis summarizes the color spaces used in a document.
type Analysis struct {
	DeviceGray bool
	DeviceRGB  bool
	DeviceCMYK bool
	CalGray    bool
	CalRGB     bool
	Lab        bool
	Separation bool
	DeviceN    bool
}

// Dominant returns the device color space the OutputIntent profile
// should describe.  CMYK wins over RGB, RGB over Gray; a document
// without any detected device color defaults to RGB.
func (a *Analysis) Dominant() pdf.Name {
	switch {
	case a.DeviceCMYK:
		return "DeviceCMYK"
	case a.DeviceRGB:
		return "DeviceRGB"
	case a.DeviceGray:
		return "DeviceGray"
	default:
		return "DeviceRGB"
	}
}

// deviceSpaces returns the detected device color spaces.
func (a *Analysis) deviceSpaces() []pdf.Name {
	var res []pdf.Name
	if a.DeviceGray {
		res = append(res, "DeviceGray")
	}
	if a.DeviceRGB {
		res = append(res, "DeviceRGB")
	}
	if a.DeviceCMYK {
		res = append(res, "DeviceCMYK")
	}
	return res
}

// inlineSpaceNames maps the abbreviated inline image color space names
// from Table 92 of PDF 32000-1:2008 to the full names.
var inlineSpaceNames = map[pdf.Name]pdf.Name{
	"G":          "DeviceGray",
	"RGB":        "DeviceRGB",
	"CMYK":       "DeviceCMYK",
	"I":          "Indexed",
	"DeviceGray": "DeviceGray",
	"DeviceRGB":  "DeviceRGB",
	"DeviceCMYK": "DeviceCMYK",
	"Indexed":    "Indexed",
}

// Detect analyzes the color spaces used in the document: resource
// dictionaries, image XObjects, shadings, transparency groups, content
// stream operators, and inline images.
func Detect(doc *pdf.Document) (*Analysis, error) {
	a := &Analysis{}
	seen := make(map[pdf.Reference]bool)

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		if res := c.Resources(); res != nil {
			detectInResources(doc, res, a, seen)
		}
		detectInGroup(doc, c.Dict, a)

		data, err := c.Content()
		if err != nil {
			return nil
		}
		ops, err := content.Parse(data)
		if err != nil {
			return nil
		}
		detectInContent(doc, ops, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func detectInResources(doc *pdf.Document, res pdf.Dict, a *Analysis, seen map[pdf.Reference]bool) {
	for _, obj := range doc.GetDict(res["ColorSpace"]) {
		analyzeSpace(doc, obj, a)
	}
	xObjects := doc.GetDict(res["XObject"])
	for _, obj := range xObjects {
		if ref, ok := obj.(pdf.Reference); ok {
			if seen[ref] {
				continue
			}
			seen[ref] = true
		}
		stm := doc.GetStream(obj)
		if stm == nil {
			continue
		}
		if doc.GetName(stm.Dict["Subtype"]) == "Image" {
			analyzeSpace(doc, stm.Dict["ColorSpace"], a)
		}
	}
	for _, obj := range doc.GetDict(res["Shading"]) {
		var dict pdf.Dict
		if stm := doc.GetStream(obj); stm != nil {
			dict = stm.Dict
		} else {
			dict = doc.GetDict(obj)
		}
		if dict != nil {
			analyzeSpace(doc, dict["ColorSpace"], a)
		}
	}
	for _, obj := range doc.GetDict(res["Pattern"]) {
		var dict pdf.Dict
		if stm := doc.GetStream(obj); stm != nil {
			dict = stm.Dict
		} else {
			dict = doc.GetDict(obj)
		}
		if sh := doc.GetDict(dict["Shading"]); sh != nil {
			analyzeSpace(doc, sh["ColorSpace"], a)
		}
	}
}

func detectInGroup(doc *pdf.Document, dict pdf.Dict, a *Analysis) {
	group := doc.GetDict(dict["Group"])
	if group == nil || doc.GetName(group["S"]) != "Transparency" {
		return
	}
	analyzeSpace(doc, group["CS"], a)
}

func detectInContent(doc *pdf.Document, ops []content.Operation, a *Analysis) {
	for _, op := range ops {
		switch op.Operator {
		case "g", "G":
			a.DeviceGray = true
		case "rg", "RG":
			a.DeviceRGB = true
		case "k", "K":
			a.DeviceCMYK = true
		case "cs", "CS":
			if len(op.Operands) == 1 {
				if name, ok := op.Operands[0].(pdf.Name); ok {
					switch name {
					case "DeviceGray":
						a.DeviceGray = true
					case "DeviceRGB":
						a.DeviceRGB = true
					case "DeviceCMYK":
						a.DeviceCMYK = true
					}
				}
			}
		case "BI":
			if len(op.Operands) != 1 {
				continue
			}
			dict, ok := op.Operands[0].(pdf.Dict)
			if !ok {
				continue
			}
			cs := doc.GetName(dict["CS"])
			if cs == "" {
				cs = doc.GetName(dict["ColorSpace"])
			}
			switch inlineSpaceNames[cs] {
			case "DeviceGray":
				a.DeviceGray = true
			case "DeviceRGB":
				a.DeviceRGB = true
			case "DeviceCMYK":
				a.DeviceCMYK = true
			}
		}
	}
}

// analyzeSpace classifies a color space object, recursing into the base
// and alternate spaces of composite families.
func analyzeSpace(doc *pdf.Document, obj pdf.Object, a *Analysis) {
	obj = doc.Resolve(obj)
	switch obj := obj.(type) {
	case pdf.Name:
		switch obj {
		case "DeviceGray":
			a.DeviceGray = true
		case "DeviceRGB":
			a.DeviceRGB = true
		case "DeviceCMYK":
			a.DeviceCMYK = true
		}
	case pdf.Array:
		if len(obj) == 0 {
			return
		}
		family, _ := doc.Resolve(obj[0]).(pdf.Name)
		switch family {
		case "DeviceGray", "DeviceRGB", "DeviceCMYK":
			// array-form device color space
			analyzeSpace(doc, family, a)
		case "CalGray":
			a.CalGray = true
		case "CalRGB":
			a.CalRGB = true
		case "Lab":
			a.Lab = true
		case "Indexed":
			if len(obj) >= 2 {
				analyzeSpace(doc, obj[1], a)
			}
		case "Separation":
			a.Separation = true
			if len(obj) >= 3 {
				analyzeSpace(doc, obj[2], a)
			}
		case "DeviceN":
			a.DeviceN = true
			if len(obj) >= 3 {
				analyzeSpace(doc, obj[2], a)
			}
		case "Pattern":
			if len(obj) >= 2 {
				analyzeSpace(doc, obj[1], a)
			}
		}
	}
}
