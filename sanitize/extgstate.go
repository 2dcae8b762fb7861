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

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Blend modes defined in ISO 32000-1, tables 136 and 137.
var validBlendModes = map[pdf.Name]bool{
	"Normal": true, "Compatible": true, "Multiply": true, "Screen": true,
	"Overlay": true, "Darken": true, "Lighten": true, "ColorDodge": true,
	"ColorBurn": true, "HardLight": true, "SoftLight": true,
	"Difference": true, "Exclusion": true, "Hue": true, "Saturation": true,
	"Color": true, "Luminosity": true,
}

var validRenderingIntents = map[pdf.Name]bool{
	"RelativeColorimetric": true,
	"AbsoluteColorimetric": true,
	"Perceptual":           true,
	"Saturation":           true,
}

// CMYK process colorants of a type 5 halftone.
var primaryHalftoneColorants = map[pdf.Name]bool{
	"Cyan": true, "Magenta": true, "Yellow": true, "Black": true,
}

// applyExtGState enforces the graphics state rules of ISO 19005-2
// clauses 6.2.5, 6.2.8 and 6.4: transfer functions and halftone phase
// are removed, halftone dictionaries are restricted to types 1 and 5,
// blend modes, opacity and soft masks are validated, and OPM 1 is
// cleared when ICCBased CMYK is painted with overprinting.
func applyExtGState(doc *pdf.Document, opts *Options) ([]Warning, error) {
	fixed := 0
	seen := make(map[pdf.Reference]bool)
	hasICCBasedCMYK := docUsesICCBasedCMYK(doc)

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		res := c.Resources()
		if res == nil {
			return nil
		}
		extGStates := doc.GetDict(res["ExtGState"])
		for _, obj := range extGStates {
			if ref, isRef := obj.(pdf.Reference); isRef {
				if seen[ref] {
					continue
				}
				seen[ref] = true
			}
			if gs := doc.GetDict(obj); gs != nil {
				fixed += sanitizeGSDict(doc, gs, hasICCBasedCMYK)
			}
		}
		fixed += stripShadingTransferFunctions(doc, res)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fixed == 0 {
		return nil, nil
	}
	return []Warning{{"extgstate",
		fmt.Sprintf("fixed %d graphics state entries", fixed)}}, nil
}

func sanitizeGSDict(doc *pdf.Document, gs pdf.Dict, hasICCBasedCMYK bool) int {
	fixed := 0

	if _, ok := gs["TR"]; ok {
		delete(gs, "TR")
		fixed++
	}
	if _, ok := gs["TR2"]; ok {
		if doc.GetName(gs["TR2"]) != "Default" {
			delete(gs, "TR2")
			fixed++
		}
	}
	if _, ok := gs["HTP"]; ok {
		delete(gs, "HTP")
		fixed++
	}

	// overprint mode 1 with ICCBased CMYK violates rule 6.2.4.2
	if hasICCBasedCMYK {
		if opm, ok := doc.GetInteger(gs["OPM"]); ok && opm == 1 &&
			(boolValue(doc, gs["OP"]) || boolValue(doc, gs["op"])) {
			gs["OPM"] = pdf.Integer(0)
			fixed++
		}
	}

	if obj, ok := gs["HT"]; ok {
		switch ht := doc.Resolve(obj).(type) {
		case pdf.Dict:
			n, valid := sanitizeHalftone(doc, ht, "", nil)
			fixed += n
			if !valid {
				delete(gs, "HT")
				fixed++
			}
		case pdf.Name:
			if ht != "Default" {
				delete(gs, "HT")
				fixed++
			}
		default:
			delete(gs, "HT")
			fixed++
		}
	}

	if ri := doc.GetName(gs["RI"]); ri != "" && !validRenderingIntents[ri] {
		gs["RI"] = pdf.Name("RelativeColorimetric")
		fixed++
	}

	if obj, ok := gs["BM"]; ok {
		switch bm := doc.Resolve(obj).(type) {
		case pdf.Name:
			if !validBlendModes[bm] {
				gs["BM"] = pdf.Name("Normal")
				fixed++
			}
		case pdf.Array:
			bad := false
			for i, entry := range bm {
				if name, ok := doc.Resolve(entry).(pdf.Name); !ok || !validBlendModes[name] {
					bm[i] = pdf.Name("Normal")
					bad = true
				}
			}
			if bad {
				fixed++
			}
		}
	}

	for _, key := range []pdf.Name{"CA", "ca"} {
		if obj, ok := gs[key]; ok {
			v, isNum := doc.GetNumber(obj)
			switch {
			case !isNum || v > 1:
				gs[key] = pdf.Real(1)
				fixed++
			case v < 0:
				gs[key] = pdf.Real(0)
				fixed++
			}
		}
	}

	if obj, ok := gs["SMask"]; ok {
		switch smask := doc.Resolve(obj).(type) {
		case pdf.Name:
			if smask != "None" {
				gs["SMask"] = pdf.Name("None")
				fixed++
			}
		case pdf.Dict:
			fixed += sanitizeSoftMask(doc, gs, smask)
		default:
			delete(gs, "SMask")
			fixed++
		}
	}
	return fixed
}

// sanitizeSoftMask validates a soft mask dictionary.  A mask with a
// broken /S or /G entry is replaced by /None wholesale.
func sanitizeSoftMask(doc *pdf.Document, gs, smask pdf.Dict) int {
	s := doc.GetName(smask["S"])
	if s != "Alpha" && s != "Luminosity" {
		gs["SMask"] = pdf.Name("None")
		return 1
	}
	g := doc.GetStream(smask["G"])
	if g == nil || doc.GetName(g.Dict["Subtype"]) != "Form" {
		gs["SMask"] = pdf.Name("None")
		return 1
	}

	fixed := 0
	if _, ok := smask["TR"]; ok {
		delete(smask, "TR")
		fixed++
	}
	if bc, ok := smask["BC"]; ok {
		if doc.GetArray(bc) == nil {
			delete(smask, "BC")
			fixed++
		}
	}
	return fixed
}

// sanitizeHalftone checks a halftone dictionary against clause 6.2.5.
// Returns the number of fixes and whether the dictionary can be kept.
// For type 5 halftones the transfer function rule depends on the
// colorant: primaries must not carry one, spot colorants must.
func sanitizeHalftone(doc *pdf.Document, ht pdf.Dict, colorant pdf.Name, fallbackTF pdf.Object) (int, bool) {
	fixed := 0

	htType, ok := doc.GetInteger(ht["HalftoneType"])
	if !ok || (htType != 1 && htType != 5) {
		return fixed, false
	}

	_, hasTF := ht["TransferFunction"]
	tfForbidden := colorant == "" || primaryHalftoneColorants[colorant]
	tfRequired := colorant != "" && colorant != "Default" &&
		!primaryHalftoneColorants[colorant]
	switch {
	case tfForbidden && hasTF:
		delete(ht, "TransferFunction")
		fixed++
	case tfRequired && !hasTF:
		if fallbackTF != nil {
			ht["TransferFunction"] = fallbackTF
		} else {
			ht["TransferFunction"] = pdf.Name("Identity")
		}
		fixed++
	}

	if _, ok := ht["HalftoneName"]; ok {
		delete(ht, "HalftoneName")
		fixed++
	}

	if htType == 5 {
		var defaultTF pdf.Object
		if def := doc.GetDict(ht["Default"]); def != nil {
			defaultTF = def["TransferFunction"]
		}
		for key, obj := range ht {
			if key == "Type" || key == "HalftoneType" || key == "TransferFunction" {
				continue
			}
			sub := doc.GetDict(obj)
			if sub == nil {
				return fixed, false
			}
			n, valid := sanitizeHalftone(doc, sub, key, defaultTF)
			fixed += n
			if !valid {
				return fixed, false
			}
		}
	}
	return fixed, true
}

// stripShadingTransferFunctions removes /TR and /TR2 from shading
// dictionaries, including shadings embedded in type 2 patterns.
func stripShadingTransferFunctions(doc *pdf.Document, res pdf.Dict) int {
	fixed := 0
	clean := func(sh pdf.Dict) {
		for _, key := range []pdf.Name{"TR", "TR2"} {
			if _, ok := sh[key]; ok {
				delete(sh, key)
				fixed++
			}
		}
	}

	for _, obj := range doc.GetDict(res["Shading"]) {
		if sh := shadingDict(doc, obj); sh != nil {
			clean(sh)
		}
	}
	for _, obj := range doc.GetDict(res["Pattern"]) {
		pat := shadingDict(doc, obj)
		if pat == nil {
			continue
		}
		if t, ok := doc.GetInteger(pat["PatternType"]); !ok || t != 2 {
			continue
		}
		if sh := shadingDict(doc, pat["Shading"]); sh != nil {
			clean(sh)
		}
	}
	return fixed
}

// shadingDict resolves a shading or pattern object, which may be a
// dictionary or a stream, to its dictionary.
func shadingDict(doc *pdf.Document, obj pdf.Object) pdf.Dict {
	switch v := doc.Resolve(obj).(type) {
	case pdf.Dict:
		return v
	case *pdf.Stream:
		return v.Dict
	}
	return nil
}

func boolValue(doc *pdf.Document, obj pdf.Object) bool {
	switch v := doc.Resolve(obj).(type) {
	case pdf.Bool:
		return bool(v)
	case pdf.Integer:
		return v != 0
	}
	return false
}

// docUsesICCBasedCMYK reports whether any resource of the document
// references an ICCBased color space with four components.
func docUsesICCBasedCMYK(doc *pdf.Document) bool {
	found := false
	seenCS := make(map[pdf.Reference]bool)

	var check func(obj pdf.Object) bool
	check = func(obj pdf.Object) bool {
		if ref, isRef := obj.(pdf.Reference); isRef {
			if seenCS[ref] {
				return false
			}
			seenCS[ref] = true
		}
		arr, ok := doc.Resolve(obj).(pdf.Array)
		if !ok || len(arr) == 0 {
			return false
		}
		switch doc.GetName(arr[0]) {
		case "ICCBased":
			if len(arr) >= 2 {
				if prof := doc.GetStream(arr[1]); prof != nil {
					if n, ok := doc.GetInteger(prof.Dict["N"]); ok && n == 4 {
						return true
					}
				}
			}
		case "Separation":
			return len(arr) >= 3 && check(arr[2])
		case "DeviceN":
			if len(arr) >= 3 && check(arr[2]) {
				return true
			}
			if len(arr) >= 5 {
				if attrs := doc.GetDict(arr[4]); attrs != nil {
					for _, cObj := range doc.GetDict(attrs["Colorants"]) {
						if check(cObj) {
							return true
						}
					}
				}
			}
		case "Indexed", "Pattern":
			return len(arr) >= 2 && check(arr[1])
		}
		return false
	}

	doc.ContentContexts(func(c *pdf.ContentContext) error {
		if found {
			return nil
		}
		res := c.Resources()
		if res == nil {
			return nil
		}
		for _, obj := range doc.GetDict(res["ColorSpace"]) {
			if check(obj) {
				found = true
				return nil
			}
		}
		for _, key := range []pdf.Name{"DefaultGray", "DefaultRGB", "DefaultCMYK"} {
			if obj, ok := res[key]; ok && check(obj) {
				found = true
				return nil
			}
		}
		for _, obj := range doc.GetDict(res["XObject"]) {
			xobj := doc.GetStream(obj)
			if xobj == nil || doc.GetName(xobj.Dict["Subtype"]) != "Image" {
				continue
			}
			if check(xobj.Dict["ColorSpace"]) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found
}
