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

package color

import (
	"log/slog"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// forEachSpace calls fn for every color space stored in the document:
// the entries of resource ColorSpace dictionaries, the color spaces of
// image XObjects, shadings, and shading patterns, and the color spaces
// of transparency groups.  fn receives the resolved object and a
// setter which writes a replacement back to the original location.
func forEachSpace(doc *pdf.Document, fn func(obj pdf.Object, set func(pdf.Object)) error) error {
	seen := make(map[pdf.Reference]bool)

	slot := func(owner pdf.Dict, key pdf.Name) error {
		stored, ok := owner[key]
		if !ok {
			return nil
		}
		set := func(obj pdf.Object) {
			if ref, isRef := stored.(pdf.Reference); isRef {
				doc.Put(ref, obj)
			} else {
				owner[key] = obj
			}
		}
		return fn(doc.Resolve(stored), set)
	}

	return doc.ContentContexts(func(c *pdf.ContentContext) error {
		res := c.Resources()
		if res != nil {
			if csDict := doc.GetDict(res["ColorSpace"]); csDict != nil {
				for name := range csDict {
					if err := slot(csDict, name); err != nil {
						return err
					}
				}
			}
			for _, obj := range doc.GetDict(res["XObject"]) {
				if ref, ok := obj.(pdf.Reference); ok {
					if seen[ref] {
						continue
					}
					seen[ref] = true
				}
				stm := doc.GetStream(obj)
				if stm == nil || doc.GetName(stm.Dict["Subtype"]) != "Image" {
					continue
				}
				if err := slot(stm.Dict, "ColorSpace"); err != nil {
					return err
				}
			}
			for _, obj := range doc.GetDict(res["Shading"]) {
				if dict := shadingDict(doc, obj); dict != nil {
					if err := slot(dict, "ColorSpace"); err != nil {
						return err
					}
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
					if err := slot(sh, "ColorSpace"); err != nil {
						return err
					}
				}
			}
		}
		if group := doc.GetDict(c.Dict["Group"]); group != nil {
			if doc.GetName(group["S"]) == "Transparency" {
				if err := slot(group, "CS"); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// spaceComponents returns the number of color components of a color
// space object.
func spaceComponents(doc *pdf.Document, obj pdf.Object) (int, bool) {
	obj = doc.Resolve(obj)
	switch obj := obj.(type) {
	case pdf.Name:
		switch obj {
		case "DeviceGray":
			return 1, true
		case "DeviceRGB":
			return 3, true
		case "DeviceCMYK":
			return 4, true
		}
	case pdf.Array:
		if len(obj) == 0 {
			return 0, false
		}
		family, _ := doc.Resolve(obj[0]).(pdf.Name)
		switch family {
		case "DeviceGray", "DeviceRGB", "DeviceCMYK":
			return spaceComponents(doc, family)
		case "CalGray":
			return 1, true
		case "CalRGB", "Lab":
			return 3, true
		case "ICCBased":
			if len(obj) >= 2 {
				if stm := doc.GetStream(obj[1]); stm != nil {
					if n, ok := doc.GetInteger(stm.Dict["N"]); ok {
						return int(n), true
					}
				}
			}
		case "Indexed":
			return 1, true
		case "Separation":
			return 1, true
		case "DeviceN":
			if len(obj) >= 2 {
				return len(doc.GetArray(obj[1])), true
			}
		}
	}
	return 0, false
}

// RepairIndexed fixes the lookup tables of Indexed color spaces whose
// size does not match the base space and the highest index: the table
// is truncated or padded with zero bytes to the expected length.
// RepairIndexed returns the number of tables changed.
func RepairIndexed(doc *pdf.Document, log *slog.Logger) (int, error) {
	changed := 0
	err := forEachSpace(doc, func(obj pdf.Object, set func(pdf.Object)) error {
		arr, ok := obj.(pdf.Array)
		if !ok || len(arr) != 4 {
			return nil
		}
		if family, _ := doc.Resolve(arr[0]).(pdf.Name); family != "Indexed" {
			return nil
		}
		comps, ok := spaceComponents(doc, arr[1])
		if !ok {
			return nil
		}
		hival, ok := doc.GetInteger(arr[2])
		if !ok || hival < 0 || hival > 255 {
			return nil
		}
		need := comps * (int(hival) + 1)

		switch lookup := doc.Resolve(arr[3]).(type) {
		case pdf.String:
			if len(lookup) == need {
				return nil
			}
			fixed := make([]byte, need)
			copy(fixed, lookup)
			if ref, isRef := arr[3].(pdf.Reference); isRef {
				doc.Put(ref, pdf.String(fixed))
			} else {
				arr[3] = pdf.String(fixed)
			}
			changed++
		case *pdf.Stream:
			data, err := doc.DecodeStream(lookup)
			if err != nil || len(data) == need {
				return nil
			}
			fixed := make([]byte, need)
			copy(fixed, data)
			lookup.Raw = pdf.FlateData(fixed)
			lookup.Dict["Filter"] = pdf.Name("FlateDecode")
			delete(lookup.Dict, "DecodeParms")
			changed++
		default:
			return nil
		}
		log.Info("fixed indexed color lookup table", "size", need)
		return nil
	})
	return changed, err
}

// RepairLab adds the required WhitePoint entry to Lab color spaces
// which are missing it, using the D50 illuminant.  RepairLab returns
// the number of spaces changed.
func RepairLab(doc *pdf.Document) (int, error) {
	changed := 0
	err := forEachSpace(doc, func(obj pdf.Object, set func(pdf.Object)) error {
		arr, ok := obj.(pdf.Array)
		if !ok || len(arr) < 2 {
			return nil
		}
		if family, _ := doc.Resolve(arr[0]).(pdf.Name); family != "Lab" {
			return nil
		}
		params := doc.GetDict(arr[1])
		if params == nil {
			params = pdf.Dict{}
		}
		if _, ok := params["WhitePoint"]; ok {
			return nil
		}
		params["WhitePoint"] = pdf.Array{
			pdf.Real(0.9642), pdf.Real(1.0), pdf.Real(0.8249),
		}
		if ref, isRef := arr[1].(pdf.Reference); isRef {
			doc.Put(ref, params)
		} else {
			arr[1] = params
		}
		set(arr)
		changed++
		return nil
	})
	return changed, err
}

// CompleteColorants adds missing Colorants entries to DeviceN color
// spaces.  Every colorant gets a Separation space built from the
// alternate space and tint transform of the DeviceN space itself.
// CompleteColorants returns the number of spaces changed.
func CompleteColorants(doc *pdf.Document) (int, error) {
	changed := 0
	err := forEachSpace(doc, func(obj pdf.Object, set func(pdf.Object)) error {
		arr, ok := obj.(pdf.Array)
		if !ok || len(arr) < 4 {
			return nil
		}
		if family, _ := doc.Resolve(arr[0]).(pdf.Name); family != "DeviceN" {
			return nil
		}

		var attrs pdf.Dict
		if len(arr) >= 5 {
			attrs = doc.GetDict(arr[4])
		}
		if attrs == nil {
			attrs = pdf.Dict{}
		}
		colorants := doc.GetDict(attrs["Colorants"])
		if colorants == nil {
			colorants = pdf.Dict{}
		}

		dirty := false
		for _, nameObj := range doc.GetArray(arr[1]) {
			name, ok := doc.Resolve(nameObj).(pdf.Name)
			if !ok || name == "None" || name == "All" {
				continue
			}
			if _, ok := colorants[name]; ok {
				continue
			}
			colorants[name] = pdf.Array{
				pdf.Name("Separation"), name, arr[2], arr[3],
			}
			dirty = true
		}
		if !dirty {
			return nil
		}

		attrs["Colorants"] = colorants
		if len(arr) >= 5 {
			if ref, isRef := arr[4].(pdf.Reference); isRef {
				doc.Put(ref, attrs)
			} else {
				arr[4] = attrs
			}
			set(arr)
		} else {
			set(append(arr, attrs))
		}
		changed++
		return nil
	})
	return changed, err
}

// UnifySeparations makes Separation color spaces with the same colorant
// name use the same alternate space and tint transform.  The first
// definition encountered wins; later conflicting definitions are
// replaced by it.  UnifySeparations returns the number of spaces
// changed.
func UnifySeparations(doc *pdf.Document, log *slog.Logger) (int, error) {
	type sepDef struct {
		repr string
		obj  pdf.Object
	}
	first := make(map[pdf.Name]sepDef)

	changed := 0
	err := forEachSpace(doc, func(obj pdf.Object, set func(pdf.Object)) error {
		arr, ok := obj.(pdf.Array)
		if !ok || len(arr) < 3 {
			return nil
		}
		if family, _ := doc.Resolve(arr[0]).(pdf.Name); family != "Separation" {
			return nil
		}
		name, ok := doc.Resolve(arr[1]).(pdf.Name)
		if !ok || name == "None" || name == "All" {
			return nil
		}

		repr := pdf.Format(arr)
		if def, ok := first[name]; ok {
			if def.repr != repr {
				set(def.obj)
				log.Info("unified separation color space", "name", name)
				changed++
			}
			return nil
		}
		first[name] = sepDef{repr: repr, obj: obj}
		return nil
	})
	return changed, err
}
