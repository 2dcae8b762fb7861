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
	"strings"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// FixDeviceSpaces makes the use of device color spaces conformant.
// The dominant space is covered by the OutputIntent.  Content using
// other device spaces gets DefaultGray, DefaultRGB or DefaultCMYK
// entries in the resource dictionaries.  Default color spaces do not
// apply to image XObjects, explicit shading color spaces, and
// transparency groups, so those are rewritten to ICC-based spaces
// directly.
func FixDeviceSpaces(doc *pdf.Document, a *Analysis) error {
	dominant := a.Dominant()
	var extra []pdf.Name
	for _, s := range a.deviceSpaces() {
		if s != dominant {
			extra = append(extra, s)
		}
	}

	e := newEmbedder(doc)
	seen := make(map[pdf.Reference]bool)
	return doc.ContentContexts(func(c *pdf.ContentContext) error {
		if len(extra) > 0 {
			if err := injectDefaults(doc, e, c, extra); err != nil {
				return err
			}
		}
		if res := c.Resources(); res != nil {
			if err := fixResourceSpaces(doc, e, res, dominant, seen); err != nil {
				return err
			}
		}
		return fixGroup(doc, e, c.Dict)
	})
}

func injectDefaults(doc *pdf.Document, e *embedder, c *pdf.ContentContext, extra []pdf.Name) error {
	res := c.Resources()
	if res == nil {
		res = pdf.Dict{}
		c.SetResources(res)
	}
	csDict := doc.GetDict(res["ColorSpace"])
	if csDict == nil {
		csDict = pdf.Dict{}
		res["ColorSpace"] = csDict
	}
	for _, s := range extra {
		key := pdf.Name("Default" + strings.TrimPrefix(string(s), "Device"))
		if _, ok := csDict[key]; ok {
			continue
		}
		space, err := e.space(s)
		if err != nil {
			return err
		}
		csDict[key] = space
	}
	return nil
}

func fixResourceSpaces(doc *pdf.Document, e *embedder, res pdf.Dict, dominant pdf.Name, seen map[pdf.Reference]bool) error {
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
		if err := replaceDevice(doc, e, stm.Dict, "ColorSpace", dominant); err != nil {
			return err
		}
	}
	for _, obj := range doc.GetDict(res["Shading"]) {
		dict := shadingDict(doc, obj)
		if dict == nil {
			continue
		}
		if err := replaceDevice(doc, e, dict, "ColorSpace", dominant); err != nil {
			return err
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
			if err := replaceDevice(doc, e, sh, "ColorSpace", dominant); err != nil {
				return err
			}
		}
	}
	return nil
}

func shadingDict(doc *pdf.Document, obj pdf.Object) pdf.Dict {
	if stm := doc.GetStream(obj); stm != nil {
		return stm.Dict
	}
	return doc.GetDict(obj)
}

// fixGroup rewrites the color space of a transparency group.  Default
// color spaces never apply here, so every device space is replaced.
func fixGroup(doc *pdf.Document, e *embedder, dict pdf.Dict) error {
	group := doc.GetDict(dict["Group"])
	if group == nil || doc.GetName(group["S"]) != "Transparency" {
		return nil
	}
	return replaceDevice(doc, e, group, "CS", "")
}

// replaceDevice rewrites the color space stored under owner[key] to an
// ICC-based space if it is a device space other than keep.  Indexed
// base spaces are rewritten in place.
func replaceDevice(doc *pdf.Document, e *embedder, owner pdf.Dict, key pdf.Name, keep pdf.Name) error {
	stored, ok := owner[key]
	if !ok {
		return nil
	}
	obj := doc.Resolve(stored)
	newObj, changed, err := rewriteSpace(doc, e, obj, keep)
	if err != nil || !changed {
		return err
	}
	if ref, isRef := stored.(pdf.Reference); isRef {
		doc.Put(ref, newObj)
	} else {
		owner[key] = newObj
	}
	return nil
}

func rewriteSpace(doc *pdf.Document, e *embedder, obj pdf.Object, keep pdf.Name) (pdf.Object, bool, error) {
	switch obj := obj.(type) {
	case pdf.Name:
		if !isDeviceSpace(obj) || obj == keep {
			return obj, false, nil
		}
		space, err := e.space(obj)
		return space, err == nil, err
	case pdf.Array:
		if len(obj) == 0 {
			return obj, false, nil
		}
		family, _ := doc.Resolve(obj[0]).(pdf.Name)
		switch {
		case isDeviceSpace(family):
			// array form of a device space name
			return rewriteSpace(doc, e, family, keep)
		case family == "Indexed" && len(obj) >= 2:
			base, changed, err := rewriteSpace(doc, e, doc.Resolve(obj[1]), keep)
			if err != nil || !changed {
				return obj, false, err
			}
			if ref, isRef := obj[1].(pdf.Reference); isRef {
				doc.Put(ref, base)
			} else {
				obj[1] = base
			}
			return obj, true, nil
		}
	}
	return obj, false, nil
}

func isDeviceSpace(name pdf.Name) bool {
	switch name {
	case "DeviceGray", "DeviceRGB", "DeviceCMYK":
		return true
	}
	return false
}
