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

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// XObject subtypes forbidden by ISO 19005-2, clauses 6.2.9 and 6.2.10.
var forbiddenXObjectSubtypes = map[pdf.Name]bool{
	"PS":  true,
	"Ref": true,
}

// BitsPerComponent values allowed by ISO 19005-2, clause 6.2.8.
var validBitsPerComponent = map[int64]bool{1: true, 2: true, 4: true, 8: true, 16: true}

// Filters which carry the sample depth inside the codestream; their
// pixel data cannot be repacked.
var bakedBPCFilters = map[pdf.Name]bool{
	"DCTDecode":      true,
	"JPXDecode":      true,
	"JBIG2Decode":    true,
	"CCITTFaxDecode": true,
}

// applyXObjects removes forbidden XObject types and repairs image
// dictionaries: PostScript and reference XObjects are dropped,
// /Alternates and /OPI entries are removed, /Interpolate is forced to
// false, and images with an invalid BitsPerComponent are repacked.
func applyXObjects(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning
	removed := 0
	seen := make(map[pdf.Reference]bool)

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		res := c.Resources()
		if res == nil {
			return nil
		}
		xobjects := doc.GetDict(res["XObject"])
		for key, obj := range xobjects {
			if ref, isRef := obj.(pdf.Reference); isRef {
				if seen[ref] {
					continue
				}
				seen[ref] = true
			}
			xobj := doc.GetStream(obj)
			if xobj == nil {
				continue
			}

			subtype := doc.GetName(xobj.Dict["Subtype"])
			if forbiddenXObjectSubtypes[subtype] {
				delete(xobjects, key)
				removed++
				continue
			}

			if _, ok := xobj.Dict["Alternates"]; ok {
				delete(xobj.Dict, "Alternates")
				removed++
			}
			if _, ok := xobj.Dict["OPI"]; ok {
				delete(xobj.Dict, "OPI")
				removed++
			}

			switch subtype {
			case "Form":
				for _, k := range []pdf.Name{"Ref", "PS"} {
					if _, ok := xobj.Dict[k]; ok {
						delete(xobj.Dict, k)
						removed++
					}
				}
				if doc.GetName(xobj.Dict["Subtype2"]) == "PS" {
					delete(xobj.Dict, "Subtype2")
					removed++
				}
			case "Image":
				if interp, ok := doc.Resolve(xobj.Dict["Interpolate"]).(pdf.Bool); ok && bool(interp) {
					xobj.Dict["Interpolate"] = pdf.Bool(false)
				}
				warnings = append(warnings, fixBitsPerComponent(doc, key, xobj)...)
			}
		}

		warnings = append(warnings, fixInlineInterpolate(doc, c)...)
		return nil
	})
	if err != nil {
		return warnings, err
	}

	if removed > 0 {
		warnings = append(warnings, Warning{"xobjects",
			fmt.Sprintf("removed %d forbidden XObject entries", removed)})
	}
	return warnings, nil
}

// fixInlineInterpolate clears the /I flag on inline images.
func fixInlineInterpolate(doc *pdf.Document, c *pdf.ContentContext) []Warning {
	data, err := c.Content()
	if err != nil {
		return nil
	}
	ops, err := content.Parse(data)
	if err != nil {
		return nil
	}

	changed := false
	for i, op := range ops {
		if op.Operator != "BI" || len(op.Operands) != 1 {
			continue
		}
		dict, ok := op.Operands[0].(pdf.Dict)
		if !ok {
			continue
		}
		for _, key := range []pdf.Name{"I", "Interpolate"} {
			if v, ok := dict[key].(pdf.Bool); ok && bool(v) {
				dict[key] = pdf.Bool(false)
				ops[i].Operands[0] = dict
				changed = true
			}
		}
	}
	if changed {
		c.SetContent(content.Serialize(ops))
	}
	return nil
}

// fixBitsPerComponent repacks image samples when BitsPerComponent is
// outside {1, 2, 4, 8, 16}, or when an image mask has a depth other
// than 1.  Images whose filters bake the depth into the codestream
// cannot be repacked and are reported instead.
func fixBitsPerComponent(doc *pdf.Document, key pdf.Name, xobj *pdf.Stream) []Warning {
	bpc, ok := doc.GetInteger(xobj.Dict["BitsPerComponent"])
	if !ok {
		return nil
	}

	isMask := false
	if m, ok := doc.Resolve(xobj.Dict["ImageMask"]).(pdf.Bool); ok {
		isMask = bool(m)
	}

	var target int64
	switch {
	case isMask && bpc != 1:
		target = 1
	case !isMask && !validBitsPerComponent[int64(bpc)]:
		target = 8
	default:
		return nil
	}
	if bpc <= 0 {
		return []Warning{{"xobjects",
			fmt.Sprintf("image %s has unusable BitsPerComponent %d", key, bpc)}}
	}

	for _, f := range filterChain(doc, xobj.Dict["Filter"]) {
		if bakedBPCFilters[f] {
			return []Warning{{"xobjects", fmt.Sprintf(
				"image %s has BitsPerComponent %d baked into %s data", key, bpc, f)}}
		}
	}

	width, _ := doc.GetInteger(xobj.Dict["Width"])
	height, _ := doc.GetInteger(xobj.Dict["Height"])
	if width <= 0 || height <= 0 {
		return nil
	}
	components := 1
	if !isMask {
		if n, ok := spaceComponentCount(doc, xobj.Dict["ColorSpace"]); ok {
			components = n
		} else {
			return []Warning{{"xobjects", fmt.Sprintf(
				"image %s: cannot determine component count for repacking", key)}}
		}
	}

	data, err := doc.DecodeStream(xobj)
	if err != nil {
		return []Warning{{"xobjects",
			fmt.Sprintf("image %s: cannot decode for repacking: %v", key, err)}}
	}

	repacked, ok := repackSamples(data, int(bpc), int(target),
		int(width), int(height), components)
	if !ok {
		return []Warning{{"xobjects", fmt.Sprintf(
			"image %s: pixel data too short for %d bpc", key, bpc)}}
	}

	xobj.Raw = pdf.FlateData(repacked)
	xobj.Dict["Filter"] = pdf.Name("FlateDecode")
	delete(xobj.Dict, "DecodeParms")
	xobj.Dict["BitsPerComponent"] = pdf.Integer(target)
	return nil
}

// repackSamples converts packed image samples from one bit depth to
// another.  Rows are padded to byte boundaries, samples are MSB first.
func repackSamples(data []byte, srcBPC, dstBPC, width, height, components int) ([]byte, bool) {
	samplesPerRow := width * components
	srcRowBytes := (samplesPerRow*srcBPC + 7) / 8
	if len(data) < srcRowBytes*height {
		return nil, false
	}

	srcMax := int64(1)<<srcBPC - 1
	dstMax := int64(1)<<dstBPC - 1

	dstRowBytes := (samplesPerRow*dstBPC + 7) / 8
	out := make([]byte, dstRowBytes*height)

	for row := 0; row < height; row++ {
		src := data[row*srcRowBytes:]
		dst := out[row*dstRowBytes:]
		for i := 0; i < samplesPerRow; i++ {
			v := readBits(src, i*srcBPC, srcBPC)
			if srcMax > 0 {
				v = (v*dstMax + srcMax/2) / srcMax
			}
			writeBits(dst, i*dstBPC, dstBPC, v)
		}
	}
	return out, true
}

func readBits(data []byte, bitOffset, n int) int64 {
	var v int64
	for i := 0; i < n; i++ {
		byteIdx := (bitOffset + i) >> 3
		bit := 7 - (bitOffset+i)&7
		v = v<<1 | int64(data[byteIdx]>>bit&1)
	}
	return v
}

func writeBits(data []byte, bitOffset, n int, v int64) {
	for i := 0; i < n; i++ {
		byteIdx := (bitOffset + i) >> 3
		bit := 7 - (bitOffset+i)&7
		if v>>(n-1-i)&1 != 0 {
			data[byteIdx] |= 1 << bit
		}
	}
}

// spaceComponentCount returns the number of color components of an
// image color space for the purpose of sample repacking.
func spaceComponentCount(doc *pdf.Document, obj pdf.Object) (int, bool) {
	switch cs := doc.Resolve(obj).(type) {
	case pdf.Name:
		switch cs {
		case "DeviceGray":
			return 1, true
		case "DeviceRGB":
			return 3, true
		case "DeviceCMYK":
			return 4, true
		}
	case pdf.Array:
		if len(cs) == 0 {
			return 0, false
		}
		switch doc.GetName(cs[0]) {
		case "ICCBased":
			if len(cs) >= 2 {
				if prof := doc.GetStream(cs[1]); prof != nil {
					if n, ok := doc.GetInteger(prof.Dict["N"]); ok {
						return int(n), true
					}
				}
			}
		case "CalGray", "Separation":
			return 1, true
		case "CalRGB", "Lab":
			return 3, true
		case "DeviceN":
			if len(cs) >= 2 {
				if names := doc.GetArray(cs[1]); names != nil {
					return len(names), true
				}
			}
		case "Indexed":
			return 1, true
		}
	}
	return 0, false
}
