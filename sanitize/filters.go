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
	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// canonicalFilterNames maps the abbreviated filter names allowed in
// inline images (and occasionally found on real streams) to their full
// spellings.
var canonicalFilterNames = map[pdf.Name]pdf.Name{
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"LZW": "LZWDecode",
	"Fl":  "FlateDecode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

// inlineImageFilters lists the filters allowed in inline images by
// ISO 19005-2 rule 6.1.10-1 (Table 6 of the standard).
var inlineImageFilters = map[pdf.Name]bool{
	"ASCIIHexDecode":  true,
	"ASCII85Decode":   true,
	"FlateDecode":     true,
	"RunLengthDecode": true,
	"CCITTFaxDecode":  true,
	"DCTDecode":       true,
}

// applyFilters removes the stream filters forbidden in PDF/A: LZW
// compressed streams are re-encoded with Flate, Crypt filters are
// dropped, external stream keys (/F, /FFilter, /FDecodeParms) are
// removed, and inline images using forbidden or abbreviated filters
// are re-encoded.
func applyFilters(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning

	for _, ref := range doc.References() {
		stm, ok := doc.Get(ref).(*pdf.Stream)
		if !ok {
			continue
		}
		warnings = append(warnings, fixStreamFilters(doc, stm)...)
	}

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		ww, err := fixInlineImages(doc, c)
		warnings = append(warnings, ww...)
		return err
	})
	return warnings, err
}

func fixStreamFilters(doc *pdf.Document, stm *pdf.Stream) []Warning {
	var warnings []Warning

	// forbidden external stream keys per ISO 19005-2, 6.1.7.1
	for _, key := range []pdf.Name{"F", "FFilter", "FDecodeParms"} {
		delete(stm.Dict, key)
	}

	filters := filterChain(doc, stm.Dict["Filter"])
	if len(filters) == 0 {
		return warnings
	}

	normalized := false
	hasLZW := false
	hasCrypt := false
	for i, f := range filters {
		if full, ok := canonicalFilterNames[f]; ok {
			filters[i] = full
			normalized = true
		}
		switch filters[i] {
		case "LZWDecode":
			hasLZW = true
		case "Crypt":
			hasCrypt = true
		}
	}

	if hasLZW {
		data, err := doc.DecodeStream(stm)
		if err != nil {
			warnings = append(warnings, Warning{"filters",
				"cannot re-encode LZW stream: " + err.Error()})
			return warnings
		}
		stm.Raw = pdf.FlateData(data)
		stm.Dict["Filter"] = pdf.Name("FlateDecode")
		delete(stm.Dict, "DecodeParms")
		return warnings
	}

	if hasCrypt {
		var kept pdf.Array
		parms := doc.GetArray(stm.Dict["DecodeParms"])
		var keptParms pdf.Array
		for i, f := range filters {
			if f == "Crypt" {
				continue
			}
			kept = append(kept, f)
			if i < len(parms) {
				keptParms = append(keptParms, parms[i])
			}
		}
		setFilterChain(stm.Dict, kept, keptParms)
		return warnings
	}

	if normalized {
		// spell out abbreviated names, leaving DecodeParms alone
		if len(filters) == 1 {
			stm.Dict["Filter"] = filters[0]
		} else {
			stm.Dict["Filter"] = toFilterArray(filters)
		}
	}
	return warnings
}

func filterChain(doc *pdf.Document, obj pdf.Object) []pdf.Name {
	switch obj := doc.Resolve(obj).(type) {
	case pdf.Name:
		return []pdf.Name{obj}
	case pdf.Array:
		var res []pdf.Name
		for _, f := range obj {
			if name, ok := doc.Resolve(f).(pdf.Name); ok {
				res = append(res, name)
			}
		}
		return res
	}
	return nil
}

func toFilterArray(filters []pdf.Name) pdf.Array {
	res := make(pdf.Array, len(filters))
	for i, f := range filters {
		res[i] = f
	}
	return res
}

func setFilterChain(dict pdf.Dict, filters pdf.Array, parms pdf.Array) {
	switch len(filters) {
	case 0:
		delete(dict, "Filter")
		delete(dict, "DecodeParms")
	case 1:
		dict["Filter"] = filters[0]
		if len(parms) >= 1 && parms[0] != nil {
			dict["DecodeParms"] = parms[0]
		} else {
			delete(dict, "DecodeParms")
		}
	default:
		dict["Filter"] = filters
		if len(parms) > 0 {
			dict["DecodeParms"] = parms
		} else {
			delete(dict, "DecodeParms")
		}
	}
}

// fixInlineImages re-encodes inline images whose filter chain uses
// abbreviations PDF/A forbids outside Table 6, or filters not allowed
// for inline images at all (LZW in particular).
func fixInlineImages(doc *pdf.Document, c *pdf.ContentContext) ([]Warning, error) {
	data, err := c.Content()
	if err != nil {
		return nil, nil
	}
	ops, err := content.Parse(data)
	if err != nil {
		return nil, nil
	}

	var warnings []Warning
	changed := false
	for i, op := range ops {
		if op.Operator != "BI" || len(op.Operands) != 1 {
			continue
		}
		dict, ok := op.Operands[0].(pdf.Dict)
		if !ok {
			continue
		}

		filters := inlineFilterChain(doc, dict)
		if len(filters) == 0 {
			continue
		}
		allAllowed := true
		for _, f := range filters {
			if !inlineImageFilters[f] {
				allAllowed = false
			}
		}
		abbreviated := hasAbbreviatedFilter(doc, dict)
		if allAllowed && !abbreviated {
			continue
		}
		if allAllowed {
			// allowed filters under abbreviated names: spell them out
			parms := dict["DecodeParms"]
			if parms == nil {
				parms = dict["DP"]
			}
			delete(dict, "F")
			delete(dict, "DP")
			delete(dict, "DecodeParms")
			if len(filters) == 1 {
				dict["Filter"] = filters[0]
			} else {
				dict["Filter"] = toFilterArray(filters)
			}
			if parms != nil {
				dict["DecodeParms"] = parms
			}
			ops[i].Operands[0] = dict
			changed = true
			continue
		}

		// decode via a scratch stream using the full filter names
		scratch := &pdf.Stream{Dict: inlineToStreamDict(doc, dict), Raw: op.Inline}
		decoded, err := doc.DecodeStream(scratch)
		if err != nil {
			warnings = append(warnings, Warning{"filters",
				"cannot re-encode inline image: " + err.Error()})
			continue
		}

		delete(dict, "F")
		delete(dict, "Filter")
		delete(dict, "DP")
		delete(dict, "DecodeParms")
		dict["Filter"] = pdf.Name("FlateDecode")
		ops[i].Operands[0] = dict
		ops[i].Inline = pdf.FlateData(decoded)
		changed = true
	}

	if changed {
		c.SetContent(content.Serialize(ops))
	}
	return warnings, nil
}

func inlineFilterChain(doc *pdf.Document, dict pdf.Dict) []pdf.Name {
	obj := dict["Filter"]
	if obj == nil {
		obj = dict["F"]
	}
	filters := filterChain(doc, obj)
	for i, f := range filters {
		if full, ok := canonicalFilterNames[f]; ok {
			filters[i] = full
		}
	}
	return filters
}

func hasAbbreviatedFilter(doc *pdf.Document, dict pdf.Dict) bool {
	obj := dict["Filter"]
	if _, ok := dict["F"]; ok {
		return true
	}
	for _, f := range filterChain(doc, obj) {
		if _, ok := canonicalFilterNames[f]; ok {
			return true
		}
	}
	return false
}

// inlineToStreamDict builds a stream dictionary with full filter names
// from an inline image dictionary, so the regular stream decoder can
// process the payload.
func inlineToStreamDict(doc *pdf.Document, dict pdf.Dict) pdf.Dict {
	res := pdf.Dict{}
	filters := inlineFilterChain(doc, dict)
	res["Filter"] = toFilterArray(filters)
	parms := dict["DecodeParms"]
	if parms == nil {
		parms = dict["DP"]
	}
	if parms != nil {
		res["DecodeParms"] = parms
	}
	return res
}
