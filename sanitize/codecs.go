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

	"github.com/iRedPaul/pdftopdfa/color"
	"github.com/iRedPaul/pdftopdfa/jbig2"
	"github.com/iRedPaul/pdftopdfa/jpx"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

func hasFilter(doc *pdf.Document, stm *pdf.Stream, name pdf.Name) bool {
	for _, f := range filterChain(doc, stm.Dict["Filter"]) {
		if f == name {
			return true
		}
	}
	return false
}

// applyJBIG2 inlines external JBIG2 globals into the page data streams
// and flags streams using the forbidden refinement coding.  Globals
// inlining is a raw byte concatenation: the decoded globals segments
// are prepended to the page segments, giving a self-contained
// bitstream, and the JBIG2Globals reference is dropped.
func applyJBIG2(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning

	for _, ref := range doc.References() {
		stm, ok := doc.Get(ref).(*pdf.Stream)
		if !ok || !hasFilter(doc, stm, "JBIG2Decode") {
			continue
		}

		if g := jbig2Globals(doc, stm); g != nil {
			data, err := doc.DecodeStream(g)
			if err != nil {
				warnings = append(warnings, Warning{"jbig2",
					"cannot decode external globals: " + err.Error()})
				continue
			}
			stm.Raw = append(append([]byte{}, data...), stm.Raw...)
			stm.Dict["Filter"] = pdf.Name("JBIG2Decode")
			delete(stm.Dict, "DecodeParms")
		}

		if jbig2.HasRefinement(stm.Raw) {
			// re-encoding needs a pixel decoder, which we do not have
			warnings = append(warnings, Warning{"jbig2",
				fmt.Sprintf("stream %s uses forbidden refinement coding", ref)})
		}
	}
	return warnings, nil
}

// jbig2Globals returns the external globals stream referenced by the
// DecodeParms of a JBIG2 stream, or nil.
func jbig2Globals(doc *pdf.Document, stm *pdf.Stream) *pdf.Stream {
	switch parms := doc.Resolve(stm.Dict["DecodeParms"]).(type) {
	case pdf.Dict:
		return doc.GetStream(parms["JBIG2Globals"])
	case pdf.Array:
		for _, p := range parms {
			if d := doc.GetDict(p); d != nil {
				if g := doc.GetStream(d["JBIG2Globals"]); g != nil {
					return g
				}
			}
		}
	}
	return nil
}

// applyJPX repairs the headers of JPEG2000 images: bare codestreams
// are wrapped in a JP2 container, and the JP2 header is rewritten to
// carry exactly one valid colr box consistent with the codestream.
func applyJPX(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning

	for _, ref := range doc.References() {
		stm, ok := doc.Get(ref).(*pdf.Stream)
		if !ok || !hasFilter(doc, stm, "JPXDecode") {
			continue
		}

		ropt := &jpx.RepairOptions{
			NumComponents: imageComponents(doc, stm),
			CMYKProfile:   color.BuiltinProfile("DeviceCMYK"),
		}

		data := stm.Raw
		switch {
		case jpx.IsCodestream(data):
			fixed, err := jpx.Wrap(data, ropt)
			if err != nil {
				warnings = append(warnings, Warning{"jpx",
					"cannot wrap bare codestream: " + err.Error()})
				continue
			}
			stm.Raw = fixed
		case jpx.IsJP2(data):
			fixed, changed, err := jpx.Repair(data, ropt)
			if err != nil {
				warnings = append(warnings, Warning{"jpx",
					"cannot repair JP2 header: " + err.Error()})
				continue
			}
			if changed {
				stm.Raw = fixed
			}
		default:
			warnings = append(warnings, Warning{"jpx",
				fmt.Sprintf("stream %s is not JPEG2000 data", ref)})
		}
	}
	return warnings, nil
}

// imageComponents derives the channel count from the image color
// space, or 0 when it cannot be determined.
func imageComponents(doc *pdf.Document, stm *pdf.Stream) int {
	switch cs := doc.Resolve(stm.Dict["ColorSpace"]).(type) {
	case pdf.Name:
		switch cs {
		case "DeviceGray":
			return 1
		case "DeviceRGB":
			return 3
		case "DeviceCMYK":
			return 4
		}
	case pdf.Array:
		if len(cs) >= 2 && doc.GetName(cs[0]) == "ICCBased" {
			if prof := doc.GetStream(cs[1]); prof != nil {
				if n, ok := doc.GetInteger(prof.Dict["N"]); ok {
					return int(n)
				}
			}
		}
		if len(cs) >= 1 && doc.GetName(cs[0]) == "Indexed" {
			return 1
		}
	}
	return 0
}
