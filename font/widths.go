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
	"math"
	"sort"

	"seehuhn.de/go/dag"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// CID is a character identifier in a CIDFont.
type CID uint16

// widthTolerance is the maximal difference, in 1000/em units, between a
// width stored in a font dictionary and the advance width of the
// embedded font program before the stored value counts as wrong.
const widthTolerance = 1.0

func widthsAgree(a, b float64) bool {
	return math.Abs(a-b) <= widthTolerance
}

// EncodeComposite constructs the W entry for a CIDFont dictionary.  The
// encoding is chosen to minimize the length of the serialized array,
// using ranges where consecutive CIDs share a width and arrays where
// CIDs are consecutive.
func EncodeComposite(widths map[CID]float64, dw float64) pdf.Array {
	var ww []cidWidth
	for cid, w := range widths {
		ww = append(ww, cidWidth{cid, w})
	}
	sort.Slice(ww, func(i, j int) bool {
		return ww[i].CID < ww[j].CID
	})

	g := wwGraph{ww, dw}
	ee, err := dag.ShortestPath(g, len(ww))
	if err != nil {
		panic(err)
	}

	var res pdf.Array
	pos := 0
	for _, e := range ee {
		switch {
		case e > 0:
			res = append(res,
				pdf.Integer(ww[pos].CID),
				pdf.Integer(ww[pos+int(e)-1].CID),
				pdf.Real(ww[pos].GlyphWidth))
		case e < 0:
			var wi pdf.Array
			for i := pos; i < pos+int(-e); i++ {
				wi = append(wi, pdf.Real(ww[i].GlyphWidth))
			}
			res = append(res,
				pdf.Integer(ww[pos].CID),
				wi)
		}
		pos = g.To(pos, e)
	}

	return res
}

type cidWidth struct {
	CID        CID
	GlyphWidth float64
}

type wwGraph struct {
	ww []cidWidth
	dw float64
}

// A wwEdge encodes how the next CID width is encoded.
//
//	e=0: the width of the next CID is the default width, no entry needed
//	e>0: the next e CIDs have the same width, encode as a range
//	e<0: the next -e entries have consecutive CIDs, encode as an array
type wwEdge int16

func (g wwGraph) AppendEdges(ee []wwEdge, v int) []wwEdge {
	ww := g.ww
	if math.Abs(ww[v].GlyphWidth-g.dw) < 0.01 {
		return append(ee, 0)
	}

	n := len(ww)

	i := v + 1
	for i < n && ww[i].GlyphWidth == ww[v].GlyphWidth {
		i++
	}
	if i > v+1 {
		ee = append(ee, wwEdge(i-v))
	}

	i = v
	for i < n && int(ww[i].CID)-int(ww[v].CID) == i-v {
		i++
		ee = append(ee, wwEdge(v-i))
	}

	return ee
}

func (g wwGraph) Length(v int, e wwEdge) int {
	// assume all integers in the output have 3 digits
	if e == 0 {
		return 0
	} else if e > 0 {
		// "%d %d %d\n"
		return 12
	}
	// "%d [%d ... %d]\n"
	return 6 + 4*int(-e)
}

func (g wwGraph) To(v int, e wwEdge) int {
	if e == 0 {
		return v + 1
	}
	step := int(e)
	if step < 0 {
		step = -step
	}
	return v + step
}

// DefaultWidth returns the most frequent width, to be used as the DW
// entry of a CIDFont dictionary.
func DefaultWidth(widths map[CID]float64) float64 {
	hist := make(map[float64]int)
	for _, w := range widths {
		hist[w]++
	}
	bestCount := 0
	bestVal := 0.0
	for w, count := range hist {
		if count > bestCount || (count == bestCount && w < bestVal) {
			bestCount = count
			bestVal = w
		}
	}
	return bestVal
}

// DecodeComposite decodes the W and DW entries of a CIDFont dictionary.
// Malformed runs are skipped.  The result maps CIDs with an explicit
// width; all other CIDs have the default width.
func DecodeComposite(doc *pdf.Document, wObj, dwObj pdf.Object) (map[CID]float64, float64) {
	dw, ok := doc.GetNumber(dwObj)
	if !ok {
		dw = 1000
	}

	res := make(map[CID]float64)
	w := doc.GetArray(wObj)
	for len(w) > 1 {
		c0, ok := doc.GetInteger(w[0])
		if !ok || c0 < 0 || c0 > 0xFFFF {
			break
		}
		if c1, ok := doc.GetInteger(w[1]); ok {
			if len(w) < 3 || c1 < c0 || c1 > 0xFFFF {
				break
			}
			wi, ok := doc.GetNumber(w[2])
			if ok {
				for c := c0; c <= c1; c++ {
					res[CID(c)] = wi
				}
			}
			w = w[3:]
		} else {
			wi := doc.GetArray(w[1])
			for _, wiObj := range wi {
				width, ok := doc.GetNumber(wiObj)
				if ok && c0 <= 0xFFFF {
					res[CID(c0)] = width
				}
				c0++
			}
			w = w[2:]
		}
	}
	return res, dw
}

// RepairSimpleWidths verifies the Widths, FirstChar and LastChar
// entries of a simple font dictionary against the advance widths of the
// embedded font program and rewrites them on mismatch.  The actual
// function reports the width, in 1000/em units, of the glyph shown for
// a code, with ok=false where the code maps to no glyph.  Only codes
// the document uses are checked; used is nil when usage is unknown, in
// which case every code is checked.  RepairSimpleWidths reports whether
// the dictionary was changed.
func RepairSimpleWidths(doc *pdf.Document, dict pdf.Dict, actual func(code byte) (float64, bool), used map[uint32]bool) bool {
	first, ok := doc.GetInteger(dict["FirstChar"])
	if !ok {
		first = 0
	}
	stored := doc.GetArray(dict["Widths"])

	mismatch := false
	for code := 0; code < 256; code++ {
		if used != nil && !used[uint32(code)] {
			continue
		}
		w, ok := actual(byte(code))
		if !ok {
			continue
		}
		idx := code - int(first)
		if idx < 0 || idx >= len(stored) {
			mismatch = true
			break
		}
		have, ok := doc.GetNumber(stored[idx])
		if !ok || !widthsAgree(have, w) {
			mismatch = true
			break
		}
	}
	if !mismatch {
		return false
	}

	lo, hi := -1, -1
	widths := make([]float64, 256)
	for code := 0; code < 256; code++ {
		if w, ok := actual(byte(code)); ok {
			widths[code] = w
			if lo < 0 {
				lo = code
			}
			hi = code
		}
	}
	if lo < 0 {
		lo, hi = 0, 0
	}
	arr := make(pdf.Array, 0, hi-lo+1)
	for code := lo; code <= hi; code++ {
		arr = append(arr, pdf.Real(widths[code]))
	}
	dict["FirstChar"] = pdf.Integer(lo)
	dict["LastChar"] = pdf.Integer(hi)
	ref := doc.Alloc()
	doc.Put(ref, arr)
	dict["Widths"] = ref
	return true
}

// RepairCompositeWidths verifies the W and DW entries of a CIDFont
// dictionary against the advance widths of the embedded font program
// and rewrites them on mismatch.  The widths map gives the actual width
// for every CID the document uses.  RepairCompositeWidths reports
// whether the dictionary was changed.
func RepairCompositeWidths(doc *pdf.Document, cidFont pdf.Dict, widths map[CID]float64) bool {
	stored, dw := DecodeComposite(doc, cidFont["W"], cidFont["DW"])

	mismatch := false
	for cid, w := range widths {
		have, ok := stored[cid]
		if !ok {
			have = dw
		}
		if !widthsAgree(have, w) {
			mismatch = true
			break
		}
	}
	if !mismatch {
		return false
	}

	newDW := DefaultWidth(widths)
	cidFont["DW"] = pdf.Real(newDW)
	cidFont["W"] = EncodeComposite(widths, newDW)
	return true
}
