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

// Page boundary size limits from ISO 32000-1, Annex C.
const (
	minBoxSize = 3.0
	maxBoxSize = 14400.0
)

var subBoxNames = []pdf.Name{"CropBox", "BleedBox", "TrimBox", "ArtBox"}

// applyPageBoxes repairs the page boundary boxes: the MediaBox is made
// explicit on every page, malformed boxes are removed, coordinates are
// normalized (lower-left below upper-right), dimensions are clamped to
// the ISO 32000 limits, and sub-boxes are clipped to the MediaBox.
func applyPageBoxes(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning

	for i, page := range doc.Pages() {
		media, ok := readBox(doc, page.Dict["MediaBox"])
		if !ok {
			if inherited, ok2 := readBox(doc, page.Inherited("MediaBox")); ok2 {
				media = inherited
			} else {
				warnings = append(warnings, Warning{"page-boxes",
					fmt.Sprintf("page %d has no usable MediaBox", i+1)})
				continue
			}
		}

		media = normalizeBox(media)
		media = clampBoxSize(media)
		page.Dict["MediaBox"] = boxArray(media)

		for _, name := range subBoxNames {
			obj, present := page.Dict[name]
			if !present {
				continue
			}
			box, ok := readBox(doc, obj)
			if !ok {
				delete(page.Dict, name)
				warnings = append(warnings, Warning{"page-boxes",
					fmt.Sprintf("page %d: removed malformed %s", i+1, name)})
				continue
			}
			box = clipBox(clampBoxSize(normalizeBox(box)), media)
			if boxWidth(box) < minBoxSize || boxHeight(box) < minBoxSize {
				// clipping left a degenerate box
				delete(page.Dict, name)
				continue
			}
			page.Dict[name] = boxArray(box)
		}

		_, hasTrim := page.Dict["TrimBox"]
		_, hasArt := page.Dict["ArtBox"]
		if !hasTrim && !hasArt {
			trim := media
			if crop, ok := readBox(doc, page.Dict["CropBox"]); ok {
				trim = crop
			}
			page.Dict["TrimBox"] = boxArray(trim)
		}
	}
	return warnings, nil
}

type box [4]float64 // llx, lly, urx, ury

func readBox(doc *pdf.Document, obj pdf.Object) (box, bool) {
	arr := doc.GetArray(obj)
	if len(arr) != 4 {
		return box{}, false
	}
	var b box
	for i, v := range arr {
		x, ok := doc.GetNumber(v)
		if !ok {
			return box{}, false
		}
		b[i] = x
	}
	return b, true
}

func normalizeBox(b box) box {
	if b[0] > b[2] {
		b[0], b[2] = b[2], b[0]
	}
	if b[1] > b[3] {
		b[1], b[3] = b[3], b[1]
	}
	return b
}

func clampBoxSize(b box) box {
	b[2] = b[0] + min(max(boxWidth(b), minBoxSize), maxBoxSize)
	b[3] = b[1] + min(max(boxHeight(b), minBoxSize), maxBoxSize)
	return b
}

func clipBox(b, media box) box {
	b[0] = max(b[0], media[0])
	b[1] = max(b[1], media[1])
	b[2] = min(b[2], media[2])
	b[3] = min(b[3], media[3])
	return b
}

func boxWidth(b box) float64  { return b[2] - b[0] }
func boxHeight(b box) float64 { return b[3] - b[1] }

func boxArray(b box) pdf.Array {
	res := make(pdf.Array, 4)
	for i, v := range b {
		if v == float64(int64(v)) {
			res[i] = pdf.Integer(int64(v))
		} else {
			res[i] = pdf.Real(v)
		}
	}
	return res
}
