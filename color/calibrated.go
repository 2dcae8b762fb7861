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
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// ReplaceCalibrated rewrites CalGray and CalRGB color spaces to
// ICC-based spaces.  Both are legal in PDF/A, but viewers disagree on
// how to render them, so replacing them gives more predictable
// long-term results.  Lab spaces are left alone.  ReplaceCalibrated
// returns the number of color spaces rewritten.
func ReplaceCalibrated(doc *pdf.Document) (int, error) {
	e := newEmbedder(doc)
	changed := 0
	err := forEachSpace(doc, func(obj pdf.Object, set func(pdf.Object)) error {
		newObj, n, err := rewriteCalibrated(doc, e, obj)
		if err != nil {
			return err
		}
		if n > 0 {
			set(newObj)
			changed += n
		}
		return nil
	})
	return changed, err
}

// rewriteCalibrated replaces CalGray and CalRGB spaces, recursing into
// Indexed base spaces and Separation and DeviceN alternates.
func rewriteCalibrated(doc *pdf.Document, e *embedder, obj pdf.Object) (pdf.Object, int, error) {
	arr, ok := obj.(pdf.Array)
	if !ok || len(arr) == 0 {
		return obj, 0, nil
	}
	family, _ := doc.Resolve(arr[0]).(pdf.Name)
	switch family {
	case "CalGray":
		space, err := e.space("DeviceGray")
		return space, 1, err
	case "CalRGB":
		space, err := e.space("DeviceRGB")
		return space, 1, err
	case "Indexed":
		if len(arr) >= 2 {
			return rewriteCalibratedAt(doc, e, arr, 1)
		}
	case "Separation", "DeviceN":
		if len(arr) >= 3 {
			return rewriteCalibratedAt(doc, e, arr, 2)
		}
	}
	return obj, 0, nil
}

func rewriteCalibratedAt(doc *pdf.Document, e *embedder, arr pdf.Array, i int) (pdf.Object, int, error) {
	inner, n, err := rewriteCalibrated(doc, e, doc.Resolve(arr[i]))
	if err != nil || n == 0 {
		return arr, 0, err
	}
	if ref, isRef := arr[i].(pdf.Reference); isRef {
		doc.Put(ref, inner)
	} else {
		arr[i] = inner
	}
	return arr, n, nil
}
