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

// Package ocr adds a recognized text layer to scanned documents.
package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Quality selects the speed/quality trade-off for text recognition.
type Quality string

const (
	// QualityFast does minimal processing.
	QualityFast Quality = "fast"

	// QualityDefault preprocesses the recognition image and oversamples
	// low-resolution scans.
	QualityDefault Quality = "default"

	// QualityBest additionally deskews the recognition image and retries
	// rotated page orientations.
	QualityBest Quality = "best"
)

// ParseQuality converts a user-supplied quality name.
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityFast, QualityDefault, QualityBest:
		return Quality(s), nil
	}
	return "", fmt.Errorf("unknown OCR quality %q", s)
}

// settings describes what a quality preset enables.  The recognition
// image is a copy; none of these alter the document visually.
type settings struct {
	skipText    bool
	deskew      bool
	rotatePages bool
	oversample  int // target DPI, 0 to keep the scan resolution
	preprocess  bool
}

var qualitySettings = map[Quality]settings{
	QualityFast: {
		skipText: true,
	},
	QualityDefault: {
		skipText:   true,
		oversample: 300,
		preprocess: true,
	},
	QualityBest: {
		skipText:    true,
		deskew:      true,
		rotatePages: true,
		oversample:  300,
		preprocess:  true,
	},
}

// Options configures a text recognition run.
type Options struct {
	// Languages holds Tesseract language codes, for example "eng" or
	// "deu".  An empty list means English.
	Languages []string

	// Quality selects the preset.  The zero value means QualityDefault.
	Quality Quality

	// Force re-recognizes pages which already carry text.
	Force bool

	Log *slog.Logger
}

func (o *Options) settings() settings {
	q := o.Quality
	if q == "" {
		q = QualityDefault
	}
	s := qualitySettings[q]
	if o.Force {
		s.skipText = false
	}
	return s
}

func (o *Options) languages() []string {
	if len(o.Languages) == 0 {
		return []string{"eng"}
	}
	return o.Languages
}

// Engine adds a text layer to the pages of a document.  Implementations
// report the number of pages which received text.
type Engine interface {
	AddTextLayer(ctx context.Context, doc *pdf.Document, opts *Options) (int, error)
}

// DefaultThreshold is the proportion of image-only pages above which a
// document is considered a scan.
const DefaultThreshold = 0.5

// NeedsOCR reports whether at least threshold of the document's pages
// contain images but no text.  A threshold <= 0 means DefaultThreshold.
func NeedsOCR(doc *pdf.Document, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	pages := doc.Pages()
	if len(pages) == 0 {
		return false
	}
	needing := 0
	for _, page := range pages {
		if pageNeedsOCR(doc, page) {
			needing++
		}
	}
	return float64(needing)/float64(len(pages)) >= threshold
}

func pageNeedsOCR(doc *pdf.Document, page *pdf.Page) bool {
	res := doc.GetDict(page.Inherited("Resources"))
	return pageHasImages(doc, res) && !pageHasText(doc, page, res)
}

// pageHasImages reports whether the page's resource dictionary names at
// least one image XObject.
func pageHasImages(doc *pdf.Document, res pdf.Dict) bool {
	for _, obj := range doc.GetDict(res["XObject"]) {
		if stm := doc.GetStream(obj); stm != nil {
			if doc.GetName(stm.Dict["Subtype"]) == "Image" {
				return true
			}
		}
	}
	return false
}

// pageHasText reports whether the page content, or any form XObject
// reachable from it, contains a text showing operator.
func pageHasText(doc *pdf.Document, page *pdf.Page, res pdf.Dict) bool {
	if contentHasText(pageContent(doc, page)) {
		return true
	}
	return formsHaveText(doc, res, map[pdf.Reference]bool{})
}

func pageContent(doc *pdf.Document, page *pdf.Page) []byte {
	var data []byte
	appendStream := func(obj pdf.Object) {
		if stm := doc.GetStream(obj); stm != nil {
			if decoded, err := doc.DecodeStream(stm); err == nil {
				data = append(data, decoded...)
				data = append(data, '\n')
			}
		}
	}
	switch contents := doc.Resolve(page.Dict["Contents"]).(type) {
	case *pdf.Stream:
		appendStream(page.Dict["Contents"])
	case pdf.Array:
		for _, elem := range contents {
			appendStream(elem)
		}
	}
	return data
}

func contentHasText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	ops, err := content.Parse(data)
	if err != nil {
		return false
	}
	for _, op := range ops {
		if content.IsTextShowing(op.Operator) {
			return true
		}
	}
	return false
}

func formsHaveText(doc *pdf.Document, res pdf.Dict, visited map[pdf.Reference]bool) bool {
	for _, obj := range doc.GetDict(res["XObject"]) {
		if ref, isRef := obj.(pdf.Reference); isRef {
			if visited[ref] {
				continue
			}
			visited[ref] = true
		}
		stm := doc.GetStream(obj)
		if stm == nil || doc.GetName(stm.Dict["Subtype"]) != "Form" {
			continue
		}
		if data, err := doc.DecodeStream(stm); err == nil && contentHasText(data) {
			return true
		}
		if formsHaveText(doc, doc.GetDict(stm.Dict["Resources"]), visited) {
			return true
		}
	}
	return false
}
