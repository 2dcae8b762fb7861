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

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// minOrientationConfidence is the mean word confidence below which the
// best preset retries rotated page orientations.
const minOrientationConfidence = 0.4

// Tesseract recognizes text with the Tesseract OCR engine and writes it
// as an invisible text layer behind the page images.
type Tesseract struct {
	// ClientFactory creates gosseract clients.  The zero value uses
	// gosseract.NewClient.
	ClientFactory func() *gosseract.Client

	Log *slog.Logger
}

// NewTesseract creates a Tesseract-backed engine.
func NewTesseract(log *slog.Logger) *Tesseract {
	return &Tesseract{ClientFactory: gosseract.NewClient, Log: log}
}

// word is one recognized word, with its bounding box in the pixel
// coordinates of the original page image.
type word struct {
	text       string
	x, y, w, h float64
	confidence float64
}

// AddTextLayer runs text recognition on every image-only page and
// appends an invisible text layer to the page content.  It returns the
// number of pages which received text.
func (t *Tesseract) AddTextLayer(ctx context.Context, doc *pdf.Document, opts *Options) (int, error) {
	cfg := opts.settings()
	langs := opts.languages()
	log := t.Log
	if log == nil {
		log = slog.Default()
	}

	var fontRef pdf.Reference
	done := 0
	for i, page := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		res := doc.GetDict(page.Inherited("Resources"))
		if !pageHasImages(doc, res) {
			continue
		}
		if cfg.skipText && pageHasText(doc, page, res) {
			continue
		}

		img := largestImage(doc, res, log)
		if img == nil {
			log.Debug("no decodable image on page", "page", i+1)
			continue
		}

		pageW, pageH := pageSize(doc, page)
		words, err := t.recognizePage(img, cfg, langs, pageW)
		if err != nil {
			return done, fmt.Errorf("page %d: %w", i+1, err)
		}
		if len(words) == 0 {
			continue
		}

		if fontRef == 0 {
			fontRef = doc.Alloc()
			doc.Put(fontRef, pdf.Dict{
				"Type":     pdf.Name("Font"),
				"Subtype":  pdf.Name("Type1"),
				"BaseFont": pdf.Name("Helvetica"),
				"Encoding": pdf.Name("WinAnsiEncoding"),
			})
		}
		fontName := ensureFontResource(doc, page, fontRef)

		b := img.Bounds()
		layer := textLayer(words, fontName, float64(b.Dx()), float64(b.Dy()), pageW, pageH)
		appendPageContent(doc, page, layer)
		done++
		log.Debug("added text layer", "page", i+1, "words", len(words))
	}
	return done, nil
}

// recognizePage prepares the recognition copy of the page image and
// runs Tesseract on it.  The returned boxes are mapped back to the
// coordinates of the original image.
func (t *Tesseract) recognizePage(img image.Image, cfg settings, langs []string, pageW float64) ([]word, error) {
	work := img
	scale := 1.0
	if cfg.oversample > 0 && pageW > 0 {
		dpi := float64(img.Bounds().Dx()) / (pageW / 72)
		if dpi > 0 && dpi < float64(cfg.oversample) {
			scale = float64(cfg.oversample) / dpi
			work = scaleImage(work, scale)
		}
	}

	var angle float64
	if cfg.preprocess {
		gray := denoise(toGray(work))
		work = adaptiveThreshold(gray, 11, 2)
	}
	if cfg.deskew {
		gray := toGray(work)
		if a := estimateSkew(gray); a != 0 {
			angle = a
			work = rotateImage(gray, a)
		}
	}

	words, conf, err := t.recognize(work, langs)
	if err != nil {
		return nil, err
	}

	turns := 0
	if cfg.rotatePages && conf < minOrientationConfidence {
		for try := 1; try <= 3; try++ {
			rotated := orientImage(work, try)
			w2, c2, err := t.recognize(rotated, langs)
			if err != nil {
				return nil, err
			}
			if c2 > conf {
				words, conf, turns = w2, c2, try
			}
		}
	}

	b := work.Bounds()
	for i := range words {
		unrotateBox(&words[i], turns, float64(b.Dx()), float64(b.Dy()))
		if angle != 0 {
			unskewBox(&words[i], angle, float64(b.Dx()), float64(b.Dy()))
		}
		words[i].x /= scale
		words[i].y /= scale
		words[i].w /= scale
		words[i].h /= scale
	}
	return words, nil
}

// recognize runs one Tesseract pass over the image.
func (t *Tesseract) recognize(img image.Image, langs []string) ([]word, float64, error) {
	factory := t.ClientFactory
	if factory == nil {
		factory = gosseract.NewClient
	}
	client := factory()
	defer client.Close()

	if err := client.SetLanguage(langs...); err != nil {
		return nil, 0, fmt.Errorf("setting languages: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, 0, fmt.Errorf("encoding recognition image: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, 0, fmt.Errorf("setting image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, 0, fmt.Errorf("recognizing text: %w", err)
	}

	var words []word
	var confSum float64
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		conf := b.Confidence / 100
		confSum += conf
		words = append(words, word{
			text:       text,
			x:          float64(b.Box.Min.X),
			y:          float64(b.Box.Min.Y),
			w:          float64(b.Box.Dx()),
			h:          float64(b.Box.Dy()),
			confidence: conf,
		})
	}
	if len(words) == 0 {
		return nil, 0, nil
	}
	return words, confSum / float64(len(words)), nil
}

// unrotateBox maps a box from an image rotated clockwise by quarterTurns
// back to the unrotated image of size w x h.
func unrotateBox(wd *word, quarterTurns int, w, h float64) {
	switch ((quarterTurns % 4) + 4) % 4 {
	case 1:
		// the rotated image has size h x w
		wd.x, wd.y = wd.y, h-wd.x-wd.w
		wd.w, wd.h = wd.h, wd.w
	case 2:
		wd.x = w - wd.x - wd.w
		wd.y = h - wd.y - wd.h
	case 3:
		wd.x, wd.y = w-wd.y-wd.h, wd.x
		wd.w, wd.h = wd.h, wd.w
	}
}

// unskewBox rotates the box center back by the deskew angle around the
// image center.  Width and height are kept; the angles involved are
// small.
func unskewBox(wd *word, degrees float64, w, h float64) {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx, cy := w/2, h/2
	mx, my := wd.x+wd.w/2-cx, wd.y+wd.h/2-cy
	rx := cx + mx*cos + my*sin
	ry := cy - mx*sin + my*cos
	wd.x = rx - wd.w/2
	wd.y = ry - wd.h/2
}

// pageSize returns the page dimensions in points, taking /MediaBox from
// the page tree.  A missing MediaBox yields US letter.
func pageSize(doc *pdf.Document, page *pdf.Page) (float64, float64) {
	box := doc.GetArray(page.Inherited("MediaBox"))
	if len(box) == 4 {
		x0, _ := doc.GetNumber(box[0])
		y0, _ := doc.GetNumber(box[1])
		x1, _ := doc.GetNumber(box[2])
		y1, _ := doc.GetNumber(box[3])
		w, h := math.Abs(x1-x0), math.Abs(y1-y0)
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return 612, 792
}

// largestImage decodes the biggest image XObject of the page, assuming
// a scanned page is dominated by a single full-page image.
func largestImage(doc *pdf.Document, res pdf.Dict, log *slog.Logger) image.Image {
	var best image.Image
	bestArea := 0
	for name, obj := range doc.GetDict(res["XObject"]) {
		stm := doc.GetStream(obj)
		if stm == nil || doc.GetName(stm.Dict["Subtype"]) != "Image" {
			continue
		}
		w, _ := doc.GetInteger(stm.Dict["Width"])
		h, _ := doc.GetInteger(stm.Dict["Height"])
		if int(w)*int(h) <= bestArea {
			continue
		}
		img, err := decodeImage(doc, stm)
		if err != nil {
			log.Debug("cannot decode image", "name", name, "err", err)
			continue
		}
		best = img
		bestArea = int(w) * int(h)
	}
	return best
}

// ensureFontResource registers the text layer font in the page's
// resource dictionary and returns its resource name.
func ensureFontResource(doc *pdf.Document, page *pdf.Page, fontRef pdf.Reference) pdf.Name {
	res := doc.GetDict(page.Inherited("Resources"))
	if res == nil {
		res = pdf.Dict{}
		page.Dict["Resources"] = res
	}
	fonts := doc.GetDict(res["Font"])
	if fonts == nil {
		fonts = pdf.Dict{}
		res["Font"] = fonts
	}
	name := pdf.Name("FOCR")
	for i := 2; ; i++ {
		existing, present := fonts[name]
		if !present {
			fonts[name] = fontRef
			return name
		}
		if ref, isRef := existing.(pdf.Reference); isRef && ref == fontRef {
			return name
		}
		name = pdf.Name(fmt.Sprintf("FOCR%d", i))
	}
}

// textLayer builds an invisible text layer (rendering mode 3) from the
// recognized words, mapped from image pixels to page coordinates.
func textLayer(words []word, fontName pdf.Name, imgW, imgH, pageW, pageH float64) []byte {
	sx := pageW / imgW
	sy := pageH / imgH

	ops := []content.Operation{
		{Operator: "q"},
		{Operator: "BT"},
		{Operands: []pdf.Object{pdf.Integer(3)}, Operator: "Tr"},
	}
	for _, wd := range words {
		size := wd.h * sy
		if size <= 0 {
			continue
		}
		tx := wd.x * sx
		ty := pageH - (wd.y+wd.h)*sy
		ops = append(ops,
			content.Operation{
				Operands: []pdf.Object{fontName, pdf.Real(size)},
				Operator: "Tf",
			},
			content.Operation{
				Operands: []pdf.Object{
					pdf.Real(1), pdf.Real(0), pdf.Real(0), pdf.Real(1),
					pdf.Real(tx), pdf.Real(ty),
				},
				Operator: "Tm",
			},
			content.Operation{
				Operands: []pdf.Object{winAnsiString(wd.text)},
				Operator: "Tj",
			},
		)
	}
	ops = append(ops,
		content.Operation{Operator: "ET"},
		content.Operation{Operator: "Q"},
	)
	return content.Serialize(ops)
}

// winAnsiString approximates the word in the WinAnsi code range.
// Characters outside Latin-1 are replaced; the layer exists for search
// and selection, not for faithful re-rendering.
func winAnsiString(s string) pdf.String {
	out := make(pdf.String, 0, len(s))
	for _, r := range s {
		if r <= 0xff {
			out = append(out, byte(r))
		} else {
			out = append(out, '?')
		}
	}
	return out
}

// appendPageContent adds a content stream after the existing page
// content.
func appendPageContent(doc *pdf.Document, page *pdf.Page, data []byte) {
	newRef := doc.Alloc()
	doc.Put(newRef, pdf.NewFlateStream(data, nil))

	switch contents := doc.Resolve(page.Dict["Contents"]).(type) {
	case pdf.Array:
		if ref, isRef := page.Dict["Contents"].(pdf.Reference); isRef {
			doc.Put(ref, append(contents, newRef))
		} else {
			page.Dict["Contents"] = append(contents, newRef)
		}
	case *pdf.Stream:
		old := page.Dict["Contents"]
		if _, isRef := old.(pdf.Reference); !isRef {
			oldRef := doc.Alloc()
			doc.Put(oldRef, contents)
			old = oldRef
		}
		page.Dict["Contents"] = pdf.Array{old, newRef}
	default:
		page.Dict["Contents"] = pdf.Array{newRef}
	}
}
