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
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// scanDoc builds a document whose pages each hold the given content
// stream and, optionally, a small image XObject.
func scanDoc(pages ...struct {
	contents string
	hasImage bool
}) *pdf.Document {
	doc := pdf.NewDocument(pdf.V1_7)

	var kids pdf.Array
	pagesRef := doc.Alloc()
	for _, p := range pages {
		res := pdf.Dict{}
		if p.hasImage {
			imgRef := doc.Alloc()
			doc.Put(imgRef, &pdf.Stream{
				Dict: pdf.Dict{
					"Type":             pdf.Name("XObject"),
					"Subtype":          pdf.Name("Image"),
					"Width":            pdf.Integer(2),
					"Height":           pdf.Integer(2),
					"BitsPerComponent": pdf.Integer(8),
					"ColorSpace":       pdf.Name("DeviceGray"),
				},
				Raw: []byte{0, 64, 128, 255},
			})
			res["XObject"] = pdf.Dict{"Im1": imgRef}
		}

		contentRef := doc.Alloc()
		doc.Put(contentRef, pdf.NewFlateStream([]byte(p.contents), nil))

		pageRef := doc.Alloc()
		doc.Put(pageRef, pdf.Dict{
			"Type":      pdf.Name("Page"),
			"Parent":    pagesRef,
			"Resources": res,
			"Contents":  contentRef,
			"MediaBox":  pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(612), pdf.Integer(792)},
		})
		kids = append(kids, pageRef)
	}
	doc.Put(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Integer(len(kids)),
	})

	catalogRef := doc.Alloc()
	doc.Put(catalogRef, pdf.Dict{
		"Type":  pdf.Name("Catalog"),
		"Pages": pagesRef,
	})
	doc.Trailer["Root"] = catalogRef
	return doc
}

type testPage = struct {
	contents string
	hasImage bool
}

func TestNeedsOCRImageOnly(t *testing.T) {
	doc := scanDoc(testPage{contents: "q 612 0 0 792 0 0 cm /Im1 Do Q", hasImage: true})
	if !NeedsOCR(doc, 0) {
		t.Error("image-only page not detected")
	}
}

func TestNeedsOCRWithText(t *testing.T) {
	doc := scanDoc(testPage{
		contents: "q /Im1 Do Q BT /F1 12 Tf (Hello) Tj ET",
		hasImage: true,
	})
	if NeedsOCR(doc, 0) {
		t.Error("page with text flagged for OCR")
	}
}

func TestNeedsOCRTextInForm(t *testing.T) {
	doc := scanDoc(testPage{contents: "/Im1 Do /Fm1 Do", hasImage: true})

	// add a form XObject containing text to the page resources
	page := doc.Pages()[0]
	res := doc.GetDict(page.Dict["Resources"])
	formRef := doc.Alloc()
	doc.Put(formRef, &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("XObject"),
			"Subtype": pdf.Name("Form"),
			"BBox":    pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(100), pdf.Integer(100)},
		},
		Raw: []byte("BT /F1 10 Tf (hidden) Tj ET"),
	})
	doc.GetDict(res["XObject"])["Fm1"] = formRef

	if NeedsOCR(doc, 0) {
		t.Error("text inside form XObject not detected")
	}
}

func TestNeedsOCRThreshold(t *testing.T) {
	doc := scanDoc(
		testPage{contents: "/Im1 Do", hasImage: true},
		testPage{contents: "BT (a) Tj ET"},
		testPage{contents: "BT (b) Tj ET"},
	)
	if NeedsOCR(doc, 0) {
		t.Error("1/3 image-only pages must stay below the default threshold")
	}
	if !NeedsOCR(doc, 0.3) {
		t.Error("1/3 image-only pages must reach a 0.3 threshold")
	}
}

func TestNeedsOCREmptyDocument(t *testing.T) {
	doc := scanDoc()
	if NeedsOCR(doc, 0) {
		t.Error("empty document flagged for OCR")
	}
}

func TestParseQuality(t *testing.T) {
	for _, good := range []string{"fast", "default", "best"} {
		if _, err := ParseQuality(good); err != nil {
			t.Errorf("ParseQuality(%q): %v", good, err)
		}
	}
	if _, err := ParseQuality("ultra"); err == nil {
		t.Error("unknown quality accepted")
	}
}

func TestForceDisablesSkipText(t *testing.T) {
	opts := &Options{Quality: QualityDefault, Force: true}
	if opts.settings().skipText {
		t.Error("force must disable text skipping")
	}
	opts.Force = false
	if !opts.settings().skipText {
		t.Error("default preset must skip pages with text")
	}
}

func TestDecodeImageGray(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Subtype":          pdf.Name("Image"),
			"Width":            pdf.Integer(2),
			"Height":           pdf.Integer(2),
			"BitsPerComponent": pdf.Integer(8),
			"ColorSpace":       pdf.Name("DeviceGray"),
		},
		Raw: []byte{0, 64, 128, 255},
	}
	img, err := decodeImage(doc, stm)
	if err != nil {
		t.Fatal(err)
	}
	gray, isGray := img.(*image.Gray)
	if !isGray {
		t.Fatalf("got %T, want *image.Gray", img)
	}
	if gray.GrayAt(1, 1).Y != 255 {
		t.Errorf("pixel (1,1) = %d, want 255", gray.GrayAt(1, 1).Y)
	}
}

func TestDecodeImageBilevel(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Subtype":          pdf.Name("Image"),
			"Width":            pdf.Integer(9),
			"Height":           pdf.Integer(1),
			"BitsPerComponent": pdf.Integer(1),
			"ColorSpace":       pdf.Name("DeviceGray"),
		},
		// 10000000 1xxxxxxx
		Raw: []byte{0x80, 0x80},
	}
	img, err := decodeImage(doc, stm)
	if err != nil {
		t.Fatal(err)
	}
	gray := img.(*image.Gray)
	if gray.GrayAt(0, 0).Y != 255 {
		t.Error("first sample must be white")
	}
	if gray.GrayAt(1, 0).Y != 0 {
		t.Error("second sample must be black")
	}
	if gray.GrayAt(8, 0).Y != 255 {
		t.Error("ninth sample crosses the byte boundary")
	}
}

func TestDecodeImageUnsupported(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Subtype": pdf.Name("Image"),
			"Width":   pdf.Integer(2),
			"Height":  pdf.Integer(2),
			"Filter":  pdf.Name("CCITTFaxDecode"),
		},
	}
	if _, err := decodeImage(doc, stm); err == nil {
		t.Error("CCITT image decoded unexpectedly")
	}
}

func TestAdaptiveThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	// a dark blob in the middle
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			img.Pix[y*img.Stride+x] = 20
		}
	}

	out := adaptiveThreshold(img, 11, 2)
	if out.GrayAt(10, 10).Y != 0 {
		t.Error("blob center must binarize to black")
	}
	if out.GrayAt(1, 1).Y != 255 {
		t.Error("background must binarize to white")
	}
}

func TestOrientImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	img.SetGray(3, 0, color.Gray{Y: 255})

	// one clockwise quarter turn moves (3,0) to (1,3) in a 2x4 image
	rotated := toGray(orientImage(img, 1))
	if b := rotated.Bounds(); b.Dx() != 2 || b.Dy() != 4 {
		t.Fatalf("rotated size = %dx%d, want 2x4", b.Dx(), b.Dy())
	}
	if rotated.GrayAt(1, 3).Y != 255 {
		t.Error("pixel not rotated to (1,3)")
	}

	// mapping a word box back must undo the rotation
	wd := word{x: 1, y: 3, w: 1, h: 1}
	unrotateBox(&wd, 1, 4, 2)
	if wd.x != 3 || wd.y != 0 {
		t.Errorf("unrotated box at (%g,%g), want (3,0)", wd.x, wd.y)
	}
}

func TestTextLayer(t *testing.T) {
	words := []word{
		{text: "Hello", x: 100, y: 100, w: 200, h: 40},
	}
	data := textLayer(words, "FOCR", 1000, 1000, 500, 500)

	ops, err := content.Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	var haveInvisible, haveText bool
	for _, op := range ops {
		if op.Operator == "Tr" && len(op.Operands) == 1 && op.Operands[0] == pdf.Integer(3) {
			haveInvisible = true
		}
		if op.Operator == "Tj" && len(op.Operands) == 1 {
			if s, isStr := op.Operands[0].(pdf.String); isStr && string(s) == "Hello" {
				haveText = true
			}
		}
	}
	if !haveInvisible {
		t.Error("text layer is not invisible")
	}
	if !haveText {
		t.Error("recognized word missing from layer")
	}
}

func TestAppendPageContent(t *testing.T) {
	doc := scanDoc(testPage{contents: "/Im1 Do", hasImage: true})
	page := doc.Pages()[0]

	appendPageContent(doc, page, []byte("BT ET"))

	arr := doc.GetArray(page.Dict["Contents"])
	if len(arr) != 2 {
		t.Fatalf("got %d content streams, want 2", len(arr))
	}
	stm := doc.GetStream(arr[1])
	if stm == nil {
		t.Fatal("appended content is not a stream")
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "BT ET" {
		t.Errorf("appended content = %q", data)
	}
}

func TestFakeEngine(t *testing.T) {
	fake := &Fake{Pages: 3}
	doc := scanDoc()
	opts := &Options{Quality: QualityFast}

	n, err := fake.AddTextLayer(context.Background(), doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || fake.Calls != 1 {
		t.Errorf("n = %d, calls = %d", n, fake.Calls)
	}
	if fake.LastOptions != opts {
		t.Error("options not recorded")
	}
}
