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
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// decodeImage converts an image XObject into an image.Image.  Only the
// sample formats common in scanned documents are supported: DCTDecode
// streams and Flate or raw streams with 1-bit or 8-bit gray or 8-bit
// RGB samples.
func decodeImage(doc *pdf.Document, stm *pdf.Stream) (image.Image, error) {
	if hasFilter(doc, stm, "DCTDecode") || hasFilter(doc, stm, "DCT") {
		return jpeg.Decode(bytes.NewReader(stm.Raw))
	}
	for _, name := range []pdf.Name{"JPXDecode", "JBIG2Decode", "CCITTFaxDecode", "CCF"} {
		if hasFilter(doc, stm, name) {
			return nil, fmt.Errorf("unsupported image encoding %s", name)
		}
	}

	data, err := doc.DecodeStream(stm)
	if err != nil {
		return nil, err
	}
	width, _ := doc.GetInteger(stm.Dict["Width"])
	height, _ := doc.GetInteger(stm.Dict["Height"])
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	w, h := int(width), int(height)
	bpc, _ := doc.GetInteger(stm.Dict["BitsPerComponent"])
	components := imageComponents(doc, stm.Dict["ColorSpace"])

	switch {
	case bpc == 1 && components == 1:
		return unpackBilevel(data, w, h)
	case bpc == 8 && components == 1:
		if len(data) < w*h {
			return nil, fmt.Errorf("truncated image data")
		}
		img := &image.Gray{Pix: data[:w*h], Stride: w, Rect: image.Rect(0, 0, w, h)}
		return img, nil
	case bpc == 8 && components == 3:
		if len(data) < 3*w*h {
			return nil, fmt.Errorf("truncated image data")
		}
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			img.Pix[4*i+0] = data[3*i+0]
			img.Pix[4*i+1] = data[3*i+1]
			img.Pix[4*i+2] = data[3*i+2]
			img.Pix[4*i+3] = 0xff
		}
		return img, nil
	}
	return nil, fmt.Errorf("unsupported sample format (%d bpc, %d components)", bpc, components)
}

func hasFilter(doc *pdf.Document, stm *pdf.Stream, name pdf.Name) bool {
	switch f := doc.Resolve(stm.Dict["Filter"]).(type) {
	case pdf.Name:
		return f == name
	case pdf.Array:
		for _, elem := range f {
			if doc.GetName(elem) == name {
				return true
			}
		}
	}
	return false
}

func imageComponents(doc *pdf.Document, space pdf.Object) int {
	switch x := doc.Resolve(space).(type) {
	case pdf.Name:
		switch x {
		case "DeviceGray", "CalGray", "G":
			return 1
		case "DeviceRGB", "CalRGB", "RGB":
			return 3
		case "DeviceCMYK", "CMYK":
			return 4
		}
	case pdf.Array:
		if len(x) > 0 {
			switch doc.GetName(x[0]) {
			case "CalGray", "Indexed", "I":
				return 1
			case "CalRGB", "Lab":
				return 3
			case "ICCBased":
				if len(x) > 1 {
					if stm := doc.GetStream(x[1]); stm != nil {
						if n, ok := doc.GetInteger(stm.Dict["N"]); ok {
							return int(n)
						}
					}
				}
			}
		}
	}
	return 0
}

// unpackBilevel expands 1-bit samples to an 8-bit grayscale image.
// Rows are padded to byte boundaries.
func unpackBilevel(data []byte, w, h int) (*image.Gray, error) {
	stride := (w + 7) / 8
	if len(data) < stride*h {
		return nil, fmt.Errorf("truncated image data")
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := data[y*stride:]
		for x := 0; x < w; x++ {
			if row[x/8]&(0x80>>(x%8)) == 0 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img, nil
}

// toGray converts any image to 8-bit grayscale.
func toGray(img image.Image) *image.Gray {
	if g, isGray := img.(*image.Gray); isGray {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// denoise applies a 3x3 median filter.
func denoise(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	var window [9]byte
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || xx >= w || yy < 0 || yy >= h {
						continue
					}
					window[n] = img.GrayAt(xx, yy).Y
					n++
				}
			}
			out.SetGray(x, y, color.Gray{Y: median(window[:n])})
		}
	}
	return out
}

func median(vals []byte) byte {
	// insertion sort, at most 9 elements
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && vals[j-1] > vals[j]; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
	return vals[len(vals)/2]
}

// adaptiveThreshold binarizes the image against a local mean computed
// over a blockSize window, using an integral image for the window sums.
func adaptiveThreshold(img *image.Gray, blockSize int, c float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := blockSize / 2
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-half), max(0, y-half)
			x1, y1 := min(w, x+half+1), min(h, y+half+1)
			area := uint64((x1 - x0) * (y1 - y0))
			sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] -
				integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			mean := float64(sum) / float64(area)
			if float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > mean-c {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// scaleImage resizes the image by the given factor using Catmull-Rom
// interpolation.
func scaleImage(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w < 1 || h < 1 {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// estimateSkew searches for the rotation angle which maximizes the
// variance of the horizontal projection profile.  Text lines produce a
// strongly peaked profile when the image is upright.
func estimateSkew(img *image.Gray) float64 {
	// a coarse copy keeps the search cheap
	work := img
	if b := img.Bounds(); b.Dx() > 800 {
		work = toGray(scaleImage(img, 800/float64(b.Dx())))
	}

	best, bestScore := 0.0, -1.0
	for angle := -5.0; angle <= 5.0; angle += 0.5 {
		score := profileVariance(work, angle)
		if score > bestScore {
			best, bestScore = angle, score
		}
	}
	return best
}

func profileVariance(img *image.Gray, degrees float64) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	sums := make([]float64, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x += 2 {
			// project the pixel onto the rotated row
			yy := int(math.Round(float64(y)*cos - float64(x)*sin))
			if yy < 0 || yy >= h {
				continue
			}
			if img.GrayAt(b.Min.X+x, b.Min.Y+y).Y < 128 {
				sums[yy]++
			}
		}
	}

	var mean float64
	for _, s := range sums {
		mean += s
	}
	mean /= float64(len(sums))
	var variance float64
	for _, s := range sums {
		d := s - mean
		variance += d * d
	}
	return variance / float64(len(sums))
}

// rotateImage rotates the image by the given angle around its center,
// filling uncovered areas with white.
func rotateImage(img *image.Gray, degrees float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx, cy := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// inverse mapping into the source image
			dx, dy := float64(x)-cx, float64(y)-cy
			sx := int(math.Round(cx + dx*cos + dy*sin))
			sy := int(math.Round(cy - dx*sin + dy*cos))
			if sx < 0 || sx >= w || sy < 0 || sy >= h {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, img.GrayAt(b.Min.X+sx, b.Min.Y+sy))
			}
		}
	}
	return out
}

// orientImage rotates the image by a multiple of 90 degrees clockwise.
func orientImage(img image.Image, quarterTurns int) image.Image {
	quarterTurns = ((quarterTurns % 4) + 4) % 4
	if quarterTurns == 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var out *image.Gray
	if quarterTurns == 2 {
		out = image.NewGray(image.Rect(0, 0, w, h))
	} else {
		out = image.NewGray(image.Rect(0, 0, h, w))
	}
	src := toGray(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := src.GrayAt(b.Min.X+x, b.Min.Y+y)
			switch quarterTurns {
			case 1:
				out.SetGray(h-1-y, x, g)
			case 2:
				out.SetGray(w-1-x, h-1-y, g)
			case 3:
				out.SetGray(y, w-1-x, g)
			}
		}
	}
	return out
}
