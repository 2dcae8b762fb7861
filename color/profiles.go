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
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"seehuhn.de/go/icc"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

var (
	grayOnce    sync.Once
	grayProfile []byte
	rgbOnce     sync.Once
	rgbProfile  []byte
	cmykOnce    sync.Once
	cmykProfile []byte
)

// BuiltinProfile returns an ICC profile describing the given device
// color space.  The profiles are built on first use.
func BuiltinProfile(space pdf.Name) []byte {
	switch space {
	case "DeviceGray":
		grayOnce.Do(func() { grayProfile = makeGrayProfile() })
		return grayProfile
	case "DeviceRGB":
		rgbOnce.Do(func() { rgbProfile = makeRGBProfile() })
		return rgbProfile
	case "DeviceCMYK":
		cmykOnce.Do(func() { cmykProfile = makeCMYKProfile() })
		return cmykProfile
	}
	return nil
}

// Components returns the number of color components the profile
// describes.
func Components(profile []byte) (int, error) {
	p, err := icc.Decode(profile)
	if err != nil {
		return 0, err
	}
	n := p.ColorSpace.NumComponents()
	if n != 1 && n != 3 && n != 4 {
		return 0, fmt.Errorf("unsupported number of components %d", n)
	}
	return n, nil
}

// ValidateProfile checks that the profile data can be used as a
// DestOutputProfile in a PDF/A file.
func ValidateProfile(profile []byte) error {
	if len(profile) < 128 {
		return errors.New("ICC profile too short")
	}
	if string(profile[36:40]) != "acsp" {
		return errors.New("missing ICC profile signature")
	}
	size := binary.BigEndian.Uint32(profile[0:4])
	if int(size) != len(profile) {
		return fmt.Errorf("ICC profile size mismatch: header says %d, got %d",
			size, len(profile))
	}
	if v := profile[8]; v != 2 && v != 4 {
		return fmt.Errorf("unsupported ICC profile version %d", v)
	}
	switch class := string(profile[12:16]); class {
	case "mntr", "prtr", "scnr", "spac":
		// ok
	default:
		return fmt.Errorf("unsupported ICC device class %q", class)
	}
	_, err := icc.Decode(profile)
	return err
}

// The functions below assemble minimal version 2 ICC profiles.  The
// structures are described in ICC.1:2001-04.

type iccTag struct {
	sig  string
	data []byte
}

// d50 is the PCS illuminant, in s15Fixed16 encoding.
var d50 = [3]uint32{0x0000f6d6, 0x00010000, 0x0000d32d}

func buildProfile(class, space, pcs string, tags []iccTag) []byte {
	// layout: 128 byte header, tag table, tag data 4-byte aligned
	offset := 128 + 4 + 12*len(tags)
	offsets := make([]int, len(tags))
	for i, tag := range tags {
		offsets[i] = offset
		offset += (len(tag.data) + 3) &^ 3
	}

	buf := make([]byte, offset)
	binary.BigEndian.PutUint32(buf[0:], uint32(len(buf)))
	binary.BigEndian.PutUint32(buf[8:], 0x02400000) // version 2.4
	copy(buf[12:], class)
	copy(buf[16:], space)
	copy(buf[20:], pcs)
	copy(buf[36:], "acsp")
	for i, x := range d50 {
		binary.BigEndian.PutUint32(buf[68+4*i:], x)
	}

	binary.BigEndian.PutUint32(buf[128:], uint32(len(tags)))
	for i, tag := range tags {
		base := 132 + 12*i
		copy(buf[base:], tag.sig)
		binary.BigEndian.PutUint32(buf[base+4:], uint32(offsets[i]))
		binary.BigEndian.PutUint32(buf[base+8:], uint32(len(tag.data)))
		copy(buf[offsets[i]:], tag.data)
	}
	return buf
}

// descTag encodes a textDescriptionType element.
func descTag(s string) []byte {
	data := make([]byte, 12+len(s)+1+4+4+2+1+67)
	copy(data, "desc")
	binary.BigEndian.PutUint32(data[8:], uint32(len(s)+1))
	copy(data[12:], s)
	return data
}

// textTag encodes a textType element.
func textTag(s string) []byte {
	data := make([]byte, 8+len(s)+1)
	copy(data, "text")
	copy(data[8:], s)
	return data
}

// xyzTag encodes an XYZType element with a single XYZ number.
func xyzTag(xyz [3]uint32) []byte {
	data := make([]byte, 8+12)
	copy(data, "XYZ ")
	for i, x := range xyz {
		binary.BigEndian.PutUint32(data[8+4*i:], x)
	}
	return data
}

// curveTag encodes a curveType element holding a single gamma value in
// u8Fixed8 encoding.
func curveTag(gamma float64) []byte {
	data := make([]byte, 8+4+2)
	copy(data, "curv")
	binary.BigEndian.PutUint32(data[8:], 1)
	binary.BigEndian.PutUint16(data[12:], uint16(gamma*256+0.5))
	return data
}

// lut8Tag encodes a lut8Type element with identity shaper tables and an
// identity matrix.
func lut8Tag(in, out, grid int, clut []byte) []byte {
	data := make([]byte, 8+40+in*256+len(clut)+out*256)
	copy(data, "mft1")
	data[8] = byte(in)
	data[9] = byte(out)
	data[10] = byte(grid)
	for i := range 3 {
		binary.BigEndian.PutUint32(data[12+16*i:], 0x00010000)
	}
	pos := 48
	for range in {
		for i := range 256 {
			data[pos+i] = byte(i)
		}
		pos += 256
	}
	copy(data[pos:], clut)
	pos += len(clut)
	for range out {
		for i := range 256 {
			data[pos+i] = byte(i)
		}
		pos += 256
	}
	return data
}

// makeGrayProfile builds a D50 gray profile with a gamma 2.2 tone
// curve.
func makeGrayProfile() []byte {
	tags := []iccTag{
		{"desc", descTag("sGray")},
		{"wtpt", xyzTag(d50)},
		{"kTRC", curveTag(2.2)},
		{"cprt", textTag("public domain")},
	}
	return buildProfile("mntr", "GRAY", "XYZ ", tags)
}

// makeRGBProfile builds a matrix/TRC display profile approximating
// sRGB, with D50-adapted primaries and a gamma 2.2 tone curve.
func makeRGBProfile() []byte {
	tags := []iccTag{
		{"desc", descTag("sRGB (approximation)")},
		{"wtpt", xyzTag(d50)},
		{"rXYZ", xyzTag([3]uint32{0x00006fa2, 0x000038f5, 0x00000390})},
		{"gXYZ", xyzTag([3]uint32{0x00006299, 0x0000b785, 0x000018da})},
		{"bXYZ", xyzTag([3]uint32{0x000024a0, 0x00000f84, 0x0000b6cf})},
		{"rTRC", curveTag(2.2)},
		{"gTRC", curveTag(2.2)},
		{"bTRC", curveTag(2.2)},
		{"cprt", textTag("public domain")},
	}
	return buildProfile("mntr", "RGB ", "XYZ ", tags)
}

// makeCMYKProfile builds a printer profile with coarse lookup tables
// approximating coated offset output.
func makeCMYKProfile() []byte {
	// CMYK to Lab, sampled at the 16 corners of the unit cube
	a2b := make([]byte, 0, 16*3)
	for i := range 16 {
		c := float64(i >> 3 & 1)
		m := float64(i >> 2 & 1)
		y := float64(i >> 1 & 1)
		k := float64(i & 1)
		r := (1 - c) * (1 - k)
		g := (1 - m) * (1 - k)
		b := (1 - y) * (1 - k)
		a2b = append(a2b, labBytes(r, g, b)...)
	}

	// Lab to CMYK, sampled at the 8 corners
	b2a := make([]byte, 0, 8*4)
	for i := range 8 {
		ll := float64(i >> 2 & 1)
		la := float64(i >> 1 & 1)
		lb := float64(i & 1)
		r, g, b := rgbFromLab(ll, la, lb)
		k := min(1-r, 1-g, 1-b)
		var c, m, y float64
		if k < 1 {
			c = (1 - r - k) / (1 - k)
			m = (1 - g - k) / (1 - k)
			y = (1 - b - k) / (1 - k)
		}
		b2a = append(b2a,
			byte(c*255+0.5), byte(m*255+0.5), byte(y*255+0.5), byte(k*255+0.5))
	}

	tags := []iccTag{
		{"desc", descTag("Coated FOGRA39 (approximation)")},
		{"wtpt", xyzTag(d50)},
		{"A2B0", lut8Tag(4, 3, 2, a2b)},
		{"B2A0", lut8Tag(3, 4, 2, b2a)},
		{"cprt", textTag("public domain")},
	}
	return buildProfile("prtr", "CMYK", "Lab ", tags)
}

// labBytes converts linear RGB coordinates to 8-bit encoded Lab.
func labBytes(r, g, b float64) []byte {
	l := 0.2126*r + 0.7152*g + 0.0722*b
	a := 0.5 + (r-g)/4
	bb := 0.5 + (g-b)/4
	return []byte{byte(l*255 + 0.5), byte(a*255 + 0.5), byte(bb*255 + 0.5)}
}

// rgbFromLab inverts the crude encoding used by labBytes, with all
// inputs in the range [0, 1].
func rgbFromLab(l, a, b float64) (float64, float64, float64) {
	g := clamp01(l - 0.2126*(a-0.5)*4/3 + 0.0722*(b-0.5)*4/3)
	r := clamp01(g + (a-0.5)*4)
	bl := clamp01(g - (b-0.5)*4)
	return r, g, bl
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
