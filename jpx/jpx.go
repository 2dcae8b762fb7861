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

// Package jpx reads and repairs the JP2 container structure of JPEG 2000
// images.  ISO 19005-2 clause 6.1.4.3 requires exactly one colour
// specification box with method 1 (enumerated) or method 2 (restricted
// ICC), and clause 6.2.8.3 constrains channel counts and bit depths.
// Codestream pixel data is never decoded.
package jpx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// jp2Signature is the 12-byte JP2 signature box.
var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' ', 0x0D, 0x0A, 0x87, 0x0A}

// socMarker starts a bare JPEG 2000 codestream.
var socMarker = []byte{0xFF, 0x4F}

// Enumerated colour space values allowed by PDF/A.
const (
	EnumSRGB      = 16
	EnumGreyscale = 17
	EnumSYCC      = 18
)

var (
	ErrNotJP2  = errors.New("not a JP2 file")
	errNoJP2H  = errors.New("no jp2h box found")
	errNoIHDR  = errors.New("no ihdr box found")
	errBadSIZ  = errors.New("invalid codestream SIZ marker")
	errBadJPX  = errors.New("channel count or bit depth not repairable")
	ErrBareJPX = errors.New("bare codestream cannot be parsed")
)

// IsJP2 reports whether data starts with the JP2 signature box.
func IsJP2(data []byte) bool {
	return bytes.HasPrefix(data, jp2Signature)
}

// IsCodestream reports whether data is a bare JPEG 2000 codestream.
func IsCodestream(data []byte) bool {
	return bytes.HasPrefix(data, socMarker)
}

// box is one JP2 box within a byte range.
type box struct {
	Type         string
	ContentStart int
	ContentEnd   int
}

// walkBoxes splits data[start:end] into JP2 boxes.  Oversized or
// truncated boxes are clamped to the range.
func walkBoxes(data []byte, start, end int) []box {
	var boxes []box
	pos := start
	for pos < end {
		if pos+8 > end {
			break
		}
		lbox := binary.BigEndian.Uint32(data[pos:])
		tbox := string(data[pos+4 : pos+8])
		var contentStart, boxEnd int
		switch lbox {
		case 1:
			if pos+16 > end {
				return boxes
			}
			xl := binary.BigEndian.Uint64(data[pos+8:])
			contentStart = pos + 16
			boxEnd = pos + int(xl)
		case 0:
			contentStart = pos + 8
			boxEnd = end
		default:
			contentStart = pos + 8
			boxEnd = pos + int(lbox)
		}
		if boxEnd > end || boxEnd < contentStart {
			boxEnd = end
		}
		boxes = append(boxes, box{Type: tbox, ContentStart: contentStart, ContentEnd: boxEnd})
		pos = boxEnd
	}
	return boxes
}

// ColorSpec is one parsed colr box.
type ColorSpec struct {
	Method byte
	Prec   byte
	Approx byte

	// EnumCS is the enumerated colour space for method 1.
	EnumCS uint32

	// ICC holds the embedded profile for method 2.
	ICC []byte

	raw []byte
}

// IsValid reports whether the colour specification satisfies PDF/A:
// method 1 with an sRGB, greyscale or sYCC enumeration, or method 2
// with non-empty ICC data.
func (c *ColorSpec) IsValid() bool {
	switch c.Method {
	case 1:
		return c.EnumCS == EnumSRGB || c.EnumCS == EnumGreyscale || c.EnumCS == EnumSYCC
	case 2:
		return len(c.ICC) > 0
	}
	return false
}

func parseColr(content []byte) ColorSpec {
	spec := ColorSpec{raw: buildBox("colr", content)}
	if len(content) < 3 {
		return spec
	}
	spec.Method = content[0]
	spec.Prec = content[1]
	spec.Approx = content[2]
	switch spec.Method {
	case 1:
		if len(content) >= 7 {
			spec.EnumCS = binary.BigEndian.Uint32(content[3:])
		}
	case 2:
		spec.ICC = content[3:]
	}
	return spec
}

// ImageHeader is the parsed ihdr box.
type ImageHeader struct {
	Width         uint32
	Height        uint32
	NumComponents int
	BitsPerComp   int
}

func parseIHDR(content []byte) *ImageHeader {
	// Height(4) Width(4) NC(2) BPC(1) C(1) UnkC(1) IPR(1)
	if len(content) < 14 {
		return nil
	}
	h := &ImageHeader{
		Height:        binary.BigEndian.Uint32(content),
		Width:         binary.BigEndian.Uint32(content[4:]),
		NumComponents: int(binary.BigEndian.Uint16(content[8:])),
	}
	if bpc := content[10]; bpc == 0xFF {
		// per-component depths in a bpcc box
		h.BitsPerComp = 8
	} else {
		h.BitsPerComp = int(bpc) + 1
	}
	return h
}

// CodestreamInfo is the parsed SIZ marker of a codestream.
type CodestreamInfo struct {
	Width         uint32
	Height        uint32
	NumComponents int
	BitDepths     []int
}

// BitsPerComp returns the depth of the first component.
func (c *CodestreamInfo) BitsPerComp() int {
	if len(c.BitDepths) == 0 {
		return 0
	}
	return c.BitDepths[0]
}

// uniformDepth reports whether all component depths are equal and within
// the PDF/A range of 1 to 38 bits.
func (c *CodestreamInfo) uniformDepth() bool {
	if len(c.BitDepths) == 0 {
		return false
	}
	first := c.BitDepths[0]
	for _, d := range c.BitDepths {
		if d != first || !validBitDepth(d) {
			return false
		}
	}
	return true
}

// parseSIZ reads the SIZ marker segment directly after the SOC marker.
func parseSIZ(cs []byte) *CodestreamInfo {
	if len(cs) < 4 || !bytes.HasPrefix(cs, socMarker) {
		return nil
	}
	if cs[2] != 0xFF || cs[3] != 0x51 {
		return nil
	}
	if len(cs) < 4+38 {
		return nil
	}
	lsiz := int(binary.BigEndian.Uint16(cs[4:]))
	if lsiz < 38 || len(cs) < 4+lsiz {
		return nil
	}
	xsiz := binary.BigEndian.Uint32(cs[8:])
	ysiz := binary.BigEndian.Uint32(cs[12:])
	xosiz := binary.BigEndian.Uint32(cs[16:])
	yosiz := binary.BigEndian.Uint32(cs[20:])
	csiz := int(binary.BigEndian.Uint16(cs[40:]))

	info := &CodestreamInfo{
		Width:         xsiz - xosiz,
		Height:        ysiz - yosiz,
		NumComponents: csiz,
	}
	for i := range csiz {
		pos := 42 + i*3
		if pos+2 >= 4+lsiz {
			return nil
		}
		// Ssiz: bit 7 = signed, bits 0-6 = depth - 1
		info.BitDepths = append(info.BitDepths, int(cs[pos]&0x7F)+1)
	}
	if len(info.BitDepths) == 0 {
		return nil
	}
	return info
}

func validChannels(n int) bool {
	return n == 1 || n == 3 || n == 4
}

func validBitDepth(bpc int) bool {
	return bpc >= 1 && bpc <= 38
}

// Info is the analysis result for one JP2 file.
type Info struct {
	Header     *ImageHeader
	ColorSpecs []ColorSpec
	Codestream *CodestreamInfo

	// NumCodestreams counts top-level jp2c boxes.
	NumCodestreams int

	jp2hStart int
	jp2hEnd   int
	other     [][]byte
	bpcc      []byte
	bpccOK    bool
}

// Compliant reports whether the container already satisfies the PDF/A
// constraints on colr boxes, codestream count and channel structure.
func (info *Info) Compliant() bool {
	if info.NumCodestreams > 1 {
		return false
	}
	if len(info.ColorSpecs) != 1 || !info.ColorSpecs[0].IsValid() {
		return false
	}
	nc, bpc, err := info.target(0)
	if err != nil {
		return false
	}
	if info.Header.NumComponents != nc || info.Header.BitsPerComp != bpc {
		return false
	}
	if info.bpcc != nil && !info.bpccOK {
		return false
	}
	return true
}

// target derives the channel count and bit depth the header must carry,
// preferring the codestream SIZ marker over the ihdr box.  numComponents
// is an external hint (from the PDF colour space), 0 when unknown.
func (info *Info) target(numComponents int) (nc, bpc int, err error) {
	nc = info.Header.NumComponents
	bpc = info.Header.BitsPerComp
	if siz := info.Codestream; siz != nil {
		if !validChannels(siz.NumComponents) {
			return 0, 0, fmt.Errorf("%w: %d channels in codestream", errBadJPX, siz.NumComponents)
		}
		if !siz.uniformDepth() {
			return 0, 0, fmt.Errorf("%w: non-uniform codestream bit depths", errBadJPX)
		}
		nc = siz.NumComponents
		bpc = siz.BitsPerComp()
	} else if numComponents != 0 {
		nc = numComponents
	}
	if !validChannels(nc) {
		return 0, 0, fmt.Errorf("%w: %d channels", errBadJPX, nc)
	}
	if !validBitDepth(bpc) {
		bpc = 8
	}
	return nc, bpc, nil
}

// Analyze parses the box structure of a JP2 file.
func Analyze(data []byte) (*Info, error) {
	if !IsJP2(data) {
		return nil, ErrNotJP2
	}
	info := &Info{jp2hStart: -1}

	for _, b := range walkBoxes(data, 0, len(data)) {
		switch b.Type {
		case "jp2h":
			info.jp2hStart = b.ContentStart - 8
			info.jp2hEnd = b.ContentEnd

			for _, sub := range walkBoxes(data, b.ContentStart, b.ContentEnd) {
				raw := data[sub.ContentStart-8 : sub.ContentEnd]
				content := data[sub.ContentStart:sub.ContentEnd]
				switch sub.Type {
				case "ihdr":
					info.Header = parseIHDR(content)
				case "colr":
					info.ColorSpecs = append(info.ColorSpecs, parseColr(content))
				case "bpcc":
					info.bpcc = raw
				default:
					info.other = append(info.other, raw)
				}
			}
		case "jp2c":
			info.NumCodestreams++
			if info.Codestream == nil {
				info.Codestream = parseSIZ(data[b.ContentStart:b.ContentEnd])
			}
		}
	}

	if info.jp2hStart < 0 {
		return nil, errNoJP2H
	}
	if info.Header == nil {
		return nil, errNoIHDR
	}

	if info.bpcc != nil {
		_, bpc, err := info.target(0)
		if err == nil {
			info.bpccOK = true
			for _, b := range info.bpcc[8:] {
				if int(b&0x7F)+1 != bpc {
					info.bpccOK = false
					break
				}
			}
		}
	}

	return info, nil
}

// RepairOptions configures Repair and Wrap.
type RepairOptions struct {
	// NumComponents is the channel count implied by the PDF colour
	// space of the image, or 0 when unknown.
	NumComponents int

	// CMYKProfile is the ICC profile used to build a method-2 colr box
	// for four-channel images.
	CMYKProfile []byte
}

// Repair rewrites the JP2 header so that it carries exactly one valid
// colr box and an ihdr consistent with the codestream.  Extra top-level
// jp2c boxes are stripped.  The returned changed flag is false when the
// file was already compliant.
func Repair(data []byte, opt *RepairOptions) (fixed []byte, changed bool, err error) {
	if opt == nil {
		opt = &RepairOptions{}
	}

	info, err := Analyze(data)
	if err != nil {
		return nil, false, err
	}

	if info.NumCodestreams > 1 {
		data = stripExtraCodestreams(data)
		changed = true
		info, err = Analyze(data)
		if err != nil {
			return nil, false, err
		}
	}

	nc, bpc, err := info.target(opt.NumComponents)
	if err != nil {
		return nil, false, err
	}

	headerOK := info.Header.NumComponents == nc && info.Header.BitsPerComp == bpc &&
		validChannels(info.Header.NumComponents) && validBitDepth(info.Header.BitsPerComp)
	bpccOK := info.bpcc == nil || info.bpccOK
	if !changed && len(info.ColorSpecs) == 1 && info.ColorSpecs[0].IsValid() && headerOK && bpccOK {
		return data, false, nil
	}

	// keep the first valid colr box, or synthesize one
	var colrRaw []byte
	for i := range info.ColorSpecs {
		if info.ColorSpecs[i].IsValid() {
			colrRaw = info.ColorSpecs[i].raw
			break
		}
	}
	if colrRaw == nil {
		colrRaw = colrBoxFor(nc, opt.CMYKProfile)
	}

	// rebuild jp2h: ihdr first, other boxes, a consistent bpcc, one colr
	jp2h := buildIHDR(info.Header.Width, info.Header.Height, nc, bpc)
	for _, raw := range info.other {
		jp2h = append(jp2h, raw...)
	}
	if info.bpcc != nil && info.bpccOK {
		jp2h = append(jp2h, info.bpcc...)
	}
	jp2h = append(jp2h, colrRaw...)

	var out []byte
	out = append(out, data[:info.jp2hStart]...)
	out = append(out, buildBox("jp2h", jp2h)...)
	out = append(out, data[info.jp2hEnd:]...)
	return out, true, nil
}

// Wrap embeds a bare codestream in a minimal JP2 container with a
// signature box, file type box, header and a single colr box.
func Wrap(codestream []byte, opt *RepairOptions) ([]byte, error) {
	if opt == nil {
		opt = &RepairOptions{}
	}
	siz := parseSIZ(codestream)
	if siz == nil {
		return nil, ErrBareJPX
	}

	var out []byte
	out = append(out, jp2Signature...)
	out = append(out, []byte("\x00\x00\x00\x14ftypjp2 \x00\x00\x00\x00jp2 ")...)

	jp2h := buildIHDR(siz.Width, siz.Height, siz.NumComponents, siz.BitsPerComp())
	jp2h = append(jp2h, colrBoxFor(siz.NumComponents, opt.CMYKProfile)...)
	out = append(out, buildBox("jp2h", jp2h)...)

	out = append(out, buildBox("jp2c", codestream)...)
	return out, nil
}

// stripExtraCodestreams removes all top-level jp2c boxes after the first.
func stripExtraCodestreams(data []byte) []byte {
	var out []byte
	seen := false
	pos := 0
	for _, b := range walkBoxes(data, 0, len(data)) {
		start := pos
		pos = b.ContentEnd
		if b.Type == "jp2c" {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, data[start:b.ContentEnd]...)
	}
	out = append(out, data[pos:]...)
	return out
}

func buildBox(boxType string, content []byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(8+len(content)))
	out = append(out, boxType...)
	return append(out, content...)
}

func buildIHDR(width, height uint32, nc, bpc int) []byte {
	var content []byte
	content = binary.BigEndian.AppendUint32(content, height)
	content = binary.BigEndian.AppendUint32(content, width)
	content = binary.BigEndian.AppendUint16(content, uint16(nc))
	content = append(content,
		byte(bpc-1), // stored as depth - 1
		7,           // C: JP2 compression
		0,           // UnkC: colour space known
		0,           // IPR: no intellectual property box
	)
	return buildBox("ihdr", content)
}

// colrBoxFor builds a colr box matching the channel count: enumerated
// greyscale or sRGB, or a method-2 ICC box for CMYK.
func colrBoxFor(nc int, cmykProfile []byte) []byte {
	switch nc {
	case 1:
		return colrEnum(EnumGreyscale)
	case 4:
		if len(cmykProfile) > 0 {
			content := append([]byte{2, 0, 0}, cmykProfile...)
			return buildBox("colr", content)
		}
	}
	return colrEnum(EnumSRGB)
}

func colrEnum(enumCS uint32) []byte {
	content := []byte{1, 0, 0}
	content = binary.BigEndian.AppendUint32(content, enumCS)
	return buildBox("colr", content)
}
