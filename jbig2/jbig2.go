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

// Package jbig2 scans JBIG2 segment headers in the embedded stream format
// used by PDF (no file header).  Only headers are parsed; segment data is
// never decoded.
package jbig2

import "encoding/binary"

// Segment types from ISO/IEC 14492, table 34.
const (
	TypeSymbolDict                  = 0
	TypeIntermediateTextRegion      = 4
	TypeImmediateTextRegion         = 6
	TypeImmediateLosslessTextRegion = 7
	TypePatternDict                 = 16
	TypeIntermediateHalftoneRegion  = 20
	TypeImmediateHalftoneRegion     = 22
	TypeIntermediateGenericRegion   = 36
	TypeImmediateGenericRegion      = 38
	TypeImmediateLosslessGeneric    = 39
	TypeIntermediateRefinement      = 40
	TypeImmediateRefinement         = 42
	TypeImmediateLosslessRefinement = 43
	TypePageInfo                    = 48
	TypeEndOfPage                   = 49
	TypeEndOfStripe                 = 50
	TypeEndOfFile                   = 51
	TypeProfiles                    = 52
	TypeTables                      = 53
	TypeExtension                   = 62
)

// SegmentHeader describes one JBIG2 segment without its data.
type SegmentHeader struct {
	Number     uint32
	Type       int
	Referred   []uint32
	Page       uint32
	DataLength uint32

	// DataOffset is the offset of the segment data within the scanned
	// buffer.
	DataOffset int
}

// IsRefinement reports whether the segment uses generic refinement
// coding, which ISO 19005-2 section 6.1.4.2 forbids.
func (h *SegmentHeader) IsRefinement() bool {
	switch h.Type {
	case TypeIntermediateRefinement, TypeImmediateRefinement, TypeImmediateLosslessRefinement:
		return true
	}
	return false
}

// ScanSegments parses the segment headers of a JBIG2 bitstream in the
// embedded (PDF) format.  Parsing is tolerant: a truncated or unparseable
// trailing header ends the scan without error, so that damaged streams
// can still be classified by the headers that could be read.
func ScanSegments(data []byte) ([]SegmentHeader, error) {
	var segs []SegmentHeader
	pos := 0

	for pos < len(data) {
		// segment number (4) + flags (1) + referred-to count byte (1)
		if pos+6 > len(data) {
			break
		}

		var h SegmentHeader
		h.Number = binary.BigEndian.Uint32(data[pos:])
		pos += 4

		flags := data[pos]
		pos++
		h.Type = int(flags & 0x3F)
		pageAssocLarge := flags&0x40 != 0

		if h.Type == TypeEndOfFile {
			segs = append(segs, h)
			break
		}

		// referred-to segment count and retention flags
		countIndicator := (data[pos] >> 5) & 7
		var refCount int
		switch {
		case countIndicator <= 4:
			refCount = int(countIndicator)
			pos++
		case countIndicator == 7:
			pos++
			if pos+4 > len(data) {
				return segs, nil
			}
			refCount = int(binary.BigEndian.Uint32(data[pos:]) & 0x1FFFFFFF)
			pos += 4
			pos += (refCount + 7) / 8
		default:
			// reserved indicator values 5 and 6
			return segs, nil
		}

		// referred-to segment numbers, sized by the current segment number
		var refSize int
		switch {
		case h.Number <= 256:
			refSize = 1
		case h.Number <= 65536:
			refSize = 2
		default:
			refSize = 4
		}
		if pos+refCount*refSize > len(data) {
			segs = append(segs, h)
			break
		}
		for range refCount {
			switch refSize {
			case 1:
				h.Referred = append(h.Referred, uint32(data[pos]))
			case 2:
				h.Referred = append(h.Referred, uint32(binary.BigEndian.Uint16(data[pos:])))
			default:
				h.Referred = append(h.Referred, binary.BigEndian.Uint32(data[pos:]))
			}
			pos += refSize
		}

		// page association
		if pageAssocLarge {
			if pos+4 > len(data) {
				segs = append(segs, h)
				break
			}
			h.Page = binary.BigEndian.Uint32(data[pos:])
			pos += 4
		} else {
			if pos >= len(data) {
				segs = append(segs, h)
				break
			}
			h.Page = uint32(data[pos])
			pos++
		}

		// segment data length
		if pos+4 > len(data) {
			segs = append(segs, h)
			break
		}
		h.DataLength = binary.BigEndian.Uint32(data[pos:])
		pos += 4
		h.DataOffset = pos

		segs = append(segs, h)

		if h.DataLength == 0xFFFFFFFF {
			// unknown length, cannot skip past the data
			break
		}
		pos += int(h.DataLength)
	}

	return segs, nil
}

// HasRefinement reports whether the bitstream contains any refinement
// coding segment.
func HasRefinement(data []byte) bool {
	segs, _ := ScanSegments(data)
	for i := range segs {
		if segs[i].IsRefinement() {
			return true
		}
	}
	return false
}
