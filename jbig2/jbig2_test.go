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

package jbig2

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeSegment builds one embedded-format segment header followed by
// dataLen zero bytes of segment data.
func makeSegment(number uint32, segType int, page byte, dataLen uint32) []byte {
	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, number)
	buf = append(buf, byte(segType)&0x3F)
	buf = append(buf, 0) // no referred-to segments
	buf = append(buf, page)
	buf = binary.BigEndian.AppendUint32(buf, dataLen)
	buf = append(buf, make([]byte, dataLen)...)
	return buf
}

func TestScanSegments(t *testing.T) {
	var data []byte
	data = append(data, makeSegment(0, TypeSymbolDict, 1, 4)...)
	data = append(data, makeSegment(1, TypeImmediateGenericRegion, 1, 2)...)
	data = append(data, makeSegment(2, TypeEndOfPage, 1, 0)...)

	segs, err := ScanSegments(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []SegmentHeader{
		{Number: 0, Type: TypeSymbolDict, Page: 1, DataLength: 4, DataOffset: 11},
		{Number: 1, Type: TypeImmediateGenericRegion, Page: 1, DataLength: 2, DataOffset: 26},
		{Number: 2, Type: TypeEndOfPage, Page: 1, DataLength: 0, DataOffset: 39},
	}
	if d := cmp.Diff(want, segs); d != "" {
		t.Errorf("segments differ (-want +got):\n%s", d)
	}
}

func TestHasRefinement(t *testing.T) {
	cases := []struct {
		name  string
		types []int
		want  bool
	}{
		{"generic only", []int{TypeSymbolDict, TypeImmediateGenericRegion}, false},
		{"intermediate refinement", []int{TypeIntermediateRefinement}, true},
		{"immediate refinement", []int{TypePageInfo, TypeImmediateRefinement}, true},
		{"lossless refinement", []int{TypeImmediateLosslessRefinement}, true},
		{"empty", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var data []byte
			for i, tp := range c.types {
				data = append(data, makeSegment(uint32(i), tp, 1, 0)...)
			}
			if got := HasRefinement(data); got != c.want {
				t.Errorf("got %t, want %t", got, c.want)
			}
		})
	}
}

func TestScanTruncated(t *testing.T) {
	full := makeSegment(0, TypeImmediateGenericRegion, 1, 8)
	for cut := 0; cut < len(full); cut++ {
		_, err := ScanSegments(full[:cut])
		if err != nil {
			t.Errorf("cut at %d: unexpected error %v", cut, err)
		}
	}
}

func TestScanEndOfFileStops(t *testing.T) {
	var data []byte
	data = append(data, makeSegment(0, TypeEndOfFile, 1, 0)...)
	data = append(data, 0xFF, 0xFF, 0xFF) // trailing garbage
	segs, err := ScanSegments(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Type != TypeEndOfFile {
		t.Errorf("got %v", segs)
	}
}
