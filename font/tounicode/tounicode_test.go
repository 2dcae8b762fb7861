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

package tounicode

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewMergesRanges(t *testing.T) {
	m := map[uint32][]rune{
		0x41: {'A'},
		0x42: {'B'},
		0x43: {'C'},
		0x60: {'f', 'i'},
	}
	info := New(m, false)
	wantRanges := []Range{{First: 0x41, Last: 0x43, Values: [][]rune{{'A'}}}}
	if d := cmp.Diff(wantRanges, info.Ranges); d != "" {
		t.Errorf("ranges differ (-want +got):\n%s", d)
	}
	wantSingles := []Single{{Code: 0x60, Value: []rune{'f', 'i'}}}
	if d := cmp.Diff(wantSingles, info.Singles); d != "" {
		t.Errorf("singles differ (-want +got):\n%s", d)
	}
}

func TestRangesStayInBlock(t *testing.T) {
	m := map[uint32][]rune{
		0x00FE: {rune(0x10FE)},
		0x00FF: {rune(0x10FF)},
		0x0100: {rune(0x1100)},
		0x0101: {rune(0x1101)},
	}
	info := New(m, true)
	for _, r := range info.Ranges {
		if r.First>>8 != r.Last>>8 {
			t.Errorf("range %04x-%04x crosses a block boundary", r.First, r.Last)
		}
	}
	if d := cmp.Diff(m, info.All()); d != "" {
		t.Errorf("mapping differs (-want +got):\n%s", d)
	}
}

func TestRoundTrip(t *testing.T) {
	m := map[uint32][]rune{
		0x0001: {'H'},
		0x0002: {'e'},
		0x0003: {'l'},
		0x0004: {'m'},
		0x0010: {0x20AC},
		0x0020: {'f', 'f', 'l'},
		0x0100: {0x1F600}, // outside the BMP
	}
	info := New(m, true)

	buf := &bytes.Buffer{}
	if err := info.Write(buf); err != nil {
		t.Fatal(err)
	}

	got, err := Read(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !got.TwoByte {
		t.Error("code space not recognized as two-byte")
	}
	if d := cmp.Diff(m, got.All()); d != "" {
		t.Errorf("mapping differs (-want +got):\n%s", d)
	}
}

func TestReadBFRangeList(t *testing.T) {
	cmap := `/CIDInit /ProcSet findresource begin
begincmap
1 begincodespacerange
<00> <FF>
endcodespacerange
1 beginbfrange
<20> <22> [<0041> <0042> <00430044>]
endbfrange
endcmap
end`
	info, err := Read([]byte(cmap))
	if err != nil {
		t.Fatal(err)
	}
	want := map[uint32][]rune{
		0x20: {'A'},
		0x21: {'B'},
		0x22: {'C', 'D'},
	}
	if d := cmp.Diff(want, info.All()); d != "" {
		t.Errorf("mapping differs (-want +got):\n%s", d)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not a cmap at all", "BT (text) Tj ET"} {
		if _, err := Read([]byte(in)); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestLookup(t *testing.T) {
	info := &Info{
		TwoByte: true,
		Singles: []Single{{Code: 5, Value: []rune{'x'}}},
		Ranges:  []Range{{First: 0x10, Last: 0x12, Values: [][]rune{{'a'}}}},
	}
	cases := []struct {
		code uint32
		want string
		ok   bool
	}{
		{5, "x", true},
		{0x10, "a", true},
		{0x12, "c", true},
		{0x13, "", false},
		{6, "", false},
	}
	for _, c := range cases {
		got, ok := info.Lookup(c.code)
		if ok != c.ok || string(got) != c.want {
			t.Errorf("Lookup(%#x) = %q, %t; want %q, %t", c.code, string(got), ok, c.want, c.ok)
		}
	}
}

func TestIsForbidden(t *testing.T) {
	cases := []struct {
		value []rune
		want  bool
	}{
		{nil, true},
		{[]rune{0x0000}, true},
		{[]rune{0xFEFF}, true},
		{[]rune{0xFFFE}, true},
		{[]rune{0xD800}, true},
		{[]rune{0xDFFF}, true},
		{[]rune{'A'}, false},
		{[]rune{'A', 0xFEFF}, true},
		{[]rune{0x20AC}, false},
		{[]rune{0xE000}, false}, // private use is allowed
	}
	for _, c := range cases {
		if got := IsForbidden(c.value); got != c.want {
			t.Errorf("IsForbidden(%v) = %t, want %t", c.value, got, c.want)
		}
	}
}
