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

package pdf

import (
	"bytes"
	"testing"
)

func TestFlateRoundTrip(t *testing.T) {
	want := []byte("BT /F1 12 Tf (Hello, world) Tj ET")
	stm := NewFlateStream(want, nil)
	got, err := stm.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilterChain(t *testing.T) {
	inner := FlateData([]byte("chained"))
	hex := make([]byte, 0, 2*len(inner))
	const digits = "0123456789abcdef"
	for _, b := range inner {
		hex = append(hex, digits[b>>4], digits[b&0xf])
	}
	hex = append(hex, '>')

	stm := &Stream{
		Dict: Dict{
			"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")},
		},
		Raw: hex,
	}
	got, err := stm.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "chained" {
		t.Errorf("got %q, want %q", got, "chained")
	}
}

func TestRunLengthDecode(t *testing.T) {
	// literal "ab", then 'c' repeated 3 times, then EOD
	raw := []byte{1, 'a', 'b', 254, 'c', 128}
	stm := &Stream{
		Dict: Dict{"Filter": Name("RunLengthDecode")},
		Raw:  raw,
	}
	got, err := stm.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abccc" {
		t.Errorf("got %q, want %q", got, "abccc")
	}
}

func TestASCII85Decode(t *testing.T) {
	stm := &Stream{
		Dict: Dict{"Filter": Name("ASCII85Decode")},
		Raw:  []byte("87cURD_*#TDfTZ)~>"),
	}
	got, err := stm.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello, world" {
		t.Errorf("got %q", got)
	}
}

func TestImageFilterStopsDecoding(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff} // JPEG magic, not valid Flate input
	stm := &Stream{
		Dict: Dict{"Filter": Name("DCTDecode")},
		Raw:  raw,
	}
	got, err := stm.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("image data modified by Decode")
	}
}

func TestPNGPredictor(t *testing.T) {
	// two rows of four bytes, "up" predictor (type 2)
	encoded := []byte{
		0, 1, 2, 3, 4, // row 0, no filtering
		2, 1, 1, 1, 1, // row 1, delta against row 0
	}
	stm := &Stream{
		Dict: Dict{
			"Filter": Name("FlateDecode"),
			"DecodeParms": Dict{
				"Predictor": Integer(12),
				"Columns":   Integer(4),
			},
		},
		Raw: FlateData(encoded),
	}
	got, err := stm.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 2, 3, 4, 5}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFiltersIndirect(t *testing.T) {
	doc := NewDocument(V1_7)
	nameRef := doc.Alloc()
	doc.Put(nameRef, Name("FlateDecode"))

	stm := &Stream{
		Dict: Dict{"Filter": nameRef},
		Raw:  FlateData([]byte("indirect")),
	}
	got, err := doc.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "indirect" {
		t.Errorf("got %q", got)
	}
}

func TestUnsupportedFilter(t *testing.T) {
	stm := &Stream{
		Dict: Dict{"Filter": Name("NoSuchFilter")},
		Raw:  []byte("data"),
	}
	if _, err := stm.Decode(nil); err == nil {
		t.Error("unknown filter accepted")
	}
}
