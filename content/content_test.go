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

package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Operation
	}{
		{
			name: "text",
			in:   "BT /F1 12 Tf (Hello) Tj ET",
			want: []Operation{
				{Operator: "BT"},
				{Operands: []pdf.Object{pdf.Name("F1"), pdf.Integer(12)}, Operator: "Tf"},
				{Operands: []pdf.Object{pdf.String("Hello")}, Operator: "Tj"},
				{Operator: "ET"},
			},
		},
		{
			name: "graphics",
			in:   "q 1 0 0 1 72 720 cm Q",
			want: []Operation{
				{Operator: "q"},
				{
					Operands: []pdf.Object{
						pdf.Integer(1), pdf.Integer(0), pdf.Integer(0),
						pdf.Integer(1), pdf.Integer(72), pdf.Integer(720),
					},
					Operator: "cm",
				},
				{Operator: "Q"},
			},
		},
		{
			name: "array operand",
			in:   "[(A) -120 (B)] TJ",
			want: []Operation{
				{
					Operands: []pdf.Object{pdf.Array{
						pdf.String("A"), pdf.Integer(-120), pdf.String("B"),
					}},
					Operator: "TJ",
				},
			},
		},
		{
			name: "reals and negatives",
			in:   "0.5 -0.25 1. m",
			want: []Operation{
				{
					Operands: []pdf.Object{pdf.Real(0.5), pdf.Real(-0.25), pdf.Real(1)},
					Operator: "m",
				},
			},
		},
		{
			name: "marked content dict",
			in:   "/Span <</ActualText (x)>> BDC EMC",
			want: []Operation{
				{
					Operands: []pdf.Object{
						pdf.Name("Span"),
						pdf.Dict{"ActualText": pdf.String("x")},
					},
					Operator: "BDC",
				},
				{Operator: "EMC"},
			},
		},
		{
			name: "hex string",
			in:   "<48656C6C6F> Tj",
			want: []Operation{
				{Operands: []pdf.Object{pdf.String("Hello")}, Operator: "Tj"},
			},
		},
		{
			name: "comment",
			in:   "% nothing here\nq Q",
			want: []Operation{
				{Operator: "q"},
				{Operator: "Q"},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Parse([]byte(c.in))
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(c.want, got); d != "" {
				t.Errorf("operations differ (-want +got):\n%s", d)
			}
		})
	}
}

func TestParseInlineImage(t *testing.T) {
	in := "q BI /W 2 /H 2 /BPC 8 /CS /G ID \x01\x02\x03\x04 EI Q"
	ops, err := Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 3 {
		t.Fatalf("got %d operations, want 3", len(ops))
	}
	img := ops[1]
	if img.Operator != "BI" {
		t.Fatalf("got operator %q, want BI", img.Operator)
	}
	wantDict := pdf.Dict{
		"W":   pdf.Integer(2),
		"H":   pdf.Integer(2),
		"BPC": pdf.Integer(8),
		"CS":  pdf.Name("G"),
	}
	if d := cmp.Diff(wantDict, img.Operands[0]); d != "" {
		t.Errorf("image dict differs (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]byte{1, 2, 3, 4}, img.Inline); d != "" {
		t.Errorf("image data differs (-want +got):\n%s", d)
	}
}

func TestRoundTrip(t *testing.T) {
	in := "q\n0.5 0 0 0.5 10 20 cm\nBT\n/F0 9 Tf\n(abc) Tj\nET\nQ"
	ops, err := Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	out := Serialize(ops)
	ops2, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(ops, ops2); d != "" {
		t.Errorf("round trip differs (-want +got):\n%s", d)
	}
}

func TestIsKnownOperator(t *testing.T) {
	for _, op := range []Operator{"Tj", "q", "W*", "'", "\""} {
		if !IsKnownOperator(op) {
			t.Errorf("%q not recognized", op)
		}
	}
	for _, op := range []Operator{"PS", "frob", ""} {
		if IsKnownOperator(op) {
			t.Errorf("%q wrongly recognized", op)
		}
	}
}
