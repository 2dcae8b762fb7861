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

// Package content parses and serializes PDF content streams as sequences
// of operators with operands.  Parsing is tolerant: operand type errors are
// reported through the operations themselves, never by aborting the scan.
package content

import (
	"bytes"
	"errors"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Operator is a content stream operator name, e.g. "Tj" or "re".
type Operator string

// Operation is one content stream operator together with its operands.
type Operation struct {
	Operands []pdf.Object
	Operator Operator

	// Inline holds the binary data of an inline image for the "BI"
	// operator; Operands then holds the image dictionary.
	Inline []byte
}

// knownOperators lists the operators defined by PDF 32000-1:2008,
// Annex A.  Operators outside this set are forbidden in PDF/A files.
var knownOperators = map[Operator]bool{
	"b": true, "B": true, "b*": true, "B*": true, "BDC": true, "BI": true,
	"BMC": true, "BT": true, "BX": true, "c": true, "cm": true, "CS": true,
	"cs": true, "d": true, "d0": true, "d1": true, "Do": true, "DP": true,
	"EI": true, "EMC": true, "ET": true, "EX": true, "f": true, "F": true,
	"f*": true, "G": true, "g": true, "gs": true, "h": true, "i": true,
	"ID": true, "j": true, "J": true, "K": true, "k": true, "l": true,
	"m": true, "M": true, "MP": true, "n": true, "q": true, "Q": true,
	"re": true, "RG": true, "rg": true, "ri": true, "s": true, "S": true,
	"SC": true, "sc": true, "SCN": true, "scn": true, "sh": true,
	"T*": true, "Tc": true, "Td": true, "TD": true, "Tf": true, "Tj": true,
	"TJ": true, "TL": true, "Tm": true, "Tr": true, "Ts": true, "Tw": true,
	"Tz": true, "v": true, "w": true, "W": true, "W*": true, "y": true,
	"'": true, "\"": true,
}

// IsKnownOperator reports whether op is defined by the PDF standard.
func IsKnownOperator(op Operator) bool {
	return knownOperators[op]
}

// IsTextShowing reports whether op paints glyphs.
func IsTextShowing(op Operator) bool {
	switch op {
	case "Tj", "TJ", "'", "\"":
		return true
	}
	return false
}

// Parse splits a decoded content stream into operations.
func Parse(data []byte) ([]Operation, error) {
	s := newScanner(data)
	var ops []Operation
	var operands []pdf.Object
	for {
		obj, op, err := s.next()
		if err != nil {
			if errors.Is(err, errEndOfStream) {
				return ops, nil
			}
			return ops, err
		}
		if op == "" {
			operands = append(operands, obj)
			continue
		}
		operation := Operation{Operands: operands, Operator: op}
		if op == "BI" {
			dict, inline, err := s.readInlineImage()
			if err != nil {
				return ops, err
			}
			operation.Operands = []pdf.Object{dict}
			operation.Inline = inline
		}
		ops = append(ops, operation)
		operands = nil
	}
}

// Serialize converts a sequence of operations back to content stream
// bytes.
func Serialize(ops []Operation) []byte {
	buf := &bytes.Buffer{}
	for i, op := range ops {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if op.Operator == "BI" {
			writeInlineImage(buf, op)
			continue
		}
		for _, operand := range op.Operands {
			writeOperand(buf, operand)
			buf.WriteByte(' ')
		}
		buf.WriteString(string(op.Operator))
	}
	return buf.Bytes()
}

func writeOperand(buf *bytes.Buffer, obj pdf.Object) {
	if obj == nil {
		buf.WriteString("null")
		return
	}
	_ = obj.PDF(buf)
}

func writeInlineImage(buf *bytes.Buffer, op Operation) {
	buf.WriteString("BI")
	if len(op.Operands) == 1 {
		if dict, ok := op.Operands[0].(pdf.Dict); ok {
			for key, val := range dict {
				buf.WriteByte('\n')
				_ = key.PDF(buf)
				buf.WriteByte(' ')
				writeOperand(buf, val)
			}
		}
	}
	buf.WriteString("\nID\n")
	buf.Write(op.Inline)
	buf.WriteString("\nEI")
}
