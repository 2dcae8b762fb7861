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
	"errors"
	"strconv"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

var errEndOfStream = errors.New("end of content stream")

var isSpace = [256]bool{
	0x00: true,
	0x09: true,
	0x0A: true,
	0x0C: true,
	0x0D: true,
	0x20: true,
}

var isDelimiter = [256]bool{
	'(': true, ')': true, '<': true, '>': true,
	'[': true, ']': true, '{': true, '}': true,
	'/': true, '%': true,
}

// A scanner breaks a decoded content stream into tokens.
type scanner struct {
	buf []byte
	pos int
}

func newScanner(buf []byte) *scanner {
	return &scanner{buf: buf}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.buf)
}

func (s *scanner) skipWhiteSpace() {
	for !s.eof() {
		c := s.buf[s.pos]
		if isSpace[c] {
			s.pos++
		} else if c == '%' {
			for !s.eof() && s.buf[s.pos] != '\n' && s.buf[s.pos] != '\r' {
				s.pos++
			}
		} else {
			return
		}
	}
}

// next returns either an operand (op == "") or an operator name.
func (s *scanner) next() (pdf.Object, Operator, error) {
	s.skipWhiteSpace()
	if s.eof() {
		return nil, "", errEndOfStream
	}

	c := s.buf[s.pos]
	switch {
	case c == '/':
		return s.readName(), "", nil
	case c == '(':
		s.pos++
		return s.readString(), "", nil
	case c == '<':
		if s.pos+1 < len(s.buf) && s.buf[s.pos+1] == '<' {
			s.pos += 2
			return s.readDict()
		}
		s.pos++
		return s.readHexString(), "", nil
	case c == '[':
		s.pos++
		return s.readArray()
	case c == ')' || c == '>' || c == ']' || c == '{' || c == '}':
		// stray delimiter in a damaged stream
		s.pos++
		return s.next()
	case c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.':
		return s.readNumber(), "", nil
	default:
		start := s.pos
		for !s.eof() && !isSpace[s.buf[s.pos]] && !isDelimiter[s.buf[s.pos]] {
			s.pos++
		}
		switch tok := string(s.buf[start:s.pos]); tok {
		case "true":
			return pdf.Bool(true), "", nil
		case "false":
			return pdf.Bool(false), "", nil
		case "null":
			return nil, "", nil
		default:
			return nil, Operator(tok), nil
		}
	}
}

func (s *scanner) readNumber() pdf.Object {
	start := s.pos
	isReal := false
	if s.buf[s.pos] == '+' || s.buf[s.pos] == '-' {
		s.pos++
	}
	for !s.eof() {
		c := s.buf[s.pos]
		if c >= '0' && c <= '9' {
			s.pos++
		} else if c == '.' {
			isReal = true
			s.pos++
		} else {
			break
		}
	}
	tok := string(s.buf[start:s.pos])
	if isReal {
		x, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return pdf.Real(0)
		}
		return pdf.Real(x)
	}
	x, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return pdf.Integer(0)
	}
	return pdf.Integer(x)
}

func (s *scanner) readName() pdf.Name {
	s.pos++ // the slash
	var res []byte
	for !s.eof() && !isSpace[s.buf[s.pos]] && !isDelimiter[s.buf[s.pos]] {
		c := s.buf[s.pos]
		s.pos++
		if c == '#' && s.pos+1 < len(s.buf) {
			hi := unhex(s.buf[s.pos])
			lo := unhex(s.buf[s.pos+1])
			if hi >= 0 && lo >= 0 {
				res = append(res, byte(hi<<4|lo))
				s.pos += 2
				continue
			}
		}
		res = append(res, c)
	}
	return pdf.Name(res)
}

func (s *scanner) readString() pdf.String {
	var res []byte
	level := 1
	for !s.eof() {
		c := s.buf[s.pos]
		s.pos++
		switch c {
		case '(':
			level++
			res = append(res, c)
		case ')':
			level--
			if level == 0 {
				return pdf.String(res)
			}
			res = append(res, c)
		case '\\':
			if s.eof() {
				return pdf.String(res)
			}
			c = s.buf[s.pos]
			s.pos++
			switch c {
			case 'n':
				res = append(res, '\n')
			case 'r':
				res = append(res, '\r')
			case 't':
				res = append(res, '\t')
			case 'b':
				res = append(res, '\b')
			case 'f':
				res = append(res, '\f')
			case '\n':
				// line continuation
			case '\r':
				if !s.eof() && s.buf[s.pos] == '\n' {
					s.pos++
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				x := int(c - '0')
				for range 2 {
					if s.eof() || s.buf[s.pos] < '0' || s.buf[s.pos] > '7' {
						break
					}
					x = x*8 + int(s.buf[s.pos]-'0')
					s.pos++
				}
				res = append(res, byte(x))
			default:
				res = append(res, c)
			}
		default:
			res = append(res, c)
		}
	}
	return pdf.String(res)
}

func (s *scanner) readHexString() pdf.String {
	var res []byte
	hi := -1
	for !s.eof() {
		c := s.buf[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		x := unhex(c)
		if x < 0 {
			continue
		}
		if hi < 0 {
			hi = x
		} else {
			res = append(res, byte(hi<<4|x))
			hi = -1
		}
	}
	if hi >= 0 {
		res = append(res, byte(hi<<4))
	}
	return pdf.String(res)
}

func (s *scanner) readArray() (pdf.Object, Operator, error) {
	var res pdf.Array
	for {
		s.skipWhiteSpace()
		if s.eof() {
			return res, "", nil
		}
		if s.buf[s.pos] == ']' {
			s.pos++
			return res, "", nil
		}
		obj, op, err := s.next()
		if err != nil {
			return res, "", nil
		}
		if op != "" {
			// an operator inside an array means the stream is damaged
			continue
		}
		res = append(res, obj)
	}
}

func (s *scanner) readDict() (pdf.Object, Operator, error) {
	res := pdf.Dict{}
	for {
		s.skipWhiteSpace()
		if s.eof() {
			return res, "", nil
		}
		if s.pos+1 < len(s.buf) && s.buf[s.pos] == '>' && s.buf[s.pos+1] == '>' {
			s.pos += 2
			return res, "", nil
		}
		if s.buf[s.pos] != '/' {
			s.pos++
			continue
		}
		key := s.readName()
		val, op, err := s.next()
		if err != nil {
			return res, "", nil
		}
		if op == "" && val != nil {
			res[key] = val
		}
	}
}

// readInlineImage reads the image dictionary and binary data following a
// BI operator.  The scanner must be positioned directly after the "BI"
// token.
func (s *scanner) readInlineImage() (pdf.Dict, []byte, error) {
	dict := pdf.Dict{}
	for {
		s.skipWhiteSpace()
		if s.eof() {
			return dict, nil, nil
		}
		if s.buf[s.pos] == '/' {
			key := s.readName()
			val, op, err := s.next()
			if err != nil {
				return dict, nil, nil
			}
			if op == "" && val != nil {
				dict[key] = val
			}
			continue
		}
		if s.pos+1 < len(s.buf) && s.buf[s.pos] == 'I' && s.buf[s.pos+1] == 'D' {
			s.pos += 2
			break
		}
		s.pos++
	}

	// a single whitespace byte separates ID from the image data
	if !s.eof() && isSpace[s.buf[s.pos]] {
		s.pos++
	}
	start := s.pos
	for s.pos+1 < len(s.buf) {
		if s.buf[s.pos] == 'E' && s.buf[s.pos+1] == 'I' &&
			(s.pos == start || isSpace[s.buf[s.pos-1]]) &&
			(s.pos+2 >= len(s.buf) || isSpace[s.buf[s.pos+2]] || isDelimiter[s.buf[s.pos+2]]) {
			data := s.buf[start:s.pos]
			for len(data) > 0 && isSpace[data[len(data)-1]] {
				data = data[:len(data)-1]
			}
			s.pos += 2
			return dict, data, nil
		}
		s.pos++
	}
	s.pos = len(s.buf)
	return dict, s.buf[start:], nil
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	}
	return -1
}
