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
	"errors"
	"strconv"
)

// scanner reads PDF tokens from an in-memory buffer.  The getInt callback is
// used to resolve indirect /Length values while the cross-reference table is
// being read.
type scanner struct {
	buf    []byte
	pos    int
	getInt func(Object) (Integer, error)
}

func newScanner(buf []byte, getInt func(Object) (Integer, error)) *scanner {
	return &scanner{buf: buf, getInt: getInt}
}

func (s *scanner) errMalformed(msg string) error {
	return &MalformedFileError{Pos: int64(s.pos), Err: errors.New(msg)}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.buf)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.buf[s.pos]
}

// SkipWhiteSpace advances the position past white space and comments.
func (s *scanner) SkipWhiteSpace() {
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

// SkipString advances past pat, or fails if the input does not continue
// with pat.
func (s *scanner) SkipString(pat string) error {
	if !bytes.HasPrefix(s.buf[s.pos:], []byte(pat)) {
		return s.errMalformed("expected " + strconv.Quote(pat))
	}
	s.pos += len(pat)
	return nil
}

func isRegularChar(c byte) bool {
	return !isSpace[c] && !isDelimiter[c]
}

// ReadObject reads the next object from the buffer.  Indirect references
// ("n g R") are returned as [Reference] values.
func (s *scanner) ReadObject() (Object, error) {
	s.SkipWhiteSpace()
	if s.eof() {
		return nil, s.errMalformed("unexpected end of file")
	}

	switch c := s.peek(); {
	case c == '/':
		return s.ReadName()
	case c == '(':
		s.pos++
		return s.ReadQuotedString()
	case c == '[':
		s.pos++
		return s.ReadArray()
	case c == '<':
		if bytes.HasPrefix(s.buf[s.pos:], []byte("<<")) {
			s.pos += 2
			dict, err := s.ReadDict()
			if err != nil {
				return nil, err
			}
			return s.maybeReadStream(dict)
		}
		s.pos++
		return s.ReadHexString()
	case c >= '0' && c <= '9', c == '+', c == '-', c == '.':
		return s.readNumberOrReference()
	default:
		start := s.pos
		for !s.eof() && isRegularChar(s.buf[s.pos]) {
			s.pos++
		}
		switch string(s.buf[start:s.pos]) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return nil, nil
		}
		s.pos = start
		return nil, s.errMalformed("unexpected character " + strconv.Quote(string(c)))
	}
}

// readNumberOrReference reads an Integer, a Real, or an indirect reference
// of the form "n g R".
func (s *scanner) readNumberOrReference() (Object, error) {
	first, err := s.ReadNumber()
	if err != nil {
		return nil, err
	}
	num, ok := first.(Integer)
	if !ok || num < 0 {
		return first, nil
	}

	// Look ahead for "gen R".
	save := s.pos
	s.SkipWhiteSpace()
	start := s.pos
	for !s.eof() && s.buf[s.pos] >= '0' && s.buf[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start {
		s.pos = save
		return first, nil
	}
	gen, err := strconv.ParseUint(string(s.buf[start:s.pos]), 10, 16)
	if err != nil {
		s.pos = save
		return first, nil
	}
	s.SkipWhiteSpace()
	if !s.eof() && s.peek() == 'R' &&
		(s.pos+1 >= len(s.buf) || !isRegularChar(s.buf[s.pos+1])) {
		s.pos++
		return NewReference(uint32(num), uint16(gen)), nil
	}
	s.pos = save
	return first, nil
}

// ReadNumber reads an Integer or Real.
func (s *scanner) ReadNumber() (Object, error) {
	s.SkipWhiteSpace()
	start := s.pos
	isReal := false
	if !s.eof() && (s.peek() == '+' || s.peek() == '-') {
		s.pos++
	}
	for !s.eof() {
		c := s.peek()
		if c >= '0' && c <= '9' {
			s.pos++
		} else if c == '.' {
			isReal = true
			s.pos++
		} else {
			break
		}
	}
	if s.pos == start {
		return nil, s.errMalformed("expected number")
	}
	tok := string(s.buf[start:s.pos])
	if isReal {
		x, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			// tokens like "." or "-." occur in damaged files
			return Real(0), nil
		}
		return Real(x), nil
	}
	x, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		x2, err2 := strconv.ParseFloat(tok, 64)
		if err2 != nil {
			return nil, s.errMalformed("malformed number " + strconv.Quote(tok))
		}
		return Real(x2), nil
	}
	return Integer(x), nil
}

// ReadInteger reads an integer token.
func (s *scanner) ReadInteger() (Integer, error) {
	obj, err := s.ReadNumber()
	if err != nil {
		return 0, err
	}
	x, ok := obj.(Integer)
	if !ok {
		return 0, s.errMalformed("expected integer")
	}
	return x, nil
}

// ReadName reads a name object, starting at the leading slash.
func (s *scanner) ReadName() (Name, error) {
	if err := s.SkipString("/"); err != nil {
		return "", err
	}
	var res []byte
	for !s.eof() && isRegularChar(s.peek()) {
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
	return Name(res), nil
}

// ReadQuotedString reads a literal string.  The opening parenthesis must
// already be consumed.
func (s *scanner) ReadQuotedString() (String, error) {
	var res []byte
	level := 1
	for {
		if s.eof() {
			return nil, s.errMalformed("unterminated string")
		}
		c := s.buf[s.pos]
		s.pos++
		switch c {
		case '(':
			level++
			res = append(res, c)
		case ')':
			level--
			if level == 0 {
				return String(res), nil
			}
			res = append(res, c)
		case '\\':
			if s.eof() {
				return nil, s.errMalformed("unterminated string")
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
				if !s.eof() && s.peek() == '\n' {
					s.pos++
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				x := int(c - '0')
				for range 2 {
					if s.eof() || s.peek() < '0' || s.peek() > '7' {
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
}

// ReadHexString reads a hexadecimal string.  The opening angle bracket must
// already be consumed.
func (s *scanner) ReadHexString() (String, error) {
	var res []byte
	var hi = -1
	for {
		if s.eof() {
			return nil, s.errMalformed("unterminated hex string")
		}
		c := s.buf[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		if isSpace[c] {
			continue
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
		// odd number of digits, final digit 0 is implied
		res = append(res, byte(hi<<4))
	}
	return String(res), nil
}

// ReadArray reads an array.  The opening bracket must already be consumed.
func (s *scanner) ReadArray() (Array, error) {
	var res Array
	for {
		s.SkipWhiteSpace()
		if s.eof() {
			return nil, s.errMalformed("unterminated array")
		}
		if s.peek() == ']' {
			s.pos++
			return res, nil
		}
		obj, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		res = append(res, obj)
	}
}

// ReadDict reads a dictionary.  The opening "<<" must already be consumed.
func (s *scanner) ReadDict() (Dict, error) {
	res := Dict{}
	for {
		s.SkipWhiteSpace()
		if s.eof() {
			return nil, s.errMalformed("unterminated dictionary")
		}
		if bytes.HasPrefix(s.buf[s.pos:], []byte(">>")) {
			s.pos += 2
			return res, nil
		}
		key, err := s.ReadName()
		if err != nil {
			return nil, err
		}
		val, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		if val != nil {
			res[key] = val
		}
	}
}

// maybeReadStream checks whether dict is followed by stream data and, if so,
// returns a *Stream.  Otherwise the dictionary is returned unchanged.
func (s *scanner) maybeReadStream(dict Dict) (Object, error) {
	save := s.pos
	s.SkipWhiteSpace()
	if !bytes.HasPrefix(s.buf[s.pos:], []byte("stream")) {
		s.pos = save
		return dict, nil
	}
	s.pos += len("stream")
	if s.peek() == '\r' {
		s.pos++
	}
	if s.peek() == '\n' {
		s.pos++
	}

	start := s.pos
	var length = -1
	if s.getInt != nil {
		if l, err := s.getInt(dict["Length"]); err == nil {
			length = int(l)
		}
	} else if l, ok := dict["Length"].(Integer); ok {
		length = int(l)
	}

	if length >= 0 && start+length <= len(s.buf) {
		tail := s.buf[start+length:]
		k := 0
		for k < 2 && k < len(tail) && (tail[k] == '\r' || tail[k] == '\n') {
			k++
		}
		if bytes.HasPrefix(tail[k:], []byte("endstream")) {
			s.pos = start + length + k + len("endstream")
			return &Stream{Dict: dict, Raw: s.buf[start : start+length]}, nil
		}
	}

	// The /Length value is wrong or missing; scan for the endstream keyword.
	idx := bytes.Index(s.buf[start:], []byte("endstream"))
	if idx < 0 {
		return nil, s.errMalformed("unterminated stream")
	}
	end := start + idx
	for end > start && (s.buf[end-1] == '\n' || s.buf[end-1] == '\r') {
		end--
	}
	s.pos = start + idx + len("endstream")
	dict["Length"] = Integer(end - start)
	return &Stream{Dict: dict, Raw: s.buf[start:end]}, nil
}

// ReadIndirectObject reads an object definition of the form
// "n g obj ... endobj" starting at the current position.
func (s *scanner) ReadIndirectObject() (Object, Reference, error) {
	s.SkipWhiteSpace()
	number, err := s.ReadInteger()
	if err != nil {
		return nil, 0, err
	}
	s.SkipWhiteSpace()
	generation, err := s.ReadInteger()
	if err != nil {
		return nil, 0, err
	}
	s.SkipWhiteSpace()
	if err := s.SkipString("obj"); err != nil {
		return nil, 0, err
	}
	obj, err := s.ReadObject()
	if err != nil {
		return nil, 0, err
	}
	s.SkipWhiteSpace()
	// A missing endobj keyword is tolerated; damaged files frequently
	// omit it.
	if bytes.HasPrefix(s.buf[s.pos:], []byte("endobj")) {
		s.pos += len("endobj")
	}
	if number < 0 || number > 0xFFFFFFFF {
		return nil, 0, s.errMalformed("object number out of range")
	}
	return obj, NewReference(uint32(number), uint16(generation)), nil
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
