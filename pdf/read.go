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
	"io"
	"os"
	"regexp"
	"strconv"
)

type xrefEntry struct {
	// Kind is 0 for free entries, 1 for objects stored at a byte offset,
	// and 2 for objects stored inside an object stream.
	Kind       int
	Offset     int64
	Generation uint16
	InStream   uint32
	StreamIdx  int
}

// ReadFile reads a complete PDF document from a file.
func ReadFile(fname string) (*Document, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return ReadBytes(data)
}

// Read reads a complete PDF document into memory.
func Read(r io.ReadSeeker) (*Document, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ReadBytes(data)
}

// ReadBytes parses a PDF document from a byte slice.  Encrypted documents
// are rejected with [ErrEncrypted]; parse failures are reported as
// *[MalformedFileError].
func ReadBytes(data []byte) (*Document, error) {
	version, err := readHeaderVersion(data)
	if err != nil {
		return nil, err
	}

	xref, trailer, err := readXRefChain(data)
	if err != nil {
		xref, trailer, err = reconstructXRef(data)
		if err != nil {
			return nil, err
		}
	}

	if trailer["Encrypt"] != nil {
		return nil, ErrEncrypted
	}

	doc := NewDocument(version)
	for key, val := range trailer {
		switch key {
		case "Size", "Prev", "XRefStm", "W", "Index", "Filter",
			"DecodeParms", "Length", "Type":
			// cross-reference bookkeeping, not part of the document
		case "ID":
			if arr, ok := val.(Array); ok && len(arr) == 2 {
				a, okA := arr[0].(String)
				b, okB := arr[1].(String)
				if okA && okB {
					doc.ID = [][]byte{a, b}
				}
			}
		default:
			doc.Trailer[key] = val
		}
	}

	// getInt resolves indirect /Length values straight from the file, so
	// that streams can be read before the object table is complete.
	var getInt func(obj Object) (Integer, error)
	getInt = func(obj Object) (Integer, error) {
		if x, ok := obj.(Integer); ok {
			return x, nil
		}
		ref, ok := obj.(Reference)
		if !ok {
			return 0, errors.New("not an integer")
		}
		entry, ok := xref[ref.Number()]
		if !ok || entry.Kind != 1 {
			return 0, errors.New("cannot resolve stream length")
		}
		s := newScanner(data, nil)
		s.pos = int(entry.Offset)
		obj, _, err := s.ReadIndirectObject()
		if err != nil {
			return 0, err
		}
		if x, ok := obj.(Integer); ok {
			return x, nil
		}
		return 0, errors.New("stream length is not an integer")
	}

	// first pass: all objects stored directly in the file
	objStreams := map[Reference]bool{}
	for number, entry := range xref {
		if entry.Kind == 2 {
			objStreams[NewReference(entry.InStream, 0)] = true
		}
		if entry.Kind != 1 || int(entry.Offset) >= len(data) {
			continue
		}
		s := newScanner(data, getInt)
		s.pos = int(entry.Offset)
		obj, ref, err := s.ReadIndirectObject()
		if err != nil || ref.Number() != number {
			continue
		}
		if obj != nil {
			doc.Put(ref, obj)
		}
	}

	// second pass: objects stored inside object streams
	for stmRef := range objStreams {
		stm, ok := doc.objects[stmRef].(*Stream)
		if !ok {
			continue
		}
		err := readObjectStream(doc, stm, xref)
		if err != nil {
			return nil, err
		}
		// object streams do not survive loading; the writer
		// re-serializes every object individually
		doc.Delete(stmRef)
	}

	if doc.Trailer["Root"] == nil {
		return nil, &MalformedFileError{Err: errors.New("missing document catalog")}
	}

	return doc, nil
}

func readHeaderVersion(data []byte) (Version, error) {
	idx := bytes.Index(head(data, 1024), []byte("%PDF-"))
	if idx < 0 {
		return 0, &MalformedFileError{Err: errors.New("PDF header not found")}
	}
	verStart := idx + 5
	if verStart+3 > len(data) {
		return 0, &MalformedFileError{Err: errors.New("truncated PDF header")}
	}
	ver, err := ParseVersion(string(data[verStart : verStart+3]))
	if err != nil {
		return 0, &MalformedFileError{Err: err}
	}
	return ver, nil
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

// readXRefChain locates the startxref pointer and follows the chain of
// cross-reference sections.  Earlier sections in the chain take precedence
// over later ones (incremental updates come first).
func readXRefChain(data []byte) (map[uint32]*xrefEntry, Dict, error) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return nil, nil, &MalformedFileError{Err: errors.New("startxref not found")}
	}
	s := newScanner(data, nil)
	s.pos = idx + len("startxref")
	start, err := s.ReadInteger()
	if err != nil {
		return nil, nil, err
	}

	xref := map[uint32]*xrefEntry{}
	trailer := Dict{}
	seen := map[int64]bool{}
	todo := []int64{int64(start)}
	for len(todo) > 0 {
		pos := todo[0]
		todo = todo[1:]
		if pos < 0 || pos >= int64(len(data)) || seen[pos] {
			continue
		}
		seen[pos] = true

		s := newScanner(data, nil)
		s.pos = int(pos)
		s.SkipWhiteSpace()

		var sectTrailer Dict
		if bytes.HasPrefix(data[s.pos:], []byte("xref")) {
			sectTrailer, err = readXRefTable(xref, s)
		} else {
			sectTrailer, err = readXRefStream(xref, s)
		}
		if err != nil {
			return nil, nil, err
		}
		for key, val := range sectTrailer {
			if _, present := trailer[key]; !present {
				trailer[key] = val
			}
		}
		if prev, ok := sectTrailer["Prev"].(Integer); ok {
			todo = append(todo, int64(prev))
		}
		if stm, ok := sectTrailer["XRefStm"].(Integer); ok {
			todo = append(todo, int64(stm))
		}
	}
	return xref, trailer, nil
}

func readXRefTable(xref map[uint32]*xrefEntry, s *scanner) (Dict, error) {
	if err := s.SkipString("xref"); err != nil {
		return nil, err
	}
	for {
		s.SkipWhiteSpace()
		if bytes.HasPrefix(s.buf[s.pos:], []byte("trailer")) {
			s.pos += len("trailer")
			s.SkipWhiteSpace()
			if err := s.SkipString("<<"); err != nil {
				return nil, err
			}
			return s.ReadDict()
		}
		start, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		count, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		for i := range int(count) {
			s.SkipWhiteSpace()
			offset, err := s.ReadInteger()
			if err != nil {
				return nil, err
			}
			s.SkipWhiteSpace()
			gen, err := s.ReadInteger()
			if err != nil {
				return nil, err
			}
			s.SkipWhiteSpace()
			if s.eof() {
				return nil, s.errMalformed("truncated xref table")
			}
			kind := s.buf[s.pos]
			s.pos++

			number := uint32(int(start) + i)
			if _, present := xref[number]; present {
				continue
			}
			switch kind {
			case 'n':
				xref[number] = &xrefEntry{
					Kind:       1,
					Offset:     int64(offset),
					Generation: uint16(gen),
				}
			case 'f':
				xref[number] = &xrefEntry{Kind: 0}
			default:
				return nil, s.errMalformed("malformed xref entry")
			}
		}
	}
}

func readXRefStream(xref map[uint32]*xrefEntry, s *scanner) (Dict, error) {
	obj, _, err := s.ReadIndirectObject()
	if err != nil {
		return nil, err
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, s.errMalformed("xref stream expected")
	}
	dict := stm.Dict

	wArr, ok := dict["W"].(Array)
	if !ok || len(wArr) < 3 {
		return nil, s.errMalformed("malformed /W entry in xref stream")
	}
	var w [3]int
	for i := range 3 {
		x, ok := wArr[i].(Integer)
		if !ok || x < 0 || x > 8 {
			return nil, s.errMalformed("malformed /W entry in xref stream")
		}
		w[i] = int(x)
	}

	size, _ := dict["Size"].(Integer)
	var index []Integer
	if arr, ok := dict["Index"].(Array); ok {
		for _, x := range arr {
			xi, ok := x.(Integer)
			if !ok {
				return nil, s.errMalformed("malformed /Index entry in xref stream")
			}
			index = append(index, xi)
		}
	} else {
		index = []Integer{0, size}
	}

	data, err := stm.Decode(nil)
	if err != nil {
		return nil, &MalformedFileError{Err: err}
	}

	entrySize := w[0] + w[1] + w[2]
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start := uint32(index[i])
		count := int(index[i+1])
		for j := range count {
			if pos+entrySize > len(data) {
				return dict, nil
			}
			f1 := int64(1)
			if w[0] > 0 {
				f1 = decodeInt(data[pos : pos+w[0]])
			}
			f2 := decodeInt(data[pos+w[0] : pos+w[0]+w[1]])
			f3 := decodeInt(data[pos+w[0]+w[1] : pos+entrySize])
			pos += entrySize

			number := start + uint32(j)
			if _, present := xref[number]; present {
				continue
			}
			switch f1 {
			case 0:
				xref[number] = &xrefEntry{Kind: 0}
			case 1:
				xref[number] = &xrefEntry{
					Kind:       1,
					Offset:     f2,
					Generation: uint16(f3),
				}
			case 2:
				xref[number] = &xrefEntry{
					Kind:      2,
					InStream:  uint32(f2),
					StreamIdx: int(f3),
				}
			}
		}
	}
	return dict, nil
}

func decodeInt(buf []byte) (res int64) {
	for _, b := range buf {
		res = res<<8 | int64(b)
	}
	return res
}

func readObjectStream(doc *Document, stm *Stream, xref map[uint32]*xrefEntry) error {
	n, okN := stm.Dict["N"].(Integer)
	first, okF := stm.Dict["First"].(Integer)
	if !okN || !okF {
		return &MalformedFileError{Err: errors.New("malformed object stream")}
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		return &MalformedFileError{Err: err}
	}

	s := newScanner(data, nil)
	type stmObj struct {
		number uint32
		offset int
	}
	objs := make([]stmObj, 0, n)
	for range int(n) {
		number, err := s.ReadInteger()
		if err != nil {
			return err
		}
		offset, err := s.ReadInteger()
		if err != nil {
			return err
		}
		objs = append(objs, stmObj{uint32(number), int(first) + int(offset)})
	}

	for _, o := range objs {
		entry, ok := xref[o.number]
		if !ok || entry.Kind != 2 {
			continue // superseded by a later incremental update
		}
		if o.offset >= len(data) {
			continue
		}
		s := newScanner(data, nil)
		s.pos = o.offset
		obj, err := s.ReadObject()
		if err != nil {
			return err
		}
		if obj != nil {
			doc.Put(NewReference(o.number, 0), obj)
		}
	}
	return nil
}

var objStartPat = regexp.MustCompile(`(?m)^[ \t]*(\d{1,10})[ \t]+(\d{1,5})[ \t]+obj\b`)

// reconstructXRef scans the whole file for object definitions.  This is the
// last resort for files whose cross-reference data cannot be read.
func reconstructXRef(data []byte) (map[uint32]*xrefEntry, Dict, error) {
	xref := map[uint32]*xrefEntry{}
	locs := objStartPat.FindAllSubmatchIndex(data, -1)
	for _, loc := range locs {
		number, err1 := strconv.ParseUint(string(data[loc[2]:loc[3]]), 10, 32)
		gen, err2 := strconv.ParseUint(string(data[loc[4]:loc[5]]), 10, 16)
		if err1 != nil || err2 != nil {
			continue
		}
		// later definitions win during reconstruction
		xref[uint32(number)] = &xrefEntry{
			Kind:       1,
			Offset:     int64(loc[0]),
			Generation: uint16(gen),
		}
	}
	if len(xref) == 0 {
		return nil, nil, &MalformedFileError{Err: errors.New("no objects found")}
	}

	// recover the trailer dictionary
	trailer := Dict{}
	idx := bytes.LastIndex(data, []byte("trailer"))
	if idx >= 0 {
		s := newScanner(data, nil)
		s.pos = idx + len("trailer")
		s.SkipWhiteSpace()
		if err := s.SkipString("<<"); err == nil {
			if dict, err := s.ReadDict(); err == nil {
				trailer = dict
			}
		}
	}
	if trailer["Root"] == nil {
		// look for a catalog object
		for number, entry := range xref {
			s := newScanner(data, nil)
			s.pos = int(entry.Offset)
			obj, ref, err := s.ReadIndirectObject()
			if err != nil {
				continue
			}
			dict, ok := obj.(Dict)
			if ok && dict["Type"] == Name("Catalog") && ref.Number() == number {
				trailer["Root"] = ref
				break
			}
		}
	}
	if trailer["Root"] == nil {
		return nil, nil, &MalformedFileError{Err: errors.New("document catalog not found")}
	}
	return xref, trailer, nil
}
