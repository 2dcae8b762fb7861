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
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/exp/maps"
)

// WriteOptions controls serialization of a document.
type WriteOptions struct {
	// Version overrides the version stored in the document.
	Version Version

	// ID overrides the two-element file identifier.  When nil, a
	// deterministic identifier is computed from the document contents.
	ID [][]byte
}

// binaryComment marks the file as binary data; PDF/A requires a comment
// with at least four bytes above 127 directly after the header line.
var binaryComment = []byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'}

// Write serializes the document.  Objects are renumbered compactly;
// callers must not assume object numbers are stable across a save.
func (d *Document) Write(w io.Writer, opt *WriteOptions) error {
	version := d.Version
	if opt != nil && opt.Version != 0 {
		version = opt.Version
	}
	verString, err := version.ToString()
	if err != nil {
		return &SaveError{Err: err}
	}

	// renumber objects compactly, ordered by old object number
	oldRefs := maps.Keys(d.objects)
	sort.Slice(oldRefs, func(i, j int) bool { return oldRefs[i] < oldRefs[j] })
	renum := make(map[Reference]Reference, len(oldRefs))
	for i, old := range oldRefs {
		renum[old] = NewReference(uint32(i+1), 0)
	}

	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%%PDF-%s\n", verString)
	buf.Write(binaryComment)

	offsets := make([]int64, len(oldRefs)+1)
	for i, old := range oldRefs {
		offsets[i+1] = int64(buf.Len())
		fmt.Fprintf(buf, "%d 0 obj\n", i+1)
		err := writeObject(buf, translateRefs(d.objects[old], renum))
		if err != nil {
			return &SaveError{Err: err}
		}
		buf.WriteString("\nendobj\n")
	}

	trailer := Dict{"Size": Integer(len(oldRefs) + 1)}
	for key, val := range d.Trailer {
		trailer[key] = translateRefs(val, renum)
	}

	var id [][]byte
	if opt != nil && opt.ID != nil {
		id = opt.ID
	} else {
		// The identifier is a function of the document content, so that
		// identical documents serialize to identical files.
		h := md5.New()
		h.Write(buf.Bytes())
		sum := h.Sum(nil)
		id = [][]byte{sum, sum}
	}
	trailer["ID"] = Array{String(id[0]), String(id[1])}

	xrefPos := int64(buf.Len())
	fmt.Fprintf(buf, "xref\n0 %d\n", len(oldRefs)+1)
	fmt.Fprintf(buf, "%010d %05d f \n", 0, 65535)
	for i := range oldRefs {
		fmt.Fprintf(buf, "%010d %05d n \n", offsets[i+1], 0)
	}
	buf.WriteString("trailer\n")
	err = trailer.PDF(buf)
	if err != nil {
		return &SaveError{Err: err}
	}
	fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF\n", xrefPos)

	_, err = w.Write(buf.Bytes())
	if err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// WriteFile serializes the document to a file.  On error no partial file is
// left behind.
func (d *Document) WriteFile(fname string, opt *WriteOptions) error {
	buf := &bytes.Buffer{}
	if err := d.Write(buf, opt); err != nil {
		return err
	}
	err := os.WriteFile(fname, buf.Bytes(), 0o644)
	if err != nil {
		_ = os.Remove(fname)
		return &SaveError{Err: err}
	}
	return nil
}

// translateRefs returns obj with every contained Reference replaced
// according to the renumbering map.  Containers are copied, the original
// document is left unchanged.
func translateRefs(obj Object, renum map[Reference]Reference) Object {
	switch x := obj.(type) {
	case Reference:
		if newRef, ok := renum[x]; ok {
			return newRef
		}
		return nil // dangling reference becomes null
	case Array:
		res := make(Array, len(x))
		for i, elem := range x {
			res[i] = translateRefs(elem, renum)
		}
		return res
	case Dict:
		res := make(Dict, len(x))
		for key, val := range x {
			res[key] = translateRefs(val, renum)
		}
		return res
	case *Stream:
		dict, _ := translateRefs(x.Dict, renum).(Dict)
		return &Stream{Dict: dict, Raw: x.Raw}
	default:
		return obj
	}
}
