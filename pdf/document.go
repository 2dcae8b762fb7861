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

// Document is an in-memory representation of a PDF document.  It owns all
// indirect objects; every other part of the conversion pipeline holds
// [Reference] keys into the document, never independent copies, so that a
// mutation made by one pass is visible to all later passes.
type Document struct {
	// Version is the PDF version from the file header.
	Version Version

	// Trailer is the trailer dictionary, excluding entries related to the
	// cross-reference table.
	Trailer Dict

	// ID holds the two elements of the /ID array, if present.
	ID [][]byte

	objects map[Reference]Object
	lastRef uint32
}

// NewDocument creates an empty document.
func NewDocument(v Version) *Document {
	return &Document{
		Version: v,
		Trailer: Dict{},
		objects: map[Reference]Object{},
	}
}

// Alloc allocates an unused object number.
func (d *Document) Alloc() Reference {
	for {
		d.lastRef++
		ref := NewReference(d.lastRef, 0)
		if _, used := d.objects[ref]; !used {
			return ref
		}
	}
}

// Put stores obj under the given reference.
func (d *Document) Put(ref Reference, obj Object) {
	if obj == nil {
		delete(d.objects, ref)
		return
	}
	d.objects[ref] = obj
	if ref.Number() > d.lastRef {
		d.lastRef = ref.Number()
	}
}

// Delete removes the object stored under ref.  Dangling references to the
// object resolve to null afterwards.
func (d *Document) Delete(ref Reference) {
	delete(d.objects, ref)
}

// Get returns the object stored under ref, or nil if there is none.
func (d *Document) Get(ref Reference) Object {
	return d.objects[ref]
}

// NumObjects returns the number of indirect objects in the document.
func (d *Document) NumObjects() int {
	return len(d.objects)
}

// References returns all references in use, in unspecified order.
func (d *Document) References() []Reference {
	res := make([]Reference, 0, len(d.objects))
	for ref := range d.objects {
		res = append(res, ref)
	}
	return res
}

// Resolve resolves an indirect reference.  Resolution never fails: an
// unresolvable reference yields nil (the PDF null object).  Reference
// chains are followed with a bound to guard against loops.
func (d *Document) Resolve(obj Object) Object {
	count := 0
	for {
		ref, isRef := obj.(Reference)
		if !isRef {
			return obj
		}
		count++
		if count > 16 {
			return nil
		}
		obj = d.objects[ref]
	}
}

// GetDict resolves obj and returns it as a Dict.  A *Stream also yields its
// dictionary.  Any other type yields nil.
func (d *Document) GetDict(obj Object) Dict {
	switch x := d.Resolve(obj).(type) {
	case Dict:
		return x
	case *Stream:
		return x.Dict
	}
	return nil
}

// GetArray resolves obj and returns it as an Array, or nil.
func (d *Document) GetArray(obj Object) Array {
	x, _ := d.Resolve(obj).(Array)
	return x
}

// GetName resolves obj and returns it as a Name, or "".
func (d *Document) GetName(obj Object) Name {
	x, _ := d.Resolve(obj).(Name)
	return x
}

// GetString resolves obj and returns it as a String, or nil.
func (d *Document) GetString(obj Object) String {
	x, _ := d.Resolve(obj).(String)
	return x
}

// GetInteger resolves obj and returns it as an Integer.  Real values are
// truncated.  The second return value reports whether a numeric value was
// found.
func (d *Document) GetInteger(obj Object) (Integer, bool) {
	switch x := d.Resolve(obj).(type) {
	case Integer:
		return x, true
	case Real:
		return Integer(x), true
	}
	return 0, false
}

// GetNumber resolves obj and returns it as a float64.
func (d *Document) GetNumber(obj Object) (float64, bool) {
	switch x := d.Resolve(obj).(type) {
	case Integer:
		return float64(x), true
	case Real:
		return float64(x), true
	}
	return 0, false
}

// GetStream resolves obj and returns it as a *Stream, or nil.
func (d *Document) GetStream(obj Object) *Stream {
	x, _ := d.Resolve(obj).(*Stream)
	return x
}

// Catalog returns the document catalog dictionary.  A missing catalog
// yields nil.
func (d *Document) Catalog() Dict {
	return d.GetDict(d.Trailer["Root"])
}

// Info returns the document information dictionary, or nil.
func (d *Document) Info() Dict {
	return d.GetDict(d.Trailer["Info"])
}

// DecodeStream returns the decoded contents of a stream, following
// indirect references through the document.
func (d *Document) DecodeStream(s *Stream) ([]byte, error) {
	return s.Decode(func(obj Object) Object { return d.Resolve(obj) })
}
