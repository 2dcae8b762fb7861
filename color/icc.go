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

package color

import (
	"fmt"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// embedder writes ICC-based color spaces into a document, embedding
// each builtin profile at most once.
type embedder struct {
	doc   *pdf.Document
	cache map[pdf.Name]pdf.Reference
}

func newEmbedder(doc *pdf.Document) *embedder {
	return &embedder{
		doc:   doc,
		cache: make(map[pdf.Name]pdf.Reference),
	}
}

// profileRef returns a reference to an ICCBased stream for the given
// device color space.
func (e *embedder) profileRef(space pdf.Name) (pdf.Reference, error) {
	if ref, ok := e.cache[space]; ok {
		return ref, nil
	}
	profile := BuiltinProfile(space)
	if profile == nil {
		return 0, fmt.Errorf("no builtin profile for %s", space)
	}
	n, err := Components(profile)
	if err != nil {
		return 0, err
	}
	ref := e.doc.Alloc()
	e.doc.Put(ref, pdf.NewFlateStream(profile, pdf.Dict{
		"N": pdf.Integer(n),
	}))
	e.cache[space] = ref
	return ref, nil
}

// space returns an ICC-based color space array equivalent to the given
// device color space.
func (e *embedder) space(space pdf.Name) (pdf.Array, error) {
	ref, err := e.profileRef(space)
	if err != nil {
		return nil, err
	}
	return pdf.Array{pdf.Name("ICCBased"), ref}, nil
}
