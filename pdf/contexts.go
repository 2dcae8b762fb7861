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

import "bytes"

// ContextKind identifies the type of object a content context belongs to.
type ContextKind int

const (
	KindPage ContextKind = iota + 1
	KindFormXObject
	KindAppearance
	KindPattern
	KindType3Glyph
)

func (k ContextKind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindFormXObject:
		return "form XObject"
	case KindAppearance:
		return "appearance stream"
	case KindPattern:
		return "tiling pattern"
	case KindType3Glyph:
		return "Type3 glyph"
	default:
		return "unknown"
	}
}

// ContentContext is a view of one object owning a content stream and a
// resource dictionary: a page, a form XObject, an annotation appearance
// stream, a tiling pattern, or a Type3 glyph procedure.
type ContentContext struct {
	Kind ContextKind

	// Ref is the reference of the owning object, or 0 for direct objects.
	Ref Reference

	// Dict is the dictionary owning the content: the page dictionary for
	// pages, the stream dictionary otherwise (for Type3 glyphs, the font
	// dictionary).
	Dict Dict

	// Streams holds the content streams of the context.  Pages may own
	// several; all other kinds own exactly one.
	Streams []*Stream

	doc *Document
}

// Resources returns the effective resource dictionary of the context,
// or nil.
func (c *ContentContext) Resources() Dict {
	return c.doc.GetDict(c.Dict["Resources"])
}

// SetResources stores an explicit resource dictionary on the context.
func (c *ContentContext) SetResources(res Dict) {
	c.Dict["Resources"] = res
}

// Content returns the decoded content of the context.  Multiple page
// content streams are concatenated with a newline, matching the PDF
// content stream semantics.
func (c *ContentContext) Content() ([]byte, error) {
	var parts [][]byte
	for _, stm := range c.Streams {
		data, err := c.doc.DecodeStream(stm)
		if err != nil {
			return nil, err
		}
		parts = append(parts, data)
	}
	return bytes.Join(parts, []byte("\n")), nil
}

// SetContent replaces the content of the context with a single
// Flate-compressed stream.  Stream dictionary entries other than the
// filter chain are preserved.
func (c *ContentContext) SetContent(data []byte) {
	if c.Kind == KindPage {
		stm := NewFlateStream(data, nil)
		ref := c.doc.Alloc()
		c.doc.Put(ref, stm)
		c.Dict["Contents"] = ref
		return
	}
	stm := c.Streams[0]
	stm.Raw = FlateData(data)
	stm.Dict["Filter"] = Name("FlateDecode")
	delete(stm.Dict, "DecodeParms")
	delete(stm.Dict, "Length")
}

// ContentContexts visits every content context reachable from the document
// catalog: pages, form XObjects (recursively), annotation appearance
// streams, tiling patterns, and Type3 glyph procedures.  Each context is
// visited once; cycles through nested XObjects are broken by a visited set
// keyed on object number.  The visitor may mutate the document.  A non-nil
// error from the visitor stops the traversal.
func (d *Document) ContentContexts(visit func(*ContentContext) error) error {
	visited := map[Reference]bool{}

	for _, page := range d.Pages() {
		ctx := &ContentContext{
			Kind: KindPage,
			Ref:  page.Ref,
			Dict: page.Dict,
			doc:  d,
		}
		if res := page.Inherited("Resources"); res != nil && page.Dict["Resources"] == nil {
			// make the inherited value visible through ctx.Dict
			page.Dict["Resources"] = res
		}
		switch contents := d.Resolve(page.Dict["Contents"]).(type) {
		case *Stream:
			ctx.Streams = []*Stream{contents}
		case Array:
			for _, elem := range contents {
				if stm := d.GetStream(elem); stm != nil {
					ctx.Streams = append(ctx.Streams, stm)
				}
			}
		}
		if err := visit(ctx); err != nil {
			return err
		}
		if err := d.visitResources(ctx.Resources(), visited, visit); err != nil {
			return err
		}

		// annotation appearance streams
		for _, a := range d.GetArray(page.Dict["Annots"]) {
			annot := d.GetDict(a)
			if annot == nil {
				continue
			}
			ap := d.GetDict(annot["AP"])
			for _, key := range []Name{"N", "R", "D"} {
				if err := d.visitAppearance(ap[key], visited, visit); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// visitAppearance visits an /AP entry, which is either an appearance
// stream or a dictionary mapping appearance state names to streams.
func (d *Document) visitAppearance(obj Object, visited map[Reference]bool, visit func(*ContentContext) error) error {
	if ref, ok := obj.(Reference); ok {
		if visited[ref] {
			return nil
		}
		visited[ref] = true
	}
	switch x := d.Resolve(obj).(type) {
	case *Stream:
		ref, _ := obj.(Reference)
		ctx := &ContentContext{
			Kind:    KindAppearance,
			Ref:     ref,
			Dict:    x.Dict,
			Streams: []*Stream{x},
			doc:     d,
		}
		if err := visit(ctx); err != nil {
			return err
		}
		return d.visitResources(ctx.Resources(), visited, visit)
	case Dict:
		for _, val := range x {
			if err := d.visitAppearance(val, visited, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Document) visitResources(res Dict, visited map[Reference]bool, visit func(*ContentContext) error) error {
	if res == nil {
		return nil
	}

	for _, obj := range d.GetDict(res["XObject"]) {
		if err := d.visitXObject(obj, visited, visit); err != nil {
			return err
		}
	}

	for _, obj := range d.GetDict(res["Pattern"]) {
		ref, _ := obj.(Reference)
		if ref != 0 {
			if visited[ref] {
				continue
			}
			visited[ref] = true
		}
		stm := d.GetStream(obj)
		if stm == nil {
			continue
		}
		if pt, _ := d.GetInteger(stm.Dict["PatternType"]); pt != 1 {
			continue
		}
		ctx := &ContentContext{
			Kind:    KindPattern,
			Ref:     ref,
			Dict:    stm.Dict,
			Streams: []*Stream{stm},
			doc:     d,
		}
		if err := visit(ctx); err != nil {
			return err
		}
		if err := d.visitResources(ctx.Resources(), visited, visit); err != nil {
			return err
		}
	}

	for _, obj := range d.GetDict(res["Font"]) {
		font := d.GetDict(obj)
		if font == nil || d.GetName(font["Subtype"]) != "Type3" {
			continue
		}
		charProcs := d.GetDict(font["CharProcs"])
		for _, proc := range charProcs {
			ref, _ := proc.(Reference)
			if ref != 0 {
				if visited[ref] {
					continue
				}
				visited[ref] = true
			}
			stm := d.GetStream(proc)
			if stm == nil {
				continue
			}
			ctx := &ContentContext{
				Kind:    KindType3Glyph,
				Ref:     ref,
				Dict:    font,
				Streams: []*Stream{stm},
				doc:     d,
			}
			if err := visit(ctx); err != nil {
				return err
			}
		}
		if err := d.visitResources(d.GetDict(font["Resources"]), visited, visit); err != nil {
			return err
		}
	}

	return nil
}

func (d *Document) visitXObject(obj Object, visited map[Reference]bool, visit func(*ContentContext) error) error {
	ref, _ := obj.(Reference)
	if ref != 0 {
		if visited[ref] {
			return nil
		}
		visited[ref] = true
	}
	stm := d.GetStream(obj)
	if stm == nil || d.GetName(stm.Dict["Subtype"]) != "Form" {
		return nil
	}
	ctx := &ContentContext{
		Kind:    KindFormXObject,
		Ref:     ref,
		Dict:    stm.Dict,
		Streams: []*Stream{stm},
		doc:     d,
	}
	if err := visit(ctx); err != nil {
		return err
	}
	return d.visitResources(ctx.Resources(), visited, visit)
}
