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

// inheritable lists the page attributes which may be specified in interior
// page tree nodes.
var inheritable = []Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// Page represents one leaf of the page tree.
type Page struct {
	// Ref is the reference of the page object, or 0 for pages stored as
	// direct objects.
	Ref Reference

	// Dict is the page dictionary.
	Dict Dict

	inherited map[Name]Object
}

// Inherited returns the effective value of an inheritable page attribute,
// resolved by walking the page tree from the leaf towards the root.
func (p *Page) Inherited(key Name) Object {
	if val, ok := p.Dict[key]; ok && val != nil {
		return val
	}
	return p.inherited[key]
}

// Pages returns the leaves of the page tree in document order.  Malformed
// trees are tolerated: loops are skipped, nodes with an unexpected /Type
// are treated as leaves.
func (d *Document) Pages() []*Page {
	catalog := d.Catalog()
	if catalog == nil {
		return nil
	}
	var pages []*Page
	visited := map[Reference]bool{}
	d.walkPageTree(catalog["Pages"], map[Name]Object{}, visited, &pages)
	return pages
}

func (d *Document) walkPageTree(node Object, inherited map[Name]Object, visited map[Reference]bool, pages *[]*Page) {
	ref, isRef := node.(Reference)
	if isRef {
		if visited[ref] {
			return
		}
		visited[ref] = true
	}
	dict := d.GetDict(node)
	if dict == nil {
		return
	}

	if d.GetName(dict["Type"]) == "Pages" || dict["Kids"] != nil {
		next := inherited
		changed := false
		for _, key := range inheritable {
			if val, ok := dict[key]; ok && val != nil {
				if !changed {
					next = make(map[Name]Object, len(inherited)+1)
					for k, v := range inherited {
						next[k] = v
					}
					changed = true
				}
				next[key] = val
			}
		}
		for _, kid := range d.GetArray(dict["Kids"]) {
			d.walkPageTree(kid, next, visited, pages)
		}
		return
	}

	page := &Page{Dict: dict, inherited: inherited}
	if isRef {
		page.Ref = ref
	}
	*pages = append(*pages, page)
}
