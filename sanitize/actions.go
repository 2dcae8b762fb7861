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

package sanitize

import (
	"fmt"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// compliantActions lists the action types allowed by ISO 19005-2
// section 6.6.1.
var compliantActions = map[pdf.Name]bool{
	"GoTo":       true,
	"GoToR":      true,
	"GoToE":      true,
	"Thread":     true,
	"URI":        true,
	"Named":      true,
	"SubmitForm": true,
}

// allowedNamedActions lists the /Named action targets allowed by
// ISO 19005-2 clause 6.6.1.
var allowedNamedActions = map[pdf.Name]bool{
	"NextPage":  true,
	"PrevPage":  true,
	"FirstPage": true,
	"LastPage":  true,
}

// SubmitForm flags from ISO 32000-1, table 237.
const (
	submitFlagXFDF      = 1 << 5
	submitFlagSubmitPDF = 1 << 8
)

// applyJavaScript removes the document-level JavaScript name tree.
// JavaScript actions elsewhere are removed by the actions pass.
func applyJavaScript(doc *pdf.Document, opts *Options) ([]Warning, error) {
	names := doc.GetDict(doc.Catalog()["Names"])
	if names == nil {
		return nil, nil
	}
	if _, ok := names["JavaScript"]; !ok {
		return nil, nil
	}
	delete(names, "JavaScript")
	return []Warning{{"javascript", "removed document JavaScript name tree"}}, nil
}

// isNonCompliantAction reports whether an action dictionary uses a
// type forbidden in PDF/A.
func isNonCompliantAction(doc *pdf.Document, action pdf.Dict) bool {
	s := doc.GetName(action["S"])
	if s == "" || !compliantActions[s] {
		return true
	}
	switch s {
	case "SubmitForm":
		// only PDF and XFDF submission formats are allowed
		flags, _ := doc.GetInteger(action["Flags"])
		return flags&submitFlagSubmitPDF == 0 && flags&submitFlagXFDF == 0
	case "Named":
		return !allowedNamedActions[doc.GetName(action["N"])]
	}
	return false
}

// sanitizeNextChain strips non-compliant actions from the /Next chain
// of a compliant action.
func sanitizeNextChain(doc *pdf.Document, action pdf.Dict, visited map[pdf.Reference]bool) int {
	next, ok := action["Next"]
	if !ok {
		return 0
	}
	if ref, isRef := next.(pdf.Reference); isRef {
		if visited[ref] {
			return 0
		}
		visited[ref] = true
	}

	removed := 0
	switch obj := doc.Resolve(next).(type) {
	case pdf.Dict:
		if isNonCompliantAction(doc, obj) {
			delete(action, "Next")
			return 1
		}
		removed += sanitizeNextChain(doc, obj, visited)
	case pdf.Array:
		var kept pdf.Array
		for _, entry := range obj {
			d := doc.GetDict(entry)
			if d == nil || isNonCompliantAction(doc, d) {
				removed++
				continue
			}
			removed += sanitizeNextChain(doc, d, visited)
			kept = append(kept, entry)
		}
		if removed > 0 {
			if len(kept) == 0 {
				delete(action, "Next")
			} else {
				action["Next"] = kept
			}
		}
	default:
		delete(action, "Next")
		removed++
	}
	return removed
}

// sanitizeActionSlot checks the action stored under owner[key] and
// removes it when non-compliant.  Returns the number of actions
// removed.
func sanitizeActionSlot(doc *pdf.Document, owner pdf.Dict, key pdf.Name) int {
	obj, ok := owner[key]
	if !ok {
		return 0
	}
	action := doc.GetDict(obj)
	if action == nil || isNonCompliantAction(doc, action) {
		delete(owner, key)
		return 1
	}
	return sanitizeNextChain(doc, action, make(map[pdf.Reference]bool))
}

// applyActions removes forbidden action types everywhere actions can
// occur: the catalog OpenAction, additional-action (/AA) dictionaries
// (forbidden entirely), page and annotation actions, outline items,
// and form fields.
func applyActions(doc *pdf.Document, opts *Options) ([]Warning, error) {
	removed := 0
	catalog := doc.Catalog()

	removed += sanitizeActionSlot(doc, catalog, "OpenAction")
	if _, ok := catalog["AA"]; ok {
		delete(catalog, "AA")
		removed++
	}

	for _, page := range doc.Pages() {
		if _, ok := page.Dict["AA"]; ok {
			delete(page.Dict, "AA")
			removed++
		}
		for _, annotObj := range doc.GetArray(page.Dict["Annots"]) {
			annot := doc.GetDict(annotObj)
			if annot == nil {
				continue
			}
			removed += sanitizeActionSlot(doc, annot, "A")
			if _, ok := annot["AA"]; ok {
				delete(annot, "AA")
				removed++
			}
		}
	}

	removed += sanitizeOutlineActions(doc, doc.GetDict(catalog["Outlines"]),
		make(map[pdf.Reference]bool))

	acroForm := doc.GetDict(catalog["AcroForm"])
	if acroForm != nil {
		removed += sanitizeFieldActions(doc, doc.GetArray(acroForm["Fields"]),
			make(map[pdf.Reference]bool))
	}

	if removed == 0 {
		return nil, nil
	}
	return []Warning{{"actions",
		fmt.Sprintf("removed %d non-compliant actions", removed)}}, nil
}

func sanitizeOutlineActions(doc *pdf.Document, item pdf.Dict, visited map[pdf.Reference]bool) int {
	removed := 0
	for item != nil {
		removed += sanitizeActionSlot(doc, item, "A")

		if first := doc.GetDict(item["First"]); first != nil {
			removed += sanitizeOutlineActions(doc, first, visited)
		}

		next, ok := item["Next"]
		if !ok {
			break
		}
		if ref, isRef := next.(pdf.Reference); isRef {
			if visited[ref] {
				break
			}
			visited[ref] = true
		}
		item = doc.GetDict(next)
	}
	return removed
}

func sanitizeFieldActions(doc *pdf.Document, fields pdf.Array, visited map[pdf.Reference]bool) int {
	removed := 0
	for _, fieldObj := range fields {
		if ref, isRef := fieldObj.(pdf.Reference); isRef {
			if visited[ref] {
				continue
			}
			visited[ref] = true
		}
		field := doc.GetDict(fieldObj)
		if field == nil {
			continue
		}
		removed += sanitizeActionSlot(doc, field, "A")
		if _, ok := field["AA"]; ok {
			delete(field, "AA")
			removed++
		}
		removed += sanitizeFieldActions(doc, doc.GetArray(field["Kids"]), visited)
	}
	return removed
}

// applyDestinations removes destinations which refer to pages that do
// not exist in the document.
func applyDestinations(doc *pdf.Document, opts *Options) ([]Warning, error) {
	validPages := make(map[pdf.Reference]bool)
	for _, page := range doc.Pages() {
		validPages[page.Ref] = true
	}

	removed := 0
	isInvalid := func(obj pdf.Object) bool {
		dest := doc.Resolve(obj)
		if s, ok := dest.(pdf.Dict); ok {
			dest = doc.Resolve(s["D"])
		}
		arr, ok := dest.(pdf.Array)
		if !ok || len(arr) == 0 {
			return true
		}
		switch target := arr[0].(type) {
		case pdf.Reference:
			return !validPages[target]
		case pdf.Integer:
			// remote destinations address pages by number
			return false
		}
		return true
	}

	for _, page := range doc.Pages() {
		for _, annotObj := range doc.GetArray(page.Dict["Annots"]) {
			annot := doc.GetDict(annotObj)
			if annot == nil {
				continue
			}
			if dest, ok := annot["Dest"]; ok {
				if _, isName := doc.Resolve(dest).(pdf.Name); isName {
					continue
				}
				if _, isString := doc.Resolve(dest).(pdf.String); isString {
					continue
				}
				if isInvalid(dest) {
					delete(annot, "Dest")
					removed++
				}
			}
			if action := doc.GetDict(annot["A"]); action != nil &&
				doc.GetName(action["S"]) == "GoTo" {
				if dest, ok := action["D"]; ok {
					if _, isName := doc.Resolve(dest).(pdf.Name); isName {
						continue
					}
					if _, isString := doc.Resolve(dest).(pdf.String); isString {
						continue
					}
					if isInvalid(dest) {
						delete(annot, "A")
						removed++
					}
				}
			}
		}
	}

	// prune the named destination trees
	names := doc.GetDict(doc.Catalog()["Names"])
	if names != nil {
		removed += pruneDestTree(doc, doc.GetDict(names["Dests"]), isInvalid,
			make(map[pdf.Reference]bool))
	}
	removed += pruneDestDict(doc, doc.GetDict(doc.Catalog()["Dests"]), isInvalid)

	if removed == 0 {
		return nil, nil
	}
	return []Warning{{"destinations",
		fmt.Sprintf("removed %d dangling destinations", removed)}}, nil
}

func pruneDestTree(doc *pdf.Document, node pdf.Dict, isInvalid func(pdf.Object) bool, visited map[pdf.Reference]bool) int {
	if node == nil {
		return 0
	}
	removed := 0

	if kids, ok := node["Kids"]; ok {
		for _, kid := range doc.GetArray(kids) {
			if ref, isRef := kid.(pdf.Reference); isRef {
				if visited[ref] {
					continue
				}
				visited[ref] = true
			}
			removed += pruneDestTree(doc, doc.GetDict(kid), isInvalid, visited)
		}
		return removed
	}

	entries := doc.GetArray(node["Names"])
	var kept pdf.Array
	for i := 0; i+1 < len(entries); i += 2 {
		if isInvalid(entries[i+1]) {
			removed++
			continue
		}
		kept = append(kept, entries[i], entries[i+1])
	}
	if removed > 0 {
		if kept == nil {
			kept = pdf.Array{}
		}
		node["Names"] = kept
	}
	return removed
}

func pruneDestDict(doc *pdf.Document, dests pdf.Dict, isInvalid func(pdf.Object) bool) int {
	removed := 0
	for name, obj := range dests {
		if isInvalid(obj) {
			delete(dests, name)
			removed++
		}
	}
	return removed
}
