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

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// operandCounts lists the exact operand counts validators check for.
// All listed operators take only numeric operands, except d which
// takes an array and a number.
var operandCounts = map[content.Operator]int{
	"m": 2, "l": 2, "re": 4,
	"rg": 3, "RG": 3, "k": 4, "K": 4, "g": 1, "G": 1,
	"cm": 6, "d": 2,
}

// applyContentStreams repairs content streams for rule 6.2.2 and the
// operator restrictions of ISO 32000-1 Annex A: operators not defined
// there are dropped, operators with wrong operand counts are dropped,
// invalid rendering intents are replaced, and every content stream
// owner gets an explicit, self-contained /Resources dictionary.
func applyContentStreams(doc *pdf.Document, opts *Options) ([]Warning, error) {
	stats := struct{ dropped, intents, resources int }{}

	for _, page := range doc.Pages() {
		res := doc.GetDict(page.Dict["Resources"])
		if res == nil {
			res = doc.GetDict(page.Inherited("Resources"))
			if res == nil {
				res = pdf.Dict{}
			}
			page.Dict["Resources"] = res
			stats.resources++
		}
		stats.resources += propagateResources(doc, res, make(map[pdf.Reference]bool))
		for _, annotObj := range doc.GetArray(page.Dict["Annots"]) {
			annot := doc.GetDict(annotObj)
			if annot == nil {
				continue
			}
			ap := doc.GetDict(annot["AP"])
			for _, key := range []pdf.Name{"N", "R", "D"} {
				stats.resources += propagateAppearanceResources(doc, ap[key], res,
					make(map[pdf.Reference]bool))
			}
		}
	}

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		dropped, intents := sanitizeOperators(doc, c)
		stats.dropped += dropped
		stats.intents += intents

		// images with an invalid rendering intent
		if res := c.Resources(); res != nil {
			for _, obj := range doc.GetDict(res["XObject"]) {
				xobj := doc.GetStream(obj)
				if xobj == nil || doc.GetName(xobj.Dict["Subtype"]) != "Image" {
					continue
				}
				if ri := doc.GetName(xobj.Dict["Intent"]); ri != "" && !validRenderingIntents[ri] {
					xobj.Dict["Intent"] = pdf.Name("RelativeColorimetric")
					stats.intents++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	if stats.dropped > 0 {
		warnings = append(warnings, Warning{"content-streams",
			fmt.Sprintf("removed %d invalid operators", stats.dropped)})
	}
	if stats.intents > 0 {
		warnings = append(warnings, Warning{"content-streams",
			fmt.Sprintf("replaced %d invalid rendering intents", stats.intents)})
	}
	if stats.resources > 0 {
		warnings = append(warnings, Warning{"content-streams",
			fmt.Sprintf("made %d resource dictionaries explicit", stats.resources)})
	}
	return warnings, nil
}

// sanitizeOperators rewrites one content stream, dropping undefined
// operators and operators with wrong operand counts, and replacing
// invalid rendering intents with RelativeColorimetric.
func sanitizeOperators(doc *pdf.Document, c *pdf.ContentContext) (dropped, intents int) {
	data, err := c.Content()
	if err != nil {
		return 0, 0
	}
	ops, err := content.Parse(data)
	if err != nil {
		return 0, 0
	}

	changed := false
	kept := ops[:0]
	for _, op := range ops {
		if op.Operator == "BI" {
			if len(op.Operands) == 1 {
				if dict, ok := op.Operands[0].(pdf.Dict); ok {
					if ri, ok := dict["Intent"].(pdf.Name); ok && !validRenderingIntents[ri] {
						dict["Intent"] = pdf.Name("RelativeColorimetric")
						intents++
						changed = true
					}
				}
			}
			kept = append(kept, op)
			continue
		}

		if !content.IsKnownOperator(op.Operator) {
			dropped++
			changed = true
			continue
		}
		if !operandsValid(op) {
			dropped++
			changed = true
			continue
		}
		if op.Operator == "ri" && len(op.Operands) == 1 {
			if ri, ok := op.Operands[0].(pdf.Name); ok && !validRenderingIntents[ri] {
				op.Operands[0] = pdf.Name("RelativeColorimetric")
				intents++
				changed = true
			}
		}
		kept = append(kept, op)
	}

	if changed {
		c.SetContent(content.Serialize(kept))
	}
	return dropped, intents
}

func operandsValid(op content.Operation) bool {
	want, ok := operandCounts[op.Operator]
	if !ok {
		return true
	}
	if len(op.Operands) != want {
		return false
	}
	if op.Operator == "d" {
		_, isArr := op.Operands[0].(pdf.Array)
		return isArr && isNumber(op.Operands[1])
	}
	for _, operand := range op.Operands {
		if !isNumber(operand) {
			return false
		}
	}
	return true
}

func isNumber(obj pdf.Object) bool {
	switch obj.(type) {
	case pdf.Integer, pdf.Real:
		return true
	}
	return false
}

// propagateResources makes the resource dictionaries of nested content
// stream owners explicit: form XObjects, tiling patterns and Type3
// fonts either get a shallow copy of the parent resources or have the
// missing categories merged in, so no name lookup relies on
// inheritance.
func propagateResources(doc *pdf.Document, parent pdf.Dict, visited map[pdf.Reference]bool) int {
	fixed := 0
	visit := func(owner pdf.Dict, exclude pdf.Name) pdf.Dict {
		res := doc.GetDict(owner["Resources"])
		if res == nil {
			res = cloneResources(parent, exclude)
			owner["Resources"] = res
			fixed++
			return res
		}
		fixed += mergeResources(doc, res, parent, exclude)
		return res
	}

	for _, obj := range doc.GetDict(parent["XObject"]) {
		if ref, isRef := obj.(pdf.Reference); isRef {
			if visited[ref] {
				continue
			}
			visited[ref] = true
		}
		xobj := doc.GetStream(obj)
		if xobj == nil || doc.GetName(xobj.Dict["Subtype"]) != "Form" {
			continue
		}
		fixed += propagateResources(doc, visit(xobj.Dict, ""), visited)
	}

	for _, obj := range doc.GetDict(parent["Pattern"]) {
		if ref, isRef := obj.(pdf.Reference); isRef {
			if visited[ref] {
				continue
			}
			visited[ref] = true
		}
		pat := doc.GetStream(obj)
		if pat == nil {
			continue
		}
		if t, _ := doc.GetInteger(pat.Dict["PatternType"]); t != 1 {
			continue
		}
		fixed += propagateResources(doc, visit(pat.Dict, ""), visited)
	}

	for _, obj := range doc.GetDict(parent["Font"]) {
		if ref, isRef := obj.(pdf.Reference); isRef {
			if visited[ref] {
				continue
			}
			visited[ref] = true
		}
		font := doc.GetDict(obj)
		if font == nil || doc.GetName(font["Subtype"]) != "Type3" {
			continue
		}
		// copying /Font into a Type3 font's resources could make the
		// font reference itself
		fixed += propagateResources(doc, visit(font, "Font"), visited)
	}
	return fixed
}

func propagateAppearanceResources(doc *pdf.Document, obj pdf.Object, parent pdf.Dict, visited map[pdf.Reference]bool) int {
	if ref, isRef := obj.(pdf.Reference); isRef {
		if visited[ref] {
			return 0
		}
		visited[ref] = true
	}
	fixed := 0
	switch ap := doc.Resolve(obj).(type) {
	case *pdf.Stream:
		res := doc.GetDict(ap.Dict["Resources"])
		if res == nil {
			res = cloneResources(parent, "")
			ap.Dict["Resources"] = res
			fixed++
		} else {
			fixed += mergeResources(doc, res, parent, "")
		}
		fixed += propagateResources(doc, res, visited)
	case pdf.Dict:
		for _, state := range ap {
			fixed += propagateAppearanceResources(doc, state, parent, visited)
		}
	}
	return fixed
}

func cloneResources(parent pdf.Dict, exclude pdf.Name) pdf.Dict {
	res := pdf.Dict{}
	for key, val := range parent {
		if key == exclude {
			continue
		}
		res[key] = val
	}
	return res
}

// mergeResources copies resource categories and names present in the
// parent but missing in the child.  Existing child entries win.
func mergeResources(doc *pdf.Document, child, parent pdf.Dict, exclude pdf.Name) int {
	merged := 0
	for key, val := range parent {
		if key == exclude {
			continue
		}
		if _, ok := child[key]; !ok {
			child[key] = val
			merged++
			continue
		}
		childCat := doc.GetDict(child[key])
		parentCat := doc.GetDict(val)
		if childCat == nil || parentCat == nil {
			continue
		}
		for name, entry := range parentCat {
			if _, ok := childCat[name]; !ok {
				childCat[name] = entry
				merged++
			}
		}
	}
	return merged
}
