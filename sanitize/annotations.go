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
	"math"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Annotation flags from ISO 32000-1, table 165.
const (
	annotFlagInvisible    = 1 << 0
	annotFlagHidden       = 1 << 1
	annotFlagPrint        = 1 << 2
	annotFlagNoZoom       = 1 << 3
	annotFlagNoRotate     = 1 << 4
	annotFlagNoView       = 1 << 5
	annotFlagToggleNoView = 1 << 8
)

// forbiddenAnnotationSubtypes are ruled out by ISO 19005-2 clause
// 6.3.1.  FileAttachment is additionally forbidden at part 2 but
// allowed at part 3.
var forbiddenAnnotationSubtypes = map[pdf.Name]bool{
	"Sound":     true,
	"Movie":     true,
	"Screen":    true,
	"3D":        true,
	"RichMedia": true,
	"TrapNet":   true,
}

// definedAnnotationSubtypes lists the annotation subtypes defined in
// ISO 32000.  Subtypes outside this set violate rule 6.3.1 as well.
var definedAnnotationSubtypes = map[pdf.Name]bool{
	"Text": true, "Link": true, "FreeText": true, "Line": true,
	"Square": true, "Circle": true, "Polygon": true, "PolyLine": true,
	"Highlight": true, "Underline": true, "Squiggly": true,
	"StrikeOut": true, "Stamp": true, "Caret": true, "Ink": true,
	"Popup": true, "FileAttachment": true, "Sound": true, "Movie": true,
	"Widget": true, "Screen": true, "PrinterMark": true, "TrapNet": true,
	"Watermark": true, "3D": true, "Redact": true, "RichMedia": true,
}

// annotSlot gives write access to one /Annots array.
type annotSlot struct {
	annots pdf.Array
	set    func(pdf.Array)
}

// annotationArrays finds every /Annots array in the document.  The
// scan covers all indirect dictionaries and streams, not just page
// objects, matching where viewers actually look for annotations.
func annotationArrays(doc *pdf.Document) []annotSlot {
	var slots []annotSlot
	seen := make(map[pdf.Reference]bool)

	for _, ref := range doc.References() {
		var owner pdf.Dict
		switch obj := doc.Get(ref).(type) {
		case pdf.Dict:
			owner = obj
		case *pdf.Stream:
			owner = obj.Dict
		default:
			continue
		}
		raw, ok := owner["Annots"]
		if !ok {
			continue
		}
		if aRef, isRef := raw.(pdf.Reference); isRef {
			if seen[aRef] {
				continue
			}
			seen[aRef] = true
		}
		annots := doc.GetArray(raw)
		if annots == nil {
			continue
		}
		slots = append(slots, annotSlot{annots, func(a pdf.Array) {
			if aRef, isRef := owner["Annots"].(pdf.Reference); isRef {
				doc.Put(aRef, a)
			} else {
				owner["Annots"] = a
			}
			if len(a) == 0 {
				delete(owner, "Annots")
			}
		}})
	}
	return slots
}

// applyAnnotations enforces the annotation rules of ISO 19005-2
// clauses 6.3 and 6.5: forbidden subtypes are removed, every remaining
// annotation gets compliant flags, a normal appearance stream, full
// opacity, and no device color entries.
func applyAnnotations(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning

	removed := removeForbiddenAnnotations(doc, opts.Level)
	if removed > 0 {
		warnings = append(warnings, Warning{"annotations",
			fmt.Sprintf("removed %d forbidden annotations", removed)})
	}

	for _, slot := range annotationArrays(doc) {
		for _, annotObj := range slot.annots {
			annot := doc.GetDict(annotObj)
			if annot == nil {
				continue
			}
			fixAnnotationFlags(doc, annot)
			ensureAppearance(doc, annot)
			fixAnnotationOpacity(doc, annot)
			delete(annot, "C")
			delete(annot, "IC")
		}
	}

	if acroForm := doc.GetDict(doc.Catalog()["AcroForm"]); acroForm != nil {
		delete(acroForm, "NeedAppearances")
		delete(acroForm, "NeedsAppearances") // legacy typo seen in the wild
	}
	return warnings, nil
}

func removeForbiddenAnnotations(doc *pdf.Document, level Level) int {
	removed := 0
	for _, slot := range annotationArrays(doc) {
		var kept pdf.Array
		for _, annotObj := range slot.annots {
			annot := doc.GetDict(annotObj)
			if annot == nil {
				kept = append(kept, annotObj)
				continue
			}
			subtype := doc.GetName(annot["Subtype"])
			bad := forbiddenAnnotationSubtypes[subtype] ||
				(subtype != "" && !definedAnnotationSubtypes[subtype]) ||
				(subtype == "FileAttachment" && level.Part == 2)
			if bad {
				removed++
				continue
			}
			kept = append(kept, annotObj)
		}
		if len(kept) != len(slot.annots) {
			if kept == nil {
				kept = pdf.Array{}
			}
			slot.set(kept)
		}
	}
	return removed
}

// fixAnnotationFlags sets Print and clears Invisible, Hidden, NoView
// and ToggleNoView.  Text annotations additionally need NoZoom and
// NoRotate at parts 2 and 3.
func fixAnnotationFlags(doc *pdf.Document, annot pdf.Dict) {
	flags, _ := doc.GetInteger(annot["F"])
	newFlags := flags
	newFlags &^= annotFlagInvisible | annotFlagHidden |
		annotFlagNoView | annotFlagToggleNoView
	newFlags |= annotFlagPrint
	if doc.GetName(annot["Subtype"]) == "Text" {
		newFlags |= annotFlagNoZoom | annotFlagNoRotate
	}
	if _, present := annot["F"]; !present || newFlags != flags {
		annot["F"] = pdf.Integer(newFlags)
	}
}

// ensureAppearance makes sure the annotation has a compliant /AP
// dictionary: an /N entry is present, rollover and down appearances
// are removed, and the /N value has the form rule 6.3.3 requires for
// the annotation type.
func ensureAppearance(doc *pdf.Document, annot pdf.Dict) {
	subtype := doc.GetName(annot["Subtype"])
	if subtype == "Popup" || subtype == "Link" {
		return
	}
	if rect, ok := readBox(doc, annot["Rect"]); ok {
		if rect[0] == rect[2] || rect[1] == rect[3] {
			// zero-size annotations are invisible and need no appearance
			return
		}
	}

	ap := doc.GetDict(annot["AP"])
	if ap == nil {
		ap = pdf.Dict{}
		annot["AP"] = ap
	}
	delete(ap, "R")
	delete(ap, "D")

	isButton := subtype == "Widget" && fieldType(doc, annot) == "Btn"

	n := doc.Resolve(ap["N"])
	switch n := n.(type) {
	case *pdf.Stream:
		if isButton {
			// Btn widgets need a state subdictionary, keyed by /AS
			state := doc.GetName(annot["AS"])
			if state == "" {
				state = doc.GetName(annot["V"])
			}
			if state == "" {
				state = "Off"
			}
			ap["N"] = pdf.Dict{state: ap["N"]}
			annot["AS"] = state
		}
	case pdf.Dict:
		if isButton {
			return
		}
		// collapse the state dict to a single stream
		if stream := stateDictStream(doc, n, doc.GetName(annot["AS"])); stream != nil {
			ap["N"] = stream
		} else {
			ap["N"] = emptyAppearance(doc, annot)
		}
		delete(annot, "AS")
	default:
		ap["N"] = emptyAppearance(doc, annot)
	}
}

// stateDictStream picks a usable stream from an appearance state
// dictionary, preferring the entry named by /AS.
func stateDictStream(doc *pdf.Document, state pdf.Dict, as pdf.Name) pdf.Object {
	if as != "" {
		if entry, ok := state[as]; ok {
			if doc.GetStream(entry) != nil {
				return entry
			}
		}
	}
	for _, entry := range state {
		if doc.GetStream(entry) != nil {
			return entry
		}
	}
	return nil
}

// emptyAppearance builds a minimal empty form XObject sized to the
// annotation rectangle.
func emptyAppearance(doc *pdf.Document, annot pdf.Dict) pdf.Reference {
	bbox := pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(0), pdf.Integer(0)}
	if rect, ok := readBox(doc, annot["Rect"]); ok {
		w := math.Abs(rect[2] - rect[0])
		h := math.Abs(rect[3] - rect[1])
		bbox = pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Real(w), pdf.Real(h)}
	}
	ref := doc.Alloc()
	doc.Put(ref, &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("XObject"),
			"Subtype": pdf.Name("Form"),
			"BBox":    bbox,
		},
		Raw: []byte{},
	})
	return ref
}

// fieldType returns the /FT of a widget annotation, walking the
// /Parent chain of the field hierarchy.
func fieldType(doc *pdf.Document, annot pdf.Dict) pdf.Name {
	visited := make(map[pdf.Reference]bool)
	current := annot
	for current != nil {
		if ft := doc.GetName(current["FT"]); ft != "" {
			return ft
		}
		parent, ok := current["Parent"]
		if !ok {
			break
		}
		if ref, isRef := parent.(pdf.Reference); isRef {
			if visited[ref] {
				break
			}
			visited[ref] = true
		}
		current = doc.GetDict(parent)
	}
	return ""
}

// fixAnnotationOpacity forces annotation /CA to 1.0.  Transparency in
// annotations is expressed through the appearance stream instead.
func fixAnnotationOpacity(doc *pdf.Document, annot pdf.Dict) {
	obj, ok := annot["CA"]
	if !ok {
		return
	}
	if ca, isNum := doc.GetNumber(obj); !isNum || ca != 1.0 {
		annot["CA"] = pdf.Real(1.0)
	}
}
