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

// signatureKeys are the entries which make a dictionary a live
// signature.  Removing them leaves an empty husk which no validator
// will try to verify against the (rewritten) file bytes.
var signatureKeys = []pdf.Name{
	"Type", "Filter", "SubFilter", "ByteRange", "Contents", "Reference",
	"Cert", "Prop_Build", "M", "Name", "Reason", "Location",
	"ContactInfo", "R",
}

const sigFlagSignaturesExist = 1

// isSignatureDict reports whether a dictionary is a signature
// dictionary.  /ByteRange alone is not enough, additional signature
// markers are required to avoid false positives.
func isSignatureDict(doc *pdf.Document, d pdf.Dict) bool {
	if doc.GetName(d["Type"]) == "Sig" {
		return true
	}
	_, hasByteRange := d["ByteRange"]
	_, hasFilter := d["Filter"]
	_, hasSubFilter := d["SubFilter"]
	_, hasContents := d["Contents"]
	if hasByteRange && (hasFilter || hasSubFilter || hasContents) {
		return true
	}
	return hasContents && hasSubFilter
}

// applySignatures removes digital signatures.  The conversion rewrites
// the file bytes, so every existing signature is cryptographically
// broken afterwards; leaving the signature structures in place would
// make validators report digest failures.
func applySignatures(doc *pdf.Document, opts *Options) ([]Warning, error) {
	found := 0

	neutralize := func(d pdf.Dict) {
		if d == nil || !isSignatureDict(doc, d) {
			return
		}
		changed := false
		for _, key := range signatureKeys {
			if _, ok := d[key]; ok {
				delete(d, key)
				changed = true
			}
		}
		if changed {
			found++
		}
	}

	catalog := doc.Catalog()
	acroForm := doc.GetDict(catalog["AcroForm"])

	// remove the /V value of every signed signature field
	if acroForm != nil {
		clearSignatureValues(doc, doc.GetArray(acroForm["Fields"]),
			make(map[pdf.Reference]bool), neutralize)
	}
	for _, page := range doc.Pages() {
		for _, annotObj := range doc.GetArray(page.Dict["Annots"]) {
			annot := doc.GetDict(annotObj)
			if annot == nil || doc.GetName(annot["FT"]) != "Sig" {
				continue
			}
			if v, ok := annot["V"]; ok {
				neutralize(doc.GetDict(v))
				delete(annot, "V")
				found++
			}
		}
	}

	// /Perms references usage rights and MDP signatures
	if perms := doc.GetDict(catalog["Perms"]); perms != nil {
		for _, key := range []pdf.Name{"DocMDP", "UR", "UR3"} {
			if obj, ok := perms[key]; ok {
				neutralize(doc.GetDict(obj))
				delete(perms, key)
				found++
			}
		}
		if len(perms) == 0 {
			delete(catalog, "Perms")
		}
	}

	// orphaned signature dictionaries are still picked up by validators
	for _, ref := range doc.References() {
		if d, ok := doc.Get(ref).(pdf.Dict); ok {
			neutralize(d)
		}
	}

	if acroForm != nil {
		if flags, ok := doc.GetInteger(acroForm["SigFlags"]); ok {
			cleared := flags &^ sigFlagSignaturesExist
			if cleared != flags {
				if cleared == 0 {
					delete(acroForm, "SigFlags")
				} else {
					acroForm["SigFlags"] = pdf.Integer(cleared)
				}
			}
		}
	}

	if found == 0 {
		return nil, nil
	}
	return []Warning{{"signatures",
		fmt.Sprintf("removed %d digital signature structures", found)}}, nil
}

// clearSignatureValues removes the /V entry from signature fields,
// recursing into /Kids.
func clearSignatureValues(doc *pdf.Document, fields pdf.Array, visited map[pdf.Reference]bool, neutralize func(pdf.Dict)) {
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
		if doc.GetName(field["FT"]) == "Sig" {
			if v, ok := field["V"]; ok {
				neutralize(doc.GetDict(v))
				delete(field, "V")
			}
		}
		clearSignatureValues(doc, doc.GetArray(field["Kids"]), visited, neutralize)
	}
}
