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

// applyOptionalContent repairs the optional content properties per
// ISO 19005-2 clause 6.9: every configuration has a unique name, no
// /AS auto-state triggers, BaseState ON, ListMode AllPages or absent,
// and the /OCGs and /Order arrays list every group the document uses.
func applyOptionalContent(doc *pdf.Document, opts *Options) ([]Warning, error) {
	catalog := doc.Catalog()
	ocProps := doc.GetDict(catalog["OCProperties"])
	if ocProps == nil {
		return nil, nil
	}
	fixed := 0

	if _, ok := ocProps["D"]; !ok {
		d := pdf.Dict{
			"Name":      pdf.String("Default"),
			"BaseState": pdf.Name("ON"),
		}
		if ocgs := doc.GetArray(ocProps["OCGs"]); ocgs != nil {
			d["Order"] = append(pdf.Array{}, ocgs...)
		}
		ocProps["D"] = d
		fixed++
	}

	configs := []pdf.Dict{}
	if d := doc.GetDict(ocProps["D"]); d != nil {
		configs = append(configs, d)
	}
	for _, obj := range doc.GetArray(ocProps["Configs"]) {
		if cfg := doc.GetDict(obj); cfg != nil {
			configs = append(configs, cfg)
		}
	}

	for _, cfg := range configs {
		if _, ok := cfg["AS"]; ok {
			delete(cfg, "AS")
			fixed++
		}
		if _, ok := cfg["BaseState"]; ok && doc.GetName(cfg["BaseState"]) != "ON" {
			cfg["BaseState"] = pdf.Name("ON")
			fixed++
		}
		if _, ok := cfg["ListMode"]; ok && doc.GetName(cfg["ListMode"]) != "AllPages" {
			delete(cfg, "ListMode")
			fixed++
		}
	}

	fixed += uniqueConfigNames(doc, configs)

	// register OCGs referenced from page resources and annotations
	ocgs := doc.GetArray(ocProps["OCGs"])
	registered := make(map[pdf.Reference]bool)
	for _, obj := range ocgs {
		if ref, ok := obj.(pdf.Reference); ok {
			registered[ref] = true
		}
	}
	for _, ref := range findUsedOCGs(doc) {
		if !registered[ref] {
			ocgs = append(ocgs, ref)
			registered[ref] = true
			fixed++
		}
	}
	if len(ocgs) > 0 {
		setOCGArray(doc, ocProps, ocgs)
	}

	for _, obj := range ocgs {
		ocg := doc.GetDict(obj)
		if ocg == nil {
			continue
		}
		if _, ok := ocg["Name"]; !ok {
			ocg["Name"] = pdf.String("Unnamed OCG")
			fixed++
		}
		if intentIsNonView(doc, ocg["Intent"]) {
			ocg["Intent"] = pdf.Name("View")
			fixed++
		}
	}

	for _, cfg := range configs {
		fixed += pruneRBGroups(doc, cfg, registered)
	}
	if len(registered) > 0 {
		if d := doc.GetDict(ocProps["D"]); d != nil {
			fixed += syncOrder(doc, d, ocgs)
		}
		for _, obj := range doc.GetArray(ocProps["Configs"]) {
			if cfg := doc.GetDict(obj); cfg != nil {
				if _, ok := cfg["Order"]; ok {
					fixed += syncOrder(doc, cfg, ocgs)
				}
			}
		}
	}

	if fixed == 0 {
		return nil, nil
	}
	return []Warning{{"optional-content",
		fmt.Sprintf("fixed %d optional content entries", fixed)}}, nil
}

func setOCGArray(doc *pdf.Document, ocProps pdf.Dict, ocgs pdf.Array) {
	if ref, isRef := ocProps["OCGs"].(pdf.Reference); isRef {
		doc.Put(ref, ocgs)
	} else {
		ocProps["OCGs"] = ocgs
	}
}

func intentIsNonView(doc *pdf.Document, obj pdf.Object) bool {
	switch intent := doc.Resolve(obj).(type) {
	case pdf.Name:
		return intent != "View"
	case pdf.Array:
		for _, entry := range intent {
			if doc.GetName(entry) != "View" {
				return true
			}
		}
	}
	return false
}

// uniqueConfigNames makes every configuration name present, non-empty
// and unique.  The first entry is the default configuration.
func uniqueConfigNames(doc *pdf.Document, configs []pdf.Dict) int {
	fixed := 0
	used := make(map[string]bool)
	for i, cfg := range configs {
		current := string(doc.GetString(cfg["Name"]))
		base := current
		if base == "" {
			if i == 0 {
				base = "Default"
			} else {
				base = fmt.Sprintf("Config%d", i-1)
			}
		}
		name := base
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		if name != current {
			cfg["Name"] = pdf.String(name)
			fixed++
		}
	}
	return fixed
}

// pruneRBGroups removes radio button group members which are not
// registered OCGs, then drops empty groups.
func pruneRBGroups(doc *pdf.Document, cfg pdf.Dict, registered map[pdf.Reference]bool) int {
	groups := doc.GetArray(cfg["RBGroups"])
	if groups == nil {
		return 0
	}
	fixed := 0
	var keptGroups pdf.Array
	for _, groupObj := range groups {
		group := doc.GetArray(groupObj)
		if group == nil {
			continue
		}
		var kept pdf.Array
		for _, entry := range group {
			if ref, ok := entry.(pdf.Reference); ok && registered[ref] {
				kept = append(kept, entry)
			} else {
				fixed++
			}
		}
		if len(kept) > 0 {
			keptGroups = append(keptGroups, kept)
		}
	}
	switch {
	case len(keptGroups) == 0:
		delete(cfg, "RBGroups")
	case fixed > 0:
		cfg["RBGroups"] = keptGroups
	}
	return fixed
}

// syncOrder appends to /Order every registered OCG it does not already
// contain, creating the array when missing.
func syncOrder(doc *pdf.Document, cfg pdf.Dict, ocgs pdf.Array) int {
	if _, ok := cfg["Order"]; !ok {
		cfg["Order"] = append(pdf.Array{}, ocgs...)
		return len(ocgs)
	}
	order := doc.GetArray(cfg["Order"])
	present := make(map[pdf.Reference]bool)
	var collect func(arr pdf.Array)
	collect = func(arr pdf.Array) {
		for _, entry := range arr {
			switch v := entry.(type) {
			case pdf.Reference:
				present[v] = true
			case pdf.Array:
				collect(v)
			}
		}
	}
	collect(order)

	added := 0
	for _, obj := range ocgs {
		ref, ok := obj.(pdf.Reference)
		if !ok || present[ref] {
			continue
		}
		order = append(order, ref)
		added++
	}
	if added > 0 {
		if ref, isRef := cfg["Order"].(pdf.Reference); isRef {
			doc.Put(ref, order)
		} else {
			cfg["Order"] = order
		}
	}
	return added
}

// findUsedOCGs collects OCG references from page resource /Properties
// entries and annotation /OC entries.
func findUsedOCGs(doc *pdf.Document) []pdf.Reference {
	var found []pdf.Reference
	for _, page := range doc.Pages() {
		res := doc.GetDict(page.Dict["Resources"])
		if res == nil {
			res = doc.GetDict(page.Inherited("Resources"))
		}
		if res != nil {
			for _, obj := range doc.GetDict(res["Properties"]) {
				if ref, ok := obj.(pdf.Reference); ok {
					if d := doc.GetDict(ref); d != nil && doc.GetName(d["Type"]) == "OCG" {
						found = append(found, ref)
					}
				}
			}
		}
		for _, annotObj := range doc.GetArray(page.Dict["Annots"]) {
			annot := doc.GetDict(annotObj)
			if annot == nil {
				continue
			}
			if ref, ok := annot["OC"].(pdf.Reference); ok {
				if d := doc.GetDict(ref); d != nil && doc.GetName(d["Type"]) == "OCG" {
					found = append(found, ref)
				}
			}
		}
	}
	return found
}
