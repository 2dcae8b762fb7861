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

	"golang.org/x/text/language"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Catalog keys forbidden by ISO 19005-2, clauses 6.1.10 to 6.1.13.
var forbiddenCatalogKeys = []pdf.Name{
	"Perms", "Requirements", "Collection", "NeedsRendering",
	"Threads", "SpiderInfo",
}

// ViewerPreferences keys forbidden by ISO 19005-2, clause 6.1.2.
var forbiddenViewerPrefKeys = []pdf.Name{
	"ViewArea", "ViewClip", "PrintArea", "PrintClip",
}

// Page dictionary keys forbidden by rule 6.10.
var forbiddenPageKeys = []pdf.Name{"PresSteps", "Duration"}

// applyXFA removes XFA form data from the AcroForm dictionary.  XFA is
// forbidden in all PDF/A levels.
func applyXFA(doc *pdf.Document, opts *Options) ([]Warning, error) {
	acroForm := doc.GetDict(doc.Catalog()["AcroForm"])
	if acroForm == nil {
		return nil, nil
	}

	var warnings []Warning
	if _, ok := acroForm["XFA"]; ok {
		if len(doc.GetArray(acroForm["Fields"])) == 0 {
			warnings = append(warnings, Warning{"xfa",
				"pure XFA form: removing XFA discards all form content"})
		}
		delete(acroForm, "XFA")
		if len(warnings) == 0 {
			warnings = append(warnings, Warning{"xfa", "removed XFA form data"})
		}
	}
	delete(acroForm, "NeedsRendering")
	return warnings, nil
}

// applyCatalog removes forbidden catalog, name-dictionary, page and
// viewer-preference entries, drops an over-versioned /Version entry,
// and makes sure /Lang and /MarkInfo are present.
func applyCatalog(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning
	catalog := doc.Catalog()

	removed := 0
	for _, key := range forbiddenCatalogKeys {
		if _, ok := catalog[key]; ok {
			delete(catalog, key)
			removed++
		}
	}

	// the effective version of a PDF/A-2/3 file must not exceed 1.7
	if v := doc.GetName(catalog["Version"]); v != "" {
		var major, minor int
		if _, err := fmt.Sscanf(string(v), "%d.%d", &major, &minor); err != nil ||
			major > 1 || (major == 1 && minor > 7) {
			delete(catalog, "Version")
			removed++
		}
	}

	if names := doc.GetDict(catalog["Names"]); names != nil {
		if _, ok := names["AlternatePresentations"]; ok {
			delete(names, "AlternatePresentations")
			removed++
		}
	}

	if vp := doc.GetDict(catalog["ViewerPreferences"]); vp != nil {
		for _, key := range forbiddenViewerPrefKeys {
			if _, ok := vp[key]; ok {
				delete(vp, key)
				removed++
			}
		}
	}

	for _, page := range doc.Pages() {
		for _, key := range forbiddenPageKeys {
			if _, ok := page.Dict[key]; ok {
				delete(page.Dict, key)
				removed++
			}
		}
	}

	if removed > 0 {
		warnings = append(warnings, Warning{"catalog",
			fmt.Sprintf("removed %d forbidden entries", removed)})
	}

	// /Lang per ISO 19005-2, 6.7.3; "und" marks an undetermined language
	lang := string(doc.GetString(catalog["Lang"]))
	if lang == "" || !validLanguageTag(lang) {
		if lang != "" {
			warnings = append(warnings, Warning{"catalog",
				fmt.Sprintf("replaced invalid language tag %q", lang)})
		}
		catalog["Lang"] = pdf.String("und")
	}

	// /MarkInfo per ISO 19005-2, 6.7.1
	markInfo := doc.GetDict(catalog["MarkInfo"])
	if markInfo == nil {
		catalog["MarkInfo"] = pdf.Dict{"Marked": pdf.Bool(false)}
	} else if _, ok := markInfo["Marked"]; !ok {
		markInfo["Marked"] = pdf.Bool(false)
	}

	return warnings, nil
}

func validLanguageTag(tag string) bool {
	if tag == "und" {
		return true
	}
	_, err := language.Parse(tag)
	return err == nil
}
