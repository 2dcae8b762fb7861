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
	"bytes"
	"log/slog"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// intentInfo holds the identification strings for the OutputIntent
// dictionaries created for the builtin profiles.
var intentInfo = map[pdf.Name]struct {
	condition pdf.String
	info      pdf.String
}{
	"DeviceGray": {pdf.String("sGray"), pdf.String("sGray")},
	"DeviceRGB":  {pdf.String("sRGB"), pdf.String("sRGB IEC61966-2.1")},
	"DeviceCMYK": {pdf.String("FOGRA39"), pdf.String("ISO Coated v2 300% (basICColor)")},
}

// EnsureOutputIntent makes sure the document carries exactly one PDF/A
// OutputIntent whose DestOutputProfile matches the dominant device
// color space of the document.  Existing intents with valid profiles
// are kept; conflicting extra intents are removed, since all intents
// of a PDF/A file have to share one profile.
func EnsureOutputIntent(doc *pdf.Document, a *Analysis, log *slog.Logger) error {
	catalog := doc.Catalog()
	intents := doc.GetArray(catalog["OutputIntents"])

	var kept pdf.Array
	var keptProfile []byte
	var pdfaIntent pdf.Dict
	for _, obj := range intents {
		intent := doc.GetDict(obj)
		if intent == nil {
			continue
		}
		// DestOutputProfileRef points to external data and is
		// forbidden in PDF/A files
		delete(intent, "DestOutputProfileRef")

		profile := intentProfile(doc, intent)
		if profile != nil {
			if keptProfile == nil {
				keptProfile = profile
			} else if !bytes.Equal(profile, keptProfile) {
				log.Warn("removing output intent with conflicting profile",
					"subtype", doc.GetName(intent["S"]))
				continue
			}
		}
		if doc.GetName(intent["S"]) == "GTS_PDFA1" && pdfaIntent == nil {
			pdfaIntent = intent
		}
		kept = append(kept, obj)
	}

	switch {
	case pdfaIntent == nil:
		intent, _, err := newPDFAIntent(doc, a, keptProfile)
		if err != nil {
			return err
		}
		ref := doc.Alloc()
		doc.Put(ref, intent)
		kept = append(kept, ref)
		log.Info("added PDF/A output intent",
			"condition", intent["OutputConditionIdentifier"])
	case intentProfile(doc, pdfaIntent) == nil:
		// the existing intent has no usable profile
		fresh, _, err := newPDFAIntent(doc, a, keptProfile)
		if err != nil {
			return err
		}
		pdfaIntent["DestOutputProfile"] = fresh["DestOutputProfile"]
		log.Info("replaced broken output intent profile")
	}

	catalog["OutputIntents"] = kept
	return nil
}

// intentProfile returns the DestOutputProfile data of an OutputIntent,
// or nil if the profile is missing or unusable.
func intentProfile(doc *pdf.Document, intent pdf.Dict) []byte {
	stm := doc.GetStream(intent["DestOutputProfile"])
	if stm == nil {
		return nil
	}
	data, err := doc.DecodeStream(stm)
	if err != nil || ValidateProfile(data) != nil {
		return nil
	}
	return data
}

// newPDFAIntent builds a GTS_PDFA1 OutputIntent dictionary.  When the
// document already has a usable profile from another intent, that
// profile is reused.  Otherwise a builtin profile for the dominant
// device color space is embedded.
func newPDFAIntent(doc *pdf.Document, a *Analysis, profile []byte) (pdf.Dict, []byte, error) {
	space := a.Dominant()
	condition := intentInfo[space].condition
	info := intentInfo[space].info
	if profile == nil {
		profile = BuiltinProfile(space)
	} else {
		condition = pdf.String("Custom")
		info = pdf.String("Custom")
	}

	n, err := Components(profile)
	if err != nil {
		return nil, nil, err
	}
	profileRef := doc.Alloc()
	doc.Put(profileRef, pdf.NewFlateStream(profile, pdf.Dict{
		"N": pdf.Integer(n),
	}))

	intent := pdf.Dict{
		"Type":                      pdf.Name("OutputIntent"),
		"S":                         pdf.Name("GTS_PDFA1"),
		"OutputConditionIdentifier": condition,
		"Info":                      info,
		"RegistryName":              pdf.String("http://www.color.org"),
		"DestOutputProfile":         profileRef,
	}
	return intent, profile, nil
}
