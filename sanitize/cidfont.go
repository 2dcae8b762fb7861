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
	"regexp"
	"strconv"
	"strings"

	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// standardCMapNames holds the predefined CMap names of ISO 32000-1
// table 118 plus the two Identity mappings.  Only these may be used as
// /Encoding names in PDF/A files.
var standardCMapNames = map[pdf.Name]bool{
	"Identity-H": true, "Identity-V": true,
	// Japanese (Adobe-Japan1)
	"83pv-RKSJ-H": true, "90ms-RKSJ-H": true, "90ms-RKSJ-V": true,
	"90msp-RKSJ-H": true, "90msp-RKSJ-V": true, "90pv-RKSJ-H": true,
	"Add-RKSJ-H": true, "Add-RKSJ-V": true, "EUC-H": true, "EUC-V": true,
	"Ext-RKSJ-H": true, "Ext-RKSJ-V": true, "H": true, "V": true,
	"UniJIS-UCS2-H": true, "UniJIS-UCS2-V": true,
	"UniJIS-UCS2-HW-H": true, "UniJIS-UCS2-HW-V": true,
	"UniJIS-UTF16-H": true, "UniJIS-UTF16-V": true,
	// Chinese, simplified (Adobe-GB1)
	"GB-EUC-H": true, "GB-EUC-V": true, "GBpc-EUC-H": true,
	"GBpc-EUC-V": true, "GBK-EUC-H": true, "GBK-EUC-V": true,
	"GBKp-EUC-H": true, "GBKp-EUC-V": true, "GBK2K-H": true,
	"GBK2K-V": true, "UniGB-UCS2-H": true, "UniGB-UCS2-V": true,
	"UniGB-UTF16-H": true, "UniGB-UTF16-V": true,
	// Chinese, traditional (Adobe-CNS1)
	"B5pc-H": true, "B5pc-V": true, "HKscs-B5-H": true,
	"HKscs-B5-V": true, "ETen-B5-H": true, "ETen-B5-V": true,
	"ETenms-B5-H": true, "ETenms-B5-V": true, "CNS-EUC-H": true,
	"CNS-EUC-V": true, "UniCNS-UCS2-H": true, "UniCNS-UCS2-V": true,
	"UniCNS-UTF16-H": true, "UniCNS-UTF16-V": true,
	// Korean (Adobe-Korea1)
	"KSC-EUC-H": true, "KSC-EUC-V": true, "KSCms-UHC-H": true,
	"KSCms-UHC-V": true, "KSCms-UHC-HW-H": true, "KSCms-UHC-HW-V": true,
	"KSCpc-EUC-H": true, "UniKS-UCS2-H": true, "UniKS-UCS2-V": true,
	"UniKS-UTF16-H": true, "UniKS-UTF16-V": true,
}

type cidSystemInfo struct {
	Registry   string
	Ordering   string
	Supplement int64
}

// namedCMapSystemInfo maps the Unicode CMap names to the character
// collections they index.
var namedCMapSystemInfo = map[pdf.Name]cidSystemInfo{
	"Identity-H":     {"Adobe", "Identity", 0},
	"Identity-V":     {"Adobe", "Identity", 0},
	"UniGB-UTF16-H":  {"Adobe", "GB1", 5},
	"UniGB-UTF16-V":  {"Adobe", "GB1", 5},
	"UniJIS-UTF16-H": {"Adobe", "Japan1", 6},
	"UniJIS-UTF16-V": {"Adobe", "Japan1", 6},
	"UniCNS-UTF16-H": {"Adobe", "CNS1", 6},
	"UniCNS-UTF16-V": {"Adobe", "CNS1", 6},
	"UniKS-UTF16-H":  {"Adobe", "Korea1", 2},
	"UniKS-UTF16-V":  {"Adobe", "Korea1", 2},
}

var (
	cmapRegistryRe   = regexp.MustCompile(`/Registry\s*\(([^)]+)\)`)
	cmapOrderingRe   = regexp.MustCompile(`/Ordering\s*\(([^)]+)\)`)
	cmapSupplementRe = regexp.MustCompile(`/Supplement\s+(\d+)`)
	cmapWModeRe      = regexp.MustCompile(`/WMode\s+(\d+)\s+def`)
	useCMapOpRe      = regexp.MustCompile(`(?m)^\s*\S+\s+usecmap\s*$`)
)

// applyCIDFont enforces the composite font rules of ISO 19005-2
// clause 6.2.11.3: CMap encodings use standard names or compliant
// embedded streams, CIDSystemInfo matches the CMap, CIDFontType2 fonts
// carry a valid CIDToGIDMap, and stale CIDSet and CharSet entries are
// dropped from font descriptors.
func applyCIDFont(doc *pdf.Document, opts *Options) ([]Warning, error) {
	fonts, err := font.Discover(doc)
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	fixed := 0
	for _, f := range fonts {
		switch f.Subtype {
		case "Type0":
			if f.CIDFont == nil {
				continue
			}
			fixed += sanitizeCMapEncoding(doc, f)
			fixed += fixCIDSystemInfo(doc, f)
			fixed += fixCIDToGIDMap(doc, f)
			warnings = append(warnings, checkCIDRange(doc, f)...)
			if fd := doc.GetDict(f.CIDFont["FontDescriptor"]); fd != nil {
				if _, ok := fd["CIDSet"]; ok {
					delete(fd, "CIDSet")
					fixed++
				}
			}
		case "Type1", "MMType1":
			// CharSet is optional at parts 2 and 3 and easily stale
			// after subsetting, so it is dropped rather than rebuilt.
			if fd := f.Descriptor(doc); fd != nil && f.IsEmbedded(doc) {
				if _, ok := fd["CharSet"]; ok {
					delete(fd, "CharSet")
					fixed++
				}
			}
		}
		fixed += fixFontNameConsistency(doc, f)
	}

	if fixed > 0 {
		warnings = append(warnings, Warning{"cidfont",
			fmt.Sprintf("repaired %d composite font entries", fixed)})
	}
	return warnings, nil
}

// sanitizeCMapEncoding replaces non-standard CMap names with Identity,
// reconciles the /WMode entry of embedded CMap streams with the CMap
// program, and strips /UseCMap references which PDF/A does not allow.
func sanitizeCMapEncoding(doc *pdf.Document, f *font.Info) int {
	fixed := 0
	switch enc := doc.Resolve(f.Dict["Encoding"]).(type) {
	case pdf.Name:
		if !standardCMapNames[enc] {
			replacement := pdf.Name("Identity-H")
			if strings.HasSuffix(string(enc), "-V") {
				replacement = "Identity-V"
			}
			f.Dict["Encoding"] = replacement
			fixed++
		}

	case *pdf.Stream:
		data, err := doc.DecodeStream(enc)
		if err != nil {
			return 0
		}

		// the stream dictionary's /WMode must agree with the CMap program
		var wMode int64
		if m := cmapWModeRe.FindSubmatch(data); m != nil {
			wMode, _ = strconv.ParseInt(string(m[1]), 10, 64)
			dictWMode, ok := doc.GetInteger(enc.Dict["WMode"])
			if !ok || int64(dictWMode) != wMode {
				enc.Dict["WMode"] = pdf.Integer(wMode)
				fixed++
			}
		}

		useCMap := doc.Resolve(enc.Dict["UseCMap"])
		bad := false
		switch use := useCMap.(type) {
		case *pdf.Stream:
			bad = true
		case pdf.Name:
			bad = !standardCMapNames[use]
		}
		if bad {
			// dropping only the usecmap link preserves the real
			// character mappings of the CMap program
			delete(enc.Dict, "UseCMap")
			if stripped := useCMapOpRe.ReplaceAll(data, nil); len(stripped) != len(data) {
				enc.Raw = pdf.FlateData(stripped)
				enc.Dict["Filter"] = pdf.Name("FlateDecode")
				delete(enc.Dict, "DecodeParms")
			}
			fixed++
		}
	}
	return fixed
}

// fixCIDSystemInfo makes the CIDFont's /CIDSystemInfo agree with the
// character collection of the CMap.  Identity orderings are not forced
// onto CIDFontType0 fonts, which index by their CFF program's own CID
// ordering.
func fixCIDSystemInfo(doc *pdf.Document, f *font.Info) int {
	expected, ok := cmapSystemInfo(doc, f.Dict["Encoding"])
	if !ok {
		return 0
	}
	if expected.Ordering == "Identity" &&
		doc.GetName(f.CIDFont["Subtype"]) == "CIDFontType0" {
		return 0
	}

	if existing := doc.GetDict(f.CIDFont["CIDSystemInfo"]); existing != nil {
		sup, _ := doc.GetInteger(existing["Supplement"])
		if string(doc.GetString(existing["Registry"])) == expected.Registry &&
			string(doc.GetString(existing["Ordering"])) == expected.Ordering &&
			int64(sup) == expected.Supplement {
			return 0
		}
	}
	f.CIDFont["CIDSystemInfo"] = pdf.Dict{
		"Registry":   pdf.String(expected.Registry),
		"Ordering":   pdf.String(expected.Ordering),
		"Supplement": pdf.Integer(expected.Supplement),
	}
	return 1
}

// cmapSystemInfo determines the character collection of a CMap
// encoding, from the name table for named CMaps or from the CMap
// program for embedded streams.
func cmapSystemInfo(doc *pdf.Document, obj pdf.Object) (cidSystemInfo, bool) {
	switch enc := doc.Resolve(obj).(type) {
	case pdf.Name:
		info, ok := namedCMapSystemInfo[enc]
		return info, ok
	case *pdf.Stream:
		data, err := doc.DecodeStream(enc)
		if err != nil {
			return cidSystemInfo{}, false
		}
		reg := cmapRegistryRe.FindSubmatch(data)
		ord := cmapOrderingRe.FindSubmatch(data)
		sup := cmapSupplementRe.FindSubmatch(data)
		if reg == nil || ord == nil || sup == nil {
			return cidSystemInfo{}, false
		}
		n, _ := strconv.ParseInt(string(sup[1]), 10, 64)
		return cidSystemInfo{string(reg[1]), string(ord[1]), n}, true
	}
	return cidSystemInfo{}, false
}

// fixCIDToGIDMap forces a valid /CIDToGIDMap on CIDFontType2 fonts:
// the name Identity or an embedded stream.
func fixCIDToGIDMap(doc *pdf.Document, f *font.Info) int {
	if doc.GetName(f.CIDFont["Subtype"]) != "CIDFontType2" {
		return 0
	}
	switch m := doc.Resolve(f.CIDFont["CIDToGIDMap"]).(type) {
	case *pdf.Stream:
		return 0
	case pdf.Name:
		if m == "Identity" {
			return 0
		}
	}
	f.CIDFont["CIDToGIDMap"] = pdf.Name("Identity")
	return 1
}

// checkCIDRange reports CID values above 65535 in the width arrays or
// the CIDToGIDMap stream.  These cannot be repaired automatically.
func checkCIDRange(doc *pdf.Document, f *font.Info) []Warning {
	name := f.BaseFont(doc)
	var warnings []Warning
	for _, key := range []pdf.Name{"W", "W2"} {
		w := doc.GetArray(f.CIDFont[key])
		for i := 0; i < len(w); {
			first, ok := doc.GetInteger(w[i])
			if !ok {
				i++
				continue
			}
			if i+1 >= len(w) {
				break
			}
			if doc.GetArray(w[i+1]) != nil {
				if first > 65535 {
					warnings = append(warnings, Warning{"cidfont", fmt.Sprintf(
						"font %s: CID %d in /%s exceeds 65535", name, first, key)})
				}
				i += 2
			} else {
				last, _ := doc.GetInteger(w[i+1])
				if first > 65535 || last > 65535 {
					warnings = append(warnings, Warning{"cidfont", fmt.Sprintf(
						"font %s: CID range %d-%d in /%s exceeds 65535",
						name, first, last, key)})
				}
				i += 3
			}
		}
	}
	if m := doc.GetStream(f.CIDFont["CIDToGIDMap"]); m != nil {
		if data, err := doc.DecodeStream(m); err == nil && len(data) > 2*65536 {
			warnings = append(warnings, Warning{"cidfont", fmt.Sprintf(
				"font %s: CIDToGIDMap length %d implies CIDs above 65535",
				name, len(data))})
		}
	}
	return warnings
}

// fixFontNameConsistency updates the descriptor's /FontName to match
// /BaseFont, comparing with subset prefixes stripped.
func fixFontNameConsistency(doc *pdf.Document, f *font.Info) int {
	fixed := 0
	check := func(fontDict pdf.Dict) {
		base := string(doc.GetName(fontDict["BaseFont"]))
		if base == "" {
			return
		}
		fd := doc.GetDict(fontDict["FontDescriptor"])
		if fd == nil {
			return
		}
		name := string(doc.GetName(fd["FontName"]))
		if name == "" {
			return
		}
		if font.BaseName(base) != font.BaseName(name) {
			fd["FontName"] = pdf.Name(base)
			fixed++
		}
	}
	check(f.Dict)
	if f.CIDFont != nil {
		check(f.CIDFont)
	}
	return fixed
}
