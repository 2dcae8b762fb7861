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
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// validAFRelationships are the values ISO 19005-3 allows for the
// /AFRelationship key of a file specification.
var validAFRelationships = map[pdf.Name]bool{
	"Source":      true,
	"Data":        true,
	"Supplement":  true,
	"Alternative": true,
	"Unspecified": true,
}

// pdfDateRe matches the D:YYYYMMDDHHmmSS date format with its optional
// trailing parts.
var pdfDateRe = regexp.MustCompile(
	`^D:\d{4}(\d{2}(\d{2}(\d{2}(\d{2}(\d{2})?)?)?)?)?([Z+\-](\d{2}'\d{2}')?)?$`)

// pdfaIDPartRe finds the pdfaid:part value in the XMP packet of an
// embedded file.  PDF/A forbids compressing the metadata stream, so a
// conforming file carries the packet as plain bytes.
var pdfaIDPartRe = regexp.MustCompile(
	`pdfaid:part\s*(?:=\s*["']([0-9]+)["']|>\s*([0-9]+)\s*<)`)

// fileSpec is one file specification dictionary.
type fileSpec struct {
	ref  pdf.Reference // 0 for direct objects
	dict pdf.Dict
}

// applyEmbeddedFiles enforces the embedded file rules.  Part 2 only
// allows attachments which are themselves PDF/A files; others are
// converted in place when a converter is configured, and removed
// otherwise.  At both parts the surviving file specifications get
// /AFRelationship, /UF, /Desc, stream /Subtype and /Params entries,
// and forbidden stream filters are rewritten, rules 6.1.4 and 6.8.
func applyEmbeddedFiles(doc *pdf.Document, opts *Options) ([]Warning, error) {
	var warnings []Warning

	if opts.Level.Part == 2 {
		removed, converted := filterEmbeddedFiles(doc, opts)
		if removed > 0 || converted > 0 {
			warnings = append(warnings, Warning{"embedded-files", fmt.Sprintf(
				"%d attachments converted to PDF/A, %d removed",
				converted, removed)})
		}
	}

	specs := fileSpecs(doc)
	fixed := 0
	seenStreams := make(map[pdf.Reference]bool)
	for _, fs := range specs {
		fixed += fixFileSpec(doc, fs.dict)
		fixed += fixEmbeddedStreams(doc, fs.dict, seenStreams)
	}
	rebuildRootAF(doc, specs)

	if fixed > 0 {
		warnings = append(warnings, Warning{"embedded-files", fmt.Sprintf(
			"repaired %d file specification entries", fixed)})
	}
	return warnings, nil
}

// fileSpecs finds every file specification dictionary: the
// EmbeddedFiles name tree, FileAttachment annotations, and a full
// object scan for specs referenced only from /AF arrays.
func fileSpecs(doc *pdf.Document) []*fileSpec {
	var specs []*fileSpec
	seen := make(map[pdf.Reference]bool)

	add := func(obj pdf.Object) {
		ref, isRef := obj.(pdf.Reference)
		if isRef {
			if seen[ref] {
				return
			}
			seen[ref] = true
		}
		dict := doc.GetDict(obj)
		if dict == nil {
			return
		}
		specs = append(specs, &fileSpec{ref, dict})
	}

	for _, pair := range embeddedFilePairs(doc) {
		add(pair.value)
	}

	for _, slot := range annotationArrays(doc) {
		for _, a := range slot.annots {
			annot := doc.GetDict(a)
			if annot == nil || doc.GetName(annot["Subtype"]) != "FileAttachment" {
				continue
			}
			if fs, ok := annot["FS"]; ok {
				add(fs)
			}
		}
	}

	for _, ref := range doc.References() {
		dict, ok := doc.Get(ref).(pdf.Dict)
		if !ok {
			continue
		}
		if doc.GetName(dict["Type"]) != "Filespec" && dict["EF"] == nil {
			continue
		}
		add(ref)
	}

	return specs
}

// maxNameTreeDepth bounds the recursion into /Kids chains of malformed
// name trees.
const maxNameTreeDepth = 32

type nameTreePair struct {
	key   pdf.Object
	value pdf.Object
}

// embeddedFilePairs flattens the EmbeddedFiles name tree into its
// (name, file specification) pairs.
func embeddedFilePairs(doc *pdf.Document) []nameTreePair {
	catalog := doc.Catalog()
	if catalog == nil {
		return nil
	}
	names := doc.GetDict(catalog["Names"])
	if names == nil {
		return nil
	}
	node := doc.GetDict(names["EmbeddedFiles"])
	if node == nil {
		return nil
	}
	var pairs []nameTreePair
	collectNameTreePairs(doc, node, 0, &pairs)
	return pairs
}

func collectNameTreePairs(doc *pdf.Document, node pdf.Dict, depth int, pairs *[]nameTreePair) {
	if depth >= maxNameTreeDepth {
		return
	}
	arr := doc.GetArray(node["Names"])
	for i := 0; i+1 < len(arr); i += 2 {
		*pairs = append(*pairs, nameTreePair{arr[i], arr[i+1]})
	}
	for _, kid := range doc.GetArray(node["Kids"]) {
		if child := doc.GetDict(kid); child != nil {
			collectNameTreePairs(doc, child, depth+1, pairs)
		}
	}
}

// filterEmbeddedFiles converts or removes attachments which are not
// PDF/A files themselves.  The EmbeddedFiles name tree is flattened to
// the surviving entries, FileAttachment annotations of removed files
// are dropped, and stale /AF references are cleaned up.
func filterEmbeddedFiles(doc *pdf.Document, opts *Options) (removed, converted int) {
	stripped := make(map[pdf.Reference]bool)
	decided := make(map[pdf.Reference]bool)

	keepSpec := func(obj pdf.Object) bool {
		ref, isRef := obj.(pdf.Reference)
		if isRef {
			if keep, ok := decided[ref]; ok {
				return keep
			}
		}
		keep := func() bool {
			dict := doc.GetDict(obj)
			if dict == nil {
				return false
			}
			ef := doc.GetDict(dict["EF"])
			if ef == nil {
				// no embedded content, nothing to forbid
				return true
			}
			switch classifyEmbedded(doc, ef, opts) {
			case embedKeep:
				return true
			case embedConverted:
				converted++
				return true
			}
			delete(dict, "EF")
			if isRef {
				stripped[ref] = true
			}
			removed++
			return false
		}()
		if isRef {
			decided[ref] = keep
		}
		return keep
	}

	// 1. rebuild the EmbeddedFiles name tree
	catalog := doc.Catalog()
	if names := doc.GetDict(catalog["Names"]); names != nil {
		if node := doc.GetDict(names["EmbeddedFiles"]); node != nil {
			var kept pdf.Array
			var pairs []nameTreePair
			collectNameTreePairs(doc, node, 0, &pairs)
			for _, pair := range pairs {
				if keepSpec(pair.value) {
					kept = append(kept, pair.key, pair.value)
				}
			}
			if len(kept) > 0 {
				node["Names"] = kept
				delete(node, "Kids")
				delete(node, "Limits")
			} else {
				delete(names, "EmbeddedFiles")
			}
		}
	}

	// 2. drop FileAttachment annotations of removed files
	for _, slot := range annotationArrays(doc) {
		kept := slot.annots[:0]
		changed := false
		for _, a := range slot.annots {
			annot := doc.GetDict(a)
			if annot != nil && doc.GetName(annot["Subtype"]) == "FileAttachment" {
				if fs, ok := annot["FS"]; ok && !keepSpec(fs) {
					changed = true
					continue
				}
			}
			kept = append(kept, a)
		}
		if changed {
			slot.set(kept)
		}
	}

	// 3. orphan specs referenced only from /AF arrays
	for _, ref := range doc.References() {
		dict, ok := doc.Get(ref).(pdf.Dict)
		if !ok || stripped[ref] {
			continue
		}
		if doc.GetName(dict["Type"]) != "Filespec" && dict["EF"] == nil {
			continue
		}
		keepSpec(ref)
	}

	cleanAFArrays(doc, stripped)
	return removed, converted
}

// classifyEmbedded results.
const (
	embedRemove = iota
	embedKeep
	embedConverted
)

// classifyEmbedded decides the fate of one embedded file at part 2.
// Only PDF files are candidates: files already claiming PDF/A-1 or
// PDF/A-2 conformance stay, others are run through the configured
// converter.
func classifyEmbedded(doc *pdf.Document, ef pdf.Dict, opts *Options) int {
	stm := doc.GetStream(ef["UF"])
	if stm == nil {
		stm = doc.GetStream(ef["F"])
	}
	if stm == nil {
		return embedRemove
	}
	data, err := doc.DecodeStream(stm)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
		return embedRemove
	}

	if m := pdfaIDPartRe.FindSubmatch(data); m != nil {
		part := string(m[1])
		if part == "" {
			part = string(m[2])
		}
		if part == "1" || part == "2" {
			return embedKeep
		}
	}

	if opts.ConvertEmbedded == nil || opts.EmbedDepth >= maxEmbedDepth {
		return embedRemove
	}
	newData, err := opts.ConvertEmbedded(data, opts.EmbedDepth+1)
	if err != nil {
		opts.Log.Debug("embedded PDF conversion failed", "error", err)
		return embedRemove
	}
	setEmbeddedData(doc, ef, newData)
	return embedConverted
}

// setEmbeddedData replaces the contents of the embedded file streams
// of an /EF dictionary and refreshes the /Params entries.
func setEmbeddedData(doc *pdf.Document, ef pdf.Dict, data []byte) {
	for _, key := range []pdf.Name{"UF", "F"} {
		stm := doc.GetStream(ef[key])
		if stm == nil {
			continue
		}
		stm.Raw = pdf.FlateData(data)
		stm.Dict["Filter"] = pdf.Name("FlateDecode")
		delete(stm.Dict, "DecodeParms")
		if params := doc.GetDict(stm.Dict["Params"]); params != nil {
			params["Size"] = pdf.Integer(len(data))
			params["ModDate"] = pdf.String(formatPDFDate(time.Now()))
		}
	}
}

// cleanAFArrays removes references to stripped file specifications
// from the /AF arrays of the catalog, the pages and the annotations.
func cleanAFArrays(doc *pdf.Document, stripped map[pdf.Reference]bool) {
	if len(stripped) == 0 {
		return
	}
	clean := func(owner pdf.Dict) {
		if owner == nil {
			return
		}
		af := doc.GetArray(owner["AF"])
		if af == nil {
			return
		}
		kept := af[:0]
		for _, entry := range af {
			if ref, isRef := entry.(pdf.Reference); isRef && stripped[ref] {
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == len(af) {
			return
		}
		if len(kept) == 0 {
			delete(owner, "AF")
		} else {
			setArrayEntry(doc, owner, "AF", kept)
		}
	}

	clean(doc.Catalog())
	for _, page := range doc.Pages() {
		clean(page.Dict)
	}
	for _, slot := range annotationArrays(doc) {
		for _, a := range slot.annots {
			clean(doc.GetDict(a))
		}
	}
}

// fixFileSpec repairs the dictionary-level entries of one file
// specification: /AFRelationship, the /F and /UF file names, and a
// /Desc description.
func fixFileSpec(doc *pdf.Document, dict pdf.Dict) int {
	fixed := 0

	rel := doc.GetName(dict["AFRelationship"])
	if !validAFRelationships[rel] {
		dict["AFRelationship"] = pdf.Name("Unspecified")
		fixed++
	}

	_, haveF := dict["F"]
	_, haveUF := dict["UF"]
	switch {
	case haveF && !haveUF:
		dict["UF"] = dict["F"]
		fixed++
	case haveUF && !haveF:
		dict["F"] = dict["UF"]
		fixed++
	case !haveF && !haveUF:
		dict["F"] = pdf.String("embedded_file")
		dict["UF"] = pdf.TextString("embedded_file")
		fixed++
	}

	if ef := doc.GetDict(dict["EF"]); ef != nil {
		_, haveF := ef["F"]
		_, haveUF := ef["UF"]
		if haveF && !haveUF {
			ef["UF"] = ef["F"]
		} else if haveUF && !haveF {
			ef["F"] = ef["UF"]
		}
	}

	if _, ok := dict["Desc"]; !ok {
		name := specFileName(doc, dict)
		desc := "Embedded file"
		if name != "" {
			desc = "Embedded file: " + name
		}
		dict["Desc"] = pdf.TextString(desc)
		fixed++
	}

	return fixed
}

func specFileName(doc *pdf.Document, dict pdf.Dict) string {
	for _, key := range []pdf.Name{"UF", "F"} {
		if s := doc.GetString(dict[key]); s != nil {
			return s.AsTextString()
		}
	}
	return ""
}

// fixEmbeddedStreams repairs the embedded file streams of one file
// specification: a MIME /Subtype, a /Params dictionary with a valid
// /ModDate, and no LZW or Crypt filters.
func fixEmbeddedStreams(doc *pdf.Document, dict pdf.Dict, seen map[pdf.Reference]bool) int {
	ef := doc.GetDict(dict["EF"])
	if ef == nil {
		return 0
	}
	mimeType := guessMIMEType(specFileName(doc, dict))

	fixed := 0
	for _, key := range []pdf.Name{"F", "UF"} {
		if ref, isRef := ef[key].(pdf.Reference); isRef {
			if seen[ref] {
				continue
			}
			seen[ref] = true
		}
		stm := doc.GetStream(ef[key])
		if stm == nil {
			continue
		}
		if !isValidMIMESubtype(doc.GetName(stm.Dict["Subtype"])) {
			stm.Dict["Subtype"] = pdf.Name(mimeType)
			fixed++
		}
		fixed += fixStreamParams(doc, stm)
		fixed += fixEmbeddedStreamFilters(doc, stm)
	}
	return fixed
}

func guessMIMEType(filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			// strip charset and other parameters
			if i := strings.IndexByte(t, ';'); i >= 0 {
				t = t[:i]
			}
			return t
		}
	}
	return "application/octet-stream"
}

func isValidMIMESubtype(name pdf.Name) bool {
	parts := strings.Split(string(name), "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// fixStreamParams makes sure the stream carries /Params with a
// well-formed /ModDate.
func fixStreamParams(doc *pdf.Document, stm *pdf.Stream) int {
	now := pdf.String(formatPDFDate(time.Now()))
	params := doc.GetDict(stm.Dict["Params"])
	if params == nil {
		stm.Dict["Params"] = pdf.Dict{"ModDate": now}
		return 1
	}
	if s := doc.GetString(params["ModDate"]); s != nil {
		if pdfDateRe.MatchString(string(s)) {
			return 0
		}
	}
	params["ModDate"] = now
	return 1
}

// fixEmbeddedStreamFilters re-encodes embedded file streams using LZW
// or Crypt filters with FlateDecode, rule 6.1.4.
func fixEmbeddedStreamFilters(doc *pdf.Document, stm *pdf.Stream) int {
	var filterNames []pdf.Name
	switch f := doc.Resolve(stm.Dict["Filter"]).(type) {
	case pdf.Name:
		filterNames = []pdf.Name{f}
	case pdf.Array:
		for _, entry := range f {
			filterNames = append(filterNames, doc.GetName(entry))
		}
	}
	forbidden := false
	for _, name := range filterNames {
		if name == "LZWDecode" || name == "LZW" || name == "Crypt" {
			forbidden = true
		}
	}
	if !forbidden {
		return 0
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		return 0
	}
	stm.Raw = pdf.FlateData(data)
	stm.Dict["Filter"] = pdf.Name("FlateDecode")
	delete(stm.Dict, "DecodeParms")
	return 1
}

// rebuildRootAF points the catalog's /AF array at all remaining file
// specifications, or removes it when none are left.
func rebuildRootAF(doc *pdf.Document, specs []*fileSpec) {
	catalog := doc.Catalog()
	if catalog == nil {
		return
	}
	var af pdf.Array
	for _, fs := range specs {
		if fs.ref != 0 {
			af = append(af, fs.ref)
		} else {
			af = append(af, fs.dict)
		}
	}
	if len(af) > 0 {
		catalog["AF"] = af
	} else {
		delete(catalog, "AF")
	}
}

// formatPDFDate renders a time in the D:YYYYMMDDHHmmSS+HH'mm' format.
func formatPDFDate(t time.Time) string {
	s := t.Format("D:20060102150405-0700")
	return s[:len(s)-2] + "'" + s[len(s)-2:] + "'"
}
