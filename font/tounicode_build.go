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

package font

import (
	"log/slog"
	"slices"

	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/iRedPaul/pdftopdfa/font/tounicode"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// fallbackBase is the first code point of the supplementary private
// use area.  Codes without any known text content map there, so that
// every code still has a distinct, stable Unicode value.
const fallbackBase = 0xF0000

// EnsureToUnicode makes sure every font of the document maps all used
// character codes to Unicode.  Values are taken, in order of
// preference, from an existing ToUnicode CMap, from the glyph names of
// the font's encoding (for composite fonts, from the character map of
// the embedded font program), and finally from a private use area
// fallback.
// EnsureToUnicode returns the number of fonts changed.
func EnsureToUnicode(doc *pdf.Document, log *slog.Logger) (int, error) {
	fonts, err := Discover(doc)
	if err != nil {
		return 0, err
	}
	usage, err := ScanUsage(doc)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, f := range fonts {
		var used map[uint32]bool
		if f.Ref != 0 {
			used = usage[f.Ref]
		}
		if used != nil && len(used) == 0 {
			// selected but never shows text
			continue
		}
		ok, err := ensureToUnicode(doc, f, used, log)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

func ensureToUnicode(doc *pdf.Document, f *Info, used map[uint32]bool, log *slog.Logger) (bool, error) {
	existing := make(map[uint32][]rune)
	if stm := doc.GetStream(f.Dict["ToUnicode"]); stm != nil {
		if data, err := doc.DecodeStream(stm); err == nil {
			if info, err := tounicode.Read(data); err == nil {
				existing = info.All()
			}
		}
	}

	twoByte := f.Subtype == "Type0"
	codes := targetCodes(doc, f, used, existing)
	if len(codes) == 0 {
		if len(existing) == 0 {
			log.Warn("cannot determine text content for font",
				"font", f.BaseFont(doc))
		}
		return false, nil
	}

	var derived map[uint32][]rune
	if twoByte {
		derived = compositeUnicode(doc, f)
	} else {
		encTable := f.SimpleEncoding(doc)
		derived = UnicodeForNames(encTable, BaseName(f.BaseFont(doc)))
	}

	m := make(map[uint32][]rune, len(codes))
	dirty := false
	for _, code := range codes {
		if rr, ok := existing[code]; ok && !tounicode.IsForbidden(rr) {
			m[code] = rr
			continue
		}
		rr := derived[code]
		if tounicode.IsForbidden(rr) {
			rr = []rune{rune(fallbackBase + code)}
		}
		m[code] = rr
		dirty = true
	}
	// keep valid entries for codes outside the target set
	for code, rr := range existing {
		if _, ok := m[code]; !ok && !tounicode.IsForbidden(rr) {
			m[code] = rr
		}
	}
	if !dirty {
		return false, nil
	}

	ref, err := toUnicodeStream(doc, tounicode.New(m, twoByte))
	if err != nil {
		return false, err
	}
	f.Dict["ToUnicode"] = ref
	return true, nil
}

// compositeUnicode derives Unicode values for a composite font with an
// Identity encoding from the character map of its embedded font
// program: each code is mapped through the CIDToGIDMap to a glyph, and
// the cmap is inverted to find a rune producing that glyph.  When
// several runes map to the same glyph the smallest one wins.
func compositeUnicode(doc *pdf.Document, f *Info) map[uint32][]rune {
	if f.CIDFont == nil {
		return nil
	}
	enc := string(doc.GetName(f.Dict["Encoding"]))
	if enc != "Identity-H" && enc != "Identity-V" {
		return nil
	}
	fd := doc.GetDict(f.CIDFont["FontDescriptor"])
	if fd == nil {
		return nil
	}
	prog := LoadProgram(doc, fd)
	if prog == nil {
		return nil
	}
	sub := prog.BestCMap()
	if sub == nil {
		return nil
	}

	gidToRune := make(map[glyph.ID]rune)
	add := func(r rune, gid glyph.ID) {
		if gid == 0 {
			return
		}
		if prev, ok := gidToRune[gid]; !ok || r < prev {
			gidToRune[gid] = r
		}
	}
	switch sub := sub.(type) {
	case cmap.Format4:
		for code, gid := range sub {
			add(rune(code), gid)
		}
	case cmap.Format12:
		for code, gid := range sub {
			add(rune(code), gid)
		}
	default:
		low, high := sub.CodeRange()
		if high > low+0xFFFF {
			high = low + 0xFFFF
		}
		for r := low; r <= high; r++ {
			add(r, sub.Lookup(r))
		}
	}

	var cidToGID []glyph.ID
	if stm := doc.GetStream(f.CIDFont["CIDToGIDMap"]); stm != nil {
		data, err := doc.DecodeStream(stm)
		if err != nil {
			return nil
		}
		cidToGID = make([]glyph.ID, len(data)/2)
		for i := range cidToGID {
			cidToGID[i] = glyph.ID(data[2*i])<<8 | glyph.ID(data[2*i+1])
		}
	}

	m := make(map[uint32][]rune)
	if cidToGID == nil {
		for gid, r := range gidToRune {
			m[uint32(gid)] = []rune{r}
		}
	} else {
		for cid, gid := range cidToGID {
			if r, ok := gidToRune[gid]; ok {
				m[uint32(cid)] = []rune{r}
			}
		}
	}
	return m
}

// targetCodes determines which character codes of a font need a Unicode
// mapping.  When usage information is available, the used codes are
// returned.  Otherwise all codes the font can show are used: for simple
// fonts every code with a glyph name, for composite fonts the codes of
// the existing ToUnicode CMap.
func targetCodes(doc *pdf.Document, f *Info, used map[uint32]bool, existing map[uint32][]rune) []uint32 {
	var codes []uint32
	switch {
	case used != nil:
		for code := range used {
			codes = append(codes, code)
		}
	case f.Subtype == "Type0":
		for code := range existing {
			codes = append(codes, code)
		}
	default:
		encTable := f.SimpleEncoding(doc)
		for code, name := range encTable {
			if name != "" && name != ".notdef" {
				codes = append(codes, uint32(code))
			}
		}
	}
	slices.Sort(codes)
	return codes
}
