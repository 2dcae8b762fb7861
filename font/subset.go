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
	"sort"

	"seehuhn.de/go/sfnt/glyph"
)

const subsetModulus = 26 * 26 * 26 * 26 * 26 * 26

// SubsetTag constructs a 6-letter tag (range AAAAAA to ZZZZZZ) to
// describe a subset of glyphs of a font.  This is used for the
// /BaseFont entry in PDF font dictionaries and the /FontName entry in
// font descriptors.
func SubsetTag(gg []glyph.ID, numGlyphs int) string {
	sorted := make([]glyph.ID, len(gg))
	copy(sorted, gg)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// mix all the information into a single uint32
	X := uint32(numGlyphs)
	for _, g := range sorted {
		// 11 is the largest integer smaller than 1<<32/subsetModulus
		// which is relatively prime to 26
		X = (X*11 + uint32(g)) % subsetModulus
	}

	var buf [6]byte
	for i := range buf {
		buf[i] = 'A' + byte(X%26)
		X /= 26
	}
	return string(buf[:])
}

// subsetGlyphs turns a set of used glyphs into the sorted glyph list
// for subsetting, with the .notdef glyph in the first position, and the
// mapping from original to subset glyph IDs.
func subsetGlyphs(used map[glyph.ID]bool) ([]glyph.ID, map[glyph.ID]glyph.ID) {
	gg := []glyph.ID{0}
	for gid := range used {
		if gid != 0 {
			gg = append(gg, gid)
		}
	}
	sort.Slice(gg, func(i, j int) bool { return gg[i] < gg[j] })

	newGID := make(map[glyph.ID]glyph.ID, len(gg))
	for i, gid := range gg {
		newGID[gid] = glyph.ID(i)
	}
	return gg, newGID
}
