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
	"bytes"
	"fmt"
	"log/slog"

	"seehuhn.de/go/postscript/type1/names"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// SubsetEmbedded replaces embedded TrueType font programs by subsets
// covering only the glyphs the document uses.  Fonts whose BaseFont
// already carries a subset tag are left alone, so the subsetting done
// when substitute fonts are embedded is not repeated.  SubsetEmbedded
// returns the number of fonts subset.
func SubsetEmbedded(doc *pdf.Document, log *slog.Logger) (int, error) {
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
		if f.Subtype == "Type3" || f.Ref == 0 {
			continue
		}
		used := usage[f.Ref]
		if len(used) == 0 {
			continue
		}
		baseFont := f.BaseFont(doc)
		if BaseName(baseFont) != baseFont {
			// already subset
			continue
		}
		fd := f.Descriptor(doc)
		if fd == nil {
			continue
		}
		stm := doc.GetStream(fd["FontFile2"])
		if stm == nil {
			continue
		}
		data, err := doc.DecodeStream(stm)
		if err != nil {
			continue
		}
		ttf, err := sfnt.Read(bytes.NewReader(data))
		if err != nil {
			log.Warn("cannot parse embedded font program",
				"font", baseFont, "error", err)
			continue
		}

		var ok bool
		if f.Subtype == "Type0" {
			ok, err = subsetComposite(doc, f, fd, ttf, used)
		} else {
			ok, err = subsetSimple(doc, f, fd, ttf, used)
		}
		if err != nil {
			return changed, fmt.Errorf("font %q: %w", baseFont, err)
		}
		if ok {
			log.Info("subset embedded font", "font", baseFont)
			changed++
		}
	}
	return changed, nil
}

// subsetComposite subsets the TrueType program of a composite font and
// rewrites the CIDToGIDMap to point at the new glyph IDs.
func subsetComposite(doc *pdf.Document, f *Info, fd pdf.Dict, ttf *sfnt.Font, used map[uint32]bool) (bool, error) {
	if f.CIDFont == nil {
		return false, nil
	}
	enc := string(doc.GetName(f.Dict["Encoding"]))
	if enc != "Identity-H" && enc != "Identity-V" {
		return false, nil
	}

	var cidToGID []glyph.ID
	if c2g := doc.GetStream(f.CIDFont["CIDToGIDMap"]); c2g != nil {
		data, err := doc.DecodeStream(c2g)
		if err != nil {
			return false, nil
		}
		cidToGID = make([]glyph.ID, len(data)/2)
		for i := range cidToGID {
			cidToGID[i] = glyph.ID(data[2*i])<<8 | glyph.ID(data[2*i+1])
		}
	}

	numGlyphs := ttf.NumGlyphs()
	usedGlyphs := map[glyph.ID]bool{0: true}
	cidOrigGID := make(map[CID]glyph.ID)
	for code := range used {
		if code > 0xFFFF {
			continue
		}
		var gid glyph.ID
		if cidToGID == nil {
			if int64(code) < int64(numGlyphs) {
				gid = glyph.ID(code)
			}
		} else if int(code) < len(cidToGID) {
			gid = cidToGID[code]
			if int(gid) >= numGlyphs {
				gid = 0
			}
		}
		cidOrigGID[CID(code)] = gid
		usedGlyphs[gid] = true
	}
	if len(usedGlyphs) >= numGlyphs {
		return false, nil
	}

	work := ttf.Clone()
	work.CMapTable = nil
	work.Gdef = nil
	work.Gsub = nil
	work.Gpos = nil

	glyphs, newGID := subsetGlyphs(usedGlyphs)
	tag := SubsetTag(glyphs, numGlyphs)
	subsetFont := work.Subset(glyphs)

	var maxCID CID
	for cid := range cidOrigGID {
		if cid > maxCID {
			maxCID = cid
		}
	}
	buf := make([]byte, 2*(int(maxCID)+1))
	for cid, gid := range cidOrigGID {
		n := newGID[gid]
		buf[2*cid] = byte(n >> 8)
		buf[2*cid+1] = byte(n)
	}
	ref := doc.Alloc()
	doc.Put(ref, pdf.NewFlateStream(buf, nil))
	f.CIDFont["CIDToGIDMap"] = ref

	if err := replaceEmbeddedProgram(doc, fd, subsetFont); err != nil {
		return false, err
	}
	renameSubset(doc, f, fd, tag)
	return true, nil
}

// subsetSimple subsets the TrueType program of a simple font.  The
// character map is kept, so only fonts whose cmap subtables all use
// formats 4 or 12 can be subset.
func subsetSimple(doc *pdf.Document, f *Info, fd pdf.Dict, ttf *sfnt.Font, used map[uint32]bool) (bool, error) {
	cmapTable, err := ttf.CMapTable.GetBest()
	if err != nil {
		return false, nil
	}
	for key := range ttf.CMapTable {
		sub, err := ttf.CMapTable.Get(key)
		if err != nil {
			return false, nil
		}
		switch sub.(type) {
		case cmap.Format4, cmap.Format12:
		default:
			return false, nil
		}
	}

	encTable := f.SimpleEncoding(doc)
	baseName := BaseName(f.BaseFont(doc))
	usedGlyphs := map[glyph.ID]bool{0: true}
	for code := range used {
		if code > 0xFF {
			continue
		}
		var gid glyph.ID
		if name := encTable[code]; name != "" && name != ".notdef" {
			if rr := []rune(names.ToUnicode(name, baseName)); len(rr) == 1 {
				gid = cmapTable.Lookup(rr[0])
			}
		}
		if gid == 0 {
			gid = cmapTable.Lookup(rune(0xF000 + code))
		}
		if gid == 0 {
			gid = cmapTable.Lookup(rune(code))
		}
		usedGlyphs[gid] = true
	}
	if len(usedGlyphs) >= ttf.NumGlyphs() {
		return false, nil
	}

	work := ttf.Clone()
	work.Gdef = nil
	work.Gsub = nil
	work.Gpos = nil

	glyphs, _ := subsetGlyphs(usedGlyphs)
	tag := SubsetTag(glyphs, ttf.NumGlyphs())
	subsetFont := work.Subset(glyphs)

	if err := replaceEmbeddedProgram(doc, fd, subsetFont); err != nil {
		return false, err
	}
	renameSubset(doc, f, fd, tag)
	return true, nil
}

// replaceEmbeddedProgram writes a font program back into the
// descriptor's FontFile2 slot.
func replaceEmbeddedProgram(doc *pdf.Document, fd pdf.Dict, ttf *sfnt.Font) error {
	var buf bytes.Buffer
	length1, err := ttf.WriteTrueTypePDF(&buf)
	if err != nil {
		return err
	}
	stream := pdf.NewFlateStream(buf.Bytes(), pdf.Dict{
		"Length1": pdf.Integer(length1),
	})
	if ref, isRef := fd["FontFile2"].(pdf.Reference); isRef {
		doc.Put(ref, stream)
	} else {
		fd["FontFile2"] = stream
	}
	return nil
}

// renameSubset prefixes the BaseFont and FontName entries with a
// subset tag.
func renameSubset(doc *pdf.Document, f *Info, fd pdf.Dict, tag string) {
	name := pdf.Name(tag + "+" + BaseName(f.BaseFont(doc)))
	f.Dict["BaseFont"] = name
	if f.CIDFont != nil {
		f.CIDFont["BaseFont"] = name
	}
	fd["FontName"] = name
}
