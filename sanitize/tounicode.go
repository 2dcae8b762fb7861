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

	"github.com/iRedPaul/pdftopdfa/font"
	"github.com/iRedPaul/pdftopdfa/font/tounicode"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// applyToUnicode repairs ToUnicode CMaps.  At all levels, mappings to
// U+0000, U+FEFF, U+FFFE or lone surrogates are replaced with private
// use area values per rule 6.2.11.7.  At the U levels every used code
// additionally gets a Unicode mapping.
func applyToUnicode(doc *pdf.Document, opts *Options) ([]Warning, error) {
	fonts, err := font.Discover(doc)
	if err != nil {
		return nil, err
	}

	fixed := 0
	for _, f := range fonts {
		ok, err := fixForbiddenUnicode(doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			fixed++
		}
	}

	var warnings []Warning
	if fixed > 0 {
		warnings = append(warnings, Warning{"tounicode",
			fmt.Sprintf("replaced forbidden Unicode values in %d fonts", fixed)})
	}

	if opts.Level.Unicode() {
		n, err := font.EnsureToUnicode(doc, opts.Log)
		if err != nil {
			return warnings, err
		}
		if n > 0 {
			warnings = append(warnings, Warning{"tounicode",
				fmt.Sprintf("completed Unicode mappings for %d fonts", n)})
		}
	}
	return warnings, nil
}

// fixForbiddenUnicode rewrites a font's ToUnicode CMap when it maps
// codes to values text extraction cannot use.  The affected codes keep
// a distinct mapping into the supplementary private use area.
func fixForbiddenUnicode(doc *pdf.Document, f *font.Info) (bool, error) {
	stm := doc.GetStream(f.Dict["ToUnicode"])
	if stm == nil {
		return false, nil
	}
	data, err := doc.DecodeStream(stm)
	if err != nil {
		return false, nil
	}
	info, err := tounicode.Read(data)
	if err != nil {
		return false, nil
	}

	m := info.All()
	dirty := false
	for code, rr := range m {
		if tounicode.IsForbidden(rr) {
			m[code] = []rune{rune(0xF0000 + code)}
			dirty = true
		}
	}
	if !dirty {
		return false, nil
	}

	var buf bytes.Buffer
	if err := tounicode.New(m, f.Subtype == "Type0").Write(&buf); err != nil {
		return false, err
	}
	stream := pdf.NewFlateStream(buf.Bytes(), nil)
	if ref, isRef := f.Dict["ToUnicode"].(pdf.Reference); isRef {
		doc.Put(ref, stream)
	} else {
		ref := doc.Alloc()
		doc.Put(ref, stream)
		f.Dict["ToUnicode"] = ref
	}
	return true, nil
}

// applyFontWidths reconciles the width entries of the font
// dictionaries with the advance widths of the embedded font programs,
// rule 6.2.11.5.
func applyFontWidths(doc *pdf.Document, opts *Options) ([]Warning, error) {
	n, err := font.ValidateWidths(doc, opts.Log)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return []Warning{{"font-widths",
		fmt.Sprintf("corrected widths in %d fonts", n)}}, nil
}

// applyEmbedMissingFonts embeds substitute font programs for fonts
// used by the document but not embedded in it, rule 6.2.11.4.
func applyEmbedMissingFonts(doc *pdf.Document, opts *Options) ([]Warning, error) {
	n, err := font.EmbedMissing(doc, opts.Log)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return []Warning{{"font-embedding",
		fmt.Sprintf("embedded substitute programs for %d fonts", n)}}, nil
}

// applyFontSubsetting trims embedded font programs down to the glyphs
// the document actually uses.
func applyFontSubsetting(doc *pdf.Document, opts *Options) ([]Warning, error) {
	n, err := font.SubsetEmbedded(doc, opts.Log)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return []Warning{{"font-subsetting",
		fmt.Sprintf("subset %d embedded fonts", n)}}, nil
}
