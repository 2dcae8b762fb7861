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

package tounicode

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode/utf16"
)

// Write serializes the CMap in the form required for the /ToUnicode
// entry of a font dictionary.
func (info *Info) Write(w io.Writer) error {
	tmpl := template.Must(template.New("CMap").Funcs(template.FuncMap{
		"SingleChunks": singleChunks,
		"Single":       info.formatSingle,
		"RangeChunks":  rangeChunks,
		"Range":        info.formatRange,
	}).Parse(toUnicodeTmpl))
	return tmpl.Execute(w, info)
}

// CodeSpace returns the codespacerange line of the CMap.
func (info *Info) CodeSpace() string {
	if info.TwoByte {
		return "<0000> <FFFF>"
	}
	return "<00> <FF>"
}

func (info *Info) formatCharCode(code uint32) string {
	if info.TwoByte {
		return fmt.Sprintf("<%04x>", code)
	}
	return fmt.Sprintf("<%02x>", code&0xFF)
}

func formatText(rr []rune) string {
	var text []byte
	for _, x := range utf16.Encode(rr) {
		text = append(text, byte(x>>8), byte(x))
	}
	return fmt.Sprintf("<%02X>", text)
}

func (info *Info) formatSingle(s Single) string {
	return fmt.Sprintf("%s %s", info.formatCharCode(s.Code), formatText(s.Value))
}

func (info *Info) formatRange(r Range) string {
	a := info.formatCharCode(r.First)
	b := info.formatCharCode(r.Last)
	if len(r.Values) == 1 {
		return fmt.Sprintf("%s %s %s", a, b, formatText(r.Values[0]))
	}
	var texts []string
	for _, v := range r.Values {
		texts = append(texts, formatText(v))
	}
	return fmt.Sprintf("%s %s [%s]", a, b, strings.Join(texts, " "))
}

// CMap operator blocks hold at most 100 entries.
const chunkSize = 100

func singleChunks(x []Single) [][]Single {
	var res [][]Single
	for len(x) >= chunkSize {
		res = append(res, x[:chunkSize])
		x = x[chunkSize:]
	}
	if len(x) > 0 {
		res = append(res, x)
	}
	return res
}

func rangeChunks(x []Range) [][]Range {
	var res [][]Range
	for len(x) >= chunkSize {
		res = append(res, x[:chunkSize])
		x = x[chunkSize:]
	}
	if len(x) > 0 {
		res = append(res, x)
	}
	return res
}

var toUnicodeTmpl = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo <<
/Registry (Adobe)
/Ordering (UCS)
/Supplement 0
>> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
{{.CodeSpace}}
endcodespacerange
{{range SingleChunks .Singles -}}
{{len .}} beginbfchar
{{range . -}}
{{Single .}}
{{end -}}
endbfchar
{{end -}}
{{range RangeChunks .Ranges -}}
{{len .}} beginbfrange
{{range . -}}
{{Range .}}
{{end -}}
endbfrange
{{end -}}
endcmap
CMapName currentdict /CMap defineresource pop
end
end
`
