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
	"crypto/sha1"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iRedPaul/pdftopdfa/content"
	"github.com/iRedPaul/pdftopdfa/pdf"
)

// The implementation limits of ISO 19005-2 clause 6.1.13.  PDF/A-2
// readers are only required to handle objects within the limits of
// ISO 32000-1 Annex C.
const (
	maxIntValue    = 2147483647
	minIntValue    = -2147483648
	maxStringBytes = 32767
	maxNameBytes   = 127
	maxQNesting    = 28
	maxCIDValue    = 65535

	minRealMagnitude = 1.175e-38
	maxRealMagnitude = 3.403e+38
)

var asciiNameRe = regexp.MustCompile(`[^A-Za-z0-9_.+-]+`)

// Lines of the cidchar and cidrange sections of a CMap program.
var (
	cidCharIntRe  = regexp.MustCompile(`^<[^>]+>\s+(-?\d+)$`)
	cidRangeIntRe = regexp.MustCompile(`^<[^>]+>\s+<[^>]+>\s+(-?\d+)$`)
	cidRangeHexRe = regexp.MustCompile(`^<[^>]+>\s+<[^>]+>\s+<([0-9A-Fa-f]+)>$`)
)

// limitStats counts the repairs of one structure-limits run.
type limitStats struct {
	strings  int
	names    int
	integers int
	reals    int
	qNesting int
}

// StructureLimits re-runs the implementation limit checks of clause
// 6.1.13.  Color profile embedding can materialize new name and string
// objects, so converters run this once more after all other stages.
func StructureLimits(doc *pdf.Document, opts *Options) ([]Warning, error) {
	return applyStructureLimits(doc, opts)
}

// applyStructureLimits enforces the implementation limits of clause
// 6.1.13 on the whole object graph and on all content streams: string
// and name lengths, integer and real ranges, and the q/Q nesting
// depth.  CID values above 65535 in embedded CMaps cannot be repaired
// and abort the run.
func applyStructureLimits(doc *pdf.Document, opts *Options) ([]Warning, error) {
	if err := checkCMapCIDOverflow(doc); err != nil {
		return nil, err
	}

	stats := &limitStats{}
	for _, ref := range doc.References() {
		obj := doc.Get(ref)
		repl, changed := sanitizeGraph(doc, obj, stats)
		if !changed {
			continue
		}
		switch obj.(type) {
		case pdf.Dict, *pdf.Stream, pdf.Array:
			// repaired in place
		default:
			doc.Put(ref, repl)
		}
	}
	sanitizeGraph(doc, doc.Trailer, stats)

	err := doc.ContentContexts(func(c *pdf.ContentContext) error {
		sanitizeContentLimits(c, stats)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	addWarning := func(n int, format string) {
		if n > 0 {
			warnings = append(warnings, Warning{"structure-limits",
				fmt.Sprintf(format, n)})
		}
	}
	addWarning(stats.strings, "truncated %d overlong strings")
	addWarning(stats.names, "rewrote %d invalid names")
	addWarning(stats.integers, "clamped %d out-of-range integers")
	addWarning(stats.reals, "normalized %d out-of-range reals")
	addWarning(stats.qNesting, "rebalanced %d nested q/Q operators")
	return warnings, nil
}

// sanitizeGraph walks one stored object.  Containers are repaired in
// place; for scalars the replacement value is returned.  References
// are not followed, every indirect object is visited through the
// document's reference list instead.
func sanitizeGraph(doc *pdf.Document, obj pdf.Object, stats *limitStats) (pdf.Object, bool) {
	switch x := obj.(type) {
	case pdf.Dict:
		return x, sanitizeDict(doc, x, stats)

	case *pdf.Stream:
		return x, sanitizeDict(doc, x.Dict, stats)

	case pdf.Array:
		changed := false
		for i, item := range x {
			if _, isRef := item.(pdf.Reference); isRef {
				continue
			}
			if repl, c := sanitizeGraph(doc, item, stats); c {
				x[i] = repl
				changed = true
			}
		}
		return x, changed

	case pdf.Name:
		if repl, ok := sanitizeName(x, stats); ok {
			return repl, true
		}
		return x, false

	case pdf.String:
		if len(x) > maxStringBytes {
			stats.strings++
			return x[:maxStringBytes], true
		}
		return x, false

	case pdf.Integer:
		if repl, ok := clampInteger(x, stats); ok {
			return repl, true
		}
		return x, false

	case pdf.Real:
		if repl, ok := clampReal(x, stats); ok {
			return repl, true
		}
		return x, false
	}
	return obj, false
}

func sanitizeDict(doc *pdf.Document, dict pdf.Dict, stats *limitStats) bool {
	changed := false
	for key := range dict {
		if repl, ok := sanitizeName(key, stats); ok {
			dict[repl] = dict[key]
			delete(dict, key)
			changed = true
		}
	}
	for key, val := range dict {
		if _, isRef := val.(pdf.Reference); isRef {
			continue
		}
		if repl, c := sanitizeGraph(doc, val, stats); c {
			dict[key] = repl
			changed = true
		}
	}
	return changed
}

// sanitizeName shortens names above 127 bytes and rewrites names which
// are not valid UTF-8, rule 6.1.8.  The replacement keeps a readable
// prefix and appends a digest of the original bytes, so distinct names
// stay distinct.
func sanitizeName(name pdf.Name, stats *limitStats) (pdf.Name, bool) {
	raw := []byte(name)
	tooLong := len(raw) > maxNameBytes
	valid := utf8.Valid(raw)
	if !tooLong && valid {
		return name, false
	}

	decoded := strings.ToValidUTF8(string(raw), "�")
	base := strings.Trim(asciiNameRe.ReplaceAllString(decoded, "_"), "_")
	if base == "" {
		base = "Name"
	}
	digest := sha1.Sum(raw)
	suffix := fmt.Sprintf("_%x", digest[:5])
	max := maxNameBytes - len(suffix)
	if len(base) > max {
		base = base[:max]
	}

	stats.names++
	return pdf.Name(base + suffix), true
}

func clampInteger(x pdf.Integer, stats *limitStats) (pdf.Integer, bool) {
	if x > maxIntValue {
		stats.integers++
		return maxIntValue, true
	}
	if x < minIntValue {
		stats.integers++
		return minIntValue, true
	}
	return x, false
}

func clampReal(x pdf.Real, stats *limitStats) (pdf.Real, bool) {
	abs := x
	if abs < 0 {
		abs = -abs
	}
	switch {
	case x != 0 && abs < minRealMagnitude:
		stats.reals++
		return 0, true
	case abs > maxRealMagnitude:
		stats.reals++
		if x > 0 {
			return maxRealMagnitude, true
		}
		return -maxRealMagnitude, true
	}
	return x, false
}

// sanitizeContentLimits rewrites one content stream: q/Q nesting
// deeper than 28 levels is flattened, operand values get the same
// limit repairs as the object graph, and re-serialization pads
// odd-length hexadecimal strings, rule 6.1.6.
func sanitizeContentLimits(c *pdf.ContentContext, stats *limitStats) {
	data, err := c.Content()
	if err != nil {
		return
	}
	ops, err := content.Parse(data)
	if err != nil {
		return
	}

	oddHex := countOddHexStrings(data)
	depth := 0
	suppressed := 0
	changed := false
	kept := ops[:0]
	for _, op := range ops {
		switch op.Operator {
		case "q":
			if depth >= maxQNesting {
				suppressed++
				stats.qNesting++
				changed = true
				continue
			}
			depth++
		case "Q":
			if suppressed > 0 {
				suppressed--
				stats.qNesting++
				changed = true
				continue
			}
			if depth > 0 {
				depth--
			}
		}
		for i, operand := range op.Operands {
			if repl, fixed := sanitizeOperand(operand, stats); fixed {
				op.Operands[i] = repl
				changed = true
			}
		}
		kept = append(kept, op)
	}

	if changed || oddHex > 0 {
		c.SetContent(content.Serialize(kept))
	}
}

// sanitizeOperand applies the limit repairs to one content stream
// operand, recursing into arrays and inline image dictionaries.
func sanitizeOperand(obj pdf.Object, stats *limitStats) (pdf.Object, bool) {
	switch x := obj.(type) {
	case pdf.Name:
		return sanitizeName(x, stats)
	case pdf.String:
		if len(x) > maxStringBytes {
			stats.strings++
			return x[:maxStringBytes], true
		}
	case pdf.Integer:
		return clampInteger(x, stats)
	case pdf.Real:
		return clampReal(x, stats)
	case pdf.Array:
		changed := false
		for i, item := range x {
			if repl, c := sanitizeOperand(item, stats); c {
				x[i] = repl
				changed = true
			}
		}
		return x, changed
	case pdf.Dict:
		changed := false
		for key := range x {
			if repl, ok := sanitizeName(key, stats); ok {
				x[repl] = x[key]
				delete(x, key)
				changed = true
			}
		}
		for key, val := range x {
			if repl, c := sanitizeOperand(val, stats); c {
				x[key] = repl
				changed = true
			}
		}
		return x, changed
	}
	return obj, false
}

// countOddHexStrings finds hexadecimal string literals with an odd
// number of digits.  They parse fine but violate the strict syntax
// rule, so the stream is re-serialized when any are present.
func countOddHexStrings(data []byte) int {
	odd := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '<' {
			continue
		}
		if i+1 < len(data) && data[i+1] == '<' {
			i++ // dict delimiter
			continue
		}
		digits := 0
		hexOnly := true
		j := i + 1
		for ; j < len(data) && data[j] != '>' && data[j] != '<'; j++ {
			c := data[j]
			switch {
			case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0:
			case c >= '0' && c <= '9',
				c >= 'a' && c <= 'f',
				c >= 'A' && c <= 'F':
				digits++
			default:
				hexOnly = false
			}
		}
		if j < len(data) && data[j] == '>' && hexOnly && digits%2 == 1 {
			odd++
		}
		i = j
	}
	return odd
}

// checkCMapCIDOverflow rejects documents whose embedded CMaps address
// CID values above 65535.  Renumbering the character collection is not
// possible without re-encoding all text, so this is a hard error.
func checkCMapCIDOverflow(doc *pdf.Document) error {
	seen := make(map[pdf.Reference]bool)
	for _, ref := range doc.References() {
		dict, ok := doc.Get(ref).(pdf.Dict)
		if !ok || seen[ref] {
			continue
		}
		seen[ref] = true
		if doc.GetName(dict["Type"]) != "Font" ||
			doc.GetName(dict["Subtype"]) != "Type0" {
			continue
		}
		stm := doc.GetStream(dict["Encoding"])
		if stm == nil {
			continue
		}
		data, err := doc.DecodeStream(stm)
		if err != nil {
			continue
		}
		if cmapHasCIDOverflow(data) {
			return fmt.Errorf("embedded CMap uses CID values above %d", maxCIDValue)
		}
	}
	return nil
}

func cmapHasCIDOverflow(data []byte) bool {
	mode := ""
	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(rawLine)
		switch {
		case strings.HasSuffix(line, "begincidchar"):
			mode = "char"
			continue
		case strings.HasSuffix(line, "endcidchar"),
			strings.HasSuffix(line, "endcidrange"):
			mode = ""
			continue
		case strings.HasSuffix(line, "begincidrange"):
			mode = "range"
			continue
		}

		switch mode {
		case "char":
			if m := cidCharIntRe.FindStringSubmatch(line); m != nil {
				if n, err := strconv.ParseInt(m[1], 10, 64); err == nil && n > maxCIDValue {
					return true
				}
			}
		case "range":
			if m := cidRangeIntRe.FindStringSubmatch(line); m != nil {
				if n, err := strconv.ParseInt(m[1], 10, 64); err == nil && n > maxCIDValue {
					return true
				}
			}
			if m := cidRangeHexRe.FindStringSubmatch(line); m != nil {
				if n, err := strconv.ParseInt(m[1], 16, 64); err == nil && n > maxCIDValue {
					return true
				}
			}
		}
	}
	return false
}
