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

// Package sanitize rewrites the parts of a PDF document which are not
// allowed in PDF/A files.  Each rule is an independent, idempotent
// pass; the registry orders the passes by their declared dependencies
// and runs them in sequence.
package sanitize

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Level identifies a PDF/A conformance level.
type Level struct {
	Part        int  // 2 or 3
	Conformance byte // 'B' or 'U'
}

// The conformance levels supported by this package.
var (
	Level2B = Level{2, 'B'}
	Level2U = Level{2, 'U'}
	Level3B = Level{3, 'B'}
	Level3U = Level{3, 'U'}
)

// ParseLevel converts a level string like "2b" or "3U" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "2b":
		return Level2B, nil
	case "2u":
		return Level2U, nil
	case "3b":
		return Level3B, nil
	case "3u":
		return Level3U, nil
	}
	return Level{}, fmt.Errorf("invalid PDF/A level %q", s)
}

func (l Level) String() string {
	return fmt.Sprintf("%d%c", l.Part, l.Conformance+'a'-'A')
}

// Unicode reports whether the level requires complete Unicode mappings
// for all used glyphs.
func (l Level) Unicode() bool {
	return l.Conformance == 'U'
}

// maxEmbedDepth bounds the recursion when embedded PDF files are
// converted in place, so self-embedding documents terminate.
const maxEmbedDepth = 2

// Options configures a sanitization run.  The zero value is not
// usable; use NewOptions.
type Options struct {
	Level Level

	// ReplaceCalibrated enables the CalGray/CalRGB to ICCBased
	// rewrite done by the color passes of the converter.
	ReplaceCalibrated bool

	// ConvertEmbedded converts an embedded PDF file to PDF/A.  It is
	// consulted at levels 2b and 2u before an embedded PDF is
	// removed.  May be nil.
	ConvertEmbedded func(data []byte, depth int) ([]byte, error)

	// EmbedDepth is the current recursion depth of ConvertEmbedded.
	EmbedDepth int

	Log *slog.Logger
}

// NewOptions returns Options with the defaults for the given level.
func NewOptions(level Level) *Options {
	return &Options{
		Level:             level,
		ReplaceCalibrated: true,
		Log:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Warning records a non-fatal problem found and repaired (or left in
// place) by a pass.
type Warning struct {
	Pass    string
	Message string
}

func (w Warning) String() string {
	return w.Pass + ": " + w.Message
}

// Pass is one sanitization rule.  Apply must be idempotent: running a
// pass on its own output must not change the document again.
type Pass interface {
	Name() string
	RunsAfter() []string
	Apply(doc *pdf.Document, opts *Options) ([]Warning, error)
}

// Registry holds a set of passes and computes their execution order.
type Registry struct {
	passes []Pass
	byName map[string]Pass
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Pass)}
}

// Register adds a pass.  Registering two passes with the same name is
// an error found at ordering time.
func (r *Registry) Register(p Pass) {
	r.passes = append(r.passes, p)
	if _, ok := r.byName[p.Name()]; !ok {
		r.byName[p.Name()] = p
	} else {
		r.byName[p.Name()] = nil // duplicate marker
	}
}

// Order returns the passes sorted so that every pass runs after the
// passes it names in RunsAfter.  Ties are broken by registration
// order, so the result is deterministic.
func (r *Registry) Order() ([]Pass, error) {
	for name, p := range r.byName {
		if p == nil {
			return nil, fmt.Errorf("duplicate pass %q", name)
		}
	}

	blocked := make(map[string]int)
	after := make(map[string][]string)
	for _, p := range r.passes {
		for _, dep := range p.RunsAfter() {
			if _, ok := r.byName[dep]; !ok {
				return nil, fmt.Errorf("pass %q runs after unknown pass %q",
					p.Name(), dep)
			}
			blocked[p.Name()]++
			after[dep] = append(after[dep], p.Name())
		}
	}

	var order []Pass
	done := make(map[string]bool)
	for len(order) < len(r.passes) {
		progress := false
		for _, p := range r.passes {
			name := p.Name()
			if done[name] || blocked[name] > 0 {
				continue
			}
			order = append(order, p)
			done[name] = true
			progress = true
			for _, succ := range after[name] {
				blocked[succ]--
			}
		}
		if !progress {
			return nil, fmt.Errorf("cycle in pass dependencies")
		}
	}
	return order, nil
}

// Run executes all passes of the registry in dependency order.
// Warnings accumulate across passes; the first pass error aborts the
// run.
func (r *Registry) Run(doc *pdf.Document, opts *Options) ([]Warning, error) {
	order, err := r.Order()
	if err != nil {
		return nil, err
	}
	var warnings []Warning
	for _, p := range order {
		ww, err := p.Apply(doc, opts)
		warnings = append(warnings, ww...)
		if err != nil {
			return warnings, fmt.Errorf("pass %s: %w", p.Name(), err)
		}
		if len(ww) > 0 {
			opts.Log.Debug("sanitizer pass finished",
				"pass", p.Name(), "warnings", len(ww))
		}
	}
	return warnings, nil
}

// DefaultRegistry returns a registry holding the full pass catalog.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range catalog() {
		r.Register(p)
	}
	return r
}

// Run executes the full pass catalog on the document.
func Run(doc *pdf.Document, opts *Options) ([]Warning, error) {
	return DefaultRegistry().Run(doc, opts)
}

// pass is a convenience implementation of the Pass interface.
type pass struct {
	name  string
	deps  []string
	apply func(doc *pdf.Document, opts *Options) ([]Warning, error)
}

func (p *pass) Name() string        { return p.name }
func (p *pass) RunsAfter() []string { return p.deps }
func (p *pass) Apply(doc *pdf.Document, opts *Options) ([]Warning, error) {
	return p.apply(doc, opts)
}

// catalog lists all passes with their ordering constraints.  The
// declared edges reproduce the required pipeline: stream filters
// first, then object-level rules, then font rules, then embedded
// files and the structure limits.
func catalog() []Pass {
	return []Pass{
		&pass{"filters", nil, applyFilters},
		&pass{"jbig2", []string{"filters"}, applyJBIG2},
		&pass{"jpx", []string{"filters"}, applyJPX},
		&pass{"page-boxes", nil, applyPageBoxes},
		&pass{"javascript", nil, applyJavaScript},
		&pass{"actions", []string{"javascript"}, applyActions},
		&pass{"destinations", []string{"actions"}, applyDestinations},
		&pass{"xfa", nil, applyXFA},
		&pass{"catalog", []string{"actions"}, applyCatalog},
		&pass{"signatures", []string{"catalog"}, applySignatures},
		&pass{"annotations", []string{"actions", "signatures"}, applyAnnotations},
		&pass{"xobjects", []string{"filters"}, applyXObjects},
		&pass{"extgstate", nil, applyExtGState},
		&pass{"optional-content", []string{"catalog"}, applyOptionalContent},
		&pass{"content-streams", []string{"filters", "xobjects"}, applyContentStreams},
		&pass{"font-structure", nil, applyFontStructure},
		&pass{"font-embedding", []string{"font-structure"}, applyEmbedMissingFonts},
		&pass{"cidfont", []string{"font-structure", "font-embedding"}, applyCIDFont},
		&pass{"truetype-encoding", []string{"font-structure", "font-embedding"}, applyTrueTypeEncoding},
		&pass{"glyph-coverage", []string{"cidfont", "truetype-encoding"}, applyGlyphCoverage},
		&pass{"font-widths", []string{"font-structure", "truetype-encoding", "glyph-coverage"}, applyFontWidths},
		&pass{"tounicode", []string{"font-structure", "font-embedding"}, applyToUnicode},
		&pass{"notdef-usage", []string{"tounicode", "content-streams", "glyph-coverage"}, applyNotdefUsage},
		&pass{"actual-text", []string{"tounicode", "notdef-usage"}, applyActualText},
		&pass{"font-subsetting", []string{"font-widths", "notdef-usage"}, applyFontSubsetting},
		&pass{"embedded-files", []string{"filters", "annotations"}, applyEmbeddedFiles},
		&pass{"structure-limits", []string{
			"content-streams", "embedded-files", "tounicode", "font-widths",
			"actual-text", "font-subsetting",
		}, applyStructureLimits},
	}
}
