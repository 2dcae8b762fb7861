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

// Package pdftopdfa converts PDF documents to PDF/A-2 or PDF/A-3
// (ISO 19005-2/3) for long-term archiving.
package pdftopdfa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/iRedPaul/pdftopdfa/color"
	"github.com/iRedPaul/pdftopdfa/metadata"
	"github.com/iRedPaul/pdftopdfa/ocr"
	"github.com/iRedPaul/pdftopdfa/pdf"
	"github.com/iRedPaul/pdftopdfa/sanitize"
	"github.com/iRedPaul/pdftopdfa/verapdf"
)

// Level identifies a PDF/A conformance level.
type Level = sanitize.Level

// The conformance levels supported by this package.
var (
	Level2B = sanitize.Level2B
	Level2U = sanitize.Level2U
	Level3B = sanitize.Level3B
	Level3U = sanitize.Level3U
)

// ParseLevel converts a level string like "2b" or "3U" to a Level.
func ParseLevel(s string) (Level, error) {
	return sanitize.ParseLevel(s)
}

// Options configures a conversion.  The zero value is not usable; use
// NewOptions.
type Options struct {
	// Level is the target conformance level.
	Level Level

	// Validate runs veraPDF on the output file.  A non-compliant
	// result sets Result.ValidationFailed but does not fail the
	// conversion.
	Validate bool

	// Validator checks files for PDF/A conformance.  It is used for
	// the already-valid pre-check and, when Validate is set, for the
	// output file.  A nil Validator with Validate set uses the
	// veraPDF command line tool; a nil Validator without Validate
	// disables the pre-check.
	Validator verapdf.Validator

	// OCR adds a text layer to scanned pages.  Nil disables OCR.
	OCR          ocr.Engine
	OCRLanguages []string
	OCRQuality   ocr.Quality

	// ForceOCR re-recognizes pages which already carry text.
	ForceOCR bool

	// ReplaceCalibrated rewrites CalGray and CalRGB color spaces as
	// ICCBased.
	ReplaceCalibrated bool

	// Overwrite allows replacing existing output files.
	Overwrite bool

	// Workers is the number of documents ConvertFiles processes in
	// parallel.  Values below 1 mean 1.
	Workers int

	// OnProgress, if set, is called by the batch functions before
	// each document.
	OnProgress func(done, total int, name string)

	Log *slog.Logger
}

// NewOptions returns Options with the defaults for the given level.
func NewOptions(level Level) *Options {
	return &Options{
		Level:             level,
		ReplaceCalibrated: true,
	}
}

func (o *Options) log() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Result describes the outcome of one conversion.
type Result struct {
	Success    bool
	InputPath  string
	OutputPath string
	Level      Level

	// Warnings lists non-fatal problems found and repaired.
	Warnings []string

	ProcessingTime time.Duration

	// Err is set when Success is false.
	Err error

	// ValidationFailed reports that veraPDF found the output
	// non-compliant.  The output file is still written.
	ValidationFailed bool
}

// Convert converts the PDF file at inputPath to a PDF/A file at
// outputPath.  The returned Result is never nil; on failure Result.Err
// and the returned error are the same value.
//
// Encrypted input is rejected with *UnsupportedError before any output
// is written.
func Convert(ctx context.Context, inputPath, outputPath string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = NewOptions(Level3B)
	}
	start := time.Now()
	res := &Result{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Level:      opts.Level,
	}
	err := convert(ctx, res, opts)
	res.ProcessingTime = time.Since(start)
	if err != nil {
		res.Err = err
		return res, err
	}
	res.Success = true
	return res, nil
}

func convert(ctx context.Context, res *Result, opts *Options) error {
	log := opts.log()
	log.Info("starting conversion",
		"input", res.InputPath,
		"output", res.OutputPath,
		"level", opts.Level.String())

	data, err := os.ReadFile(res.InputPath)
	if err != nil {
		return &ConversionError{Msg: "reading " + res.InputPath, Err: err}
	}
	doc, err := pdf.ReadBytes(data)
	if err != nil {
		if errors.Is(err, pdf.ErrEncrypted) {
			return &UnsupportedError{
				Path: res.InputPath,
				Msg:  "document is encrypted and cannot be converted",
				Err:  err,
			}
		}
		return &ConversionError{Msg: "opening " + res.InputPath, Err: err}
	}

	skipped, err := trySkip(ctx, res, doc, opts)
	if err != nil || skipped {
		return err
	}

	if opts.OCR != nil && (opts.ForceOCR || ocr.NeedsOCR(doc, 0)) {
		ocrOpts := &ocr.Options{
			Languages: opts.OCRLanguages,
			Quality:   opts.OCRQuality,
			Force:     opts.ForceOCR,
			Log:       log,
		}
		n, err := opts.OCR.AddTextLayer(ctx, doc, ocrOpts)
		if err != nil {
			return &OCRError{Err: err}
		}
		if n > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("OCR text layer added to %d page(s)", n))
		}
	}

	warn := func(msg string) { res.Warnings = append(res.Warnings, msg) }
	if err := transform(doc, opts, 0, warn); err != nil {
		return err
	}

	if doc.Version != pdf.V1_7 {
		direction := "upgraded"
		if doc.Version > pdf.V1_7 {
			direction = "downgraded"
		}
		warn(fmt.Sprintf("PDF version %s from %s to 1.7", direction, doc.Version))
	}

	if dir := filepath.Dir(res.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ConversionError{Msg: "creating output directory", Err: err}
		}
	}
	if err := doc.WriteFile(res.OutputPath, &pdf.WriteOptions{Version: pdf.V1_7}); err != nil {
		return &ConversionError{Msg: "saving " + res.OutputPath, Err: err}
	}

	// ISO 19005-2, 6.1.2 and 6.1.3
	ensureBinaryComment(res.OutputPath, log)
	truncateTrailingData(res.OutputPath, log)
	if !opts.Validate {
		verifyFileStructure(res.OutputPath, log)
	}

	if opts.Validate {
		validateOutput(ctx, res, opts)
	}

	log.Info("conversion finished", "output", res.OutputPath)
	return nil
}

// conformanceRank orders conformance levels within one part.
func conformanceRank(c byte) int {
	switch c {
	case 'B':
		return 1
	case 'U':
		return 2
	case 'A':
		return 3
	}
	return 0
}

// trySkip checks whether the input already conforms to the target
// level or better.  PDF/A parts are not ordered relative to each
// other, so a different part always converts.  The claim is only
// trusted when the validator confirms it.
func trySkip(ctx context.Context, res *Result, doc *pdf.Document, opts *Options) (bool, error) {
	part, conf, ok := metadata.DetectLevel(doc)
	if !ok || opts.Validator == nil {
		return false, nil
	}
	if part != opts.Level.Part || conformanceRank(conf) < conformanceRank(opts.Level.Conformance) {
		return false, nil
	}
	log := opts.log()

	flavour := fmt.Sprintf("%d%c", part, conf+'a'-'A')
	report, err := opts.Validator.Validate(ctx, res.InputPath, flavour)
	if err != nil {
		log.Debug("pre-check validation unavailable", "error", err)
		return false, nil
	}
	if !report.Compliant {
		log.Info("document claims PDF/A but fails validation, converting",
			"level", flavour)
		return false, nil
	}

	log.Info("skipping conversion, input is already valid PDF/A", "level", flavour)
	same, err := samePath(res.InputPath, res.OutputPath)
	if err == nil && !same {
		if _, err := os.Stat(res.OutputPath); err == nil && !opts.Overwrite {
			return false, &ConversionError{Msg: "output file already exists: " + res.OutputPath}
		}
		if dir := filepath.Dir(res.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return false, &ConversionError{Msg: "creating output directory", Err: err}
			}
		}
		if err := copyFile(res.InputPath, res.OutputPath); err != nil {
			return false, &ConversionError{Msg: "copying " + res.InputPath, Err: err}
		}
	}
	res.Warnings = append(res.Warnings,
		"conversion skipped: input is already valid PDF/A-"+flavour)
	return true, nil
}

// transform applies all in-memory conversion stages.  It is shared
// between top-level conversions and the re-conversion of embedded PDF
// files.
func transform(doc *pdf.Document, opts *Options, depth int, warn func(string)) error {
	log := opts.log()

	sopts := sanitize.NewOptions(opts.Level)
	sopts.ReplaceCalibrated = opts.ReplaceCalibrated
	sopts.EmbedDepth = depth
	sopts.Log = log
	sopts.ConvertEmbedded = func(data []byte, depth int) ([]byte, error) {
		return convertEmbedded(data, depth, opts)
	}

	warnings, err := sanitize.Run(doc, sopts)
	if err != nil {
		return &ConversionError{Msg: "sanitizing document", Err: err}
	}
	for _, w := range warnings {
		warn(w.String())
	}

	if err := metadata.Sync(doc, opts.Level.Part, opts.Level.Conformance, time.Now(), log); err != nil {
		return &ConversionError{Msg: "synchronizing metadata", Err: err}
	}

	applyExtensions(doc, opts.Level, log)

	if err := embedColorProfiles(doc, opts, warn); err != nil {
		return err
	}

	// Color profile embedding materializes new name and string
	// objects, so the structural limits are checked once more.
	warnings, err = sanitize.StructureLimits(doc, sopts)
	if err != nil {
		return &ConversionError{Msg: "enforcing structural limits", Err: err}
	}
	for _, w := range warnings {
		warn(w.String())
	}
	return nil
}

// convertEmbedded converts an embedded PDF file in memory.  At levels
// 2b and 2u embedded files must themselves be PDF/A.
func convertEmbedded(data []byte, depth int, opts *Options) ([]byte, error) {
	doc, err := pdf.ReadBytes(data)
	if err != nil {
		return nil, err
	}
	if err := transform(doc, opts, depth, func(string) {}); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := doc.Write(buf, &pdf.WriteOptions{Version: pdf.V1_7}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// embedColorProfiles repairs the color space usage of the document and
// embeds the ICC profile referenced by the OutputIntent.
func embedColorProfiles(doc *pdf.Document, opts *Options, warn func(string)) error {
	log := opts.log()

	if opts.ReplaceCalibrated {
		n, err := color.ReplaceCalibrated(doc)
		if err != nil {
			return &ConversionError{Msg: "replacing calibrated color spaces", Err: err}
		}
		if n > 0 {
			log.Debug("calibrated color spaces replaced", "count", n)
		}
	}
	if _, err := color.RepairIndexed(doc, log); err != nil {
		return &ConversionError{Msg: "repairing indexed color spaces", Err: err}
	}
	if _, err := color.RepairLab(doc); err != nil {
		return &ConversionError{Msg: "repairing Lab color spaces", Err: err}
	}
	if _, err := color.CompleteColorants(doc); err != nil {
		return &ConversionError{Msg: "completing DeviceN colorants", Err: err}
	}
	if _, err := color.UnifySeparations(doc, log); err != nil {
		return &ConversionError{Msg: "unifying separations", Err: err}
	}

	analysis, err := color.Detect(doc)
	if err != nil {
		return &ConversionError{Msg: "analyzing color usage", Err: err}
	}
	if err := color.FixDeviceSpaces(doc, analysis); err != nil {
		return &ConversionError{Msg: "fixing device color spaces", Err: err}
	}
	if err := color.EnsureOutputIntent(doc, analysis, log); err != nil {
		return &ConversionError{Msg: "embedding output intent", Err: err}
	}

	var spaces []string
	if analysis.DeviceGray {
		spaces = append(spaces, "DeviceGray")
	}
	if analysis.DeviceRGB {
		spaces = append(spaces, "DeviceRGB")
	}
	if analysis.DeviceCMYK {
		spaces = append(spaces, "DeviceCMYK")
	}
	if len(spaces) > 1 {
		msg := "multiple device color spaces handled: " + spaces[0]
		for _, s := range spaces[1:] {
			msg += ", " + s
		}
		warn(msg)
	}
	return nil
}

// applyExtensions maintains the catalog Extensions dictionary.
// PDF/A-2 and PDF/A-3 are based on PDF 1.7, so non-ADBE extension
// entries (PDF 2.0) are removed.  PDF/A-3 additionally declares
// ISO 32000-1 extension level 3.
func applyExtensions(doc *pdf.Document, level Level, log *slog.Logger) {
	catalog := doc.Catalog()
	if catalog == nil {
		return
	}
	extensions := doc.GetDict(catalog["Extensions"])

	for key := range extensions {
		if key == "ADBE" {
			continue
		}
		delete(extensions, key)
		log.Debug("removed extension entry", "name", string(key))
	}

	if level.Part != 3 {
		if len(extensions) == 0 {
			delete(catalog, "Extensions")
		}
		return
	}

	if adbe := doc.GetDict(extensions["ADBE"]); adbe != nil {
		if lvl, ok := doc.GetInteger(adbe["ExtensionLevel"]); ok && lvl >= 3 {
			return
		}
	}
	if extensions == nil {
		extensions = pdf.Dict{}
		catalog["Extensions"] = extensions
	}
	extensions["ADBE"] = pdf.Dict{
		"BaseVersion":    pdf.Name("1.7"),
		"ExtensionLevel": pdf.Integer(3),
	}
	log.Debug("added ADBE extension", "level", 3)
}

// validateOutput runs the validator on the finished file.  Integration
// failures only produce a warning; a non-compliant report sets
// ValidationFailed.
func validateOutput(ctx context.Context, res *Result, opts *Options) {
	log := opts.log()
	v := opts.Validator
	if v == nil {
		v = &verapdf.CLI{Log: log}
	}

	report, err := v.Validate(ctx, res.OutputPath, opts.Level.String())
	if err != nil {
		log.Warn("validation not available", "error", err)
		res.Warnings = append(res.Warnings, "validation skipped: "+err.Error())
		return
	}
	if report.Compliant {
		return
	}
	res.ValidationFailed = true
	for _, rule := range report.Rules {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("validation: %s (clause %s, %d failed check(s))",
				rule.Description, rule.Clause, rule.Failures))
	}
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
