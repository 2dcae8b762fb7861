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

package pdftopdfa

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iRedPaul/pdftopdfa/metadata"
	"github.com/iRedPaul/pdftopdfa/ocr"
	"github.com/iRedPaul/pdftopdfa/pdf"
	"github.com/iRedPaul/pdftopdfa/verapdf"
)

func testOptions(level Level) *Options {
	opts := NewOptions(level)
	opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

// samplePDF writes a minimal one-page document and returns its path.
func samplePDF(t *testing.T, dir, name string) string {
	t.Helper()

	doc := pdf.NewDocument(pdf.V1_4)

	contentRef := doc.Alloc()
	doc.Put(contentRef, pdf.NewFlateStream([]byte("q 1 0 0 1 72 720 cm Q"), nil))

	pagesRef := doc.Alloc()
	pageRef := doc.Alloc()
	doc.Put(pageRef, pdf.Dict{
		"Type":      pdf.Name("Page"),
		"Parent":    pagesRef,
		"Resources": pdf.Dict{},
		"Contents":  contentRef,
		"MediaBox":  pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(612), pdf.Integer(792)},
	})
	doc.Put(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  pdf.Array{pageRef},
		"Count": pdf.Integer(1),
	})

	catalogRef := doc.Alloc()
	doc.Put(catalogRef, pdf.Dict{
		"Type":  pdf.Name("Catalog"),
		"Pages": pagesRef,
	})
	doc.Trailer["Root"] = catalogRef

	path := filepath.Join(dir, name)
	if err := doc.WriteFile(path, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

type fakeValidator struct {
	compliant bool
	rules     []verapdf.RuleResult
	err       error

	calls       int
	lastPath    string
	lastFlavour string
}

func (v *fakeValidator) Validate(ctx context.Context, path, flavour string) (*verapdf.Report, error) {
	v.calls++
	v.lastPath = path
	v.lastFlavour = flavour
	if v.err != nil {
		return nil, v.err
	}
	return &verapdf.Report{
		Compliant:   v.compliant,
		Flavour:     flavour,
		FailedRules: len(v.rules),
		Rules:       v.rules,
	}, nil
}

func TestConvertCreatesPDFA(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	out := filepath.Join(dir, "doc_pdfa.pdf")

	res, err := Convert(context.Background(), in, out, testOptions(Level3B))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("conversion not successful")
	}
	if res.ProcessingTime <= 0 {
		t.Error("processing time not recorded")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.7")) {
		t.Errorf("output header = %q", data[:8])
	}
	if !hasBinaryComment(data[:64]) {
		t.Error("binary marker comment missing")
	}
	rest := data[bytes.LastIndex(data, []byte("%%EOF"))+len("%%EOF"):]
	if len(bytes.TrimRight(rest, "\r\n")) != 0 {
		t.Errorf("trailing data after %%%%EOF: %q", rest)
	}

	doc, err := pdf.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.ID) != 2 {
		t.Errorf("got %d /ID elements, want 2", len(doc.ID))
	}
	part, conf, ok := metadata.DetectLevel(doc)
	if !ok || part != 3 || conf != 'B' {
		t.Errorf("detected level %d%c (ok=%v), want 3B", part, conf, ok)
	}
}

func TestConvertVersionWarning(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf") // written as PDF 1.4
	out := filepath.Join(dir, "out.pdf")

	res, err := Convert(context.Background(), in, out, testOptions(Level2B))
	if err != nil {
		t.Fatal(err)
	}
	var have bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "upgraded from 1.4 to 1.7") {
			have = true
		}
	}
	if !have {
		t.Errorf("version upgrade warning missing: %v", res.Warnings)
	}
}

func TestConvertEncrypted(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")

	data, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data,
		[]byte("trailer\n<<"),
		[]byte("trailer\n<<\n/Encrypt 1 0 R"), 1)
	enc := filepath.Join(dir, "enc.pdf")
	if err := os.WriteFile(enc, data, 0o666); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "enc_pdfa.pdf")
	res, err := Convert(context.Background(), enc, out, testOptions(Level2B))
	if err == nil {
		t.Fatal("encrypted input accepted")
	}
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("got %T, want *UnsupportedError", err)
	}
	if res.Success || res.Err == nil {
		t.Error("result must record the failure")
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Error("output file written for rejected input")
	}
}

func TestConvertMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Convert(context.Background(),
		filepath.Join(dir, "missing.pdf"), filepath.Join(dir, "out.pdf"),
		testOptions(Level2B))
	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Errorf("got %T, want *ConversionError", err)
	}
}

func TestConvertSkipsValidInput(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	valid := filepath.Join(dir, "valid.pdf")
	if _, err := Convert(context.Background(), in, valid, testOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	v := &fakeValidator{compliant: true}
	opts := testOptions(Level2B)
	opts.Validator = v
	out := filepath.Join(dir, "copy.pdf")
	res, err := Convert(context.Background(), valid, out, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("skip must count as success")
	}
	if v.calls != 1 || v.lastFlavour != "2b" {
		t.Errorf("validator calls = %d, flavour = %q", v.calls, v.lastFlavour)
	}
	var skipped bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "already valid") {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("skip warning missing: %v", res.Warnings)
	}

	want, _ := os.ReadFile(valid)
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, got) {
		t.Error("output is not a copy of the input")
	}
}

func TestConvertRejectedClaim(t *testing.T) {
	// a document claiming PDF/A which fails validation is converted
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	claimed := filepath.Join(dir, "claimed.pdf")
	if _, err := Convert(context.Background(), in, claimed, testOptions(Level2B)); err != nil {
		t.Fatal(err)
	}

	v := &fakeValidator{compliant: false}
	opts := testOptions(Level2B)
	opts.Validator = v
	out := filepath.Join(dir, "out.pdf")
	res, err := Convert(context.Background(), claimed, out, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range res.Warnings {
		if strings.Contains(w, "skipped") {
			t.Errorf("conversion was skipped: %v", res.Warnings)
		}
	}
	if _, err := pdf.ReadFile(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestConvertValidationFailure(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	out := filepath.Join(dir, "out.pdf")

	opts := testOptions(Level2B)
	opts.Validate = true
	opts.Validator = &fakeValidator{
		compliant: false,
		rules: []verapdf.RuleResult{
			{Clause: "6.2.11.4", TestNumber: "1", Description: "Fonts shall be embedded", Failures: 2},
		},
	}

	res, err := Convert(context.Background(), in, out, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Error("validation failure must not fail the conversion")
	}
	if !res.ValidationFailed {
		t.Error("ValidationFailed not set")
	}
	var have bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "Fonts shall be embedded") {
			have = true
		}
	}
	if !have {
		t.Errorf("rule warning missing: %v", res.Warnings)
	}
}

func TestConvertValidatorUnavailable(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	out := filepath.Join(dir, "out.pdf")

	opts := testOptions(Level2B)
	opts.Validate = true
	opts.Validator = &fakeValidator{err: &verapdf.Error{Msg: "not installed"}}

	res, err := Convert(context.Background(), in, out, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.ValidationFailed {
		t.Error("missing validator must not fail the conversion")
	}
	var have bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "validation skipped") {
			have = true
		}
	}
	if !have {
		t.Errorf("skip warning missing: %v", res.Warnings)
	}
}

func TestConvertForcedOCR(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	out := filepath.Join(dir, "out.pdf")

	engine := &ocr.Fake{Pages: 1}
	opts := testOptions(Level2B)
	opts.OCR = engine
	opts.ForceOCR = true
	opts.OCRLanguages = []string{"deu", "eng"}

	res, err := Convert(context.Background(), in, out, opts)
	if err != nil {
		t.Fatal(err)
	}
	if engine.Calls != 1 {
		t.Fatalf("engine calls = %d, want 1", engine.Calls)
	}
	if !engine.LastOptions.Force {
		t.Error("force flag not passed to the engine")
	}
	var have bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "OCR text layer") {
			have = true
		}
	}
	if !have {
		t.Errorf("OCR warning missing: %v", res.Warnings)
	}
}

func TestConvertOCRSkippedForTextPages(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	out := filepath.Join(dir, "out.pdf")

	engine := &ocr.Fake{}
	opts := testOptions(Level2B)
	opts.OCR = engine

	if _, err := Convert(context.Background(), in, out, opts); err != nil {
		t.Fatal(err)
	}
	if engine.Calls != 0 {
		t.Error("OCR engine invoked for a document without scanned pages")
	}
}

func TestConvertFilesOverwriteProtection(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(out, []byte("existing"), 0o666); err != nil {
		t.Fatal(err)
	}

	results := ConvertFiles(context.Background(),
		[]Job{{Input: in, Output: out}}, testOptions(Level2B))
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	if res.Success || res.Err == nil {
		t.Fatal("existing output overwritten")
	}
	if !strings.Contains(res.Err.Error(), "already exists") {
		t.Errorf("error = %v", res.Err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "existing" {
		t.Error("existing output modified")
	}

	opts := testOptions(Level2B)
	opts.Overwrite = true
	results = ConvertFiles(context.Background(),
		[]Job{{Input: in, Output: out}}, opts)
	if !results[0].Success {
		t.Errorf("overwrite failed: %v", results[0].Err)
	}
}

func TestConvertFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	in := samplePDF(t, dir, "doc.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ConvertFiles(ctx, []Job{
		{Input: in, Output: filepath.Join(dir, "a.pdf")},
		{Input: in, Output: filepath.Join(dir, "b.pdf")},
	}, testOptions(Level2B))
	if len(results) != 0 {
		t.Errorf("got %d results after cancellation, want 0", len(results))
	}
}

func TestConvertFilesProgress(t *testing.T) {
	dir := t.TempDir()
	a := samplePDF(t, dir, "a.pdf")
	b := samplePDF(t, dir, "b.pdf")

	var names []string
	opts := testOptions(Level2B)
	opts.OnProgress = func(done, total int, name string) {
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
		names = append(names, name)
	}

	ConvertFiles(context.Background(), []Job{
		{Input: a, Output: filepath.Join(dir, "a_out.pdf")},
		{Input: b, Output: filepath.Join(dir, "b_out.pdf")},
	}, opts)
	if len(names) != 2 {
		t.Errorf("progress callback invoked %d times, want 2", len(names))
	}
}

func TestConvertDirectory(t *testing.T) {
	dir := t.TempDir()
	samplePDF(t, dir, "one.pdf")
	samplePDF(t, dir, "two.pdf")
	samplePDF(t, dir, "done_pdfa.pdf") // earlier output, must be skipped

	results, err := ConvertDirectory(context.Background(), dir, "", false, testOptions(Level2B))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, res := range results {
		if !res.Success {
			t.Errorf("%s: %v", res.InputPath, res.Err)
		}
		if !strings.HasSuffix(res.OutputPath, "_pdfa.pdf") {
			t.Errorf("unexpected output name %q", res.OutputPath)
		}
		if _, err := os.Stat(res.OutputPath); err != nil {
			t.Errorf("output missing: %v", err)
		}
	}
}

func TestConvertDirectoryRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	samplePDF(t, dir, "top.pdf")
	samplePDF(t, sub, "nested.pdf")

	outDir := filepath.Join(dir, "out")
	results, err := ConvertDirectory(context.Background(), dir, outDir, true, testOptions(Level2B))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if _, err := os.Stat(filepath.Join(outDir, "sub", "nested_pdfa.pdf")); err != nil {
		t.Error("directory layout not mirrored")
	}
}

func TestConvertDirectoryMissing(t *testing.T) {
	if _, err := ConvertDirectory(context.Background(),
		"/nonexistent/path", "", false, testOptions(Level2B)); err == nil {
		t.Error("missing directory accepted")
	}
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		input, dir, want string
	}{
		{"scan.pdf", "", "scan_pdfa.pdf"},
		{filepath.Join("in", "scan.pdf"), "", filepath.Join("in", "scan_pdfa.pdf")},
		{filepath.Join("in", "scan.pdf"), "out", filepath.Join("out", "scan_pdfa.pdf")},
	}
	for _, c := range cases {
		if got := OutputPath(c.input, c.dir); got != c.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", c.input, c.dir, got, c.want)
		}
	}
}
