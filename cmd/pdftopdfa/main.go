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

// Command pdftopdfa converts PDF files to PDF/A-2 or PDF/A-3.
//
// Usage:
//
//	pdftopdfa [options] input.pdf [output.pdf]
//	pdftopdfa [options] -dir inputdir [outputdir]
//
// Exit codes: 0 on success, 1 on conversion failure, 2 when the input
// cannot be converted at all (encrypted or missing), 3 when the output
// was written but failed veraPDF validation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/iRedPaul/pdftopdfa"
	"github.com/iRedPaul/pdftopdfa/ocr"
)

const (
	exitOK               = 0
	exitConversionFailed = 1
	exitUnsupportedInput = 2
	exitValidationFailed = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	level := flag.String("level", "3b", "target PDF/A level (2b, 2u, 3b, 3u)")
	validate := flag.Bool("validate", false, "validate the output with veraPDF")
	dir := flag.Bool("dir", false, "convert a directory of PDF files")
	recursive := flag.Bool("r", false, "include subdirectories (with -dir)")
	force := flag.Bool("f", false, "overwrite existing output files")
	workers := flag.Int("jobs", 1, "number of parallel conversions (with -dir)")
	ocrLangs := flag.String("ocr", "", "comma-separated Tesseract languages, e.g. deu,eng (enables OCR)")
	ocrQuality := flag.String("ocr-quality", "default", "OCR preset (fast, default, best)")
	forceOCR := flag.Bool("force-ocr", false, "run OCR even on pages which already have text")
	keepCalibrated := flag.Bool("keep-calibrated", false, "keep CalGray/CalRGB color spaces")
	verbose := flag.Bool("v", false, "verbose logging")
	quiet := flag.Bool("q", false, "suppress progress output")
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.pdf [output.pdf]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [options] -dir inputdir [outputdir]\n", os.Args[0])
		flag.PrintDefaults()
		return exitConversionFailed
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	lvl, err := pdftopdfa.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitConversionFailed
	}

	opts := pdftopdfa.NewOptions(lvl)
	opts.Log = log
	opts.Validate = *validate
	opts.Overwrite = *force
	opts.Workers = *workers
	opts.ReplaceCalibrated = !*keepCalibrated

	if *ocrLangs != "" {
		quality, err := ocr.ParseQuality(*ocrQuality)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return exitConversionFailed
		}
		opts.OCR = ocr.NewTesseract(log)
		opts.OCRLanguages = strings.Split(*ocrLangs, ",")
		opts.OCRQuality = quality
		opts.ForceOCR = *forceOCR
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dir {
		return runDirectory(ctx, flag.Arg(0), flag.Arg(1), *recursive, *quiet, opts)
	}
	return runSingle(ctx, flag.Arg(0), flag.Arg(1), opts)
}

func runSingle(ctx context.Context, input, output string, opts *pdftopdfa.Options) int {
	if output == "" {
		output = pdftopdfa.OutputPath(input, "")
	}

	res, err := pdftopdfa.Convert(ctx, input, output, opts)
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "Warning:", w)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var unsupported *pdftopdfa.UnsupportedError
		if errors.As(err, &unsupported) {
			return exitUnsupportedInput
		}
		return exitConversionFailed
	}
	if res.ValidationFailed {
		fmt.Fprintf(os.Stderr, "%s: written, but not compliant with PDF/A-%s\n",
			output, opts.Level)
		return exitValidationFailed
	}
	fmt.Printf("%s -> %s (PDF/A-%s, %.2fs)\n",
		input, output, opts.Level, res.ProcessingTime.Seconds())
	return exitOK
}

func runDirectory(ctx context.Context, inputDir, outputDir string, recursive, quiet bool, opts *pdftopdfa.Options) int {
	showProgress := !quiet && term.IsTerminal(int(os.Stderr.Fd()))
	if showProgress {
		opts.OnProgress = func(done, total int, name string) {
			fmt.Fprintf(os.Stderr, "\r\033[KConverting %d/%d: %s", done+1, total, name)
		}
	}

	results, err := pdftopdfa.ConvertDirectory(ctx, inputDir, outputDir, recursive, opts)
	if showProgress {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitConversionFailed
	}

	var failed, notCompliant int
	for _, res := range results {
		switch {
		case !res.Success:
			failed++
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", res.InputPath, res.Err)
		case res.ValidationFailed:
			notCompliant++
			fmt.Fprintf(os.Stderr, "Warning: %s is not compliant with PDF/A-%s\n",
				res.OutputPath, opts.Level)
		}
	}
	fmt.Printf("%d file(s) converted, %d failed\n", len(results)-failed, failed)

	switch {
	case failed > 0:
		return exitConversionFailed
	case notCompliant > 0:
		return exitValidationFailed
	}
	return exitOK
}
