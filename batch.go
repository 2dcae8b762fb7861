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
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Job is one input/output file pair for batch conversion.
type Job struct {
	Input  string
	Output string
}

// OutputPath derives the output file name for an input PDF, for
// example "scan.pdf" becomes "scan_pdfa.pdf".  An empty outputDir
// places the output next to the input.
func OutputPath(input, outputDir string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+"_pdfa.pdf")
}

// ConvertFiles converts the given jobs, processing opts.Workers
// documents in parallel.  Cancellation is cooperative: a cancelled
// context stops the pool between documents, and already started
// conversions finish.
//
// The returned slice has one Result per started job, in job order.
// Existing output files are skipped with an error Result unless
// opts.Overwrite is set.
func ConvertFiles(ctx context.Context, jobs []Job, opts *Options) []*Result {
	if opts == nil {
		opts = NewOptions(Level3B)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]*Result, len(jobs))
	indices := make(chan int)
	var done atomic.Int64

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				job := jobs[idx]
				if opts.OnProgress != nil {
					opts.OnProgress(int(done.Load()), len(jobs), filepath.Base(job.Input))
				}
				results[idx] = convertJob(ctx, job, opts)
				done.Add(1)
			}
		}()
	}

feed:
	for idx := range jobs {
		if ctx.Err() != nil {
			opts.log().Info("conversion cancelled")
			break
		}
		select {
		case <-ctx.Done():
			opts.log().Info("conversion cancelled")
			break feed
		case indices <- idx:
		}
	}
	close(indices)
	wg.Wait()

	// drop entries for jobs never started
	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func convertJob(ctx context.Context, job Job, opts *Options) *Result {
	if !opts.Overwrite {
		if _, err := os.Stat(job.Output); err == nil {
			opts.log().Warn("skipping file, output already exists",
				"input", job.Input, "output", job.Output)
			return &Result{
				InputPath:  job.Input,
				OutputPath: job.Output,
				Level:      opts.Level,
				Err:        &ConversionError{Msg: "output file already exists: " + job.Output},
			}
		}
	}
	res, err := Convert(ctx, job.Input, job.Output, opts)
	if err != nil {
		opts.log().Error("conversion failed", "input", job.Input, "error", err)
	}
	return res
}

// ConvertDirectory converts all PDF files in inputDir.  An empty
// outputDir writes each output next to its input; earlier conversion
// outputs (files ending in "_pdfa") are then excluded from the scan.
// With recursive set, subdirectories are included and the directory
// layout is mirrored under outputDir.
func ConvertDirectory(ctx context.Context, inputDir, outputDir string, recursive bool, opts *Options) ([]*Result, error) {
	if opts == nil {
		opts = NewOptions(Level3B)
	}
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, &ConversionError{Msg: "directory does not exist: " + inputDir, Err: err}
	}

	files, err := findPDFs(inputDir, recursive)
	if err != nil {
		return nil, &ConversionError{Msg: "scanning " + inputDir, Err: err}
	}
	if outputDir == "" {
		n := 0
		for _, f := range files {
			stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
			if !strings.HasSuffix(stem, "_pdfa") {
				files[n] = f
				n++
			}
		}
		files = files[:n]
	}
	if len(files) == 0 {
		opts.log().Warn("no PDF files found", "dir", inputDir)
		return nil, nil
	}
	opts.log().Info("converting directory",
		"dir", inputDir, "files", len(files), "recursive", recursive)

	jobs := make([]Job, 0, len(files))
	for _, f := range files {
		var out string
		if outputDir != "" && recursive {
			rel, err := filepath.Rel(inputDir, f)
			if err != nil {
				return nil, &ConversionError{Msg: "resolving " + f, Err: err}
			}
			out = OutputPath(rel, "")
			out = filepath.Join(outputDir, out)
		} else {
			out = OutputPath(f, outputDir)
		}
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &ConversionError{Msg: "creating output directory", Err: err}
			}
		}
		jobs = append(jobs, Job{Input: f, Output: out})
	}

	results := ConvertFiles(ctx, jobs, opts)

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	opts.log().Info("directory conversion completed",
		"successful", successful, "failed", len(results)-successful)
	return results, nil
}

func findPDFs(dir string, recursive bool) ([]string, error) {
	var files []string
	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
