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
	"log/slog"
	"os"
	"strings"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// hasBinaryComment reports whether the line after the file header is a
// comment with at least four bytes above 127 (ISO 19005-2, 6.1.2).
func hasBinaryComment(header []byte) bool {
	nl := bytes.IndexAny(header, "\r\n")
	if nl < 0 {
		return false
	}
	rest := header[nl+1:]
	if len(rest) > 0 && rest[0] == '\n' {
		rest = rest[1:]
	}
	if len(rest) == 0 || rest[0] != '%' {
		return false
	}
	line := rest[1:]
	if end := bytes.IndexAny(line, "\r\n"); end >= 0 {
		line = line[:end]
	}
	high := 0
	for _, b := range line {
		if b > 127 {
			high++
		}
	}
	return high >= 4
}

// ensureBinaryComment re-saves the file when the binary marker comment
// is missing.  The writer always emits one, so this only triggers for
// files produced by other tools.
func ensureBinaryComment(path string, log *slog.Logger) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("could not read header for binary comment check", "error", err)
		return false
	}
	header := make([]byte, 64)
	n, _ := f.Read(header)
	f.Close()
	if hasBinaryComment(header[:n]) {
		return false
	}

	log.Debug("re-saving to add binary comment")
	doc, err := pdf.ReadFile(path)
	if err != nil {
		log.Warn("could not reopen file to add binary comment", "error", err)
		return false
	}
	tmp := path + ".tmp"
	if err := doc.WriteFile(tmp, &pdf.WriteOptions{Version: doc.Version}); err != nil {
		log.Warn("could not add binary comment", "error", err)
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		log.Warn("could not add binary comment", "error", err)
		return false
	}
	return true
}

// truncateTrailingData removes bytes after the final %%EOF marker.
// PDF/A allows at most one end-of-line sequence there (ISO 19005-2,
// 6.1.3).
func truncateTrailingData(path string, log *slog.Logger) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("could not read file for %%EOF check", "error", err)
		return false
	}

	last := bytes.LastIndex(data, []byte("%%EOF"))
	if last < 0 {
		log.Warn("no %%EOF marker found in output file")
		return false
	}

	cut := last + len("%%EOF")
	switch {
	case bytes.HasPrefix(data[cut:], []byte("\r\n")):
		cut += 2
	case cut < len(data) && (data[cut] == '\n' || data[cut] == '\r'):
		cut++
	}
	if cut >= len(data) {
		return false
	}

	log.Debug("truncating trailing data after %%EOF", "bytes", len(data)-cut)
	if err := os.Truncate(path, int64(cut)); err != nil {
		log.Warn("could not truncate trailing data", "error", err)
		return false
	}
	return true
}

// verifyFileStructure is a lightweight post-save check of the output
// file.  Problems are logged, not returned; a full check is what the
// validator is for.
func verifyFileStructure(path string, log *slog.Logger) {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("post-save verification: could not read file", "error", err)
		return
	}
	header := make([]byte, 20)
	n, _ := f.Read(header)
	f.Close()

	if !strings.HasPrefix(string(header[:n]), "%PDF-1.7") {
		log.Warn("post-save verification: unexpected file header",
			"header", string(header[:n]))
	}

	doc, err := pdf.ReadFile(path)
	if err != nil {
		log.Warn("post-save verification: could not reopen file", "error", err)
		return
	}
	if len(doc.ID) != 2 {
		log.Warn("post-save verification: trailer /ID missing or not two elements")
	}
}
