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

import "fmt"

// ConversionError reports a failure of the conversion pipeline.
type ConversionError struct {
	Msg string
	Err error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// UnsupportedError reports an input document which cannot be converted
// at all, for example an encrypted file.  No output file is written.
type UnsupportedError struct {
	Path string
	Msg  string
	Err  error
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *UnsupportedError) Unwrap() error { return e.Err }

// FontEmbeddingError reports fonts which could not be embedded.  All
// fonts must be embedded for PDF/A conformance (ISO 19005, 6.2.11.4).
type FontEmbeddingError struct {
	Fonts []string
	Err   error
}

func (e *FontEmbeddingError) Error() string {
	msg := "could not embed fonts"
	for i, f := range e.Fonts {
		if i == 0 {
			msg += ": " + f
		} else {
			msg += ", " + f
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FontEmbeddingError) Unwrap() error { return e.Err }

// OCRError reports a failure of the text recognition stage.
type OCRError struct {
	Err error
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("text recognition failed: %v", e.Err)
}

func (e *OCRError) Unwrap() error { return e.Err }
