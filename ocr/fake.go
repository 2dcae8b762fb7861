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

package ocr

import (
	"context"

	"github.com/iRedPaul/pdftopdfa/pdf"
)

// Fake is an Engine for tests.  It records its calls and returns the
// configured result without touching the document.
type Fake struct {
	// Pages is returned as the number of processed pages.
	Pages int

	// Err is returned from AddTextLayer.
	Err error

	// Calls counts AddTextLayer invocations.
	Calls int

	// LastOptions holds the options of the most recent call.
	LastOptions *Options
}

func (f *Fake) AddTextLayer(ctx context.Context, doc *pdf.Document, opts *Options) (int, error) {
	f.Calls++
	f.LastOptions = opts
	return f.Pages, f.Err
}
