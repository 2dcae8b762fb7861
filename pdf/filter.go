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

package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
)

// imageFilters are filters which encode image data.  Streams using these
// filters keep their encoded form; Decode stops in front of them.
var imageFilters = map[Name]bool{
	"DCTDecode":      true,
	"JPXDecode":      true,
	"JBIG2Decode":    true,
	"CCITTFaxDecode": true,
}

// FilterInfo describes one step of a stream's filter chain.
type FilterInfo struct {
	Name  Name
	Parms Dict
}

// Filters returns the filter chain of the stream.  The resolve function is
// used to follow indirect references inside the /Filter and /DecodeParms
// entries.
func (x *Stream) Filters(resolve func(Object) Object) ([]FilterInfo, error) {
	if resolve == nil {
		resolve = func(obj Object) Object { return obj }
	}
	decodeParms := resolve(x.Dict["DecodeParms"])
	filter := resolve(x.Dict["Filter"])

	var res []FilterInfo
	switch f := filter.(type) {
	case nil:
		// pass
	case Name:
		parms, _ := resolve(decodeParms).(Dict)
		res = append(res, FilterInfo{Name: f, Parms: parms})
	case Array:
		pa, _ := decodeParms.(Array)
		for i, fi := range f {
			name, ok := resolve(fi).(Name)
			if !ok {
				return nil, fmt.Errorf("invalid filter entry %s", Format(fi))
			}
			var parms Dict
			if len(pa) > i {
				parms, _ = resolve(pa[i]).(Dict)
			}
			res = append(res, FilterInfo{Name: name, Parms: parms})
		}
	default:
		return nil, fmt.Errorf("invalid /Filter entry %s", Format(filter))
	}
	return res, nil
}

// Decode returns the decoded stream contents.  Filters are applied from the
// outside in; image filters (DCTDecode, JPXDecode, JBIG2Decode,
// CCITTFaxDecode) terminate decoding and the remaining encoded bytes are
// returned.
func (x *Stream) Decode(resolve func(Object) Object) ([]byte, error) {
	filters, err := x.Filters(resolve)
	if err != nil {
		return nil, err
	}
	data := x.Raw
	for _, fi := range filters {
		if imageFilters[fi.Name] {
			break
		}
		data, err = applyFilter(data, fi.Name, fi.Parms, resolve)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func applyFilter(data []byte, name Name, parms Dict, resolve func(Object) Object) ([]byte, error) {
	if resolve == nil {
		resolve = func(obj Object) Object { return obj }
	}
	getInt := func(key Name, dflt int) int {
		if parms == nil {
			return dflt
		}
		if x, ok := resolve(parms[key]).(Integer); ok {
			return int(x)
		}
		return dflt
	}

	switch name {
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		out, err := io.ReadAll(zr)
		if err != nil && len(out) == 0 {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		return undoPredictor(out, parms, getInt)

	case "LZWDecode", "LZW":
		early := getInt("EarlyChange", 1) != 0
		lr := lzw.NewReader(bytes.NewReader(data), early)
		defer lr.Close()
		out, err := io.ReadAll(lr)
		if err != nil && len(out) == 0 {
			return nil, fmt.Errorf("LZWDecode: %w", err)
		}
		return undoPredictor(out, parms, getInt)

	case "ASCIIHexDecode", "AHx":
		var res []byte
		hi := -1
		for _, c := range data {
			if c == '>' {
				break
			}
			x := unhex(c)
			if x < 0 {
				continue
			}
			if hi < 0 {
				hi = x
			} else {
				res = append(res, byte(hi<<4|x))
				hi = -1
			}
		}
		if hi >= 0 {
			res = append(res, byte(hi<<4))
		}
		return res, nil

	case "ASCII85Decode", "A85":
		clean := make([]byte, 0, len(data))
		for _, c := range data {
			if isSpace[c] {
				continue
			}
			if c == '~' {
				break
			}
			clean = append(clean, c)
		}
		res := make([]byte, len(clean))
		n, _, err := ascii85.Decode(res, clean, true)
		if err != nil {
			return nil, fmt.Errorf("ASCII85Decode: %w", err)
		}
		return res[:n], nil

	case "RunLengthDecode", "RL":
		var res []byte
		i := 0
		for i < len(data) {
			l := int(data[i])
			i++
			if l == 128 {
				break
			}
			if l < 128 {
				if i+l+1 > len(data) {
					return nil, fmt.Errorf("RunLengthDecode: truncated data")
				}
				res = append(res, data[i:i+l+1]...)
				i += l + 1
			} else {
				if i >= len(data) {
					return nil, fmt.Errorf("RunLengthDecode: truncated data")
				}
				for range 257 - l {
					res = append(res, data[i])
				}
				i++
			}
		}
		return res, nil

	case "Crypt":
		// identity crypt filters carry no transformation
		return data, nil

	default:
		return nil, fmt.Errorf("unsupported filter %q", name)
	}
}

func undoPredictor(data []byte, parms Dict, getInt func(Name, int) int) ([]byte, error) {
	pred := getInt("Predictor", 1)
	if pred <= 1 {
		return data, nil
	}
	colors := getInt("Colors", 1)
	bpc := getInt("BitsPerComponent", 8)
	columns := getInt("Columns", 1)
	bpp := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8

	if pred == 2 {
		// TIFF predictor, only the 8-bit case occurs in practice
		if bpc != 8 {
			return data, nil
		}
		for r := 0; r+rowLen <= len(data); r += rowLen {
			row := data[r : r+rowLen]
			for i := bpp; i < len(row); i++ {
				row[i] += row[i-bpp]
			}
		}
		return data, nil
	}

	// PNG predictors: each row is prefixed with a filter type byte.
	nRows := len(data) / (rowLen + 1)
	out := make([]byte, 0, nRows*rowLen)
	prev := make([]byte, rowLen)
	for r := 0; r+rowLen+1 <= len(data); r += rowLen + 1 {
		ft := data[r]
		row := append([]byte(nil), data[r+1:r+1+rowLen]...)
		switch ft {
		case 0:
			// none
		case 1:
			for i := bpp; i < len(row); i++ {
				row[i] += row[i-bpp]
			}
		case 2:
			for i := range row {
				row[i] += prev[i]
			}
		case 3:
			for i := range row {
				var left byte
				if i >= bpp {
					left = row[i-bpp]
				}
				row[i] += byte((int(left) + int(prev[i])) / 2)
			}
		case 4:
			for i := range row {
				var left, upLeft byte
				if i >= bpp {
					left = row[i-bpp]
					upLeft = prev[i-bpp]
				}
				row[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("malformed PNG predictor data (filter type %d)", ft)
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// NewFlateStream creates a stream holding data compressed with the
// FlateDecode filter.  Entries from extra are copied into the stream
// dictionary.
func NewFlateStream(data []byte, extra Dict) *Stream {
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	_, _ = zw.Write(data)
	_ = zw.Close()

	dict := Dict{"Filter": Name("FlateDecode")}
	for key, val := range extra {
		dict[key] = val
	}
	return &Stream{Dict: dict, Raw: buf.Bytes()}
}

// FlateData compresses data using zlib.
func FlateData(data []byte) []byte {
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}
