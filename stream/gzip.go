// Copyright (c) 2025 The go-discimage Authors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-discimage.
//
// go-discimage is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-discimage is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-discimage.  If not, see <https://www.gnu.org/licenses/>.

package stream

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte gzip member signature.
var gzipMagic = []byte{0x1F, 0x8B}

// GzipFilter exposes a gzip-compressed image file as a random-access
// stream. The deflate format has no index, so the whole member is
// inflated once and cached.
type GzipFilter struct {
	SimpleFilter
	data []byte
}

var _ Stream = (*GzipFilter)(nil)

// OpenGzipFilter probes underlying for a gzip signature and, when it
// matches, returns a filter stream over the decompressed data. A
// non-matching signature yields ErrCannotHandle with the underlying
// stream rewound.
func OpenGzipFilter(underlying Stream) (*GzipFilter, error) {
	sig, err := peekSignature(underlying, len(gzipMagic))
	if err != nil {
		return nil, err
	}
	if len(sig) < len(gzipMagic) || sig[0] != gzipMagic[0] || sig[1] != gzipMagic[1] {
		return nil, ErrCannotHandle
	}

	data, err := readAll(underlying, func(r io.Reader) ([]byte, error) {
		zr, zerr := gzip.NewReader(r)
		if zerr != nil {
			return nil, fmt.Errorf("gzip init: %w", zerr)
		}
		defer func() { _ = zr.Close() }()
		return io.ReadAll(zr)
	})
	if err != nil {
		return nil, err
	}

	gf := &GzipFilter{data: data}
	gf.InitSimpleFilter(underlying, gf)
	return gf, nil
}

// StreamLength returns the decompressed length.
func (gf *GzipFilter) StreamLength() int64 {
	return int64(len(gf.data))
}

// PartialRead copies decompressed bytes starting at pos.
func (gf *GzipFilter) PartialRead(p []byte, pos int64) (int, error) {
	if pos >= int64(len(gf.data)) {
		return 0, nil
	}
	return copy(p, gf.data[pos:]), nil
}
