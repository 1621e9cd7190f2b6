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
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// xzMagic is the six-byte xz container signature.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// XzFilter exposes an xz-compressed image file as a random-access stream.
// The whole stream is decompressed once and cached.
type XzFilter struct {
	SimpleFilter
	data []byte
}

var _ Stream = (*XzFilter)(nil)

// OpenXzFilter probes underlying for an xz signature and, when it
// matches, returns a filter stream over the decompressed data.
func OpenXzFilter(underlying Stream) (*XzFilter, error) {
	sig, err := peekSignature(underlying, len(xzMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, xzMagic) {
		return nil, ErrCannotHandle
	}

	data, err := readAll(underlying, func(r io.Reader) ([]byte, error) {
		xr, xerr := xz.NewReader(r)
		if xerr != nil {
			return nil, fmt.Errorf("xz init: %w", xerr)
		}
		return io.ReadAll(xr)
	})
	if err != nil {
		return nil, err
	}

	xf := &XzFilter{data: data}
	xf.InitSimpleFilter(underlying, xf)
	return xf, nil
}

// StreamLength returns the decompressed length.
func (xf *XzFilter) StreamLength() int64 {
	return int64(len(xf.data))
}

// PartialRead copies decompressed bytes starting at pos.
func (xf *XzFilter) PartialRead(p []byte, pos int64) (int, error) {
	if pos >= int64(len(xf.data)) {
		return 0, nil
	}
	return copy(p, xf.data[pos:]), nil
}
