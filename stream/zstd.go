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

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the four-byte Zstandard frame signature.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// ZstdFilter exposes a Zstandard-compressed image file as a random-access
// stream. The whole frame sequence is decompressed once and cached.
type ZstdFilter struct {
	SimpleFilter
	data []byte
}

var _ Stream = (*ZstdFilter)(nil)

// OpenZstdFilter probes underlying for a Zstandard signature and, when it
// matches, returns a filter stream over the decompressed data.
func OpenZstdFilter(underlying Stream) (*ZstdFilter, error) {
	sig, err := peekSignature(underlying, len(zstdMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, zstdMagic) {
		return nil, ErrCannotHandle
	}

	data, err := readAll(underlying, func(r io.Reader) ([]byte, error) {
		decoder, derr := zstd.NewReader(r)
		if derr != nil {
			return nil, fmt.Errorf("zstd init: %w", derr)
		}
		defer decoder.Close()
		return io.ReadAll(decoder)
	})
	if err != nil {
		return nil, err
	}

	zf := &ZstdFilter{data: data}
	zf.InitSimpleFilter(underlying, zf)
	return zf, nil
}

// StreamLength returns the decompressed length.
func (zf *ZstdFilter) StreamLength() int64 {
	return int64(len(zf.data))
}

// PartialRead copies decompressed bytes starting at pos.
func (zf *ZstdFilter) PartialRead(p []byte, pos int64) (int, error) {
	if pos >= int64(len(zf.data)) {
		return 0, nil
	}
	return copy(p, zf.data[pos:]), nil
}
