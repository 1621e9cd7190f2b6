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

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// Byte-order marks recognized at the start of text descriptor files.
// UTF-32 LE must be checked before UTF-16 LE: its mark starts with the
// same two bytes.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// OpenTextReader turns a stream into a sequential UTF-8 text reader for
// parsing image descriptor files. The stream is rewound and its first
// bytes are inspected for a byte-order mark; when one is present the
// matching encoding is used. Otherwise encodingName (an IANA charset
// name, e.g. "ISO-8859-1") selects the decoder; an empty name consumes
// the bytes as-is.
func OpenTextReader(s Stream, encodingName string) (io.Reader, error) {
	if _, err := s.Seek(0, SeekSet); err != nil {
		return nil, err
	}
	head := make([]byte, 4)
	got, err := ReadAtLeast(s, head)
	if err != nil {
		return nil, err
	}
	head = head[:got]
	if _, err := s.Seek(0, SeekSet); err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(head, bomUTF8):
		if _, err := s.Seek(int64(len(bomUTF8)), SeekSet); err != nil {
			return nil, err
		}
		return io.Reader(s), nil
	case bytes.HasPrefix(head, bomUTF32BE):
		return decodeReader(s, utf32.UTF32(utf32.BigEndian, utf32.UseBOM))
	case bytes.HasPrefix(head, bomUTF32LE):
		return decodeReader(s, utf32.UTF32(utf32.LittleEndian, utf32.UseBOM))
	case bytes.HasPrefix(head, bomUTF16BE):
		return decodeReader(s, unicode.UTF16(unicode.BigEndian, unicode.UseBOM))
	case bytes.HasPrefix(head, bomUTF16LE):
		return decodeReader(s, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))
	}

	if encodingName == "" {
		return io.Reader(s), nil
	}

	enc, err := ianaindex.IANA.Encoding(encodingName)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: unknown text encoding %q", ErrStream, encodingName)
	}
	return decodeReader(s, enc)
}

// decodeReader wraps the stream in a transforming reader for enc.
func decodeReader(s Stream, enc encoding.Encoding) (io.Reader, error) {
	return transform.NewReader(s, enc.NewDecoder()), nil
}
