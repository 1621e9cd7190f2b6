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

// Package stream provides the layered byte-stream abstraction used to read
// disc image files. A stream chain composes a base file stream with zero or
// more decoding filter streams (decompression, audio decoding) and
// supports random access throughout the chain. Archive members open as
// standalone in-memory streams.
package stream

import "io"

// Seek whence values. These match the io package constants; they are
// re-exported so callers of the stream chain do not need to import io.
const (
	SeekSet = io.SeekStart
	SeekCur = io.SeekCurrent
	SeekEnd = io.SeekEnd
)

// Stream is a random-access byte stream. It is implemented by FileStream,
// MemoryStream and the filter streams built on FilterBase.
//
// Read returns io.EOF with a zero count when the position is at or past the
// end of the stream; a short read is not an error. Write is optional;
// streams that do not support writing return an error wrapping ErrStream.
// Seek rejects negative target positions.
type Stream interface {
	io.Reader
	io.Writer

	// Seek repositions the stream and returns the new position.
	Seek(offset int64, whence int) (int64, error)

	// Tell returns the current logical position in bytes from the
	// beginning of the stream.
	Tell() int64

	// Filename returns the name of the file backing the stream. Filter
	// streams delegate to the underlying stream, so the bottom file
	// stream answers for the whole chain.
	Filename() string

	// IsWritable reports whether the stream accepts writes. For filter
	// streams this is the conjunction of the filter's own write
	// capability and the underlying stream's.
	IsWritable() bool

	// MoveFile renames the backing file. Filter streams delegate to the
	// underlying stream.
	MoveFile(newPath string) error
}

// ReadAtLeast fills buf from s at its current position, looping over short
// reads. It returns the number of bytes read; a count short of len(buf)
// with a nil error means end of stream was reached.
func ReadAtLeast(s Stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := s.Read(buf[total:])
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
