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
)

// MemoryStream is a Stream over an in-memory byte buffer. It backs
// archive-member streams and is handy for building disc layouts without
// touching the filesystem. A writable MemoryStream grows on writes past
// the end of the buffer.
type MemoryStream struct {
	data     []byte
	filename string
	writable bool
	pos      int64
}

var _ Stream = (*MemoryStream)(nil)

// NewMemoryStream returns a read-only stream over data. The reported
// filename is used by fragments and parsers for diagnostics.
func NewMemoryStream(filename string, data []byte) *MemoryStream {
	return &MemoryStream{data: data, filename: filename}
}

// NewWritableMemoryStream returns an empty, growable read-write stream.
func NewWritableMemoryStream(filename string) *MemoryStream {
	return &MemoryStream{filename: filename, writable: true}
}

// Read reads up to len(p) bytes at the current position.
func (ms *MemoryStream) Read(p []byte) (int, error) {
	if ms.pos >= int64(len(ms.data)) {
		return 0, io.EOF
	}
	n := copy(p, ms.data[ms.pos:])
	ms.pos += int64(n)
	return n, nil
}

// Write writes len(p) bytes at the current position, growing the buffer
// as needed.
func (ms *MemoryStream) Write(p []byte) (int, error) {
	if !ms.writable {
		return 0, ErrNotWritable
	}
	end := ms.pos + int64(len(p))
	if end > int64(len(ms.data)) {
		grown := make([]byte, end)
		copy(grown, ms.data)
		ms.data = grown
	}
	copy(ms.data[ms.pos:], p)
	ms.pos = end
	return len(p), nil
}

// Seek repositions the stream.
func (ms *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case SeekSet:
		target = offset
	case SeekCur:
		target = ms.pos + offset
	case SeekEnd:
		target = int64(len(ms.data)) + offset
	default:
		return ms.pos, fmt.Errorf("%w: invalid whence %d", ErrStream, whence)
	}
	if target < 0 {
		return ms.pos, fmt.Errorf("%w: seek before beginning of %q", ErrStream, ms.filename)
	}
	ms.pos = target
	return target, nil
}

// Tell returns the current position.
func (ms *MemoryStream) Tell() int64 {
	return ms.pos
}

// Filename returns the stream's reported filename.
func (ms *MemoryStream) Filename() string {
	return ms.filename
}

// IsWritable reports whether the stream accepts writes.
func (ms *MemoryStream) IsWritable() bool {
	return ms.writable
}

// MoveFile changes the reported filename; there is no backing file to
// rename.
func (ms *MemoryStream) MoveFile(newPath string) error {
	ms.filename = newPath
	return nil
}

// Bytes returns the underlying buffer.
func (ms *MemoryStream) Bytes() []byte {
	return ms.data
}

// Length returns the buffer size in bytes.
func (ms *MemoryStream) Length() int64 {
	return int64(len(ms.data))
}
