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
	"os"
)

// FileStream is a seekable random-access stream over an OS file. It sits
// at the bottom of every stream chain opened from disk.
type FileStream struct {
	file     *os.File
	filename string
	writable bool
	pos      int64
}

var _ Stream = (*FileStream)(nil)

// OpenFile opens the file at path for reading.
func OpenFile(path string) (*FileStream, error) {
	file, err := os.Open(path) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrStream, path, err)
	}
	return &FileStream{file: file, filename: path}, nil
}

// CreateFile creates (or truncates) the file at path for reading and
// writing.
func CreateFile(path string) (*FileStream, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("%w: create %q: %w", ErrStream, path, err)
	}
	return &FileStream{file: file, filename: path, writable: true}, nil
}

// OpenFileWritable opens an existing file at path for reading and writing.
func OpenFileWritable(path string) (*FileStream, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrStream, path, err)
	}
	return &FileStream{file: file, filename: path, writable: true}, nil
}

// Read reads up to len(p) bytes at the current position.
func (fs *FileStream) Read(p []byte) (int, error) {
	n, err := fs.file.Read(p)
	fs.pos += int64(n)
	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("%w: read %q: %w", ErrStream, fs.filename, err)
	}
	return n, nil
}

// Write writes len(p) bytes at the current position.
func (fs *FileStream) Write(p []byte) (int, error) {
	if !fs.writable {
		return 0, ErrNotWritable
	}
	n, err := fs.file.Write(p)
	fs.pos += int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: write %q: %w", ErrStream, fs.filename, err)
	}
	return n, nil
}

// Seek repositions the stream. Seeking before the beginning of the file is
// a hard error.
func (fs *FileStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case SeekSet:
		target = offset
	case SeekCur:
		target = fs.pos + offset
	case SeekEnd:
		end, err := fs.file.Seek(0, SeekEnd)
		if err != nil {
			return fs.pos, fmt.Errorf("%w: seek %q: %w", ErrStream, fs.filename, err)
		}
		target = end + offset
	default:
		return fs.pos, fmt.Errorf("%w: invalid whence %d", ErrStream, whence)
	}

	if target < 0 {
		// Restore position in case the whence==SeekEnd probe moved it.
		_, _ = fs.file.Seek(fs.pos, SeekSet)
		return fs.pos, fmt.Errorf("%w: seek before beginning of %q", ErrStream, fs.filename)
	}

	pos, err := fs.file.Seek(target, SeekSet)
	if err != nil {
		return fs.pos, fmt.Errorf("%w: seek %q: %w", ErrStream, fs.filename, err)
	}
	fs.pos = pos
	return pos, nil
}

// Tell returns the current position.
func (fs *FileStream) Tell() int64 {
	return fs.pos
}

// Filename returns the originally opened path.
func (fs *FileStream) Filename() string {
	return fs.filename
}

// IsWritable reports whether the file was opened for writing.
func (fs *FileStream) IsWritable() bool {
	return fs.writable
}

// MoveFile renames the backing file. The open handle remains valid; only
// the reported filename changes.
func (fs *FileStream) MoveFile(newPath string) error {
	if err := os.Rename(fs.filename, newPath); err != nil {
		return fmt.Errorf("%w: move %q to %q: %w", ErrStream, fs.filename, newPath, err)
	}
	fs.filename = newPath
	return nil
}

// Length returns the current size of the backing file in bytes.
func (fs *FileStream) Length() (int64, error) {
	info, err := fs.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat %q: %w", ErrStream, fs.filename, err)
	}
	return info.Size(), nil
}

// Close closes the backing file.
func (fs *FileStream) Close() error {
	if err := fs.file.Close(); err != nil {
		return fmt.Errorf("%w: close %q: %w", ErrStream, fs.filename, err)
	}
	return nil
}
