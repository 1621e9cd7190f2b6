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
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// ErrMemberNotFound indicates the requested member does not exist in the
// archive.
var ErrMemberNotFound = errors.New("archive member not found")

// OpenArchivedFile opens a single member of a ZIP, 7z or RAR archive and
// returns it as a read-only random-access stream. The member is buffered
// in memory; archive formats do not support seeking within compressed
// members. The returned stream reports the archive path as its filename.
//
// The archive format is chosen by extension: .zip, .7z, .rar.
func OpenArchivedFile(archivePath, memberPath string) (*MemoryStream, error) {
	memberPath = filepath.ToSlash(memberPath)

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(archivePath)); ext {
	case ".zip":
		data, err = readZipMember(archivePath, memberPath)
	case ".7z":
		data, err = readSevenZipMember(archivePath, memberPath)
	case ".rar":
		data, err = readRarMember(archivePath, memberPath)
	default:
		return nil, fmt.Errorf("%w: unsupported archive format %q", ErrCannotHandle, ext)
	}
	if err != nil {
		return nil, err
	}

	return NewMemoryStream(archivePath, data), nil
}

// readZipMember extracts one member of a ZIP archive.
func readZipMember(archivePath, memberPath string) ([]byte, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip %q: %w", ErrStream, archivePath, err)
	}
	defer func() { _ = reader.Close() }()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.EqualFold(file.Name, memberPath) {
			continue
		}
		rc, oerr := file.Open()
		if oerr != nil {
			return nil, fmt.Errorf("%w: open zip member %q: %w", ErrStream, memberPath, oerr)
		}
		defer func() { _ = rc.Close() }()
		return bufferMember(rc, int64(file.UncompressedSize64)) //nolint:gosec // Member sizes do not exceed int64
	}
	return nil, fmt.Errorf("%w: %q in %q", ErrMemberNotFound, memberPath, archivePath)
}

// readSevenZipMember extracts one member of a 7z archive.
func readSevenZipMember(archivePath, memberPath string) ([]byte, error) {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open 7z %q: %w", ErrStream, archivePath, err)
	}
	defer func() { _ = reader.Close() }()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.EqualFold(file.Name, memberPath) {
			continue
		}
		rc, oerr := file.Open()
		if oerr != nil {
			return nil, fmt.Errorf("%w: open 7z member %q: %w", ErrStream, memberPath, oerr)
		}
		defer func() { _ = rc.Close() }()
		return bufferMember(rc, int64(file.UncompressedSize)) //nolint:gosec // Member sizes do not exceed int64
	}
	return nil, fmt.Errorf("%w: %q in %q", ErrMemberNotFound, memberPath, archivePath)
}

// readRarMember extracts one member of a RAR archive.
func readRarMember(archivePath, memberPath string) ([]byte, error) {
	file, err := os.Open(archivePath) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("%w: open rar %q: %w", ErrStream, archivePath, err)
	}
	defer func() { _ = file.Close() }()

	reader, err := rardecode.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: rar init %q: %w", ErrStream, archivePath, err)
	}

	for {
		header, nerr := reader.Next()
		if errors.Is(nerr, io.EOF) {
			break
		}
		if nerr != nil {
			return nil, fmt.Errorf("%w: rar header in %q: %w", ErrStream, archivePath, nerr)
		}
		if header.IsDir || !strings.EqualFold(header.Name, memberPath) {
			continue
		}
		return bufferMember(reader, header.UnPackedSize)
	}
	return nil, fmt.Errorf("%w: %q in %q", ErrMemberNotFound, memberPath, archivePath)
}

// bufferMember reads a whole archive member into memory. size is a hint;
// members with unknown size are read to EOF.
func bufferMember(r io.Reader, size int64) ([]byte, error) {
	if size > 0 {
		data := make([]byte, size)
		n, err := io.ReadFull(r, data)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: read archive member: %w", ErrStream, err)
		}
		return data[:n], nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read archive member: %w", ErrStream, err)
	}
	return data, nil
}
