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
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// gzipCompress produces a gzip member holding data.
func gzipCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestGzipFilter(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("sector data "), 512)
	underlying := NewMemoryStream("image.iso.gz", gzipCompress(t, payload))

	gf, err := OpenGzipFilter(underlying)
	if err != nil {
		t.Fatalf("OpenGzipFilter() error = %v", err)
	}

	if got := gf.StreamLength(); got != int64(len(payload)) {
		t.Errorf("StreamLength() = %d, want %d", got, len(payload))
	}
	if got := gf.Filename(); got != "image.iso.gz" {
		t.Errorf("Filename() = %q, want delegation to underlying stream", got)
	}
	if gf.IsWritable() {
		t.Error("IsWritable() = true for decompression filter")
	}

	// Random access within the decoded data.
	if _, err := gf.Seek(12, SeekSet); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	buf := make([]byte, 11)
	if _, err := io.ReadFull(gf, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if string(buf) != "sector data" {
		t.Errorf("read %q, want \"sector data\"", buf)
	}
	if got := gf.Tell(); got != 23 {
		t.Errorf("Tell() = %d, want 23", got)
	}

	// Seeks past the end clamp to the stream length.
	pos, err := gf.Seek(1<<20, SeekSet)
	if err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if pos != int64(len(payload)) {
		t.Errorf("clamped Seek() = %d, want %d", pos, len(payload))
	}
	if n, rerr := gf.Read(buf); n != 0 || !errors.Is(rerr, io.EOF) {
		t.Errorf("Read at end = %d, %v, want 0, io.EOF", n, rerr)
	}

	if _, err := gf.Seek(-5, SeekSet); !errors.Is(err, ErrStream) {
		t.Errorf("Seek(-5, SET) error = %v, want ErrStream", err)
	}
}

func TestGzipFilterDeclines(t *testing.T) {
	t.Parallel()

	underlying := NewMemoryStream("plain.iso", []byte("definitely not gzip"))
	if _, err := OpenGzipFilter(underlying); !errors.Is(err, ErrCannotHandle) {
		t.Fatalf("OpenGzipFilter() error = %v, want ErrCannotHandle", err)
	}
	if got := underlying.Tell(); got != 0 {
		t.Errorf("declined probe left position at %d, want 0", got)
	}
}

func TestZstdFilter(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte{0xCA, 0xFE}, 4096)
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("zstd write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}

	zf, err := OpenZstdFilter(NewMemoryStream("image.zst", buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenZstdFilter() error = %v", err)
	}

	decoded := make([]byte, len(payload))
	if _, err := io.ReadFull(zf, decoded); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Error("decoded payload differs from original")
	}
}

func TestXzFilterDeclines(t *testing.T) {
	t.Parallel()

	if _, err := OpenXzFilter(NewMemoryStream("x", []byte("not xz data"))); !errors.Is(err, ErrCannotHandle) {
		t.Fatalf("OpenXzFilter() error = %v, want ErrCannotHandle", err)
	}
}

func TestFlacFilterDeclines(t *testing.T) {
	t.Parallel()

	if _, err := OpenFlacFilter(NewMemoryStream("x", []byte("RIFFnope"))); !errors.Is(err, ErrCannotHandle) {
		t.Fatalf("OpenFlacFilter() error = %v, want ErrCannotHandle", err)
	}
}

func TestSimpleFilterWriteRejected(t *testing.T) {
	t.Parallel()

	payload := []byte("payload")
	gf, err := OpenGzipFilter(NewMemoryStream("f.gz", gzipCompress(t, payload)))
	if err != nil {
		t.Fatalf("OpenGzipFilter() error = %v", err)
	}
	if _, err := gf.Write([]byte("x")); !errors.Is(err, ErrStream) {
		t.Errorf("Write() error = %v, want ErrStream", err)
	}
}
