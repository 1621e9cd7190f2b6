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

package discimage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/disctools/go-discimage/stream"
)

// rawParser is a test parser accepting any stream whose first bytes
// match its magic.
type rawParser struct {
	id    string
	magic []byte
}

func (p *rawParser) ParserInfo() ParserInfo {
	return ParserInfo{ID: p.id, Name: p.id, Extensions: []string{"raw"}}
}

func (p *rawParser) LoadImage(_ *DebugContext, streams []stream.Stream) (*Disc, error) {
	head := make([]byte, len(p.magic))
	if _, err := stream.ReadAtLeast(streams[0], head); err != nil {
		return nil, err
	}
	if !bytes.Equal(head, p.magic) {
		return nil, fmt.Errorf("%w: not a %s image", ErrCannotHandle, p.id)
	}

	disc := NewDisc()
	disc.SetFilenames([]string{streams[0].Filename()})
	session := NewSession()
	track := NewTrack()
	fragment := NewBinaryFragment()
	fragment.SetMainData(streams[0], 0, 2048, MainDataFormatData)
	track.AddFragment(0, fragment)
	if err := fragment.UseTheRestOfFile(); err != nil {
		return nil, err
	}
	session.AddTrack(track)
	disc.AddSession(session)
	return disc, nil
}

func TestLoadImageParserProbing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.raw")
	payload := append([]byte("MAGIC2"), make([]byte, 4*2048-6)...)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	registry := NewRegistry()
	registry.RegisterParser(&rawParser{id: "first", magic: []byte("MAGIC1")})
	registry.RegisterParser(&rawParser{id: "second", magic: []byte("MAGIC2")})

	disc, err := registry.LoadImage(NewDebugContext("test", "loader"), []string{path})
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if got := disc.Length(); got != 4 {
		t.Errorf("disc length = %d, want 4", got)
	}
	if got := disc.Filenames(); len(got) != 1 || got[0] != path {
		t.Errorf("filenames = %v", got)
	}
}

func TestLoadImageAllParsersDecline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.raw")
	if err := os.WriteFile(path, []byte("something else entirely"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	registry := NewRegistry()
	registry.RegisterParser(&rawParser{id: "first", magic: []byte("MAGIC1")})
	registry.RegisterParser(&rawParser{id: "second", magic: []byte("MAGIC2")})

	_, err := registry.LoadImage(nil, []string{path})
	if !errors.Is(err, ErrParser) {
		t.Fatalf("LoadImage() error = %v, want ErrParser", err)
	}
	if !errors.Is(err, ErrCannotHandle) {
		t.Errorf("LoadImage() error = %v, want the last parser's decline in the chain", err)
	}
}

func TestLoadImageNoParsers(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	if _, err := registry.LoadImage(nil, []string{"whatever"}); !errors.Is(err, ErrLibrary) {
		t.Errorf("LoadImage() error = %v, want ErrLibrary", err)
	}
}

func TestOpenStreamStacksFilters(t *testing.T) {
	t.Parallel()

	payload := append([]byte("MAGIC2"), bytes.Repeat([]byte{0x5A}, 2048-6)...)

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "image.raw.gz")
	if err := os.WriteFile(path, compressed.Bytes(), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	registry := NewRegistry()
	s, err := registry.OpenStream(path)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	// The chain's top is the decompression filter; the bottom file
	// stream still answers for the filename.
	if _, ok := s.(*stream.GzipFilter); !ok {
		t.Fatalf("OpenStream() returned %T, want *stream.GzipFilter", s)
	}
	if got := s.Filename(); got != path {
		t.Errorf("Filename() = %q, want %q", got, path)
	}

	decoded := make([]byte, len(payload))
	if _, err := stream.ReadAtLeast(s, decoded); err != nil {
		t.Fatalf("ReadAtLeast() error = %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Error("decompressed payload differs")
	}

	// The whole chain feeds the parser transparently.
	registry.RegisterParser(&rawParser{id: "second", magic: []byte("MAGIC2")})
	disc, err := registry.LoadImage(nil, []string{path})
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if got := disc.Length(); got != 1 {
		t.Errorf("disc length = %d, want 1", got)
	}
}
