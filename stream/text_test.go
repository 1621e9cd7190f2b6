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
	"errors"
	"io"
	"testing"
)

func TestOpenTextReaderBOMDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "UTF-8 BOM",
			data: []byte{0xEF, 0xBB, 0xBF, 'C', 'U', 'E'},
			want: "CUE",
		},
		{
			name: "UTF-16 BE",
			data: []byte{0xFE, 0xFF, 0x00, 'T', 0x00, 'O', 0x00, 'C'},
			want: "TOC",
		},
		{
			name: "UTF-16 LE",
			data: []byte{0xFF, 0xFE, 'T', 0x00, 'O', 0x00, 'C', 0x00},
			want: "TOC",
		},
		{
			name: "UTF-32 BE",
			data: []byte{0x00, 0x00, 0xFE, 0xFF, 0x00, 0x00, 0x00, 'A'},
			want: "A",
		},
		{
			name: "UTF-32 LE",
			data: []byte{0xFF, 0xFE, 0x00, 0x00, 'A', 0x00, 0x00, 0x00},
			want: "A",
		},
		{
			name: "no BOM",
			data: []byte("plain"),
			want: "plain",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			reader, err := OpenTextReader(NewMemoryStream("descriptor", testCase.data), "")
			if err != nil {
				t.Fatalf("OpenTextReader() error = %v", err)
			}
			got, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != testCase.want {
				t.Errorf("decoded %q, want %q", got, testCase.want)
			}
		})
	}
}

func TestOpenTextReaderExplicitEncoding(t *testing.T) {
	t.Parallel()

	// "é" in ISO-8859-1.
	reader, err := OpenTextReader(NewMemoryStream("descriptor", []byte{0xE9}), "ISO-8859-1")
	if err != nil {
		t.Fatalf("OpenTextReader() error = %v", err)
	}
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "é" {
		t.Errorf("decoded %q, want \"é\"", got)
	}
}

func TestOpenTextReaderUnknownEncoding(t *testing.T) {
	t.Parallel()

	_, err := OpenTextReader(NewMemoryStream("descriptor", []byte("x")), "no-such-charset")
	if !errors.Is(err, ErrStream) {
		t.Fatalf("OpenTextReader() error = %v, want ErrStream", err)
	}
}
