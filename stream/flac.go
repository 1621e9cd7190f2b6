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
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// flacMagic is the FLAC stream marker.
var flacMagic = []byte{'f', 'L', 'a', 'C'}

// FlacFilter exposes a FLAC-encoded audio file as a stream of raw CD-DA
// samples: signed 16-bit little-endian interleaved stereo, 2352 bytes per
// sector. Audio fragments can sit directly on top of it.
type FlacFilter struct {
	SimpleFilter
	data []byte
}

var _ Stream = (*FlacFilter)(nil)

// OpenFlacFilter probes underlying for a FLAC marker and, when it
// matches, returns a filter stream over the decoded PCM data.
func OpenFlacFilter(underlying Stream) (*FlacFilter, error) {
	sig, err := peekSignature(underlying, len(flacMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, flacMagic) {
		return nil, ErrCannotHandle
	}

	data, err := readAll(underlying, decodeFlacStream)
	if err != nil {
		return nil, err
	}

	ff := &FlacFilter{data: data}
	ff.InitSimpleFilter(underlying, ff)
	return ff, nil
}

// decodeFlacStream decodes all FLAC frames into interleaved 16-bit
// little-endian PCM.
func decodeFlacStream(r io.Reader) ([]byte, error) {
	fs, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("flac init: %w", err)
	}
	defer func() { _ = fs.Close() }()

	var pcm bytes.Buffer
	for {
		audioFrame, err := fs.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("flac frame: %w", err)
		}
		writeFlacFrameSamples(&pcm, audioFrame)
	}
	return pcm.Bytes(), nil
}

// writeFlacFrameSamples appends one frame's samples in CD-DA byte order.
// Mono input is duplicated onto both channels.
func writeFlacFrameSamples(pcm *bytes.Buffer, audioFrame *frame.Frame) {
	if len(audioFrame.Subframes) == 0 {
		return
	}

	numChannels := min(len(audioFrame.Subframes), 2)
	for i := 0; i < audioFrame.Subframes[0].NSamples; i++ {
		for ch := 0; ch < 2; ch++ {
			src := ch
			if src >= numChannels {
				src = 0
			}
			sample := audioFrame.Subframes[src].Samples[i]
			pcm.WriteByte(byte(sample))
			pcm.WriteByte(byte(sample >> 8))
		}
	}
}

// StreamLength returns the decoded PCM length.
func (ff *FlacFilter) StreamLength() int64 {
	return int64(len(ff.data))
}

// PartialRead copies decoded PCM bytes starting at pos.
func (ff *FlacFilter) PartialRead(p []byte, pos int64) (int, error) {
	if pos >= int64(len(ff.data)) {
		return 0, nil
	}
	return copy(p, ff.data[pos:]), nil
}
