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
	"fmt"

	"github.com/disctools/go-discimage/stream"
)

// MainDataFormat describes the layout of a fragment's main-channel data
// in its backing file.
type MainDataFormat int

// Main-channel data formats.
const (
	// MainDataFormatData marks ordinary data sectors.
	MainDataFormatData MainDataFormat = iota

	// MainDataFormatAudio marks big-endian audio sectors.
	MainDataFormatAudio

	// MainDataFormatAudioSwap marks little-endian audio sectors that are
	// byte-swapped in pairs on read and write.
	MainDataFormatAudioSwap
)

// SubchannelDataFormat is a bit set describing where a fragment's
// subchannel data lives and how it is laid out.
type SubchannelDataFormat int

// Subchannel data format bits. Exactly one location bit and one layout
// bit are set on a fragment that carries subchannel data.
const (
	// SubchannelInternal marks subchannel bytes stored as the trailing
	// portion of each main-channel sector.
	SubchannelInternal SubchannelDataFormat = 1 << iota

	// SubchannelExternal marks subchannel bytes stored in a separate
	// stream.
	SubchannelExternal

	// SubchannelPW96Interleaved is the canonical 96-byte interleaved PW
	// layout.
	SubchannelPW96Interleaved

	// SubchannelPW96Linear is the 96-byte linear layout: eight 12-byte
	// channel runs P through W.
	SubchannelPW96Linear

	// SubchannelRW96 is the 96-byte layout carrying 6-bit R-W user data
	// per byte.
	SubchannelRW96

	// SubchannelPQ16 is the 16-byte layout carrying only the Q channel.
	SubchannelPQ16
)

// Fragment is one contiguous run of sectors within a track, backed
// either by nothing (zero-fill) or by byte streams. The variant set is
// closed: NullFragment and BinaryFragment.
//
// Fragment addresses are track-relative; read and write addresses are
// fragment-relative. Subchannel data crossing the fragment boundary is
// always exchanged in the canonical 96-byte interleaved PW form.
type Fragment interface {
	Address() int32
	SetAddress(address int32)
	Length() int32
	SetLength(length int32)
	ContainsAddress(address int32) bool

	// MainDataSize and SubchannelDataSize report the per-sector byte
	// counts the fragment exchanges with its backing storage; a zero
	// subchannel size means the fragment carries no subchannel data.
	MainDataSize() int
	SubchannelDataSize() int

	ReadMainData(address int32) ([]byte, error)
	ReadSubchannelData(address int32) ([]byte, error)
	WriteMainData(address int32, data []byte) error
	WriteSubchannelData(address int32, data []byte) error

	// UseTheRestOfFile extends the fragment to cover the backing file
	// from its main-data offset to the end.
	UseTheRestOfFile() error

	Track() *Track

	setTrack(track *Track)
	setContext(ctx *DebugContext)
}

// fragmentBase carries the layout state shared by both fragment
// variants.
type fragmentBase struct {
	track   *Track
	ctx     *DebugContext
	address int32
	length  int32
}

// Address returns the fragment's track-relative start address.
func (f *fragmentBase) Address() int32 {
	return f.address
}

// SetAddress sets the track-relative start address. Addresses are
// normally assigned by the track's top-down layout pass.
func (f *fragmentBase) SetAddress(address int32) {
	f.address = address
}

// Length returns the fragment length in sectors.
func (f *fragmentBase) Length() int32 {
	return f.length
}

// SetLength sets the fragment length and triggers a bottom-up layout
// recomputation in the owning track.
func (f *fragmentBase) SetLength(length int32) {
	f.length = length
	f.layoutChanged()
}

// ContainsAddress reports whether the track-relative address falls
// within the fragment.
func (f *fragmentBase) ContainsAddress(address int32) bool {
	return address >= f.address && address < f.address+f.length
}

// Track returns the owning track, or nil if detached.
func (f *fragmentBase) Track() *Track {
	return f.track
}

func (f *fragmentBase) setTrack(track *Track) {
	f.track = track
	if track != nil {
		f.ctx = track.ctx
	} else {
		f.ctx = nil
	}
}

func (f *fragmentBase) setContext(ctx *DebugContext) {
	f.ctx = ctx
}

// layoutChanged propagates a length change up the hierarchy.
func (f *fragmentBase) layoutChanged() {
	if f.track != nil {
		f.track.commitBottomUp()
	}
}

// checkAddress validates a fragment-relative address.
func (f *fragmentBase) checkAddress(address int32) error {
	if address < 0 || address >= f.length {
		return fmt.Errorf("%w: address %d out of range [0, %d)", ErrFragment, address, f.length)
	}
	return nil
}

// NullFragment is the zero-fill fragment variant, used for gaps,
// lead-in, lead-out, pregap and unknown regions. Reads return zeroed
// buffers; writes are accepted and discarded.
type NullFragment struct {
	fragmentBase
}

var _ Fragment = (*NullFragment)(nil)

// NewNullFragment returns a zero-length null fragment.
func NewNullFragment() *NullFragment {
	return &NullFragment{}
}

// MainDataSize returns the canonical full sector size.
func (*NullFragment) MainDataSize() int {
	return MainSectorSize
}

// SubchannelDataSize returns 0; null fragments never carry subchannel
// data.
func (*NullFragment) SubchannelDataSize() int {
	return 0
}

// ReadMainData returns a zero-filled full sector.
func (f *NullFragment) ReadMainData(address int32) ([]byte, error) {
	if err := f.checkAddress(address); err != nil {
		return nil, err
	}
	return make([]byte, MainSectorSize), nil
}

// ReadSubchannelData returns a zero-filled interleaved PW buffer.
func (f *NullFragment) ReadSubchannelData(address int32) ([]byte, error) {
	if err := f.checkAddress(address); err != nil {
		return nil, err
	}
	return make([]byte, SubchannelSize), nil
}

// WriteMainData discards the data without error.
func (f *NullFragment) WriteMainData(address int32, _ []byte) error {
	return f.checkAddress(address)
}

// WriteSubchannelData discards the data without error.
func (f *NullFragment) WriteSubchannelData(address int32, _ []byte) error {
	return f.checkAddress(address)
}

// UseTheRestOfFile fails; there is no backing file.
func (*NullFragment) UseTheRestOfFile() error {
	return fmt.Errorf("%w: null fragment has no data file", ErrFragment)
}

// BinaryFragment is the fragment variant backed by byte streams: a main
// data stream and, optionally, a subchannel stream. The same stream may
// back multiple fragments at distinct offsets.
type BinaryFragment struct {
	fragmentBase

	mainStream     stream.Stream
	mainOffset     int64
	mainSectorSize int
	mainFormat     MainDataFormat

	subStream     stream.Stream
	subOffset     int64
	subSectorSize int
	subFormat     SubchannelDataFormat
}

var _ Fragment = (*BinaryFragment)(nil)

// NewBinaryFragment returns a zero-length binary fragment with no
// streams attached.
func NewBinaryFragment() *BinaryFragment {
	return &BinaryFragment{}
}

// SetMainData attaches the main-channel stream: data for sector a is
// read at offset + a*sectorSize.
func (f *BinaryFragment) SetMainData(s stream.Stream, offset int64, sectorSize int, format MainDataFormat) {
	f.mainStream = s
	f.mainOffset = offset
	f.mainSectorSize = sectorSize
	f.mainFormat = format
}

// SetSubchannelData attaches subchannel data. For SubchannelInternal the
// stream argument is ignored — the bytes are the trailing portion of
// each main-channel sector; for SubchannelExternal s supplies them at
// offset + a*sectorSize.
func (f *BinaryFragment) SetSubchannelData(s stream.Stream, offset int64, sectorSize int, format SubchannelDataFormat) {
	f.subStream = s
	f.subOffset = offset
	f.subSectorSize = sectorSize
	f.subFormat = format
}

// MainStream returns the main-channel stream.
func (f *BinaryFragment) MainStream() stream.Stream {
	return f.mainStream
}

// MainDataFormat returns the main-channel data format.
func (f *BinaryFragment) MainDataFormat() MainDataFormat {
	return f.mainFormat
}

// SubchannelDataFormat returns the subchannel format bits.
func (f *BinaryFragment) SubchannelDataFormat() SubchannelDataFormat {
	return f.subFormat
}

// MainDataSize returns the per-sector main-channel byte count, excluding
// any internal subchannel tail.
func (f *BinaryFragment) MainDataSize() int {
	if f.subFormat&SubchannelInternal != 0 {
		return f.mainSectorSize - f.subSectorSize
	}
	return f.mainSectorSize
}

// SubchannelDataSize returns the per-sector subchannel byte count.
func (f *BinaryFragment) SubchannelDataSize() int {
	return f.subSectorSize
}

// ReadMainData reads one sector's main-channel bytes. Audio-swap data is
// byte-swapped in pairs into big-endian order. Reads past the end of the
// backing file are zero-filled.
func (f *BinaryFragment) ReadMainData(address int32) ([]byte, error) {
	if err := f.checkAddress(address); err != nil {
		return nil, err
	}
	if f.mainStream == nil {
		return nil, fmt.Errorf("%w: no main data stream", ErrFragment)
	}

	size := f.MainDataSize()
	buf := make([]byte, size)
	pos := f.mainOffset + int64(address)*int64(f.mainSectorSize)
	if err := f.readAt(f.mainStream, pos, buf); err != nil {
		return nil, err
	}

	if f.mainFormat == MainDataFormatAudioSwap {
		swapAudioBytes(buf)
	}
	return buf, nil
}

// ReadSubchannelData reads one sector's subchannel bytes and converts
// them to the canonical 96-byte interleaved PW form. Fragments without
// subchannel data return an empty buffer.
func (f *BinaryFragment) ReadSubchannelData(address int32) ([]byte, error) {
	if err := f.checkAddress(address); err != nil {
		return nil, err
	}
	if f.subSectorSize == 0 {
		return nil, nil
	}

	raw := make([]byte, f.subSectorSize)
	if f.subFormat&SubchannelInternal != 0 {
		if f.mainStream == nil {
			return nil, fmt.Errorf("%w: no main data stream for internal subchannel", ErrFragment)
		}
		pos := f.mainOffset + int64(address+1)*int64(f.mainSectorSize) - int64(f.subSectorSize)
		if err := f.readAt(f.mainStream, pos, raw); err != nil {
			return nil, err
		}
	} else {
		if f.subStream == nil {
			return nil, fmt.Errorf("%w: no subchannel data stream", ErrFragment)
		}
		pos := f.subOffset + int64(address)*int64(f.subSectorSize)
		if err := f.readAt(f.subStream, pos, raw); err != nil {
			return nil, err
		}
	}

	return f.subchannelToPW(raw)
}

// WriteMainData writes one sector's main-channel bytes. Data shorter
// than the fragment's main size is zero-padded; audio-swap data is
// swapped back to little-endian order before writing.
func (f *BinaryFragment) WriteMainData(address int32, data []byte) error {
	if err := f.checkAddress(address); err != nil {
		return err
	}
	if f.mainStream == nil {
		return fmt.Errorf("%w: no main data stream", ErrFragment)
	}

	size := f.MainDataSize()
	buf := make([]byte, size)
	copy(buf, data)
	if f.mainFormat == MainDataFormatAudioSwap {
		swapAudioBytes(buf)
	}

	pos := f.mainOffset + int64(address)*int64(f.mainSectorSize)
	return f.writeAt(f.mainStream, pos, buf)
}

// WriteSubchannelData writes one sector's subchannel bytes, given in the
// canonical interleaved PW form and converted to the fragment's declared
// layout.
func (f *BinaryFragment) WriteSubchannelData(address int32, data []byte) error {
	if err := f.checkAddress(address); err != nil {
		return err
	}
	if f.subSectorSize == 0 {
		return nil
	}

	raw, err := f.subchannelFromPW(data)
	if err != nil {
		return err
	}

	if f.subFormat&SubchannelInternal != 0 {
		if f.mainStream == nil {
			return fmt.Errorf("%w: no main data stream for internal subchannel", ErrFragment)
		}
		pos := f.mainOffset + int64(address+1)*int64(f.mainSectorSize) - int64(f.subSectorSize)
		return f.writeAt(f.mainStream, pos, raw)
	}
	if f.subStream == nil {
		return fmt.Errorf("%w: no subchannel data stream", ErrFragment)
	}
	pos := f.subOffset + int64(address)*int64(f.subSectorSize)
	return f.writeAt(f.subStream, pos, raw)
}

// UseTheRestOfFile computes the fragment length from the main stream
// size, offset and per-sector size.
func (f *BinaryFragment) UseTheRestOfFile() error {
	if f.mainStream == nil || f.mainSectorSize == 0 {
		return fmt.Errorf("%w: main data stream not set up", ErrFragment)
	}

	end, err := f.mainStream.Seek(0, stream.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFragment, err)
	}
	if end < f.mainOffset {
		return fmt.Errorf("%w: main data offset %d past end of file %d", ErrFragment, f.mainOffset, end)
	}

	f.SetLength(int32((end - f.mainOffset) / int64(f.mainSectorSize)))
	return nil
}

// subchannelToPW converts raw subchannel bytes in the fragment's
// declared layout into the canonical interleaved PW form.
func (f *BinaryFragment) subchannelToPW(raw []byte) ([]byte, error) {
	switch {
	case f.subFormat&SubchannelPW96Interleaved != 0:
		return raw, nil
	case f.subFormat&SubchannelPW96Linear != 0:
		return SubchannelInterleave(raw), nil
	case f.subFormat&SubchannelRW96 != 0:
		pw := make([]byte, SubchannelSize)
		for i, b := range raw {
			pw[i] = b & 0x3F
		}
		return pw, nil
	case f.subFormat&SubchannelPQ16 != 0:
		pw := make([]byte, SubchannelSize)
		SubchannelSetChannel(pw, SubchannelQ, raw[:12])
		return pw, nil
	default:
		return nil, fmt.Errorf("%w: unknown subchannel layout 0x%X", ErrFragment, int(f.subFormat))
	}
}

// subchannelFromPW converts canonical interleaved PW bytes into the
// fragment's declared layout.
func (f *BinaryFragment) subchannelFromPW(pw []byte) ([]byte, error) {
	buf := make([]byte, SubchannelSize)
	copy(buf, pw)

	switch {
	case f.subFormat&SubchannelPW96Interleaved != 0:
		return buf[:f.subSectorSize], nil
	case f.subFormat&SubchannelPW96Linear != 0:
		return SubchannelDeinterleave(buf), nil
	case f.subFormat&SubchannelRW96 != 0:
		rw := make([]byte, SubchannelSize)
		for i, b := range buf {
			rw[i] = b & 0x3F
		}
		return rw, nil
	case f.subFormat&SubchannelPQ16 != 0:
		pq := make([]byte, 16)
		copy(pq, SubchannelExtractChannel(buf, SubchannelQ))
		return pq, nil
	default:
		return nil, fmt.Errorf("%w: unknown subchannel layout 0x%X", ErrFragment, int(f.subFormat))
	}
}

// readAt performs a seek+read pair; the engine makes no assumption about
// sequential reuse of a shared stream. Bytes past end of stream read as
// zero.
func (f *BinaryFragment) readAt(s stream.Stream, pos int64, buf []byte) error {
	if _, err := s.Seek(pos, stream.SeekSet); err != nil {
		return fmt.Errorf("%w: %w", ErrFragment, err)
	}
	if _, err := stream.ReadAtLeast(s, buf); err != nil {
		return fmt.Errorf("%w: %w", ErrFragment, err)
	}
	return nil
}

// writeAt performs a seek+write pair.
func (f *BinaryFragment) writeAt(s stream.Stream, pos int64, buf []byte) error {
	if _, err := s.Seek(pos, stream.SeekSet); err != nil {
		return fmt.Errorf("%w: %w", ErrFragment, err)
	}
	if _, err := s.Write(buf); err != nil {
		return fmt.Errorf("%w: %w", ErrFragment, err)
	}
	return nil
}

// swapAudioBytes swaps adjacent byte pairs in place, converting between
// little-endian and big-endian 16-bit audio samples.
func swapAudioBytes(buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = buf[i+1], buf[i]
	}
}
