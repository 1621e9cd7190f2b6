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
	"fmt"

	"github.com/disctools/go-discimage/internal/bcd"
)

// SectorType identifies the structure of a sector's main channel.
type SectorType int

// Sector types.
const (
	SectorAudio SectorType = iota
	SectorMode1
	SectorMode2 // Mode 2 formless
	SectorMode2Form1
	SectorMode2Form2
	SectorMode2Mixed
)

// String returns the sector type's display name.
func (t SectorType) String() string {
	switch t {
	case SectorAudio:
		return "Audio"
	case SectorMode1:
		return "Mode 1"
	case SectorMode2:
		return "Mode 2 Formless"
	case SectorMode2Form1:
		return "Mode 2 Form 1"
	case SectorMode2Form2:
		return "Mode 2 Form 2"
	case SectorMode2Mixed:
		return "Mode 2 Mixed"
	default:
		return "unknown"
	}
}

// Main-channel sizes.
const (
	// MainSectorSize is the canonical full main-channel sector size.
	MainSectorSize = 2352

	mode1DataSize    = 2048
	mode2DataSize    = 2336
	form2DataSize    = 2324
	syncSize         = 12
	headerOffset     = 12
	subheaderOffset  = 16
	mode1DataOffset  = 16
	mode2DataOffset  = 24
	subheaderSize    = 8
	form2SubmodeFlag = 0x20
)

// syncPattern is the 12-byte data sector sync pattern.
var syncPattern = [syncSize]byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// Sector is a transient value assembling one sector's main channel and
// subchannel. It is produced by Track.GetSector and consumed by
// Track.PutSector; the main buffer is always the full 2352 bytes, with
// missing structure (sync, header, subheader, EDC/ECC) generated
// synthetically from the sector type and address.
type Sector struct {
	track      *Track
	address    int32
	sectorType SectorType

	main [MainSectorSize]byte
	sub  [SubchannelSize]byte
}

// NewSector assembles a sector at the given absolute address. main may be
// a full 2352-byte buffer or just the user-data portion appropriate to
// the sector type (2048 for Mode 1 and Mode 2 Form 1, 2336 for Mode 2,
// 2324 for Mode 2 Form 2, nil for all-zero); sub must be 96 bytes of
// interleaved PW data or empty.
//
// A track declaring Mode 2 Mixed resolves to Form 1 or Form 2 from the
// subheader of each sector.
func NewSector(address int32, sectorType SectorType, main, sub []byte) (*Sector, error) {
	s := &Sector{address: address, sectorType: sectorType}

	if len(sub) > 0 {
		if len(sub) != SubchannelSize {
			return nil, fmt.Errorf("%w: subchannel buffer is %d bytes, want %d", ErrSector, len(sub), SubchannelSize)
		}
		copy(s.sub[:], sub)
	}

	if err := s.feedMain(main); err != nil {
		return nil, err
	}
	return s, nil
}

// feedMain places the main-channel bytes and settles the effective
// sector type.
func (s *Sector) feedMain(main []byte) error {
	switch len(main) {
	case 0:
		s.resolveMixed()
		s.generateStructure()
	case MainSectorSize:
		copy(s.main[:], main)
		s.resolveMixed()
		if s.needsStructure() && isZeroed(main) {
			s.generateStructure()
		}
	case mode1DataSize:
		switch s.sectorType {
		case SectorMode1:
			copy(s.main[mode1DataOffset:], main)
		case SectorMode2Form1, SectorMode2Mixed:
			s.sectorType = SectorMode2Form1
			copy(s.main[mode2DataOffset:], main)
		default:
			return fmt.Errorf("%w: %d-byte buffer for %s sector", ErrSector, len(main), s.sectorType)
		}
		s.generateStructure()
	case mode2DataSize:
		switch s.sectorType {
		case SectorMode2, SectorMode2Form1, SectorMode2Form2, SectorMode2Mixed:
			copy(s.main[subheaderOffset:], main)
			s.resolveMixed()
		default:
			return fmt.Errorf("%w: %d-byte buffer for %s sector", ErrSector, len(main), s.sectorType)
		}
		s.generateStructure()
	case form2DataSize:
		if s.sectorType != SectorMode2Form2 && s.sectorType != SectorMode2Mixed {
			return fmt.Errorf("%w: %d-byte buffer for %s sector", ErrSector, len(main), s.sectorType)
		}
		s.sectorType = SectorMode2Form2
		copy(s.main[mode2DataOffset:], main)
		s.generateStructure()
	default:
		return fmt.Errorf("%w: unsupported main buffer size %d", ErrSector, len(main))
	}
	return nil
}

// resolveMixed settles a Mode 2 Mixed declaration into Form 1 or Form 2
// from the subheader's submode byte.
func (s *Sector) resolveMixed() {
	if s.sectorType != SectorMode2Mixed {
		return
	}
	if s.main[subheaderOffset+2]&form2SubmodeFlag != 0 {
		s.sectorType = SectorMode2Form2
	} else {
		s.sectorType = SectorMode2Form1
	}
}

// needsStructure reports whether the sector type carries sync and header
// fields.
func (s *Sector) needsStructure() bool {
	return s.sectorType != SectorAudio
}

// generateStructure fills in sync, header, subheader and EDC/ECC fields
// appropriate to the sector type.
func (s *Sector) generateStructure() {
	switch s.sectorType {
	case SectorAudio:
		return
	case SectorMode1:
		s.generateSyncHeader(1)
		edcSet(s.main[:], mode1EDCOffset, edcCompute(s.main[:mode1EDCOffset]))
		eccGenerate(s.main[:], false)
	case SectorMode2:
		s.generateSyncHeader(2)
	case SectorMode2Form1:
		s.generateSyncHeader(2)
		edcSet(s.main[:], mode2EDCOffset, edcCompute(s.main[subheaderOffset:mode2EDCOffset]))
		eccGenerate(s.main[:], true)
	case SectorMode2Form2:
		s.generateSyncHeader(2)
		s.main[subheaderOffset+2] |= form2SubmodeFlag
		s.main[subheaderOffset+6] |= form2SubmodeFlag
		edcSet(s.main[:], form2EDCOffset, edcCompute(s.main[subheaderOffset:form2EDCOffset]))
	case SectorMode2Mixed:
		// Already resolved to a concrete form.
	}
}

// generateSyncHeader writes the sync pattern and the BCD MSF header for
// the given mode.
func (s *Sector) generateSyncHeader(mode byte) {
	copy(s.main[:syncSize], syncPattern[:])
	m, sec, f := bcd.LBAToMSF(s.address + bcd.MSFOffset)
	s.main[headerOffset] = bcd.ToBCD(m)
	s.main[headerOffset+1] = bcd.ToBCD(sec)
	s.main[headerOffset+2] = bcd.ToBCD(f)
	s.main[headerOffset+3] = mode
}

// Address returns the sector's absolute address.
func (s *Sector) Address() int32 {
	return s.address
}

// Type returns the effective sector type.
func (s *Sector) Type() SectorType {
	return s.sectorType
}

// Data returns the full 2352-byte main-channel buffer.
func (s *Sector) Data() []byte {
	return s.main[:]
}

// Sync returns the 12-byte sync pattern. Audio sectors have none.
func (s *Sector) Sync() ([]byte, error) {
	if s.sectorType == SectorAudio {
		return nil, fmt.Errorf("%w: audio sectors have no sync pattern", ErrSector)
	}
	return s.main[:syncSize], nil
}

// Header returns the 4-byte sector header. Audio sectors have none.
func (s *Sector) Header() ([]byte, error) {
	if s.sectorType == SectorAudio {
		return nil, fmt.Errorf("%w: audio sectors have no header", ErrSector)
	}
	return s.main[headerOffset : headerOffset+4], nil
}

// Subheader returns the 8-byte Mode 2 subheader.
func (s *Sector) Subheader() ([]byte, error) {
	if s.sectorType != SectorMode2Form1 && s.sectorType != SectorMode2Form2 {
		return nil, fmt.Errorf("%w: %s sectors have no subheader", ErrSector, s.sectorType)
	}
	return s.main[subheaderOffset : subheaderOffset+subheaderSize], nil
}

// UserData returns the user-data slice appropriate to the sector type.
func (s *Sector) UserData() []byte {
	switch s.sectorType {
	case SectorAudio:
		return s.main[:]
	case SectorMode1:
		return s.main[mode1DataOffset : mode1DataOffset+mode1DataSize]
	case SectorMode2:
		return s.main[subheaderOffset : subheaderOffset+mode2DataSize]
	case SectorMode2Form1:
		return s.main[mode2DataOffset : mode2DataOffset+mode1DataSize]
	case SectorMode2Form2:
		return s.main[mode2DataOffset : mode2DataOffset+form2DataSize]
	default:
		return s.main[:]
	}
}

// VerifyEDC recomputes the sector's EDC and compares it with the stored
// value. Sector types without an EDC verify trivially.
func (s *Sector) VerifyEDC() error {
	var stored, computed uint32
	switch s.sectorType {
	case SectorMode1:
		stored = uint32(s.main[mode1EDCOffset]) | uint32(s.main[mode1EDCOffset+1])<<8 |
			uint32(s.main[mode1EDCOffset+2])<<16 | uint32(s.main[mode1EDCOffset+3])<<24
		computed = edcCompute(s.main[:mode1EDCOffset])
	case SectorMode2Form1:
		stored = uint32(s.main[mode2EDCOffset]) | uint32(s.main[mode2EDCOffset+1])<<8 |
			uint32(s.main[mode2EDCOffset+2])<<16 | uint32(s.main[mode2EDCOffset+3])<<24
		computed = edcCompute(s.main[subheaderOffset:mode2EDCOffset])
	case SectorMode2Form2:
		stored = uint32(s.main[form2EDCOffset]) | uint32(s.main[form2EDCOffset+1])<<8 |
			uint32(s.main[form2EDCOffset+2])<<16 | uint32(s.main[form2EDCOffset+3])<<24
		computed = edcCompute(s.main[subheaderOffset:form2EDCOffset])
	default:
		return nil
	}
	if stored != computed {
		return fmt.Errorf("%w: EDC mismatch: stored 0x%08X, computed 0x%08X", ErrSector, stored, computed)
	}
	return nil
}

// Subchannel returns the sector's subchannel in the requested layout:
// interleaved PW, linear PW, 6-bit R-W data, or the 16-byte PQ form in
// which only the Q channel is materialized.
func (s *Sector) Subchannel(layout SubchannelDataFormat) ([]byte, error) {
	s.ensureSubchannel()
	switch layout {
	case SubchannelPW96Interleaved:
		out := make([]byte, SubchannelSize)
		copy(out, s.sub[:])
		return out, nil
	case SubchannelPW96Linear:
		return SubchannelDeinterleave(s.sub[:]), nil
	case SubchannelRW96:
		out := make([]byte, SubchannelSize)
		for i, b := range s.sub {
			out[i] = b & 0x3F
		}
		return out, nil
	case SubchannelPQ16:
		out := make([]byte, 16)
		copy(out, SubchannelExtractChannel(s.sub[:], SubchannelQ))
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown subchannel layout 0x%X", ErrSector, int(layout))
	}
}

// SubchannelChannel materializes one of the eight subchannel streams
// (SubchannelP through SubchannelW) as 12 bytes.
func (s *Sector) SubchannelChannel(channel int) ([]byte, error) {
	if channel < SubchannelP || channel > SubchannelW {
		return nil, fmt.Errorf("%w: invalid subchannel %d", ErrSector, channel)
	}
	s.ensureSubchannel()
	return SubchannelExtractChannel(s.sub[:], channel), nil
}

// ensureSubchannel synthesizes a mode-1 position Q channel when the
// sector carries no subchannel data at all.
func (s *Sector) ensureSubchannel() {
	if !isZeroed(s.sub[:]) {
		return
	}

	var ctl byte
	trackNumber := 0
	index := 1
	relative := s.address
	if s.track != nil {
		ctl = byte(s.track.CTL())
		trackNumber = s.track.Number()
		relative = s.address - s.track.StartSector()
		if relative < s.track.TrackStart() {
			index = 0
			relative = s.track.TrackStart() - relative
		} else {
			relative -= s.track.TrackStart()
		}
	}
	if relative < 0 {
		relative = 0
	}

	q := encodeQPosition(ctl, trackNumber, index, relative, s.address)
	SubchannelSetChannel(s.sub[:], SubchannelQ, q)
}

// ExtractMain returns the main-channel bytes matching a fragment's
// declared per-sector size: the full sector, the bare user data, or the
// Mode 2 body.
func (s *Sector) ExtractMain(size int) ([]byte, error) {
	switch size {
	case MainSectorSize:
		return s.main[:], nil
	case mode1DataSize:
		switch s.sectorType {
		case SectorMode1:
			return s.main[mode1DataOffset : mode1DataOffset+mode1DataSize], nil
		case SectorMode2Form1:
			return s.main[mode2DataOffset : mode2DataOffset+mode1DataSize], nil
		default:
			return nil, fmt.Errorf("%w: cannot extract %d bytes from %s sector", ErrSector, size, s.sectorType)
		}
	case mode2DataSize:
		return s.main[subheaderOffset : subheaderOffset+mode2DataSize], nil
	case form2DataSize:
		if s.sectorType != SectorMode2Form2 {
			return nil, fmt.Errorf("%w: cannot extract %d bytes from %s sector", ErrSector, size, s.sectorType)
		}
		return s.main[mode2DataOffset : mode2DataOffset+form2DataSize], nil
	default:
		return nil, fmt.Errorf("%w: unsupported extraction size %d", ErrSector, size)
	}
}

// Equal reports whether two sectors carry the same address, type, main
// channel and subchannel.
func (s *Sector) Equal(other *Sector) bool {
	return other != nil &&
		s.address == other.address &&
		s.sectorType == other.sectorType &&
		bytes.Equal(s.main[:], other.main[:]) &&
		bytes.Equal(s.sub[:], other.sub[:])
}

// isZeroed reports whether buf contains only zero bytes.
func isZeroed(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
