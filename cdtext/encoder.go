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

package cdtext

import (
	"fmt"
	"sort"
)

// encoderBlock accumulates the data of one language block before
// encoding.
type encoderBlock struct {
	langCode   int
	charset    int
	copyright  int
	firstTrack int
	lastTrack  int

	entries []Entry

	sizeInfoIdx int // pack index of the first reserved size-info pack
	seqCount    int
	packCount   [16]int
}

// Encoder serializes CD-TEXT entries into a packed, CRC-stamped buffer.
//
// Usage: SetBlockInfo for each language block, AddData for each datum,
// then Encode. The encoder cannot know the size-info content until all
// packs are laid out, so it reserves three size-info packs per block and
// overwrites them in place before computing CRCs.
type Encoder struct {
	blocks [MaxBlocks]encoderBlock

	buf     []byte
	cur     int // current pack index
	curFill int // bytes used in the current pack's data area
	length  int // number of initialized packs
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	e := &Encoder{}
	for i := range e.blocks {
		e.blocks[i].sizeInfoIdx = -1
	}
	return e
}

// SetBlockInfo declares block's language code, character set and
// copyright flag. Data cannot be added for a block whose info has not
// been set.
func (e *Encoder) SetBlockInfo(block, langCode, charset, copyright int) error {
	if block < 0 || block >= MaxBlocks {
		return fmt.Errorf("%w: block %d", ErrInvalidBlock, block)
	}
	e.blocks[block].langCode = langCode
	e.blocks[block].charset = charset
	e.blocks[block].copyright = copyright
	return nil
}

// AddData queues one datum for encoding. langCode selects the block;
// track is the track number the data belongs to (0 for disc-wide data).
// Textual data must include its terminating zero byte.
func (e *Encoder) AddData(langCode int, packType PackType, track int, data []byte) {
	block := e.langToBlock(langCode)
	b := &e.blocks[block]

	b.entries = append(b.entries, Entry{Block: block, Type: packType, Track: track, Data: append([]byte(nil), data...)})

	// The first added track opens the block's track range; the range end
	// follows the most recent addition.
	if len(b.entries) == 1 {
		b.firstTrack = track
	}
	b.lastTrack = track
}

// langToBlock maps a language code to its block, defaulting to block 0.
func (e *Encoder) langToBlock(langCode int) int {
	for i := range e.blocks {
		if e.blocks[i].langCode == langCode {
			return i
		}
	}
	return 0
}

// Encode lays out all packs, fills in the reserved size-info packs and
// stamps each pack's CRC. The returned buffer is length*PackSize bytes.
func (e *Encoder) Encode() []byte {
	// Lay out data packs block by block, reserving zeroed size-info
	// packs at each block's end.
	for i := range e.blocks {
		b := &e.blocks[i]
		if b.langCode == 0 {
			continue
		}

		sort.SliceStable(b.entries, func(x, y int) bool {
			if b.entries[x].Type != b.entries[y].Type {
				return b.entries[x].Type < b.entries[y].Type
			}
			return b.entries[x].Track < b.entries[y].Track
		})

		for _, entry := range b.entries {
			e.packData(i, entry.Type, entry.Track, entry.Data)
		}

		e.packData(i, PackSizeInfo, 0, make([]byte, sizeInfoLen))
	}

	// Now that the layout is final, generate each block's size info and
	// overwrite its reserved packs in place.
	for i := range e.blocks {
		b := &e.blocks[i]
		if b.sizeInfoIdx < 0 {
			continue
		}
		e.cur = b.sizeInfoIdx
		e.curFill = 0
		oldLength := e.length
		e.packData(i, PackSizeInfo, 0, e.generateSizeInfo(i))
		e.length = oldLength
	}

	for i := 0; i < e.length; i++ {
		pack := e.buf[i*PackSize : (i+1)*PackSize]
		crc := CRC16(pack[:PackSize-2])
		pack[16] = byte(crc >> 8)
		pack[17] = byte(crc)
	}

	return e.buf[:e.length*PackSize]
}

// packData copies data into the 12-byte slots of successive packs of the
// same type. The pack's fill field records how many bytes of the datum
// were carried in earlier packs, clamped at 15. A pack type change closes
// the current pack even if its data area is not full.
func (e *Encoder) packData(block int, packType PackType, track int, data []byte) {
	if e.packInitialized(e.cur) && PackType(e.pack(e.cur)[0]) != packType {
		e.cur++
		e.curFill = 0
	}

	carry := 0
	for len(data) > 0 {
		if e.curFill == packDataSize {
			e.cur++
			e.curFill = 0
		}

		e.initializePack(block, packType, track, carry)

		pack := e.pack(e.cur)
		n := copy(pack[packHeaderSize+e.curFill:packHeaderSize+packDataSize], data)
		e.curFill += n
		carry += n
		data = data[n:]
	}
}

// initializePack writes the header of the current pack if it is still
// empty and accounts for it in the block's counters.
func (e *Encoder) initializePack(block int, packType PackType, track, carry int) {
	e.ensure(e.cur)
	pack := e.pack(e.cur)
	if pack[0] != 0 {
		return
	}

	b := &e.blocks[block]
	pack[0] = byte(packType)
	if packType != PackSizeInfo {
		pack[1] = byte(track)
		pack[2] = byte(b.seqCount)
		pack[3] |= byte(block) << 4
		if carry < 15 {
			pack[3] |= byte(carry)
		} else {
			pack[3] |= 15
		}
	} else {
		pack[1] = byte(b.packCount[PackSizeInfo-PackTitle])
		pack[2] = byte(b.seqCount)
		pack[3] |= byte(block) << 4
		if b.sizeInfoIdx < 0 {
			b.sizeInfoIdx = e.cur
		}
	}

	b.seqCount++
	b.packCount[packType-PackTitle]++
	e.length++
}

// generateSizeInfo serializes block's size-info content: character set,
// track range, copyright, per-type pack counts and the per-language
// last-sequence-number and language-code tables.
func (e *Encoder) generateSizeInfo(block int) []byte {
	b := &e.blocks[block]
	info := make([]byte, sizeInfoLen)

	info[0] = byte(b.charset)
	info[1] = byte(b.firstTrack)
	info[2] = byte(b.lastTrack)
	info[3] = byte(b.copyright)

	for i := 0; i < 16; i++ {
		info[4+i] = byte(b.packCount[i])
	}

	for i := range e.blocks {
		if e.blocks[i].seqCount > 0 {
			info[20+i] = byte(e.blocks[i].seqCount - 1)
			info[28+i] = byte(e.blocks[i].langCode)
		}
	}

	return info
}

// pack returns the 18-byte slice of pack idx.
func (e *Encoder) pack(idx int) []byte {
	return e.buf[idx*PackSize : (idx+1)*PackSize]
}

// packInitialized reports whether pack idx exists and has its type set.
func (e *Encoder) packInitialized(idx int) bool {
	return (idx+1)*PackSize <= len(e.buf) && e.buf[idx*PackSize] != 0
}

// ensure grows the buffer to hold packs 0..idx.
func (e *Encoder) ensure(idx int) {
	need := (idx + 1) * PackSize
	for len(e.buf) < need {
		e.buf = append(e.buf, make([]byte, PackSize)...)
	}
}
