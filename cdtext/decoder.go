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
	"bytes"
	"fmt"
	"sort"
)

// decoderBlock holds the decoded state of one language block.
type decoderBlock struct {
	langCode   int
	charset    int
	copyright  int
	firstTrack int
	lastTrack  int

	seqCount    int
	packCount   [16]int
	sizeInfoIdx int

	entries []Entry
}

// Decoder deserializes a CD-TEXT pack buffer into entries.
type Decoder struct {
	blocks [MaxBlocks]decoderBlock
	buf    []byte
}

// maxStringLen bounds the accumulated string buffer during decoding.
const maxStringLen = 255

// NewDecoder decodes buf and returns a decoder holding the results.
// buf must be a whole number of 18-byte packs.
func NewDecoder(buf []byte) (*Decoder, error) {
	if len(buf)%PackSize != 0 {
		return nil, fmt.Errorf("%w: buffer size %d is not a multiple of pack size", ErrInvalidData, len(buf))
	}

	d := &Decoder{buf: buf}
	for i := range d.blocks {
		d.blocks[i].sizeInfoIdx = -1
	}

	d.readSizeInfo()
	for block := range d.blocks {
		d.decodeBlock(block)
	}
	return d, nil
}

// readSizeInfo scans the buffer for size-info packs and populates
// per-block counters and language codes from them.
func (d *Decoder) readSizeInfo() {
	numPacks := len(d.buf) / PackSize

	for i := 0; i < numPacks; {
		pack := d.pack(i)
		if PackType(pack[0]) != PackSizeInfo {
			i++
			continue
		}

		block := int(pack[3]&0xF0) >> 4
		b := &d.blocks[block]
		b.sizeInfoIdx = i

		// Size-info content spans the data areas of three consecutive
		// packs.
		info := make([]byte, 0, sizeInfoLen)
		for j := 0; j < sizeInfoLen/packDataSize && i+j < numPacks; j++ {
			info = append(info, d.pack(i+j)[packHeaderSize:packHeaderSize+packDataSize]...)
		}
		if len(info) < sizeInfoLen {
			break
		}

		b.charset = int(info[0])
		b.firstTrack = int(info[1])
		b.lastTrack = int(info[2])
		b.copyright = int(info[3])
		for j := 0; j < 16; j++ {
			b.packCount[j] = int(info[4+j])
		}
		b.seqCount = int(info[20+block]) + 1
		b.langCode = int(info[28+block])

		i += sizeInfoLen / packDataSize
	}
}

// decodeBlock walks one block's packs in order, accumulating bytes of
// each type-run into a string buffer and emitting one entry per
// zero-terminated string. Track numbers carry forward across pack
// boundaries via each pack's track field.
func (d *Decoder) decodeBlock(block int) {
	b := &d.blocks[block]
	if b.seqCount == 0 || b.sizeInfoIdx < 0 {
		return
	}

	// The block's data packs immediately precede its three size-info
	// packs; the sequence count includes those three.
	cur := b.sizeInfoIdx - (b.seqCount - sizeInfoLen/packDataSize)
	if cur < 0 {
		cur = 0
	}
	curFill := 0
	curTrack := int(d.pack(cur)[1])
	tmp := make([]byte, 0, maxStringLen)

	for cur < b.sizeInfoIdx {
		pack := d.pack(cur)

		// A new pack type starts a new string run.
		if cur == 0 || pack[0] != d.pack(cur-1)[0] {
			if curFill == 0 {
				tmp = tmp[:0]
			}
		}

		data := pack[packHeaderSize : packHeaderSize+packDataSize]
		var copyLen int
		if idx := bytes.IndexByte(data[curFill:], 0); idx >= 0 {
			copyLen = idx + 1
		} else {
			copyLen = packDataSize - curFill
		}
		if copyLen > packDataSize-curFill {
			copyLen = packDataSize - curFill
		}

		tmp = append(tmp, data[curFill:curFill+copyLen]...)
		curFill += copyLen

		// A terminating zero with preceding content closes one string.
		// Lone zeros are pack padding and are skipped.
		if tmp[len(tmp)-1] == 0 {
			if cstrlen(tmp) > 0 {
				entry := Entry{
					Block: block,
					Type:  PackType(pack[0]),
					Track: curTrack,
					Data:  append([]byte(nil), tmp...),
				}
				b.entries = append(b.entries, entry)
				curTrack++
			}
			tmp = tmp[:0]
		}

		if curFill == packDataSize {
			curFill = 0
			cur++
			if cur < b.sizeInfoIdx {
				curTrack = int(d.pack(cur)[1])
			}
		}
	}

	sort.SliceStable(b.entries, func(x, y int) bool {
		if b.entries[x].Type != b.entries[y].Type {
			return b.entries[x].Type < b.entries[y].Type
		}
		return b.entries[x].Track < b.entries[y].Track
	})
}

// BlockInfo returns the language code, character set, copyright flag and
// track range of block.
func (d *Decoder) BlockInfo(block int) (BlockInfo, error) {
	if block < 0 || block >= MaxBlocks {
		return BlockInfo{}, fmt.Errorf("%w: block %d", ErrInvalidBlock, block)
	}
	b := &d.blocks[block]
	if b.langCode == 0 {
		return BlockInfo{}, fmt.Errorf("%w: block %d has no language code", ErrInvalidBlock, block)
	}
	return BlockInfo{
		LanguageCode: b.langCode,
		CharacterSet: b.charset,
		Copyright:    b.copyright,
		FirstTrack:   b.firstTrack,
		LastTrack:    b.lastTrack,
	}, nil
}

// Entries returns the decoded entries of block, sorted by pack type and
// track number.
func (d *Decoder) Entries(block int) ([]Entry, error) {
	if block < 0 || block >= MaxBlocks {
		return nil, fmt.Errorf("%w: block %d", ErrInvalidBlock, block)
	}
	return d.blocks[block].entries, nil
}

// Blocks returns the numbers of all blocks that carry data.
func (d *Decoder) Blocks() []int {
	var blocks []int
	for i := range d.blocks {
		if d.blocks[i].langCode != 0 {
			blocks = append(blocks, i)
		}
	}
	return blocks
}

// pack returns the 18-byte slice of pack idx.
func (d *Decoder) pack(idx int) []byte {
	return d.buf[idx*PackSize : (idx+1)*PackSize]
}

// cstrlen returns the length of the zero-terminated prefix of b.
func cstrlen(b []byte) int {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return idx
	}
	return len(b)
}
