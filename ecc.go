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

import "encoding/binary"

// CD-ROM error detection and correction: the EDC is a 32-bit CRC with
// polynomial 0xD8018001 processed least-significant-bit first; the ECC
// is two Reed-Solomon parity planes (P and Q) over GF(2^8) with
// primitive polynomial 0x11D.

var (
	eccFLut [256]byte
	eccBLut [256]byte
	edcLut  [256]uint32
)

func init() {
	for i := 0; i < 256; i++ {
		j := (i << 1) ^ 0
		if i&0x80 != 0 {
			j = (i << 1) ^ 0x11D
		}
		eccFLut[i] = byte(j)
		eccBLut[i^j] = byte(i)

		edc := uint32(i)
		for k := 0; k < 8; k++ {
			if edc&1 != 0 {
				edc = (edc >> 1) ^ 0xD8018001
			} else {
				edc >>= 1
			}
		}
		edcLut[i] = edc
	}
}

// edcCompute computes the EDC checksum over data.
func edcCompute(data []byte) uint32 {
	var edc uint32
	for _, b := range data {
		edc = (edc >> 8) ^ edcLut[byte(edc)^b]
	}
	return edc
}

// Sector regions used by EDC/ECC generation.
const (
	mode1EDCOffset = 2064
	mode2EDCOffset = 2072
	form2EDCOffset = 2348
	eccPOffset     = 2076
	eccQOffset     = 2248
	eccPLength     = 86 * 2
	eccQLength     = 52 * 2
)

// eccComputeBlock computes one Reed-Solomon parity plane over the sector
// region starting at the header (byte 12). dest receives majorCount pairs
// of parity bytes.
func eccComputeBlock(src []byte, majorCount, minorCount, majorMult, minorInc int, dest []byte) {
	size := majorCount * minorCount
	for major := 0; major < majorCount; major++ {
		index := (major>>1)*majorMult + (major & 1)
		var eccA, eccB byte
		for minor := 0; minor < minorCount; minor++ {
			temp := src[index]
			index += minorInc
			if index >= size {
				index -= size
			}
			eccA ^= temp
			eccB ^= temp
			eccA = eccFLut[eccA]
		}
		eccA = eccBLut[eccFLut[eccA]^eccB]
		dest[major] = eccA
		dest[major+majorCount] = eccA ^ eccB
	}
}

// eccGenerate fills in the P and Q parity planes of a full 2352-byte
// sector. Mode 2 sectors compute parity with the header address zeroed.
func eccGenerate(sector []byte, zeroAddress bool) {
	var savedAddress [4]byte
	if zeroAddress {
		copy(savedAddress[:], sector[12:16])
		for i := 12; i < 16; i++ {
			sector[i] = 0
		}
	}

	eccComputeBlock(sector[12:], 86, 24, 2, 86, sector[eccPOffset:eccPOffset+eccPLength])
	eccComputeBlock(sector[12:], 52, 43, 86, 88, sector[eccQOffset:eccQOffset+eccQLength])

	if zeroAddress {
		copy(sector[12:16], savedAddress[:])
	}
}

// edcSet stores an EDC value little-endian at offset.
func edcSet(sector []byte, offset int, edc uint32) {
	binary.LittleEndian.PutUint32(sector[offset:], edc)
}
