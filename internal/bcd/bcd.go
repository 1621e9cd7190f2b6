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

// Package bcd provides binary-coded-decimal and MSF address helpers used
// by the sector and subchannel codecs.
package bcd

// FramesPerSecond is the number of sectors in one second of CD data.
const FramesPerSecond = 75

// SecondsPerMinute is the number of seconds per MSF minute.
const SecondsPerMinute = 60

// MSFOffset is the 2-second offset, in sectors, between logical block
// addresses and absolute MSF addresses (MSF 00:02:00 corresponds to LBA 0).
const MSFOffset = 2 * FramesPerSecond

// ToBCD converts a binary value (0-99) into its BCD representation.
func ToBCD(value int) byte {
	return byte(((value / 10) << 4) | (value % 10))
}

// FromBCD converts a BCD-encoded byte back into its binary value.
func FromBCD(value byte) int {
	return int((value>>4)*10 + (value & 0x0F))
}

// LBAToMSF splits a non-negative logical block address into its
// minute/second/frame components. Callers wanting the absolute MSF
// address of a disc sector should add 150 to the LBA first.
func LBAToMSF(lba int32) (m, s, f int) {
	m = int(lba / (SecondsPerMinute * FramesPerSecond))
	s = int(lba/FramesPerSecond) % SecondsPerMinute
	f = int(lba % FramesPerSecond)
	return m, s, f
}

// MSFToLBA combines minute/second/frame components into a logical block
// address.
func MSFToLBA(m, s, f int) int32 {
	return int32(m*SecondsPerMinute*FramesPerSecond + s*FramesPerSecond + f)
}
