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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// langEnglish is the CD-TEXT language code for English.
const langEnglish = 0x09

func TestCRC16(t *testing.T) {
	t.Parallel()

	// CRC16-CCITT of "123456789" is 0x31C3; the pack CRC stores its
	// complement.
	assert.Equal(t, uint16(^uint16(0x31C3)), CRC16([]byte("123456789")))
}

func TestEncodeDecodeTitles(t *testing.T) {
	t.Parallel()

	encoder := NewEncoder()
	require.NoError(t, encoder.SetBlockInfo(0, langEnglish, 0, 0))
	encoder.AddData(langEnglish, PackTitle, 0, []byte("Album\x00"))
	encoder.AddData(langEnglish, PackTitle, 1, []byte("Intro\x00"))
	encoder.AddData(langEnglish, PackTitle, 2, []byte("Outro\x00"))

	buf := encoder.Encode()

	// Three six-byte strings pack into two title packs, plus the three
	// size-info packs.
	assert.Equal(t, 5*PackSize, len(buf))

	// Every pack carries a valid CRC over its first 16 bytes.
	for i := 0; i < len(buf); i += PackSize {
		pack := buf[i : i+PackSize]
		crc := CRC16(pack[:16])
		assert.Equal(t, byte(crc>>8), pack[16], "pack %d CRC high byte", i/PackSize)
		assert.Equal(t, byte(crc), pack[17], "pack %d CRC low byte", i/PackSize)
	}

	decoder, err := NewDecoder(buf)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, decoder.Blocks())

	info, err := decoder.BlockInfo(0)
	require.NoError(t, err)
	assert.Equal(t, langEnglish, info.LanguageCode)
	assert.Equal(t, 0, info.FirstTrack)
	assert.Equal(t, 2, info.LastTrack)

	entries, err := decoder.Entries(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	want := []Entry{
		{Block: 0, Type: PackTitle, Track: 0, Data: []byte("Album\x00")},
		{Block: 0, Type: PackTitle, Track: 1, Data: []byte("Intro\x00")},
		{Block: 0, Type: PackTitle, Track: 2, Data: []byte("Outro\x00")},
	}
	assert.Equal(t, want, entries)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	encoder := NewEncoder()
	require.NoError(t, encoder.SetBlockInfo(0, langEnglish, 0, 3))
	encoder.AddData(langEnglish, PackTitle, 0, []byte("A Longer Album Title Spanning Packs\x00"))
	encoder.AddData(langEnglish, PackTitle, 1, []byte("One\x00"))
	encoder.AddData(langEnglish, PackPerformer, 0, []byte("The Band\x00"))
	encoder.AddData(langEnglish, PackPerformer, 1, []byte("The Band\x00"))

	buf := encoder.Encode()
	decoder, err := NewDecoder(buf)
	require.NoError(t, err)

	info, err := decoder.BlockInfo(0)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Copyright)

	entries, err := decoder.Entries(0)
	require.NoError(t, err)

	// Re-encoding the decoded entries reproduces the buffer bit for bit.
	reEncoder := NewEncoder()
	require.NoError(t, reEncoder.SetBlockInfo(0, info.LanguageCode, info.CharacterSet, info.Copyright))
	for _, entry := range entries {
		reEncoder.AddData(info.LanguageCode, entry.Type, entry.Track, entry.Data)
	}
	assert.Equal(t, buf, reEncoder.Encode())
}

func TestEncodeMultipleBlocks(t *testing.T) {
	t.Parallel()

	const langGerman = 0x08

	encoder := NewEncoder()
	require.NoError(t, encoder.SetBlockInfo(0, langEnglish, 0, 0))
	require.NoError(t, encoder.SetBlockInfo(1, langGerman, 0, 0))
	encoder.AddData(langEnglish, PackTitle, 1, []byte("Song\x00"))
	encoder.AddData(langGerman, PackTitle, 1, []byte("Lied\x00"))

	buf := encoder.Encode()
	decoder, err := NewDecoder(buf)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, decoder.Blocks())

	english, err := decoder.Entries(0)
	require.NoError(t, err)
	require.Len(t, english, 1)
	assert.Equal(t, []byte("Song\x00"), english[0].Data)

	german, err := decoder.Entries(1)
	require.NoError(t, err)
	require.Len(t, german, 1)
	assert.Equal(t, []byte("Lied\x00"), german[0].Data)
	assert.Equal(t, 1, german[0].Track)
}

func TestDecoderRejectsOddSize(t *testing.T) {
	t.Parallel()

	_, err := NewDecoder(make([]byte, PackSize+1))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestSetBlockInfoRange(t *testing.T) {
	t.Parallel()

	encoder := NewEncoder()
	assert.ErrorIs(t, encoder.SetBlockInfo(8, langEnglish, 0, 0), ErrInvalidBlock)
	assert.ErrorIs(t, encoder.SetBlockInfo(-1, langEnglish, 0, 0), ErrInvalidBlock)
}
