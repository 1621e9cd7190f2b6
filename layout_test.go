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
	"testing"

	"github.com/disctools/go-discimage/stream"
)

// buildDiscWithSessions builds a disc whose sessions hold one null-backed
// track of each given length.
func buildDiscWithSessions(t *testing.T, start int32, lengths ...int32) *Disc {
	t.Helper()

	disc := NewDisc()
	for _, length := range lengths {
		session := NewSession()
		track := NewTrack()
		fragment := NewNullFragment()
		track.AddFragment(0, fragment)
		fragment.SetLength(length)
		session.AddTrack(track)
		disc.AddSession(session)
	}
	disc.SetStartSector(start)
	return disc
}

func TestLayoutContiguity(t *testing.T) {
	t.Parallel()

	disc := buildDiscWithSessions(t, -150, 1000, 500, 250)

	// Sessions are contiguous and sum to the disc length.
	var total int32
	sessions := disc.Sessions()
	for i, session := range sessions {
		total += session.Length()
		if i+1 < len(sessions) {
			next := sessions[i+1]
			if session.StartSector()+session.Length() != next.StartSector() {
				t.Errorf("session %d: start %d + length %d != next start %d",
					i, session.StartSector(), session.Length(), next.StartSector())
			}
		}
	}
	if total != disc.Length() {
		t.Errorf("session lengths sum to %d, disc length is %d", total, disc.Length())
	}
	if sessions[0].StartSector() != disc.StartSector() {
		t.Errorf("first session starts at %d, disc starts at %d", sessions[0].StartSector(), disc.StartSector())
	}

	// Tracks within each session are contiguous.
	for _, session := range sessions {
		tracks := session.Tracks()
		for i := 0; i+1 < len(tracks); i++ {
			if tracks[i].StartSector()+tracks[i].Length() != tracks[i+1].StartSector() {
				t.Errorf("track %d: start %d + length %d != next start %d",
					i, tracks[i].StartSector(), tracks[i].Length(), tracks[i+1].StartSector())
			}
		}
	}
}

func TestLayoutNumbering(t *testing.T) {
	t.Parallel()

	disc := buildDiscWithSessions(t, 0, 100, 100)
	disc.SetFirstSession(3)

	for i, session := range disc.Sessions() {
		if got := session.Number(); got != 3+i {
			t.Errorf("session %d number = %d, want %d", i, got, 3+i)
		}
	}

	session := disc.Sessions()[0]
	session.SetFirstTrack(5)
	program := session.ProgramTracks()
	for i, track := range program {
		if got := track.Number(); got != 5+i {
			t.Errorf("track %d number = %d, want %d", i, got, 5+i)
		}
	}

	// Lead-in and lead-out keep their reserved numbers.
	tracks := session.Tracks()
	if tracks[0].Number() != TrackLeadIn {
		t.Errorf("lead-in number = %d, want %d", tracks[0].Number(), TrackLeadIn)
	}
	if tracks[len(tracks)-1].Number() != TrackLeadOut {
		t.Errorf("lead-out number = %d, want %d", tracks[len(tracks)-1].Number(), TrackLeadOut)
	}
}

func TestSessionByIndexBoundaries(t *testing.T) {
	t.Parallel()

	disc := buildDiscWithSessions(t, 0, 100, 200)

	last, err := disc.SessionByIndex(-1)
	if err != nil {
		t.Fatalf("SessionByIndex(-1) error = %v", err)
	}
	if got := last.Length(); got != 200 {
		t.Errorf("SessionByIndex(-1).Length() = %d, want 200", got)
	}

	if _, err := disc.SessionByIndex(2); !errors.Is(err, ErrSession) {
		t.Errorf("SessionByIndex(2) error = %v, want ErrSession", err)
	}
	if _, err := disc.SessionByIndex(-3); !errors.Is(err, ErrSession) {
		t.Errorf("SessionByIndex(-3) error = %v, want ErrSession", err)
	}
}

func TestAddressLookup(t *testing.T) {
	t.Parallel()

	disc := buildDiscWithSessions(t, -150, 1000, 500)

	tests := []struct {
		address int32
		want    bool
	}{
		{-150, true},
		{1349, true},
		{1350, false},
		{-151, false},
	}
	for _, testCase := range tests {
		if got := disc.LayoutContainsAddress(testCase.address); got != testCase.want {
			t.Errorf("LayoutContainsAddress(%d) = %v, want %v", testCase.address, got, testCase.want)
		}
	}

	session, err := disc.SessionByAddress(500)
	if err != nil {
		t.Fatalf("SessionByAddress(500) error = %v", err)
	}
	if session != disc.Sessions()[0] {
		t.Error("SessionByAddress(500) did not return the first session")
	}

	session, err = disc.SessionByAddress(900)
	if err != nil {
		t.Fatalf("SessionByAddress(900) error = %v", err)
	}
	if session != disc.Sessions()[1] {
		t.Error("SessionByAddress(900) did not return the second session")
	}
}

func TestRedbookPregap(t *testing.T) {
	t.Parallel()

	// One MODE1 track over ten 2048-byte sectors of zeros.
	disc := NewDisc()
	session := NewSession()
	track := NewTrack()
	track.SetSectorType(SectorMode1)

	fragment := NewBinaryFragment()
	fragment.SetMainData(stream.NewMemoryStream("track01.bin", make([]byte, 10*2048)), 0, 2048, MainDataFormatData)
	track.AddFragment(0, fragment)
	if err := fragment.UseTheRestOfFile(); err != nil {
		t.Fatalf("UseTheRestOfFile() error = %v", err)
	}

	session.AddTrack(track)
	disc.AddSession(session)
	disc.ApplyRedbookPregap()

	if got := disc.StartSector(); got != -150 {
		t.Errorf("disc start = %d, want -150", got)
	}
	if got := disc.Length(); got != 160 {
		t.Errorf("disc length = %d, want 160", got)
	}
	if got := track.StartSector(); got != -150 {
		t.Errorf("track start = %d, want -150", got)
	}
	if got := track.TrackStart(); got != 150 {
		t.Errorf("track start offset = %d, want 150", got)
	}
	if got := track.Length(); got != 160 {
		t.Errorf("track length = %d, want 160", got)
	}
	if got := track.IndexByAddress(150); got != 1 {
		t.Errorf("index at track start = %d, want 1", got)
	}
	if got := track.IndexByAddress(149); got != 0 {
		t.Errorf("index in pregap = %d, want 0", got)
	}

	// The first program-area sector assembles with a synthetic sync
	// pattern and all-zero user data.
	sector, err := disc.GetSector(0)
	if err != nil {
		t.Fatalf("GetSector(0) error = %v", err)
	}
	if got := sector.Address(); got != 0 {
		t.Errorf("sector address = %d, want 0", got)
	}
	if got := sector.Type(); got != SectorMode1 {
		t.Errorf("sector type = %v, want Mode 1", got)
	}
	sync, err := sector.Sync()
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	wantSync := []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	if !bytes.Equal(sync, wantSync) {
		t.Errorf("sync = % X, want % X", sync, wantSync)
	}
	if !isZeroed(sector.UserData()) {
		t.Error("user data is not all zeros")
	}
	if err := sector.VerifyEDC(); err != nil {
		t.Errorf("VerifyEDC() error = %v", err)
	}
}

func TestTrackIndices(t *testing.T) {
	t.Parallel()

	track := NewTrack()
	fragment := NewNullFragment()
	track.AddFragment(0, fragment)
	fragment.SetLength(1000)
	track.SetTrackStart(150)

	track.AddIndex(300)
	track.AddIndex(200)
	track.AddIndex(100) // At or before the track start: discarded.

	indices := track.Indices()
	if len(indices) != 2 {
		t.Fatalf("got %d indices, want 2", len(indices))
	}
	if indices[0].Number() != 2 || indices[0].Address() != 200 {
		t.Errorf("index[0] = (%d, %d), want (2, 200)", indices[0].Number(), indices[0].Address())
	}
	if indices[1].Number() != 3 || indices[1].Address() != 300 {
		t.Errorf("index[1] = (%d, %d), want (3, 300)", indices[1].Number(), indices[1].Address())
	}

	if got := track.IndexByAddress(250); got != 2 {
		t.Errorf("IndexByAddress(250) = %d, want 2", got)
	}
	if got := track.IndexByAddress(999); got != 3 {
		t.Errorf("IndexByAddress(999) = %d, want 3", got)
	}
}

func TestLanguageUniqueness(t *testing.T) {
	t.Parallel()

	session := NewSession()
	if err := session.AddLanguage(NewLanguage(0x09)); err != nil {
		t.Fatalf("AddLanguage() error = %v", err)
	}
	if err := session.AddLanguage(NewLanguage(0x09)); !errors.Is(err, ErrLanguage) {
		t.Errorf("duplicate AddLanguage() error = %v, want ErrLanguage", err)
	}

	track := NewTrack()
	if err := track.AddLanguage(NewLanguage(0x08)); err != nil {
		t.Fatalf("AddLanguage() error = %v", err)
	}
	if err := track.AddLanguage(NewLanguage(0x08)); !errors.Is(err, ErrLanguage) {
		t.Errorf("duplicate AddLanguage() error = %v, want ErrLanguage", err)
	}
}

func TestAppendSectorsExtendsTrack(t *testing.T) {
	t.Parallel()

	disc := NewDisc()
	session := NewSession()
	track := NewTrack()
	track.SetSectorType(SectorMode1)

	fragment := NewBinaryFragment()
	fragment.SetMainData(stream.NewWritableMemoryStream("data.bin"), 0, 2048, MainDataFormatData)
	track.AddFragment(0, fragment)
	session.AddTrack(track)
	disc.AddSession(session)

	const appended = 25
	for i := 0; i < appended; i++ {
		sector, err := NewSector(int32(i), SectorMode1, nil, nil)
		if err != nil {
			t.Fatalf("NewSector() error = %v", err)
		}
		if err := track.PutSector(sector); err != nil {
			t.Fatalf("PutSector(%d) error = %v", i, err)
		}
	}

	if got := track.Length(); got != appended {
		t.Errorf("track length = %d, want %d", got, appended)
	}
	if got := disc.Length(); got != appended {
		t.Errorf("disc length = %d, want %d", got, appended)
	}
}

func TestPutSectorRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	session := NewSession()
	track := NewTrack()
	fragment := NewNullFragment()
	track.AddFragment(0, fragment)
	fragment.SetLength(10)
	session.AddTrack(track)

	second := NewTrack()
	secondFragment := NewNullFragment()
	second.AddFragment(0, secondFragment)
	secondFragment.SetLength(10)
	session.AddTrack(second)

	// Appending to a track that is not last in the layout is rejected.
	sector, err := NewSector(10, SectorMode1, nil, nil)
	if err != nil {
		t.Fatalf("NewSector() error = %v", err)
	}
	if err := track.PutSector(sector); !errors.Is(err, ErrTrack) {
		t.Errorf("PutSector() error = %v, want ErrTrack", err)
	}

	// Addresses beyond length+1 are rejected outright.
	sector, err = NewSector(50, SectorMode1, nil, nil)
	if err != nil {
		t.Fatalf("NewSector() error = %v", err)
	}
	if err := track.PutSector(sector); !errors.Is(err, ErrTrack) {
		t.Errorf("PutSector() error = %v, want ErrTrack", err)
	}
}

func TestGetSectorAddressInvariant(t *testing.T) {
	t.Parallel()

	disc := buildDiscWithSessions(t, -150, 300, 200)
	for _, address := range []int32{-150, -1, 0, 149, 349} {
		sector, err := disc.GetSector(address)
		if err != nil {
			t.Fatalf("GetSector(%d) error = %v", address, err)
		}
		if got := sector.Address(); got != address {
			t.Errorf("GetSector(%d).Address() = %d", address, got)
		}
	}
}
