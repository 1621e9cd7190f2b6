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
	"sort"
)

// cdStartSector is the conventional start sector of a CD layout: the
// 150-sector Red Book pregap precedes the first program-area sector at
// address 0.
const cdStartSector = -150

// redbookPregapLength is the length of the mandatory first-track pregap.
const redbookPregapLength = 150

// Disc is the root of the disc model: an ordered run of sessions plus
// disc-wide metadata — medium type, backing filenames, DVD/BD disc
// structures and the optional DPM table.
type Disc struct {
	ctx *DebugContext

	mediumType   MediumType
	filenames    []string
	firstSession int
	startSector  int32
	length       int32

	sessions []*Session

	structures map[discStructureKey][]byte
	dpm        *DPM
}

// NewDisc returns an empty disc.
func NewDisc() *Disc {
	return &Disc{
		firstSession: 1,
		structures:   make(map[discStructureKey][]byte),
	}
}

// MediumType returns the disc's medium type.
func (d *Disc) MediumType() MediumType {
	return d.mediumType
}

// SetMediumType sets the disc's medium type.
func (d *Disc) SetMediumType(mediumType MediumType) {
	d.mediumType = mediumType
}

// Filenames returns the image's backing filenames.
func (d *Disc) Filenames() []string {
	return d.filenames
}

// SetFilenames records the image's backing filenames.
func (d *Disc) SetFilenames(filenames []string) {
	d.filenames = append([]string(nil), filenames...)
}

// AddFilename appends one backing filename.
func (d *Disc) AddFilename(filename string) {
	d.filenames = append(d.filenames, filename)
}

// Context returns the disc's debug context.
func (d *Disc) Context() *DebugContext {
	return d.ctx
}

// SetContext attaches a debug context and fans it out to all
// descendants.
func (d *Disc) SetContext(ctx *DebugContext) {
	d.ctx = ctx
	for _, session := range d.sessions {
		session.setContext(ctx)
	}
}

// FirstSession returns the number assigned to the first session.
func (d *Disc) FirstSession() int {
	return d.firstSession
}

// SetFirstSession renumbers the disc's sessions from the given first
// session number.
func (d *Disc) SetFirstSession(firstSession int) {
	d.firstSession = firstSession
	d.commitTopDown()
}

// FirstTrack returns the number assigned to the first track of the
// first session.
func (d *Disc) FirstTrack() int {
	if len(d.sessions) == 0 {
		return 1
	}
	return d.sessions[0].firstTrack
}

// SetFirstTrack renumbers the first session's tracks from the given
// first track number.
func (d *Disc) SetFirstTrack(firstTrack int) {
	if len(d.sessions) > 0 {
		d.sessions[0].SetFirstTrack(firstTrack)
	}
}

// StartSector returns the layout's start sector, typically -150 for CD
// media and 0 otherwise.
func (d *Disc) StartSector() int32 {
	return d.startSector
}

// SetStartSector re-anchors the layout and pushes the change down to
// all sessions.
func (d *Disc) SetStartSector(start int32) {
	d.startSector = start
	d.commitTopDown()
}

// Length returns the layout length in sectors.
func (d *Disc) Length() int32 {
	return d.length
}

// LayoutContainsAddress reports whether the absolute address falls
// within the layout.
func (d *Disc) LayoutContainsAddress(address int32) bool {
	return address >= d.startSector && address < d.startSector+d.length
}

// AddSession appends a session to the layout.
func (d *Disc) AddSession(session *Session) {
	d.AddSessionAt(-1, session)
}

// AddSessionAt inserts a session at the given position; negative indices
// count from the end, with -1 appending.
func (d *Disc) AddSessionAt(index int, session *Session) {
	pos := index
	if pos < 0 {
		pos = len(d.sessions) + pos + 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.sessions) {
		pos = len(d.sessions)
	}

	d.sessions = append(d.sessions, nil)
	copy(d.sessions[pos+1:], d.sessions[pos:])
	d.sessions[pos] = session

	session.setDisc(d)
	d.commitBottomUp()
}

// AddSessionByNumber inserts a session at the place its number sorts to
// in the layout; the disc's top-down pass then renumbers all sessions
// consecutively from the first session number.
func (d *Disc) AddSessionByNumber(number int, session *Session) error {
	if _, err := d.SessionByNumber(number); err == nil {
		return fmt.Errorf("%w: session number %d already present", ErrSession, number)
	}

	session.SetNumber(number)
	d.sessions = append(d.sessions, session)
	sort.SliceStable(d.sessions, func(i, j int) bool {
		return d.sessions[i].number < d.sessions[j].number
	})

	session.setDisc(d)
	d.commitBottomUp()
	return nil
}

// RemoveSession detaches a session from the layout.
func (d *Disc) RemoveSession(session *Session) {
	for i, s := range d.sessions {
		if s == session {
			d.sessions = append(d.sessions[:i], d.sessions[i+1:]...)
			session.setDisc(nil)
			d.commitBottomUp()
			return
		}
	}
}

// NumberOfSessions returns the session count.
func (d *Disc) NumberOfSessions() int {
	return len(d.sessions)
}

// Sessions returns the disc's sessions in layout order.
func (d *Disc) Sessions() []*Session {
	return d.sessions
}

// SessionByIndex returns the session at the given position; negative
// indices count from the end.
func (d *Disc) SessionByIndex(index int) (*Session, error) {
	pos := index
	if pos < 0 {
		pos = len(d.sessions) + pos
	}
	if pos < 0 || pos >= len(d.sessions) {
		return nil, fmt.Errorf("%w: session index %d out of range", ErrSession, index)
	}
	return d.sessions[pos], nil
}

// SessionByNumber returns the session with the given number.
func (d *Disc) SessionByNumber(number int) (*Session, error) {
	for _, session := range d.sessions {
		if session.number == number {
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w: session number %d not found", ErrSession, number)
}

// SessionByAddress returns the session containing the absolute address.
func (d *Disc) SessionByAddress(address int32) (*Session, error) {
	for _, session := range d.sessions {
		if session.ContainsAddress(address) {
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w: no session contains address %d", ErrSession, address)
}

// SessionBefore returns the session preceding the given one in the
// layout.
func (d *Disc) SessionBefore(session *Session) (*Session, error) {
	for i, s := range d.sessions {
		if s == session {
			if i == 0 {
				return nil, fmt.Errorf("%w: session %d is first in layout", ErrSession, session.number)
			}
			return d.sessions[i-1], nil
		}
	}
	return nil, fmt.Errorf("%w: session not in layout", ErrSession)
}

// SessionAfter returns the session following the given one in the
// layout.
func (d *Disc) SessionAfter(session *Session) (*Session, error) {
	for i, s := range d.sessions {
		if s == session {
			if i+1 >= len(d.sessions) {
				return nil, fmt.Errorf("%w: session %d is last in layout", ErrSession, session.number)
			}
			return d.sessions[i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: session not in layout", ErrSession)
}

// TrackByNumber returns the track with the given number, searching all
// sessions.
func (d *Disc) TrackByNumber(number int) (*Track, error) {
	for _, session := range d.sessions {
		if track, err := session.TrackByNumber(number); err == nil {
			return track, nil
		}
	}
	return nil, fmt.Errorf("%w: track number %d not found", ErrTrack, number)
}

// TrackByAddress returns the track containing the absolute address.
func (d *Disc) TrackByAddress(address int32) (*Track, error) {
	session, err := d.SessionByAddress(address)
	if err != nil {
		return nil, err
	}
	return session.TrackByAddress(address)
}

// GetSector reads the sector at the absolute address, delegating through
// the session and track containing it.
func (d *Disc) GetSector(address int32) (*Sector, error) {
	session, err := d.SessionByAddress(address)
	if err != nil {
		return nil, err
	}
	return session.GetSector(address)
}

// MCN returns the disc's media catalogue number, carried by its first
// session.
func (d *Disc) MCN() string {
	if len(d.sessions) == 0 {
		return ""
	}
	return d.sessions[0].MCN()
}

// SetMCN assigns the media catalogue number to the first session.
func (d *Disc) SetMCN(mcn string) {
	if len(d.sessions) > 0 {
		d.sessions[0].SetMCN(mcn)
	}
}

// ApplyRedbookPregap anchors the layout at -150 and prepends a
// 150-sector zero-fill pregap fragment to each session's first program
// track. Parsers whose container does not describe the mandatory pregap
// use it after building the layout.
func (d *Disc) ApplyRedbookPregap() {
	d.SetStartSector(cdStartSector)

	for _, session := range d.sessions {
		tracks := session.ProgramTracks()
		if len(tracks) == 0 {
			continue
		}
		track := tracks[0]

		pregap := NewNullFragment()
		pregap.length = redbookPregapLength
		track.AddFragment(0, pregap)
		track.SetTrackStart(track.TrackStart() + redbookPregapLength)
	}
}

// commitTopDown pushes the layout down: sessions receive their numbers
// and cumulative start sectors.
func (d *Disc) commitTopDown() {
	address := d.startSector
	number := d.firstSession

	for _, session := range d.sessions {
		session.number = number
		number++
		session.startSector = address
		session.commitTopDown()
		address += session.length
	}
}

// commitBottomUp recomputes the layout length from the sessions, then
// performs the top-down pass; the disc is the topmost object of the
// cascade.
func (d *Disc) commitBottomUp() {
	d.length = 0
	for _, session := range d.sessions {
		d.length += session.length
	}
	d.commitTopDown()
}
