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

// Track numbers of the synthetic tracks bracketing a session.
const (
	TrackLeadIn  = 0
	TrackLeadOut = 0xAA
)

// TrackFlag bits, matching the Q-channel CTL field layout.
type TrackFlag int

// Track flags.
const (
	TrackFlagPreemphasis   TrackFlag = 0x01
	TrackFlagCopyPermitted TrackFlag = 0x02
	TrackFlagFourChannel   TrackFlag = 0x08
)

// ctlDataBit marks data tracks in the CTL field; it is derived from the
// sector type, not stored in the flags.
const ctlDataBit = 0x04

// isrcScanWindow is the number of consecutive sectors scanned for an
// ISRC or MCN; INF8090 requires the code to appear at least once within
// any 100 consecutive sectors.
const isrcScanWindow = 100

// Track is one track of a session: an ordered run of fragments plus
// indices and CD-TEXT languages. Sector addresses within a track are
// either absolute (disc-relative) or track-relative; TrackStart is the
// track-relative address where the pregap ends and index 01 begins.
type Track struct {
	session *Session
	ctx     *DebugContext

	number      int
	startSector int32
	length      int32
	trackStart  int32

	flags      TrackFlag
	sectorType SectorType

	isrc             string
	isrcFixed        bool
	isrcScanComplete bool

	fragments []Fragment
	indices   []*Index
	languages []*Language
}

// NewTrack returns an empty track.
func NewTrack() *Track {
	return &Track{sectorType: SectorMode1}
}

// Number returns the track number; TrackLeadIn and TrackLeadOut mark the
// synthetic bracket tracks.
func (t *Track) Number() int {
	return t.number
}

// SetNumber sets the track number. Numbers of tracks in a session layout
// are reassigned by the session's top-down pass.
func (t *Track) SetNumber(number int) {
	t.number = number
}

// StartSector returns the track's absolute start sector.
func (t *Track) StartSector() int32 {
	return t.startSector
}

// SetStartSector re-anchors the track and pushes the change down to its
// fragments.
func (t *Track) SetStartSector(start int32) {
	t.startSector = start
	t.commitTopDown()
}

// Length returns the track length in sectors; it always equals the sum
// of the fragment lengths.
func (t *Track) Length() int32 {
	return t.length
}

// TrackStart returns the track-relative address of index 01.
func (t *Track) TrackStart() int32 {
	return t.trackStart
}

// SetTrackStart moves the index 01 address and re-evaluates the index
// list against it.
func (t *Track) SetTrackStart(start int32) {
	t.trackStart = start
	t.rearrangeIndices()
}

// Flags returns the track flag bits.
func (t *Track) Flags() TrackFlag {
	return t.flags
}

// SetFlags sets the track flag bits.
func (t *Track) SetFlags(flags TrackFlag) {
	t.flags = flags
}

// SectorType returns the track's declared sector type.
func (t *Track) SectorType() SectorType {
	return t.sectorType
}

// SetSectorType declares the track's sector type.
func (t *Track) SetSectorType(sectorType SectorType) {
	t.sectorType = sectorType
}

// CTL returns the Q-channel CTL field: the track flags plus the data bit
// for non-audio tracks.
func (t *Track) CTL() int {
	ctl := int(t.flags)
	if t.sectorType != SectorAudio {
		ctl |= ctlDataBit
	}
	return ctl
}

// SetCTL sets the track flags from a Q-channel CTL field. The mode bit
// is ignored; the sector type is authoritative for it.
func (t *Track) SetCTL(ctl int) {
	t.flags = TrackFlag(ctl) &^ ctlDataBit
}

// ADR returns the Q-channel ADR value; position information is always
// encoded.
func (*Track) ADR() int {
	return QModePosition
}

// Session returns the owning session, or nil if detached.
func (t *Track) Session() *Session {
	return t.session
}

// setSession attaches or detaches the track's parent back reference.
func (t *Track) setSession(session *Session) {
	t.session = session
	if session != nil {
		t.setContext(session.ctx)
	} else {
		t.setContext(nil)
	}
}

// setContext propagates the debug context to the track and its children.
func (t *Track) setContext(ctx *DebugContext) {
	t.ctx = ctx
	for _, fragment := range t.fragments {
		fragment.setContext(ctx)
	}
}

// ContainsAddress reports whether the absolute address falls within the
// track.
func (t *Track) ContainsAddress(address int32) bool {
	return address >= t.startSector && address < t.startSector+t.length
}

// AddFragment inserts a fragment at the given position; negative indices
// count from the end, with -1 appending. The layout change propagates
// bottom-up.
func (t *Track) AddFragment(index int, fragment Fragment) {
	pos := index
	if pos < 0 {
		pos = len(t.fragments) + pos + 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(t.fragments) {
		pos = len(t.fragments)
	}

	t.fragments = append(t.fragments, nil)
	copy(t.fragments[pos+1:], t.fragments[pos:])
	t.fragments[pos] = fragment

	fragment.setTrack(t)
	t.commitBottomUp()
}

// RemoveFragment detaches a fragment from the track.
func (t *Track) RemoveFragment(fragment Fragment) {
	for i, f := range t.fragments {
		if f == fragment {
			t.fragments = append(t.fragments[:i], t.fragments[i+1:]...)
			fragment.setTrack(nil)
			t.commitBottomUp()
			return
		}
	}
}

// NumberOfFragments returns the fragment count.
func (t *Track) NumberOfFragments() int {
	return len(t.fragments)
}

// FragmentByIndex returns the fragment at the given position; negative
// indices count from the end.
func (t *Track) FragmentByIndex(index int) (Fragment, error) {
	pos := index
	if pos < 0 {
		pos = len(t.fragments) + pos
	}
	if pos < 0 || pos >= len(t.fragments) {
		return nil, fmt.Errorf("%w: fragment index %d out of range", ErrTrack, index)
	}
	return t.fragments[pos], nil
}

// FragmentByAddress returns the fragment containing the track-relative
// address.
func (t *Track) FragmentByAddress(address int32) (Fragment, error) {
	for _, fragment := range t.fragments {
		if fragment.ContainsAddress(address) {
			return fragment, nil
		}
	}
	return nil, fmt.Errorf("%w: no fragment contains address %d", ErrTrack, address)
}

// FindFragmentWithSubchannel returns the first fragment carrying
// subchannel data, or nil.
func (t *Track) FindFragmentWithSubchannel() Fragment {
	for _, fragment := range t.fragments {
		if fragment.SubchannelDataSize() > 0 {
			return fragment
		}
	}
	return nil
}

// Fragments returns the track's fragments in layout order.
func (t *Track) Fragments() []Fragment {
	return t.fragments
}

// AddIndex registers an index at the given track-relative address.
// Index numbers start at 2 and are assigned by address order; indices at
// or before the track start are discarded.
func (t *Track) AddIndex(address int32) {
	t.indices = append(t.indices, &Index{address: address})
	t.rearrangeIndices()
}

// RemoveIndex drops the index with the given number.
func (t *Track) RemoveIndex(number int) {
	for i, index := range t.indices {
		if index.number == number {
			t.indices = append(t.indices[:i], t.indices[i+1:]...)
			t.rearrangeIndices()
			return
		}
	}
}

// Indices returns the track's indices sorted by address.
func (t *Track) Indices() []*Index {
	return t.indices
}

// IndexByAddress returns the number of the index active at the given
// track-relative address: 0 in the pregap, 1 from the track start, and
// the registered indices beyond their addresses.
func (t *Track) IndexByAddress(address int32) int {
	if address < t.trackStart {
		return 0
	}
	number := 1
	for _, index := range t.indices {
		if address >= index.address {
			number = index.number
		}
	}
	return number
}

// rearrangeIndices sorts the index list by address, discards entries at
// or before the track start, and renumbers the rest from 2.
func (t *Track) rearrangeIndices() {
	sort.SliceStable(t.indices, func(i, j int) bool {
		return t.indices[i].address < t.indices[j].address
	})

	kept := t.indices[:0]
	number := 2
	for _, index := range t.indices {
		if index.address <= t.trackStart {
			continue
		}
		index.number = number
		number++
		kept = append(kept, index)
	}
	t.indices = kept
}

// AddLanguage registers a CD-TEXT language container. Language codes are
// unique within the track.
func (t *Track) AddLanguage(language *Language) error {
	for _, l := range t.languages {
		if l.code == language.code {
			return fmt.Errorf("%w: language code %d already present", ErrLanguage, language.code)
		}
	}
	t.languages = append(t.languages, language)
	sort.SliceStable(t.languages, func(i, j int) bool {
		return t.languages[i].code < t.languages[j].code
	})
	return nil
}

// RemoveLanguage drops the language with the given code.
func (t *Track) RemoveLanguage(code int) {
	for i, l := range t.languages {
		if l.code == code {
			t.languages = append(t.languages[:i], t.languages[i+1:]...)
			return
		}
	}
}

// LanguageByCode returns the language with the given code.
func (t *Track) LanguageByCode(code int) (*Language, error) {
	for _, l := range t.languages {
		if l.code == code {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: language code %d not present", ErrLanguage, code)
}

// Languages returns the track's language containers.
func (t *Track) Languages() []*Language {
	return t.languages
}

// ISRC returns the track's ISRC. When a fragment carries user-supplied
// subchannel data the ISRC is read from it: the first access scans the
// Q channel of up to 100 consecutive sectors for a mode-3 datum.
func (t *Track) ISRC() string {
	if t.isrcFixed && !t.isrcScanComplete {
		t.isrc = t.scanForISRC()
		t.isrcScanComplete = true
	}
	return t.isrc
}

// SetISRC assigns the track's ISRC. The assignment is silently ignored
// while the ISRC is fixed by subchannel data.
func (t *Track) SetISRC(isrc string) {
	if t.isrcFixed {
		return
	}
	t.isrc = isrc
}

// ISRCFixed reports whether the ISRC is dictated by subchannel data.
func (t *Track) ISRCFixed() bool {
	return t.isrcFixed
}

// scanForISRC reads the Q subchannel of up to 100 consecutive sectors
// starting at the first subchannel-bearing fragment.
func (t *Track) scanForISRC() string {
	fragment := t.FindFragmentWithSubchannel()
	if fragment == nil {
		return ""
	}

	start := fragment.Address()
	for address := start; address < start+isrcScanWindow; address++ {
		sector, err := t.GetSector(address, false)
		if err != nil {
			break
		}
		q, err := sector.SubchannelChannel(SubchannelQ)
		if err != nil {
			break
		}
		if q[0]&0x0F == QModeISRC {
			return DecodeQISRC(q)
		}
	}
	return ""
}

// GetSector reads the sector at the given address, absolute or
// track-relative, and assembles it from the owning fragment's main and
// subchannel data.
func (t *Track) GetSector(address int32, absolute bool) (*Sector, error) {
	var absoluteAddress, relativeAddress int32
	if absolute {
		absoluteAddress = address
		relativeAddress = address - t.startSector
	} else {
		relativeAddress = address
		absoluteAddress = address + t.startSector
	}

	if relativeAddress < 0 || relativeAddress >= t.length {
		return nil, fmt.Errorf("%w: sector address %d out of range", ErrTrack, address)
	}

	fragment, err := t.FragmentByAddress(relativeAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: no fragment to feed sector: %w", ErrTrack, err)
	}

	fragmentAddress := relativeAddress - fragment.Address()
	mainData, err := fragment.ReadMainData(fragmentAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read main channel data: %w", ErrTrack, err)
	}
	subData, err := fragment.ReadSubchannelData(fragmentAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read subchannel data: %w", ErrTrack, err)
	}

	sector, err := NewSector(absoluteAddress, t.sectorType, mainData, subData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to assemble sector: %w", ErrTrack, err)
	}
	sector.track = t
	return sector, nil
}

// PutSector writes the sector at its own address. The address must fall
// within the track's layout, or be exactly one past its end — in that
// case the track must be the last one carrying data and its last
// fragment is extended by one sector.
func (t *Track) PutSector(sector *Sector) error {
	relativeAddress := sector.Address() - t.startSector

	if relativeAddress < 0 || relativeAddress > t.length {
		return fmt.Errorf("%w: sector address %d out of range", ErrTrack, sector.Address())
	}

	var fragment Fragment
	var err error
	if relativeAddress == t.length {
		if !t.isLastInLayout() {
			return fmt.Errorf("%w: cannot append sector to track that is not last in the layout", ErrTrack)
		}
		fragment, err = t.FragmentByIndex(-1)
		if err != nil {
			return fmt.Errorf("%w: no fragment to append sector to: %w", ErrTrack, err)
		}
		fragment.SetLength(fragment.Length() + 1)
	} else {
		fragment, err = t.FragmentByAddress(relativeAddress)
		if err != nil {
			return fmt.Errorf("%w: no fragment to write sector: %w", ErrTrack, err)
		}
	}

	fragmentAddress := relativeAddress - fragment.Address()

	mainData, err := sector.ExtractMain(fragment.MainDataSize())
	if err != nil {
		return fmt.Errorf("%w: failed to extract data from sector: %w", ErrTrack, err)
	}
	if err := fragment.WriteMainData(fragmentAddress, mainData); err != nil {
		return fmt.Errorf("%w: failed to write main channel data: %w", ErrTrack, err)
	}

	if fragment.SubchannelDataSize() > 0 {
		subData, serr := sector.Subchannel(SubchannelPW96Interleaved)
		if serr != nil {
			return fmt.Errorf("%w: failed to extract subchannel from sector: %w", ErrTrack, serr)
		}
		if err := fragment.WriteSubchannelData(fragmentAddress, subData); err != nil {
			return fmt.Errorf("%w: failed to write subchannel data: %w", ErrTrack, err)
		}
	}

	return nil
}

// isLastInLayout reports whether no data-bearing track follows this one
// in the disc layout.
func (t *Track) isLastInLayout() bool {
	if t.session == nil {
		return true
	}

	seen := false
	for _, track := range t.session.tracks {
		if track == t {
			seen = true
			continue
		}
		if seen && track.length > 0 {
			return false
		}
	}

	if t.session.disc == nil {
		return true
	}
	seenSession := false
	for _, session := range t.session.disc.sessions {
		if session == t.session {
			seenSession = true
			continue
		}
		if seenSession && session.length > 0 {
			return false
		}
	}
	return true
}

// NextTrack returns the track following this one in the session layout.
func (t *Track) NextTrack() (*Track, error) {
	if t.session == nil {
		return nil, fmt.Errorf("%w: track is not in session layout", ErrTrack)
	}
	for i, track := range t.session.tracks {
		if track == t {
			if i+1 >= len(t.session.tracks) {
				return nil, fmt.Errorf("%w: track is last in session", ErrTrack)
			}
			return t.session.tracks[i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: track is not in session layout", ErrTrack)
}

// PrevTrack returns the track preceding this one in the session layout.
func (t *Track) PrevTrack() (*Track, error) {
	if t.session == nil {
		return nil, fmt.Errorf("%w: track is not in session layout", ErrTrack)
	}
	for i, track := range t.session.tracks {
		if track == t {
			if i == 0 {
				return nil, fmt.Errorf("%w: track is first in session", ErrTrack)
			}
			return t.session.tracks[i-1], nil
		}
	}
	return nil, fmt.Errorf("%w: track is not in session layout", ErrTrack)
}

// commitTopDown pushes the track's layout down: fragments receive their
// cumulative track-relative addresses.
func (t *Track) commitTopDown() {
	var address int32
	for _, fragment := range t.fragments {
		fragment.SetAddress(address)
		address += fragment.Length()
	}
}

// commitBottomUp recomputes the track length from its fragments and
// propagates the change up; the topmost object then performs the
// top-down pass. A change in fragments may also change the
// subchannel-fixed state of the ISRC.
func (t *Track) commitBottomUp() {
	t.length = 0
	for _, fragment := range t.fragments {
		t.length += fragment.Length()
	}

	if t.FindFragmentWithSubchannel() != nil {
		t.isrcFixed = true
		t.isrcScanComplete = false
	} else {
		t.isrcFixed = false
	}

	if t.session != nil {
		t.session.commitBottomUp()
	} else {
		t.commitTopDown()
	}
}
