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

	"github.com/disctools/go-discimage/cdtext"
)

// SessionType identifies the session format.
type SessionType int

// Session types.
const (
	SessionCDROM SessionType = iota
	SessionCDROMXA
	SessionCDI
	SessionCDDA
)

// String returns the session type's display name.
func (t SessionType) String() string {
	switch t {
	case SessionCDROM:
		return "CD-ROM"
	case SessionCDROMXA:
		return "CD-ROM XA"
	case SessionCDI:
		return "CD-I"
	case SessionCDDA:
		return "CD-DA"
	default:
		return "unknown"
	}
}

// Session is one session of a disc: an ordered run of tracks bracketed
// by the synthetic lead-in (index 0) and lead-out (index N+1) tracks,
// plus session-wide CD-TEXT languages and the media catalogue number.
type Session struct {
	disc *Disc
	ctx  *DebugContext

	number      int
	firstTrack  int
	startSector int32
	length      int32
	sessionType SessionType

	mcn             string
	mcnFixed        bool
	mcnScanComplete bool

	tracks    []*Track
	languages []*Language
}

// NewSession returns a session holding only its lead-in and lead-out
// tracks.
func NewSession() *Session {
	s := &Session{number: 1, firstTrack: 1, mcnScanComplete: true}

	leadIn := NewTrack()
	leadIn.SetNumber(TrackLeadIn)
	leadIn.setSession(s)
	leadOut := NewTrack()
	leadOut.SetNumber(TrackLeadOut)
	leadOut.setSession(s)

	s.tracks = []*Track{leadIn, leadOut}
	return s
}

// Number returns the session number.
func (s *Session) Number() int {
	return s.number
}

// SetNumber sets the session number. Numbers of sessions in a disc
// layout are reassigned by the disc's top-down pass.
func (s *Session) SetNumber(number int) {
	s.number = number
}

// FirstTrack returns the number assigned to the first non-lead-in track.
func (s *Session) FirstTrack() int {
	return s.firstTrack
}

// SetFirstTrack renumbers the session's tracks from the given first
// track number.
func (s *Session) SetFirstTrack(firstTrack int) {
	s.firstTrack = firstTrack
	s.commitTopDown()
}

// StartSector returns the session's absolute start sector.
func (s *Session) StartSector() int32 {
	return s.startSector
}

// SetStartSector re-anchors the session and pushes the change down to
// its tracks.
func (s *Session) SetStartSector(start int32) {
	s.startSector = start
	s.commitTopDown()
}

// Length returns the session length in sectors, including lead-in and
// lead-out.
func (s *Session) Length() int32 {
	return s.length
}

// Type returns the session type.
func (s *Session) Type() SessionType {
	return s.sessionType
}

// SetType sets the session type.
func (s *Session) SetType(sessionType SessionType) {
	s.sessionType = sessionType
}

// Disc returns the owning disc, or nil if detached.
func (s *Session) Disc() *Disc {
	return s.disc
}

// setDisc attaches or detaches the session's parent back reference.
func (s *Session) setDisc(disc *Disc) {
	s.disc = disc
	if disc != nil {
		s.setContext(disc.ctx)
	} else {
		s.setContext(nil)
	}
}

// setContext propagates the debug context to the session and its tracks.
func (s *Session) setContext(ctx *DebugContext) {
	s.ctx = ctx
	for _, track := range s.tracks {
		track.setContext(ctx)
	}
}

// ContainsAddress reports whether the absolute address falls within the
// session.
func (s *Session) ContainsAddress(address int32) bool {
	return address >= s.startSector && address < s.startSector+s.length
}

// AddTrack appends a track to the session's program area, immediately
// before the lead-out.
func (s *Session) AddTrack(track *Track) {
	s.AddTrackAt(-1, track)
}

// AddTrackAt inserts a track at the given program-area position;
// negative indices count from the end, with -1 appending before the
// lead-out.
func (s *Session) AddTrackAt(index int, track *Track) {
	// Positions are within the program area: 0 inserts right after the
	// lead-in.
	programLen := len(s.tracks) - 2
	pos := index
	if pos < 0 {
		pos = programLen + pos + 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > programLen {
		pos = programLen
	}
	pos++ // skip lead-in

	s.tracks = append(s.tracks, nil)
	copy(s.tracks[pos+1:], s.tracks[pos:])
	s.tracks[pos] = track

	track.setSession(s)
	s.commitBottomUp()
}

// AddTrackByNumber inserts a track at the place its number sorts to in
// the program area; the session's top-down pass then renumbers the
// program tracks consecutively from the first track number. Lead-in and
// lead-out numbers address the synthetic bracket tracks, which are
// replaced.
func (s *Session) AddTrackByNumber(number int, track *Track) error {
	if number != TrackLeadIn && number != TrackLeadOut {
		if _, err := s.TrackByNumber(number); err == nil {
			return fmt.Errorf("%w: track number %d already present", ErrTrack, number)
		}
	}

	track.SetNumber(number)
	switch number {
	case TrackLeadIn:
		track.setSession(s)
		s.tracks[0] = track
	case TrackLeadOut:
		track.setSession(s)
		s.tracks[len(s.tracks)-1] = track
	default:
		pos := len(s.tracks) - 1
		for i := 1; i < len(s.tracks)-1; i++ {
			if s.tracks[i].number > number {
				pos = i
				break
			}
		}
		s.tracks = append(s.tracks, nil)
		copy(s.tracks[pos+1:], s.tracks[pos:])
		s.tracks[pos] = track
		track.setSession(s)
	}

	s.commitBottomUp()
	return nil
}

// RemoveTrack detaches a track from the session.
func (s *Session) RemoveTrack(track *Track) {
	for i, t := range s.tracks {
		if t == track {
			s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
			track.setSession(nil)
			s.commitBottomUp()
			return
		}
	}
}

// NumberOfTracks returns the track count, including lead-in and
// lead-out.
func (s *Session) NumberOfTracks() int {
	return len(s.tracks)
}

// Tracks returns the session's tracks in layout order, lead-in first and
// lead-out last.
func (s *Session) Tracks() []*Track {
	return s.tracks
}

// ProgramTracks returns the session's tracks without the lead-in and
// lead-out brackets.
func (s *Session) ProgramTracks() []*Track {
	if len(s.tracks) < 2 {
		return nil
	}
	return s.tracks[1 : len(s.tracks)-1]
}

// TrackByIndex returns the track at the given position in the layout;
// negative indices count from the end.
func (s *Session) TrackByIndex(index int) (*Track, error) {
	pos := index
	if pos < 0 {
		pos = len(s.tracks) + pos
	}
	if pos < 0 || pos >= len(s.tracks) {
		return nil, fmt.Errorf("%w: track index %d out of range", ErrTrack, index)
	}
	return s.tracks[pos], nil
}

// TrackByNumber returns the track with the given number; TrackLeadIn and
// TrackLeadOut address the bracket tracks.
func (s *Session) TrackByNumber(number int) (*Track, error) {
	for _, track := range s.tracks {
		if track.number == number {
			return track, nil
		}
	}
	return nil, fmt.Errorf("%w: track number %d not found", ErrTrack, number)
}

// TrackByAddress returns the track containing the absolute address.
func (s *Session) TrackByAddress(address int32) (*Track, error) {
	if !s.ContainsAddress(address) {
		return nil, fmt.Errorf("%w: address %d out of session range", ErrTrack, address)
	}
	for _, track := range s.tracks {
		if track.ContainsAddress(address) {
			return track, nil
		}
	}
	return nil, fmt.Errorf("%w: no track contains address %d", ErrTrack, address)
}

// GetSector reads the sector at the absolute address from the track
// containing it.
func (s *Session) GetSector(address int32) (*Sector, error) {
	track, err := s.TrackByAddress(address)
	if err != nil {
		return nil, err
	}
	return track.GetSector(address, true)
}

// FindTrackWithSubchannel returns the first track carrying a
// subchannel-bearing fragment, or nil.
func (s *Session) FindTrackWithSubchannel() *Track {
	for _, track := range s.tracks {
		if track.FindFragmentWithSubchannel() != nil {
			return track
		}
	}
	return nil
}

// SetLeadoutLength gives the lead-out the given length by attaching (or
// resizing) a zero-fill fragment.
func (s *Session) SetLeadoutLength(length int32) {
	leadOut := s.tracks[len(s.tracks)-1]
	if leadOut.NumberOfFragments() > 0 {
		fragment, _ := leadOut.FragmentByIndex(-1)
		fragment.SetLength(length)
		return
	}
	fragment := NewNullFragment()
	fragment.SetLength(length)
	leadOut.AddFragment(0, fragment)
}

// LeadoutLength returns the lead-out length in sectors.
func (s *Session) LeadoutLength() int32 {
	return s.tracks[len(s.tracks)-1].Length()
}

// MCN returns the session's media catalogue number. When a track
// fragment carries user-supplied subchannel data the MCN is read from
// it: the first access scans the Q channel of up to 100 consecutive
// sectors for a mode-2 datum.
func (s *Session) MCN() string {
	if s.mcnFixed && !s.mcnScanComplete {
		s.mcn = s.scanForMCN()
		s.mcnScanComplete = true
	}
	return s.mcn
}

// SetMCN assigns the media catalogue number. The assignment is silently
// ignored while the MCN is fixed by subchannel data.
func (s *Session) SetMCN(mcn string) {
	if s.mcnFixed {
		return
	}
	s.mcn = mcn
}

// MCNFixed reports whether the MCN is dictated by subchannel data.
func (s *Session) MCNFixed() bool {
	return s.mcnFixed
}

// scanForMCN reads the Q subchannel of up to 100 consecutive sectors
// starting at the first subchannel-bearing fragment.
func (s *Session) scanForMCN() string {
	track := s.FindTrackWithSubchannel()
	if track == nil {
		return ""
	}
	fragment := track.FindFragmentWithSubchannel()

	start := fragment.Address()
	for address := start; address < start+isrcScanWindow; address++ {
		sector, err := track.GetSector(address, false)
		if err != nil {
			break
		}
		q, err := sector.SubchannelChannel(SubchannelQ)
		if err != nil {
			break
		}
		if q[0]&0x0F == QModeMCN {
			return DecodeQMCN(q)
		}
	}
	return ""
}

// AddLanguage registers a session-wide CD-TEXT language container.
// Language codes are unique within the session.
func (s *Session) AddLanguage(language *Language) error {
	for _, l := range s.languages {
		if l.code == language.code {
			return fmt.Errorf("%w: language code %d already present", ErrLanguage, language.code)
		}
	}
	s.languages = append(s.languages, language)
	sort.SliceStable(s.languages, func(i, j int) bool {
		return s.languages[i].code < s.languages[j].code
	})
	return nil
}

// RemoveLanguage drops the language with the given code.
func (s *Session) RemoveLanguage(code int) {
	for i, l := range s.languages {
		if l.code == code {
			s.languages = append(s.languages[:i], s.languages[i+1:]...)
			return
		}
	}
}

// LanguageByCode returns the language with the given code.
func (s *Session) LanguageByCode(code int) (*Language, error) {
	for _, l := range s.languages {
		if l.code == code {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: language code %d not present", ErrLanguage, code)
}

// Languages returns the session's language containers.
func (s *Session) Languages() []*Language {
	return s.languages
}

// SetCDTextData decodes a raw CD-TEXT buffer and populates the session's
// and its tracks' language containers from it: track-0 entries land on
// the session, others on the track with the matching number.
func (s *Session) SetCDTextData(data []byte) error {
	decoder, err := cdtext.NewDecoder(data)
	if err != nil {
		return err
	}

	for _, block := range decoder.Blocks() {
		info, err := decoder.BlockInfo(block)
		if err != nil {
			return err
		}

		sessionLanguage := NewLanguage(info.LanguageCode)
		sessionLanguage.SetCharacterSet(info.CharacterSet)
		sessionLanguage.SetCopyright(info.Copyright)
		if err := s.AddLanguage(sessionLanguage); err != nil {
			return err
		}

		entries, err := decoder.Entries(block)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.Track == 0 {
				if err := sessionLanguage.SetPackData(entry.Type, entry.Data); err != nil {
					return err
				}
				continue
			}

			track, terr := s.TrackByNumber(entry.Track)
			if terr != nil {
				continue // Data for a track the layout does not carry.
			}
			trackLanguage, lerr := track.LanguageByCode(info.LanguageCode)
			if lerr != nil {
				trackLanguage = NewLanguage(info.LanguageCode)
				trackLanguage.SetCharacterSet(info.CharacterSet)
				trackLanguage.SetCopyright(info.Copyright)
				if err := track.AddLanguage(trackLanguage); err != nil {
					return err
				}
			}
			if err := trackLanguage.SetPackData(entry.Type, entry.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

// CDTextData encodes the session's and its tracks' language containers
// into a raw CD-TEXT buffer.
func (s *Session) CDTextData() ([]byte, error) {
	encoder := cdtext.NewEncoder()

	for block, language := range s.languages {
		if block >= cdtext.MaxBlocks {
			return nil, fmt.Errorf("%w: more than %d languages", ErrLanguage, cdtext.MaxBlocks)
		}
		if err := encoder.SetBlockInfo(block, language.code, language.charset, language.copyright); err != nil {
			return nil, err
		}

		for _, packType := range language.PackTypes() {
			data, _ := language.PackData(packType)
			encoder.AddData(language.code, packType, 0, data)
		}

		for _, track := range s.ProgramTracks() {
			trackLanguage, err := track.LanguageByCode(language.code)
			if err != nil {
				continue
			}
			for _, packType := range trackLanguage.PackTypes() {
				data, _ := trackLanguage.PackData(packType)
				encoder.AddData(language.code, packType, track.number, data)
			}
		}
	}

	return encoder.Encode(), nil
}

// NextSession returns the session following this one in the disc layout.
func (s *Session) NextSession() (*Session, error) {
	if s.disc == nil {
		return nil, fmt.Errorf("%w: session is not in disc layout", ErrSession)
	}
	return s.disc.SessionAfter(s)
}

// PrevSession returns the session preceding this one in the disc layout.
func (s *Session) PrevSession() (*Session, error) {
	if s.disc == nil {
		return nil, fmt.Errorf("%w: session is not in disc layout", ErrSession)
	}
	return s.disc.SessionBefore(s)
}

// commitTopDown pushes the session's layout down: tracks receive their
// numbers and cumulative start sectors.
func (s *Session) commitTopDown() {
	address := s.startSector
	number := s.firstTrack

	last := len(s.tracks) - 1
	for i, track := range s.tracks {
		if i != 0 && i != last {
			track.SetNumber(number)
			number++
		}
		track.startSector = address
		track.commitTopDown()
		address += track.length
	}
}

// commitBottomUp recomputes the session length from its tracks and
// propagates the change up; the topmost object then performs the
// top-down pass. A change below may also change the subchannel-fixed
// state of the MCN.
func (s *Session) commitBottomUp() {
	s.length = 0
	for _, track := range s.tracks {
		s.length += track.length
	}

	if s.FindTrackWithSubchannel() != nil {
		s.mcnFixed = true
		s.mcnScanComplete = false
	} else {
		s.mcnFixed = false
	}

	if s.disc != nil {
		s.disc.commitBottomUp()
	} else {
		s.commitTopDown()
	}
}
