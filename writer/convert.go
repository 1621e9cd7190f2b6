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

package writer

import (
	"context"
	"fmt"

	discimage "github.com/disctools/go-discimage"
	"github.com/disctools/go-discimage/cdtext"
)

// DefaultProgressStep is the sector interval between progress
// notifications when the options do not set one.
const DefaultProgressStep = 1024

// ConvertOptions control the conversion driver.
type ConvertOptions struct {
	// Params are the user-supplied writer parameters; they are validated
	// against the writer's sheet before any file is touched.
	Params map[string]any

	// ProgressStep is the sector interval between Progress calls.
	ProgressStep int

	// Progress, when set, receives the conversion percentage.
	Progress func(percent int)
}

// ConvertImage mirrors a source disc onto a writer: it rebuilds the
// session/track/language/index/fragment tree through the writer's
// fragments and copies every sector. The context is polled once per
// copied sector; cancellation yields ErrCancelled.
func ConvertImage(ctx context.Context, w Writer, filename string, source *discimage.Disc, opts ConvertOptions) (*discimage.Disc, error) {
	if err := w.ParameterSheet().Validate(opts.Params); err != nil {
		return nil, err
	}

	disc := discimage.NewDisc()
	disc.SetMediumType(source.MediumType())
	disc.SetFirstSession(source.FirstSession())
	disc.SetStartSector(source.StartSector())
	disc.SetDPM(source.DPM())

	if err := w.OpenImage(disc, filename, opts.Params); err != nil {
		return nil, err
	}

	progressStep := opts.ProgressStep
	if progressStep <= 0 {
		progressStep = DefaultProgressStep
	}

	totalSectors := int64(0)
	for _, session := range source.Sessions() {
		for _, track := range session.ProgramTracks() {
			totalSectors += int64(track.Length())
		}
	}

	copied := int64(0)
	for _, sourceSession := range source.Sessions() {
		session := discimage.NewSession()
		session.SetType(sourceSession.Type())
		disc.AddSession(session)
		session.SetFirstTrack(sourceSession.FirstTrack())
		if !sourceSession.MCNFixed() {
			session.SetMCN(sourceSession.MCN())
		}

		if err := mirrorLanguages(sourceSession.Languages(), session.AddLanguage); err != nil {
			return nil, err
		}

		for _, sourceTrack := range sourceSession.ProgramTracks() {
			track, err := mirrorTrack(w, session, sourceTrack)
			if err != nil {
				return nil, err
			}

			if err := copyTrackSectors(ctx, sourceTrack, track, &copied, totalSectors, progressStep, opts.Progress); err != nil {
				return nil, err
			}
		}

		session.SetLeadoutLength(sourceSession.LeadoutLength())
	}

	if err := w.FinalizeImage(disc); err != nil {
		return nil, err
	}
	return disc, nil
}

// mirrorTrack creates the target track with the source's properties and
// writer-provided fragments mirroring the source fragment layout.
func mirrorTrack(w Writer, session *discimage.Session, sourceTrack *discimage.Track) (*discimage.Track, error) {
	track := discimage.NewTrack()
	track.SetSectorType(sourceTrack.SectorType())
	track.SetFlags(sourceTrack.Flags())
	session.AddTrack(track)
	track.SetTrackStart(sourceTrack.TrackStart())
	if !sourceTrack.ISRCFixed() {
		track.SetISRC(sourceTrack.ISRC())
	}

	if err := mirrorLanguages(sourceTrack.Languages(), track.AddLanguage); err != nil {
		return nil, err
	}
	for _, index := range sourceTrack.Indices() {
		track.AddIndex(index.Address())
	}

	for _, sourceFragment := range sourceTrack.Fragments() {
		role := FragmentRoleData
		if sourceFragment.Address()+sourceFragment.Length() <= sourceTrack.TrackStart() {
			role = FragmentRolePregap
		}

		fragment, err := w.CreateFragment(track, role)
		if err != nil {
			return nil, err
		}
		track.AddFragment(-1, fragment)
		fragment.SetLength(sourceFragment.Length())
	}

	return track, nil
}

// copyTrackSectors copies every sector of a track, polling the cancel
// token per sector and reporting progress at the configured interval.
func copyTrackSectors(ctx context.Context, sourceTrack, track *discimage.Track, copied *int64, totalSectors int64, progressStep int, progress func(int)) error {
	for address := int32(0); address < sourceTrack.Length(); address++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		sector, err := sourceTrack.GetSector(address, false)
		if err != nil {
			return err
		}
		if err := track.PutSector(sector); err != nil {
			return err
		}

		*copied++
		if progress != nil && *copied%int64(progressStep) == 0 && totalSectors > 0 {
			progress(int(*copied * 100 / totalSectors))
		}
	}
	return nil
}

// mirrorLanguages copies language containers into a target container via
// its add function.
func mirrorLanguages(languages []*discimage.Language, add func(*discimage.Language) error) error {
	for _, source := range languages {
		language := discimage.NewLanguage(source.Code())
		language.SetCharacterSet(source.CharacterSet())
		language.SetCopyright(source.Copyright())
		for t := cdtext.PackTitle; t <= cdtext.PackSizeInfo; t++ {
			if source.HasPackData(t) {
				data, _ := source.PackData(t)
				if err := language.SetPackData(t, data); err != nil {
					return err
				}
			}
		}
		if err := add(language); err != nil {
			return err
		}
	}
	return nil
}
