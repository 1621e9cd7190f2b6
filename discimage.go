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

// Package discimage models optical disc images — CD, DVD and BD — as a
// uniform hierarchy of sessions, tracks, fragments and sectors, and
// provides the engine that reads sectors of a requested encoding out of
// the image's backing streams.
//
// Container-format parsers are external: they consume the stream chain,
// build the disc model and register themselves in a Registry, which the
// image loader probes in order.
package discimage

import (
	"errors"
	"fmt"

	"github.com/disctools/go-discimage/stream"
)

// Version is the library version.
const Version = "1.0.0"

// ParserInfo describes a registered parser.
type ParserInfo struct {
	ID          string
	Name        string
	Description string

	// Extensions lists the descriptor file extensions the parser
	// recognizes, without dots.
	Extensions []string
}

// Parser is a container-format parser. LoadImage returns ErrCannotHandle
// (wrapped) when the streams are not in the parser's format, so the
// loader can probe the next parser; any other error aborts loading.
type Parser interface {
	ParserInfo() ParserInfo
	LoadImage(ctx *DebugContext, streams []stream.Stream) (*Disc, error)
}

// FilterOpener probes a stream for a filter's format and, on a match,
// returns the filter stream stacked on top of it. Non-matching openers
// return ErrCannotHandle (wrapped) with the stream rewound.
type FilterOpener func(stream.Stream) (stream.Stream, error)

// Registry holds the registered parsers and filter stream openers.
// Registries are explicit objects passed to the image-loading entry
// points; there is no process-wide singleton.
type Registry struct {
	parsers []Parser
	filters []FilterOpener
}

// NewRegistry returns a registry with the built-in filter stream openers
// (gzip, xz, zstd, FLAC) registered and no parsers.
func NewRegistry() *Registry {
	r := &Registry{}
	r.RegisterFilter(func(s stream.Stream) (stream.Stream, error) { return stream.OpenGzipFilter(s) })
	r.RegisterFilter(func(s stream.Stream) (stream.Stream, error) { return stream.OpenXzFilter(s) })
	r.RegisterFilter(func(s stream.Stream) (stream.Stream, error) { return stream.OpenZstdFilter(s) })
	r.RegisterFilter(func(s stream.Stream) (stream.Stream, error) { return stream.OpenFlacFilter(s) })
	return r
}

// RegisterParser appends a parser to the probe order.
func (r *Registry) RegisterParser(parser Parser) {
	r.parsers = append(r.parsers, parser)
}

// RegisterFilter appends a filter opener to the probe order.
func (r *Registry) RegisterFilter(opener FilterOpener) {
	r.filters = append(r.filters, opener)
}

// Parsers returns the registered parsers in probe order.
func (r *Registry) Parsers() []Parser {
	return r.parsers
}

// OpenStream opens the file at path and stacks registered filter streams
// on top of it until no filter recognizes the data.
func (r *Registry) OpenStream(path string) (stream.Stream, error) {
	s, err := stream.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataFile, err)
	}
	return r.wrapStream(s)
}

// wrapStream repeatedly probes the registered filters against the top of
// the chain.
func (r *Registry) wrapStream(s stream.Stream) (stream.Stream, error) {
	for {
		matched := false
		for _, opener := range r.filters {
			filtered, err := opener(s)
			if errors.Is(err, ErrCannotHandle) {
				continue
			}
			if err != nil {
				return nil, err
			}
			s = filtered
			matched = true
			break
		}
		if !matched {
			return s, nil
		}
	}
}

// LoadImage opens streams for the given files and probes the registered
// parsers in order. A parser returning ErrCannotHandle passes the turn
// to the next one; when every parser declines, the last error is
// surfaced. On failure no disc object is left behind.
func (r *Registry) LoadImage(ctx *DebugContext, filenames []string) (*Disc, error) {
	if len(filenames) == 0 {
		return nil, fmt.Errorf("%w: no image files given", ErrImageFile)
	}
	if len(r.parsers) == 0 {
		return nil, fmt.Errorf("%w: no parsers registered", ErrLibrary)
	}

	streams := make([]stream.Stream, 0, len(filenames))
	for _, filename := range filenames {
		s, err := r.OpenStream(filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrImageFile, filename, err)
		}
		streams = append(streams, s)
	}

	var lastErr error
	for _, parser := range r.parsers {
		for _, s := range streams {
			if _, err := s.Seek(0, stream.SeekSet); err != nil {
				return nil, err
			}
		}

		disc, err := parser.LoadImage(ctx, streams)
		if err == nil {
			if ctx != nil {
				disc.SetContext(ctx)
			}
			return disc, nil
		}
		lastErr = err
		if errors.Is(err, ErrCannotHandle) {
			continue
		}
		return nil, fmt.Errorf("%w: parser %q: %w", ErrParser, parser.ParserInfo().ID, err)
	}

	return nil, fmt.Errorf("%w: no parser can handle the image: %w", ErrParser, lastErr)
}
