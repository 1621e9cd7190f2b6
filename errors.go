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
	"errors"

	"github.com/disctools/go-discimage/cdtext"
	"github.com/disctools/go-discimage/stream"
)

// Error kinds. Fallible operations return errors wrapping one or more of
// these sentinels; classify with errors.Is. I/O errors from streams
// propagate unchanged up to the first boundary that can translate them
// into a domain-specific kind, keeping the cause chain.
var (
	// ErrLibrary indicates an uninitialized registry or a broken internal
	// invariant.
	ErrLibrary = errors.New("library error")

	// ErrParser indicates a parser rejected its input.
	ErrParser = errors.New("parser error")

	// ErrFragment indicates a fragment I/O or configuration failure.
	ErrFragment = errors.New("fragment error")

	// ErrDisc indicates a disc-level invariant or lookup failure.
	ErrDisc = errors.New("disc error")

	// ErrLanguage indicates an invalid CD-TEXT block or pack type.
	ErrLanguage = cdtext.ErrInvalidBlock

	// ErrSector indicates a sector-structure error: bad sync or header,
	// EDC/ECC failure.
	ErrSector = errors.New("sector error")

	// ErrSession indicates a session was not found or a session number
	// conflicts.
	ErrSession = errors.New("session error")

	// ErrTrack indicates a track was not found, an address is out of
	// range, or an append was attempted on a track that is not last.
	ErrTrack = errors.New("track error")

	// ErrStream indicates an underlying I/O or seek failure.
	ErrStream = stream.ErrStream

	// ErrImageFile indicates an image descriptor file cannot be opened
	// or read.
	ErrImageFile = errors.New("image file error")

	// ErrDataFile indicates a backing data file cannot be opened or
	// read.
	ErrDataFile = errors.New("data file error")

	// ErrCannotHandle is the distinguished parser sentinel: the loader
	// tries the next registered parser when it sees it.
	ErrCannotHandle = stream.ErrCannotHandle

	// ErrEncryptedImage indicates the image is encrypted and requires a
	// password.
	ErrEncryptedImage = errors.New("image is encrypted and requires a password")
)
