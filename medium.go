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

// MediumType identifies the physical medium an image represents.
type MediumType int

// Medium types.
const (
	MediumCD MediumType = iota
	MediumDVD
	MediumBD
	MediumHDDVD
)

// String returns the medium type's display name.
func (m MediumType) String() string {
	switch m {
	case MediumCD:
		return "CD"
	case MediumDVD:
		return "DVD"
	case MediumBD:
		return "BD"
	case MediumHDDVD:
		return "HD-DVD"
	default:
		return "unknown"
	}
}

// Layout length thresholds for medium guessing, in sectors.
const (
	maxCDSectors    = 90 * 60 * 75 // 90-minute CD
	maxDVDSectors   = 2295104
	maxDVDDLSectors = 4173824
	maxBDSectors    = 12219392
	maxBDDLSectors  = 24438784
)

// GuessMediumType guesses the medium type from a layout length. Parsers
// whose container does not record the medium use it after the layout is
// built.
func GuessMediumType(length int32) MediumType {
	switch {
	case length <= maxCDSectors:
		return MediumCD
	case length <= maxDVDSectors:
		return MediumDVD
	case length <= maxDVDDLSectors:
		return MediumDVD
	case length <= maxBDSectors:
		return MediumBD
	case length <= maxBDDLSectors:
		return MediumBD
	default:
		return MediumBD
	}
}
