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

import "fmt"

// DPM is a disc physical measurement table: cumulative angular positions
// sampled every resolution sectors, in hex degrees (1/256th of a full
// rotation). Copy-protection schemes fingerprint discs with it.
type DPM struct {
	start      int32
	resolution int32
	entries    []uint32
}

// NewDPM returns a DPM table starting at the given sector with the given
// resolution.
func NewDPM(start, resolution int32, entries []uint32) *DPM {
	return &DPM{start: start, resolution: resolution, entries: append([]uint32(nil), entries...)}
}

// Start returns the address the measurements begin at.
func (d *DPM) Start() int32 {
	return d.start
}

// Resolution returns the sector distance between entries.
func (d *DPM) Resolution() int32 {
	return d.resolution
}

// Entries returns the raw measurement entries.
func (d *DPM) Entries() []uint32 {
	return d.entries
}

// SetDPM attaches a DPM table to the disc; nil detaches it.
func (d *Disc) SetDPM(dpm *DPM) {
	d.dpm = dpm
}

// DPM returns the disc's DPM table, or nil.
func (d *Disc) DPM() *DPM {
	return d.dpm
}

// DPMDataForSector computes the sector angle (in rotations: 1.0 is one
// full turn) and density (in degrees per sector) at the given address by
// linear interpolation between the surrounding DPM entries.
//
// Addresses between the last entry and where the next one would fall are
// served from the last interval: the resolution need not divide the disc
// length evenly.
func (d *Disc) DPMDataForSector(address int32) (angle, density float64, err error) {
	if d.dpm == nil || len(d.dpm.entries) == 0 {
		return 0, 0, fmt.Errorf("%w: no DPM data set", ErrDisc)
	}

	dpm := d.dpm
	numEntries := int32(len(dpm.entries))

	relAddress := address - dpm.start
	if relAddress < 0 || relAddress >= (numEntries+1)*dpm.resolution {
		return 0, 0, fmt.Errorf("%w: address %d outside DPM range", ErrDisc, address)
	}

	idxBottom := relAddress / dpm.resolution

	// The first entry describes the interval ending at 1*resolution, so
	// the entry for an interval is idxBottom-1; the three cases cover
	// the first interval, the tail past the last entry, and the regular
	// middle.
	var delta float64
	switch {
	case idxBottom == 0:
		delta = float64(dpm.entries[0])
	case idxBottom == numEntries:
		delta = float64(dpm.entries[idxBottom-1]) - float64(dpm.entries[idxBottom-2])
	default:
		delta = float64(dpm.entries[idxBottom]) - float64(dpm.entries[idxBottom-1])
	}

	rotationsPerSector := delta / 256.0 / float64(dpm.resolution)

	angle = float64(relAddress-idxBottom*dpm.resolution) * rotationsPerSector
	if idxBottom > 0 {
		angle += float64(dpm.entries[idxBottom-1]) / 256.0
	}

	density = rotationsPerSector * 360.0
	return angle, density, nil
}
