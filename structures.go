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

// Disc structure types from the DVD/BD read-disc-structure command set.
const (
	// DiscStructurePhysicalInfo is the physical format information
	// descriptor.
	DiscStructurePhysicalInfo = 0x0000

	// DiscStructureCopyright is the copyright information descriptor.
	DiscStructureCopyright = 0x0001

	// DiscStructureManufacturing is the manufacturing information
	// descriptor.
	DiscStructureManufacturing = 0x0004
)

// physicalInfoDataStart is the physical sector number where DVD-ROM data
// areas begin.
const physicalInfoDataStart = 0x30000

// discStructureKey addresses one stored structure blob.
type discStructureKey struct {
	layer int
	kind  int
}

// SetDiscStructure stores an opaque disc structure blob for the given
// layer and type. Disc structures are only valid on DVD and BD media.
func (d *Disc) SetDiscStructure(layer, kind int, data []byte) error {
	if d.mediumType == MediumCD {
		return fmt.Errorf("%w: disc structures are not valid on CD media", ErrDisc)
	}
	d.structures[discStructureKey{layer: layer, kind: kind}] = append([]byte(nil), data...)
	return nil
}

// DiscStructure returns the structure blob stored for the given layer
// and type. When no blob is stored, canonical defaults are synthesized
// for the physical-format, copyright and manufacturing descriptors;
// synthesis is read-only and does not populate the stored map.
func (d *Disc) DiscStructure(layer, kind int) ([]byte, error) {
	if d.mediumType == MediumCD {
		return nil, fmt.Errorf("%w: disc structures are not valid on CD media", ErrDisc)
	}

	if data, ok := d.structures[discStructureKey{layer: layer, kind: kind}]; ok {
		return data, nil
	}
	return d.generateDiscStructure(kind)
}

// generateDiscStructure synthesizes a canonical structure for types with
// a sensible default.
func (d *Disc) generateDiscStructure(kind int) ([]byte, error) {
	switch kind {
	case DiscStructurePhysicalInfo:
		// A 120 mm single-layer ROM disc: book type DVD-ROM, part
		// version 5, embossed layer, with the data area bounds derived
		// from the layout length. The three area fields are 24-bit
		// big-endian values each preceded by a zero byte.
		info := make([]byte, 2048)
		info[0] = 0x05 // book_type 0 (DVD-ROM) | part_ver 5
		info[1] = 0x0F // disc_size 0 (120 mm) | max_rate 15 (not specified)
		info[2] = 0x01 // num_layers 0, track_path 0, layer_type 1 (embossed)
		info[3] = 0x00 // linear_density 0, track_density 0

		putUint24(info[5:], physicalInfoDataStart)
		putUint24(info[9:], uint32(physicalInfoDataStart+d.length)) //nolint:gosec // Layout lengths stay far below 24 bits of headroom
		putUint24(info[13:], 0)
		return info, nil

	case DiscStructureCopyright:
		// No copy protection, no region restrictions.
		return make([]byte, 4), nil

	case DiscStructureManufacturing:
		return make([]byte, 2048), nil

	default:
		return nil, fmt.Errorf("%w: no disc structure of type 0x%04X", ErrDisc, kind)
	}
}

// putUint24 stores a 24-bit big-endian value.
func putUint24(dst []byte, value uint32) {
	dst[0] = byte(value >> 16)
	dst[1] = byte(value >> 8)
	dst[2] = byte(value)
}
