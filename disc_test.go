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
	"math"
	"testing"
)

func TestDiscStructureSynthesis(t *testing.T) {
	t.Parallel()

	disc := buildDiscWithSessions(t, 0, 500000)
	disc.SetMediumType(MediumDVD)

	info, err := disc.DiscStructure(0, DiscStructurePhysicalInfo)
	if err != nil {
		t.Fatalf("DiscStructure() error = %v", err)
	}
	if len(info) != 2048 {
		t.Fatalf("physical info length = %d, want 2048", len(info))
	}

	// Book type DVD-ROM part 5, 120 mm, single embossed layer, parallel
	// track path.
	if info[0] != 0x05 || info[1] != 0x0F || info[2] != 0x01 || info[3] != 0x00 {
		t.Errorf("physical info header = % X", info[:4])
	}

	// Data area bounds: 24-bit big-endian with a zero byte before each.
	wantStart := []byte{0x00, 0x03, 0x00, 0x00}
	if !bytes.Equal(info[4:8], wantStart) {
		t.Errorf("data start = % X, want % X", info[4:8], wantStart)
	}
	end := 0x30000 + 500000
	wantEnd := []byte{0x00, byte(end >> 16), byte(end >> 8), byte(end)}
	if !bytes.Equal(info[8:12], wantEnd) {
		t.Errorf("data end = % X, want % X", info[8:12], wantEnd)
	}

	copyright, err := disc.DiscStructure(0, DiscStructureCopyright)
	if err != nil {
		t.Fatalf("DiscStructure(copyright) error = %v", err)
	}
	if !isZeroed(copyright) {
		t.Error("synthesized copyright info is not zero-filled")
	}

	manufacturing, err := disc.DiscStructure(0, DiscStructureManufacturing)
	if err != nil {
		t.Fatalf("DiscStructure(manufacturing) error = %v", err)
	}
	if len(manufacturing) != 2048 || !isZeroed(manufacturing) {
		t.Error("synthesized manufacturing info is not 2048 zero bytes")
	}

	// Synthesis is read-only; a stored blob takes precedence afterwards.
	if _, err := disc.DiscStructure(0, 0x0002); !errors.Is(err, ErrDisc) {
		t.Errorf("unknown structure error = %v, want ErrDisc", err)
	}
	if err := disc.SetDiscStructure(0, 0x0002, []byte{1, 2, 3}); err != nil {
		t.Fatalf("SetDiscStructure() error = %v", err)
	}
	stored, err := disc.DiscStructure(0, 0x0002)
	if err != nil {
		t.Fatalf("DiscStructure(stored) error = %v", err)
	}
	if !bytes.Equal(stored, []byte{1, 2, 3}) {
		t.Errorf("stored structure = %v", stored)
	}
}

func TestDiscStructureRejectedOnCD(t *testing.T) {
	t.Parallel()

	disc := NewDisc()
	disc.SetMediumType(MediumCD)
	if _, err := disc.DiscStructure(0, DiscStructurePhysicalInfo); !errors.Is(err, ErrDisc) {
		t.Errorf("DiscStructure() on CD error = %v, want ErrDisc", err)
	}
	if err := disc.SetDiscStructure(0, DiscStructurePhysicalInfo, nil); !errors.Is(err, ErrDisc) {
		t.Errorf("SetDiscStructure() on CD error = %v, want ErrDisc", err)
	}
}

func TestGuessMediumType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		length int32
		want   MediumType
	}{
		{160, MediumCD},
		{90 * 60 * 75, MediumCD},
		{90*60*75 + 1, MediumDVD},
		{2295104, MediumDVD},
		{4173824, MediumDVD},
		{4173825, MediumBD},
		{12219392, MediumBD},
		{24438784, MediumBD},
		{24438785, MediumBD},
	}
	for _, testCase := range tests {
		if got := GuessMediumType(testCase.length); got != testCase.want {
			t.Errorf("GuessMediumType(%d) = %v, want %v", testCase.length, got, testCase.want)
		}
	}
}

func TestDPMInterpolation(t *testing.T) {
	t.Parallel()

	disc := NewDisc()
	// One full rotation per ten sectors: entries are cumulative hex
	// degrees at 10, 20, 30 sectors.
	disc.SetDPM(NewDPM(0, 10, []uint32{256, 512, 768}))

	angle, density, err := disc.DPMDataForSector(5)
	if err != nil {
		t.Fatalf("DPMDataForSector(5) error = %v", err)
	}
	if math.Abs(angle-0.5) > 1e-9 {
		t.Errorf("angle at 5 = %f, want 0.5", angle)
	}
	if math.Abs(density-36.0) > 1e-9 {
		t.Errorf("density at 5 = %f, want 36.0", density)
	}

	angle, _, err = disc.DPMDataForSector(15)
	if err != nil {
		t.Fatalf("DPMDataForSector(15) error = %v", err)
	}
	if math.Abs(angle-1.5) > 1e-9 {
		t.Errorf("angle at 15 = %f, want 1.5", angle)
	}

	// Addresses past the last entry reuse the last interval.
	if _, _, err := disc.DPMDataForSector(35); err != nil {
		t.Errorf("DPMDataForSector(35) error = %v", err)
	}
	if _, _, err := disc.DPMDataForSector(40); !errors.Is(err, ErrDisc) {
		t.Errorf("DPMDataForSector(40) error = %v, want ErrDisc", err)
	}
	if _, _, err := disc.DPMDataForSector(-1); !errors.Is(err, ErrDisc) {
		t.Errorf("DPMDataForSector(-1) error = %v, want ErrDisc", err)
	}
}

func TestDPMUnset(t *testing.T) {
	t.Parallel()

	disc := NewDisc()
	if _, _, err := disc.DPMDataForSector(0); !errors.Is(err, ErrDisc) {
		t.Errorf("DPMDataForSector() without DPM error = %v, want ErrDisc", err)
	}
}
