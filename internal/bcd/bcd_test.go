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

package bcd

import "testing"

func TestBCD(t *testing.T) {
	t.Parallel()

	for value := 0; value < 100; value++ {
		if got := FromBCD(ToBCD(value)); got != value {
			t.Errorf("FromBCD(ToBCD(%d)) = %d", value, got)
		}
	}
	if got := ToBCD(42); got != 0x42 {
		t.Errorf("ToBCD(42) = 0x%02X, want 0x42", got)
	}
}

func TestMSF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lba     int32
		m, s, f int
	}{
		{0, 0, 0, 0},
		{150, 0, 2, 0},
		{166, 0, 2, 16},
		{4500, 1, 0, 0},
		{449999, 99, 59, 74},
	}
	for _, testCase := range tests {
		m, s, f := LBAToMSF(testCase.lba)
		if m != testCase.m || s != testCase.s || f != testCase.f {
			t.Errorf("LBAToMSF(%d) = %d:%d:%d, want %d:%d:%d",
				testCase.lba, m, s, f, testCase.m, testCase.s, testCase.f)
		}
		if got := MSFToLBA(m, s, f); got != testCase.lba {
			t.Errorf("MSFToLBA(%d, %d, %d) = %d, want %d", m, s, f, got, testCase.lba)
		}
	}
}
