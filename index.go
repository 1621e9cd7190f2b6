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

// Index marks a subdivision within a track. Indices 0 (pregap) and 1
// (track start) are implied by the track's layout; registered indices
// are numbered from 2 by ascending address.
type Index struct {
	number  int
	address int32
}

// Number returns the index number.
func (i *Index) Number() int {
	return i.number
}

// Address returns the index's track-relative address.
func (i *Index) Address() int32 {
	return i.address
}
