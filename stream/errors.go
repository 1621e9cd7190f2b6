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

package stream

import (
	"errors"
	"fmt"
)

// Common errors for the stream chain.
var (
	// ErrStream indicates an I/O or seek failure in a stream.
	ErrStream = errors.New("stream error")

	// ErrNotWritable indicates a write to a read-only stream.
	ErrNotWritable = fmt.Errorf("%w: stream is not writable", ErrStream)

	// ErrCannotHandle is returned by filter stream constructors whose
	// signature probe does not match the underlying data. The image
	// loader uses it to try the next registered filter.
	ErrCannotHandle = errors.New("cannot handle stream data")
)
