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

// Debug domains for the context mask.
const (
	DebugDisc     = 1 << 0
	DebugSession  = 1 << 1
	DebugTrack    = 1 << 2
	DebugFragment = 1 << 3
	DebugSector   = 1 << 4
	DebugParser   = 1 << 5
	DebugWriter   = 1 << 6
)

// DebugContext identifies the consumer of a disc graph for diagnostic
// purposes. Every model object carries a pointer to one; attaching a
// child to a parent propagates the parent's context, and changing a
// context on a parent fans out to all descendants.
type DebugContext struct {
	Name      string
	Domain    string
	DebugMask uint32
}

// NewDebugContext returns a context with the given name and domain and
// an empty debug mask.
func NewDebugContext(name, domain string) *DebugContext {
	return &DebugContext{Name: name, Domain: domain}
}

// Enabled reports whether the given debug domain bit is set. A nil
// context reports false for every domain.
func (c *DebugContext) Enabled(domain uint32) bool {
	return c != nil && c.DebugMask&domain != 0
}
