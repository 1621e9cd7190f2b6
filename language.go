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
	"fmt"

	"github.com/disctools/go-discimage/cdtext"
)

// Language is a CD-TEXT language container: a sparse map from pack type
// to raw data, attached to a session or a track. A language is never
// shared between containers.
type Language struct {
	code      int
	charset   int
	copyright int
	packs     map[cdtext.PackType][]byte
}

// NewLanguage returns an empty language container for the given 12-bit
// language code.
func NewLanguage(code int) *Language {
	return &Language{code: code, packs: make(map[cdtext.PackType][]byte)}
}

// Code returns the language code.
func (l *Language) Code() int {
	return l.code
}

// SetCode changes the language code. Containers attached to a session or
// track must keep their codes unique within it.
func (l *Language) SetCode(code int) {
	l.code = code
}

// CharacterSet returns the character set the pack data is encoded in.
func (l *Language) CharacterSet() int {
	return l.charset
}

// SetCharacterSet sets the character set code.
func (l *Language) SetCharacterSet(charset int) {
	l.charset = charset
}

// Copyright returns the copyright flag.
func (l *Language) Copyright() int {
	return l.copyright
}

// SetCopyright sets the copyright flag.
func (l *Language) SetCopyright(copyright int) {
	l.copyright = copyright
}

// SetPackData stores raw data for the given pack type. Textual data must
// include its terminating zero byte.
func (l *Language) SetPackData(packType cdtext.PackType, data []byte) error {
	if !cdtext.IsValidPackType(packType) {
		return fmt.Errorf("%w: invalid pack type 0x%X", ErrLanguage, int(packType))
	}
	l.packs[packType] = append([]byte(nil), data...)
	return nil
}

// PackData returns the raw data stored for the given pack type.
func (l *Language) PackData(packType cdtext.PackType) ([]byte, error) {
	if !cdtext.IsValidPackType(packType) {
		return nil, fmt.Errorf("%w: invalid pack type 0x%X", ErrLanguage, int(packType))
	}
	data, ok := l.packs[packType]
	if !ok {
		return nil, fmt.Errorf("%w: no data for pack type 0x%X", ErrLanguage, int(packType))
	}
	return data, nil
}

// HasPackData reports whether data is stored for the given pack type.
func (l *Language) HasPackData(packType cdtext.PackType) bool {
	_, ok := l.packs[packType]
	return ok
}

// PackTypes returns the pack types that carry data, in ascending order.
func (l *Language) PackTypes() []cdtext.PackType {
	var types []cdtext.PackType
	for t := cdtext.PackTitle; t <= cdtext.PackSizeInfo; t++ {
		if _, ok := l.packs[t]; ok {
			types = append(types, t)
		}
	}
	return types
}
