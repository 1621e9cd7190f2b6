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

// Package writer provides the image writer framework: a parameter sheet
// for declaring and validating writer options, the Writer interface
// concrete image writers implement, and the reference image-conversion
// driver.
package writer

import (
	"errors"
	"fmt"
	"slices"

	discimage "github.com/disctools/go-discimage"
)

// Common errors for the writer framework.
var (
	// ErrParameter indicates a user-supplied parameter value failed
	// validation.
	ErrParameter = errors.New("invalid writer parameter")

	// ErrCancelled indicates an image conversion was cancelled through
	// its cancel token.
	ErrCancelled = errors.New("image conversion cancelled")
)

// ParameterType is the value type of a writer parameter.
type ParameterType int

// Parameter value types.
const (
	ParameterBool ParameterType = iota
	ParameterInt
	ParameterString
	ParameterEnum
)

// Parameter is one entry of a writer's parameter sheet.
type Parameter struct {
	ID          string
	Name        string
	Description string
	Type        ParameterType
	Default     any

	// EnumValues lists the permitted values of an enum parameter.
	EnumValues []string
}

// ParameterSheet is an ordered list of declared parameters.
type ParameterSheet struct {
	parameters []Parameter
	index      map[string]int
}

// NewParameterSheet returns an empty parameter sheet.
func NewParameterSheet() *ParameterSheet {
	return &ParameterSheet{index: make(map[string]int)}
}

// AddBool declares a boolean parameter.
func (ps *ParameterSheet) AddBool(id, name, description string, defaultValue bool) {
	ps.add(Parameter{ID: id, Name: name, Description: description, Type: ParameterBool, Default: defaultValue})
}

// AddInt declares an integer parameter.
func (ps *ParameterSheet) AddInt(id, name, description string, defaultValue int) {
	ps.add(Parameter{ID: id, Name: name, Description: description, Type: ParameterInt, Default: defaultValue})
}

// AddString declares a string parameter.
func (ps *ParameterSheet) AddString(id, name, description, defaultValue string) {
	ps.add(Parameter{ID: id, Name: name, Description: description, Type: ParameterString, Default: defaultValue})
}

// AddEnum declares an enum parameter with the permitted values.
func (ps *ParameterSheet) AddEnum(id, name, description, defaultValue string, values ...string) {
	ps.add(Parameter{ID: id, Name: name, Description: description, Type: ParameterEnum, Default: defaultValue, EnumValues: values})
}

func (ps *ParameterSheet) add(parameter Parameter) {
	ps.index[parameter.ID] = len(ps.parameters)
	ps.parameters = append(ps.parameters, parameter)
}

// Parameters returns the declared parameters in declaration order.
func (ps *ParameterSheet) Parameters() []Parameter {
	return ps.parameters
}

// Lookup returns the declared parameter with the given id.
func (ps *ParameterSheet) Lookup(id string) (Parameter, bool) {
	i, ok := ps.index[id]
	if !ok {
		return Parameter{}, false
	}
	return ps.parameters[i], true
}

// Validate checks user-supplied values against the sheet: type
// mismatches and out-of-enum values are rejected; unknown parameters are
// silently ignored.
func (ps *ParameterSheet) Validate(values map[string]any) error {
	for id, value := range values {
		parameter, ok := ps.Lookup(id)
		if !ok {
			continue
		}

		switch parameter.Type {
		case ParameterBool:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("%w: %q wants a boolean, got %T", ErrParameter, id, value)
			}
		case ParameterInt:
			if _, ok := value.(int); !ok {
				return fmt.Errorf("%w: %q wants an integer, got %T", ErrParameter, id, value)
			}
		case ParameterString:
			if _, ok := value.(string); !ok {
				return fmt.Errorf("%w: %q wants a string, got %T", ErrParameter, id, value)
			}
		case ParameterEnum:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: %q wants a string, got %T", ErrParameter, id, value)
			}
			if !slices.Contains(parameter.EnumValues, s) {
				return fmt.Errorf("%w: %q does not accept %q", ErrParameter, id, s)
			}
		}
	}
	return nil
}

// Value returns the effective value of a parameter: the user-supplied
// one if present, the declared default otherwise.
func (ps *ParameterSheet) Value(values map[string]any, id string) any {
	if value, ok := values[id]; ok {
		if _, declared := ps.Lookup(id); declared {
			return value
		}
	}
	if parameter, ok := ps.Lookup(id); ok {
		return parameter.Default
	}
	return nil
}

// FragmentRole tells a writer what a fragment it creates will hold.
type FragmentRole int

// Fragment roles.
const (
	FragmentRolePregap FragmentRole = iota
	FragmentRoleData
	FragmentRoleSubchannelData
)

// Info describes a writer implementation.
type Info struct {
	ID   string
	Name string
}

// Writer is a concrete image writer for one container format. The usage
// sequence is OpenImage, then CreateFragment for each fragment of the
// disc being built, then FinalizeImage to emit descriptor and side-car
// files.
type Writer interface {
	WriterInfo() Info
	ParameterSheet() *ParameterSheet

	// OpenImage initializes writer state for the disc being written to
	// filename. params have been validated against the parameter sheet.
	OpenImage(disc *discimage.Disc, filename string, params map[string]any) error

	// CreateFragment returns a fragment suitable for the writer's
	// container, attached to nothing yet.
	CreateFragment(track *discimage.Track, role FragmentRole) (discimage.Fragment, error)

	// FinalizeImage emits the image's descriptor and side-car files.
	FinalizeImage(disc *discimage.Disc) error
}
