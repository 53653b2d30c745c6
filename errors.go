// github.com/cavivie/xmpkit - Extensible Metadata Platform in Go
// Copyright (C) 2026  The xmpkit contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package xmp

import "errors"

var (
	// ErrNotFound indicates that a property does not exist in the packet.
	ErrNotFound = errors.New("property not found")

	// ErrTypeMismatch indicates that a value does not have the expected
	// form, for example a simple value where an array is required.
	ErrTypeMismatch = errors.New("unexpected value type")

	// ErrIndexRange indicates an array index outside 1, ..., len.
	ErrIndexRange = errors.New("array index out of range")

	// ErrNamespaceConflict indicates that a namespace URI or prefix is
	// already registered with a different partner.
	ErrNamespaceConflict = errors.New("conflicting namespace registration")

	// ErrInvalidName indicates a malformed or reserved property or
	// qualifier name.
	ErrInvalidName = errors.New("invalid XMP name")

	// ErrInvalidValue indicates a value which cannot be represented in an
	// XMP packet.
	ErrInvalidValue = errors.New("invalid XMP value")
)

// ParseError is returned by [Read] when the input cannot be interpreted as an
// XMP packet.
type ParseError struct {
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "malformed XMP data: " + e.Detail + ": " + e.Err.Error()
	}
	return "malformed XMP data: " + e.Detail
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
