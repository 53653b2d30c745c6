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

package files

import "errors"

var (
	// ErrNoXMP indicates that a file was parsed successfully but does not
	// contain an XMP packet.
	ErrNoXMP = errors.New("no XMP packet found")

	// ErrNotWritable indicates a write to a file which was not opened with
	// the ForUpdate option.
	ErrNotWritable = errors.New("file not opened for update")
)

// ContainerError indicates that a container file could not be parsed, or that
// an XMP packet could not be embedded in it.
type ContainerError struct {
	Format string
	Err    error
}

func (e *ContainerError) Error() string {
	return e.Format + ": " + e.Err.Error()
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

// containerError wraps a description of a malformed container.
func containerError(format, detail string) error {
	return &ContainerError{Format: format, Err: errors.New(detail)}
}
