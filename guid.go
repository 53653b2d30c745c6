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

import "github.com/google/uuid"

// NewDocumentID generates a fresh identifier for use as xmpMM:DocumentID or
// xmpMM:OriginalDocumentID.
func NewDocumentID() GUID {
	return GUID{Text: Text{V: "xmp.did:" + uuid.NewString()}}
}

// NewInstanceID generates a fresh identifier for use as xmpMM:InstanceID.
// A new instance ID should be assigned each time a resource is saved.
func NewInstanceID() GUID {
	return GUID{Text: Text{V: "xmp.iid:" + uuid.NewString()}}
}
