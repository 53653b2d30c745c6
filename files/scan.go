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

import "bytes"

var (
	packetBegin = []byte("<?xpacket begin=")
	packetEnd   = []byte("<?xpacket end=")
	piEnd       = []byte("?>")
)

// ScanPacket locates an XMP packet envelope in raw bytes, without any
// knowledge of the container format.  It returns the byte range from the
// start of the <?xpacket begin?> processing instruction to the end of the
// matching <?xpacket end?> instruction, so that data[start:end] is the
// packet.  If no envelope is found, [ErrNoXMP] is returned.
func ScanPacket(data []byte) (start, end int, err error) {
	start = bytes.Index(data, packetBegin)
	if start < 0 {
		return 0, 0, ErrNoXMP
	}
	i := bytes.Index(data[start:], packetEnd)
	if i < 0 {
		return 0, 0, ErrNoXMP
	}
	i += start
	j := bytes.Index(data[i:], piEnd)
	if j < 0 {
		return 0, 0, ErrNoXMP
	}
	end = i + j + len(piEnd)
	return start, end, nil
}
