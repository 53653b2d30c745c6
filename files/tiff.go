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

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// XMP in TIFF files lives in IFD0 tag 700, with type BYTE or UNDEFINED.
// Writing never moves existing file content: new data is appended at the end
// of the file and the directory is patched or rebuilt there, so that all
// other offsets in the file stay valid.
const tiffTagXMP = 700

const (
	tiffTypeByte      = 1
	tiffTypeASCII     = 2
	tiffTypeUndefined = 7
)

type tiffHandler struct{}

func (tiffHandler) Name() string {
	return "tiff"
}

func (tiffHandler) Extensions() []string {
	return []string{"tif", "tiff"}
}

func (tiffHandler) CanHandle(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	return data[0] == 'I' && data[1] == 'I' && data[2] == 42 && data[3] == 0 ||
		data[0] == 'M' && data[1] == 'M' && data[2] == 0 && data[3] == 42
}

// tiffEntry is one 12-byte IFD entry.  The value field is kept verbatim, so
// that inline values and offsets survive a directory rebuild unchanged.
type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value [4]byte
}

type tiffIFD struct {
	bo      binary.ByteOrder
	offset  int // of the directory itself
	entries []tiffEntry
	next    [4]byte // pointer to the following IFD, verbatim
}

func parseTIFF(data []byte) (*tiffIFD, error) {
	if len(data) < 8 {
		return nil, containerError("tiff", "truncated header")
	}
	var bo binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		bo = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, containerError("tiff", "invalid byte order mark")
	}
	if bo.Uint16(data[2:4]) != 42 {
		return nil, containerError("tiff", "invalid magic number")
	}

	offset := int(bo.Uint32(data[4:8]))
	if offset < 8 || offset+2 > len(data) {
		return nil, containerError("tiff", "invalid IFD0 offset")
	}
	n := int(bo.Uint16(data[offset:]))
	if offset+2+12*n+4 > len(data) {
		return nil, containerError("tiff", "truncated IFD0")
	}

	ifd := &tiffIFD{bo: bo, offset: offset}
	for i := 0; i < n; i++ {
		pos := offset + 2 + 12*i
		e := tiffEntry{
			tag:   bo.Uint16(data[pos:]),
			typ:   bo.Uint16(data[pos+2:]),
			count: bo.Uint32(data[pos+4:]),
		}
		copy(e.value[:], data[pos+8:pos+12])
		ifd.entries = append(ifd.entries, e)
	}
	copy(ifd.next[:], data[offset+2+12*n:])
	return ifd, nil
}

// entryData returns the bytes of a BYTE, ASCII or UNDEFINED entry, following
// the inline-value rule for data of at most four bytes.
func (ifd *tiffIFD) entryData(data []byte, e tiffEntry) ([]byte, error) {
	size := int(e.count)
	if size <= 4 {
		return bytes.Clone(e.value[:size]), nil
	}
	off := int(ifd.bo.Uint32(e.value[:]))
	if off < 0 || off+size > len(data) {
		return nil, containerError("tiff", "tag value outside the file")
	}
	return bytes.Clone(data[off : off+size]), nil
}

func (tiffHandler) ReadXMP(data []byte) ([]byte, error) {
	ifd, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}
	for _, e := range ifd.entries {
		if e.tag != tiffTagXMP {
			continue
		}
		if e.typ != tiffTypeByte && e.typ != tiffTypeASCII && e.typ != tiffTypeUndefined {
			continue
		}
		return ifd.entryData(data, e)
	}
	return nil, ErrNoXMP
}

func (tiffHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	ifd, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}
	bo := ifd.bo

	out := bytes.Clone(data)
	if len(out)%2 != 0 {
		out = append(out, 0)
	}

	entry := tiffEntry{
		tag:   tiffTagXMP,
		typ:   tiffTypeByte,
		count: uint32(len(packet)),
	}
	if len(packet) <= 4 {
		copy(entry.value[:], packet)
	} else {
		bo.PutUint32(entry.value[:], uint32(len(out)))
		out = append(out, packet...)
		if len(out)%2 != 0 {
			out = append(out, 0)
		}
	}

	// An existing directory entry is patched in place.
	for i, e := range ifd.entries {
		if e.tag != tiffTagXMP {
			continue
		}
		pos := ifd.offset + 2 + 12*i
		bo.PutUint16(out[pos+2:], entry.typ)
		bo.PutUint32(out[pos+4:], entry.count)
		copy(out[pos+8:pos+12], entry.value[:])
		return out, nil
	}

	// Otherwise IFD0 is rebuilt at the end of the file and the header is
	// pointed at the new directory.
	entries := append([]tiffEntry{}, ifd.entries...)
	entries = append(entries, entry)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].tag < entries[j].tag
	})
	bo.PutUint32(out[4:8], uint32(len(out)))
	return appendTIFFIFD(out, bo, entries, ifd.next), nil
}

func (tiffHandler) RemoveXMP(data []byte) ([]byte, error) {
	ifd, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}

	var entries []tiffEntry
	for _, e := range ifd.entries {
		if e.tag != tiffTagXMP {
			entries = append(entries, e)
		}
	}
	if len(entries) == len(ifd.entries) {
		return data, nil
	}

	out := bytes.Clone(data)
	if len(out)%2 != 0 {
		out = append(out, 0)
	}
	ifd.bo.PutUint32(out[4:8], uint32(len(out)))
	return appendTIFFIFD(out, ifd.bo, entries, ifd.next), nil
}

func appendTIFFIFD(out []byte, bo binary.ByteOrder, entries []tiffEntry, next [4]byte) []byte {
	var buf [12]byte
	bo.PutUint16(buf[:2], uint16(len(entries)))
	out = append(out, buf[:2]...)
	for _, e := range entries {
		bo.PutUint16(buf[0:], e.tag)
		bo.PutUint16(buf[2:], e.typ)
		bo.PutUint32(buf[4:], e.count)
		copy(buf[8:], e.value[:])
		out = append(out, buf[:]...)
	}
	return append(out, next[:]...)
}
