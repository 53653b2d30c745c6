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
)

// This file implements the parts of the ISO base media file format (used by
// MP4, QuickTime and HEIF files) needed to embed XMP packets.  Inserting or
// removing a box shifts everything behind it, so every structural change
// also updates the size fields of the enclosing boxes and the absolute file
// offsets stored in chunk offset tables and item location boxes.

// xmpUUID identifies the uuid box holding the XMP packet,
// BE7ACFCB-97A9-42E8-9C71-999491E3AFAC.
var xmpUUID = []byte{
	0xBE, 0x7A, 0xCF, 0xCB, 0x97, 0xA9, 0x42, 0xE8,
	0x9C, 0x71, 0x99, 0x94, 0x91, 0xE3, 0xAF, 0xAC,
}

type bmff struct {
	format string
	data   []byte
}

func (f bmff) err(detail string) error {
	return containerError(f.format, detail)
}

type bmffBox struct {
	typ        string
	start, end int
	body       int  // offset of the box content
	implicit   bool // size 0, box runs to the end of the file
}

// isXMPUUID reports whether b is a uuid box with the XMP user type.
func (b bmffBox) isXMPUUID(data []byte) bool {
	return b.typ == "uuid" && b.body+16 <= b.end &&
		bytes.Equal(data[b.body:b.body+16], xmpUUID)
}

// boxes parses the sequence of boxes in data[start:end].  A trailing 32-bit
// zero is tolerated, QuickTime writes these as udta terminators.
func (f bmff) boxes(start, end int) ([]bmffBox, error) {
	var boxes []bmffBox
	pos := start
	for pos < end {
		if end-pos == 4 && binary.BigEndian.Uint32(f.data[pos:]) == 0 {
			break
		}
		if pos+8 > end {
			return nil, f.err("truncated box header")
		}
		size := uint64(binary.BigEndian.Uint32(f.data[pos:]))
		b := bmffBox{
			typ:   string(f.data[pos+4 : pos+8]),
			start: pos,
			body:  pos + 8,
		}
		switch size {
		case 0:
			b.implicit = true
			size = uint64(end - pos)
		case 1:
			if pos+16 > end {
				return nil, f.err("truncated box header")
			}
			size = binary.BigEndian.Uint64(f.data[pos+8:])
			b.body = pos + 16
		}
		if size < uint64(b.body-pos) || size > uint64(end-pos) {
			return nil, f.err("invalid box size")
		}
		b.end = pos + int(size)
		boxes = append(boxes, b)
		pos = b.end
	}
	return boxes, nil
}

func findBox(boxes []bmffBox, typ string) (bmffBox, bool) {
	for _, b := range boxes {
		if b.typ == typ {
			return b, true
		}
	}
	return bmffBox{}, false
}

// splice replaces data[start:end] with repl.  parents lists the enclosing
// boxes from the outside in; their size fields are adjusted for the change
// in length before the stored file offsets are patched.
func (f bmff) splice(parents []bmffBox, start, end int, repl []byte) ([]byte, error) {
	out := splice(f.data, start, end, repl)
	delta := len(repl) - (end - start)
	if delta == 0 {
		return out, nil
	}

	for _, p := range parents {
		if p.implicit {
			continue
		}
		if p.body-p.start == 16 {
			size := int64(binary.BigEndian.Uint64(out[p.start+8:])) + int64(delta)
			if size < 16 {
				return nil, f.err("box size out of range")
			}
			binary.BigEndian.PutUint64(out[p.start+8:], uint64(size))
		} else {
			size := int64(binary.BigEndian.Uint32(out[p.start:])) + int64(delta)
			if size < 8 || size > 0xFFFFFFFF {
				return nil, f.err("box size out of range")
			}
			binary.BigEndian.PutUint32(out[p.start:], uint32(size))
		}
	}

	if err := patchBMFFOffsets(f.format, out, start, delta); err != nil {
		return nil, err
	}
	return out, nil
}

// patchBMFFOffsets adjusts the absolute file offsets stored in out after
// delta bytes were inserted or removed at position pos.
func patchBMFFOffsets(format string, out []byte, pos, delta int) error {
	f := bmff{format: format, data: out}
	top, err := f.boxes(0, len(out))
	if err != nil {
		return err
	}
	for _, b := range top {
		switch b.typ {
		case "moov":
			if err := f.patchMovieOffsets(b, pos, delta); err != nil {
				return err
			}
		case "meta":
			if b.end-b.body < 4 {
				return f.err("truncated meta box")
			}
			children, err := f.boxes(b.body+4, b.end)
			if err != nil {
				return err
			}
			if iloc, ok := findBox(children, "iloc"); ok {
				if err := f.patchItemLocations(iloc, pos, delta); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// patchMovieOffsets descends into the moov box hierarchy and adjusts the
// chunk offset tables of all tracks.
func (f bmff) patchMovieOffsets(b bmffBox, pos, delta int) error {
	boxes, err := f.boxes(b.body, b.end)
	if err != nil {
		return err
	}
	for _, c := range boxes {
		switch c.typ {
		case "trak", "mdia", "minf", "stbl":
			if err := f.patchMovieOffsets(c, pos, delta); err != nil {
				return err
			}
		case "stco", "co64":
			if err := f.patchChunkOffsets(c, pos, delta); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f bmff) patchChunkOffsets(b bmffBox, pos, delta int) error {
	p := b.body
	if b.end-p < 8 {
		return f.err("truncated chunk offset box")
	}
	n := int(binary.BigEndian.Uint32(f.data[p+4:]))
	p += 8
	width := 4
	if b.typ == "co64" {
		width = 8
	}
	if int64(b.end-p) < int64(n)*int64(width) {
		return f.err("truncated chunk offset box")
	}
	for i := 0; i < n; i++ {
		q := p + width*i
		if width == 8 {
			off := binary.BigEndian.Uint64(f.data[q:])
			if off >= uint64(pos) {
				binary.BigEndian.PutUint64(f.data[q:], uint64(int64(off)+int64(delta)))
			}
			continue
		}
		off := int64(binary.BigEndian.Uint32(f.data[q:]))
		if off >= int64(pos) {
			off += int64(delta)
			if off < 0 || off > 0xFFFFFFFF {
				return f.err("chunk offset out of range")
			}
			binary.BigEndian.PutUint32(f.data[q:], uint32(off))
		}
	}
	return nil
}

// patchItemLocations walks an iloc box and shifts the file offsets of all
// items with construction method 0.  Items addressed through a nonzero base
// offset are moved by adjusting the base, all others through their extent
// offsets.
func (f bmff) patchItemLocations(b bmffBox, pos, delta int) error {
	data := f.data
	if b.end-b.body < 8 {
		return f.err("truncated iloc box")
	}
	version := data[b.body]
	if version > 2 {
		return f.err("unsupported iloc version")
	}
	offSize := int(data[b.body+4] >> 4)
	lenSize := int(data[b.body+4] & 0x0F)
	baseSize := int(data[b.body+5] >> 4)
	indexSize := 0
	if version > 0 {
		indexSize = int(data[b.body+5] & 0x0F)
	}
	if offSize != 0 && offSize != 4 && offSize != 8 ||
		baseSize != 0 && baseSize != 4 && baseSize != 8 {
		return f.err("invalid iloc field size")
	}

	p := b.body + 6
	var count int
	if version == 2 {
		if b.end-p < 4 {
			return f.err("truncated iloc box")
		}
		count = int(binary.BigEndian.Uint32(data[p:]))
		p += 4
	} else {
		count = int(binary.BigEndian.Uint16(data[p:]))
		p += 2
	}

	for i := 0; i < count; i++ {
		idSize := 2
		if version == 2 {
			idSize = 4
		}
		methodSize := 0
		if version > 0 {
			methodSize = 2
		}
		if b.end-p < idSize+methodSize+2+baseSize+2 {
			return f.err("truncated iloc box")
		}
		p += idSize
		method := 0
		if version > 0 {
			method = int(binary.BigEndian.Uint16(data[p:]) & 0x0F)
			p += 2
		}
		p += 2 // data reference index

		baseAbsolute := false
		switch baseSize {
		case 4:
			base := int64(binary.BigEndian.Uint32(data[p:]))
			if base != 0 {
				baseAbsolute = true
				if method == 0 && base >= int64(pos) {
					base += int64(delta)
					if base < 0 || base > 0xFFFFFFFF {
						return f.err("item offset out of range")
					}
					binary.BigEndian.PutUint32(data[p:], uint32(base))
				}
			}
		case 8:
			base := binary.BigEndian.Uint64(data[p:])
			if base != 0 {
				baseAbsolute = true
				if method == 0 && base >= uint64(pos) {
					binary.BigEndian.PutUint64(data[p:], uint64(int64(base)+int64(delta)))
				}
			}
		}
		p += baseSize

		extents := int(binary.BigEndian.Uint16(data[p:]))
		p += 2
		if int64(b.end-p) < int64(extents)*int64(indexSize+offSize+lenSize) {
			return f.err("truncated iloc box")
		}
		for j := 0; j < extents; j++ {
			p += indexSize
			if method == 0 && !baseAbsolute {
				switch offSize {
				case 4:
					off := int64(binary.BigEndian.Uint32(data[p:]))
					if off >= int64(pos) {
						off += int64(delta)
						if off < 0 || off > 0xFFFFFFFF {
							return f.err("item offset out of range")
						}
						binary.BigEndian.PutUint32(data[p:], uint32(off))
					}
				case 8:
					off := binary.BigEndian.Uint64(data[p:])
					if off >= uint64(pos) {
						binary.BigEndian.PutUint64(data[p:], uint64(int64(off)+int64(delta)))
					}
				}
			}
			p += offSize + lenSize
		}
	}
	return nil
}

// makeBox assembles a box with a 32-bit size header.
func makeBox(typ string, parts ...[]byte) []byte {
	size := 8
	for _, p := range parts {
		size += len(p)
	}
	box := make([]byte, 0, size)
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(size))
	box = append(box, hdr[:]...)
	box = append(box, typ...)
	for _, p := range parts {
		box = append(box, p...)
	}
	return box
}

// ftypBrands returns the major brand followed by the compatible brands of
// the leading ftyp box, or nil if there is none.
func ftypBrands(data []byte) []string {
	if len(data) < 16 || string(data[4:8]) != "ftyp" {
		return nil
	}
	end := int(binary.BigEndian.Uint32(data[:4]))
	if end < 16 || end > len(data) {
		return nil
	}
	brands := []string{string(data[8:12])}
	for p := 16; p+4 <= end; p += 4 {
		brands = append(brands, string(data[p:p+4]))
	}
	return brands
}
