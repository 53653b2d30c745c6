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

// Photoshop files store XMP as image resource 1060.  The resource section
// sits between the fixed header and the layer information, and nothing
// after it holds absolute offsets, so the section can be rebuilt freely.
const psdXMPResource = 1060

type psdHandler struct{}

func (psdHandler) Name() string {
	return "psd"
}

func (psdHandler) Extensions() []string {
	return []string{"psd", "psb"}
}

func (psdHandler) CanHandle(data []byte) bool {
	if len(data) < 6 || string(data[:4]) != "8BPS" {
		return false
	}
	v := binary.BigEndian.Uint16(data[4:6])
	return v == 1 || v == 2
}

// psdResources locates the image resources section.
func psdResources(data []byte) (start, end int, err error) {
	if len(data) < 30 || string(data[:4]) != "8BPS" {
		return 0, 0, containerError("psd", "not a Photoshop file")
	}
	switch binary.BigEndian.Uint16(data[4:6]) {
	case 1, 2:
	default:
		return 0, 0, containerError("psd", "unsupported version")
	}

	pos := 26
	n := int(binary.BigEndian.Uint32(data[pos:])) // colour mode data
	pos += 4 + n
	if n < 0 || pos+4 > len(data) {
		return 0, 0, containerError("psd", "truncated colour mode section")
	}
	n = int(binary.BigEndian.Uint32(data[pos:]))
	start = pos + 4
	end = start + n
	if n < 0 || end > len(data) {
		return 0, 0, containerError("psd", "truncated image resources section")
	}
	return start, end, nil
}

var psdSignatures = map[string]bool{
	"8BIM": true,
	"8B64": true,
	"MeSa": true,
	"PHUT": true,
	"AgHg": true,
	"DCSR": true,
}

type psdBlock struct {
	sig        string
	id         int
	start, end int // including signature and padding
	body       int
	size       int // declared data size
}

func (b psdBlock) isXMP() bool {
	return b.sig == "8BIM" && b.id == psdXMPResource
}

// raw returns the full block bytes, supplying the pad byte if the section
// ends in an odd-sized block.
func (b psdBlock) raw(data []byte) []byte {
	raw := data[b.start:b.end]
	if b.size&1 == 1 && b.end-b.body == b.size {
		raw = append(bytes.Clone(raw), 0)
	}
	return raw
}

func psdBlocks(data []byte, start, end int) ([]psdBlock, error) {
	var blocks []psdBlock
	pos := start
	for pos < end {
		if pos+6 > end || !psdSignatures[string(data[pos:pos+4])] {
			return nil, containerError("psd", "malformed image resource block")
		}
		b := psdBlock{
			sig:   string(data[pos : pos+4]),
			id:    int(binary.BigEndian.Uint16(data[pos+4:])),
			start: pos,
		}

		// Pascal name, padded to even length including the length byte.
		p := pos + 6
		if p >= end {
			return nil, containerError("psd", "truncated image resource block")
		}
		nameLen := 1 + int(data[p])
		p += nameLen + nameLen&1
		if p+4 > end {
			return nil, containerError("psd", "truncated image resource block")
		}

		b.size = int(binary.BigEndian.Uint32(data[p:]))
		b.body = p + 4
		if b.size < 0 || b.body+b.size > end {
			return nil, containerError("psd", "truncated image resource block")
		}
		b.end = b.body + b.size + b.size&1
		if b.end > end {
			b.end = end
		}
		blocks = append(blocks, b)
		pos = b.end
	}
	return blocks, nil
}

func makePSDXMPBlock(packet []byte) []byte {
	block := make([]byte, 0, 12+len(packet)+1)
	block = append(block, "8BIM"...)
	var buf [4]byte
	binary.BigEndian.PutUint16(buf[:2], psdXMPResource)
	block = append(block, buf[:2]...)
	block = append(block, 0, 0) // empty name
	binary.BigEndian.PutUint32(buf[:], uint32(len(packet)))
	block = append(block, buf[:]...)
	block = append(block, packet...)
	if len(packet)&1 == 1 {
		block = append(block, 0)
	}
	return block
}

// psdAssemble rebuilds the image resources section from the given blocks
// and fixes the section length.
func psdAssemble(data []byte, start, end int, parts [][]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, len(data)-(end-start)+n)
	out = append(out, data[:start-4]...)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(n))
	out = append(out, size[:]...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return append(out, data[end:]...)
}

func (psdHandler) ReadXMP(data []byte) ([]byte, error) {
	start, end, err := psdResources(data)
	if err != nil {
		return nil, err
	}
	blocks, err := psdBlocks(data, start, end)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if b.isXMP() {
			return bytes.Clone(data[b.body : b.body+b.size]), nil
		}
	}
	return nil, ErrNoXMP
}

func (psdHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	start, end, err := psdResources(data)
	if err != nil {
		return nil, err
	}
	blocks, err := psdBlocks(data, start, end)
	if err != nil {
		return nil, err
	}

	newBlock := makePSDXMPBlock(packet)
	var parts [][]byte
	replaced := false
	for _, b := range blocks {
		if b.isXMP() {
			if !replaced {
				parts = append(parts, newBlock)
				replaced = true
			}
			continue
		}
		parts = append(parts, b.raw(data))
	}
	if !replaced {
		parts = append(parts, newBlock)
	}
	return psdAssemble(data, start, end, parts), nil
}

func (psdHandler) RemoveXMP(data []byte) ([]byte, error) {
	start, end, err := psdResources(data)
	if err != nil {
		return nil, err
	}
	blocks, err := psdBlocks(data, start, end)
	if err != nil {
		return nil, err
	}

	found := false
	var parts [][]byte
	for _, b := range blocks {
		if b.isXMP() {
			found = true
			continue
		}
		parts = append(parts, b.raw(data))
	}
	if !found {
		return data, nil
	}
	return psdAssemble(data, start, end, parts), nil
}
