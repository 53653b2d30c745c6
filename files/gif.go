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
)

// XMP in GIF files lives in an Application Extension block with the
// identifier "XMP DataXMP".  The packet is stored without sub-block
// chunking, followed by a 258-byte trailer which steers naive sub-block
// parsers to the end of the block: a 0x01 length byte, the values 0xFF
// down to 0x00, and the block terminator.
const gifXMPIdent = "XMP DataXMP"

type gifHandler struct{}

func (gifHandler) Name() string {
	return "gif"
}

func (gifHandler) Extensions() []string {
	return []string{"gif"}
}

func (gifHandler) CanHandle(data []byte) bool {
	return bytes.HasPrefix(data, []byte("GIF87a")) ||
		bytes.HasPrefix(data, []byte("GIF89a"))
}

func gifMagicTrailer() []byte {
	t := make([]byte, 258)
	t[0] = 0x01
	for i := 0; i < 256; i++ {
		t[1+i] = byte(0xFF - i)
	}
	return t
}

type gifBlock struct {
	start, end int
	introducer byte
	label      byte // for 0x21 extension blocks
}

// isXMP reports whether b is an XMP Application Extension block.
func (b gifBlock) isXMP(data []byte) bool {
	return b.introducer == 0x21 && b.label == 0xFF &&
		b.start+14 <= b.end &&
		data[b.start+2] == 11 &&
		string(data[b.start+3:b.start+14]) == gifXMPIdent
}

// gifBlocks walks the block structure after the header and logical screen
// descriptor.  The XMP trailer makes the plain sub-block walk come out at
// the true end of the XMP block.
func gifBlocks(data []byte) ([]gifBlock, error) {
	if len(data) < 13 {
		return nil, containerError("gif", "truncated header")
	}
	pos := 13
	if data[10]&0x80 != 0 {
		pos += 3 << (data[10]&0x07 + 1)
	}

	var blocks []gifBlock
	for pos < len(data) {
		b := gifBlock{start: pos, introducer: data[pos]}
		switch data[pos] {
		case 0x3B: // trailer
			b.end = pos + 1
			return append(blocks, b), nil

		case 0x2C: // image descriptor
			if pos+10 > len(data) {
				return nil, containerError("gif", "truncated image descriptor")
			}
			q := pos + 10
			if data[pos+9]&0x80 != 0 {
				q += 3 << (data[pos+9]&0x07 + 1)
			}
			q++ // LZW minimum code size
			end, err := gifSkipSubBlocks(data, q)
			if err != nil {
				return nil, err
			}
			b.end = end

		case 0x21: // extension
			if pos+2 > len(data) {
				return nil, containerError("gif", "truncated extension block")
			}
			b.label = data[pos+1]
			end, err := gifSkipSubBlocks(data, pos+2)
			if err != nil {
				return nil, err
			}
			b.end = end

		default:
			return nil, containerError("gif", "invalid block introducer")
		}
		blocks = append(blocks, b)
		pos = b.end
	}
	return blocks, nil
}

func gifSkipSubBlocks(data []byte, pos int) (int, error) {
	for {
		if pos >= len(data) {
			return 0, containerError("gif", "truncated data blocks")
		}
		n := int(data[pos])
		pos++
		if n == 0 {
			return pos, nil
		}
		pos += n
	}
}

func (gifHandler) ReadXMP(data []byte) ([]byte, error) {
	blocks, err := gifBlocks(data)
	if err != nil {
		return nil, err
	}
	trailer := gifMagicTrailer()
	for _, b := range blocks {
		if !b.isXMP(data) {
			continue
		}
		body := data[b.start+14 : b.end]
		if !bytes.HasSuffix(body, trailer) {
			return nil, containerError("gif", "malformed XMP data block")
		}
		return bytes.Clone(body[:len(body)-len(trailer)]), nil
	}
	return nil, ErrNoXMP
}

func (gifHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	blocks, err := gifBlocks(data)
	if err != nil {
		return nil, err
	}

	block := make([]byte, 0, 14+len(packet)+258)
	block = append(block, 0x21, 0xFF, 11)
	block = append(block, gifXMPIdent...)
	block = append(block, packet...)
	block = append(block, gifMagicTrailer()...)

	first := -1
	for i, b := range blocks {
		if b.isXMP(data) {
			first = i
			break
		}
	}

	out := data
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if !b.isXMP(data) {
			continue
		}
		if i == first {
			out = splice(out, b.start, b.end, block)
		} else {
			out = splice(out, b.start, b.end, nil)
		}
	}
	if first < 0 {
		pos := len(data)
		if n := len(blocks); n > 0 && blocks[n-1].introducer == 0x3B {
			pos = blocks[n-1].start
		}
		out = splice(out, pos, pos, block)
	}

	// Application extensions need the 89a version of the format.
	if bytes.HasPrefix(out, []byte("GIF87a")) {
		out = bytes.Clone(out)
		copy(out[3:6], "89a")
	}
	return out, nil
}

func (gifHandler) RemoveXMP(data []byte) ([]byte, error) {
	blocks, err := gifBlocks(data)
	if err != nil {
		return nil, err
	}
	out := data
	for i := len(blocks) - 1; i >= 0; i-- {
		if b := blocks[i]; b.isXMP(data) {
			out = splice(out, b.start, b.end, nil)
		}
	}
	return out, nil
}
