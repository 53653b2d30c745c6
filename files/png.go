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
	"hash/crc32"
)

// XMP in PNG files lives in an iTXt chunk with the keyword
// "XML:com.adobe.xmp", uncompressed, with empty language tag and translated
// keyword.  The chunk goes before the first IDAT chunk.
const pngXMPKeyword = "XML:com.adobe.xmp"

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

type pngHandler struct{}

func (pngHandler) Name() string {
	return "png"
}

func (pngHandler) Extensions() []string {
	return []string{"png"}
}

func (pngHandler) CanHandle(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic)
}

// pngChunk is one chunk of a PNG file.  start and end delimit the whole
// chunk, including the length, type and CRC fields.
type pngChunk struct {
	typ        string
	start, end int
}

func (c pngChunk) data(raw []byte) []byte {
	return raw[c.start+8 : c.end-4]
}

func pngChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, containerError("png", "missing PNG signature")
	}
	var chunks []pngChunk
	pos := len(pngMagic)
	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, containerError("png", "truncated chunk header")
		}
		n := int(binary.BigEndian.Uint32(data[pos:]))
		end := pos + 8 + n + 4
		if n < 0 || end > len(data) {
			return nil, containerError("png", "invalid chunk length")
		}
		chunks = append(chunks, pngChunk{
			typ:   string(data[pos+4 : pos+8]),
			start: pos,
			end:   end,
		})
		pos = end
	}
	return chunks, nil
}

// pngXMPPacket extracts the packet from the data of an XMP iTXt chunk, or
// returns false when the chunk holds some other text.
func pngXMPPacket(chunkData []byte) ([]byte, bool) {
	rest, ok := bytes.CutPrefix(chunkData, []byte(pngXMPKeyword+"\x00"))
	if !ok || len(rest) < 2 {
		return nil, false
	}
	if rest[0] != 0 { // compressed text is not used for XMP
		return nil, false
	}
	rest = rest[2:] // compression flag and method
	for k := 0; k < 2; k++ { // language tag, translated keyword
		i := bytes.IndexByte(rest, 0)
		if i < 0 {
			return nil, false
		}
		rest = rest[i+1:]
	}
	return rest, true
}

func (pngHandler) ReadXMP(data []byte) ([]byte, error) {
	chunks, err := pngChunks(data)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.typ != "iTXt" {
			continue
		}
		if packet, ok := pngXMPPacket(c.data(data)); ok {
			return bytes.Clone(packet), nil
		}
	}
	return nil, ErrNoXMP
}

func (pngHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	chunks, err := pngChunks(data)
	if err != nil {
		return nil, err
	}

	chunk := makePNGChunk("iTXt", pngXMPChunkData(packet))
	for _, c := range chunks {
		if c.typ != "iTXt" {
			continue
		}
		if _, ok := pngXMPPacket(c.data(data)); ok {
			return splice(data, c.start, c.end, chunk), nil
		}
	}
	for _, c := range chunks {
		if c.typ == "IDAT" {
			return splice(data, c.start, c.start, chunk), nil
		}
	}
	return nil, containerError("png", "no IDAT chunk found")
}

func (pngHandler) RemoveXMP(data []byte) ([]byte, error) {
	chunks, err := pngChunks(data)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.typ != "iTXt" {
			continue
		}
		if _, ok := pngXMPPacket(c.data(data)); ok {
			return splice(data, c.start, c.end, nil), nil
		}
	}
	return data, nil
}

// pngXMPChunkData assembles the iTXt chunk data holding an XMP packet.
func pngXMPChunkData(packet []byte) []byte {
	data := make([]byte, 0, len(pngXMPKeyword)+5+len(packet))
	data = append(data, pngXMPKeyword...)
	data = append(data, 0, 0, 0, 0, 0)
	return append(data, packet...)
}

// makePNGChunk assembles a chunk with its CRC-32 checksum, which covers the
// type and data fields.
func makePNGChunk(typ string, data []byte) []byte {
	chunk := make([]byte, 8+len(data)+4)
	binary.BigEndian.PutUint32(chunk, uint32(len(data)))
	copy(chunk[4:], typ)
	copy(chunk[8:], data)
	crc := crc32.ChecksumIEEE(chunk[4 : 8+len(data)])
	binary.BigEndian.PutUint32(chunk[8+len(data):], crc)
	return chunk
}
