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
	"strings"

	xmp "github.com/cavivie/xmpkit"
)

// RIFF containers use little-endian chunk sizes and pad chunks to even
// length.  WAV and AVI files store the XMP packet in a top-level "_PMX"
// chunk; WebP uses an "XMP " chunk together with a flag in the VP8X header.
type riffHandler struct{}

func (riffHandler) Name() string {
	return "riff"
}

func (riffHandler) Extensions() []string {
	return []string{"wav", "avi", "webp"}
}

func (riffHandler) CanHandle(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF"
}

type riffChunk struct {
	id         string
	start, end int // including header and padding
	body       int
	size       int // declared content size
}

func parseRIFF(data []byte) (form string, riffEnd int, chunks []riffChunk, err error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" {
		return "", 0, nil, containerError("riff", "not a RIFF file")
	}
	size := int(binary.LittleEndian.Uint32(data[4:8]))
	riffEnd = 8 + size
	if size < 4 || riffEnd > len(data) {
		return "", 0, nil, containerError("riff", "truncated RIFF file")
	}
	chunks, err = riffChunks(data, 12, riffEnd)
	if err != nil {
		return "", 0, nil, err
	}
	return string(data[8:12]), riffEnd, chunks, nil
}

func riffChunks(data []byte, start, end int) ([]riffChunk, error) {
	var chunks []riffChunk
	pos := start
	for pos < end {
		if pos+8 > end {
			return nil, containerError("riff", "truncated chunk header")
		}
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		c := riffChunk{
			id:    string(data[pos : pos+4]),
			start: pos,
			body:  pos + 8,
			size:  size,
		}
		if size < 0 || c.body+size > end {
			return nil, containerError("riff", "truncated chunk")
		}
		c.end = c.body + size + size&1
		if c.end > end { // final odd chunk without its pad byte
			c.end = end
		}
		chunks = append(chunks, c)
		pos = c.end
	}
	return chunks, nil
}

// raw returns the full chunk bytes, supplying the pad byte if the file
// omitted it at the end.
func (c riffChunk) raw(data []byte) []byte {
	raw := data[c.start:c.end]
	if c.size&1 == 1 && c.end-c.body == c.size {
		raw = append(bytes.Clone(raw), 0)
	}
	return raw
}

func makeRIFFChunk(id string, body []byte) []byte {
	chunk := make([]byte, 0, 8+len(body)+1)
	chunk = append(chunk, id...)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(body)))
	chunk = append(chunk, size[:]...)
	chunk = append(chunk, body...)
	if len(body)&1 == 1 {
		chunk = append(chunk, 0)
	}
	return chunk
}

// riffAssemble rebuilds the file from the given chunk sequence and fixes
// the outer RIFF size.  Bytes beyond the RIFF structure are kept.
func riffAssemble(data []byte, riffEnd int, parts [][]byte) []byte {
	n := 12
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n+len(data)-riffEnd)
	out = append(out, data[:12]...)
	for _, p := range parts {
		out = append(out, p...)
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(n-8))
	return append(out, data[riffEnd:]...)
}

func riffXMPChunkID(form string) string {
	if form == "WEBP" {
		return "XMP "
	}
	return "_PMX"
}

func (riffHandler) ReadXMP(data []byte) ([]byte, error) {
	form, _, chunks, err := parseRIFF(data)
	if err != nil {
		return nil, err
	}
	id := riffXMPChunkID(form)
	for _, c := range chunks {
		if c.id == id {
			return bytes.Clone(data[c.body : c.body+c.size]), nil
		}
	}
	return nil, ErrNoXMP
}

func (riffHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	form, riffEnd, chunks, err := parseRIFF(data)
	if err != nil {
		return nil, err
	}
	if form == "WEBP" {
		return webpWriteXMP(data, riffEnd, chunks, packet)
	}

	xmpChunk := makeRIFFChunk("_PMX", packet)
	var parts [][]byte
	replaced := false
	for _, c := range chunks {
		if c.id == "_PMX" {
			if !replaced {
				parts = append(parts, xmpChunk)
				replaced = true
			}
			continue
		}
		parts = append(parts, c.raw(data))
	}
	if !replaced {
		parts = append(parts, xmpChunk)
	}
	return riffAssemble(data, riffEnd, parts), nil
}

func (riffHandler) RemoveXMP(data []byte) ([]byte, error) {
	form, riffEnd, chunks, err := parseRIFF(data)
	if err != nil {
		return nil, err
	}
	id := riffXMPChunkID(form)
	found := false
	var parts [][]byte
	for _, c := range chunks {
		if c.id == id {
			found = true
			continue
		}
		raw := c.raw(data)
		if form == "WEBP" && c.id == "VP8X" && c.size >= 1 {
			raw = bytes.Clone(raw)
			raw[8] &^= 0x04
		}
		parts = append(parts, raw)
	}
	if !found {
		return data, nil
	}
	return riffAssemble(data, riffEnd, parts), nil
}

// webpWriteXMP appends the XMP chunk at the end of the container, as the
// chunk ordering rules require, and makes sure a VP8X header with the XMP
// flag comes first.  A missing VP8X chunk is synthesised from the image
// dimensions.
func webpWriteXMP(data []byte, riffEnd int, chunks []riffChunk, packet []byte) ([]byte, error) {
	var vp8x []byte
	for _, c := range chunks {
		if c.id == "VP8X" {
			if c.size < 10 {
				return nil, containerError("riff", "malformed VP8X chunk")
			}
			vp8x = bytes.Clone(data[c.body : c.body+c.size])
			break
		}
	}
	if vp8x == nil {
		w, h, err := webpDimensions(data, chunks)
		if err != nil {
			return nil, err
		}
		vp8x = make([]byte, 10)
		putUint24(vp8x[4:], w-1)
		putUint24(vp8x[7:], h-1)
	}
	vp8x[0] |= 0x04

	parts := [][]byte{makeRIFFChunk("VP8X", vp8x)}
	for _, c := range chunks {
		if c.id == "VP8X" || c.id == "XMP " {
			continue
		}
		parts = append(parts, c.raw(data))
	}
	parts = append(parts, makeRIFFChunk("XMP ", packet))
	return riffAssemble(data, riffEnd, parts), nil
}

func webpDimensions(data []byte, chunks []riffChunk) (w, h int, err error) {
	for _, c := range chunks {
		body := data[c.body : c.body+c.size]
		switch c.id {
		case "VP8 ":
			if c.size < 10 || body[3] != 0x9D || body[4] != 0x01 || body[5] != 0x2A {
				return 0, 0, containerError("riff", "malformed VP8 frame header")
			}
			w = int(binary.LittleEndian.Uint16(body[6:]) & 0x3FFF)
			h = int(binary.LittleEndian.Uint16(body[8:]) & 0x3FFF)
			return w, h, nil
		case "VP8L":
			if c.size < 5 || body[0] != 0x2F {
				return 0, 0, containerError("riff", "malformed VP8L header")
			}
			bits := binary.LittleEndian.Uint32(body[1:])
			w = int(bits&0x3FFF) + 1
			h = int(bits>>14&0x3FFF) + 1
			return w, h, nil
		}
	}
	return 0, 0, containerError("riff", "cannot determine image dimensions")
}

func putUint24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// ReconcileInfo copies legacy LIST INFO metadata of a WAV or AVI file into
// properties of the packet which are not set yet: the INAM title, IART
// artist, ICOP copyright, ICMT comment and ISFT software fields.
func ReconcileInfo(data []byte, p *xmp.Packet) error {
	form, _, chunks, err := parseRIFF(data)
	if err != nil {
		return err
	}
	if form != "WAVE" && form != "AVI " {
		return nil
	}
	info := riffInfoStrings(data, chunks)
	if len(info) == 0 {
		return nil
	}

	var dc xmp.DublinCore
	var basic xmp.XMP
	p.Get(&dc)
	p.Get(&basic)

	changed := false
	if s, ok := info["INAM"]; ok && dc.Title.IsZero() {
		dc.Title.Default = xmp.NewText(s)
		changed = true
	}
	if s, ok := info["IART"]; ok && dc.Creator.IsZero() {
		dc.Creator.Append(xmp.ProperName{Text: xmp.NewText(s)})
		changed = true
	}
	if s, ok := info["ICOP"]; ok && dc.Rights.IsZero() {
		dc.Rights.Default = xmp.NewText(s)
		changed = true
	}
	if s, ok := info["ICMT"]; ok && dc.Description.IsZero() {
		dc.Description.Default = xmp.NewText(s)
		changed = true
	}
	if s, ok := info["ISFT"]; ok && basic.CreatorTool.IsZero() {
		basic.CreatorTool = xmp.AgentName{Text: xmp.NewText(s)}
		changed = true
	}
	if !changed {
		return nil
	}
	return p.Set(&dc, &basic)
}

func riffInfoStrings(data []byte, chunks []riffChunk) map[string]string {
	info := make(map[string]string)
	for _, c := range chunks {
		if c.id != "LIST" || c.size < 4 || string(data[c.body:c.body+4]) != "INFO" {
			continue
		}
		sub, err := riffChunks(data, c.body+4, c.body+c.size)
		if err != nil {
			continue
		}
		for _, s := range sub {
			val := bytes.TrimRight(data[s.body:s.body+s.size], "\x00")
			if len(val) == 0 {
				continue
			}
			if _, ok := info[s.id]; !ok {
				info[s.id] = strings.ToValidUTF8(string(val), "�")
			}
		}
	}
	return info
}
