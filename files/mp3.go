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

// XMP in MP3 files lives in an ID3v2 PRIV frame with the owner identifier
// "XMP".  ID3v2.2 tags are read-only; unsynchronised tags and tags with a
// footer are not supported.
const id3XMPOwner = "XMP"

type mp3Handler struct{}

func (mp3Handler) Name() string {
	return "mp3"
}

func (mp3Handler) Extensions() []string {
	return []string{"mp3"}
}

func (mp3Handler) CanHandle(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

type id3Tag struct {
	version byte // major version: 2, 3 or 4
	start   int  // offset of the first frame
	end     int  // offset just past the tag body
}

// parseID3 reads the ID3v2 tag header at the start of the file.  A missing
// tag is reported as (nil, nil).
func parseID3(data []byte) (*id3Tag, error) {
	if len(data) < 10 || !bytes.HasPrefix(data, []byte("ID3")) {
		return nil, nil
	}
	version := data[3]
	if version < 2 || version > 4 {
		return nil, containerError("mp3", "unsupported ID3v2 version")
	}
	flags := data[5]
	if flags&0x80 != 0 {
		return nil, containerError("mp3", "unsynchronised ID3v2 tag")
	}
	if version == 4 && flags&0x10 != 0 {
		return nil, containerError("mp3", "ID3v2.4 footer not supported")
	}
	size, err := synchsafeUint(data[6:10])
	if err != nil {
		return nil, err
	}
	if 10+size > len(data) {
		return nil, containerError("mp3", "truncated ID3v2 tag")
	}

	tag := &id3Tag{version: version, start: 10, end: 10 + size}
	if flags&0x40 != 0 {
		switch version {
		case 2:
			return nil, containerError("mp3", "compressed ID3v2.2 tag")
		case 3:
			if tag.start+4 > tag.end {
				return nil, containerError("mp3", "truncated extended header")
			}
			n := int(binary.BigEndian.Uint32(data[tag.start:]))
			tag.start += 4 + n
		case 4:
			if tag.start+4 > tag.end {
				return nil, containerError("mp3", "truncated extended header")
			}
			n, err := synchsafeUint(data[tag.start : tag.start+4])
			if err != nil {
				return nil, err
			}
			tag.start += n
		}
		if tag.start > tag.end {
			return nil, containerError("mp3", "truncated extended header")
		}
	}
	return tag, nil
}

type id3Frame struct {
	id         string
	flags      byte // second (format) flags byte, zero for v2.2
	start, end int  // of the whole frame
	body       int  // offset of the frame content
}

func (tag *id3Tag) frames(data []byte) ([]id3Frame, error) {
	headerLen := 10
	if tag.version == 2 {
		headerLen = 6
	}

	var frames []id3Frame
	pos := tag.start
	for pos < tag.end {
		if data[pos] == 0 { // padding
			break
		}
		if pos+headerLen > tag.end {
			return nil, containerError("mp3", "truncated frame header")
		}
		f := id3Frame{start: pos}
		var size int
		if tag.version == 2 {
			f.id = string(data[pos : pos+3])
			size = int(data[pos+3])<<16 | int(data[pos+4])<<8 | int(data[pos+5])
		} else {
			f.id = string(data[pos : pos+4])
			f.flags = data[pos+9]
			if tag.version == 4 {
				n, err := synchsafeUint(data[pos+4 : pos+8])
				if err != nil {
					return nil, err
				}
				size = n
			} else {
				size = int(binary.BigEndian.Uint32(data[pos+4:]))
			}
		}
		f.body = pos + headerLen
		f.end = f.body + size
		if f.end > tag.end {
			return nil, containerError("mp3", "truncated frame")
		}
		frames = append(frames, f)
		pos = f.end
	}
	return frames, nil
}

// isXMP reports whether f is a private frame holding the XMP packet.
// ID3v2.2 tags use the three-letter frame ID "PRV".
func (f id3Frame) isXMP(data []byte) bool {
	if f.id != "PRIV" && f.id != "PRV" {
		return false
	}
	owner, _, ok := bytes.Cut(data[f.body:f.end], []byte{0})
	return ok && string(owner) == id3XMPOwner
}

func (mp3Handler) ReadXMP(data []byte) ([]byte, error) {
	tag, err := parseID3(data)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, ErrNoXMP
	}
	frames, err := tag.frames(data)
	if err != nil {
		return nil, err
	}
	for _, f := range frames {
		if !f.isXMP(data) {
			continue
		}
		if f.flags != 0 {
			return nil, containerError("mp3", "unsupported PRIV frame encoding")
		}
		_, packet, _ := bytes.Cut(data[f.body:f.end], []byte{0})
		return bytes.Clone(packet), nil
	}
	return nil, ErrNoXMP
}

func (mp3Handler) WriteXMP(data, packet []byte) ([]byte, error) {
	if len(id3XMPOwner)+1+len(packet) >= 1<<28 {
		return nil, containerError("mp3", "XMP packet too large for an ID3v2 frame")
	}
	tag, err := parseID3(data)
	if err != nil {
		return nil, err
	}

	if tag == nil {
		// A fresh ID3v2.3 tag is prepended to the file.
		frame := makePRIVFrame(3, packet)
		out := make([]byte, 0, 10+len(frame)+len(data))
		out = append(out, "ID3"...)
		out = append(out, 3, 0, 0)
		var size [4]byte
		putSynchsafe(size[:], len(frame))
		out = append(out, size[:]...)
		out = append(out, frame...)
		return append(out, data...), nil
	}

	if tag.version == 2 {
		return nil, containerError("mp3", "cannot update an ID3v2.2 tag")
	}
	return rewriteID3(data, tag, makePRIVFrame(tag.version, packet))
}

func (mp3Handler) RemoveXMP(data []byte) ([]byte, error) {
	tag, err := parseID3(data)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return data, nil
	}
	frames, err := tag.frames(data)
	if err != nil {
		return nil, err
	}
	found := false
	for _, f := range frames {
		if f.isXMP(data) {
			found = true
			break
		}
	}
	if !found {
		return data, nil
	}
	if tag.version == 2 {
		return nil, containerError("mp3", "cannot update an ID3v2.2 tag")
	}
	return rewriteID3(data, tag, nil)
}

// rewriteID3 rebuilds the tag body with all XMP PRIV frames dropped and
// newFrame (if any) appended after the remaining frames.  Padding is kept,
// and the declared tag size is updated in place.
func rewriteID3(data []byte, tag *id3Tag, newFrame []byte) ([]byte, error) {
	frames, err := tag.frames(data)
	if err != nil {
		return nil, err
	}

	var body []byte
	pos := tag.start
	for _, f := range frames {
		if !f.isXMP(data) {
			body = append(body, data[f.start:f.end]...)
		}
		pos = f.end
	}
	body = append(body, newFrame...)
	body = append(body, data[pos:tag.end]...) // padding

	size := tag.start - 10 + len(body)
	if size >= 1<<28 {
		return nil, containerError("mp3", "ID3v2 tag too large")
	}
	out := splice(data, tag.start, tag.end, body)
	putSynchsafe(out[6:10], size)
	return out, nil
}

func makePRIVFrame(version byte, packet []byte) []byte {
	size := len(id3XMPOwner) + 1 + len(packet)
	frame := make([]byte, 0, 10+size)
	frame = append(frame, "PRIV"...)
	var buf [4]byte
	if version == 4 {
		putSynchsafe(buf[:], size)
	} else {
		binary.BigEndian.PutUint32(buf[:], uint32(size))
	}
	frame = append(frame, buf[:]...)
	frame = append(frame, 0, 0)
	frame = append(frame, id3XMPOwner...)
	frame = append(frame, 0)
	return append(frame, packet...)
}

func synchsafeUint(b []byte) (int, error) {
	var n int
	for _, c := range b {
		if c&0x80 != 0 {
			return 0, containerError("mp3", "invalid synchsafe integer")
		}
		n = n<<7 | int(c)
	}
	return n, nil
}

func putSynchsafe(b []byte, n int) {
	b[0] = byte(n >> 21 & 0x7F)
	b[1] = byte(n >> 14 & 0x7F)
	b[2] = byte(n >> 7 & 0x7F)
	b[3] = byte(n & 0x7F)
}
