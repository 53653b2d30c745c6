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

// XMP in JPEG files lives in APP1 segments.  The main packet follows the
// xmpSig signature; packets too large for a single segment are continued in
// ExtendedXMP segments carrying a GUID, the total length and the offset of
// the portion.  See XMP Specification Part 3, section 1.1.3.
const (
	jpegXMPSig       = "http://ns.adobe.com/xap/1.0/\x00"
	jpegExtSig       = "http://ns.adobe.com/xmp/extension/\x00"
	jpegExtSigLegacy = "http://ns.adobe.com/xap/1.0/ext/\x00"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
)

type jpegHandler struct{}

func (jpegHandler) Name() string {
	return "jpeg"
}

func (jpegHandler) Extensions() []string {
	return []string{"jpg", "jpeg", "jpe"}
}

func (jpegHandler) CanHandle(data []byte) bool {
	return len(data) >= 3 &&
		data[0] == 0xFF && data[1] == markerSOI && data[2] == 0xFF
}

// jpegSegment is one marker segment before the entropy-coded image data.
// start and end delimit the whole segment, including the marker bytes.
type jpegSegment struct {
	marker     byte
	start, end int
}

// jpegSegments lists the marker segments between SOI and SOS.  rest is the
// offset of the first byte not covered, i.e. of the SOS marker and all the
// image data following it.
func jpegSegments(data []byte) (segs []jpegSegment, rest int, err error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, 0, containerError("jpeg", "missing SOI marker")
	}
	pos := 2
	for {
		if pos >= len(data) {
			return segs, len(data), nil
		}
		if data[pos] != 0xFF || pos+1 >= len(data) {
			return nil, 0, containerError("jpeg", "corrupt marker segment")
		}
		marker := data[pos+1]
		switch {
		case marker == 0xFF: // fill byte
			pos++
		case marker == markerSOS || marker == markerEOI:
			return segs, pos, nil
		case marker == 0x01 || marker >= 0xD0 && marker <= 0xD7:
			// stand-alone markers have no length field
			segs = append(segs, jpegSegment{marker: marker, start: pos, end: pos + 2})
			pos += 2
		default:
			if pos+4 > len(data) {
				return nil, 0, containerError("jpeg", "truncated marker segment")
			}
			n := int(binary.BigEndian.Uint16(data[pos+2:]))
			if n < 2 || pos+2+n > len(data) {
				return nil, 0, containerError("jpeg", "invalid segment length")
			}
			segs = append(segs, jpegSegment{marker: marker, start: pos, end: pos + 2 + n})
			pos += 2 + n
		}
	}
}

// payload returns the segment bytes after the marker and length fields.
func (s jpegSegment) payload(data []byte) []byte {
	if s.end-s.start < 4 {
		return nil
	}
	return data[s.start+4 : s.end]
}

func (jpegHandler) ReadXMP(data []byte) ([]byte, error) {
	segs, _, err := jpegSegments(data)
	if err != nil {
		return nil, err
	}
	for _, s := range segs {
		if s.marker != markerAPP1 {
			continue
		}
		payload := s.payload(data)
		if bytes.HasPrefix(payload, []byte(jpegXMPSig)) {
			return bytes.Clone(payload[len(jpegXMPSig):]), nil
		}
	}
	return nil, ErrNoXMP
}

// jpegExtendedXMP reassembles the ExtendedXMP packet of a JPEG file from its
// continuation segments.  Each segment carries a GUID, the total packet
// length and the byte offset of its portion; only the GUID seen first is
// assembled.  ErrNoXMP is returned when the file has no ExtendedXMP.
func jpegExtendedXMP(data []byte) ([]byte, error) {
	segs, _, err := jpegSegments(data)
	if err != nil {
		return nil, err
	}

	type portion struct {
		offset int
		data   []byte
	}
	var guid string
	var total int
	var portions []portion
	for _, s := range segs {
		if s.marker != markerAPP1 {
			continue
		}
		payload := s.payload(data)
		switch {
		case bytes.HasPrefix(payload, []byte(jpegExtSig)):
			payload = payload[len(jpegExtSig):]
		case bytes.HasPrefix(payload, []byte(jpegExtSigLegacy)):
			payload = payload[len(jpegExtSigLegacy):]
		default:
			continue
		}
		if len(payload) < 40 { // GUID + total length + offset
			return nil, containerError("jpeg", "truncated ExtendedXMP segment")
		}
		g := string(payload[:32])
		if guid == "" {
			guid = g
			total = int(binary.BigEndian.Uint32(payload[32:36]))
		} else if g != guid {
			continue
		}
		portions = append(portions, portion{
			offset: int(binary.BigEndian.Uint32(payload[36:40])),
			data:   payload[40:],
		})
	}
	if guid == "" {
		return nil, ErrNoXMP
	}

	sort.Slice(portions, func(i, j int) bool {
		return portions[i].offset < portions[j].offset
	})
	body := make([]byte, 0, total)
	for _, p := range portions {
		if p.offset != len(body) || len(body)+len(p.data) > total {
			return nil, containerError("jpeg", "inconsistent ExtendedXMP portions")
		}
		body = append(body, p.data...)
	}
	if len(body) != total {
		return nil, containerError("jpeg", "incomplete ExtendedXMP data")
	}
	return body, nil
}

func (jpegHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	// The length field covers itself plus the payload, capping the payload
	// at 65533 bytes.
	if len(jpegXMPSig)+len(packet) > 65533 {
		return nil, containerError("jpeg", "XMP packet too large for a single APP1 segment")
	}
	segs, rest, err := jpegSegments(data)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	buf.Write(data[:2])
	inserted := false
	for _, s := range segs {
		if isJPEGXMPSegment(data, s) {
			continue
		}
		if !inserted && !isJPEGHeaderSegment(data, s) {
			writeJPEGXMPSegment(buf, packet)
			inserted = true
		}
		buf.Write(data[s.start:s.end])
	}
	if !inserted {
		writeJPEGXMPSegment(buf, packet)
	}
	buf.Write(data[rest:])
	return buf.Bytes(), nil
}

func (jpegHandler) RemoveXMP(data []byte) ([]byte, error) {
	segs, rest, err := jpegSegments(data)
	if err != nil {
		return nil, err
	}

	found := false
	for _, s := range segs {
		if isJPEGXMPSegment(data, s) {
			found = true
			break
		}
	}
	if !found {
		return data, nil
	}

	buf := &bytes.Buffer{}
	buf.Write(data[:2])
	for _, s := range segs {
		if isJPEGXMPSegment(data, s) {
			continue
		}
		buf.Write(data[s.start:s.end])
	}
	buf.Write(data[rest:])
	return buf.Bytes(), nil
}

func isJPEGXMPSegment(data []byte, s jpegSegment) bool {
	if s.marker != markerAPP1 {
		return false
	}
	payload := s.payload(data)
	return bytes.HasPrefix(payload, []byte(jpegXMPSig)) ||
		bytes.HasPrefix(payload, []byte(jpegExtSig)) ||
		bytes.HasPrefix(payload, []byte(jpegExtSigLegacy))
}

// isJPEGHeaderSegment reports whether a segment belongs to the APP0/Exif
// prefix which the XMP segment must follow.
func isJPEGHeaderSegment(data []byte, s jpegSegment) bool {
	if s.marker == markerAPP0 {
		return true
	}
	return s.marker == markerAPP1 &&
		bytes.HasPrefix(s.payload(data), []byte("Exif\x00\x00"))
}

func writeJPEGXMPSegment(buf *bytes.Buffer, packet []byte) {
	buf.Write([]byte{0xFF, markerAPP1})
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(2+len(jpegXMPSig)+len(packet)))
	buf.Write(length[:])
	buf.WriteString(jpegXMPSig)
	buf.Write(packet)
}
