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

// MP4 files carry XMP in a top-level uuid box; QuickTime movies use a
// moov/udta/XMP_ box instead.  Both forms are read, the form written
// follows the major brand of the file.
type mp4Handler struct{}

func (mp4Handler) Name() string {
	return "mp4"
}

func (mp4Handler) Extensions() []string {
	return []string{"mp4", "m4a", "m4v", "mov", "qt"}
}

func (mp4Handler) CanHandle(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	switch string(data[4:8]) {
	case "ftyp", "moov", "mdat", "free", "skip", "wide":
		return true
	}
	return false
}

func mp4IsQuickTime(data []byte) bool {
	brands := ftypBrands(data)
	return len(brands) == 0 || brands[0] == "qt  "
}

func (mp4Handler) ReadXMP(data []byte) ([]byte, error) {
	f := bmff{format: "mp4", data: data}
	top, err := f.boxes(0, len(data))
	if err != nil {
		return nil, err
	}
	for _, b := range top {
		if b.isXMPUUID(data) {
			return bytes.Clone(data[b.body+16 : b.end]), nil
		}
	}
	if moov, ok := findBox(top, "moov"); ok {
		children, err := f.boxes(moov.body, moov.end)
		if err != nil {
			return nil, err
		}
		if udta, ok := findBox(children, "udta"); ok {
			inner, err := f.boxes(udta.body, udta.end)
			if err != nil {
				return nil, err
			}
			if x, ok := findBox(inner, "XMP_"); ok {
				return bytes.Clone(data[x.body:x.end]), nil
			}
		}
	}
	return nil, ErrNoXMP
}

func (mp4Handler) WriteXMP(data, packet []byte) ([]byte, error) {
	out, _, err := mp4Remove(data)
	if err != nil {
		return nil, err
	}
	if mp4IsQuickTime(out) {
		return mp4WriteQT(out, packet)
	}
	return mp4WriteISO(out, packet)
}

func (mp4Handler) RemoveXMP(data []byte) ([]byte, error) {
	out, _, err := mp4Remove(data)
	return out, err
}

// mp4Remove drops all XMP boxes, one structural change at a time so that
// box positions stay valid between splices.
func mp4Remove(data []byte) ([]byte, bool, error) {
	changed := false
	for {
		f := bmff{format: "mp4", data: data}
		top, err := f.boxes(0, len(data))
		if err != nil {
			return nil, false, err
		}

		var (
			parents []bmffBox
			target  bmffBox
			found   bool
		)
		for _, b := range top {
			if b.isXMPUUID(data) {
				target, found = b, true
				break
			}
		}
		if !found {
			if moov, ok := findBox(top, "moov"); ok {
				children, err := f.boxes(moov.body, moov.end)
				if err != nil {
					return nil, false, err
				}
				if udta, ok := findBox(children, "udta"); ok {
					inner, err := f.boxes(udta.body, udta.end)
					if err != nil {
						return nil, false, err
					}
					if x, ok := findBox(inner, "XMP_"); ok {
						parents = []bmffBox{moov, udta}
						target, found = x, true
					}
				}
			}
		}
		if !found {
			return data, changed, nil
		}

		data, err = f.splice(parents, target.start, target.end, nil)
		if err != nil {
			return nil, false, err
		}
		changed = true
	}
}

// mp4WriteISO inserts a uuid box directly after the moov box.
func mp4WriteISO(data, packet []byte) ([]byte, error) {
	f := bmff{format: "mp4", data: data}
	top, err := f.boxes(0, len(data))
	if err != nil {
		return nil, err
	}
	pos := len(data)
	if moov, ok := findBox(top, "moov"); ok {
		pos = moov.end
	}
	return f.splice(nil, pos, pos, makeBox("uuid", xmpUUID, packet))
}

// mp4WriteQT appends an XMP_ box to the user data of the movie.
func mp4WriteQT(data, packet []byte) ([]byte, error) {
	f := bmff{format: "mp4", data: data}
	top, err := f.boxes(0, len(data))
	if err != nil {
		return nil, err
	}
	moov, ok := findBox(top, "moov")
	if !ok {
		return nil, containerError("mp4", "missing moov box")
	}

	box := makeBox("XMP_", packet)
	children, err := f.boxes(moov.body, moov.end)
	if err != nil {
		return nil, err
	}
	udta, ok := findBox(children, "udta")
	if !ok {
		return f.splice([]bmffBox{moov}, moov.end, moov.end, makeBox("udta", box))
	}

	// New user data goes in front of a possible trailing terminator.
	inner, err := f.boxes(udta.body, udta.end)
	if err != nil {
		return nil, err
	}
	pos := udta.body
	if n := len(inner); n > 0 {
		pos = inner[n-1].end
	}
	return f.splice([]bmffBox{moov, udta}, pos, pos, box)
}
