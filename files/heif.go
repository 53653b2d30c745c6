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

// HEIF images (including AVIF) carry XMP inside the top-level meta box,
// either as a uuid box or as an xml box holding the packet text.  Writing
// always uses the uuid form; item locations are re-pointed when the meta
// box grows.
type heifHandler struct{}

var heifBrands = map[string]bool{
	"mif1": true,
	"msf1": true,
	"heic": true,
	"heix": true,
	"hevc": true,
	"heis": true,
	"avif": true,
	"avis": true,
}

func (heifHandler) Name() string {
	return "heif"
}

func (heifHandler) Extensions() []string {
	return []string{"heif", "heic", "hif", "avif"}
}

func (heifHandler) CanHandle(data []byte) bool {
	for _, b := range ftypBrands(data) {
		if heifBrands[b] {
			return true
		}
	}
	return false
}

// heifIsXMPXML reports whether b is an xml box whose text is an XMP packet.
// The meta box can hold other XML documents, so the content is checked.
func heifIsXMPXML(data []byte, b bmffBox) bool {
	if b.typ != "xml " || b.body+4 > b.end {
		return false
	}
	body := data[b.body+4 : b.end]
	return bytes.Contains(body, []byte("<?xpacket")) ||
		bytes.Contains(body, []byte(":xmpmeta"))
}

func (heifHandler) ReadXMP(data []byte) ([]byte, error) {
	f := bmff{format: "heif", data: data}
	top, err := f.boxes(0, len(data))
	if err != nil {
		return nil, err
	}
	meta, ok := findBox(top, "meta")
	if !ok || meta.body+4 > meta.end {
		return nil, ErrNoXMP
	}
	children, err := f.boxes(meta.body+4, meta.end)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.isXMPUUID(data) {
			return bytes.Clone(data[c.body+16 : c.end]), nil
		}
	}
	for _, c := range children {
		if heifIsXMPXML(data, c) {
			return bytes.Clone(data[c.body+4 : c.end]), nil
		}
	}
	return nil, ErrNoXMP
}

func (heifHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	out, _, err := heifRemove(data)
	if err != nil {
		return nil, err
	}
	f := bmff{format: "heif", data: out}
	top, err := f.boxes(0, len(out))
	if err != nil {
		return nil, err
	}
	meta, ok := findBox(top, "meta")
	if !ok {
		return nil, containerError("heif", "missing meta box")
	}
	box := makeBox("uuid", xmpUUID, packet)
	return f.splice([]bmffBox{meta}, meta.end, meta.end, box)
}

func (heifHandler) RemoveXMP(data []byte) ([]byte, error) {
	out, _, err := heifRemove(data)
	return out, err
}

func heifRemove(data []byte) ([]byte, bool, error) {
	changed := false
	for {
		f := bmff{format: "heif", data: data}
		top, err := f.boxes(0, len(data))
		if err != nil {
			return nil, false, err
		}
		meta, ok := findBox(top, "meta")
		if !ok || meta.body+4 > meta.end {
			return data, changed, nil
		}
		children, err := f.boxes(meta.body+4, meta.end)
		if err != nil {
			return nil, false, err
		}

		var target bmffBox
		found := false
		for _, c := range children {
			if c.isXMPUUID(data) || heifIsXMPXML(data, c) {
				target, found = c, true
				break
			}
		}
		if !found {
			return data, changed, nil
		}

		data, err = f.splice([]bmffBox{meta}, target.start, target.end, nil)
		if err != nil {
			return nil, false, err
		}
		changed = true
	}
}
