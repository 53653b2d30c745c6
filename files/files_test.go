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

import "testing"

func TestDetectFormat(t *testing.T) {
	type testCase struct {
		desc   string
		in     []byte
		format string
	}
	cases := []testCase{
		{
			desc:   "png",
			in:     []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"),
			format: "png",
		},
		{
			desc:   "jpeg",
			in:     []byte{0xFF, 0xD8, 0xFF, 0xE0},
			format: "jpeg",
		},
		{
			desc:   "tiff little-endian",
			in:     []byte("II*\x00\x08\x00\x00\x00"),
			format: "tiff",
		},
		{
			desc:   "tiff big-endian",
			in:     []byte("MM\x00*\x00\x00\x00\x08"),
			format: "tiff",
		},
		{
			desc:   "gif",
			in:     []byte("GIF89a"),
			format: "gif",
		},
		{
			desc:   "psd",
			in:     []byte("8BPS\x00\x01\x00\x00"),
			format: "psd",
		},
		{
			desc:   "wav",
			in:     []byte("RIFF\x04\x00\x00\x00WAVE"),
			format: "riff",
		},
		{
			desc:   "webp",
			in:     []byte("RIFF\x04\x00\x00\x00WEBP"),
			format: "riff",
		},
		{
			desc:   "pdf",
			in:     []byte("%PDF-1.7\n"),
			format: "pdf",
		},
		{
			desc: "heif",
			in: []byte("\x00\x00\x00\x10ftypheic" +
				"\x00\x00\x00\x00"),
			format: "heif",
		},
		{
			desc: "mp4",
			in: []byte("\x00\x00\x00\x14ftypisom" +
				"\x00\x00\x02\x00isom"),
			format: "mp4",
		},
		{
			desc:   "id3 tag",
			in:     []byte("ID3\x03\x00\x00\x00\x00\x00\x00"),
			format: "mp3",
		},
		{
			desc:   "bare mpeg audio",
			in:     []byte{0xFF, 0xFB, 0x90, 0x00},
			format: "mp3",
		},
		{
			desc:   "svg",
			in:     []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`),
			format: "svg",
		},
		{
			desc:   "unknown",
			in:     []byte("no file starts like this"),
			format: "",
		},
		{
			desc:   "empty",
			in:     nil,
			format: "",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			if got := DetectFormat(c.in); got != c.format {
				t.Errorf("got format %q, want %q", got, c.format)
			}
		})
	}
}

func TestHandlerForExtension(t *testing.T) {
	type testCase struct {
		ext    string
		format string
	}
	cases := []testCase{
		{"jpg", "jpeg"},
		{"JPEG", "jpeg"},
		{".png", "png"},
		{"tif", "tiff"},
		{"webp", "riff"},
		{"wav", "riff"},
		{"heic", "heif"},
		{"mov", "mp4"},
		{"m4a", "mp4"},
		{"svg", "svg"},
		{"pdf", "pdf"},
		{"xyz", ""},
	}
	for _, c := range cases {
		t.Run(c.ext, func(t *testing.T) {
			h, ok := HandlerForExtension(c.ext)
			if ok != (c.format != "") {
				t.Fatalf("got ok = %t, want %t", ok, c.format != "")
			}
			if ok && h.Name() != c.format {
				t.Errorf("got handler %q, want %q", h.Name(), c.format)
			}
		})
	}
}

func TestHandlerByName(t *testing.T) {
	for _, h := range Handlers() {
		got, ok := HandlerByName(h.Name())
		if !ok || got.Name() != h.Name() {
			t.Errorf("handler %q not found by name", h.Name())
		}
	}
	if _, ok := HandlerByName("bmp"); ok {
		t.Error("unexpected handler for name bmp")
	}
}
