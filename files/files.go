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

// Package files embeds XMP metadata in container file formats.
//
// The [File] type gives access to the XMP packet stored inside an image,
// audio or document file.  Container formats are handled by format-specific
// [Handler] implementations; files in unrecognised formats can still be read
// by scanning for the XMP packet envelope (see [ScanPacket]).
//
// All operations work on byte slices held in memory.  Handlers locate the
// XMP payload by walking the container structure, without decoding any image
// or audio data.
package files

import "strings"

// A Handler embeds XMP packets in one container file format.
//
// Handlers never modify their input: writing operations return a new byte
// slice, and the error results of failed operations are never accompanied by
// partial output.
type Handler interface {
	// Name returns the name of the file format, for example "jpeg".
	Name() string

	// Extensions returns the lower-case file name extensions commonly used
	// for this format, without the leading dot.
	Extensions() []string

	// CanHandle reports whether data starts like a file of this format.
	CanHandle(data []byte) bool

	// ReadXMP extracts the XMP packet from a file.  If the file is valid
	// but contains no packet, [ErrNoXMP] is returned.
	ReadXMP(data []byte) ([]byte, error)

	// WriteXMP returns a copy of the file with the given packet embedded,
	// replacing any existing XMP.
	WriteXMP(data, packet []byte) ([]byte, error)

	// RemoveXMP returns a copy of the file without XMP metadata.  Files
	// which contain no XMP are returned unchanged.
	RemoveXMP(data []byte) ([]byte, error)
}

// allHandlers lists the built-in handlers in detection order.  Formats with
// cheap and unambiguous magic numbers come first; the MP3 handler accepts
// bare MPEG audio streams and the SVG handler has to parse XML, so both go
// last.
var allHandlers = []Handler{
	pngHandler{},
	jpegHandler{},
	tiffHandler{},
	gifHandler{},
	psdHandler{},
	riffHandler{},
	pdfHandler{},
	heifHandler{},
	mp4Handler{},
	mp3Handler{},
	svgHandler{},
}

// Handlers returns the built-in container handlers in detection order.
func Handlers() []Handler {
	res := make([]Handler, len(allHandlers))
	copy(res, allHandlers)
	return res
}

// DetectFormat returns the name of the container format of a file, or the
// empty string when no handler recognises the data.
func DetectFormat(data []byte) string {
	if h := handlerFor(data); h != nil {
		return h.Name()
	}
	return ""
}

// HandlerByName returns the handler for a format name.
func HandlerByName(name string) (Handler, bool) {
	for _, h := range allHandlers {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// HandlerForExtension returns the handler for a file name extension.  The
// extension is matched case-insensitively, with or without a leading dot.
func HandlerForExtension(ext string) (Handler, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, h := range allHandlers {
		for _, e := range h.Extensions() {
			if e == ext {
				return h, true
			}
		}
	}
	return nil, false
}

func handlerFor(data []byte) Handler {
	for _, h := range allHandlers {
		if h.CanHandle(data) {
			return h
		}
	}
	return nil
}

// splice returns a copy of data with the range start..end replaced by repl.
func splice(data []byte, start, end int, repl []byte) []byte {
	out := make([]byte, 0, len(data)-(end-start)+len(repl))
	out = append(out, data[:start]...)
	out = append(out, repl...)
	return append(out, data[end:]...)
}
