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
	"encoding/xml"
	"io"
)

// SVG documents carry XMP as an xmpmeta element inside the metadata
// element.  The document is never re-serialised: the packet subtree is
// located through the XML token stream and spliced verbatim, so that the
// rest of the file keeps its exact byte form.
type svgHandler struct{}

func (svgHandler) Name() string {
	return "svg"
}

func (svgHandler) Extensions() []string {
	return []string{"svg"}
}

func (svgHandler) CanHandle(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	dec := xml.NewDecoder(bytes.NewReader(head))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local == "svg"
		}
	}
}

// svgFindXMP returns the byte range of the first xmpmeta subtree,
// including directly adjacent xpacket processing instructions.
func svgFindXMP(data []byte) (start, end int, ok bool, err error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		pos := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			return 0, 0, false, nil
		}
		if err != nil {
			return 0, 0, false, &ContainerError{Format: "svg", Err: err}
		}
		se, isStart := tok.(xml.StartElement)
		if !isStart || se.Name.Local != "xmpmeta" {
			continue
		}
		if err := dec.Skip(); err != nil {
			return 0, 0, false, &ContainerError{Format: "svg", Err: err}
		}
		start, end = svgWidenPacket(data, pos, int(dec.InputOffset()))
		return start, end, true, nil
	}
}

func svgIsSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// svgWidenPacket extends the range of an xmpmeta element over surrounding
// xpacket processing instructions, so that replacing or removing the
// packet does not leave them behind.
func svgWidenPacket(data []byte, start, end int) (int, int) {
	s := start
	for s > 0 && svgIsSpace(data[s-1]) {
		s--
	}
	if i := bytes.LastIndex(data[:s], []byte("<?xpacket begin")); i >= 0 {
		if j := bytes.Index(data[i:s], []byte("?>")); j >= 0 && i+j+2 == s {
			start = i
		}
	}

	e := end
	for e < len(data) && svgIsSpace(data[e]) {
		e++
	}
	if bytes.HasPrefix(data[e:], []byte("<?xpacket end")) {
		if j := bytes.Index(data[e:], []byte("?>")); j >= 0 {
			end = e + j + 2
		}
	}
	return start, end
}

// svgPacketFragment extracts the xmpmeta element from a serialised packet.
// The xpacket processing instructions are dropped, they do not belong
// inside an XML document.
func svgPacketFragment(packet []byte) []byte {
	i := bytes.Index(packet, []byte("<x:xmpmeta"))
	j := bytes.LastIndex(packet, []byte("</x:xmpmeta>"))
	if i < 0 || j < i {
		return bytes.Clone(packet)
	}
	return bytes.Clone(packet[i : j+len("</x:xmpmeta>")])
}

func (svgHandler) ReadXMP(data []byte) ([]byte, error) {
	start, end, ok, err := svgFindXMP(data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoXMP
	}
	return bytes.Clone(data[start:end]), nil
}

func (svgHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	frag := svgPacketFragment(packet)
	start, end, ok, err := svgFindXMP(data)
	if err != nil {
		return nil, err
	}
	if ok {
		return splice(data, start, end, frag), nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	rootEnd := -1
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ContainerError{Format: "svg", Err: err}
		}
		se, isStart := tok.(xml.StartElement)
		if !isStart {
			continue
		}
		if rootEnd < 0 {
			if se.Name.Local != "svg" {
				return nil, containerError("svg", "not an SVG document")
			}
			rootEnd = int(dec.InputOffset())
			continue
		}
		if se.Name.Local != "metadata" {
			continue
		}

		// The fragment goes right after the metadata start tag.  An
		// empty element is reopened so that its attributes survive.
		after := int(dec.InputOffset())
		selfClosing := false
		if tok2, err2 := dec.Token(); err2 == nil {
			_, isEnd := tok2.(xml.EndElement)
			selfClosing = isEnd && int(dec.InputOffset()) == after
		}
		if selfClosing && bytes.HasSuffix(data[:after], []byte("/>")) {
			repl := append([]byte(">"), frag...)
			repl = append(repl, "</metadata>"...)
			return splice(data, after-2, after, repl), nil
		}
		return splice(data, after, after, frag), nil
	}

	if rootEnd < 0 {
		return nil, containerError("svg", "not an SVG document")
	}
	if bytes.HasSuffix(data[:rootEnd], []byte("/>")) {
		repl := append([]byte("><metadata>"), frag...)
		repl = append(repl, "</metadata></svg>"...)
		return splice(data, rootEnd-2, rootEnd, repl), nil
	}
	repl := append([]byte("<metadata>"), frag...)
	repl = append(repl, "</metadata>"...)
	return splice(data, rootEnd, rootEnd, repl), nil
}

func (svgHandler) RemoveXMP(data []byte) ([]byte, error) {
	for {
		start, end, ok, err := svgFindXMP(data)
		if err != nil {
			return nil, err
		}
		if !ok {
			return data, nil
		}
		data = splice(data, start, end, nil)
	}
}
