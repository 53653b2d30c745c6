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

package xmp

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/cavivie/xmpkit/internal/xmlenc"
)

const (
	packetHeader  = "begin=\"\uFEFF\" id=\"W5M0MpCehiHzreSzNTczkc9d\""
	packetTrailer = `<?xpacket end="w"?>`

	defaultPadding = 2048
)

// Encode serialises the packet as RDF/XML, wrapped in an x:xmpmeta element
// and xpacket processing instructions.  The packet is marked as read-only.
// If pretty is true, the output is indented for readability.
//
// The output is deterministic: encoding the same packet twice gives the same
// bytes.
func (p *Packet) Encode(pretty bool) ([]byte, error) {
	return p.encode(pretty, -1)
}

// EncodePacket serialises the packet for embedding in a file.  The packet is
// marked as writable and padded with white space, so that editors can update
// the packet in place.  minSize is the minimum total size of the returned
// data, in bytes; values <= 0 select a default amount of padding.
func (p *Packet) EncodePacket(minSize int) ([]byte, error) {
	if minSize < 0 {
		minSize = 0
	}
	return p.encode(true, minSize)
}

// encode writes the packet.  If padTo is negative, the packet is marked
// read-only and no padding is added.
func (p *Packet) encode(pretty bool, padTo int) ([]byte, error) {
	e, err := p.newEncoder(pretty)
	if err != nil {
		return nil, err
	}

	names := maps.Keys(p.Properties)
	sort.Slice(names, func(i, j int) bool {
		if names[i].Space != names[j].Space {
			return names[i].Space < names[j].Space
		}
		return names[i].Local < names[j].Local
	})
	for _, name := range names {
		err := e.encodeValue(e.makeName(name.Space, name.Local), p.Properties[name])
		if err != nil {
			return nil, err
		}
	}

	if err := e.close(padTo); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// An encoder writes XMP data to an output stream.
type encoder struct {
	buf *bytes.Buffer
	*xmlenc.Encoder
	nsToPrefix map[string]string
}

// newEncoder assigns namespace prefixes for the packet and writes the xpacket
// header, the x:xmpmeta and rdf:RDF elements, and the opening rdf:Description
// element.
func (p *Packet) newEncoder(pretty bool) (*encoder, error) {
	nsToPrefix := map[string]string{
		xmlNamespace:  "xml",
		RDFNamespace:  "rdf",
		metaNamespace: "x",
	}
	prefixUsed := map[string]bool{"xml": true, "rdf": true, "x": true}

	// Registered prefixes are used where possible; the remaining namespaces
	// get synthetic prefixes.  Namespaces are visited in sorted order to keep
	// the output deterministic.
	nsUsed := p.getNamespaces()
	uris := maps.Keys(nsUsed)
	sort.Strings(uris)
	numSynth := 0
	for _, uri := range uris {
		if _, done := nsToPrefix[uri]; done {
			continue
		}
		pfx, ok := PrefixOf(uri)
		if !ok || prefixUsed[pfx] {
			for {
				numSynth++
				pfx = "ns" + strconv.Itoa(numSynth)
				if !prefixUsed[pfx] {
					break
				}
			}
		}
		nsToPrefix[uri] = pfx
		prefixUsed[pfx] = true
	}

	buf := &bytes.Buffer{}
	enc := xmlenc.NewEncoder(buf)
	if pretty {
		enc.Indent("", "  ")
	}
	e := &encoder{
		buf:        buf,
		Encoder:    enc,
		nsToPrefix: nsToPrefix,
	}

	err := e.EncodeToken(xml.ProcInst{
		Target: "xpacket",
		Inst:   []byte(packetHeader),
	})
	if err != nil {
		return nil, err
	}
	err = e.EncodeToken(xml.CharData("\n"))
	if err != nil {
		return nil, err
	}

	err = e.EncodeToken(xml.StartElement{
		Name: e.makeName(metaNamespace, "xmpmeta"),
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:x"}, Value: metaNamespace},
		},
	})
	if err != nil {
		return nil, err
	}

	err = e.EncodeToken(xml.StartElement{
		Name: e.makeName(RDFNamespace, "RDF"),
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:rdf"}, Value: RDFNamespace},
		},
	})
	if err != nil {
		return nil, err
	}

	about := ""
	if p.About != nil {
		about = p.About.String()
	}
	attrs := []xml.Attr{
		{Name: e.makeName(RDFNamespace, "about"), Value: about},
	}
	type binding struct {
		pfx, uri string
	}
	var bindings []binding
	for uri, pfx := range nsToPrefix {
		switch uri {
		case xmlNamespace, RDFNamespace, metaNamespace:
			continue
		}
		bindings = append(bindings, binding{pfx: pfx, uri: uri})
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].pfx < bindings[j].pfx
	})
	for _, b := range bindings {
		attrs = append(attrs, xml.Attr{
			Name:  xml.Name{Local: "xmlns:" + b.pfx},
			Value: b.uri,
		})
	}
	err = e.EncodeToken(xml.StartElement{
		Name: e.makeName(RDFNamespace, "Description"),
		Attr: attrs,
	})
	if err != nil {
		return nil, err
	}

	return e, nil
}

// close writes the closing tags and the xpacket trailer.  If padTo is
// non-negative, padding is inserted before the trailer and the packet is
// marked as writable.  This must be called after all properties have been
// written.
func (e *encoder) close(padTo int) error {
	for _, t := range []xml.Token{
		xml.EndElement{Name: e.makeName(RDFNamespace, "Description")},
		xml.EndElement{Name: e.makeName(RDFNamespace, "RDF")},
		xml.EndElement{Name: e.makeName(metaNamespace, "xmpmeta")},
		xml.CharData("\n"),
	} {
		if err := e.EncodeToken(t); err != nil {
			return err
		}
	}

	if padTo < 0 {
		err := e.EncodeToken(xml.ProcInst{
			Target: "xpacket",
			Inst:   []byte(`end="r"`),
		})
		if err != nil {
			return err
		}
		return e.Encoder.Close()
	}

	if err := e.Flush(); err != nil {
		return err
	}
	unpadded := e.buf.Len() + len(packetTrailer)
	pad := defaultPadding
	if padTo > 0 {
		pad = padTo - unpadded
		if pad < 0 {
			pad = 0
		}
	}
	// The total size is always a multiple of four bytes.
	if r := (unpadded + pad) % 4; r != 0 {
		pad += 4 - r
	}
	if pad > 0 {
		err := e.EncodeToken(xml.CharData(strings.Repeat(" ", pad)))
		if err != nil {
			return err
		}
	}
	err := e.EncodeToken(xml.ProcInst{
		Target: "xpacket",
		Inst:   []byte(`end="w"`),
	})
	if err != nil {
		return err
	}
	return e.Encoder.Close()
}

// encodeValue writes one property or qualifier element.  Values with general
// qualifiers are written in the verbose form, using an inner rdf:Description
// element with an rdf:value field.
func (e *encoder) encodeValue(name xml.Name, value Raw) error {
	if value == nil {
		return ErrInvalidValue
	}

	lang, quals := splitQualifiers(value.Qualifiers())
	var attrs []xml.Attr
	if lang != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xml:lang"}, Value: lang})
	}

	if len(quals) > 0 {
		err := e.EncodeToken(xml.StartElement{Name: name, Attr: attrs})
		if err != nil {
			return err
		}
		desc := e.makeName(RDFNamespace, "Description")
		if err := e.EncodeToken(xml.StartElement{Name: desc}); err != nil {
			return err
		}
		err = e.encodeValue(e.makeName(RDFNamespace, "value"), withQualifiers(value, nil))
		if err != nil {
			return err
		}
		for _, q := range quals {
			err := e.encodeValue(e.makeName(q.Name.Space, q.Name.Local), q.Value)
			if err != nil {
				return err
			}
		}
		if err := e.EncodeToken(xml.EndElement{Name: desc}); err != nil {
			return err
		}
		return e.EncodeToken(xml.EndElement{Name: name})
	}

	switch value := value.(type) {
	case RawText:
		if value.Value == "" {
			return e.EncodeToken(xmlenc.EmptyElement{Name: name, Attr: attrs})
		}
		if err := e.EncodeToken(xml.StartElement{Name: name, Attr: attrs}); err != nil {
			return err
		}
		if err := e.EncodeToken(xml.CharData(value.Value)); err != nil {
			return err
		}
		return e.EncodeToken(xml.EndElement{Name: name})

	case RawURI:
		if value.Value == nil {
			return ErrInvalidValue
		}
		attrs = append(attrs, xml.Attr{
			Name:  e.makeName(RDFNamespace, "resource"),
			Value: value.Value.String(),
		})
		return e.EncodeToken(xmlenc.EmptyElement{Name: name, Attr: attrs})

	case RawStruct:
		attrs = append(attrs, xml.Attr{
			Name:  e.makeName(RDFNamespace, "parseType"),
			Value: "Resource",
		})
		if len(value.Value) == 0 {
			return e.EncodeToken(xmlenc.EmptyElement{Name: name, Attr: attrs})
		}
		if err := e.EncodeToken(xml.StartElement{Name: name, Attr: attrs}); err != nil {
			return err
		}
		fields := maps.Keys(value.Value)
		sort.Slice(fields, func(i, j int) bool {
			if fields[i].Space != fields[j].Space {
				return fields[i].Space < fields[j].Space
			}
			return fields[i].Local < fields[j].Local
		})
		for _, f := range fields {
			err := e.encodeValue(e.makeName(f.Space, f.Local), value.Value[f])
			if err != nil {
				return err
			}
		}
		return e.EncodeToken(xml.EndElement{Name: name})

	case RawArray:
		var kindName xml.Name
		switch value.Kind {
		case Unordered:
			kindName = e.makeName(RDFNamespace, "Bag")
		case Ordered:
			kindName = e.makeName(RDFNamespace, "Seq")
		case Alternative:
			kindName = e.makeName(RDFNamespace, "Alt")
		default:
			return ErrInvalidValue
		}
		if err := e.EncodeToken(xml.StartElement{Name: name, Attr: attrs}); err != nil {
			return err
		}
		items := value.Value
		if value.IsAltText() {
			items = altTextOrder(items)
		}
		if len(items) == 0 {
			if err := e.EncodeToken(xmlenc.EmptyElement{Name: kindName}); err != nil {
				return err
			}
		} else {
			if err := e.EncodeToken(xml.StartElement{Name: kindName}); err != nil {
				return err
			}
			li := e.makeName(RDFNamespace, "li")
			for _, item := range items {
				if err := e.encodeValue(li, item); err != nil {
					return err
				}
			}
			if err := e.EncodeToken(xml.EndElement{Name: kindName}); err != nil {
				return err
			}
		}
		return e.EncodeToken(xml.EndElement{Name: name})
	}
	return ErrInvalidValue
}

// splitQualifiers separates the language qualifier from the general
// qualifiers.  Only the first language qualifier is kept.
func splitQualifiers(qq Q) (lang string, general Q) {
	for _, q := range qq {
		if q.Name == attrXMLLang {
			if lang == "" {
				if t, ok := q.Value.(RawText); ok {
					lang = t.Value
				}
			}
			continue
		}
		general = append(general, q)
	}
	return lang, general
}

// altTextOrder moves the x-default item of an alternative text array to the
// front, keeping the order of the other items.
func altTextOrder(items []Raw) []Raw {
	for i, item := range items {
		t, ok := item.(RawText)
		if !ok {
			continue
		}
		if l, ok := t.Q.Lang(); ok && strings.EqualFold(l, "x-default") {
			if i == 0 {
				return items
			}
			out := make([]Raw, 0, len(items))
			out = append(out, item)
			out = append(out, items[:i]...)
			out = append(out, items[i+1:]...)
			return out
		}
	}
	return items
}

// getNamespaces returns the set of namespaces used by property, field and
// qualifier names in the packet.
func (p *Packet) getNamespaces() map[string]struct{} {
	ns := make(map[string]struct{})
	for name, value := range p.Properties {
		ns[name.Space] = struct{}{}
		rawNamespaces(ns, value)
	}
	delete(ns, xmlNamespace)
	return ns
}

func rawNamespaces(ns map[string]struct{}, v Raw) {
	if v == nil {
		return
	}
	for _, q := range v.Qualifiers() {
		ns[q.Name.Space] = struct{}{}
		rawNamespaces(ns, q.Value)
	}
	switch v := v.(type) {
	case RawStruct:
		for name, field := range v.Value {
			ns[name.Space] = struct{}{}
			rawNamespaces(ns, field)
		}
	case RawArray:
		for _, item := range v.Value {
			rawNamespaces(ns, item)
		}
	}
}

func (e *encoder) makeName(ns, local string) xml.Name {
	pfx, ok := e.nsToPrefix[ns]
	if !ok {
		panic("namespace not registered: " + ns)
	}
	return xml.Name{Local: pfx + ":" + local}
}
