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
	"io"
	"net/url"
	"os"
)

var (
	elemRDFRoot        = xml.Name{Space: RDFNamespace, Local: "RDF"}
	elemRDFDescription = xml.Name{Space: RDFNamespace, Local: "Description"}
	elemRDFValue       = xml.Name{Space: RDFNamespace, Local: "value"}
	elemRDFBag         = xml.Name{Space: RDFNamespace, Local: "Bag"}
	elemRDFSeq         = xml.Name{Space: RDFNamespace, Local: "Seq"}
	elemRDFAlt         = xml.Name{Space: RDFNamespace, Local: "Alt"}
	elemRDFLi          = xml.Name{Space: RDFNamespace, Local: "li"}

	attrRDFAbout     = xml.Name{Space: RDFNamespace, Local: "about"}
	attrRDFDatatype  = xml.Name{Space: RDFNamespace, Local: "datatype"}
	attrRDFID        = xml.Name{Space: RDFNamespace, Local: "ID"}
	attrRDFNodeID    = xml.Name{Space: RDFNamespace, Local: "nodeID"}
	attrRDFParseType = xml.Name{Space: RDFNamespace, Local: "parseType"}
	attrRDFResource  = xml.Name{Space: RDFNamespace, Local: "resource"}
	attrRDFType      = xml.Name{Space: RDFNamespace, Local: "type"}

	attrXMLLang = xml.Name{Space: xmlNamespace, Local: "lang"}
)

// ReadFile reads an XMP packet from a file.
func ReadFile(filename string) (*Packet, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses an XMP packet.  The data may be a bare rdf:RDF element, or the
// element may be wrapped in an x:xmpmeta element and xpacket processing
// instructions.  Namespace prefixes bound in the input are recorded in the
// global prefix registry.
//
// Read is forgiving about violations of the XMP data model: malformed
// property elements are skipped.  Errors are only reported for data which is
// not well-formed XML, or where no rdf:RDF element can be found.
func Read(r io.Reader) (*Packet, error) {
	p := &parser{d: xml.NewDecoder(r)}

	pkt := NewPacket()
	sawRDF := false
	depth := 0
	rdfDepth := -1
	for {
		t, err := p.token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Detail: "invalid XML", Err: err}
		}
		switch t := t.(type) {
		case xml.StartElement:
			switch {
			case t.Name == elemRDFRoot && rdfDepth < 0:
				// If a sequence of rdf:RDF elements is encountered, the
				// contents are merged into a single packet.
				sawRDF = true
				rdfDepth = depth
			case rdfDepth >= 0 && depth == rdfDepth+1 && t.Name == elemRDFDescription:
				if err := p.parseDescription(pkt, t); err != nil {
					return nil, err
				}
				continue
			case rdfDepth >= 0 && depth == rdfDepth+1:
				if err := p.d.Skip(); err != nil {
					return nil, &ParseError{Detail: "invalid XML", Err: err}
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == rdfDepth {
				rdfDepth = -1
			}
		}
	}
	if !sawRDF {
		return nil, &ParseError{Detail: "missing rdf:RDF element"}
	}
	return pkt, nil
}

type parser struct {
	d *xml.Decoder
}

// token reads the next XML token and records any namespace bindings it
// declares.
func (p *parser) token() (xml.Token, error) {
	t, err := p.d.Token()
	if err != nil {
		return nil, err
	}
	if start, ok := t.(xml.StartElement); ok {
		for _, a := range start.Attr {
			if a.Name.Space == "xmlns" {
				registerLenient(a.Value, a.Name.Local)
			}
		}
	}
	return t, nil
}

// childTokens reads and returns all tokens up to the end of the current
// element.  The closing end tag is consumed but not returned.
func (p *parser) childTokens() ([]xml.Token, error) {
	var tokens []xml.Token
	depth := 0
	for {
		t, err := p.token()
		if err != nil {
			return nil, err
		}
		switch t.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return tokens, nil
			}
			depth--
		}
		tokens = append(tokens, xml.CopyToken(t))
	}
}

// parseDescription parses one rdf:Description element and merges its
// properties into the packet.  Where several descriptions assign the same
// property, the last assignment wins.
func (p *parser) parseDescription(pkt *Packet, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name != attrRDFAbout || a.Value == "" {
			continue
		}
		u, err := url.Parse(a.Value)
		if err != nil {
			return &ParseError{Detail: "invalid rdf:about attribute", Err: err}
		}
		if pkt.About != nil && pkt.About.String() != u.String() {
			return &ParseError{Detail: "inconsistent rdf:about attributes"}
		}
		pkt.About = u
	}

	// Property attributes on rdf:Description are shorthand for simple,
	// unqualified text values.
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		switch a.Name {
		case attrRDFAbout, attrRDFID, attrRDFNodeID, attrXMLLang:
			continue
		}
		if !isValidPropertyName(a.Name) {
			continue
		}
		pkt.Properties[a.Name] = RawText{Value: a.Value}
	}

	children, err := p.childTokens()
	if err != nil {
		return &ParseError{Detail: "invalid XML", Err: err}
	}
	elems, ok := splitChildren(children)
	if !ok {
		return &ParseError{Detail: "unexpected character data in rdf:Description"}
	}
	for _, e := range elems {
		if !isValidPropertyName(e.start.Name) {
			continue
		}
		v, err := parseProperty(e)
		if err != nil {
			return err
		}
		if v == nil {
			continue
		}
		pkt.Properties[e.start.Name] = v
	}
	return nil
}

// A childElement is one child element of a buffered token sequence, together
// with the tokens of its content.
type childElement struct {
	start    xml.StartElement
	children []xml.Token
}

// splitChildren groups a token sequence into child elements.  Comments,
// processing instructions and white space between elements are discarded.
// The second return value is false if the sequence contains non-white
// character data between elements, or is otherwise unbalanced.
func splitChildren(tokens []xml.Token) ([]childElement, bool) {
	var elems []childElement
	i := 0
	for i < len(tokens) {
		switch t := tokens[i].(type) {
		case xml.StartElement:
			depth := 0
			j := i + 1
		scan:
			for ; j < len(tokens); j++ {
				switch tokens[j].(type) {
				case xml.StartElement:
					depth++
				case xml.EndElement:
					if depth == 0 {
						break scan
					}
					depth--
				}
			}
			if j >= len(tokens) {
				return nil, false
			}
			elems = append(elems, childElement{start: t, children: tokens[i+1 : j]})
			i = j + 1
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, false
			}
			i++
		default:
			i++
		}
	}
	return elems, true
}

type propertyEltType int

const (
	resourcePropertyElt propertyEltType = iota + 1
	literalPropertyElt
	parseTypeLiteralPropertyElt
	parseTypeResourcePropertyElt
	parseTypeCollectionPropertyElt
	parseTypeOtherPropertyElt
	emptyPropertyElt
)

// getProperyElementType determines which of the RDF/XML property element
// forms a property element uses.
func getProperyElementType(e xml.StartElement, children []xml.Token) propertyEltType {
	var parseType string
	var hasOther bool
	for _, a := range e.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		switch a.Name {
		case attrXMLLang, attrRDFID:
			continue
		case attrRDFDatatype:
			return literalPropertyElt
		case attrRDFParseType:
			parseType = a.Value
			continue
		}
		hasOther = true
	}
	switch parseType {
	case "":
		// no parse type, classify by attributes and content below
	case "Literal":
		return parseTypeLiteralPropertyElt
	case "Resource":
		return parseTypeResourcePropertyElt
	case "Collection":
		return parseTypeCollectionPropertyElt
	default:
		return parseTypeOtherPropertyElt
	}
	if hasOther {
		return emptyPropertyElt
	}
	// White space around child elements is ignored, but an element without
	// child elements keeps its character data exactly.
	var hasText bool
	for _, t := range children {
		switch t := t.(type) {
		case xml.StartElement:
			return resourcePropertyElt
		case xml.CharData:
			if len(t) > 0 {
				hasText = true
			}
		}
	}
	if hasText {
		return literalPropertyElt
	}
	return emptyPropertyElt
}

// parseProperty parses one property element.  A nil value with a nil error
// indicates that the element does not follow the XMP data model and is to be
// skipped.
func parseProperty(e childElement) (Raw, error) {
	switch getProperyElementType(e.start, e.children) {
	case literalPropertyElt:
		return parseLiteral(e)
	case resourcePropertyElt:
		return parseResource(e)
	case parseTypeResourcePropertyElt:
		v, err := parseResourceNode(nil, e.children)
		if err != nil || v == nil {
			return v, err
		}
		return withLang(v, e.start.Attr), nil
	case emptyPropertyElt:
		return parseEmpty(e)
	}
	// The remaining parse types are not used by XMP.
	return nil, nil
}

// parseLiteral parses a property element with character data content.
func parseLiteral(e childElement) (Raw, error) {
	var text []byte
	for _, t := range e.children {
		switch t := t.(type) {
		case xml.CharData:
			text = append(text, t...)
		case xml.StartElement:
			// mixed content
			return nil, nil
		}
	}
	return withLang(RawText{Value: string(text)}, e.start.Attr), nil
}

// parseResource parses a property element whose content is a single node
// element, i.e. a structure, an array, or a typed node.
func parseResource(e childElement) (Raw, error) {
	elems, ok := splitChildren(e.children)
	if !ok || len(elems) != 1 {
		return nil, nil
	}
	v, err := parseNodeElement(elems[0])
	if err != nil || v == nil {
		return v, err
	}
	return withLang(v, e.start.Attr), nil
}

// parseNodeElement parses an rdf:Description element, an array element, or a
// typed node element.
func parseNodeElement(e childElement) (Raw, error) {
	switch e.start.Name {
	case elemRDFBag:
		return parseArray(e, Unordered)
	case elemRDFSeq:
		return parseArray(e, Ordered)
	case elemRDFAlt:
		return parseArray(e, Alternative)
	case elemRDFDescription:
		return parseResourceNode(e.start.Attr, e.children)
	}

	// Any other node element is a typed node.  The element name gives the
	// value of an rdf:type qualifier.
	typeURL, err := url.Parse(e.start.Name.Space + e.start.Name.Local)
	if err != nil {
		return nil, nil
	}
	v, err := parseResourceNode(e.start.Attr, e.children)
	if err != nil || v == nil {
		return v, err
	}
	qual := Qualifier{Name: attrRDFType, Value: RawURI{Value: typeURL}}
	qq := v.Qualifiers()
	var updated Q
	if len(qq) > 0 && qq[0].Name == attrXMLLang {
		updated = append(Q{qq[0], qual}, qq[1:]...)
	} else {
		updated = append(Q{qual}, qq...)
	}
	return withQualifiers(v, updated), nil
}

// parseResourceNode parses the attributes and content shared by
// rdf:Description node elements, typed node elements, property elements with
// rdf:parseType="Resource", and empty property elements with property
// attributes.  The result is a structure, unless one of the fields is
// rdf:value, in which case the remaining fields qualify the rdf:value field.
func parseResourceNode(attrs []xml.Attr, children []xml.Token) (Raw, error) {
	type field struct {
		name  xml.Name
		value Raw
	}
	var fields []field

	for _, a := range attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		switch a.Name {
		case attrXMLLang, attrRDFAbout, attrRDFID, attrRDFNodeID:
			continue
		}
		if a.Name != elemRDFValue && !isValidPropertyName(a.Name) {
			continue
		}
		fields = append(fields, field{name: a.Name, value: RawText{Value: a.Value}})
	}

	elems, ok := splitChildren(children)
	if !ok {
		return nil, nil
	}
	for _, e := range elems {
		v, err := parseProperty(e)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		fields = append(fields, field{name: e.start.Name, value: v})
	}

	valueIdx := -1
	for i, f := range fields {
		if f.name == elemRDFValue {
			valueIdx = i
			break
		}
	}
	if valueIdx >= 0 {
		v := fields[valueIdx].value
		qq := v.Qualifiers()
		for i, f := range fields {
			if i == valueIdx || !isValidQualifierName(f.name) {
				continue
			}
			if f.name == attrXMLLang {
				// language qualifiers come first
				t, isText := f.value.(RawText)
				if _, hasLang := qq.Lang(); !hasLang && isText {
					q := Qualifier{Name: attrXMLLang, Value: RawText{Value: t.Value}}
					qq = append(Q{q}, qq...)
				}
				continue
			}
			qq = append(qq, Qualifier{Name: f.name, Value: f.value})
		}
		return withQualifiers(v, qq), nil
	}

	var m map[xml.Name]Raw
	for _, f := range fields {
		if !isValidPropertyName(f.name) {
			continue
		}
		if m == nil {
			m = make(map[xml.Name]Raw, len(fields))
		}
		m[f.name] = f.value
	}
	return RawStruct{Value: m}, nil
}

// parseArray parses an rdf:Bag, rdf:Seq or rdf:Alt element.
func parseArray(e childElement, kind ArrayKind) (Raw, error) {
	elems, ok := splitChildren(e.children)
	if !ok {
		return nil, nil
	}
	var items []Raw
	for _, li := range elems {
		if li.start.Name != elemRDFLi {
			return nil, nil
		}
		v, err := parseProperty(li)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		items = append(items, v)
	}
	a := RawArray{Value: items, Kind: kind}
	if a.IsAltText() {
		a.Value = altTextOrder(a.Value)
	}
	return a, nil
}

// parseEmpty parses an empty property element.  Depending on the attributes
// this yields a URI value, a structure given by property attributes, or an
// empty text value.
func parseEmpty(e childElement) (Raw, error) {
	var resource string
	var hasResource bool
	var propAttrs []xml.Attr
	for _, a := range e.start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		switch a.Name {
		case attrXMLLang, attrRDFID, attrRDFNodeID:
			continue
		case attrRDFResource:
			resource = a.Value
			hasResource = true
			continue
		}
		propAttrs = append(propAttrs, a)
	}

	if hasResource {
		u, err := url.Parse(resource)
		if err != nil {
			return nil, nil
		}
		return withLang(RawURI{Value: u}, e.start.Attr), nil
	}
	if len(propAttrs) > 0 {
		v, err := parseResourceNode(propAttrs, nil)
		if err != nil || v == nil {
			return v, err
		}
		return withLang(v, e.start.Attr), nil
	}
	return withLang(RawText{Value: ""}, e.start.Attr), nil
}

// withLang attaches the value of an xml:lang attribute, if present, as a
// qualifier.  The language qualifier is kept first in the qualifier list.
// A language qualifier already present on the value takes precedence.
func withLang(v Raw, attrs []xml.Attr) Raw {
	lang := ""
	for _, a := range attrs {
		if a.Name == attrXMLLang {
			lang = a.Value
			break
		}
	}
	if lang == "" {
		return v
	}
	if _, ok := v.Qualifiers().Lang(); ok {
		return v
	}
	qq := v.Qualifiers()
	updated := make(Q, 0, len(qq)+1)
	updated = append(updated, Qualifier{Name: attrXMLLang, Value: RawText{Value: lang}})
	updated = append(updated, qq...)
	return withQualifiers(v, updated)
}
