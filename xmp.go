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
	"encoding/xml"
	"net/url"
	"strings"
)

// Packet represents an XMP packet.
type Packet struct {
	// Properties maps property names to values.
	Properties map[xml.Name]Raw

	// About (optional) is the URL of the resource described by the packet.
	About *url.URL
}

// NewPacket creates a new, empty XMP packet.
func NewPacket() *Packet {
	return &Packet{
		Properties: make(map[xml.Name]Raw),
	}
}

// Raw is the interface implemented by the low-level XMP value forms.
// There are four implementations: [RawText], [RawURI], [RawStruct] and
// [RawArray].
type Raw interface {
	// Qualifiers returns the qualifiers attached to the value.
	Qualifiers() Q

	isRaw()
}

// RawText is a simple, non-URI value.
type RawText struct {
	Value string
	Q
}

func (RawText) isRaw() {}

// RawURI is a simple value which is a URI.
type RawURI struct {
	Value *url.URL
	Q
}

func (RawURI) isRaw() {}

// RawStruct is a structure value, with named fields.
type RawStruct struct {
	Value map[xml.Name]Raw
	Q
}

func (RawStruct) isRaw() {}

// RawArray is an array value.
type RawArray struct {
	Value []Raw
	Kind  ArrayKind
	Q
}

func (RawArray) isRaw() {}

// IsAltText reports whether the array is a language alternation, i.e. an
// alternative array where every item is a text value carrying an xml:lang
// qualifier.  The item for the default language, if any, uses the artificial
// language code "x-default" and comes first.
func (a RawArray) IsAltText() bool {
	if a.Kind != Alternative || len(a.Value) == 0 {
		return false
	}
	for _, item := range a.Value {
		text, ok := item.(RawText)
		if !ok {
			return false
		}
		if _, ok := text.Q.Lang(); !ok {
			return false
		}
	}
	return true
}

// ArrayKind distinguishes the three RDF container forms an XMP array
// can be stored in.
type ArrayKind int

const (
	// Unordered marks an array where the order of the entries does not
	// matter.  This corresponds to the rdf:Bag container.
	Unordered ArrayKind = iota + 1

	// Ordered marks an array where the order of the entries matters.
	// This corresponds to the rdf:Seq container.
	Ordered

	// Alternative marks an array of alternative values, most preferred
	// first.  This corresponds to the rdf:Alt container.
	Alternative
)

func (k ArrayKind) String() string {
	switch k {
	case Unordered:
		return "Bag"
	case Ordered:
		return "Seq"
	case Alternative:
		return "Alt"
	default:
		return "invalid"
	}
}

// A Qualifier can be attached to an XMP value to provide additional
// information.
type Qualifier struct {
	Name  xml.Name
	Value Raw
}

// Q is a list of qualifiers.
//
// If the xml:lang qualifier is present, it comes first.
type Q []Qualifier

// Qualifiers returns the qualifiers of a value.
func (q Q) Qualifiers() Q {
	return q
}

// Get returns the value of the qualifier with the given name.
func (q Q) Get(name xml.Name) (Raw, bool) {
	for _, qual := range q {
		if qual.Name == name {
			return qual.Value, true
		}
	}
	return nil, false
}

// Lang returns the value of the xml:lang qualifier, if present.
func (q Q) Lang() (string, bool) {
	v, ok := q.Get(attrXMLLang)
	if !ok {
		return "", false
	}
	text, ok := v.(RawText)
	if !ok {
		return "", false
	}
	return text.Value, true
}

// isValidPropertyName reports whether name can be used as the name of an XMP
// property or structure field.  Most names in the rdf: namespace and all
// names in the xml: namespace are reserved.
func isValidPropertyName(name xml.Name) bool {
	if name.Space == "" || name.Local == "" {
		return false
	}
	switch name.Space {
	case RDFNamespace:
		return name == attrRDFType
	case xmlNamespace:
		return false
	}
	return true
}

// isValidQualifierName reports whether name can be used as the name of a
// qualifier.  In addition to the property names, xml:lang is allowed.
func isValidQualifierName(name xml.Name) bool {
	if name.Space == "" || name.Local == "" {
		return false
	}
	switch name.Space {
	case RDFNamespace:
		return name == attrRDFType
	case xmlNamespace:
		return name == attrXMLLang
	}
	return true
}

// validateValue checks that a value can be stored in a packet.
func validateValue(v Raw) error {
	if v == nil {
		return ErrInvalidValue
	}
	for _, q := range v.Qualifiers() {
		if !isValidQualifierName(q.Name) {
			return ErrInvalidName
		}
		if err := validateValue(q.Value); err != nil {
			return err
		}
	}
	switch v := v.(type) {
	case RawURI:
		if v.Value == nil {
			return ErrInvalidValue
		}
	case RawStruct:
		for name, field := range v.Value {
			if !isValidPropertyName(name) {
				return ErrInvalidName
			}
			if err := validateValue(field); err != nil {
				return err
			}
		}
	case RawArray:
		if v.Kind < Unordered || v.Kind > Alternative {
			return ErrInvalidValue
		}
		for _, item := range v.Value {
			if err := validateValue(item); err != nil {
				return err
			}
		}
		if v.Kind == Alternative {
			if err := validateAlternatives(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateAlternatives rejects malformed language alternations.  If any item
// of an alternative array carries xml:lang, all items must, and the x-default
// item must come first.
func validateAlternatives(a RawArray) error {
	tagged := 0
	defaultPos := -1
	for i, item := range a.Value {
		lang, ok := item.Qualifiers().Lang()
		if !ok {
			continue
		}
		tagged++
		if defaultPos < 0 && strings.EqualFold(lang, "x-default") {
			defaultPos = i
		}
	}
	if tagged == 0 {
		return nil
	}
	if tagged != len(a.Value) || defaultPos > 0 {
		return ErrInvalidValue
	}
	return nil
}
