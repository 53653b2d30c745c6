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
	"strings"

	"golang.org/x/text/language"
)

// GetProperty returns the value of the property with the given namespace and
// name.
func (p *Packet) GetProperty(ns, name string) (Raw, bool) {
	v, ok := p.Properties[xml.Name{Space: ns, Local: name}]
	return v, ok
}

// HasProperty reports whether the packet contains the given property.
func (p *Packet) HasProperty(ns, name string) bool {
	_, ok := p.Properties[xml.Name{Space: ns, Local: name}]
	return ok
}

// SetProperty stores a property value, replacing any existing value of the
// same name.
func (p *Packet) SetProperty(ns, name string, value Raw) error {
	key := xml.Name{Space: ns, Local: name}
	if !isValidPropertyName(key) {
		return ErrInvalidName
	}
	if err := validateValue(value); err != nil {
		return err
	}
	if p.Properties == nil {
		p.Properties = make(map[xml.Name]Raw)
	}
	p.Properties[key] = value
	return nil
}

// DeleteProperty removes a property from the packet.  Deleting a missing
// property is a no-op.
func (p *Packet) DeleteProperty(ns, name string) {
	delete(p.Properties, xml.Name{Space: ns, Local: name})
}

// ArrayLen returns the number of items in the named array property, or 0 if
// the property is missing or not an array.
func (p *Packet) ArrayLen(ns, name string) int {
	a, ok := p.Properties[xml.Name{Space: ns, Local: name}].(RawArray)
	if !ok {
		return 0
	}
	return len(a.Value)
}

// ArrayItem returns the array item with the given 1-based index.
func (p *Packet) ArrayItem(ns, name string, index int) (Raw, error) {
	v, ok := p.Properties[xml.Name{Space: ns, Local: name}]
	if !ok {
		return nil, ErrNotFound
	}
	a, ok := v.(RawArray)
	if !ok {
		return nil, ErrTypeMismatch
	}
	if index < 1 || index > len(a.Value) {
		return nil, ErrIndexRange
	}
	return a.Value[index-1], nil
}

// AppendArrayItem appends an item to the named array property.  If the
// property does not exist, an unordered array is created.  If the property
// exists but is not an array, ErrTypeMismatch is returned.
func (p *Packet) AppendArrayItem(ns, name string, item Raw) error {
	key := xml.Name{Space: ns, Local: name}
	if !isValidPropertyName(key) {
		return ErrInvalidName
	}
	if err := validateValue(item); err != nil {
		return err
	}
	a := RawArray{Kind: Unordered}
	if v, ok := p.Properties[key]; ok {
		if a, ok = v.(RawArray); !ok {
			return ErrTypeMismatch
		}
	}
	a.Value = append(a.Value, item)
	if p.Properties == nil {
		p.Properties = make(map[xml.Name]Raw)
	}
	p.Properties[key] = a
	return nil
}

// InsertArrayItem inserts an item into the named array property before the
// given 1-based index.  index may be len+1 to insert at the end.
func (p *Packet) InsertArrayItem(ns, name string, index int, item Raw) error {
	key := xml.Name{Space: ns, Local: name}
	v, ok := p.Properties[key]
	if !ok {
		return ErrNotFound
	}
	a, ok := v.(RawArray)
	if !ok {
		return ErrTypeMismatch
	}
	if index < 1 || index > len(a.Value)+1 {
		return ErrIndexRange
	}
	if err := validateValue(item); err != nil {
		return err
	}
	items := make([]Raw, 0, len(a.Value)+1)
	items = append(items, a.Value[:index-1]...)
	items = append(items, item)
	items = append(items, a.Value[index-1:]...)
	a.Value = items
	p.Properties[key] = a
	return nil
}

// DeleteArrayItem removes the array item with the given 1-based index.
func (p *Packet) DeleteArrayItem(ns, name string, index int) error {
	key := xml.Name{Space: ns, Local: name}
	v, ok := p.Properties[key]
	if !ok {
		return ErrNotFound
	}
	a, ok := v.(RawArray)
	if !ok {
		return ErrTypeMismatch
	}
	if index < 1 || index > len(a.Value) {
		return ErrIndexRange
	}
	items := make([]Raw, 0, len(a.Value)-1)
	items = append(items, a.Value[:index-1]...)
	items = append(items, a.Value[index:]...)
	a.Value = items
	p.Properties[key] = a
	return nil
}

// SetLocalizedText sets one language alternative of a localized text
// property, creating the property as a language alternation if needed.
// The language "x-default" (or an empty string) names the default text;
// the default entry is kept first in the array.
func (p *Packet) SetLocalizedText(ns, name, lang, text string) error {
	key := xml.Name{Space: ns, Local: name}
	if !isValidPropertyName(key) {
		return ErrInvalidName
	}
	if lang == "" {
		lang = "x-default"
	}

	a := RawArray{Kind: Alternative}
	if v, ok := p.Properties[key]; ok {
		var isArray bool
		if a, isArray = v.(RawArray); !isArray || a.Kind != Alternative {
			return ErrTypeMismatch
		}
	}

	item := RawText{
		Value: text,
		Q:     Q{{Name: attrXMLLang, Value: RawText{Value: lang}}},
	}
	pos := -1
	for i, old := range a.Value {
		oldText, ok := old.(RawText)
		if !ok {
			continue
		}
		if l, ok := oldText.Q.Lang(); ok && strings.EqualFold(l, lang) {
			pos = i
			break
		}
	}
	switch {
	case pos >= 0:
		items := make([]Raw, len(a.Value))
		copy(items, a.Value)
		items[pos] = item
		a.Value = items
	case lang == "x-default":
		a.Value = append([]Raw{item}, a.Value...)
	default:
		a.Value = append(a.Value, item)
	}

	if p.Properties == nil {
		p.Properties = make(map[xml.Name]Raw)
	}
	p.Properties[key] = a
	return nil
}

// LocalizedText looks up the best matching language alternative of a
// localized text property.  The match is, in order of preference: the exact
// language, another language with the same primary subtag, the "x-default"
// entry.  If none of these is present, ok is false.
func (p *Packet) LocalizedText(ns, name, lang string) (text string, actualLang string, ok bool) {
	a, isArray := p.Properties[xml.Name{Space: ns, Local: name}].(RawArray)
	if !isArray || a.Kind != Alternative {
		return "", "", false
	}

	type entry struct {
		lang string
		text string
	}
	var entries []entry
	for _, item := range a.Value {
		t, isText := item.(RawText)
		if !isText {
			continue
		}
		if l, hasLang := t.Q.Lang(); hasLang {
			entries = append(entries, entry{lang: l, text: t.Value})
		}
	}
	if len(entries) == 0 {
		return "", "", false
	}

	for _, e := range entries {
		if strings.EqualFold(e.lang, lang) {
			return e.text, e.lang, true
		}
	}
	if base, confident := primaryLanguage(lang); confident {
		for _, e := range entries {
			if b, ok := primaryLanguage(e.lang); ok && b == base {
				return e.text, e.lang, true
			}
		}
	}
	for _, e := range entries {
		if strings.EqualFold(e.lang, "x-default") {
			return e.text, e.lang, true
		}
	}
	return "", "", false
}

// primaryLanguage returns the primary language subtag of a BCP 47 tag.
func primaryLanguage(lang string) (string, bool) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), true
}

// Qualifier returns the value of a qualifier attached to the given property.
func (p *Packet) Qualifier(ns, name, qualNS, qualName string) (Raw, bool) {
	v, ok := p.Properties[xml.Name{Space: ns, Local: name}]
	if !ok {
		return nil, false
	}
	return v.Qualifiers().Get(xml.Name{Space: qualNS, Local: qualName})
}

// SetQualifier attaches a qualifier to an existing property, replacing any
// qualifier of the same name.  An xml:lang qualifier is kept at the front of
// the qualifier list.
func (p *Packet) SetQualifier(ns, name, qualNS, qualName string, value Raw) error {
	key := xml.Name{Space: ns, Local: name}
	v, ok := p.Properties[key]
	if !ok {
		return ErrNotFound
	}
	qualKey := xml.Name{Space: qualNS, Local: qualName}
	if !isValidQualifierName(qualKey) {
		return ErrInvalidName
	}
	if err := validateValue(value); err != nil {
		return err
	}

	qq := v.Qualifiers()
	updated := make(Q, 0, len(qq)+1)
	for _, q := range qq {
		if q.Name != qualKey {
			updated = append(updated, q)
		}
	}
	qual := Qualifier{Name: qualKey, Value: value}
	if qualKey == attrXMLLang {
		updated = append(Q{qual}, updated...)
	} else {
		updated = append(updated, qual)
	}
	p.Properties[key] = withQualifiers(v, updated)
	return nil
}

// DeleteQualifier removes a qualifier from a property.  Missing properties
// and missing qualifiers are ignored.
func (p *Packet) DeleteQualifier(ns, name, qualNS, qualName string) {
	key := xml.Name{Space: ns, Local: name}
	v, ok := p.Properties[key]
	if !ok {
		return
	}
	qualKey := xml.Name{Space: qualNS, Local: qualName}
	qq := v.Qualifiers()
	updated := make(Q, 0, len(qq))
	for _, q := range qq {
		if q.Name != qualKey {
			updated = append(updated, q)
		}
	}
	if len(updated) == 0 {
		updated = nil
	}
	p.Properties[key] = withQualifiers(v, updated)
}

// StructField returns the value of a field of the named structure property.
func (p *Packet) StructField(ns, name, fieldNS, fieldName string) (Raw, bool) {
	s, ok := p.Properties[xml.Name{Space: ns, Local: name}].(RawStruct)
	if !ok {
		return nil, false
	}
	v, ok := s.Value[xml.Name{Space: fieldNS, Local: fieldName}]
	return v, ok
}

// SetStructField sets one field of the named structure property, creating
// the structure if needed.  If the property exists but is not a structure,
// ErrTypeMismatch is returned.
func (p *Packet) SetStructField(ns, name, fieldNS, fieldName string, value Raw) error {
	key := xml.Name{Space: ns, Local: name}
	if !isValidPropertyName(key) {
		return ErrInvalidName
	}
	fieldKey := xml.Name{Space: fieldNS, Local: fieldName}
	if !isValidPropertyName(fieldKey) {
		return ErrInvalidName
	}
	if err := validateValue(value); err != nil {
		return err
	}

	s := RawStruct{}
	if v, ok := p.Properties[key]; ok {
		var isStruct bool
		if s, isStruct = v.(RawStruct); !isStruct {
			return ErrTypeMismatch
		}
	}
	fields := make(map[xml.Name]Raw, len(s.Value)+1)
	for n, v := range s.Value {
		fields[n] = v
	}
	fields[fieldKey] = value
	s.Value = fields

	if p.Properties == nil {
		p.Properties = make(map[xml.Name]Raw)
	}
	p.Properties[key] = s
	return nil
}

// DeleteStructField removes a field from the named structure property.
func (p *Packet) DeleteStructField(ns, name, fieldNS, fieldName string) {
	key := xml.Name{Space: ns, Local: name}
	s, ok := p.Properties[key].(RawStruct)
	if !ok {
		return
	}
	fieldKey := xml.Name{Space: fieldNS, Local: fieldName}
	if _, ok := s.Value[fieldKey]; !ok {
		return
	}
	fields := make(map[xml.Name]Raw, len(s.Value)-1)
	for n, v := range s.Value {
		if n != fieldKey {
			fields[n] = v
		}
	}
	s.Value = fields
	p.Properties[key] = s
}

// SetValue stores a typed value as a property, replacing any existing value
// of the same name.  Zero values remove the property instead.
func (p *Packet) SetValue(ns, name string, v Value) error {
	key := xml.Name{Space: ns, Local: name}
	if !isValidPropertyName(key) {
		return ErrInvalidName
	}
	if v == nil || v.IsZero() {
		delete(p.Properties, key)
		return nil
	}
	return p.SetProperty(ns, name, v.GetXMP())
}

// PacketGetValue reads a property of a packet as a typed value.
// If the property is missing, [ErrNotFound] is returned.
func PacketGetValue[T Value](p *Packet, ns, name string) (T, error) {
	var zero T
	raw, ok := p.Properties[xml.Name{Space: ns, Local: name}]
	if !ok {
		return zero, ErrNotFound
	}
	v, err := zero.DecodeAnother(raw)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// withQualifiers returns a copy of a value with the qualifier list replaced.
func withQualifiers(v Raw, qq Q) Raw {
	switch v := v.(type) {
	case RawText:
		v.Q = qq
		return v
	case RawURI:
		v.Q = qq
		return v
	case RawStruct:
		v.Q = qq
		return v
	case RawArray:
		v.Q = qq
		return v
	}
	return v
}
