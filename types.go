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
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"
)

// Value is the interface implemented by the typed XMP values which can be
// used in namespace structs.
type Value interface {
	// IsZero reports whether the value is the zero value for its type.
	// Zero values are not stored in packets.
	IsZero() bool

	// GetXMP returns the low-level form of the value.
	GetXMP() Raw

	// DecodeAnother decodes the given low-level value into a new Value of
	// the same type as the receiver.  The receiver itself is not modified.
	DecodeAnother(raw Raw) (Value, error)
}

// Text is a simple text value.
type Text struct {
	V string
	Q
}

// NewText creates a new Text value, with optional qualifiers.
func NewText(s string, qq ...Qualifier) Text {
	return Text{V: s, Q: qq}
}

func (t Text) IsZero() bool {
	return t.V == ""
}

func (t Text) GetXMP() Raw {
	return RawText{Value: t.V, Q: t.Q}
}

func (t Text) DecodeAnother(raw Raw) (Value, error) {
	text, ok := raw.(RawText)
	if !ok {
		return nil, ErrTypeMismatch
	}
	return Text{V: text.Value, Q: text.Q}, nil
}

// ProperName is the name of a person or organisation.
type ProperName struct {
	Text
}

func (n ProperName) DecodeAnother(raw Raw) (Value, error) {
	v, err := n.Text.DecodeAnother(raw)
	if err != nil {
		return nil, err
	}
	return ProperName{Text: v.(Text)}, nil
}

// AgentName is the name of an XMP processor, for example an application
// which modified a resource.
type AgentName struct {
	Text
}

func (n AgentName) DecodeAnother(raw Raw) (Value, error) {
	v, err := n.Text.DecodeAnother(raw)
	if err != nil {
		return nil, err
	}
	return AgentName{Text: v.(Text)}, nil
}

// MimeType is an IANA media type, for example "application/pdf".
type MimeType struct {
	Text
}

func (m MimeType) DecodeAnother(raw Raw) (Value, error) {
	v, err := m.Text.DecodeAnother(raw)
	if err != nil {
		return nil, err
	}
	return MimeType{Text: v.(Text)}, nil
}

// GUID is a globally unique identifier, used by the XMP media management
// namespace.  Identifiers usually carry a prefix indicating the scheme used
// to generate them, for example "xmp.did:" or "uuid:".
type GUID struct {
	Text
}

func (g GUID) DecodeAnother(raw Raw) (Value, error) {
	v, err := g.Text.DecodeAnother(raw)
	if err != nil {
		return nil, err
	}
	return GUID{Text: v.(Text)}, nil
}

// RenditionClass names how a resource rendition relates to its source,
// for example "default", "draft" or "thumbnail".
type RenditionClass struct {
	Text
}

func (c RenditionClass) DecodeAnother(raw Raw) (Value, error) {
	v, err := c.Text.DecodeAnother(raw)
	if err != nil {
		return nil, err
	}
	return RenditionClass{Text: v.(Text)}, nil
}

// URL is a simple value which is a URL.
type URL struct {
	V *url.URL
	Q
}

func (u URL) IsZero() bool {
	return u.V == nil
}

func (u URL) GetXMP() Raw {
	return RawURI{Value: u.V, Q: u.Q}
}

func (u URL) DecodeAnother(raw Raw) (Value, error) {
	switch raw := raw.(type) {
	case RawURI:
		return URL{V: raw.Value, Q: raw.Q}, nil
	case RawText:
		// Some writers store URLs as plain text.
		v, err := url.Parse(raw.Value)
		if err != nil {
			return nil, ErrInvalidValue
		}
		return URL{V: v, Q: raw.Q}, nil
	}
	return nil, ErrTypeMismatch
}

// Date is a point in time.
type Date struct {
	V time.Time
	Q
}

// NewDate creates a new Date value, with optional qualifiers.
func NewDate(t time.Time, qq ...Qualifier) Date {
	return Date{V: t, Q: qq}
}

// dateLayouts lists the date formats allowed by XMP, most precise first.
var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

func (d Date) IsZero() bool {
	return d.V.IsZero()
}

func (d Date) GetXMP() Raw {
	layout := "2006-01-02T15:04:05Z07:00"
	if d.V.Nanosecond() != 0 {
		layout = "2006-01-02T15:04:05.999999999Z07:00"
	}
	return RawText{Value: d.V.Format(layout), Q: d.Q}
}

func (d Date) DecodeAnother(raw Raw) (Value, error) {
	text, ok := raw.(RawText)
	if !ok {
		return nil, ErrTypeMismatch
	}
	s := strings.TrimSpace(text.Value)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Date{V: t, Q: text.Q}, nil
		}
	}
	return nil, ErrInvalidValue
}

// Locale is an RFC 3066 language code.
type Locale struct {
	V language.Tag
	Q
}

func (l Locale) IsZero() bool {
	return l.V.IsRoot()
}

func (l Locale) GetXMP() Raw {
	return RawText{Value: l.V.String(), Q: l.Q}
}

func (l Locale) DecodeAnother(raw Raw) (Value, error) {
	text, ok := raw.(RawText)
	if !ok {
		return nil, ErrTypeMismatch
	}
	tag, err := language.Parse(strings.TrimSpace(text.Value))
	if err != nil {
		return nil, ErrInvalidValue
	}
	return Locale{V: tag, Q: text.Q}, nil
}

// Real is a floating point number.
type Real struct {
	V float64
	Q
}

func (r Real) IsZero() bool {
	return r.V == 0
}

func (r Real) GetXMP() Raw {
	return RawText{Value: strconv.FormatFloat(r.V, 'f', -1, 64), Q: r.Q}
}

func (r Real) DecodeAnother(raw Raw) (Value, error) {
	text, ok := raw.(RawText)
	if !ok {
		return nil, ErrTypeMismatch
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text.Value), 64)
	if err != nil {
		return nil, ErrInvalidValue
	}
	return Real{V: v, Q: text.Q}, nil
}

// Integer is an integral number.
type Integer struct {
	V int64
	Q
}

func (i Integer) IsZero() bool {
	return i.V == 0
}

func (i Integer) GetXMP() Raw {
	return RawText{Value: strconv.FormatInt(i.V, 10), Q: i.Q}
}

func (i Integer) DecodeAnother(raw Raw) (Value, error) {
	text, ok := raw.(RawText)
	if !ok {
		return nil, ErrTypeMismatch
	}
	v, err := strconv.ParseInt(strings.TrimSpace(text.Value), 10, 64)
	if err != nil {
		return nil, ErrInvalidValue
	}
	return Integer{V: v, Q: text.Q}, nil
}

// OptionalBool is a boolean value which distinguishes between false and
// absent.  The XMP representation is the string "True" or "False".
type OptionalBool struct {
	V   bool
	Set bool
	Q
}

func (b OptionalBool) IsZero() bool {
	return !b.Set
}

func (b OptionalBool) GetXMP() Raw {
	v := "False"
	if b.V {
		v = "True"
	}
	return RawText{Value: v, Q: b.Q}
}

func (b OptionalBool) DecodeAnother(raw Raw) (Value, error) {
	text, ok := raw.(RawText)
	if !ok {
		return nil, ErrTypeMismatch
	}
	res := OptionalBool{Set: true, Q: text.Q}
	switch {
	case strings.EqualFold(text.Value, "True"):
		res.V = true
	case strings.EqualFold(text.Value, "False"):
		res.V = false
	default:
		return nil, ErrInvalidValue
	}
	return res, nil
}

// Localized is a text value which is available in different languages.
// The default text is used where no entry for the requested language exists.
type Localized struct {
	Default Text
	V       map[language.Tag]Text
	Q
}

func (l Localized) IsZero() bool {
	return l.Default.IsZero() && len(l.V) == 0
}

func (l Localized) GetXMP() Raw {
	var items []Raw
	if !l.Default.IsZero() {
		items = append(items, localizedItem("x-default", l.Default))
	}
	tags := maps.Keys(l.V)
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].String() < tags[j].String()
	})
	for _, tag := range tags {
		items = append(items, localizedItem(tag.String(), l.V[tag]))
	}
	return RawArray{Value: items, Kind: Alternative, Q: l.Q}
}

func localizedItem(lang string, text Text) Raw {
	qq := Q{{Name: attrXMLLang, Value: RawText{Value: lang}}}
	for _, q := range text.Q {
		if q.Name != attrXMLLang {
			qq = append(qq, q)
		}
	}
	return RawText{Value: text.V, Q: qq}
}

func (l Localized) DecodeAnother(raw Raw) (Value, error) {
	var res Localized
	switch raw := raw.(type) {
	case RawText:
		// Be forgiving when a plain text value is used where localized text
		// is expected.
		lang, _ := raw.Q.Lang()
		text := Text{V: raw.Value, Q: stripLang(raw.Q)}
		if lang == "" || strings.EqualFold(lang, "x-default") {
			res.Default = text
		} else {
			tag, err := language.Parse(lang)
			if err != nil {
				return nil, ErrInvalidValue
			}
			res.V = map[language.Tag]Text{tag: text}
		}
	case RawArray:
		res.Q = raw.Q
		for _, item := range raw.Value {
			text, ok := item.(RawText)
			if !ok {
				continue
			}
			lang, ok := text.Q.Lang()
			if !ok {
				continue
			}
			entry := Text{V: text.Value, Q: stripLang(text.Q)}
			if strings.EqualFold(lang, "x-default") {
				res.Default = entry
				continue
			}
			tag, err := language.Parse(lang)
			if err != nil {
				continue
			}
			if res.V == nil {
				res.V = make(map[language.Tag]Text)
			}
			res.V[tag] = entry
		}
	default:
		return nil, ErrTypeMismatch
	}
	return res, nil
}

// Set stores the text for the given language, replacing any existing entry.
func (l *Localized) Set(tag language.Tag, s string) {
	if l.V == nil {
		l.V = make(map[language.Tag]Text)
	}
	l.V[tag] = NewText(s)
}

// Get returns the text for the given language.  If there is no entry for the
// language, the default text is returned.
func (l Localized) Get(tag language.Tag) (Text, bool) {
	if text, ok := l.V[tag]; ok {
		return text, true
	}
	if !l.Default.IsZero() {
		return l.Default, true
	}
	return Text{}, false
}

func stripLang(qq Q) Q {
	var res Q
	for _, q := range qq {
		if q.Name != attrXMLLang {
			res = append(res, q)
		}
	}
	return res
}

// UnorderedArray is an array value where the order of the entries does not
// matter.
type UnorderedArray[T Value] struct {
	V []T
	Q
}

func (a UnorderedArray[T]) IsZero() bool {
	return len(a.V) == 0
}

func (a UnorderedArray[T]) GetXMP() Raw {
	return RawArray{Value: arrayItems(a.V), Kind: Unordered, Q: a.Q}
}

func (a UnorderedArray[T]) DecodeAnother(raw Raw) (Value, error) {
	items, qq, err := decodeArrayItems[T](raw)
	if err != nil {
		return nil, err
	}
	return UnorderedArray[T]{V: items, Q: qq}, nil
}

// Append adds values to the end of the array.
func (a *UnorderedArray[T]) Append(vv ...T) {
	a.V = append(a.V, vv...)
}

// OrderedArray is an array value where the order of the entries matters.
type OrderedArray[T Value] struct {
	V []T
	Q
}

func (a OrderedArray[T]) IsZero() bool {
	return len(a.V) == 0
}

func (a OrderedArray[T]) GetXMP() Raw {
	return RawArray{Value: arrayItems(a.V), Kind: Ordered, Q: a.Q}
}

func (a OrderedArray[T]) DecodeAnother(raw Raw) (Value, error) {
	items, qq, err := decodeArrayItems[T](raw)
	if err != nil {
		return nil, err
	}
	return OrderedArray[T]{V: items, Q: qq}, nil
}

// Append adds values to the end of the array.
func (a *OrderedArray[T]) Append(vv ...T) {
	a.V = append(a.V, vv...)
}

// AlternativeArray is an array of alternative values, most preferred first.
type AlternativeArray[T Value] struct {
	V []T
	Q
}

func (a AlternativeArray[T]) IsZero() bool {
	return len(a.V) == 0
}

func (a AlternativeArray[T]) GetXMP() Raw {
	return RawArray{Value: arrayItems(a.V), Kind: Alternative, Q: a.Q}
}

func (a AlternativeArray[T]) DecodeAnother(raw Raw) (Value, error) {
	items, qq, err := decodeArrayItems[T](raw)
	if err != nil {
		return nil, err
	}
	return AlternativeArray[T]{V: items, Q: qq}, nil
}

// Append adds values to the end of the array.
func (a *AlternativeArray[T]) Append(vv ...T) {
	a.V = append(a.V, vv...)
}

func arrayItems[T Value](vv []T) []Raw {
	var items []Raw
	for _, v := range vv {
		items = append(items, v.GetXMP())
	}
	return items
}

// decodeArrayItems decodes the items of an array value.  The container form
// of the input is not checked, so that arrays stored with the wrong RDF
// container class can still be read.  Items which cannot be decoded are
// skipped.
func decodeArrayItems[T Value](raw Raw) ([]T, Q, error) {
	arr, ok := raw.(RawArray)
	if !ok {
		return nil, nil, ErrTypeMismatch
	}
	var items []T
	var proto T
	for _, item := range arr.Value {
		v, err := proto.DecodeAnother(item)
		if err != nil {
			continue
		}
		items = append(items, v.(T))
	}
	return items, arr.Q, nil
}

// A ResourceRef is a reference to another resource, used by the XMP media
// management namespace.
type ResourceRef struct {
	// DocumentID is the value of the xmpMM:DocumentID property of the
	// referenced resource.
	DocumentID GUID

	// InstanceID is the value of the xmpMM:InstanceID property of the
	// referenced resource.
	InstanceID GUID

	// RenditionClass is the value of the xmpMM:RenditionClass property of
	// the referenced resource.
	RenditionClass RenditionClass

	// RenditionParams is the value of the xmpMM:RenditionParams property of
	// the referenced resource.
	RenditionParams Text

	Q
}

var (
	stRefDocumentID      = xml.Name{Space: stRefNamespace, Local: "documentID"}
	stRefInstanceID      = xml.Name{Space: stRefNamespace, Local: "instanceID"}
	stRefRenditionClass  = xml.Name{Space: stRefNamespace, Local: "renditionClass"}
	stRefRenditionParams = xml.Name{Space: stRefNamespace, Local: "renditionParams"}
)

func (r ResourceRef) IsZero() bool {
	return r.DocumentID.IsZero() &&
		r.InstanceID.IsZero() &&
		r.RenditionClass.IsZero() &&
		r.RenditionParams.IsZero()
}

func (r ResourceRef) GetXMP() Raw {
	fields := make(map[xml.Name]Raw)
	if !r.DocumentID.IsZero() {
		fields[stRefDocumentID] = r.DocumentID.GetXMP()
	}
	if !r.InstanceID.IsZero() {
		fields[stRefInstanceID] = r.InstanceID.GetXMP()
	}
	if !r.RenditionClass.IsZero() {
		fields[stRefRenditionClass] = r.RenditionClass.GetXMP()
	}
	if !r.RenditionParams.IsZero() {
		fields[stRefRenditionParams] = r.RenditionParams.GetXMP()
	}
	return RawStruct{Value: fields, Q: r.Q}
}

func (r ResourceRef) DecodeAnother(raw Raw) (Value, error) {
	s, ok := raw.(RawStruct)
	if !ok {
		return nil, ErrTypeMismatch
	}
	res := ResourceRef{Q: s.Q}
	for name, value := range s.Value {
		text, ok := value.(RawText)
		if !ok {
			continue
		}
		t := Text{V: text.Value, Q: text.Q}
		switch name {
		case stRefDocumentID:
			res.DocumentID = GUID{Text: t}
		case stRefInstanceID:
			res.InstanceID = GUID{Text: t}
		case stRefRenditionClass:
			res.RenditionClass = RenditionClass{Text: t}
		case stRefRenditionParams:
			res.RenditionParams = t
		}
	}
	return res, nil
}

// Language returns an xml:lang qualifier for the given language.
func Language(tag language.Tag) Qualifier {
	return Qualifier{
		Name:  attrXMLLang,
		Value: RawText{Value: tag.String()},
	}
}
