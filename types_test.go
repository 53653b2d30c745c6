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
	"errors"
	"testing"
	"time"

	"net/url"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
)

func TestText(t *testing.T) {
	p := NewPacket()

	A := Text{
		V: "hello world",
		Q: Q{Language(language.English)},
	}
	if err := p.SetValue(testNamespace, "prop", A); err != nil {
		t.Fatal(err)
	}

	B, err := PacketGetValue[Text](p, testNamespace, "prop")
	if err != nil {
		t.Fatalf("p.Get: %v", err)
	}

	if d := cmp.Diff(A, B); d != "" {
		t.Errorf("A and B are different (-want +got):\n%s", d)
	}
}

func TestUnorderedArray(t *testing.T) {
	p := NewPacket()

	A := UnorderedArray[Text]{
		V: []Text{
			{V: "Hello", Q: Q{Language(language.English)}},
			{V: "Hallo", Q: Q{Language(language.German)}},
			{V: "Bonjour", Q: Q{Language(language.French)}},
		},
	}
	if err := p.SetValue(testNamespace, "prop", A); err != nil {
		t.Fatal(err)
	}

	B, err := PacketGetValue[UnorderedArray[Text]](p, testNamespace, "prop")
	if err != nil {
		t.Fatalf("p.Get: %v", err)
	}

	if d := cmp.Diff(A, B); d != "" {
		t.Errorf("A and B are different (-want +got):\n%s", d)
	}
}

func TestSetValueZero(t *testing.T) {
	p := NewPacket()

	if err := p.SetValue(testNamespace, "prop", NewText("x")); err != nil {
		t.Fatal(err)
	}
	if !p.HasProperty(testNamespace, "prop") {
		t.Fatal("property not stored")
	}

	// zero values remove the property
	if err := p.SetValue(testNamespace, "prop", Text{}); err != nil {
		t.Fatal(err)
	}
	if p.HasProperty(testNamespace, "prop") {
		t.Error("zero value was stored")
	}

	err := p.SetValue("", "prop", NewText("x"))
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestPacketGetValueErrors(t *testing.T) {
	p := NewPacket()

	_, err := PacketGetValue[Text](p, testNamespace, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unexpected error %v", err)
	}

	if err := p.SetProperty(testNamespace, "s", RawStruct{}); err != nil {
		t.Fatal(err)
	}
	_, err = PacketGetValue[Text](p, testNamespace, "s")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTextDecode(t *testing.T) {
	if !NewText("").IsZero() {
		t.Error("empty text not zero")
	}
	if NewText("x").IsZero() {
		t.Error("non-empty text is zero")
	}

	in := NewText("hello", Qualifier{elemTestQ, RawText{Value: "q"}})
	v, err := Text{}.DecodeAnother(in.GetXMP())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(v, Value(in)); d != "" {
		t.Errorf("unexpected value (-got +want):\n%s", d)
	}

	_, err = Text{}.DecodeAnother(RawURI{Value: &url.URL{Scheme: "http", Host: "example.com"}})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

// TestTextWrappers checks that decoding yields the wrapper types, not the
// embedded Text.
func TestTextWrappers(t *testing.T) {
	raw := RawText{Value: "payload"}

	if v, err := (ProperName{}).DecodeAnother(raw); err != nil {
		t.Error(err)
	} else if n, ok := v.(ProperName); !ok || n.V != "payload" {
		t.Errorf("unexpected value %#v", v)
	}

	if v, err := (AgentName{}).DecodeAnother(raw); err != nil {
		t.Error(err)
	} else if n, ok := v.(AgentName); !ok || n.V != "payload" {
		t.Errorf("unexpected value %#v", v)
	}

	if v, err := (MimeType{}).DecodeAnother(raw); err != nil {
		t.Error(err)
	} else if m, ok := v.(MimeType); !ok || m.V != "payload" {
		t.Errorf("unexpected value %#v", v)
	}

	if v, err := (GUID{}).DecodeAnother(raw); err != nil {
		t.Error(err)
	} else if g, ok := v.(GUID); !ok || g.V != "payload" {
		t.Errorf("unexpected value %#v", v)
	}

	if v, err := (RenditionClass{}).DecodeAnother(raw); err != nil {
		t.Error(err)
	} else if c, ok := v.(RenditionClass); !ok || c.V != "payload" {
		t.Errorf("unexpected value %#v", v)
	}
}

func TestURLValue(t *testing.T) {
	u := &url.URL{Scheme: "http", Host: "example.com", Path: "/doc"}

	if !(URL{}).IsZero() {
		t.Error("zero URL not zero")
	}
	if (URL{V: u}).IsZero() {
		t.Error("non-zero URL is zero")
	}

	v, err := URL{}.DecodeAnother(RawURI{Value: u})
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(URL); got.V.String() != "http://example.com/doc" {
		t.Errorf("unexpected value %v", got.V)
	}

	// URLs stored as plain text are accepted
	v, err = URL{}.DecodeAnother(RawText{Value: "http://example.com/other"})
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(URL); got.V.String() != "http://example.com/other" {
		t.Errorf("unexpected value %v", got.V)
	}

	_, err = URL{}.DecodeAnother(RawText{Value: "http://example.com/%zz"})
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("unexpected error %v", err)
	}
	_, err = URL{}.DecodeAnother(RawStruct{})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDateDecode(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2023-07-14T12:34:56.5Z", time.Date(2023, 7, 14, 12, 34, 56, 500000000, time.UTC)},
		{"2023-07-14T12:34:56Z", time.Date(2023, 7, 14, 12, 34, 56, 0, time.UTC)},
		{"2023-07-14T12:34:56+02:00", time.Date(2023, 7, 14, 12, 34, 56, 0, time.FixedZone("", 7200))},
		{"2023-07-14T12:34", time.Date(2023, 7, 14, 12, 34, 0, 0, time.UTC)},
		{"2023-07-14", time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC)},
		{"2023-07", time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"2023", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{" 2023-07-14 ", time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		v, err := Date{}.DecodeAnother(RawText{Value: tc.in})
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if got := v.(Date); !got.V.Equal(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.in, got.V, tc.want)
		}
	}

	_, err := Date{}.DecodeAnother(RawText{Value: "not a date"})
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("unexpected error %v", err)
	}
	_, err = Date{}.DecodeAnother(RawURI{Value: &url.URL{Scheme: "http", Host: "example.com"}})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDateEncode(t *testing.T) {
	d := Date{V: time.Date(2023, 7, 14, 12, 34, 56, 0, time.UTC)}
	if got := d.GetXMP().(RawText).Value; got != "2023-07-14T12:34:56Z" {
		t.Errorf("unexpected value %q", got)
	}

	d = Date{V: time.Date(2023, 7, 14, 12, 34, 56, 500000000, time.UTC)}
	if got := d.GetXMP().(RawText).Value; got != "2023-07-14T12:34:56.5Z" {
		t.Errorf("unexpected value %q", got)
	}

	// offset zones keep their offset
	d = Date{V: time.Date(2023, 7, 14, 12, 34, 56, 0, time.FixedZone("", 7200))}
	if got := d.GetXMP().(RawText).Value; got != "2023-07-14T12:34:56+02:00" {
		t.Errorf("unexpected value %q", got)
	}

	v, err := Date{}.DecodeAnother(d.GetXMP())
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(Date); !got.V.Equal(d.V) {
		t.Errorf("RoundTrip mismatch: %v != %v", got.V, d.V)
	}
}

func TestLocaleValue(t *testing.T) {
	if !(Locale{}).IsZero() {
		t.Error("zero locale not zero")
	}

	v, err := Locale{}.DecodeAnother(RawText{Value: "de-DE"})
	if err != nil {
		t.Fatal(err)
	}
	loc := v.(Locale)
	if loc.IsZero() || loc.V.String() != "de-DE" {
		t.Errorf("unexpected value %v", loc.V)
	}
	if got := loc.GetXMP().(RawText).Value; got != "de-DE" {
		t.Errorf("unexpected value %q", got)
	}

	_, err = Locale{}.DecodeAnother(RawText{Value: "no such language"})
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRealValue(t *testing.T) {
	if !(Real{}).IsZero() {
		t.Error("zero real not zero")
	}

	if got := (Real{V: 3.25}).GetXMP().(RawText).Value; got != "3.25" {
		t.Errorf("unexpected value %q", got)
	}
	if got := (Real{V: -2}).GetXMP().(RawText).Value; got != "-2" {
		t.Errorf("unexpected value %q", got)
	}

	cases := map[string]float64{
		"3.25":  3.25,
		" 2.5 ": 2.5,
		"1e3":   1000,
		"-7":    -7,
	}
	for in, want := range cases {
		v, err := Real{}.DecodeAnother(RawText{Value: in})
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got := v.(Real); got.V != want {
			t.Errorf("%q: got %v, want %v", in, got.V, want)
		}
	}

	_, err := Real{}.DecodeAnother(RawText{Value: "large"})
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestIntegerValue(t *testing.T) {
	if !(Integer{}).IsZero() {
		t.Error("zero integer not zero")
	}

	if got := (Integer{V: -12}).GetXMP().(RawText).Value; got != "-12" {
		t.Errorf("unexpected value %q", got)
	}

	cases := map[string]int64{
		"42":   42,
		" 7 ":  7,
		"-100": -100,
	}
	for in, want := range cases {
		v, err := Integer{}.DecodeAnother(RawText{Value: in})
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got := v.(Integer); got.V != want {
			t.Errorf("%q: got %v, want %v", in, got.V, want)
		}
	}

	for _, in := range []string{"3.5", "x"} {
		_, err := Integer{}.DecodeAnother(RawText{Value: in})
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("%q: unexpected error %v", in, err)
		}
	}
	if _, err := (Integer{}).DecodeAnother(RawStruct{}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestOptionalBool(t *testing.T) {
	if !(OptionalBool{}).IsZero() {
		t.Error("unset bool not zero")
	}
	if (OptionalBool{Set: true}).IsZero() {
		t.Error("set bool is zero")
	}

	if got := (OptionalBool{V: true, Set: true}).GetXMP().(RawText).Value; got != "True" {
		t.Errorf("unexpected value %q", got)
	}
	if got := (OptionalBool{Set: true}).GetXMP().(RawText).Value; got != "False" {
		t.Errorf("unexpected value %q", got)
	}

	cases := map[string]bool{
		"True":  true,
		"true":  true,
		"False": false,
		"FALSE": false,
	}
	for in, want := range cases {
		v, err := OptionalBool{}.DecodeAnother(RawText{Value: in})
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		got := v.(OptionalBool)
		if !got.Set || got.V != want {
			t.Errorf("%q: got %v, want %v", in, got.V, want)
		}
	}

	_, err := OptionalBool{}.DecodeAnother(RawText{Value: "yes"})
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestLocalized(t *testing.T) {
	in := Localized{
		Default: NewText("Hello"),
		V: map[language.Tag]Text{
			language.MustParse("de"): NewText("Hallo"),
			language.MustParse("fr"): NewText("Bonjour"),
		},
	}

	raw := in.GetXMP()
	arr, ok := raw.(RawArray)
	if !ok || arr.Kind != Alternative {
		t.Fatalf("unexpected value %#v", raw)
	}
	if !arr.IsAltText() {
		t.Error("not a language alternation")
	}
	if lang, _ := arr.Value[0].(RawText).Q.Lang(); lang != "x-default" {
		t.Errorf("default entry not first, got %q", lang)
	}
	if len(arr.Value) != 3 {
		t.Fatalf("unexpected number of items %d", len(arr.Value))
	}

	v, err := Localized{}.DecodeAnother(raw)
	if err != nil {
		t.Fatal(err)
	}
	out := v.(Localized)
	if out.Default.V != "Hello" {
		t.Errorf("unexpected default %q", out.Default.V)
	}
	if got := out.V[language.MustParse("de")].V; got != "Hallo" {
		t.Errorf("unexpected text %q", got)
	}
	if got := out.V[language.MustParse("fr")].V; got != "Bonjour" {
		t.Errorf("unexpected text %q", got)
	}
	if len(out.V) != 2 {
		t.Errorf("unexpected number of languages %d", len(out.V))
	}
}

func TestLocalizedLenient(t *testing.T) {
	// plain text counts as the default entry
	v, err := Localized{}.DecodeAnother(RawText{Value: "Hello"})
	if err != nil {
		t.Fatal(err)
	}
	if out := v.(Localized); out.Default.V != "Hello" || len(out.V) != 0 {
		t.Errorf("unexpected value %#v", out)
	}

	// text with a language qualifier becomes a single entry
	v, err = Localized{}.DecodeAnother(RawText{
		Value: "Hallo",
		Q:     Q{{attrXMLLang, RawText{Value: "de"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := v.(Localized)
	if out.Default.V != "" || out.V[language.MustParse("de")].V != "Hallo" {
		t.Errorf("unexpected value %#v", out)
	}

	// items without a language are skipped
	v, err = Localized{}.DecodeAnother(RawArray{
		Value: []Raw{
			RawText{Value: "no language"},
			RawText{Value: "Hallo", Q: Q{{attrXMLLang, RawText{Value: "de"}}}},
		},
		Kind: Alternative,
	})
	if err != nil {
		t.Fatal(err)
	}
	out = v.(Localized)
	if len(out.V) != 1 || out.V[language.MustParse("de")].V != "Hallo" {
		t.Errorf("unexpected value %#v", out)
	}

	_, err = Localized{}.DecodeAnother(RawStruct{})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestArrayValues(t *testing.T) {
	in := OrderedArray[Text]{
		V: []Text{NewText("one"), NewText("two"), NewText("three")},
	}
	raw := in.GetXMP()
	if arr := raw.(RawArray); arr.Kind != Ordered {
		t.Errorf("unexpected kind %v", arr.Kind)
	}

	v, err := OrderedArray[Text]{}.DecodeAnother(raw)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(v, Value(in)); d != "" {
		t.Errorf("unexpected value (-got +want):\n%s", d)
	}

	if kind := (UnorderedArray[Text]{V: []Text{NewText("x")}}).GetXMP().(RawArray).Kind; kind != Unordered {
		t.Errorf("unexpected kind %v", kind)
	}
	if kind := (AlternativeArray[Text]{V: []Text{NewText("x")}}).GetXMP().(RawArray).Kind; kind != Alternative {
		t.Errorf("unexpected kind %v", kind)
	}

	if !(UnorderedArray[Text]{}).IsZero() {
		t.Error("empty array not zero")
	}
}

func TestArrayDecodeLenient(t *testing.T) {
	// the container form of the input is not checked
	v, err := UnorderedArray[Text]{}.DecodeAnother(RawArray{
		Value: []Raw{RawText{Value: "x"}},
		Kind:  Ordered,
	})
	if err != nil {
		t.Fatal(err)
	}
	if a := v.(UnorderedArray[Text]); len(a.V) != 1 || a.V[0].V != "x" {
		t.Errorf("unexpected value %#v", a)
	}

	// items which cannot be decoded are skipped
	v, err = OrderedArray[Date]{}.DecodeAnother(RawArray{
		Value: []Raw{
			RawText{Value: "2023-07-14"},
			RawText{Value: "not a date"},
			RawText{Value: "2024-01-01"},
		},
		Kind: Ordered,
	})
	if err != nil {
		t.Fatal(err)
	}
	if a := v.(OrderedArray[Date]); len(a.V) != 2 {
		t.Errorf("unexpected value %#v", a)
	}

	_, err = UnorderedArray[Text]{}.DecodeAnother(RawText{Value: "x"})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestResourceRef(t *testing.T) {
	if !(ResourceRef{}).IsZero() {
		t.Error("empty reference not zero")
	}

	in := ResourceRef{
		DocumentID:     GUID{Text: NewText("xmp.did:1234")},
		InstanceID:     GUID{Text: NewText("xmp.iid:5678")},
		RenditionClass: RenditionClass{Text: NewText("thumbnail")},
	}
	if in.IsZero() {
		t.Error("non-empty reference is zero")
	}

	raw := in.GetXMP()
	s, ok := raw.(RawStruct)
	if !ok {
		t.Fatalf("unexpected value %#v", raw)
	}
	if len(s.Value) != 3 {
		t.Errorf("unexpected number of fields %d", len(s.Value))
	}
	if _, ok := s.Value[stRefRenditionParams]; ok {
		t.Error("zero field was stored")
	}

	v, err := ResourceRef{}.DecodeAnother(raw)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(v, Value(in)); d != "" {
		t.Errorf("unexpected value (-got +want):\n%s", d)
	}

	_, err = ResourceRef{}.DecodeAnother(RawText{Value: "x"})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestLanguageQualifier(t *testing.T) {
	q := Language(language.German)
	if q.Name != attrXMLLang {
		t.Errorf("unexpected name %v", q.Name)
	}
	if text, _ := q.Value.(RawText); text.Value != "de" {
		t.Errorf("unexpected value %v", q.Value)
	}
}
