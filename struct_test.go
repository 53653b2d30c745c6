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
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
)

func TestTag(t *testing.T) {
	dc1 := &DublinCore{}
	dc1.Date.Append(NewDate(time.Now()))
	dc1.Title.Set(language.English, "Hello, World!")
	dc1.Title.Set(language.German, "Grüß Gott!")
	dc1.Title.Default = NewText("Hello, World!")

	p := NewPacket()
	err := p.Set(dc1)
	if err != nil {
		t.Fatal(err)
	}

	dc2 := DublinCore{}
	p.Get(&dc2)

	if d := cmp.Diff(dc1, &dc2); d != "" {
		t.Errorf("dc1 and dc2 differ (-want +got):\n%s", d)
	}
}

func TestModelRoundTrip(t *testing.T) {
	basic := &XMP{
		CreateDate:  NewDate(time.Date(2023, 7, 14, 12, 34, 56, 0, time.UTC)),
		CreatorTool: AgentName{Text: NewText("xmpkit 1.0")},
		ModifyDate:  NewDate(time.Date(2024, 1, 15, 9, 30, 0, 0, time.FixedZone("", 2*60*60))),
		Rating:      Real{V: 3},
	}
	mm := &MediaManagement{
		DocumentID: GUID{Text: NewText("xmp.did:87a2c5b4-0f3e-4b0e-9d42-bf2f1a2c9a01")},
		InstanceID: GUID{Text: NewText("xmp.iid:87a2c5b4-0f3e-4b0e-9d42-bf2f1a2c9a02")},
		DerivedFrom: ResourceRef{
			DocumentID:     GUID{Text: NewText("xmp.did:87a2c5b4-0f3e-4b0e-9d42-bf2f1a2c9a00")},
			RenditionClass: RenditionClass{Text: NewText("proof")},
		},
	}
	rights := &RightsManagement{
		Marked:       OptionalBool{V: true, Set: true},
		WebStatement: NewText("https://example.com/rights"),
	}
	rights.Owner.Append(ProperName{Text: NewText("Jane Doe")})
	rights.UsageTerms.Default = NewText("All rights reserved.")

	p := NewPacket()
	if err := p.Set(basic, mm, rights); err != nil {
		t.Fatal(err)
	}

	body, err := p.Encode(true)
	if err != nil {
		t.Fatal(err)
	}
	q, err := Read(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	basic2 := XMP{}
	q.Get(&basic2)
	if d := cmp.Diff(basic, &basic2); d != "" {
		t.Errorf("XMP properties differ (-want +got):\n%s", d)
	}

	mm2 := MediaManagement{}
	q.Get(&mm2)
	if d := cmp.Diff(mm, &mm2); d != "" {
		t.Errorf("media management properties differ (-want +got):\n%s", d)
	}

	rights2 := RightsManagement{}
	q.Get(&rights2)
	if d := cmp.Diff(rights, &rights2); d != "" {
		t.Errorf("rights properties differ (-want +got):\n%s", d)
	}
}

func TestSetZeroFields(t *testing.T) {
	const dcNamespace = "http://purl.org/dc/elements/1.1/"

	p := NewPacket()
	dc := &DublinCore{
		Coverage:   NewText("17th century"),
		Identifier: NewText("doc-1"),
	}
	if err := p.Set(dc); err != nil {
		t.Fatal(err)
	}
	if !p.HasProperty(dcNamespace, "coverage") {
		t.Fatal("coverage property is missing")
	}

	dc.Coverage = Text{}
	if err := p.Set(dc); err != nil {
		t.Fatal(err)
	}
	if p.HasProperty(dcNamespace, "coverage") {
		t.Error("zero field was not removed from the packet")
	}
	if !p.HasProperty(dcNamespace, "identifier") {
		t.Error("identifier property is missing")
	}
}

func TestSetErrors(t *testing.T) {
	p := NewPacket()

	if err := p.Set(42); err == nil {
		t.Error("no error for a non-struct model")
	}

	type noNamespace struct {
		Title Text
	}
	if err := p.Set(&noNamespace{Title: NewText("x")}); err == nil {
		t.Error("no error for a struct without a namespace tag")
	}
}

func TestGetLenient(t *testing.T) {
	const dcNamespace = "http://purl.org/dc/elements/1.1/"

	p := NewPacket()
	err := p.SetProperty(dcNamespace, "format", RawStruct{})
	if err != nil {
		t.Fatal(err)
	}

	dc := DublinCore{
		Format:   MimeType{Text: NewText("application/pdf")},
		Coverage: NewText("stale"),
	}
	p.Get(&dc)

	// Properties which do not fit the field type are skipped.
	if dc.Format.V != "application/pdf" {
		t.Errorf("mismatched property overwrote the field: %q", dc.Format.V)
	}

	// Missing properties zero the corresponding fields.
	if !dc.Coverage.IsZero() {
		t.Errorf("missing property did not zero the field: %q", dc.Coverage.V)
	}
}

type birdSighting struct {
	_ Namespace `xmp:"http://ns.example.org/birds/"`
	_ Prefix    `xmp:"bird"`

	Species ProperName `xmp:"species"`
	Count   Real
}

func TestNamespaceStruct(t *testing.T) {
	const birdNamespace = "http://ns.example.org/birds/"

	b1 := &birdSighting{
		Species: ProperName{Text: NewText("Erithacus rubecula")},
		Count:   Real{V: 2},
	}

	p := NewPacket()
	if err := p.Set(b1); err != nil {
		t.Fatal(err)
	}

	if pfx, ok := PrefixOf(birdNamespace); !ok || pfx != "bird" {
		t.Errorf("namespace prefix not registered: %q, %t", pfx, ok)
	}
	if !p.HasProperty(birdNamespace, "species") {
		t.Error("tagged field name was not used")
	}
	if !p.HasProperty(birdNamespace, "Count") {
		t.Error("Go field name was not used")
	}

	body, err := p.Encode(true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "bird:species") {
		t.Error("registered prefix was not used in the output")
	}

	q, err := Read(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	b2 := birdSighting{}
	q.Get(&b2)
	if d := cmp.Diff(b1, &b2); d != "" {
		t.Errorf("sightings differ (-want +got):\n%s", d)
	}
}
