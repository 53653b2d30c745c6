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
	"errors"
	"reflect"
)

// DublinCore represents the properties in the Dublin Core namespace.
//
// See section 8.3 of ISO 16684-1:2011.
type DublinCore struct {
	_ Namespace `xmp:"http://purl.org/dc/elements/1.1/"`
	_ Prefix    `xmp:"dc"`

	// Contributor lists people or organisations who contributed to the
	// resource, beyond those named in Creator.
	Contributor UnorderedArray[ProperName] `xmp:"contributor"`

	// Coverage describes the spatial or temporal extent of the resource.
	Coverage Text `xmp:"coverage"`

	// Creator names the primary authors of the resource.  Where the order
	// carries meaning, entries are sorted by decreasing importance.
	Creator OrderedArray[ProperName] `xmp:"creator"`

	// Date holds dates of events in the life cycle of the resource, for
	// example creation or publication.
	Date OrderedArray[Date] `xmp:"date"`

	// Description holds a free-text account of the resource, possibly in
	// several languages.
	Description Localized `xmp:"description"`

	// Format is the MIME type of the resource.
	Format MimeType `xmp:"format"`

	// Identifier is a formal identifier of the resource within some context.
	Identifier Text `xmp:"identifier"`

	// Language lists the languages of the content of the resource.
	Language UnorderedArray[Locale] `xmp:"language"`

	// Publisher lists the entities responsible for making the resource
	// available.
	Publisher UnorderedArray[ProperName] `xmp:"publisher"`

	// Relation names resources related to this one.
	Relation UnorderedArray[Text] `xmp:"relation"`

	// Rights holds an informal statement about rights held over the
	// resource, possibly in several languages.
	Rights Localized `xmp:"rights"`

	// Source identifies the resource from which this one was derived.
	Source Text `xmp:"source"`

	// Subject holds keywords and key phrases describing the content.
	Subject UnorderedArray[Text] `xmp:"subject"`

	// Title is the name given to the resource, possibly in several
	// languages.
	Title Localized `xmp:"title"`

	// Type describes the genre of the resource.
	Type UnorderedArray[Text] `xmp:"type"`
}

// XMP represents the XMP basic namespace.
//
// See section 8.4 of ISO 16684-1:2011 for details.
type XMP struct {
	_ Namespace `xmp:"http://ns.adobe.com/xap/1.0/"`
	_ Prefix    `xmp:"xmp"`

	// CreateDate records when the resource was first created.
	CreateDate Date

	// CreatorTool names the first application known to have created the
	// resource.
	CreatorTool AgentName

	// Identifier holds identifiers of the resource in other systems.  An
	// item may carry an xmpidq:Scheme qualifier naming the identification
	// system it belongs to.
	Identifier UnorderedArray[Text]

	// Label is a short user-assigned name for the resource.
	Label Text

	// MetadataDate records when any metadata of the resource was last
	// changed.
	MetadataDate Date

	// ModifyDate records when the resource itself was last changed.
	ModifyDate Date

	// Rating is a user-assigned rating for this resource.
	//
	// The value must be -1 (rejected), 0 (unrated) or a rating in the range
	// (0, 5].
	Rating Real
}

// RightsManagement represents the XMP Rights Management namespace.
//
// See section 8.5 of ISO 16684-1:2011 for details.
type RightsManagement struct {
	_ Namespace `xmp:"http://ns.adobe.com/xap/1.0/rights/"`
	_ Prefix    `xmp:"xmpRights"`

	// Certificate points to a digital certificate backing the rights
	// information.  The field has type Text rather than URL for historical
	// reasons.
	Certificate Text

	// Marked indicates whether the resource is rights-managed.  An unset
	// value means the copyright state is unknown.
	Marked OptionalBool

	// Owner lists the legal owners of the resource.
	Owner UnorderedArray[ProperName]

	// UsageTerms describes how the resource may legally be used, possibly
	// in several languages.
	UsageTerms Localized

	// WebStatement is the URL of a page describing the rights status of the
	// resource.  The field has type Text rather than URL for historical
	// reasons.
	WebStatement Text
}

// MediaManagement represents the XMP Media Management namespace.
//
// See section 8.6 of ISO 16684-1:2011 for details.
type MediaManagement struct {
	_ Namespace `xmp:"http://ns.adobe.com/xap/1.0/mm/"`
	_ Prefix    `xmp:"xmpMM"`

	// DerivedFrom points to the resource this one was derived from.  Fields
	// left empty in the reference are taken to be unchanged from the
	// source.
	DerivedFrom ResourceRef

	// DocumentID is a unique identifier for the document, shared by all
	// versions and renditions.
	DocumentID GUID

	// InstanceID is a unique identifier for this version of the document.
	// A new instance ID is assigned every time the document is saved.
	InstanceID GUID

	// OriginalDocumentID is the identifier of the original document from
	// which the current document is derived.
	OriginalDocumentID GUID

	// RenditionClass names the rendition class of this resource.  The field
	// is only used for resources which are renditions of another resource.
	RenditionClass RenditionClass

	// RenditionParams can be used to provide additional rendition
	// parameters.
	RenditionParams Text
}

// modelField is one Value-typed field of a namespace struct.
type modelField struct {
	name string // XMP property name
	val  reflect.Value
}

// parseModel extracts the namespace URI, the preferred prefix and the list
// of Value fields from a namespace struct.
func parseModel(s reflect.Value) (namespace, prefix string, fields []modelField) {
	st := s.Type()
	for i := 0; i < st.NumField(); i++ {
		fVal := s.Field(i)
		fInfo := st.Field(i)

		switch fVal.Type() {
		case nsTagType:
			namespace = fInfo.Tag.Get("xmp")
			continue
		case prefixTagType:
			prefix = fInfo.Tag.Get("xmp")
			continue
		}
		if !fVal.CanInterface() || !fVal.Type().Implements(typeType) {
			continue
		}

		name := fInfo.Tag.Get("xmp")
		if name == "" {
			name = fInfo.Name
		}
		fields = append(fields, modelField{name: name, val: fVal})
	}
	return namespace, prefix, fields
}

// Set sets XMP properties from the fields of namespace structs.  Fields with
// zero values are removed from the packet.
func (p *Packet) Set(models ...any) error {
	for _, v := range models {
		if err := p.setOne(v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packet) setOne(v any) error {
	s := reflect.Indirect(reflect.ValueOf(v))
	if s.Kind() != reflect.Struct {
		return errors.New("no struct found")
	}

	namespace, prefix, fields := parseModel(s)
	if namespace == "" {
		return errors.New("XMP namespace not specified")
	}
	registerLenient(namespace, prefix)

	for _, f := range fields {
		val := f.val.Interface().(Value)
		if val.IsZero() {
			p.DeleteProperty(namespace, f.name)
			continue
		}
		if err := p.SetProperty(namespace, f.name, val.GetXMP()); err != nil {
			return err
		}
	}
	return nil
}

// Get fills the fields in a namespace struct using data from the packet.
// Missing properties zero the corresponding fields, and properties which do
// not fit the field type are skipped.
//
// The argument dst must be a pointer to an XMP namespace struct or the
// function will panic.
func (p *Packet) Get(dst any) {
	s := reflect.Indirect(reflect.ValueOf(dst))

	namespace, _, fields := parseModel(s)
	if namespace == "" {
		panic("not an XMP namespace struct")
	}

	for _, f := range fields {
		raw, ok := p.Properties[xml.Name{Space: namespace, Local: f.name}]
		if !ok {
			f.val.Set(reflect.Zero(f.val.Type()))
			continue
		}

		val := f.val.Interface().(Value)
		u, err := val.DecodeAnother(raw)
		if err != nil {
			continue
		}
		f.val.Set(reflect.ValueOf(u))
	}
}

var (
	nsTagType     = reflect.TypeOf((*Namespace)(nil)).Elem()
	prefixTagType = reflect.TypeOf((*Prefix)(nil)).Elem()
	typeType      = reflect.TypeOf((*Value)(nil)).Elem()
)

// Namespace marks a struct as an XMP namespace struct.  The namespace URI is
// given in the xmp struct tag of a blank field of this type:
//
//	type Sightings struct {
//	    _ Namespace `xmp:"http://ns.example.org/birds/"`
//	    ...
//	}
type Namespace struct{}

// Prefix optionally states the preferred XML prefix of a namespace struct,
// again using the xmp struct tag of a blank field:
//
//	type Sightings struct {
//	    _ Namespace `xmp:"http://ns.example.org/birds/"`
//	    _ Prefix    `xmp:"bird"`
//	    ...
//	}
//
// When no prefix is given, or the given prefix is already bound to another
// namespace, a prefix is invented when the packet is written.
type Prefix struct{}
