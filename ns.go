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
	"strings"
	"sync"

	"github.com/cavivie/xmpkit/internal/xmlenc"
)

const (
	// xmlNamespace is the namespace for XML.
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"

	// RDFNamespace is the namespace for RDF.
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// metaNamespace is the namespace of the x:xmpmeta wrapper element.
	metaNamespace = "adobe:ns:meta/"

	// stRefNamespace is the namespace for the fields of [ResourceRef].
	stRefNamespace = "http://ns.adobe.com/xap/1.0/sType/ResourceRef#"
)

// builtinPrefix lists the namespaces which are pre-registered in the global
// registry, together with their conventional prefixes.
var builtinPrefix = map[string]string{
	xmlNamespace:  "xml",
	RDFNamespace:  "rdf",
	metaNamespace: "x",
	"http://ns.adobe.com/xap/1.0/":                 "xmp",
	"http://ns.adobe.com/xap/1.0/mm/":              "xmpMM",     // XMP Media Management
	"http://ns.adobe.com/xap/1.0/rights/":          "xmpRights", // XMP Rights Management
	stRefNamespace:                                 "stRef",     // ResourceRef
	"http://ns.adobe.com/xmp/Identifier/qual/1.0/": "xmpidq",
	"http://purl.org/dc/elements/1.1/":             "dc", // Dublin Core
	"http://ns.adobe.com/exif/1.0/":                "exif",
	"http://ns.adobe.com/tiff/1.0/":                "tiff",
	"http://ns.adobe.com/photoshop/1.0/":           "photoshop",
	"http://ns.adobe.com/pdf/1.3/":                 "pdf",
}

// The global namespace registry.  Both maps are seeded from builtinPrefix on
// first use and grow as clients register additional namespaces.
var (
	nsOnce     sync.Once
	nsMutex    sync.RWMutex
	nsURIToPfx map[string]string
	nsPfxToURI map[string]string
)

func nsInit() {
	nsOnce.Do(func() {
		nsURIToPfx = make(map[string]string, len(builtinPrefix))
		nsPfxToURI = make(map[string]string, len(builtinPrefix))
		for uri, pfx := range builtinPrefix {
			nsURIToPfx[uri] = pfx
			nsPfxToURI[pfx] = uri
		}
	})
}

// RegisterNamespace adds a namespace URI and its preferred prefix to the
// global registry.  Registering an already registered pair is a no-op.
// If either the URI or the prefix is already registered with a different
// partner, the registry is left unchanged and [ErrNamespaceConflict] is
// returned.
func RegisterNamespace(uri, prefix string) error {
	if uri == "" || !isValidPrefix(prefix) {
		return ErrInvalidName
	}
	nsInit()
	nsMutex.Lock()
	defer nsMutex.Unlock()

	oldPfx, haveURI := nsURIToPfx[uri]
	_, havePfx := nsPfxToURI[prefix]
	if haveURI && oldPfx == prefix {
		return nil
	}
	if haveURI || havePfx {
		return ErrNamespaceConflict
	}
	nsURIToPfx[uri] = prefix
	nsPfxToURI[prefix] = uri
	return nil
}

// registerLenient registers a namespace binding on a best-effort basis,
// keeping existing registrations.  The parser uses this to pick up prefix
// declarations from input documents.
func registerLenient(uri, prefix string) {
	if uri == "" || !isValidPrefix(prefix) {
		return
	}
	nsInit()
	nsMutex.Lock()
	defer nsMutex.Unlock()
	if _, ok := nsURIToPfx[uri]; ok {
		return
	}
	if _, ok := nsPfxToURI[prefix]; ok {
		return
	}
	nsURIToPfx[uri] = prefix
	nsPfxToURI[prefix] = uri
}

// PrefixOf returns the registered prefix for a namespace URI.
func PrefixOf(uri string) (string, bool) {
	nsInit()
	nsMutex.RLock()
	defer nsMutex.RUnlock()
	pfx, ok := nsURIToPfx[uri]
	return pfx, ok
}

// NamespaceOf returns the namespace URI registered for a prefix.
func NamespaceOf(prefix string) (string, bool) {
	nsInit()
	nsMutex.RLock()
	defer nsMutex.RUnlock()
	uri, ok := nsPfxToURI[prefix]
	return uri, ok
}

// IsRegisteredNamespace reports whether the namespace URI is known to the
// global registry.
func IsRegisteredNamespace(uri string) bool {
	_, ok := PrefixOf(uri)
	return ok
}

// IsBuiltinNamespace reports whether the namespace URI is one of the
// pre-registered standard namespaces.
func IsBuiltinNamespace(uri string) bool {
	_, ok := builtinPrefix[uri]
	return ok
}

// Namespaces returns a copy of the global registry, as a map from namespace
// URIs to prefixes.
func Namespaces() map[string]string {
	nsInit()
	nsMutex.RLock()
	defer nsMutex.RUnlock()
	m := make(map[string]string, len(nsURIToPfx))
	for uri, pfx := range nsURIToPfx {
		m[uri] = pfx
	}
	return m
}

// isValidPrefix reports whether prefix can be used as an XML namespace
// prefix.  Prefixes starting with "xml" are reserved.
func isValidPrefix(prefix string) bool {
	if prefix == "" || strings.Contains(prefix, ":") {
		return false
	}
	if !xmlenc.IsName([]byte(prefix)) {
		return false
	}
	if len(prefix) >= 3 && strings.EqualFold(prefix[:3], "xml") {
		return false
	}
	return true
}
