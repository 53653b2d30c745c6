// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xmlenc is a token-level XML printer derived from the encoder in
// encoding/xml.  It differs from the standard library in two ways needed for
// XMP serialization: it can write empty elements (<a/>), and it uses the XMP
// escaping rules (only '&', '<', '>' in character data, additionally '"' in
// attribute values, and CR as a character reference).
package xmlenc

import (
	"encoding/xml"
	"io"
	"unicode"
	"unicode/utf8"
)

// A Token is any XML token accepted by [Encoder.EncodeToken].  In addition to
// the token types from encoding/xml, an [EmptyElement] is accepted.
type Token = xml.Token

// An EmptyElement represents an XML element with no content, written in the
// short form <name attr="value"/>.
type EmptyElement struct {
	Name xml.Name
	Attr []xml.Attr
}

const (
	xmlURL    = "http://www.w3.org/XML/1998/namespace"
	xmlPrefix = "xml"
)

var (
	escAmp  = []byte("&amp;")
	escLT   = []byte("&lt;")
	escGT   = []byte("&gt;")
	escQuot = []byte("&quot;")
	escCR   = []byte("&#xD;")
)

// escapeText writes the properly escaped version of s to w.  In attribute
// values the double quote is escaped in addition to the markup characters.
func escapeText(w io.Writer, s []byte, inAttr bool) error {
	var esc []byte
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			esc = escAmp
		case '<':
			esc = escLT
		case '>':
			esc = escGT
		case '"':
			if !inAttr {
				continue
			}
			esc = escQuot
		case '\r':
			esc = escCR
		default:
			continue
		}
		if _, err := w.Write(s[last:i]); err != nil {
			return err
		}
		if _, err := w.Write(esc); err != nil {
			return err
		}
		last = i + 1
	}
	_, err := w.Write(s[last:])
	return err
}

// EscapeString writes an escaped attribute value.
func (p *printer) EscapeString(s string) {
	escapeText(p, []byte(s), true)
}

// IsName reports whether s is a valid XML name.
//
// This is a simplified check: name start characters are letters, '_' and ':',
// and name characters additionally include digits, '-', '.' and the middle
// dot.  This covers all names occurring in XMP data.
func IsName(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRune(s[i:])
		if r == utf8.RuneError && size == 1 {
			return false
		}
		if i == 0 {
			if !isNameStart(r) {
				return false
			}
		} else if !isNameChar(r) {
			return false
		}
		i += size
	}
	return true
}

func isNameString(s string) bool {
	return IsName([]byte(s))
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == ':'
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == 0xB7
}
