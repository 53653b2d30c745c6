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
	"regexp"
	"strings"
	"testing"

	"encoding/xml"
	"net/url"

	"github.com/google/go-cmp/cmp"
)

type encodeTestCase struct {
	desc    string
	in      *Packet
	pattern []string
}

var encodeTestCases = []encodeTestCase{
	{
		desc: "simple non-URI value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawText{Value: "testvalue"},
			},
		},
		pattern: []string{"<test:prop>testvalue</test:prop>"},
	},
	{
		desc: "simple URI value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawURI{Value: &url.URL{Scheme: "http", Host: "example.com"}},
			},
		},
		pattern: []string{"<test:prop rdf:resource=\"http://example.com\"/>"},
	},
	{
		desc: "XML markup in text value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawText{Value: "<b>test</b>"},
			},
		},
		pattern: []string{"<test:prop>&lt;b&gt;test&lt;/b&gt;</test:prop>"},
	},
	{
		desc: "empty text value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawText{},
			},
		},
		pattern: []string{"<test:prop/>"},
	},
	{
		desc: "struct value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				{Space: testNamespace, Local: "s"}: RawStruct{
					Value: map[xml.Name]Raw{
						elemTestA: RawText{Value: "1", Q: Q{{elemTestQ, RawText{Value: "q"}}}},
						elemTestB: RawText{Value: "2", Q: Q{{elemTestQ, RawText{Value: "q"}}}},
						elemTestC: RawText{Value: "3", Q: Q{{elemTestQ, RawText{Value: "q"}}}},
					},
				},
			},
		},
		pattern: []string{
			"<test:s rdf:parseType=\"Resource\">",
			"<test:a>",
			"<rdf:Description>",
			"<rdf:value>1</rdf:value>",
			"<test:q>q</test:q>",
			"</rdf:Description>",
			"</test:a>",
			"<test:b>",
			"<rdf:Description>",
			"<rdf:value>2</rdf:value>",
			"<test:q>q</test:q>",
			"</rdf:Description>",
			"</test:b>",
			"<test:c>",
			"<rdf:Description>",
			"<rdf:value>3</rdf:value>",
			"<test:q>q</test:q>",
			"</rdf:Description>",
			"</test:c>",
			"</test:s>",
		},
	},
	{
		desc: "empty struct value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawStruct{},
			},
		},
		pattern: []string{"<test:prop rdf:parseType=\"Resource\"/>"},
	},
	{
		desc: "empty array value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawArray{Kind: Unordered},
			},
		},
		pattern: []string{
			"<test:prop>",
			"<rdf:Bag/>",
			"</test:prop>",
		},
	},
	{
		desc: "xml:lang on property",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawText{
					Value: "testvalue",
					Q:     Q{{Name: attrXMLLang, Value: RawText{Value: "de-DE"}}},
				},
			},
		},
		pattern: []string{"<test:prop xml:lang=\"de-DE\">testvalue</test:prop>"},
	},
	{
		desc: "xml:lang on URI value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawURI{
					Value: &url.URL{Scheme: "http", Host: "example.com"},
					Q:     Q{{Name: attrXMLLang, Value: RawText{Value: "fr"}}},
				},
			},
		},
		pattern: []string{"<test:prop xml:lang=\"fr\" rdf:resource=\"http://example.com\"/>"},
	},
	{
		desc: "xml:lang on structure field",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawStruct{
					Value: map[xml.Name]Raw{
						elemTestA: RawText{
							Value: "Hallo",
							Q:     Q{{Name: attrXMLLang, Value: RawText{Value: "de"}}},
						},
					},
				},
			},
		},
		pattern: []string{
			"<test:prop rdf:parseType=\"Resource\">",
			"<test:a xml:lang=\"de\">Hallo</test:a>",
			"</test:prop>",
		},
	},
	{
		desc: "xml:lang on array item",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawArray{
					Value: []Raw{
						RawText{Value: "a"},
						RawText{
							Value: "b",
							Q:     Q{{Name: attrXMLLang, Value: RawText{Value: "fr"}}},
						},
						RawText{Value: "c"},
					},
					Kind: Ordered,
				},
			},
		},
		pattern: []string{
			"<test:prop>",
			"<rdf:Seq>",
			"<rdf:li>a</rdf:li>",
			"<rdf:li xml:lang=\"fr\">b</rdf:li>",
			"<rdf:li>c</rdf:li>",
			"</rdf:Seq>",
			"</test:prop>",
		},
	},
	{
		desc: "alternative text array",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawArray{
					Value: []Raw{
						RawText{
							Value: "Hello",
							Q:     Q{{Name: attrXMLLang, Value: RawText{Value: "x-default"}}},
						},
						RawText{
							Value: "Hallo",
							Q:     Q{{Name: attrXMLLang, Value: RawText{Value: "de"}}},
						},
					},
					Kind: Alternative,
				},
			},
		},
		pattern: []string{
			"<test:prop>",
			"<rdf:Alt>",
			"<rdf:li xml:lang=\"x-default\">Hello</rdf:li>",
			"<rdf:li xml:lang=\"de\">Hallo</rdf:li>",
			"</rdf:Alt>",
			"</test:prop>",
		},
	},
	{
		desc: "general qualifiers",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawText{
					Value: "test value",
					Q: []Qualifier{
						{elemTestQ, RawText{Value: "qualifier"}},
					},
				},
			},
		},
		pattern: []string{
			"<test:prop>",
			"<rdf:Description>",
			"<rdf:value>test value</rdf:value>",
			"<test:q>qualifier</test:q>",
			"</rdf:Description>",
			"</test:prop>",
		},
	},
	{
		desc: "xml:lang on qualifier value",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawText{
					Value: "test value",
					Q: []Qualifier{
						{elemTestQ, RawText{
							Value: "qualifier",
							Q: []Qualifier{
								{attrXMLLang, RawText{Value: "te-ST"}},
							},
						}},
					},
				},
			},
		},
		pattern: []string{
			"<test:prop>",
			"<rdf:Description>",
			"<rdf:value>test value</rdf:value>",
			"<test:q xml:lang=\"te-ST\">qualifier</test:q>",
			"</rdf:Description>",
			"</test:prop>",
		},
	},
	{
		desc: "qualified array",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawArray{
					Value: []Raw{RawText{Value: "x"}},
					Kind:  Unordered,
					Q:     Q{{elemTestQ, RawText{Value: "q"}}},
				},
			},
		},
		pattern: []string{
			"<test:prop>",
			"<rdf:Description>",
			"<rdf:value>",
			"<rdf:Bag>",
			"<rdf:li>x</rdf:li>",
			"</rdf:Bag>",
			"</rdf:value>",
			"<test:q>q</test:q>",
			"</rdf:Description>",
			"</test:prop>",
		},
	},
	{
		desc: "array nested in structure",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawStruct{
					Value: map[xml.Name]Raw{
						elemTestA: RawArray{
							Value: []Raw{
								RawText{Value: "1"},
								RawText{Value: "2"},
							},
							Kind: Ordered,
						},
					},
				},
			},
		},
		pattern: []string{
			"<test:prop rdf:parseType=\"Resource\">",
			"<test:a>",
			"<rdf:Seq>",
			"<rdf:li>1</rdf:li>",
			"<rdf:li>2</rdf:li>",
			"</rdf:Seq>",
			"</test:a>",
			"</test:prop>",
		},
	},
	{
		desc: "typed node qualifier",
		in: &Packet{
			Properties: map[xml.Name]Raw{
				elemTest: RawStruct{
					Value: map[xml.Name]Raw{
						elemTestA: RawText{Value: "1"},
					},
					Q: Q{{
						Name:  attrRDFType,
						Value: RawURI{Value: &url.URL{Scheme: "http", Host: "ns.example.org", Path: "/test/Type"}},
					}},
				},
			},
		},
		pattern: []string{
			"<test:prop>",
			"<rdf:Description>",
			"<rdf:value rdf:parseType=\"Resource\">",
			"<test:a>1</test:a>",
			"</rdf:value>",
			"<rdf:type rdf:resource=\"http://ns.example.org/test/Type\"/>",
			"</rdf:Description>",
			"</test:prop>",
		},
	},
}

func TestRoundTrip(t *testing.T) {
	for i, tc := range encodeTestCases {
		t.Run(tc.desc, func(t *testing.T) {
			body, err := tc.in.Encode(true)
			if err != nil {
				t.Fatal(err)
			}

			bodyString := string(body)

			var parts []string
			for _, p := range tc.pattern {
				parts = append(parts, regexp.QuoteMeta(p))
			}
			pat := regexp.MustCompile(strings.Join(parts, `\s*`))

			if pat.FindString(bodyString) == "" {
				t.Fatalf("missing property %q in test case %d:\n%s",
					tc.pattern, i, bodyString)
			}

			out, err := Read(bytes.NewReader(body))
			if err != nil {
				t.Fatal(err)
			}

			if d := cmp.Diff(tc.in, out); d != "" {
				t.Fatalf("RoundTrip mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestEncodeCompact(t *testing.T) {
	p := NewPacket()
	p.Properties[elemTest] = RawText{Value: "testvalue"}

	body, err := p.Encode(false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "<test:prop>testvalue</test:prop>") {
		t.Errorf("missing property in %q", body)
	}

	out, err := Read(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(p, out); d != "" {
		t.Errorf("RoundTrip mismatch (-want +got):\n%s", d)
	}
}

func TestEncodeAbout(t *testing.T) {
	p := NewPacket()
	p.Properties[elemTest] = RawText{Value: "x"}
	p.About = &url.URL{Scheme: "http", Host: "example.com", Path: "/doc"}

	body, err := p.Encode(true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `rdf:about="http://example.com/doc"`) {
		t.Errorf("missing rdf:about in %q", body)
	}

	out, err := Read(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(p, out); d != "" {
		t.Errorf("RoundTrip mismatch (-want +got):\n%s", d)
	}
}

func TestPacketFraming(t *testing.T) {
	p := NewPacket()
	p.Properties[elemTest] = RawText{Value: "x"}

	body, err := p.Encode(true)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(body, []byte(`<?xpacket begin=`)) {
		t.Errorf("missing xpacket header in %q", body[:40])
	}
	if !bytes.HasSuffix(body, []byte(`<?xpacket end="r"?>`)) {
		t.Errorf("missing read-only xpacket trailer in %q", body[len(body)-40:])
	}

	body, err = p.EncodePacket(0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(body, []byte(`<?xpacket end="w"?>`)) {
		t.Errorf("missing writable xpacket trailer in %q", body[len(body)-40:])
	}
	if len(body)%4 != 0 {
		t.Errorf("packet length %d is not a multiple of four", len(body))
	}

	out, err := Read(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(p, out); d != "" {
		t.Errorf("RoundTrip mismatch (-want +got):\n%s", d)
	}
}

func TestEncodePacketSize(t *testing.T) {
	p := NewPacket()
	p.Properties[elemTest] = RawText{Value: "x"}

	body, err := p.EncodePacket(4096)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) != 4096 {
		t.Errorf("packet length %d, expected 4096", len(body))
	}

	// Requests smaller than the unpadded packet are satisfied without
	// removing content.
	body, err = p.EncodePacket(16)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) < 16 || len(body)%4 != 0 {
		t.Errorf("unexpected packet length %d", len(body))
	}
	out, err := Read(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(p, out); d != "" {
		t.Errorf("RoundTrip mismatch (-want +got):\n%s", d)
	}
}

func TestEncodeErrors(t *testing.T) {
	for _, v := range []Raw{
		nil,
		RawURI{},
		RawArray{Value: []Raw{RawText{Value: "x"}}},
	} {
		p := NewPacket()
		p.Properties[elemTest] = v
		if _, err := p.Encode(true); err == nil {
			t.Errorf("expected error for %#v", v)
		}
	}
}
