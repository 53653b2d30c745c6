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

package files

import (
	"errors"
	"testing"
)

const testEnvelope = `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>` +
	`<x:xmpmeta xmlns:x="adobe:ns:meta/"></x:xmpmeta>` +
	`<?xpacket end="w"?>`

func TestScanPacket(t *testing.T) {
	type testCase struct {
		desc       string
		in         string
		start, end int
		err        error
	}
	cases := []testCase{
		{
			desc:  "bare packet",
			in:    testEnvelope,
			start: 0,
			end:   len(testEnvelope),
		},
		{
			desc:  "embedded packet",
			in:    "garbage" + testEnvelope + "\x00\x01\x02",
			start: 7,
			end:   7 + len(testEnvelope),
		},
		{
			desc: "no packet",
			in:   "some unrelated file contents",
			err:  ErrNoXMP,
		},
		{
			desc: "begin without end",
			in:   `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?><x:xmpmeta/>`,
			err:  ErrNoXMP,
		},
		{
			desc: "unterminated end instruction",
			in:   `<?xpacket begin=""?><x:xmpmeta/><?xpacket end="w"`,
			err:  ErrNoXMP,
		},
		{
			desc: "empty input",
			in:   "",
			err:  ErrNoXMP,
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			start, end, err := ScanPacket([]byte(c.in))
			if !errors.Is(err, c.err) {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if err != nil {
				return
			}
			if start != c.start || end != c.end {
				t.Errorf("got range %d:%d, want %d:%d", start, end, c.start, c.end)
			}
		})
	}
}
