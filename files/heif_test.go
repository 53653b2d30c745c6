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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// makeHEIF builds a heic file whose single item is located by an iloc
// extent offset pointing into the mdat payload.  extra boxes are placed in
// the meta box behind the item location.
func makeHEIF(extra ...[]byte) []byte {
	ftyp := makeBox("ftyp", []byte("heic"), make([]byte, 4))

	hdlr := makeBox("hdlr", make([]byte, 8), []byte("pict"), make([]byte, 12))

	// version 0, 4-byte offsets and lengths, no base offset; the extent
	// offset is the second-to-last field
	iloc := makeBox("iloc",
		[]byte{0, 0, 0, 0},
		[]byte{0x44, 0x00},
		[]byte{0, 1}, // item count
		[]byte{0, 1}, // item ID
		[]byte{0, 0}, // data reference index
		[]byte{0, 1}, // extent count
		be32(0), be32(8))

	metaParts := [][]byte{{0, 0, 0, 0}, hdlr, iloc}
	metaParts = append(metaParts, extra...)
	meta := makeBox("meta", metaParts...)

	out := append(ftyp, meta...)
	payload := len(out) + 8
	// patch the extent offset inside iloc
	ilocEnd := len(ftyp) + len(meta) - totalLen(extra)
	binary.BigEndian.PutUint32(out[ilocEnd-8:], uint32(payload))
	return append(out, makeBox("mdat", []byte(mp4Payload))...)
}

func totalLen(parts [][]byte) int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return n
}

// heifExtentOffset reads the patched extent offset back out of the file.
func heifExtentOffset(t *testing.T, data []byte) uint32 {
	t.Helper()
	f := bmff{format: "heif", data: data}
	top := mustBoxes(t, f, 0, len(data))
	meta, ok := findBox(top, "meta")
	if !ok {
		t.Fatal("missing meta box")
	}
	iloc, ok := findBox(mustBoxes(t, f, meta.body+4, meta.end), "iloc")
	if !ok {
		t.Fatal("missing iloc box")
	}
	return binary.BigEndian.Uint32(data[iloc.body+14:])
}

func TestHEIFWriteRead(t *testing.T) {
	h := heifHandler{}
	packet := []byte(testEnvelope)
	plain := makeHEIF()

	if _, err := h.ReadXMP(plain); !errors.Is(err, ErrNoXMP) {
		t.Fatalf("got error %v, want ErrNoXMP", err)
	}

	out, err := h.WriteXMP(plain, packet)
	if err != nil {
		t.Fatal(err)
	}
	got, err := h.ReadXMP(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, packet) {
		t.Errorf("packet not preserved:\ngot  %q\nwant %q", got, packet)
	}

	// the item data moved, the iloc extent offset must follow it
	off := heifExtentOffset(t, out)
	if string(out[off:off+8]) != mp4Payload {
		t.Error("extent offset no longer points at the item data")
	}

	restored, err := h.RemoveXMP(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, plain) {
		t.Error("removal did not restore the original file")
	}
}

func TestHEIFXMLBox(t *testing.T) {
	h := heifHandler{}
	oldPacket := []byte(testEnvelope)
	xml := makeBox("xml ", []byte{0, 0, 0, 0}, oldPacket)
	in := makeHEIF(xml)

	got, err := h.ReadXMP(in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, oldPacket) {
		t.Errorf("packet not read from xml box:\ngot  %q\nwant %q", got, oldPacket)
	}

	// updates replace the xml box with a uuid box
	out, err := h.WriteXMP(in, []byte("<?xpacket new?>"))
	if err != nil {
		t.Fatal(err)
	}
	got, err = h.ReadXMP(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<?xpacket new?>" {
		t.Errorf("got packet %q, want %q", got, "<?xpacket new?>")
	}
	if bytes.Contains(out, []byte("xml ")) {
		t.Error("xml box not removed")
	}
	off := heifExtentOffset(t, out)
	if string(out[off:off+8]) != mp4Payload {
		t.Error("extent offset no longer points at the item data")
	}
}

func TestHEIFIlocBase(t *testing.T) {
	// a version 1 iloc addressing its item through a base offset
	h := heifHandler{}
	ftyp := makeBox("ftyp", []byte("avif"), make([]byte, 4))
	iloc := makeBox("iloc",
		[]byte{1, 0, 0, 0},
		[]byte{0x44, 0x40},
		[]byte{0, 1}, // item count
		[]byte{0, 1}, // item ID
		[]byte{0, 0}, // construction method
		[]byte{0, 0}, // data reference index
		be32(0),      // base offset, patched below
		[]byte{0, 1}, // extent count
		be32(0), be32(8))
	meta := makeBox("meta", []byte{0, 0, 0, 0}, iloc)

	in := append(ftyp, meta...)
	base := len(in) + 8
	binary.BigEndian.PutUint32(in[len(in)-14:], uint32(base))
	in = append(in, makeBox("mdat", []byte(mp4Payload))...)

	out, err := h.WriteXMP(in, []byte("packet"))
	if err != nil {
		t.Fatal(err)
	}
	f := bmff{format: "heif", data: out}
	top := mustBoxes(t, f, 0, len(out))
	meta2, _ := findBox(top, "meta")
	iloc2, ok := findBox(mustBoxes(t, f, meta2.body+4, meta2.end), "iloc")
	if !ok {
		t.Fatal("missing iloc box")
	}
	got := binary.BigEndian.Uint32(out[iloc2.body+14:])
	if string(out[got:got+8]) != mp4Payload {
		t.Error("base offset no longer points at the item data")
	}
}

func TestHEIFMissingMeta(t *testing.T) {
	h := heifHandler{}
	in := append(makeBox("ftyp", []byte("heic"), make([]byte, 4)),
		makeBox("mdat", []byte(mp4Payload))...)
	_, err := h.WriteXMP(in, []byte("packet"))
	var cErr *ContainerError
	if !errors.As(err, &cErr) {
		t.Fatalf("got error %v, want ContainerError", err)
	}
}
