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
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// PDF files hold the XMP packet in a metadata stream referenced from the
// document catalog.  Changes are written as incremental updates: revised
// objects and a cross-reference section are appended, the original bytes
// stay untouched.  Documents whose catalog lives in a compressed object
// stream can have an existing metadata stream replaced, but not a first
// one added.
type pdfHandler struct{}

func (pdfHandler) Name() string {
	return "pdf"
}

func (pdfHandler) Extensions() []string {
	return []string{"pdf"}
}

func (pdfHandler) CanHandle(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

var (
	pdfObjRe         = regexp.MustCompile(`(\d+)\s+(\d+)\s+obj\b`)
	pdfMetadataRe    = regexp.MustCompile(`/Type\s*/Metadata`)
	pdfXMLRe         = regexp.MustCompile(`/Subtype\s*/XML`)
	pdfStreamRe      = regexp.MustCompile(`stream\r?\n`)
	pdfLengthRe      = regexp.MustCompile(`/Length\s+(\d+)(\s+\d+\s+R)?`)
	pdfFilterRe      = regexp.MustCompile(`/Filter\s*[/\[]`)
	pdfRootRe        = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
	pdfSizeRe        = regexp.MustCompile(`/Size\s+(\d+)`)
	pdfMetadataRefRe = regexp.MustCompile(`/Metadata\s+\d+\s+\d+\s+R`)
	pdfStartXrefRe   = regexp.MustCompile(`\A\s*(\d+)`)
)

type pdfObject struct {
	num, gen   int
	start, end int // of the whole object, past "endobj"
	body       int // offset after the "obj" keyword
}

// pdfObjects scans for top-level indirect objects.  Matches inside the
// stream of a preceding object are skipped.
func pdfObjects(data []byte) []pdfObject {
	var objs []pdfObject
	lastEnd := 0
	for _, m := range pdfObjRe.FindAllSubmatchIndex(data, -1) {
		if m[0] < lastEnd {
			continue
		}
		if m[0] > 0 {
			switch data[m[0]-1] {
			case ' ', '\t', '\r', '\n', '>', ']':
			default:
				continue
			}
		}
		end := bytes.Index(data[m[1]:], []byte("endobj"))
		if end < 0 {
			continue
		}
		num, _ := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, _ := strconv.Atoi(string(data[m[4]:m[5]]))
		o := pdfObject{
			num:   num,
			gen:   gen,
			start: m[0],
			body:  m[1],
			end:   m[1] + end + len("endobj"),
		}
		objs = append(objs, o)
		lastEnd = o.end
	}
	return objs
}

func pdfObjectByNum(objs []pdfObject, num int) (pdfObject, bool) {
	var found pdfObject
	ok := false
	for _, o := range objs {
		if o.num == num {
			found, ok = o, true
		}
	}
	return found, ok
}

// pdfFindMetadata returns the metadata stream object.  With incremental
// updates the same object number can occur several times; only the newest
// revision counts.
func pdfFindMetadata(data []byte, objs []pdfObject) (pdfObject, bool) {
	var found pdfObject
	ok := false
	for _, o := range objs {
		if cur, _ := pdfObjectByNum(objs, o.num); cur.start != o.start {
			continue
		}
		body := data[o.body:o.end]
		if pdfMetadataRe.Match(body) && pdfXMLRe.Match(body) {
			found, ok = o, true
		}
	}
	return found, ok
}

func pdfStreamData(data []byte, o pdfObject) ([]byte, error) {
	body := data[o.body:o.end]
	loc := pdfStreamRe.FindIndex(body)
	if loc == nil {
		return nil, containerError("pdf", "metadata object has no stream")
	}
	if pdfFilterRe.Match(body[:loc[0]]) {
		return nil, containerError("pdf", "metadata stream is compressed")
	}
	start := loc[1]

	if m := pdfLengthRe.FindSubmatch(body[:loc[0]]); m != nil && len(m[2]) == 0 {
		if n, err := strconv.Atoi(string(m[1])); err == nil && start+n <= len(body) {
			rest := bytes.TrimLeft(body[start+n:], "\r\n")
			if bytes.HasPrefix(rest, []byte("endstream")) {
				return bytes.Clone(body[start : start+n]), nil
			}
		}
	}

	end := bytes.Index(body[start:], []byte("endstream"))
	if end < 0 {
		return nil, containerError("pdf", "unterminated metadata stream")
	}
	return bytes.Clone(bytes.TrimRight(body[start:start+end], "\r\n")), nil
}

func pdfCheck(data []byte) error {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return containerError("pdf", "missing PDF header")
	}
	return nil
}

func (pdfHandler) ReadXMP(data []byte) ([]byte, error) {
	if err := pdfCheck(data); err != nil {
		return nil, err
	}
	o, ok := pdfFindMetadata(data, pdfObjects(data))
	if !ok {
		return nil, ErrNoXMP
	}
	return pdfStreamData(data, o)
}

func (pdfHandler) WriteXMP(data, packet []byte) ([]byte, error) {
	if err := pdfCheck(data); err != nil {
		return nil, err
	}
	objs := pdfObjects(data)
	prev, ok := pdfLastStartXref(data)
	if !ok {
		return nil, containerError("pdf", "missing startxref")
	}
	rootNum, rootGen, ok := pdfFindRoot(data)
	if !ok {
		return nil, containerError("pdf", "missing document catalog reference")
	}

	maxNum := rootNum
	for _, o := range objs {
		if o.num > maxNum {
			maxNum = o.num
		}
	}

	meta, haveMeta := pdfFindMetadata(data, objs)
	metaNum, metaGen := meta.num, meta.gen
	if !haveMeta {
		maxNum++
		metaNum, metaGen = maxNum, 0
	}

	out := bytes.Clone(data)
	if out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	updates := []pdfUpdate{{num: metaNum, gen: metaGen, offset: len(out)}}
	out = append(out, pdfMetadataObject(metaNum, metaGen, packet)...)

	if !haveMeta {
		cat, ok := pdfObjectByNum(objs, rootNum)
		if !ok {
			return nil, containerError("pdf", "document catalog not found")
		}
		body, err := pdfCatalogWithMetadata(data, cat, metaNum, metaGen)
		if err != nil {
			return nil, err
		}
		updates = append(updates, pdfUpdate{num: cat.num, gen: cat.gen, offset: len(out)})
		out = append(out, body...)
	}

	return pdfAppendXref(out, data, updates, maxNum, rootNum, rootGen, prev)
}

func (pdfHandler) RemoveXMP(data []byte) ([]byte, error) {
	if err := pdfCheck(data); err != nil {
		return nil, err
	}
	objs := pdfObjects(data)
	meta, haveMeta := pdfFindMetadata(data, objs)
	if !haveMeta {
		return data, nil
	}
	prev, ok := pdfLastStartXref(data)
	if !ok {
		return nil, containerError("pdf", "missing startxref")
	}
	rootNum, rootGen, ok := pdfFindRoot(data)
	if !ok {
		return nil, containerError("pdf", "missing document catalog reference")
	}
	cat, ok := pdfObjectByNum(objs, rootNum)
	if !ok {
		return nil, containerError("pdf", "document catalog not found")
	}

	maxNum := rootNum
	for _, o := range objs {
		if o.num > maxNum {
			maxNum = o.num
		}
	}

	out := bytes.Clone(data)
	if out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	body := pdfMetadataRefRe.ReplaceAll(data[cat.start:cat.end], nil)
	body = bytes.Clone(body)
	if body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}
	updates := []pdfUpdate{{num: cat.num, gen: cat.gen, offset: len(out)}}
	out = append(out, body...)

	// a null revision supersedes the old metadata stream
	updates = append(updates, pdfUpdate{num: meta.num, gen: meta.gen, offset: len(out)})
	out = append(out, fmt.Sprintf("%d %d obj\nnull\nendobj\n", meta.num, meta.gen)...)

	return pdfAppendXref(out, data, updates, maxNum, rootNum, rootGen, prev)
}

func pdfLastStartXref(data []byte) (int, bool) {
	i := bytes.LastIndex(data, []byte("startxref"))
	if i < 0 {
		return 0, false
	}
	m := pdfStartXrefRe.FindSubmatch(data[i+len("startxref"):])
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// pdfFindRoot takes the catalog reference from the newest trailer or
// cross-reference stream dictionary.
func pdfFindRoot(data []byte) (num, gen int, ok bool) {
	ms := pdfRootRe.FindAllSubmatch(data, -1)
	if len(ms) == 0 {
		return 0, 0, false
	}
	m := ms[len(ms)-1]
	num, _ = strconv.Atoi(string(m[1]))
	gen, _ = strconv.Atoi(string(m[2]))
	return num, gen, true
}

func pdfFindSize(data []byte) (int, bool) {
	ms := pdfSizeRe.FindAllSubmatch(data, -1)
	if len(ms) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(ms[len(ms)-1][1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func pdfMetadataObject(num, gen int, packet []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d %d obj\n<< /Type /Metadata /Subtype /XML /Length %d >>\nstream\n",
		num, gen, len(packet))
	b.Write(packet)
	b.WriteString("\nendstream\nendobj\n")
	return b.Bytes()
}

// pdfCatalogWithMetadata returns a revision of the catalog object which
// references the given metadata object.
func pdfCatalogWithMetadata(data []byte, cat pdfObject, num, gen int) ([]byte, error) {
	body := bytes.Clone(data[cat.start:cat.end])
	ref := fmt.Sprintf("/Metadata %d %d R", num, gen)
	if pdfMetadataRefRe.Match(body) {
		body = pdfMetadataRefRe.ReplaceAll(body, []byte(ref))
	} else {
		i := bytes.LastIndex(body, []byte(">>"))
		if i < 0 {
			return nil, containerError("pdf", "malformed catalog dictionary")
		}
		body = splice(body, i, i, []byte(" "+ref+" "))
	}
	if body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}
	return body, nil
}

type pdfUpdate struct {
	num, gen, offset int
}

// pdfAppendXref writes the cross-reference section for the appended
// objects, matching the style of the previous one.
func pdfAppendXref(out, orig []byte, updates []pdfUpdate, maxNum, rootNum, rootGen, prev int) ([]byte, error) {
	sort.Slice(updates, func(i, j int) bool { return updates[i].num < updates[j].num })
	size := maxNum + 1
	if s, ok := pdfFindSize(orig); ok && s > size {
		size = s
	}
	if pdfUsesXrefStream(orig) {
		return pdfAppendXrefStream(out, updates, size, rootNum, rootGen, prev), nil
	}
	return pdfAppendXrefTable(out, updates, size, rootNum, rootGen, prev), nil
}

func pdfUsesXrefStream(data []byte) bool {
	off, ok := pdfLastStartXref(data)
	if !ok || off < 0 || off >= len(data) {
		return false
	}
	return !bytes.HasPrefix(bytes.TrimLeft(data[off:], " \t\r\n"), []byte("xref"))
}

func pdfAppendXrefTable(out []byte, updates []pdfUpdate, size, rootNum, rootGen, prev int) []byte {
	xrefPos := len(out)
	var b bytes.Buffer
	b.WriteString("xref\n")
	for i := 0; i < len(updates); {
		j := i + 1
		for j < len(updates) && updates[j].num == updates[j-1].num+1 {
			j++
		}
		fmt.Fprintf(&b, "%d %d\n", updates[i].num, j-i)
		for _, u := range updates[i:j] {
			fmt.Fprintf(&b, "%010d %05d n\r\n", u.offset, u.gen)
		}
		i = j
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root %d %d R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		size, rootNum, rootGen, prev, xrefPos)
	return append(out, b.Bytes()...)
}

func pdfAppendXrefStream(out []byte, updates []pdfUpdate, size, rootNum, rootGen, prev int) []byte {
	// The cross-reference stream is an object itself and lists its own
	// offset.
	xnum := size
	size = xnum + 1
	xrefPos := len(out)
	updates = append(updates, pdfUpdate{num: xnum, offset: xrefPos})

	var index, entries bytes.Buffer
	for i := 0; i < len(updates); {
		j := i + 1
		for j < len(updates) && updates[j].num == updates[j-1].num+1 {
			j++
		}
		fmt.Fprintf(&index, " %d %d", updates[i].num, j-i)
		for _, u := range updates[i:j] {
			var e [7]byte
			e[0] = 1
			binary.BigEndian.PutUint32(e[1:5], uint32(u.offset))
			binary.BigEndian.PutUint16(e[5:7], uint16(u.gen))
			entries.Write(e[:])
		}
		i = j
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%d 0 obj\n<< /Type /XRef /Size %d /Root %d %d R /Prev %d /W [1 4 2] /Index [%s ] /Length %d >>\nstream\n",
		xnum, size, rootNum, rootGen, prev, index.String(), entries.Len())
	b.Write(entries.Bytes())
	b.WriteString("\nendstream\nendobj\nstartxref\n")
	fmt.Fprintf(&b, "%d\n%%%%EOF\n", xrefPos)
	return append(out, b.Bytes()...)
}
