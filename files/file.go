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
	"encoding/xml"
	"errors"
	"io"
	"os"

	xmp "github.com/cavivie/xmpkit"
)

// xmpNoteNS is the namespace of the xmpNote:HasExtendedXMP property which
// links a JPEG main packet to its ExtendedXMP segments.
const xmpNoteNS = "http://ns.adobe.com/xmp/note/"

var errOnlyXMP = errors.New("container data not retained (OnlyXMP)")

// ReadOptions control how [Open], [ReadFrom] and [FromBytes] process a
// container file.  The zero value opens the file read-only, using a format
// handler when one recognises the data and the packet scanner otherwise.
type ReadOptions struct {
	// ForUpdate allows the XMP metadata to be modified.  Without it,
	// PutXMP and RemoveXMP fail with [ErrNotWritable].
	ForUpdate bool

	// OnlyXMP discards the container data once the packet has been
	// extracted.  This saves memory when only the metadata is of
	// interest, but rules out updates, access to the container bytes,
	// and legacy metadata reconciliation.
	OnlyXMP bool

	// RequireHandler makes opening fail with a [ContainerError] when no
	// handler recognises the file format, instead of falling back to the
	// packet scanner.
	RequireHandler bool

	// PacketScan skips format detection and locates the packet by
	// scanning for its envelope.  Updates then overwrite the packet in
	// place, so the new packet must fit the space of the old one.
	PacketScan bool
}

// A File is a container file opened for access to its XMP metadata.
//
// The file contents are held in memory.  Metadata updates modify the
// in-memory copy only; use [File.WriteFile], [File.WriteTo] or [File.Bytes]
// to obtain the updated container.
type File struct {
	data    []byte
	handler Handler
	opts    ReadOptions

	packet []byte // raw XMP packet, nil when the file has none
	ext    []byte // reassembled JPEG ExtendedXMP, nil when absent

	// packet position in data, for in-place updates in scan mode
	scanStart, scanEnd int
}

// Open reads the named container file and extracts its XMP metadata.
// A nil opts is equivalent to the zero [ReadOptions].
func Open(path string, opts *ReadOptions) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(data, opts)
}

// ReadFrom reads a complete container file from r and extracts its XMP
// metadata.  A nil opts is equivalent to the zero [ReadOptions].
func ReadFrom(r io.Reader, opts *ReadOptions) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromBytes(data, opts)
}

// FromBytes extracts the XMP metadata of the container file stored in data.
// The data is not copied; it must not be modified while the File is in use.
// A nil opts is equivalent to the zero [ReadOptions].
func FromBytes(data []byte, opts *ReadOptions) (*File, error) {
	f := &File{
		data:      data,
		scanStart: -1,
		scanEnd:   -1,
	}
	if opts != nil {
		f.opts = *opts
	}

	if !f.opts.PacketScan {
		f.handler = handlerFor(data)
		if f.handler == nil && f.opts.RequireHandler {
			return nil, containerError("unknown", "no handler recognises the file format")
		}
	}

	if f.handler != nil {
		packet, err := f.handler.ReadXMP(data)
		switch {
		case err == nil:
			f.packet = packet
		case errors.Is(err, ErrNoXMP):
			// a valid file without metadata
		default:
			return nil, err
		}
		if _, isJPEG := f.handler.(jpegHandler); isJPEG && f.packet != nil {
			ext, err := jpegExtendedXMP(data)
			switch {
			case err == nil:
				f.ext = ext
			case errors.Is(err, ErrNoXMP):
			default:
				return nil, err
			}
		}
	} else {
		start, end, err := ScanPacket(data)
		switch {
		case err == nil:
			f.packet = bytes.Clone(data[start:end])
			f.scanStart, f.scanEnd = start, end
		case errors.Is(err, ErrNoXMP):
		default:
			return nil, err
		}
	}

	if f.opts.OnlyXMP {
		f.data = nil
	}
	return f, nil
}

// Format returns the name of the detected container format.  The result is
// the empty string when the file was opened by packet scanning.
func (f *File) Format() string {
	if f.handler != nil {
		return f.handler.Name()
	}
	return ""
}

// XMPBytes returns the raw bytes of the embedded XMP packet, or nil when the
// file contains none.
func (f *File) XMPBytes() []byte {
	return bytes.Clone(f.packet)
}

// XMP returns the parsed XMP metadata of the file.
//
// For JPEG files, properties from the ExtendedXMP packet are merged in,
// with properties of the main packet taking precedence.  For WAV and AVI
// files, legacy LIST INFO metadata fills in properties the XMP does not set.
// If the file carries no metadata at all, the error is [ErrNoXMP].
func (f *File) XMP() (*xmp.Packet, error) {
	var p *xmp.Packet
	if f.packet != nil {
		var err error
		p, err = xmp.Read(bytes.NewReader(f.packet))
		if err != nil {
			return nil, err
		}
		if f.ext != nil {
			ext, err := xmp.Read(bytes.NewReader(f.ext))
			if err != nil {
				return nil, err
			}
			for name, value := range ext.Properties {
				if _, present := p.Properties[name]; !present {
					p.Properties[name] = value
				}
			}
		}
		if _, isJPEG := f.handler.(jpegHandler); isJPEG {
			// The marker property describes ExtendedXMP segments, which
			// updates do not preserve.
			delete(p.Properties, xml.Name{Space: xmpNoteNS, Local: "HasExtendedXMP"})
		}
	} else {
		p = xmp.NewPacket()
	}

	if _, isRIFF := f.handler.(riffHandler); isRIFF && f.data != nil {
		if err := ReconcileInfo(f.data, p); err != nil {
			return nil, err
		}
	}

	if f.packet == nil && len(p.Properties) == 0 {
		return nil, ErrNoXMP
	}
	return p, nil
}

// PutXMP replaces the XMP metadata of the file.  The file must have been
// opened with the ForUpdate option.
//
// In packet-scan mode the new packet is written over the old one and must
// fit, including padding, in the space occupied by the old packet.
func (f *File) PutXMP(p *xmp.Packet) error {
	if !f.opts.ForUpdate || f.opts.OnlyXMP {
		return ErrNotWritable
	}

	if f.handler != nil {
		packet, err := p.EncodePacket(0)
		if err != nil {
			return err
		}
		out, err := f.handler.WriteXMP(f.data, packet)
		if err != nil {
			return err
		}
		f.data = out
		f.packet = packet
		f.ext = nil
		return nil
	}

	if f.scanStart < 0 {
		return containerError("scan", "no packet envelope to replace")
	}
	avail := f.scanEnd - f.scanStart
	packet, err := p.EncodePacket(avail &^ 3)
	if err != nil {
		return err
	}
	if len(packet) > avail {
		return containerError("scan", "XMP packet too large for in-place update")
	}
	repl := make([]byte, avail)
	n := copy(repl, packet)
	for i := n; i < avail; i++ {
		repl[i] = ' '
	}
	f.data = splice(f.data, f.scanStart, f.scanEnd, repl)
	f.packet = packet
	return nil
}

// RemoveXMP deletes the XMP metadata of the file.  The file must have been
// opened with the ForUpdate option.  Files without XMP are left unchanged.
func (f *File) RemoveXMP() error {
	if !f.opts.ForUpdate || f.opts.OnlyXMP {
		return ErrNotWritable
	}

	if f.handler != nil {
		out, err := f.handler.RemoveXMP(f.data)
		if err != nil {
			return err
		}
		f.data = out
		f.packet = nil
		f.ext = nil
		return nil
	}

	if f.scanStart < 0 {
		return nil
	}
	// The packet is blanked rather than cut out, so that file offsets
	// stored elsewhere in the unknown container stay valid.
	out := bytes.Clone(f.data)
	for i := f.scanStart; i < f.scanEnd; i++ {
		out[i] = ' '
	}
	f.data = out
	f.packet = nil
	f.scanStart, f.scanEnd = -1, -1
	return nil
}

// Bytes returns the container file, including any metadata updates.
func (f *File) Bytes() ([]byte, error) {
	if f.opts.OnlyXMP {
		return nil, errOnlyXMP
	}
	return bytes.Clone(f.data), nil
}

// WriteTo writes the container file, including any metadata updates, to w.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	if f.opts.OnlyXMP {
		return 0, errOnlyXMP
	}
	n, err := w.Write(f.data)
	return int64(n), err
}

// WriteFile writes the container file, including any metadata updates, to
// the named file.
func (f *File) WriteFile(path string) error {
	if f.opts.OnlyXMP {
		return errOnlyXMP
	}
	return os.WriteFile(path, f.data, 0o666)
}
