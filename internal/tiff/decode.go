/*
Copyright © 2021 the InMAP authors.
This file is part of geotiff.

geotiff is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

geotiff is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with geotiff.  If not, see <http://www.gnu.org/licenses/>.
*/

package tiff

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

const (
	leHeader = "II"
	beHeader = "MM"

	magicClassic = 42
	magicBig     = 43

	// maxIFDs bounds the directory chain so that corrupt files cannot
	// make the decoder walk forever.
	maxIFDs = 4096
)

// File is a decoded TIFF header together with its chain of image file
// directories. Field values are read from the underlying reader on demand.
type File struct {
	r     io.ReaderAt
	order binary.ByteOrder
	big   bool

	// Dirs holds the directories in file order.
	Dirs []*Dir
}

// ByteOrder returns the byte order of the file.
func (f *File) ByteOrder() binary.ByteOrder { return f.order }

// BigTIFF reports whether f uses the 64-bit BigTIFF layout.
func (f *File) BigTIFF() bool { return f.big }

// Dir is one image file directory.
type Dir struct {
	f      *File
	Offset int64
	Fields []Field
}

// Field is a lazily decoded directory entry. Values that fit in the entry
// are kept inline; larger values are read from the file when requested.
type Field struct {
	Tag   Tag
	Type  Type
	Count uint64

	inline [8]byte
	offset int64 // -1 when the value is inline.
}

// Decode reads the TIFF header and walks the directory chain.
func Decode(r io.ReaderAt) (*File, error) {
	var hdr [16]byte
	if err := readAt(r, hdr[:8], 0); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, FormatError("file too short for a TIFF header")
		}
		return nil, err
	}
	f := &File{r: r}
	switch string(hdr[0:2]) {
	case leHeader:
		f.order = binary.LittleEndian
	case beHeader:
		f.order = binary.BigEndian
	default:
		return nil, FormatError("malformed header")
	}

	var next int64
	switch f.order.Uint16(hdr[2:4]) {
	case magicClassic:
		next = int64(f.order.Uint32(hdr[4:8]))
	case magicBig:
		f.big = true
		if err := readAt(r, hdr[8:16], 8); err != nil {
			return nil, FormatError("truncated BigTIFF header")
		}
		if f.order.Uint16(hdr[4:6]) != 8 || f.order.Uint16(hdr[6:8]) != 0 {
			return nil, FormatError("unexpected BigTIFF offset size")
		}
		next = int64(f.order.Uint64(hdr[8:16]))
	default:
		return nil, FormatError("malformed header")
	}

	visited := make(map[int64]bool)
	for next != 0 {
		if visited[next] {
			return nil, formatErrorf("directory loop at offset %d", next)
		}
		if len(f.Dirs) == maxIFDs {
			return nil, formatErrorf("more than %d directories", maxIFDs)
		}
		visited[next] = true
		d, n, err := f.readDir(next)
		if err != nil {
			return nil, err
		}
		f.Dirs = append(f.Dirs, d)
		next = n
	}
	if len(f.Dirs) == 0 {
		return nil, FormatError("no image file directory")
	}
	return f, nil
}

// readAt fills p from offset off. A short read is reported as
// io.ErrUnexpectedEOF; an io.EOF that accompanies a full read is ignored.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (f *File) readDir(offset int64) (*Dir, int64, error) {
	countSize, entrySize, offSize := 2, 12, 4
	if f.big {
		countSize, entrySize, offSize = 8, 20, 8
	}
	var buf [8]byte
	if err := readAt(f.r, buf[:countSize], offset); err != nil {
		return nil, 0, formatErrorf("reading directory at %d: %v", offset, err)
	}
	var n uint64
	if f.big {
		n = f.order.Uint64(buf[:8])
	} else {
		n = uint64(f.order.Uint16(buf[:2]))
	}
	if n > math.MaxUint16 {
		return nil, 0, formatErrorf("directory at %d has %d entries", offset, n)
	}
	p := make([]byte, int(n)*entrySize+offSize)
	if err := readAt(f.r, p, offset+int64(countSize)); err != nil {
		return nil, 0, formatErrorf("reading directory at %d: %v", offset, err)
	}

	d := &Dir{f: f, Offset: offset, Fields: make([]Field, 0, n)}
	for i := 0; i < int(n); i++ {
		e := p[i*entrySize : (i+1)*entrySize]
		fld := Field{
			Tag:  Tag(f.order.Uint16(e[0:2])),
			Type: Type(f.order.Uint16(e[2:4])),
		}
		var value []byte
		if f.big {
			fld.Count = f.order.Uint64(e[4:12])
			value = e[12:20]
		} else {
			fld.Count = uint64(f.order.Uint32(e[4:8]))
			value = e[8:12]
		}
		size := fld.Type.Size()
		if size == 0 {
			// Unknown field types are skipped, as the TIFF 6.0 reader rules require.
			continue
		}
		if fld.Count > math.MaxInt32/uint64(size) {
			return nil, 0, formatErrorf("field %d has too many values", fld.Tag)
		}
		if uint64(size)*fld.Count <= uint64(len(value)) {
			copy(fld.inline[:], value)
			fld.offset = -1
		} else if f.big {
			fld.offset = int64(f.order.Uint64(value))
		} else {
			fld.offset = int64(f.order.Uint32(value))
		}
		d.Fields = append(d.Fields, fld)
	}

	tail := p[int(n)*entrySize:]
	var next int64
	if f.big {
		next = int64(f.order.Uint64(tail))
	} else {
		next = int64(f.order.Uint32(tail))
	}
	return d, next, nil
}

// Field returns the entry with tag t.
func (d *Dir) Field(t Tag) (*Field, bool) {
	for i := range d.Fields {
		if d.Fields[i].Tag == t {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// Has reports whether the directory holds tag t.
func (d *Dir) Has(t Tag) bool {
	_, ok := d.Field(t)
	return ok
}

// raw returns the undecoded value bytes of fld.
func (d *Dir) raw(fld *Field) ([]byte, error) {
	n := int(fld.Count) * fld.Type.Size()
	if fld.offset < 0 {
		return fld.inline[:n], nil
	}
	p := make([]byte, n)
	if err := readAt(d.f.r, p, fld.offset); err != nil {
		return nil, formatErrorf("reading field %d at offset %d: %v", fld.Tag, fld.offset, err)
	}
	return p, nil
}

// Uints returns the values of tag t as unsigned integers.
func (d *Dir) Uints(t Tag) ([]uint64, error) {
	fld, ok := d.Field(t)
	if !ok {
		return nil, formatErrorf("missing field %d", t)
	}
	p, err := d.raw(fld)
	if err != nil {
		return nil, err
	}
	o := d.f.order
	v := make([]uint64, fld.Count)
	for i := range v {
		switch fld.Type {
		case Byte, Undefined:
			v[i] = uint64(p[i])
		case Short:
			v[i] = uint64(o.Uint16(p[2*i:]))
		case Long, IFD:
			v[i] = uint64(o.Uint32(p[4*i:]))
		case Long8, IFD8:
			v[i] = o.Uint64(p[8*i:])
		default:
			return nil, formatErrorf("field %d has non-integer type %d", t, fld.Type)
		}
	}
	return v, nil
}

// Uint returns the first value of tag t, or def when t is absent.
func (d *Dir) Uint(t Tag, def uint64) (uint64, error) {
	if !d.Has(t) {
		return def, nil
	}
	v, err := d.Uints(t)
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, formatErrorf("field %d is empty", t)
	}
	return v[0], nil
}

// Floats returns the values of tag t converted to float64.
func (d *Dir) Floats(t Tag) ([]float64, error) {
	fld, ok := d.Field(t)
	if !ok {
		return nil, formatErrorf("missing field %d", t)
	}
	p, err := d.raw(fld)
	if err != nil {
		return nil, err
	}
	o := d.f.order
	v := make([]float64, fld.Count)
	for i := range v {
		switch fld.Type {
		case Double:
			v[i] = math.Float64frombits(o.Uint64(p[8*i:]))
		case Float:
			v[i] = float64(math.Float32frombits(o.Uint32(p[4*i:])))
		case Rational:
			v[i] = float64(o.Uint32(p[8*i:])) / float64(o.Uint32(p[8*i+4:]))
		case SRational:
			v[i] = float64(int32(o.Uint32(p[8*i:]))) / float64(int32(o.Uint32(p[8*i+4:])))
		case Byte, Undefined:
			v[i] = float64(p[i])
		case SByte:
			v[i] = float64(int8(p[i]))
		case Short:
			v[i] = float64(o.Uint16(p[2*i:]))
		case SShort:
			v[i] = float64(int16(o.Uint16(p[2*i:])))
		case Long:
			v[i] = float64(o.Uint32(p[4*i:]))
		case SLong:
			v[i] = float64(int32(o.Uint32(p[4*i:])))
		case Long8:
			v[i] = float64(o.Uint64(p[8*i:]))
		case SLong8:
			v[i] = float64(int64(o.Uint64(p[8*i:])))
		default:
			return nil, formatErrorf("field %d has non-numeric type %d", t, fld.Type)
		}
	}
	return v, nil
}

// Text returns the ASCII value of tag t with trailing NULs removed.
func (d *Dir) Text(t Tag) (string, error) {
	fld, ok := d.Field(t)
	if !ok {
		return "", formatErrorf("missing field %d", t)
	}
	if fld.Type != ASCII && fld.Type != Byte && fld.Type != Undefined {
		return "", formatErrorf("field %d is not text", t)
	}
	p, err := d.raw(fld)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(p), "\x00"), nil
}

func (fld Field) String() string {
	return fmt.Sprintf("tag %d type %d count %d", fld.Tag, fld.Type, fld.Count)
}
