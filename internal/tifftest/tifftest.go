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

// Package tifftest writes small GeoTIFF files for tests. It covers the
// layouts the decoder reads: classic and BigTIFF, both byte orders, strips
// and tiles, chunky and planar samples, no compression, Deflate and
// PackBits, and the horizontal and floating point predictors.
package tifftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/spatialmodel/geotiff/internal/tiff"
)

// Image describes a raster to encode.
type Image struct {
	Width, Height int

	// Bands holds one row-major slice of Width*Height samples per band.
	// Every band must have the same element type: []uint8, []int8,
	// []uint16, []int16, []uint32, []int32, []int64, []float32,
	// []float64 or []complex64.
	Bands []interface{}

	// ByteOrder defaults to little endian.
	ByteOrder binary.ByteOrder
	BigTIFF   bool

	// Compression is one of tiff.CompressionNone (the default),
	// tiff.CompressionDeflate or tiff.CompressionPackBits.
	Compression int
	Predictor   int
	Planar      bool

	// TileWidth and TileHeight select a tiled layout when non-zero.
	TileWidth, TileHeight int
	// RowsPerStrip defaults to the image height.
	RowsPerStrip int

	GeoTransform *[6]float64
	PixelIsPoint bool
	EPSG         int
	Citation     string

	// NoData and Metadata are written verbatim to the GDAL_NODATA and
	// GDAL_METADATA tags when set.
	NoData   string
	Metadata string

	// GeoKeyDirectory replaces the generated GeoKey directory when set.
	GeoKeyDirectory []uint16

	// ColorMap is written as a palette when set.
	ColorMap []uint16

	// Overviews is the number of reduced-resolution subfiles to append,
	// each half the size of the previous one.
	Overviews int
}

// WriteFile encodes img into the named file.
func WriteFile(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes img to w as a TIFF file.
func Encode(w io.Writer, img *Image) error {
	e := &encoder{img: img, order: img.ByteOrder}
	if e.order == nil {
		e.order = binary.LittleEndian
	}
	if err := e.encode(); err != nil {
		return err
	}
	_, err := w.Write(e.buf.Bytes())
	return err
}

type encoder struct {
	img   *Image
	order binary.ByteOrder
	buf   bytes.Buffer

	bits, format int
	planes       [][]byte // raw samples per band
	nextPtr      int      // position of the previous next-directory pointer
}

type entry struct {
	tag   tiff.Tag
	typ   tiff.Type
	count int
	data  []byte
}

func (e *encoder) encode() error {
	img := e.img
	if len(img.Bands) == 0 {
		return fmt.Errorf("tifftest: no bands")
	}
	for i, b := range img.Bands {
		raw, bits, format, err := e.sampleBytes(b)
		if err != nil {
			return err
		}
		if len(raw) != img.Width*img.Height*bits/8 {
			return fmt.Errorf("tifftest: band %d has %d bytes, want %d", i, len(raw), img.Width*img.Height*bits/8)
		}
		if i > 0 && (bits != e.bits || format != e.format) {
			return fmt.Errorf("tifftest: band %d type differs from band 0", i)
		}
		e.bits, e.format = bits, format
		e.planes = append(e.planes, raw)
	}

	if img.ByteOrder == binary.BigEndian {
		e.buf.WriteString("MM")
	} else {
		e.buf.WriteString("II")
	}
	if img.BigTIFF {
		e.put16(43)
		e.put16(8)
		e.put16(0)
		e.nextPtr = e.buf.Len()
		e.put64(0)
	} else {
		e.put16(42)
		e.nextPtr = e.buf.Len()
		e.put32(0)
	}

	if err := e.writeImage(img.Width, img.Height, e.planes, false); err != nil {
		return err
	}
	w, h, planes := img.Width, img.Height, e.planes
	for i := 0; i < img.Overviews; i++ {
		w, h, planes = halve(w, h, planes, e.bits/8)
		if err := e.writeImage(w, h, planes, true); err != nil {
			return err
		}
	}
	return nil
}

// halve keeps every second sample of every second row.
func halve(w, h int, planes [][]byte, bps int) (int, int, [][]byte) {
	nw, nh := (w+1)/2, (h+1)/2
	out := make([][]byte, len(planes))
	for b, p := range planes {
		q := make([]byte, 0, nw*nh*bps)
		for y := 0; y < h; y += 2 {
			for x := 0; x < w; x += 2 {
				i := (y*w + x) * bps
				q = append(q, p[i:i+bps]...)
			}
		}
		out[b] = q
	}
	return nw, nh, out
}

func (e *encoder) writeImage(width, height int, planes [][]byte, reduced bool) error {
	img := e.img
	bps := e.bits / 8
	spp := len(planes)
	tiled := img.TileWidth > 0 && img.TileHeight > 0
	cw, ch := width, img.RowsPerStrip
	if ch <= 0 || ch > height {
		ch = height
	}
	if tiled {
		cw, ch = img.TileWidth, img.TileHeight
	}
	if ch == 0 {
		ch = 1
	}
	across, down := (width+cw-1)/cw, (height+ch-1)/ch

	// Interleave the bands unless the layout is planar.
	var sources [][]byte
	spc := 1
	if img.Planar || spp == 1 {
		sources = planes
	} else {
		spc = spp
		chunky := make([]byte, width*height*spp*bps)
		for i := 0; i < width*height; i++ {
			for b := 0; b < spp; b++ {
				copy(chunky[(i*spp+b)*bps:], planes[b][i*bps:(i+1)*bps])
			}
		}
		sources = [][]byte{chunky}
	}

	var offsets, counts []uint64
	for _, src := range sources {
		for cy := 0; cy < down; cy++ {
			rows := ch
			if !tiled && height-cy*ch < ch {
				rows = height - cy*ch
			}
			for cx := 0; cx < across; cx++ {
				rowBytes := cw * spc * bps
				chunk := make([]byte, rows*rowBytes)
				for r := 0; r < rows; r++ {
					y := cy*ch + r
					if y >= height {
						break
					}
					x0 := cx * cw
					n := cw
					if x0+n > width {
						n = width - x0
					}
					copy(chunk[r*rowBytes:], src[(y*width+x0)*spc*bps:(y*width+x0+n)*spc*bps])
				}
				for r := 0; r < rows; r++ {
					if err := e.predict(chunk[r*rowBytes:(r+1)*rowBytes], bps, spc); err != nil {
						return err
					}
				}
				data, err := e.compress(chunk)
				if err != nil {
					return err
				}
				e.align()
				offsets = append(offsets, uint64(e.buf.Len()))
				counts = append(counts, uint64(len(data)))
				e.buf.Write(data)
			}
		}
	}

	photometric := tiff.PhotometricBlackIsZero
	if img.ColorMap != nil {
		photometric = tiff.PhotometricPalette
	}
	planar := tiff.PlanarChunky
	if img.Planar && spp > 1 {
		planar = tiff.PlanarSeparate
	}
	var entries []entry
	if reduced {
		entries = append(entries, e.longs(tiff.TagNewSubfileType, 1))
	}
	entries = append(entries,
		e.longs(tiff.TagImageWidth, uint32(width)),
		e.longs(tiff.TagImageLength, uint32(height)),
		e.shorts(tiff.TagBitsPerSample, repeat(uint16(e.bits), spp)...),
		e.shorts(tiff.TagCompression, uint16(e.compression())),
		e.shorts(tiff.TagPhotometricInterpretation, uint16(photometric)),
		e.shorts(tiff.TagSamplesPerPixel, uint16(spp)),
		e.shorts(tiff.TagPlanarConfiguration, uint16(planar)),
		e.shorts(tiff.TagSampleFormat, repeat(uint16(e.format), spp)...),
	)
	if tiled {
		entries = append(entries,
			e.longs(tiff.TagTileWidth, uint32(cw)),
			e.longs(tiff.TagTileLength, uint32(ch)),
			e.offsets(tiff.TagTileOffsets, offsets),
			e.offsets(tiff.TagTileByteCounts, counts),
		)
	} else {
		entries = append(entries,
			e.longs(tiff.TagRowsPerStrip, uint32(ch)),
			e.offsets(tiff.TagStripOffsets, offsets),
			e.offsets(tiff.TagStripByteCounts, counts),
		)
	}
	if img.Predictor > tiff.PredictorNone {
		entries = append(entries, e.shorts(tiff.TagPredictor, uint16(img.Predictor)))
	}
	if img.ColorMap != nil {
		entries = append(entries, e.shorts(tiff.TagColorMap, img.ColorMap...))
	}
	if !reduced {
		entries = append(entries, e.geoEntries()...)
	}
	if img.NoData != "" {
		entries = append(entries, ascii(tiff.TagGDALNoData, img.NoData))
	}
	if img.Metadata != "" && !reduced {
		entries = append(entries, ascii(tiff.TagGDALMetadata, img.Metadata))
	}
	return e.writeDir(entries)
}

func (e *encoder) geoEntries() []entry {
	img := e.img
	var entries []entry
	if gt := img.GeoTransform; gt != nil {
		if gt[2] != 0 || gt[4] != 0 {
			entries = append(entries, e.doubles(tiff.TagModelTransformation,
				gt[1], gt[2], 0, gt[0],
				gt[4], gt[5], 0, gt[3],
				0, 0, 0, 0,
				0, 0, 0, 1))
		} else {
			x, y := gt[0], gt[3]
			if img.PixelIsPoint {
				x += 0.5 * gt[1]
				y += 0.5 * gt[5]
			}
			entries = append(entries,
				e.doubles(tiff.TagModelPixelScale, gt[1], -gt[5], 0),
				e.doubles(tiff.TagModelTiepoint, 0, 0, 0, x, y, 0))
		}
	}
	if img.GeoKeyDirectory != nil {
		return append(entries, e.shorts(tiff.TagGeoKeyDirectory, img.GeoKeyDirectory...))
	}
	if img.EPSG == 0 && !img.PixelIsPoint {
		return entries
	}
	citation := img.Citation
	if citation == "" {
		citation = "tifftest"
	}
	citation += "|"
	type key struct{ id, loc, count, val uint16 }
	raster := uint16(tiff.RasterPixelIsArea)
	if img.PixelIsPoint {
		raster = tiff.RasterPixelIsPoint
	}
	keys := []key{
		{tiff.GTRasterTypeGeoKey, 0, 1, raster},
		{tiff.GTCitationGeoKey, uint16(tiff.TagGeoASCIIParams), uint16(len(citation)), 0},
	}
	if img.EPSG != 0 {
		if img.EPSG >= 4000 && img.EPSG < 5000 {
			keys = append(keys,
				key{tiff.GTModelTypeGeoKey, 0, 1, tiff.ModelTypeGeographic},
				key{tiff.GeographicTypeGeoKey, 0, 1, uint16(img.EPSG)})
		} else {
			keys = append(keys,
				key{tiff.GTModelTypeGeoKey, 0, 1, tiff.ModelTypeProjected},
				key{tiff.ProjectedCSTypeGeoKey, 0, 1, uint16(img.EPSG)})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].id < keys[j].id })
	dir := []uint16{1, 1, 0, uint16(len(keys))}
	for _, k := range keys {
		dir = append(dir, k.id, k.loc, k.count, k.val)
	}
	return append(entries,
		e.shorts(tiff.TagGeoKeyDirectory, dir...),
		ascii(tiff.TagGeoASCIIParams, citation))
}

func (e *encoder) writeDir(entries []entry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })
	big := e.img.BigTIFF
	countSize, entrySize, offSize := 2, 12, 4
	if big {
		countSize, entrySize, offSize = 8, 20, 8
	}
	e.align()
	start := e.buf.Len()
	overflow := start + countSize + entrySize*len(entries) + offSize

	// Patch the previous pointer to this directory.
	p := e.buf.Bytes()
	if big {
		e.order.PutUint64(p[e.nextPtr:], uint64(start))
	} else {
		e.order.PutUint32(p[e.nextPtr:], uint32(start))
	}

	var extra bytes.Buffer
	if big {
		e.put64(uint64(len(entries)))
	} else {
		e.put16(uint16(len(entries)))
	}
	for _, en := range entries {
		e.put16(uint16(en.tag))
		e.put16(uint16(en.typ))
		if big {
			e.put64(uint64(en.count))
		} else {
			e.put32(uint32(en.count))
		}
		if len(en.data) <= offSize {
			v := make([]byte, offSize)
			copy(v, en.data)
			e.buf.Write(v)
			continue
		}
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
		off := uint64(overflow + extra.Len())
		if big {
			e.put64(off)
		} else {
			e.put32(uint32(off))
		}
		extra.Write(en.data)
	}
	e.nextPtr = e.buf.Len()
	if big {
		e.put64(0)
	} else {
		e.put32(0)
	}
	e.buf.Write(extra.Bytes())
	return nil
}

func (e *encoder) compression() int {
	if e.img.Compression == 0 {
		return tiff.CompressionNone
	}
	return e.img.Compression
}

func (e *encoder) compress(chunk []byte) ([]byte, error) {
	switch e.compression() {
	case tiff.CompressionNone:
		return chunk, nil
	case tiff.CompressionDeflate, tiff.CompressionDeflateOld:
		var b bytes.Buffer
		zw := zlib.NewWriter(&b)
		if _, err := zw.Write(chunk); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case tiff.CompressionPackBits:
		return packBits(chunk), nil
	}
	return nil, fmt.Errorf("tifftest: cannot write compression %d", e.img.Compression)
}

// packBits run-length encodes p, using repeat runs for three or more
// identical bytes and literal runs otherwise.
func packBits(p []byte) []byte {
	var out []byte
	for i := 0; i < len(p); {
		run := 1
		for i+run < len(p) && run < 128 && p[i+run] == p[i] {
			run++
		}
		if run >= 3 {
			out = append(out, byte(int8(1-run)), p[i])
			i += run
			continue
		}
		j := i
		for j < len(p) && j-i < 128 {
			if j+2 < len(p) && p[j] == p[j+1] && p[j] == p[j+2] {
				break
			}
			j++
		}
		out = append(out, byte(j-i-1))
		out = append(out, p[i:j]...)
		i = j
	}
	return out
}

func (e *encoder) predict(row []byte, bps, spc int) error {
	switch e.img.Predictor {
	case 0, tiff.PredictorNone:
		return nil
	case tiff.PredictorHorizontal:
		stride := bps * spc
		for i := len(row) - bps; i >= stride; i -= bps {
			switch bps {
			case 1:
				row[i] -= row[i-stride]
			case 2:
				e.order.PutUint16(row[i:], e.order.Uint16(row[i:])-e.order.Uint16(row[i-stride:]))
			case 4:
				e.order.PutUint32(row[i:], e.order.Uint32(row[i:])-e.order.Uint32(row[i-stride:]))
			case 8:
				e.order.PutUint64(row[i:], e.order.Uint64(row[i:])-e.order.Uint64(row[i-stride:]))
			}
		}
		return nil
	case tiff.PredictorFloatingPoint:
		wc := len(row) / bps
		tmp := make([]byte, len(row))
		for count := 0; count < wc; count++ {
			for b := 0; b < bps; b++ {
				if e.order == binary.BigEndian {
					tmp[b*wc+count] = row[bps*count+b]
				} else {
					tmp[b*wc+count] = row[bps*count+bps-1-b]
				}
			}
		}
		copy(row, tmp)
		for i := len(row) - 1; i >= spc; i-- {
			row[i] -= row[i-spc]
		}
		return nil
	}
	return fmt.Errorf("tifftest: cannot write predictor %d", e.img.Predictor)
}

func (e *encoder) sampleBytes(band interface{}) (raw []byte, bits, format int, err error) {
	var b bytes.Buffer
	switch v := band.(type) {
	case []uint8:
		return append([]byte(nil), v...), 8, tiff.SampleFormatUint, nil
	case []int8:
		bits, format = 8, tiff.SampleFormatInt
	case []uint16:
		bits, format = 16, tiff.SampleFormatUint
	case []int16:
		bits, format = 16, tiff.SampleFormatInt
	case []uint32:
		bits, format = 32, tiff.SampleFormatUint
	case []int32:
		bits, format = 32, tiff.SampleFormatInt
	case []int64:
		bits, format = 64, tiff.SampleFormatInt
	case []float32:
		bits, format = 32, tiff.SampleFormatIEEEFP
	case []float64:
		bits, format = 64, tiff.SampleFormatIEEEFP
	case []complex64:
		bits, format = 64, tiff.SampleFormatComplexIEEEFP
	default:
		return nil, 0, 0, fmt.Errorf("tifftest: unsupported band type %T", band)
	}
	if err := binary.Write(&b, e.order, band); err != nil {
		return nil, 0, 0, err
	}
	return b.Bytes(), bits, format, nil
}

func (e *encoder) align() {
	if e.buf.Len()%2 == 1 {
		e.buf.WriteByte(0)
	}
}

func (e *encoder) put16(v uint16) {
	var b [2]byte
	e.order.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) put32(v uint32) {
	var b [4]byte
	e.order.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) put64(v uint64) {
	var b [8]byte
	e.order.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) shorts(t tiff.Tag, v ...uint16) entry {
	p := make([]byte, 2*len(v))
	for i, x := range v {
		e.order.PutUint16(p[2*i:], x)
	}
	return entry{tag: t, typ: tiff.Short, count: len(v), data: p}
}

func (e *encoder) longs(t tiff.Tag, v ...uint32) entry {
	p := make([]byte, 4*len(v))
	for i, x := range v {
		e.order.PutUint32(p[4*i:], x)
	}
	return entry{tag: t, typ: tiff.Long, count: len(v), data: p}
}

// offsets writes LONG values in classic files and LONG8 values in BigTIFF.
func (e *encoder) offsets(t tiff.Tag, v []uint64) entry {
	if !e.img.BigTIFF {
		l := make([]uint32, len(v))
		for i, x := range v {
			l[i] = uint32(x)
		}
		return e.longs(t, l...)
	}
	p := make([]byte, 8*len(v))
	for i, x := range v {
		e.order.PutUint64(p[8*i:], x)
	}
	return entry{tag: t, typ: tiff.Long8, count: len(v), data: p}
}

func (e *encoder) doubles(t tiff.Tag, v ...float64) entry {
	p := make([]byte, 8*len(v))
	for i, x := range v {
		e.order.PutUint64(p[8*i:], math.Float64bits(x))
	}
	return entry{tag: t, typ: tiff.Double, count: len(v), data: p}
}

func ascii(t tiff.Tag, s string) entry {
	p := append([]byte(s), 0)
	return entry{tag: t, typ: tiff.ASCII, count: len(p), data: p}
}

func repeat(v uint16, n int) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// FormatFloat formats v the way GDAL writes GDAL_NODATA values.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
