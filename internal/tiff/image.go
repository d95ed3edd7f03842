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

	"github.com/golang/groupcache/lru"
)

// Image describes the raster layout of one directory.
type Image struct {
	r     io.ReaderAt
	order binary.ByteOrder

	Width, Height   int
	SamplesPerPixel int
	// BitsPerSample is shared by every sample; mixed sample sizes
	// are rejected.
	BitsPerSample int
	SampleFormat  int
	Compression   int
	Predictor     int
	Photometric   int
	Planar        bool
	Tiled         bool

	// ChunkWidth and ChunkHeight are the tile size, or the image width
	// and rows per strip for stripped images.
	ChunkWidth, ChunkHeight int

	// ColorMapEntries is the number of palette entries, if any.
	ColorMapEntries int

	// Reduced is set for reduced-resolution subfiles (overviews).
	Reduced bool

	offsets, counts []uint64

	// cache holds decoded chunks by index.
	cache *lru.Cache
}

// Image interprets d as a raster image.
func (d *Dir) Image() (*Image, error) {
	im := &Image{r: d.f.r, order: d.f.order}

	if !d.Has(TagImageWidth) || !d.Has(TagImageLength) {
		return nil, FormatError("missing image dimensions")
	}
	w, err := d.Uint(TagImageWidth, 0)
	if err != nil {
		return nil, err
	}
	h, err := d.Uint(TagImageLength, 0)
	if err != nil {
		return nil, err
	}
	if w > 1<<31-1 || h > 1<<31-1 {
		return nil, formatErrorf("image size %dx%d too large", w, h)
	}
	im.Width, im.Height = int(w), int(h)

	spp, err := d.Uint(TagSamplesPerPixel, 1)
	if err != nil {
		return nil, err
	}
	if spp == 0 || spp > 1<<16 {
		return nil, formatErrorf("invalid samples per pixel %d", spp)
	}
	im.SamplesPerPixel = int(spp)

	im.BitsPerSample = 1
	if d.Has(TagBitsPerSample) {
		bps, err := d.Uints(TagBitsPerSample)
		if err != nil {
			return nil, err
		}
		if len(bps) == 0 {
			return nil, FormatError("empty BitsPerSample")
		}
		for _, b := range bps[1:] {
			if b != bps[0] {
				return nil, UnsupportedError("mixed bits per sample")
			}
		}
		im.BitsPerSample = int(bps[0])
	}

	sf, err := d.Uint(TagSampleFormat, SampleFormatUint)
	if err != nil {
		return nil, err
	}
	im.SampleFormat = int(sf)

	for _, v := range []struct {
		t   Tag
		def uint64
		dst *int
	}{
		{TagCompression, CompressionNone, &im.Compression},
		{TagPredictor, PredictorNone, &im.Predictor},
		{TagPhotometricInterpretation, PhotometricBlackIsZero, &im.Photometric},
	} {
		x, err := d.Uint(v.t, v.def)
		if err != nil {
			return nil, err
		}
		*v.dst = int(x)
	}

	pc, err := d.Uint(TagPlanarConfiguration, PlanarChunky)
	if err != nil {
		return nil, err
	}
	im.Planar = pc == PlanarSeparate && im.SamplesPerPixel > 1

	sub, err := d.Uint(TagNewSubfileType, 0)
	if err != nil {
		return nil, err
	}
	im.Reduced = sub&1 != 0

	if d.Has(TagColorMap) {
		fld, _ := d.Field(TagColorMap)
		im.ColorMapEntries = int(fld.Count / 3)
	}

	if d.Has(TagTileWidth) {
		im.Tiled = true
		tw, err := d.Uint(TagTileWidth, 0)
		if err != nil {
			return nil, err
		}
		th, err := d.Uint(TagTileLength, 0)
		if err != nil {
			return nil, err
		}
		if tw == 0 || th == 0 || tw > 1<<24 || th > 1<<24 {
			return nil, formatErrorf("invalid tile size %dx%d", tw, th)
		}
		im.ChunkWidth, im.ChunkHeight = int(tw), int(th)
		if im.offsets, err = d.Uints(TagTileOffsets); err != nil {
			return nil, err
		}
		if im.counts, err = d.Uints(TagTileByteCounts); err != nil {
			return nil, err
		}
	} else {
		rps, err := d.Uint(TagRowsPerStrip, uint64(im.Height))
		if err != nil {
			return nil, err
		}
		if rps == 0 || rps > uint64(im.Height) {
			rps = uint64(im.Height)
		}
		im.ChunkWidth, im.ChunkHeight = im.Width, int(rps)
		if im.Height == 0 {
			im.ChunkHeight = 1
		}
		if im.offsets, err = d.Uints(TagStripOffsets); err != nil {
			return nil, err
		}
		if im.counts, err = d.Uints(TagStripByteCounts); err != nil {
			return nil, err
		}
	}
	if im.ChunkWidth == 0 {
		im.ChunkWidth = 1
	}

	want := im.chunksAcross() * im.chunksDown()
	if im.Planar {
		want *= im.SamplesPerPixel
	}
	if len(im.offsets) < want || len(im.counts) < want {
		return nil, formatErrorf("have %d chunk offsets and %d byte counts, need %d",
			len(im.offsets), len(im.counts), want)
	}
	// One row of chunks is enough for scanline reads to decode each chunk
	// once.
	im.cache = lru.New(im.chunksAcross() + 1)
	return im, nil
}

func (im *Image) chunksAcross() int {
	return (im.Width + im.ChunkWidth - 1) / im.ChunkWidth
}

func (im *Image) chunksDown() int {
	return (im.Height + im.ChunkHeight - 1) / im.ChunkHeight
}

// BytesPerSample returns the size of one sample in bytes, or 0 for
// sub-byte samples.
func (im *Image) BytesPerSample() int {
	if im.BitsPerSample%8 != 0 {
		return 0
	}
	return im.BitsPerSample / 8
}

// ByteOrder returns the byte order samples are stored in.
func (im *Image) ByteOrder() binary.ByteOrder { return im.order }

// samplesPerChunkPixel returns the number of interleaved samples stored
// for each pixel of a chunk.
func (im *Image) samplesPerChunkPixel() int {
	if im.Planar {
		return 1
	}
	return im.SamplesPerPixel
}

// ReadWindow copies the samples of plane band (0-based) inside the
// w×h window at (x, y) into dst, row-major and in file byte order.
// len(dst) must be w*h*BytesPerSample().
func (im *Image) ReadWindow(band, x, y, w, h int, dst []byte) error {
	bps := im.BytesPerSample()
	if bps == 0 {
		return UnsupportedError(fmt.Sprintf("%d bits per sample", im.BitsPerSample))
	}
	if band < 0 || band >= im.SamplesPerPixel {
		return fmt.Errorf("tiff: band %d out of range [0, %d)", band, im.SamplesPerPixel)
	}
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > im.Width || y+h > im.Height {
		return fmt.Errorf("tiff: window (%d,%d %dx%d) outside %dx%d image", x, y, w, h, im.Width, im.Height)
	}
	if len(dst) != w*h*bps {
		return fmt.Errorf("tiff: destination holds %d bytes, window needs %d", len(dst), w*h*bps)
	}
	if w == 0 || h == 0 {
		return nil
	}

	spc := im.samplesPerChunkPixel()
	pixStride := spc * bps
	rowStride := im.ChunkWidth * pixStride
	sampleOff := 0
	if !im.Planar {
		sampleOff = band * bps
	}
	across, down := im.chunksAcross(), im.chunksDown()

	for cy := y / im.ChunkHeight; cy <= (y+h-1)/im.ChunkHeight; cy++ {
		for cx := x / im.ChunkWidth; cx <= (x+w-1)/im.ChunkWidth; cx++ {
			idx := cy*across + cx
			if im.Planar {
				idx += band * across * down
			}
			data, err := im.chunk(idx, cy)
			if err != nil {
				return err
			}
			x0, y0 := cx*im.ChunkWidth, cy*im.ChunkHeight
			rMin, rMax := max(y, y0), min(y+h, y0+im.ChunkHeight)
			cMin, cMax := max(x, x0), min(x+w, x0+im.ChunkWidth)
			for r := rMin; r < rMax; r++ {
				src := (r-y0)*rowStride + (cMin-x0)*pixStride + sampleOff
				out := ((r-y)*w + (cMin - x)) * bps
				if pixStride == bps {
					n := (cMax - cMin) * bps
					copy(dst[out:out+n], data[src:src+n])
					continue
				}
				for c := cMin; c < cMax; c++ {
					copy(dst[out:out+bps], data[src:src+bps])
					src += pixStride
					out += bps
				}
			}
		}
	}
	return nil
}

// chunkRows returns the number of rows stored in chunk row cy.
// Tiles are always padded to full size; the last strip may be short.
func (im *Image) chunkRows(cy int) int {
	if im.Tiled {
		return im.ChunkHeight
	}
	return min(im.ChunkHeight, im.Height-cy*im.ChunkHeight)
}

// chunk returns the decompressed, predictor-decoded bytes of chunk idx.
func (im *Image) chunk(idx, cy int) ([]byte, error) {
	if data, ok := im.cache.Get(idx); ok {
		return data.([]byte), nil
	}
	rows := im.chunkRows(cy)
	rowBytes := im.ChunkWidth * im.samplesPerChunkPixel() * im.BytesPerSample()
	size := rows * rowBytes

	var data []byte
	if n := im.counts[idx]; n == 0 {
		// Sparse files omit chunks that hold only zeros.
		data = make([]byte, size)
	} else {
		if n > 1<<31-1 {
			return nil, formatErrorf("chunk %d has %d bytes", idx, n)
		}
		raw := make([]byte, n)
		if err := readAt(im.r, raw, int64(im.offsets[idx])); err == io.ErrUnexpectedEOF {
			return nil, formatErrorf("chunk %d extends past end of file", idx)
		} else if err != nil {
			return nil, fmt.Errorf("tiff: reading chunk %d: %v", idx, err)
		}
		var err error
		if data, err = decompress(im.Compression, raw, size); err != nil {
			return nil, fmt.Errorf("tiff: chunk %d: %w", idx, err)
		}
	}
	if err := im.unpredict(data, rowBytes); err != nil {
		return nil, err
	}
	im.cache.Add(idx, data)
	return data, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
