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
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/image/tiff/lzw"
)

// decompress returns exactly size bytes decoded from raw.
func decompress(compression int, raw []byte, size int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if len(raw) < size {
			return nil, formatErrorf("uncompressed chunk holds %d bytes, want %d", len(raw), size)
		}
		return raw[:size:size], nil
	case CompressionLZW:
		r := lzw.NewReader(bytes.NewReader(raw), lzw.MSB, 8)
		defer r.Close()
		return readFull(r, size)
	case CompressionDeflate, CompressionDeflateOld:
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return readFull(r, size)
	case CompressionPackBits:
		return unpackBits(raw, size)
	}
	return nil, UnsupportedError(fmt.Sprintf("compression value %d", compression))
}

func readFull(r io.Reader, size int) ([]byte, error) {
	p := make([]byte, size)
	if _, err := io.ReadFull(r, p); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, formatErrorf("compressed chunk decodes to fewer than %d bytes", size)
		}
		return nil, err
	}
	return p, nil
}

// unpackBits decodes PackBits run-length encoding.
func unpackBits(src []byte, size int) ([]byte, error) {
	dst := make([]byte, 0, size)
	for i := 0; i < len(src) && len(dst) < size; {
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			if i+n+1 > len(src) {
				return nil, FormatError("truncated PackBits literal run")
			}
			dst = append(dst, src[i:i+n+1]...)
			i += n + 1
		case n != -128:
			if i >= len(src) {
				return nil, FormatError("truncated PackBits repeat run")
			}
			for k := 0; k < 1-n; k++ {
				dst = append(dst, src[i])
			}
			i++
		}
	}
	if len(dst) < size {
		return nil, formatErrorf("PackBits chunk decodes to %d bytes, want %d", len(dst), size)
	}
	return dst[:size], nil
}

// unpredict reverses the predictor in place, one row of rowBytes at a time.
func (im *Image) unpredict(data []byte, rowBytes int) error {
	if rowBytes == 0 {
		return nil
	}
	spc := im.samplesPerChunkPixel()
	bps := im.BytesPerSample()
	switch im.Predictor {
	case PredictorNone:
		return nil
	case PredictorHorizontal:
		for off := 0; off+rowBytes <= len(data); off += rowBytes {
			if err := horizontalAccumulate(data[off:off+rowBytes], im.order, bps, spc); err != nil {
				return err
			}
		}
		return nil
	case PredictorFloatingPoint:
		if im.SampleFormat != SampleFormatIEEEFP {
			return FormatError("floating point predictor on integer samples")
		}
		tmp := make([]byte, rowBytes)
		for off := 0; off+rowBytes <= len(data); off += rowBytes {
			floatAccumulate(data[off:off+rowBytes], tmp, im.order, bps, spc)
		}
		return nil
	}
	return UnsupportedError(fmt.Sprintf("predictor %d", im.Predictor))
}

// horizontalAccumulate undoes horizontal differencing on one row.
// Each sample is the sum of itself and the same sample of the previous pixel.
func horizontalAccumulate(row []byte, order binary.ByteOrder, bps, spc int) error {
	stride := bps * spc
	switch bps {
	case 1:
		for i := stride; i < len(row); i++ {
			row[i] += row[i-stride]
		}
	case 2:
		for i := stride; i+2 <= len(row); i += 2 {
			order.PutUint16(row[i:], order.Uint16(row[i:])+order.Uint16(row[i-stride:]))
		}
	case 4:
		for i := stride; i+4 <= len(row); i += 4 {
			order.PutUint32(row[i:], order.Uint32(row[i:])+order.Uint32(row[i-stride:]))
		}
	case 8:
		for i := stride; i+8 <= len(row); i += 8 {
			order.PutUint64(row[i:], order.Uint64(row[i:])+order.Uint64(row[i-stride:]))
		}
	default:
		return UnsupportedError(fmt.Sprintf("horizontal predictor with %d-byte samples", bps))
	}
	return nil
}

// floatAccumulate undoes the floating point predictor on one row:
// a byte-wise horizontal accumulation followed by regrouping the bytes,
// which the encoder stored most significant byte plane first.
func floatAccumulate(row, tmp []byte, order binary.ByteOrder, bps, spc int) {
	for i := spc; i < len(row); i++ {
		row[i] += row[i-spc]
	}
	copy(tmp, row)
	wc := len(row) / bps
	for count := 0; count < wc; count++ {
		for b := 0; b < bps; b++ {
			if order == binary.BigEndian {
				row[bps*count+b] = tmp[b*wc+count]
			} else {
				row[bps*count+b] = tmp[(bps-b-1)*wc+count]
			}
		}
	}
}
