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

// Package tiff reads the raster and georeferencing parts of classic TIFF and
// BigTIFF files. It decodes image file directories lazily from an io.ReaderAt
// and assembles arbitrary windows of one sample plane from strips or tiles.
package tiff

import "fmt"

// Tag is a TIFF field tag.
type Tag uint16

// Baseline, extension, GeoTIFF and GDAL private tags understood by the decoder.
const (
	TagNewSubfileType            Tag = 254
	TagImageWidth                Tag = 256
	TagImageLength               Tag = 257
	TagBitsPerSample             Tag = 258
	TagCompression               Tag = 259
	TagPhotometricInterpretation Tag = 262
	TagImageDescription          Tag = 270
	TagStripOffsets              Tag = 273
	TagSamplesPerPixel           Tag = 277
	TagRowsPerStrip              Tag = 278
	TagStripByteCounts           Tag = 279
	TagPlanarConfiguration       Tag = 284
	TagPredictor                 Tag = 317
	TagColorMap                  Tag = 320
	TagTileWidth                 Tag = 322
	TagTileLength                Tag = 323
	TagTileOffsets               Tag = 324
	TagTileByteCounts            Tag = 325
	TagExtraSamples              Tag = 338
	TagSampleFormat              Tag = 339

	TagModelPixelScale     Tag = 33550
	TagModelTiepoint       Tag = 33922
	TagModelTransformation Tag = 34264
	TagGeoKeyDirectory     Tag = 34735
	TagGeoDoubleParams     Tag = 34736
	TagGeoASCIIParams      Tag = 34737
	TagGDALMetadata        Tag = 42112
	TagGDALNoData          Tag = 42113
)

// Type is the data type of a TIFF field.
type Type uint16

// Field types. LONG8, SLONG8 and IFD8 only occur in BigTIFF files.
const (
	Byte      Type = 1
	ASCII     Type = 2
	Short     Type = 3
	Long      Type = 4
	Rational  Type = 5
	SByte     Type = 6
	Undefined Type = 7
	SShort    Type = 8
	SLong     Type = 9
	SRational Type = 10
	Float     Type = 11
	Double    Type = 12
	IFD       Type = 13
	Long8     Type = 16
	SLong8    Type = 17
	IFD8      Type = 18
)

// Size returns the number of bytes one value of type t occupies,
// or 0 for unknown types.
func (t Type) Size() int {
	switch t {
	case Byte, ASCII, SByte, Undefined:
		return 1
	case Short, SShort:
		return 2
	case Long, SLong, Float, IFD:
		return 4
	case Rational, SRational, Double, Long8, SLong8, IFD8:
		return 8
	}
	return 0
}

// Compression schemes.
const (
	CompressionNone       = 1
	CompressionLZW        = 5
	CompressionDeflate    = 8
	CompressionPackBits   = 32773
	CompressionDeflateOld = 32946
)

// Predictors.
const (
	PredictorNone          = 1
	PredictorHorizontal    = 2
	PredictorFloatingPoint = 3
)

// Sample formats.
const (
	SampleFormatUint          = 1
	SampleFormatInt           = 2
	SampleFormatIEEEFP        = 3
	SampleFormatVoid          = 4
	SampleFormatComplexInt    = 5
	SampleFormatComplexIEEEFP = 6
)

// Photometric interpretations.
const (
	PhotometricWhiteIsZero = 0
	PhotometricBlackIsZero = 1
	PhotometricRGB         = 2
	PhotometricPalette     = 3
	PhotometricMask        = 4
	PhotometricSeparated   = 5
	PhotometricYCbCr       = 6
)

// PlanarConfiguration values.
const (
	PlanarChunky   = 1
	PlanarSeparate = 2
)

// A FormatError reports that the input is not a valid TIFF file.
type FormatError string

func (e FormatError) Error() string {
	return "tiff: invalid format: " + string(e)
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented TIFF feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "tiff: unsupported feature: " + string(e)
}

func formatErrorf(format string, a ...interface{}) error {
	return FormatError(fmt.Sprintf(format, a...))
}
