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

package geotiff

import "fmt"

// DataType is the native encoding of the samples of a band. The values
// follow GDAL's GDALDataType numbering.
type DataType int

// Native sample encodings.
const (
	Unknown DataType = iota
	Byte
	UInt16
	Int16
	UInt32
	Int32
	Float32
	Float64
	CInt16
	CInt32
	CFloat32
	CFloat64
)

var dataTypeNames = [...]string{
	Unknown:  "Unknown",
	Byte:     "Byte",
	UInt16:   "UInt16",
	Int16:    "Int16",
	UInt32:   "UInt32",
	Int32:    "Int32",
	Float32:  "Float32",
	Float64:  "Float64",
	CInt16:   "CInt16",
	CInt32:   "CInt32",
	CFloat32: "CFloat32",
	CFloat64: "CFloat64",
}

var dataTypeSizes = [...]int{
	Byte:     1,
	UInt16:   2,
	Int16:    2,
	UInt32:   4,
	Int32:    4,
	Float32:  4,
	Float64:  8,
	CInt16:   4,
	CInt32:   8,
	CFloat32: 8,
	CFloat64: 16,
}

// String returns the GDAL name of the data type.
func (dt DataType) String() string {
	if dt < 0 || int(dt) >= len(dataTypeNames) {
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
	return dataTypeNames[dt]
}

// Size returns the size of one sample in bytes, or 0 for Unknown.
func (dt DataType) Size() int {
	if dt < 0 || int(dt) >= len(dataTypeSizes) {
		return 0
	}
	return dataTypeSizes[dt]
}

// IsComplex reports whether samples have a real and an imaginary part.
func (dt DataType) IsComplex() bool {
	return dt >= CInt16 && dt <= CFloat64
}

// sampleReader allocates native scratch buffers for one encoding and
// casts them to float32.
type sampleReader struct {
	alloc func(n int) interface{}
	cast  func(dst []float32, src interface{})
}

// sampleReaders is the closed set of encodings the band materializer
// supports. Every other DataType is unsupported.
var sampleReaders = [...]sampleReader{
	Byte: {
		alloc: func(n int) interface{} { return make([]uint8, n) },
		cast: func(dst []float32, src interface{}) {
			for i, v := range src.([]uint8) {
				dst[i] = float32(v)
			}
		},
	},
	UInt16: {
		alloc: func(n int) interface{} { return make([]uint16, n) },
		cast: func(dst []float32, src interface{}) {
			for i, v := range src.([]uint16) {
				dst[i] = float32(v)
			}
		},
	},
	Int16: {
		alloc: func(n int) interface{} { return make([]int16, n) },
		cast: func(dst []float32, src interface{}) {
			for i, v := range src.([]int16) {
				dst[i] = float32(v)
			}
		},
	},
	UInt32: {
		alloc: func(n int) interface{} { return make([]uint32, n) },
		cast: func(dst []float32, src interface{}) {
			for i, v := range src.([]uint32) {
				dst[i] = float32(v)
			}
		},
	},
	Int32: {
		alloc: func(n int) interface{} { return make([]int32, n) },
		cast: func(dst []float32, src interface{}) {
			for i, v := range src.([]int32) {
				dst[i] = float32(v)
			}
		},
	},
	Float32: {
		alloc: func(n int) interface{} { return make([]float32, n) },
		cast: func(dst []float32, src interface{}) {
			copy(dst, src.([]float32))
		},
	},
	Float64: {
		alloc: func(n int) interface{} { return make([]float64, n) },
		cast: func(dst []float32, src interface{}) {
			for i, v := range src.([]float64) {
				dst[i] = float32(v)
			}
		},
	},
}

func readerFor(dt DataType) (sampleReader, bool) {
	if dt < 0 || int(dt) >= len(sampleReaders) || sampleReaders[dt].alloc == nil {
		return sampleReader{}, false
	}
	return sampleReaders[dt], true
}
