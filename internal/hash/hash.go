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

// Package hash computes content checksums of decoded raster data.
package hash

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// Float32s returns the hex-encoded fnv-128a digest of a band. NaN samples
// hash identically whatever their payload bits.
func Float32s(v []float32) string {
	h := fnv.New128a()
	nan := math.Float32bits(float32(math.NaN()))
	var b [4]byte
	for _, x := range v {
		bits := math.Float32bits(x)
		if x != x {
			bits = nan
		}
		binary.LittleEndian.PutUint32(b[:], bits)
		h.Write(b[:])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
