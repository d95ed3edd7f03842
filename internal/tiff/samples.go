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
	"math"
)

// DecodeSamples converts raw samples in byte order o into dst, which must be
// a []uint8, []int8, []uint16, []int16, []uint32, []int32, []float32 or
// []float64 with exactly len(raw)/size elements.
func DecodeSamples(o binary.ByteOrder, raw []byte, dst interface{}) error {
	check := func(n, size int) error {
		if n*size != len(raw) {
			return fmt.Errorf("tiff: %d raw bytes do not fill %d samples of %d bytes", len(raw), n, size)
		}
		return nil
	}
	switch d := dst.(type) {
	case []uint8:
		if err := check(len(d), 1); err != nil {
			return err
		}
		copy(d, raw)
	case []int8:
		if err := check(len(d), 1); err != nil {
			return err
		}
		for i := range d {
			d[i] = int8(raw[i])
		}
	case []uint16:
		if err := check(len(d), 2); err != nil {
			return err
		}
		for i := range d {
			d[i] = o.Uint16(raw[2*i:])
		}
	case []int16:
		if err := check(len(d), 2); err != nil {
			return err
		}
		for i := range d {
			d[i] = int16(o.Uint16(raw[2*i:]))
		}
	case []uint32:
		if err := check(len(d), 4); err != nil {
			return err
		}
		for i := range d {
			d[i] = o.Uint32(raw[4*i:])
		}
	case []int32:
		if err := check(len(d), 4); err != nil {
			return err
		}
		for i := range d {
			d[i] = int32(o.Uint32(raw[4*i:]))
		}
	case []float32:
		if err := check(len(d), 4); err != nil {
			return err
		}
		for i := range d {
			d[i] = math.Float32frombits(o.Uint32(raw[4*i:]))
		}
	case []float64:
		if err := check(len(d), 8); err != nil {
			return err
		}
		for i := range d {
			d[i] = math.Float64frombits(o.Uint64(raw[8*i:]))
		}
	default:
		return fmt.Errorf("tiff: cannot decode samples into %T", dst)
	}
	return nil
}
