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
	"fmt"
	"strings"
)

// GeoKey identifiers.
const (
	GTModelTypeGeoKey       = 1024
	GTRasterTypeGeoKey      = 1025
	GTCitationGeoKey        = 1026
	GeographicTypeGeoKey    = 2048
	GeogCitationGeoKey      = 2049
	GeogGeodeticDatumGeoKey = 2050
	GeogAngularUnitsGeoKey  = 2054
	ProjectedCSTypeGeoKey   = 3072
	PCSCitationGeoKey       = 3073
	ProjLinearUnitsGeoKey   = 3076
	VerticalCSTypeGeoKey    = 4096
)

// Model and raster types.
const (
	ModelTypeProjected  = 1
	ModelTypeGeographic = 2
	ModelTypeGeocentric = 3

	RasterPixelIsArea  = 1
	RasterPixelIsPoint = 2

	userDefined = 32767
)

// GeoKeys holds the decoded GeoKey directory of a directory.
// Numeric keys are stored in Shorts or Doubles, text keys in ASCII.
type GeoKeys struct {
	Shorts  map[int]int
	Doubles map[int][]float64
	ASCII   map[int]string
}

// GeoKeys decodes the GeoKey directory of d. It returns nil without an
// error when d holds no GeoKey directory.
func (d *Dir) GeoKeys() (*GeoKeys, error) {
	if !d.Has(TagGeoKeyDirectory) {
		return nil, nil
	}
	dir, err := d.Uints(TagGeoKeyDirectory)
	if err != nil {
		return nil, err
	}
	if len(dir) < 4 {
		return nil, FormatError("short GeoKey directory")
	}
	var doubles []float64
	if d.Has(TagGeoDoubleParams) {
		if doubles, err = d.Floats(TagGeoDoubleParams); err != nil {
			return nil, err
		}
	}
	var ascii string
	if d.Has(TagGeoASCIIParams) {
		if ascii, err = d.Text(TagGeoASCIIParams); err != nil {
			return nil, err
		}
	}

	k := &GeoKeys{
		Shorts:  make(map[int]int),
		Doubles: make(map[int][]float64),
		ASCII:   make(map[int]string),
	}
	n := int(dir[3])
	if len(dir) < 4+4*n {
		return nil, formatErrorf("GeoKey directory declares %d keys but holds %d", n, (len(dir)-4)/4)
	}
	for i := 0; i < n; i++ {
		e := dir[4+4*i : 8+4*i]
		id, loc, count, val := int(e[0]), Tag(e[1]), int(e[2]), int(e[3])
		switch loc {
		case 0:
			k.Shorts[id] = val
		case TagGeoKeyDirectory:
			if val+count > len(dir) {
				return nil, formatErrorf("GeoKey %d points outside the directory", id)
			}
			if count > 0 {
				k.Shorts[id] = int(dir[val])
			}
		case TagGeoDoubleParams:
			if val+count > len(doubles) {
				return nil, formatErrorf("GeoKey %d points outside the double parameters", id)
			}
			k.Doubles[id] = doubles[val : val+count]
		case TagGeoASCIIParams:
			if val+count > len(ascii) {
				return nil, formatErrorf("GeoKey %d points outside the ASCII parameters", id)
			}
			k.ASCII[id] = strings.TrimRight(ascii[val:val+count], "|\x00")
		default:
			return nil, formatErrorf("GeoKey %d stored in unexpected tag %d", id, loc)
		}
	}
	return k, nil
}

// EPSG returns the EPSG code of the coordinate reference system, or 0 when
// the keys describe a user-defined or missing system.
func (k *GeoKeys) EPSG() int {
	if k == nil {
		return 0
	}
	var code int
	switch k.Shorts[GTModelTypeGeoKey] {
	case ModelTypeProjected:
		code = k.Shorts[ProjectedCSTypeGeoKey]
	case ModelTypeGeographic:
		code = k.Shorts[GeographicTypeGeoKey]
	default:
		if c, ok := k.Shorts[ProjectedCSTypeGeoKey]; ok {
			code = c
		} else {
			code = k.Shorts[GeographicTypeGeoKey]
		}
	}
	if code == userDefined {
		return 0
	}
	return code
}

// PixelIsPoint reports whether raster coordinates refer to pixel centers.
func (k *GeoKeys) PixelIsPoint() bool {
	return k != nil && k.Shorts[GTRasterTypeGeoKey] == RasterPixelIsPoint
}

// Citation returns the most specific citation text available.
func (k *GeoKeys) Citation() string {
	if k == nil {
		return ""
	}
	for _, id := range []int{PCSCitationGeoKey, GTCitationGeoKey, GeogCitationGeoKey} {
		if s := k.ASCII[id]; s != "" {
			return s
		}
	}
	return ""
}

// Proj4 returns a PROJ.4 definition for the coordinate reference system, or
// an empty string when the system is not one of the common EPSG codes.
func (k *GeoKeys) Proj4() string {
	return EPSGToProj4(k.EPSG())
}

// EPSGToProj4 returns a PROJ.4 definition for the EPSG codes of the
// WGS84, NAD83 and NAD27 geographic systems, the WGS84 and NAD83 UTM zones
// and web Mercator. It returns an empty string for any other code.
func EPSGToProj4(code int) string {
	switch {
	case code == 4326:
		return "+proj=longlat +datum=WGS84 +no_defs"
	case code == 4269:
		return "+proj=longlat +datum=NAD83 +no_defs"
	case code == 4267:
		return "+proj=longlat +datum=NAD27 +no_defs"
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600)
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700)
	case code > 26900 && code <= 26923:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=NAD83 +units=m +no_defs", code-26900)
	case code == 3857 || code == 900913:
		return "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +no_defs"
	}
	return ""
}

// GeoTransform returns the affine pixel-to-model transform of d as
// (origin x, pixel width, row rotation, origin y, column rotation,
// pixel height). ok is false and the identity transform
// [0 1 0 0 0 1] is returned when d carries no georeferencing.
func (d *Dir) GeoTransform(k *GeoKeys) (gt [6]float64, ok bool, err error) {
	gt = [6]float64{0, 1, 0, 0, 0, 1}
	switch {
	case d.Has(TagModelTransformation):
		m, err := d.Floats(TagModelTransformation)
		if err != nil {
			return gt, false, err
		}
		if len(m) < 16 {
			return gt, false, FormatError("ModelTransformation needs 16 values")
		}
		gt = [6]float64{m[3], m[0], m[1], m[7], m[4], m[5]}
	case d.Has(TagModelTiepoint) && d.Has(TagModelPixelScale):
		tp, err := d.Floats(TagModelTiepoint)
		if err != nil {
			return gt, false, err
		}
		sc, err := d.Floats(TagModelPixelScale)
		if err != nil {
			return gt, false, err
		}
		if len(tp) < 6 || len(sc) < 2 {
			return gt, false, FormatError("short ModelTiepoint or ModelPixelScale")
		}
		gt = [6]float64{
			tp[3] - tp[0]*sc[0], sc[0], 0,
			tp[4] + tp[1]*sc[1], 0, -sc[1],
		}
	default:
		return gt, false, nil
	}
	if k.PixelIsPoint() {
		gt[0] -= 0.5*gt[1] + 0.5*gt[2]
		gt[3] -= 0.5*gt[4] + 0.5*gt[5]
	}
	return gt, true, nil
}
