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

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// PixelToGeo returns the georeferenced coordinates of the point at column
// col and row row. Integer positions are pixel corners.
func (ds *Dataset) PixelToGeo(col, row float64) (geom.Point, error) {
	if !ds.IsValid() {
		return geom.Point{}, ErrInvalid
	}
	return applyGeoTransform(ds.geoTransform, col, row), nil
}

func applyGeoTransform(gt [6]float64, col, row float64) geom.Point {
	return geom.Point{
		X: gt[0] + col*gt[1] + row*gt[2],
		Y: gt[3] + col*gt[4] + row*gt[5],
	}
}

// GeoToPixel returns the fractional column and row of a georeferenced point.
func (ds *Dataset) GeoToPixel(p geom.Point) (col, row float64, err error) {
	if !ds.IsValid() {
		return 0, 0, ErrInvalid
	}
	gt := ds.geoTransform
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, fmt.Errorf("geotiff: geotransform %v of %s is not invertible", gt, ds.filename)
	}
	dx, dy := p.X-gt[0], p.Y-gt[3]
	col = (gt[5]*dx - gt[2]*dy) / det
	row = (gt[1]*dy - gt[4]*dx) / det
	return col, row, nil
}

// corners returns the upper-left, lower-left, upper-right, lower-right
// and center points of the raster.
func (ds *Dataset) corners() [5]geom.Point {
	c, r := float64(ds.cols), float64(ds.rows)
	gt := ds.geoTransform
	return [5]geom.Point{
		applyGeoTransform(gt, 0, 0),
		applyGeoTransform(gt, 0, r),
		applyGeoTransform(gt, c, 0),
		applyGeoTransform(gt, c, r),
		applyGeoTransform(gt, c/2, r/2),
	}
}

// Bounds returns the georeferenced extent of the raster.
func (ds *Dataset) Bounds() (*geom.Bounds, error) {
	if !ds.IsValid() {
		return nil, ErrInvalid
	}
	b := geom.NewBounds()
	cs := ds.corners()
	for _, p := range cs[:4] {
		b.Extend(geom.NewBoundsPoint(p))
	}
	return b, nil
}

const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// LonLat converts a georeferenced point of the dataset to WGS84 longitude
// and latitude in degrees. It fails when the dataset has no spatial
// reference.
func (ds *Dataset) LonLat(p geom.Point) (geom.Point, error) {
	t, err := ds.toWGS84()
	if err != nil {
		return geom.Point{}, err
	}
	x, y, err := t(p.X, p.Y)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: x, Y: y}, nil
}

func (ds *Dataset) toWGS84() (proj.Transformer, error) {
	if !ds.IsValid() {
		return nil, ErrInvalid
	}
	if ds.sr == nil {
		return nil, fmt.Errorf("geotiff: %s has no spatial reference", ds.filename)
	}
	dst, err := proj.Parse(wgs84)
	if err != nil {
		return nil, err
	}
	return ds.sr.NewTransform(dst)
}
