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

	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
)

// Indices into the geotransform.
const (
	ParamCX = 0 // x coordinate of the upper-left corner
	ParamSX = 1 // pixel width
	ParamCY = 3 // y coordinate of the upper-left corner
	ParamSY = 5 // pixel height, negative for north-up images
)

// Dataset is an open raster file. Metadata is read once when the file is
// opened; band data is read on request.
// A Dataset must not be used from more than one goroutine at a time.
type Dataset struct {
	filename string
	src      Source
	driver   Driver
	err      error

	cols, rows, bands int
	noData            float64
	hasNoData         bool
	geoTransform      [6]float64
	hasGeoTransform   bool
	projection        string
	sr                *proj.SR
}

// Open opens filename read-only. It never returns nil: when the file cannot
// be opened the returned Dataset is invalid, the failure is logged, and Err
// reports its cause.
func Open(filename string) *Dataset {
	ds := &Dataset{filename: filename}
	src, drv, err := openSource(filename)
	if err != nil {
		Log.WithFields(logrus.Fields{"file": filename}).WithError(err).Error("geotiff: unable to open file")
		ds.err = err
		return ds
	}
	ds.src, ds.driver = src, drv
	ds.cols, ds.rows = src.Size()
	ds.bands = src.BandCount()

	log := Log.WithFields(logrus.Fields{"file": filename, "bands": ds.bands})
	switch {
	case ds.bands < 1:
		log.Warn("geotiff: file has no raster bands")
	case ds.bands > 1:
		log.Warn("geotiff: file has more than one band; only the no-data value of band 1 is used")
	}
	if ds.bands >= 1 {
		ds.noData, ds.hasNoData = src.NoData(1)
	}
	ds.geoTransform, ds.hasGeoTransform = src.GeoTransform()
	ds.projection = src.Projection()
	if ds.projection != "" {
		sr, err := parseSpatialRef(ds.projection)
		if err != nil {
			log.WithError(err).Warn("geotiff: unable to parse projection")
		} else {
			ds.sr = sr
		}
	}
	return ds
}

// parseSpatialRef parses a WKT or PROJ.4 definition. proj.Parse panics on
// some malformed WKT, so the panic is converted to an error.
func parseSpatialRef(def string) (sr *proj.SR, err error) {
	defer func() {
		if r := recover(); r != nil {
			sr, err = nil, fmt.Errorf("geotiff: malformed projection: %v", r)
		}
	}()
	return proj.Parse(def)
}

// IsValid reports whether the dataset is open.
func (ds *Dataset) IsValid() bool {
	return ds != nil && ds.src != nil
}

// Err returns the reason the dataset could not be opened, if any.
func (ds *Dataset) Err() error {
	return ds.err
}

// FileName returns the path the dataset was opened from.
func (ds *Dataset) FileName() string {
	return ds.filename
}

// Driver returns the driver that opened the dataset, or nil.
func (ds *Dataset) Driver() Driver {
	return ds.driver
}

// Source returns the underlying raster source, or nil for an invalid
// dataset.
func (ds *Dataset) Source() Source {
	if !ds.IsValid() {
		return nil
	}
	return ds.src
}

// Dimensions returns the number of columns, rows and bands.
func (ds *Dataset) Dimensions() (cols, rows, bands int, err error) {
	if !ds.IsValid() {
		return 0, 0, 0, ErrInvalid
	}
	return ds.cols, ds.rows, ds.bands, nil
}

// GeoTransform returns the six geotransform coefficients: origin x, pixel
// width, row rotation, origin y, column rotation and pixel height. The
// coefficients are read again from the file on each call.
func (ds *Dataset) GeoTransform() ([6]float64, error) {
	if !ds.IsValid() {
		return [6]float64{}, ErrInvalid
	}
	ds.geoTransform, ds.hasGeoTransform = ds.src.GeoTransform()
	return ds.geoTransform, nil
}

// GeoTransformParam returns geotransform coefficient id, which must be in
// [0, 5]. See ParamCX, ParamSX, ParamCY and ParamSY.
func (ds *Dataset) GeoTransformParam(id int) (float64, error) {
	if !ds.IsValid() {
		return 0, ErrInvalid
	}
	if id < 0 || id > 5 {
		Log.WithFields(logrus.Fields{"file": ds.filename, "param": id}).Error("geotiff: invalid geotransform parameter")
		return 0, fmt.Errorf("%w: %d", ErrParamRange, id)
	}
	return ds.geoTransform[id], nil
}

// Projection returns the projection definition exactly as the driver
// reports it, which may be empty.
func (ds *Dataset) Projection() (string, error) {
	if !ds.IsValid() {
		return "", ErrInvalid
	}
	return ds.projection, nil
}

// SpatialRef returns the parsed projection, or nil when the dataset has no
// usable projection.
func (ds *Dataset) SpatialRef() *proj.SR {
	if !ds.IsValid() {
		return nil
	}
	return ds.sr
}

// NoDataValue returns the no-data value of band 1 and whether one is set.
// The no-data values of other bands are not consulted.
func (ds *Dataset) NoDataValue() (float64, bool, error) {
	if !ds.IsValid() {
		return 0, false, ErrInvalid
	}
	return ds.noData, ds.hasNoData, nil
}

// Close releases the spatial reference and the underlying file. It is safe
// to call on an invalid dataset and more than once.
func (ds *Dataset) Close() error {
	if !ds.IsValid() {
		return nil
	}
	ds.sr = nil
	err := ds.src.Close()
	ds.src = nil
	return err
}
