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

// Package geotiff provides read access to GeoTIFF rasters: their dimensions,
// affine geotransform, projection and no-data value, and the pixel data of
// individual bands converted to float32 regardless of how the samples are
// stored on disk.
//
// The built-in reader only generates projection definitions for common
// EPSG codes: the WGS84, NAD83 and NAD27 geographic systems, the WGS84 and
// NAD83 UTM zones and web Mercator. Other coordinate reference systems
// (EPSG:3035, for example) are logged and Projection returns an empty
// string for them; the GDAL driver has no such limit.
//
// Files are opened through registered drivers. A pure-Go GeoTIFF driver is
// always available; building with the "gdal" tag and importing
// github.com/spatialmodel/geotiff/gdal adds a driver backed by GDAL.
package geotiff

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Version is the version of this package.
const Version = "1.0.0"

// GitCommit is the commit the binaries were built from. It is set at link
// time with -ldflags "-X github.com/spatialmodel/geotiff.GitCommit=...".
var GitCommit = "unknown"

// Log receives the anomalies found while opening and querying datasets.
var Log logrus.FieldLogger = logrus.StandardLogger()

var (
	// ErrInvalid is returned by operations on a dataset that failed to
	// open or has been closed.
	ErrInvalid = errors.New("geotiff: invalid dataset")

	// ErrBandRange is returned when a band index is outside [1, band count].
	ErrBandRange = errors.New("geotiff: band index out of range")

	// ErrParamRange is returned when a geotransform parameter index is
	// outside [0, 5].
	ErrParamRange = errors.New("geotiff: geotransform parameter out of range")

	// ErrUnsupportedType is returned when a band is stored in an encoding
	// that cannot be converted to float32.
	ErrUnsupportedType = errors.New("geotiff: unsupported band data type")

	// ErrNoDriver is returned when no registered driver can open a file.
	ErrNoDriver = errors.New("geotiff: no driver could open the file")
)
