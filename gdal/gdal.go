//go:build gdal
// +build gdal

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

// Package gdal registers a raster driver backed by the GDAL library.
// Importing it for its side effects makes geotiff.Open read files through
// GDAL, falling back to the built-in GeoTIFF reader for files GDAL rejects.
//
//	import _ "github.com/spatialmodel/geotiff/gdal"
//
// Building it requires cgo, the "gdal" build tag and a GDAL installation
// visible to pkg-config.
package gdal

import (
	"fmt"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/spatialmodel/geotiff"
)

func init() {
	godal.RegisterAll()
	geotiff.RegisterDriver(Driver{})
}

// Driver opens rasters with GDAL's GTiff driver.
type Driver struct{}

// Name returns the GDAL short name of the driver.
func (Driver) Name() string { return string(godal.GTiff) }

// LongName returns the GDAL long name of the driver.
func (Driver) LongName() string { return "GeoTIFF" }

// Open opens path read-only.
func (Driver) Open(path string) (geotiff.Source, error) {
	ds, err := godal.Open(path, godal.Drivers(string(godal.GTiff)), godal.RasterOnly())
	if err != nil {
		return nil, err
	}
	return &source{ds: ds, bands: ds.Bands()}, nil
}

type source struct {
	ds    *godal.Dataset
	bands []godal.Band
}

func (s *source) Size() (int, int) {
	st := s.ds.Structure()
	return st.SizeX, st.SizeY
}

func (s *source) BandCount() int { return len(s.bands) }

func (s *source) band(band int) (godal.Band, bool) {
	if band < 1 || band > len(s.bands) {
		return godal.Band{}, false
	}
	return s.bands[band-1], true
}

// DataType converts GDAL's type code. Both enumerations share GDAL's
// numbering up to CFloat64; the 64-bit integer and Int8 codes of recent GDAL
// versions are reported as Unknown.
func (s *source) DataType(band int) geotiff.DataType {
	b, ok := s.band(band)
	if !ok {
		return geotiff.Unknown
	}
	dt := geotiff.DataType(b.Structure().DataType)
	if dt < geotiff.Unknown || dt > geotiff.CFloat64 {
		return geotiff.Unknown
	}
	return dt
}

func (s *source) Read(band, x, y, w, h int, buf interface{}) error {
	b, ok := s.band(band)
	if !ok {
		return fmt.Errorf("band %d: %w", band, geotiff.ErrBandRange)
	}
	return b.Read(x, y, buf, w, h)
}

func (s *source) GeoTransform() ([6]float64, bool) {
	gt, err := s.ds.GeoTransform()
	if err != nil {
		return [6]float64{0, 1, 0, 0, 0, 1}, false
	}
	return gt, true
}

func (s *source) Projection() string { return s.ds.Projection() }

func (s *source) NoData(band int) (float64, bool) {
	b, ok := s.band(band)
	if !ok {
		return 0, false
	}
	return b.NoData()
}

func (s *source) Describe(band int) geotiff.BandDescription {
	b, ok := s.band(band)
	if !ok {
		return geotiff.BandDescription{}
	}
	st := b.Structure()
	d := geotiff.BandDescription{
		BlockWidth:        st.BlockSizeX,
		BlockHeight:       st.BlockSizeY,
		ColorInterp:       b.ColorInterp().Name(),
		Overviews:         len(b.Overviews()),
		ColorTableEntries: len(b.ColorTable().Entries),
	}
	min, okMin := metadataFloat(b, "STATISTICS_MINIMUM")
	max, okMax := metadataFloat(b, "STATISTICS_MAXIMUM")
	if okMin && okMax {
		d.Min, d.Max, d.HasMinMax = min, max, true
	}
	return d
}

func metadataFloat(b godal.Band, key string) (float64, bool) {
	s := strings.TrimSpace(b.Metadata(key))
	if s == "" {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscan(s, &v); err != nil {
		return 0, false
	}
	return v, true
}

func (s *source) Close() error {
	return s.ds.Close()
}
