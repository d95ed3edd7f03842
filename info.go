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
	"io"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Info is a snapshot of the metadata of a dataset and its bands.
// Values that may be missing are pointers so that Info can be encoded as
// JSON or TOML.
type Info struct {
	Driver         string `json:"driver" toml:"driver"`
	DriverLongName string `json:"driver_long_name" toml:"driver_long_name"`
	File           string `json:"file" toml:"file"`

	Cols      int `json:"cols" toml:"cols"`
	Rows      int `json:"rows" toml:"rows"`
	BandCount int `json:"band_count" toml:"band_count"`

	Projection string `json:"projection" toml:"projection"`

	// GeoTransform is nil when the file is not georeferenced.
	GeoTransform *[6]float64 `json:"geotransform,omitempty" toml:"geotransform,omitempty"`

	Corners []Corner   `json:"corners,omitempty" toml:"corners,omitempty"`
	Bands   []BandInfo `json:"bands" toml:"bands"`
}

// Corner is a named corner (or the center) of the raster.
type Corner struct {
	Name string  `json:"name" toml:"name"`
	X    float64 `json:"x" toml:"x"`
	Y    float64 `json:"y" toml:"y"`

	// Lon and Lat are set when the dataset has a spatial reference.
	Lon *float64 `json:"lon,omitempty" toml:"lon,omitempty"`
	Lat *float64 `json:"lat,omitempty" toml:"lat,omitempty"`
}

// BandInfo describes one band.
type BandInfo struct {
	Band        int    `json:"band" toml:"band"`
	BlockWidth  int    `json:"block_width" toml:"block_width"`
	BlockHeight int    `json:"block_height" toml:"block_height"`
	Type        string `json:"type" toml:"type"`
	ColorInterp string `json:"color_interp" toml:"color_interp"`

	// Min and Max are the stored statistics when the file has them, and
	// are computed from the data otherwise. They are nil when the band
	// cannot be read or holds no valid samples.
	Min *float64 `json:"min,omitempty" toml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" toml:"max,omitempty"`

	Overviews         int    `json:"overviews" toml:"overviews"`
	ColorTableEntries int    `json:"color_table_entries" toml:"color_table_entries"`
	Unit              string `json:"unit" toml:"unit"`

	// NoData holds the band's no-data value formatted as text, "NaN"
	// included, when HasNoData is set.
	HasNoData bool   `json:"has_nodata" toml:"has_nodata"`
	NoData    string `json:"nodata,omitempty" toml:"nodata,omitempty"`

	Checksum string `json:"checksum,omitempty" toml:"checksum,omitempty"`
}

// Info collects the metadata of the dataset and of each of its bands.
func (ds *Dataset) Info() (*Info, error) {
	if !ds.IsValid() {
		return nil, ErrInvalid
	}
	info := &Info{
		Driver:         ds.driver.Name(),
		DriverLongName: ds.driver.LongName(),
		File:           ds.filename,
		Cols:           ds.cols,
		Rows:           ds.rows,
		BandCount:      ds.bands,
		Projection:     ds.projection,
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, err
	}
	if ds.hasGeoTransform {
		info.GeoTransform = &gt
	}

	toWGS84, err := ds.toWGS84()
	if err != nil && ds.sr != nil {
		Log.WithFields(logrus.Fields{"file": ds.filename}).WithError(err).Warn("geotiff: cannot compute geographic corner coordinates")
	}
	for i, p := range ds.corners() {
		c := Corner{
			Name: [...]string{"Upper Left", "Lower Left", "Upper Right", "Lower Right", "Center"}[i],
			X:    p.X,
			Y:    p.Y,
		}
		if toWGS84 != nil {
			if lon, lat, err := toWGS84(p.X, p.Y); err == nil && !math.IsNaN(lon) && !math.IsNaN(lat) {
				c.Lon, c.Lat = &lon, &lat
			}
		}
		info.Corners = append(info.Corners, c)
	}

	for b := 1; b <= ds.bands; b++ {
		info.Bands = append(info.Bands, ds.bandInfo(b))
	}
	return info, nil
}

func (ds *Dataset) bandInfo(band int) BandInfo {
	d := ds.src.Describe(band)
	bi := BandInfo{
		Band:              band,
		BlockWidth:        d.BlockWidth,
		BlockHeight:       d.BlockHeight,
		Type:              ds.src.DataType(band).String(),
		ColorInterp:       d.ColorInterp,
		Overviews:         d.Overviews,
		ColorTableEntries: d.ColorTableEntries,
		Unit:              d.Unit,
	}
	if d.HasMinMax {
		min, max := d.Min, d.Max
		bi.Min, bi.Max = &min, &max
	} else if s, err := ds.Statistics(band); err == nil && s.Count > 0 {
		bi.Min, bi.Max = &s.Min, &s.Max
	} else if err != nil {
		Log.WithFields(logrus.Fields{"file": ds.filename, "band": band}).WithError(err).Debug("geotiff: cannot compute band range")
	}
	if v, ok := ds.src.NoData(band); ok {
		bi.HasNoData = true
		bi.NoData = formatFloat(v)
	}
	return bi
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ShowInformation writes a human readable summary of the dataset to w.
func (ds *Dataset) ShowInformation(w io.Writer) error {
	info, err := ds.Info()
	if err != nil {
		return err
	}
	return info.Write(w)
}

// Write writes the summary in the layout used by ShowInformation.
func (info *Info) Write(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Driver:\t\t%s/%s\n", info.Driver, info.DriverLongName)
	ew.printf("Size is\tX: %d\tY: %d\tC: %d\n", info.Cols, info.Rows, info.BandCount)
	ew.printf("Projection is %s\n", info.Projection)
	if gt := info.GeoTransform; gt != nil {
		ew.printf("Origin =\t%s, %s\n", formatFloat(gt[0]), formatFloat(gt[3]))
		ew.printf("Pixel Size =\t%s, %s\n", formatFloat(gt[1]), formatFloat(gt[5]))
	}
	if len(info.Corners) > 0 {
		ew.printf("Corner Coordinates:\n")
		for _, c := range info.Corners {
			ew.printf("%-11s (%s, %s)", c.Name, formatFloat(c.X), formatFloat(c.Y))
			if c.Lon != nil && c.Lat != nil {
				ew.printf(" (%s, %s)", formatFloat(*c.Lon), formatFloat(*c.Lat))
			}
			ew.printf("\n")
		}
	}
	for _, b := range info.Bands {
		ew.printf("Band %d Block=%dx%d Type=%s, ColorInterp=%s\n", b.Band, b.BlockWidth, b.BlockHeight, b.Type, b.ColorInterp)
		if b.Min != nil && b.Max != nil {
			ew.printf("Min = %s,\tMax = %s\n", formatFloat(*b.Min), formatFloat(*b.Max))
		}
		if b.Overviews > 0 {
			ew.printf("Band has %d overviews\n", b.Overviews)
		}
		if b.ColorTableEntries > 0 {
			ew.printf("Band has a color table with %d entries\n", b.ColorTableEntries)
		}
		ew.printf("Units:\t\t%s\n", b.Unit)
		switch {
		case !b.HasNoData:
			ew.printf("Current band does not provide explicit no-data field definition\n")
		case b.NoData == "NaN":
			ew.printf("NoData value: NaN --> %s\n", b.NoData)
		default:
			ew.printf("NoData value: %s\n", b.NoData)
		}
		if b.Checksum != "" {
			ew.printf("Checksum=%s\n", b.Checksum)
		}
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}
