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
	"strings"
	"sync"
)

// Source is an open raster file as seen through a driver.
// Bands are numbered from 1.
type Source interface {
	// Size returns the raster width (columns) and height (rows).
	Size() (cols, rows int)

	// BandCount returns the number of bands.
	BandCount() int

	// DataType returns the native sample encoding of a band.
	DataType(band int) DataType

	// Read fills buf with the w×h window of band starting at column x and
	// row y, row-major. buf is a slice of the Go type matching
	// DataType(band) ([]uint8 for Byte, []int16 for Int16, ...) with
	// exactly w*h elements.
	Read(band, x, y, w, h int, buf interface{}) error

	// GeoTransform returns the affine pixel-to-georeferenced transform.
	// ok is false, and the transform is [0 1 0 0 0 1], when the file is
	// not georeferenced.
	GeoTransform() (gt [6]float64, ok bool)

	// Projection returns the coordinate reference system as WKT or PROJ.4,
	// or an empty string.
	Projection() string

	// NoData returns the no-data value of a band.
	NoData(band int) (value float64, ok bool)

	// Describe returns diagnostic information about a band.
	Describe(band int) BandDescription

	// Close releases the file.
	Close() error
}

// BandDescription holds the per-band details reported by Dataset.Info.
type BandDescription struct {
	BlockWidth, BlockHeight int
	ColorInterp             string
	Overviews               int
	ColorTableEntries       int
	Unit                    string

	// Min and Max are the stored statistics, valid when HasMinMax is set.
	Min, Max  float64
	HasMinMax bool
}

// Driver opens raster files.
type Driver interface {
	// Name is the short driver name, e.g. "GTiff".
	Name() string
	// LongName is the descriptive driver name, e.g. "GeoTIFF".
	LongName() string
	// Open opens path read-only.
	Open(path string) (Source, error)
}

var (
	registerOnce sync.Once
	driversMu    sync.Mutex
	drivers      []Driver
)

// Register registers the built-in drivers. It is called by Open and may be
// called any number of times.
func Register() {
	registerOnce.Do(func() {
		RegisterDriver(gtiffDriver{})
	})
}

// RegisterDriver adds d to the drivers tried by Open. Drivers are tried in
// the order they were registered, except that the built-in GeoTIFF driver
// is always tried last.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := d.(gtiffDriver); ok {
		drivers = append(drivers, d)
		return
	}
	for i, existing := range drivers {
		if _, ok := existing.(gtiffDriver); ok {
			drivers = append(drivers[:i], append([]Driver{d}, drivers[i:]...)...)
			return
		}
	}
	drivers = append(drivers, d)
}

// Drivers returns the registered drivers in the order Open tries them.
func Drivers() []Driver {
	Register()
	driversMu.Lock()
	defer driversMu.Unlock()
	return append([]Driver(nil), drivers...)
}

// openSource opens path with the first driver that accepts it.
func openSource(path string) (Source, Driver, error) {
	var msgs []string
	for _, d := range Drivers() {
		src, err := d.Open(path)
		if err == nil {
			return src, d, nil
		}
		msgs = append(msgs, fmt.Sprintf("%s: %v", d.Name(), err))
	}
	return nil, nil, fmt.Errorf("%w: %s (%s)", ErrNoDriver, path, strings.Join(msgs, "; "))
}
