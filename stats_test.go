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
	"math"
	"testing"

	"github.com/spatialmodel/geotiff/internal/tiff"
	"github.com/spatialmodel/geotiff/internal/tifftest"
)

func TestStatistics(t *testing.T) {
	ds := openTest(t, utmImage())
	s, err := ds.Statistics(1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 5 || s.Min != 1 || s.Max != 5 || s.Mean != 3 {
		t.Errorf("have %+v, want count 5, min 1, max 5, mean 3", s)
	}
	if want := math.Sqrt(2.5); math.Abs(s.StdDev-want) > 1e-12 {
		t.Errorf("standard deviation: have %g, want %g", s.StdDev, want)
	}
}

func TestStatisticsAllNoData(t *testing.T) {
	nan := float32(math.NaN())
	ds := openTest(t, &tifftest.Image{
		Width:  2,
		Height: 2,
		Bands:  []interface{}{[]float32{-1, nan, -1, nan}},
		NoData: "-1",
	})
	s, err := ds.Statistics(1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 0 || !math.IsNaN(s.Min) || !math.IsNaN(s.Max) || !math.IsNaN(s.Mean) || !math.IsNaN(s.StdDev) {
		t.Errorf("have %+v, want zero count and NaN statistics", s)
	}
}

func TestChecksum(t *testing.T) {
	data := []uint16{10, 20, 30, 40, 50, 60}
	plain := openTest(t, &tifftest.Image{Width: 3, Height: 2, Bands: []interface{}{data}})
	tiled := openTest(t, &tifftest.Image{
		Width:       3,
		Height:      2,
		Bands:       []interface{}{data},
		TileWidth:   16,
		TileHeight:  16,
		Compression: tiff.CompressionDeflate,
		Predictor:   tiff.PredictorHorizontal,
	})
	other := openTest(t, &tifftest.Image{Width: 3, Height: 2, Bands: []interface{}{[]uint16{10, 20, 30, 40, 50, 61}}})

	a, err := plain.Checksum(1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tiled.Checksum(1)
	if err != nil {
		t.Fatal(err)
	}
	c, err := other.Checksum(1)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("the storage layout should not change the checksum: %s != %s", a, b)
	}
	if a == c {
		t.Error("different data should have different checksums")
	}
}
