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

package main

import (
	"testing"

	"github.com/spatialmodel/geotiff"
	"github.com/spatialmodel/geotiff/gdal"
)

func TestGDALDriverRegistered(t *testing.T) {
	drivers := geotiff.Drivers()
	if len(drivers) == 0 {
		t.Fatal("no drivers registered")
	}
	if _, ok := drivers[0].(gdal.Driver); !ok {
		t.Errorf("the command should read through GDAL first, have %T", drivers[0])
	}
}
