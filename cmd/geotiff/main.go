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

// Command geotiff opens a GeoTIFF file and prints a summary of it, and
// exports its bands as CSV, PNG or NetCDF.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/geotiff/geotiffutil"
)

func main() {
	if err := geotiffutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
