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

package geotiffutil

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/geotiff"
)

// bandVariable is the NetCDF variable name of a band.
func bandVariable(band int) string {
	return fmt.Sprintf("band%d", band)
}

// writeNetCDF writes band of ds to a NetCDF file with dimensions y and x.
// The geotransform and projection are stored as global attributes, and the
// band's no-data value as its _FillValue.
func writeNetCDF(path string, ds *geotiff.Dataset, band int) error {
	data, err := ds.ReadBand1D(band)
	if err != nil {
		return err
	}
	cols, rows, _, err := ds.Dimensions()
	if err != nil {
		return err
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return err
	}
	proj, err := ds.Projection()
	if err != nil {
		return err
	}

	v := bandVariable(band)
	h := cdf.NewHeader([]string{"x", "y"}, []int{cols, rows})
	h.AddAttribute("", "comment", fmt.Sprintf("Band %d of %s", band, ds.FileName()))
	h.AddAttribute("", "geotransform", gt[:])
	if proj != "" {
		h.AddAttribute("", "projection", proj)
	}
	h.AddVariable(v, []string{"y", "x"}, []float32{0})
	if nodata, ok := ds.Source().NoData(band); ok {
		h.AddAttribute(v, "_FillValue", []float32{float32(nodata)})
	}
	if unit := ds.Source().Describe(band).Unit; unit != "" {
		h.AddAttribute(v, "units", unit)
	}
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geotiffutil: creating NetCDF file: %v", err)
	}
	f, err := cdf.Create(ff, h) // writes the header to ff
	if err != nil {
		ff.Close()
		return fmt.Errorf("geotiffutil: writing NetCDF header: %v", err)
	}
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	if _, err := w.Write(data); err != nil {
		ff.Close()
		return fmt.Errorf("geotiffutil: writing NetCDF data: %v", err)
	}
	return ff.Close()
}
