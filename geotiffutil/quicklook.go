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
	"image"
	"image/png"
	"io"
	"math"

	"github.com/spatialmodel/geotiff"
	"gonum.org/v1/plot/palette/moreland"
)

// quicklook renders band of ds with a black body color scale stretched over
// the finite valid samples. NaN and no-data samples are transparent.
func quicklook(ds *geotiff.Dataset, band int) (*image.NRGBA, error) {
	rows, err := ds.ReadBand2D(band)
	if err != nil {
		return nil, err
	}
	nodata, hasNoData := ds.Source().NoData(band)
	nd := float32(nodata)
	valid := func(v float32) bool {
		return v == v && !(hasNoData && v == nd)
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		for _, v := range row {
			f := float64(v)
			if !valid(v) || math.IsInf(f, 0) {
				continue
			}
			min = math.Min(min, f)
			max = math.Max(max, f)
		}
	}
	if min > max {
		min, max = 0, 1
	} else if max == min {
		max = min + 1
	}
	cm := moreland.ExtendedBlackBody()
	cm.SetMin(min)
	cm.SetMax(max)

	var width int
	if len(rows) > 0 {
		width = len(rows[0])
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, len(rows)))
	for y, row := range rows {
		for x, v := range row {
			if !valid(v) {
				continue
			}
			c, err := cm.At(math.Max(min, math.Min(max, float64(v))))
			if err != nil {
				return nil, err
			}
			img.Set(x, y, c)
		}
	}
	return img, nil
}

// writeQuicklook writes the quicklook of band as a PNG image.
func writeQuicklook(w io.Writer, ds *geotiff.Dataset, band int) error {
	img, err := quicklook(ds, band)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
