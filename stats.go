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

	"github.com/spatialmodel/geotiff/internal/hash"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the valid samples of a band.
type Stats struct {
	// Count is the number of samples that are neither NaN nor the
	// band's no-data value.
	Count int
	Min   float64
	Max   float64
	Mean  float64
	// StdDev is the sample standard deviation.
	StdDev float64
}

// Statistics computes summary statistics of band. Samples equal to the
// band's own no-data value, and NaN samples, are excluded. When no valid
// samples remain, Count is zero and the other fields are NaN.
func (ds *Dataset) Statistics(band int) (Stats, error) {
	data, err := ds.ReadBand1D(band)
	if err != nil {
		return Stats{}, err
	}
	nodata, hasNoData := ds.src.NoData(band)
	return statistics(data, nodata, hasNoData), nil
}

func statistics(data []float32, nodata float64, hasNoData bool) Stats {
	// Samples have been cast to float32, so the comparison is made at
	// float32 precision.
	nd := float32(nodata)
	vals := make([]float64, 0, len(data))
	for _, v := range data {
		if v != v || hasNoData && v == nd {
			continue
		}
		vals = append(vals, float64(v))
	}
	if len(vals) == 0 {
		nan := math.NaN()
		return Stats{Min: nan, Max: nan, Mean: nan, StdDev: nan}
	}
	s := Stats{
		Count: len(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
	}
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	return s
}

// Checksum returns a hex digest of the float32 contents of band.
func (ds *Dataset) Checksum(band int) (string, error) {
	data, err := ds.ReadBand1D(band)
	if err != nil {
		return "", err
	}
	return hash.Float32s(data), nil
}
