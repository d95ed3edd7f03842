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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/geotiff"
	"github.com/spf13/cast"
)

// sampleFunc transforms one sample.
type sampleFunc func(v float32) (float32, error)

// compileExpression compiles expr into a function of each sample. The
// expression can refer to the sample as `value` and to the band's no-data
// value as `nodata`, which is NaN when the band has none. Boolean results
// become 1 or 0. An empty expression returns nil.
func compileExpression(expr string, nodata float64, hasNoData bool) (sampleFunc, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	e, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("geotiffutil: invalid expression %q: %v", expr, err)
	}
	if !hasNoData {
		nodata = math.NaN()
	}
	params := map[string]interface{}{"nodata": nodata}
	return func(v float32) (float32, error) {
		params["value"] = float64(v)
		r, err := e.Evaluate(params)
		if err != nil {
			return 0, fmt.Errorf("geotiffutil: evaluating %q for value %g: %v", expr, v, err)
		}
		if b, ok := r.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		f, err := cast.ToFloat64E(r)
		if err != nil {
			return 0, fmt.Errorf("geotiffutil: expression %q: %v", expr, err)
		}
		return float32(f), nil
	}, nil
}

func formatSample(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// writeCSV writes band of ds to w as CSV: one line per row for the "2d"
// layout, or one value per line for "1d". f, if not nil, is applied to
// every sample first.
func writeCSV(w io.Writer, ds *geotiff.Dataset, band int, layout string, f sampleFunc) error {
	var rows [][]float32
	switch strings.ToLower(layout) {
	case "2d":
		var err error
		if rows, err = ds.ReadBand2D(band); err != nil {
			return err
		}
	case "1d":
		data, err := ds.ReadBand1D(band)
		if err != nil {
			return err
		}
		rows = make([][]float32, len(data))
		for i := range data {
			rows[i] = data[i : i+1]
		}
	default:
		return fmt.Errorf("geotiffutil: invalid layout %q; it must be 2d or 1d", layout)
	}

	cw := csv.NewWriter(w)
	for _, row := range rows {
		rec := make([]string, len(row))
		for i, v := range row {
			if f != nil {
				var err error
				if v, err = f(v); err != nil {
					return err
				}
			}
			rec[i] = formatSample(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
