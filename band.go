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

import "fmt"

// DataType returns the native sample encoding of band.
func (ds *Dataset) DataType(band int) (DataType, error) {
	if !ds.IsValid() {
		return Unknown, ErrInvalid
	}
	if band < 1 || band > ds.bands {
		return Unknown, fmt.Errorf("%w: band %d of %d", ErrBandRange, band, ds.bands)
	}
	return ds.src.DataType(band), nil
}

func (ds *Dataset) bandReader(band int) (sampleReader, error) {
	dt, err := ds.DataType(band)
	if err != nil {
		return sampleReader{}, err
	}
	r, ok := readerFor(dt)
	if !ok {
		return sampleReader{}, fmt.Errorf("%w: band %d of %s is %v", ErrUnsupportedType, band, ds.filename, dt)
	}
	return r, nil
}

// ReadBand2D reads band (numbered from 1) into a rows×cols grid of float32.
// Row 0 is the top of the image. Samples are converted with Go's numeric
// conversion rules and no-data values are passed through unchanged.
// The band is read one scanline at a time. Bands stored as complex or
// unknown types return ErrUnsupportedType.
func (ds *Dataset) ReadBand2D(band int) ([][]float32, error) {
	r, err := ds.bandReader(band)
	if err != nil {
		return nil, err
	}
	data := make([]float32, ds.rows*ds.cols)
	out := make([][]float32, ds.rows)
	line := r.alloc(ds.cols)
	for row := range out {
		out[row] = data[row*ds.cols : (row+1)*ds.cols : (row+1)*ds.cols]
		if ds.cols == 0 {
			continue
		}
		if err := ds.src.Read(band, 0, row, ds.cols, 1, line); err != nil {
			return nil, fmt.Errorf("geotiff: reading row %d of band %d of %s: %w", row, band, ds.filename, err)
		}
		r.cast(out[row], line)
	}
	return out, nil
}

// ReadBand1D reads band (numbered from 1) into a flat row-major slice of
// rows*cols float32 values, with a single read of the whole band.
// It returns the same values as a flattened ReadBand2D.
func (ds *Dataset) ReadBand1D(band int) ([]float32, error) {
	r, err := ds.bandReader(band)
	if err != nil {
		return nil, err
	}
	out := make([]float32, ds.rows*ds.cols)
	if len(out) == 0 {
		return out, nil
	}
	buf := r.alloc(len(out))
	if err := ds.src.Read(band, 0, 0, ds.cols, ds.rows, buf); err != nil {
		return nil, fmt.Errorf("geotiff: reading band %d of %s: %w", band, ds.filename, err)
	}
	r.cast(out, buf)
	return out, nil
}
