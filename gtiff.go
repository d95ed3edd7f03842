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
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geotiff/internal/tiff"
)

// gtiffDriver reads GeoTIFF files without any C dependencies.
type gtiffDriver struct{}

func (gtiffDriver) Name() string     { return "GTiff" }
func (gtiffDriver) LongName() string { return "GeoTIFF" }

func (gtiffDriver) Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := newGTiffSource(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return s, nil
}

type gtiffSource struct {
	f   *os.File
	img *tiff.Image

	dataType   DataType
	gt         [6]float64
	hasGT      bool
	projection string
	noData     float64
	hasNoData  bool
	metadata   *tiff.Metadata
	overviews  int

	scratch []byte
}

func newGTiffSource(f *os.File) (*gtiffSource, error) {
	tf, err := tiff.Decode(f)
	if err != nil {
		return nil, err
	}
	d := tf.Dirs[0]
	img, err := d.Image()
	if err != nil {
		return nil, err
	}
	s := &gtiffSource{f: f, img: img, dataType: tiffDataType(img)}

	log := Log.WithFields(logrus.Fields{"file": f.Name()})
	keys, err := d.GeoKeys()
	if err != nil {
		log.WithError(err).Warn("geotiff: ignoring GeoKey directory")
		keys = nil
	}
	if s.gt, s.hasGT, err = d.GeoTransform(keys); err != nil {
		return nil, err
	}
	s.projection = keys.Proj4()
	if s.projection == "" && keys.EPSG() != 0 {
		log.WithFields(logrus.Fields{
			"epsg":     keys.EPSG(),
			"citation": keys.Citation(),
		}).Warn("geotiff: no projection definition for coordinate reference system")
	}
	if s.noData, s.hasNoData, err = d.NoData(); err != nil {
		log.WithError(err).Warn("geotiff: ignoring GDAL no-data value")
		s.noData, s.hasNoData = 0, false
	}
	if s.metadata, err = d.Metadata(); err != nil {
		log.WithError(err).Warn("geotiff: ignoring GDAL metadata")
	}
	for _, dir := range tf.Dirs[1:] {
		if ov, err := dir.Image(); err == nil && ov.Reduced {
			s.overviews++
		}
	}
	return s, nil
}

// tiffDataType maps a sample format and size to a DataType.
func tiffDataType(img *tiff.Image) DataType {
	switch img.SampleFormat {
	case tiff.SampleFormatUint, tiff.SampleFormatVoid:
		switch img.BitsPerSample {
		case 8:
			return Byte
		case 16:
			return UInt16
		case 32:
			return UInt32
		}
	case tiff.SampleFormatInt:
		switch img.BitsPerSample {
		case 16:
			return Int16
		case 32:
			return Int32
		}
	case tiff.SampleFormatIEEEFP:
		switch img.BitsPerSample {
		case 32:
			return Float32
		case 64:
			return Float64
		}
	case tiff.SampleFormatComplexInt:
		switch img.BitsPerSample {
		case 32:
			return CInt16
		case 64:
			return CInt32
		}
	case tiff.SampleFormatComplexIEEEFP:
		switch img.BitsPerSample {
		case 64:
			return CFloat32
		case 128:
			return CFloat64
		}
	}
	return Unknown
}

func (s *gtiffSource) Size() (int, int)      { return s.img.Width, s.img.Height }
func (s *gtiffSource) BandCount() int        { return s.img.SamplesPerPixel }
func (s *gtiffSource) DataType(int) DataType { return s.dataType }
func (s *gtiffSource) Projection() string    { return s.projection }

func (s *gtiffSource) GeoTransform() ([6]float64, bool) { return s.gt, s.hasGT }

func (s *gtiffSource) NoData(int) (float64, bool) { return s.noData, s.hasNoData }

func (s *gtiffSource) Read(band, x, y, w, h int, buf interface{}) error {
	if band < 1 || band > s.img.SamplesPerPixel {
		return fmt.Errorf("band %d: %w", band, ErrBandRange)
	}
	if _, ok := readerFor(s.dataType); !ok {
		return fmt.Errorf("band %d is %v: %w", band, s.dataType, ErrUnsupportedType)
	}
	n := w * h * s.dataType.Size()
	if cap(s.scratch) < n {
		s.scratch = make([]byte, n)
	}
	raw := s.scratch[:n]
	if err := s.img.ReadWindow(band-1, x, y, w, h, raw); err != nil {
		return err
	}
	return tiff.DecodeSamples(s.img.ByteOrder(), raw, buf)
}

func (s *gtiffSource) Describe(band int) BandDescription {
	d := BandDescription{
		BlockWidth:  s.img.ChunkWidth,
		BlockHeight: s.img.ChunkHeight,
		ColorInterp: s.colorInterp(band),
		Overviews:   s.overviews,
		Unit:        s.metadata.Unit(band - 1),
	}
	if s.img.Photometric == tiff.PhotometricPalette {
		d.ColorTableEntries = s.img.ColorMapEntries
	}
	min, okMin := s.metadata.BandFloat(band-1, "STATISTICS_MINIMUM")
	max, okMax := s.metadata.BandFloat(band-1, "STATISTICS_MAXIMUM")
	if okMin && okMax {
		d.Min, d.Max, d.HasMinMax = min, max, true
	}
	return d
}

// colorInterp names the role of a band the way GDAL does.
func (s *gtiffSource) colorInterp(band int) string {
	switch s.img.Photometric {
	case tiff.PhotometricPalette:
		if band == 1 {
			return "Palette"
		}
	case tiff.PhotometricRGB:
		if band <= 3 {
			return [...]string{"Red", "Green", "Blue"}[band-1]
		}
		if band == 4 {
			return "Alpha"
		}
	case tiff.PhotometricBlackIsZero, tiff.PhotometricWhiteIsZero:
		if band == 1 {
			return "Gray"
		}
	}
	return "Undefined"
}

func (s *gtiffSource) Close() error {
	return s.f.Close()
}
