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

package tiff_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/spatialmodel/geotiff/internal/tiff"
	"github.com/spatialmodel/geotiff/internal/tifftest"
)

func decode(t *testing.T, img *tifftest.Image) *tiff.File {
	t.Helper()
	var b bytes.Buffer
	if err := tifftest.Encode(&b, img); err != nil {
		t.Fatal(err)
	}
	f, err := tiff.Decode(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func image0(t *testing.T, f *tiff.File) *tiff.Image {
	t.Helper()
	im, err := f.Dirs[0].Image()
	if err != nil {
		t.Fatal(err)
	}
	return im
}

// ramp returns w*h uint16 values starting at start.
func ramp(w, h int, start uint16) []uint16 {
	v := make([]uint16, w*h)
	for i := range v {
		v[i] = start + uint16(i*37%1000)
	}
	return v
}

func readUint16(t *testing.T, im *tiff.Image, band, x, y, w, h int) []uint16 {
	t.Helper()
	raw := make([]byte, w*h*2)
	if err := im.ReadWindow(band, x, y, w, h, raw); err != nil {
		t.Fatal(err)
	}
	out := make([]uint16, w*h)
	if err := tiff.DecodeSamples(im.ByteOrder(), raw, out); err != nil {
		t.Fatal(err)
	}
	return out
}

func window(v []uint16, width, x, y, w, h int) []uint16 {
	var out []uint16
	for r := y; r < y+h; r++ {
		out = append(out, v[r*width+x:r*width+x+w]...)
	}
	return out
}

func TestReadWindowLayouts(t *testing.T) {
	const w, h = 7, 5
	b0, b1 := ramp(w, h, 1), ramp(w, h, 500)

	type layout struct {
		order       binary.ByteOrder
		big         bool
		tiled       bool
		planar      bool
		compression int
		predictor   int
		rps         int
	}
	var layouts []layout
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, big := range []bool{false, true} {
			for _, tiled := range []bool{false, true} {
				for _, planar := range []bool{false, true} {
					for _, c := range []int{tiff.CompressionNone, tiff.CompressionDeflate, tiff.CompressionPackBits} {
						for _, p := range []int{tiff.PredictorNone, tiff.PredictorHorizontal} {
							layouts = append(layouts, layout{order, big, tiled, planar, c, p, 2})
						}
					}
				}
			}
		}
	}

	for _, l := range layouts {
		name := fmt.Sprintf("%v/big=%v/tiled=%v/planar=%v/c=%d/p=%d", l.order, l.big, l.tiled, l.planar, l.compression, l.predictor)
		t.Run(name, func(t *testing.T) {
			img := &tifftest.Image{
				Width: w, Height: h,
				Bands:        []interface{}{b0, b1},
				ByteOrder:    l.order,
				BigTIFF:      l.big,
				Planar:       l.planar,
				Compression:  l.compression,
				Predictor:    l.predictor,
				RowsPerStrip: l.rps,
			}
			if l.tiled {
				img.TileWidth, img.TileHeight = 4, 3
			}
			f := decode(t, img)
			if f.BigTIFF() != l.big {
				t.Errorf("BigTIFF %v != %v", f.BigTIFF(), l.big)
			}
			im := image0(t, f)
			if im.Width != w || im.Height != h || im.SamplesPerPixel != 2 || im.BitsPerSample != 16 {
				t.Fatalf("image %dx%dx%d %d bits", im.Width, im.Height, im.SamplesPerPixel, im.BitsPerSample)
			}
			for band, want := range [][]uint16{b0, b1} {
				if got := readUint16(t, im, band, 0, 0, w, h); !reflect.DeepEqual(got, want) {
					t.Errorf("band %d: %v != %v", band, got, want)
				}
				if got, want := readUint16(t, im, band, 2, 1, 4, 3), window(want, w, 2, 1, 4, 3); !reflect.DeepEqual(got, want) {
					t.Errorf("band %d window: %v != %v", band, got, want)
				}
				for row := 0; row < h; row++ {
					if got, want := readUint16(t, im, band, 0, row, w, 1), window(want, w, 0, row, w, 1); !reflect.DeepEqual(got, want) {
						t.Errorf("band %d row %d: %v != %v", band, row, got, want)
					}
				}
			}
		})
	}
}

func TestFloatingPointPredictor(t *testing.T) {
	f32 := []float32{1.5, -2.25, float32(math.Inf(1)), 0, 1e-30, 3.4e38}
	f64 := []float64{math.Pi, -math.E, 0, 1e300, -1e-300, 42}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, band := range []interface{}{f32, f64} {
			t.Run(fmt.Sprintf("%v/%T", order, band), func(t *testing.T) {
				f := decode(t, &tifftest.Image{
					Width: 3, Height: 2,
					Bands:       []interface{}{band},
					ByteOrder:   order,
					Compression: tiff.CompressionDeflate,
					Predictor:   tiff.PredictorFloatingPoint,
				})
				im := image0(t, f)
				raw := make([]byte, 6*im.BytesPerSample())
				if err := im.ReadWindow(0, 0, 0, 3, 2, raw); err != nil {
					t.Fatal(err)
				}
				got := reflect.MakeSlice(reflect.TypeOf(band), 6, 6).Interface()
				if err := tiff.DecodeSamples(im.ByteOrder(), raw, got); err != nil {
					t.Fatal(err)
				}
				if !reflect.DeepEqual(got, band) {
					t.Errorf("%v != %v", got, band)
				}
			})
		}
	}
}

func TestGeoreferencing(t *testing.T) {
	t.Run("tiepoint", func(t *testing.T) {
		gt := [6]float64{440720, 60, 0, 3751320, 0, -60}
		f := decode(t, &tifftest.Image{
			Width: 2, Height: 2,
			Bands:        []interface{}{[]uint8{1, 2, 3, 4}},
			GeoTransform: &gt,
			EPSG:         32611,
			Citation:     "WGS 84 / UTM zone 11N",
		})
		d := f.Dirs[0]
		keys, err := d.GeoKeys()
		if err != nil {
			t.Fatal(err)
		}
		if keys.EPSG() != 32611 {
			t.Errorf("EPSG %d != 32611", keys.EPSG())
		}
		if want := "+proj=utm +zone=11 +datum=WGS84 +units=m +no_defs"; keys.Proj4() != want {
			t.Errorf("%q != %q", keys.Proj4(), want)
		}
		if keys.Citation() != "WGS 84 / UTM zone 11N" {
			t.Errorf("citation %q", keys.Citation())
		}
		got, ok, err := d.GeoTransform(keys)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != gt {
			t.Errorf("%v (%v) != %v", got, ok, gt)
		}
	})
	t.Run("pixel is point", func(t *testing.T) {
		gt := [6]float64{-100, 0.5, 0, 40, 0, -0.25}
		f := decode(t, &tifftest.Image{
			Width: 2, Height: 2,
			Bands:        []interface{}{[]uint8{1, 2, 3, 4}},
			GeoTransform: &gt,
			PixelIsPoint: true,
			EPSG:         4326,
		})
		keys, err := f.Dirs[0].GeoKeys()
		if err != nil {
			t.Fatal(err)
		}
		if !keys.PixelIsPoint() {
			t.Error("PixelIsPoint not set")
		}
		got, _, err := f.Dirs[0].GeoTransform(keys)
		if err != nil {
			t.Fatal(err)
		}
		if got != gt {
			t.Errorf("%v != %v", got, gt)
		}
		if keys.Proj4() != "+proj=longlat +datum=WGS84 +no_defs" {
			t.Errorf("proj4 %q", keys.Proj4())
		}
	})
	t.Run("transformation matrix", func(t *testing.T) {
		gt := [6]float64{10, 1, 0.5, 20, 0.25, -1}
		f := decode(t, &tifftest.Image{
			Width: 2, Height: 2,
			Bands:        []interface{}{[]uint8{1, 2, 3, 4}},
			GeoTransform: &gt,
		})
		got, ok, err := f.Dirs[0].GeoTransform(nil)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != gt {
			t.Errorf("%v (%v) != %v", got, ok, gt)
		}
	})
	t.Run("none", func(t *testing.T) {
		f := decode(t, &tifftest.Image{
			Width: 1, Height: 1,
			Bands: []interface{}{[]uint8{1}},
		})
		keys, err := f.Dirs[0].GeoKeys()
		if err != nil || keys != nil {
			t.Fatalf("keys %v, err %v", keys, err)
		}
		got, ok, err := f.Dirs[0].GeoTransform(keys)
		if err != nil {
			t.Fatal(err)
		}
		if ok || got != [6]float64{0, 1, 0, 0, 0, 1} {
			t.Errorf("%v (%v)", got, ok)
		}
	})
}

func TestEPSGToProj4(t *testing.T) {
	for code, want := range map[int]string{
		4269:  "+proj=longlat +datum=NAD83 +no_defs",
		32733: "+proj=utm +zone=33 +south +datum=WGS84 +units=m +no_defs",
		26915: "+proj=utm +zone=15 +datum=NAD83 +units=m +no_defs",
		2163:  "",
	} {
		if got := tiff.EPSGToProj4(code); got != want {
			t.Errorf("%d: %q != %q", code, got, want)
		}
	}
}

func TestGDALTags(t *testing.T) {
	const md = `<GDALMetadata>
  <Item name="STATISTICS_MINIMUM" sample="0">-3.5</Item>
  <Item name="STATISTICS_MAXIMUM" sample="0">12</Item>
  <Item name="UNITTYPE" sample="1" role="unittype">metre</Item>
</GDALMetadata>`
	f := decode(t, &tifftest.Image{
		Width: 2, Height: 1,
		Bands:    []interface{}{[]float32{1, 2}, []float32{3, 4}},
		NoData:   "-9999",
		Metadata: md,
	})
	d := f.Dirs[0]
	nd, ok, err := d.NoData()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || nd != -9999 {
		t.Errorf("nodata %v (%v)", nd, ok)
	}
	m, err := d.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := m.BandFloat(0, "STATISTICS_MINIMUM"); !ok || v != -3.5 {
		t.Errorf("minimum %v (%v)", v, ok)
	}
	if v, ok := m.BandFloat(0, "STATISTICS_MAXIMUM"); !ok || v != 12 {
		t.Errorf("maximum %v (%v)", v, ok)
	}
	if _, ok := m.BandFloat(1, "STATISTICS_MINIMUM"); ok {
		t.Error("band 1 should have no minimum")
	}
	if u := m.Unit(1); u != "metre" {
		t.Errorf("unit %q", u)
	}
	if u := m.Unit(0); u != "" {
		t.Errorf("unit %q", u)
	}

	t.Run("nan", func(t *testing.T) {
		f := decode(t, &tifftest.Image{
			Width: 1, Height: 1,
			Bands:  []interface{}{[]float32{1}},
			NoData: tifftest.FormatFloat(math.NaN()),
		})
		nd, ok, err := f.Dirs[0].NoData()
		if err != nil {
			t.Fatal(err)
		}
		if !ok || !math.IsNaN(nd) {
			t.Errorf("nodata %v (%v)", nd, ok)
		}
	})
}

func TestOverviewsAndPalette(t *testing.T) {
	cm := make([]uint16, 3*256)
	f := decode(t, &tifftest.Image{
		Width: 8, Height: 6,
		Bands:     []interface{}{make([]uint8, 48)},
		ColorMap:  cm,
		Overviews: 2,
	})
	if len(f.Dirs) != 3 {
		t.Fatalf("%d directories != 3", len(f.Dirs))
	}
	im := image0(t, f)
	if im.Reduced || im.Photometric != tiff.PhotometricPalette || im.ColorMapEntries != 256 {
		t.Errorf("reduced %v photometric %d entries %d", im.Reduced, im.Photometric, im.ColorMapEntries)
	}
	for i, size := range [][2]int{{4, 3}, {2, 2}} {
		ov, err := f.Dirs[i+1].Image()
		if err != nil {
			t.Fatal(err)
		}
		if !ov.Reduced || ov.Width != size[0] || ov.Height != size[1] {
			t.Errorf("overview %d: reduced %v size %dx%d", i, ov.Reduced, ov.Width, ov.Height)
		}
	}
}

func TestSampleTypes(t *testing.T) {
	for _, tc := range []struct {
		band         interface{}
		bits, format int
	}{
		{[]int8{-1, 2}, 8, tiff.SampleFormatInt},
		{[]int16{-300, 2}, 16, tiff.SampleFormatInt},
		{[]uint32{1 << 31, 7}, 32, tiff.SampleFormatUint},
		{[]int32{-1 << 31, 7}, 32, tiff.SampleFormatInt},
		{[]complex64{1 + 2i, 3}, 64, tiff.SampleFormatComplexIEEEFP},
	} {
		t.Run(fmt.Sprintf("%T", tc.band), func(t *testing.T) {
			f := decode(t, &tifftest.Image{Width: 2, Height: 1, Bands: []interface{}{tc.band}})
			im := image0(t, f)
			if im.BitsPerSample != tc.bits || im.SampleFormat != tc.format {
				t.Errorf("%d bits format %d", im.BitsPerSample, im.SampleFormat)
			}
			if _, ok := tc.band.([]complex64); ok {
				return
			}
			raw := make([]byte, 2*im.BytesPerSample())
			if err := im.ReadWindow(0, 0, 0, 2, 1, raw); err != nil {
				t.Fatal(err)
			}
			got := reflect.MakeSlice(reflect.TypeOf(tc.band), 2, 2).Interface()
			if err := tiff.DecodeSamples(im.ByteOrder(), raw, got); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tc.band) {
				t.Errorf("%v != %v", got, tc.band)
			}
		})
	}
}

func TestReadWindowErrors(t *testing.T) {
	f := decode(t, &tifftest.Image{Width: 3, Height: 2, Bands: []interface{}{make([]uint16, 6)}})
	im := image0(t, f)
	for _, tc := range []struct {
		band, x, y, w, h, n int
	}{
		{1, 0, 0, 3, 2, 12},
		{0, -1, 0, 3, 2, 12},
		{0, 1, 0, 3, 2, 12},
		{0, 0, 0, 3, 3, 18},
		{0, 0, 0, 3, 2, 11},
	} {
		if err := im.ReadWindow(tc.band, tc.x, tc.y, tc.w, tc.h, make([]byte, tc.n)); err == nil {
			t.Errorf("%+v: expected an error", tc)
		}
	}
	if err := im.ReadWindow(0, 0, 0, 0, 0, nil); err != nil {
		t.Errorf("empty window: %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	loop := []byte{
		'I', 'I', 42, 0, 8, 0, 0, 0, // header pointing at offset 8
		0, 0, // zero entries
		8, 0, 0, 0, // next directory is this one again
	}
	for name, p := range map[string][]byte{
		"empty":     nil,
		"short":     []byte("II*"),
		"magic":     {'I', 'I', 41, 0, 8, 0, 0, 0},
		"order":     {'X', 'X', 42, 0, 8, 0, 0, 0},
		"loop":      loop,
		"no ifd":    {'I', 'I', 42, 0, 0, 0, 0, 0},
		"truncated": {'M', 'M', 0, 42, 0, 0, 0, 8, 0, 5},
	} {
		if _, err := tiff.Decode(bytes.NewReader(p)); err == nil {
			t.Errorf("%s: expected an error", name)
		} else if _, ok := err.(tiff.FormatError); !ok {
			t.Errorf("%s: %v is not a FormatError", name, err)
		}
	}
}
