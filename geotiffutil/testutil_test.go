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
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spatialmodel/geotiff/internal/tifftest"
)

var testGT = [6]float64{440720, 60, 0, 3751320, 0, -60}

// testImage is a 3x2 projected float band whose last sample is no-data.
func testImage() *tifftest.Image {
	gt := testGT
	return &tifftest.Image{
		Width:        3,
		Height:       2,
		Bands:        []interface{}{[]float32{1, 2, 3, 4, 5, -9999}},
		GeoTransform: &gt,
		EPSG:         32611,
		NoData:       "-9999",
		Metadata: `<GDALMetadata>
  <Item name="" sample="0" role="unittype">metre</Item>
</GDALMetadata>`,
	}
}

// writeTestFile writes img to a temporary directory and returns its path.
func writeTestFile(t *testing.T, name string, img *tifftest.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := tifftest.WriteFile(path, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// encodeTestImage returns img encoded as a TIFF file.
func encodeTestImage(t *testing.T, img *tifftest.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := tifftest.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// resetFlags sets every option back to its default so that commands run
// by different tests do not share state.
func resetFlags(t *testing.T) {
	t.Helper()
	for _, option := range options {
		f := option.flagsets[0].Lookup(option.name)
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatal(err)
		}
		f.Changed = false
	}
}

// run executes the root command with args and returns what it wrote to
// standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	Root.SetOut(out)
	Root.SetErr(errOut)
	Root.SetArgs(args)
	err := Root.Execute()
	return out.String(), err
}
