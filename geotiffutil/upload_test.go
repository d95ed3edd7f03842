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
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestUploaderLocal(t *testing.T) {
	u := new(uploader)
	path := filepath.Join(t.TempDir(), "out.csv")
	local, err := u.localPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if local != path {
		t.Errorf("local paths should be unchanged; have %s, want %s", local, path)
	}
	if len(u.files) != 0 {
		t.Errorf("no files should be staged, have %v", u.files)
	}
}

func TestUploaderBlob(t *testing.T) {
	if err := os.MkdirAll("test", 0755); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll("test")

	ctx := context.Background()
	u := new(uploader)
	local, err := u.localPath("file://test/out.csv")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(local) != "out.csv" || IsBlob(local) {
		t.Errorf("unexpected staging path %s", local)
	}
	if err := ioutil.WriteFile(local, []byte("1,2,3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := u.upload(ctx); err != nil {
		t.Fatal(err)
	}

	bucket, err := OpenBucket(ctx, "file://test")
	if err != nil {
		t.Fatal(err)
	}
	r, err := bucket.NewReader(ctx, "out.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	b, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1,2,3\n" {
		t.Errorf("have %q, want %q", b, "1,2,3\n")
	}
}
