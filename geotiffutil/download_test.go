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
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cloud/blob"
)

func TestMaybeDownloadLocal(t *testing.T) {
	if k, err := maybeDownload(context.Background(), "/dev/null"); err != nil || k != "/dev/null" {
		t.Error("Expected /dev/null, got ", k, err)
	}
}

func TestMaybeDownloadLocal2(t *testing.T) {
	if k, err := maybeDownload(context.Background(), "/blah/test/"); err != nil || k != "/blah/test/" {
		t.Error("Expected /blah/test/, got ", k, err)
	}
}

func TestMaybeDownloadRemote(t *testing.T) {
	dir := filepath.Dir(writeTestFile(t, "remote.tif", testImage()))
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()
	k, err := maybeDownload(context.Background(), srv.URL+"/remote.tif")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	if !strings.HasSuffix(k, "remote.tif") || k == srv.URL+"/remote.tif" {
		t.Error("Expected tempDir/remote.tif, got ", k)
	}
	have, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if want := encodeTestImage(t, testImage()); !bytes.Equal(have, want) {
		t.Errorf("downloaded file has %d bytes, want %d", len(have), len(want))
	}
}

func TestMaybeDownloadRemoteNotFound(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer srv.Close()
	_, err := maybeDownload(context.Background(), srv.URL+"/missing.tif")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected a 404 error, got %v", err)
	}
	if requests != 1 {
		t.Errorf("client errors should not be retried; have %d requests", requests)
	}
}

func TestMaybeDownloadRemoteRetry(t *testing.T) {
	data := encodeTestImage(t, testImage())
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()
	k, err := maybeDownload(context.Background(), srv.URL+"/retry.tif")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	if requests != 2 {
		t.Errorf("have %d requests, want 2", requests)
	}
	if have, err := ioutil.ReadFile(k); err != nil || !bytes.Equal(have, data) {
		t.Errorf("downloaded file does not match: %v", err)
	}
}

// writeBlob stores data at key in the file:// bucket rooted at dir.
func writeBlob(t *testing.T, dir, key string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	bucket, err := OpenBucket(ctx, "file://"+dir)
	if err != nil {
		t.Fatal(err)
	}
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMaybeDownloadBlob(t *testing.T) {
	data := encodeTestImage(t, testImage())
	writeBlob(t, "test", "blob.tif", data)
	defer os.RemoveAll("test")

	k, err := maybeDownload(context.Background(), "file://test/blob.tif")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	if !strings.HasSuffix(k, "blob.tif") || IsBlob(k) {
		t.Error("Expected tempDir/blob.tif, got ", k)
	}
	if have, err := ioutil.ReadFile(k); err != nil || !bytes.Equal(have, data) {
		t.Errorf("downloaded file does not match: %v", err)
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/a.tif":  true,
		"s3://bucket/a.tif":  true,
		"file://dir/a.tif":   true,
		"https://host/a.tif": false,
		"/tmp/a.tif":         false,
	} {
		if have := IsBlob(path); have != want {
			t.Errorf("%s: have %v, want %v", path, have, want)
		}
	}
}
