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
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/google/go-cloud/blob"
)

// uploader writes output files to local paths, and stages files bound for
// blob storage in a temporary directory until upload is called.
type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	dir   string
}

// localPath returns the path output should be written to. Local paths are
// returned unchanged; blob locations are mapped to a temporary file that
// upload copies to its destination.
func (u *uploader) localPath(path string) (string, error) {
	if !IsBlob(path) {
		return path, nil
	}
	if u.dir == "" {
		var err error
		if u.dir, err = ioutil.TempDir("", "geotiff"); err != nil {
			return "", fmt.Errorf("geotiffutil: creating upload directory: %v", err)
		}
	}
	local := filepath.Join(u.dir, filepath.Base(path))
	u.files = append(u.files, [2]string{local, path})
	return local, nil
}

// upload copies the staged files to blob storage.
func (u *uploader) upload(ctx context.Context) error {
	for _, files := range u.files {
		if err := uploadFile(ctx, files[0], files[1]); err != nil {
			return err
		}
	}
	return nil
}

func uploadFile(ctx context.Context, local, dst string) error {
	r, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("geotiffutil: opening file '%s' for upload: %s", local, err)
	}
	defer r.Close()
	bucketName, key, err := splitBlob(dst)
	if err != nil {
		return fmt.Errorf("geotiffutil: parsing url '%s' for upload: %s", dst, err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("geotiffutil: opening bucket to upload file '%s': %s", dst, err)
	}
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("geotiffutil: opening writer to upload file '%s': %s", dst, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("geotiffutil: uploading file '%s' to '%s': %s", local, dst, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("geotiffutil: uploading file '%s' to '%s': %s", local, dst, err)
	}
	return nil
}
