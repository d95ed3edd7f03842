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
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// maxRetries is the number of times a failed download is retried.
const maxRetries = 4

// maybeDownload checks if the input is an existing local file.
// If not, and it is a URL or a blob storage location, it downloads the
// file to a new temporary directory, which the caller must remove, and
// returns the path to the downloaded file. Other paths are returned unchanged, so that opening them reports
// the problem.
func maybeDownload(ctx context.Context, path string) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(ctx, path)
	}
	if IsBlob(path) {
		return downloadBlob(ctx, path)
	}
	return path, nil
}

// retry runs op with exponential backoff, logging each failure.
func retry(ctx context.Context, what string, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		logrus.WithFields(logrus.Fields{"file": what}).WithError(err).Warnf("geotiffutil: download failed; retrying in %v", d)
	})
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(ctx context.Context, rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("geotiffutil: parsing download URL: %v", err)
	}
	dst, err := downloadTarget(path.Base(u.Path))
	if err != nil {
		return "", err
	}
	err = retry(ctx, rawurl, func() error {
		req, err := http.NewRequest(http.MethodGet, rawurl, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("geotiffutil: downloading %s: %s", rawurl, resp.Status)
			if resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		return copyToFile(dst, resp.Body)
	})
	if err != nil {
		os.RemoveAll(filepath.Dir(dst))
		return "", err
	}
	return dst, nil
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The currently accepted storage providers are "file" for a directory
// of the local filesystem (e.g., for testing), "gs" for Google Cloud
// Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	url, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("geotiffutil.OpenBucket: %v", err)
	}
	switch url.Scheme {
	case "file":
		return fileblob.NewBucket(url.Hostname())
	case "gs":
		return gsBucket(ctx, url.Hostname())
	case "s3":
		return s3Bucket(ctx, url.Hostname())
	default:
		return nil, fmt.Errorf("geotiffutil.OpenBucket: invalid provider %s", url.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// splitBlob splits a blob location into its bucket and key.
func splitBlob(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string) (string, error) {
	bucketName, key, err := splitBlob(path)
	if err != nil {
		return "", fmt.Errorf("geotiffutil: parsing blob location: %v", err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return "", err
	}
	dst, err := downloadTarget(filepath.Base(key))
	if err != nil {
		return "", err
	}
	err = retry(ctx, path, func() error {
		r, err := bucket.NewReader(ctx, key)
		if err != nil {
			return err
		}
		defer r.Close()
		return copyToFile(dst, r)
	})
	if err != nil {
		os.RemoveAll(filepath.Dir(dst))
		return "", err
	}
	return dst, nil
}

// downloadTarget returns a path named name in a new temporary directory.
func downloadTarget(name string) (string, error) {
	dir, err := ioutil.TempDir("", "geotiff")
	if err != nil {
		return "", fmt.Errorf("geotiffutil: failed creating temporary download directory: %v", err)
	}
	return filepath.Join(dir, name), nil
}

func copyToFile(path string, r io.Reader) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geotiffutil: failed creating file for download: %v", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
