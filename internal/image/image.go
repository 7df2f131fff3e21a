// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
)

// DefaultRetries is the number of retries for failed downloads.
const DefaultRetries = 3

// Image is a disk image that is extracted from a gzip compressed download.
type Image struct {
	// URL of the compressed image.
	URL string
	// DiskPath is the path of the extracted image. The compressed image is
	// stored in the same directory.
	DiskPath string
	// Overwrite forces extraction even if the disk image exists already.
	Overwrite bool
}

// CompressedPath returns the path the downloaded file is stored at.
func (i Image) CompressedPath() (string, error) {
	parsed, err := url.Parse(i.URL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, i.URL)
	}

	return filepath.Join(filepath.Dir(i.DiskPath), name), nil
}

// Fetcher downloads and extracts images.
type Fetcher struct {
	client *retryablehttp.Client
}

// NewFetcher returns a new [Fetcher] that retries failed downloads.
func NewFetcher() *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = DefaultRetries
	client.Logger = slog.Default()

	return &Fetcher{client: client}
}

// Prepare makes sure the disk image exists.
//
// The compressed image is downloaded unless it exists already. It is
// extracted if the disk image does not exist or if [Image.Overwrite] is set.
func (f *Fetcher) Prepare(ctx context.Context, img Image) error {
	compressed, err := img.CompressedPath()
	if err != nil {
		return err
	}

	if err := f.Download(ctx, img.URL, compressed); err != nil {
		return err
	}

	if !img.Overwrite && exists(img.DiskPath) {
		slog.Debug("Disk image exists", slog.String("path", img.DiskPath))
		return nil
	}

	return Extract(compressed, img.DiskPath)
}

// Download fetches the URL into the file at dst. It is a no-op if the file
// exists already.
func (f *Fetcher) Download(ctx context.Context, rawURL, dst string) error {
	if exists(dst) {
		slog.Info("Image exists, skip download", slog.String("path", dst))
		return nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	slog.Info("Download image", slog.String("url", rawURL))

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: rawURL, Status: resp.Status}
	}

	return writeAtomic(dst, resp.Body)
}

// Extract decompresses the gzip file at src into dst. An existing dst is
// replaced.
func Extract(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open compressed image: %w", err)
	}
	defer file.Close()

	reader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer reader.Close()

	slog.Info("Extract image",
		slog.String("src", filepath.Base(src)),
		slog.String("dst", filepath.Base(dst)),
	)

	return writeAtomic(dst, reader)
}

// writeAtomic writes into a temporary file next to dst that is renamed to
// dst once complete, so dst never holds partial data.
func writeAtomic(dst string, src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, err = io.Copy(tmp, src)

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", dst, err)
	}

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
