// Package downloader materializes a candidate's media into the
// workspace.
package downloader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jubnl/RedditDownloader/pkg/errors"
	"github.com/jubnl/RedditDownloader/pkg/images"
	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/reddit"
)

// MediaFetcher fetches the raw bytes of a media URL.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, url string) ([]byte, error)
}

// Resizer is the resize capability applied after a successful write.
type Resizer interface {
	Resize(path string, scale images.Scale, replaceOriginal bool) (string, error)
}

// Downloader performs the single synchronous fetch-and-write for one
// candidate. There is no retry; a failure leaves the ledger untouched so
// the post stays eligible on the next run.
type Downloader struct {
	fetcher MediaFetcher
	resizer Resizer
	logger  logger.Logger
}

// New creates a Downloader. The resizer may be nil when scaling is
// disabled.
func New(fetcher MediaFetcher, resizer Resizer, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		fetcher: fetcher,
		resizer: resizer,
		logger:  log,
	}
}

// Materialize downloads the candidate's media to destPath and optionally
// resizes it. The file is written to a temporary path and renamed into
// place so a failed download never leaves a partial image behind.
func (d *Downloader) Materialize(ctx context.Context, post *reddit.Post, destPath string, scale *images.Scale, replaceOriginal bool) error {
	data, err := d.fetcher.DownloadMedia(ctx, strings.ToLower(post.URL))
	if err != nil {
		return fmt.Errorf("media fetch for %s failed: %w", post.ID, err)
	}

	if err := writeAtomic(destPath, data); err != nil {
		return err
	}

	d.logger.DebugWithFields("media materialized", map[string]interface{}{
		"post_id": post.ID,
		"path":    destPath,
		"size":    len(data),
	})

	if scale != nil && d.resizer != nil {
		if _, err := d.resizer.Resize(destPath, *scale, replaceOriginal); err != nil {
			return fmt.Errorf("resize for %s failed: %w", post.ID, err)
		}
	}

	return nil
}

// writeAtomic writes data to a temporary file and renames it into place.
func writeAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeStorage,
			Message: fmt.Sprintf("failed to write media file %s: %v", path, err),
		}
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return &errors.Error{
			Type:    errors.ErrorTypeStorage,
			Message: fmt.Sprintf("failed to move media file into place: %v", err),
		}
	}

	return nil
}
