package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubnl/RedditDownloader/pkg/images"
	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/reddit"
)

// fakeFetcher records the requested URL and serves canned bytes.
type fakeFetcher struct {
	data       []byte
	err        error
	requestURL string
}

func (f *fakeFetcher) DownloadMedia(ctx context.Context, url string) ([]byte, error) {
	f.requestURL = url
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// fakeResizer records Resize calls.
type fakeResizer struct {
	called  bool
	path    string
	scale   images.Scale
	replace bool
	err     error
}

func (f *fakeResizer) Resize(path string, scale images.Scale, replaceOriginal bool) (string, error) {
	f.called = true
	f.path = path
	f.scale = scale
	f.replace = replaceOriginal
	if f.err != nil {
		return "", f.err
	}
	return path, nil
}

func TestMaterializeWritesFile(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("image bytes")}
	d := New(fetcher, nil, logger.NewTestLogger())

	dest := filepath.Join(t.TempDir(), "abc.jpg")
	post := &reddit.Post{ID: "abc", URL: "https://i.redd.it/ABC.JPG"}

	require.NoError(t, d.Materialize(context.Background(), post, dest, nil, false))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(content))

	// The URL is lowercased before fetching.
	assert.Equal(t, "https://i.redd.it/abc.jpg", fetcher.requestURL)

	// No temp file remains.
	_, err = os.Stat(dest + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestMaterializeFetchFailureLeavesNoFile(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("connection reset")}
	d := New(fetcher, nil, logger.NewTestLogger())

	dest := filepath.Join(t.TempDir(), "abc.jpg")
	post := &reddit.Post{ID: "abc", URL: "https://i.redd.it/abc.jpg"}

	err := d.Materialize(context.Background(), post, dest, nil, false)
	require.Error(t, err)

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestMaterializeAppliesResize(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("image bytes")}
	resizer := &fakeResizer{}
	d := New(fetcher, resizer, logger.NewTestLogger())

	dest := filepath.Join(t.TempDir(), "abc.jpg")
	post := &reddit.Post{ID: "abc", URL: "https://i.redd.it/abc.jpg"}
	scale := &images.Scale{Width: 1080, Height: 1080}

	require.NoError(t, d.Materialize(context.Background(), post, dest, scale, true))
	assert.True(t, resizer.called)
	assert.Equal(t, dest, resizer.path)
	assert.Equal(t, *scale, resizer.scale)
	assert.True(t, resizer.replace)
}

func TestMaterializeSkipsResizeWhenNoScale(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("image bytes")}
	resizer := &fakeResizer{}
	d := New(fetcher, resizer, logger.NewTestLogger())

	dest := filepath.Join(t.TempDir(), "abc.jpg")
	post := &reddit.Post{ID: "abc", URL: "https://i.redd.it/abc.jpg"}

	require.NoError(t, d.Materialize(context.Background(), post, dest, nil, false))
	assert.False(t, resizer.called)
}

func TestMaterializeResizeFailurePropagates(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("image bytes")}
	resizer := &fakeResizer{err: fmt.Errorf("not an image")}
	d := New(fetcher, resizer, logger.NewTestLogger())

	dest := filepath.Join(t.TempDir(), "abc.jpg")
	post := &reddit.Post{ID: "abc", URL: "https://i.redd.it/abc.jpg"}
	scale := &images.Scale{Width: 100, Height: 100}

	err := d.Materialize(context.Background(), post, dest, scale, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resize")
}
