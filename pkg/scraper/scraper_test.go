package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubnl/RedditDownloader/pkg/config"
	"github.com/jubnl/RedditDownloader/pkg/ledger"
	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/metadata"
	"github.com/jubnl/RedditDownloader/pkg/reddit"
	"github.com/jubnl/RedditDownloader/pkg/ui"
)

// mockReddit is a minimal Reddit API double serving one subreddit's
// listing, comment trees and media files.
type mockReddit struct {
	server *httptest.Server

	posts      []map[string]interface{}
	comments   map[string][]map[string]interface{}
	mediaFails map[string]bool
}

func newMockReddit(t *testing.T) *mockReddit {
	t.Helper()

	m := &mockReddit{
		comments:   make(map[string][]map[string]interface{}),
		mediaFails: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/r/", m.handleAPI)
	mux.HandleFunc("/media/", m.handleMedia)

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

// addPost registers a post whose media is served by the mock itself.
func (m *mockReddit) addPost(id, title string, comments ...string) {
	m.posts = append(m.posts, map[string]interface{}{
		"id":        id,
		"subreddit": "memes",
		"title":     title,
		"url":       m.server.URL + "/media/" + id + ".jpg",
		"score":     100,
	})

	var tree []map[string]interface{}
	for i, body := range comments {
		tree = append(tree, map[string]interface{}{
			"id":      fmt.Sprintf("%s-c%d", id, i),
			"body":    body,
			"replies": "",
		})
	}
	m.comments[id] = tree
}

func (m *mockReddit) handleAPI(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	// /r/<sub>/top
	if len(parts) == 3 && parts[2] == "top" {
		children := make([]map[string]interface{}, 0, len(m.posts))
		for _, p := range m.posts {
			children = append(children, map[string]interface{}{"kind": "t3", "data": p})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"kind": "Listing",
			"data": map[string]interface{}{"after": "", "children": children},
		})
		return
	}

	// /r/<sub>/comments/<post>
	if len(parts) == 4 && parts[2] == "comments" {
		postID := parts[3]
		children := make([]interface{}, 0)
		for _, c := range m.comments[postID] {
			children = append(children, map[string]interface{}{"kind": "t1", "data": c})
		}
		payload := []interface{}{
			map[string]interface{}{"kind": "Listing", "data": map[string]interface{}{"children": []interface{}{}}},
			map[string]interface{}{"kind": "Listing", "data": map[string]interface{}{"children": children}},
		}
		json.NewEncoder(w).Encode(payload)
		return
	}

	http.NotFound(w, r)
}

func (m *mockReddit) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/media/")
	if m.mediaFails[name] {
		http.NotFound(w, r)
		return
	}
	fmt.Fprintf(w, "bytes-of-%s", name)
}

func newTestScraper(t *testing.T, m *mockReddit, saveRoot string, amount int) *Scraper {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Reddit.ClientID = "test"
	cfg.Reddit.ClientSecret = "test"
	cfg.Download.Amount = amount
	cfg.Output.SaveRoot = saveRoot

	log := logger.NewTestLogger()
	client := reddit.NewClientWithHTTP(m.server.Client(), m.server.URL, "test-agent", log)

	s, err := NewWithClient(cfg, client, log)
	require.NoError(t, err)
	s.SetReporter(ui.NopReporter{})
	return s
}

func TestRunDownloadsAndRecords(t *testing.T) {
	m := newMockReddit(t)
	m.addPost("aaa", "first post", "top comment", "second comment")
	m.addPost("bbb", "second post", "only comment")

	saveRoot := t.TempDir()
	s := newTestScraper(t, m, saveRoot, 5)

	summary, err := s.Run(context.Background(), []string{"memes"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.Downloaded["memes"])

	// Image and record for each post, under the dated workspace.
	matches, err := filepath.Glob(filepath.Join(saveRoot, "data", "*", "memes", "images", "*.jpg"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	records, err := filepath.Glob(filepath.Join(saveRoot, "data", "*", "memes", "data", "*.json"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	var aaa string
	for _, r := range records {
		if strings.HasSuffix(r, "aaa.json") {
			aaa = r
		}
	}
	require.NotEmpty(t, aaa)

	rec, err := metadata.Load(aaa)
	require.NoError(t, err)
	assert.Equal(t, "first post", rec.Title)
	require.NotNil(t, rec.BestComment)
	assert.Equal(t, "top comment", *rec.BestComment)
	require.NotNil(t, rec.BestComment2)
	assert.Equal(t, "second comment", *rec.BestComment2)

	// Ledger picked up both posts.
	assert.True(t, s.Ledger().Contains("aaa"))
	assert.True(t, s.Ledger().Contains("bbb"))
}

func TestRunSecondPassSkipsProcessedPosts(t *testing.T) {
	m := newMockReddit(t)
	m.addPost("aaa", "first post", "comment")

	saveRoot := t.TempDir()

	first := newTestScraper(t, m, saveRoot, 5)
	summary, err := first.Run(context.Background(), []string{"memes"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	// A fresh scraper over the same save root sees the persisted ledger.
	second := newTestScraper(t, m, saveRoot, 5)
	summary, err = second.Run(context.Background(), []string{"memes"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestRunRespectsAmount(t *testing.T) {
	m := newMockReddit(t)
	for i := 0; i < 10; i++ {
		m.addPost(fmt.Sprintf("p%02d", i), fmt.Sprintf("post %d", i), "c")
	}

	s := newTestScraper(t, m, t.TempDir(), 3)
	summary, err := s.Run(context.Background(), []string{"memes"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
}

func TestRunFailedDownloadLeavesLedgerUntouched(t *testing.T) {
	m := newMockReddit(t)
	m.addPost("good", "works", "c")
	m.addPost("bad", "broken media", "c")
	m.mediaFails["bad.jpg"] = true

	saveRoot := t.TempDir()
	s := newTestScraper(t, m, saveRoot, 5)

	summary, err := s.Run(context.Background(), []string{"memes"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Failed)

	assert.True(t, s.Ledger().Contains("good"))
	assert.False(t, s.Ledger().Contains("bad"))

	// The persisted store agrees.
	led, err := ledger.Open(saveRoot, logger.NewTestLogger())
	require.NoError(t, err)
	assert.False(t, led.Contains("bad"))
}

func TestRunNormalizesCommunityNames(t *testing.T) {
	m := newMockReddit(t)
	m.addPost("aaa", "post", "c")

	s := newTestScraper(t, m, t.TempDir(), 5)
	summary, err := s.Run(context.Background(), []string{"r/memes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"memes"}, summary.Communities)
	assert.Equal(t, 1, summary.Downloaded["memes"])
}

func TestRunUnknownScalePreset(t *testing.T) {
	m := newMockReddit(t)

	cfg := config.DefaultConfig()
	cfg.Reddit.ClientID = "test"
	cfg.Reddit.ClientSecret = "test"
	cfg.Output.SaveRoot = t.TempDir()
	cfg.Scale.Enabled = true
	cfg.Scale.Preset = "no-such-preset"

	log := logger.NewTestLogger()
	client := reddit.NewClientWithHTTP(m.server.Client(), m.server.URL, "test-agent", log)
	s, err := NewWithClient(cfg, client, log)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), []string{"memes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-preset")
}

func TestRunEmptyListing(t *testing.T) {
	m := newMockReddit(t)

	s := newTestScraper(t, m, t.TempDir(), 5)
	summary, err := s.Run(context.Background(), []string{"memes"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Downloaded["memes"])
}
