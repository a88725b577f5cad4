package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleReporterMessages(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf, false)

	r.SearchStarted("memes")
	r.PostDownloaded("memes", "abc", 1)
	r.CommunityDone("memes", 3)
	r.RunDone([]string{"memes", "pics"})

	out := buf.String()
	assert.Contains(t, out, "Searching for images on the memes subreddit...")
	assert.Contains(t, out, "image downloaded from /r/memes.")
	assert.Contains(t, out, "3 images from /r/memes have been downloaded.")
	assert.Contains(t, out, "Download finished for the following subreddit(s): memes, pics.")
}

func TestConsoleReporterQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf, true)

	r.SearchStarted("memes")
	r.PostDownloaded("memes", "abc", 1)
	r.CommunityDone("memes", 3)
	r.RunDone([]string{"memes"})

	assert.Empty(t, buf.String())
}
