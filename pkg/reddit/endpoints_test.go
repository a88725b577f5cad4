package reddit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopPostsURL(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		url := TopPostsURL(BaseURL, "memes", "", 100)
		assert.Equal(t, "https://oauth.reddit.com/r/memes/top?limit=100&raw_json=1&t=day", url)
	})

	t.Run("with cursor", func(t *testing.T) {
		url := TopPostsURL(BaseURL, "memes", "t3_abc", 50)
		assert.Contains(t, url, "after=t3_abc")
		assert.Contains(t, url, "limit=50")
	})

	t.Run("limit clamped to maximum", func(t *testing.T) {
		url := TopPostsURL(BaseURL, "memes", "", 500)
		assert.Contains(t, url, "limit=100")
	})

	t.Run("zero limit falls back to default", func(t *testing.T) {
		url := TopPostsURL(BaseURL, "memes", "", 0)
		assert.Contains(t, url, "limit=100")
	})
}

func TestCommentsURL(t *testing.T) {
	url := CommentsURL(BaseURL, "memes", "abc123", "confidence", 100)
	assert.Equal(t, "https://oauth.reddit.com/r/memes/comments/abc123?depth=1&limit=100&raw_json=1&sort=confidence", url)
}

func TestFocalCommentURL(t *testing.T) {
	url := FocalCommentURL(BaseURL, "memes", "abc123", "def456", "top")
	assert.Contains(t, url, "/r/memes/comments/abc123?")
	assert.Contains(t, url, "comment=def456")
	assert.Contains(t, url, "sort=top")
	assert.Contains(t, url, "depth=2")
}

func TestNormalizeSubreddit(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"memes", "memes"},
		{"r/memes", "memes"},
		{"/r/memes", "memes"},
		{"r/memes/", "memes"},
		{"  memes  ", "memes"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeSubreddit(tt.input), "input %q", tt.input)
	}
}
