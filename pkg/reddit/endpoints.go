package reddit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the authenticated Reddit API host
	BaseURL = "https://oauth.reddit.com"

	// TokenURL is the OAuth2 client-credentials token endpoint
	TokenURL = "https://www.reddit.com/api/v1/access_token"

	// DefaultListingLimit is the default page size for listings
	DefaultListingLimit = 100

	// MaxListingLimit is the largest page size Reddit will serve
	MaxListingLimit = 100
)

// TopPostsURL constructs the URL for a subreddit's top-of-day listing page.
func TopPostsURL(base, subreddit, after string, limit int) string {
	if limit <= 0 {
		limit = DefaultListingLimit
	} else if limit > MaxListingLimit {
		limit = MaxListingLimit
	}

	params := url.Values{}
	params.Set("t", "day")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")
	if after != "" {
		params.Set("after", after)
	}

	return fmt.Sprintf("%s/r/%s/top?%s", base, subreddit, params.Encode())
}

// CommentsURL constructs the URL for a post's top-level comment tree with
// the given sort key ("best" maps to Reddit's confidence sort).
func CommentsURL(base, subreddit, postID, sort string, limit int) string {
	params := url.Values{}
	params.Set("sort", sort)
	params.Set("depth", "1")
	params.Set("raw_json", "1")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	return fmt.Sprintf("%s/r/%s/comments/%s?%s", base, subreddit, postID, params.Encode())
}

// FocalCommentURL constructs the URL that refetches a single comment with
// its direct replies resorted by the given key. This is the refresh used
// before reply traversal.
func FocalCommentURL(base, subreddit, postID, commentID, sort string) string {
	params := url.Values{}
	params.Set("comment", commentID)
	params.Set("sort", sort)
	params.Set("depth", "2")
	params.Set("raw_json", "1")

	return fmt.Sprintf("%s/r/%s/comments/%s?%s", base, subreddit, postID, params.Encode())
}

// NormalizeSubreddit strips an "r/" or "/r/" prefix and surrounding
// whitespace from a community name.
func NormalizeSubreddit(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, "r/")
	return strings.TrimSuffix(name, "/")
}
