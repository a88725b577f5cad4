package reddit

import "encoding/json"

// listingResponse is the standard Reddit listing envelope.
type listingResponse struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	After    string      `json:"after"`
	Children []postChild `json:"children"`
}

type postChild struct {
	Kind string `json:"kind"`
	Data Post   `json:"data"`
}

// Post is a read-only view of one ranked submission. The pipeline only
// reads it within a single selection and materialization cycle.
type Post struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Over18      bool    `json:"over_18"`
	Stickied    bool    `json:"stickied"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Comment is a read-only view of one comment in a post's tree.
type Comment struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`

	// RepliesRaw is either an empty string or a nested listing object;
	// Reddit serializes "no replies" as "". Use DirectReplies.
	RepliesRaw json.RawMessage `json:"replies"`
}

type commentChild struct {
	Kind string  `json:"kind"`
	Data Comment `json:"data"`
}

type commentListing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []commentChild `json:"children"`
	} `json:"data"`
}

// DirectReplies decodes the embedded reply listing of a comment. An empty
// or absent listing yields nil. "more" stubs are dropped; only loaded
// comments (kind t1) are returned.
func (c *Comment) DirectReplies() []Comment {
	if len(c.RepliesRaw) == 0 || c.RepliesRaw[0] != '{' {
		return nil
	}

	var listing commentListing
	if err := json.Unmarshal(c.RepliesRaw, &listing); err != nil {
		return nil
	}

	var replies []Comment
	for _, child := range listing.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		replies = append(replies, child.Data)
	}
	return replies
}
