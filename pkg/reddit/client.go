// Package reddit provides the authenticated Reddit API client used for
// ranked listing, comment tree and media retrieval.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jubnl/RedditDownloader/pkg/config"
	"github.com/jubnl/RedditDownloader/pkg/errors"
	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/ratelimit"
	"github.com/jubnl/RedditDownloader/pkg/retry"
)

// Client is a Reddit API client authenticated with OAuth2 client
// credentials. Listing and comment fetches are paced by a token bucket
// and retried per the configured policy; media downloads are single-shot.
type Client struct {
	httpClient *http.Client

	// mediaClient fetches media files. It carries no OAuth transport:
	// media lives on third-party hosts and the bearer token must not
	// leave the API host.
	mediaClient *http.Client

	baseURL    string
	userAgent  string
	limiter    ratelimit.Limiter
	maxRetries int
	logger     logger.Logger
}

// NewClient creates a Reddit client from the given configuration.
func NewClient(cfg *config.RedditConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	oauthConf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	httpClient := oauthConf.Client(context.Background())
	httpClient.Timeout = cfg.RequestTimeout

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Client{
		httpClient:  httpClient,
		mediaClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:     BaseURL,
		userAgent:   cfg.UserAgent,
		limiter:     ratelimit.NewTokenBucket(rpm, time.Minute),
		maxRetries:  cfg.MaxRetries,
		logger:      log,
	}
}

// NewClientWithHTTP creates a client on top of an existing HTTP client
// and base URL. Used against local test servers.
func NewClientWithHTTP(httpClient *http.Client, baseURL, userAgent string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient:  httpClient,
		mediaClient: &http.Client{},
		baseURL:     baseURL,
		userAgent:   userAgent,
		limiter:     ratelimit.NewTokenBucket(600, time.Minute),
		maxRetries:  0,
		logger:      log,
	}
}

// BaseURL returns the API host the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a paced GET request against the API host.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	return c.fetch(ctx, c.httpClient, url)
}

// fetch performs a paced GET request through the given HTTP client.
func (c *Client) fetch(ctx context.Context, httpClient *http.Client, url string) (*http.Response, error) {
	c.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Newf(errors.ErrorTypeNetwork, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus maps HTTP response status to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"url": resp.Request.URL.String(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 400:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	default:
		return nil
	}
}

// retryConfig builds the client-level retry policy for API calls.
func (c *Client) retryConfig(ctx context.Context) *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.maxRetries + 1
	cfg.Context = ctx
	cfg.Logger = c.logger
	return cfg
}

// TopOfDay fetches one page of a subreddit's top-of-day listing. It
// returns the posts in rank order and the cursor for the next page; an
// empty cursor means the listing is exhausted.
func (c *Client) TopOfDay(ctx context.Context, subreddit, after string, limit int) ([]Post, string, error) {
	url := TopPostsURL(c.baseURL, subreddit, after, limit)

	listing, err := retry.DoWithResult(func() (*listingResponse, error) {
		var resp listingResponse
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch top posts for r/%s: %w", subreddit, err)
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		posts = append(posts, child.Data)
	}

	c.logger.DebugWithFields("listing page fetched", map[string]interface{}{
		"subreddit": subreddit,
		"posts":     len(posts),
		"after":     listing.Data.After,
	})

	return posts, listing.Data.After, nil
}

// Comments fetches a post's top-level comments sorted by the "best"
// rank key.
func (c *Client) Comments(ctx context.Context, post *Post) ([]Comment, error) {
	url := CommentsURL(c.baseURL, post.Subreddit, post.ID, "confidence", DefaultListingLimit)

	payload, err := retry.DoWithResult(func() ([]json.RawMessage, error) {
		var resp []json.RawMessage
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		return resp, nil
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", post.ID, err)
	}

	return parseCommentPayload(payload)
}

// Replies refetches a single comment with its direct replies resorted by
// the "top" rank key and returns those replies. This mirrors a comment
// refresh before reply traversal.
func (c *Client) Replies(ctx context.Context, post *Post, commentID string) ([]Comment, error) {
	url := FocalCommentURL(c.baseURL, post.Subreddit, post.ID, commentID, "top")

	payload, err := retry.DoWithResult(func() ([]json.RawMessage, error) {
		var resp []json.RawMessage
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		return resp, nil
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to refresh replies for comment %s: %w", commentID, err)
	}

	comments, err := parseCommentPayload(payload)
	if err != nil {
		return nil, err
	}

	for i := range comments {
		if comments[i].ID == commentID {
			return comments[i].DirectReplies(), nil
		}
	}

	return nil, nil
}

// parseCommentPayload extracts the comment listing from Reddit's
// two-element comments response (post listing first, comments second).
func parseCommentPayload(payload []json.RawMessage) ([]Comment, error) {
	if len(payload) < 2 {
		return nil, errors.New(errors.ErrorTypeParsing, "comments response missing comment listing")
	}

	var listing commentListing
	if err := json.Unmarshal(payload[1], &listing); err != nil {
		return nil, errors.Newf(errors.ErrorTypeParsing, "failed to parse comment listing: %v", err)
	}

	var comments []Comment
	for _, child := range listing.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		comments = append(comments, child.Data)
	}

	return comments, nil
}

// DownloadMedia fetches the raw bytes of a media URL through the plain
// media client. There is no retry here: a failed download aborts the
// current candidate only.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	resp, err := c.fetch(ctx, c.mediaClient, mediaURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to download media: %v", err)
	}

	c.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":  mediaURL,
		"size": len(data),
	})

	return data, nil
}
