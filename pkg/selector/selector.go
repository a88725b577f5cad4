// Package selector queries the ranked listing for a community and
// applies the candidate filters.
package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/reddit"
)

// PostLister pages through a community's top-of-day listing.
type PostLister interface {
	TopOfDay(ctx context.Context, subreddit, after string, limit int) ([]reddit.Post, string, error)
}

// ProcessedSet answers whether a post has already been processed.
type ProcessedSet interface {
	Contains(id string) bool
}

// Options control one selection pass.
type Options struct {
	// Count is the maximum number of candidates to return
	Count int
	// NSFW selects posts whose over-18 flag equals this value
	NSFW bool
	// AcceptedFormats is the file extension allow-list ("jpg", "png", ...)
	AcceptedFormats []string
	// ScanLimit caps how many ranked entries are examined (default 1000)
	ScanLimit int
}

// DefaultScanLimit bounds the ranked window when none is configured.
const DefaultScanLimit = 1000

// Selector walks a ranked listing in order and collects acceptable
// candidates.
type Selector struct {
	lister PostLister
	ledger ProcessedSet
	logger logger.Logger
}

// New creates a Selector.
func New(lister PostLister, ledger ProcessedSet, log logger.Logger) *Selector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Selector{
		lister: lister,
		ledger: ledger,
		logger: log,
	}
}

// Select walks the community's top-of-day listing in rank order and
// returns up to opts.Count candidates that pass every filter: not
// stickied, URL extension in the accepted set, over-18 flag equal to the
// requested one, and not already processed. It stops at opts.Count
// acceptances or when the ranked window is exhausted; returning fewer
// than requested is not an error.
func (s *Selector) Select(ctx context.Context, community string, opts Options) ([]reddit.Post, error) {
	scanLimit := opts.ScanLimit
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}

	accepted := make(map[string]struct{}, len(opts.AcceptedFormats))
	for _, format := range opts.AcceptedFormats {
		accepted[strings.ToLower(format)] = struct{}{}
	}

	var selected []reddit.Post
	scanned := 0
	after := ""
	hasMore := true

	for hasMore && scanned < scanLimit && len(selected) < opts.Count {
		pageSize := scanLimit - scanned
		if pageSize > reddit.MaxListingLimit {
			pageSize = reddit.MaxListingLimit
		}

		posts, next, err := s.lister.TopOfDay(ctx, community, after, pageSize)
		if err != nil {
			return nil, fmt.Errorf("listing fetch for %s failed: %w", community, err)
		}

		for _, post := range posts {
			if scanned >= scanLimit {
				break
			}
			scanned++

			if !s.accept(&post, opts.NSFW, accepted) {
				continue
			}

			selected = append(selected, post)
			if len(selected) >= opts.Count {
				break
			}
		}

		if next == "" || len(posts) == 0 {
			hasMore = false
		}
		after = next
	}

	s.logger.InfoWithFields("candidate selection finished", map[string]interface{}{
		"community": community,
		"selected":  len(selected),
		"scanned":   scanned,
		"requested": opts.Count,
	})

	return selected, nil
}

// accept applies the candidate filters to a single ranked entry.
func (s *Selector) accept(post *reddit.Post, nsfw bool, accepted map[string]struct{}) bool {
	if post.Stickied {
		return false
	}
	if !extensionAccepted(post.URL, accepted) {
		return false
	}
	if post.Over18 != nsfw {
		return false
	}
	if s.ledger.Contains(post.ID) {
		s.logger.DebugWithFields("skipping already downloaded post", map[string]interface{}{
			"post_id": post.ID,
		})
		return false
	}
	return true
}

// extensionAccepted compares the lowercase last 3 characters of the URL
// against the allow-list. The compare is deliberately a fixed 3-char
// suffix: a ".jpeg" URL compares as "peg" and is rejected unless "peg"
// is listed. Historical behavior, kept on purpose.
func extensionAccepted(url string, accepted map[string]struct{}) bool {
	lower := strings.ToLower(url)
	if len(lower) < 3 {
		return false
	}
	_, ok := accepted[lower[len(lower)-3:]]
	return ok
}
