// Package metadata derives the per-post record from a candidate's
// comment tree and persists it next to the ledger update.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jubnl/RedditDownloader/pkg/errors"
	"github.com/jubnl/RedditDownloader/pkg/ledger"
	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/reddit"
	"github.com/jubnl/RedditDownloader/pkg/workspace"
)

// maxCommentLength is the body-length cutoff for comment selection.
const maxCommentLength = 140

// Record is the persisted metadata document for one downloaded post.
// Field names match the historical on-disk format exactly, including the
// "18" maturity key and the mixed-case comment keys.
type Record struct {
	ImagePath    string  `json:"image_path"`
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Score        int     `json:"score"`
	Over18       bool    `json:"18"`
	BestComment  *string `json:"Best_comment"`
	BestComment2 *string `json:"Best_comment_2"`
	BestReply    *string `json:"best_reply"`
}

// CommentSource provides the comment tree of a post, sorted by the
// "best" rank key, and the refreshed top-sorted replies of one comment.
type CommentSource interface {
	Comments(ctx context.Context, post *reddit.Post) ([]reddit.Comment, error)
	Replies(ctx context.Context, post *reddit.Post, commentID string) ([]reddit.Comment, error)
}

// Extractor builds Records from candidate posts.
type Extractor struct {
	source CommentSource
	logger logger.Logger
}

// NewExtractor creates an Extractor backed by the given comment source.
func NewExtractor(source CommentSource, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{source: source, logger: log}
}

// Extract derives the Record for a materialized post: core post fields
// plus the best comment, second-best comment and best reply.
func (e *Extractor) Extract(ctx context.Context, post *reddit.Post, imagePath string) (*Record, error) {
	best, second, bestReply, err := e.BestComments(ctx, post)
	if err != nil {
		return nil, err
	}

	return &Record{
		ImagePath:    imagePath,
		ID:           post.ID,
		Title:        post.Title,
		Score:        post.Score,
		Over18:       post.Over18,
		BestComment:  best,
		BestComment2: second,
		BestReply:    bestReply,
	}, nil
}

// BestComments scans the post's best-sorted top-level comments. A
// comment qualifies when its body is at most 140 characters and does not
// contain "http". The first qualifier becomes best, the second
// qualifier's body becomes second, and scanning stops right after the
// second. If a best comment was found, its direct replies are refreshed
// in top order; a reply is skipped when its body is 140 characters or
// longer or contains "http", and the first surviving body becomes
// bestReply.
func (e *Extractor) BestComments(ctx context.Context, post *reddit.Post) (best, second, bestReply *string, err error) {
	comments, err := e.source.Comments(ctx, post)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("comment fetch for %s failed: %w", post.ID, err)
	}

	var bestComment *reddit.Comment
	for i := range comments {
		if !commentQualifies(comments[i].Body) {
			continue
		}
		if bestComment == nil {
			bestComment = &comments[i]
			continue
		}
		body := comments[i].Body
		second = &body
		break
	}

	if bestComment == nil {
		return nil, second, nil, nil
	}

	replies, err := e.source.Replies(ctx, post, bestComment.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reply refresh for %s failed: %w", post.ID, err)
	}

	for i := range replies {
		if replyDisqualified(replies[i].Body) {
			continue
		}
		body := replies[i].Body
		bestReply = &body
		break
	}

	body := bestComment.Body
	best = &body
	return best, second, bestReply, nil
}

// commentQualifies is the top-level comment filter: at most 140 chars,
// no "http" anywhere in the body.
func commentQualifies(body string) bool {
	return len(body) <= maxCommentLength && !strings.Contains(body, "http")
}

// replyDisqualified is the reply filter. Note the asymmetry against
// commentQualifies: a reply of exactly 140 characters is skipped while a
// top-level comment of 140 is accepted. Historical behavior, preserved.
func replyDisqualified(body string) bool {
	return len(body) >= maxCommentLength || strings.Contains(body, "http")
}

// utf8BOM prefixes record documents, matching the ledger store encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer persists Records together with the ledger update.
type Writer struct {
	ledger *ledger.Ledger
	logger logger.Logger
}

// NewWriter creates a Writer bound to the given ledger.
func NewWriter(l *ledger.Ledger, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{ledger: l, logger: log}
}

// Write persists the record under the workspace's data directory and
// then records the post ID in the ledger. The record is written first:
// a crash between the two writes leaves an orphaned record that will be
// re-downloaded, never a ledger entry without a record. A ledger persist
// failure after a successful record write is surfaced as an
// inconsistent-state error.
func (w *Writer) Write(ws workspace.Workspace, rec *Record) error {
	path := ws.RecordPath(rec.ID)

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Newf(errors.ErrorTypeParsing, "failed to encode record %s: %v", rec.ID, err)
	}

	content := append(append([]byte{}, utf8BOM...), data...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeStorage,
			Message: fmt.Sprintf("failed to write record %s: %v", rec.ID, err),
		}
	}

	w.ledger.Append(rec.ID)
	if err := w.ledger.Persist(); err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeInconsistentState,
			Message: fmt.Sprintf("record %s written but ledger persist failed: %v", rec.ID, err),
		}
	}

	w.logger.DebugWithFields("record written", map[string]interface{}{
		"post_id": rec.ID,
		"path":    path,
	})

	return nil
}

// Load reads a persisted record document.
func Load(path string) (*Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	content = trimBOM(content)

	var rec Record
	if err := json.Unmarshal(content, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &rec, nil
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == utf8BOM[0] && b[1] == utf8BOM[1] && b[2] == utf8BOM[2] {
		return b[3:]
	}
	return b
}
