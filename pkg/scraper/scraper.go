// Package scraper orchestrates the deduplicated fetch-and-materialize
// pipeline over one or more communities.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jubnl/RedditDownloader/internal/downloader"
	"github.com/jubnl/RedditDownloader/pkg/config"
	"github.com/jubnl/RedditDownloader/pkg/images"
	"github.com/jubnl/RedditDownloader/pkg/ledger"
	"github.com/jubnl/RedditDownloader/pkg/logger"
	"github.com/jubnl/RedditDownloader/pkg/metadata"
	"github.com/jubnl/RedditDownloader/pkg/reddit"
	"github.com/jubnl/RedditDownloader/pkg/selector"
	"github.com/jubnl/RedditDownloader/pkg/ui"
	"github.com/jubnl/RedditDownloader/pkg/workspace"
)

// RunSummary reports what one pipeline run accomplished.
type RunSummary struct {
	Communities []string
	Downloaded  map[string]int
	Failed      int
	Total       int
}

// Scraper drives the pipeline: ensure workspace, select candidates,
// materialize media, extract and write metadata. Processing is strictly
// sequential in caller-supplied order.
type Scraper struct {
	ledger     *ledger.Ledger
	selector   *selector.Selector
	extractor  *metadata.Extractor
	writer     *metadata.Writer
	downloader *downloader.Downloader
	config     *config.Config
	reporter   ui.Reporter
	logger     logger.Logger
	now        func() time.Time
}

// New creates a Scraper with its own Reddit client built from the
// configuration.
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()
	client := reddit.NewClient(&cfg.Reddit, log)
	return NewWithClient(cfg, client, log)
}

// NewWithClient creates a Scraper on top of an existing Reddit client.
func NewWithClient(cfg *config.Config, client *reddit.Client, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	led, err := ledger.Open(cfg.Output.SaveRoot, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	var resizer downloader.Resizer
	if cfg.Scale.Enabled {
		resizer = images.NewResizer(log)
	}

	return &Scraper{
		ledger:     led,
		selector:   selector.New(client, led, log),
		extractor:  metadata.NewExtractor(client, log),
		writer:     metadata.NewWriter(led, log),
		downloader: downloader.New(client, resizer, log),
		config:     cfg,
		reporter:   ui.NewConsoleReporter(cfg.Logging.Quiet),
		logger:     log,
		now:        time.Now,
	}, nil
}

// SetReporter replaces the progress reporter.
func (s *Scraper) SetReporter(r ui.Reporter) {
	if r != nil {
		s.reporter = r
	}
}

// Run processes the given communities in order and returns a summary.
// Per-candidate failures (fetch, resize, write) abort only that
// candidate: the ledger is not updated for it and it stays eligible on
// the next run. Selection failures abort the run.
func (s *Scraper) Run(ctx context.Context, communities []string) (*RunSummary, error) {
	scale, err := s.resolveScale()
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		Downloaded: make(map[string]int),
	}

	for _, raw := range communities {
		community := reddit.NormalizeSubreddit(raw)
		summary.Communities = append(summary.Communities, community)

		if err := s.runCommunity(ctx, community, scale, summary); err != nil {
			return nil, err
		}
	}

	s.reporter.RunDone(summary.Communities)
	s.logger.InfoWithFields("run completed", map[string]interface{}{
		"communities": summary.Communities,
		"downloaded":  summary.Total,
		"failed":      summary.Failed,
	})

	return summary, nil
}

// runCommunity handles selection and materialization for one community.
func (s *Scraper) runCommunity(ctx context.Context, community string, scale *images.Scale, summary *RunSummary) error {
	s.reporter.SearchStarted(community)

	ws, err := workspace.Ensure(s.config.Output.SaveRoot, community, s.now())
	if err != nil {
		return fmt.Errorf("workspace setup for %s failed: %w", community, err)
	}

	candidates, err := s.selector.Select(ctx, community, selector.Options{
		Count:           s.config.Download.Amount,
		NSFW:            s.config.Download.NSFW,
		AcceptedFormats: s.config.Download.AcceptedFormats,
		ScanLimit:       s.config.Download.ScanLimit,
	})
	if err != nil {
		return fmt.Errorf("selection for %s failed: %w", community, err)
	}

	downloaded := 0
	for i := range candidates {
		post := &candidates[i]

		if err := s.processCandidate(ctx, ws, post, scale); err != nil {
			summary.Failed++
			s.logger.ErrorWithFields("candidate aborted", map[string]interface{}{
				"community": community,
				"post_id":   post.ID,
				"error":     err.Error(),
			})
			continue
		}

		downloaded++
		summary.Total++
		s.reporter.PostDownloaded(community, post.ID, downloaded)
	}

	summary.Downloaded[community] = downloaded
	s.reporter.CommunityDone(community, downloaded)

	return nil
}

// processCandidate materializes one candidate and writes its metadata.
// The ledger is only touched after both steps succeeded.
func (s *Scraper) processCandidate(ctx context.Context, ws workspace.Workspace, post *reddit.Post, scale *images.Scale) error {
	imagePath := ws.ImagePath(post.ID, strings.ToLower(post.URL))

	if err := s.downloader.Materialize(ctx, post, imagePath, scale, s.config.Scale.ReplaceOriginal); err != nil {
		return err
	}

	rec, err := s.extractor.Extract(ctx, post, imagePath)
	if err != nil {
		return err
	}

	return s.writer.Write(ws, rec)
}

// resolveScale turns the scale configuration into target dimensions.
func (s *Scraper) resolveScale() (*images.Scale, error) {
	if !s.config.Scale.Enabled {
		return nil, nil
	}

	if s.config.Scale.Preset != "" {
		scale, ok := images.PresetByName(s.config.Scale.Preset)
		if !ok {
			return nil, fmt.Errorf("unknown scale preset: %s", s.config.Scale.Preset)
		}
		return &scale, nil
	}

	return &images.Scale{
		Width:  s.config.Scale.Width,
		Height: s.config.Scale.Height,
	}, nil
}

// Ledger exposes the run's ledger, mainly for inspection in tests and
// tooling.
func (s *Scraper) Ledger() *ledger.Ledger {
	return s.ledger
}
