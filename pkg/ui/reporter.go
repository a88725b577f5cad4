// Package ui emits the user-facing progress and summary messages for a
// pipeline run.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Reporter receives progress events from the pipeline.
type Reporter interface {
	SearchStarted(community string)
	PostDownloaded(community, postID string, count int)
	CommunityDone(community string, downloaded int)
	RunDone(communities []string)
}

// ConsoleReporter prints progress messages to a writer. Quiet mode
// suppresses all output.
type ConsoleReporter struct {
	out   io.Writer
	quiet bool
}

// NewConsoleReporter creates a reporter writing to stdout.
func NewConsoleReporter(quiet bool) *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout, quiet: quiet}
}

// NewConsoleReporterTo creates a reporter writing to the given writer.
func NewConsoleReporterTo(out io.Writer, quiet bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, quiet: quiet}
}

func (r *ConsoleReporter) SearchStarted(community string) {
	r.printf("Searching for images on the %s subreddit...\n", community)
}

func (r *ConsoleReporter) PostDownloaded(community, postID string, count int) {
	r.printf("image downloaded from /r/%s.\n", community)
}

func (r *ConsoleReporter) CommunityDone(community string, downloaded int) {
	r.printf("%d images from /r/%s have been downloaded.\n", downloaded, community)
}

func (r *ConsoleReporter) RunDone(communities []string) {
	r.printf("Download finished for the following subreddit(s): %s.\n", strings.Join(communities, ", "))
}

func (r *ConsoleReporter) printf(format string, args ...interface{}) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, format, args...)
}

// NopReporter discards all progress events.
type NopReporter struct{}

func (NopReporter) SearchStarted(string)               {}
func (NopReporter) PostDownloaded(string, string, int) {}
func (NopReporter) CommunityDone(string, int)          {}
func (NopReporter) RunDone([]string)                   {}
