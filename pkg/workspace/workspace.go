// Package workspace builds the per-run, per-community directory layout
// that images and metadata are written into.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Workspace describes the storage folders for one community in one run.
type Workspace struct {
	Root      string
	ImagesDir string
	DataDir   string
}

// Ensure builds root/data/<MMDDYYYY>/<community>/ with images/ and data/
// children and returns the resulting layout. Creation is idempotent, and
// a partially created layout from a crashed prior run is repaired: both
// children are re-created when missing rather than only when the top
// path is new.
func Ensure(root, community string, runDate time.Time) (Workspace, error) {
	top := filepath.Join(root, "data", runDate.Format("01022006"), community)

	ws := Workspace{
		Root:      top,
		ImagesDir: filepath.Join(top, "images"),
		DataDir:   filepath.Join(top, "data"),
	}

	for _, dir := range []string{ws.Root, ws.ImagesDir, ws.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Workspace{}, fmt.Errorf("failed to create workspace directory %s: %w", dir, err)
		}
	}

	return ws, nil
}

// ImagePath returns the destination path for a post's media file. The
// extension is the last 4 characters of the lowercase source URL, dot
// included, matching the historical on-disk naming.
func (w Workspace) ImagePath(postID, lowerURL string) string {
	ext := lowerURL
	if len(ext) > 4 {
		ext = ext[len(ext)-4:]
	}
	return filepath.Join(w.ImagesDir, postID+ext)
}

// RecordPath returns the destination path for a post's metadata document.
func (w Workspace) RecordPath(postID string) string {
	return filepath.Join(w.DataDir, postID+".json")
}
