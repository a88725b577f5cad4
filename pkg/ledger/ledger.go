// Package ledger tracks which posts have already been processed so that
// repeated runs never download the same post twice. The persisted form is
// a JSON array of post IDs with a UTF-8 byte-order mark, matching the
// historical already_downloaded.json layout.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jubnl/RedditDownloader/pkg/logger"
)

// StoreFileName is the file name of the persisted ledger.
const StoreFileName = "already_downloaded.json"

// utf8BOM prefixes the persisted document. The historical store was
// written with a BOM, so both reading and writing keep it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Ledger is the persistent set of already-processed post IDs. Order of
// insertion is preserved in the persisted form; membership tests are
// backed by a map. Append is the only mutation.
type Ledger struct {
	path   string
	ids    []string
	seen   map[string]struct{}
	logger logger.Logger
}

// StorePath returns the ledger location under the given save root.
func StorePath(saveRoot string) string {
	return filepath.Join(saveRoot, "data", "utils", StoreFileName)
}

// Open loads the ledger from the store under saveRoot. A missing store is
// created empty. An unparseable store is treated as empty: prior history
// is lost, a warning is logged, and the run continues. That lenient
// recovery mirrors the historical behavior and is a documented risk.
func Open(saveRoot string, log logger.Logger) (*Ledger, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	path := StorePath(saveRoot)
	l := &Ledger{
		path:   path,
		seen:   make(map[string]struct{}),
		logger: log,
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read ledger store: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		if err := l.Persist(); err != nil {
			return nil, fmt.Errorf("failed to create empty ledger store: %w", err)
		}
		log.DebugWithFields("ledger store created", map[string]interface{}{
			"path": path,
		})
		return l, nil
	}

	content = bytes.TrimPrefix(content, utf8BOM)

	var ids []string
	if len(bytes.TrimSpace(content)) == 0 {
		ids = nil
	} else if err := json.Unmarshal(content, &ids); err != nil {
		log.WarnWithFields("ledger store unparseable, resetting to empty", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		ids = nil
	}

	for _, id := range ids {
		if _, dup := l.seen[id]; dup {
			continue
		}
		l.ids = append(l.ids, id)
		l.seen[id] = struct{}{}
	}

	log.DebugWithFields("ledger loaded", map[string]interface{}{
		"path":    path,
		"entries": len(l.ids),
	})

	return l, nil
}

// Contains reports whether the post ID has already been processed.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.seen[id]
	return ok
}

// Append adds a post ID to the in-memory sequence. The caller guarantees
// the ID is not already present; a duplicate append is ignored.
func (l *Ledger) Append(id string) {
	if l.Contains(id) {
		return
	}
	l.ids = append(l.ids, id)
	l.seen[id] = struct{}{}
}

// Len returns the number of recorded post IDs.
func (l *Ledger) Len() int {
	return len(l.ids)
}

// IDs returns a copy of the recorded post IDs in insertion order.
func (l *Ledger) IDs() []string {
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// Persist overwrites the store with the current in-memory sequence. The
// write goes to a temporary file first and is renamed into place so a
// crash never leaves a truncated store behind.
func (l *Ledger) Persist() error {
	ids := l.ids
	if ids == nil {
		ids = []string{}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tempPath := l.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write ledger: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync ledger file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close ledger file: %w", err)
	}

	if err := os.Rename(tempPath, l.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	return nil
}
