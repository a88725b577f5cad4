// Package images wraps the image resize capability and the named scale
// presets for common social formats.
package images

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/jubnl/RedditDownloader/pkg/logger"
)

// Scale is a target size in pixels.
type Scale struct {
	Width  int
	Height int
}

// Presets are the well-known output formats, selectable by name.
var Presets = map[string]Scale{
	"youtube-shorts-fullscreen": {1080, 1920},
	"youtube-shorts-square":     {1080, 1080},
	"youtube-video":             {1920, 1080},
	"tiktok":                    {1080, 1920},
	"instagram-photo-square":    {1080, 1080},
	"instagram-photo-landscape": {1080, 608},
	"instagram-photo-portrait":  {1080, 1350},
	"instagram-stories":         {1080, 1920},
	"instagram-reels":           {1080, 1920},
	"instagram-igtv-cover":      {420, 654},
}

// PresetByName looks up a named scale preset.
func PresetByName(name string) (Scale, bool) {
	scale, ok := Presets[name]
	return scale, ok
}

// Resizer resizes downloaded images in place or into a sibling resized/
// directory.
type Resizer struct {
	filter imaging.ResampleFilter
	logger logger.Logger
}

// NewResizer creates a Resizer with Lanczos resampling.
func NewResizer(log logger.Logger) *Resizer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resizer{
		filter: imaging.Lanczos,
		logger: log,
	}
}

// Resize scales the image at path to the given size. With
// replaceOriginal the result overwrites the source file; otherwise it is
// written under a resized/ directory next to the source. Returns the
// output path.
func (r *Resizer) Resize(path string, scale Scale, replaceOriginal bool) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", path, err)
	}

	resized := imaging.Resize(img, scale.Width, scale.Height, r.filter)

	out := path
	if !replaceOriginal {
		dir := filepath.Join(filepath.Dir(path), "resized")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create resized directory: %w", err)
		}
		out = filepath.Join(dir, filepath.Base(path))
	}

	if err := imaging.Save(resized, out); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	r.logger.DebugWithFields("image resized", map[string]interface{}{
		"path":   out,
		"width":  scale.Width,
		"height": scale.Height,
	})

	return out, nil
}
