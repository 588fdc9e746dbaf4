// Package store persists accepted images and the tabular manifest.
// Image writes are idempotent: an existing non-empty file is never
// re-written, so re-runs skip the download entirely.
package store

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/galleryforge/artcrawl/internal/logging"
)

// DefaultExt is the fallback image extension when neither the source URL
// nor the content type is informative.
const DefaultExt = ".jpeg"

var allowedExts = map[string]bool{
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

var urlExtRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif)$`)

// Ext derives the file extension for an image: the source URL's path
// suffix first (jpg normalized to jpeg), then the declared content type,
// then DefaultExt. Unrecognized results coerce to DefaultExt.
func Ext(sourceURL, contentType string) string {
	if sourceURL != "" {
		if u, err := url.Parse(sourceURL); err == nil {
			if m := urlExtRe.FindStringSubmatch(u.Path); m != nil {
				ext := "." + strings.ToLower(m[1])
				if ext == ".jpg" {
					ext = ".jpeg"
				}
				if allowedExts[ext] {
					return ext
				}
			}
		}
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpeg"
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "webp"):
		return ".webp"
	case strings.Contains(ct, "gif"):
		return ".gif"
	}

	return DefaultExt
}

// Images writes image files under a root directory: one flat directory in
// collector mode, one subdirectory per class in dataset mode.
type Images struct {
	Root string
}

// PathFor maps a record to its target file. classID may be empty for the
// flat layout.
func (s Images) PathFor(classID, baseName, ext string) string {
	if classID == "" {
		return filepath.Join(s.Root, baseName+ext)
	}
	return filepath.Join(s.Root, classID, baseName+ext)
}

// Exists reports whether path already holds a non-empty file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// Write persists image bytes. If the target already holds a non-empty
// file the write is a no-op returning the existing path.
func (s Images) Write(path string, data []byte) (string, error) {
	if Exists(path) {
		logging.Debugf("image already stored, skipping: %s", path)
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

var (
	slugDropRe     = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapseRe = regexp.MustCompile(`-{2,}`)
)

// Slugify turns free text into a filename-safe slug, capped at maxLen.
// Empty input yields "item".
func Slugify(s string, maxLen int) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugDropRe.ReplaceAllString(s, "-")
	s = strings.Trim(slugCollapseRe.ReplaceAllString(s, "-"), "-")
	if maxLen > 0 && len(s) > maxLen {
		s = s[:maxLen]
		s = strings.Trim(s, "-")
	}
	if s == "" {
		return "item"
	}
	return s
}
