package store

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/galleryforge/artcrawl/internal/models"
)

// manifestHeader is the column order of the emitted CSV.
var manifestHeader = []string{
	"id", "class", "class_id", "profession", "school",
	"artist", "artist_url", "work_url", "image_url", "thumb_url",
	"title", "date", "local_path",
}

// Manifest is the durable tabular output: one row per accepted record,
// flushed row by row so partial results survive interrupts. Rows are also
// kept in memory for the end-of-run purge and summary.
type Manifest struct {
	path string
	f    *os.File
	w    *csv.Writer
	rows []models.Artwork
}

// OpenManifest creates (or truncates) the manifest file and writes the
// header.
func OpenManifest(path string) (*Manifest, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create manifest: %w", err)
	}

	m := &Manifest{path: path, f: f, w: csv.NewWriter(f)}
	if err := m.w.Write(manifestHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write manifest header: %w", err)
	}
	m.w.Flush()
	return m, m.w.Error()
}

// Append writes one accepted record and flushes it to disk.
func (m *Manifest) Append(row models.Artwork) error {
	if err := m.w.Write(record(row)); err != nil {
		return fmt.Errorf("append manifest row: %w", err)
	}
	m.w.Flush()
	if err := m.w.Error(); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}
	m.rows = append(m.rows, row)
	return nil
}

// Rows returns the rows written so far.
func (m *Manifest) Rows() []models.Artwork { return m.rows }

// ClassCounts tallies the durable rows per class slug. Quota floors are
// evaluated against these counts rather than accept-time counters, since
// a record can be accepted and still fail to persist.
func (m *Manifest) ClassCounts() map[string]int {
	counts := make(map[string]int)
	for _, row := range m.rows {
		counts[row.ClassID]++
	}
	return counts
}

// Len returns the number of rows written so far.
func (m *Manifest) Len() int { return len(m.rows) }

// RemoveClasses rewrites the manifest without the rows of the given class
// slugs and returns how many rows were dropped.
func (m *Manifest) RemoveClasses(drop map[string]bool) (int, error) {
	if len(drop) == 0 {
		return 0, nil
	}

	kept := make([]models.Artwork, 0, len(m.rows))
	removed := 0
	for _, row := range m.rows {
		if drop[row.ClassID] {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	if removed == 0 {
		return 0, nil
	}

	if err := m.f.Close(); err != nil {
		return 0, fmt.Errorf("close manifest for rewrite: %w", err)
	}
	f, err := os.Create(m.path)
	if err != nil {
		return 0, fmt.Errorf("rewrite manifest: %w", err)
	}
	m.f = f
	m.w = csv.NewWriter(f)
	m.rows = nil

	if err := m.w.Write(manifestHeader); err != nil {
		return 0, fmt.Errorf("rewrite manifest header: %w", err)
	}
	for _, row := range kept {
		if err := m.Append(row); err != nil {
			return 0, err
		}
	}
	m.w.Flush()
	return removed, m.w.Error()
}

// Close flushes and closes the manifest file.
func (m *Manifest) Close() error {
	m.w.Flush()
	if err := m.w.Error(); err != nil {
		m.f.Close()
		return err
	}
	return m.f.Close()
}

// Path returns the manifest file location.
func (m *Manifest) Path() string { return m.path }

func record(r models.Artwork) []string {
	return []string{
		r.ID, r.Class, r.ClassID, r.Profession, r.School,
		r.Artist, r.ArtistURL, r.WorkURL, r.ImageURL, r.ThumbURL,
		r.Title, r.Date, r.LocalPath,
	}
}
