// Package models holds the record types passed between the traversal,
// extraction, assembly and persistence stages.
package models

// ListingCandidate is one card scraped from a listing page. DetailURL is
// mandatory; the other fields are best-effort and may be empty.
type ListingCandidate struct {
	DetailURL string
	Title     string
	Artist    string
	ThumbURL  string
}

// Artwork is one accepted record, immutable once the assembler takes it.
// ImageURL is mandatory; a work without a resolvable image never becomes
// an Artwork. LocalPath is filled by persistence and may stay empty in
// collector mode when the download fails.
type Artwork struct {
	ID         string
	Class      string // raw class label, e.g. "Baroque"
	ClassID    string // slug used for bucketing and quotas
	Profession string
	School     string
	Artist     string
	ArtistURL  string
	WorkURL    string
	ImageURL   string
	ThumbURL   string
	Title      string
	Date       string
	LocalPath  string
}

// RunStats aggregates the per-run counters shown in progress logs and the
// final report.
type RunStats struct {
	PagesVisited  int     `json:"pages_visited"`
	WorksFound    int     `json:"works_found"`
	Accepted      int     `json:"accepted"`
	Duplicates    int     `json:"duplicates"`
	QuotaRejected int     `json:"quota_rejected"`
	MissingImage  int     `json:"missing_image"`
	Errors        int     `json:"errors"`
	PurgedClasses int     `json:"purged_classes"`
	PurgedRows    int     `json:"purged_rows"`
	Duration      float64 `json:"duration_seconds"`
}
