// Package frontier drives the breadth-first discovery of pages within a
// scope boundary. One frontier entry is enqueued at most once per
// traversal, enforced by a visited set keyed on the normalized URL.
package frontier

import (
	"context"
	"sort"

	"github.com/galleryforge/artcrawl/internal/logging"
)

// PageKind classifies a discovered link.
type PageKind int

const (
	// KindIgnore marks links outside the traversal's interest.
	KindIgnore PageKind = iota
	// KindIndex marks listing pages that are re-enqueued when unseen.
	KindIndex
	// KindWork marks terminal work pages that are collected.
	KindWork
)

// Rules supplies the site-specific pieces of a traversal: URL
// normalization, the scope predicate and link classification.
type Rules interface {
	// Normalize canonicalizes a URL before dedup and classification.
	Normalize(u string) string
	// InScope reports whether a candidate stays inside the scope anchor.
	InScope(root, candidate string) bool
	// Classify tags a normalized in-scope link.
	Classify(u string) PageKind
}

// TextFetcher is the fetch capability the walker needs.
type TextFetcher interface {
	Text(ctx context.Context, url string) (string, error)
}

// LinkExtractor pulls candidate hrefs out of a fetched page, already
// absolutized against the page URL.
type LinkExtractor func(html, pageURL string) []string

// Queue is the FIFO of not-yet-visited pages plus the visited set. The
// traversal is strictly sequential, so no locking discipline applies.
type Queue struct {
	entries []string
	visited map[string]bool
}

// NewQueue returns an empty frontier.
func NewQueue() *Queue {
	return &Queue{visited: make(map[string]bool)}
}

// Push enqueues a URL unless it was already enqueued this traversal.
func (q *Queue) Push(u string) bool {
	if q.visited[u] {
		return false
	}
	q.visited[u] = true
	q.entries = append(q.entries, u)
	return true
}

// Pop removes and returns the oldest entry.
func (q *Queue) Pop() (string, bool) {
	if len(q.entries) == 0 {
		return "", false
	}
	u := q.entries[0]
	q.entries = q.entries[1:]
	return u, true
}

// Len returns the number of pending entries.
func (q *Queue) Len() int { return len(q.entries) }

// Seen reports whether a URL was enqueued at any point.
func (q *Queue) Seen(u string) bool { return q.visited[u] }

// Walker performs the bounded BFS over index pages and collects terminal
// work pages.
type Walker struct {
	Fetch    TextFetcher
	Rules    Rules
	Links    LinkExtractor
	MaxPages int // visit cap over index pages
}

// CollectWorkPages walks the frontier from root and returns the sorted,
// deduplicated set of reachable work pages plus the number of index pages
// visited. A fetch failure drops the entry and continues; cancellation
// stops the walk and returns what was gathered so far.
func (w *Walker) CollectWorkPages(ctx context.Context, root string) ([]string, int, error) {
	root = w.Rules.Normalize(root)

	queue := NewQueue()
	queue.Push(root)

	works := make(map[string]bool)
	visited := 0

	for visited < w.MaxPages {
		if err := ctx.Err(); err != nil {
			return sortedKeys(works), visited, err
		}

		u, ok := queue.Pop()
		if !ok {
			break
		}
		visited++

		html, err := w.Fetch.Text(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return sortedKeys(works), visited, ctx.Err()
			}
			logging.Warnf("index page fetch failed, dropping [%s]: %v", u, err)
			continue
		}

		for _, href := range w.Links(html, u) {
			link := w.Rules.Normalize(href)
			if !w.Rules.InScope(root, link) {
				continue
			}
			switch w.Rules.Classify(link) {
			case KindWork:
				works[link] = true
			case KindIndex:
				queue.Push(link)
			}
		}
	}

	return sortedKeys(works), visited, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
