// Package resolve follows client-side indirection (meta-refresh
// directives and framesets pointing at a named main frame) until a
// terminal content page is reached, bounded by a hop limit.
package resolve

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/galleryforge/artcrawl/internal/logging"
)

// State names the resolver's position in its fetch/redirect loop.
type State int

const (
	// StateFetched means a page was fetched and not yet examined.
	StateFetched State = iota
	// StateRedirectFound means the page declared a further indirection.
	StateRedirectFound
	// StateTerminal means the last fetched HTML is the content page.
	StateTerminal
)

// TextFetcher is the fetch capability the resolver needs.
type TextFetcher interface {
	Text(ctx context.Context, url string) (string, error)
}

// Resolver rewrites a working URL through indirection hops. Normalize is
// applied to every rewritten target (frame unwrapping on legacy sites);
// nil means identity.
type Resolver struct {
	Fetch     TextFetcher
	Normalize func(string) string
	MaxHops   int
}

const defaultMaxHops = 3

var (
	refreshEquivRe  = regexp.MustCompile(`(?i)refresh`)
	refreshURLRe    = regexp.MustCompile(`(?i)url\s*=\s*(.+)$`)
	mainFrameNameRe = regexp.MustCompile(`(?i)main`)
	mainFrameRawRe  = regexp.MustCompile(`(?i)<frame[^>]+name\s*=\s*["']?MAIN["']?[^>]*src\s*=\s*["']([^"']+)["']`)
)

// Resolve fetches workURL and follows indirection until terminal or until
// the hop bound, whichever first. It returns the terminal URL and the last
// fetched HTML; resolving an already-terminal URL performs exactly one
// fetch. A further redirect present at the bound is ignored, which caps
// self-redirects and two-page cycles.
func (r *Resolver) Resolve(ctx context.Context, workURL string) (string, string, error) {
	maxHops := r.MaxHops
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}

	u := r.normalize(workURL)
	html, err := r.Fetch.Text(ctx, u)
	if err != nil {
		return u, "", err
	}

	state := StateFetched
	for hop := 0; hop < maxHops; hop++ {
		target := redirectTarget(u, html)
		if target == "" {
			state = StateTerminal
			break
		}
		target = r.normalize(target)
		if target == u {
			state = StateTerminal
			break
		}

		state = StateRedirectFound
		logging.Debugf("indirection hop %d: %s -> %s", hop+1, u, target)

		u = target
		html, err = r.Fetch.Text(ctx, u)
		if err != nil {
			return u, "", err
		}
		state = StateFetched
	}

	if state != StateTerminal {
		logging.Debugf("hop bound reached, using last fetched page: %s", u)
	}
	return u, html, nil
}

func (r *Resolver) normalize(u string) string {
	if r.Normalize == nil {
		return u
	}
	return r.Normalize(u)
}

// redirectTarget returns the page's declared indirection target, or ""
// when the page is terminal.
func redirectTarget(pageURL, html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	if u := metaRefreshURL(doc, base); u != "" {
		return u
	}
	return mainFrameURL(doc, base, html)
}

// metaRefreshURL reads a client-side refresh directive.
func metaRefreshURL(doc *goquery.Document, base *url.URL) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, m *goquery.Selection) bool {
		equiv, ok := m.Attr("http-equiv")
		if !ok || !refreshEquivRe.MatchString(equiv) {
			return true
		}
		content, _ = m.Attr("content")
		return false
	})
	if content == "" {
		return ""
	}

	m := refreshURLRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	target := strings.Trim(strings.TrimSpace(m[1]), `'"`)
	return join(base, target)
}

// mainFrameURL reads a frameset's named main content frame, with a raw
// pattern fallback for malformed frameset markup goquery cannot see.
func mainFrameURL(doc *goquery.Document, base *url.URL, html string) string {
	var src string
	doc.Find("frame").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		name, ok := f.Attr("name")
		if !ok || !mainFrameNameRe.MatchString(name) {
			return true
		}
		if s, ok := f.Attr("src"); ok && s != "" {
			src = s
			return false
		}
		return true
	})
	if src != "" {
		return join(base, src)
	}

	if m := mainFrameRawRe.FindStringSubmatch(html); m != nil {
		return join(base, m[1])
	}
	return ""
}

func join(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}
