// Package render drives the headless browser: it loads a script-rendered
// page, waits for a readiness selector, triggers lazy-loaded content with
// bounded scroll rounds, and returns the final HTML.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/galleryforge/artcrawl/internal/logging"
)

// RenderError marks a page that failed to reach readiness. The partial
// HTML gathered so far is still returned alongside it.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Options configures the browser session.
type Options struct {
	Headless    bool
	UserAgent   string
	ReadyWait   time.Duration // per-selector readiness wait
	ScrollPause time.Duration // pause between scroll rounds
}

// DefaultOptions matches the tuned values for lazy-loading collection
// grids.
func DefaultOptions() Options {
	return Options{
		Headless:    true,
		ReadyWait:   15 * time.Second,
		ScrollPause: 2 * time.Second,
	}
}

// Renderer owns one browser instance for the whole run. It must be
// started once and closed on every exit path.
type Renderer struct {
	opts    Options
	browser *rod.Browser
}

// New returns an unstarted renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Start launches and connects the browser. A failure here is fatal to the
// run: without the renderer no dynamic listing page can be read.
func (r *Renderer) Start() error {
	l := launcher.New().
		Headless(r.opts.Headless).
		Set("ignore-certificate-errors").
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("window-size", "1920,1080")
	if r.opts.UserAgent != "" {
		l = l.Set("user-agent", r.opts.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	r.browser = rod.New().ControlURL(controlURL)
	if err := r.browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}

	logging.Debugf("browser started: %s", controlURL)
	return nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
	if r.browser != nil {
		r.browser.MustClose()
		r.browser = nil
		logging.Debugf("browser closed")
	}
}

// Render navigates to url, waits for the first matching ready selector
// (primary first, then fallbacks), performs scroll-to-bottom rounds until
// the document height stabilizes or maxScrollRounds is reached, and
// returns the final HTML. On a readiness timeout the partial HTML is
// returned together with a *RenderError.
func (r *Renderer) Render(ctx context.Context, url string, readySelectors []string, maxScrollRounds int) (string, error) {
	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", &RenderError{URL: url, Err: err}
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", &RenderError{URL: url, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		// Whatever rendered before the load stalled is still worth
		// extracting from.
		html, herr := page.HTML()
		if herr != nil {
			html = ""
		}
		return html, &RenderError{URL: url, Err: err}
	}

	ready := false
	for _, sel := range readySelectors {
		if _, err := page.Timeout(r.opts.ReadyWait).Element(sel); err == nil {
			ready = true
			break
		}
	}

	if !ready {
		html, herr := page.HTML()
		if herr != nil {
			html = ""
		}
		return html, &RenderError{URL: url, Err: fmt.Errorf("no ready selector matched")}
	}

	r.scrollToBottom(page, maxScrollRounds)

	html, err := page.HTML()
	if err != nil {
		return "", &RenderError{URL: url, Err: err}
	}
	return html, nil
}

// scrollToBottom runs incremental scroll cycles to trigger lazy-loaded
// content, stopping early once the document height stabilizes.
func (r *Renderer) scrollToBottom(page *rod.Page, maxRounds int) {
	lastHeight := r.docHeight(page)

	for i := 0; i < maxRounds; i++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			logging.Debugf("scroll eval failed: %v", err)
			return
		}
		time.Sleep(r.opts.ScrollPause)

		height := r.docHeight(page)
		if height == lastHeight {
			break
		}
		lastHeight = height
	}

	// Settle pass: top, then bottom again, so late observers fire.
	page.Eval(`() => window.scrollTo(0, 0)`)
	time.Sleep(time.Second)
	page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	time.Sleep(r.opts.ScrollPause)
}

func (r *Renderer) docHeight(page *rod.Page) int {
	res, err := page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return -1
	}
	return res.Value.Int()
}
