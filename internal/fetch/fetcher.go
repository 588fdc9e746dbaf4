// Package fetch issues rate-limited text and binary fetches with bounded
// retries and exponential backoff. Every successful call imposes a settle
// delay (base + random jitter) before returning so the aggregate request
// rate stays bounded independent of retry backoff.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/galleryforge/artcrawl/internal/logging"
)

// FetchError carries the last observed failure after all attempts of a
// fetch call were exhausted.
type FetchError struct {
	URL    string
	Status int // last HTTP status, 0 when the failure was transport-level
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	UserAgent string
	Delay     time.Duration // base settle delay applied after each success
	Attempts  int

	// Text and byte fetches carry independent timeouts tuned for HTML
	// vs. binary payload sizes.
	TextTimeout time.Duration
	ByteTimeout time.Duration
}

// DefaultOptions returns the politeness defaults used by both collection modes.
func DefaultOptions() Options {
	return Options{
		UserAgent:   "Mozilla/5.0 (dataset research)",
		Delay:       500 * time.Millisecond,
		Attempts:    3,
		TextTimeout: 20 * time.Second,
		ByteTimeout: 30 * time.Second,
	}
}

// Client is a reusable fetch context. A single Client is shared by the
// whole run; calls are sequential (one request in flight at a time).
type Client struct {
	opts       Options
	textC      *colly.Collector
	byteC      *colly.Collector
	textPolicy Policy
	bytePolicy Policy
	rng        *rand.Rand
}

// NewClient builds the shared connection context. TLS verification is
// skipped: gallery mirrors are frequently served with stale certificates.
func NewClient(opts Options) *Client {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	return &Client{
		opts:  opts,
		textC: newCollector(opts.UserAgent, opts.TextTimeout),
		byteC: newCollector(opts.UserAgent, opts.ByteTimeout),
		textPolicy: Policy{
			Attempts:   opts.Attempts,
			MinBackoff: 1 * time.Second,
			MaxBackoff: 20 * time.Second,
		},
		bytePolicy: Policy{
			Attempts:   opts.Attempts,
			MinBackoff: 1 * time.Second,
			MaxBackoff: 30 * time.Second,
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func newCollector(userAgent string, timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
		colly.IgnoreRobotsTxt(),
	)

	c.SetClient(&http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: timeout,
	})

	return c
}

// Text fetches a page and returns its body as a string.
func (f *Client) Text(ctx context.Context, url string) (string, error) {
	body, _, err := f.fetch(ctx, f.textC, f.textPolicy, url, 400*time.Millisecond)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Bytes fetches a binary payload and returns it with the declared
// content type.
func (f *Client) Bytes(ctx context.Context, url string) ([]byte, string, error) {
	return f.fetch(ctx, f.byteC, f.bytePolicy, url, 300*time.Millisecond)
}

// fetch runs the shared retry/backoff algorithm over one collector.
func (f *Client) fetch(ctx context.Context, base *colly.Collector, policy Policy, url string, jitter time.Duration) ([]byte, string, error) {
	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		body, contentType, status, err := f.once(base, url)
		if err == nil {
			// Mandatory settle delay before returning the payload.
			if serr := Sleep(ctx, f.settle(jitter)); serr != nil {
				return body, contentType, serr
			}
			return body, contentType, nil
		}

		lastErr = err
		lastStatus = status
		logging.Debugf("fetch attempt %d/%d failed [%s]: %v", attempt+1, policy.Attempts, url, err)

		if attempt < policy.Attempts-1 {
			if serr := Sleep(ctx, policy.Backoff(attempt)); serr != nil {
				return nil, "", serr
			}
		}
	}

	return nil, "", &FetchError{URL: url, Status: lastStatus, Err: lastErr}
}

// once performs a single attempt through a cloned collector so response
// callbacks never accumulate on the shared instance.
func (f *Client) once(base *colly.Collector, url string) (body []byte, contentType string, status int, err error) {
	// Clone drops callbacks, so request headers are set here per attempt.
	c := base.Clone()
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
		r.Headers.Set("Accept-Language", "en;q=0.9")
	})

	var (
		gotBody []byte
		gotType string
		gotCode int
		respErr error
	)

	c.OnResponse(func(r *colly.Response) {
		gotCode = r.StatusCode
		gotType = r.Headers.Get("Content-Type")

		decoded, derr := decompress(r.Headers.Get("Content-Encoding"), r.Body)
		if derr != nil {
			logging.Warnf("decompress failed [%s]: %v", url, derr)
			decoded = r.Body
		}
		gotBody = decoded
	})

	c.OnError(func(r *colly.Response, e error) {
		if r != nil {
			gotCode = r.StatusCode
		}
		respErr = e
	})

	if verr := c.Visit(url); verr != nil {
		if respErr == nil {
			respErr = verr
		}
	}
	c.Wait()

	if respErr != nil {
		return nil, "", gotCode, respErr
	}
	if gotCode < 200 || gotCode >= 300 {
		return nil, "", gotCode, fmt.Errorf("unexpected status %d", gotCode)
	}
	return gotBody, gotType, gotCode, nil
}

// settle returns the base delay plus random jitter up to max.
func (f *Client) settle(jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return f.opts.Delay
	}
	return f.opts.Delay + time.Duration(f.rng.Int63n(int64(jitter)))
}
