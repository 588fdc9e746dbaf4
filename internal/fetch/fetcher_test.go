package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

// testClient returns a client with politeness delays collapsed so tests
// stay fast.
func testClient(attempts int) *Client {
	opts := DefaultOptions()
	opts.Delay = 0
	opts.Attempts = attempts
	c := NewClient(opts)
	c.textPolicy.MinBackoff = time.Millisecond
	c.textPolicy.MaxBackoff = 2 * time.Millisecond
	c.bytePolicy.MinBackoff = time.Millisecond
	c.bytePolicy.MaxBackoff = 2 * time.Millisecond
	return c
}

func TestPolicyBackoff(t *testing.T) {
	p := Policy{Attempts: 5, MinBackoff: time.Second, MaxBackoff: 20 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 20 * time.Second},
		{9, 20 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := testClient(1)
	body, err := c.Text(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("Text() = %q", body)
	}
}

func TestTextRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	c := testClient(3)
	body, err := c.Text(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Text() error = %v after flaky responses", err)
	}
	if body != "finally" {
		t.Errorf("Text() = %q", body)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestTextExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(3)
	_, err := c.Text(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Text() error = nil, want failure after exhausted retries")
	}

	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if ferr.Status != http.StatusNotFound {
		t.Errorf("FetchError.Status = %d, want 404", ferr.Status)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestBytesContentType(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer srv.Close()

	c := testClient(1)
	body, contentType, err := c.Bytes(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(body, payload) {
		t.Errorf("Bytes() body = %v, want raw payload", body)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q", contentType)
	}
}

func TestFetchCancelledBeforeAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(3)
	_, err := c.Text(ctx, "http://127.0.0.1:0/unreachable")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Sleep() returned after %v, want prompt return on cancellation", elapsed)
	}
}

func TestSleepZeroDuration(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) error = %v, want nil", err)
	}
}

func TestDecompress(t *testing.T) {
	plain := []byte("the quick brown fox jumps over the lazy dog")

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(plain)
	zw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write(plain)
	bw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
		want     []byte
		wantErr  bool
	}{
		{"gzip", "gzip", gz.Bytes(), plain, false},
		{"brotli", "br", br.Bytes(), plain, false},
		{"identity", "identity", plain, plain, false},
		{"empty encoding", "", plain, plain, false},
		{"unknown passthrough", "zstd", plain, plain, false},
		{"corrupt gzip", "gzip", []byte("not gzip"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompress(tt.encoding, tt.body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decompress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !bytes.Equal(got, tt.want) {
				t.Errorf("decompress() = %q, want %q", got, tt.want)
			}
		})
	}
}
