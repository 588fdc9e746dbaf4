package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/galleryforge/artcrawl/internal/config"
	"github.com/galleryforge/artcrawl/internal/render"
)

// fakeRenderer serves one canned listing page per call, optionally paired
// with an error.
type fakeRenderer struct {
	pages []string
	errs  []error
	calls int
}

func (f *fakeRenderer) Start() error { return nil }
func (f *fakeRenderer) Close()       {}

func (f *fakeRenderer) Render(_ context.Context, _ string, _ []string, _ int) (string, error) {
	i := f.calls
	f.calls++
	var html string
	var err error
	if i < len(f.pages) {
		html = f.pages[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return html, err
}

func collectConfig() config.CrawlConfig {
	return config.CrawlConfig{
		Delay:     0,
		Retries:   1,
		StartPage: 1,
		EndPage:   1,
	}
}

// collectSite serves a work detail page plus its image over httptest.
func collectSite(t *testing.T) (*httptest.Server, func() string) {
	t.Helper()

	var baseURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/art/artworks/tester-study-x1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head>
			<meta property="og:image" content="%s/img/study.jpg">
			</head><body><h1>Study</h1></body></html>`, baseURL)
	})
	mux.HandleFunc("/img/study.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	})

	srv := httptest.NewServer(mux)
	baseURL = srv.URL
	return srv, func() string { return baseURL }
}

func listingFor(base string) string {
	return fmt.Sprintf(`<html><body><ul>
		<li class="grid-card">
			<a href="%s/art/artworks/tester-study-x1" aria-label="Study in Grey"></a>
		</li>
	</ul></body></html>`, base)
}

func manifestRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestCollectorRun(t *testing.T) {
	srv, base := collectSite(t)
	defer srv.Close()

	outDir := t.TempDir()
	c, err := NewCollector(collectConfig(), outDir)
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	c.renderer = &fakeRenderer{pages: []string{listingFor(base())}}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rows := manifestRows(t, filepath.Join(outDir, "manifest.csv"))
	if len(rows) != 2 {
		t.Fatalf("manifest rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "tester-study-x1" {
		t.Errorf("row id = %q, want work identifier", rows[1][0])
	}
	if rows[1][10] != "Study in Grey" {
		t.Errorf("row title = %q", rows[1][10])
	}

	localPath := rows[1][12]
	if localPath == "" {
		t.Fatal("local_path empty, want stored image")
	}
	data, err := os.ReadFile(localPath)
	if err != nil || len(data) == 0 {
		t.Errorf("stored image unreadable: %v", err)
	}
	if c.stats.Accepted != 1 {
		t.Errorf("stats.Accepted = %d, want 1", c.stats.Accepted)
	}

	if _, err := os.Stat(filepath.Join(outDir, "run_report.json")); err != nil {
		t.Errorf("run report missing: %v", err)
	}
}

func TestCollectorUsesPartialHTML(t *testing.T) {
	// A page that never reached readiness still carries cards; the run
	// must extract from the partial HTML instead of dropping the page.
	srv, base := collectSite(t)
	defer srv.Close()

	outDir := t.TempDir()
	c, err := NewCollector(collectConfig(), outDir)
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	c.renderer = &fakeRenderer{
		pages: []string{listingFor(base())},
		errs:  []error{&render.RenderError{URL: "page-1", Err: errors.New("no ready selector matched")}},
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rows := manifestRows(t, filepath.Join(outDir, "manifest.csv"))
	if len(rows) != 2 {
		t.Fatalf("manifest rows = %d, want header + 1 from partial HTML", len(rows))
	}
	if c.stats.Accepted != 1 {
		t.Errorf("stats.Accepted = %d, want 1", c.stats.Accepted)
	}
}

func TestCollectorHardRenderFailure(t *testing.T) {
	outDir := t.TempDir()
	c, err := NewCollector(collectConfig(), outDir)
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	c.renderer = &fakeRenderer{
		pages: []string{""},
		errs:  []error{errors.New("browser crashed")},
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil (page skip, not fatal)", err)
	}

	rows := manifestRows(t, filepath.Join(outDir, "manifest.csv"))
	if len(rows) != 1 {
		t.Errorf("manifest rows = %d, want header only", len(rows))
	}
	if c.stats.Errors != 1 {
		t.Errorf("stats.Errors = %d, want 1", c.stats.Errors)
	}
}
