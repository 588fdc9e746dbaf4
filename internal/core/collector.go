package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/galleryforge/artcrawl/internal/assemble"
	"github.com/galleryforge/artcrawl/internal/config"
	"github.com/galleryforge/artcrawl/internal/extract"
	"github.com/galleryforge/artcrawl/internal/fetch"
	"github.com/galleryforge/artcrawl/internal/logging"
	"github.com/galleryforge/artcrawl/internal/models"
	"github.com/galleryforge/artcrawl/internal/render"
	"github.com/galleryforge/artcrawl/internal/report"
	"github.com/galleryforge/artcrawl/internal/sites"
	"github.com/galleryforge/artcrawl/internal/store"
)

// listingRenderer is the browser capability the collector needs.
type listingRenderer interface {
	Start() error
	Close()
	Render(ctx context.Context, url string, readySelectors []string, maxScrollRounds int) (string, error)
}

// Collector runs the simple collector mode: dynamic listing pages through
// the headless renderer, one flat image directory, no class quotas. A
// local image copy is optional here; a failed download leaves the path
// empty.
type Collector struct {
	cfg    config.CrawlConfig
	outDir string

	fetcher   *fetch.Client
	renderer  listingRenderer
	assembler *assemble.Assembler
	images    store.Images
	manifest  *store.Manifest

	stats models.RunStats
}

// NewCollector prepares the output layout and the crawl stages.
func NewCollector(cfg config.CrawlConfig, outDir string) (*Collector, error) {
	imagesRoot := filepath.Join(outDir, "images")
	if err := os.MkdirAll(imagesRoot, 0755); err != nil {
		return nil, fmt.Errorf("create output dirs: %w", err)
	}

	manifest, err := store.OpenManifest(filepath.Join(outDir, "manifest.csv"))
	if err != nil {
		return nil, err
	}

	opts := fetch.DefaultOptions()
	opts.Delay = cfg.DelayDuration()
	opts.Attempts = cfg.Retries
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}

	renderOpts := render.DefaultOptions()
	renderOpts.Headless = cfg.Headless
	renderOpts.UserAgent = opts.UserAgent

	return &Collector{
		cfg:       cfg,
		outDir:    outDir,
		fetcher:   fetch.NewClient(opts),
		renderer:  render.New(renderOpts),
		assembler: assemble.New(0, 0), // dedup only, no quotas
		images:    store.Images{Root: imagesRoot},
		manifest:  manifest,
	}, nil
}

// Run executes the collection. Renderer startup failure is the only fatal
// error; everything else is a per-page or per-record skip.
func (c *Collector) Run(ctx context.Context) error {
	rep := report.NewRunReport("collect", sites.TateBase, c.outDir)
	rep.ManifestPath = c.manifest.Path()

	defer func() {
		rep.Stats = c.stats
		if err := rep.Write(); err != nil {
			logging.Warnf("write run report: %v", err)
		}
		if err := c.manifest.Close(); err != nil {
			logging.Warnf("close manifest: %v", err)
		}
	}()

	if err := c.renderer.Start(); err != nil {
		return fmt.Errorf("renderer unavailable: %w", err)
	}
	defer c.renderer.Close()

	candidates, interrupted := c.collectCandidates(ctx)
	logging.Infof("total unique works collected: %d", len(candidates))

	if len(candidates) == 0 && !interrupted {
		rep.Interrupted = false
		logging.Warn("run produced zero records: no works found on any listing page")
		return nil
	}

	if !interrupted {
		interrupted = c.downloadCandidates(ctx, candidates)
	}

	rep.Interrupted = interrupted
	switch {
	case interrupted:
		logging.Warnf("interrupted: %d records flushed so far", c.manifest.Len())
	case c.manifest.Len() == 0:
		logging.Warn("run produced zero records")
	default:
		logging.Infof("collection complete: %d records, output: %s", c.manifest.Len(), c.outDir)
	}
	return nil
}

// collectCandidates renders each listing page and merges its cards into
// the global candidate set, deduplicated by detail URL. A page with zero
// new cards ends the pagination early.
func (c *Collector) collectCandidates(ctx context.Context) ([]models.ListingCandidate, bool) {
	var all []models.ListingCandidate
	seenDetail := make(map[string]bool)

	for page := c.cfg.StartPage; page <= c.cfg.EndPage; page++ {
		if ctx.Err() != nil {
			return all, true
		}

		pageURL := sites.TateCollectionURL(page)
		logging.Infof("processing page %d: %s", page, pageURL)

		html, err := c.renderer.Render(ctx, pageURL, sites.TateReadySelectors, c.cfg.ScrollRounds)
		if err != nil {
			if ctx.Err() != nil {
				return all, true
			}
			var rerr *render.RenderError
			if errors.As(err, &rerr) && html != "" {
				logging.Warnf("page %d not ready, extracting from partial HTML: %v", page, err)
			} else {
				logging.Warnf("failed to load page %d: %v", page, err)
				c.stats.Errors++
				continue
			}
		}
		c.stats.PagesVisited++

		items := extract.ListingCards(html, sites.TateBaseURL, sites.TateCardLink)
		if len(items) == 0 {
			logging.Infof("no works at page %d, stopping pagination", page)
			break
		}

		newItems := 0
		for _, it := range items {
			if seenDetail[it.DetailURL] {
				continue
			}
			seenDetail[it.DetailURL] = true
			all = append(all, it)
			newItems++
		}
		c.stats.WorksFound += newItems
		logging.Infof("found %d works at page %d (%d new, %d total)", len(items), page, newItems, len(all))

		if page < c.cfg.EndPage {
			pause := c.cfg.DelayDuration() + time.Duration(500+rand.Intn(1000))*time.Millisecond
			if fetch.Sleep(ctx, pause) != nil {
				return all, true
			}
		}
	}

	return all, false
}

// downloadCandidates resolves each candidate's detail page to a canonical
// image and persists it. Returns true when cancelled mid-loop.
func (c *Collector) downloadCandidates(ctx context.Context, candidates []models.ListingCandidate) bool {
	bar := report.NewProgressBar(len(candidates), "works")

	for idx, it := range candidates {
		bar.Add(1)

		if ctx.Err() != nil {
			return true
		}

		detailHTML, err := c.fetcher.Text(ctx, it.DetailURL)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			c.stats.Errors++
			logging.Warnf("[%d/%d] failed to load work page %s: %v", idx+1, len(candidates), it.DetailURL, err)
			continue
		}

		// Canonical image, with the listing thumbnail as last resort.
		imageURL := extract.FirstImage(detailHTML, sites.TateBaseURL, extract.ModernStrategies...)
		if imageURL == "" {
			imageURL = it.ThumbURL
		}
		if imageURL == "" {
			c.stats.MissingImage++
			logging.Debugf("[%d/%d] no image for %s", idx+1, len(candidates), it.DetailURL)
			continue
		}

		if c.assembler.Accept(imageURL, "") == assemble.DuplicateRejected {
			c.stats.Duplicates++
			logging.Debugf("[%d/%d] duplicate image: %s", idx+1, len(candidates), imageURL)
			continue
		}

		rec := models.Artwork{
			ID:       sites.TateWorkID(it.DetailURL),
			Title:    strings.TrimSpace(it.Title),
			Artist:   strings.TrimSpace(it.Artist),
			WorkURL:  it.DetailURL,
			ImageURL: imageURL,
			ThumbURL: it.ThumbURL,
		}
		rec.LocalPath = c.downloadImage(ctx, rec)

		if err := c.manifest.Append(rec); err != nil {
			logging.Warnf("manifest append failed: %v", err)
			c.stats.Errors++
			continue
		}
		c.stats.Accepted++
	}

	return false
}

// downloadImage fetches and stores the image. Persistence is optional in
// collector mode: any failure logs and returns an empty path.
func (c *Collector) downloadImage(ctx context.Context, rec models.Artwork) string {
	data, contentType, err := c.fetcher.Bytes(ctx, rec.ImageURL)
	if err != nil {
		c.stats.Errors++
		logging.Warnf("image download failed [%s]: %v", rec.ImageURL, err)
		return ""
	}

	ext := store.Ext(rec.ImageURL, contentType)
	path := c.images.PathFor("", c.baseName(rec), ext)

	written, err := c.images.Write(path, data)
	if err != nil {
		c.stats.Errors++
		logging.Warnf("image write failed [%s]: %v", path, err)
		return ""
	}
	return written
}

// baseName builds the file stem: work id, then a slug of the title or the
// artist, then a generic fallback.
func (c *Collector) baseName(rec models.Artwork) string {
	var parts []string
	if rec.ID != "" {
		parts = append(parts, rec.ID)
	}
	switch {
	case rec.Title != "":
		parts = append(parts, store.Slugify(rec.Title, 40))
	case rec.Artist != "":
		parts = append(parts, store.Slugify(rec.Artist, 40))
	default:
		parts = append(parts, "artwork")
	}
	return strings.Join(parts, "-")
}
