// Package core wires the crawl stages into the two collection runs: the
// quota-bounded dataset builder and the simple paginated collector.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/galleryforge/artcrawl/internal/assemble"
	"github.com/galleryforge/artcrawl/internal/config"
	"github.com/galleryforge/artcrawl/internal/extract"
	"github.com/galleryforge/artcrawl/internal/fetch"
	"github.com/galleryforge/artcrawl/internal/frontier"
	"github.com/galleryforge/artcrawl/internal/logging"
	"github.com/galleryforge/artcrawl/internal/models"
	"github.com/galleryforge/artcrawl/internal/report"
	"github.com/galleryforge/artcrawl/internal/resolve"
	"github.com/galleryforge/artcrawl/internal/sites"
	"github.com/galleryforge/artcrawl/internal/store"
)

// artistListStep is the page size of the paginated artist list query.
const artistListStep = 50

// Builder runs the dataset-builder mode: artist discovery, per-artist
// folder traversal, quota-bounded assembly and per-class image layout.
// A local image copy is mandatory in this mode.
type Builder struct {
	cfg    config.CrawlConfig
	outDir string

	fetcher   *fetch.Client
	walker    *frontier.Walker
	resolver  *resolve.Resolver
	assembler *assemble.Assembler
	images    store.Images
	manifest  *store.Manifest

	stats    models.RunStats
	sampleID int
}

// NewBuilder prepares the output layout and the crawl stages.
func NewBuilder(cfg config.CrawlConfig, outDir string) (*Builder, error) {
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
	fetcher := fetch.NewClient(opts)

	return &Builder{
		cfg:     cfg,
		outDir:  outDir,
		fetcher: fetcher,
		walker: &frontier.Walker{
			Fetch:    fetcher,
			Rules:    sites.ArtistFolderRules{},
			Links:    extract.Links,
			MaxPages: cfg.IndexPagesPerArtist,
		},
		resolver: &resolve.Resolver{
			Fetch:     fetcher,
			Normalize: sites.UnwrapFrames,
		},
		assembler: assemble.New(cfg.MinPerClass, cfg.MaxPerClass),
		images:    store.Images{Root: imagesRoot},
		manifest:  manifest,
	}, nil
}

// Run executes the full dataset build. The manifest and run report are
// flushed on every exit path, including interrupt.
func (b *Builder) Run(ctx context.Context) error {
	rep := report.NewRunReport("dataset", sites.WGABase, b.outDir)
	rep.ManifestPath = b.manifest.Path()

	defer func() {
		rep.Stats = b.stats
		rep.ClassCounts = b.assembler.Counts()
		if err := rep.Write(); err != nil {
			logging.Warnf("write run report: %v", err)
		}
		if err := b.manifest.Close(); err != nil {
			logging.Warnf("close manifest: %v", err)
		}
	}()

	logging.Info("collecting artists")
	artists, err := b.collectArtists(ctx)
	if err != nil {
		rep.Interrupted = errors.Is(err, context.Canceled)
		return err
	}
	logging.Infof("collected %d artists", len(artists))

	bar := report.NewProgressBar(len(artists), "artists")
	interrupted := false

	for ai, artist := range artists {
		bar.Add(1)

		if ctx.Err() != nil {
			interrupted = true
			break
		}

		if b.crawlArtist(ctx, ai+1, len(artists), artist) {
			interrupted = true
			break
		}
	}

	rep.Interrupted = interrupted
	if interrupted {
		logging.Warnf("interrupted: %d records flushed so far", b.manifest.Len())
		return nil
	}

	b.purgeUnderFloor()

	if b.manifest.Len() == 0 {
		logging.Warn("run produced zero records")
		return nil
	}
	logging.Infof("dataset complete: %d records, output: %s", b.manifest.Len(), b.outDir)
	return nil
}

// collectArtists walks the paginated artist list until an empty page, the
// page cap, or cancellation. The profession allow-list filter applies per
// page; duplicate artist URLs keep the last occurrence.
func (b *Builder) collectArtists(ctx context.Context) ([]sites.Artist, error) {
	allow := b.cfg.ProfessionSet()

	var out []sites.Artist
	index := make(map[string]int)

	offset := 0
	for page := 0; b.cfg.ArtistListPages <= 0 || page < b.cfg.ArtistListPages; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		html, err := b.fetcher.Text(ctx, sites.ArtistListURL(offset, artistListStep))
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logging.Warnf("artist list page failed, stopping discovery: %v", err)
			break
		}

		rows := sites.ParseArtistList(html)
		if len(rows) == 0 {
			break
		}

		for _, r := range rows {
			if len(allow) > 0 && !allow[r.Profession] {
				continue
			}
			if i, ok := index[r.URL]; ok {
				out[i] = r
				continue
			}
			index[r.URL] = len(out)
			out = append(out, r)
		}

		offset += artistListStep
	}

	return out, nil
}

// crawlArtist traverses one artist folder and feeds its work pages
// through the pipeline. Returns true when the run was cancelled.
func (b *Builder) crawlArtist(ctx context.Context, ai, total int, artist sites.Artist) bool {
	movement := strings.TrimSpace(artist.Movement)
	classID := sites.ToIdentifier(movement)

	if classID == "unknown" {
		logging.Debugf("[%d/%d] skip: %s (unknown movement)", ai, total, artist.Name)
		return false
	}
	if b.assembler.Full(classID) {
		logging.Infof("[%d/%d] skip: %s (class %q is full: %d/%d)",
			ai, total, artist.Name, classID, b.assembler.Count(classID), b.cfg.MaxPerClass)
		return false
	}

	indexURL := sites.NormalizeArtistIndexURL(artist.URL)
	logging.Infof("[%d/%d] artist: %s | prof=%s | movement=%q | class_count=%d/%d",
		ai, total, artist.Name, artist.Profession, movement,
		b.assembler.Count(classID), b.cfg.MaxPerClass)

	workPages, indexSeen, err := b.walker.CollectWorkPages(ctx, indexURL)
	b.stats.PagesVisited += indexSeen
	b.stats.WorksFound += len(workPages)
	if err != nil {
		return true // cancelled; partial work pages are not pursued
	}
	logging.Infof("[%d/%d] pages: index_seen=%d | works_found=%d", ai, total, indexSeen, len(workPages))

	var downloaded, noImage, dup, errCount int

	for wi, wp := range workPages {
		if ctx.Err() != nil {
			return true
		}
		if b.assembler.Full(classID) {
			logging.Infof("[%d/%d] stop: class %q reached max %d", ai, total, classID, b.cfg.MaxPerClass)
			break
		}

		if wi == 0 || (wi+1)%20 == 0 {
			logging.Debugf("[%d/%d] scanning works: %d/%d (downloaded=%d, class=%d/%d)",
				ai, total, wi+1, len(workPages), downloaded, b.assembler.Count(classID), b.cfg.MaxPerClass)
		}

		rec, err := b.parseWork(ctx, wp)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			errCount++
			b.stats.Errors++
			if errCount <= 5 {
				logging.Warnf("[%d/%d] error at page: %s | %v", ai, total, wp, err)
			} else if errCount%50 == 0 {
				logging.Warnf("[%d/%d] errors so far: %d", ai, total, errCount)
			}
			continue
		}
		if rec == nil {
			noImage++
			b.stats.MissingImage++
			if noImage <= 3 {
				logging.Debugf("[%d/%d] no image on: %s", ai, total, wp)
			} else if noImage%25 == 0 {
				logging.Debugf("[%d/%d] no-image pages so far: %d", ai, total, noImage)
			}
			continue
		}

		switch b.assembler.Accept(rec.ImageURL, classID) {
		case assemble.DuplicateRejected:
			dup++
			b.stats.Duplicates++
			if dup <= 3 {
				logging.Debugf("[%d/%d] duplicate image: %s", ai, total, rec.ImageURL)
			} else if dup%25 == 0 {
				logging.Debugf("[%d/%d] duplicates so far: %d", ai, total, dup)
			}
			continue
		case assemble.QuotaRejected:
			b.stats.QuotaRejected++
			continue
		}

		rec.ID = fmt.Sprintf("wga_%09d", b.sampleID)
		rec.Class = movement
		rec.ClassID = classID
		rec.Profession = artist.Profession
		rec.School = artist.School
		rec.Artist = artist.Name
		rec.ArtistURL = indexURL

		if !b.persistWork(ctx, rec, classID) {
			errCount++
			continue
		}

		if err := b.manifest.Append(*rec); err != nil {
			logging.Warnf("manifest append failed: %v", err)
			b.stats.Errors++
			continue
		}

		downloaded++
		b.sampleID++
		b.stats.Accepted++
		logging.Infof("[%d/%d] downloaded %d | class=%d/%d | title=%q | file=%s",
			ai, total, downloaded, b.assembler.Count(classID), b.cfg.MaxPerClass,
			truncate(rec.Title, 80), filepath.Base(rec.LocalPath))
	}

	logging.Infof("[%d/%d] done: %s | downloaded=%d | noimg=%d | dup=%d | errors=%d",
		ai, total, artist.Name, downloaded, noImage, dup, errCount)
	return false
}

// parseWork resolves a work page through frame/refresh indirection and
// extracts the image URL plus table metadata. A page without an image
// yields (nil, nil): dropped, not retried.
func (b *Builder) parseWork(ctx context.Context, workURL string) (*models.Artwork, error) {
	finalURL, html, err := b.resolver.Resolve(ctx, workURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(finalURL)
	if err != nil {
		base = nil
	}

	imageURL := extract.FirstImage(html, base, extract.LegacyStrategies...)
	if imageURL == "" {
		return nil, nil
	}

	meta := extract.TableMeta(html)
	return &models.Artwork{
		WorkURL:  finalURL,
		ImageURL: imageURL,
		Title:    extract.MetaValue(meta, "Title"),
		Date:     extract.MetaValue(meta, "Date"),
	}, nil
}

// persistWork downloads the image unless an earlier run already stored it
// (non-empty file: zero network bytes on re-runs). A local copy is
// mandatory in dataset mode, so persistence failure drops the record.
func (b *Builder) persistWork(ctx context.Context, rec *models.Artwork, classID string) bool {
	ext := store.Ext(rec.ImageURL, "")
	path := b.images.PathFor(classID, rec.ID, ext)

	if store.Exists(path) {
		rec.LocalPath = path
		return true
	}

	data, contentType, err := b.fetcher.Bytes(ctx, rec.ImageURL)
	if err != nil {
		b.stats.Errors++
		logging.Warnf("image download failed [%s]: %v", rec.ImageURL, err)
		return false
	}
	_ = contentType // extension already fixed by the URL-derived file name

	written, err := b.images.Write(path, data)
	if err != nil {
		b.stats.Errors++
		logging.Warnf("image write failed [%s]: %v", path, err)
		return false
	}

	rec.LocalPath = written
	return true
}

// purgeUnderFloor removes classes that missed the quota floor: their
// manifest rows and image files both. The floor is checked against the
// rows that actually reached the manifest, so download failures after
// acceptance cannot let a short class slip through.
func (b *Builder) purgeUnderFloor() {
	under := b.assembler.UnderFloor(b.manifest.ClassCounts())
	if len(under) == 0 {
		return
	}

	removed, err := store.PurgeClasses(b.manifest, b.images, under)
	if err != nil {
		logging.Warnf("purge failed: %v", err)
	}
	b.stats.PurgedClasses = len(under)
	b.stats.PurgedRows = removed
	logging.Infof("purged %d under-quota classes (%d rows)", len(under), removed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
