// Package extract turns raw HTML into structured records: listing cards
// from collection pages and canonical image URLs plus metadata from work
// detail pages. Extractors return partial results on missing optional
// fields rather than failing the page.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/galleryforge/artcrawl/internal/models"
)

var (
	cardContainerRe = regexp.MustCompile(`(?i)(card|grid|item|artwork)`)
	cardTitleRe     = regexp.MustCompile(`(?i)(title|card__title|grid-card__title)`)
	cardArtistRe    = regexp.MustCompile(`(?i)(artist|creator|meta__artist|author|card__meta)`)
	cardMetaRe      = regexp.MustCompile(`(?i)meta`)
)

// ListingCards extracts one candidate per detail link on a listing page.
// linkSelector anchors the scan on "goes to a work detail" links, e.g.
// `a[href*='/art/artworks/']`. Candidates are deduplicated by detail URL.
func ListingCards(html string, base *url.URL, linkSelector string) []models.ListingCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var items []models.ListingCandidate
	seen := make(map[string]bool)

	doc.Find(linkSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		detailURL := AbsLink(href, base)
		if detailURL == "" || seen[detailURL] {
			return
		}
		seen[detailURL] = true

		card := closestCard(a)
		info := cardInfo(card, a, base)
		info.DetailURL = detailURL
		items = append(items, info)
	})

	return items
}

// closestCard ascends from the link to its card container: the nearest
// ancestor with a card-like class, else the nearest article or li, else
// the link itself.
func closestCard(a *goquery.Selection) *goquery.Selection {
	var byClass *goquery.Selection
	a.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if class, ok := p.Attr("class"); ok && cardContainerRe.MatchString(class) {
			byClass = p
			return false
		}
		return true
	})
	if byClass != nil {
		return byClass
	}

	if article := a.Closest("article"); article.Length() > 0 {
		return article
	}
	if li := a.Closest("li"); li.Length() > 0 {
		return li
	}
	return a
}

// cardInfo derives title, artist and thumbnail from one card container.
func cardInfo(card, a *goquery.Selection, base *url.URL) models.ListingCandidate {
	var info models.ListingCandidate

	// Title: explicit accessible label, then a title-like descendant,
	// then the link's visible text when non-trivial.
	if v, ok := a.Attr("aria-label"); ok && v != "" {
		info.Title = v
	} else if v, ok := a.Attr("title"); ok && v != "" {
		info.Title = v
	} else if ttl := findByClass(card, cardTitleRe); ttl != nil {
		info.Title = strings.TrimSpace(ttl.Text())
	} else if text := strings.TrimSpace(a.Text()); len(text) > 3 {
		info.Title = text
	}

	if artEl := findByClass(card, cardArtistRe); artEl != nil {
		info.Artist = squeeze(artEl.Text())
	} else if metaEl := findByClass(card.Find("p"), cardMetaRe); metaEl != nil {
		info.Artist = squeeze(metaEl.Text())
	}

	if img := card.Find("img").First(); img.Length() > 0 {
		srcset, _ := img.Attr("data-srcset")
		if srcset == "" {
			srcset, _ = img.Attr("srcset")
		}
		thumb := SrcsetMax(srcset)
		if thumb == "" {
			thumb, _ = img.Attr("data-src")
		}
		if thumb == "" {
			thumb, _ = img.Attr("src")
		}
		info.ThumbURL = NormalizeImageURL(thumb, base)
	}

	return info
}

// findByClass returns the first element in the selection tree whose class
// attribute matches the pattern, or nil.
func findByClass(scope *goquery.Selection, re *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	scope.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if class, ok := s.Attr("class"); ok && re.MatchString(class) {
			found = s
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	// The scope elements themselves may carry the class.
	scope.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if class, ok := s.Attr("class"); ok && re.MatchString(class) {
			found = s
			return false
		}
		return true
	})
	return found
}

// squeeze collapses internal whitespace runs to single spaces.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
