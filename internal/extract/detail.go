package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageStrategy tries one way of locating the canonical image on a detail
// page. It returns "" when its heuristic finds nothing; the pipeline takes
// the first non-empty result.
type ImageStrategy func(doc *goquery.Document, raw string, base *url.URL) string

// FirstImage runs strategies in order and returns the first hit.
func FirstImage(html string, base *url.URL, strategies ...ImageStrategy) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, s := range strategies {
		if u := s(doc, html, base); u != "" {
			return u
		}
	}
	return ""
}

// ModernStrategies resolve images on script-rendered collection sites.
var ModernStrategies = []ImageStrategy{OpenGraphImage, FigureImage}

// LegacyStrategies resolve images on table-layout sites that reference a
// shared "/art/" asset tree.
var LegacyStrategies = []ImageStrategy{AssetImageTag, AssetAnchor, AssetPattern}

var (
	imageExtRe     = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp)(\?|$)`)
	assetPatternRe = regexp.MustCompile(`(?i)(/art/[^"']+\.(?:jpe?g|png|gif|webp))`)
)

// OpenGraphImage reads the og:image meta tag.
func OpenGraphImage(doc *goquery.Document, _ string, base *url.URL) string {
	meta := doc.Find(`meta[property="og:image"]`).First()
	if meta.Length() == 0 {
		return ""
	}
	content, _ := meta.Attr("content")
	return NormalizeImageURL(content, base)
}

// FigureImage reads the first image inside a content/figure selector,
// preferring the widest source-set entry.
func FigureImage(doc *goquery.Document, _ string, base *url.URL) string {
	img := doc.Find(`figure img, .artwork__image img, .image img, [data-role="artwork-image"] img`).First()
	if img.Length() == 0 {
		return ""
	}

	srcset, _ := img.Attr("srcset")
	u := SrcsetMax(srcset)
	if u == "" {
		u, _ = img.Attr("src")
	}
	if u == "" {
		u, _ = img.Attr("data-src")
	}
	return NormalizeImageURL(u, base)
}

// AssetImageTag scans inline img tags whose source lives under the art
// asset tree.
func AssetImageTag(doc *goquery.Document, _ string, base *url.URL) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return true
		}
		if strings.Contains(src, "/art/") || strings.HasPrefix(src, "art/") ||
			strings.HasPrefix(src, "../art/") || strings.HasPrefix(src, "../../art/") {
			found = resolve(base, src)
			return false
		}
		return true
	})
	return found
}

// AssetAnchor scans anchors pointing at an art asset with a known image
// extension.
func AssetAnchor(doc *goquery.Document, _ string, base *url.URL) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, "/art/") && imageExtRe.MatchString(href) {
			found = resolve(base, href)
			return false
		}
		return true
	})
	return found
}

// AssetPattern is the last resort: a raw pattern search over the page text
// for an asset path with an image extension.
func AssetPattern(_ *goquery.Document, raw string, base *url.URL) string {
	m := assetPatternRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return resolve(base, m[1])
}
