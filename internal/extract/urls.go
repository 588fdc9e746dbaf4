package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NormalizeImageURL makes an image reference absolute: protocol-relative
// links get https, root-relative links resolve against the site base, and
// anything already absolute passes through.
func NormalizeImageURL(u string, base *url.URL) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	if strings.HasPrefix(u, "/") {
		return resolve(base, u)
	}
	return u
}

// AbsLink absolutizes a card link. Relative fragments (neither rooted nor
// absolute) are discarded; listing pages only carry rooted detail links.
func AbsLink(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	switch {
	case strings.HasPrefix(href, "/"):
		return resolve(base, href)
	case strings.HasPrefix(href, "http"):
		return href
	default:
		return ""
	}
}

// Links returns every anchor href on the page, absolutized against the
// page URL. Unparseable hrefs are dropped.
func Links(html, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var out []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if u := resolve(base, href); u != "" {
			out = append(out, u)
		}
	})
	return out
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}
