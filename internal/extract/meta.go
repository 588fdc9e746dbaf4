package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TableMeta collects key/value pairs from two-column table rows. The key
// cell's text, trimmed of a trailing colon, becomes the lookup key. Keys
// longer than 60 characters are layout noise and skipped.
func TableMeta(html string) map[string]string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	meta := make(map[string]string)
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		k := strings.TrimSuffix(squeeze(cells.Eq(0).Text()), ":")
		v := squeeze(cells.Eq(1).Text())
		if k != "" && v != "" && len(k) <= 60 {
			meta[k] = v
		}
	})
	return meta
}

// MetaValue looks a key up case-sensitively, then in upper case. Source
// sites are inconsistent about key casing (Title vs TITLE).
func MetaValue(meta map[string]string, key string) string {
	if v, ok := meta[key]; ok {
		return v
	}
	return meta[strings.ToUpper(key)]
}
