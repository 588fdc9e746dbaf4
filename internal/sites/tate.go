package sites

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// TateBase is the root of the script-rendered modern collection.
const TateBase = "https://www.tate.org.uk"

// TateBaseURL is the parsed site base used to absolutize relative links.
var TateBaseURL, _ = url.Parse(TateBase)

// TateCardLink anchors listing-card discovery on work detail links.
const TateCardLink = `a[href*='/art/artworks/']`

// TateReadySelectors gate the renderer: the run waits for the primary
// selector and falls back to generic card containers.
var TateReadySelectors = []string{
	TateCardLink,
	".grid-card, .collection-card, article",
}

// TateCollectionURL builds one page of the painting collection filter
// (paintings, 20th century onward, records with images).
func TateCollectionURL(page int) string {
	params := []string{
		"attributes=img",
		"classification=6",
		"era=4",
		"era=5",
		"era=6",
		"tab=collection",
		fmt.Sprintf("page=%d", page),
	}
	return fmt.Sprintf("%s/collection?%s", TateBase, strings.Join(params, "&"))
}

var tateWorkIDRe = regexp.MustCompile(`/art/artworks/([^/?#]+)`)

// TateWorkID extracts the stable work identifier from a detail URL, or ""
// when the URL does not point at a work page.
func TateWorkID(detailURL string) string {
	m := tateWorkIDRe.FindStringSubmatch(detailURL)
	if m == nil {
		return ""
	}
	return m[1]
}
