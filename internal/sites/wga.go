// Package sites carries the per-site knowledge: URL shapes, scope rules,
// listing selectors and class-label derivation for the supported galleries.
package sites

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/galleryforge/artcrawl/internal/frontier"
)

// WGABase is the root of the legacy frame-based gallery.
const WGABase = "https://www.wga.hu/"

var wgaBaseURL, _ = url.Parse(WGABase)

// ProfessionKeywords are the recognized profession identifiers scanned out
// of the school column of the artist list.
var ProfessionKeywords = []string{
	"painter", "sculptor", "architect", "engraver", "printmaker",
	"draughtsman", "illuminator", "miniaturist", "potter", "goldsmith",
}

// Artist is one row of the paginated artist list.
type Artist struct {
	Name       string
	URL        string
	BornDied   string
	Movement   string // stylistic movement, the class label
	School     string // e.g. "German painter"
	Profession string
}

// UnwrapFrames rewrites frameset wrapper URLs ("/frames-e.html?//html/...")
// to the inner content URL, and absolutizes everything else against the
// site base.
func UnwrapFrames(u string) string {
	u = strings.TrimSpace(u)
	if strings.Contains(u, "/frames") && strings.Contains(u, "?") {
		inner := u[strings.Index(u, "?")+1:]
		if strings.HasPrefix(inner, "//") {
			inner = inner[1:] // "//html/.." -> "/html/.."
		}
		if !strings.HasPrefix(inner, "/") {
			inner = "/" + inner
		}
		return wgaResolve(inner)
	}
	return wgaResolve(u)
}

func wgaResolve(ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return wgaBaseURL.ResolveReference(r).String()
}

// IsWorkPage reports whether the URL is a terminal work page: an .html page
// under /html/ that is not an index and not a frameset wrapper.
func IsWorkPage(u string) bool {
	u = strings.ToLower(u)
	return strings.Contains(u, "/html/") &&
		strings.HasSuffix(u, ".html") &&
		!strings.HasSuffix(u, "/index.html") &&
		!strings.Contains(u, "frames")
}

// IsIndexPage reports whether the URL is a listing index inside an artist
// folder.
func IsIndexPage(u string) bool {
	u = strings.ToLower(u)
	return strings.Contains(u, "/html/") &&
		strings.HasSuffix(u, "/index.html") &&
		!strings.Contains(u, "frames")
}

// SameArtistFolder reports whether candidate lives under the artist index
// URL's directory (directory-prefix containment).
func SameArtistFolder(artistIndexURL, candidate string) bool {
	a, err := url.Parse(artistIndexURL)
	if err != nil {
		return false
	}
	c, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	// /html/a/aagaard/index.html -> /html/a/aagaard/
	dir := a.Path
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i+1]
	}
	return strings.HasPrefix(c.Path, dir)
}

// NormalizeArtistIndexURL forces an artist URL onto its folder index page.
func NormalizeArtistIndexURL(u string) string {
	u = UnwrapFrames(u)
	if strings.HasSuffix(strings.ToLower(u), "/index.html") {
		return u
	}
	if strings.HasSuffix(u, "/") {
		return u + "index.html"
	}
	return strings.TrimRight(u, "/") + "/index.html"
}

// ArtistListURL builds one page of the paginated artist list query.
func ArtistListURL(offset, step int) string {
	return fmt.Sprintf("%scgi-bin/artist.cgi?"+
		"Profession=any&School=any&Period=any&Time-line=any&"+
		"from=%d&max=%d&Sort=Name&letter=-&width=700&targetleft=0",
		WGABase, offset, step)
}

// ParseArtistList extracts artist rows from one artist.cgi page. Rows with
// an empty movement are skipped; duplicates by artist URL keep the last
// occurrence at the first position.
func ParseArtistList(html string) []Artist {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []Artist
	index := make(map[string]int)

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td.ARTISTLIST")
		if tds.Length() != 4 {
			return
		}

		a := tds.Eq(0).Find("a[href]").First()
		if a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")

		movement := cellText(tds.Eq(2))
		if movement == "" {
			return
		}
		school := cellText(tds.Eq(3))

		artist := Artist{
			Name:       cellText(tds.Eq(0)),
			URL:        UnwrapFrames(href),
			BornDied:   cellText(tds.Eq(1)),
			Movement:   movement,
			School:     school,
			Profession: ExtractProfession(school),
		}

		if i, ok := index[artist.URL]; ok {
			out[i] = artist
			return
		}
		index[artist.URL] = len(out)
		out = append(out, artist)
	})

	return out
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// ExtractProfession scans the school text for a known profession keyword.
func ExtractProfession(school string) string {
	t := strings.ToLower(school)
	for _, p := range ProfessionKeywords {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
		if re.MatchString(t) {
			return p
		}
	}
	return "unknown"
}

// ArtistFolderRules is the traversal ruleset for one artist folder: frame
// unwrapping, folder containment, and the work/index page split.
type ArtistFolderRules struct{}

// Normalize unwraps frameset indirection before dedup.
func (ArtistFolderRules) Normalize(u string) string { return UnwrapFrames(u) }

// InScope keeps candidates inside the artist's directory.
func (ArtistFolderRules) InScope(root, candidate string) bool {
	return SameArtistFolder(root, candidate)
}

// Classify tags work pages for collection and index pages for re-enqueue.
func (ArtistFolderRules) Classify(u string) frontier.PageKind {
	switch {
	case IsWorkPage(u):
		return frontier.KindWork
	case IsIndexPage(u):
		return frontier.KindIndex
	default:
		return frontier.KindIgnore
	}
}

var (
	identSpaceRe = regexp.MustCompile(`\s+`)
	identDropRe  = regexp.MustCompile(`[^a-z0-9_]+`)
)

// ToIdentifier turns a class label into its lowercase identifier slug
// ("Early Renaissance" -> "early_renaissance"). Empty input yields
// "unknown".
func ToIdentifier(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = identSpaceRe.ReplaceAllString(s, "_")
	s = identDropRe.ReplaceAllString(s, "")
	if s == "" {
		return "unknown"
	}
	return s
}
