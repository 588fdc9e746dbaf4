package sites

import (
	"strings"
	"testing"

	"github.com/galleryforge/artcrawl/internal/frontier"
)

func TestUnwrapFrames(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"frameset wrapper",
			"https://www.wga.hu/frames-e.html?/html/a/aachen/index.html",
			"https://www.wga.hu/html/a/aachen/index.html",
		},
		{
			"double-slash inner path",
			"/frames-e.html?//html/a/aachen/index.html",
			"https://www.wga.hu/html/a/aachen/index.html",
		},
		{
			"plain relative path absolutized",
			"/html/a/aachen/venus.html",
			"https://www.wga.hu/html/a/aachen/venus.html",
		},
		{
			"absolute non-frame passthrough",
			"https://www.wga.hu/html/a/aachen/venus.html",
			"https://www.wga.hu/html/a/aachen/venus.html",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnwrapFrames(tt.in); got != tt.want {
				t.Errorf("UnwrapFrames(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPagePredicates(t *testing.T) {
	tests := []struct {
		url       string
		wantWork  bool
		wantIndex bool
	}{
		{"https://www.wga.hu/html/a/aachen/venus.html", true, false},
		{"https://www.wga.hu/html/a/aachen/index.html", false, true},
		{"https://www.wga.hu/html/a/aachen/INDEX.HTML", false, true},
		{"https://www.wga.hu/frames-e.html?/html/a/aachen/venus.html", false, false},
		{"https://www.wga.hu/art/a/aachen/venus.jpg", false, false},
		{"https://www.wga.hu/html/a/aachen/", false, false},
	}
	for _, tt := range tests {
		if got := IsWorkPage(tt.url); got != tt.wantWork {
			t.Errorf("IsWorkPage(%q) = %v, want %v", tt.url, got, tt.wantWork)
		}
		if got := IsIndexPage(tt.url); got != tt.wantIndex {
			t.Errorf("IsIndexPage(%q) = %v, want %v", tt.url, got, tt.wantIndex)
		}
	}
}

func TestSameArtistFolder(t *testing.T) {
	root := "https://www.wga.hu/html/a/aachen/index.html"
	tests := []struct {
		candidate string
		want      bool
	}{
		{"https://www.wga.hu/html/a/aachen/venus.html", true},
		{"https://www.wga.hu/html/a/aachen/sub/detail.html", true},
		{"https://www.wga.hu/html/a/abbate/index.html", false},
		{"https://www.wga.hu/html/b/aachen/venus.html", false},
	}
	for _, tt := range tests {
		if got := SameArtistFolder(root, tt.candidate); got != tt.want {
			t.Errorf("SameArtistFolder(root, %q) = %v, want %v", tt.candidate, got, tt.want)
		}
	}
}

func TestNormalizeArtistIndexURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.wga.hu/html/a/aachen/index.html", "https://www.wga.hu/html/a/aachen/index.html"},
		{"https://www.wga.hu/html/a/aachen/", "https://www.wga.hu/html/a/aachen/index.html"},
		{"https://www.wga.hu/html/a/aachen", "https://www.wga.hu/html/a/aachen/index.html"},
		{"/frames-e.html?/html/a/aachen/index.html", "https://www.wga.hu/html/a/aachen/index.html"},
	}
	for _, tt := range tests {
		if got := NormalizeArtistIndexURL(tt.in); got != tt.want {
			t.Errorf("NormalizeArtistIndexURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArtistListURL(t *testing.T) {
	got := ArtistListURL(50, 50)
	if !strings.HasPrefix(got, "https://www.wga.hu/cgi-bin/artist.cgi?") {
		t.Errorf("ArtistListURL() = %q, wrong prefix", got)
	}
	for _, frag := range []string{"from=50", "max=50", "Sort=Name", "Profession=any"} {
		if !strings.Contains(got, frag) {
			t.Errorf("ArtistListURL() = %q, missing %q", got, frag)
		}
	}
}

const artistListPage = `
<html><body><table>
<tr>
  <td class="ARTISTLIST"><a href="/frames-e.html?/html/a/aachen/index.html">AACHEN, Hans von</a></td>
  <td class="ARTISTLIST">(b. 1552, Koeln, d. 1615, Praha)</td>
  <td class="ARTISTLIST">Mannerism</td>
  <td class="ARTISTLIST">German painter</td>
</tr>
<tr>
  <td class="ARTISTLIST"><a href="/frames-e.html?/html/a/abbate/index.html">ABBATE, Niccolo dell'</a></td>
  <td class="ARTISTLIST">(b. 1509, Modena, d. 1571, Fontainebleau)</td>
  <td class="ARTISTLIST"></td>
  <td class="ARTISTLIST">Italian painter</td>
</tr>
<tr>
  <td class="ARTISTLIST"><a href="/frames-e.html?/html/a/aachen/index.html">AACHEN, Hans von</a></td>
  <td class="ARTISTLIST">(b. 1552, Koeln, d. 1615, Praha)</td>
  <td class="ARTISTLIST">Baroque</td>
  <td class="ARTISTLIST">German engraver</td>
</tr>
<tr>
  <td class="ARTISTLIST">header-like row with too few cells</td>
</tr>
</table></body></html>`

func TestParseArtistList(t *testing.T) {
	artists := ParseArtistList(artistListPage)

	// Row 2 has an empty movement and is skipped; row 3 duplicates row 1's
	// URL, so its values replace row 1 in place.
	if len(artists) != 1 {
		t.Fatalf("ParseArtistList() returned %d artists, want 1", len(artists))
	}

	a := artists[0]
	if a.URL != "https://www.wga.hu/html/a/aachen/index.html" {
		t.Errorf("URL = %q", a.URL)
	}
	if a.Movement != "Baroque" {
		t.Errorf("Movement = %q, want last duplicate's value", a.Movement)
	}
	if a.Profession != "engraver" {
		t.Errorf("Profession = %q, want engraver", a.Profession)
	}
	if a.Name != "AACHEN, Hans von" {
		t.Errorf("Name = %q", a.Name)
	}
}

func TestExtractProfession(t *testing.T) {
	tests := []struct {
		school string
		want   string
	}{
		{"German painter", "painter"},
		{"Italian sculptor and architect", "sculptor"},
		{"French Painter", "painter"},
		{"Flemish", "unknown"},
		{"", "unknown"},
		{"repainter of icons", "unknown"}, // word boundary, no substring hit
	}
	for _, tt := range tests {
		if got := ExtractProfession(tt.school); got != tt.want {
			t.Errorf("ExtractProfession(%q) = %q, want %q", tt.school, got, tt.want)
		}
	}
}

func TestToIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Early Renaissance", "early_renaissance"},
		{"  Baroque  ", "baroque"},
		{"Realism, Impressionism", "realism_impressionism"},
		{"???", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := ToIdentifier(tt.in); got != tt.want {
			t.Errorf("ToIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArtistFolderRulesClassify(t *testing.T) {
	var rules ArtistFolderRules

	tests := []struct {
		url  string
		want frontier.PageKind
	}{
		{"https://www.wga.hu/html/a/aachen/venus.html", frontier.KindWork},
		{"https://www.wga.hu/html/a/aachen/index.html", frontier.KindIndex},
		{"https://www.wga.hu/art/a/aachen/venus.jpg", frontier.KindIgnore},
	}
	for _, tt := range tests {
		if got := rules.Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
