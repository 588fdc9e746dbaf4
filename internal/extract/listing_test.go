package extract

import (
	"net/url"
	"testing"
)

var testBase, _ = url.Parse("https://www.example.org")

const listingPage = `
<html><body>
<ul>
  <li class="grid-card">
    <a href="/art/artworks/turner-sunrise-t01585" aria-label="Sunrise with Sea Monsters">
      <img data-srcset="//cdn.example.org/t01585_320.jpg 320w, //cdn.example.org/t01585_1024.jpg 1024w" src="/thumbs/t01585.jpg">
    </a>
    <div class="card__meta"><span class="card__artist">J.M.W. Turner</span></div>
  </li>
  <li class="grid-card">
    <a href="/art/artworks/blake-newton-n05058">
      <span class="card__title">Newton</span>
    </a>
    <p class="card__meta">William Blake</p>
  </li>
  <li class="grid-card">
    <span>no link in this card</span>
  </li>
  <li class="grid-card">
    <a href="/art/artworks/turner-sunrise-t01585" title="Duplicate of the first work"></a>
  </li>
</ul>
</body></html>`

func TestListingCards(t *testing.T) {
	items := ListingCards(listingPage, testBase, `a[href*='/art/artworks/']`)

	if len(items) != 2 {
		t.Fatalf("ListingCards() returned %d candidates, want 2", len(items))
	}

	first := items[0]
	if first.DetailURL != "https://www.example.org/art/artworks/turner-sunrise-t01585" {
		t.Errorf("first DetailURL = %q", first.DetailURL)
	}
	if first.Title != "Sunrise with Sea Monsters" {
		t.Errorf("first Title = %q, want aria-label text", first.Title)
	}
	if first.Artist != "J.M.W. Turner" {
		t.Errorf("first Artist = %q", first.Artist)
	}
	// data-srcset widest entry, protocol-relative made absolute
	if first.ThumbURL != "https://cdn.example.org/t01585_1024.jpg" {
		t.Errorf("first ThumbURL = %q", first.ThumbURL)
	}

	second := items[1]
	if second.Title != "Newton" {
		t.Errorf("second Title = %q, want class-derived title", second.Title)
	}
	if second.Artist != "William Blake" {
		t.Errorf("second Artist = %q", second.Artist)
	}
	if second.ThumbURL != "" {
		t.Errorf("second ThumbURL = %q, want empty (card has no image)", second.ThumbURL)
	}
}

func TestListingCardsNoMatches(t *testing.T) {
	items := ListingCards(`<html><body><a href="/about">About</a></body></html>`, testBase, `a[href*='/art/artworks/']`)
	if len(items) != 0 {
		t.Errorf("ListingCards() = %d candidates, want 0", len(items))
	}
}

func TestAbsLink(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"rooted", "/art/artworks/x", "https://www.example.org/art/artworks/x"},
		{"absolute", "https://other.example.com/w", "https://other.example.com/w"},
		{"relative fragment dropped", "detail.html", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsLink(tt.href, testBase); got != tt.want {
				t.Errorf("AbsLink(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"protocol-relative", "//cdn.example.org/a.jpg", "https://cdn.example.org/a.jpg"},
		{"rooted", "/img/a.jpg", "https://www.example.org/img/a.jpg"},
		{"absolute passthrough", "http://cdn.example.org/a.jpg", "http://cdn.example.org/a.jpg"},
		{"empty", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeImageURL(tt.in, testBase); got != tt.want {
				t.Errorf("NormalizeImageURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	html := `<html><body>
		<a href="work1.html">one</a>
		<a href="/c/work2.html">two</a>
		<a href="https://elsewhere.example.com/x">three</a>
	</body></html>`

	got := Links(html, "https://www.example.org/c/artist/index.html")
	want := []string{
		"https://www.example.org/c/artist/work1.html",
		"https://www.example.org/c/work2.html",
		"https://elsewhere.example.com/x",
	}
	if len(got) != len(want) {
		t.Fatalf("Links() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Links()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
