package extract

import (
	"strconv"
	"strings"
)

// SrcsetMax picks the widest candidate from a responsive-image source-set
// attribute ("url1 480w, url2 1024w, ..."). Entries without a width
// descriptor count as width 0 and lose to any positive-width entry. Returns
// "" when the set is empty.
func SrcsetMax(srcset string) string {
	if srcset == "" {
		return ""
	}

	bestURL := ""
	bestW := -1

	for _, part := range strings.Split(srcset, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		toks := strings.Fields(part)
		u := toks[0]
		w := 0
		if len(toks) >= 2 && strings.HasSuffix(toks[1], "w") {
			if n, err := strconv.Atoi(strings.TrimSuffix(toks[1], "w")); err == nil {
				w = n
			}
		}

		// >= so that among equal widths the last entry wins.
		if w >= bestW {
			bestW = w
			bestURL = u
		}
	}

	return bestURL
}
