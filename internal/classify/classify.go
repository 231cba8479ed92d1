// Package classify routes free-text queries to a search domain using keyword
// counting plus an ordered rule list. It is deterministic, does no I/O, and
// always returns a value.
package classify

import (
	"strings"

	"unifiedsearch/queryservice/internal/domain"
)

var (
	movieKeywords = []string{"movie", "film", "director", "actor", "actress", "genre", "rating", "imdb", "cinema"}
	musicKeywords = []string{"song", "music", "artist", "singer", "album", "track", "playlist", "band", "listen"}
	newsKeywords  = []string{"news", "latest", "update", "headline", "report", "article", "journalist", "current events"}

	// The shortcut subsets deliberately differ from the full keyword sets
	// above. Compatibility-critical: downstream behavior depends on this
	// asymmetry, do not "fix" it by reusing the full sets.
	musicShortcuts = []string{"song", "music", "artist", "singer"}
	movieShortcuts = []string{"movie", "film", "director", "actor"}
)

// Classify decides which search domain a query belongs to. Rules are applied
// in order, first match wins:
//
//  1. the literal substring "news", or more news keywords than both movie and
//     music keywords -> news
//  2. any music shortcut substring, or more music keywords than movie -> music
//  3. any movie shortcut substring, or at least one movie keyword -> movie
//  4. otherwise -> general
func Classify(text string) domain.QueryType {
	lower := strings.ToLower(text)

	movieCount := countKeywords(lower, movieKeywords)
	musicCount := countKeywords(lower, musicKeywords)
	newsCount := countKeywords(lower, newsKeywords)

	switch {
	case strings.Contains(lower, "news") || (newsCount > movieCount && newsCount > musicCount):
		return domain.QueryTypeNews
	case containsAny(lower, musicShortcuts) || musicCount > movieCount:
		return domain.QueryTypeMusic
	case containsAny(lower, movieShortcuts) || movieCount > 0:
		return domain.QueryTypeMovie
	default:
		return domain.QueryTypeGeneral
	}
}

// countKeywords counts how many keywords from the set appear as substrings.
// Each keyword contributes at most one, regardless of repetition.
func countKeywords(lower string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			count++
		}
	}
	return count
}

func containsAny(lower string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
