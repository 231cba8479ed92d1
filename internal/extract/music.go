package extract

import (
	"regexp"

	"unifiedsearch/queryservice/internal/domain"
)

var (
	musicGenrePattern = regexp.MustCompile(`(?i)(pop|rock|hip hop|rap|jazz|blues|country|classical|electronic|reggae|folk|metal|punk|r&b|soul|disco|indie|alternative|punjabi|hindi)`)
	artistPattern     = regexp.MustCompile(`(?i)(?:artist|singer|by|of)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`)
	termPattern       = regexp.MustCompile(`(?i)(?:about|related to|on)\s+([a-zA-Z]+(?:\s+[a-zA-Z]+){0,2})`)
)

// Music extracts music search criteria and a result count from free text.
//
// Fallback chain when no pattern matched: the first capitalized word sequence
// becomes the artist; failing that, the entire raw input becomes the term.
// This is the only extractor guaranteed to return a non-empty criteria set
// (though the term may itself be empty when the input is).
func Music(text string) (domain.MusicCriteria, int) {
	var criteria domain.MusicCriteria

	if m := musicGenrePattern.FindStringSubmatch(text); m != nil {
		criteria.Genre = lowerASCII(m[1])
	}
	if m := artistPattern.FindStringSubmatch(text); m != nil {
		criteria.Artist = m[1]
	}
	if m := termPattern.FindStringSubmatch(text); m != nil {
		criteria.Term = m[1]
	}

	if criteria.IsZero() {
		if m := namePattern.FindStringSubmatch(text); m != nil {
			criteria.Artist = m[1]
		}
	}
	if criteria.IsZero() {
		criteria.Term = text
	}

	return criteria, extractCount(text)
}
