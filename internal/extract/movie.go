// Package extract turns free-text queries into structured search criteria.
// Extractors are pure and total: they always produce a criteria set and a
// result count (default 5), and never fail.
package extract

import (
	"regexp"
	"strconv"

	"unifiedsearch/queryservice/internal/domain"
)

// DefaultCount is used whenever the query does not ask for a specific number
// of results.
const DefaultCount = 5

var (
	movieGenrePattern = regexp.MustCompile(`(?i)(comedy|sci-fi|horror|action|drama|romance|thriller|adventure|fantasy|animation|documentary|musical|western|crime|mystery|biography|family|war|history|sport)`)
	countPattern      = regexp.MustCompile(`(?i)(?:top|best)\s+(\d+)`)
	actorPattern      = regexp.MustCompile(`(?i)(?:actor|star|starring|with|of)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`)
	// Year matching is case-sensitive on the leading keyword; the legacy
	// extractor never passed a case flag here.
	yearPattern     = regexp.MustCompile(`(?:from|in|year)\s+(\d{4})`)
	directorPattern = regexp.MustCompile(`(?i)(?:direct(?:ed|or)|by director)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`)
	ratingPattern   = regexp.MustCompile(`(?i)(?:rating|rated)\s+(?:above|over|higher than)\s+(\d(?:\.\d)?)`)
	// Capitalized-word fallback is intentionally case-sensitive: it looks for
	// actual capitalized name sequences.
	namePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\b`)
)

// Movie extracts movie search criteria and a result count from free text.
//
// When none of genre, actor, or director matched, the first capitalized word
// sequence anywhere in the text is assumed to be an actor name. This is a
// weak heuristic that misfires on capitalized non-name tokens; it is kept
// as-is for compatibility with the legacy extractor.
func Movie(text string) (domain.MovieCriteria, int) {
	var criteria domain.MovieCriteria

	if m := movieGenrePattern.FindStringSubmatch(text); m != nil {
		criteria.Genre = lowerASCII(m[1])
	}
	if m := actorPattern.FindStringSubmatch(text); m != nil {
		criteria.Actor = m[1]
	}
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		criteria.Year = m[1]
	}
	if m := directorPattern.FindStringSubmatch(text); m != nil {
		criteria.Director = m[1]
	}
	if m := ratingPattern.FindStringSubmatch(text); m != nil {
		if rating, err := strconv.ParseFloat(m[1], 64); err == nil {
			criteria.MinRating = rating
		}
	}

	if !criteria.HasPrimary() {
		if m := namePattern.FindStringSubmatch(text); m != nil {
			criteria.Actor = m[1]
		}
	}

	return criteria, extractCount(text)
}

func extractCount(text string) int {
	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultCount
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultCount
	}
	return count
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
