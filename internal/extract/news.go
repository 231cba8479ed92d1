package extract

import (
	"regexp"
	"strconv"

	"unifiedsearch/queryservice/internal/domain"
)

var (
	newsCountPattern = regexp.MustCompile(`(?i)(?:top|latest|recent)\s+(\d+)`)

	// Leading boilerplate stripped from the start of the query, in order,
	// leaving the bare topic.
	newsPrefixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:get|find|show|tell me about|search for|what's new in|latest news on|updates on|news about)\s+`),
		regexp.MustCompile(`(?i)^(?:the latest|recent|current)\s+(?:news|updates|articles|stories|reports)\s+(?:about|on|regarding|concerning)\s+`),
	}
)

// News extracts a cleaned news topic and article count from free text.
func News(text string) domain.NewsQuery {
	count := DefaultCount
	if m := newsCountPattern.FindStringSubmatch(text); m != nil {
		if parsed, err := strconv.Atoi(m[1]); err == nil {
			count = parsed
		}
	}

	topic := text
	for _, prefix := range newsPrefixPatterns {
		topic = prefix.ReplaceAllString(topic, "")
	}

	return domain.NewsQuery{Topic: topic, Count: count}
}
