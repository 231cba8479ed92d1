// Package agent holds the formatting collaborator: instruction builders that
// describe how each search domain should be presented, and the completion
// client that applies them to a normalized result payload.
package agent

import (
	"fmt"
	"strconv"
	"strings"

	"unifiedsearch/queryservice/internal/domain"
)

// MovieInstruction builds the presentation instruction for a movie result set.
func MovieInstruction(criteria domain.MovieCriteria, count int) string {
	var parts []string
	if criteria.Genre != "" {
		parts = append(parts, "genre: "+criteria.Genre)
	}
	if criteria.Actor != "" {
		parts = append(parts, "actor: "+criteria.Actor)
	}
	if criteria.Director != "" {
		parts = append(parts, "director: "+criteria.Director)
	}
	if criteria.Year != "" {
		parts = append(parts, "year: "+criteria.Year)
	}
	if criteria.MinRating > 0 {
		parts = append(parts, "minimum rating: "+strconv.FormatFloat(criteria.MinRating, 'f', -1, 64))
	}
	description := "popular movies"
	if len(parts) > 0 {
		description = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`Your task is to present the top %d movies matching the following criteria:
%s

The search results are provided below as JSON. Format each movie as:

- **Title:** [Movie Title] ([Year])
- **Rating:** [Rating]/10
- **Director:** [Director]
- **Genres:** [Genres]
- **Runtime:** [Runtime] minutes
- **Description:** [Description]
- **Thumbnail:** ![Thumbnail](thumbnail_url)
- **Link:** [Link](movie_link)

Ensure all fields are properly populated for each movie. If the results
contain an error entry, relay that error message to the user instead.`, count, description)
}

// MusicInstruction builds the presentation instruction for a track result set.
func MusicInstruction(criteria domain.MusicCriteria, count int) string {
	var parts []string
	if criteria.Artist != "" {
		parts = append(parts, "artist: "+criteria.Artist)
	}
	if criteria.Genre != "" {
		parts = append(parts, "genre: "+criteria.Genre)
	}
	if criteria.Term != "" {
		parts = append(parts, "term: "+criteria.Term)
	}
	description := "popular music"
	if len(parts) > 0 {
		description = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`Your task is to present the top %d songs matching the following criteria:
%s

The search results are provided below as JSON. Format each song as:

- **Title:** [Song Title]
- **Artist:** [Artist Name]
- **Album:** [Album Name]
- **Genre:** [Genre]
- **Release Date:** [Release Date]
- **Preview:** [Audio Player](preview_url)
- **Artwork:** ![Album Cover](artwork_url)
- **Link:** [Listen Link](track_url)

Ensure all fields are properly populated for each song. If the results
contain an error entry, relay that error message to the user instead.`, count, description)
}

// NewsInstruction builds the presentation instruction for a news result set.
func NewsInstruction(topic string, count int) string {
	return fmt.Sprintf(`Your task is to summarize the latest news about "%s".

The articles are provided below as JSON. For each article:
1. Summarize the key points in 2-3 sentences
2. Format each article as:

## [Article Title]
**Source:** [Source Name] | **Date:** [Publication Date]

[Your 2-3 sentence summary]

**Link:** [Read More](article_link)

Provide a brief overall summary of the topic at the beginning. Expect up
to %d articles. If the results contain an error entry, relay that error
message to the user instead.`, topic, count)
}

// GeneralInstruction builds the presentation instruction for a web search
// result.
func GeneralInstruction(query string) string {
	return fmt.Sprintf(`Your task is to answer the query "%s" from web search results.

The results are provided below as JSON. Based on them:
1. Provide a direct answer to the query (2-3 paragraphs)
2. Include any factual information from the knowledge graph if available
3. Cite your sources by including links to relevant websites
4. Format your response in a clear, readable manner

Ensure your answer is accurate, relevant, and to the point. If the results
contain an error entry, relay that error message to the user instead.`, query)
}
