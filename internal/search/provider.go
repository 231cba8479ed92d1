package search

import (
	"context"
	"errors"

	"unifiedsearch/queryservice/internal/domain"
)

var (
	ErrEmptyQuery = errors.New("query is required")
)

// MovieProvider searches a movie catalog. Lookup misses come back as a
// Failure list; only transport faults are returned as errors.
type MovieProvider interface {
	Name() string
	SearchMovies(ctx context.Context, criteria domain.MovieCriteria, count int) (domain.MovieList, error)
}

// MusicProvider searches a track catalog.
type MusicProvider interface {
	Name() string
	SearchMusic(ctx context.Context, criteria domain.MusicCriteria, count int) (domain.MusicList, error)
}

// NewsProvider fetches news articles for a topic.
type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, topic string, count int) (domain.NewsList, error)
}

// WebProvider runs general web searches.
type WebProvider interface {
	Name() string
	WebSearch(ctx context.Context, query string, count int) (domain.WebResult, error)
}

// Formatter turns a normalized result payload into presentable text following
// an instruction. Implementations live in the agent package.
type Formatter interface {
	Format(ctx context.Context, instruction, payload string) (string, error)
}
