// Package search orchestrates the query pipeline: classify the free-text
// query into a domain, extract structured criteria, fetch from that domain's
// provider, and hand the normalized payload to the formatter.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"unifiedsearch/queryservice/internal/agent"
	"unifiedsearch/queryservice/internal/classify"
	"unifiedsearch/queryservice/internal/domain"
	"unifiedsearch/queryservice/internal/extract"
	"unifiedsearch/queryservice/internal/metrics"
)

// The general pipeline asks for more hits than the extracted-count domains: a
// web answer is synthesized from the whole page, not listed item by item.
const webResultCount = 10

type Providers struct {
	Movies MovieProvider
	Music  MusicProvider
	News   NewsProvider
	Web    WebProvider
}

type Service struct {
	providers Providers
	formatter Formatter
	timeout   time.Duration

	cacheDisabled bool
	cacheTTL      time.Duration
	cacheMax      int
	cacheMu       sync.Mutex
	cache         map[string]*cachedResponse
	redisCache    *RedisCacheBackend

	healthMu sync.Mutex
	health   map[string]*providerHealth
}

type ServiceOption func(*Service)

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) {
		s.redisCache = backend
	}
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func NewService(providers Providers, formatter Formatter, opts ...ServiceOption) *Service {
	if formatter == nil {
		formatter = agent.Passthrough{}
	}
	svc := &Service{
		providers: providers,
		formatter: formatter,
		timeout:   30 * time.Second,
		cacheTTL:  defaultCacheTTL,
		cacheMax:  defaultCacheMaxEntries,
		cache:     make(map[string]*cachedResponse),
		health:    make(map[string]*providerHealth),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Run classifies the query and routes it to exactly one domain. The domain
// decision is final: a thin movie result never falls back to a web search.
func (s *Service) Run(ctx context.Context, input string) (domain.QueryResponse, error) {
	if strings.TrimSpace(input) == "" {
		return domain.QueryResponse{}, ErrEmptyQuery
	}
	return s.run(ctx, classify.Classify(input), input)
}

// RunMovie forces the movie pipeline regardless of classification.
func (s *Service) RunMovie(ctx context.Context, input string) (domain.QueryResponse, error) {
	return s.run(ctx, domain.QueryTypeMovie, input)
}

// RunMusic forces the music pipeline.
func (s *Service) RunMusic(ctx context.Context, input string) (domain.QueryResponse, error) {
	return s.run(ctx, domain.QueryTypeMusic, input)
}

// RunNews forces the news pipeline.
func (s *Service) RunNews(ctx context.Context, input string) (domain.QueryResponse, error) {
	return s.run(ctx, domain.QueryTypeNews, input)
}

// RunGeneral forces the general web pipeline.
func (s *Service) RunGeneral(ctx context.Context, input string) (domain.QueryResponse, error) {
	return s.run(ctx, domain.QueryTypeGeneral, input)
}

func (s *Service) run(ctx context.Context, queryType domain.QueryType, input string) (domain.QueryResponse, error) {
	if strings.TrimSpace(input) == "" {
		return domain.QueryResponse{}, ErrEmptyQuery
	}
	metrics.QueriesTotal.WithLabelValues(string(queryType)).Inc()

	cacheKey := buildCacheKey(queryType, input)
	if !s.cacheDisabled {
		if cached, ok := s.cacheLookup(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var instruction, payload string
	var fetchFailed bool
	switch queryType {
	case domain.QueryTypeMovie:
		criteria, count := extract.Movie(input)
		list := s.fetchMovies(runCtx, input, criteria, count)
		instruction = agent.MovieInstruction(criteria, count)
		payload = marshalPayload(list)
		fetchFailed = list.Failed()
	case domain.QueryTypeMusic:
		criteria, count := extract.Music(input)
		list := s.fetchMusic(runCtx, input, criteria, count)
		instruction = agent.MusicInstruction(criteria, count)
		payload = marshalPayload(list)
		fetchFailed = list.Failed()
	case domain.QueryTypeNews:
		query := extract.News(input)
		list := s.fetchNews(runCtx, input, query)
		instruction = agent.NewsInstruction(query.Topic, query.Count)
		payload = marshalPayload(list)
		fetchFailed = list.Failed()
	default:
		queryType = domain.QueryTypeGeneral
		result := s.fetchWeb(runCtx, input)
		instruction = agent.GeneralInstruction(input)
		payload = marshalPayload(result)
		fetchFailed = result.Failed()
	}

	content, err := s.format(runCtx, instruction, payload)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("formatting failed: %w", err)
	}

	response := domain.QueryResponse{Type: queryType, Content: content}
	// Only successful fetches are cached. A cached failure entry would keep
	// answering for the full TTL after the provider recovered, and would mask
	// the circuit breaker's recovery path.
	if !s.cacheDisabled && !fetchFailed {
		s.cacheStore(ctx, cacheKey, response, time.Now())
	}
	return response, nil
}

// fetchMovies calls the movie provider, converting transport faults into the
// failure entry the formatter knows how to relay and feeding the circuit
// breaker. Lookup misses already arrive as failure entries and pass through.
func (s *Service) fetchMovies(ctx context.Context, input string, criteria domain.MovieCriteria, count int) domain.MovieList {
	if s.providers.Movies == nil {
		return domain.MovieList{Failure: "Failed to fetch movies: movie search is not configured"}
	}
	name := s.providers.Movies.Name()
	if blocked, until, lastErr := s.isProviderBlocked(name, time.Now()); blocked {
		return domain.MovieList{Failure: fmt.Sprintf("Failed to fetch movies: %s", blockedMessage(name, until, lastErr))}
	}

	startedAt := time.Now()
	list, err := s.providers.Movies.SearchMovies(ctx, criteria, count)
	s.recordProviderResult(name, input, err, time.Since(startedAt), time.Now())
	if err != nil {
		slog.Error("movie search failed", slog.String("provider", name), slog.String("error", err.Error()))
		return domain.MovieList{Failure: fmt.Sprintf("Failed to fetch movies: %s", err)}
	}
	if list.Skipped > 0 {
		slog.Warn("movie detail fetches skipped", slog.String("provider", name), slog.Int("skipped", list.Skipped))
	}
	return list
}

func (s *Service) fetchMusic(ctx context.Context, input string, criteria domain.MusicCriteria, count int) domain.MusicList {
	if s.providers.Music == nil {
		return domain.MusicList{Failure: "Failed to fetch music: music search is not configured"}
	}
	name := s.providers.Music.Name()
	if blocked, until, lastErr := s.isProviderBlocked(name, time.Now()); blocked {
		return domain.MusicList{Failure: fmt.Sprintf("Failed to fetch music: %s", blockedMessage(name, until, lastErr))}
	}

	startedAt := time.Now()
	list, err := s.providers.Music.SearchMusic(ctx, criteria, count)
	s.recordProviderResult(name, input, err, time.Since(startedAt), time.Now())
	if err != nil {
		slog.Error("music search failed", slog.String("provider", name), slog.String("error", err.Error()))
		return domain.MusicList{Failure: fmt.Sprintf("Failed to fetch music: %s", err)}
	}
	return list
}

func (s *Service) fetchNews(ctx context.Context, input string, query domain.NewsQuery) domain.NewsList {
	if s.providers.News == nil {
		return domain.NewsList{Failure: "Failed to fetch news: news search is not configured"}
	}
	name := s.providers.News.Name()
	if blocked, until, lastErr := s.isProviderBlocked(name, time.Now()); blocked {
		return domain.NewsList{Failure: fmt.Sprintf("Failed to fetch news: %s", blockedMessage(name, until, lastErr))}
	}

	startedAt := time.Now()
	list, err := s.providers.News.FetchNews(ctx, query.Topic, query.Count)
	s.recordProviderResult(name, input, err, time.Since(startedAt), time.Now())
	if err != nil {
		slog.Error("news search failed", slog.String("provider", name), slog.String("error", err.Error()))
		return domain.NewsList{Failure: fmt.Sprintf("Failed to fetch news: %s", err)}
	}
	return list
}

func (s *Service) fetchWeb(ctx context.Context, input string) domain.WebResult {
	if s.providers.Web == nil {
		return domain.WebResult{Failure: "Failed to perform search: web search is not configured"}
	}
	name := s.providers.Web.Name()
	if blocked, until, lastErr := s.isProviderBlocked(name, time.Now()); blocked {
		return domain.WebResult{Failure: fmt.Sprintf("Failed to perform search: %s", blockedMessage(name, until, lastErr))}
	}

	startedAt := time.Now()
	result, err := s.providers.Web.WebSearch(ctx, input, webResultCount)
	s.recordProviderResult(name, input, err, time.Since(startedAt), time.Now())
	if err != nil {
		slog.Error("web search failed", slog.String("provider", name), slog.String("error", err.Error()))
		return domain.WebResult{Failure: fmt.Sprintf("Failed to perform search: %s", err)}
	}
	return result
}

func (s *Service) format(ctx context.Context, instruction, payload string) (string, error) {
	startedAt := time.Now()
	content, err := s.formatter.Format(ctx, instruction, payload)
	metrics.FormatterDuration.Observe(time.Since(startedAt).Seconds())
	if err != nil {
		metrics.FormatterRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.FormatterRequestsTotal.WithLabelValues("ok").Inc()
	return content, nil
}

func blockedMessage(name string, until time.Time, lastErr string) string {
	msg := fmt.Sprintf("%s is temporarily unavailable until %s", name, until.Format(time.RFC3339))
	if lastErr != "" {
		msg += ": " + lastErr
	}
	return msg
}

func marshalPayload(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, "failed to encode results: "+err.Error())
	}
	return string(data)
}
