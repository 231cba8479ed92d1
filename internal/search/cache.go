package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"unifiedsearch/queryservice/internal/domain"
	"unifiedsearch/queryservice/internal/metrics"
)

const (
	defaultCacheTTL        = 15 * time.Minute
	defaultCacheMaxEntries = 400
)

type cachedResponse struct {
	response  domain.QueryResponse
	updatedAt time.Time
	expiresAt time.Time
}

// buildCacheKey keys the formatted response on the committed domain plus the
// case-folded query. Forced-type runs and classified runs of the same text
// cache separately when they commit to different domains.
func buildCacheKey(queryType domain.QueryType, input string) string {
	return string(queryType) + "|" + strings.ToLower(strings.TrimSpace(input))
}

func (s *Service) cacheLookup(ctx context.Context, key string) (domain.QueryResponse, bool) {
	// Try Redis first so replicas share formatted responses.
	if s.redisCache != nil {
		response, found, err := s.redisCache.Get(ctx, key)
		if err == nil && found {
			metrics.CacheHitsTotal.Inc()
			return response, true
		}
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.cache[key]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return domain.QueryResponse{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.cache, key)
		metrics.CacheMissesTotal.Inc()
		return domain.QueryResponse{}, false
	}
	metrics.CacheHitsTotal.Inc()
	return entry.response, true
}

func (s *Service) cacheStore(ctx context.Context, key string, response domain.QueryResponse, now time.Time) {
	ttl := s.cacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	if s.redisCache != nil {
		_ = s.redisCache.Set(ctx, key, response, ttl)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache[key] = &cachedResponse{
		response:  response,
		updatedAt: now,
		expiresAt: now.Add(ttl),
	}
	s.trimCacheLocked(now)
}

func (s *Service) trimCacheLocked(now time.Time) {
	maxEntries := s.cacheMax
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}

	for key, entry := range s.cache {
		if now.After(entry.expiresAt) {
			delete(s.cache, key)
		}
	}

	if len(s.cache) <= maxEntries {
		return
	}

	// Evict oldest entries first.
	type pair struct {
		key   string
		entry *cachedResponse
	}
	items := make([]pair, 0, len(s.cache))
	for key, entry := range s.cache {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-maxEntries; i++ {
		delete(s.cache, items[i].key)
	}
}
