package tmdb

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const genreCacheKey = "usearch:tmdb:genres"

// GenreCache caches the provider's genre table, which changes rarely but is
// consulted on every genre-driven discovery search.
type GenreCache interface {
	Genres(ctx context.Context, fetch func(context.Context) ([]genreEntry, error)) ([]genreEntry, error)
}

// RedisGenreCache stores the genre table in Redis and collapses concurrent
// cold-cache fetches into a single upstream request.
type RedisGenreCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewRedisGenreCache(client *redis.Client, ttl time.Duration) *RedisGenreCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisGenreCache{client: client, ttl: ttl}
}

func (c *RedisGenreCache) Genres(ctx context.Context, fetch func(context.Context) ([]genreEntry, error)) ([]genreEntry, error) {
	if c.client != nil {
		if data, err := c.client.Get(ctx, genreCacheKey).Bytes(); err == nil {
			var genres []genreEntry
			if json.Unmarshal(data, &genres) == nil && len(genres) > 0 {
				return genres, nil
			}
		}
	}

	value, err, _ := c.group.Do(genreCacheKey, func() (any, error) {
		genres, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if c.client != nil {
			if data, err := json.Marshal(genres); err == nil {
				_ = c.client.Set(ctx, genreCacheKey, data, c.ttl).Err()
			}
		}
		return genres, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]genreEntry), nil
}

// MemoryGenreCache keeps the genre table in process memory. Used when Redis
// is not configured.
type MemoryGenreCache struct {
	ttl       time.Duration
	mu        sync.Mutex
	genres    []genreEntry
	fetchedAt time.Time
}

func NewMemoryGenreCache(ttl time.Duration) *MemoryGenreCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryGenreCache{ttl: ttl}
}

func (c *MemoryGenreCache) Genres(ctx context.Context, fetch func(context.Context) ([]genreEntry, error)) ([]genreEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.genres) > 0 && time.Since(c.fetchedAt) < c.ttl {
		return c.genres, nil
	}
	genres, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.genres = genres
	c.fetchedAt = time.Now()
	return genres, nil
}
