package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"unifiedsearch/queryservice/internal/domain"
)

const redisCachePrefix = "usearch:cache:"

// RedisCacheBackend stores formatted query responses in Redis with JSON
// serialization.
type RedisCacheBackend struct {
	client *redis.Client
}

func NewRedisCacheBackend(client *redis.Client) *RedisCacheBackend {
	return &RedisCacheBackend{client: client}
}

func (r *RedisCacheBackend) Get(ctx context.Context, key string) (domain.QueryResponse, bool, error) {
	data, err := r.client.Get(ctx, redisCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.QueryResponse{}, false, nil
		}
		return domain.QueryResponse{}, false, err
	}
	var response domain.QueryResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return domain.QueryResponse{}, false, err
	}
	return response, true, nil
}

func (r *RedisCacheBackend) Set(ctx context.Context, key string, response domain.QueryResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisCachePrefix+key, data, ttl).Err()
}

func (r *RedisCacheBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisCachePrefix+key).Err()
}

func (r *RedisCacheBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
