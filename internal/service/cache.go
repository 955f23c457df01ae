package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/observability"
)

// jsonCache stores JSON documents in Redis. A nil client turns every call into a miss.
type jsonCache struct {
	client *redis.Client
	name   string
	ttl    time.Duration
	logger zerolog.Logger
}

func newJSONCache(client *redis.Client, name string, ttl time.Duration, logger zerolog.Logger) jsonCache {
	return jsonCache{client: client, name: name, ttl: ttl, logger: logger}
}

func (c jsonCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil {
		return false
	}

	cached, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to read cache")
		}
		observability.CacheLookups().WithLabelValues(c.name, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(cached, dest); err != nil {
		c.logger.Warn().Err(err).Str("cache_key", key).Msg("discarding undecodable cache entry")
		observability.CacheLookups().WithLabelValues(c.name, "miss").Inc()
		return false
	}

	observability.CacheLookups().WithLabelValues(c.name, "hit").Inc()
	return true
}

func (c jsonCache) set(ctx context.Context, key string, value interface{}) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to encode cache entry")
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to store cache entry")
	}
}

func (c jsonCache) delete(ctx context.Context, keys ...string) {
	if c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("cache_keys", keys).Msg("failed to invalidate cache")
	}
}
