// Package cache provides an optional read-through cache for public report JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/models"
)

// ReportCache stores report JSON by id. Reports are write-once, so entries only
// expire or are evicted when a vendor's reports are deleted.
type ReportCache interface {
	Get(ctx context.Context, id string) (*models.ReportData, bool)
	Set(ctx context.Context, id string, report *models.ReportData)
	Delete(ctx context.Context, ids ...string)
	Close() error
}

// RedisCache is a ReportCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a Redis cache, or nil when no address is configured.
func New(cfg config.RedisConfig) *RedisCache {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Key returns the cache key for a report id.
func Key(id string) string {
	return "avp:report:" + id
}

// Get returns the cached report. Any Redis failure is treated as a miss.
func (c *RedisCache) Get(ctx context.Context, id string) (*models.ReportData, bool) {
	val, err := c.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("report", id).Msg("report cache read failed")
		}
		return nil, false
	}
	var report models.ReportData
	if err := json.Unmarshal(val, &report); err != nil {
		log.Warn().Err(err).Str("report", id).Msg("report cache entry corrupt")
		return nil, false
	}
	return &report, true
}

// Set caches report under id.
func (c *RedisCache) Set(ctx context.Context, id string, report *models.ReportData) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, Key(id), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("report", id).Msg("report cache write failed")
	}
}

// Delete evicts ids.
func (c *RedisCache) Delete(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Int("keys", len(keys)).Msg("report cache delete failed")
	}
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
