// Package cache keeps rating aggregates in redis between writes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"drink-rating/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	dashboardKey     = "drink-rating:dashboard"
	summaryPrefix    = "drink-rating:summary:"
	dashboardGenKey  = "drink-rating:gen:dashboard"
	summaryGenPrefix = "drink-rating:gen:summary:"
)

// Version is the invalidation generation observed by a read. A write tagged
// with a generation that has since been invalidated is never served.
type Version int64

// NoVersion marks a read whose generation could not be determined. Writes
// carrying it are dropped.
const NoVersion Version = -1

// Cache stores computed aggregates. Implementations log and swallow backend
// failures; a miss is always a safe answer.
//
// Callers pass the Version returned by a missed Get to the matching Set so
// that a value computed before a concurrent InvalidateDrink is discarded.
type Cache interface {
	GetDashboard(ctx context.Context) (*model.Dashboard, Version, bool)
	SetDashboard(ctx context.Context, version Version, dashboard *model.Dashboard)
	GetSummary(ctx context.Context, drinkID int64) (*model.RatingSummary, Version, bool)
	SetSummary(ctx context.Context, version Version, summary *model.RatingSummary)
	// InvalidateDrink drops the drink's summary and the dashboard and bumps
	// their generations.
	InvalidateDrink(ctx context.Context, drinkID int64)
}

var _ Cache = (*RedisCache)(nil)

// RedisCache implements Cache on redis. Each entry is stored together with
// the generation it was computed under; generation counters live in
// separate keys without expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// entry is the stored form of a cached aggregate.
type entry struct {
	Version Version         `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// NewRedisCache creates a redis-backed cache whose entries expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis-cache").Logger(),
	}
}

// Connect creates a redis client and verifies it answers PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// SummaryKey returns the redis key of a drink's rating summary.
func SummaryKey(drinkID int64) string {
	return summaryPrefix + strconv.FormatInt(drinkID, 10)
}

func summaryGenKey(drinkID int64) string {
	return summaryGenPrefix + strconv.FormatInt(drinkID, 10)
}

func (c *RedisCache) GetDashboard(ctx context.Context) (*model.Dashboard, Version, bool) {
	var dashboard model.Dashboard
	version, ok := c.get(ctx, dashboardGenKey, dashboardKey, &dashboard)
	if !ok {
		return nil, version, false
	}
	return &dashboard, version, true
}

func (c *RedisCache) SetDashboard(ctx context.Context, version Version, dashboard *model.Dashboard) {
	c.set(ctx, dashboardKey, version, dashboard)
}

func (c *RedisCache) GetSummary(ctx context.Context, drinkID int64) (*model.RatingSummary, Version, bool) {
	var summary model.RatingSummary
	version, ok := c.get(ctx, summaryGenKey(drinkID), SummaryKey(drinkID), &summary)
	if !ok {
		return nil, version, false
	}
	return &summary, version, true
}

func (c *RedisCache) SetSummary(ctx context.Context, version Version, summary *model.RatingSummary) {
	c.set(ctx, SummaryKey(summary.DrinkID), version, summary)
}

func (c *RedisCache) InvalidateDrink(ctx context.Context, drinkID int64) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, summaryGenKey(drinkID))
		pipe.Incr(ctx, dashboardGenKey)
		pipe.Del(ctx, dashboardKey, SummaryKey(drinkID))
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Int64("drink_id", drinkID).Msg("failed to invalidate cache")
	}
}

// get reads the current generation and the entry in one round trip. The
// generation is returned even on a miss so the caller can tag its write.
func (c *RedisCache) get(ctx context.Context, genKey, key string, dst any) (Version, bool) {
	values, err := c.client.MGet(ctx, genKey, key).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return NoVersion, false
	}

	version, err := parseVersion(values[0])
	if err != nil {
		c.logger.Warn().Err(err).Str("key", genKey).Msg("discarding unreadable cache generation")
		return NoVersion, false
	}

	raw, ok := values[1].(string)
	if !ok {
		return version, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return version, false
	}
	if e.Version != version {
		return version, false
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return version, false
	}

	return version, true
}

func (c *RedisCache) set(ctx context.Context, key string, version Version, value any) {
	if version < 0 {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}
	raw, err := json.Marshal(entry{Version: version, Data: data})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// parseVersion decodes a generation counter; an absent counter is zero.
func parseVersion(value any) (Version, error) {
	if value == nil {
		return 0, nil
	}
	s, ok := value.(string)
	if !ok {
		return NoVersion, fmt.Errorf("unexpected generation type %T", value)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return NoVersion, fmt.Errorf("invalid generation %q", s)
	}
	return Version(n), nil
}

// Nop is a Cache that never stores anything.
type Nop struct{}

func (Nop) GetDashboard(context.Context) (*model.Dashboard, Version, bool) {
	return nil, NoVersion, false
}

func (Nop) SetDashboard(context.Context, Version, *model.Dashboard) {}

func (Nop) GetSummary(context.Context, int64) (*model.RatingSummary, Version, bool) {
	return nil, NoVersion, false
}

func (Nop) SetSummary(context.Context, Version, *model.RatingSummary) {}

func (Nop) InvalidateDrink(context.Context, int64) {}
