// Package cache holds short-lived dashboard aggregates in Redis. A missing
// or failing Redis never fails a request; callers fall through to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/logger"
)

const keyPrefix = "placify:stats:"

// StatsCache stores JSON-encodable aggregates under string keys.
type StatsCache interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	// Invalidate removes every key starting with prefix.
	Invalidate(ctx context.Context, prefix string)
	Health(ctx context.Context) error
}

// Redis is a StatsCache backed by go-redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Entry
}

// Connect parses url, pings the server and returns a cache. It returns nil
// and no error when url is empty.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Redis, *redis.Client, error) {
	if url == "" {
		return nil, nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(client, ttl), client, nil
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{client: client, ttl: ttl, log: logger.Component("cache")}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.WithError(err).WithField("key", key).Debug("stats cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("stats cache entry undecodable")
		return false
	}
	return true
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, keyPrefix+key, payload, r.ttl).Err(); err != nil {
		r.log.WithError(err).WithField("key", key).Debug("stats cache write failed")
	}
}

func (r *Redis) Invalidate(ctx context.Context, prefix string) {
	iter := r.client.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.log.WithError(err).Debug("stats cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.WithError(err).Debug("stats cache invalidate failed")
	}
}

func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Noop is used when no Redis URL is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) bool { return false }
func (Noop) Set(context.Context, string, interface{})       {}
func (Noop) Invalidate(context.Context, string)             {}
func (Noop) Health(context.Context) error                   { return nil }
