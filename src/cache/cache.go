// Package cache provides pluggable caching for schedule snapshots and
// suggestion results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/apimgr/prospects/src/config"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is the interface for cache implementations.
type Cache interface {
	// Get retrieves a value; returns ErrMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value with the given TTL (0 = backend default).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key.
	Delete(ctx context.Context, key string) error
	// Invalidate removes all keys with the given prefix.
	Invalidate(ctx context.Context, prefix string) error
	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// New creates a cache from configuration. Unknown backends fall back to the
// in-memory cache so a misconfigured server still starts.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case "redis", "valkey":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.MaxSize, time.Duration(cfg.TTL)*time.Second), nil
	}
}

// GetJSON retrieves and unmarshals a JSON value.
func GetJSON(ctx context.Context, c Cache, key string, v interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SetJSON marshals and stores a JSON value.
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
