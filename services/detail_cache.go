package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DetailCache stores looked-up user and product records between loads
type DetailCache interface {
	// Get decodes the cached value for key into dest and reports whether it was found
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
}

// RedisDetailCache keeps details in Redis as JSON
type RedisDetailCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisDetailCache creates a Redis-backed detail cache
func NewRedisDetailCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisDetailCache {
	return &RedisDetailCache{
		client: client,
		ttl:    ttl,
		prefix: "warehouse-admin:detail:",
		logger: logger,
	}
}

// Get reads and decodes a cached detail. Redis errors count as a miss.
func (c *RedisDetailCache) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("detail cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Debug("detail cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores value under key with the cache TTL
func (c *RedisDetailCache) Set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("detail cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// MemoryDetailCache is an in-process cache used when Redis is not configured.
// Expired entries are dropped on read.
type MemoryDetailCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

type memoryEntry struct {
	raw        []byte
	expiration time.Time
}

// NewMemoryDetailCache creates an in-process detail cache
func NewMemoryDetailCache(ttl time.Duration) *MemoryDetailCache {
	return &MemoryDetailCache{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get decodes the cached value for key into dest
func (c *MemoryDetailCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}

	if c.now().After(entry.expiration) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return false
	}

	return json.Unmarshal(entry.raw, dest) == nil
}

// Set stores a copy of value under key
func (c *MemoryDetailCache) Set(_ context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = memoryEntry{raw: raw, expiration: c.now().Add(c.ttl)}
}

// Size returns the number of entries, expired ones included
func (c *MemoryDetailCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
