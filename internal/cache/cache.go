package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loxigl/Rent-Pro/internal/logger"
)

// Cache is the read cache for catalog responses. Every failure is reported
// as a miss; the cache never takes a request down with it.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Key builders mirror the catalog endpoints.

func ListKey(page, pageSize int, sort, order string) string {
	return fmt.Sprintf("apartments:list:%d:%d:%s:%s", page, pageSize, sort, order)
}

func DetailKey(apartmentID uint) string {
	return fmt.Sprintf("apartments:detail:%d", apartmentID)
}

func PhotosKey(apartmentID uint) string {
	return fmt.Sprintf("apartments:photos:%d", apartmentID)
}

// Get unmarshals the cached value into dst. Returns false on miss or error.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.CtxWarn(ctx, "cache get failed", "key", key, "error", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.CtxWarn(ctx, "cache entry corrupt", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores the value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.CtxWarn(ctx, "cache marshal failed", "key", key, "error", err.Error())
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.CtxWarn(ctx, "cache set failed", "key", key, "error", err.Error())
	}
}

// InvalidateApartments drops list caches plus the detail and photo entries
// of the given apartments. Called on every apartment or photo mutation.
func (c *Cache) InvalidateApartments(ctx context.Context, apartmentIDs ...uint) {
	c.deletePattern(ctx, "apartments:list:*")
	for _, id := range apartmentIDs {
		keys := []string{DetailKey(id), PhotosKey(id)}
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			logger.CtxWarn(ctx, "cache delete failed", "apartment_id", id, "error", err.Error())
		}
	}
}

func (c *Cache) deletePattern(ctx context.Context, pattern string) {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			logger.CtxWarn(ctx, "cache delete failed", "key", iter.Val(), "error", err.Error())
		}
	}
	if err := iter.Err(); err != nil {
		logger.CtxWarn(ctx, "cache scan failed", "pattern", pattern, "error", err.Error())
	}
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
