package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"choromap/internal/logger"
	"choromap/internal/metrics"

	"github.com/pierrec/lz4"
	"github.com/redis/go-redis/v9"
)

// Cache：源数据载荷缓存
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, b []byte)
}

// RedisCache：载荷以 lz4 压缩后写入 Redis
// 约束：Redis 读写失败只记录日志，按未命中处理，不影响加载
type RedisCache struct {
	rc     *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(rc *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rc: rc, ttl: ttl, prefix: "choromap:src:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rc.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("source_cache_redis_get_error", "key", key, "err", err)
		}
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}
	out, err := decompressLZ4(b)
	if err != nil {
		logger.L().Debug("source_cache_decode_error", "key", key, "err", err)
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
	return out, true
}

func (c *RedisCache) Set(ctx context.Context, key string, b []byte) {
	z, err := compressLZ4(b)
	if err != nil {
		logger.L().Debug("source_cache_encode_error", "key", key, "err", err)
		return
	}
	if err := c.rc.Set(ctx, c.prefix+key, z, c.ttl).Err(); err != nil {
		logger.L().Debug("source_cache_redis_set_error", "key", key, "err", err)
	}
}

// MemCache：LRU 适配为 Cache
type MemCache struct{ lru *LRU }

func NewMemCache(capacity int, ttl time.Duration) *MemCache {
	return &MemCache{lru: NewLRU(capacity, ttl)}
}

func (c *MemCache) Get(_ context.Context, key string) ([]byte, bool) {
	b, ok := c.lru.Get(key)
	if ok {
		metrics.CacheHitsTotal.WithLabelValues("mem").Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues("mem").Inc()
	}
	return b, ok
}

func (c *MemCache) Set(_ context.Context, key string, b []byte) { c.lru.Set(key, b) }

func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(data))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
