package utils

import (
	"context"
	"os"
	"time"

	"choromap/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedisFromEnv：按 REDIS_* 打开 Redis 客户端
// 约束：REDIS_ENABLED 不为 "true" 或 Ping 失败时返回 nil，调用方回退到进程内缓存
func OpenRedisFromEnv(ctx context.Context) *redis.Client {
	if os.Getenv("REDIS_ENABLED") != "true" {
		return nil
	}
	addr := envOr("REDIS_HOST", "127.0.0.1") + ":" + envOr("REDIS_PORT", "6379")
	db := envInt("REDIS_DB", 0)
	if db < 0 {
		db = 0
	}
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASS"), DB: db})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		logger.L().Warn("redis_unavailable", "addr", addr, "err", err)
		rc.Close()
		return nil
	}
	logger.L().Debug("redis_open", "addr", addr, "db", db)
	return rc
}
