package utils

import (
	"github.com/redis/go-redis/v9"

	"volunteer-geo/internal/logger"
)

// OpenRedisFromEnv：从环境变量打开 Redis 客户端
// 约束：REDIS_ENABLED 不为 true 时返回 nil（缓存关闭）；REDIS_DB 非法时回退 0。
func OpenRedisFromEnv() *redis.Client {
	if !EnvBool("REDIS_ENABLED", false) {
		return nil
	}
	addr := EnvOr("REDIS_HOST", "127.0.0.1") + ":" + EnvOr("REDIS_PORT", "6379")
	db := EnvInt("REDIS_DB", 0, 0)
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: EnvOr("REDIS_PASS", ""), DB: db})
}
