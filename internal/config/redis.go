package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the optional Redis cache used for session
// snapshots and the unread-chat counter. Returns nil when REDIS_ADDR is
// unset or the server is unreachable; callers degrade to file-only state.
func NewRedisClient(addr string, logger *log.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Printf("⚠️  Redis at %s unreachable, continuing without cache: %v", addr, err)
		return nil
	}
	logger.Printf("✅ Redis cache connected (%s)", addr)
	return client
}
