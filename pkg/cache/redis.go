package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
)

// KeyPrefix namespaces every key written by the scheduler.
const KeyPrefix = "scheduler"

// NewRedis dials Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     Addr(cfg),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", Addr(cfg), err)
	}

	return client, nil
}

// Addr renders host:port for the configured instance.
func Addr(cfg config.RedisConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Key joins parts under the scheduler namespace, e.g. scheduler:generate:<hash>.
func Key(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	clean = append(clean, KeyPrefix)
	for _, part := range parts {
		part = strings.Trim(part, ": ")
		if part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
