package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ritik/timeline-core/internal/config"
)

var client *redis.Client

// InitRedis opens the remote tier's Redis connection.
func InitRedis(cfg *config.Config) (*redis.Client, error) {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// GetClient returns the package-level Redis client.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection.
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// FlushAll clears all data from Redis (for testing/reset).
func FlushAll(ctx context.Context) error {
	return client.FlushAll(ctx).Err()
}
