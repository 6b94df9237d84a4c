// Package cache provides the Redis connection and the server-side session
// store used by the web layer.
package cache

import (
	"context"
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wanderlust/wanderlust/logger"
)

// Redis owns a go-redis client and, when no address was configured, the
// embedded server it points at.
type Redis struct {
	client    *redis.Client
	miniRedis *miniredis.Miniredis
}

// NewRedis connects to redisAddr, or starts an embedded Redis when it is empty.
func NewRedis(ctx context.Context, redisAddr string) (*Redis, error) {
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		logger.Info("Embedded Redis started on", mr.Addr())
		return &Redis{
			client:    redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			miniRedis: mr,
		}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisAddr, err)
	}
	logger.Info("Connected to external Redis at", redisAddr)
	return &Redis{client: client}, nil
}

func (r *Redis) Client() *redis.Client {
	return r.client
}

// IsEmbedded returns true if using embedded Redis.
func (r *Redis) IsEmbedded() bool {
	return r.miniRedis != nil
}

// Close closes the connection and stops the embedded server if running.
func (r *Redis) Close() error {
	var err error
	if r.client != nil {
		err = r.client.Close()
	}
	if r.miniRedis != nil {
		r.miniRedis.Close()
	}
	return err
}
