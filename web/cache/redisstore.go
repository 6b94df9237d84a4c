package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/database/model"
)

const sessionKeyPrefix = "session:"

// RedisBackend keeps session records in Redis, expiring each key at the
// session's fixed expiry.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) GetSession(ctx context.Context, id string) (*model.Session, error) {
	data, err := b.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	session := &model.Session{}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(session); err != nil {
		return nil, fmt.Errorf("failed to decode session data: %w", err)
	}
	return session, nil
}

func (b *RedisBackend) SaveSession(ctx context.Context, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return b.DeleteSession(ctx, session.Id)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session); err != nil {
		return fmt.Errorf("failed to encode session values: %w", err)
	}
	return b.client.Set(ctx, sessionKeyPrefix+session.Id, buf.Bytes(), ttl).Err()
}

func (b *RedisBackend) DeleteSession(ctx context.Context, id string) error {
	return b.client.Del(ctx, sessionKeyPrefix+id).Err()
}
