package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements domain.SessionStore on Redis strings.
// Keys are written without a TTL.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client redis.UniversalClient, prefix string) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisSessionStore) key(token string) string {
	return r.prefix + token
}

func (r *RedisSessionStore) Create(ctx context.Context, token string, s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.client.Set(ctx, r.key(token), data, 0).Err()
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	val, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s domain.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}
