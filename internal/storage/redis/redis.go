// redis - хранилище токенов в Redis (общий стор для нескольких инстансов web).
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/volley-platform/web/internal/storage"
)

const defaultPrefix = "volley:tok:"

type Storage struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой - используется "volley:tok:". ttl<=0 - ключи без срока жизни.
func New(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*Storage, error) {
	const op = "storage.redis.New"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(rdb, prefix, ttl), nil
}

// NewWithClient оборачивает готовый клиент (тесты, общий пул).
func NewWithClient(rdb *redis.Client, prefix string, ttl time.Duration) *Storage {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Storage{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Storage) key(k string) string { return s.prefix + k }

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.redis.Get"

	if key == "" {
		return "", storage.ErrEmptyKey
	}

	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	const op = "storage.redis.Set"

	if key == "" {
		return storage.ErrEmptyKey
	}

	// 0 в go-redis означает «без TTL».
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}

	if err := s.rdb.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Clear(ctx context.Context, key string) error {
	const op = "storage.redis.Clear"

	if key == "" {
		return storage.ErrEmptyKey
	}

	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *Storage) Close() error { return s.rdb.Close() }

var (
	_ storage.TokenStore = (*Storage)(nil)
	_ io.Closer          = (*Storage)(nil)
)
