// open собирает хранилище токенов по конфигурации (storage.driver).
package open

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/volley-platform/web/internal/config"
	"github.com/volley-platform/web/internal/storage"
	"github.com/volley-platform/web/internal/storage/file"
	"github.com/volley-platform/web/internal/storage/memory"
	"github.com/volley-platform/web/internal/storage/postgres"
	"github.com/volley-platform/web/internal/storage/redis"
)

// Store - хранилище плюс функция освобождения ресурсов.
type Store struct {
	storage.TokenStore
	io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open создаёт бекенд по cfg.Driver. Для redis/postgres выполняется ping (fail-fast).
func Open(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*Store, error) {
	const op = "storage.open.Open"

	if log == nil {
		log = slog.Default()
	}

	switch cfg.Driver {
	case config.StorageMemory:
		log.Warn("token_storage_in_memory", slog.String("hint", "tokens are lost on restart"))
		return &Store{TokenStore: memory.New(), Closer: nopCloser{}}, nil

	case config.StorageFile, "":
		path := cfg.FilePath
		if path == "" {
			path = file.DefaultPath()
		}

		st, err := file.New(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		log.Info("token_storage_file", slog.String("path", path))
		return &Store{TokenStore: st, Closer: nopCloser{}}, nil

	case config.StorageRedis:
		st, err := redis.New(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		log.Info("token_storage_redis", slog.String("prefix", cfg.RedisPrefix), slog.Duration("ttl", cfg.TokenTTL))
		return &Store{TokenStore: st, Closer: st}, nil

	case config.StoragePostgres:
		st, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		log.Info("token_storage_postgres")
		return &Store{TokenStore: st, Closer: st}, nil

	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}
}
