package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volley-platform/web/internal/storage"
)

type Storage struct {
	db *pgxpool.Pool
}

// New создает новое подключение к PostgreSQL. Схема - migrations/1_init_tokens.up.sql.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// Get читает значение по ключу.
func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.postgres.Get"

	if key == "" {
		return "", storage.ErrEmptyKey
	}

	query := `
		SELECT value
		FROM tokens
		WHERE key = $1
	`

	var value string
	if err := s.db.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

// Set перезаписывает значение (upsert по ключу).
func (s *Storage) Set(ctx context.Context, key, value string) error {
	const op = "storage.postgres.Set"

	if key == "" {
		return storage.ErrEmptyKey
	}

	query := `
		INSERT INTO tokens(key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Clear удаляет ключ; отсутствие строки не ошибка.
func (s *Storage) Clear(ctx context.Context, key string) error {
	const op = "storage.postgres.Clear"

	if key == "" {
		return storage.ErrEmptyKey
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM tokens WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

// Проверка на соответствие интерфейсам.
var (
	_ storage.TokenStore = (*Storage)(nil)
	_ io.Closer          = (*Storage)(nil)
)
