// storage задаёт контракт долговременного хранилища access-токена на стороне клиента.
//
// Хранилище - простое key-value: ключ фиксированный (TokenKey), значение -
// непрозрачная строка токена. Изоляция между «источниками» (origin API для CLI,
// браузерная сессия для web) делается обёрткой Scoped, а не отдельными таблицами.
package storage

//go:generate mockgen -destination=../../mocks/mock_storage.go -package=mocks github.com/volley-platform/web/internal/storage TokenStore

import (
	"context"
	"errors"
)

// TokenKey - имя ключа, под которым сохраняется access-токен.
const TokenKey = "token"

var (
	// ErrNotFound - ключ отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrEmptyKey - пустой ключ (программная ошибка вызова).
	ErrEmptyKey = errors.New("empty key")
)

// TokenStore - долговременное key-value хранилище токенов.
type TokenStore interface {
	// Get возвращает значение или ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set перезаписывает значение ключа.
	Set(ctx context.Context, key, value string) error
	// Clear удаляет ключ; отсутствие ключа ошибкой не считается.
	Clear(ctx context.Context, key string) error
}

// Scoped возвращает хранилище, в котором все ключи префиксованы scope + ":".
// Пустой scope возвращает исходное хранилище.
func Scoped(s TokenStore, scope string) TokenStore {
	if scope == "" {
		return s
	}

	// Вложенные scope склеиваются, а не оборачиваются повторно.
	if sc, ok := s.(*scoped); ok {
		return &scoped{next: sc.next, prefix: sc.prefix + scope + ":"}
	}

	return &scoped{next: s, prefix: scope + ":"}
}

type scoped struct {
	next   TokenStore
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	return s.next.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.next.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Clear(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.next.Clear(ctx, s.prefix+key)
}
