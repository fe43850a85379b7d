// memory - хранилище токенов в памяти процесса (тесты, env=local).
package memory

import (
	"context"
	"sync"

	"github.com/volley-platform/web/internal/storage"
)

type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

func New() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", storage.ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Storage) Clear(_ context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Len - количество ключей (для тестов и отладки).
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.TokenStore = (*Storage)(nil)
