// file - хранилище токенов в JSON-файле на диске.
//
// Файл содержит плоский объект {"<key>": "<value>"}. Запись атомарна:
// сначала <path>.tmp, затем rename поверх основного файла. Права 0600 -
// в файле лежат учётные токены.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/volley-platform/web/internal/storage"
)

type Storage struct {
	mu   sync.Mutex
	path string
}

// New создаёт хранилище поверх файла path. Каталог создаётся лениво при первой записи.
func New(path string) (*Storage, error) {
	const op = "storage.file.New"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	return &Storage{path: path}, nil
}

// DefaultPath - ~/.config/volley/tokens.json (или ./tokens.json, если каталог конфигов неизвестен).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "tokens.json"
	}

	return filepath.Join(dir, "volley", "tokens.json")
}

// Path - путь к файлу хранилища.
func (s *Storage) Path() string { return s.path }

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	const op = "storage.file.Get"

	if key == "" {
		return "", storage.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadLocked()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	v, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return v, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	const op = "storage.file.Set"

	if key == "" {
		return storage.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadLocked()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data[key] = value
	if err := s.saveLocked(data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Clear(_ context.Context, key string) error {
	const op = "storage.file.Clear"

	if key == "" {
		return storage.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadLocked()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := data[key]; !ok {
		return nil
	}

	delete(data, key)
	if err := s.saveLocked(data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) loadLocked() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	if len(b) == 0 {
		return map[string]string{}, nil
	}

	data := map[string]string{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	return data, nil
}

func (s *Storage) saveLocked(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}

var _ storage.TokenStore = (*Storage)(nil)
