package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/volley-platform/web/internal/storage"
)

// Интеграционные тесты для пакета postgres:
// - поднимают реальный PostgreSQL через testcontainers-go (postgres:16-alpine);
// - применяют миграцию из ./migrations;
// - проверяют Get/Set (upsert)/Clear и ErrNotFound.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -count=1

// repoRootFromThisFile - корень репозитория относительно файла тестов.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres - поднимает PostgreSQL, применяет миграции и возвращает хранилище.
func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.db.Exec(ctx, readMigration(t, "1_init_tokens.up.sql"))
	require.NoError(t, err, "apply 1_init_tokens.up.sql")

	return st
}

func TestNew_BadDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "postgres://%zz")
	require.Error(t, err)
}

func TestIntegration_GetMissing_NotFound(t *testing.T) {
	st := startPostgres(t)

	_, err := st.Get(context.Background(), storage.TokenKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_SetUpsertClear(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, storage.TokenKey, "abc123"))
	require.NoError(t, st.Set(ctx, storage.TokenKey, "def456"))

	got, err := st.Get(ctx, storage.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "def456", got)

	var n int
	require.NoError(t, st.db.QueryRow(ctx, `SELECT count(*) FROM tokens`).Scan(&n))
	require.Equal(t, 1, n)

	require.NoError(t, st.Clear(ctx, storage.TokenKey))
	require.NoError(t, st.Clear(ctx, storage.TokenKey))

	_, err = st.Get(ctx, storage.TokenKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_EmptyValueStored(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, storage.TokenKey, ""))
	got, err := st.Get(ctx, storage.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "", got)
}
