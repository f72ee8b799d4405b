package namespace

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/viant/vecstore/config"
	"github.com/viant/vecstore/engine"
)

// postgresDSNEnv enables the PostgreSQL variant of backend tests.
const postgresDSNEnv = "VECSTORE_TEST_POSTGRES_DSN"

type backend struct {
	db      *sql.DB
	dialect engine.Dialect
}

// forEachBackend runs fn against a fresh SQLite database and, when
// VECSTORE_TEST_POSTGRES_DSN is set, against PostgreSQL.
func forEachBackend(t *testing.T, fn func(t *testing.T, b backend)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newSQLiteBackend(t))
	})
	t.Run("postgres", func(t *testing.T) {
		dsn := os.Getenv(postgresDSNEnv)
		if dsn == "" {
			t.Skipf("%s not set", postgresDSNEnv)
		}
		db, dialect, err := engine.Open(config.Database{Driver: config.DriverPostgres, DSN: dsn, MaxOpenConns: 16})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		fn(t, backend{db: db, dialect: dialect})
	})
}

func newSQLiteBackend(t *testing.T) backend {
	t.Helper()
	db, dialect, err := engine.OpenSQLite(filepath.Join(t.TempDir(), "vecstore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return backend{db: db, dialect: dialect}
}

func newRegistry(t *testing.T, b backend, opts ...Option) *Registry {
	t.Helper()
	r, err := NewRegistry(b.db, b.dialect, opts...)
	require.NoError(t, err)
	return r
}

// uniqueTenant returns a tenant that is not shared with other tests, so
// PostgreSQL runs against a long-lived database do not collide.
func uniqueTenant(base string) TenantID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return TenantID(base + "_" + suffix)
}

func tableCount(t *testing.T, b backend, name string) int {
	t.Helper()
	var q string
	switch b.dialect.Name() {
	case config.DriverPostgres:
		q = `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1`
	default:
		q = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}
	var n int
	require.NoError(t, b.db.QueryRow(q, name).Scan(&n))
	return n
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1.0
	}
	return v
}
