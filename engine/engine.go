package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/viant/vecstore/config"
)

const pingTimeout = 5 * time.Second

// Open opens the database described by cfg, applies pool settings and
// verifies connectivity. The returned Dialect matches cfg.Driver.
func Open(cfg config.Database) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	dsn := cfg.DSN
	if dialect.Name() == config.DriverSQLite {
		if err := RegisterVectorFunctions(); err != nil {
			return nil, nil, err
		}
		dsn = SQLiteDSN(cfg.DSN, cfg.BusyTimeout)
	}

	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, dialect, nil
}

// OpenSQLite opens a SQLite database at path with the default pragmas. It
// is a shortcut for Open with the sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite".
func OpenSQLite(path string) (*sql.DB, Dialect, error) {
	cfg := config.Default().Database
	cfg.Driver = config.DriverSQLite
	cfg.DSN = path
	return Open(cfg)
}

// SQLiteDSN appends the pragmas vecstore relies on to a SQLite DSN: a busy
// timeout, WAL journaling and immediate write transactions so concurrent
// writers queue instead of failing with SQLITE_BUSY on lock upgrade.
func SQLiteDSN(dsn string, busyTimeout time.Duration) string {
	if dsn == ":memory:" {
		return dsn
	}
	params := []string{"_txlock=immediate"}
	if busyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()))
	}
	params = append(params, "_pragma=journal_mode(WAL)")

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
