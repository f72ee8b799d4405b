package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/vecstore/config"
	"github.com/viant/vecstore/vector"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite is the dialect for modernc.org/sqlite. Vectors are stored as BLOBs
// encoded with vector.EncodeVector.
type SQLite struct{}

func (SQLite) Name() string   { return config.DriverSQLite }
func (SQLite) Driver() string { return "sqlite" }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) QuoteIdent(name string) string { return quoteIdent(name) }

func (SQLite) NamespaceDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + quoteIdent(table) + ` (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    key    TEXT NOT NULL UNIQUE,
    vector BLOB NOT NULL
)`
}

func (SQLite) CatalogDDL() string {
	return `CREATE TABLE IF NOT EXISTS ` + CatalogTable + ` (
    name       TEXT PRIMARY KEY,
    tenant     TEXT NOT NULL,
    dimension  INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
}

func (SQLite) EncodeVector(vec []float64) (any, error) {
	return vector.EncodeVector(vec)
}

func (SQLite) NewVectorScanner() VectorScanner { return &blobScanner{} }

func (SQLite) DimensionExpr(column string) string {
	return "vec_dim(" + column + ")"
}

func (SQLite) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

func (SQLite) IsUndefinedTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func (SQLite) IsDuplicateObject(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

type blobScanner struct {
	blob []byte
}

func (s *blobScanner) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		s.blob = append(s.blob[:0], v...)
		return nil
	case nil:
		s.blob = nil
		return nil
	default:
		return fmt.Errorf("engine: unsupported vector column type %T; want BLOB", src)
	}
}

func (s *blobScanner) Vector() ([]float64, error) {
	return vector.DecodeVector(s.blob)
}
