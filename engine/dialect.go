package engine

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/viant/vecstore/config"
)

// CatalogTable records every namespace created through the registry.
const CatalogTable = "vector_store_namespaces"

// Dialect captures the driver-specific parts of the backing store contract.
type Dialect interface {
	// Name returns the configuration name of the dialect.
	Name() string

	// Driver returns the database/sql driver name.
	Driver() string

	// Rebind rewrites '?' placeholders into the driver's style.
	Rebind(query string) string

	// QuoteIdent quotes a table name.
	QuoteIdent(name string) string

	// NamespaceDDL returns CREATE TABLE IF NOT EXISTS for a namespace table
	// with columns id (surrogate), key (unique text) and vector.
	NamespaceDDL(table string) string

	// CatalogDDL returns CREATE TABLE IF NOT EXISTS for CatalogTable.
	CatalogDDL() string

	// EncodeVector converts vec into a value bindable to the vector column.
	EncodeVector(vec []float64) (any, error)

	// NewVectorScanner returns a scan destination for the vector column.
	NewVectorScanner() VectorScanner

	// DimensionExpr returns a SQL expression yielding the element count of
	// the vector column.
	DimensionExpr(column string) string

	// IsUniqueViolation reports a UNIQUE/PRIMARY KEY constraint failure.
	IsUniqueViolation(err error) bool

	// IsUndefinedTable reports a statement against a table that does not exist.
	IsUndefinedTable(err error) bool

	// IsDuplicateObject reports a DDL failure because the object already exists.
	IsDuplicateObject(err error) bool
}

// VectorScanner is a sql.Scanner for the vector column.
type VectorScanner interface {
	sql.Scanner

	// Vector returns the decoded vector after a successful Scan.
	Vector() ([]float64, error)
}

// DialectFor returns the dialect registered for driver.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", config.DriverSQLite:
		return SQLite{}, nil
	case config.DriverPostgres, "postgresql":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", config.ErrInvalidConfig, driver)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
