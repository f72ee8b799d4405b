package engine

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/viant/vecstore/config"
	"github.com/viant/vecstore/vector"
)

// PostgreSQL error codes used for classification.
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
	pgDuplicateTable  = "42P07"
	pgDuplicateObject = "42710"
)

// Postgres is the dialect for github.com/lib/pq. Vectors are stored as
// DOUBLE PRECISION[] and bound through pq.Float64Array, which formats every
// element with the shortest representation that parses back to the same
// float64.
type Postgres struct{}

func (Postgres) Name() string   { return config.DriverPostgres }
func (Postgres) Driver() string { return "postgres" }

// Rebind replaces each '?' with $1, $2, ... Queries built by vecstore never
// carry literal question marks.
func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (Postgres) QuoteIdent(name string) string { return pq.QuoteIdentifier(name) }

func (Postgres) NamespaceDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + pq.QuoteIdentifier(table) + ` (
    id     BIGSERIAL PRIMARY KEY,
    key    TEXT NOT NULL UNIQUE,
    vector DOUBLE PRECISION[] NOT NULL
)`
}

func (Postgres) CatalogDDL() string {
	return `CREATE TABLE IF NOT EXISTS ` + CatalogTable + ` (
    name       TEXT PRIMARY KEY,
    tenant     TEXT NOT NULL,
    dimension  INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
}

func (Postgres) EncodeVector(vec []float64) (any, error) {
	if len(vec) == 0 {
		return nil, vector.ErrEmpty
	}
	return pq.Float64Array(vec), nil
}

func (Postgres) NewVectorScanner() VectorScanner { return &arrayScanner{} }

func (Postgres) DimensionExpr(column string) string {
	return "array_length(" + column + ", 1)"
}

func (Postgres) IsUniqueViolation(err error) bool { return pgCode(err) == pgUniqueViolation }

func (Postgres) IsUndefinedTable(err error) bool { return pgCode(err) == pgUndefinedTable }

func (Postgres) IsDuplicateObject(err error) bool {
	switch pgCode(err) {
	case pgDuplicateTable, pgDuplicateObject:
		return true
	}
	return false
}

func pgCode(err error) string {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return ""
}

type arrayScanner struct {
	arr pq.Float64Array
}

func (s *arrayScanner) Scan(src any) error { return s.arr.Scan(src) }

func (s *arrayScanner) Vector() ([]float64, error) {
	if len(s.arr) == 0 {
		return nil, vector.ErrEmpty
	}
	out := make([]float64, len(s.arr))
	copy(out, s.arr)
	return out, nil
}
