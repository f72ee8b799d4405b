// Package vecadmin provides read-only administrative inspection of the
// namespaces created by a namespace.Registry: listing the catalog and
// computing per-namespace statistics. Nothing here writes.
package vecadmin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/vecstore/engine"
	"github.com/viant/vecstore/namespace"
)

// NamespaceInfo is one catalog row.
type NamespaceInfo struct {
	Name   string
	Tenant namespace.TenantID
	// Dimension is the fixed vector length, 0 while no vector was stored.
	Dimension int
	CreatedAt string
}

// Stats summarises one namespace.
type Stats struct {
	Namespace string
	Records   int64
	// Dimension is the length recorded in the catalog, 0 if none.
	Dimension int
	// MinDimension and MaxDimension are measured over stored rows.
	MinDimension int
	MaxDimension int
}

// Consistent reports whether every stored vector has the recorded length.
func (s *Stats) Consistent() bool {
	if s.Records == 0 {
		return true
	}
	return s.MinDimension == s.MaxDimension && s.MinDimension == s.Dimension
}

// Admin runs inspection queries.
type Admin struct {
	db      *sql.DB
	dialect engine.Dialect
}

// New creates an Admin. For SQLite, db must have been opened after
// engine.RegisterVectorFunctions (engine.Open does this).
func New(db *sql.DB, dialect engine.Dialect) (*Admin, error) {
	if db == nil || dialect == nil {
		return nil, fmt.Errorf("vecadmin: db and dialect are required")
	}
	return &Admin{db: db, dialect: dialect}, nil
}

// Namespaces lists the catalog ordered by name. A database where no
// namespace was ever opened yields an empty list.
func (a *Admin) Namespaces(ctx context.Context) ([]NamespaceInfo, error) {
	q := `SELECT name, tenant, dimension, created_at FROM ` + engine.CatalogTable + ` ORDER BY name`
	rows, err := a.db.QueryContext(ctx, q)
	if err != nil {
		if a.dialect.IsUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: listing namespaces: %w", namespace.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []NamespaceInfo
	for rows.Next() {
		var (
			info      NamespaceInfo
			tenant    string
			dimension sql.NullInt64
			created   sql.NullString
		)
		if err := rows.Scan(&info.Name, &tenant, &dimension, &created); err != nil {
			return nil, fmt.Errorf("%w: scanning namespace: %w", namespace.ErrStorageUnavailable, err)
		}
		info.Tenant = namespace.TenantID(tenant)
		info.Dimension = int(dimension.Int64)
		info.CreatedAt = created.String
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing namespaces: %w", namespace.ErrStorageUnavailable, err)
	}
	return out, nil
}

// Stats computes record count and measured dimensions for tenant's
// namespace. A namespace that was never created fails with
// namespace.ErrNamespaceNotReady.
func (a *Admin) Stats(ctx context.Context, tenant namespace.TenantID) (*Stats, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	name := tenant.Namespace()
	stats := &Stats{Namespace: name}

	dim := a.dialect.DimensionExpr("vector")
	q := fmt.Sprintf("SELECT COUNT(*), MIN(%s), MAX(%s) FROM %s", dim, dim, a.dialect.QuoteIdent(name))
	var minDim, maxDim sql.NullInt64
	if err := a.db.QueryRowContext(ctx, q).Scan(&stats.Records, &minDim, &maxDim); err != nil {
		if a.dialect.IsUndefinedTable(err) {
			return nil, fmt.Errorf("%w: %s does not exist", namespace.ErrNamespaceNotReady, name)
		}
		return nil, fmt.Errorf("%w: stats %s: %w", namespace.ErrStorageUnavailable, name, err)
	}
	stats.MinDimension = int(minDim.Int64)
	stats.MaxDimension = int(maxDim.Int64)

	var recorded sql.NullInt64
	lookup := a.dialect.Rebind(`SELECT dimension FROM ` + engine.CatalogTable + ` WHERE name = ?`)
	err := a.db.QueryRowContext(ctx, lookup, name).Scan(&recorded)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("%w: stats %s: %w", namespace.ErrStorageUnavailable, name, err)
	}
	stats.Dimension = int(recorded.Int64)
	return stats, nil
}
