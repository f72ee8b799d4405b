package namespace

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/viant/vecstore/engine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const instrumentationName = "github.com/viant/vecstore/namespace"

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Registry resolves tenants to VectorStore handles, creating each tenant's
// table on first use.
type Registry struct {
	db        *sql.DB
	dialect   engine.Dialect
	logger    *zap.Logger
	tracer    trace.Tracer
	dimension int

	group   singleflight.Group
	mu      sync.RWMutex        // protects ensured
	ensured map[string]struct{} // namespaces created or confirmed by this registry
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer used for Open, Store and Read spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithDimension fixes the vector length for every namespace the registry
// opens. Opening a namespace that already recorded another length fails with
// ErrDimensionMismatch. Zero leaves the length to the first stored vector.
func WithDimension(n int) Option {
	return func(r *Registry) { r.dimension = n }
}

// NewRegistry creates a registry over db. The registry does not own db; the
// caller closes it.
func NewRegistry(db *sql.DB, dialect engine.Dialect, opts ...Option) (*Registry, error) {
	if db == nil {
		return nil, fmt.Errorf("namespace: db is nil")
	}
	if dialect == nil {
		return nil, fmt.Errorf("namespace: dialect is nil")
	}
	r := &Registry{
		db:      db,
		dialect: dialect,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(instrumentationName),
		ensured: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.dimension < 0 {
		return nil, fmt.Errorf("namespace: dimension must not be negative, got %d", r.dimension)
	}
	return r, nil
}

// Open returns a ready handle for tenant, creating its table if needed.
// Calling Open repeatedly, concurrently or from several processes is safe;
// an existing table is success.
func (r *Registry) Open(ctx context.Context, tenant TenantID) (*VectorStore, error) {
	return r.open(ctx, r.db, tenant)
}

func (r *Registry) open(ctx context.Context, q querier, tenant TenantID) (*VectorStore, error) {
	start := time.Now()
	name := tenant.Namespace()

	ctx, span := r.tracer.Start(ctx, "Registry.Open", trace.WithAttributes(
		attribute.String("namespace", name),
		attribute.String("db.system", r.dialect.Name()),
	))
	defer span.End()

	err := tenant.Validate()
	if err == nil {
		err = r.ensure(ctx, q, tenant, name)
	}
	recordOperation("open", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return newVectorStore(r, q, tenant, name), nil
}

func (r *Registry) isEnsured(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ensured[name]
	return ok
}

// ensure creates name at most once per registry. Concurrent callers for the
// same namespace share one creation attempt.
func (r *Registry) ensure(ctx context.Context, q querier, tenant TenantID, name string) error {
	if r.isEnsured(name) {
		return nil
	}
	_, err, _ := r.group.Do(name, func() (any, error) {
		if r.isEnsured(name) {
			return nil, nil
		}
		if err := r.create(ctx, q, tenant, name); err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.ensured[name] = struct{}{}
		r.mu.Unlock()
		NamespacesEnsured.Inc()
		return nil, nil
	})
	return err
}

func (r *Registry) create(ctx context.Context, q querier, tenant TenantID, name string) error {
	for _, ddl := range []string{r.dialect.CatalogDDL(), r.dialect.NamespaceDDL(name)} {
		if err := r.execDDL(ctx, q, name, ddl); err != nil {
			return err
		}
	}

	dimension := sql.NullInt64{Int64: int64(r.dimension), Valid: r.dimension > 0}
	register := r.dialect.Rebind(`INSERT INTO ` + engine.CatalogTable + `(name, tenant, dimension)
VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`)
	r.logger.Debug("exec", zap.String("namespace", name), zap.String("sql", register))
	if _, err := q.ExecContext(ctx, register, name, string(tenant), dimension); err != nil {
		return storageError("register", name, err)
	}

	if r.dimension > 0 {
		if err := r.checkDimension(ctx, q, name); err != nil {
			return err
		}
	}

	r.logger.Info("namespace ready",
		zap.String("namespace", name),
		zap.String("tenant", string(tenant)),
		zap.String("driver", r.dialect.Name()),
	)
	return nil
}

// execDDL runs a CREATE ... IF NOT EXISTS statement. PostgreSQL can still
// report a duplicate when two sessions race on the same table; that is
// treated as success.
func (r *Registry) execDDL(ctx context.Context, q querier, name, ddl string) error {
	r.logger.Debug("exec", zap.String("namespace", name), zap.String("sql", ddl))
	_, err := q.ExecContext(ctx, ddl)
	if err == nil || r.dialect.IsDuplicateObject(err) || r.dialect.IsUniqueViolation(err) {
		return nil
	}
	return storageError("create", name, err)
}

func (r *Registry) checkDimension(ctx context.Context, q querier, name string) error {
	fix := r.dialect.Rebind(`UPDATE ` + engine.CatalogTable + ` SET dimension = ? WHERE name = ? AND dimension IS NULL`)
	if _, err := q.ExecContext(ctx, fix, r.dimension, name); err != nil {
		return storageError("create", name, err)
	}
	var recorded sql.NullInt64
	lookup := r.dialect.Rebind(`SELECT dimension FROM ` + engine.CatalogTable + ` WHERE name = ?`)
	if err := q.QueryRowContext(ctx, lookup, name).Scan(&recorded); err != nil {
		return storageError("create", name, err)
	}
	if recorded.Valid && int(recorded.Int64) != r.dimension {
		return fmt.Errorf("%w: namespace %s holds %d-element vectors, registry expects %d",
			ErrDimensionMismatch, name, recorded.Int64, r.dimension)
	}
	return nil
}
