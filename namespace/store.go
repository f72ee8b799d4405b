package namespace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/viant/vecstore/engine"
	"github.com/viant/vecstore/vector"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State is the lifecycle state of a VectorStore handle.
type State int

const (
	// Uninitialized is the state of a handle not produced by Registry.Open.
	Uninitialized State = iota
	// Ready handles have a namespace that exists in the backing store.
	Ready
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

// RecordRef acknowledges a stored record.
type RecordRef struct {
	// ID is the surrogate identifier assigned by the backing store.
	ID        int64
	Key       string
	Namespace string
}

// Record is a stored row.
type Record struct {
	ID     int64
	Key    string
	Vector []float64
}

// VectorStore stores and reads vectors in one tenant's namespace. Obtain it
// from Registry.Open or Session.Open; the zero value is Uninitialized and
// every operation on it fails with ErrNamespaceNotReady.
//
// A VectorStore is safe for concurrent use.
type VectorStore struct {
	state     State
	tenant    TenantID
	namespace string

	q       querier
	dialect engine.Dialect
	logger  *zap.Logger
	tracer  trace.Tracer

	insertSQL string
	selectSQL string
	existsSQL string
	fixDimSQL string
	getDimSQL string
}

func newVectorStore(r *Registry, q querier, tenant TenantID, name string) *VectorStore {
	d := r.dialect
	table := d.QuoteIdent(name)
	return &VectorStore{
		state:     Ready,
		tenant:    tenant,
		namespace: name,
		q:         q,
		dialect:   d,
		logger:    r.logger.With(zap.String("namespace", name)),
		tracer:    r.tracer,
		insertSQL: d.Rebind(`INSERT INTO ` + table + `(key, vector) VALUES (?, ?) RETURNING id`),
		selectSQL: d.Rebind(`SELECT id, vector FROM ` + table + ` WHERE key = ?`),
		existsSQL: d.Rebind(`SELECT 1 FROM ` + table + ` WHERE key = ?`),
		fixDimSQL: d.Rebind(`UPDATE ` + engine.CatalogTable + ` SET dimension = ? WHERE name = ? AND dimension IS NULL`),
		getDimSQL: d.Rebind(`SELECT dimension FROM ` + engine.CatalogTable + ` WHERE name = ?`),
	}
}

// State reports the handle state.
func (s *VectorStore) State() State {
	if s == nil {
		return Uninitialized
	}
	return s.state
}

// Namespace returns the table name, or "" for an uninitialized handle.
func (s *VectorStore) Namespace() string {
	if s == nil {
		return ""
	}
	return s.namespace
}

// Tenant returns the tenant the handle was opened for.
func (s *VectorStore) Tenant() TenantID {
	if s == nil {
		return ""
	}
	return s.tenant
}

func (s *VectorStore) ready(op string) error {
	if s.State() != Ready {
		return fmt.Errorf("%w: %s on a handle not opened through the registry", ErrNamespaceNotReady, op)
	}
	return nil
}

// Store inserts vec under key. It never overwrites: an existing key fails
// with ErrDuplicateKey and the stored vector is left unchanged. On success
// the record is committed and visible to subsequent reads.
func (s *VectorStore) Store(ctx context.Context, key string, vec []float64) (RecordRef, error) {
	if err := s.ready("store"); err != nil {
		return RecordRef{}, err
	}
	start := time.Now()
	ctx, span := s.startSpan(ctx, "VectorStore.Store", key, attribute.Int("vector.dimension", len(vec)))
	defer span.End()

	ref, err := s.store(ctx, key, vec)
	s.finish(span, "store", start, err)
	return ref, err
}

func (s *VectorStore) store(ctx context.Context, key string, vec []float64) (RecordRef, error) {
	if key == "" {
		return RecordRef{}, s.keyError("store", key, ErrInvalidKey)
	}
	if err := vector.Validate(vec); err != nil {
		return RecordRef{}, s.keyError("store", key, fmt.Errorf("%w: %w", ErrInvalidVector, err))
	}
	value, err := s.dialect.EncodeVector(vec)
	if err != nil {
		return RecordRef{}, s.keyError("store", key, fmt.Errorf("%w: %w", ErrInvalidVector, err))
	}

	tx, err := s.q.BeginTx(ctx, nil)
	if err != nil {
		return RecordRef{}, storageError("store", s.namespace, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.fixDimension(ctx, tx, key, len(vec)); err != nil {
		if errors.Is(err, ErrDimensionMismatch) {
			// an existing key reports the duplicate regardless of length
			exists, xerr := s.keyExists(ctx, tx, key)
			if xerr != nil {
				return RecordRef{}, xerr
			}
			if exists {
				return RecordRef{}, s.keyError("store", key, ErrDuplicateKey)
			}
		}
		return RecordRef{}, err
	}

	s.logger.Debug("query", zap.String("sql", s.insertSQL), zap.String("key", key))
	var id int64
	if err := tx.QueryRowContext(ctx, s.insertSQL, key, value).Scan(&id); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return RecordRef{}, s.keyError("store", key, ErrDuplicateKey)
		}
		return RecordRef{}, s.classify("store", err)
	}
	if err := tx.Commit(); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return RecordRef{}, s.keyError("store", key, ErrDuplicateKey)
		}
		return RecordRef{}, s.classify("store", err)
	}
	return RecordRef{ID: id, Key: key, Namespace: s.namespace}, nil
}

// fixDimension records n as the namespace dimension when none is set yet,
// then checks n against the recorded value. It runs inside the insert
// transaction so two first writers of different lengths cannot both win.
func (s *VectorStore) fixDimension(ctx context.Context, tx *sql.Tx, key string, n int) error {
	recorded, err := s.recordedDimension(ctx, tx)
	if err != nil {
		return err
	}
	if !recorded.Valid {
		s.logger.Debug("exec", zap.String("sql", s.fixDimSQL))
		if _, err := tx.ExecContext(ctx, s.fixDimSQL, n, s.namespace); err != nil {
			return s.classify("store", err)
		}
		if recorded, err = s.recordedDimension(ctx, tx); err != nil {
			return err
		}
	}
	if recorded.Valid && int(recorded.Int64) != n {
		return s.keyError("store", key, fmt.Errorf("%w: namespace holds %d-element vectors, got %d",
			ErrDimensionMismatch, recorded.Int64, n))
	}
	return nil
}

func (s *VectorStore) keyExists(ctx context.Context, tx *sql.Tx, key string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, s.existsSQL, key).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, s.classify("store", err)
	}
	return true, nil
}

func (s *VectorStore) recordedDimension(ctx context.Context, tx *sql.Tx) (sql.NullInt64, error) {
	var recorded sql.NullInt64
	if err := tx.QueryRowContext(ctx, s.getDimSQL, s.namespace).Scan(&recorded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return recorded, fmt.Errorf("%w: %s is missing from %s", ErrNamespaceNotReady, s.namespace, engine.CatalogTable)
		}
		return recorded, s.classify("store", err)
	}
	return recorded, nil
}

// Read returns the vector stored under key, or ErrNotFound. Keys are
// compared exactly.
func (s *VectorStore) Read(ctx context.Context, key string) ([]float64, error) {
	rec, err := s.get(ctx, "read", "VectorStore.Read", key)
	if err != nil {
		return nil, err
	}
	return rec.Vector, nil
}

// Get returns the full record stored under key, or ErrNotFound.
func (s *VectorStore) Get(ctx context.Context, key string) (*Record, error) {
	return s.get(ctx, "get", "VectorStore.Get", key)
}

func (s *VectorStore) get(ctx context.Context, op, spanName, key string) (*Record, error) {
	if err := s.ready(op); err != nil {
		return nil, err
	}
	start := time.Now()
	ctx, span := s.startSpan(ctx, spanName, key)
	defer span.End()

	rec, err := s.lookup(ctx, op, key)
	s.finish(span, "read", start, err)
	return rec, err
}

func (s *VectorStore) lookup(ctx context.Context, op, key string) (*Record, error) {
	if key == "" {
		return nil, s.keyError(op, key, ErrInvalidKey)
	}
	s.logger.Debug("query", zap.String("sql", s.selectSQL), zap.String("key", key))

	rec := &Record{Key: key}
	dest := s.dialect.NewVectorScanner()
	if err := s.q.QueryRowContext(ctx, s.selectSQL, key).Scan(&rec.ID, dest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.keyError(op, key, ErrNotFound)
		}
		return nil, s.classify(op, err)
	}
	vec, err := dest.Vector()
	if err != nil {
		return nil, fmt.Errorf("%s %s: key %q: decoding vector: %w", op, s.namespace, key, err)
	}
	rec.Vector = vec
	return rec, nil
}

func (s *VectorStore) keyError(op, key string, err error) error {
	return &KeyError{Op: op, Namespace: s.namespace, Key: key, Err: err}
}

// classify maps a backing store failure to ErrNamespaceNotReady when the
// table is gone and to ErrStorageUnavailable otherwise.
func (s *VectorStore) classify(op string, err error) error {
	if s.dialect.IsUndefinedTable(err) {
		return fmt.Errorf("%w: %s %s: %w", ErrNamespaceNotReady, op, s.namespace, err)
	}
	return storageError(op, s.namespace, err)
}

func (s *VectorStore) startSpan(ctx context.Context, name, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("namespace", s.namespace),
		attribute.String("key", key),
	)
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *VectorStore) finish(span trace.Span, op string, start time.Time, err error) {
	recordOperation(op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
