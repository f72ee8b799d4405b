package namespace

import (
	"context"
	"database/sql"
	"fmt"
)

// Session is a unit of work pinned to one connection. Handles opened from a
// session use that connection and must not outlive the session.
type Session struct {
	registry *Registry
	conn     *sql.Conn
}

// Session acquires a connection, runs fn with it and releases the
// connection on every exit path, including a panic in fn.
func (r *Registry) Session(ctx context.Context, fn func(*Session) error) (err error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquiring connection: %w", ErrStorageUnavailable, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: releasing connection: %w", ErrStorageUnavailable, cerr)
		}
	}()
	return fn(&Session{registry: r, conn: conn})
}

// Open is Registry.Open bound to the session's connection.
func (s *Session) Open(ctx context.Context, tenant TenantID) (*VectorStore, error) {
	return s.registry.open(ctx, s.conn, tenant)
}
