// Package engine opens the backing SQL database and describes, per driver,
// the handful of SQL and error-classification details the namespace layer
// needs: DDL for namespace and catalog tables, placeholder style, vector
// column encoding, and how uniqueness violations and missing tables surface.
// Two dialects are provided: SQLite via the pure-Go modernc.org/sqlite driver
// and PostgreSQL via github.com/lib/pq.
package engine
