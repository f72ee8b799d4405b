// Package namespace implements per-tenant vector storage on top of a SQL
// database.
//
// Each tenant owns one table, vector_store_<tenant>, created on demand by a
// Registry. The registry hands out VectorStore handles; a handle stores
// write-once vectors under unique keys and reads them back exactly.
//
//	db, dialect, err := engine.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	registry, err := namespace.NewRegistry(db, dialect, namespace.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	store, err := registry.Open(ctx, namespace.TenantFromInt(123))
//	if err != nil {
//	    return err
//	}
//	ref, err := store.Store(ctx, "url.xyz.com", vec)
//	switch {
//	case errors.Is(err, namespace.ErrDuplicateKey):
//	    // already cached
//	case err != nil:
//	    return err
//	}
//	got, err := store.Read(ctx, "url.xyz.com")
//
// Key uniqueness is enforced by the table's UNIQUE constraint, so concurrent
// writers of one key race safely: one succeeds and the rest see
// ErrDuplicateKey. The package holds no lock table and no cache of keys or
// vectors; the registry only remembers which namespaces it already created.
//
// Vectors within a namespace share one dimension, fixed by the first stored
// vector or by WithDimension. NaN and ±Inf are rejected.
package namespace
