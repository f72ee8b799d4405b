package namespace

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable is returned when the backing store cannot be
	// reached or refuses the operation. It is never retried internally.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNamespaceNotReady is returned by a handle whose namespace was never
	// created through Registry.Open, or whose table no longer exists.
	ErrNamespaceNotReady = errors.New("namespace not ready")

	// ErrDuplicateKey is returned when storing a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when reading a key that does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidTenant is returned for tenant identifiers that cannot name a table.
	ErrInvalidTenant = errors.New("invalid tenant")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidVector is returned for empty or non-finite vectors.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the dimension fixed for its namespace.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// KeyError reports a failed operation on one key. Err is one of the
// package sentinels and can be matched with errors.Is.
type KeyError struct {
	Op        string
	Namespace string
	Key       string
	Err       error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %s: key %q: %v", e.Op, e.Namespace, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

func storageError(op, namespace string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorageUnavailable, op, namespace, err)
}
