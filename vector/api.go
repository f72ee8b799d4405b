package vector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmpty is returned for a nil or zero-length vector.
	ErrEmpty = errors.New("vector: empty vector")

	// ErrNonFinite is returned when a vector holds NaN or ±Inf.
	ErrNonFinite = errors.New("vector: non-finite value")
)

// Validate reports whether vec can be stored. Vectors must be non-empty and
// every element must be finite.
func Validate(vec []float64) error {
	if len(vec) == 0 {
		return ErrEmpty
	}
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d: %v", ErrNonFinite, i, v)
		}
	}
	return nil
}

// Equal reports whether a and b have the same length and bit-identical
// elements in the same order.
func Equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}
