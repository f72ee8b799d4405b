package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Width is the encoded size of one element in bytes.
const Width = 8

// EncodeVector encodes vec as a BLOB: a little-endian sequence of IEEE 754
// float64 values without a length prefix. The length is derived from the BLOB
// size on decode, so the encoding is exact and order preserving.
func EncodeVector(vec []float64) ([]byte, error) {
	if len(vec) == 0 {
		return nil, ErrEmpty
	}
	b := make([]byte, len(vec)*Width)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(b[i*Width:], math.Float64bits(v))
	}
	return b, nil
}

// DecodeVector decodes a BLOB produced by EncodeVector.
func DecodeVector(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, ErrEmpty
	}
	if len(b)%Width != 0 {
		return nil, fmt.Errorf("vector: invalid blob length %d (not multiple of %d)", len(b), Width)
	}
	n := len(b) / Width
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*Width:]))
	}
	return vec, nil
}

// Dimension returns the element count of an encoded vector, or -1 when the
// BLOB is not a valid encoding.
func Dimension(b []byte) int {
	if len(b) == 0 || len(b)%Width != 0 {
		return -1
	}
	return len(b) / Width
}
