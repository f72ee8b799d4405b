// Package vector holds the value-level rules for stored feature vectors:
//   - Validate: non-empty, finite float64 sequences only
//   - EncodeVector/DecodeVector: exact little-endian BLOB codec used by the
//     SQLite dialect
//   - Equal: element-wise comparison treating values bit-for-bit
package vector
