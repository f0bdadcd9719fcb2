// Package checksum produces the content token used for optimistic
// concurrency on entries. Clients echo it back in If-Match; a mismatch
// means the entry changed under them.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum computes the token for a content body as lowercase hex SHA-256.
// Identical bodies always yield identical tokens, so the value doubles
// as a cache validator.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}
