// Package checksum fingerprints note content. The digest doubles as the
// change-detection key in the index sync and as the optimistic-locking
// token on note updates.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the SHA-256 digest of data as a lowercase hex string.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
