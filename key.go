package safesubmit

import (
	"crypto/sha256"
	"encoding/hex"
)

// keySeparator sits between the hash prefix and the raw token in a storage key.
const keySeparator = ":"

// StorageKey derives the store-addressable form of an idempotency token:
// the lowercase hex SHA-256 of the token, a separator, then the raw token.
// The fixed-width prefix gives backends uniform key sizing while the suffix
// keeps keys human-traceable; the hash normalizes shape, it is not a
// security boundary.
func StorageKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:]) + keySeparator + token
}
