package record

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashOf computes the hex-encoded SHA-256 digest of raw content.
// It is used only as a stable equality key for deduplication.
func HashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
