package records

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveID maps a location to a stable item identifier. The same location
// always yields the same id across runs, so re-scans resolve to the same
// record.
func DeriveID(location string) string {
	sum := sha256.Sum256([]byte(location))
	return hex.EncodeToString(sum[:])[:12]
}
