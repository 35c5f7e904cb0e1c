package util

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// BulkKey returns a deterministic composite key for a set of members:
// prefix, ":" and the first 16 hex chars of the hash of the sorted members.
// Member order and duplicates do not matter.
func BulkKey(prefix string, keys []string) string {
	s := slices.Clone(keys)
	slices.Sort(s)
	s = slices.Compact(s)
	// NUL-joined so {"a,b"} and {"a", "b"} hash differently
	sum := sha256.Sum256([]byte(strings.Join(s, "\x00")))
	return prefix + ":" + hex.EncodeToString(sum[:8])
}
