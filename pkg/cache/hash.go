package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// GraphKey returns the key for the result of running passes, in order, over
// the graph whose serialized form hashes to graphHash. format is the output
// encoding stored under the key.
func GraphKey(graphHash string, passes []string, format string) string {
	if passes == nil {
		passes = []string{}
	}
	return hashKey("graph", graphHash, passes, format)
}
