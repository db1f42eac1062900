package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixSnapshot is the prefix for persisted cache snapshots
	KeyPrefixSnapshot = "bwf:snapshot:"
	// KeyAllSnapshots is the key for the set of all snapshot cache keys
	KeyAllSnapshots = "bwf:snapshots:all"
)

// SnapshotKey returns the Redis key for the snapshot of a cache key
func SnapshotKey(cacheKey string) string {
	return KeyPrefixSnapshot + cacheKey
}

// AllSnapshotsKey returns the key for the set of all snapshot cache keys
func AllSnapshotsKey() string {
	return KeyAllSnapshots
}

// ExtractCacheKey extracts the cache key from a snapshot Redis key
func ExtractCacheKey(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixSnapshot) || len(key) == len(KeyPrefixSnapshot) {
		return "", fmt.Errorf("invalid snapshot key: %s", key)
	}
	return key[len(KeyPrefixSnapshot):], nil
}
