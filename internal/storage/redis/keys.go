package redis

import (
	"fmt"
	"strings"
)

// Key prefix for all starter data
const keyPrefix = "dojo"

// snapshotKey returns the Redis key for a persisted player store
func snapshotKey(namespace string) string {
	return fmt.Sprintf("%s:snapshot:%s", keyPrefix, namespace)
}

// playerKey returns the Redis key for a world player, keyed by owner address
func playerKey(owner string) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, strings.ToLower(owner))
}

// receiptKey returns the Redis key for a transaction receipt
func receiptKey(txHash string) string {
	return fmt.Sprintf("%s:receipt:%s", keyPrefix, txHash)
}

// blockKey returns the Redis key for the devnet block counter
func blockKey() string {
	return fmt.Sprintf("%s:block", keyPrefix)
}
