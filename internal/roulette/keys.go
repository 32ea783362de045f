package roulette

import (
	"fmt"
	"net/url"
	"time"
)

// Store key layout. Entry keys carry the shard index so one prefix listing
// covers exactly one shard; reverse-lookup keys exist for a future delete
// path and are never read today.
const (
	entryKeyPrefix   = "url."
	reverseKeyPrefix = "urlKey."
	counterCountKey  = "urlCount"
	counterPrefixKey = "urlPrefix"
)

// ShardPrefix returns the listing prefix covering every entry in a shard.
func ShardPrefix(shard int) string {
	return fmt.Sprintf("%s%d.", entryKeyPrefix, shard)
}

// EntryKey builds the key a submission is stored under: url.<shard>.<millis>.
// Two submissions landing on the same millisecond collide; the second one
// wins, same as any other per-key overwrite.
func EntryKey(shard int, at time.Time) string {
	return fmt.Sprintf("%s%d.%d", entryKeyPrefix, shard, at.UnixMilli())
}

// ReverseKey builds the lookup key from a URL back to its entry key.
func ReverseKey(rawURL string) string {
	return reverseKeyPrefix + url.QueryEscape(rawURL)
}
