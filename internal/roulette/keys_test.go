package roulette

import (
	"testing"
	"time"
)

func TestEntryKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	if got := EntryKey(0, at); got != "url.0.1700000000123" {
		t.Errorf("EntryKey() = %q, want %q", got, "url.0.1700000000123")
	}
	if got := EntryKey(7, at); got != "url.7.1700000000123" {
		t.Errorf("EntryKey() = %q, want %q", got, "url.7.1700000000123")
	}
}

func TestShardPrefix(t *testing.T) {
	if got := ShardPrefix(0); got != "url.0." {
		t.Errorf("ShardPrefix(0) = %q, want %q", got, "url.0.")
	}
	if got := ShardPrefix(12); got != "url.12." {
		t.Errorf("ShardPrefix(12) = %q, want %q", got, "url.12.")
	}
}

func TestEntryKeyMatchesShardPrefix(t *testing.T) {
	key := EntryKey(3, time.Now())
	prefix := ShardPrefix(3)

	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		t.Errorf("EntryKey %q does not start with ShardPrefix %q", key, prefix)
	}

	// A shard's prefix must not match a different shard's keys.
	other := EntryKey(31, time.Now())
	if other[:len(prefix)] == prefix {
		t.Errorf("EntryKey %q unexpectedly matches ShardPrefix %q", other, prefix)
	}
}

func TestReverseKey(t *testing.T) {
	got := ReverseKey("https://example.com/a b?x=1&y=2")
	want := "urlKey.https%3A%2F%2Fexample.com%2Fa+b%3Fx%3D1%26y%3D2"

	if got != want {
		t.Errorf("ReverseKey() = %q, want %q", got, want)
	}
}
