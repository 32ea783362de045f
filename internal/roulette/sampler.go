package roulette

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/viomck/urlroulette/internal/errx"
	"github.com/viomck/urlroulette/internal/kv"
)

// Sampler picks one stored URL with approximately-uniform probability over
// the estimated population, never listing more than one shard's worth of
// keys per draw.
type Sampler struct {
	store    kv.Store
	capacity int
}

// NewSampler creates a sampler over store. capacity must match the counter's
// shard capacity; values <= 0 fall back to DefaultShardCapacity.
func NewSampler(store kv.Store, capacity int) *Sampler {
	if capacity <= 0 {
		capacity = DefaultShardCapacity
	}
	return &Sampler{
		store:    store,
		capacity: capacity,
	}
}

// EstimateTotal approximates the stored population from counter state,
// assuming every closed shard is exactly full. The estimate drifts if
// entries ever disappear from closed shards; sampling weight accepts that
// rather than paying for an exact count.
func (s *Sampler) EstimateTotal(st CounterState) int {
	return st.Prefix*s.capacity + st.Count
}

// Draw returns one uniformly sampled URL. The shard is picked by drawing a
// target position across the whole estimated population, which weights each
// shard by its assumed size: closed shards at capacity/total, the current
// partial shard at count/total. A naive uniform pick over shard indices
// would over-select the sparse current shard.
//
// An empty estimate or an empty shard listing (possible right after a
// rollover race) surfaces as errx.NoContent.
func (s *Sampler) Draw(ctx context.Context, st CounterState) (string, error) {
	const op = "roulette.sampler.Draw"

	total := s.EstimateTotal(st)
	if total <= 0 {
		return "", errx.E(op, errx.NoContent, errors.New("nothing stored yet"))
	}

	target, err := drawUniform(total)
	if err != nil {
		return "", errx.E(op, errx.Internal, err)
	}
	shard := target / s.capacity

	keys, err := s.store.List(ctx, ShardPrefix(shard))
	if err != nil {
		return "", errx.E(op, errx.Unavailable, err)
	}
	if len(keys) == 0 {
		return "", errx.E(op, errx.NoContent,
			fmt.Errorf("shard %d listed empty", shard))
	}

	idx, err := drawUniform(len(keys))
	if err != nil {
		return "", errx.E(op, errx.Internal, err)
	}

	value, err := s.store.Get(ctx, keys[idx])
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return "", errx.E(op, errx.NoContent, err)
		}
		return "", errx.E(op, errx.Unavailable, err)
	}
	return value, nil
}

// drawUniform returns a uniformly distributed integer in [0, n).
// n <= 0 is a caller bug and fails fast instead of producing an arbitrary
// value.
func drawUniform(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("draw bound must be positive, got %d", n)
	}
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(r.Int64()), nil
}
