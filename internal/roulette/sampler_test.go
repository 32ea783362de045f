package roulette

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/viomck/urlroulette/internal/errx"
	"github.com/viomck/urlroulette/internal/kv"
)

func TestSampler_EstimateTotal(t *testing.T) {
	sampler := NewSampler(kv.NewMemoryStore(), 1000)

	tests := []struct {
		st   CounterState
		want int
	}{
		{CounterState{Count: 20, Prefix: 0}, 20},
		{CounterState{Count: 500, Prefix: 2}, 2500},
		{CounterState{Count: 0, Prefix: 0}, 0},
		{CounterState{Count: 0, Prefix: 1}, 1000},
	}

	for _, tt := range tests {
		if got := sampler.EstimateTotal(tt.st); got != tt.want {
			t.Errorf("EstimateTotal(%+v) = %d, want %d", tt.st, got, tt.want)
		}
	}
}

func TestDrawUniform(t *testing.T) {
	t.Run("fails fast on zero bound", func(t *testing.T) {
		if _, err := drawUniform(0); err == nil {
			t.Error("drawUniform(0) succeeded, want error")
		}
	})

	t.Run("fails fast on negative bound", func(t *testing.T) {
		if _, err := drawUniform(-5); err == nil {
			t.Error("drawUniform(-5) succeeded, want error")
		}
	})

	t.Run("stays within bound", func(t *testing.T) {
		for i := 0; i < 500; i++ {
			n, err := drawUniform(3)
			if err != nil {
				t.Fatalf("drawUniform(3) failed: %v", err)
			}
			if n < 0 || n >= 3 {
				t.Fatalf("drawUniform(3) = %d, out of [0, 3)", n)
			}
		}
	})
}

func TestSampler_Draw(t *testing.T) {
	ctx := context.Background()

	t.Run("empty estimate returns NoContent", func(t *testing.T) {
		sampler := NewSampler(kv.NewMemoryStore(), 1000)

		_, err := sampler.Draw(ctx, CounterState{})
		if errx.KindOf(err) != errx.NoContent {
			t.Errorf("Draw() error kind = %v, want NoContent", errx.KindOf(err))
		}
	})

	t.Run("empty shard listing returns NoContent", func(t *testing.T) {
		// Counter claims one entry but the store has nothing; happens
		// when estimation and reality diverge after a rollover race.
		sampler := NewSampler(kv.NewMemoryStore(), 1000)

		_, err := sampler.Draw(ctx, CounterState{Count: 1, Prefix: 0})
		if errx.KindOf(err) != errx.NoContent {
			t.Errorf("Draw() error kind = %v, want NoContent", errx.KindOf(err))
		}
	})

	t.Run("returns the stored value", func(t *testing.T) {
		store := kv.NewMemoryStore()
		if err := store.Put(ctx, "url.0.1700000000000", "https://example.com"); err != nil {
			t.Fatal(err)
		}

		sampler := NewSampler(store, 1000)
		got, err := sampler.Draw(ctx, CounterState{Count: 1, Prefix: 0})
		if err != nil {
			t.Fatalf("Draw() failed: %v", err)
		}
		if got != "https://example.com" {
			t.Errorf("Draw() = %q, want %q", got, "https://example.com")
		}
	})

	t.Run("propagates listing failures as Unavailable", func(t *testing.T) {
		boom := errors.New("store down")
		store := &mockStore{
			listFunc: func(ctx context.Context, prefix string) ([]string, error) {
				return nil, boom
			},
		}

		sampler := NewSampler(store, 1000)
		_, err := sampler.Draw(ctx, CounterState{Count: 1, Prefix: 0})
		if errx.KindOf(err) != errx.Unavailable {
			t.Errorf("Draw() error kind = %v, want Unavailable", errx.KindOf(err))
		}
		if !errors.Is(err, boom) {
			t.Errorf("Draw() error = %v, want wrapped %v", err, boom)
		}
	})
}

func TestSampler_Draw_ShardSelectionWeighting(t *testing.T) {
	// With urlPrefix=1, urlCount=500 the estimated population is 1500:
	// shard 0 holds 1000 assumed entries, shard 1 holds 500. Shard 0 must
	// therefore be listed ~2/3 of the time. With 12000 draws the standard
	// deviation of the observed ratio is ~0.0043, so a 0.03 tolerance is
	// about seven sigma.
	ctx := context.Background()

	hits := make(map[string]int)
	store := &mockStore{
		listFunc: func(ctx context.Context, prefix string) ([]string, error) {
			hits[prefix]++
			return []string{prefix + "1700000000000"}, nil
		},
		getFunc: func(ctx context.Context, key string) (string, error) {
			return "https://example.com", nil
		},
	}

	sampler := NewSampler(store, 1000)
	st := CounterState{Count: 500, Prefix: 1}

	const draws = 12000
	for i := 0; i < draws; i++ {
		if _, err := sampler.Draw(ctx, st); err != nil {
			t.Fatalf("Draw() failed on iteration %d: %v", i, err)
		}
	}

	for prefix := range hits {
		if !strings.HasPrefix(prefix, "url.") {
			t.Fatalf("unexpected listing prefix %q", prefix)
		}
	}

	shard0 := float64(hits[ShardPrefix(0)]) / draws
	shard1 := float64(hits[ShardPrefix(1)]) / draws

	if diff := shard0 - 2.0/3.0; diff < -0.03 || diff > 0.03 {
		t.Errorf("shard 0 selected %.3f of draws, want ~0.667", shard0)
	}
	if diff := shard1 - 1.0/3.0; diff < -0.03 || diff > 0.03 {
		t.Errorf("shard 1 selected %.3f of draws, want ~0.333", shard1)
	}
	if other := draws - hits[ShardPrefix(0)] - hits[ShardPrefix(1)]; other != 0 {
		t.Errorf("%d draws targeted shards outside the population", other)
	}
}

func TestSampler_Draw_UniformWithinShard(t *testing.T) {
	// Every key in the listed shard should be drawable.
	ctx := context.Background()
	store := kv.NewMemoryStore()

	const entries = 10
	for i := 0; i < entries; i++ {
		key := fmt.Sprintf("url.0.%d", 1700000000000+i)
		if err := store.Put(ctx, key, fmt.Sprintf("https://example.com/%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	sampler := NewSampler(store, 1000)
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		got, err := sampler.Draw(ctx, CounterState{Count: entries, Prefix: 0})
		if err != nil {
			t.Fatalf("Draw() failed: %v", err)
		}
		seen[got] = true
	}

	// P(missing any one of 10 keys over 2000 draws) is negligible.
	if len(seen) != entries {
		t.Errorf("observed %d distinct values over 2000 draws, want %d", len(seen), entries)
	}
}
