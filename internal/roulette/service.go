package roulette

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/viomck/urlroulette/internal/errx"
	"github.com/viomck/urlroulette/internal/kv"
)

const (
	// DefaultShardCapacity is the shard size at which the counter rolls
	// over. It matches kv.MaxListKeys so a full shard still fits in one
	// listing call.
	DefaultShardCapacity = kv.MaxListKeys

	MaxURLLength = 2048
)

// Service defines the business operations of the URL pool.
type Service interface {
	Submit(ctx context.Context, rawURL string) error
	Draw(ctx context.Context) (string, error)
	Stats(ctx context.Context) (CounterState, error)
}

// service implements the Service interface.
type service struct {
	store   kv.Store
	counter *Counter
	sampler *Sampler
	now     func() time.Time
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	ShardCapacity int              // entries per shard before rollover (default: DefaultShardCapacity)
	Now           func() time.Time // clock for entry keys (default: time.Now)
}

// NewService creates a new service instance.
func NewService(store kv.Store, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	capacity := config.ShardCapacity
	if capacity <= 0 || capacity > kv.MaxListKeys {
		capacity = DefaultShardCapacity
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		store:   store,
		counter: NewCounter(store, capacity),
		sampler: NewSampler(store, capacity),
		now:     now,
	}
}

// Submit validates rawURL and appends it to the pool. The write sequence is
// entry, reverse-lookup entry, counter — in that order, with no rollback. A
// failure partway through leaves an orphaned entry (present but uncounted),
// never a corrupted counter.
func (s *service) Submit(ctx context.Context, rawURL string) error {
	const op = "roulette.service.Submit"

	if err := validateURL(rawURL); err != nil {
		return errx.E(op, errx.Invalid, err)
	}

	st, err := s.counter.Load(ctx)
	if err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	entryKey := EntryKey(st.Prefix, s.now())
	if err := s.store.Put(ctx, entryKey, rawURL); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	if err := s.store.Put(ctx, ReverseKey(rawURL), entryKey); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	if err := s.counter.Advance(ctx, st); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

// Draw returns one approximately-uniformly sampled URL from the pool.
func (s *service) Draw(ctx context.Context) (string, error) {
	const op = "roulette.service.Draw"

	st, err := s.counter.Load(ctx)
	if err != nil {
		return "", errx.E(op, errx.Unavailable, err)
	}

	value, err := s.sampler.Draw(ctx, st)
	if err != nil {
		return "", errx.E(op, errx.KindOf(err), err)
	}
	return value, nil
}

// Stats exposes the raw counter state for observability.
func (s *service) Stats(ctx context.Context) (CounterState, error) {
	const op = "roulette.service.Stats"

	st, err := s.counter.Load(ctx)
	if err != nil {
		return CounterState{}, errx.E(op, errx.Unavailable, err)
	}
	return st, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return errors.New("url scheme must be http or https")
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsed.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}
