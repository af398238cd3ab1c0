// Package scheduler drives the simulated price feed: a periodic task that
// perturbs every token's price and 24h change in one batch.
package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"token_radar/metrics"
	"token_radar/middleware"
	"token_radar/models"
	"token_radar/utils"
)

const (
	DefaultInterval = 5000 * time.Millisecond

	// price moves by a factor in [-1%, +1%)
	priceSpread = 0.02
	// change24h moves by [-1, +1) percentage points
	changeSpread = 2.0
)

var (
	ErrAlreadyRunning  = errors.New("scheduler already running")
	ErrInvalidInterval = errors.New("tick interval must be positive")
)

// Store is the part of the token store the scheduler writes to.
type Store interface {
	ApplyTick(perturb func(models.Token) models.Token) error
	Version() uint64
}

type Scheduler struct {
	store    Store
	interval time.Duration
	onTick   func(version uint64)

	// tickMu guards rng; a tick may run from the loop or from Tick directly
	tickMu sync.Mutex
	rng    *rand.Rand

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Scheduler)

// WithSource fixes the random source, mainly for tests.
func WithSource(src rand.Source) Option {
	return func(s *Scheduler) { s.rng = rand.New(src) }
}

// WithOnTick registers a hook called after every applied batch with the new
// store version.
func WithOnTick(fn func(version uint64)) Option {
	return func(s *Scheduler) { s.onTick = fn }
}

func New(store Store, interval time.Duration, opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	s := &Scheduler{
		store:    store,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Perturb applies one tick to a token given two uniform draws in [0, 1).
// Everything but Price and Change24h is left as is; no clamping.
func Perturb(t models.Token, u, u2 float64) models.Token {
	t.Price = t.Price * (1 + (u-0.5)*priceSpread)
	t.Change24h = t.Change24h + (u2-0.5)*changeSpread
	return t
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Tick applies one batch now. Panics inside the batch are recovered and
// reported as errors; the store is unchanged in that case.
func (s *Scheduler) Tick() error {
	start := time.Now()

	err := middleware.Recover("price-tick", func() error {
		s.tickMu.Lock()
		defer s.tickMu.Unlock()
		return s.store.ApplyTick(func(t models.Token) models.Token {
			return Perturb(t, s.rng.Float64(), s.rng.Float64())
		})
	})
	if err != nil {
		metrics.IncrementTickErrors()
		return err
	}

	metrics.RecordTickDuration(time.Since(start))
	metrics.IncrementTicks()

	version := s.store.Version()
	if s.onTick != nil {
		s.onTick(version)
	}
	return nil
}

// Start launches the periodic task. It runs until ctx is cancelled or Stop
// is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, done)

	utils.Logger.Infow("Price simulation started", "interval", s.interval.String())
	return nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				utils.Error(err, "Price tick failed", "version", s.store.Version())
			}
		}
	}
}

// Stop cancels the periodic task and waits for an in-flight tick to finish.
// Safe to call more than once; a stopped scheduler can be started again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	utils.Logger.Infow("Price simulation stopped", "version", s.store.Version())
}

// Running reports whether the periodic task is active. A task whose parent
// context was cancelled counts as stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
