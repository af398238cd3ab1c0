// Package dashboard owns the running state of one token radar: the store,
// the price simulation and the readers waiting on its ticks.
package dashboard

import (
	"context"
	"sync"
	"time"

	"token_radar/metrics"
	"token_radar/models"
	"token_radar/pipeline"
	"token_radar/scheduler"
	"token_radar/store"
	"token_radar/view"
)

// Frame is everything a presentation needs to render one state.
type Frame struct {
	Tokens      []models.Token `json:"tokens"`
	Stats       models.Stats   `json:"stats"`
	Params      view.Params    `json:"params"`
	Version     uint64         `json:"version"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

type Dashboard struct {
	store *store.Store
	sched *scheduler.Scheduler

	mu     sync.Mutex
	subs   map[uint64]chan uint64
	nextID uint64
	closed bool
}

// New validates the seed and prepares the simulation without starting it.
func New(seed []models.Token, tickInterval time.Duration, opts ...scheduler.Option) (*Dashboard, error) {
	st, err := store.New(seed)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		store: st,
		subs:  make(map[uint64]chan uint64),
	}

	opts = append(opts, scheduler.WithOnTick(d.notify))
	sched, err := scheduler.New(st, tickInterval, opts...)
	if err != nil {
		return nil, err
	}
	d.sched = sched
	return d, nil
}

func (d *Dashboard) Start(ctx context.Context) error {
	return d.sched.Start(ctx)
}

// Close stops the simulation and closes every subscription channel.
func (d *Dashboard) Close() {
	d.sched.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for id, ch := range d.subs {
		close(ch)
		delete(d.subs, id)
	}
}

// View derives the ordered token list for p. Stats always cover the full
// store, whatever p filters out.
func (d *Dashboard) View(p view.Params) Frame {
	start := time.Now()
	tokens, version := d.store.SnapshotWithVersion()
	derived := pipeline.Derive(tokens, p)
	metrics.RecordDerive(string(p.SortBy), time.Since(start), len(derived))

	return Frame{
		Tokens:      derived,
		Stats:       pipeline.ComputeStats(tokens),
		Params:      p,
		Version:     version,
		GeneratedAt: time.Now().UTC(),
	}
}

func (d *Dashboard) Stats() models.Stats {
	return pipeline.ComputeStats(d.store.Snapshot())
}

func (d *Dashboard) Tokens() []models.Token {
	return d.store.Snapshot()
}

func (d *Dashboard) Version() uint64 {
	return d.store.Version()
}

func (d *Dashboard) Running() bool {
	return d.sched.Running()
}

// Tick applies one simulation step immediately.
func (d *Dashboard) Tick() error {
	return d.sched.Tick()
}

// Subscribe returns a channel that receives the store version after each
// tick. A reader that falls behind only sees the latest version. The
// channel is closed by cancel or by Close.
func (d *Dashboard) Subscribe() (<-chan uint64, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan uint64, 1)
	if d.closed {
		close(ch)
		return ch, func() {}
	}

	id := d.nextID
	d.nextID++
	d.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if c, ok := d.subs[id]; ok {
				close(c)
				delete(d.subs, id)
			}
		})
	}
	return ch, cancel
}

func (d *Dashboard) notify(version uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ch := range d.subs {
		select {
		case ch <- version:
			continue
		default:
		}
		// replace the unread version with the newer one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- version:
		default:
		}
		metrics.IncrementCoalesced()
	}
}
