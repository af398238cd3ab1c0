// Package store holds the canonical token collection. Readers get copies of an
// immutable snapshot; writers publish a whole new snapshot with one pointer swap.
package store

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"token_radar/models"
)

var (
	ErrDuplicateID     = errors.New("duplicate token id")
	ErrEmptyID         = errors.New("empty token id")
	ErrIdentityChanged = errors.New("tick transform changed token id")
)

type snapshot struct {
	version uint64
	tokens  []models.Token
}

type Store struct {
	current atomic.Pointer[snapshot]
	// serializes writers; readers never take it
	writeMu sync.Mutex
}

// New builds a store from seed. Duplicate ids abort construction.
func New(seed []models.Token) (*Store, error) {
	seen := make(map[string]int, len(seed))
	for i, t := range seed {
		if t.ID == "" {
			return nil, fmt.Errorf("seed entry %d: %w", i, ErrEmptyID)
		}
		if prev, ok := seen[t.ID]; ok {
			return nil, fmt.Errorf("%w %q at entries %d and %d", ErrDuplicateID, t.ID, prev, i)
		}
		seen[t.ID] = i
	}

	tokens := make([]models.Token, len(seed))
	copy(tokens, seed)

	s := &Store{}
	s.current.Store(&snapshot{tokens: tokens})
	return s, nil
}

// Snapshot returns a copy of the current records in store order.
func (s *Store) Snapshot() []models.Token {
	snap := s.current.Load()
	out := make([]models.Token, len(snap.tokens))
	copy(out, snap.tokens)
	return out
}

// SnapshotWithVersion returns the records and the tick count they belong to,
// read from the same snapshot.
func (s *Store) SnapshotWithVersion() ([]models.Token, uint64) {
	snap := s.current.Load()
	out := make([]models.Token, len(snap.tokens))
	copy(out, snap.tokens)
	return out, snap.version
}

func (s *Store) Len() int {
	return len(s.current.Load().tokens)
}

// Version is the number of ticks applied so far.
func (s *Store) Version() uint64 {
	return s.current.Load().version
}

// ApplyTick replaces every record with perturb(record). The new collection
// becomes visible all at once. A transform that changes an id is rejected
// and the store is left as it was.
func (s *Store) ApplyTick(perturb func(models.Token) models.Token) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old := s.current.Load()
	next := make([]models.Token, len(old.tokens))
	for i, t := range old.tokens {
		updated := perturb(t)
		if updated.ID != t.ID {
			return fmt.Errorf("%w: %q became %q", ErrIdentityChanged, t.ID, updated.ID)
		}
		next[i] = updated
	}

	s.current.Store(&snapshot{version: old.version + 1, tokens: next})
	return nil
}
