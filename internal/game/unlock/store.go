// Package unlock tracks which item bases the player has unlocked and which
// they have ever obtained, and persists both sets.
package unlock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/observability"
)

// ErrNotTracked is returned when an operation names a base absent from the catalog.
var ErrNotTracked = errors.New("unlock: base is not tracked")

// State is the persisted shape of the store: two independent ordered sets.
// A nil slice means the set was absent from storage.
type State struct {
	Unlocked []string
	Obtained []string
}

// Persister loads and saves State.
//
// Postcondition (Save): storage holds either the previous or the new State
// in full, never a mix.
type Persister interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// Tracker is the subset of the catalog index the store validates against.
type Tracker interface {
	IsTracked(base string) bool
	AllBases() []string
}

// orderedSet is an insertion-ordered string set.
type orderedSet struct {
	order []string
	has   map[string]bool
}

func newOrderedSet() *orderedSet {
	return &orderedSet{has: make(map[string]bool)}
}

func (s *orderedSet) add(v string) bool {
	if s.has[v] {
		return false
	}
	s.has[v] = true
	s.order = append(s.order, v)
	return true
}

func (s *orderedSet) snapshot() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *orderedSet) retain(keep func(string) bool) int {
	dropped := 0
	kept := s.order[:0]
	for _, v := range s.order {
		if keep(v) {
			kept = append(kept, v)
			continue
		}
		delete(s.has, v)
		dropped++
	}
	s.order = kept
	return dropped
}

func setFrom(values []string) *orderedSet {
	s := newOrderedSet()
	for _, v := range values {
		if v != "" {
			s.add(v)
		}
	}
	return s
}

// Store holds unlock and obtain state for one player.
// All methods are safe for concurrent use. Unlocks are never revoked once
// granted; only Load, which starts a session, replaces the sets.
type Store struct {
	mu        sync.RWMutex
	unlocked  *orderedSet
	obtained  *orderedSet
	saveMu    sync.Mutex
	index     Tracker
	persister Persister
	logger    *zap.Logger
}

// NewStore returns an empty Store.
//
// Precondition: index and persister must be non-nil.
func NewStore(index Tracker, persister Persister, logger *zap.Logger) *Store {
	return &Store{
		unlocked:  newOrderedSet(),
		obtained:  newOrderedSet(),
		index:     index,
		persister: persister,
		logger:    observability.Component(logger, "unlock"),
	}
}

// IsTracked reports whether base exists in the catalog.
func (s *Store) IsTracked(base string) bool {
	return base != "" && s.index.IsTracked(base)
}

// IsUnlocked reports whether base has been unlocked.
func (s *Store) IsUnlocked(base string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unlocked.has[base]
}

// IsObtained reports whether base has ever been seen in the player's inventory.
func (s *Store) IsObtained(base string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.obtained.has[base]
}

// IsUsable reports whether base is tracked and unlocked.
func (s *Store) IsUsable(base string) bool {
	return s.IsTracked(base) && s.IsUnlocked(base)
}

// Unlock marks base as unlocked and persists on the first transition.
// Persistence failures are logged; the in-memory unlock stands.
//
// Postcondition: IsUnlocked(base) is true on a nil error; changed is true
// only for the call that performed the transition.
func (s *Store) Unlock(ctx context.Context, base string) (changed bool, err error) {
	if !s.IsTracked(base) {
		return false, fmt.Errorf("%w: %q", ErrNotTracked, base)
	}
	s.mu.Lock()
	changed = s.unlocked.add(base)
	s.mu.Unlock()
	if changed {
		s.logger.Info("base unlocked", zap.String("base", base))
		s.saveLogged(ctx)
	}
	return changed, nil
}

// MarkObtainedIfFirst records the first sighting of base.
//
// Postcondition: returns true exactly once per tracked base per store
// lifetime; persistence is triggered only on that call.
func (s *Store) MarkObtainedIfFirst(ctx context.Context, base string) bool {
	if !s.IsTracked(base) {
		return false
	}
	s.mu.Lock()
	first := s.obtained.add(base)
	s.mu.Unlock()
	if first {
		s.logger.Debug("base obtained", zap.String("base", base))
		s.saveLogged(ctx)
	}
	return first
}

// UnlockedList returns the unlocked bases in unlock order.
func (s *Store) UnlockedList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unlocked.snapshot()
}

// ObtainedList returns the obtained bases in first-seen order.
func (s *Store) ObtainedList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.obtained.snapshot()
}

// StillLocked returns catalog bases that are not yet unlocked, in catalog order.
func (s *Store) StillLocked() []string {
	var out []string
	for _, b := range s.index.AllBases() {
		if !s.IsUnlocked(b) {
			out = append(out, b)
		}
	}
	return out
}

// Load replaces both sets from storage and prunes entries no longer in the
// catalog. A set absent from storage keeps its current contents; a storage
// error leaves the store untouched.
//
// Postcondition: on nil error, every unlocked and obtained base is tracked.
func (s *Store) Load(ctx context.Context) error {
	st, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn("loading unlock state failed, keeping current state", zap.Error(err))
		return fmt.Errorf("unlock: loading state: %w", err)
	}

	s.mu.Lock()
	if st.Unlocked != nil {
		s.unlocked = setFrom(st.Unlocked)
	}
	if st.Obtained != nil {
		s.obtained = setFrom(st.Obtained)
	}
	droppedU := s.unlocked.retain(s.index.IsTracked)
	droppedO := s.obtained.retain(s.index.IsTracked)
	unlocked, obtained := len(s.unlocked.order), len(s.obtained.order)
	s.mu.Unlock()

	s.logger.Info("unlock state loaded",
		zap.Int("unlocked", unlocked),
		zap.Int("obtained", obtained),
		zap.Int("pruned_unlocked", droppedU),
		zap.Int("pruned_obtained", droppedO),
	)
	return nil
}

// Save writes a consistent snapshot of both sets.
// Concurrent saves are serialized so a later snapshot is never overwritten by
// an earlier one.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	st := State{Unlocked: s.unlocked.snapshot(), Obtained: s.obtained.snapshot()}
	s.mu.RUnlock()

	if err := s.persister.Save(ctx, st); err != nil {
		return fmt.Errorf("unlock: saving state: %w", err)
	}
	return nil
}

func (s *Store) saveLogged(ctx context.Context) {
	if err := s.Save(ctx); err != nil {
		s.logger.Warn("persisting unlock state failed; in-memory state remains authoritative", zap.Error(err))
	}
}
