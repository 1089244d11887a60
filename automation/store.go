package automation

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// ErrNotFound is returned when an id is not in the store
var ErrNotFound = errors.New("automation not found")

// Entity is implemented by the automation kinds a Store can hold.
type Entity[T any] interface {
	EntityID() int
	Where() Location
	LineRange() (int, int)
	Active() bool
	withID(id int) T
}

// Invalidation tells observers which lines of a column must be re-rendered.
type Invalidation struct {
	Location Location
	Line0    int
	Line1    int
}

// Store holds automations of one kind in insertion order, keyed by id.
type Store[T Entity[T]] struct {
	mu        sync.RWMutex
	items     []T
	observers map[int]func(Invalidation)
	nextObs   int
	revision  atomic.Uint64
}

// NewStore creates an empty store
func NewStore[T Entity[T]]() *Store[T] {
	return &Store[T]{observers: make(map[int]func(Invalidation))}
}

// Subscribe registers fn for invalidations and returns a func that
// removes it. fn is called outside the store lock.
func (s *Store[T]) Subscribe(fn func(Invalidation)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Revision increments on every mutation
func (s *Store[T]) Revision() uint64 {
	return s.revision.Load()
}

// Len returns the number of stored automations
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Add stores item under a fresh id (max existing id + 1, or 1 when
// empty) and returns the stored copy.
func (s *Store[T]) Add(item T) T {
	s.mu.Lock()
	id := 1
	for _, it := range s.items {
		if it.EntityID() >= id {
			id = it.EntityID() + 1
		}
	}
	item = item.withID(id)
	s.items = append(s.items, item)
	obs := s.mutatedLocked()
	s.mu.Unlock()

	notify(obs, invalidationFor(item))
	return item
}

// Update replaces the automation with item's id
func (s *Store[T]) Update(item T) error {
	s.mu.Lock()
	idx := s.indexLocked(item.EntityID())
	if idx < 0 {
		s.mu.Unlock()
		return notFound(item.EntityID())
	}
	old := s.items[idx]
	item = item.withID(old.EntityID())
	s.items[idx] = item
	obs := s.mutatedLocked()
	s.mu.Unlock()

	notify(obs, mergeInvalidations(invalidationFor(old), invalidationFor(item))...)
	return nil
}

// Delete removes the automation with id
func (s *Store[T]) Delete(id int) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return notFound(id)
	}
	old := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	obs := s.mutatedLocked()
	s.mu.Unlock()

	notify(obs, invalidationFor(old))
	return nil
}

// Get returns the automation with id
func (s *Store[T]) Get(id int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.items[idx].withID(id), true
	}
	var zero T
	return zero, false
}

// All returns every automation in insertion order
func (s *Store[T]) All() []T {
	return s.filter(func(T) bool { return true })
}

// ForColumn returns every automation attached to loc, enabled or not
func (s *Store[T]) ForColumn(loc Location) []T {
	return s.filter(func(it T) bool { return it.Where() == loc })
}

// At returns the enabled automations at loc whose range covers line
func (s *Store[T]) At(loc Location, line int) []T {
	return s.filter(func(it T) bool { return covers(it, loc, line) })
}

// Affects reports whether any enabled automation covers the cell
func (s *Store[T]) Affects(loc Location, line int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if covers(it, loc, line) {
			return true
		}
	}
	return false
}

// Load replaces the contents, assigning ids 1..n in the given order.
func (s *Store[T]) Load(items []T) {
	s.mu.Lock()
	var inv []Invalidation
	for _, it := range s.items {
		inv = append(inv, invalidationFor(it))
	}
	s.items = make([]T, 0, len(items))
	for i, it := range items {
		it = it.withID(i + 1)
		s.items = append(s.items, it)
		inv = append(inv, invalidationFor(it))
	}
	obs := s.mutatedLocked()
	s.mu.Unlock()

	notify(obs, inv...)
}

// Clear removes everything
func (s *Store[T]) Clear() {
	s.Load(nil)
}

func (s *Store[T]) filter(keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it.withID(it.EntityID()))
		}
	}
	return out
}

func (s *Store[T]) indexLocked(id int) int {
	for i, it := range s.items {
		if it.EntityID() == id {
			return i
		}
	}
	return -1
}

// mutatedLocked bumps the revision and snapshots the observers
func (s *Store[T]) mutatedLocked() []func(Invalidation) {
	s.revision.Add(1)
	obs := make([]func(Invalidation), 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	return obs
}

func covers[T Entity[T]](it T, loc Location, line int) bool {
	if !it.Active() || it.Where() != loc {
		return false
	}
	l0, l1 := it.LineRange()
	return line >= l0 && line <= l1
}

func invalidationFor[T Entity[T]](it T) Invalidation {
	l0, l1 := it.LineRange()
	return Invalidation{Location: it.Where(), Line0: l0, Line1: l1}
}

// mergeInvalidations unions two ranges on the same column; ranges on
// different columns are reported separately.
func mergeInvalidations(a, b Invalidation) []Invalidation {
	if a.Location != b.Location {
		return []Invalidation{a, b}
	}
	return []Invalidation{{
		Location: a.Location,
		Line0:    min(a.Line0, b.Line0),
		Line1:    max(a.Line1, b.Line1),
	}}
}

func notify(obs []func(Invalidation), inv ...Invalidation) {
	for _, fn := range obs {
		for _, i := range inv {
			fn(i)
		}
	}
}

func notFound(id int) error {
	return fault.Wrap(ErrNotFound,
		fmsg.With(fmt.Sprintf("automation %d", id)),
		ftag.With(ftag.NotFound),
	)
}
