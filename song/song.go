package song

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	DefaultBPM          = 120
	DefaultLinesPerBeat = 4
	DefaultLineCount    = 64
)

var (
	ErrOutOfRange   = errors.New("address out of range")
	ErrLastColumn   = errors.New("a track needs at least one column")
	ErrInvalidValue = errors.New("invalid value")
)

// Limits bound the structure of a song
type Limits struct {
	MinLines      int `json:"minLines"`
	MaxLines      int `json:"maxLines"`
	MaxSongLength int `json:"maxSongLength"`
}

func DefaultLimits() Limits {
	return Limits{MinLines: 1, MaxLines: 999, MaxSongLength: 999}
}

// ClampLines clamps a pattern line count to the limits
func (l Limits) ClampLines(n int) int {
	return max(l.MinLines, min(l.MaxLines, n))
}

// ChangeKind says what a Change describes
type ChangeKind int

const (
	ChangeLines ChangeKind = iota
	ChangeLineCount
	ChangePatternName
	ChangeTrackInserted
	ChangeTrackDeleted
	ChangeColumnInserted
	ChangeColumnDeleted
	ChangeTrack // name or instrument
	ChangeTempo
	ChangeOrder
	ChangeCleared
)

// Change is delivered to subscribers after every mutation. Line0/Line1
// are only meaningful for ChangeLines.
type Change struct {
	Kind    ChangeKind
	Pattern int
	Track   int
	Column  int
	Line0   int
	Line1   int
}

// Structural reports whether the change alters indices or line counts,
// which invalidates anything cached by position.
func (c Change) Structural() bool {
	switch c.Kind {
	case ChangeLineCount, ChangeTrackInserted, ChangeTrackDeleted,
		ChangeColumnInserted, ChangeColumnDeleted, ChangeCleared:
		return true
	}
	return false
}

// Song is the authoritative tracker data. All methods are safe for
// concurrent use; subscribers are called after the lock is released.
type Song struct {
	mu       sync.RWMutex
	limits   Limits
	bpm      int
	lpb      int
	patterns map[int]*Pattern
	tracks   []*track
	order    PlayOrder

	generation uint64
	revision   uint64

	subs    map[int]func(Change)
	nextSub int
}

// New creates a song with one track of one column and an order of [0].
func New(limits Limits) *Song {
	if limits.MinLines < 1 {
		limits.MinLines = 1
	}
	if limits.MaxLines < limits.MinLines {
		limits.MaxLines = limits.MinLines
	}
	if limits.MaxSongLength < 1 {
		limits.MaxSongLength = 1
	}
	s := &Song{
		limits: limits,
		bpm:    DefaultBPM,
		lpb:    DefaultLinesPerBeat,
		subs:   make(map[int]func(Change)),
	}
	s.resetLocked()
	return s
}

func (s *Song) resetLocked() {
	s.patterns = make(map[int]*Pattern)
	s.tracks = []*track{newTrack()}
	s.order = NewPlayOrder(0)
}

func (s *Song) Limits() Limits {
	return s.limits
}

// Subscribe registers fn for changes and returns a func that removes it
func (s *Song) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Generation increments on structural changes. A running player
// releases its sounding notes when it sees it move.
func (s *Song) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Revision increments on every change
func (s *Song) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// changedLocked bumps the counters and returns the subscribers to notify
func (s *Song) changedLocked(c Change) []func(Change) {
	s.revision++
	if c.Structural() {
		s.generation++
	}
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(Change), c Change) {
	for _, fn := range subs {
		fn(c)
	}
}

// mutate runs fn under the write lock and publishes its change on success
func (s *Song) mutate(fn func() (Change, error)) error {
	s.mu.Lock()
	c, err := fn()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	subs := s.changedLocked(c)
	s.mu.Unlock()
	publish(subs, c)
	return nil
}

func outOfRange(format string, args ...any) error {
	return fault.Wrap(ErrOutOfRange,
		fmsg.With(fmt.Sprintf(format, args...)),
		ftag.With(ftag.InvalidArgument),
	)
}

func invalid(format string, args ...any) error {
	return fault.Wrap(ErrInvalidValue,
		fmsg.With(fmt.Sprintf(format, args...)),
		ftag.With(ftag.InvalidArgument),
	)
}

// Tempo

func (s *Song) BPM() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bpm
}

func (s *Song) LinesPerBeat() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lpb
}

func (s *Song) SetBPM(bpm int) error {
	if bpm <= 0 {
		return invalid("bpm %d", bpm)
	}
	return s.mutate(func() (Change, error) {
		s.bpm = bpm
		return Change{Kind: ChangeTempo}, nil
	})
}

func (s *Song) SetLinesPerBeat(lpb int) error {
	if lpb <= 0 {
		return invalid("lines per beat %d", lpb)
	}
	return s.mutate(func() (Change, error) {
		s.lpb = lpb
		return Change{Kind: ChangeTempo}, nil
	})
}

// Patterns

// Pattern returns the pattern at index i, creating it on first access
// with the default line count.
func (s *Song) Pattern(i int) (Pattern, bool) {
	if i < 0 {
		return Pattern{}, false
	}
	s.mu.RLock()
	p, ok := s.patterns[i]
	if ok {
		defer s.mu.RUnlock()
		return *p, true
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.patternLocked(i), true
}

func (s *Song) patternLocked(i int) *Pattern {
	p, ok := s.patterns[i]
	if !ok {
		p = &Pattern{LineCount: s.limits.ClampLines(DefaultLineCount)}
		s.patterns[i] = p
	}
	return p
}

// lineCountLocked reads without creating; the read lock is enough.
func (s *Song) lineCountLocked(i int) int {
	if p, ok := s.patterns[i]; ok {
		return p.LineCount
	}
	return s.limits.ClampLines(DefaultLineCount)
}

// PatternIndices returns the created patterns in ascending order
func (s *Song) PatternIndices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.patterns))
	for i := range s.patterns {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (s *Song) LineCount(pattern int) int {
	p, ok := s.Pattern(pattern)
	if !ok {
		return 0
	}
	return p.LineCount
}

// SetLineCount resizes a pattern, clamped to the limits. Lines past the
// new end are dropped.
func (s *Song) SetLineCount(pattern, n int) error {
	if pattern < 0 {
		return outOfRange("pattern %d", pattern)
	}
	return s.mutate(func() (Change, error) {
		p := s.patternLocked(pattern)
		p.LineCount = s.limits.ClampLines(n)
		for _, t := range s.tracks {
			for _, c := range t.columns {
				if lines := c.lines[pattern]; len(lines) > p.LineCount {
					c.lines[pattern] = lines[:p.LineCount:p.LineCount]
				}
			}
		}
		return Change{Kind: ChangeLineCount, Pattern: pattern}, nil
	})
}

func (s *Song) PatternName(pattern int) string {
	p, _ := s.Pattern(pattern)
	return p.Name
}

func (s *Song) SetPatternName(pattern int, name string) error {
	if pattern < 0 {
		return outOfRange("pattern %d", pattern)
	}
	return s.mutate(func() (Change, error) {
		s.patternLocked(pattern).Name = name
		return Change{Kind: ChangePatternName, Pattern: pattern}, nil
	})
}

// Play order

func (s *Song) OrderLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

func (s *Song) PatternAt(pos int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.At(pos)
}

// Order returns a copy of the play order entries
func (s *Song) Order() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Entries()
}

func (s *Song) Flatten(length, start int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Flatten(length, start)
}

func (s *Song) SetPatternAt(pos, pattern int) error {
	if pos < 0 || pos >= s.limits.MaxSongLength {
		return outOfRange("order position %d", pos)
	}
	if pattern < 0 {
		return outOfRange("pattern %d", pattern)
	}
	return s.mutate(func() (Change, error) {
		s.order.Set(pos, pattern)
		return Change{Kind: ChangeOrder, Line0: pos, Line1: pos}, nil
	})
}

func (s *Song) InsertOrder(pos, pattern int) error {
	if pattern < 0 {
		return outOfRange("pattern %d", pattern)
	}
	return s.mutate(func() (Change, error) {
		if pos < 0 || pos > s.order.Len() {
			return Change{}, outOfRange("order position %d", pos)
		}
		if s.order.Len() >= s.limits.MaxSongLength {
			return Change{}, outOfRange("song length %d", s.order.Len()+1)
		}
		s.order.Insert(pos, pattern)
		return Change{Kind: ChangeOrder, Line0: pos, Line1: pos}, nil
	})
}

func (s *Song) RemoveOrder(pos int) error {
	return s.mutate(func() (Change, error) {
		if !s.order.Remove(pos) {
			return Change{}, outOfRange("order position %d", pos)
		}
		return Change{Kind: ChangeOrder, Line0: pos, Line1: pos}, nil
	})
}

// SetOrder replaces the whole play order. An empty order is allowed.
func (s *Song) SetOrder(patterns []int) error {
	if len(patterns) > s.limits.MaxSongLength {
		return outOfRange("song length %d", len(patterns))
	}
	for _, p := range patterns {
		if p < 0 {
			return outOfRange("pattern %d", p)
		}
	}
	return s.mutate(func() (Change, error) {
		s.order = NewPlayOrder(patterns...)
		return Change{Kind: ChangeOrder}, nil
	})
}

// Clear drops all content: patterns, tracks and order. Tempo is kept.
func (s *Song) Clear() {
	_ = s.mutate(func() (Change, error) {
		s.resetLocked()
		return Change{Kind: ChangeCleared}, nil
	})
}
