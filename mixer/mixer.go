// Package mixer keeps per-track and per-column mute, solo and velocity
// scale state.
package mixer

import (
	"math"
	"slices"
	"sync"

	"go-tracker/song"
)

// Strip is the state of one track or column
type Strip struct {
	Muted    bool `yaml:"muted,omitempty"`
	Solo     bool `yaml:"solo,omitempty"`
	Velocity int  `yaml:"velocity"` // percent, 0-100
}

func defaultStrip() Strip {
	return Strip{Velocity: 100}
}

type trackStrip struct {
	Strip
	columns []Strip
}

// Mixer is safe for concurrent use. Tracks and columns it has not seen
// play at full velocity.
type Mixer struct {
	mu     sync.RWMutex
	tracks []trackStrip
}

func New() *Mixer {
	return &Mixer{}
}

// trackLocked grows the strip list so index t exists
func (m *Mixer) trackLocked(t int) *trackStrip {
	for len(m.tracks) <= t {
		m.tracks = append(m.tracks, trackStrip{Strip: defaultStrip()})
	}
	return &m.tracks[t]
}

func (m *Mixer) columnLocked(t, c int) *Strip {
	ts := m.trackLocked(t)
	for len(ts.columns) <= c {
		ts.columns = append(ts.columns, defaultStrip())
	}
	return &ts.columns[c]
}

func (m *Mixer) track(t int) trackStrip {
	if t < 0 || t >= len(m.tracks) {
		return trackStrip{Strip: defaultStrip()}
	}
	return m.tracks[t]
}

func (ts trackStrip) column(c int) Strip {
	if c < 0 || c >= len(ts.columns) {
		return defaultStrip()
	}
	return ts.columns[c]
}

func (m *Mixer) update(t, c int, fn func(*Strip)) {
	if t < 0 || c < -1 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c < 0 {
		fn(&m.trackLocked(t).Strip)
		return
	}
	fn(m.columnLocked(t, c))
}

func (m *Mixer) SetTrackMute(t int, muted bool) {
	m.update(t, -1, func(s *Strip) { s.Muted = muted })
}

func (m *Mixer) SetTrackSolo(t int, solo bool) {
	m.update(t, -1, func(s *Strip) { s.Solo = solo })
}

// SetTrackVelocity sets the track scale in percent, clamped to 0..100
func (m *Mixer) SetTrackVelocity(t, percent int) {
	m.update(t, -1, func(s *Strip) { s.Velocity = clampPercent(percent) })
}

func (m *Mixer) SetColumnMute(t, c int, muted bool) {
	m.update(t, c, func(s *Strip) { s.Muted = muted })
}

func (m *Mixer) SetColumnSolo(t, c int, solo bool) {
	m.update(t, c, func(s *Strip) { s.Solo = solo })
}

func (m *Mixer) SetColumnVelocity(t, c, percent int) {
	m.update(t, c, func(s *Strip) { s.Velocity = clampPercent(percent) })
}

// ToggleTrackMute flips the mute and returns the new state
func (m *Mixer) ToggleTrackMute(t int) bool {
	var muted bool
	m.update(t, -1, func(s *Strip) { s.Muted = !s.Muted; muted = s.Muted })
	return muted
}

func (m *Mixer) ToggleTrackSolo(t int) bool {
	var solo bool
	m.update(t, -1, func(s *Strip) { s.Solo = !s.Solo; solo = s.Solo })
	return solo
}

func (m *Mixer) Track(t int) Strip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.track(t).Strip
}

func (m *Mixer) Column(t, c int) Strip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.track(t).column(c)
}

// ShouldTrackPlay: mute wins over solo, and while any track is soloed
// only soloed tracks play.
func (m *Mixer) ShouldTrackPlay(t int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trackPlaysLocked(t)
}

func (m *Mixer) trackPlaysLocked(t int) bool {
	ts := m.track(t)
	if ts.Muted {
		return false
	}
	if slices.ContainsFunc(m.tracks, func(o trackStrip) bool { return o.Solo }) {
		return ts.Solo
	}
	return true
}

// ShouldColumnPlay applies the track rules first; column solo only
// silences other columns of the same track.
func (m *Mixer) ShouldColumnPlay(t, c int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.trackPlaysLocked(t) {
		return false
	}
	ts := m.track(t)
	cs := ts.column(c)
	if cs.Muted {
		return false
	}
	if slices.ContainsFunc(ts.columns, func(o Strip) bool { return o.Solo }) {
		return cs.Solo
	}
	return true
}

// EffectiveVelocity scales v by the track and column percentages. A
// non-zero velocity never scales below 1.
func (m *Mixer) EffectiveVelocity(t, c int, v uint8) uint8 {
	if v == 0 {
		return 0
	}
	m.mu.RLock()
	ts := m.track(t)
	tp, cp := ts.Velocity, ts.column(c).Velocity
	m.mu.RUnlock()

	scaled := math.Round(float64(v) * float64(tp) * float64(cp) / 10000)
	return uint8(max(1, min(127, scaled)))
}

// HandleChange renumbers strips after tracks or columns are inserted or
// deleted. Subscribe it to the song.
func (m *Mixer) HandleChange(ch song.Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch ch.Kind {
	case song.ChangeTrackInserted:
		if ch.Track <= len(m.tracks) {
			m.tracks = slices.Insert(m.tracks, ch.Track, trackStrip{Strip: defaultStrip()})
		}
	case song.ChangeTrackDeleted:
		if ch.Track < len(m.tracks) {
			m.tracks = slices.Delete(m.tracks, ch.Track, ch.Track+1)
		}
	case song.ChangeColumnInserted:
		if ch.Track < len(m.tracks) {
			ts := &m.tracks[ch.Track]
			if ch.Column <= len(ts.columns) {
				ts.columns = slices.Insert(ts.columns, ch.Column, defaultStrip())
			}
		}
	case song.ChangeColumnDeleted:
		if ch.Track < len(m.tracks) {
			ts := &m.tracks[ch.Track]
			if ch.Column < len(ts.columns) {
				ts.columns = slices.Delete(ts.columns, ch.Column, ch.Column+1)
			}
		}
	case song.ChangeCleared:
		m.tracks = nil
	}
}

// Reset returns every strip to its default
func (m *Mixer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = nil
}

func clampPercent(p int) int {
	return max(0, min(100, p))
}
