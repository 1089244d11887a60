package song

import (
	"slices"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"
)

func (s *Song) TrackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// ColumnCount returns 0 for a track that does not exist
func (s *Song) ColumnCount(t int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t < 0 || t >= len(s.tracks) {
		return 0
	}
	return len(s.tracks[t].columns)
}

func (s *Song) trackLocked(t int) (*track, error) {
	if t < 0 || t >= len(s.tracks) {
		return nil, outOfRange("track %d", t)
	}
	return s.tracks[t], nil
}

func (s *Song) columnLocked(t, c int) (*column, error) {
	tr, err := s.trackLocked(t)
	if err != nil {
		return nil, err
	}
	if c < 0 || c >= len(tr.columns) {
		return nil, outOfRange("track %d column %d", t, c)
	}
	return tr.columns[c], nil
}

// InsertTrack adds an empty track with one column at index at; later
// tracks shift up by one.
func (s *Song) InsertTrack(at int) error {
	return s.insertTrack(at, newTrack())
}

func (s *Song) insertTrack(at int, tr *track) error {
	return s.mutate(func() (Change, error) {
		if at < 0 || at > len(s.tracks) {
			return Change{}, outOfRange("track %d", at)
		}
		s.tracks = slices.Insert(s.tracks, at, tr)
		return Change{Kind: ChangeTrackInserted, Track: at}, nil
	})
}

// DeleteTrack removes a track and all of its lines
func (s *Song) DeleteTrack(at int) error {
	_, err := s.removeTrack(at)
	return err
}

func (s *Song) removeTrack(at int) (*track, error) {
	var removed *track
	err := s.mutate(func() (Change, error) {
		tr, err := s.trackLocked(at)
		if err != nil {
			return Change{}, err
		}
		removed = tr
		s.tracks = slices.Delete(s.tracks, at, at+1)
		return Change{Kind: ChangeTrackDeleted, Track: at}, nil
	})
	return removed, err
}

// InsertColumn adds an empty column to track t at index at
func (s *Song) InsertColumn(t, at int) error {
	return s.insertColumn(t, at, newColumn())
}

func (s *Song) insertColumn(t, at int, col *column) error {
	return s.mutate(func() (Change, error) {
		tr, err := s.trackLocked(t)
		if err != nil {
			return Change{}, err
		}
		if at < 0 || at > len(tr.columns) {
			return Change{}, outOfRange("track %d column %d", t, at)
		}
		tr.columns = slices.Insert(tr.columns, at, col)
		return Change{Kind: ChangeColumnInserted, Track: t, Column: at}, nil
	})
}

// DeleteColumn removes a column. The last column of a track can't be
// deleted.
func (s *Song) DeleteColumn(t, at int) error {
	_, err := s.removeColumn(t, at)
	return err
}

func (s *Song) removeColumn(t, at int) (*column, error) {
	var removed *column
	err := s.mutate(func() (Change, error) {
		col, err := s.columnLocked(t, at)
		if err != nil {
			return Change{}, err
		}
		tr := s.tracks[t]
		if len(tr.columns) == 1 {
			return Change{}, fault.Wrap(ErrLastColumn, ftag.With(ftag.InvalidArgument))
		}
		removed = col
		tr.columns = slices.Delete(tr.columns, at, at+1)
		return Change{Kind: ChangeColumnDeleted, Track: t, Column: at}, nil
	})
	return removed, err
}

func (s *Song) TrackName(t int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t < 0 || t >= len(s.tracks) {
		return ""
	}
	return s.tracks[t].name
}

func (s *Song) SetTrackName(t int, name string) error {
	return s.mutate(func() (Change, error) {
		tr, err := s.trackLocked(t)
		if err != nil {
			return Change{}, err
		}
		tr.name = name
		return Change{Kind: ChangeTrack, Track: t}, nil
	})
}

func (s *Song) ColumnName(t, c int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.columnLocked(t, c)
	if err != nil {
		return ""
	}
	return col.name
}

func (s *Song) SetColumnName(t, c int, name string) error {
	return s.mutate(func() (Change, error) {
		col, err := s.columnLocked(t, c)
		if err != nil {
			return Change{}, err
		}
		col.name = name
		return Change{Kind: ChangeTrack, Track: t, Column: c}, nil
	})
}

// Instrument returns a copy of the track's instrument; false when the
// track does not exist or has none.
func (s *Song) Instrument(t int) (Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t < 0 || t >= len(s.tracks) || s.tracks[t].instrument == nil {
		return Instrument{}, false
	}
	return *s.tracks[t].instrument.clone(), true
}

// SetInstrument assigns inst to track t; nil removes it.
func (s *Song) SetInstrument(t int, inst *Instrument) error {
	if inst != nil && inst.Channel > 15 {
		return invalid("channel %d", inst.Channel)
	}
	return s.mutate(func() (Change, error) {
		tr, err := s.trackLocked(t)
		if err != nil {
			return Change{}, err
		}
		tr.instrument = inst.clone()
		return Change{Kind: ChangeTrack, Track: t}, nil
	})
}
