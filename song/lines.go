package song

// Line returns the line at c. Lines that were never written read as
// empty; false means c is outside the song.
func (s *Song) Line(c Cell) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.cellLocked(c)
	if err != nil {
		return Line{}, false
	}
	if lines := col.lines[c.Pattern]; c.Line < len(lines) {
		return lines[c.Line].clone(), true
	}
	return Line{}, true
}

// ColumnLines returns every line of a column in a pattern, padded to the
// pattern's line count.
func (s *Song) ColumnLines(pattern, t, c int) ([]Line, bool) {
	if pattern < 0 {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.columnLocked(t, c)
	if err != nil {
		return nil, false
	}
	out := make([]Line, s.lineCountLocked(pattern))
	for i, l := range col.lines[pattern] {
		if i < len(out) {
			out[i] = l.clone()
		}
	}
	return out, true
}

func (s *Song) cellLocked(c Cell) (*column, error) {
	if c.Pattern < 0 {
		return nil, outOfRange("pattern %d", c.Pattern)
	}
	col, err := s.columnLocked(c.Track, c.Column)
	if err != nil {
		return nil, err
	}
	if c.Line < 0 || c.Line >= s.lineCountLocked(c.Pattern) {
		return nil, outOfRange("line %d of pattern %d", c.Line, c.Pattern)
	}
	return col, nil
}

// writableLocked returns the line slot for c, growing storage as needed
func (s *Song) writableLocked(c Cell) (*Line, error) {
	col, err := s.cellLocked(c)
	if err != nil {
		return nil, err
	}
	s.patternLocked(c.Pattern)
	lines := col.lines[c.Pattern]
	if c.Line >= len(lines) {
		grown := make([]Line, c.Line+1)
		copy(grown, lines)
		lines = grown
		col.lines[c.Pattern] = lines
	}
	return &lines[c.Line], nil
}

func lineChange(c Cell) Change {
	return Change{Kind: ChangeLines, Pattern: c.Pattern, Track: c.Track, Column: c.Column, Line0: c.Line, Line1: c.Line}
}

func (s *Song) SetNote(c Cell, n NoteData) error {
	if n.Note > 127 || n.Velocity > 127 {
		return invalid("note %d velocity %d", n.Note, n.Velocity)
	}
	n.Delay = min(n.Delay, MaxNoteDelay)
	if n.Kind != NoteOn {
		n.Delay = 0
	}
	return s.mutate(func() (Change, error) {
		l, err := s.writableLocked(c)
		if err != nil {
			return Change{}, err
		}
		l.Note = n
		return lineChange(c), nil
	})
}

// SetLineEvent stores ev on the line; nil clears it.
func (s *Song) SetLineEvent(c Cell, ev *LineEvent) error {
	return s.mutate(func() (Change, error) {
		l, err := s.writableLocked(c)
		if err != nil {
			return Change{}, err
		}
		if ev == nil {
			l.Event = nil
		} else {
			l.Event = &LineEvent{Settings: ev.Settings.clone()}
		}
		return lineChange(c), nil
	})
}

// SetLine replaces the whole line
func (s *Song) SetLine(c Cell, line Line) error {
	return s.mutate(func() (Change, error) {
		l, err := s.writableLocked(c)
		if err != nil {
			return Change{}, err
		}
		*l = line.clone()
		return lineChange(c), nil
	})
}

func (s *Song) ClearLine(c Cell) error {
	return s.SetLine(c, Line{})
}

// Transpose shifts the notes of lines line0..line1 (inclusive) of a
// column by semitones.
func (s *Song) Transpose(pattern, t, c, line0, line1, semitones int) error {
	if line1 < line0 {
		line0, line1 = line1, line0
	}
	return s.mutate(func() (Change, error) {
		first := Cell{Pattern: pattern, Track: t, Column: c, Line: line0}
		last := first
		last.Line = line1
		if _, err := s.cellLocked(first); err != nil {
			return Change{}, err
		}
		col, err := s.cellLocked(last)
		if err != nil {
			return Change{}, err
		}
		lines := col.lines[pattern]
		for i := line0; i <= line1 && i < len(lines); i++ {
			lines[i].Note = lines[i].Note.Transposed(semitones)
		}
		return Change{Kind: ChangeLines, Pattern: pattern, Track: t, Column: c, Line0: line0, Line1: line1}, nil
	})
}

// LineRef is a line with data together with its address
type LineRef struct {
	Cell Cell
	Line Line
}

// LinesWithData returns every line carrying data, ordered by pattern,
// track, column and line.
func (s *Song) LinesWithData() []LineRef {
	patterns := s.PatternIndices()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LineRef
	for _, p := range patterns {
		n := s.lineCountLocked(p)
		for ti, tr := range s.tracks {
			for ci, col := range tr.columns {
				for li, l := range col.lines[p] {
					if li < n && l.HasData() {
						out = append(out, LineRef{
							Cell: Cell{Pattern: p, Track: ti, Column: ci, Line: li},
							Line: l.clone(),
						})
					}
				}
			}
		}
	}
	return out
}
