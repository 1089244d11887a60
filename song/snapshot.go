package song

type columnKey struct{ track, column int }

// patternSnapshot holds the lines of every column of one pattern
type patternSnapshot struct {
	lineCount int
	lines     map[columnKey][]Line
}

func (s *Song) snapshotPattern(pattern int) patternSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := patternSnapshot{lineCount: s.lineCountLocked(pattern), lines: make(map[columnKey][]Line)}
	for ti, tr := range s.tracks {
		for ci, col := range tr.columns {
			if lines, ok := col.lines[pattern]; ok {
				cp := make([]Line, len(lines))
				for i, l := range lines {
					cp[i] = l.clone()
				}
				snap.lines[columnKey{ti, ci}] = cp
			}
		}
	}
	return snap
}

func (s *Song) restorePattern(pattern int, snap patternSnapshot) error {
	return s.mutate(func() (Change, error) {
		s.patternLocked(pattern).LineCount = snap.lineCount
		for ti, tr := range s.tracks {
			for ci, col := range tr.columns {
				if lines, ok := snap.lines[columnKey{ti, ci}]; ok {
					cp := make([]Line, len(lines))
					for i, l := range lines {
						cp[i] = l.clone()
					}
					col.lines[pattern] = cp
				} else {
					delete(col.lines, pattern)
				}
			}
		}
		return Change{Kind: ChangeLineCount, Pattern: pattern}, nil
	})
}

// restoreLines writes lines back starting at line0 in a single change
func (s *Song) restoreLines(pattern, t, c, line0 int, lines []Line) error {
	return s.mutate(func() (Change, error) {
		for i, l := range lines {
			slot, err := s.writableLocked(Cell{Pattern: pattern, Track: t, Column: c, Line: line0 + i})
			if err != nil {
				return Change{}, err
			}
			*slot = l.clone()
		}
		return Change{Kind: ChangeLines, Pattern: pattern, Track: t, Column: c, Line0: line0, Line1: line0 + len(lines) - 1}, nil
	})
}
