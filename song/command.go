package song

import "fmt"

// Command is an undoable song edit. Apply captures whatever Revert needs.
type Command interface {
	Apply(s *Song) error
	Revert(s *Song) error
	Name() string
}

type lineCommand struct {
	Cell Cell
	prev Line
}

func (c *lineCommand) capture(s *Song) error {
	prev, ok := s.Line(c.Cell)
	if !ok {
		return outOfRange("cell %+v", c.Cell)
	}
	c.prev = prev
	return nil
}

func (c *lineCommand) Revert(s *Song) error {
	return s.SetLine(c.Cell, c.prev)
}

// SetNoteCommand writes note data to a line
type SetNoteCommand struct {
	lineCommand
	Note NoteData
}

func NewSetNote(c Cell, n NoteData) *SetNoteCommand {
	return &SetNoteCommand{lineCommand: lineCommand{Cell: c}, Note: n}
}

func (c *SetNoteCommand) Apply(s *Song) error {
	if err := c.capture(s); err != nil {
		return err
	}
	return s.SetNote(c.Cell, c.Note)
}

func (c *SetNoteCommand) Name() string { return "set note " + c.Note.String() }

// SetLineEventCommand sets or, with a nil Event, clears a line event
type SetLineEventCommand struct {
	lineCommand
	Event *LineEvent
}

func NewSetLineEvent(c Cell, ev *LineEvent) *SetLineEventCommand {
	return &SetLineEventCommand{lineCommand: lineCommand{Cell: c}, Event: ev}
}

func (c *SetLineEventCommand) Apply(s *Song) error {
	if err := c.capture(s); err != nil {
		return err
	}
	return s.SetLineEvent(c.Cell, c.Event)
}

func (c *SetLineEventCommand) Name() string {
	if c.Event == nil {
		return "clear line event"
	}
	return "set line event"
}

type ClearLineCommand struct {
	lineCommand
}

func NewClearLine(c Cell) *ClearLineCommand {
	return &ClearLineCommand{lineCommand{Cell: c}}
}

func (c *ClearLineCommand) Apply(s *Song) error {
	if err := c.capture(s); err != nil {
		return err
	}
	return s.ClearLine(c.Cell)
}

func (c *ClearLineCommand) Name() string { return "clear line" }

// TransposeCommand keeps the original lines since clamping at the note
// range edges is lossy.
type TransposeCommand struct {
	Pattern, Track, Column int
	Line0, Line1           int
	Semitones              int
	prev                   []Line
}

func (c *TransposeCommand) Apply(s *Song) error {
	l0, l1 := min(c.Line0, c.Line1), max(c.Line0, c.Line1)
	lines, ok := s.ColumnLines(c.Pattern, c.Track, c.Column)
	if !ok || l0 < 0 || l1 >= len(lines) {
		return outOfRange("transpose lines %d..%d", l0, l1)
	}
	c.prev = lines[l0 : l1+1]
	return s.Transpose(c.Pattern, c.Track, c.Column, l0, l1, c.Semitones)
}

func (c *TransposeCommand) Revert(s *Song) error {
	return s.restoreLines(c.Pattern, c.Track, c.Column, min(c.Line0, c.Line1), c.prev)
}

func (c *TransposeCommand) Name() string { return fmt.Sprintf("transpose %+d", c.Semitones) }

// SetLineCountCommand remembers the lines a shrink would drop
type SetLineCountCommand struct {
	Pattern int
	Count   int
	prev    patternSnapshot
}

func (c *SetLineCountCommand) Apply(s *Song) error {
	c.prev = s.snapshotPattern(c.Pattern)
	return s.SetLineCount(c.Pattern, c.Count)
}

func (c *SetLineCountCommand) Revert(s *Song) error {
	return s.restorePattern(c.Pattern, c.prev)
}

func (c *SetLineCountCommand) Name() string { return fmt.Sprintf("set line count %d", c.Count) }

type InsertTrackCommand struct {
	At int
}

func (c *InsertTrackCommand) Apply(s *Song) error  { return s.InsertTrack(c.At) }
func (c *InsertTrackCommand) Revert(s *Song) error { return s.DeleteTrack(c.At) }
func (c *InsertTrackCommand) Name() string         { return "insert track" }

type DeleteTrackCommand struct {
	At      int
	removed *track
}

func (c *DeleteTrackCommand) Apply(s *Song) error {
	tr, err := s.removeTrack(c.At)
	if err != nil {
		return err
	}
	c.removed = tr
	return nil
}

func (c *DeleteTrackCommand) Revert(s *Song) error { return s.insertTrack(c.At, c.removed.clone()) }
func (c *DeleteTrackCommand) Name() string         { return "delete track" }

type InsertColumnCommand struct {
	Track, At int
}

func (c *InsertColumnCommand) Apply(s *Song) error  { return s.InsertColumn(c.Track, c.At) }
func (c *InsertColumnCommand) Revert(s *Song) error { return s.DeleteColumn(c.Track, c.At) }
func (c *InsertColumnCommand) Name() string         { return "insert column" }

type DeleteColumnCommand struct {
	Track, At int
	removed   *column
}

func (c *DeleteColumnCommand) Apply(s *Song) error {
	col, err := s.removeColumn(c.Track, c.At)
	if err != nil {
		return err
	}
	c.removed = col
	return nil
}

func (c *DeleteColumnCommand) Revert(s *Song) error {
	return s.insertColumn(c.Track, c.At, c.removed.clone())
}

func (c *DeleteColumnCommand) Name() string { return "delete column" }

// orderCommand restores the whole order on revert
type orderCommand struct {
	prev []int
}

func (c *orderCommand) capture(s *Song)      { c.prev = s.Order() }
func (c *orderCommand) Revert(s *Song) error { return s.SetOrder(c.prev) }

type SetPatternAtCommand struct {
	orderCommand
	Pos, Pattern int
}

func (c *SetPatternAtCommand) Apply(s *Song) error {
	c.capture(s)
	return s.SetPatternAt(c.Pos, c.Pattern)
}

func (c *SetPatternAtCommand) Name() string { return "set order entry" }

type InsertOrderCommand struct {
	orderCommand
	Pos, Pattern int
}

func (c *InsertOrderCommand) Apply(s *Song) error {
	c.capture(s)
	return s.InsertOrder(c.Pos, c.Pattern)
}

func (c *InsertOrderCommand) Name() string { return "insert order entry" }

type RemoveOrderCommand struct {
	orderCommand
	Pos int
}

func (c *RemoveOrderCommand) Apply(s *Song) error {
	c.capture(s)
	return s.RemoveOrder(c.Pos)
}

func (c *RemoveOrderCommand) Name() string { return "remove order entry" }

// SetTempoCommand changes BPM and lines per beat together
type SetTempoCommand struct {
	BPM, LinesPerBeat int
	prevBPM, prevLPB  int
}

func (c *SetTempoCommand) Apply(s *Song) error {
	c.prevBPM, c.prevLPB = s.BPM(), s.LinesPerBeat()
	if err := s.SetBPM(c.BPM); err != nil {
		return err
	}
	return s.SetLinesPerBeat(c.LinesPerBeat)
}

func (c *SetTempoCommand) Revert(s *Song) error {
	if err := s.SetBPM(c.prevBPM); err != nil {
		return err
	}
	return s.SetLinesPerBeat(c.prevLPB)
}

func (c *SetTempoCommand) Name() string { return fmt.Sprintf("tempo %d/%d", c.BPM, c.LinesPerBeat) }
