// Package compiler turns song lines and automations into tick-stamped
// MIDI events. It holds no state between calls.
package compiler

import (
	"sort"

	"go-tracker/automation"
	"go-tracker/midi"
	"go-tracker/song"
)

// SongReader is the part of the song the compiler reads
type SongReader interface {
	TrackCount() int
	ColumnCount(track int) int
	LineCount(pattern int) int
	ColumnLines(pattern, track, column int) ([]song.Line, bool)
	Instrument(track int) (song.Instrument, bool)
}

// AutomationReader is the part of the automation service the compiler reads
type AutomationReader interface {
	CCFor(loc automation.Location) []automation.MidiCcAutomation
	PitchBendsFor(loc automation.Location) []automation.PitchBendAutomation
	LayersFor(loc automation.Location) []automation.InstrumentLayer
}

// Timing is the line resolution of the scheduler
type Timing struct {
	TicksPerLine int
	LinesPerBeat int
}

func (t Timing) ticksPerLine() int64 {
	return int64(max(1, t.TicksPerLine))
}

// LineTick returns the tick a line starts at
func (t Timing) LineTick(origin int64, line int) int64 {
	return origin + int64(line)*t.ticksPerLine()
}

// NoteTick returns the tick a delayed note-on on line falls at. The
// delay never reaches the next line, so a note-off there always follows
// the note it ends.
func (t Timing) NoteTick(origin int64, line int, delay uint8) int64 {
	return t.LineTick(origin, line) + min(int64(delay), t.ticksPerLine()-1)
}

// Compiler renders song content into events. It is safe for concurrent
// use as long as its readers are.
type Compiler struct {
	song       SongReader
	automation AutomationReader
}

// New returns a compiler reading from s and a
func New(s SongReader, a AutomationReader) *Compiler {
	return &Compiler{song: s, automation: a}
}

func (c *Compiler) instrument(track int) song.Instrument {
	inst, ok := c.song.Instrument(track)
	if !ok {
		return song.Instrument{Settings: song.NoSettings()}
	}
	return inst
}

// CompilePattern compiles every column of a pattern and orders the
// result by tick, track, column and event priority. Events that tie on
// all of those keep their emission order.
func (c *Compiler) CompilePattern(pattern int, timing Timing, origin int64) []midi.Event {
	var out []midi.Event
	for t := range c.song.TrackCount() {
		for col := range c.song.ColumnCount(t) {
			out = append(out, c.CompileColumn(pattern, t, col, timing, origin)...)
		}
	}
	Sort(out)
	return out
}

// Sort orders events the way CompilePattern does
func Sort(events []midi.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Tick != b.Tick {
			return a.Tick < b.Tick
		}
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Type.Priority() < b.Type.Priority()
	})
}

// CompileColumn renders the notes, line events, automation and
// instrument layers of one column. An unknown track or column yields
// nothing.
func (c *Compiler) CompileColumn(pattern, track, column int, timing Timing, origin int64) []midi.Event {
	lines, ok := c.song.ColumnLines(pattern, track, column)
	if !ok {
		return nil
	}
	loc := automation.Location{Pattern: pattern, Track: track, Column: column}
	inst := c.instrument(track)

	var layers []automation.InstrumentLayer
	for _, l := range c.automation.LayersFor(loc) {
		if l.Enabled && l.TargetTrack >= 0 && l.TargetTrack < c.song.TrackCount() {
			layers = append(layers, l)
		}
	}

	col := columnState{
		loc:      loc,
		inst:     inst,
		layers:   layers,
		sounding: make(map[int]uint8),
	}
	for i, line := range lines {
		base := timing.LineTick(origin, i)
		if line.Event != nil {
			col.lineEvent(base, line.Event.Settings)
		}
		switch line.Note.Kind {
		case song.NoteOn:
			col.noteOn(c, timing.NoteTick(origin, i, line.Note.Delay), i, line.Note)
		case song.NoteOff:
			col.noteOff(c, base, line.Note)
		}
	}

	out := append(col.events, c.RenderColumnAutomation(loc, len(lines), timing, origin, inst)...)
	return out
}

// columnState tracks sounding notes while a column is compiled. Voice
// NoLayer is the column itself, other keys are layer ids.
type columnState struct {
	loc      automation.Location
	inst     song.Instrument
	layers   []automation.InstrumentLayer
	sounding map[int]uint8
	events   []midi.Event
}

func (s *columnState) emit(e midi.Event) {
	s.events = append(s.events, e)
}

func (s *columnState) base(tick int64, t midi.EventType) midi.Event {
	return midi.Event{
		Tick:    tick,
		Type:    t,
		Port:    s.inst.Port,
		Channel: s.inst.Channel,
		Track:   s.loc.Track,
		Column:  s.loc.Column,
		Layer:   midi.NoLayer,
		BankMSB: song.Unset,
		BankLSB: song.Unset,
	}
}

// lineEvent sends bank, then program, then controllers
func (s *columnState) lineEvent(tick int64, set song.InstrumentSettings) {
	if set.BankMSB >= 0 || set.BankLSB >= 0 {
		e := s.base(tick, midi.BankChange)
		e.BankMSB, e.BankLSB = set.BankMSB, set.BankLSB
		s.emit(e)
	}
	if set.Patch >= 0 {
		e := s.base(tick, midi.ProgramChange)
		e.Program = uint8(min(set.Patch, 127))
		s.emit(e)
	}
	for _, cv := range set.Controllers {
		e := s.base(tick, midi.CC)
		e.Controller, e.Value = min(cv.Controller, 127), min(cv.Value, 127)
		s.emit(e)
	}
}

func (s *columnState) release(tick int64, voice int) {
	e := s.base(tick, midi.NoteOff)
	e.Held = true
	if note, ok := s.sounding[voice]; ok {
		e.Note = note
		delete(s.sounding, voice)
	}
	s.emit(e)
}

func (s *columnState) noteOn(c *Compiler, tick int64, line int, n song.NoteData) {
	if _, ok := s.sounding[midi.NoLayer]; ok {
		s.release(tick, midi.NoLayer)
	}
	e := s.base(tick, midi.NoteOn)
	e.Note, e.Velocity = n.Note, n.Velocity
	s.emit(e)
	s.sounding[midi.NoLayer] = n.Note

	for _, l := range s.layers {
		s.releaseLayer(c, tick, l)
		l0, l1 := l.LineRange()
		if line < l0 || line > l1 {
			continue
		}
		target := c.instrument(l.TargetTrack)
		e := midi.Event{
			Tick:     tick,
			Type:     midi.NoteOn,
			Port:     target.Port,
			Channel:  target.Channel,
			Note:     l.NoteFor(n.Note),
			Velocity: l.VelocityFor(n.Velocity),
			Track:    l.TargetTrack,
			Layer:    l.ID,
			Fixed:    !l.ApplyTargetVelocity,
			BankMSB:  song.Unset,
			BankLSB:  song.Unset,
		}
		s.emit(e)
		s.sounding[l.ID] = e.Note
	}
}

// releaseLayer always emits so a layer voice left over from an earlier
// pattern is stopped too.
func (s *columnState) releaseLayer(c *Compiler, tick int64, l automation.InstrumentLayer) {
	target := c.instrument(l.TargetTrack)
	e := midi.Event{
		Tick:    tick,
		Type:    midi.NoteOff,
		Port:    target.Port,
		Channel: target.Channel,
		Track:   l.TargetTrack,
		Layer:   l.ID,
		Held:    true,
		BankMSB: song.Unset,
		BankLSB: song.Unset,
	}
	if note, ok := s.sounding[l.ID]; ok {
		e.Note = note
		delete(s.sounding, l.ID)
	}
	s.emit(e)
}

func (s *columnState) noteOff(c *Compiler, tick int64, n song.NoteData) {
	if n.HasNote {
		e := s.base(tick, midi.NoteOff)
		e.Note = n.Note
		if held, ok := s.sounding[midi.NoLayer]; ok && held == n.Note {
			delete(s.sounding, midi.NoLayer)
		}
		s.emit(e)
	} else {
		s.release(tick, midi.NoLayer)
	}
	for _, l := range s.layers {
		s.releaseLayer(c, tick, l)
	}
}
