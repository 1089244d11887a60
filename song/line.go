package song

import "slices"

// Unset marks an instrument setting that is not sent
const Unset = -1

// ControllerValue is a CC sent as part of an instrument setup
type ControllerValue struct {
	Controller uint8 `yaml:"controller"`
	Value      uint8 `yaml:"value"`
}

// InstrumentSettings are sent in order bank, program, controllers.
type InstrumentSettings struct {
	Patch       int               `yaml:"patch"`
	BankMSB     int               `yaml:"bank_msb"`
	BankLSB     int               `yaml:"bank_lsb"`
	Controllers []ControllerValue `yaml:"controllers,omitempty"`
}

// NoSettings returns settings that send nothing
func NoSettings() InstrumentSettings {
	return InstrumentSettings{Patch: Unset, BankMSB: Unset, BankLSB: Unset}
}

// IsEmpty reports whether applying the settings sends no message
func (s InstrumentSettings) IsEmpty() bool {
	return s.Patch < 0 && s.BankMSB < 0 && s.BankLSB < 0 && len(s.Controllers) == 0
}

func (s InstrumentSettings) clone() InstrumentSettings {
	s.Controllers = slices.Clone(s.Controllers)
	return s
}

// Instrument is the MIDI destination of a track
type Instrument struct {
	Port     string             `yaml:"port"`
	Channel  uint8              `yaml:"channel"`
	Settings InstrumentSettings `yaml:"settings"`
}

func (i *Instrument) clone() *Instrument {
	if i == nil {
		return nil
	}
	c := *i
	c.Settings = i.Settings.clone()
	return &c
}

// LineEvent is an instrument change scheduled on a line
type LineEvent struct {
	Settings InstrumentSettings
}

// Line is one row of one column
type Line struct {
	Note  NoteData
	Event *LineEvent
}

// HasData reports whether the line carries a note or an event
func (l Line) HasData() bool {
	return !l.Note.IsEmpty() || l.Event != nil
}

func (l Line) clone() Line {
	if l.Event != nil {
		ev := LineEvent{Settings: l.Event.Settings.clone()}
		l.Event = &ev
	}
	return l
}

// Cell addresses a single line
type Cell struct {
	Pattern int
	Track   int
	Column  int
	Line    int
}

// Pattern holds per-pattern metadata; line data lives in the columns.
type Pattern struct {
	Name      string
	LineCount int
}

type column struct {
	name  string
	lines map[int][]Line // by pattern index, grown on first write
}

func newColumn() *column {
	return &column{lines: make(map[int][]Line)}
}

func (c *column) clone() *column {
	n := &column{name: c.name, lines: make(map[int][]Line, len(c.lines))}
	for p, lines := range c.lines {
		cp := make([]Line, len(lines))
		for i, l := range lines {
			cp[i] = l.clone()
		}
		n.lines[p] = cp
	}
	return n
}

type track struct {
	name       string
	instrument *Instrument
	columns    []*column
}

func newTrack() *track {
	return &track{columns: []*column{newColumn()}}
}

func (t *track) clone() *track {
	n := &track{name: t.name, instrument: t.instrument.clone()}
	for _, c := range t.columns {
		n.columns = append(n.columns, c.clone())
	}
	return n
}
