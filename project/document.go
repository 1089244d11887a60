// Package project persists songs as YAML documents in timestamped saves.
package project

import (
	"fmt"

	"go-tracker/automation"
	"go-tracker/mixer"
	"go-tracker/song"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written to every document
const FormatVersion = 1

// Document is the persisted shape of a song with its automation and
// mixer state. Automation ids are not stored; they are reassigned in
// order on load.
type Document struct {
	Version      int          `yaml:"version"`
	BPM          int          `yaml:"bpm"`
	LinesPerBeat int          `yaml:"linesPerBeat"`
	Order        []int        `yaml:"order"`
	Patterns     []PatternDoc `yaml:"patterns,omitempty"`
	Tracks       []TrackDoc   `yaml:"tracks"`
	Automation   Automations  `yaml:"automation"`
}

type PatternDoc struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name,omitempty"`
	Lines int    `yaml:"lines"`
}

type TrackDoc struct {
	Name       string           `yaml:"name,omitempty"`
	Instrument *song.Instrument `yaml:"instrument,omitempty"`
	Mixer      *mixer.Strip     `yaml:"mixer,omitempty"`
	Columns    []ColumnDoc      `yaml:"columns"`
}

type ColumnDoc struct {
	Name  string       `yaml:"name,omitempty"`
	Mixer *mixer.Strip `yaml:"mixer,omitempty"`
	Lines []LineDoc    `yaml:"lines,omitempty"`
}

// LineDoc is a line that carries data; empty lines are not stored.
type LineDoc struct {
	Pattern int                      `yaml:"pattern"`
	Line    int                      `yaml:"line"`
	Note    *NoteDoc                 `yaml:"note,omitempty"`
	Event   *song.InstrumentSettings `yaml:"event,omitempty"`
}

type NoteDoc struct {
	Off      bool   `yaml:"off,omitempty"`
	Note     *uint8 `yaml:"note,omitempty"` // absent on a note-off for the held note
	Velocity uint8  `yaml:"velocity,omitempty"`
	Delay    uint8  `yaml:"delay,omitempty"`
}

type Automations struct {
	CC        []automation.MidiCcAutomation    `yaml:"cc,omitempty"`
	PitchBend []automation.PitchBendAutomation `yaml:"pitchBend,omitempty"`
	Layers    []automation.InstrumentLayer     `yaml:"layers,omitempty"`
}

func noteDoc(n song.NoteData) *NoteDoc {
	switch n.Kind {
	case song.NoteOn:
		note := n.Note
		return &NoteDoc{Note: &note, Velocity: n.Velocity, Delay: n.Delay}
	case song.NoteOff:
		d := &NoteDoc{Off: true}
		if n.HasNote {
			note := n.Note
			d.Note = &note
		}
		return d
	}
	return nil
}

func (d *NoteDoc) data() (song.NoteData, error) {
	switch {
	case d.Off && d.Note == nil:
		return song.Off(), nil
	case d.Off:
		return song.OffNote(*d.Note), nil
	case d.Note == nil:
		return song.NoteData{}, fault.New("note-on without a note", ftag.With(ftag.InvalidArgument))
	}
	if *d.Note > 127 || d.Velocity > 127 {
		return song.NoteData{}, fault.New(fmt.Sprintf("note %d velocity %d", *d.Note, d.Velocity), ftag.With(ftag.InvalidArgument))
	}
	return song.On(*d.Note, d.Velocity, d.Delay), nil
}

// Capture builds a document from the current models. mx may be nil.
func Capture(s *song.Song, a *automation.Service, mx *mixer.Mixer) *Document {
	doc := &Document{
		Version:      FormatVersion,
		BPM:          s.BPM(),
		LinesPerBeat: s.LinesPerBeat(),
		Order:        s.Order(),
	}
	for _, i := range s.PatternIndices() {
		p, _ := s.Pattern(i)
		doc.Patterns = append(doc.Patterns, PatternDoc{Index: i, Name: p.Name, Lines: p.LineCount})
	}

	for t := range s.TrackCount() {
		td := TrackDoc{Name: s.TrackName(t)}
		if inst, ok := s.Instrument(t); ok {
			td.Instrument = &inst
		}
		if mx != nil {
			if st := mx.Track(t); st != (mixer.Strip{Velocity: 100}) {
				td.Mixer = &st
			}
		}
		for c := range s.ColumnCount(t) {
			cd := ColumnDoc{Name: s.ColumnName(t, c)}
			if mx != nil {
				if st := mx.Column(t, c); st != (mixer.Strip{Velocity: 100}) {
					cd.Mixer = &st
				}
			}
			td.Columns = append(td.Columns, cd)
		}
		doc.Tracks = append(doc.Tracks, td)
	}

	for _, ref := range s.LinesWithData() {
		ld := LineDoc{Pattern: ref.Cell.Pattern, Line: ref.Cell.Line, Note: noteDoc(ref.Line.Note)}
		if ref.Line.Event != nil {
			set := ref.Line.Event.Settings
			ld.Event = &set
		}
		col := &doc.Tracks[ref.Cell.Track].Columns[ref.Cell.Column]
		col.Lines = append(col.Lines, ld)
	}

	doc.Automation = Automations{
		CC:        a.CC.All(),
		PitchBend: a.PitchBend.All(),
		Layers:    a.Layers.All(),
	}
	return doc
}

// Apply replaces the models' contents with the document. The song is
// cleared first; on error it may be partially loaded.
func (d *Document) Apply(s *song.Song, a *automation.Service, mx *mixer.Mixer) error {
	if d.Version > FormatVersion {
		return fault.New(fmt.Sprintf("document version %d is newer than %d", d.Version, FormatVersion),
			ftag.With(ftag.InvalidArgument))
	}
	if len(d.Tracks) == 0 {
		return fault.New("document has no tracks", ftag.With(ftag.InvalidArgument))
	}

	s.Clear()
	a.Clear()
	if mx != nil {
		mx.Reset()
	}
	if err := s.SetBPM(d.BPM); err != nil {
		return wrapField(err, "bpm")
	}
	if err := s.SetLinesPerBeat(d.LinesPerBeat); err != nil {
		return wrapField(err, "linesPerBeat")
	}
	for _, p := range d.Patterns {
		if err := s.SetLineCount(p.Index, p.Lines); err != nil {
			return wrapField(err, fmt.Sprintf("pattern %d", p.Index))
		}
		if p.Name != "" {
			if err := s.SetPatternName(p.Index, p.Name); err != nil {
				return wrapField(err, fmt.Sprintf("pattern %d", p.Index))
			}
		}
	}

	for t, td := range d.Tracks {
		if t > 0 {
			if err := s.InsertTrack(t); err != nil {
				return err
			}
		}
		if err := d.applyTrack(s, mx, t, td); err != nil {
			return wrapField(err, fmt.Sprintf("track %d", t))
		}
	}

	if err := s.SetOrder(d.Order); err != nil {
		return wrapField(err, "order")
	}
	a.CC.Load(d.Automation.CC)
	a.PitchBend.Load(d.Automation.PitchBend)
	a.Layers.Load(d.Automation.Layers)
	return nil
}

func (d *Document) applyTrack(s *song.Song, mx *mixer.Mixer, t int, td TrackDoc) error {
	if td.Name != "" {
		if err := s.SetTrackName(t, td.Name); err != nil {
			return err
		}
	}
	if err := s.SetInstrument(t, td.Instrument); err != nil {
		return err
	}
	if mx != nil && td.Mixer != nil {
		mx.SetTrackMute(t, td.Mixer.Muted)
		mx.SetTrackSolo(t, td.Mixer.Solo)
		mx.SetTrackVelocity(t, td.Mixer.Velocity)
	}
	for c, cd := range td.Columns {
		if c > 0 {
			if err := s.InsertColumn(t, c); err != nil {
				return err
			}
		}
		if cd.Name != "" {
			if err := s.SetColumnName(t, c, cd.Name); err != nil {
				return err
			}
		}
		if mx != nil && cd.Mixer != nil {
			mx.SetColumnMute(t, c, cd.Mixer.Muted)
			mx.SetColumnSolo(t, c, cd.Mixer.Solo)
			mx.SetColumnVelocity(t, c, cd.Mixer.Velocity)
		}
		for _, ld := range cd.Lines {
			cell := song.Cell{Pattern: ld.Pattern, Track: t, Column: c, Line: ld.Line}
			line := song.Line{}
			if ld.Note != nil {
				n, err := ld.Note.data()
				if err != nil {
					return wrapField(err, fmt.Sprintf("column %d line %d", c, ld.Line))
				}
				line.Note = n
			}
			if ld.Event != nil {
				line.Event = &song.LineEvent{Settings: *ld.Event}
			}
			if err := s.SetLine(cell, line); err != nil {
				return wrapField(err, fmt.Sprintf("column %d", c))
			}
		}
	}
	return nil
}

func wrapField(err error, field string) error {
	return fault.Wrap(err, fmsg.With(field))
}

// Encode marshals a document to YAML
func Encode(d *Document) ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("encode project"))
	}
	return data, nil
}

// Decode parses a YAML document
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("decode project", "The project file is not valid YAML."),
			ftag.With(ftag.InvalidArgument))
	}
	return &d, nil
}
