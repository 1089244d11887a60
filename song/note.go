package song

import "fmt"

// MaxNoteDelay is the largest micro-timing delay, in scheduler ticks, a
// note-on can carry. Compiling clamps it further to one tick short of a
// line.
const MaxNoteDelay = 24

// NoteKind tags the NoteData variant
type NoteKind uint8

const (
	NoteNone NoteKind = iota
	NoteOn
	NoteOff
)

// NoteData is the note content of a line: nothing, a note-on, or a
// note-off that optionally names the note to stop.
type NoteData struct {
	Kind     NoteKind
	Note     uint8
	Velocity uint8
	Delay    uint8 // note-on only, in ticks

	// HasNote marks a note-off that targets Note rather than whatever
	// the column is holding.
	HasNote bool
}

// On returns a note-on. Values are clamped to their MIDI ranges and the
// delay to MaxNoteDelay.
func On(note, velocity, delay uint8) NoteData {
	return NoteData{
		Kind:     NoteOn,
		Note:     min(note, 127),
		Velocity: min(velocity, 127),
		Delay:    min(delay, MaxNoteDelay),
	}
}

// Off returns a note-off for whatever the column is holding
func Off() NoteData {
	return NoteData{Kind: NoteOff}
}

// OffNote returns a note-off for a specific note
func OffNote(note uint8) NoteData {
	return NoteData{Kind: NoteOff, Note: min(note, 127), HasNote: true}
}

// IsEmpty reports whether there is no note data
func (n NoteData) IsEmpty() bool {
	return n.Kind == NoteNone
}

// Transposed shifts note-ons and targeted note-offs, clamped to 0..127
func (n NoteData) Transposed(semitones int) NoteData {
	if n.Kind == NoteOn || (n.Kind == NoteOff && n.HasNote) {
		n.Note = uint8(max(0, min(127, int(n.Note)+semitones)))
	}
	return n
}

func (n NoteData) String() string {
	switch n.Kind {
	case NoteOn:
		if n.Delay > 0 {
			return fmt.Sprintf("%s %3d d%02d", NoteName(n.Note), n.Velocity, n.Delay)
		}
		return fmt.Sprintf("%s %3d", NoteName(n.Note), n.Velocity)
	case NoteOff:
		if n.HasNote {
			return "OFF " + NoteName(n.Note)
		}
		return "OFF"
	default:
		return "---"
	}
}

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// NoteName formats a MIDI note tracker style, e.g. 60 -> "C-4"
func NoteName(note uint8) string {
	octave := int(note)/12 - 1
	if octave < 0 {
		return fmt.Sprintf("%s-", noteNames[note%12])
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
