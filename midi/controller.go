package midi

// NoteEvent is sent when a note is played on a keyboard. Velocity 0 is
// a release.
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// Controller is a MIDI input device feeding live notes
type Controller interface {
	ID() string
	NoteEvents() <-chan NoteEvent
	Close() error
}
