package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// EventType is the kind of a scheduled MIDI event
type EventType uint8

const (
	NoteOff EventType = iota
	NoteOn
	CC
	PitchBend
	ProgramChange
	BankChange
	AllNotesOff
	Start
	Stop
	Clock
)

var eventNames = [...]string{"NoteOff", "NoteOn", "CC", "PitchBend", "Program", "Bank", "AllNotesOff", "Start", "Stop", "Clock"}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return fmt.Sprintf("EventType(%d)", t)
}

// Priority orders events that share a tick: note-offs first, then
// instrument setup, then controllers, then note-ons.
func (t EventType) Priority() int {
	switch t {
	case NoteOff, AllNotesOff:
		return 0
	case BankChange, ProgramChange:
		return 1
	case CC, PitchBend:
		return 2
	case NoteOn:
		return 3
	default:
		return 4
	}
}

// NoLayer marks an event that comes from the column itself rather than
// an instrument layer.
const NoLayer = -1

// Event is a tick-stamped MIDI event with its source address
type Event struct {
	Tick int64
	Type EventType

	Port    string
	Channel uint8 // 0-15

	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
	Bend       int16 // -8192..8191
	Program    uint8
	BankMSB    int // -1 = not sent
	BankLSB    int

	Track  int
	Column int
	Layer  int // automation id of the instrument layer, or NoLayer

	// Fixed is set for velocities that must not be scaled by the mixer
	Fixed bool
	// Held marks a note-off that releases whatever note its voice is
	// sounding; Note is only a hint.
	Held bool
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("%d %s ch%d n%d v%d", e.Tick, e.Type, e.Channel+1, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("%d %s ch%d n%d", e.Tick, e.Type, e.Channel+1, e.Note)
	case CC:
		return fmt.Sprintf("%d %s ch%d c%d=%d", e.Tick, e.Type, e.Channel+1, e.Controller, e.Value)
	case PitchBend:
		return fmt.Sprintf("%d %s ch%d %d", e.Tick, e.Type, e.Channel+1, e.Bend)
	case ProgramChange:
		return fmt.Sprintf("%d %s ch%d p%d", e.Tick, e.Type, e.Channel+1, e.Program)
	case BankChange:
		return fmt.Sprintf("%d %s ch%d %d/%d", e.Tick, e.Type, e.Channel+1, e.BankMSB, e.BankLSB)
	default:
		return fmt.Sprintf("%d %s", e.Tick, e.Type)
	}
}

// Messages converts the event to wire messages. Values are masked to
// their MIDI ranges; a bank change yields up to two controller messages.
func (e Event) Messages() []gomidi.Message {
	ch := e.Channel & 0x0f
	switch e.Type {
	case NoteOn:
		return []gomidi.Message{gomidi.NoteOn(ch, e.Note&0x7f, e.Velocity&0x7f)}
	case NoteOff:
		return []gomidi.Message{gomidi.NoteOff(ch, e.Note&0x7f)}
	case CC:
		return []gomidi.Message{gomidi.ControlChange(ch, e.Controller&0x7f, e.Value&0x7f)}
	case PitchBend:
		return []gomidi.Message{gomidi.Pitchbend(ch, max(-8192, min(8191, e.Bend)))}
	case ProgramChange:
		return []gomidi.Message{gomidi.ProgramChange(ch, e.Program&0x7f)}
	case BankChange:
		return bankMessages(ch, e.BankMSB, e.BankLSB)
	case AllNotesOff:
		return []gomidi.Message{gomidi.ControlChange(ch, ccAllNotesOff, 0)}
	case Start:
		return []gomidi.Message{gomidi.Start()}
	case Stop:
		return []gomidi.Message{gomidi.Stop()}
	case Clock:
		return []gomidi.Message{gomidi.TimingClock()}
	}
	return nil
}

func bankMessages(channel uint8, msb, lsb int) []gomidi.Message {
	var msgs []gomidi.Message
	if msb >= 0 {
		msgs = append(msgs, gomidi.ControlChange(channel&0x0f, ccBankMSB, uint8(min(msb, 127))))
	}
	if lsb >= 0 {
		msgs = append(msgs, gomidi.ControlChange(channel&0x0f, ccBankLSB, uint8(min(lsb, 127))))
	}
	return msgs
}
