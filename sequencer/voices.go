package sequencer

import (
	"sort"

	"go-tracker/midi"
)

type voiceKey struct {
	track, column, layer int
}

type voice struct {
	port    string
	channel uint8
	note    uint8
}

type portChannel struct {
	port    string
	channel uint8
}

// Voices tracks the notes sounding per track, column and layer so
// every one gets exactly one note-off.
type Voices struct {
	sounding map[voiceKey]voice
	used     map[portChannel]struct{}
}

func NewVoices() *Voices {
	return &Voices{
		sounding: make(map[voiceKey]voice),
		used:     make(map[portChannel]struct{}),
	}
}

func keyOf(e midi.Event) voiceKey {
	return voiceKey{track: e.Track, column: e.Column, layer: e.Layer}
}

func offFor(k voiceKey, v voice) midi.Event {
	return midi.Event{
		Type:    midi.NoteOff,
		Port:    v.port,
		Channel: v.channel,
		Note:    v.note,
		Track:   k.track,
		Column:  k.column,
		Layer:   k.layer,
	}
}

// Start records a note-on. If the voice was already sounding, the
// note-off that must precede the new note is returned.
func (v *Voices) Start(e midi.Event) (midi.Event, bool) {
	k := keyOf(e)
	prev, ok := v.sounding[k]
	v.sounding[k] = voice{port: e.Port, channel: e.Channel, note: e.Note}
	v.used[portChannel{e.Port, e.Channel}] = struct{}{}
	if !ok {
		return midi.Event{}, false
	}
	off := offFor(k, prev)
	off.Tick = e.Tick
	return off, true
}

// Stop resolves a note-off against the sounding voices. released is set
// when it ends a tracked voice. A held note-off with nothing sounding
// resolves to nothing (ok false).
func (v *Voices) Stop(e midi.Event) (off midi.Event, released, ok bool) {
	k := keyOf(e)
	cur, sounding := v.sounding[k]
	switch {
	case sounding && (e.Held || cur.note == e.Note):
		delete(v.sounding, k)
		off = offFor(k, cur)
		off.Tick = e.Tick
		return off, true, true
	case e.Held:
		return midi.Event{}, false, false
	default:
		e.Held = false
		return e, false, true
	}
}

func (v *Voices) Len() int {
	return len(v.sounding)
}

// ReleaseAll returns one note-off per sounding voice, ordered by track,
// column and layer, and forgets them.
func (v *Voices) ReleaseAll() []midi.Event {
	keys := make([]voiceKey, 0, len(v.sounding))
	for k := range v.sounding {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.track != b.track {
			return a.track < b.track
		}
		if a.column != b.column {
			return a.column < b.column
		}
		return a.layer < b.layer
	})
	out := make([]midi.Event, 0, len(keys))
	for _, k := range keys {
		out = append(out, offFor(k, v.sounding[k]))
		delete(v.sounding, k)
	}
	return out
}

// Channels returns every port/channel a note was started on
func (v *Voices) Channels() []midi.Event {
	out := make([]midi.Event, 0, len(v.used))
	for pc := range v.used {
		out = append(out, midi.Event{Type: midi.AllNotesOff, Port: pc.port, Channel: pc.channel})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Port != out[j].Port {
			return out[i].Port < out[j].Port
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
