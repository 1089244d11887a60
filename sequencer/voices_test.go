package sequencer

import (
	"testing"

	"go-tracker/midi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoicesRestrikeReleasesPrevious(t *testing.T) {
	v := NewVoices()
	_, ok := v.Start(midi.Event{Type: midi.NoteOn, Note: 60, Layer: midi.NoLayer})
	assert.False(t, ok)

	off, ok := v.Start(midi.Event{Type: midi.NoteOn, Note: 62, Tick: 10, Layer: midi.NoLayer})
	require.True(t, ok)
	assert.Equal(t, uint8(60), off.Note)
	assert.Equal(t, int64(10), off.Tick)
	assert.Equal(t, 1, v.Len())
}

func TestVoicesHeldNoteOff(t *testing.T) {
	v := NewVoices()
	_, _, ok := v.Stop(midi.Event{Type: midi.NoteOff, Held: true})
	assert.False(t, ok, "nothing is sounding")

	v.Start(midi.Event{Type: midi.NoteOn, Port: "p", Channel: 3, Note: 48})
	off, released, ok := v.Stop(midi.Event{Type: midi.NoteOff, Held: true})
	require.True(t, ok)
	assert.True(t, released)
	assert.Equal(t, uint8(48), off.Note)
	assert.Equal(t, "p", off.Port)
	assert.Equal(t, uint8(3), off.Channel)
	assert.Equal(t, 0, v.Len())
}

func TestVoicesTargetedNoteOff(t *testing.T) {
	v := NewVoices()
	v.Start(midi.Event{Type: midi.NoteOn, Note: 48})
	_, released, ok := v.Stop(midi.Event{Type: midi.NoteOff, Note: 50})
	assert.True(t, ok)
	assert.False(t, released)
	assert.Equal(t, 1, v.Len())

	_, released, _ = v.Stop(midi.Event{Type: midi.NoteOff, Note: 48})
	assert.True(t, released)
}

func TestReleaseAllIsOrderedAndClears(t *testing.T) {
	v := NewVoices()
	v.Start(midi.Event{Type: midi.NoteOn, Track: 1, Note: 1})
	v.Start(midi.Event{Type: midi.NoteOn, Track: 0, Column: 1, Note: 2})
	v.Start(midi.Event{Type: midi.NoteOn, Track: 0, Column: 0, Note: 3, Channel: 4})

	offs := v.ReleaseAll()
	require.Len(t, offs, 3)
	assert.Equal(t, []uint8{3, 2, 1}, []uint8{offs[0].Note, offs[1].Note, offs[2].Note})
	assert.Empty(t, v.ReleaseAll())
	assert.Len(t, v.Channels(), 2)
}
