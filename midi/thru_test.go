package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type noteLog struct {
	on  []uint8
	off []uint8
	ch  []uint8
}

func (n *noteLog) NoteOn(port string, channel, note, velocity uint8) {
	n.on = append(n.on, note)
	n.ch = append(n.ch, channel)
}

func (n *noteLog) NoteOff(port string, channel, note uint8) {
	n.off = append(n.off, note)
}

func TestThruFiltersAndRemaps(t *testing.T) {
	c := &fakeController{id: "kb", notes: make(chan NoteEvent, 8)}
	c.notes <- NoteEvent{Note: 60, Velocity: 100, Channel: 0}
	c.notes <- NoteEvent{Note: 61, Velocity: 100, Channel: 3}
	c.notes <- NoteEvent{Note: 60, Velocity: 0, Channel: 0}
	close(c.notes)

	out := &noteLog{}
	Thru(c, out, ThruConfig{Port: "synth", Channel: 5, Filter: 1})

	assert.Equal(t, []uint8{60}, out.on)
	assert.Equal(t, []uint8{5}, out.ch)
	assert.Equal(t, []uint8{60}, out.off)
}

func TestThruAcceptsAllChannels(t *testing.T) {
	c := &fakeController{id: "kb", notes: make(chan NoteEvent, 8)}
	c.notes <- NoteEvent{Note: 60, Velocity: 1, Channel: 0}
	c.notes <- NoteEvent{Note: 62, Velocity: 1, Channel: 15}
	close(c.notes)

	out := &noteLog{}
	Thru(c, out, ThruConfig{})
	assert.Equal(t, []uint8{60, 62}, out.on)
}
