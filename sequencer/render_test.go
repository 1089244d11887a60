package sequencer

import (
	"testing"

	"go-tracker/automation"
	"go-tracker/midi"
	"go-tracker/mixer"
	"go-tracker/song"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResolvesHeldOffAcrossPatterns(t *testing.T) {
	s := song.New(song.DefaultLimits())
	require.NoError(t, s.SetLineCount(0, 4))
	require.NoError(t, s.SetLineCount(1, 4))
	require.NoError(t, s.SetOrder([]int{0, 1}))
	require.NoError(t, s.SetNote(song.Cell{Pattern: 0, Line: 1}, song.On(60, 100, 0)))
	require.NoError(t, s.SetNote(song.Cell{Pattern: 1, Line: 2}, song.Off()))

	events, err := Render(s, automation.NewService(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	perLine := int64(NewTiming(120, 4).TicksPerLine)
	assert.Equal(t, midi.NoteOn, events[0].Type)
	assert.Equal(t, perLine, events[0].Tick)
	assert.Equal(t, midi.NoteOff, events[1].Type)
	assert.Equal(t, uint8(60), events[1].Note)
	assert.Equal(t, 6*perLine, events[1].Tick)
	assert.False(t, events[1].Held)
}

func TestRenderReleasesAtEnd(t *testing.T) {
	s := song.New(song.DefaultLimits())
	require.NoError(t, s.SetLineCount(0, 4))
	require.NoError(t, s.SetNote(song.Cell{Line: 3}, song.On(64, 90, song.MaxNoteDelay)))

	events, err := Render(s, automation.NewService(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, midi.NoteOff, events[1].Type)
	assert.GreaterOrEqual(t, events[1].Tick, events[0].Tick)
	assert.Equal(t, SongTicks(s), int64(4*NewTiming(120, 4).TicksPerLine))
}

func TestRenderDelayedNoteEndsOnNextLine(t *testing.T) {
	s := song.New(song.DefaultLimits())
	require.NoError(t, s.SetLinesPerBeat(8))
	require.NoError(t, s.SetLineCount(0, 4))
	require.NoError(t, s.SetNote(song.Cell{Line: 0}, song.On(60, 100, song.MaxNoteDelay)))
	require.NoError(t, s.SetNote(song.Cell{Line: 1}, song.Off()))

	events, err := Render(s, automation.NewService(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	perLine := int64(NewTiming(120, 8).TicksPerLine)
	assert.Equal(t, midi.NoteOn, events[0].Type)
	assert.Less(t, events[0].Tick, perLine)
	assert.Equal(t, midi.NoteOff, events[1].Type)
	assert.Equal(t, uint8(60), events[1].Note)
	assert.Equal(t, perLine, events[1].Tick)
}

func TestRenderAppliesMixer(t *testing.T) {
	s := song.New(song.DefaultLimits())
	require.NoError(t, s.SetLineCount(0, 4))
	require.NoError(t, s.InsertColumn(0, 1))
	require.NoError(t, s.SetNote(song.Cell{Column: 0, Line: 0}, song.On(60, 100, 0)))
	require.NoError(t, s.SetNote(song.Cell{Column: 1, Line: 0}, song.On(67, 100, 0)))

	mx := mixer.New()
	mx.SetColumnSolo(0, 1, true)

	events, err := Render(s, automation.NewService(), mx)
	require.NoError(t, err)
	for _, e := range events {
		assert.Equal(t, 1, e.Column)
	}
}

func TestRenderEmptyOrder(t *testing.T) {
	s := song.New(song.DefaultLimits())
	require.NoError(t, s.SetOrder(nil))
	_, err := Render(s, automation.NewService(), nil)
	require.ErrorIs(t, err, ErrEmptySong)
}
