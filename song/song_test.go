package song

import (
	"errors"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSongDefaults(t *testing.T) {
	s := New(DefaultLimits())
	assert.Equal(t, DefaultBPM, s.BPM())
	assert.Equal(t, DefaultLinesPerBeat, s.LinesPerBeat())
	assert.Equal(t, 1, s.TrackCount())
	assert.Equal(t, 1, s.ColumnCount(0))
	assert.Equal(t, []int{0}, s.Order())
	assert.Equal(t, DefaultLineCount, s.LineCount(7))
}

func TestPatternsAreCreatedLazily(t *testing.T) {
	s := New(DefaultLimits())
	assert.Empty(t, s.PatternIndices())
	_, ok := s.Pattern(3)
	assert.True(t, ok)
	assert.Equal(t, []int{3}, s.PatternIndices())

	_, ok = s.Pattern(-1)
	assert.False(t, ok)
}

func TestLineCountIsClamped(t *testing.T) {
	s := New(Limits{MinLines: 1, MaxLines: 128, MaxSongLength: 16})
	require.NoError(t, s.SetLineCount(0, 0))
	assert.Equal(t, 1, s.LineCount(0))
	require.NoError(t, s.SetLineCount(0, 1000))
	assert.Equal(t, 128, s.LineCount(0))
}

func TestSetNoteAndReadBack(t *testing.T) {
	s := New(DefaultLimits())
	c := Cell{Pattern: 0, Track: 0, Column: 0, Line: 5}
	require.NoError(t, s.SetNote(c, On(60, 100, 200)))

	l, ok := s.Line(c)
	require.True(t, ok)
	assert.Equal(t, NoteOn, l.Note.Kind)
	assert.Equal(t, uint8(MaxNoteDelay), l.Note.Delay)

	empty, ok := s.Line(Cell{Line: 6})
	assert.True(t, ok)
	assert.False(t, empty.HasData())

	lines, ok := s.ColumnLines(0, 0, 0)
	require.True(t, ok)
	assert.Len(t, lines, DefaultLineCount)
	assert.True(t, lines[5].HasData())
}

func TestOutOfRange(t *testing.T) {
	s := New(DefaultLimits())
	cells := []Cell{
		{Track: 1},
		{Column: 1},
		{Line: DefaultLineCount},
		{Line: -1},
		{Pattern: -2},
	}
	for _, c := range cells {
		err := s.SetNote(c, On(60, 100, 0))
		require.Error(t, err, "%+v", c)
		assert.True(t, errors.Is(err, ErrOutOfRange))
		assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))

		_, ok := s.Line(c)
		assert.False(t, ok)
	}
	_, ok := s.ColumnLines(0, 4, 0)
	assert.False(t, ok)
}

func TestShrinkingDropsLines(t *testing.T) {
	s := New(DefaultLimits())
	require.NoError(t, s.SetNote(Cell{Line: 40}, On(60, 100, 0)))
	require.NoError(t, s.SetLineCount(0, 32))
	require.NoError(t, s.SetLineCount(0, 64))
	l, _ := s.Line(Cell{Line: 40})
	assert.False(t, l.HasData())
}

func TestTranspose(t *testing.T) {
	s := New(DefaultLimits())
	require.NoError(t, s.SetNote(Cell{Line: 0}, On(60, 100, 0)))
	require.NoError(t, s.SetNote(Cell{Line: 1}, OffNote(60)))
	require.NoError(t, s.SetNote(Cell{Line: 2}, On(126, 100, 0)))
	require.NoError(t, s.SetNote(Cell{Line: 3}, Off()))

	require.NoError(t, s.Transpose(0, 0, 0, 0, 3, 5))
	lines, _ := s.ColumnLines(0, 0, 0)
	assert.Equal(t, uint8(65), lines[0].Note.Note)
	assert.Equal(t, uint8(65), lines[1].Note.Note)
	assert.Equal(t, uint8(127), lines[2].Note.Note)
	assert.Equal(t, Off(), lines[3].Note)
}

func TestStructureChangesNotify(t *testing.T) {
	s := New(DefaultLimits())
	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })

	g0 := s.Generation()
	require.NoError(t, s.InsertTrack(1))
	require.NoError(t, s.InsertColumn(1, 1))
	require.NoError(t, s.DeleteColumn(1, 0))
	require.NoError(t, s.DeleteTrack(0))

	assert.Equal(t, []Change{
		{Kind: ChangeTrackInserted, Track: 1},
		{Kind: ChangeColumnInserted, Track: 1, Column: 1},
		{Kind: ChangeColumnDeleted, Track: 1, Column: 0},
		{Kind: ChangeTrackDeleted, Track: 0},
	}, got)
	assert.Equal(t, g0+4, s.Generation())
	assert.Equal(t, 1, s.TrackCount())
}

func TestEditsBumpRevisionOnly(t *testing.T) {
	s := New(DefaultLimits())
	g, r := s.Generation(), s.Revision()
	require.NoError(t, s.SetNote(Cell{}, On(60, 100, 0)))
	assert.Equal(t, g, s.Generation())
	assert.Equal(t, r+1, s.Revision())
}

func TestLastColumnCannotBeDeleted(t *testing.T) {
	s := New(DefaultLimits())
	err := s.DeleteColumn(0, 0)
	assert.True(t, errors.Is(err, ErrLastColumn))
}

func TestColumnsKeepTheirLinesWhenRenumbered(t *testing.T) {
	s := New(DefaultLimits())
	require.NoError(t, s.SetNote(Cell{Column: 0, Line: 2}, On(64, 90, 0)))
	require.NoError(t, s.InsertColumn(0, 0))
	l, _ := s.Line(Cell{Column: 1, Line: 2})
	assert.Equal(t, uint8(64), l.Note.Note)
}

func TestInstrumentCopies(t *testing.T) {
	s := New(DefaultLimits())
	inst := &Instrument{Port: "synth", Channel: 3, Settings: NoSettings()}
	inst.Settings.Controllers = []ControllerValue{{Controller: 7, Value: 100}}
	require.NoError(t, s.SetInstrument(0, inst))
	inst.Settings.Controllers[0].Value = 1

	got, ok := s.Instrument(0)
	require.True(t, ok)
	assert.Equal(t, uint8(100), got.Settings.Controllers[0].Value)

	assert.Error(t, s.SetInstrument(0, &Instrument{Channel: 16}))
}

func TestPlayOrderFlatten(t *testing.T) {
	o := NewPlayOrder(2, 5, 1)
	assert.Equal(t, []int{5, 1, 0, 0}, o.Flatten(4, 1))
	assert.Nil(t, o.Flatten(0, 0))

	o.Set(5, 9)
	assert.Equal(t, []int{2, 5, 1, 0, 0, 9}, o.Entries())
	o.Insert(100, 3)
	assert.Equal(t, 3, o.Entries()[6])
	assert.True(t, o.Remove(0))
	assert.False(t, o.Remove(42))
}

func TestSongOrderLimits(t *testing.T) {
	s := New(Limits{MinLines: 1, MaxLines: 64, MaxSongLength: 2})
	require.NoError(t, s.InsertOrder(1, 4))
	assert.Error(t, s.InsertOrder(0, 1))
	assert.Error(t, s.SetPatternAt(2, 1))
	require.NoError(t, s.RemoveOrder(0))
	require.NoError(t, s.RemoveOrder(0))
	assert.Equal(t, 0, s.OrderLength())
	assert.Error(t, s.RemoveOrder(0))
}

func TestClearKeepsTempo(t *testing.T) {
	s := New(DefaultLimits())
	require.NoError(t, s.SetBPM(90))
	require.NoError(t, s.InsertTrack(0))
	require.NoError(t, s.SetNote(Cell{}, On(60, 100, 0)))
	s.Clear()
	assert.Equal(t, 90, s.BPM())
	assert.Equal(t, 1, s.TrackCount())
	assert.Empty(t, s.LinesWithData())
}

func TestNoteName(t *testing.T) {
	assert.Equal(t, "C-4", NoteName(60))
	assert.Equal(t, "A#2", NoteName(46))
	assert.Equal(t, "C--", NoteName(0))
	assert.Equal(t, "G-9", NoteName(127))
}
