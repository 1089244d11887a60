package automation

import (
	"errors"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ccAt(loc Location, l0, l1, v0, v1 int) MidiCcAutomation {
	return MidiCcAutomation{
		Header:        Header{Location: loc, Enabled: true},
		Controller:    64,
		Interpolation: Interpolation{Line0: l0, Line1: l1, Value0: v0, Value1: v1},
	}
}

func TestStoreAssignsIDs(t *testing.T) {
	s := NewStore[MidiCcAutomation]()
	loc := Location{Track: 1}

	a := s.Add(ccAt(loc, 0, 4, 0, 10))
	b := s.Add(ccAt(loc, 0, 4, 0, 10))
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	require.NoError(t, s.Delete(1))
	c := s.Add(ccAt(loc, 0, 4, 0, 10))
	assert.Equal(t, 3, c.ID, "ids continue from the max existing id")

	require.NoError(t, s.Delete(2))
	require.NoError(t, s.Delete(3))
	d := s.Add(ccAt(loc, 0, 4, 0, 10))
	assert.Equal(t, 1, d.ID, "an empty store starts over at 1")
}

func TestStoreKeepsInsertionOrderAndOverlaps(t *testing.T) {
	s := NewStore[MidiCcAutomation]()
	loc := Location{Pattern: 0, Track: 0, Column: 0}
	s.Add(ccAt(loc, 0, 8, 0, 100))
	s.Add(ccAt(loc, 4, 12, 50, 60))

	all := s.At(loc, 6)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore[MidiCcAutomation]()
	a := ccAt(Location{}, 0, 8, 0, 100)
	a.Modulation = &Modulation{Cycles: 1, Amplitude: 5}
	stored := s.Add(a)

	stored.Modulation.Amplitude = 99
	a.Modulation.Amplitude = 77

	got, ok := s.Get(stored.ID)
	require.True(t, ok)
	assert.Equal(t, 5.0, got.Modulation.Amplitude)
}

func TestStoreNotFound(t *testing.T) {
	s := NewStore[PitchBendAutomation]()
	err := s.Delete(42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, ftag.NotFound, ftag.Get(err))

	err = s.Update(PitchBendAutomation{Header: Header{ID: 7}})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteInvalidatesOriginalRange(t *testing.T) {
	s := NewStore[MidiCcAutomation]()
	loc := Location{Pattern: 2, Track: 1, Column: 0}
	a := s.Add(ccAt(loc, 3, 9, 0, 127))

	var got []Invalidation
	unsubscribe := s.Subscribe(func(inv Invalidation) { got = append(got, inv) })
	defer unsubscribe()

	require.NoError(t, s.Delete(a.ID))
	assert.Equal(t, []Invalidation{{Location: loc, Line0: 3, Line1: 9}}, got)
}

func TestUpdateInvalidatesUnion(t *testing.T) {
	s := NewStore[MidiCcAutomation]()
	loc := Location{Pattern: 0, Track: 1, Column: 2}
	a := s.Add(ccAt(loc, 4, 12, 0, 100))

	var got []Invalidation
	s.Subscribe(func(inv Invalidation) { got = append(got, inv) })

	a.Interpolation.Line0 = 10
	a.Interpolation.Line1 = 20
	require.NoError(t, s.Update(a))
	assert.Equal(t, []Invalidation{{Location: loc, Line0: 4, Line1: 20}}, got)

	got = nil
	moved := a
	moved.Location = Location{Pattern: 1, Track: 1, Column: 2}
	require.NoError(t, s.Update(moved))
	assert.Equal(t, []Invalidation{
		{Location: loc, Line0: 10, Line1: 20},
		{Location: moved.Location, Line0: 10, Line1: 20},
	}, got)
}

func TestUnsubscribe(t *testing.T) {
	s := NewStore[InstrumentLayer]()
	calls := 0
	unsubscribe := s.Subscribe(func(Invalidation) { calls++ })
	s.Add(InstrumentLayer{Line0: 0, Line1: 4})
	unsubscribe()
	s.Add(InstrumentLayer{Line0: 0, Line1: 4})
	assert.Equal(t, 1, calls)
}

func TestLoadReassignsSequentialIDs(t *testing.T) {
	s := NewStore[PitchBendAutomation]()
	s.Load([]PitchBendAutomation{
		{Header: Header{ID: 40, Comment: "a"}},
		{Header: Header{ID: 7, Comment: "b"}},
	})
	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, "a", all[0].Comment)
	assert.Equal(t, 2, all[1].ID)
	assert.Equal(t, "b", all[1].Comment)
}

func TestWeightScenario(t *testing.T) {
	svc := NewService()
	loc := Location{Pattern: 0, Track: 1, Column: 2}
	svc.CC.Add(ccAt(loc, 4, 12, 0, 100))

	assert.Equal(t, 0.0, svc.Weight(loc, 4))
	assert.Equal(t, 1.0, svc.Weight(loc, 12))
	assert.InDelta(t, 0.5, svc.Weight(loc, 8), 0.01)

	assert.Equal(t, 0.0, svc.Weight(loc, 3))
	assert.Equal(t, 0.0, svc.Weight(Location{Track: 1}, 8))
}

func TestWeightAveragesKinds(t *testing.T) {
	svc := NewService()
	loc := Location{}
	svc.CC.Add(ccAt(loc, 0, 10, 0, 100))
	svc.PitchBend.Add(PitchBendAutomation{
		Header:        Header{Location: loc, Enabled: true},
		Interpolation: Interpolation{Line0: 0, Line1: 10, Value0: -100, Value1: 100},
	})
	// both ramps are at their midpoint
	assert.InDelta(t, 0.5, svc.Weight(loc, 5), 1e-9)
	// both at the top
	assert.InDelta(t, 1.0, svc.Weight(loc, 10), 1e-9)
}

func TestDisabledAutomationsDoNotAffect(t *testing.T) {
	svc := NewService()
	loc := Location{Track: 3}
	a := ccAt(loc, 0, 8, 0, 100)
	a.Enabled = false
	svc.CC.Add(a)

	assert.False(t, svc.HasAutomations(loc, 2))
	assert.Equal(t, 0.0, svc.Weight(loc, 2))
	assert.Len(t, svc.CCFor(loc), 1)

	svc.Layers.Add(InstrumentLayer{Header: Header{Location: loc, Enabled: true}, Line0: 2, Line1: 2})
	assert.True(t, svc.HasAutomations(loc, 2))
	assert.False(t, svc.HasAutomations(loc, 3))
}

func TestServiceRevision(t *testing.T) {
	svc := NewService()
	r0 := svc.Revision()
	svc.PitchBend.Add(PitchBendAutomation{})
	assert.NotEqual(t, r0, svc.Revision())
}

func TestLayerValues(t *testing.T) {
	l := InstrumentLayer{NoteSource: Fixed, Note: 36, VelocitySource: FollowSource}
	assert.Equal(t, uint8(36), l.NoteFor(60))
	assert.Equal(t, uint8(90), l.VelocityFor(90))

	l = InstrumentLayer{NoteSource: FollowSource, VelocitySource: Fixed, Velocity: 200}
	assert.Equal(t, uint8(60), l.NoteFor(60))
	assert.Equal(t, uint8(127), l.VelocityFor(90))
}
