package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolatorEndpointsAreExact(t *testing.T) {
	ramps := []Interpolator{
		{StartLine: 4, EndLine: 12, StartValue: 0, EndValue: 100},
		{StartLine: 0, EndLine: 3, StartValue: 0.1, EndValue: 0.3},
		{StartLine: 10, EndLine: 11, StartValue: 127, EndValue: 0},
		{StartLine: 0, EndLine: 128, StartValue: 10, EndValue: 20},
	}
	for _, r := range ramps {
		assert.Equal(t, r.StartValue, r.Value(float64(r.StartLine)))
		assert.Equal(t, r.EndValue, r.Value(float64(r.EndLine)))
	}
}

func TestInterpolatorStaysWithinBoundsAndIsMonotonic(t *testing.T) {
	r := Interpolator{StartLine: 3, EndLine: 40, StartValue: 5, EndValue: 90}
	prev := r.Value(3)
	for line := 3; line <= 40; line++ {
		v := r.Value(float64(line))
		assert.GreaterOrEqual(t, v, 5.0)
		assert.LessOrEqual(t, v, 90.0)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestInterpolatorClampsOutsideRange(t *testing.T) {
	r := Interpolator{StartLine: 4, EndLine: 8, StartValue: 20, EndValue: 60}
	assert.Equal(t, 20.0, r.Value(0))
	assert.Equal(t, 20.0, r.Value(-3))
	assert.Equal(t, 60.0, r.Value(9))
	assert.Equal(t, 60.0, r.Value(1000))
	assert.InDelta(t, 40.0, r.Value(6), 1e-9)
}

func TestInterpolatorPoint(t *testing.T) {
	r := Interpolator{StartLine: 5, EndLine: 5, StartValue: 33, EndValue: 99}
	assert.Equal(t, 33.0, r.Value(0))
	assert.Equal(t, 33.0, r.Value(5))
	assert.Equal(t, 33.0, r.Value(50))
}

func TestInvertedInterpolationDegradesToPoint(t *testing.T) {
	p := Interpolation{Line0: 10, Line1: 2, Value0: 64, Value1: 0}
	n := p.Normalized()
	assert.Equal(t, Interpolation{Line0: 10, Line1: 10, Value0: 64, Value1: 64}, n)
	assert.True(t, p.Contains(10))
	assert.False(t, p.Contains(5))
	assert.Equal(t, 64.0, p.Interpolator().Value(2))
}

func TestModulation(t *testing.T) {
	m := Modulation{Cycles: 1, Amplitude: 10}
	assert.InDelta(t, 0, m.Value(0), 1e-9)
	assert.InDelta(t, 10, m.Value(0.25), 1e-9)
	assert.InDelta(t, -10, m.Value(0.75), 1e-9)

	m.Inverted = true
	assert.InDelta(t, -10, m.Value(0.25), 1e-9)
}

func TestMidiCcValueClampsModulation(t *testing.T) {
	a := MidiCcAutomation{
		Interpolation: Interpolation{Line0: 0, Line1: 4, Value0: 120, Value1: 120},
		Modulation:    &Modulation{Cycles: 1, Amplitude: 50},
	}
	assert.Equal(t, uint8(127), a.Sample(1))
	assert.Equal(t, uint8(70), a.Sample(3))
}

func TestPercentToBend(t *testing.T) {
	assert.Equal(t, int16(0), PercentToBend(0))
	assert.Equal(t, int16(8191), PercentToBend(100))
	assert.Equal(t, int16(-8192), PercentToBend(-100))
	assert.Equal(t, int16(8191), PercentToBend(250))
	assert.Equal(t, int16(4096), PercentToBend(50))
}
