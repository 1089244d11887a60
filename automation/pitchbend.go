package automation

import "math"

// Pitch bend limits in the signed 14-bit representation gomidi uses.
const (
	BendMin = -8192
	BendMax = 8191
)

// PitchBendAutomation ramps pitch bend between two percentages
// (-100..+100) of the full bend range.
type PitchBendAutomation struct {
	Header        `yaml:",inline"`
	Interpolation Interpolation `yaml:"interpolation"`
}

func (a PitchBendAutomation) LineRange() (int, int) {
	n := a.Interpolation.Normalized()
	return n.Line0, n.Line1
}

func (a PitchBendAutomation) withID(id int) PitchBendAutomation {
	a.ID = id
	return a
}

// PercentAt returns the bend percentage at line, clamped to -100..100
func (a PitchBendAutomation) PercentAt(line float64) float64 {
	return clamp(a.Interpolation.Interpolator().Value(line), -100, 100)
}

// BendAt maps PercentAt onto the 14-bit bend range
func (a PitchBendAutomation) BendAt(line float64) int16 {
	return PercentToBend(a.PercentAt(line))
}

// Weight is the percentage normalized within the ramp's own range.
func (a PitchBendAutomation) Weight(line int) float64 {
	n := a.Interpolation.Normalized()
	lo := clamp(float64(min(n.Value0, n.Value1)), -100, 100)
	hi := clamp(float64(max(n.Value0, n.Value1)), -100, 100)
	if hi == lo {
		return 1
	}
	return clamp((a.PercentAt(float64(line))-lo)/(hi-lo), 0, 1)
}

// PercentToBend converts -100..100 percent to -8192..8191
func PercentToBend(percent float64) int16 {
	percent = clamp(percent, -100, 100)
	if percent >= 0 {
		return int16(math.Round(percent / 100 * BendMax))
	}
	return int16(math.Round(percent / 100 * -BendMin))
}
