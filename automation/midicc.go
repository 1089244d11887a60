package automation

import "math"

// MidiCcAutomation ramps a MIDI controller over a line range.
type MidiCcAutomation struct {
	Header        `yaml:",inline"`
	Controller    uint8         `yaml:"controller"`
	Interpolation Interpolation `yaml:"interpolation"`
	Modulation    *Modulation   `yaml:"modulation,omitempty"`

	// EventsPerBeat overrides the sampling density when rendering a
	// whole column; 0 samples once per line.
	EventsPerBeat int `yaml:"eventsPerBeat,omitempty"`
}

func (a MidiCcAutomation) LineRange() (int, int) {
	n := a.Interpolation.Normalized()
	return n.Line0, n.Line1
}

func (a MidiCcAutomation) withID(id int) MidiCcAutomation {
	a.ID = id
	if a.Modulation != nil {
		m := *a.Modulation
		a.Modulation = &m
	}
	return a
}

// ValueAt returns the modulated ramp value at a (possibly fractional)
// line, clamped to 0..127.
func (a MidiCcAutomation) ValueAt(line float64) float64 {
	ramp := a.Interpolation.Interpolator()
	v := ramp.Value(line)
	if a.Modulation != nil {
		v += a.Modulation.Value(ramp.Progress(line))
	}
	return clamp(v, 0, 127)
}

// Sample returns ValueAt rounded to a controller byte
func (a MidiCcAutomation) Sample(line float64) uint8 {
	return uint8(math.Round(a.ValueAt(line)))
}

// Weight is the value at line normalized within the ramp's own value
// range. A flat ramp weighs 1.
func (a MidiCcAutomation) Weight(line int) float64 {
	n := a.Interpolation.Normalized()
	lo := float64(min(n.Value0, n.Value1))
	hi := float64(max(n.Value0, n.Value1))
	if hi == lo {
		return 1
	}
	return clamp((a.ValueAt(float64(line))-lo)/(hi-lo), 0, 1)
}
