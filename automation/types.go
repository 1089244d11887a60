package automation

import "math"

// Location addresses the column an automation is attached to.
type Location struct {
	Pattern int `yaml:"pattern"`
	Track   int `yaml:"track"`
	Column  int `yaml:"column"`
}

// Interpolation is the ramp parameter block shared by CC and pitch bend
// automations. Values are in the parameter's own unit (CC byte or bend
// percent).
type Interpolation struct {
	Line0  int `yaml:"line0"`
	Line1  int `yaml:"line1"`
	Value0 int `yaml:"value0"`
	Value1 int `yaml:"value1"`
}

// Normalized collapses an inverted line range into a single point at
// Line0 holding Value0.
func (p Interpolation) Normalized() Interpolation {
	if p.Line1 < p.Line0 {
		return Interpolation{Line0: p.Line0, Line1: p.Line0, Value0: p.Value0, Value1: p.Value0}
	}
	return p
}

// Interpolator returns the ramp for the normalized parameters
func (p Interpolation) Interpolator() Interpolator {
	n := p.Normalized()
	return Interpolator{
		StartLine:  n.Line0,
		EndLine:    n.Line1,
		StartValue: float64(n.Value0),
		EndValue:   float64(n.Value1),
	}
}

// Contains reports whether line falls inside the normalized range
func (p Interpolation) Contains(line int) bool {
	n := p.Normalized()
	return line >= n.Line0 && line <= n.Line1
}

// Modulation superimposes a sine on a ramp. Offset is a phase in radians.
type Modulation struct {
	Cycles    float64 `yaml:"cycles"`
	Amplitude float64 `yaml:"amplitude"`
	Offset    float64 `yaml:"offset"`
	Inverted  bool    `yaml:"inverted,omitempty"`
}

// Value returns the modulation at progress (0..1 through the ramp)
func (m Modulation) Value(progress float64) float64 {
	v := m.Amplitude * math.Sin(2*math.Pi*m.Cycles*progress+m.Offset)
	if m.Inverted {
		return -v
	}
	return v
}

// Header carries the fields every automation kind shares.
type Header struct {
	ID       int      `yaml:"-"`
	Location Location `yaml:"location"`
	Enabled  bool     `yaml:"enabled"`
	Comment  string   `yaml:"comment,omitempty"`
}

// EntityID is the id assigned by the owning store
func (h Header) EntityID() int { return h.ID }

// Where is the column the automation is attached to
func (h Header) Where() Location { return h.Location }

// Active reports whether the automation renders
func (h Header) Active() bool { return h.Enabled }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
