package automation

// Interpolator is a linear ramp from (StartLine, StartValue) to
// (EndLine, EndValue). Lines outside the ramp hold the nearest end value.
type Interpolator struct {
	StartLine  int
	EndLine    int
	StartValue float64
	EndValue   float64
}

// Value returns the ramp value at line. A degenerate ramp (EndLine <=
// StartLine) is a single point and always yields StartValue.
func (i Interpolator) Value(line float64) float64 {
	if i.EndLine <= i.StartLine || line <= float64(i.StartLine) {
		return i.StartValue
	}
	if line >= float64(i.EndLine) {
		return i.EndValue
	}
	return i.StartValue + (i.EndValue-i.StartValue)*i.Progress(line)
}

// Progress returns how far line is into the ramp, in [0, 1].
func (i Interpolator) Progress(line float64) float64 {
	if i.EndLine <= i.StartLine || line <= float64(i.StartLine) {
		return 0
	}
	if line >= float64(i.EndLine) {
		return 1
	}
	return (line - float64(i.StartLine)) / float64(i.EndLine-i.StartLine)
}
