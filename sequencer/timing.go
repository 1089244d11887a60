package sequencer

import (
	"math"
	"time"

	"go-tracker/compiler"
)

// PPQ is the scheduler resolution in ticks per beat
const PPQ = 96

// clockEvery is the tick distance between MIDI clock pulses (24 per beat)
const clockEvery = PPQ / 24

// Timing converts between ticks, lines and wall-clock time for one tempo
type Timing struct {
	BPM          int
	LinesPerBeat int
	TicksPerLine int
	TickDuration time.Duration
}

// NewTiming derives the tick layout; non-positive inputs fall back to
// 120 BPM and 4 lines per beat.
func NewTiming(bpm, linesPerBeat int) Timing {
	if bpm <= 0 {
		bpm = 120
	}
	if linesPerBeat <= 0 {
		linesPerBeat = 4
	}
	return Timing{
		BPM:          bpm,
		LinesPerBeat: linesPerBeat,
		TicksPerLine: max(1, int(math.Round(float64(PPQ)/float64(linesPerBeat)))),
		TickDuration: time.Minute / time.Duration(bpm*PPQ),
	}
}

// Compiler returns the line layout the compiler needs
func (t Timing) Compiler() compiler.Timing {
	return compiler.Timing{TicksPerLine: t.TicksPerLine, LinesPerBeat: t.LinesPerBeat}
}

// TickTime returns how long after origin tick starts
func (t Timing) TickTime(tick int64) time.Duration {
	return time.Duration(tick) * t.TickDuration
}

// TicksIn returns how many whole ticks fit in d
func (t Timing) TicksIn(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / t.TickDuration)
}

// LineDuration is the length of one line
func (t Timing) LineDuration() time.Duration {
	return t.TickTime(int64(t.TicksPerLine))
}
