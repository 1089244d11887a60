package sequencer

import (
	"sort"

	"go-tracker/compiler"
	"go-tracker/midi"

	"github.com/Southclaws/fault"
)

// Render plays the whole order offline and returns the events the
// player would send, with absolute ticks from the start of the song.
// Mixer rules apply as in real time; mx may be nil. Sounding voices are
// released at the end.
func Render(s Song, a Automation, mx Mixer) ([]midi.Event, error) {
	n := s.OrderLength()
	if n == 0 {
		return nil, fault.Wrap(ErrEmptySong)
	}

	timing := NewTiming(s.BPM(), s.LinesPerBeat())
	c := compiler.New(s, a)
	voices := NewVoices()

	var out []midi.Event
	emit := func(e midi.Event) { out = append(out, e) }

	var origin int64
	for pos := range n {
		pattern, _ := s.PatternAt(pos)
		for _, e := range c.CompilePattern(pattern, timing.Compiler(), origin) {
			route(voices, mx, e, emit)
		}
		origin += int64(s.LineCount(pattern) * timing.TicksPerLine)
	}

	end := origin
	for _, e := range out {
		end = max(end, e.Tick)
	}
	for _, e := range voices.ReleaseAll() {
		e.Tick = end
		emit(e)
	}
	// delayed notes can spill past their pattern
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}

// SongTicks is the length of the whole order in ticks
func SongTicks(s Song) int64 {
	timing := NewTiming(s.BPM(), s.LinesPerBeat())
	var total int64
	for pos := range s.OrderLength() {
		pattern, _ := s.PatternAt(pos)
		total += int64(s.LineCount(pattern) * timing.TicksPerLine)
	}
	return total
}
