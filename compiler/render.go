package compiler

import (
	"go-tracker/automation"
	"go-tracker/midi"
	"go-tracker/song"
)

// RenderLine returns one event per enabled automation of loc that is
// active at line, all stamped at tick.
func (c *Compiler) RenderLine(loc automation.Location, line int, tick int64) []midi.Event {
	inst := c.instrument(loc.Track)
	var out []midi.Event
	for _, a := range c.automation.CCFor(loc) {
		if a.Enabled && a.Interpolation.Contains(line) {
			out = append(out, ccEvent(inst, loc, tick, a.Controller, a.Sample(float64(line))))
		}
	}
	for _, a := range c.automation.PitchBendsFor(loc) {
		if a.Enabled && a.Interpolation.Contains(line) {
			out = append(out, bendEvent(inst, loc, tick, a.BendAt(float64(line))))
		}
	}
	return out
}

// RenderColumnAutomation samples every enabled automation of loc over its
// line range and emits an event only when the sampled value differs from
// the one emitted before. Ranges are cut at the pattern end.
func (c *Compiler) RenderColumnAutomation(loc automation.Location, lineCount int, timing Timing, origin int64, inst song.Instrument) []midi.Event {
	tpl := timing.ticksPerLine()
	var out []midi.Event
	for _, a := range c.automation.CCFor(loc) {
		if !a.Enabled {
			continue
		}
		step := sampleStep(timing, a.EventsPerBeat)
		last := -1
		sampleRange(a.LineRange, lineCount, tpl, step, func(tick int64, line float64) {
			v := int(a.Sample(line))
			if v == last {
				return
			}
			last = v
			out = append(out, ccEvent(inst, loc, origin+tick, a.Controller, uint8(v)))
		})
	}
	for _, a := range c.automation.PitchBendsFor(loc) {
		if !a.Enabled {
			continue
		}
		last := int(automation.BendMax) + 1
		sampleRange(a.LineRange, lineCount, tpl, tpl, func(tick int64, line float64) {
			v := a.BendAt(line)
			if int(v) == last {
				return
			}
			last = int(v)
			out = append(out, bendEvent(inst, loc, origin+tick, v))
		})
	}
	return out
}

// sampleStep converts an events-per-beat density to ticks; zero means
// one sample per line.
func sampleStep(timing Timing, eventsPerBeat int) int64 {
	tpl := timing.ticksPerLine()
	if eventsPerBeat <= 0 || timing.LinesPerBeat <= 0 {
		return tpl
	}
	return max(1, tpl*int64(timing.LinesPerBeat)/int64(eventsPerBeat))
}

// sampleRange calls fn for every step of the range, always including
// the last line of the range.
func sampleRange(lineRange func() (int, int), lineCount int, tpl, step int64, fn func(tick int64, line float64)) {
	l0, l1 := lineRange()
	l0 = max(l0, 0)
	l1 = min(l1, lineCount-1)
	if l1 < l0 {
		return
	}
	start, end := int64(l0)*tpl, int64(l1)*tpl
	for t := start; t <= end; t += step {
		fn(t, float64(t)/float64(tpl))
	}
	if (end-start)%step != 0 {
		fn(end, float64(l1))
	}
}

func ccEvent(inst song.Instrument, loc automation.Location, tick int64, controller, value uint8) midi.Event {
	return midi.Event{
		Tick:       tick,
		Type:       midi.CC,
		Port:       inst.Port,
		Channel:    inst.Channel,
		Controller: controller,
		Value:      value,
		Track:      loc.Track,
		Column:     loc.Column,
		Layer:      midi.NoLayer,
		BankMSB:    song.Unset,
		BankLSB:    song.Unset,
	}
}

func bendEvent(inst song.Instrument, loc automation.Location, tick int64, bend int16) midi.Event {
	return midi.Event{
		Tick:    tick,
		Type:    midi.PitchBend,
		Port:    inst.Port,
		Channel: inst.Channel,
		Bend:    bend,
		Track:   loc.Track,
		Column:  loc.Column,
		Layer:   midi.NoLayer,
		BankMSB: song.Unset,
		BankLSB: song.Unset,
	}
}
