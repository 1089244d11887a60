// Package export writes songs as Standard MIDI Files.
package export

import (
	"io"
	"sort"

	"go-tracker/midi"
	"go-tracker/sequencer"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Song adds track names to what the sequencer renders from
type Song interface {
	sequencer.Song
	TrackName(t int) string
}

// Build renders the song and lays it out as a type 1 file: a tempo
// track followed by one track per song track. Transport events are
// dropped. Ticks are sequencer ticks, so the file resolution is
// sequencer.PPQ.
func Build(s Song, a sequencer.Automation, mx sequencer.Mixer) (*smf.SMF, error) {
	events, err := sequencer.Render(s, a, mx)
	if err != nil {
		return nil, err
	}
	end := sequencer.SongTicks(s)
	for _, e := range events {
		end = max(end, e.Tick)
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(sequencer.PPQ)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(float64(s.BPM())))
	tempo.Close(uint32(end))
	if err := sm.Add(tempo); err != nil {
		return nil, fault.Wrap(err, fmsg.With("add tempo track"))
	}

	byTrack := make(map[int][]midi.Event)
	for _, e := range events {
		switch e.Type {
		case midi.Start, midi.Stop, midi.Clock:
			continue
		}
		byTrack[e.Track] = append(byTrack[e.Track], e)
	}

	n := s.TrackCount()
	for t := range byTrack {
		n = max(n, t+1)
	}
	for t := range n {
		track := buildTrack(s.TrackName(t), byTrack[t], end)
		if err := sm.Add(track); err != nil {
			return nil, fault.Wrap(err, fmsg.With("add track "+s.TrackName(t)))
		}
	}
	return sm, nil
}

func buildTrack(name string, events []midi.Event, end int64) smf.Track {
	var track smf.Track
	if name != "" {
		track.Add(0, smf.MetaTrackSequenceName(name))
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Tick < events[j].Tick })

	var last int64
	for _, e := range events {
		for _, msg := range e.Messages() {
			track.Add(uint32(e.Tick-last), msg)
			last = e.Tick
		}
	}
	track.Close(uint32(max(0, end-last)))
	return track
}

// Write renders the song as a Standard MIDI File to w
func Write(w io.Writer, s Song, a sequencer.Automation, mx sequencer.Mixer) error {
	sm, err := Build(s, a, mx)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fault.Wrap(err, fmsg.With("write midi file"))
	}
	return nil
}

// WriteFile renders the song to path
func WriteFile(path string, s Song, a sequencer.Automation, mx sequencer.Mixer) error {
	sm, err := Build(s, a, mx)
	if err != nil {
		return err
	}
	if err := sm.WriteFile(path); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("write midi file", "Could not write "+path))
	}
	return nil
}
