package project

import (
	"go-tracker/automation"
	"go-tracker/song"
)

// Demo fills the models with a short two-pattern song: a bass line with
// a filter sweep, a chord column and a drum track fed by a layer. Drum
// notes follow the named kit.
func Demo(s *song.Song, a *automation.Service, kitName string) error {
	kit := GetKit(kitName)

	s.Clear()
	a.Clear()

	steps := []func() error{
		func() error { return s.SetBPM(118) },
		func() error { return s.SetLineCount(0, 32) },
		func() error { return s.SetLineCount(1, 32) },
		func() error { return s.SetPatternName(0, "intro") },
		func() error { return s.SetPatternName(1, "verse") },
		func() error { return s.SetTrackName(0, "bass") },
		func() error {
			return s.SetInstrument(0, &song.Instrument{Channel: 0, Settings: song.InstrumentSettings{
				Patch: 38, BankMSB: song.Unset, BankLSB: song.Unset,
			}})
		},
		func() error { return s.InsertColumn(0, 1) },
		func() error { return s.SetColumnName(0, 1, "chords") },
		func() error { return s.InsertTrack(1) },
		func() error { return s.SetTrackName(1, "drums") },
		func() error { return s.SetInstrument(1, &song.Instrument{Channel: 9, Settings: song.NoSettings()}) },
		func() error { return s.SetOrder([]int{0, 1, 1, 0}) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	bass := []uint8{36, 36, 43, 41}
	for p := range 2 {
		for i, n := range bass {
			line := i * 8
			if err := s.SetNote(song.Cell{Pattern: p, Track: 0, Column: 0, Line: line}, song.On(n+uint8(p)*2, 100, 0)); err != nil {
				return err
			}
			if err := s.SetNote(song.Cell{Pattern: p, Track: 0, Column: 0, Line: line + 6}, song.Off()); err != nil {
				return err
			}
		}
		for _, line := range []int{0, 16} {
			if err := s.SetNote(song.Cell{Pattern: p, Track: 0, Column: 1, Line: line}, song.On(60+uint8(p)*2, 80, uint8(line/4))); err != nil {
				return err
			}
			if err := s.SetNote(song.Cell{Pattern: p, Track: 0, Column: 1, Line: line + 12}, song.Off()); err != nil {
				return err
			}
		}
		for line := 0; line < 32; line += 4 {
			if err := s.SetNote(song.Cell{Pattern: p, Track: 1, Column: 0, Line: line + 2}, song.On(kit.Note(ClosedHat), 70, 0)); err != nil {
				return err
			}
		}
	}

	// Switch the bass patch at the top of the verse.
	if err := s.SetLineEvent(song.Cell{Pattern: 1, Track: 0, Column: 0, Line: 0},
		&song.LineEvent{Settings: song.InstrumentSettings{
			Patch: 39, BankMSB: song.Unset, BankLSB: song.Unset,
			Controllers: []song.ControllerValue{{Controller: 7, Value: 110}},
		}}); err != nil {
		return err
	}

	bassLoc := automation.Location{Pattern: 0, Track: 0, Column: 0}
	a.CC.Add(automation.MidiCcAutomation{
		Header:        automation.Header{Location: bassLoc, Enabled: true, Comment: "filter sweep"},
		Controller:    74,
		Interpolation: automation.Interpolation{Line0: 0, Line1: 31, Value0: 20, Value1: 110},
		Modulation:    &automation.Modulation{Cycles: 2, Amplitude: 12},
		EventsPerBeat: 8,
	})
	a.PitchBend.Add(automation.PitchBendAutomation{
		Header:        automation.Header{Location: automation.Location{Pattern: 1, Track: 0, Column: 1}, Enabled: true},
		Interpolation: automation.Interpolation{Line0: 24, Line1: 31, Value0: 0, Value1: -50},
	})
	// Kick under every bass note.
	for p := range 2 {
		a.Layers.Add(automation.InstrumentLayer{
			Header:         automation.Header{Location: automation.Location{Pattern: p, Track: 0, Column: 0}, Enabled: true},
			Line0:          0,
			Line1:          31,
			TargetTrack:    1,
			NoteSource:     automation.Fixed,
			Note:           kit.Note(Kick),
			VelocitySource: automation.FollowSource,
		})
	}
	return nil
}
