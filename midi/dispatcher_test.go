package midi

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

type sent struct {
	port string
	msg  gomidi.Message
}

type fakeSink struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (f *fakeSink) Send(port string, msg gomidi.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{port, msg})
	return f.err
}

func (f *fakeSink) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.msgs...)
}

func TestDispatchTranslatesEvents(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, nil)
	defer d.Close()

	d.Dispatch(Event{Type: NoteOn, Port: "a", Channel: 1, Note: 60, Velocity: 100})
	d.Dispatch(Event{Type: NoteOff, Port: "a", Channel: 1, Note: 60})
	d.Dispatch(Event{Type: CC, Port: "b", Channel: 2, Controller: 74, Value: 10})
	d.Dispatch(Event{Type: PitchBend, Channel: 3, Bend: -8192})
	d.Dispatch(Event{Type: ProgramChange, Channel: 4, Program: 12})
	d.Dispatch(Event{Type: BankChange, Channel: 4, BankMSB: 2, BankLSB: -1})
	d.Dispatch(Event{Type: AllNotesOff, Channel: 5})
	d.Dispatch(Event{Type: Clock})
	d.Flush()

	assert.Equal(t, []sent{
		{"a", gomidi.NoteOn(1, 60, 100)},
		{"a", gomidi.NoteOff(1, 60)},
		{"b", gomidi.ControlChange(2, 74, 10)},
		{"", gomidi.Pitchbend(3, -8192)},
		{"", gomidi.ProgramChange(4, 12)},
		{"", gomidi.ControlChange(4, 0, 2)},
		{"", gomidi.ControlChange(5, 123, 0)},
		{"", gomidi.TimingClock()},
	}, sink.all())
}

func TestDispatchKeepsOrderAcrossGoroutines(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, nil)
	defer d.Close()

	var wg sync.WaitGroup
	for ch := range uint8(4) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range uint8(50) {
				d.NoteOn("", ch, n, 100)
			}
		}()
	}
	wg.Wait()
	d.Flush()

	msgs := sink.all()
	require.Len(t, msgs, 200)
	last := map[uint8]int{0: -1, 1: -1, 2: -1, 3: -1}
	for _, m := range msgs {
		var ch, key, vel uint8
		require.True(t, m.msg.GetNoteOn(&ch, &key, &vel))
		assert.Greater(t, int(key), last[ch], "per-sender order is kept")
		last[ch] = int(key)
	}
}

func TestSinkErrorsAreDropped(t *testing.T) {
	sink := &fakeSink{err: errors.New("unplugged")}
	d := NewDispatcher(sink, nil)
	d.NoteOn("x", 0, 60, 1)
	d.NoteOn("x", 0, 61, 1)
	d.Flush()
	assert.Len(t, sink.all(), 2)
	d.Close()
}

func TestPlayAndStop(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, nil)
	defer d.Close()

	d.PlayAndStop("p", 0, 64, 90, 20*time.Millisecond)
	assert.Equal(t, 1, d.PendingCount())

	assert.Eventually(t, func() bool {
		d.Flush()
		return len(sink.all()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, gomidi.NoteOff(0, 64), sink.all()[1].msg)
	assert.Equal(t, 0, d.PendingCount())
}

func TestRestrikeReplacesTimer(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, nil)
	defer d.Close()

	d.PlayAndStop("p", 0, 64, 90, 30*time.Millisecond)
	d.PlayAndStop("p", 0, 64, 90, time.Hour)
	time.Sleep(60 * time.Millisecond)
	d.Flush()

	msgs := sink.all()
	require.Len(t, msgs, 2, "the first note-off was cancelled")
	assert.Equal(t, 1, d.PendingCount())

	d.ReleasePending()
	d.Flush()
	msgs = sink.all()
	require.Len(t, msgs, 3)
	assert.Equal(t, gomidi.NoteOff(0, 64), msgs[2].msg)
	assert.Equal(t, 0, d.PendingCount())
}

func TestCloseReleasesAndDrains(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, nil)
	d.PlayAndStop("p", 3, 40, 90, time.Hour)
	d.Close()

	msgs := sink.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, gomidi.NoteOff(3, 40), msgs[1].msg)

	// no-ops once closed
	d.NoteOn("p", 0, 1, 1)
	d.Flush()
	d.Close()
	assert.Len(t, sink.all(), 2)
}

func TestPortSinkOpensLazily(t *testing.T) {
	opened := map[string]int{}
	var got []gomidi.Message
	s := NewPortSink("synth")
	s.lookup = func(name string) (func(gomidi.Message) error, error) {
		if name == "missing" {
			return nil, portNotFound(name)
		}
		opened[name]++
		return func(m gomidi.Message) error {
			got = append(got, m)
			return nil
		}, nil
	}

	require.NoError(t, s.Send("", gomidi.NoteOn(0, 1, 1)))
	require.NoError(t, s.Send("synth", gomidi.NoteOn(0, 2, 1)))
	require.NoError(t, s.Send("other", gomidi.NoteOn(0, 3, 1)))
	assert.Equal(t, map[string]int{"synth": 1, "other": 1}, opened)
	assert.Len(t, got, 3)

	err := s.Send("missing", gomidi.NoteOn(0, 1, 1))
	assert.ErrorIs(t, err, ErrPortNotFound)

	s.SetDefaultPort("")
	assert.ErrorIs(t, s.Send("", gomidi.NoteOn(0, 1, 1)), ErrPortNotFound)
}

func TestPortSinkBacksOffMissingPorts(t *testing.T) {
	lookups := 0
	clock := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	s := NewPortSink("synth")
	s.now = func() time.Time { return clock }
	s.lookup = func(name string) (func(gomidi.Message) error, error) {
		lookups++
		return nil, portNotFound(name)
	}

	for range 100 {
		assert.ErrorIs(t, s.Send("gone", gomidi.NoteOn(0, 60, 100)), ErrPortNotFound)
	}
	assert.Equal(t, 1, lookups)

	clock = clock.Add(PortRetry)
	assert.ErrorIs(t, s.Send("gone", gomidi.NoteOn(0, 60, 100)), ErrPortNotFound)
	assert.Equal(t, 2, lookups)

	s.Retry()
	assert.ErrorIs(t, s.Send("gone", gomidi.NoteOn(0, 60, 100)), ErrPortNotFound)
	assert.Equal(t, 3, lookups)
}

func TestPortSinkOpensPortAfterRetry(t *testing.T) {
	present := false
	s := NewPortSink("")
	s.lookup = func(name string) (func(gomidi.Message) error, error) {
		if !present {
			return nil, portNotFound(name)
		}
		return func(gomidi.Message) error { return nil }, nil
	}

	require.ErrorIs(t, s.Send("synth", gomidi.NoteOn(0, 60, 100)), ErrPortNotFound)
	present = true
	require.ErrorIs(t, s.Send("synth", gomidi.NoteOn(0, 60, 100)), ErrPortNotFound)
	s.Retry()
	require.NoError(t, s.Send("synth", gomidi.NoteOn(0, 60, 100)))
}

func TestEventPriority(t *testing.T) {
	assert.Less(t, NoteOff.Priority(), ProgramChange.Priority())
	assert.Less(t, BankChange.Priority(), CC.Priority())
	assert.Less(t, PitchBend.Priority(), NoteOn.Priority())
	assert.Equal(t, "NoteOn", NoteOn.String())
}
