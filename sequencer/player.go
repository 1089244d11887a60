// Package sequencer plays a compiled song in real time.
package sequencer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go-tracker/automation"
	"go-tracker/compiler"
	"go-tracker/debug"
	"go-tracker/midi"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	ErrEmptySong   = errors.New("play order is empty")
	ErrBadPosition = errors.New("song position out of range")
)

// Tempo bounds applied by SetTempo
const (
	MinBPM = 20
	MaxBPM = 300
)

// maxWait bounds a single sleep so edits and tempo changes are picked up
// promptly even when no event is due.
const maxWait = 20 * time.Millisecond

// Song is what the player reads from the song model
type Song interface {
	compiler.SongReader
	BPM() int
	SetBPM(bpm int) error
	LinesPerBeat() int
	OrderLength() int
	PatternAt(pos int) (int, bool)
	Revision() uint64
	Generation() uint64
}

// Automation is what the player reads from the automation service
type Automation interface {
	compiler.AutomationReader
	Revision() uint64
}

// Mixer decides what plays and how loud
type Mixer interface {
	ShouldTrackPlay(track int) bool
	ShouldColumnPlay(track, column int) bool
	EffectiveVelocity(track, column int, velocity uint8) uint8
}

// Output receives events as they become due
type Output interface {
	Dispatch(e midi.Event)
	Flush()
}

// Listener is notified from the player goroutine; implementations must
// not block.
type Listener interface {
	TickUpdated(position, line int, tick int64)
	SongPositionChanged(position int)
	PlayingChanged(playing bool)
	SongEnded()
}

type State int

const (
	Stopped State = iota
	Playing
	Looping // wrapping from the end of the order back to the start
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Looping:
		return "looping"
	default:
		return "stopped"
	}
}

// Options configure transport output
type Options struct {
	Looping   bool
	SendClock bool
	ClockPort string
}

// Player owns playback. Each Play starts one goroutine that lives until
// Stop or the end of the song.
type Player struct {
	song     Song
	auto     Automation
	compiler *compiler.Compiler
	mixer    Mixer
	out      Output
	log      *debug.Logger
	listener Listener

	mu        sync.Mutex
	state     State
	looping   bool
	sendClock bool
	clockPort string
	position  int
	line      int
	tick      int64
	stop      chan struct{}
	done      chan struct{}
	wake      chan struct{}

	// UpdateChan gets a non-blocking send on every line change, for UIs
	UpdateChan chan struct{}

	now func() time.Time
}

func NewPlayer(s Song, a Automation, mx Mixer, out Output, opts Options, log *debug.Logger) *Player {
	return &Player{
		song:       s,
		auto:       a,
		compiler:   compiler.New(s, a),
		mixer:      mx,
		out:        out,
		log:        log,
		looping:    opts.Looping,
		sendClock:  opts.SendClock,
		clockPort:  opts.ClockPort,
		wake:       make(chan struct{}, 1),
		UpdateChan: make(chan struct{}, 1),
		now:        time.Now,
	}
}

// SetListener must be called before Play
func (p *Player) SetListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) IsPlaying() bool {
	return p.State() != Stopped
}

// Position returns the play order position and line
func (p *Player) Position() (position, line int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, p.line
}

// Tick returns the tick within the current pattern
func (p *Player) Tick() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick
}

func (p *Player) Looping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.looping
}

func (p *Player) SetLooping(on bool) {
	p.mu.Lock()
	p.looping = on
	p.mu.Unlock()
	p.Interrupt()
}

// SetTempo clamps bpm to MinBPM..MaxBPM and stores it in the song; a
// running player follows on its next iteration.
func (p *Player) SetTempo(bpm int) error {
	bpm = max(MinBPM, min(MaxBPM, bpm))
	if err := p.song.SetBPM(bpm); err != nil {
		return err
	}
	p.Interrupt()
	return nil
}

// Interrupt wakes the run loop so it re-checks for edits. Subscribe it
// to model changes.
func (p *Player) Interrupt() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Play starts from the current position
func (p *Player) Play() error {
	if p.song.OrderLength() == 0 {
		return fault.Wrap(ErrEmptySong, ftag.With(ftag.InvalidArgument))
	}
	p.mu.Lock()
	if p.state != Stopped {
		p.mu.Unlock()
		return nil
	}
	if p.position >= p.song.OrderLength() {
		p.position, p.line = 0, 0
	}
	p.start()
	p.mu.Unlock()
	return nil
}

// start launches the run goroutine; p.mu must be held
func (p *Player) start() {
	p.state = Playing
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done, p.position, p.line, p.listener)
}

// Stop cancels playback and returns once every sounding note has been
// released and the output flushed.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.state == Stopped {
		p.mu.Unlock()
		return
	}
	// only the first caller closes; later ones just wait
	stop, done := p.stop, p.done
	p.stop = nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	<-done
}

// SetSongPosition seeks to a play order position and line. While
// playing, the player stops, seeks and resumes.
func (p *Player) SetSongPosition(position, line int) error {
	if position < 0 || position >= p.song.OrderLength() {
		return fault.Wrap(ErrBadPosition,
			fmsg.With(fmt.Sprintf("position %d", position)),
			ftag.With(ftag.InvalidArgument))
	}
	line = max(0, line)

	wasPlaying := p.IsPlaying()
	if wasPlaying {
		p.Stop()
	}

	p.mu.Lock()
	p.position, p.line, p.tick = position, line, 0
	l := p.listener
	if wasPlaying && p.state == Stopped {
		p.start()
	}
	p.mu.Unlock()

	if !wasPlaying && l != nil {
		l.SongPositionChanged(position)
	}
	p.notifyUI()
	return nil
}

func (p *Player) notifyUI() {
	select {
	case p.UpdateChan <- struct{}{}:
	default:
	}
}

// playback is the state of one run goroutine
type playback struct {
	voices   *Voices
	listener Listener
	timing   Timing
	pattern  int
	events   []midi.Event
	next     int   // index of the first event not yet dispatched
	cursor   int64 // ticks before cursor are done
	endTick  int64
	songRev  uint64
	autoRev  uint64
	songGen  uint64
	anchor   time.Time // wall-clock time of tick 0 of the current pattern
	clock    int64     // next clock tick
}

func (p *Player) run(stop <-chan struct{}, done chan struct{}, position, line int, l Listener) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb := &playback{voices: NewVoices(), listener: l, songGen: p.song.Generation()}
	ended := false

	defer func() {
		p.release(pb)
		p.mu.Lock()
		if p.done == done {
			p.state = Stopped
			// the next Play starts over
			if ended {
				p.position, p.line, p.tick = 0, 0, 0
			}
		}
		p.mu.Unlock()
		if l != nil {
			if ended {
				l.SongEnded()
			}
			l.PlayingChanged(false)
		}
		p.notifyUI()
		close(done)
	}()

	if l != nil {
		l.PlayingChanged(true)
	}
	if p.clockEnabled() {
		p.out.Dispatch(midi.Event{Type: midi.Start, Port: p.clockPort})
	}

	anchor := p.now()
	for {
		pattern, ok := p.song.PatternAt(position)
		if !ok {
			if !p.Looping() || p.song.OrderLength() == 0 {
				ended = true
				return
			}
			p.setState(Looping)
			position, line = 0, 0
			continue
		}
		p.setState(Playing)
		p.enterPosition(pb, position, line, pattern)
		if l != nil {
			l.SongPositionChanged(position)
		}

		// keep the wall clock continuous across patterns
		pb.anchor = anchor.Add(-pb.timing.TickTime(pb.cursor))
		if !p.playPattern(pb, stop, position) {
			return
		}
		anchor = pb.anchor.Add(pb.timing.TickTime(pb.endTick))
		position, line = position+1, 0
	}
}

func (p *Player) clockEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sendClock
}

func (p *Player) setState(s State) {
	p.mu.Lock()
	if p.state != Stopped {
		p.state = s
	}
	p.mu.Unlock()
}

// enterPosition compiles the pattern and moves the cursor to line,
// chasing automation values for a mid-pattern start.
func (p *Player) enterPosition(pb *playback, position, line, pattern int) {
	pb.pattern = pattern
	p.compile(pb)
	line = min(line, p.song.LineCount(pattern)-1)
	pb.cursor = int64(line) * int64(pb.timing.TicksPerLine)
	pb.next = firstAtOrAfter(pb.events, pb.cursor)
	pb.clock = (pb.cursor + clockEvery - 1) / clockEvery * clockEvery

	if line > 0 {
		for t := range p.song.TrackCount() {
			for c := range p.song.ColumnCount(t) {
				loc := automation.Location{Pattern: pattern, Track: t, Column: c}
				for _, e := range p.compiler.RenderLine(loc, line, pb.cursor) {
					p.dispatch(pb, e)
				}
			}
		}
	}
	p.log.Log("player", "position=%d pattern=%d line=%d events=%d", position, pattern, line, len(pb.events))
}

// compile renders the current pattern. After a structural edit the
// sounding voices are released first: their track and column indices
// may no longer name the same columns.
func (p *Player) compile(pb *playback) {
	if gen := p.song.Generation(); gen != pb.songGen {
		pb.songGen = gen
		for _, e := range pb.voices.ReleaseAll() {
			p.out.Dispatch(e)
		}
	}
	pb.songRev, pb.autoRev = p.song.Revision(), p.auto.Revision()
	pb.timing = NewTiming(p.song.BPM(), p.song.LinesPerBeat())
	pb.endTick = int64(p.song.LineCount(pb.pattern)) * int64(pb.timing.TicksPerLine)
	pb.events = p.compiler.CompilePattern(pb.pattern, pb.timing.Compiler(), 0)
}

// recompileIfStale picks up edits made while playing. The cursor keeps
// its line position when the tempo changes.
func (p *Player) recompileIfStale(pb *playback, now time.Time) {
	if p.song.Revision() == pb.songRev && p.auto.Revision() == pb.autoRev {
		return
	}
	old := pb.timing
	p.compile(pb)
	if old != pb.timing {
		line := float64(pb.cursor) / float64(old.TicksPerLine)
		pb.cursor = int64(line * float64(pb.timing.TicksPerLine))
		pb.anchor = now.Add(-pb.timing.TickTime(pb.cursor))
		pb.clock = (pb.cursor + clockEvery - 1) / clockEvery * clockEvery
	}
	pb.next = firstAtOrAfter(pb.events, pb.cursor)
	p.log.Log("player", "recompiled pattern=%d events=%d", pb.pattern, len(pb.events))
}

// playPattern dispatches the pattern's events as they fall due. It
// returns false when stopped.
func (p *Player) playPattern(pb *playback, stop <-chan struct{}, position int) bool {
	lastLine := -1
	for {
		select {
		case <-stop:
			return false
		default:
		}
		now := p.now()
		p.recompileIfStale(pb, now)

		// re-derive the tick from the wall clock every iteration
		current := pb.timing.TicksIn(now.Sub(pb.anchor))
		limit := min(current, pb.endTick-1)

		// whatever is left goes out as the pattern ends
		ending := current >= pb.endTick
		for pb.next < len(pb.events) && (pb.events[pb.next].Tick <= current || ending) {
			p.dispatch(pb, pb.events[pb.next])
			pb.next++
		}
		if p.clockEnabled() {
			for pb.clock <= limit {
				p.out.Dispatch(midi.Event{Tick: pb.clock, Type: midi.Clock, Port: p.clockPort})
				pb.clock += clockEvery
			}
		}
		if limit >= pb.cursor {
			pb.cursor = limit + 1
		}

		if line := int(limit / int64(pb.timing.TicksPerLine)); line != lastLine {
			lastLine = line
			p.setLine(pb, position, line, limit)
		}

		if ending {
			return true
		}

		wait := pb.anchor.Add(pb.timing.TickTime(p.nextWake(pb))).Sub(p.now())
		wait = min(wait, maxWait)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()
			return false
		case <-p.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// nextWake is the next tick anything happens at
func (p *Player) nextWake(pb *playback) int64 {
	next := pb.endTick
	if pb.next < len(pb.events) {
		next = min(next, pb.events[pb.next].Tick)
	}
	if p.clockEnabled() {
		next = min(next, pb.clock)
	}
	tpl := int64(pb.timing.TicksPerLine)
	next = min(next, (pb.cursor+tpl-1)/tpl*tpl)
	return max(next, pb.cursor)
}

func (p *Player) setLine(pb *playback, position, line int, tick int64) {
	p.mu.Lock()
	p.position, p.line, p.tick = position, line, tick
	p.mu.Unlock()
	if pb.listener != nil {
		pb.listener.TickUpdated(position, line, tick)
	}
	p.notifyUI()
}

func (p *Player) dispatch(pb *playback, e midi.Event) {
	route(pb.voices, p.mixer, e, p.out.Dispatch)
}

// route applies mute, solo and velocity scale and resolves note-offs
// against voices. Note-offs that end a sounding voice are always sent.
func route(voices *Voices, mx Mixer, e midi.Event, emit func(midi.Event)) {
	plays := mx == nil || mx.ShouldColumnPlay(e.Track, e.Column)
	switch e.Type {
	case midi.NoteOn:
		if !plays {
			return
		}
		if off, ok := voices.Start(e); ok {
			emit(off)
		}
		if !e.Fixed && mx != nil {
			e.Velocity = mx.EffectiveVelocity(e.Track, e.Column, e.Velocity)
		}
		emit(e)
	case midi.NoteOff:
		off, released, ok := voices.Stop(e)
		if ok && (released || plays) {
			emit(off)
		}
	default:
		if plays {
			emit(e)
		}
	}
}

// release sends one note-off per sounding voice, then all-notes-off on
// every channel used, then flushes.
func (p *Player) release(pb *playback) {
	offs := pb.voices.Channels()
	for _, e := range pb.voices.ReleaseAll() {
		p.out.Dispatch(e)
	}
	for _, e := range offs {
		p.out.Dispatch(e)
	}
	if p.clockEnabled() {
		p.out.Dispatch(midi.Event{Type: midi.Stop, Port: p.clockPort})
	}
	p.out.Flush()
}

func firstAtOrAfter(events []midi.Event, tick int64) int {
	return sort.Search(len(events), func(i int) bool { return events[i].Tick >= tick })
}
