package midi

import (
	"runtime"
	"sync"
	"time"

	"go-tracker/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI controller numbers used by the dispatcher
const (
	ccBankMSB     = 0
	ccBankLSB     = 32
	ccAllNotesOff = 123
)

const queueSize = 256

type job struct {
	port string
	msg  gomidi.Message
	done chan struct{} // flush marker when msg is nil
}

type noteKey struct {
	port    string
	channel uint8
	note    uint8
}

// Dispatcher serializes every outbound message on one goroutine. Any
// goroutine may call its methods. Sink errors are logged and dropped.
type Dispatcher struct {
	sink   Sink
	sinkMu sync.Mutex
	log    *debug.Logger

	queue    chan job
	stopped  chan struct{}
	closeMu  sync.RWMutex
	isClosed bool

	pendingMu sync.Mutex
	pending   map[noteKey]*time.Timer
}

// NewDispatcher starts the output goroutine
func NewDispatcher(sink Sink, log *debug.Logger) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		log:     log,
		queue:   make(chan job, queueSize),
		stopped: make(chan struct{}),
		pending: make(map[noteKey]*time.Timer),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(d.stopped)

	for j := range d.queue {
		if j.msg == nil {
			close(j.done)
			continue
		}
		d.sinkMu.Lock()
		err := d.sink.Send(j.port, j.msg)
		d.sinkMu.Unlock()
		if err != nil {
			d.log.LogEvery(50, "midi-err", "port=%q msg=%s: %v", j.port, j.msg, err)
		}
	}
}

func (d *Dispatcher) enqueue(port string, msgs ...gomidi.Message) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.isClosed {
		return
	}
	for _, m := range msgs {
		d.queue <- job{port: port, msg: m}
	}
}

// Flush blocks until everything queued before the call has been sent
func (d *Dispatcher) Flush() {
	done := make(chan struct{})
	d.closeMu.RLock()
	if d.isClosed {
		d.closeMu.RUnlock()
		return
	}
	d.queue <- job{done: done}
	d.closeMu.RUnlock()
	<-done
}

// Close releases pending preview notes, drains the queue and stops the
// output goroutine. Later calls are no-ops.
func (d *Dispatcher) Close() {
	d.ReleasePending()
	d.closeMu.Lock()
	if d.isClosed {
		d.closeMu.Unlock()
		return
	}
	d.isClosed = true
	close(d.queue)
	d.closeMu.Unlock()
	<-d.stopped
}

// Dispatch sends a scheduled event
func (d *Dispatcher) Dispatch(e Event) {
	d.log.LogEvery(100, "dispatch", "track=%d col=%d %s", e.Track, e.Column, e)
	d.enqueue(e.Port, e.Messages()...)
}

func (d *Dispatcher) NoteOn(port string, channel, note, velocity uint8) {
	d.enqueue(port, gomidi.NoteOn(channel&0x0f, note&0x7f, velocity&0x7f))
}

func (d *Dispatcher) NoteOff(port string, channel, note uint8) {
	d.enqueue(port, gomidi.NoteOff(channel&0x0f, note&0x7f))
}

func (d *Dispatcher) ControlChange(port string, channel, controller, value uint8) {
	d.enqueue(port, gomidi.ControlChange(channel&0x0f, controller&0x7f, value&0x7f))
}

func (d *Dispatcher) PitchBend(port string, channel uint8, bend int16) {
	d.enqueue(port, gomidi.Pitchbend(channel&0x0f, max(-8192, min(8191, bend))))
}

func (d *Dispatcher) ProgramChange(port string, channel, program uint8) {
	d.enqueue(port, gomidi.ProgramChange(channel&0x0f, program&0x7f))
}

// BankChange sends CC0 and CC32; a negative part is skipped.
func (d *Dispatcher) BankChange(port string, channel uint8, msb, lsb int) {
	d.enqueue(port, bankMessages(channel, msb, lsb)...)
}

func (d *Dispatcher) AllNotesOff(port string, channel uint8) {
	d.enqueue(port, gomidi.ControlChange(channel&0x0f, ccAllNotesOff, 0))
}

// Transport sends a realtime Start, Stop or Clock message
func (d *Dispatcher) Transport(port string, t EventType) {
	d.enqueue(port, Event{Type: t}.Messages()...)
}

// PlayAndStop plays a note now and stops it after length. Striking the
// same note again before then restarts the countdown.
func (d *Dispatcher) PlayAndStop(port string, channel, note, velocity uint8, length time.Duration) {
	key := noteKey{port: port, channel: channel & 0x0f, note: note & 0x7f}

	d.pendingMu.Lock()
	if t, ok := d.pending[key]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(length, func() {
		d.pendingMu.Lock()
		current := d.pending[key] == timer
		if current {
			delete(d.pending, key)
		}
		d.pendingMu.Unlock()
		if current {
			d.NoteOff(key.port, key.channel, key.note)
		}
	})
	d.pending[key] = timer
	d.NoteOn(port, channel, note, velocity)
	d.pendingMu.Unlock()
}

// ReleasePending sends the note-offs of every PlayAndStop that has not
// finished yet.
func (d *Dispatcher) ReleasePending() {
	d.pendingMu.Lock()
	keys := make([]noteKey, 0, len(d.pending))
	for k, t := range d.pending {
		// a timer that already fired skips its note-off once it sees
		// the key is gone
		t.Stop()
		keys = append(keys, k)
		delete(d.pending, k)
	}
	d.pendingMu.Unlock()

	for _, k := range keys {
		d.NoteOff(k.port, k.channel, k.note)
	}
}

// PendingCount returns the number of notes waiting for a timed note-off
func (d *Dispatcher) PendingCount() int {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	return len(d.pending)
}
