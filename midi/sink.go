package midi

import (
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Sink receives raw MIDI messages for a named port
type Sink interface {
	Send(port string, msg gomidi.Message) error
}

// PortRetry is how long a port that failed to open is skipped before
// the driver is scanned for it again
const PortRetry = 5 * time.Second

type lookupFailure struct {
	at  time.Time
	err error
}

// PortSink sends to driver output ports, opening each on first use.
// An empty port name means the default port. A port that cannot be
// found fails fast until PortRetry has passed.
type PortSink struct {
	defaultPort string
	senders     map[string]func(gomidi.Message) error
	failed      map[string]lookupFailure
	mu          sync.RWMutex

	// lookup resolves a port name, see ListPorts
	lookup func(name string) (func(gomidi.Message) error, error)
	now    func() time.Time
}

func NewPortSink(defaultPort string) *PortSink {
	return &PortSink{
		defaultPort: defaultPort,
		senders:     make(map[string]func(gomidi.Message) error),
		failed:      make(map[string]lookupFailure),
		lookup:      openOut,
		now:         time.Now,
	}
}

// Retry forgets failed lookups so the next send to any port scans the
// driver again. Call it when devices are plugged in.
func (s *PortSink) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failed)
}

func openOut(name string) (func(gomidi.Message) error, error) {
	ports, err := ListPorts(PortScanTimeout)
	if err != nil {
		return nil, err
	}
	out, err := ports.FindOut(name)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open output "+out.String()))
	}
	return send, nil
}

// SetDefaultPort changes the port used for events without one
func (s *PortSink) SetDefaultPort(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultPort = name
}

func (s *PortSink) DefaultPort() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultPort
}

func (s *PortSink) Send(port string, msg gomidi.Message) error {
	send, err := s.sender(port)
	if err != nil {
		return err
	}
	return send(msg)
}

// sender returns a sender for the port name, lazily opening it
func (s *PortSink) sender(port string) (func(gomidi.Message) error, error) {
	s.mu.RLock()
	if port == "" {
		port = s.defaultPort
	}
	if send, ok := s.senders[port]; ok {
		s.mu.RUnlock()
		return send, nil
	}
	s.mu.RUnlock()

	if port == "" {
		return nil, portNotFound("(default)")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if send, ok := s.senders[port]; ok {
		return send, nil
	}
	now := s.now()
	if f, ok := s.failed[port]; ok && now.Sub(f.at) < PortRetry {
		return nil, f.err
	}
	send, err := s.lookup(port)
	if err != nil {
		s.failed[port] = lookupFailure{at: now, err: err}
		return nil, err
	}
	delete(s.failed, port)
	s.senders[port] = send
	return send, nil
}
