package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// PortScanTimeout bounds a port listing; CoreMIDI can hang indefinitely.
const PortScanTimeout = 3 * time.Second

var (
	ErrPortNotFound = errors.New("midi port not found")
	ErrScanTimeout  = errors.New("midi port scan timed out")
)

// Ports is a snapshot of the available ports
type Ports struct {
	In  []drivers.In
	Out []drivers.Out
}

// InNames returns the input port names
func (p Ports) InNames() []string {
	names := make([]string, len(p.In))
	for i, in := range p.In {
		names[i] = in.String()
	}
	return names
}

// OutNames returns the output port names
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Out))
	for i, out := range p.Out {
		names[i] = out.String()
	}
	return names
}

// ListPorts queries the driver, giving up after timeout
func ListPorts(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{In: gomidi.GetInPorts(), Out: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		return Ports{}, fault.Wrap(ErrScanTimeout,
			fmsg.WithDesc("midi port scan", "MIDI service is hung. Fix: sudo killall coreaudiod midiserver"))
	}
}

// FindOut looks up an output port by exact name, then by case-insensitive
// substring.
func (p Ports) FindOut(name string) (drivers.Out, error) {
	for _, out := range p.Out {
		if out.String() == name {
			return out, nil
		}
	}
	lower := strings.ToLower(name)
	for _, out := range p.Out {
		if strings.Contains(strings.ToLower(out.String()), lower) {
			return out, nil
		}
	}
	return nil, portNotFound(name)
}

// FindIn is FindOut for input ports
func (p Ports) FindIn(name string) (drivers.In, error) {
	for _, in := range p.In {
		if in.String() == name {
			return in, nil
		}
	}
	lower := strings.ToLower(name)
	for _, in := range p.In {
		if strings.Contains(strings.ToLower(in.String()), lower) {
			return in, nil
		}
	}
	return nil, portNotFound(name)
}

func portNotFound(name string) error {
	return fault.Wrap(ErrPortNotFound,
		fmsg.With(fmt.Sprintf("port %q", name)),
		ftag.With(ftag.NotFound),
	)
}
