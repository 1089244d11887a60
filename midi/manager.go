package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-tracker/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of keyboards
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	log         *debug.Logger

	// match decides which input ports become keyboards
	match      func(name string) bool
	listInputs func() ([]string, error)
	open       func(name string) (Controller, error)
}

// NewDeviceManager watches input ports whose name contains one of the
// given patterns (case-insensitive). No patterns accepts every port.
func NewDeviceManager(patterns []string, log *debug.Logger) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		log:         log,
		match:       matchAny(patterns),
		listInputs:  listInputNames,
		open:        openKeyboard,
	}
}

func matchAny(patterns []string) func(string) bool {
	return func(name string) bool {
		if len(patterns) == 0 {
			return true
		}
		for _, p := range patterns {
			if MatchPort(name, p) {
				return true
			}
		}
		return false
	}
}

// MatchPort reports whether a port name contains pattern, ignoring case
func MatchPort(name, pattern string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}

func listInputNames() ([]string, error) {
	ports, err := ListPorts(PortScanTimeout)
	if err != nil {
		return nil, err
	}
	return ports.InNames(), nil
}

func openKeyboard(name string) (Controller, error) {
	ports, err := ListPorts(PortScanTimeout)
	if err != nil {
		return nil, err
	}
	in, err := ports.FindIn(name)
	if err != nil {
		return nil, err
	}
	return NewKeyboardController(name, in)
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run polls until ctx is done (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	names, err := dm.listInputs()
	if err != nil {
		// skip this scan, the driver may recover
		dm.log.LogEvery(10, "devices", "scan: %v", err)
		return
	}

	seen := make(map[string]bool)
	for _, name := range names {
		if !dm.match(name) {
			continue
		}
		seen[name] = true

		dm.mu.RLock()
		_, exists := dm.controllers[name]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(name)
		if err != nil {
			dm.log.Log("devices", "open %q: %v", name, err)
			continue
		}
		dm.mu.Lock()
		dm.controllers[name] = c
		dm.mu.Unlock()
		dm.log.Log("devices", "connected %q", name)
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: name}
	}

	dm.mu.Lock()
	var gone []string
	for id := range dm.controllers {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
	}
	dm.mu.Unlock()

	for _, id := range gone {
		dm.log.Log("devices", "disconnected %q", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}
