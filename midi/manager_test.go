package midi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	id     string
	notes  chan NoteEvent
	closed bool
}

func (f *fakeController) ID() string                   { return f.id }
func (f *fakeController) NoteEvents() <-chan NoteEvent { return f.notes }
func (f *fakeController) Close() error                 { f.closed = true; return nil }

func TestDeviceManagerHotPlug(t *testing.T) {
	dm := NewDeviceManager([]string{"keystep"}, nil)
	ports := []string{"Arturia KeyStep 37", "IAC Bus 1"}
	opened := map[string]*fakeController{}
	dm.listInputs = func() ([]string, error) { return ports, nil }
	dm.open = func(name string) (Controller, error) {
		c := &fakeController{id: name, notes: make(chan NoteEvent)}
		opened[name] = c
		return c, nil
	}

	dm.scan()
	require.Len(t, dm.Events(), 1)
	ev := <-dm.Events()
	assert.Equal(t, DeviceConnected, ev.Type)
	assert.Equal(t, "Arturia KeyStep 37", ev.ID)
	assert.Len(t, dm.Controllers(), 1)

	// a second scan with the same ports changes nothing
	dm.scan()
	assert.Len(t, dm.Events(), 0)

	ports = []string{"IAC Bus 1"}
	dm.scan()
	ev = <-dm.Events()
	assert.Equal(t, DeviceDisconnected, ev.Type)
	assert.True(t, opened["Arturia KeyStep 37"].closed)
	assert.Empty(t, dm.Controllers())
}

func TestDeviceManagerSkipsFailedScan(t *testing.T) {
	dm := NewDeviceManager(nil, nil)
	dm.listInputs = func() ([]string, error) { return nil, ErrScanTimeout }
	dm.open = func(string) (Controller, error) { return nil, errors.New("unused") }
	dm.scan()
	assert.Len(t, dm.Events(), 0)
}

func TestMatchAny(t *testing.T) {
	assert.True(t, matchAny(nil)("anything"))
	m := matchAny([]string{"Keystep", "launchkey"})
	assert.True(t, m("Arturia KeyStep 37"))
	assert.True(t, m("Launchkey Mini MIDI"))
	assert.False(t, m("IAC Bus 1"))
}
