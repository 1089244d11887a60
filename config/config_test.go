package config

import (
	"os"
	"path/filepath"
	"testing"

	"go-tracker/song"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, song.DefaultBPM, cfg.Transport.BPM)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Output.PortName = "IAC Driver Bus 1"
	cfg.Transport.SendClock = true
	cfg.AddKeyboard(KeyboardConfig{PortName: "KeyStep", AutoConnect: true})
	cfg.AddKeyboard(KeyboardConfig{PortName: "Digitone", AutoConnect: false})
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, []string{"KeyStep"}, loaded.AutoConnectPatterns())
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"transport": {"bpm": 90}}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Transport.BPM)
	assert.Equal(t, song.DefaultLinesPerBeat, cfg.Transport.LinesPerBeat)
	assert.Equal(t, song.DefaultLimits(), cfg.Limits)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`{`), 0644))
	_, err := LoadFrom(garbage)
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))

	inverted := filepath.Join(dir, "inverted.json")
	require.NoError(t, os.WriteFile(inverted, []byte(`{"limits": {"minLines": 8, "maxLines": 4, "maxSongLength": 1}}`), 0644))
	_, err = LoadFrom(inverted)
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Transport.BPM = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Keyboards = []KeyboardConfig{{PortName: "x", InputChannel: 17}}
	assert.Error(t, cfg.Validate())
}

func TestAddKeyboardReplaces(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AddKeyboard(KeyboardConfig{PortName: "KeyStep"})
	cfg.AddKeyboard(KeyboardConfig{PortName: "KeyStep", AutoConnect: true})
	require.Len(t, cfg.Keyboards, 1)
	assert.True(t, cfg.FindKeyboard("KeyStep").AutoConnect)
	assert.Nil(t, cfg.FindKeyboard("missing"))
}

func TestProjectsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProjectsDir = "/tmp/songs"
	p, err := cfg.ProjectsPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/songs", p)
}
