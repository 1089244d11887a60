package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-tracker/automation"
	"go-tracker/config"
	"go-tracker/debug"
	"go-tracker/midi"
	"go-tracker/mixer"
	"go-tracker/project"
	"go-tracker/sequencer"
	"go-tracker/song"
	"go-tracker/theme"
	"go-tracker/tui"
)

// auditionLines is how long a previewed note sounds
const auditionLines = 4

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-tracker/config.json)")
	projectName := flag.String("project", "", "project to open (latest save)")
	demo := flag.Bool("demo", false, "start with the demo song")
	kit := flag.String("kit", project.DefaultKit, "drum kit for the demo song")
	port := flag.String("port", "", "MIDI output port, overrides the config")
	debugLog := flag.Bool("debug", false, "write ~/.config/go-tracker/debug.log")
	flag.Parse()

	if err := run(*configPath, *projectName, *demo, *kit, *port, *debugLog); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func run(configPath, projectName string, demo bool, kit, port string, debugLog bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Output.PortName = port
	}

	var log *debug.Logger
	if debugLog || cfg.Debug {
		path, err := debug.DefaultPath()
		if err == nil {
			log, err = debug.Open(path)
		}
		if err != nil {
			return err
		}
		defer log.Close()
	}

	th := theme.New(nil)
	if cfg.UI.Palette != "" {
		palette, err := theme.LoadGPL(cfg.UI.Palette)
		if err != nil {
			return err
		}
		th = theme.New(palette)
	}

	// Models
	s := song.New(cfg.Limits)
	if err := s.SetBPM(cfg.Transport.BPM); err != nil {
		return err
	}
	if err := s.SetLinesPerBeat(cfg.Transport.LinesPerBeat); err != nil {
		return err
	}
	a := automation.NewService()
	mx := mixer.New()
	s.Subscribe(mx.HandleChange)
	history := song.NewHistory(s)

	projectsDir, err := cfg.ProjectsPath()
	if err != nil {
		return err
	}
	store := project.NewStore(projectsDir)
	if projectName == "" {
		projectName = cfg.UI.LastProject
	}
	switch {
	case demo:
		if err := project.Demo(s, a, kit); err != nil {
			return err
		}
		projectName = "demo"
	case projectName != "":
		doc, err := store.Load(projectName, "")
		if err != nil {
			return err
		}
		if err := doc.Apply(s, a, mx); err != nil {
			return err
		}
		log.Log("project", "loaded %s", projectName)
	}

	// Output
	defer gomidi.CloseDriver()
	sink := midi.NewPortSink(cfg.Output.PortName)
	dispatcher := midi.NewDispatcher(sink, log)
	defer dispatcher.Close()

	player := sequencer.NewPlayer(s, a, mx, dispatcher, sequencer.Options{
		Looping:   cfg.Transport.Loop,
		SendClock: cfg.Transport.SendClock,
		ClockPort: cfg.Transport.ClockPort,
	}, log)
	s.Subscribe(func(song.Change) { player.Interrupt() })
	a.Subscribe(func(automation.Invalidation) { player.Interrupt() })
	defer player.Stop()

	// Live input
	deviceMgr := midi.NewDeviceManager(cfg.AutoConnectPatterns(), log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	m := tui.NewModel(player, s, a, mx, history, th)
	m.Devices = deviceMgr
	m.Log = log
	m.OnKeyboard = func(c midi.Controller) {
		// a device was plugged in; missing outputs may be back too
		sink.Retry()
		thru := midi.ThruConfig{Port: cfg.Output.PortName, Channel: uint8(cfg.Output.Channel)}
		for _, k := range cfg.Keyboards {
			if midi.MatchPort(c.ID(), k.PortName) {
				thru.Filter = k.InputChannel
				break
			}
		}
		go midi.Thru(c, dispatcher, thru)
	}
	m.OnAudition = func(track int, n song.NoteData) {
		inst, _ := s.Instrument(track)
		length := sequencer.NewTiming(s.BPM(), s.LinesPerBeat()).LineDuration() * auditionLines
		dispatcher.PlayAndStop(inst.Port, inst.Channel, n.Note, n.Velocity, length)
	}
	m.OnSave = func() (string, error) {
		name := projectName
		if name == "" {
			name = "untitled"
		}
		info, err := store.Save(name, "", project.Capture(s, a, mx))
		if err != nil {
			return "", err
		}
		if cfg.UI.LastProject != name {
			cfg.UI.LastProject = name
			if configPath == "" {
				err = cfg.Save()
			} else {
				err = cfg.SaveTo(configPath)
			}
			if err != nil {
				log.Log("config", "save: %v", err)
			}
		}
		return filepath.Join(name, info.Filename), nil
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()

	// auditioned notes still waiting for their timer
	dispatcher.ReleasePending()
	dispatcher.Flush()
	return err
}
