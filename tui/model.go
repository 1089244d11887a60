package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-tracker/automation"
	"go-tracker/debug"
	"go-tracker/midi"
	"go-tracker/mixer"
	"go-tracker/sequencer"
	"go-tracker/song"
	"go-tracker/theme"
	"go-tracker/widgets"
)

const tempoStep = 5

var keyHelp = []widgets.KeySection{
	{Title: "transport", Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "play"}, {Key: "l", Desc: "loop"}, {Key: "enter", Desc: "seek"},
		{Key: "[/]", Desc: "pos"}, {Key: "+/-", Desc: "tempo"},
	}},
	{Title: "mixer", Keys: []widgets.KeyBinding{
		{Key: "m/M", Desc: "mute"}, {Key: "s/S", Desc: "solo"},
	}},
	{Title: "edit", Keys: []widgets.KeyBinding{
		{Key: "p", Desc: "audition"}, {Key: "x", Desc: "clear"}, {Key: "o", Desc: "off"}, {Key: "</>", Desc: "transpose"},
		{Key: "u/r", Desc: "undo/redo"}, {Key: "w", Desc: "save"}, {Key: "q", Desc: "quit"},
	}},
}

// cursor addresses a line of the displayed pattern. col indexes the
// flattened column list across all tracks.
type cursor struct {
	line int
	col  int
}

type Model struct {
	Player  *sequencer.Player
	Song    *song.Song
	Auto    *automation.Service
	Mixer   *mixer.Mixer
	History *song.History
	Devices *midi.DeviceManager // may be nil
	Theme   *theme.Theme
	Log     *debug.Logger

	// OnSave writes the project and returns a description of where
	OnSave func() (string, error)
	// OnKeyboard is called for every keyboard that connects
	OnKeyboard func(midi.Controller)
	// OnAudition previews a note-on of the given track
	OnAudition func(track int, n song.NoteData)

	cursor    cursor
	rows      int
	status    string
	keyboards []string
	quitting  bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(p *sequencer.Player, s *song.Song, a *automation.Service, mx *mixer.Mixer, h *song.History, th *theme.Theme) Model {
	return Model{
		Player:  p,
		Song:    s,
		Auto:    a,
		Mixer:   mx,
		History: h,
		Theme:   th,
		rows:    16,
	}
}

func ListenForUpdates(p *sequencer.Player) tea.Cmd {
	return func() tea.Msg {
		<-p.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Player)}
	if m.Devices != nil {
		cmds = append(cmds, ListenForDevices(m.Devices))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			m.Player.Stop()
			return m, tea.Quit
		}
		m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.rows = max(4, msg.Height-8)

	case UpdateMsg:
		return m, ListenForUpdates(m.Player)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.keyboards = append(m.keyboards, event.ID)
			m.status = "keyboard connected: " + event.ID
			if m.OnKeyboard != nil {
				m.OnKeyboard(event.Controller)
			}
		case midi.DeviceDisconnected:
			for i, id := range m.keyboards {
				if id == event.ID {
					m.keyboards = append(m.keyboards[:i], m.keyboards[i+1:]...)
					break
				}
			}
			m.status = "keyboard disconnected: " + event.ID
		}
		if m.Devices == nil {
			return m, nil
		}
		return m, ListenForDevices(m.Devices)
	}

	return m, nil
}

func (m *Model) handleKey(key string) {
	pos, _ := m.Player.Position()
	pattern, _ := m.Song.PatternAt(pos)
	track, column := m.selected()
	cell := song.Cell{Pattern: pattern, Track: track, Column: column, Line: m.cursor.line}

	switch key {
	case " ":
		if m.Player.IsPlaying() {
			m.Player.Stop()
			m.status = "stopped"
		} else {
			m.report(m.Player.Play())
		}

	case "l":
		m.Player.SetLooping(!m.Player.Looping())

	case "enter":
		m.report(m.Player.SetSongPosition(pos, m.cursor.line))

	case "[":
		if pos > 0 {
			m.report(m.Player.SetSongPosition(pos-1, 0))
			m.cursor.line = 0
		}

	case "]":
		if pos+1 < m.Song.OrderLength() {
			m.report(m.Player.SetSongPosition(pos+1, 0))
			m.cursor.line = 0
		}

	case "up", "k":
		m.cursor.line = max(0, m.cursor.line-1)

	case "down", "j":
		m.cursor.line = min(m.Song.LineCount(pattern)-1, m.cursor.line+1)

	case "left":
		m.cursor.col = max(0, m.cursor.col-1)

	case "right":
		m.cursor.col = min(m.columnTotal()-1, m.cursor.col+1)

	case "m":
		m.Mixer.ToggleTrackMute(track)

	case "M":
		m.Mixer.SetColumnMute(track, column, !m.Mixer.Column(track, column).Muted)

	case "s":
		m.Mixer.ToggleTrackSolo(track)

	case "S":
		m.Mixer.SetColumnSolo(track, column, !m.Mixer.Column(track, column).Solo)

	case "+", "=":
		m.setTempo(m.Song.BPM() + tempoStep)

	case "-", "_":
		m.setTempo(m.Song.BPM() - tempoStep)

	case "p":
		l, _ := m.Song.Line(cell)
		if l.Note.Kind == song.NoteOn && m.OnAudition != nil {
			m.OnAudition(track, l.Note)
			m.status = "audition " + l.Note.String()
		}

	case "x":
		m.do(song.NewClearLine(cell))

	case "o":
		m.do(song.NewSetNote(cell, song.Off()))

	case "<", ">":
		semis := 1
		if key == "<" {
			semis = -1
		}
		m.do(&song.TransposeCommand{
			Pattern: pattern, Track: track, Column: column,
			Line0: 0, Line1: m.Song.LineCount(pattern) - 1,
			Semitones: semis,
		})

	case "u":
		name, err := m.History.Undo()
		m.reportHistory("undo", name, err)

	case "r":
		name, err := m.History.Redo()
		m.reportHistory("redo", name, err)

	case "w":
		if m.OnSave == nil {
			m.status = "no project store"
			return
		}
		where, err := m.OnSave()
		if err != nil {
			m.report(err)
			return
		}
		m.status = "saved " + where
	}
}

func (m *Model) setTempo(bpm int) {
	bpm = max(sequencer.MinBPM, min(sequencer.MaxBPM, bpm))
	m.do(&song.SetTempoCommand{BPM: bpm, LinesPerBeat: m.Song.LinesPerBeat()})
}

func (m *Model) do(cmd song.Command) {
	if err := m.History.Do(cmd); err != nil {
		m.report(err)
		return
	}
	m.status = cmd.Name()
}

func (m *Model) report(err error) {
	if err != nil {
		m.Log.Log("tui", "%v", err)
		m.status = err.Error()
	}
}

func (m *Model) reportHistory(verb, name string, err error) {
	switch {
	case errors.Is(err, song.ErrNothingToUndo):
		m.status = "nothing to " + verb
	case err != nil:
		m.report(err)
	default:
		m.status = verb + " " + name
	}
}

func (m Model) columnTotal() int {
	n := 0
	for t := range m.Song.TrackCount() {
		n += m.Song.ColumnCount(t)
	}
	return max(1, n)
}

// selected maps the flat cursor column to a track and column
func (m Model) selected() (track, column int) {
	col := m.cursor.col
	for t := range m.Song.TrackCount() {
		n := m.Song.ColumnCount(t)
		if col < n {
			return t, col
		}
		col -= n
	}
	return max(0, m.Song.TrackCount()-1), 0
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	th := m.Theme

	pos, line := m.Player.Position()
	playing := m.Player.IsPlaying()
	pattern, ok := m.Song.PatternAt(pos)

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(th.FG())

	playState := "STOP"
	if playing {
		playState = "PLAY"
	}
	loop := " "
	if m.Player.Looping() {
		loop = string(th.Symbols.Loop)
	}
	var kb string
	if len(m.keyboards) > 0 {
		kb = "  kb:" + strings.Join(m.keyboards, ",")
	}

	if !ok {
		header := headerStyle.Render(fmt.Sprintf("go-tracker  %s %s  %3dbpm  empty order%s", playState, loop, m.Song.BPM(), kb))
		return fmt.Sprintf("\n%s\n\n%s\n", header, dimStyle.Render(widgets.RenderKeyLine(keyHelp)))
	}

	lines := m.Song.LineCount(pattern)
	header := headerStyle.Render(fmt.Sprintf("go-tracker  %s %s  %3dbpm %dlpb  pos %02d/%02d  pat %02d %s  line %03d/%03d%s",
		playState, loop, m.Song.BPM(), m.Song.LinesPerBeat(),
		pos+1, m.Song.OrderLength(), pattern, m.Song.PatternName(pattern), line, lines, kb))

	grid := m.grid(pattern, lines, line, playing)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid.Render())
	out.WriteString("\n\n")
	out.WriteString(statusStyle.Render(m.status))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyLine(keyHelp)))
	return out.String()
}

func (m Model) grid(pattern, lines, playLine int, playing bool) widgets.PatternGrid {
	selTrack, _ := m.selected()
	g := widgets.PatternGrid{Theme: m.Theme}

	type col struct {
		loc   automation.Location
		lines []song.Line
	}
	var cols []col
	for t := range m.Song.TrackCount() {
		strip := m.Mixer.Track(t)
		name := m.Song.TrackName(t)
		if name == "" {
			name = fmt.Sprintf("T%02d", t)
		}
		g.Headers = append(g.Headers, widgets.GridHeader{
			Name:     name,
			Columns:  m.Song.ColumnCount(t),
			Muted:    strip.Muted,
			Solo:     strip.Solo,
			Selected: t == selTrack,
		})
		for c := range m.Song.ColumnCount(t) {
			ls, _ := m.Song.ColumnLines(pattern, t, c)
			cols = append(cols, col{loc: automation.Location{Pattern: pattern, Track: t, Column: c}, lines: ls})
		}
	}

	center := m.cursor.line
	if playing {
		center = playLine
	}
	start := max(0, min(center-m.rows/2, lines-m.rows))
	end := min(lines, start+m.rows)

	for i := start; i < end; i++ {
		row := widgets.GridRow{
			Line:     i,
			Playhead: playing && i == playLine,
			Cursor:   i == m.cursor.line,
		}
		for _, c := range cols {
			var l song.Line
			if i < len(c.lines) {
				l = c.lines[i]
			}
			text := l.Note.String()
			if l.Event != nil {
				text += "*"
			}
			row.Cells = append(row.Cells, widgets.GridCell{
				Text:      text,
				Empty:     !l.HasData(),
				Automated: m.Auto.HasAutomations(c.loc, i),
				Weight:    m.Auto.Weight(c.loc, i),
				Muted:     !m.Mixer.ShouldColumnPlay(c.loc.Track, c.loc.Column),
			})
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}
