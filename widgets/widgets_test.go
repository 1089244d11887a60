package widgets

import (
	"strings"
	"testing"

	"go-tracker/theme"

	"github.com/stretchr/testify/assert"
)

func TestPatternGridRender(t *testing.T) {
	g := PatternGrid{
		Theme: theme.New(nil),
		Headers: []GridHeader{
			{Name: "bass", Columns: 2, Selected: true},
			{Name: "drums", Columns: 1, Muted: true},
		},
		Rows: []GridRow{
			{Line: 0, Playhead: true, Cells: []GridCell{{Text: "C-4 100"}, {Empty: true}, {Text: "OFF"}}},
			{Line: 1, Cells: []GridCell{{Empty: true}, {Text: "E-4 90", Automated: true, Weight: 0.5}}},
		},
	}
	out := g.Render()
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "bass")
	assert.Contains(t, lines[0], "drums M")
	assert.Contains(t, lines[1], "000▶")
	assert.Contains(t, lines[1], "C-4 100")
	assert.Contains(t, lines[1], "OFF")
	assert.Contains(t, lines[2], "E-4 90")
	assert.Contains(t, lines[2], "·")
}

func TestRenderKeyLine(t *testing.T) {
	line := RenderKeyLine([]KeySection{
		{Title: "transport", Keys: []KeyBinding{{"space", "play"}, {"l", "loop"}}},
		{Keys: []KeyBinding{{"q", "quit"}}},
	})
	assert.Equal(t, "space:play  l:loop  q:quit", line)
}

func TestRenderKeyHelp(t *testing.T) {
	help := RenderKeyHelp([]KeySection{{Title: "edit", Keys: []KeyBinding{{"u", "undo"}}}})
	assert.Equal(t, "edit\n  u            undo", help)
}
