package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-tracker/theme"
)

// CellWidth is the printed width of one column cell, e.g. "C-4 100 d12"
const CellWidth = 11

// GridCell is one column of one line
type GridCell struct {
	Text      string
	Empty     bool
	Automated bool
	Weight    float64 // automation weight 0-1, used when Automated
	Muted     bool
}

type GridRow struct {
	Line     int
	Playhead bool
	Cursor   bool
	Cells    []GridCell
}

// GridHeader labels a track spanning Columns cells
type GridHeader struct {
	Name     string
	Columns  int
	Muted    bool
	Solo     bool
	Selected bool
}

// PatternGrid renders tracker rows with one cell per column, tracks
// separated by a bar.
type PatternGrid struct {
	Theme   *theme.Theme
	Headers []GridHeader
	Rows    []GridRow
}

func (g PatternGrid) Render() string {
	var lines []string
	lines = append(lines, g.renderHeader())
	for _, row := range g.Rows {
		lines = append(lines, g.renderRow(row))
	}
	return strings.Join(lines, "\n")
}

func (g PatternGrid) renderHeader() string {
	th := g.Theme
	var out strings.Builder
	out.WriteString("     ")
	for i, h := range g.Headers {
		if i > 0 {
			out.WriteString(" ")
		}
		width := h.Columns*(CellWidth+1) - 1
		label := h.Name
		if h.Muted {
			label += " " + string(th.Symbols.Muted)
		}
		if h.Solo {
			label += " " + string(th.Symbols.Solo)
		}
		style := lipgloss.NewStyle().Width(width).MaxWidth(width).Foreground(th.FG())
		switch {
		case h.Selected:
			style = style.Foreground(th.Cursor()).Bold(true)
		case h.Muted:
			style = style.Foreground(th.Muted())
		}
		out.WriteString(style.Render(label))
		out.WriteString("│")
	}
	return out.String()
}

func (g PatternGrid) renderRow(row GridRow) string {
	th := g.Theme
	marker := ' '
	switch {
	case row.Playhead:
		marker = th.Symbols.Playhead
	case row.Cursor:
		marker = th.Symbols.Cursor
	}

	var out strings.Builder
	lineStyle := lipgloss.NewStyle().Foreground(th.Muted())
	if row.Line%4 == 0 {
		lineStyle = lineStyle.Foreground(th.FG())
	}
	out.WriteString(lineStyle.Render(fmt.Sprintf("%03d", row.Line)))
	out.WriteString(fmt.Sprintf("%c ", marker))

	cell := 0
	for i, h := range g.Headers {
		if i > 0 {
			out.WriteString(" ")
		}
		for c := range h.Columns {
			if c > 0 {
				out.WriteString(" ")
			}
			var gc GridCell
			if cell < len(row.Cells) {
				gc = row.Cells[cell]
			}
			cell++
			out.WriteString(g.renderCell(gc, row.Playhead))
		}
		out.WriteString("│")
	}
	return out.String()
}

func (g PatternGrid) renderCell(c GridCell, playhead bool) string {
	th := g.Theme
	text := c.Text
	if c.Empty || text == "" {
		text = string(th.Symbols.Empty)
	}
	style := lipgloss.NewStyle().Width(CellWidth).MaxWidth(CellWidth)
	switch {
	case c.Muted:
		style = style.Foreground(th.Muted())
	case c.Automated:
		style = style.Foreground(th.Weight(c.Weight))
	case c.Empty:
		style = style.Foreground(th.Surface())
	default:
		style = style.Foreground(th.FG())
	}
	if playhead {
		style = style.Reverse(true)
	}
	return style.Render(text)
}
