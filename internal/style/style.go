// Package style renders the command line tables with Lipgloss.
// Colors are used only when the output is a terminal.
package style

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorWarn  = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFB454"}
	colorMuted = lipgloss.AdaptiveColor{Light: "#828C99", Dark: "#5C6773"}
)

// Styles bound to the color profile of one writer
type Styles struct {
	Bold    lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
}

func For(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Bold:    r.NewStyle().Bold(true),
		Dim:     r.NewStyle().Foreground(colorMuted),
		Warning: r.NewStyle().Foreground(colorWarn).Bold(true),
	}
}

// Table aligns columns to the widest cell. Cells may be styled already
type Table struct {
	styles Styles
	header []string
	rows   [][]string
}

// NewTable without header names renders rows only
func NewTable(w io.Writer, header ...string) *Table {
	return &Table{
		styles: For(w),
		header: header,
	}
}

func (t *Table) Styles() Styles {
	return t.styles
}

func (t *Table) AddRow(values ...string) *Table {
	t.rows = append(t.rows, values)
	return t
}

func (t *Table) Render() string {
	widths := make([]int, len(t.header))
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}

	var sb strings.Builder
	writeRow := func(row []string, style *lipgloss.Style) {
		line := make([]string, 0, len(widths))
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if style != nil {
				cell = style.Render(cell)
			}
			line = append(line, cell+pad)
		}
		sb.WriteString(strings.TrimRight(strings.Join(line, "  "), " "))
		sb.WriteString("\n")
	}
	if len(t.header) > 0 {
		writeRow(t.header, &t.styles.Bold)
	}
	for _, row := range t.rows {
		writeRow(row, nil)
	}
	return sb.String()
}
