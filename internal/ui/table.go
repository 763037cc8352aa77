package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	columnGap      = 2
	minColumnWidth = 6
)

// Table renders rows of plain cells under a muted header line.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow adds a row; missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Widths fits the natural column widths into total. The widest column
// gives up space first; none shrinks below minColumnWidth.
func (t *Table) Widths(total int) []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	budget := total - columnGap*(len(widths)-1)
	for sum(widths) > budget {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

// Render lays the table out within the display width.
func (t *Table) Render(display *DisplayContext) string {
	if len(t.Headers) == 0 {
		return ""
	}
	width := DefaultTermWidth
	if display != nil {
		width = display.TermWidth
	}
	widths := t.Widths(width)

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = Truncate(cell, widths[i])
		}
		rows[r] = cells
	}
	headers := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = Truncate(h, widths[i])
	}

	tbl := table.New().
		Border(lipgloss.Border{Top: "─", Bottom: "─", Middle: "─"}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderRow(false).
		BorderColumn(false).
		BorderStyle(Muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Width(widths[col])
			if col < len(widths)-1 {
				style = style.PaddingRight(columnGap)
			}
			if row == table.HeaderRow {
				style = style.Inherit(Muted)
			}
			return style
		}).
		Headers(headers...).
		Rows(rows...)

	return tbl.Render()
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
