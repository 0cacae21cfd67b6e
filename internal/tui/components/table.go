// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Column defines a table column.
type Column struct {
	Title string
	// Width is the fixed width, or the minimum width when Weight is set.
	Width int
	// Weight is the proportional share of width left after fixed columns.
	Weight float64
	// Priority decides drop order on narrow terminals (lower goes first).
	Priority int
	Align    lipgloss.Position
}

// Table is a scrolling, selectable table. Cell widths are measured in
// terminal columns, so Hangul names line up.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool

	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	rowAltStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	borderStyle   lipgloss.Style
}

// NewTable creates a new table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:       columns,
		rows:          [][]string{},
		visibleRows:   10,
		headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#66FF66")),
		rowStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		rowAltStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		selectedStyle: lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000")),
		borderStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
	}
}

// SetRows replaces the table data, keeping the selection in range.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = max(len(rows)-1, 0)
	}
	if t.offset > t.selected {
		t.offset = t.selected
	}
}

// SetVisibleRows sets the number of visible rows.
func (t *Table) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	t.visibleRows = n
}

// SetStyles sets the table styles.
func (t *Table) SetStyles(header, row, rowAlt, selected, border lipgloss.Style) {
	t.headerStyle = header
	t.rowStyle = row
	t.rowAltStyle = rowAlt
	t.selectedStyle = selected
	t.borderStyle = border
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the currently selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the currently selected row data.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// PageUp moves up one page.
func (t *Table) PageUp() {
	t.selected = max(t.selected-t.visibleRows, 0)
	t.offset = t.selected
}

// PageDown moves down one page.
func (t *Table) PageDown() {
	t.selected = max(min(t.selected+t.visibleRows, len(t.rows)-1), 0)
	t.offset = max(t.selected-t.visibleRows+1, 0)
}

// GoToTop goes to the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom goes to the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) > 0 {
		t.selected = len(t.rows) - 1
		t.offset = max(t.selected-t.visibleRows+1, 0)
	}
}

// ComputeWidths fits the columns into width. Weighted columns share what
// fixed columns leave; when even minimum widths do not fit, the lowest
// priority columns are hidden and reported as 0.
func (t *Table) ComputeWidths(width int) []int {
	const sep = 3 // " | "

	visible := make([]bool, len(t.columns))
	for i := range visible {
		visible[i] = true
	}

	layout := func() (remaining int, weight float64, n int) {
		used := 0
		for i, c := range t.columns {
			if !visible[i] {
				continue
			}
			n++
			used += c.Width
			weight += c.Weight
		}
		if n > 1 {
			used += (n - 1) * sep
		}
		return width - used - 2, weight, n
	}

	remaining, weight, n := layout()
	for remaining < 0 && n > 1 {
		drop := -1
		for i, c := range t.columns {
			if visible[i] && (drop < 0 || c.Priority < t.columns[drop].Priority) {
				drop = i
			}
		}
		visible[drop] = false
		remaining, weight, n = layout()
	}
	remaining = max(remaining, 0)

	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		if !visible[i] {
			continue
		}
		widths[i] = c.Width
		if c.Weight > 0 && weight > 0 {
			widths[i] += int(float64(remaining) * c.Weight / weight)
		}
	}
	return widths
}

// Render renders the table at its configured column widths.
func (t *Table) Render() string {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = c.Width
	}
	return t.render(widths)
}

// RenderResponsive renders the table fitted to the terminal width.
func (t *Table) RenderResponsive(width int) string {
	return t.render(t.ComputeWidths(width))
}

func (t *Table) render(widths []int) string {
	var b strings.Builder

	total := 0
	for _, w := range widths {
		if w > 0 {
			total += w + 3
		}
	}

	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.Title
	}
	b.WriteString(t.renderRow(headers, widths, t.headerStyle))
	b.WriteString("\n")
	b.WriteString(t.borderStyle.Render(strings.Repeat("─", total)))
	b.WriteString("\n")

	end := min(t.offset+t.visibleRows, len(t.rows))
	for i := t.offset; i < end; i++ {
		style := t.rowStyle
		switch {
		case i == t.selected && t.focused:
			style = t.selectedStyle
		case (i-t.offset)%2 == 1:
			style = t.rowAltStyle
		}
		b.WriteString(t.renderRow(t.rows[i], widths, style))
		b.WriteString("\n")
	}

	if len(t.rows) > t.visibleRows {
		b.WriteString(t.borderStyle.Render(fmt.Sprintf("%d-%d / %d", t.offset+1, end, len(t.rows))))
		b.WriteString("\n")
	}
	return b.String()
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, col := range t.columns {
		w := widths[i]
		if w <= 0 {
			continue
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts = append(parts, style.Render(fit(cell, w, col.Align)))
	}
	return " " + strings.Join(parts, " | ") + " "
}

// fit truncates or pads s to exactly w terminal columns.
func fit(s string, w int, align lipgloss.Position) string {
	if runewidth.StringWidth(s) > w {
		s = runewidth.Truncate(s, w, "…")
	}
	switch align {
	case lipgloss.Right:
		return runewidth.FillLeft(s, w)
	case lipgloss.Center:
		pad := w - runewidth.StringWidth(s)
		return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
	default:
		return runewidth.FillRight(s, w)
	}
}

// PadText fits s to w terminal columns, left aligned.
func PadText(s string, w int) string {
	return fit(s, w, lipgloss.Left)
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}
