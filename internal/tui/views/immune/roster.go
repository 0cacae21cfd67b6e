// Package immune provides the TUI views for infection vulnerability.
package immune

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/services/immune"
	"github.com/careboard/careboard/internal/tui/components"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
)

// Lister is the part of the immune service the roster reads.
type Lister interface {
	List(ctx context.Context, opts immune.ListOptions) ([]immune.ResidentView, error)
}

// RosterView lists residents by immunity score.
type RosterView struct {
	service   Lister
	table     *components.Table
	residents []immune.ResidentView
	opts      immune.ListOptions
	loaded    bool
	err       error
}

// NewRosterView creates a roster sorted lowest score first, so the most
// vulnerable residents open at the top.
func NewRosterView(service Lister) *RosterView {
	columns := []components.Column{
		{Title: "Room", Width: 6, Priority: 6},
		{Title: "Name", Width: 8, Weight: 1, Priority: 10},
		{Title: "Age", Width: 3, Align: lipgloss.Right, Priority: 4},
		{Title: "Sex", Width: 3, Priority: 2},
		{Title: "Score", Width: 5, Align: lipgloss.Right, Priority: 9},
		{Title: "Risk", Width: 8, Priority: 8},
		{Title: "Source", Width: 10, Priority: 3},
		{Title: "Conditions", Width: 12, Weight: 2, Priority: 1},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &RosterView{
		service: service,
		table:   table,
		opts:    immune.ListOptions{Filter: immune.FilterAll, Order: immune.SortAsc},
	}
}

// Fetch reads the roster for opts without touching the view, so it can
// run inside a tea.Cmd.
func (v *RosterView) Fetch(ctx context.Context, opts immune.ListOptions) ([]immune.ResidentView, error) {
	return v.service.List(ctx, opts)
}

// SetResidents shows a fetched roster, or the error that stopped it.
func (v *RosterView) SetResidents(residents []immune.ResidentView, err error) {
	v.loaded = true
	if err != nil {
		v.err = err
		return
	}
	v.err = nil
	v.residents = residents

	rows := make([][]string, len(residents))
	for i, r := range residents {
		source := "registry"
		if r.Predicted {
			source = string(r.Source)
		}
		rows[i] = []string{
			r.Room,
			r.Name,
			fmt.Sprintf("%d", r.Age),
			string(r.Gender),
			fmt.Sprintf("%.1f", r.Score),
			r.Risk.String(),
			source,
			strings.Join(r.Conditions, ", "),
		}
	}
	v.table.SetRows(rows)
}

// CycleFilter advances the risk filter. Fetch again afterwards.
func (v *RosterView) CycleFilter() {
	v.opts.Filter = v.opts.Filter.Next()
	v.table.GoToTop()
}

// ToggleSort flips the score order. Fetch again afterwards.
func (v *RosterView) ToggleSort() {
	v.opts.Order = v.opts.Order.Toggle()
	v.table.GoToTop()
}

// Options returns the current filter and order.
func (v *RosterView) Options() immune.ListOptions {
	return v.opts
}

// SetVisibleRows sets the number of visible table rows.
func (v *RosterView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// MoveUp moves the selection up.
func (v *RosterView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *RosterView) MoveDown() { v.table.MoveDown() }

// PageUp moves the selection up a page.
func (v *RosterView) PageUp() { v.table.PageUp() }

// PageDown moves the selection down a page.
func (v *RosterView) PageDown() { v.table.PageDown() }

// Selected returns the highlighted resident.
func (v *RosterView) Selected() *immune.ResidentView {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.residents) {
		return &v.residents[idx]
	}
	return nil
}

func filterLabel(f immune.RiskFilter) string {
	switch f {
	case immune.FilterCritical:
		return "critical only"
	case immune.FilterHigh:
		return "high only"
	default:
		return "all residents"
	}
}

// Render renders the roster at the given terminal width.
func (v *RosterView) Render(width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("═══ IMMUNE RISK ROSTER ═══"))
	b.WriteString("\n\n")

	order := "lowest score first"
	if v.opts.Order == immune.SortDesc {
		order = "highest score first"
	}
	b.WriteString(labelStyle.Render("Filter: ") + valueStyle.Render(filterLabel(v.opts.Filter)))
	b.WriteString(labelStyle.Render("   Order: ") + valueStyle.Render(order))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(errStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case !v.loaded:
		b.WriteString(labelStyle.Render("Loading..."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(labelStyle.Render("No residents match this filter."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(helpStyle.Render("↑↓:Nav  Enter:View  f:Filter  s:Sort"))
	} else {
		b.WriteString(helpStyle.Render("Up/Down:Select  Enter:Details  f:Filter (all/critical/high)  s:Sort  PgUp/Dn:Page"))
	}
	return b.String()
}

// RenderDetail renders one resident's conditions, prediction and the care
// actions suggested for vulnerable residents.
func (v *RosterView) RenderDetail(r *immune.ResidentView, width int) string {
	labelWidth := 14
	if width < 60 {
		labelWidth = 10
	}
	label := labelStyle.Width(labelWidth)

	if r == nil {
		return label.Render("No resident selected")
	}

	var b strings.Builder
	line := func(name, value string) {
		b.WriteString(label.Render(name+":") + " " + value + "\n")
	}

	b.WriteString(titleStyle.Render("═══ RESIDENT DETAILS ═══"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("RESIDENT"))
	b.WriteString("\n")
	line("Name", valueStyle.Render(r.Name))
	line("Room", valueStyle.Render(r.Room))
	line("Age / Sex", valueStyle.Render(fmt.Sprintf("%d / %s", r.Age, r.Gender)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("IMMUNITY"))
	b.WriteString("\n")
	line("Score", valueStyle.Render(fmt.Sprintf("%.1f", r.Score)))
	risk := valueStyle.Render(r.Risk.String())
	if r.Vulnerable() {
		risk = warnStyle.Render(r.Risk.String())
	}
	line("Risk", risk)
	if r.Predicted {
		line("Source", valueStyle.Render("model ("+string(r.Source)+")"))
	} else {
		line("Source", labelStyle.Render("registry"))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("CONDITIONS"))
	b.WriteString("\n")
	if len(r.Conditions) == 0 {
		b.WriteString(labelStyle.Render("  (none recorded)"))
		b.WriteString("\n")
	}
	for _, c := range r.Conditions {
		b.WriteString("  • " + valueStyle.Render(c) + "\n")
	}

	if len(r.Actions) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("CARE ACTIONS"))
		b.WriteString("\n")
		for _, a := range r.Actions {
			b.WriteString("  " + warnStyle.Render("["+a.Level+"]") + " " + valueStyle.Render(a.Title) + "\n")
			if a.Desc != "" && width >= 60 {
				b.WriteString("      " + labelStyle.Render(a.Desc) + "\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Esc:Back"))
	return b.String()
}

// RiskCounts tallies the loaded roster by level.
func (v *RosterView) RiskCounts() map[models.RiskLevel]int {
	counts := make(map[models.RiskLevel]int, len(models.RiskLevels))
	for _, r := range v.residents {
		counts[r.Risk]++
	}
	return counts
}
