// Package nutrition provides the TUI views for resident nutrition profiles.
package nutrition

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/services/nutrition"
	"github.com/careboard/careboard/internal/tui/components"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	lowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
)

// NoRestrictionsTitle and NoRestrictionsBody fill the restrictions panel
// for residents whose conditions carry no restricted nutrients.
const (
	NoRestrictionsTitle = "특이 제한 없음"
	NoRestrictionsBody  = "현재 보유 질환 기준으로 제한 항목이 없습니다."
)

// ProfileSource is the part of the nutrition service the view reads.
type ProfileSource interface {
	Search(ctx context.Context, term string) ([]models.Resident, error)
	Profile(ctx context.Context, id string) (*nutrition.Profile, error)
}

// ProfileView lists residents by name and shows one resident's profile.
type ProfileView struct {
	service   ProfileSource
	table     *components.Table
	search    *components.Input
	residents []models.Resident
	profile   *nutrition.Profile
	loaded    bool
	err       error
}

// NewProfileView creates a new nutrition view.
func NewProfileView(service ProfileSource) *ProfileView {
	columns := []components.Column{
		{Title: "Room", Width: 6, Priority: 5},
		{Title: "Name", Width: 8, Weight: 1, Priority: 10},
		{Title: "Age", Width: 3, Align: lipgloss.Right, Priority: 3},
		{Title: "Sex", Width: 3, Priority: 2},
		{Title: "Risk", Width: 8, Priority: 4},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	search := components.NewInput("Search").SetPlaceholder("resident name").SetMaxLength(40)

	return &ProfileView{
		service: service,
		table:   table,
		search:  search,
	}
}

// Fetch runs a resident search without touching the view, so it can run
// inside a tea.Cmd.
func (v *ProfileView) Fetch(ctx context.Context, term string) ([]models.Resident, error) {
	return v.service.Search(ctx, term)
}

// SetResidents shows a fetched resident list, or the error that stopped it.
func (v *ProfileView) SetResidents(residents []models.Resident, err error) {
	v.loaded = true
	if err != nil {
		v.err = err
		return
	}
	v.err = nil
	v.residents = residents

	rows := make([][]string, len(residents))
	for i, r := range residents {
		rows[i] = []string{r.Room, r.Name, fmt.Sprintf("%d", r.Age), string(r.Gender), r.Risk.String()}
	}
	v.table.SetRows(rows)
}

// SelectedID returns the highlighted resident's ID, or "" when the list is
// empty.
func (v *ProfileView) SelectedID() string {
	idx := v.table.Selected()
	if idx < 0 || idx >= len(v.residents) {
		return ""
	}
	return v.residents[idx].ID
}

// FetchProfile builds a resident's profile without touching the view.
func (v *ProfileView) FetchProfile(ctx context.Context, id string) (*nutrition.Profile, error) {
	return v.service.Profile(ctx, id)
}

// SetProfile opens a fetched profile. On error the list stays and shows it.
func (v *ProfileView) SetProfile(p *nutrition.Profile, err error) {
	if err != nil {
		v.err = err
		return
	}
	v.err = nil
	v.profile = p
}

// Close returns to the resident list.
func (v *ProfileView) Close() {
	v.profile = nil
}

// Profile returns the open profile, or nil when the list is showing.
func (v *ProfileView) Profile() *nutrition.Profile {
	return v.profile
}

// SearchTerm returns the current search term.
func (v *ProfileView) SearchTerm() string {
	return v.search.Value()
}

// Searching reports whether the search field has focus.
func (v *ProfileView) Searching() bool {
	return v.search.IsFocused()
}

// StartSearch focuses the search field.
func (v *ProfileView) StartSearch() {
	v.search.Focus(true)
}

// StopSearch blurs the search field, keeping its value.
func (v *ProfileView) StopSearch() {
	v.search.Focus(false)
}

// HandleSearchKey passes a key to the search field. It reports whether the
// term changed.
func (v *ProfileView) HandleSearchKey(key string) bool {
	before := v.search.Value()
	v.search.HandleKey(key)
	return v.search.Value() != before
}

// SetSearch replaces the search term.
func (v *ProfileView) SetSearch(term string) {
	v.search.SetValue(term)
	v.table.GoToTop()
}

// SetVisibleRows sets the number of visible table rows.
func (v *ProfileView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// MoveUp moves the selection up.
func (v *ProfileView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *ProfileView) MoveDown() { v.table.MoveDown() }

// Render renders the list or, when one is open, the profile.
func (v *ProfileView) Render(width int) string {
	if v.profile != nil {
		return v.RenderProfile(v.profile, width)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("═══ NUTRITION PROFILES ═══"))
	b.WriteString("\n\n")
	b.WriteString(v.search.Render())
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(lowStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case !v.loaded:
		b.WriteString(labelStyle.Render("Loading..."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(labelStyle.Render("No residents found."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(helpStyle.Render("↑↓:Nav  Enter:Open  /:Search"))
	} else {
		b.WriteString(helpStyle.Render("Up/Down:Select  Enter:Profile  /:Search  Esc:Done searching"))
	}
	return b.String()
}

func bar(value, width int) string {
	if width < 4 {
		width = 4
	}
	filled := min(max(value, 0), 100) * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// RenderProfile renders one resident's nutrition profile.
func (v *ProfileView) RenderProfile(p *nutrition.Profile, width int) string {
	narrow := width < 60
	barWidth := 20
	if narrow {
		barWidth = 10
	}

	var b strings.Builder
	section := func(name string) {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
	}
	bullet := func(s string) {
		b.WriteString("  • " + valueStyle.Render(s) + "\n")
	}

	r := p.Resident
	b.WriteString(titleStyle.Render("═══ NUTRITION PROFILE ═══"))
	b.WriteString("\n\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s  %s  %d세 %s", r.Name, r.Room, r.Age, r.Gender)))
	b.WriteString("\n")

	section("NUTRIENTS")
	for _, n := range p.Nutrients {
		name := components.PadText(n.Name, 10)
		line := fmt.Sprintf("  %s %s %3d", name, bar(n.Value, barWidth), n.Value)
		if n.Flagged() {
			b.WriteString(lowStyle.Render(line + "  LOW"))
		} else {
			b.WriteString(valueStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(p.Improvements) > 0 {
		section("EXPECTED AFTER SUPPLEMENTATION")
		for _, imp := range p.Improvements {
			b.WriteString(fmt.Sprintf("  %s %s → %s\n",
				components.PadText(imp.Nutrient, 10),
				lowStyle.Render(fmt.Sprintf("%3d", imp.Current)),
				valueStyle.Render(fmt.Sprintf("%3d", imp.Improved))))
		}
	}

	section("RECOMMENDED")
	b.WriteString(labelStyle.Render("  Supplements: ") + valueStyle.Render(strings.Join(p.Recommendation.Supplements, ", ")) + "\n")
	b.WriteString(labelStyle.Render("  Foods:       ") + valueStyle.Render(strings.Join(p.Recommendation.Foods, ", ")) + "\n")

	section("SUBSCRIPTION")
	status := warnStyle.Render(p.Subscription.Status)
	if p.Subscription.Active() {
		status = valueStyle.Render(p.Subscription.Status)
	}
	b.WriteString(labelStyle.Render("  Status: ") + status)
	if p.Subscription.Months > 0 {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  (%d months)", p.Subscription.Months)))
	}
	b.WriteString("\n")
	for _, item := range p.Subscription.Recent {
		bullet(item)
	}

	section("CONDITIONS")
	if len(p.Conditions) == 0 {
		b.WriteString(labelStyle.Render("  (none recorded)"))
		b.WriteString("\n")
	}
	for _, c := range p.Conditions {
		bullet(c)
	}

	section("RESTRICTIONS")
	if len(p.Restrictions) == 0 {
		b.WriteString("  " + valueStyle.Render(NoRestrictionsTitle) + "\n")
		b.WriteString("  " + labelStyle.Render(NoRestrictionsBody) + "\n")
	}
	for _, rs := range p.Restrictions {
		b.WriteString("  " + warnStyle.Render(rs.Nutrient))
		if !narrow {
			b.WriteString(labelStyle.Render(" - " + rs.Reason))
		}
		b.WriteString("\n")
	}

	if len(p.Similar) > 0 {
		section("SIMILAR RESIDENTS")
		b.WriteString("  " + valueStyle.Render(strings.Join(p.Similar, ", ")) + "\n")
	}

	if p.Prediction != nil {
		section("SIMULATION (" + string(p.Prediction.Prediction.Source) + ")")
		b.WriteString(renderSimulation(p.Prediction.Prediction, narrow))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Esc:Back"))
	return b.String()
}

func renderSimulation(resp models.NutritionSimResponse, narrow bool) string {
	var b strings.Builder

	params := make([]string, 0, len(resp.Results))
	for k := range resp.Results {
		params = append(params, k)
	}
	sort.Strings(params)

	for _, k := range params {
		res := resp.Results[k]
		b.WriteString("  " + valueStyle.Render(components.PadText(res.Parameter, 14)))
		b.WriteString(" " + formatValue(res.CurrentValue) + " → " + formatValue(res.ExpectedValue))
		if res.ExpectedChange != nil {
			b.WriteString(labelStyle.Render(fmt.Sprintf(" (%+.1f)", *res.ExpectedChange)))
		}
		b.WriteString("\n")
		if res.Interpretation != "" && !narrow {
			b.WriteString("      " + labelStyle.Render(res.Interpretation) + "\n")
		}
		for _, w := range res.Warnings {
			b.WriteString("      " + warnStyle.Render("! "+w) + "\n")
		}
	}
	for _, w := range resp.Warnings {
		b.WriteString("  " + warnStyle.Render("! "+w) + "\n")
	}
	return b.String()
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
