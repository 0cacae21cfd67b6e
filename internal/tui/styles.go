// Package tui provides the CareBoard terminal dashboard.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/careboard/careboard/internal/config"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/services/immune"
)

// palette is the set of colors a scheme provides.
type palette struct {
	primary, secondary, accent lipgloss.Color
	muted                      lipgloss.Color
	danger, caution, safe      lipgloss.Color
}

var palettes = map[config.ColorScheme]palette{
	config.ColorSchemeGreenPhosphor: {
		primary:   "#00FF00",
		secondary: "#00AA00",
		accent:    "#66FF66",
		muted:     "#006600",
		danger:    "#FF4444",
		caution:   "#FFAA00",
		safe:      "#00FF00",
	},
	config.ColorSchemeAmber: {
		primary:   "#FFAA00",
		secondary: "#AA7700",
		accent:    "#FFCC66",
		muted:     "#664400",
		danger:    "#FF4444",
		caution:   "#FFFF00",
		safe:      "#FFAA00",
	},
	config.ColorSchemeWhite: {
		primary:   "#FFFFFF",
		secondary: "#AAAAAA",
		accent:    "#FFFFFF",
		muted:     "#666666",
		danger:    "#FF4444",
		caution:   "#FFAA00",
		safe:      "#00FF00",
	},
}

// Theme contains the styles the dashboard renders with.
type Theme struct {
	SecondaryColor lipgloss.Color

	Base    lipgloss.Style
	Primary lipgloss.Style
	Accent  lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Box      lipgloss.Style

	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	// Risk badges, keyed by level
	Risk map[models.RiskLevel]lipgloss.Style

	StatusDivider lipgloss.Style
}

// NewTheme builds the theme for a color scheme. Unknown schemes get green
// phosphor.
func NewTheme(scheme config.ColorScheme) *Theme {
	p, ok := palettes[scheme]
	if !ok {
		p = palettes[config.ColorSchemeGreenPhosphor]
	}
	return buildTheme(p)
}

func buildTheme(p palette) *Theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return &Theme{
		SecondaryColor: p.secondary,

		Base:    fg(p.primary),
		Primary: fg(p.primary),
		Accent:  fg(p.accent),
		Error:   fg(p.danger),
		Warning: fg(p.caution),
		Success: fg(p.safe),
		Muted:   fg(p.muted),

		Header:   fg(p.primary).Bold(true).Padding(0, 1),
		Footer:   fg(p.secondary).Padding(0, 1),
		Title:    fg(p.accent).Bold(true).Padding(0, 1),
		Subtitle: fg(p.primary).Padding(0, 1),
		Label:    fg(p.secondary),
		Value:    fg(p.primary),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.secondary).
			Padding(0, 1),

		Alert:     fg(p.primary).Bold(true),
		AlertWarn: fg(p.caution).Bold(true),
		AlertCrit: fg(p.danger).Bold(true).Blink(true),

		Risk: map[models.RiskLevel]lipgloss.Style{
			models.RiskCritical: fg(p.danger).Bold(true),
			models.RiskHigh:     fg(p.caution).Bold(true),
			models.RiskModerate: fg(p.accent),
			models.RiskLow:      fg(p.secondary),
		},

		StatusDivider: fg(p.muted).SetString(" │ "),
	}
}

// RiskBadge renders a risk level in its color.
func (t *Theme) RiskBadge(level models.RiskLevel) string {
	style, ok := t.Risk[level]
	if !ok {
		style = t.Muted
	}
	return style.Render(level.String())
}

// FacilityStatus picks the color for a facility status grade.
func (t *Theme) FacilityStatus(status immune.FacilityStatus) lipgloss.Style {
	switch status {
	case immune.StatusSafe:
		return t.Success
	case immune.StatusCaution:
		return t.Warning
	default:
		return t.Error
	}
}

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Label.Render(strings.Repeat("─", max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat("═", max(width, 0)))
}
