package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/careboard/careboard/internal/config"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/services/immune"
	"github.com/careboard/careboard/internal/services/nutrition"
	immuneviews "github.com/careboard/careboard/internal/tui/views/immune"
	importviews "github.com/careboard/careboard/internal/tui/views/importer"
	nutviews "github.com/careboard/careboard/internal/tui/views/nutrition"
	"github.com/careboard/careboard/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// chromeLines approximates the header, alert bar and footer height when sizing tables.
const chromeLines = 6

// recentRuns is how many import runs the import screen lists.
const recentRuns = 8

// Module represents a view module in the application.
type Module string

const (
	ModuleHelp      Module = "help"
	ModuleDashboard Module = "dashboard"
	ModuleImmune    Module = "immune"
	ModuleNutrition Module = "nutrition"
	ModuleImport    Module = "import"
)

// ImmuneService is what the dashboard and roster read.
type ImmuneService interface {
	immuneviews.Lister
	Summary(ctx context.Context) (*immune.Summary, error)
}

// BatchReader exposes the stored batches to the dashboard.
type BatchReader interface {
	Fingerprint(ctx context.Context, model models.ModelKind) (string, error)
	LoadNutrition(ctx context.Context) (*models.NutritionBatch, bool)
}

// RunLister returns the import history.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.ImportRun, error)
}

// HealthChecker probes the model backend.
type HealthChecker interface {
	Health(ctx context.Context) (*models.BackendHealth, error)
}

// Deps are the services the application drives. Health may be nil when no
// backend is configured.
type Deps struct {
	Immune    ImmuneService
	Nutrition nutviews.ProfileSource
	Pipeline  importviews.Runner
	Batches   BatchReader
	Runs      RunLister
	Health    HealthChecker
	Clock     util.Clock
	Logger    *slog.Logger
}

// App is the main Bubble Tea application model.
type App struct {
	// Dependencies
	config *config.Config
	deps   Deps
	clock  util.Clock
	loc    *time.Location
	logger *slog.Logger

	// Views
	rosterView  *immuneviews.RosterView
	profileView *nutviews.ProfileView
	uploadView  *importviews.UploadView

	// UI state
	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool

	// Current view
	currentModule  Module
	previousModule Module
	showDetail     bool // Show resident detail instead of the roster

	// Alerts
	alerts []Alert

	// Dashboard data
	summary        *immune.Summary
	nutritionBatch *models.NutritionBatch
	health         *models.BackendHealth
	healthErr      error

	// Stored batch fingerprints from the last poll
	fingerprints map[models.ModelKind]string
	ticks        int
}

// Alert represents a system alert.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

// tickMsg is sent periodically to update the UI.
type tickMsg time.Time

type summaryMsg struct {
	summary   *immune.Summary
	nutrition *models.NutritionBatch
	err       error
}

type healthMsg struct {
	health *models.BackendHealth
	err    error
}

type fingerprintMsg struct {
	prints map[models.ModelKind]string
	err    error
}

// View data is fetched inside commands and applied in Update, never from
// the command goroutine.

type rosterLoadedMsg struct {
	opts      immune.ListOptions
	residents []immune.ResidentView
	err       error
}

type profilesLoadedMsg struct {
	term      string
	residents []models.Resident
	err       error
}

type profileOpenedMsg struct {
	profile *nutrition.Profile
	err     error
}

type uploadDoneMsg struct {
	outcome importviews.Outcome
}

type clearDoneMsg struct {
	outcome importviews.Outcome
}

type runsLoadedMsg struct {
	runs []*models.ImportRun
	err  error
}

// New creates a new App instance.
func New(cfg *config.Config, deps Deps) *App {
	if deps.Clock == nil {
		deps.Clock = util.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Facility.Location()

	return &App{
		config:        cfg,
		deps:          deps,
		clock:         deps.Clock,
		loc:           loc,
		logger:        logger.With("component", "tui"),
		rosterView:    immuneviews.NewRosterView(deps.Immune),
		profileView:   nutviews.NewProfileView(deps.Nutrition),
		uploadView:    importviews.NewUploadView(loc),
		theme:         NewTheme(cfg.Display.ColorScheme),
		keys:          DefaultKeyMap(),
		currentModule: ModuleDashboard,
		alerts:        []Alert{},
		fingerprints:  map[models.ModelKind]string{},
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
		a.loadSummary(),
		a.checkHealth(),
		a.pollFingerprints(),
	)
}

// tickCmd returns a command that sends tick messages.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshEvery is the number of ticks between storage polls.
func (a *App) refreshEvery() int {
	if n := a.config.Display.RefreshSeconds; n > 0 {
		return n
	}
	return 5
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		rows := ContentHeight(a.height, chromeLines+10)
		a.rosterView.SetVisibleRows(rows)
		a.profileView.SetVisibleRows(rows - 2)
		return a, nil

	case tickMsg:
		a.ticks++
		if a.ticks%a.refreshEvery() == 0 {
			return a, tea.Batch(tickCmd(), a.pollFingerprints())
		}
		return a, tickCmd()

	case fingerprintMsg:
		return a, a.handleFingerprints(msg)

	case summaryMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load summary: "+msg.err.Error())
			return a, nil
		}
		a.summary = msg.summary
		a.nutritionBatch = msg.nutrition
		return a, nil

	case healthMsg:
		a.health, a.healthErr = msg.health, msg.err
		return a, nil

	case rosterLoadedMsg:
		if msg.opts != a.rosterView.Options() {
			// superseded by a later filter or sort
			return a, nil
		}
		a.rosterView.SetResidents(msg.residents, msg.err)
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load roster: "+msg.err.Error())
		}
		return a, nil

	case profilesLoadedMsg:
		if msg.term != a.profileView.SearchTerm() {
			return a, nil
		}
		a.profileView.SetResidents(msg.residents, msg.err)
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load residents: "+msg.err.Error())
		}
		return a, nil

	case profileOpenedMsg:
		a.profileView.SetProfile(msg.profile, msg.err)
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load profile: "+msg.err.Error())
		}
		return a, nil

	case uploadDoneMsg:
		a.uploadView.Finish(msg.outcome)
		if msg.outcome.OK {
			a.AddAlert(AlertInfo, msg.outcome.Message)
		} else {
			a.AddAlert(AlertWarning, string(msg.outcome.Model)+" upload failed: "+msg.outcome.Message)
		}
		return a, tea.Batch(a.loadRuns(), a.pollFingerprints())

	case clearDoneMsg:
		a.uploadView.Cleared(msg.outcome)
		if !msg.outcome.OK {
			a.AddAlert(AlertWarning, msg.outcome.Message)
		}
		return a, a.pollFingerprints()

	case runsLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load import history: "+msg.err.Error())
			return a, nil
		}
		a.uploadView.SetRuns(msg.runs)
		return a, nil
	}

	return a, nil
}

// handleFingerprints reloads whatever shows stored batches when another
// writer has replaced one.
func (a *App) handleFingerprints(msg fingerprintMsg) tea.Cmd {
	if msg.err != nil {
		a.logger.Warn("polling stored batches", "error", msg.err)
		return nil
	}

	changed := false
	for model, fp := range msg.prints {
		if a.fingerprints[model] != fp {
			changed = true
			a.fingerprints[model] = fp
		}
	}
	if !changed {
		return nil
	}

	a.logger.Debug("stored batch changed", "fingerprints", msg.prints)
	return tea.Batch(a.loadSummary(), a.reloadCurrent())
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle quit confirmation first (modal takes priority)
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
			return a, nil
		}
		return a, nil
	}

	if msg.String() == "ctrl+c" {
		a.showConfirm = true
		return a, nil
	}

	// Function key navigation (always available, even in text fields)
	if a.keys.IsFunctionKey(msg) {
		return a, a.switchModule(a.keys.FunctionKeyModule(msg))
	}

	// Text entry takes every other key
	if a.currentModule == ModuleNutrition && a.profileView.Searching() {
		return a.handleSearchKeys(msg)
	}
	if a.currentModule == ModuleImport {
		return a.handleImportKeys(msg)
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	switch a.currentModule {
	case ModuleImmune:
		return a.handleImmuneKeys(msg)
	case ModuleNutrition:
		return a.handleNutritionKeys(msg)
	}

	if a.keys.Back.Matches(msg) && a.currentModule == ModuleHelp {
		a.back()
	}
	return a, nil
}

// switchModule opens m, reloading its data.
func (a *App) switchModule(m Module) tea.Cmd {
	switch m {
	case "quit":
		a.showConfirm = true
		return nil
	case ModuleHelp:
		if a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
		}
		a.currentModule = ModuleHelp
		return nil
	case "":
		return nil
	}

	a.currentModule = m
	a.showDetail = false
	if m == ModuleNutrition {
		a.profileView.Close()
	}
	return a.reloadCurrent()
}

// reloadCurrent re-reads the data behind the current module.
func (a *App) reloadCurrent() tea.Cmd {
	switch a.currentModule {
	case ModuleDashboard:
		return tea.Batch(a.loadSummary(), a.checkHealth())
	case ModuleImmune:
		return a.loadRoster()
	case ModuleNutrition:
		if p := a.profileView.Profile(); p != nil {
			return a.openProfile(p.Resident.ID)
		}
		return a.loadProfiles()
	case ModuleImport:
		return a.loadRuns()
	}
	return nil
}

func (a *App) back() {
	if a.previousModule != "" {
		a.currentModule = a.previousModule
		a.previousModule = ""
	} else {
		a.currentModule = ModuleDashboard
	}
}

// handleImmuneKeys handles key presses in the immune module.
func (a *App) handleImmuneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDetail {
		if a.keys.Back.Matches(msg) {
			a.showDetail = false
		}
		return a, nil
	}

	switch {
	case a.keys.Up.Matches(msg):
		a.rosterView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.rosterView.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.rosterView.PageUp()
	case a.keys.PageDown.Matches(msg):
		a.rosterView.PageDown()
	case a.keys.Select.Matches(msg):
		if a.rosterView.Selected() != nil {
			a.showDetail = true
		}
	case a.keys.Filter.Matches(msg):
		a.rosterView.CycleFilter()
		return a, a.loadRoster()
	case a.keys.Sort.Matches(msg):
		a.rosterView.ToggleSort()
		return a, a.loadRoster()
	case a.keys.Back.Matches(msg):
		a.currentModule = ModuleDashboard
	}
	return a, nil
}

// handleNutritionKeys handles key presses in the nutrition module.
func (a *App) handleNutritionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.profileView.Profile() != nil {
		if a.keys.Back.Matches(msg) {
			a.profileView.Close()
		}
		return a, nil
	}

	switch {
	case a.keys.Up.Matches(msg):
		a.profileView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.profileView.MoveDown()
	case a.keys.Select.Matches(msg):
		return a, a.openSelectedProfile()
	case a.keys.Search.Matches(msg):
		a.profileView.StartSearch()
	case a.keys.Back.Matches(msg):
		a.currentModule = ModuleDashboard
	}
	return a, nil
}

// handleSearchKeys handles key presses while the resident search has focus.
func (a *App) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		a.profileView.StopSearch()
		return a, nil
	}
	if a.profileView.HandleSearchKey(msg.String()) {
		return a, a.loadProfiles()
	}
	return a, nil
}

// handleImportKeys handles key presses in the import module.
func (a *App) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.currentModule = ModuleDashboard
		return a, a.reloadCurrent()
	case "tab", "shift+tab":
		a.uploadView.NextField()
		return a, nil
	case "enter":
		model, path, ok := a.uploadView.Begin()
		if !ok {
			return a, nil
		}
		return a, a.runUpload(model, path)
	case "ctrl+x":
		return a, a.clearBatch(a.uploadView.Model())
	}
	a.uploadView.HandleKey(msg.String())
	return a, nil
}

// loadSummary loads the facility summary and the nutrition batch header.
func (a *App) loadSummary() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sum, err := a.deps.Immune.Summary(ctx)
		if err != nil {
			return summaryMsg{err: err}
		}
		var batch *models.NutritionBatch
		if a.deps.Batches != nil {
			batch, _ = a.deps.Batches.LoadNutrition(ctx)
		}
		return summaryMsg{summary: sum, nutrition: batch}
	}
}

// checkHealth probes the backend with the configured timeout.
func (a *App) checkHealth() tea.Cmd {
	if a.deps.Health == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.config.Models.Timeout())
		defer cancel()
		h, err := a.deps.Health.Health(ctx)
		return healthMsg{health: h, err: err}
	}
}

// pollFingerprints reads both stored batch fingerprints.
func (a *App) pollFingerprints() tea.Cmd {
	if a.deps.Batches == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		prints := make(map[models.ModelKind]string, 2)
		for _, model := range []models.ModelKind{models.ModelImmune, models.ModelNutrition} {
			fp, err := a.deps.Batches.Fingerprint(ctx, model)
			if err != nil {
				return fingerprintMsg{err: err}
			}
			prints[model] = fp
		}
		return fingerprintMsg{prints: prints}
	}
}

func (a *App) loadRoster() tea.Cmd {
	view, opts := a.rosterView, a.rosterView.Options()
	return func() tea.Msg {
		residents, err := view.Fetch(context.Background(), opts)
		return rosterLoadedMsg{opts: opts, residents: residents, err: err}
	}
}

func (a *App) loadProfiles() tea.Cmd {
	view, term := a.profileView, a.profileView.SearchTerm()
	return func() tea.Msg {
		residents, err := view.Fetch(context.Background(), term)
		return profilesLoadedMsg{term: term, residents: residents, err: err}
	}
}

func (a *App) openSelectedProfile() tea.Cmd {
	id := a.profileView.SelectedID()
	if id == "" {
		return nil
	}
	return a.openProfile(id)
}

func (a *App) openProfile(id string) tea.Cmd {
	view := a.profileView
	return func() tea.Msg {
		p, err := view.FetchProfile(context.Background(), id)
		return profileOpenedMsg{profile: p, err: err}
	}
}

func (a *App) loadRuns() tea.Cmd {
	if a.deps.Runs == nil {
		return nil
	}
	return func() tea.Msg {
		runs, err := a.deps.Runs.ListRecent(context.Background(), recentRuns)
		return runsLoadedMsg{runs: runs, err: err}
	}
}

func (a *App) runUpload(model models.ModelKind, path string) tea.Cmd {
	return func() tea.Msg {
		a.logger.Info("upload started", "model", model, "path", path)
		return uploadDoneMsg{outcome: importviews.Upload(context.Background(), a.deps.Pipeline, model, path)}
	}
}

func (a *App) clearBatch(model models.ModelKind) tea.Cmd {
	return func() tea.Msg {
		return clearDoneMsg{outcome: importviews.Clear(context.Background(), a.deps.Pipeline, model)}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("CareBoard shutting down...")
	}

	header := a.renderHeader()
	alertBar := a.renderAlertBar()
	footer := a.renderFooter()

	// Whatever the chrome leaves goes to the module, clipped so the header
	// never scrolls off a short terminal.
	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(alertBar)-lipgloss.Height(footer), 1)

	var content string
	if a.showConfirm {
		content = a.renderConfirmDialog(contentHeight)
	} else {
		content = a.renderContent(contentHeight)
	}

	return strings.Join([]string{header, alertBar, content, footer}, "\n")
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("CAREBOARD v%s", Version)
	if a.width < int(BreakpointNarrow) {
		title = "CAREBOARD"
	}

	info := a.config.Facility.Name
	if a.summary != nil {
		info = fmt.Sprintf("%s | 입소자 %d", info, a.summary.Total)
	}

	spacing := max(a.width-lipgloss.Width(title)-lipgloss.Width(info)-2, 1)

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

// renderAlertBar renders the latest alert after the facility clock.
func (a *App) renderAlertBar() string {
	now := a.clock.Now().In(a.loc)
	timeStr := now.Format(a.config.Display.DateFormat + " " + a.config.Display.TimeFormat)

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("CRITICAL: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render("INFO: " + alert.Message)
		}
	} else if a.summary != nil && a.summary.Critical > 0 {
		alertText = a.theme.AlertWarn.Render(fmt.Sprintf("%d residents at critical infection risk", a.summary.Critical))
	} else {
		alertText = a.theme.Muted.Render("No alerts")
	}

	return a.theme.Value.Render(timeStr) + a.theme.StatusDivider.Render() + alertText
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	content := a.getModuleContent()

	contentWidth := min(a.width, MaxContentWidth)

	// Center the content container within the terminal
	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		MaxHeight(height).
		Align(lipgloss.Center, lipgloss.Top)

	contentStyle := lipgloss.NewStyle().
		Width(contentWidth)

	return style.Render(contentStyle.Render(content))
}

// getModuleContent returns the content for the current module.
func (a *App) getModuleContent() string {
	width := min(a.width, MaxContentWidth)
	switch a.currentModule {
	case ModuleImmune:
		if a.showDetail {
			return a.rosterView.RenderDetail(a.rosterView.Selected(), width)
		}
		return a.rosterView.Render(width)
	case ModuleNutrition:
		return a.profileView.Render(width)
	case ModuleImport:
		return a.uploadView.Render(width)
	case ModuleHelp:
		return a.renderHelp()
	default:
		return a.renderDashboard(width)
	}
}

// renderDashboard renders the facility overview.
func (a *App) renderDashboard(width int) string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ FACILITY INFECTION RISK OVERVIEW ═══"))
	b.WriteString("\n\n")

	if a.summary == nil {
		b.WriteString(a.theme.Muted.Render("Loading..."))
		return b.String()
	}
	s := a.summary

	panelWidth := 40
	if width < int(BreakpointNarrow) {
		panelWidth = width
	}

	var overview strings.Builder
	overview.WriteString(a.theme.Label.Render("Average score  "))
	overview.WriteString(a.theme.Value.Render(fmt.Sprintf("%.1f", s.AverageScore)))
	overview.WriteString("\n")
	overview.WriteString(a.theme.ProgressBar(s.AverageScore, 100, panelWidth-6))
	overview.WriteString("\n")
	overview.WriteString(a.theme.Label.Render("Status         "))
	overview.WriteString(a.theme.FacilityStatus(s.Status).Render(s.Status.Label()))
	overview.WriteString("\n")
	overview.WriteString(a.theme.Label.Render("Residents      "))
	overview.WriteString(a.theme.Value.Render(fmt.Sprintf("%d", s.Total)))
	overview.WriteString("\n")
	overview.WriteString(a.theme.Label.Render("Vulnerable     "))
	overview.WriteString(a.theme.Warning.Render(fmt.Sprintf("%d", s.Vulnerable)))

	var risk strings.Builder
	for i, level := range models.RiskLevels {
		if i > 0 {
			risk.WriteString("\n")
		}
		count := s.RiskCounts[level]
		risk.WriteString(PadRight(a.theme.RiskBadge(level), 10))
		risk.WriteString(a.theme.Value.Render(fmt.Sprintf("%3d ", count)))
		if barWidth := panelWidth - 20; s.Total > 0 && barWidth > 0 {
			risk.WriteString(a.theme.Risk[level].Render(strings.Repeat("■", count*barWidth/s.Total)))
		}
	}

	b.WriteString(SideBySide(
		a.theme.Panel("IMMUNITY", overview.String(), panelWidth),
		a.theme.Panel("RISK LEVELS", risk.String(), panelWidth),
		width, 2,
	))
	b.WriteString("\n\n")

	var batches strings.Builder
	batches.WriteString(a.theme.Label.Render("Immune     "))
	if s.BatchTime != "" {
		batches.WriteString(a.theme.Value.Render(util.FormatTimestamp(s.BatchTime, a.loc)))
		batches.WriteString(a.theme.Muted.Render(fmt.Sprintf("  %d applied", s.Predicted)))
	} else {
		batches.WriteString(a.theme.Muted.Render("none stored"))
	}
	batches.WriteString("\n")
	batches.WriteString(a.theme.Label.Render("Nutrition  "))
	if a.nutritionBatch != nil {
		batches.WriteString(a.theme.Value.Render(util.FormatTimestamp(a.nutritionBatch.UpdatedAt, a.loc)))
		batches.WriteString(a.theme.Muted.Render(fmt.Sprintf("  %d items", a.nutritionBatch.Count)))
	} else {
		batches.WriteString(a.theme.Muted.Render("none stored"))
	}

	var backend strings.Builder
	switch {
	case a.deps.Health == nil:
		backend.WriteString(a.theme.Muted.Render("not configured"))
	case a.healthErr != nil:
		backend.WriteString(a.theme.Error.Render("unreachable"))
		backend.WriteString("\n")
		backend.WriteString(a.theme.Muted.Render(Truncate(a.healthErr.Error(), panelWidth-4)))
	case a.health != nil:
		backend.WriteString(a.theme.Success.Render(a.health.Status))
	default:
		backend.WriteString(a.theme.Muted.Render("checking..."))
	}

	b.WriteString(SideBySide(
		a.theme.Panel("STORED BATCHES", batches.String(), panelWidth),
		a.theme.Panel("MODEL BACKEND", backend.String(), panelWidth),
		width, 2,
	))
	return b.String()
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ HELP ═══"))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Subtitle.Render("NAVIGATION"))
	b.WriteString("\n\n")

	navItems := [][2]string{
		{"F1", "Help"},
		{"F2", "Dashboard"},
		{"F3", "Immune risk roster"},
		{"F4", "Nutrition profiles"},
		{"F5", "CSV inference"},
		{"F10", "Quit"},
	}

	for _, item := range navItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Subtitle.Render("CONTROLS"))
	b.WriteString("\n\n")

	ctrlItems := [][2]string{
		{"Up/Down", "Navigate"},
		{"Enter", "Select / run upload"},
		{"Esc", "Back"},
		{"f", "Cycle risk filter"},
		{"s", "Toggle score order"},
		{"/", "Search residents"},
		{"Tab", "Next field"},
		{"ctrl+x", "Clear stored batch"},
	}

	for _, item := range ctrlItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Press Esc to return"))

	return b.String()
}

// renderConfirmDialog renders the quit confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Base.Render("Are you sure you want to exit?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	// Center the dialog
	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		MaxHeight(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	separator := a.theme.DrawHorizontalLine(a.width)
	return separator + "\n" + a.theme.Footer.Render(a.keys.StatusBarHelp(a.width))
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    a.clock.Now(),
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = []Alert{}
}

// Run starts the TUI application.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	app := New(cfg, deps)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
