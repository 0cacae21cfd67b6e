// Package importer provides the CSV upload view.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/careboard/careboard/internal/modeling"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/tui/components"
	"github.com/careboard/careboard/internal/util"
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

// Runner is the part of the pipeline the view drives.
type Runner interface {
	RunImmune(ctx context.Context, source string, r io.Reader) modeling.Result[models.ImmuneBatch]
	RunNutrition(ctx context.Context, source string, r io.Reader) modeling.Result[models.NutritionBatch]
	ClearImmune(ctx context.Context) error
	ClearNutrition(ctx context.Context) error
}

// Outcome is a finished upload or clear, reduced to what the view shows.
type Outcome struct {
	Model          models.ModelKind
	OK             bool
	Message        string
	MissingHeaders []string
	Truncated      bool
	Rows           int
	Items          int
}

// Upload reads the CSV at path and runs it through the model's pipeline.
func Upload(ctx context.Context, r Runner, model models.ModelKind, path string) Outcome {
	f, err := os.Open(path)
	if err != nil {
		return Outcome{Model: model, Message: fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	defer f.Close()

	source := filepath.Base(path)
	switch model {
	case models.ModelImmune:
		res := r.RunImmune(ctx, source, f)
		out := Outcome{Model: model, OK: res.OK, Message: res.Message, MissingHeaders: res.MissingHeaders, Truncated: res.Truncated, Rows: res.Rows}
		if res.Batch != nil {
			out.Items = res.Batch.Count
		}
		return out
	case models.ModelNutrition:
		res := r.RunNutrition(ctx, source, f)
		out := Outcome{Model: model, OK: res.OK, Message: res.Message, MissingHeaders: res.MissingHeaders, Truncated: res.Truncated, Rows: res.Rows}
		if res.Batch != nil {
			out.Items = res.Batch.Count
		}
		return out
	default:
		return Outcome{Model: model, Message: fmt.Sprintf("unknown model %q", model)}
	}
}

// Clear deletes the stored batch for model.
func Clear(ctx context.Context, r Runner, model models.ModelKind) Outcome {
	var err error
	switch model {
	case models.ModelImmune:
		err = r.ClearImmune(ctx)
	case models.ModelNutrition:
		err = r.ClearNutrition(ctx)
	default:
		err = fmt.Errorf("unknown model %q", model)
	}
	if err != nil {
		return Outcome{Model: model, Message: "clear failed: " + err.Error()}
	}
	return Outcome{Model: model, OK: true, Message: "stored " + string(model) + " batch cleared"}
}

// UploadView collects a file path and model and shows each model's upload
// state.
type UploadView struct {
	path    *components.Input
	model   *components.Select
	focus   int
	states  map[models.ModelKind]modeling.State
	last    map[models.ModelKind]Outcome
	runs    []*models.ImportRun
	loc     *time.Location
	message string
}

// NewUploadView creates the upload form with the path field focused.
func NewUploadView(loc *time.Location) *UploadView {
	path := components.NewInput("CSV file").
		SetPlaceholder("path/to/residents.csv").
		SetRequired(true).
		SetWidth(40)
	path.Focus(true)

	if loc == nil {
		loc = time.Local
	}

	return &UploadView{
		path:   path,
		model:  components.NewSelect("Model", []string{string(models.ModelImmune), string(models.ModelNutrition)}),
		states: map[models.ModelKind]modeling.State{},
		last:   map[models.ModelKind]Outcome{},
		loc:    loc,
	}
}

// Model returns the selected model.
func (v *UploadView) Model() models.ModelKind {
	return models.ModelKind(v.model.Value())
}

// SetModel selects model.
func (v *UploadView) SetModel(model models.ModelKind) {
	if model == models.ModelNutrition {
		v.model.SetSelected(1)
	} else {
		v.model.SetSelected(0)
	}
}

// Path returns the trimmed file path.
func (v *UploadView) Path() string {
	return strings.TrimSpace(v.path.Value())
}

// SetPath replaces the file path.
func (v *UploadView) SetPath(p string) {
	v.path.SetValue(p)
}

// State returns the upload state of model.
func (v *UploadView) State(model models.ModelKind) modeling.State {
	return v.states[model]
}

// Busy reports whether any upload is running.
func (v *UploadView) Busy() bool {
	for _, s := range v.states {
		if s.Busy() {
			return true
		}
	}
	return false
}

// EditingPath reports whether the path field has focus.
func (v *UploadView) EditingPath() bool {
	return v.focus == 0
}

// NextField moves focus between the path and model fields.
func (v *UploadView) NextField() {
	v.focus = (v.focus + 1) % 2
	v.path.Focus(v.focus == 0)
	v.model.Focus(v.focus == 1)
}

// HandleKey routes a key to the focused field.
func (v *UploadView) HandleKey(key string) {
	if v.focus == 0 {
		v.path.HandleKey(key)
		v.path.SetError("")
		return
	}
	v.model.HandleKey(key)
}

// Begin validates the form and marks the selected model running. It
// reports false, with an error on the path field, when there is no path or
// the model is already running.
func (v *UploadView) Begin() (models.ModelKind, string, bool) {
	model := v.Model()
	if !v.path.Validate() {
		v.path.SetError("choose a CSV file")
		return model, "", false
	}
	if v.states[model].Busy() {
		v.message = string(model) + " upload already running"
		return model, "", false
	}
	v.states[model] = modeling.StateRunning
	v.message = ""
	return model, v.Path(), true
}

// Finish records an upload outcome.
func (v *UploadView) Finish(out Outcome) {
	v.states[out.Model] = modeling.Finished(out.OK)
	v.last[out.Model] = out
	v.message = ""
}

// Cleared records a clear outcome. A clear resets the model to idle.
func (v *UploadView) Cleared(out Outcome) {
	if out.OK {
		v.states[out.Model] = modeling.StateIdle
		delete(v.last, out.Model)
	}
	v.message = out.Message
}

// SetRuns replaces the recent run history.
func (v *UploadView) SetRuns(runs []*models.ImportRun) {
	v.runs = runs
}

// Render renders the upload form, per-model state and recent runs.
func (v *UploadView) Render(width int) string {
	narrow := width < 60
	labelWidth := 16
	if narrow {
		labelWidth = 0
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("═══ CSV INFERENCE ═══"))
	b.WriteString("\n\n")

	b.WriteString(v.path.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(v.model.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	if v.message != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(v.message))
		b.WriteString("\n")
	}

	for _, model := range []models.ModelKind{models.ModelImmune, models.ModelNutrition} {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(strings.ToUpper(string(model))))
		b.WriteString(" ")
		b.WriteString(v.renderState(v.states[model]))
		b.WriteString("\n")
		if out, ok := v.last[model]; ok {
			b.WriteString(v.renderOutcome(out))
		}
	}

	if len(v.runs) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("RECENT RUNS"))
		b.WriteString("\n")
		for _, run := range v.runs {
			b.WriteString(v.renderRun(run, narrow))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if narrow {
		b.WriteString(helpStyle.Render("Tab:Field  Enter:Run  ctrl+x:Clear"))
	} else {
		b.WriteString(helpStyle.Render("Tab:Switch field  Left/Right:Model  Enter:Run upload  ctrl+x:Clear stored batch"))
	}
	return b.String()
}

func (v *UploadView) renderState(s modeling.State) string {
	label := "[" + s.String() + "]"
	switch s {
	case modeling.StateRunning:
		return warnStyle.Render(label)
	case modeling.StateSuccess:
		return valueStyle.Render(label)
	case modeling.StateError:
		return errStyle.Render(label)
	default:
		return labelStyle.Render(label)
	}
}

func (v *UploadView) renderOutcome(out Outcome) string {
	var b strings.Builder
	style := valueStyle
	if !out.OK {
		style = errStyle
	}
	b.WriteString("  " + style.Render(out.Message) + "\n")
	if len(out.MissingHeaders) > 0 {
		b.WriteString("  " + errStyle.Render("missing headers: "+strings.Join(out.MissingHeaders, ", ")) + "\n")
	}
	if out.OK {
		b.WriteString("  " + labelStyle.Render(fmt.Sprintf("%d rows, %d stored", out.Rows, out.Items)) + "\n")
	}
	if out.Truncated {
		b.WriteString("  " + warnStyle.Render(fmt.Sprintf("only the first %d rows were used", modeling.MaxBatchRows)) + "\n")
	}
	return b.String()
}

func (v *UploadView) renderRun(run *models.ImportRun, narrow bool) string {
	mark := valueStyle.Render("ok  ")
	if !run.OK {
		mark = errStyle.Render("fail")
	}
	when := run.CreatedAt.In(v.loc).Format(util.DateTimeFormat)
	line := fmt.Sprintf("  %s %s %-9s %s", when, mark, run.Model, components.PadText(run.Source, 20))
	if narrow {
		return line
	}
	detail := fmt.Sprintf(" %d/%d", run.Items, run.Rows)
	if run.Truncated {
		detail += " truncated"
	}
	return line + labelStyle.Render(detail)
}
