package modeling

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/util"
)

// Predictor calls the model backend.
type Predictor interface {
	PredictImmuneBatch(ctx context.Context, items []models.ImmunePredictRequest) ([]models.ImmunePredictResult, error)
	SimulateNutrition(ctx context.Context, req models.NutritionSimRequest) (*models.NutritionSimResponse, error)
}

// BatchStore persists the latest batch per model.
type BatchStore interface {
	SaveImmune(ctx context.Context, batch *models.ImmuneBatch) error
	SaveNutrition(ctx context.Context, batch *models.NutritionBatch) error
	Clear(ctx context.Context, model models.ModelKind) error
}

// RunRecorder keeps a history of pipeline attempts.
type RunRecorder interface {
	Create(ctx context.Context, run *models.ImportRun) error
}

// Result is what an upload reports back. A failed result never carries a
// batch, and a failure never touches the stored batch.
type Result[T any] struct {
	OK             bool     `json:"ok"`
	Message        string   `json:"message"`
	MissingHeaders []string `json:"missing_headers"`
	Batch          *T       `json:"batch"`
	// Truncated is set when rows past the row cap were ignored.
	Truncated bool `json:"truncated"`
	// Rows is the number of data rows considered.
	Rows int `json:"rows"`
}

// Config tunes a Pipeline.
type Config struct {
	MaxRows              int
	NutritionConcurrency int
	Now                  func() time.Time
	NewID                func() string
	Recorder             RunRecorder
	Logger               *slog.Logger
}

// Pipeline runs CSV uploads through the model backend.
type Pipeline struct {
	predictor Predictor
	store     BatchStore
	cfg       Config
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. Zero Config fields take defaults.
func NewPipeline(predictor Predictor, store BatchStore, cfg Config) *Pipeline {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = MaxBatchRows
	}
	if cfg.NutritionConcurrency <= 0 {
		cfg.NutritionConcurrency = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = util.NewID
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		predictor: predictor,
		store:     store,
		cfg:       cfg,
		logger:    logger.With("component", "modeling"),
	}
}

// RunImmune parses an immune CSV, predicts every row in one batch call,
// and persists the batch on success. source names the upload in logs and
// the run history.
func (p *Pipeline) RunImmune(ctx context.Context, source string, r io.Reader) Result[models.ImmuneBatch] {
	res := p.runImmune(ctx, r)
	items := 0
	if res.Batch != nil {
		items = res.Batch.Count
	}
	p.record(ctx, models.ModelImmune, source, res.OK, res.Message, res.Rows, items, res.Truncated)
	return res
}

func (p *Pipeline) runImmune(ctx context.Context, r io.Reader) Result[models.ImmuneBatch] {
	parsed, f, ok := p.parse(r, ImmuneRequiredHeaders)
	if !ok {
		return fail[models.ImmuneBatch](f)
	}

	requests := make([]models.ImmunePredictRequest, len(parsed.Rows))
	for i, row := range parsed.Rows {
		requests[i] = BuildImmuneRequest(row, i)
	}

	predictions, err := p.predictor.PredictImmuneBatch(ctx, requests)
	if err != nil {
		p.logger.Warn("immune prediction failed", "rows", len(requests), "error", err)
	}
	if len(predictions) == 0 {
		return fail[models.ImmuneBatch](f.with("immune prediction failed; check the model backend"))
	}

	items := make([]models.ImmuneBatchItem, len(predictions))
	for i, pred := range predictions {
		var row Row
		if i < len(parsed.Rows) {
			row = parsed.Rows[i]
		}
		id := pred.ResidentID
		if id == "" {
			id = ResolveResidentID(row, i)
		}
		items[i] = models.ImmuneBatchItem{
			ResidentID: id,
			Name:       ToText(row.Get("name"), ""),
			Room:       ToText(row.Get("room"), ""),
			Prediction: pred,
		}
	}

	batch := models.NewImmuneBatch(items, p.cfg.Now())
	if err := p.store.SaveImmune(ctx, batch); err != nil {
		p.logger.Error("saving immune batch", "error", err)
		return fail[models.ImmuneBatch](f.with("saving immune batch failed: " + err.Error()))
	}

	p.logger.Info("immune batch stored", "items", batch.Count, "truncated", parsed.Truncated())
	return Result[models.ImmuneBatch]{
		OK:             true,
		Message:        completeMessage("immune", batch.Count, parsed, p.cfg.MaxRows),
		MissingHeaders: []string{},
		Batch:          batch,
		Truncated:      parsed.Truncated(),
		Rows:           len(parsed.Rows),
	}
}

// RunNutrition parses a nutrition CSV and simulates every row that names
// at least one dose, with bounded concurrency. Rows whose call fails are
// left out; the run fails only if nothing succeeds.
func (p *Pipeline) RunNutrition(ctx context.Context, source string, r io.Reader) Result[models.NutritionBatch] {
	res := p.runNutrition(ctx, r)
	items := 0
	if res.Batch != nil {
		items = res.Batch.Count
	}
	p.record(ctx, models.ModelNutrition, source, res.OK, res.Message, res.Rows, items, res.Truncated)
	return res
}

func (p *Pipeline) runNutrition(ctx context.Context, r io.Reader) Result[models.NutritionBatch] {
	parsed, f, ok := p.parse(r, NutritionRequiredHeaders)
	if !ok {
		return fail[models.NutritionBatch](f)
	}

	slots := make([]*models.NutritionBatchItem, len(parsed.Rows))
	var (
		mu        sync.Mutex
		attempted int
		failed    int
	)

	var g errgroup.Group
	g.SetLimit(p.cfg.NutritionConcurrency)

	for i, row := range parsed.Rows {
		req := models.NutritionSimRequest{
			Patient:      BuildNutritionPatient(row),
			Intervention: BuildNutritionIntervention(row),
		}
		if !req.Intervention.HasDose() {
			continue
		}

		g.Go(func() error {
			resp, err := p.predictor.SimulateNutrition(ctx, req)

			mu.Lock()
			defer mu.Unlock()
			attempted++
			if err != nil || resp == nil {
				failed++
				p.logger.Warn("nutrition simulation failed", "row", i+1, "error", err)
				return nil
			}
			slots[i] = &models.NutritionBatchItem{
				ResidentID: ResolveResidentID(row, i),
				Name:       ToText(row.Get("name"), ""),
				Room:       ToText(row.Get("room"), ""),
				Request:    &req,
				Prediction: *resp,
			}
			return nil
		})
	}
	_ = g.Wait()

	var items []models.NutritionBatchItem
	for _, item := range slots {
		if item != nil {
			items = append(items, *item)
		}
	}

	if len(items) == 0 {
		if attempted > 0 && failed == attempted {
			return fail[models.NutritionBatch](f.with("nutrition prediction failed; check the model backend"))
		}
		return fail[models.NutritionBatch](f.with(
			"no nutrition predictions; check the intervention columns (" + strings.Join(InterventionColumns, ", ") + ")"))
	}

	batch := models.NewNutritionBatch(items, p.cfg.Now())
	if err := p.store.SaveNutrition(ctx, batch); err != nil {
		p.logger.Error("saving nutrition batch", "error", err)
		return fail[models.NutritionBatch](f.with("saving nutrition batch failed: " + err.Error()))
	}

	p.logger.Info("nutrition batch stored",
		"items", batch.Count,
		"skipped", len(parsed.Rows)-attempted,
		"failed", failed,
	)
	return Result[models.NutritionBatch]{
		OK:             true,
		Message:        completeMessage("nutrition", batch.Count, parsed, p.cfg.MaxRows),
		MissingHeaders: []string{},
		Batch:          batch,
		Truncated:      parsed.Truncated(),
		Rows:           len(parsed.Rows),
	}
}

// ClearImmune removes the stored immune batch.
func (p *Pipeline) ClearImmune(ctx context.Context) error {
	return p.store.Clear(ctx, models.ModelImmune)
}

// ClearNutrition removes the stored nutrition batch.
func (p *Pipeline) ClearNutrition(ctx context.Context) error {
	return p.store.Clear(ctx, models.ModelNutrition)
}

// failure carries what is known about a run when it stops early.
type failure struct {
	message   string
	missing   []string
	rows      int
	truncated bool
}

func (f failure) with(message string) failure {
	f.message = message
	return f
}

func fail[T any](f failure) Result[T] {
	missing := f.missing
	if missing == nil {
		missing = []string{}
	}
	return Result[T]{
		Message:        f.message,
		MissingHeaders: missing,
		Rows:           f.rows,
		Truncated:      f.truncated,
	}
}

// parse reads the upload and checks headers and row count. On failure ok
// is false and the returned failure describes why.
func (p *Pipeline) parse(r io.Reader, required []string) (ParsedCSV, failure, bool) {
	parsed, err := ReadCSV(r, p.cfg.MaxRows)
	if err != nil {
		return parsed, failure{message: "could not read file: " + err.Error()}, false
	}

	f := failure{rows: len(parsed.Rows), truncated: parsed.Truncated()}
	if missing := parsed.MissingHeaders(required); len(missing) > 0 {
		f.message = "missing required columns: " + strings.Join(missing, ", ")
		f.missing = missing
		return parsed, f, false
	}
	if len(parsed.Rows) == 0 {
		f.message = "no CSV data rows"
		return parsed, f, false
	}
	return parsed, f, true
}

func completeMessage(model string, items int, parsed ParsedCSV, maxRows int) string {
	msg := fmt.Sprintf("%s inference complete (%d rows)", model, items)
	if parsed.Truncated() {
		msg += fmt.Sprintf("; only the first %d of %d rows were used", maxRows, parsed.TotalRows)
	}
	return msg
}

func (p *Pipeline) record(ctx context.Context, model models.ModelKind, source string, ok bool, message string, rows, items int, truncated bool) {
	if p.cfg.Recorder == nil {
		return
	}
	run := &models.ImportRun{
		ID:        p.cfg.NewID(),
		Model:     model,
		Source:    source,
		OK:        ok,
		Message:   message,
		Rows:      rows,
		Items:     items,
		Truncated: truncated,
		CreatedAt: p.cfg.Now().UTC(),
	}
	if err := p.cfg.Recorder.Create(ctx, run); err != nil {
		p.logger.Warn("recording import run", "model", model, "error", err)
	}
}
