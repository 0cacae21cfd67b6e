package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/careboard/careboard/internal/config"
	"github.com/careboard/careboard/internal/database"
	"github.com/careboard/careboard/internal/database/seed"
	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/modeling"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/repository"
	"github.com/careboard/careboard/internal/services/immune"
	"github.com/careboard/careboard/internal/services/nutrition"
	"github.com/careboard/careboard/internal/storage"
	"github.com/careboard/careboard/internal/util"
)

// testNow is the facility clock in every TUI test (18:30 in Seoul).
var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// stubPredictor answers every immune row with a fallback score of 91 and
// every nutrition request with a rule-based simulation.
type stubPredictor struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (p *stubPredictor) PredictImmuneBatch(_ context.Context, items []models.ImmunePredictRequest) ([]models.ImmunePredictResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return nil, errors.New("backend unavailable")
	}
	out := make([]models.ImmunePredictResult, len(items))
	for i, it := range items {
		out[i] = models.ImmunePredictResult{
			ResidentID: it.ResidentID,
			Source:     models.SourceFallback,
			DivsScore:  91,
			RiskLevel:  models.RiskLow,
		}
	}
	return out, nil
}

func (p *stubPredictor) SimulateNutrition(context.Context, models.NutritionSimRequest) (*models.NutritionSimResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return &models.NutritionSimResponse{Source: models.SourceRuleBased}, nil
}

type stubHealth struct {
	err error
}

func (h stubHealth) Health(context.Context) (*models.BackendHealth, error) {
	if h.err != nil {
		return nil, h.err
	}
	return &models.BackendHealth{Status: "ok"}, nil
}

// testEnv is an App wired to a seeded in-memory database, an in-memory
// batch store and a stub model backend.
type testEnv struct {
	app       *App
	deps      Deps
	store     *storage.BatchStore
	predictor *stubPredictor
}

func newTestDeps(t *testing.T) (Deps, *storage.BatchStore, *stubPredictor) {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewMigratedInMemory(ctx)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gen, err := seed.NewGenerator(db.DB, nil)
	if err != nil {
		t.Fatalf("creating seed generator: %v", err)
	}
	if _, err := gen.Generate(ctx); err != nil {
		t.Fatalf("seeding residents: %v", err)
	}

	residents := repository.NewResidentRepository(db.DB)
	runs := repository.NewImportRunRepository(db.DB)
	store := storage.NewBatchStore(storage.NewMemoryKV(), nil)
	catalog := fixture.MustLoadCatalog()
	predictor := &stubPredictor{}

	pipeline := modeling.NewPipeline(predictor, store, modeling.Config{
		Now:      func() time.Time { return testNow },
		Recorder: runs,
	})

	deps := Deps{
		Immune:    immune.NewService(residents, store, catalog, nil),
		Nutrition: nutrition.NewService(residents, store, catalog, nil),
		Pipeline:  pipeline,
		Batches:   store,
		Runs:      runs,
		Health:    stubHealth{},
		Clock:     util.FixedClock{T: testNow},
	}
	return deps, store, predictor
}

// newTestEnv creates an App with data already loaded, a 120x40 window and
// the app marked ready.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	deps, store, predictor := newTestDeps(t)
	app := New(config.Default(), deps)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	env := &testEnv{app: app, deps: deps, store: store, predictor: predictor}
	env.run(app.loadSummary())
	env.run(app.checkHealth())
	return env
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	return newTestEnv(t).app
}

// run executes cmd and feeds its messages back into the app until no
// further commands are produced. Ticks are not followed.
func (e *testEnv) run(cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		switch m := msg.(type) {
		case nil, tickMsg:
			return
		case tea.BatchMsg:
			for _, c := range m {
				e.run(c)
			}
			return
		}
		_, cmd = e.app.Update(msg)
	}
}

// press sends a key and runs whatever commands it triggers.
func (e *testEnv) press(msg tea.KeyMsg) {
	_, cmd := e.app.Update(msg)
	e.run(cmd)
}

// typeText sends s one rune at a time.
func (e *testEnv) typeText(s string) {
	for _, r := range s {
		e.press(keyMsg(string(r)))
	}
}

// writeCSV writes body to a temp file and returns its path.
func writeCSV(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}
