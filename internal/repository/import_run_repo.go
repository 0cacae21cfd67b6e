package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/careboard/careboard/internal/models"
)

// runTimeFormat is fixed-width so created_at sorts lexically.
const runTimeFormat = "2006-01-02T15:04:05.000000000Z"

// ImportRunRepository keeps the history of inference pipeline runs.
type ImportRunRepository struct {
	db *sql.DB
}

// NewImportRunRepository creates a new import run repository.
func NewImportRunRepository(db *sql.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// Create records a run.
func (r *ImportRunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, model, source, ok, message, row_count, item_count, truncated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.Model),
		run.Source,
		boolToInt(run.OK),
		run.Message,
		run.Rows,
		run.Items,
		boolToInt(run.Truncated),
		run.CreatedAt.UTC().Format(runTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting import run: %w", err)
	}
	return nil
}

// ListRecent returns up to limit runs, newest first.
func (r *ImportRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, model, source, ok, message, row_count, item_count, truncated, created_at
		FROM import_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		var run models.ImportRun
		var model, createdAt string
		var ok, truncated int
		if err := rows.Scan(&run.ID, &model, &run.Source, &ok, &run.Message,
			&run.Rows, &run.Items, &truncated, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning import run: %w", err)
		}
		run.Model = models.ModelKind(model)
		run.OK = ok != 0
		run.Truncated = truncated != 0
		run.CreatedAt, _ = time.Parse(runTimeFormat, createdAt)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
