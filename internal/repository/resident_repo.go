// Package repository provides the data access layer for CareBoard.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/careboard/careboard/internal/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ResidentRepository handles resident data access.
type ResidentRepository struct {
	db *sql.DB
}

// NewResidentRepository creates a new resident repository.
func NewResidentRepository(db *sql.DB) *ResidentRepository {
	return &ResidentRepository{db: db}
}

func (r *ResidentRepository) execer(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.db
}

const residentColumns = `id, name, room, age, gender, risk, score`

// Create inserts a resident. tx may be nil.
func (r *ResidentRepository) Create(ctx context.Context, tx *sql.Tx, resident *models.Resident) error {
	if err := resident.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.execer(tx).ExecContext(ctx, `
		INSERT INTO residents (`+residentColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resident.ID,
		resident.Name,
		resident.Room,
		resident.Age,
		string(resident.Gender),
		string(resident.Risk),
		resident.Score,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting resident: %w", err)
	}
	return nil
}

// All returns every resident ordered by ID.
func (r *ResidentRepository) All(ctx context.Context) ([]*models.Resident, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+residentColumns+` FROM residents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying residents: %w", err)
	}
	defer rows.Close()

	var residents []*models.Resident
	for rows.Next() {
		resident, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		residents = append(residents, resident)
	}
	return residents, rows.Err()
}

// Count returns the number of residents.
func (r *ResidentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM residents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting residents: %w", err)
	}
	return n, nil
}

func scanResident(rows *sql.Rows) (*models.Resident, error) {
	var res models.Resident
	var gender, risk string
	if err := rows.Scan(&res.ID, &res.Name, &res.Room, &res.Age, &gender, &risk, &res.Score); err != nil {
		return nil, fmt.Errorf("scanning resident: %w", err)
	}
	res.Gender = models.Gender(gender)
	res.Risk = models.RiskLevel(risk)
	return &res, nil
}
