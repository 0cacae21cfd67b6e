// Package seed loads the bundled resident roster into an empty registry.
package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"

	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/repository"
)

//go:embed residents.toml
var residentsTOML []byte

type roster struct {
	Residents []*models.Resident `toml:"residents"`
}

// Residents parses the bundled roster.
func Residents() ([]*models.Resident, error) {
	return ParseRoster(residentsTOML)
}

// ParseRoster decodes and validates a roster document.
func ParseRoster(data []byte) ([]*models.Resident, error) {
	var r roster
	if _, err := toml.Decode(string(data), &r); err != nil {
		return nil, fmt.Errorf("decoding roster: %w", err)
	}

	seen := make(map[string]bool, len(r.Residents))
	for i, res := range r.Residents {
		if err := res.Validate(); err != nil {
			return nil, fmt.Errorf("resident %d: %w", i, err)
		}
		if seen[res.ID] {
			return nil, fmt.Errorf("duplicate resident id %s", res.ID)
		}
		seen[res.ID] = true
	}
	return r.Residents, nil
}

// Generator inserts a roster into the residents table.
type Generator struct {
	db        *sql.DB
	residents []*models.Resident
	logger    *slog.Logger
}

// NewGenerator creates a generator for the bundled roster.
func NewGenerator(db *sql.DB, logger *slog.Logger) (*Generator, error) {
	residents, err := Residents()
	if err != nil {
		return nil, err
	}
	return NewGeneratorFor(db, residents, logger), nil
}

// NewGeneratorFor creates a generator for an explicit roster.
func NewGeneratorFor(db *sql.DB, residents []*models.Resident, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{db: db, residents: residents, logger: logger.With("component", "seed")}
}

// Generate inserts every resident in one transaction. It does nothing and
// returns 0 when the registry already has residents.
func (g *Generator) Generate(ctx context.Context) (int, error) {
	repo := repository.NewResidentRepository(g.db)

	existing, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		g.logger.Info("registry already populated, skipping seed", "residents", existing)
		return 0, nil
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range g.residents {
		if err := repo.Create(ctx, tx, r); err != nil {
			return 0, fmt.Errorf("seeding %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}

	g.logger.Info("seed complete", "residents", len(g.residents))
	return len(g.residents), nil
}
