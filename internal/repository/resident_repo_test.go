package repository

import (
	"context"
	"testing"

	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/testutil"
)

func findResident(t *testing.T, repo *ResidentRepository, id string) *models.Resident {
	t.Helper()
	all, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("failed to load residents: %v", err)
	}
	for _, r := range all {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("resident %s not stored", id)
	return nil
}

func TestResidentRepository_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewResidentRepository(db.DB)
	ctx := context.Background()

	t.Run("Create valid resident", func(t *testing.T) {
		resident := testutil.FixtureResident()

		if err := repo.Create(ctx, nil, resident); err != nil {
			t.Fatalf("failed to create resident: %v", err)
		}

		found := findResident(t, repo, resident.ID)
		if *found != *resident {
			t.Errorf("expected %+v, got %+v", resident, found)
		}
	})

	t.Run("Create with transaction", func(t *testing.T) {
		resident := testutil.FixtureMaleResident()

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		if err := repo.Create(ctx, tx, resident); err != nil {
			t.Fatalf("failed to create resident: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("failed to commit transaction: %v", err)
		}

		found := findResident(t, repo, resident.ID)
		if found.Gender != models.GenderMale {
			t.Errorf("expected gender 남, got %s", found.Gender)
		}
	})

	t.Run("Create invalid resident fails", func(t *testing.T) {
		resident := testutil.FixtureResident(func(r *models.Resident) {
			r.Name = ""
		})
		if err := repo.Create(ctx, nil, resident); err == nil {
			t.Error("expected validation error for empty name")
		}
	})

	t.Run("Duplicate ID fails", func(t *testing.T) {
		resident := testutil.FixtureResident()
		if err := repo.Create(ctx, nil, resident); err != nil {
			t.Fatalf("failed to create resident: %v", err)
		}
		if err := repo.Create(ctx, nil, resident); err == nil {
			t.Error("expected error for duplicate id")
		}
	})
}

func TestResidentRepository_All(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewResidentRepository(db.DB)
	ctx := context.Background()

	all, err := repo.All(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected empty registry, got %d (%v)", len(all), err)
	}

	fixtures := []*models.Resident{
		testutil.FixtureResident(func(r *models.Resident) {
			r.ID, r.Name, r.Room, r.Age, r.Risk = "r-103", "이순자", "201", 91, models.RiskCritical
		}),
		testutil.FixtureResident(func(r *models.Resident) {
			r.ID, r.Name, r.Room, r.Age, r.Risk = "r-101", "김영희", "101", 87, models.RiskCritical
		}),
		testutil.FixtureMaleResident(func(r *models.Resident) {
			r.ID, r.Room, r.Age, r.Risk = "r-102", "102", 79, models.RiskHigh
		}),
	}
	for _, r := range fixtures {
		if err := repo.Create(ctx, nil, r); err != nil {
			t.Fatalf("failed to create resident: %v", err)
		}
	}

	t.Run("Ordered by id", func(t *testing.T) {
		all, err := repo.All(ctx)
		if err != nil {
			t.Fatalf("failed to load all: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 residents, got %d", len(all))
		}
		for i, want := range []string{"r-101", "r-102", "r-103"} {
			if all[i].ID != want {
				t.Errorf("all[%d].ID = %s, want %s", i, all[i].ID, want)
			}
		}
		if *all[0] != *fixtures[1] {
			t.Errorf("round trip mismatch: %+v vs %+v", all[0], fixtures[1])
		}
	})

	t.Run("Count", func(t *testing.T) {
		n, err := repo.Count(ctx)
		if err != nil || n != 3 {
			t.Fatalf("expected count 3, got %d (%v)", n, err)
		}
	})
}
