package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/careboard/careboard/internal/models"
)

// FixedTime is the clock reading fixtures are stamped with.
var FixedTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// FixtureResident creates a test resident with sensible defaults.
func FixtureResident(overrides ...func(*models.Resident)) *models.Resident {
	resident := &models.Resident{
		ID:     "r-" + uuid.NewString()[:8],
		Name:   "김영희",
		Room:   "101",
		Age:    84,
		Gender: models.GenderFemale,
		Risk:   models.RiskModerate,
		Score:  58,
	}

	for _, override := range overrides {
		override(resident)
	}
	return resident
}

// FixtureMaleResident creates a male test resident.
func FixtureMaleResident(overrides ...func(*models.Resident)) *models.Resident {
	return FixtureResident(append([]func(*models.Resident){
		func(r *models.Resident) {
			r.Name = "박철수"
			r.Gender = models.GenderMale
		},
	}, overrides...)...)
}

// FixtureImportRun creates a successful immune run record.
func FixtureImportRun(overrides ...func(*models.ImportRun)) *models.ImportRun {
	run := &models.ImportRun{
		ID:        uuid.NewString(),
		Model:     models.ModelImmune,
		Source:    "residents.csv",
		OK:        true,
		Message:   "immune inference complete (3 rows)",
		Rows:      3,
		Items:     3,
		CreatedAt: FixedTime,
	}

	for _, override := range overrides {
		override(run)
	}
	return run
}

// FixtureImmuneBatch builds a stored batch with one prediction per
// (resident ID, divs score, risk level) triple.
func FixtureImmuneBatch(entries ...ImmuneEntry) *models.ImmuneBatch {
	items := make([]models.ImmuneBatchItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.ImmuneBatchItem{
			ResidentID: e.ResidentID,
			Prediction: models.ImmunePredictResult{
				ResidentID: e.ResidentID,
				Source:     models.SourceFallback,
				DivsScore:  e.Score,
				RiskLevel:  e.Risk,
			},
		})
	}
	return models.NewImmuneBatch(items, FixedTime)
}

// ImmuneEntry describes one prediction for FixtureImmuneBatch.
type ImmuneEntry struct {
	ResidentID string
	Score      float64
	Risk       models.RiskLevel
}
