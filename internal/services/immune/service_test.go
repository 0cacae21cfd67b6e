package immune

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careboard/careboard/internal/database/seed"
	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/storage"
	"github.com/careboard/careboard/internal/testutil"
)

type staticResidents struct {
	residents []*models.Resident
	err       error
}

func (s staticResidents) All(context.Context) ([]*models.Resident, error) {
	return s.residents, s.err
}

func newService(t *testing.T, batch *models.ImmuneBatch) *Service {
	t.Helper()

	roster, err := seed.Residents()
	require.NoError(t, err)

	store := storage.NewBatchStore(storage.NewMemoryKV(), nil)
	if batch != nil {
		require.NoError(t, store.SaveImmune(context.Background(), batch))
	}
	return NewService(staticResidents{residents: roster}, store, fixture.MustLoadCatalog(), nil)
}

func TestConditions_Deterministic(t *testing.T) {
	s := newService(t, nil)

	assert.Equal(t,
		[]string{"상세불명의 치매", "중풍후유증", "달리 분류된 기타 질환에서의 치매"},
		s.Conditions("r-101", models.RiskCritical))
	assert.Equal(t, []string{"알츠하이머병"}, s.Conditions("r-108", models.RiskLow))

	// Memoised: same slice comes back.
	first := s.Conditions("r-101", models.RiskCritical)
	again := s.Conditions("r-101", models.RiskCritical)
	assert.Equal(t, first, again)
}

func TestNormalizeRisk(t *testing.T) {
	assert.Equal(t, models.RiskCritical, NormalizeRisk("critical"))
	assert.Equal(t, models.RiskModerate, NormalizeRisk("moderate"))
	assert.Equal(t, models.RiskLow, NormalizeRisk("severe"))
	assert.Equal(t, models.RiskLow, NormalizeRisk(""))
}

func TestOverlay(t *testing.T) {
	residents := []*models.Resident{
		testutil.FixtureResident(func(r *models.Resident) { r.ID, r.Score, r.Risk = "r-1", 18.2, models.RiskCritical }),
		testutil.FixtureResident(func(r *models.Resident) { r.ID, r.Score, r.Risk = "r-2", 82.6, models.RiskLow }),
	}
	batch := testutil.FixtureImmuneBatch(
		testutil.ImmuneEntry{ResidentID: "r-1", Score: 61.26, Risk: "moderate"},
		testutil.ImmuneEntry{ResidentID: "r-9", Score: 10, Risk: "critical"},
		testutil.ImmuneEntry{ResidentID: "", Score: 10, Risk: "critical"},
	)

	out, sources := Overlay(residents, batch)
	require.Len(t, out, 2)
	assert.Equal(t, 61.3, out[0].Score)
	assert.Equal(t, models.RiskModerate, out[0].Risk)
	assert.Equal(t, 82.6, out[1].Score)
	assert.Equal(t, models.SourceFallback, sources["r-1"])
	assert.NotContains(t, sources, "r-2")

	// The registry records are untouched.
	assert.Equal(t, 18.2, residents[0].Score)

	out, sources = Overlay(residents, nil)
	assert.Equal(t, 18.2, out[0].Score)
	assert.Empty(t, sources)
}

func TestOverlay_UnknownRiskLabel(t *testing.T) {
	residents := []*models.Resident{testutil.FixtureResident(func(r *models.Resident) { r.ID = "r-1" })}
	batch := testutil.FixtureImmuneBatch(testutil.ImmuneEntry{ResidentID: "r-1", Score: 12, Risk: "extreme"})

	out, _ := Overlay(residents, batch)
	assert.Equal(t, models.RiskLow, out[0].Risk)
}

func TestList_FilterAndSort(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()

	all, err := s.List(ctx, ListOptions{Filter: FilterAll, Order: SortDesc})
	require.NoError(t, err)
	require.Len(t, all, 20)
	assert.Equal(t, "r-114", all[0].ID) // 84.9
	assert.Equal(t, "r-101", all[19].ID)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
	}

	critical, err := s.List(ctx, ListOptions{Filter: FilterCritical, Order: SortAsc})
	require.NoError(t, err)
	require.Len(t, critical, 5)
	assert.Equal(t, "r-101", critical[0].ID) // 18.2
	for _, v := range critical {
		assert.Equal(t, models.RiskCritical, v.Risk)
		assert.NotEmpty(t, v.Actions)
		assert.Len(t, v.Conditions, len(s.Conditions(v.ID, models.RiskCritical)))
	}

	high, err := s.List(ctx, ListOptions{Filter: FilterHigh})
	require.NoError(t, err)
	assert.Len(t, high, 6)
}

func TestList_WithPrediction(t *testing.T) {
	batch := testutil.FixtureImmuneBatch(testutil.ImmuneEntry{ResidentID: "r-107", Score: 91.04, Risk: models.RiskLow})
	s := newService(t, batch)

	view, err := s.Get(context.Background(), "r-107")
	require.NoError(t, err)
	assert.True(t, view.Predicted)
	assert.Equal(t, 91.0, view.Score)
	assert.Equal(t, models.RiskLow, view.Risk)
	assert.Empty(t, view.Actions)
	// Conditions still follow the registry risk.
	assert.Equal(t, s.Conditions("r-107", models.RiskCritical), view.Conditions)

	_, err = s.Get(context.Background(), "r-999")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	s := newService(t, nil)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, sum.Total)
	assert.Equal(t, 5, sum.RiskCounts[models.RiskCritical])
	assert.Equal(t, 6, sum.RiskCounts[models.RiskHigh])
	assert.Equal(t, 5, sum.RiskCounts[models.RiskModerate])
	assert.Equal(t, 4, sum.RiskCounts[models.RiskLow])
	assert.Equal(t, 11, sum.Vulnerable)
	assert.Equal(t, 5, sum.Critical)
	assert.Equal(t, 48.7, sum.AverageScore)
	assert.Equal(t, StatusWarning, sum.Status)
	assert.Zero(t, sum.Predicted)
	assert.Empty(t, sum.BatchTime)
}

func TestSummary_WithBatch(t *testing.T) {
	batch := testutil.FixtureImmuneBatch(testutil.ImmuneEntry{ResidentID: "r-101", Score: 80, Risk: models.RiskLow})
	s := newService(t, batch)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Predicted)
	assert.Equal(t, 4, sum.RiskCounts[models.RiskCritical])
	assert.Equal(t, 5, sum.RiskCounts[models.RiskLow])
	assert.Equal(t, "2026-03-01T09:30:00Z", sum.BatchTime)
}

func TestStatusForScore(t *testing.T) {
	tests := []struct {
		avg  float64
		want FacilityStatus
	}{
		{100, StatusSafe},
		{70, StatusSafe},
		{69.9, StatusCaution},
		{50, StatusCaution},
		{49.9, StatusWarning},
		{0, StatusWarning},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForScore(tt.avg), "avg %v", tt.avg)
	}
	assert.Equal(t, "주의", StatusCaution.Label())
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.AverageScore)
	assert.Equal(t, StatusWarning, sum.Status)
}

func TestFilterAndOrderCycle(t *testing.T) {
	assert.Equal(t, FilterCritical, FilterAll.Next())
	assert.Equal(t, FilterHigh, FilterCritical.Next())
	assert.Equal(t, FilterAll, FilterHigh.Next())
	assert.Equal(t, SortAsc, SortDesc.Toggle())
	assert.Equal(t, SortDesc, SortAsc.Toggle())
}

func TestList_SourceError(t *testing.T) {
	store := storage.NewBatchStore(storage.NewMemoryKV(), nil)
	s := NewService(staticResidents{err: errors.New("db down")}, store, fixture.MustLoadCatalog(), nil)

	_, err := s.List(context.Background(), ListOptions{})
	assert.Error(t, err)
}
