// Package immune builds the infection-vulnerability dashboard: the resident
// roster with any stored model predictions laid over it, plus the
// facility-wide summary.
package immune

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/util"
)

// ResidentSource lists the registry.
type ResidentSource interface {
	All(ctx context.Context) ([]*models.Resident, error)
}

// BatchSource reads the stored immune batch.
type BatchSource interface {
	LoadImmune(ctx context.Context) (*models.ImmuneBatch, bool)
}

// RiskFilter narrows the resident list.
type RiskFilter string

const (
	FilterAll      RiskFilter = "all"
	FilterCritical RiskFilter = "critical"
	FilterHigh     RiskFilter = "high"
)

// Next cycles all → critical → high → all.
func (f RiskFilter) Next() RiskFilter {
	switch f {
	case FilterAll:
		return FilterCritical
	case FilterCritical:
		return FilterHigh
	default:
		return FilterAll
	}
}

func (f RiskFilter) matches(r models.RiskLevel) bool {
	return f == FilterAll || f == "" || models.RiskLevel(f) == r
}

// SortOrder orders residents by score.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// Toggle flips the order.
func (o SortOrder) Toggle() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ListOptions controls List.
type ListOptions struct {
	Filter RiskFilter
	Order  SortOrder
}

// ResidentView is a resident as the dashboard shows it.
type ResidentView struct {
	models.Resident
	Conditions []string
	Predicted  bool
	Source     models.PredictionSource
	Actions    []fixture.CareAction
}

// Vulnerable reports whether the resident is at high or critical risk.
func (v ResidentView) Vulnerable() bool {
	return v.Risk == models.RiskCritical || v.Risk == models.RiskHigh
}

type conditionKey struct {
	id   string
	risk models.RiskLevel
}

// Service assembles dashboard views.
type Service struct {
	residents  ResidentSource
	batches    BatchSource
	catalog    *fixture.Catalog
	conditions *fixture.Memo[conditionKey, []string]
	logger     *slog.Logger
}

// NewService creates the immune dashboard service.
func NewService(residents ResidentSource, batches BatchSource, catalog *fixture.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		residents: residents,
		batches:   batches,
		catalog:   catalog,
		logger:    logger.With("component", "immune"),
	}
	s.conditions = fixture.NewMemo(s.sampleConditions)
	return s
}

func (s *Service) sampleConditions(k conditionKey) []string {
	conds, err := fixture.SampleConditions(k.id, s.catalog.Conditions, s.catalog.ConditionCounts(k.risk))
	if err != nil {
		s.logger.Warn("sampling conditions", "resident", k.id, "error", err)
		return nil
	}
	return conds
}

// Conditions returns the generated condition list for a resident, keyed on
// the registry risk level.
func (s *Service) Conditions(id string, risk models.RiskLevel) []string {
	return s.conditions.Get(conditionKey{id: id, risk: risk})
}

// NormalizeRisk maps a model's risk label onto a known level. Anything
// unrecognised is low.
func NormalizeRisk(label models.RiskLevel) models.RiskLevel {
	if label.Valid() {
		return label
	}
	return models.RiskLow
}

// Overlay replaces the score and risk of every resident that has a
// prediction in batch. Predictions for unknown residents are ignored.
// The input slice is not modified.
func Overlay(residents []*models.Resident, batch *models.ImmuneBatch) ([]models.Resident, map[string]models.PredictionSource) {
	predicted := make(map[string]models.ImmunePredictResult)
	if batch != nil {
		for _, item := range batch.Items {
			if item.ResidentID == "" {
				continue
			}
			predicted[item.ResidentID] = item.Prediction
		}
	}

	out := make([]models.Resident, 0, len(residents))
	sources := make(map[string]models.PredictionSource)
	for _, r := range residents {
		view := *r
		if p, ok := predicted[r.ID]; ok {
			view.Score = util.Round1(p.DivsScore)
			view.Risk = NormalizeRisk(p.RiskLevel)
			sources[r.ID] = p.Source
		}
		out = append(out, view)
	}
	return out, sources
}

// views loads residents and lays the stored batch over them.
func (s *Service) views(ctx context.Context) ([]ResidentView, *models.ImmuneBatch, error) {
	residents, err := s.residents.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading residents: %w", err)
	}

	batch, _ := s.batches.LoadImmune(ctx)
	overlaid, sources := Overlay(residents, batch)

	views := make([]ResidentView, len(overlaid))
	for i, r := range overlaid {
		src, predicted := sources[r.ID]
		v := ResidentView{
			Resident:   r,
			Conditions: s.Conditions(r.ID, residents[i].Risk),
			Predicted:  predicted,
			Source:     src,
		}
		if v.Vulnerable() {
			v.Actions = s.catalog.CareActions
		}
		views[i] = v
	}
	return views, batch, nil
}

// List returns the filtered residents sorted by score. Equal scores keep
// registry order.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]ResidentView, error) {
	all, _, err := s.views(ctx)
	if err != nil {
		return nil, err
	}

	var out []ResidentView
	for _, v := range all {
		if opts.Filter.matches(v.Risk) {
			out = append(out, v)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.Order == SortAsc {
			return out[i].Score < out[j].Score
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// Get returns one resident's view.
func (s *Service) Get(ctx context.Context, id string) (*ResidentView, error) {
	all, _, err := s.views(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("resident %s not found", id)
}

// FacilityStatus grades the facility's average score.
type FacilityStatus string

const (
	StatusSafe    FacilityStatus = "safe"
	StatusCaution FacilityStatus = "caution"
	StatusWarning FacilityStatus = "warning"
)

// Label returns the Korean label used on the dashboard.
func (f FacilityStatus) Label() string {
	switch f {
	case StatusSafe:
		return "안전"
	case StatusCaution:
		return "주의"
	default:
		return "경고"
	}
}

// StatusForScore grades an average score: 70 and above is safe, 50 and
// above caution, anything lower a warning.
func StatusForScore(avg float64) FacilityStatus {
	switch {
	case avg >= 70:
		return StatusSafe
	case avg >= 50:
		return StatusCaution
	default:
		return StatusWarning
	}
}

// Summary is the facility-wide headline.
type Summary struct {
	Total        int
	RiskCounts   map[models.RiskLevel]int
	Vulnerable   int
	Critical     int
	AverageScore float64
	Status       FacilityStatus
	Predicted    int
	BatchTime    string
}

// Summarize computes the summary over already-overlaid residents.
func Summarize(residents []models.Resident) Summary {
	sum := Summary{RiskCounts: make(map[models.RiskLevel]int, len(models.RiskLevels))}
	for _, level := range models.RiskLevels {
		sum.RiskCounts[level] = 0
	}

	var total float64
	for _, r := range residents {
		sum.RiskCounts[r.Risk]++
		total += r.Score
	}
	sum.Total = len(residents)
	sum.Critical = sum.RiskCounts[models.RiskCritical]
	sum.Vulnerable = sum.Critical + sum.RiskCounts[models.RiskHigh]
	if sum.Total > 0 {
		sum.AverageScore = util.Round1(total / float64(sum.Total))
	}
	sum.Status = StatusForScore(sum.AverageScore)
	return sum
}

// Summary returns the facility summary with the stored batch applied.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	views, batch, err := s.views(ctx)
	if err != nil {
		return nil, err
	}

	residents := make([]models.Resident, len(views))
	predicted := 0
	for i, v := range views {
		residents[i] = v.Resident
		if v.Predicted {
			predicted++
		}
	}

	sum := Summarize(residents)
	sum.Predicted = predicted
	if batch != nil {
		sum.BatchTime = batch.UpdatedAt
	}
	return &sum, nil
}
