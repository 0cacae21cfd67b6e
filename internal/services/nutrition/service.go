// Package nutrition builds the per-resident nutrition profile: generated
// nutrient levels, projected improvements, catalog recommendations and
// restrictions, and any stored simulation result.
package nutrition

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/models"
)

// ResidentSource lists the registry.
type ResidentSource interface {
	All(ctx context.Context) ([]*models.Resident, error)
}

// BatchSource reads the stored nutrition batch.
type BatchSource interface {
	LoadNutrition(ctx context.Context) (*models.NutritionBatch, bool)
}

// ImprovementCap is the highest projected nutrient level.
const ImprovementCap = 95

// Improvement is a low nutrient's projected level after supplementation.
type Improvement struct {
	Nutrient string
	Current  int
	Improved int
}

// Improvements projects each low nutrient upward by 15, 22, or 29 points
// in rotation, capped at ImprovementCap.
func Improvements(low []fixture.AssignedAttribute) []Improvement {
	out := make([]Improvement, 0, len(low))
	for i, a := range low {
		increase := 15 + (i%3)*7
		out = append(out, Improvement{
			Nutrient: a.Name,
			Current:  a.Value,
			Improved: min(a.Value+increase, ImprovementCap),
		})
	}
	return out
}

// Profile is everything the nutrition view shows for one resident.
type Profile struct {
	Resident       models.Resident
	Nutrients      []fixture.AssignedAttribute
	Low            []fixture.AssignedAttribute
	Improvements   []Improvement
	Recommendation fixture.Recommendation
	Subscription   fixture.Subscription
	Conditions     []string
	Restrictions   []fixture.Restriction
	Similar        []string
	Prediction     *models.NutritionBatchItem
}

// Service assembles nutrition profiles.
type Service struct {
	residents ResidentSource
	batches   BatchSource
	catalog   *fixture.Catalog
	status    *fixture.Memo[string, []fixture.AssignedAttribute]
	logger    *slog.Logger
}

// NewService creates the nutrition service.
func NewService(residents ResidentSource, batches BatchSource, catalog *fixture.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		residents: residents,
		batches:   batches,
		catalog:   catalog,
		logger:    logger.With("component", "nutrition"),
	}
	s.status = fixture.NewMemo(s.assign)
	return s
}

func (s *Service) assign(name string) []fixture.AssignedAttribute {
	attrs, err := fixture.AssignAttributes(name, s.catalog.Nutrients, s.catalog.LowNutrientCount, fixture.DefaultMagnitudes)
	if err != nil {
		s.logger.Warn("assigning nutrients", "name", name, "error", err)
		return nil
	}
	return attrs
}

// NutrientStatus returns the generated nutrient levels for a resident
// name, in catalog order.
func (s *Service) NutrientStatus(name string) []fixture.AssignedAttribute {
	return s.status.Get(name)
}

// Search returns the residents whose name contains term, in registry
// order. An empty term matches everyone.
func (s *Service) Search(ctx context.Context, term string) ([]models.Resident, error) {
	residents, err := s.residents.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading residents: %w", err)
	}

	term = strings.TrimSpace(term)
	var out []models.Resident
	for _, r := range residents {
		if term == "" || strings.Contains(r.Name, term) {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Names is Search reduced to names.
func (s *Service) Names(ctx context.Context, term string) ([]string, error) {
	residents, err := s.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(residents))
	for i, r := range residents {
		names[i] = r.Name
	}
	return names, nil
}

// SimilarResidents returns the other names whose recommended foods
// overlap with name's.
func (s *Service) SimilarResidents(name string, names []string) []string {
	foods := s.catalog.RecommendationFor(name).Foods

	var out []string
	for _, other := range names {
		if other == name {
			continue
		}
		for _, food := range s.catalog.RecommendationFor(other).Foods {
			if slices.Contains(foods, food) {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

// Profile builds the profile of the resident with the given ID.
func (s *Service) Profile(ctx context.Context, id string) (*Profile, error) {
	residents, err := s.residents.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading residents: %w", err)
	}

	var resident *models.Resident
	names := make([]string, 0, len(residents))
	for _, r := range residents {
		names = append(names, r.Name)
		if r.ID == id {
			resident = r
		}
	}
	if resident == nil {
		return nil, fmt.Errorf("resident %s not found", id)
	}

	nutrients := s.NutrientStatus(resident.Name)
	low := fixture.FlaggedOnly(nutrients)
	conditions := s.catalog.RecordedConditions[resident.Name]

	p := &Profile{
		Resident:       *resident,
		Nutrients:      nutrients,
		Low:            low,
		Improvements:   Improvements(low),
		Recommendation: s.catalog.RecommendationFor(resident.Name),
		Subscription:   s.catalog.SubscriptionFor(resident.Name),
		Conditions:     conditions,
		Restrictions:   s.catalog.RestrictionsFor(conditions),
		Similar:        s.SimilarResidents(resident.Name, names),
	}

	if batch, ok := s.batches.LoadNutrition(ctx); ok {
		p.Prediction = findPrediction(batch, resident)
	}
	return p, nil
}

// findPrediction matches a batch item by resident ID, then by name.
func findPrediction(batch *models.NutritionBatch, r *models.Resident) *models.NutritionBatchItem {
	for i := range batch.Items {
		if batch.Items[i].ResidentID == r.ID {
			return &batch.Items[i]
		}
	}
	for i := range batch.Items {
		if batch.Items[i].Name != "" && batch.Items[i].Name == r.Name {
			return &batch.Items[i]
		}
	}
	return nil
}
