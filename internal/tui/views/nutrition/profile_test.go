package nutrition

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/services/nutrition"
)

type stubSource struct {
	residents []models.Resident
	profiles  map[string]*nutrition.Profile
	lastTerm  string
}

func (s *stubSource) Search(_ context.Context, term string) ([]models.Resident, error) {
	s.lastTerm = term
	var out []models.Resident
	for _, r := range s.residents {
		if term == "" || strings.Contains(r.Name, term) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubSource) Profile(_ context.Context, id string) (*nutrition.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, errors.New("resident " + id + " not found")
}

// load and openID fetch and apply the way the app does across a command.
func load(v *ProfileView) error {
	residents, err := v.Fetch(context.Background(), v.SearchTerm())
	v.SetResidents(residents, err)
	return err
}

func openID(v *ProfileView, id string) error {
	p, err := v.FetchProfile(context.Background(), id)
	v.SetProfile(p, err)
	return err
}

func ptr(f float64) *float64 { return &f }

func newStub() *stubSource {
	kim := models.Resident{ID: "r-101", Name: "김영희", Room: "201호", Age: 87, Gender: models.GenderFemale, Risk: models.RiskCritical}
	seo := models.Resident{ID: "r-117", Name: "서영란", Room: "309호", Age: 79, Gender: models.GenderFemale, Risk: models.RiskLow}
	park := models.Resident{ID: "r-102", Name: "박철수", Room: "202호", Age: 82, Gender: models.GenderMale, Risk: models.RiskCritical}

	return &stubSource{
		residents: []models.Resident{kim, park, seo},
		profiles: map[string]*nutrition.Profile{
			"r-101": {
				Resident: kim,
				Nutrients: []fixture.AssignedAttribute{
					{Name: "비타민 A", Status: models.NutrientLow, Value: 36},
					{Name: "비타민 C", Status: models.NutrientGood, Value: 76},
				},
				Improvements:   []nutrition.Improvement{{Nutrient: "비타민 A", Current: 36, Improved: 51}},
				Recommendation: fixture.Recommendation{Supplements: []string{"종합비타민"}, Foods: []string{"연어", "케일"}},
				Subscription:   fixture.Subscription{Status: "active", Months: 6, Recent: []string{"오메가-3 캡슐"}},
				Conditions:     []string{"치매", "당뇨"},
				Restrictions:   []fixture.Restriction{{Nutrient: "당류", Reason: "혈당 관리"}},
				Similar:        []string{"최영자"},
				Prediction: &models.NutritionBatchItem{
					ResidentID: "r-101",
					Prediction: models.NutritionSimResponse{
						Source: models.SourceRuleBased,
						Results: map[string]models.NutritionResult{
							"albumin": {
								Parameter:      "albumin",
								CurrentValue:   ptr(3.1),
								ExpectedValue:  ptr(3.4),
								ExpectedChange: ptr(0.3),
								Interpretation: "단백질 보충으로 개선 예상",
								Warnings:       []string{"신장 기능 확인"},
							},
						},
					},
				},
			},
			"r-117": {
				Resident:     seo,
				Subscription: fixture.Subscription{Status: "none"},
			},
		},
	}
}

func TestProfileView_ListAndSearch(t *testing.T) {
	src := newStub()
	view := NewProfileView(src)

	if out := view.Render(120); !strings.Contains(out, "Loading...") {
		t.Error("expected loading state before first load")
	}

	if err := load(view); err != nil {
		t.Fatalf("load: %v", err)
	}
	out := view.Render(120)
	for _, want := range []string{"NUTRITION PROFILES", "김영희", "박철수", "서영란"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in list", want)
		}
	}

	view.StartSearch()
	if !view.Searching() {
		t.Fatal("expected search focus")
	}
	for _, k := range []string{"영"} {
		if !view.HandleSearchKey(k) {
			t.Errorf("expected %q to change the term", k)
		}
	}
	if view.HandleSearchKey("tab") {
		t.Error("tab should not change the term")
	}
	view.StopSearch()
	_ = load(view)

	if src.lastTerm != "영" {
		t.Errorf("expected search term passed through, got %q", src.lastTerm)
	}
	out = view.Render(120)
	if strings.Contains(out, "박철수") {
		t.Error("expected 박철수 filtered out")
	}

	view.SetSearch("없는이름")
	_ = load(view)
	if out := view.Render(120); !strings.Contains(out, "No residents found.") {
		t.Errorf("expected empty state, got %q", out)
	}
}

func TestProfileView_OpenProfile(t *testing.T) {
	view := NewProfileView(newStub())
	_ = load(view)

	if err := openID(view, view.SelectedID()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.Profile() == nil || view.Profile().Resident.ID != "r-101" {
		t.Fatalf("expected r-101 profile, got %+v", view.Profile())
	}

	out := view.Render(120)
	for _, want := range []string{
		"NUTRITION PROFILE", "김영희", "201호", "87세",
		"비타민 A", "LOW", "EXPECTED AFTER SUPPLEMENTATION", " 51",
		"종합비타민", "연어, 케일",
		"active", "(6 months)", "오메가-3 캡슐",
		"치매", "당류", "혈당 관리",
		"최영자",
		"SIMULATION (rule-based)", "3.1 → 3.4", "(+0.3)", "단백질 보충으로 개선 예상", "! 신장 기능 확인",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in profile", want)
		}
	}
	if strings.Contains(out, NoRestrictionsTitle) {
		t.Error("placeholder shown despite restrictions")
	}

	view.Close()
	if view.Profile() != nil {
		t.Error("expected Close to return to the list")
	}
}

func TestProfileView_NoRestrictionsPlaceholder(t *testing.T) {
	view := NewProfileView(newStub())
	if err := openID(view, "r-117"); err != nil {
		t.Fatalf("open: %v", err)
	}

	out := view.Render(120)
	if !strings.Contains(out, NoRestrictionsTitle) || !strings.Contains(out, NoRestrictionsBody) {
		t.Errorf("expected restrictions placeholder, got %q", out)
	}
	if !strings.Contains(out, "(none recorded)") {
		t.Error("expected empty conditions placeholder")
	}
	if strings.Contains(out, "SIMULATION") || strings.Contains(out, "SIMILAR RESIDENTS") {
		t.Error("expected no simulation or similar sections")
	}
}

func TestProfileView_OpenUnknown(t *testing.T) {
	view := NewProfileView(newStub())
	if err := openID(view, "r-999"); err == nil {
		t.Fatal("expected error")
	}
	if out := view.Render(120); !strings.Contains(out, "r-999 not found") {
		t.Errorf("expected error in output, got %q", out)
	}
}

func TestBar(t *testing.T) {
	if got := bar(50, 10); got != "█████░░░░░" {
		t.Errorf("bar(50, 10) = %q", got)
	}
	if got := bar(150, 4); got != "████" {
		t.Errorf("bar(150, 4) = %q", got)
	}
}

func TestProfileView_SelectedID(t *testing.T) {
	view := NewProfileView(newStub())
	if id := view.SelectedID(); id != "" {
		t.Errorf("SelectedID() before load = %q, want empty", id)
	}

	residents, err := view.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if view.SelectedID() != "" {
		t.Error("Fetch must not apply rows")
	}

	view.SetResidents(residents, nil)
	view.MoveDown()
	if id := view.SelectedID(); id != "r-102" {
		t.Errorf("SelectedID() = %q, want r-102", id)
	}
}
