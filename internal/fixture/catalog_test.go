package fixture

import (
	"errors"
	"testing"

	"github.com/careboard/careboard/internal/models"
)

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	if len(c.Nutrients) != 8 {
		t.Errorf("nutrients = %d, want 8", len(c.Nutrients))
	}
	if len(c.Conditions) != 22 {
		t.Errorf("conditions = %d, want 22", len(c.Conditions))
	}
	if got := c.ConditionCounts(models.RiskCritical); got != (CountRange{3, 4}) {
		t.Errorf("critical counts = %v, want {3 4}", got)
	}
	if got := c.LowNutrientCount; got != (CountRange{2, 4}) {
		t.Errorf("low nutrient count = %v, want {2 4}", got)
	}
	if len(c.CareActions) == 0 {
		t.Error("expected care actions")
	}
}

func TestCatalog_RecommendationFor(t *testing.T) {
	c := MustLoadCatalog()

	if got := c.RecommendationFor("김영희"); len(got.Supplements) != 3 {
		t.Errorf("김영희 supplements = %v", got.Supplements)
	}
	if got := c.RecommendationFor("unknown"); len(got.Foods) != 3 || got.Foods[0] != "현미" {
		t.Errorf("default foods = %v", got.Foods)
	}
}

func TestCatalog_RestrictionsFor(t *testing.T) {
	c := MustLoadCatalog()

	got := c.RestrictionsFor([]string{"심부전", "고혈압", "심부전"})
	// 심부전 and 고혈압 both restrict sodium, for different reasons.
	if len(got) != 2 {
		t.Fatalf("RestrictionsFor() = %v, want 2 entries", got)
	}
	if got[0].Reason != "체액 저류 및 심장 부담 증가" {
		t.Errorf("first restriction = %v", got[0])
	}

	got = c.RestrictionsFor([]string{"불면증", "위염"})
	if len(got) != 2 {
		t.Errorf("caffeine restrictions with different reasons should both appear, got %v", got)
	}

	if got := c.RestrictionsFor([]string{"기록 없음"}); len(got) != 0 {
		t.Errorf("unknown condition produced %v", got)
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	doc := `
nutrients = ["a", "b"]
low_nutrient_count = { min = 1, max = 5 }
conditions = ["x"]

[risk_condition_counts]
low = { min = 0, max = 1 }
`
	_, err := ParseCatalog(doc)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidCountRange) {
		t.Errorf("error = %v, want ErrInvalidCountRange", err)
	}
}

func TestCatalog_SubscriptionFor(t *testing.T) {
	c := MustLoadCatalog()

	s := c.SubscriptionFor("김정수")
	if !s.Active() || s.Months != 11 || len(s.Recent) != 2 {
		t.Errorf("김정수 subscription = %+v", s)
	}

	s = c.SubscriptionFor("최영자")
	if s.Active() || len(s.Recent) != 0 {
		t.Errorf("최영자 subscription = %+v", s)
	}

	if s := c.SubscriptionFor("nobody"); s.Active() || s.Months != 0 {
		t.Errorf("missing subscription = %+v", s)
	}
}
