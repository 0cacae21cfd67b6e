package seed

import (
	"context"
	"testing"

	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/testutil"
)

func TestResidents(t *testing.T) {
	residents, err := Residents()
	if err != nil {
		t.Fatalf("parsing bundled roster: %v", err)
	}
	if len(residents) != 20 {
		t.Fatalf("expected 20 residents, got %d", len(residents))
	}

	first := residents[0]
	if first.ID != "r-101" || first.Name != "김영희" || first.Risk != models.RiskCritical || first.Score != 18.2 {
		t.Errorf("unexpected first resident: %+v", first)
	}
}

func TestParseRoster_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad toml":     `[[residents]`,
		"bad gender":   "[[residents]]\nid=\"a\"\nname=\"x\"\nage=80\ngender=\"M\"\nrisk=\"low\"\nscore=80\n",
		"duplicate id": "[[residents]]\nid=\"a\"\nname=\"x\"\nage=80\ngender=\"남\"\nrisk=\"low\"\nscore=80\n[[residents]]\nid=\"a\"\nname=\"y\"\nage=81\ngender=\"여\"\nrisk=\"low\"\nscore=80\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRoster([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	g, err := NewGenerator(db.DB, nil)
	if err != nil {
		t.Fatalf("creating generator: %v", err)
	}

	n, err := g.Generate(ctx)
	if err != nil {
		t.Fatalf("generating: %v", err)
	}
	if n != 20 {
		t.Errorf("expected 20 inserted, got %d", n)
	}
	testutil.AssertRowCount(t, db, "residents", 20)

	n, err = g.Generate(ctx)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if n != 0 {
		t.Errorf("expected second run to skip, inserted %d", n)
	}
	testutil.AssertRowCount(t, db, "residents", 20)
}
