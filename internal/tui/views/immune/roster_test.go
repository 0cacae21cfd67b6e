package immune

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/services/immune"
)

type stubLister struct {
	views []immune.ResidentView
	err   error
	last  immune.ListOptions
}

func (s *stubLister) List(_ context.Context, opts immune.ListOptions) ([]immune.ResidentView, error) {
	s.last = opts
	return s.views, s.err
}

// load fetches and applies the roster the way the app does across a command.
func load(v *RosterView) error {
	residents, err := v.Fetch(context.Background(), v.Options())
	v.SetResidents(residents, err)
	return err
}

func sampleViews() []immune.ResidentView {
	return []immune.ResidentView{
		{
			Resident: models.Resident{
				ID: "r-101", Name: "김영희", Room: "201호", Age: 87,
				Gender: models.GenderFemale, Risk: models.RiskCritical, Score: 18.2,
			},
			Conditions: []string{"상세불명의 치매"},
			Actions: []fixture.CareAction{
				{Level: "긴급", Title: "격리 병실 배정", Desc: "감염 노출을 줄입니다"},
			},
		},
		{
			Resident: models.Resident{
				ID: "r-110", Name: "최민수", Room: "305호", Age: 72,
				Gender: models.GenderMale, Risk: models.RiskLow, Score: 81.0,
			},
			Predicted: true,
			Source:    models.SourceFallback,
		},
	}
}

func TestRosterView_LoadingState(t *testing.T) {
	view := NewRosterView(&stubLister{})
	out := view.Render(120)

	if !strings.Contains(out, "IMMUNE RISK ROSTER") {
		t.Error("expected title in output")
	}
	if !strings.Contains(out, "Loading...") {
		t.Error("expected loading state before first load")
	}
}

func TestRosterView_EmptyRender(t *testing.T) {
	view := NewRosterView(&stubLister{})
	if err := load(view); err != nil {
		t.Fatalf("load: %v", err)
	}
	if out := view.Render(120); !strings.Contains(out, "No residents match this filter.") {
		t.Errorf("expected empty state, got %q", out)
	}
}

func TestRosterView_LoadRendersRows(t *testing.T) {
	view := NewRosterView(&stubLister{views: sampleViews()})
	if err := load(view); err != nil {
		t.Fatalf("load: %v", err)
	}

	out := view.Render(140)
	for _, want := range []string{"김영희", "201호", "18.2", "Critical", "registry", "fallback"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in roster", want)
		}
	}

	sel := view.Selected()
	if sel == nil || sel.ID != "r-101" {
		t.Fatalf("expected r-101 selected, got %+v", sel)
	}
	view.MoveDown()
	if sel := view.Selected(); sel == nil || sel.ID != "r-110" {
		t.Errorf("expected r-110 after MoveDown, got %+v", sel)
	}
}

func TestRosterView_FilterAndSort(t *testing.T) {
	lister := &stubLister{views: sampleViews()}
	view := NewRosterView(lister)

	if got := view.Options(); got.Filter != immune.FilterAll || got.Order != immune.SortAsc {
		t.Fatalf("unexpected defaults %+v", got)
	}

	view.CycleFilter()
	view.ToggleSort()
	if err := load(view); err != nil {
		t.Fatalf("load: %v", err)
	}
	if lister.last.Filter != immune.FilterCritical {
		t.Errorf("expected critical filter passed to service, got %q", lister.last.Filter)
	}
	if lister.last.Order != immune.SortDesc {
		t.Errorf("expected desc order passed to service, got %q", lister.last.Order)
	}

	out := view.Render(120)
	if !strings.Contains(out, "critical only") || !strings.Contains(out, "highest score first") {
		t.Errorf("expected filter and order labels, got %q", out)
	}
}

func TestRosterView_LoadError(t *testing.T) {
	view := NewRosterView(&stubLister{err: errors.New("registry unavailable")})
	if err := load(view); err == nil {
		t.Fatal("expected error")
	}
	if out := view.Render(120); !strings.Contains(out, "registry unavailable") {
		t.Errorf("expected error in output, got %q", out)
	}
}

func TestRosterView_RenderDetail(t *testing.T) {
	view := NewRosterView(&stubLister{views: sampleViews()})
	_ = load(view)

	out := view.RenderDetail(view.Selected(), 120)
	for _, want := range []string{"RESIDENT DETAILS", "김영희", "87 / 여", "상세불명의 치매", "CARE ACTIONS", "격리 병실 배정", "감염 노출을 줄입니다"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in detail", want)
		}
	}

	narrow := view.RenderDetail(view.Selected(), 50)
	if strings.Contains(narrow, "감염 노출을 줄입니다") {
		t.Error("narrow detail should omit action descriptions")
	}

	view.MoveDown()
	low := view.RenderDetail(view.Selected(), 120)
	if strings.Contains(low, "CARE ACTIONS") {
		t.Error("low risk resident should have no care actions")
	}
	if !strings.Contains(low, "model (fallback)") {
		t.Error("expected prediction source in detail")
	}
	if !strings.Contains(low, "(none recorded)") {
		t.Error("expected empty conditions placeholder")
	}
}

func TestRosterView_RiskCounts(t *testing.T) {
	view := NewRosterView(&stubLister{views: sampleViews()})
	_ = load(view)

	counts := view.RiskCounts()
	if counts[models.RiskCritical] != 1 || counts[models.RiskLow] != 1 || counts[models.RiskHigh] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestRosterView_FetchLeavesViewUntouched(t *testing.T) {
	view := NewRosterView(&stubLister{views: sampleViews()})

	residents, err := view.Fetch(context.Background(), view.Options())
	if err != nil || len(residents) != 2 {
		t.Fatalf("Fetch() = %d residents, %v", len(residents), err)
	}
	if view.Selected() != nil || !strings.Contains(view.Render(120), "Loading...") {
		t.Fatal("Fetch must not apply rows")
	}

	view.SetResidents(residents, nil)
	if sel := view.Selected(); sel == nil || sel.ID != "r-101" {
		t.Errorf("expected r-101 after SetResidents, got %+v", sel)
	}

	// a failed refresh keeps the last rows but shows the error
	view.SetResidents(nil, errors.New("registry unavailable"))
	if view.Selected() == nil {
		t.Error("expected previous rows kept")
	}
	if !strings.Contains(view.Render(120), "registry unavailable") {
		t.Error("expected error shown")
	}
}
