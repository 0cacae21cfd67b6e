package modelserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// IronGuideline tunes the hemoglobin response to iron.
type IronGuideline struct {
	BaselineHgbIncrease float64 `json:"baseline_hgb_increase"`
	CKDAbsorptionFactor float64 `json:"ckd_absorption_factor"`
	InflammationFactor  float64 `json:"inflammation_factor"`
}

// VitaminDGuideline tunes the serum 25(OH)D response.
type VitaminDGuideline struct {
	IncreasePer1000IU float64 `json:"increase_per_1000iu"`
	UpperLimitIU      float64 `json:"upper_limit_iu"`
}

// CalciumGuideline sets the fracture-risk reduction with vitamin D.
type CalciumGuideline struct {
	FractureRiskReduction float64 `json:"fracture_risk_reduction"`
}

// Omega3Guideline sets the cardiovascular risk reduction at >= 1 g/day.
type Omega3Guideline struct {
	CVDRiskReduction float64 `json:"cvd_risk_reduction"`
}

// VitaminCGuideline holds the dose bands in mg/day.
type VitaminCGuideline struct {
	RNI                      float64    `json:"rni"`
	OptimalRange             [2]float64 `json:"optimal_range"`
	UpperLimit               float64    `json:"upper_limit"`
	KidneyStoneThresholdMale float64    `json:"kidney_stone_risk_threshold_male"`
}

// Guidelines parameterises the rule-based nutrition simulation.
type Guidelines struct {
	Iron     IronGuideline     `json:"iron"`
	VitaminD VitaminDGuideline `json:"vitamin_d"`
	Calcium  CalciumGuideline  `json:"calcium"`
	Omega3   Omega3Guideline   `json:"omega3"`
	VitaminC VitaminCGuideline `json:"vitamin_c"`
}

// DefaultGuidelines returns the built-in guideline values.
func DefaultGuidelines() Guidelines {
	return Guidelines{
		Iron: IronGuideline{
			BaselineHgbIncrease: 1.0,
			CKDAbsorptionFactor: 0.7,
			InflammationFactor:  0.7,
		},
		VitaminD: VitaminDGuideline{
			IncreasePer1000IU: 7.0,
			UpperLimitIU:      4000,
		},
		Calcium: CalciumGuideline{FractureRiskReduction: 0.15},
		Omega3:  Omega3Guideline{CVDRiskReduction: 0.08},
		VitaminC: VitaminCGuideline{
			RNI:                      100,
			OptimalRange:             [2]float64{200, 500},
			UpperLimit:               2000,
			KidneyStoneThresholdMale: 1000,
		},
	}
}

// RegistryStatus is reported by the health and reload endpoints.
type RegistryStatus struct {
	Loaded map[string]bool    `json:"loaded"`
	Paths  map[string]*string `json:"paths"`
	Errors map[string]string  `json:"errors"`
}

// Registry holds the guideline set. Trained model artifacts are not
// loaded; predictions always come from the fallback formula and rules.
type Registry struct {
	mu         sync.RWMutex
	path       string
	guidelines Guidelines
	errors     map[string]string
	logger     *slog.Logger
}

// NewRegistry creates a registry reading overrides from path, which may
// be empty.
func NewRegistry(path string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{path: path, logger: logger.With("component", "registry")}
	r.Reload()
	return r
}

// Reload resets guidelines to defaults and applies the override file.
// Override errors are recorded in Status, never returned.
func (r *Registry) Reload() {
	guidelines := DefaultGuidelines()
	errs := map[string]string{
		"immune":  "immune artifact not found",
		"albumin": "albumin artifact not found",
	}

	if err := loadOverride(r.path, &guidelines); err != nil {
		errs["guidelines"] = err.Error()
		r.logger.Warn("guideline override not applied", "path", r.path, "error", err)
	}

	r.mu.Lock()
	r.guidelines = guidelines
	r.errors = errs
	r.mu.Unlock()
}

var errNoOverride = errors.New("guideline file not found; default values loaded")

func loadOverride(path string, into *Guidelines) error {
	if path == "" {
		return errNoOverride
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errNoOverride
		}
		return fmt.Errorf("reading guidelines: %w", err)
	}

	// Decode over a copy so a bad file leaves the defaults untouched.
	next := *into
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("guideline JSON must be an object: %w", err)
	}
	*into = next
	return nil
}

// Guidelines returns the current guideline set.
func (r *Registry) Guidelines() Guidelines {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.guidelines
}

// Status reports what is loaded.
func (r *Registry) Status() RegistryStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var guidelinePath *string
	if _, ok := r.errors["guidelines"]; !ok {
		p := r.path
		guidelinePath = &p
	}

	errs := make(map[string]string, len(r.errors))
	for k, v := range r.errors {
		errs[k] = v
	}
	return RegistryStatus{
		Loaded: map[string]bool{"immune_model": false, "albumin_model": false},
		Paths:  map[string]*string{"immune": nil, "albumin": nil, "guidelines": guidelinePath},
		Errors: errs,
	}
}
