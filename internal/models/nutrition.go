package models

// NutritionPatient describes the resident a nutrition plan is simulated for.
// Lab values are pointers: nil means "not measured", which the backend
// treats differently from zero.
type NutritionPatient struct {
	Age int    `json:"age"`
	Sex string `json:"sex"`

	Hemoglobin  *float64 `json:"hemoglobin,omitempty"`
	Ferritin    *float64 `json:"ferritin,omitempty"`
	TSAT        *float64 `json:"tsat,omitempty"`
	Albumin     *float64 `json:"albumin,omitempty"`
	VitaminD    *float64 `json:"vitamin_d,omitempty"`
	Calcium     *float64 `json:"calcium,omitempty"`
	CRP         *float64 `json:"crp,omitempty"`
	BUN         *float64 `json:"bun,omitempty"`
	Creatinine  *float64 `json:"creatinine,omitempty"`
	Glucose     *float64 `json:"glucose,omitempty"`
	Sodium      *float64 `json:"sodium,omitempty"`
	Potassium   *float64 `json:"potassium,omitempty"`
	Chloride    *float64 `json:"chloride,omitempty"`
	Bicarbonate *float64 `json:"bicarbonate,omitempty"`
	WBC         *float64 `json:"wbc,omitempty"`
	Platelet    *float64 `json:"platelet,omitempty"`

	CKDStage int `json:"ckd_stage"`

	Smoker              bool `json:"smoker"`
	ImmuneCompromised   bool `json:"immune_compromised"`
	ChronicInflammation bool `json:"chronic_inflammation"`
	KidneyStoneHistory  bool `json:"kidney_stone_history"`
	Hemochromatosis     bool `json:"hemochromatosis"`
	Hypercalcemia       bool `json:"hypercalcemia"`
	FractureRiskHigh    bool `json:"fracture_risk_high"`
}

// IsMale reports whether the patient is recorded as male.
func (p NutritionPatient) IsMale() bool {
	return p.Sex == "M"
}

// NutritionIntervention is a supplement plan. Doses are optional.
type NutritionIntervention struct {
	IronMG        *float64 `json:"iron_mg,omitempty"`
	VitaminDIU    *float64 `json:"vitamin_d_iu,omitempty"`
	CalciumMG     *float64 `json:"calcium_mg,omitempty"`
	Omega3G       *float64 `json:"omega3_epa_dha_g,omitempty"`
	VitaminCMG    *float64 `json:"vitamin_c_mg,omitempty"`
	ProteinG      *float64 `json:"protein_g,omitempty"`
	DurationWeeks int      `json:"duration_weeks"`
}

// HasDose reports whether any supplement dose is set.
func (i NutritionIntervention) HasDose() bool {
	return i.IronMG != nil || i.VitaminDIU != nil || i.CalciumMG != nil ||
		i.Omega3G != nil || i.VitaminCMG != nil || i.ProteinG != nil
}

// NutritionSimRequest is the body of POST /api/nutrition/simulate.
type NutritionSimRequest struct {
	Patient      NutritionPatient      `json:"patient"`
	Intervention NutritionIntervention `json:"intervention"`
}

// NutritionResult is the projected effect on one parameter.
type NutritionResult struct {
	Parameter                 string   `json:"parameter"`
	CurrentValue              *float64 `json:"current_value"`
	ExpectedValue             *float64 `json:"expected_value"`
	ExpectedChange            *float64 `json:"expected_change"`
	Interpretation            string   `json:"interpretation"`
	Warnings                  []string `json:"warnings"`
	Contraindications         []string `json:"contraindications"`
	MonitoringRecommendations []string `json:"monitoring_recommendations"`
	ModelType                 string   `json:"model_type"`
}

// NutritionSimResponse is the backend's answer for one plan.
type NutritionSimResponse struct {
	Source   PredictionSource           `json:"source"`
	Results  map[string]NutritionResult `json:"results"`
	Warnings []string                   `json:"warnings"`
}

// NutritionBatchItem is a stored simulation paired with the row it came from.
type NutritionBatchItem struct {
	ResidentID string               `json:"resident_id"`
	Name       string               `json:"name,omitempty"`
	Room       string               `json:"room,omitempty"`
	Request    *NutritionSimRequest `json:"request,omitempty"`
	Prediction NutritionSimResponse `json:"prediction"`
}

// NutrientStatus is one nutrient's level for a resident.
type NutrientStatus string

const (
	NutrientLow  NutrientStatus = "low"
	NutrientGood NutrientStatus = "good"
)
