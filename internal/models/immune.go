package models

// ImmuneFeatures is the feature vector the immune-risk model consumes.
// Flags are 0/1; the *RR fields are environmental relative-risk multipliers.
type ImmuneFeatures struct {
	Age    float64 `json:"age"`
	Gender string  `json:"gender"`

	DementiaYN      int `json:"dementia_yn"`
	ParkinsonYN     int `json:"parkinson_yn"`
	CHFYN           int `json:"chf_yn"`
	CKDYN           int `json:"ckd_yn"`
	COPDYN          int `json:"copd_yn"`
	CancerYN        int `json:"cancer_yn"`
	SteroidYN       int `json:"steroid_yn"`
	ImmunosupYN     int `json:"immunosup_yn"`
	AntipsychoticYN int `json:"antipsychotic_yn"`

	TempRR     float64 `json:"temp_rr"`
	SeasonRR   float64 `json:"season_rr"`
	HumRR      float64 `json:"hum_rr"`
	OutbreakRR float64 `json:"outbreak_rr"`
	RoomRR     float64 `json:"room_rr"`
	EpiRR      float64 `json:"epi_rr"`
}

// DefaultImmuneFeatures returns the values used for absent columns.
func DefaultImmuneFeatures() ImmuneFeatures {
	return ImmuneFeatures{
		Age:        75,
		Gender:     "F",
		TempRR:     1,
		SeasonRR:   1,
		HumRR:      1,
		OutbreakRR: 1,
		RoomRR:     1,
		EpiRR:      1,
	}
}

// Multipliers returns the six environmental multipliers in a fixed order.
func (f ImmuneFeatures) Multipliers() []float64 {
	return []float64{f.TempRR, f.SeasonRR, f.HumRR, f.OutbreakRR, f.RoomRR, f.EpiRR}
}

// ImmunePredictRequest is one entry in a batch prediction request.
type ImmunePredictRequest struct {
	ResidentID string         `json:"resident_id,omitempty"`
	Features   ImmuneFeatures `json:"features"`
}

// ImmuneBatchRequest is the body of POST /api/immune/predict/batch.
type ImmuneBatchRequest struct {
	Items []ImmunePredictRequest `json:"items"`
}

// PredictionSource names what produced a prediction.
type PredictionSource string

const (
	SourceModel     PredictionSource = "model"
	SourceFallback  PredictionSource = "fallback"
	SourceRuleBased PredictionSource = "rule-based"
	SourceMLRule    PredictionSource = "ml+rule"
)

// ImmunePredictResult is the model's answer for one resident.
type ImmunePredictResult struct {
	ResidentID      string             `json:"resident_id,omitempty"`
	Source          PredictionSource   `json:"source"`
	RiskProbability float64            `json:"risk_probability"`
	ImmunityScore   float64            `json:"immunity_score"`
	DivsScore       float64            `json:"divs_score"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	UsedFeatures    map[string]float64 `json:"used_features"`
}

// ImmuneBatchItem is a stored prediction paired with the row it came from.
type ImmuneBatchItem struct {
	ResidentID string              `json:"resident_id"`
	Name       string              `json:"name,omitempty"`
	Room       string              `json:"room,omitempty"`
	Prediction ImmunePredictResult `json:"prediction"`
}
