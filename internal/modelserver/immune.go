// Package modelserver serves the immune-risk and nutrition-simulation
// endpoints the inference pipeline calls.
package modelserver

import (
	"math"

	"github.com/careboard/careboard/internal/models"
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ImmunePredictor scores infection vulnerability with the fallback
// probability formula.
type ImmunePredictor struct{}

// BaseFeatures maps the request onto the model's upper-case feature names.
func BaseFeatures(f models.ImmuneFeatures) map[string]float64 {
	return map[string]float64{
		"AGE":              f.Age,
		"GENDER":           b2f(f.Gender == "M" || f.Gender == "남"),
		"DEMENTIA_YN":      float64(f.DementiaYN),
		"PARKINSON_YN":     float64(f.ParkinsonYN),
		"CHF_YN":           float64(f.CHFYN),
		"CKD_YN":           float64(f.CKDYN),
		"COPD_YN":          float64(f.COPDYN),
		"CANCER_YN":        float64(f.CancerYN),
		"STEROID_YN":       float64(f.SteroidYN),
		"IMMUNOSUP_YN":     float64(f.ImmunosupYN),
		"ANTIPSYCHOTIC_YN": float64(f.AntipsychoticYN),
	}
}

// DeriveFeatures adds the frailty, burden and age interaction features.
func DeriveFeatures(base map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+7)
	for k, v := range base {
		out[k] = v
	}

	age := base["AGE"]
	frailty := b2f(age >= 75 && (base["DEMENTIA_YN"] == 1 || base["PARKINSON_YN"] == 1))
	severe := b2f(base["CANCER_YN"] == 1 && (base["STEROID_YN"] == 1 || base["IMMUNOSUP_YN"] == 1))
	burden := base["CHF_YN"] + base["CKD_YN"] + base["COPD_YN"] + base["CANCER_YN"]

	var ageBin float64
	switch {
	case age < 65:
		ageBin = 0
	case age < 75:
		ageBin = 1
	case age < 85:
		ageBin = 2
	default:
		ageBin = 3
	}

	out["FRAILTY_INDEX"] = frailty
	out["SEVERE_IMMUNE_LOW"] = severe
	out["DISEASE_BURDEN"] = burden
	out["AGE_BIN"] = ageBin
	out["AGE_SQ"] = age * age
	out["AGE_x_DISEASE"] = age * burden
	out["AGE_x_FRAILTY"] = age * frailty
	return out
}

// EnvironmentRR is the geometric mean of the six multipliers, clamped to
// [0.5, 2.5].
func EnvironmentRR(f models.ImmuneFeatures) float64 {
	mults := f.Multipliers()
	product := 1.0
	for _, m := range mults {
		product *= m
	}
	return clamp(math.Pow(product, 1/float64(len(mults))), 0.5, 2.5)
}

// FallbackProbability estimates infection risk from the derived features,
// clamped to [0.05, 0.95].
func FallbackProbability(row map[string]float64) float64 {
	risk := 0.12 +
		math.Max(row["AGE"]-65, 0)*0.007 +
		row["DISEASE_BURDEN"]*0.08 +
		row["FRAILTY_INDEX"]*0.06 +
		row["SEVERE_IMMUNE_LOW"]*0.08 +
		row["STEROID_YN"]*0.04 +
		row["IMMUNOSUP_YN"]*0.06 +
		row["ANTIPSYCHOTIC_YN"]*0.02
	return clamp(risk, 0.05, 0.95)
}

// Predict scores one resident.
func (ImmunePredictor) Predict(residentID string, f models.ImmuneFeatures) models.ImmunePredictResult {
	full := DeriveFeatures(BaseFeatures(f))
	envRR := EnvironmentRR(f)

	p := clamp(FallbackProbability(full), 0, 1)
	immunity := clamp((1-p)*100, 0, 100)
	divs := clamp(immunity/envRR, 0, 100)

	full["ENV_RR"] = envRR

	return models.ImmunePredictResult{
		ResidentID:      residentID,
		Source:          models.SourceFallback,
		RiskProbability: roundTo(p, 4),
		ImmunityScore:   roundTo(immunity, 2),
		DivsScore:       roundTo(divs, 2),
		RiskLevel:       models.RiskLevelFromScore(divs),
		UsedFeatures:    full,
	}
}
