package modeling

import (
	"math"

	"github.com/careboard/careboard/internal/models"
)

var (
	// ImmuneRequiredHeaders must be present in an immune upload.
	ImmuneRequiredHeaders = []string{"age", "gender"}

	// NutritionRequiredHeaders must be present in a nutrition upload.
	NutritionRequiredHeaders = []string{"age", "sex"}

	// InterventionColumns are the dose columns; a nutrition row needs one.
	InterventionColumns = []string{"iron_mg", "vitamin_d_iu", "calcium_mg", "omega3_epa_dha_g", "vitamin_c_mg", "protein_g"}
)

// BuildImmuneRequest converts one CSV row into a prediction request.
// Absent columns take the defaults of models.DefaultImmuneFeatures.
func BuildImmuneRequest(row Row, index int) models.ImmunePredictRequest {
	d := models.DefaultImmuneFeatures()
	return models.ImmunePredictRequest{
		ResidentID: ResolveResidentID(row, index),
		Features: models.ImmuneFeatures{
			Age:    ToFloat(row.Get("age"), d.Age),
			Gender: NormalizeSex(row.Get("gender")),

			DementiaYN:      ToIntFlag(row.Get("dementia_yn"), 0),
			ParkinsonYN:     ToIntFlag(row.Get("parkinson_yn"), 0),
			CHFYN:           ToIntFlag(row.Get("chf_yn"), 0),
			CKDYN:           ToIntFlag(row.Get("ckd_yn"), 0),
			COPDYN:          ToIntFlag(row.Get("copd_yn"), 0),
			CancerYN:        ToIntFlag(row.Get("cancer_yn"), 0),
			SteroidYN:       ToIntFlag(row.Get("steroid_yn"), 0),
			ImmunosupYN:     ToIntFlag(row.Get("immunosup_yn"), 0),
			AntipsychoticYN: ToIntFlag(row.Get("antipsychotic_yn"), 0),

			TempRR:     ToFloat(row.Get("temp_rr"), d.TempRR),
			SeasonRR:   ToFloat(row.Get("season_rr"), d.SeasonRR),
			HumRR:      ToFloat(row.Get("hum_rr"), d.HumRR),
			OutbreakRR: ToFloat(row.Get("outbreak_rr"), d.OutbreakRR),
			RoomRR:     ToFloat(row.Get("room_rr"), d.RoomRR),
			EpiRR:      ToFloat(row.Get("epi_rr"), d.EpiRR),
		},
	}
}

// BuildNutritionPatient converts one CSV row into the patient profile.
func BuildNutritionPatient(row Row) models.NutritionPatient {
	return models.NutritionPatient{
		Age: int(math.Max(0, roundHalfUp(ToFloat(row.Get("age"), 75)))),
		Sex: NormalizeSex(row.Get("sex")),

		Hemoglobin:  ToOptionalFloat(row.Get("hemoglobin")),
		Ferritin:    ToOptionalFloat(row.Get("ferritin")),
		TSAT:        ToOptionalFloat(row.Get("tsat")),
		Albumin:     ToOptionalFloat(row.Get("albumin")),
		VitaminD:    ToOptionalFloat(row.Get("vitamin_d")),
		Calcium:     ToOptionalFloat(row.Get("calcium")),
		CRP:         ToOptionalFloat(row.Get("crp")),
		BUN:         ToOptionalFloat(row.Get("bun")),
		Creatinine:  ToOptionalFloat(row.Get("creatinine")),
		Glucose:     ToOptionalFloat(row.Get("glucose")),
		Sodium:      ToOptionalFloat(row.Get("sodium")),
		Potassium:   ToOptionalFloat(row.Get("potassium")),
		Chloride:    ToOptionalFloat(row.Get("chloride")),
		Bicarbonate: ToOptionalFloat(row.Get("bicarbonate")),
		WBC:         ToOptionalFloat(row.Get("wbc")),
		Platelet:    ToOptionalFloat(row.Get("platelet")),

		CKDStage: int(math.Max(0, roundHalfUp(ToFloat(row.Get("ckd_stage"), 0)))),

		Smoker:              ToBool(row.Get("smoker"), false),
		ImmuneCompromised:   ToBool(row.Get("immune_compromised"), false),
		ChronicInflammation: ToBool(row.Get("chronic_inflammation"), false),
		KidneyStoneHistory:  ToBool(row.Get("kidney_stone_history"), false),
		Hemochromatosis:     ToBool(row.Get("hemochromatosis"), false),
		Hypercalcemia:       ToBool(row.Get("hypercalcemia"), false),
		FractureRiskHigh:    ToBool(row.Get("fracture_risk_high"), false),
	}
}

// BuildNutritionIntervention converts one CSV row into the supplement plan.
// Duration defaults to 4 weeks and is never below 1.
func BuildNutritionIntervention(row Row) models.NutritionIntervention {
	weeks := 4
	if c := row.Get("duration_weeks"); !c.Blank() {
		weeks = int(math.Max(1, roundHalfUp(ToFloat(c, 4))))
	}

	return models.NutritionIntervention{
		IronMG:        ToOptionalFloat(row.Get("iron_mg")),
		VitaminDIU:    ToOptionalFloat(row.Get("vitamin_d_iu")),
		CalciumMG:     ToOptionalFloat(row.Get("calcium_mg")),
		Omega3G:       ToOptionalFloat(row.Get("omega3_epa_dha_g")),
		VitaminCMG:    ToOptionalFloat(row.Get("vitamin_c_mg")),
		ProteinG:      ToOptionalFloat(row.Get("protein_g")),
		DurationWeeks: weeks,
	}
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
