package modelserver

import (
	"fmt"
	"math"
	"strconv"

	"github.com/careboard/careboard/internal/models"
)

// EmptyPlanWarning is returned when no intervention produced a result.
const EmptyPlanWarning = "중재 계획 값이 없어 시뮬레이션 결과가 비어 있습니다."

// NutritionPredictor projects supplement effects from guideline rules.
type NutritionPredictor struct {
	registry *Registry
}

// NewNutritionPredictor creates a predictor reading guidelines from registry.
func NewNutritionPredictor(registry *Registry) *NutritionPredictor {
	return &NutritionPredictor{registry: registry}
}

func ptr(v float64) *float64 { return &v }

// doseText formats a dose the way it was entered: whole numbers keep one
// decimal place ("100.0").
func doseText(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func limitText(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func positive(v *float64) bool {
	return v != nil && *v != 0
}

func newResult(parameter, interpretation string) models.NutritionResult {
	return models.NutritionResult{
		Parameter:                 parameter,
		Interpretation:            interpretation,
		Warnings:                  []string{},
		Contraindications:         []string{},
		MonitoringRecommendations: []string{},
		ModelType:                 "rule-based",
	}
}

// Simulate runs every rule whose dose is set and non-zero.
func (n *NutritionPredictor) Simulate(p models.NutritionPatient, iv models.NutritionIntervention) models.NutritionSimResponse {
	gl := n.registry.Guidelines()
	results := make(map[string]models.NutritionResult)
	weeks := float64(iv.DurationWeeks)

	if positive(iv.IronMG) {
		results["hemoglobin"] = simulateIron(gl.Iron, p, *iv.IronMG, iv.DurationWeeks)
	}

	if positive(iv.VitaminDIU) {
		dose := *iv.VitaminDIU
		increase := dose / 1000 * gl.VitaminD.IncreasePer1000IU * math.Min(weeks/12, 1)
		r := newResult("Vitamin D", fmt.Sprintf("비타민 D %s IU/day, %d주 → +%.1f ng/mL", doseText(dose), iv.DurationWeeks, increase))
		r.CurrentValue = p.VitaminD
		if p.VitaminD != nil {
			r.ExpectedValue = ptr(*p.VitaminD + increase)
		}
		r.ExpectedChange = ptr(increase)
		if dose > gl.VitaminD.UpperLimitIU {
			r.Warnings = append(r.Warnings, fmt.Sprintf("UL 초과: %s > %s IU/day", doseText(dose), limitText(gl.VitaminD.UpperLimitIU)))
		}
		r.MonitoringRecommendations = []string{"3개월 후 25(OH)D", "칼슘 모니터링"}
		results["vitamin_d"] = r
	}

	if positive(iv.CalciumMG) {
		baseline := 0.10
		if p.FractureRiskHigh {
			baseline = 0.20
		}
		vitDOK := iv.VitaminDIU != nil && *iv.VitaminDIU >= 800
		reduction := 0.0
		interp := fmt.Sprintf("칼슘 %smg (VitD 병용 권장)", doseText(*iv.CalciumMG))
		if vitDOK {
			reduction = gl.Calcium.FractureRiskReduction
			interp = fmt.Sprintf("칼슘 %smg + VitD %s IU → 골절 위험 -15%%", doseText(*iv.CalciumMG), doseText(*iv.VitaminDIU))
		}
		expected := baseline * (1 - reduction)
		r := newResult("Fracture Risk", interp)
		r.CurrentValue = ptr(baseline)
		r.ExpectedValue = ptr(expected)
		r.ExpectedChange = ptr(-(baseline - expected))
		r.MonitoringRecommendations = []string{"DEXA 골밀도", "낙상 위험 평가"}
		results["fracture_risk"] = r
	}

	if positive(iv.Omega3G) {
		baseline := 0.10
		if p.Age >= 70 {
			baseline = 0.15
		}
		dose := *iv.Omega3G
		reduction := 0.0
		interp := fmt.Sprintf("오메가-3 %sg/day (1.0g 이상 권장)", doseText(dose))
		if dose >= 1 {
			reduction = gl.Omega3.CVDRiskReduction
			interp = fmt.Sprintf("오메가-3 %sg/day → CVD 위험 -8%%", doseText(dose))
		}
		expected := baseline * (1 - reduction)
		r := newResult("CVD Risk", interp)
		r.CurrentValue = ptr(baseline)
		r.ExpectedValue = ptr(expected)
		r.ExpectedChange = ptr(-(baseline - expected))
		r.MonitoringRecommendations = []string{"지질 프로필", "출혈 경향 (항응고제 복용 시)"}
		results["cvd_risk"] = r
	}

	if positive(iv.VitaminCMG) {
		results["vitamin_c"] = simulateVitaminC(gl.VitaminC, p, *iv.VitaminCMG)
	}

	resp := models.NutritionSimResponse{
		Source:   models.SourceRuleBased,
		Results:  results,
		Warnings: []string{},
	}
	if len(results) == 0 {
		resp.Warnings = append(resp.Warnings, EmptyPlanWarning)
	}
	return resp
}

func simulateIron(gl IronGuideline, p models.NutritionPatient, dose float64, weeks int) models.NutritionResult {
	factor := 1.0
	var warnings []string
	if p.CKDStage >= 3 {
		factor *= gl.CKDAbsorptionFactor
		warnings = append(warnings, "CKD: 흡수율 ↓30%")
	}
	if p.ChronicInflammation || (p.CRP != nil && *p.CRP > 5) {
		factor *= gl.InflammationFactor
		warnings = append(warnings, "염증: 효과 감소")
	}

	change := gl.BaselineHgbIncrease * factor * (dose / 100) * (float64(weeks) / 4)
	r := newResult("Hemoglobin", fmt.Sprintf("철분 %smg/day, %d주 → Hgb +%.1f g/dL", doseText(dose), weeks, change))
	r.CurrentValue = p.Hemoglobin
	if p.Hemoglobin != nil {
		r.ExpectedValue = ptr(*p.Hemoglobin + change)
	}
	r.ExpectedChange = ptr(change)
	if warnings != nil {
		r.Warnings = warnings
	}
	r.MonitoringRecommendations = []string{"4주 후 CBC", "Ferritin/TSAT 추적"}
	return r
}

func simulateVitaminC(gl VitaminCGuideline, p models.NutritionPatient, dose float64) models.NutritionResult {
	d := doseText(dose)
	var interp string
	var warnings, contraindications, monitoring []string

	switch {
	case dose < gl.RNI:
		interp = d + "mg/day - 권장섭취량 미달 (결핍 위험)"
	case dose < gl.OptimalRange[0]:
		interp = d + "mg/day - 권장섭취량 충족"
	case dose <= gl.OptimalRange[1]:
		interp = d + "mg/day - 최적 범위 (항산화, 면역 지원)"
	case dose <= gl.UpperLimit:
		interp = d + "mg/day - 고용량이나 안전 범위"
		warnings = append(warnings, "1000mg↑ 시 분할 복용 권장")
	default:
		interp = d + "mg/day - UL 초과 (설사, 위장 불편)"
		warnings = append(warnings, fmt.Sprintf("UL %smg 초과", limitText(gl.UpperLimit)))
	}

	if p.Smoker && dose < 150 {
		warnings = append(warnings, "흡연자 → +50-100mg 권장 (150-200mg/day)")
	}
	if p.ImmuneCompromised && dose < 200 {
		warnings = append(warnings, "면역저하 → 200-500mg/day 권장")
	}
	if p.IsMale() && dose >= gl.KidneyStoneThresholdMale {
		if p.KidneyStoneHistory {
			contraindications = append(contraindications, "신결석 병력 남성: ≥1000mg 금기 (위험 2배↑)")
		} else {
			warnings = append(warnings, "남성 ≥1000mg: 신결석 위험↑")
		}
	}
	if p.Hemochromatosis {
		contraindications = append(contraindications, "혈색소침착증: VitC가 철분 흡수↑")
	}
	if p.Ferritin != nil && *p.Ferritin < 30 {
		monitoring = append(monitoring, "철결핍 빈혈: VitC+철분 병용 시 흡수 67%↑")
	}

	r := newResult("Vitamin C Status", interp)
	if warnings != nil {
		r.Warnings = warnings
	}
	if contraindications != nil {
		r.Contraindications = contraindications
	}
	if monitoring != nil {
		r.MonitoringRecommendations = monitoring
	}
	return r
}
