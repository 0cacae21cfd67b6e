package modelserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/careboard/careboard/internal/models"
)

// FieldError locates one invalid request field.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationError is the 422 response body.
type ValidationError struct {
	Detail []FieldError `json:"detail"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Detail))
	for _, d := range e.Detail {
		path := make([]string, len(d.Loc))
		for i, l := range d.Loc {
			path[i] = fmt.Sprint(l)
		}
		parts = append(parts, strings.Join(path, ".")+": "+d.Msg)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func at(loc []any, more ...any) []any {
	out := make([]any, 0, len(loc)+len(more))
	out = append(out, loc...)
	return append(out, more...)
}

func missing(loc []any) FieldError {
	return FieldError{Loc: loc, Msg: "field required", Type: "value_error.missing"}
}

func invalid(loc []any, msg string) FieldError {
	return FieldError{Loc: loc, Msg: msg, Type: "value_error"}
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// object decodes raw into a key set, reporting a non-object as invalid.
func object(raw json.RawMessage, loc []any) (map[string]json.RawMessage, []FieldError) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, []FieldError{invalid(loc, "value is not a valid object")}
	}
	return fields, nil
}

// decodeImmuneRequest validates one immune prediction request.
func decodeImmuneRequest(raw json.RawMessage, loc []any) (models.ImmunePredictRequest, []FieldError) {
	var req models.ImmunePredictRequest

	fields, errs := object(raw, loc)
	if errs != nil {
		return req, errs
	}

	if id, ok := fields["resident_id"]; ok && !isNull(id) {
		if err := json.Unmarshal(id, &req.ResidentID); err != nil {
			errs = append(errs, invalid(at(loc, "resident_id"), "str type expected"))
		}
	}

	featuresRaw, ok := fields["features"]
	if !ok || isNull(featuresRaw) {
		return req, append(errs, missing(at(loc, "features")))
	}
	features, ferrs := decodeImmuneFeatures(featuresRaw, at(loc, "features"))
	req.Features = features
	return req, append(errs, ferrs...)
}

func decodeImmuneFeatures(raw json.RawMessage, loc []any) (models.ImmuneFeatures, []FieldError) {
	f := models.DefaultImmuneFeatures()

	fields, errs := object(raw, loc)
	if errs != nil {
		return f, errs
	}
	if _, ok := fields["age"]; !ok {
		errs = append(errs, missing(at(loc, "age")))
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, append(errs, invalid(loc, err.Error()))
	}

	if f.Age < 0 || f.Age > 120 {
		errs = append(errs, invalid(at(loc, "age"), "ensure this value is between 0 and 120"))
	}
	switch f.Gender {
	case "M", "F", "남", "여":
	default:
		errs = append(errs, invalid(at(loc, "gender"), "unexpected value; permitted: 'M', 'F', '남', '여'"))
	}

	flags := map[string]int{
		"dementia_yn":      f.DementiaYN,
		"parkinson_yn":     f.ParkinsonYN,
		"chf_yn":           f.CHFYN,
		"ckd_yn":           f.CKDYN,
		"copd_yn":          f.COPDYN,
		"cancer_yn":        f.CancerYN,
		"steroid_yn":       f.SteroidYN,
		"immunosup_yn":     f.ImmunosupYN,
		"antipsychotic_yn": f.AntipsychoticYN,
	}
	for _, name := range slices.Sorted(maps.Keys(flags)) {
		if v := flags[name]; v != 0 && v != 1 {
			errs = append(errs, invalid(at(loc, name), "ensure this value is 0 or 1"))
		}
	}

	multipliers := map[string]float64{
		"temp_rr":     f.TempRR,
		"season_rr":   f.SeasonRR,
		"hum_rr":      f.HumRR,
		"outbreak_rr": f.OutbreakRR,
		"room_rr":     f.RoomRR,
		"epi_rr":      f.EpiRR,
	}
	for _, name := range slices.Sorted(maps.Keys(multipliers)) {
		if v := multipliers[name]; v <= 0 || v > 3 {
			errs = append(errs, invalid(at(loc, name), "ensure this value is greater than 0 and at most 3"))
		}
	}
	return f, errs
}

// decodeNutritionRequest validates a simulation request. Absent
// duration_weeks defaults to 4.
func decodeNutritionRequest(raw json.RawMessage) (models.NutritionSimRequest, []FieldError) {
	req := models.NutritionSimRequest{
		Patient:      models.NutritionPatient{Sex: "F"},
		Intervention: models.NutritionIntervention{DurationWeeks: 4},
	}
	loc := []any{"body"}

	fields, errs := object(raw, loc)
	if errs != nil {
		return req, errs
	}

	patientRaw, ok := fields["patient"]
	if !ok || isNull(patientRaw) {
		errs = append(errs, missing(at(loc, "patient")))
	} else {
		errs = append(errs, decodePatient(patientRaw, &req.Patient, at(loc, "patient"))...)
	}

	ivRaw, ok := fields["intervention"]
	if !ok || isNull(ivRaw) {
		errs = append(errs, missing(at(loc, "intervention")))
	} else {
		ivLoc := at(loc, "intervention")
		if _, oerrs := object(ivRaw, ivLoc); oerrs != nil {
			errs = append(errs, oerrs...)
		} else if err := json.Unmarshal(ivRaw, &req.Intervention); err != nil {
			errs = append(errs, invalid(ivLoc, err.Error()))
		} else if w := req.Intervention.DurationWeeks; w < 1 || w > 52 {
			errs = append(errs, invalid(at(ivLoc, "duration_weeks"), "ensure this value is between 1 and 52"))
		}
	}
	return req, errs
}

func decodePatient(raw json.RawMessage, p *models.NutritionPatient, loc []any) []FieldError {
	fields, errs := object(raw, loc)
	if errs != nil {
		return errs
	}
	if _, ok := fields["age"]; !ok {
		errs = append(errs, missing(at(loc, "age")))
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return append(errs, invalid(loc, err.Error()))
	}

	if p.Age < 0 || p.Age > 120 {
		errs = append(errs, invalid(at(loc, "age"), "ensure this value is between 0 and 120"))
	}
	if p.Sex != "M" && p.Sex != "F" {
		errs = append(errs, invalid(at(loc, "sex"), "unexpected value; permitted: 'M', 'F'"))
	}
	if p.CKDStage < 0 || p.CKDStage > 5 {
		errs = append(errs, invalid(at(loc, "ckd_stage"), "ensure this value is between 0 and 5"))
	}
	return errs
}
