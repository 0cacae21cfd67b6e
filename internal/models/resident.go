// Package models defines the domain models for CareBoard.
package models

import (
	"fmt"
	"strings"
)

// Gender is recorded the way the facility registry shows it.
type Gender string

const (
	GenderMale   Gender = "남"
	GenderFemale Gender = "여"
)

// Valid returns true if the gender is a valid value.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Code returns the model backend's gender code (M or F).
func (g Gender) Code() string {
	if g == GenderMale {
		return "M"
	}
	return "F"
}

// RiskLevel buckets a resident's immunity score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists every level from most to least severe.
var RiskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskModerate, RiskLow}

// Valid returns true if the risk level is known.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh, RiskCritical:
		return true
	default:
		return false
	}
}

// String returns the display label for the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskCritical:
		return "Critical"
	case RiskHigh:
		return "High"
	case RiskModerate:
		return "Moderate"
	case RiskLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// RiskLevelFromScore buckets an immunity score in [0, 100].
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score < 30:
		return RiskCritical
	case score < 50:
		return RiskHigh
	case score < 70:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Resident is a person living in the facility.
type Resident struct {
	ID     string    `json:"id" toml:"id"`
	Name   string    `json:"name" toml:"name"`
	Room   string    `json:"room" toml:"room"`
	Age    int       `json:"age" toml:"age"`
	Gender Gender    `json:"gender" toml:"gender"`
	Risk   RiskLevel `json:"risk" toml:"risk"`
	Score  float64   `json:"score" toml:"score"`
}

// Validate checks if the resident data is valid.
func (r *Resident) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.Age < 0 || r.Age > 130 {
		return fmt.Errorf("age must be between 0 and 130")
	}
	if !r.Gender.Valid() {
		return fmt.Errorf("invalid gender: %s", r.Gender)
	}
	if !r.Risk.Valid() {
		return fmt.Errorf("invalid risk: %s", r.Risk)
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score must be between 0 and 100")
	}
	return nil
}
