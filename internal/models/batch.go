package models

import (
	"fmt"
	"time"
)

// ModelKind identifies one of the two inference models.
type ModelKind string

const (
	ModelImmune    ModelKind = "immune"
	ModelNutrition ModelKind = "nutrition"
)

// Valid returns true for a known model.
func (m ModelKind) Valid() bool {
	return m == ModelImmune || m == ModelNutrition
}

// ImmuneBatch is the persisted result of one immune CSV run.
type ImmuneBatch struct {
	UpdatedAt string            `json:"updated_at"`
	Model     ModelKind         `json:"model"`
	Count     int               `json:"count"`
	Items     []ImmuneBatchItem `json:"items"`
}

// NewImmuneBatch stamps items with the given time.
func NewImmuneBatch(items []ImmuneBatchItem, at time.Time) *ImmuneBatch {
	return &ImmuneBatch{
		UpdatedAt: at.UTC().Format(time.RFC3339Nano),
		Model:     ModelImmune,
		Count:     len(items),
		Items:     items,
	}
}

// Validate checks the batch is internally consistent.
func (b *ImmuneBatch) Validate() error {
	if b.Model != ModelImmune {
		return fmt.Errorf("model must be %q, got %q", ModelImmune, b.Model)
	}
	if b.Count != len(b.Items) {
		return fmt.Errorf("count %d does not match %d items", b.Count, len(b.Items))
	}
	return nil
}

// ByResident indexes predictions by resident ID. Later items win.
func (b *ImmuneBatch) ByResident() map[string]ImmuneBatchItem {
	out := make(map[string]ImmuneBatchItem, len(b.Items))
	for _, item := range b.Items {
		out[item.ResidentID] = item
	}
	return out
}

// NutritionBatch is the persisted result of one nutrition CSV run.
type NutritionBatch struct {
	UpdatedAt string               `json:"updated_at"`
	Model     ModelKind            `json:"model"`
	Count     int                  `json:"count"`
	Items     []NutritionBatchItem `json:"items"`
}

// NewNutritionBatch stamps items with the given time.
func NewNutritionBatch(items []NutritionBatchItem, at time.Time) *NutritionBatch {
	return &NutritionBatch{
		UpdatedAt: at.UTC().Format(time.RFC3339Nano),
		Model:     ModelNutrition,
		Count:     len(items),
		Items:     items,
	}
}

// Validate checks the batch is internally consistent.
func (b *NutritionBatch) Validate() error {
	if b.Model != ModelNutrition {
		return fmt.Errorf("model must be %q, got %q", ModelNutrition, b.Model)
	}
	if b.Count != len(b.Items) {
		return fmt.Errorf("count %d does not match %d items", b.Count, len(b.Items))
	}
	return nil
}

// ByResident indexes simulations by resident ID. Later items win.
func (b *NutritionBatch) ByResident() map[string]NutritionBatchItem {
	out := make(map[string]NutritionBatchItem, len(b.Items))
	for _, item := range b.Items {
		out[item.ResidentID] = item
	}
	return out
}

// ImportRun records one inference pipeline attempt.
type ImportRun struct {
	ID        string    `json:"id"`
	Model     ModelKind `json:"model"`
	Source    string    `json:"source"`
	OK        bool      `json:"ok"`
	Message   string    `json:"message"`
	Rows      int       `json:"rows"`
	Items     int       `json:"items"`
	Truncated bool      `json:"truncated"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the import run is valid.
func (r *ImportRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !r.Model.Valid() {
		return fmt.Errorf("invalid model: %s", r.Model)
	}
	if r.Rows < 0 || r.Items < 0 {
		return fmt.Errorf("rows and items must be non-negative")
	}
	return nil
}
