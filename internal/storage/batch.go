package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/models"
)

// Storage keys. The version suffix lets a future shape change start clean.
const (
	ImmuneBatchKey    = "modeling:immune-batch-v1"
	NutritionBatchKey = "modeling:nutrition-batch-v1"
)

// KeyFor returns the storage key of a model's batch.
func KeyFor(model models.ModelKind) (string, error) {
	switch model {
	case models.ModelImmune:
		return ImmuneBatchKey, nil
	case models.ModelNutrition:
		return NutritionBatchKey, nil
	default:
		return "", fmt.Errorf("unknown model %q", model)
	}
}

// BatchStore reads and writes the latest batch of each model. Writes
// replace the previous value outright; concurrent writers race and the
// last one wins.
type BatchStore struct {
	kv     KV
	logger *slog.Logger
}

// NewBatchStore wraps kv.
func NewBatchStore(kv KV, logger *slog.Logger) *BatchStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchStore{kv: kv, logger: logger.With("component", "storage")}
}

// LoadImmune returns the stored immune batch. Absent, unreadable, or
// malformed values all report false.
func (s *BatchStore) LoadImmune(ctx context.Context) (*models.ImmuneBatch, bool) {
	var b models.ImmuneBatch
	if !s.load(ctx, ImmuneBatchKey, &b) {
		return nil, false
	}
	return &b, true
}

// LoadNutrition returns the stored nutrition batch.
func (s *BatchStore) LoadNutrition(ctx context.Context) (*models.NutritionBatch, bool) {
	var b models.NutritionBatch
	if !s.load(ctx, NutritionBatchKey, &b) {
		return nil, false
	}
	return &b, true
}

func (s *BatchStore) load(ctx context.Context, key string, dst any) bool {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("reading stored batch", "key", key, "error", err)
		return false
	}

	var probe struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		s.logger.Warn("stored batch is not valid JSON", "key", key, "error", err)
		return false
	}
	if items := bytes.TrimSpace(probe.Items); len(items) == 0 || items[0] != '[' {
		s.logger.Warn("stored batch has no items array", "key", key)
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("decoding stored batch", "key", key, "error", err)
		return false
	}
	return true
}

// SaveImmune replaces the stored immune batch.
func (s *BatchStore) SaveImmune(ctx context.Context, batch *models.ImmuneBatch) error {
	return s.save(ctx, ImmuneBatchKey, batch)
}

// SaveNutrition replaces the stored nutrition batch.
func (s *BatchStore) SaveNutrition(ctx context.Context, batch *models.NutritionBatch) error {
	return s.save(ctx, NutritionBatchKey, batch)
}

func (s *BatchStore) save(ctx context.Context, key string, batch any) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("storing batch: %w", err)
	}
	s.logger.Debug("batch stored", "key", key, "bytes", len(data))
	return nil
}

// Clear removes a model's stored batch. Clearing an absent batch is not
// an error.
func (s *BatchStore) Clear(ctx context.Context, model models.ModelKind) error {
	key, err := KeyFor(model)
	if err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("clearing %s batch: %w", model, err)
	}
	return nil
}

// Fingerprint summarizes the raw stored value so a reader can tell when
// another process has replaced it. It is empty when nothing is stored.
func (s *BatchStore) Fingerprint(ctx context.Context, model models.ModelKind) (string, error) {
	key, err := KeyFor(model)
	if err != nil {
		return "", err
	}
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(fixture.HashString(raw)), 16) + ":" + strconv.Itoa(len(raw)), nil
}
