package modeling_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careboard/careboard/internal/client"
	"github.com/careboard/careboard/internal/modeling"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/storage"
)

func TestRunImmune_BackendTimeoutKeepsStoredBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	store := storage.NewBatchStore(storage.NewMemoryKV(), nil)
	previous := models.NewImmuneBatch([]models.ImmuneBatchItem{{ResidentID: "r-101", Prediction: models.ImmunePredictResult{ResidentID: "r-101", DivsScore: 55}}}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.SaveImmune(ctx, previous))

	p := modeling.NewPipeline(client.New(srv.URL, 200*time.Millisecond, nil), store, modeling.Config{})
	res := p.RunImmune(ctx, "immune.csv", strings.NewReader("resident_id,age,gender\nr-101,81,F\n"))

	assert.False(t, res.OK)
	assert.Nil(t, res.Batch)

	kept, ok := store.LoadImmune(ctx)
	require.True(t, ok)
	assert.Equal(t, previous.UpdatedAt, kept.UpdatedAt)
	require.Len(t, kept.Items, 1)
	assert.Equal(t, 55.0, kept.Items[0].Prediction.DivsScore)
}
