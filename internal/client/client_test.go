package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careboard/careboard/internal/models"
)

const testBaseURL = "http://models.test"

func setupClient(t *testing.T) *Client {
	t.Helper()
	c := New(testBaseURL, 0, nil)
	httpmock.ActivateNonDefault(c.Resty().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func immuneItems() []models.ImmunePredictRequest {
	return []models.ImmunePredictRequest{
		{ResidentID: "r-101", Features: models.DefaultImmuneFeatures()},
		{ResidentID: "r-102", Features: models.DefaultImmuneFeatures()},
	}
}

func TestPredictImmuneBatch_Success(t *testing.T) {
	c := setupClient(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/api/immune/predict/batch",
		httpmock.NewStringResponder(200, `{"items":[
			{"resident_id":"r-101","divs_score":41.26,"risk_level":"high","source":"fallback"},
			{"resident_id":"r-102","divs_score":88.0,"risk_level":"low","source":"model"}
		]}`))

	results, err := c.PredictImmuneBatch(context.Background(), immuneItems())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "r-101", results[0].ResidentID)
	assert.Equal(t, 41.26, results[0].DivsScore)
	assert.Equal(t, models.RiskHigh, results[0].RiskLevel)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestPredictImmuneBatch_EmptyInputMakesNoCall(t *testing.T) {
	c := setupClient(t)

	results, err := c.PredictImmuneBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestPredictImmuneBatch_MissingItems(t *testing.T) {
	bodies := []string{`{}`, `{"items":null}`, `{"items":"nope"}`, `{"items":{"a":1}}`}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			c := setupClient(t)
			httpmock.RegisterResponder("POST", testBaseURL+"/api/immune/predict/batch",
				httpmock.NewStringResponder(200, body))

			results, err := c.PredictImmuneBatch(context.Background(), immuneItems())
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestPredictImmuneBatch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(500, `{"detail":"boom"}`)},
		{"unprocessable", httpmock.NewStringResponder(422, `{"detail":[]}`)},
		{"not found", httpmock.NewStringResponder(404, ``)},
		{"malformed json", httpmock.NewStringResponder(200, `{"items":[`)},
		{"transport", httpmock.NewErrorResponder(http.ErrHandlerTimeout)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupClient(t)
			httpmock.RegisterResponder("POST", testBaseURL+"/api/immune/predict/batch", tt.responder)

			_, err := c.PredictImmuneBatch(context.Background(), immuneItems())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestSimulateNutrition(t *testing.T) {
	c := setupClient(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/api/nutrition/simulate",
		httpmock.NewStringResponder(200, `{"source":"rule-based","results":{
			"hemoglobin":{"parameter":"hemoglobin","current_value":10.5,"expected_value":11.8,"expected_change":1.3,"interpretation":"improves"}
		},"warnings":[]}`))

	hb := 10.5
	iron := 65.0
	resp, err := c.SimulateNutrition(context.Background(), models.NutritionSimRequest{
		Patient:      models.NutritionPatient{Age: 80, Sex: "F", Hemoglobin: &hb},
		Intervention: models.NutritionIntervention{IronMG: &iron, DurationWeeks: 4},
	})
	require.NoError(t, err)
	require.Contains(t, resp.Results, "hemoglobin")
	require.NotNil(t, resp.Results["hemoglobin"].ExpectedValue)
	assert.Equal(t, 11.8, *resp.Results["hemoglobin"].ExpectedValue)
	assert.Equal(t, models.SourceRuleBased, resp.Source)
}

func TestSimulateNutrition_Error(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("POST", testBaseURL+"/api/nutrition/simulate",
		httpmock.NewStringResponder(503, ``))

	_, err := c.SimulateNutrition(context.Background(), models.NutritionSimRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSearchSupplements(t *testing.T) {
	c := setupClient(t)

	httpmock.RegisterResponderWithQuery("GET", testBaseURL+"/api/pillyze/search", "query=vitamin+d",
		httpmock.NewStringResponder(200, `{"query":"vitamin d","items":[{"name":"D3 1000IU","brand":"Acme"}],"count":1}`))

	resp, err := c.SearchSupplements(context.Background(), "vitamin d")
	require.NoError(t, err)
	assert.Equal(t, "vitamin d", resp.Query)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Acme", resp.Items[0].Brand)
}

func TestHealth(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/health",
		httpmock.NewStringResponder(200, `{"status":"ok","models":{"immune":"fallback"}}`))

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "fallback", h.Models["immune"])
}

// slowServer answers only after the caller has given up.
func slowServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			w.Write([]byte(`{"items":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_DefaultTimeout(t *testing.T) {
	c := New(testBaseURL, 0, nil)
	assert.Equal(t, 4500*time.Millisecond, c.Resty().GetClient().Timeout)

	c = New(testBaseURL, time.Second, nil)
	assert.Equal(t, time.Second, c.Resty().GetClient().Timeout)
}

func TestPredictImmuneBatch_Timeout(t *testing.T) {
	srv := slowServer(t)
	c := New(srv.URL, 150*time.Millisecond, nil)

	start := time.Now()
	_, err := c.PredictImmuneBatch(context.Background(), immuneItems())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 3*time.Second, "request should give up at the client timeout")
}

func TestSimulateNutrition_Timeout(t *testing.T) {
	srv := slowServer(t)
	c := New(srv.URL, 150*time.Millisecond, nil)

	_, err := c.SimulateNutrition(context.Background(), models.NutritionSimRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
