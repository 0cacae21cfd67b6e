// Package client talks to the model backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/careboard/careboard/internal/models"
)

// DefaultTimeout bounds every request to the model backend.
const DefaultTimeout = 4500 * time.Millisecond

// ErrUnavailable wraps every transport, status, and decoding failure.
var ErrUnavailable = errors.New("model backend unavailable")

// Client calls the model backend's JSON API.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New creates a client for baseURL. A zero timeout uses DefaultTimeout.
// Requests are never retried.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   http,
		logger: logger.With("component", "client"),
	}
}

// Resty exposes the underlying client so tests can install transports.
func (c *Client) Resty() *resty.Client {
	return c.http
}

// PredictImmuneBatch posts items to /api/immune/predict/batch. An empty
// input makes no request. A response without an items array is treated
// as an empty result.
func (c *Client) PredictImmuneBatch(ctx context.Context, items []models.ImmunePredictRequest) ([]models.ImmunePredictResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var envelope struct {
		Items json.RawMessage `json:"items"`
	}
	if err := c.post(ctx, "/api/immune/predict/batch", models.ImmuneBatchRequest{Items: items}, &envelope); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(envelope.Items)
	if len(raw) == 0 || raw[0] != '[' {
		c.logger.Warn("immune batch response has no items array")
		return nil, nil
	}

	var results []models.ImmunePredictResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("%w: decoding immune items: %v", ErrUnavailable, err)
	}
	return results, nil
}

// SimulateNutrition posts one plan to /api/nutrition/simulate.
func (c *Client) SimulateNutrition(ctx context.Context, req models.NutritionSimRequest) (*models.NutritionSimResponse, error) {
	var out models.NutritionSimResponse
	if err := c.post(ctx, "/api/nutrition/simulate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchSupplements queries the backend's supplement search proxy.
func (c *Client) SearchSupplements(ctx context.Context, query string) (*models.SupplementSearchResponse, error) {
	var out models.SupplementSearchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		Get("/api/pillyze/search")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", ErrUnavailable, err)
	}
	return &out, nil
}

// Health fetches /api/health.
func (c *Client) Health(ctx context.Context) (*models.BackendHealth, error) {
	var out models.BackendHealth
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/health")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: decoding health: %v", ErrUnavailable, err)
	}
	return &out, nil
}

// post sends body as JSON and decodes a 2xx response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err := checkResponse(resp, err); err != nil {
		c.logger.Debug("model backend call failed", "path", path, "error", err)
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, resp.Request.Method, resp.Request.URL, resp.StatusCode())
	}
	return nil
}
