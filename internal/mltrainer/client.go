// Package mltrainer is the HTTP client for the external model-fitting
// service. The service is a black box satisfying "fit(X, y) -> artifact,
// validation predictions"; architecture search and hyperparameters live on
// its side of the contract.
package mltrainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fuelcast/fuelcast-go/internal/config"
)

// FitRequest carries the training partition plus the validation feature
// matrix the service should predict on.
type FitRequest struct {
	FeatureNames []string    `json:"feature_names"`
	TrainX       [][]float64 `json:"train_x"`
	TrainY       []float64   `json:"train_y"`
	ValidationX  [][]float64 `json:"validation_x"`
}

// FitResponse is the trainer's reply: a serializable model artifact and its
// raw predictions over the validation partition.
type FitResponse struct {
	Artifact              json.RawMessage `json:"artifact"`
	ValidationPredictions []float64       `json:"validation_predictions"`
}

// HealthResponse reports trainer service status.
type HealthResponse struct {
	Status string `json:"status"`
}

// Client talks to the trainer service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a trainer client from config.
func NewClient(cfg *config.TrainerConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.ServiceURL, "/"),
	}
}

// Fit submits a training job and waits for the fitted model.
func (c *Client) Fit(ctx context.Context, req *FitRequest) (*FitResponse, error) {
	if len(req.TrainX) == 0 || len(req.TrainX) != len(req.TrainY) {
		return nil, fmt.Errorf("fit request has %d feature rows and %d targets", len(req.TrainX), len(req.TrainY))
	}

	var response FitResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/fit", req, &response); err != nil {
		return nil, err
	}
	if len(response.Artifact) == 0 {
		return nil, fmt.Errorf("trainer returned an empty artifact")
	}
	if len(response.ValidationPredictions) != len(req.ValidationX) {
		return nil, fmt.Errorf("trainer returned %d validation predictions for %d rows",
			len(response.ValidationPredictions), len(req.ValidationX))
	}
	return &response, nil
}

// HealthCheck checks if the trainer service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	var response HealthResponse
	return c.makeRequest(ctx, http.MethodGet, "/health", nil, &response)
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) makeRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trainer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("trainer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode trainer response: %w", err)
		}
	}
	return nil
}
