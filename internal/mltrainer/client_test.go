package mltrainer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcast/fuelcast-go/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.TrainerConfig{ServiceURL: url, Timeout: 5})
}

func validFitRequest() *FitRequest {
	return &FitRequest{
		FeatureNames: []string{"lag_1", "lag_2"},
		TrainX:       [][]float64{{1, 2}, {3, 4}},
		TrainY:       []float64{5, 6},
		ValidationX:  [][]float64{{7, 8}},
	}
}

func TestFit_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fit", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req FitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.TrainX, 2)

		resp := FitResponse{
			Artifact:              json.RawMessage(`{"feature_names":["lag_1","lag_2"]}`),
			ValidationPredictions: []float64{9.5},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Fit(context.Background(), validFitRequest())
	require.NoError(t, err)
	assert.Equal(t, []float64{9.5}, resp.ValidationPredictions)
	assert.NotEmpty(t, resp.Artifact)
}

func TestFit_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "training diverged", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fit(context.Background(), validFitRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "training diverged")
}

func TestFit_PredictionCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := FitResponse{
			Artifact:              json.RawMessage(`{}`),
			ValidationPredictions: []float64{1, 2, 3},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fit(context.Background(), validFitRequest())
	assert.Error(t, err)
}

func TestFit_RejectsMismatchedPartitions(t *testing.T) {
	client := newTestClient("http://localhost:0")
	req := validFitRequest()
	req.TrainY = []float64{1}

	_, err := client.Fit(context.Background(), req)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := newTestClient("http://localhost:5001/")
	assert.Equal(t, "http://localhost:5001", client.BaseURL())
}
