package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/artifacts"
	"github.com/fuelcast/fuelcast-go/internal/config"
	"github.com/fuelcast/fuelcast-go/internal/features"
	"github.com/fuelcast/fuelcast-go/internal/mlmodel"
	"github.com/fuelcast/fuelcast-go/internal/mltrainer"
	"github.com/fuelcast/fuelcast-go/internal/models"
	"github.com/fuelcast/fuelcast-go/internal/registry"
)

type fakeProvider struct {
	series *models.RawSeries
	err    error
}

func (f *fakeProvider) GetRawSeries(context.Context, models.DataSource) (*models.RawSeries, error) {
	return f.series, f.err
}

type fakeFeatureStore struct {
	rows []models.FeatureRow
	err  error
}

func (f *fakeFeatureStore) ReplaceAll(_ context.Context, rows []models.FeatureRow) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rows = rows
	return len(rows), nil
}

type fakeFitter struct {
	err      error
	requests []*mltrainer.FitRequest
}

func (f *fakeFitter) Fit(_ context.Context, req *mltrainer.FitRequest) (*mltrainer.FitResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	// A constant-output model: zero weights, bias 100.
	artifact := mlmodel.Artifact{
		FeatureNames: req.FeatureNames,
		Scaler: mlmodel.Scaler{
			Mean: make([]float64, len(req.FeatureNames)),
			Std:  []float64{1, 1, 1, 1, 1, 1, 1},
		},
		Layers: []mlmodel.Layer{
			{Weights: [][]float64{make([]float64, len(req.FeatureNames))}, Bias: []float64{100}, Activation: "linear"},
		},
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return nil, err
	}
	predictions := make([]float64, len(req.ValidationX))
	for i := range predictions {
		predictions[i] = 100
	}
	return &mltrainer.FitResponse{Artifact: data, ValidationPredictions: predictions}, nil
}

// linearSeries covers days consecutive calendar days with prices
// 100, 101, 102, ... and covariates known from day one.
func linearSeries(days int) *models.RawSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	crude := decimal.NewFromFloat(80)
	inr := decimal.NewFromFloat(83)
	series := &models.RawSeries{
		Covariates: []models.RawCovariatePoint{
			{Date: start, CrudeOilPrice: &crude, INRUSD: &inr, Source: models.SourceMarket},
		},
	}
	for i := 0; i < days; i++ {
		series.Prices = append(series.Prices, models.RawPricePoint{
			Date:   start.AddDate(0, 0, i),
			Price:  decimal.NewFromFloat(100 + float64(i)),
			Source: models.SourceMarket,
		})
	}
	return series
}

func newTestOrchestrator(t *testing.T, provider RawSeriesProvider, fitter Fitter) (*Orchestrator, *registry.Registry, *fakeFeatureStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := artifacts.NewFileStore(t.TempDir())
	require.NoError(t, err)
	reg := registry.New(registry.NewMemoryStore(), logger)
	featureStore := &fakeFeatureStore{}

	cfg := config.TrainingConfig{MinTrainingRows: 60, ValidationFraction: 0.2}
	orch := NewOrchestrator(provider, features.NewBuilder(cfg.MinTrainingRows, logger),
		featureStore, fitter, store, reg, cfg, logger)
	return orch, reg, featureStore
}

func TestOrchestrator_TrainRegistersVersion(t *testing.T) {
	fitter := &fakeFitter{}
	orch, reg, _ := newTestOrchestrator(t, &fakeProvider{series: linearSeries(90)}, fitter)

	version, err := orch.Train(context.Background(), models.SourceCombined)
	require.NoError(t, err)
	assert.Equal(t, "v1", version.Version)
	assert.Equal(t, models.SourceCombined, version.DataSource)

	// 90 days yields 75 feature rows; a 0.2 tail split validates 15.
	assert.Equal(t, 60, version.TrainingSamples)
	assert.Equal(t, 15, version.ValidationSamples)

	// The constant model predicts 100 for every validation row, so MAE is
	// the mean distance of the last 15 targets from 100.
	assert.Greater(t, version.Metrics.MAE, 0.0)
	assert.GreaterOrEqual(t, version.Metrics.RMSE, version.Metrics.MAE)

	// Artifact written before registration and loadable afterward.
	data, err := os.ReadFile(version.ArtifactLocation)
	require.NoError(t, err)
	_, err = mlmodel.Decode(data)
	require.NoError(t, err)

	// Split is chronological: every validation date is after every train date.
	require.Len(t, fitter.requests, 1)
	assert.Len(t, fitter.requests[0].TrainX, 60)
	assert.Len(t, fitter.requests[0].ValidationX, 15)

	stored, err := reg.Get(context.Background(), models.VersionLatest)
	require.NoError(t, err)
	assert.Equal(t, version.Version, stored.Version)
}

func TestOrchestrator_TrainInsufficientData(t *testing.T) {
	fitter := &fakeFitter{}
	orch, reg, _ := newTestOrchestrator(t, &fakeProvider{series: linearSeries(20)}, fitter)

	_, err := orch.Train(context.Background(), models.SourceCombined)
	require.True(t, apperrors.IsDataInsufficient(err))

	var insufficient *apperrors.DataInsufficientError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Rows)
	assert.Equal(t, 60, insufficient.Minimum)

	assert.Empty(t, fitter.requests, "trainer must not be called without enough data")
	_, err = reg.Get(context.Background(), models.VersionLatest)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestOrchestrator_TrainFitterFailureLeavesRegistryEmpty(t *testing.T) {
	fitter := &fakeFitter{err: errors.New("trainer exploded")}
	orch, reg, _ := newTestOrchestrator(t, &fakeProvider{series: linearSeries(90)}, fitter)

	_, err := orch.Train(context.Background(), models.SourceCombined)
	require.True(t, apperrors.IsUpstreamFit(err))
	assert.ErrorContains(t, err, "trainer exploded")

	list, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrchestrator_TrainProviderFailure(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, &fakeProvider{err: errors.New("connection refused")}, &fakeFitter{})

	_, err := orch.Train(context.Background(), models.SourceMarket)
	assert.ErrorContains(t, err, "connection refused")
}

func TestOrchestrator_Prepare(t *testing.T) {
	orch, _, featureStore := newTestOrchestrator(t, &fakeProvider{series: linearSeries(90)}, &fakeFitter{})

	result, err := orch.Prepare(context.Background(), models.SourceCombined)
	require.NoError(t, err)
	assert.Equal(t, 75, result.Rows)
	assert.Len(t, featureStore.rows, 75)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start.AddDate(0, 0, 14), result.FirstDate)
	assert.Equal(t, start.AddDate(0, 0, 88), result.LastDate)
}

func TestOrchestrator_PreparePersistFailure(t *testing.T) {
	orch, _, featureStore := newTestOrchestrator(t, &fakeProvider{series: linearSeries(90)}, &fakeFitter{})
	featureStore.err = errors.New("tablespace full")

	_, err := orch.Prepare(context.Background(), models.SourceCombined)
	assert.ErrorContains(t, err, "tablespace full")
}

func TestEvaluate(t *testing.T) {
	metrics, err := Evaluate([]float64{100, 102, 104, 98}, []float64{101, 101, 104, 100})
	require.NoError(t, err)

	// Errors are 1, -1, 0, 2.
	assert.InDelta(t, 1.0, metrics.MAE, 1e-9)
	assert.InDelta(t, 1.224744871, metrics.RMSE, 1e-6)
	expectedMAPE := (1.0/100 + 1.0/102 + 0 + 2.0/98) / 4 * 100
	assert.InDelta(t, expectedMAPE, metrics.MAPE, 1e-9)
}

func TestEvaluate_ZeroActualsExcludedFromMAPE(t *testing.T) {
	metrics, err := Evaluate([]float64{0, 100}, []float64{5, 110})
	require.NoError(t, err)
	assert.InDelta(t, 7.5, metrics.MAE, 1e-9)
	assert.InDelta(t, 10.0, metrics.MAPE, 1e-9)
}

func TestEvaluate_Mismatch(t *testing.T) {
	_, err := Evaluate([]float64{1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = Evaluate(nil, nil)
	assert.Error(t, err)
}

func TestEvaluate_PerfectPredictions(t *testing.T) {
	metrics, err := Evaluate([]float64{100, 101}, []float64{100, 101})
	require.NoError(t, err)
	assert.Zero(t, metrics.RMSE)
	assert.Zero(t, metrics.MAE)
	assert.Zero(t, metrics.MAPE)
}

func TestOrchestrator_SplitTooSmallForValidation(t *testing.T) {
	orch := &Orchestrator{cfg: config.TrainingConfig{MinTrainingRows: 60, ValidationFraction: 0.5}}
	rows := []models.FeatureRow{{Target: 1}}

	_, _, err := orch.split(rows)
	assert.True(t, apperrors.IsDataInsufficient(err))

	train, validation, err := orch.split([]models.FeatureRow{{Target: 1}, {Target: 2}})
	require.NoError(t, err)
	assert.Len(t, train, 1)
	assert.Len(t, validation, 1)
	assert.Equal(t, 2.0, validation[0].Target)
}

func ExampleEvaluate() {
	metrics, _ := Evaluate([]float64{100, 100}, []float64{101, 99})
	fmt.Printf("rmse=%.1f mae=%.1f mape=%.1f\n", metrics.RMSE, metrics.MAE, metrics.MAPE)
	// Output: rmse=1.0 mae=1.0 mape=1.0
}
