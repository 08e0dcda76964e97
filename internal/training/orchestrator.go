// Package training runs the end-to-end pipeline: raw series in, registered
// model version out. Model fitting itself is delegated to the external
// trainer service; this package owns the feature preparation, the
// chronological split, metric computation and artifact durability.
package training

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/artifacts"
	"github.com/fuelcast/fuelcast-go/internal/config"
	"github.com/fuelcast/fuelcast-go/internal/features"
	"github.com/fuelcast/fuelcast-go/internal/mlmodel"
	"github.com/fuelcast/fuelcast-go/internal/mltrainer"
	"github.com/fuelcast/fuelcast-go/internal/models"
	"github.com/fuelcast/fuelcast-go/internal/registry"
)

// RawSeriesProvider loads raw observations for a source selector.
type RawSeriesProvider interface {
	GetRawSeries(ctx context.Context, source models.DataSource) (*models.RawSeries, error)
}

// FeaturePersister stores a freshly built feature table.
type FeaturePersister interface {
	ReplaceAll(ctx context.Context, rows []models.FeatureRow) (int, error)
}

// Fitter is the model-fitting dependency, normally the mltrainer client.
type Fitter interface {
	Fit(ctx context.Context, req *mltrainer.FitRequest) (*mltrainer.FitResponse, error)
}

// PrepareResult summarizes one feature preparation run.
type PrepareResult struct {
	Rows      int       `json:"rows"`
	FirstDate time.Time `json:"first_date"`
	LastDate  time.Time `json:"last_date"`
}

// Orchestrator drives preparation and training runs.
type Orchestrator struct {
	observations RawSeriesProvider
	builder      *features.Builder
	featureStore FeaturePersister
	fitter       Fitter
	artifacts    artifacts.Store
	registry     *registry.Registry
	cfg          config.TrainingConfig
	logger       *logrus.Logger
}

// NewOrchestrator wires the pipeline dependencies.
func NewOrchestrator(
	observations RawSeriesProvider,
	builder *features.Builder,
	featureStore FeaturePersister,
	fitter Fitter,
	artifactStore artifacts.Store,
	reg *registry.Registry,
	cfg config.TrainingConfig,
	logger *logrus.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Orchestrator{
		observations: observations,
		builder:      builder,
		featureStore: featureStore,
		fitter:       fitter,
		artifacts:    artifactStore,
		registry:     reg,
		cfg:          cfg,
		logger:       logger,
	}
}

// Prepare rebuilds the persisted feature table from the raw series and
// returns its extent. The table is replaced wholesale so raw-data
// corrections propagate.
func (o *Orchestrator) Prepare(ctx context.Context, source models.DataSource) (*PrepareResult, error) {
	rows, err := o.buildFeatures(ctx, source)
	if err != nil {
		return nil, err
	}

	if _, err := o.featureStore.ReplaceAll(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to persist features: %w", err)
	}

	result := &PrepareResult{
		Rows:      len(rows),
		FirstDate: rows[0].Date,
		LastDate:  rows[len(rows)-1].Date,
	}
	o.logger.WithFields(logrus.Fields{
		"rows":       result.Rows,
		"first_date": result.FirstDate.Format(models.DateLayout),
		"last_date":  result.LastDate.Format(models.DateLayout),
		"source":     source,
	}).Info("Prepared feature table")
	return result, nil
}

// Train runs one training job against the selected source and returns the
// registered model version. The registry only ever sees the new version
// after its artifact is durable; a failure at any stage leaves the registry
// untouched.
func (o *Orchestrator) Train(ctx context.Context, source models.DataSource) (*models.ModelVersion, error) {
	rows, err := o.buildFeatures(ctx, source)
	if err != nil {
		return nil, err
	}

	trainRows, validationRows, err := o.split(rows)
	if err != nil {
		return nil, err
	}

	req := &mltrainer.FitRequest{
		FeatureNames: models.FeatureColumns,
		TrainX:       vectors(trainRows),
		TrainY:       targets(trainRows),
		ValidationX:  vectors(validationRows),
	}
	resp, err := o.fitter.Fit(ctx, req)
	if err != nil {
		return nil, &apperrors.UpstreamFitError{Err: err}
	}

	metrics, err := Evaluate(targets(validationRows), resp.ValidationPredictions)
	if err != nil {
		return nil, &apperrors.UpstreamFitError{Err: err}
	}

	// Reject artifacts the forecast engine would fail to load later.
	if _, err := mlmodel.Decode(resp.Artifact); err != nil {
		return nil, &apperrors.UpstreamFitError{Err: fmt.Errorf("trainer returned an unusable artifact: %w", err)}
	}

	location, err := o.artifacts.Save(fmt.Sprintf("model_%s.json", uuid.NewString()), resp.Artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to save model artifact: %w", err)
	}

	version, err := o.registry.Register(ctx, registry.NewEntry{
		Metrics:           metrics,
		ArtifactLocation:  location,
		TrainingSamples:   len(trainRows),
		ValidationSamples: len(validationRows),
		DataSource:        source,
	})
	if err != nil {
		return nil, err
	}

	o.logger.WithFields(logrus.Fields{
		"model_version":      version.Version,
		"training_samples":   len(trainRows),
		"validation_samples": len(validationRows),
		"rmse":               metrics.RMSE,
	}).Info("Training run complete")
	return version, nil
}

func (o *Orchestrator) buildFeatures(ctx context.Context, source models.DataSource) ([]models.FeatureRow, error) {
	series, err := o.observations.GetRawSeries(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw series: %w", err)
	}
	return o.builder.Build(*series)
}

// split divides rows chronologically: the oldest rows train, the newest
// validate. Rows arrive date-ascending from the builder.
func (o *Orchestrator) split(rows []models.FeatureRow) (train, validation []models.FeatureRow, err error) {
	validationCount := int(math.Round(float64(len(rows)) * o.cfg.ValidationFraction))
	if validationCount < 1 {
		validationCount = 1
	}
	if validationCount >= len(rows) {
		return nil, nil, &apperrors.DataInsufficientError{Rows: len(rows), Minimum: o.cfg.MinTrainingRows}
	}
	cut := len(rows) - validationCount
	return rows[:cut], rows[cut:], nil
}

func vectors(rows []models.FeatureRow) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = row.Vector()
	}
	return out
}

func targets(rows []models.FeatureRow) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row.Target
	}
	return out
}
