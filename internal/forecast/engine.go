// Package forecast produces multi-day price forecasts by recursive rollout:
// each step feeds its prediction back into a rolling window so the next step
// can compute lags and the trailing mean over a mix of observed and
// predicted values. The rollout is deterministic for a fixed model version
// and observation set.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/artifacts"
	"github.com/fuelcast/fuelcast-go/internal/config"
	"github.com/fuelcast/fuelcast-go/internal/mlmodel"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// ObservationReader supplies the window seed and the covariate values held
// constant across the horizon.
type ObservationReader interface {
	RecentPrices(ctx context.Context, limit int) ([]models.RawPricePoint, error)
	LatestCovariates(ctx context.Context) (crude float64, inrUSD float64, err error)
}

// ModelCatalog resolves version ids, where "latest" or empty means the most
// recently registered model.
type ModelCatalog interface {
	Get(ctx context.Context, version string) (*models.ModelVersion, error)
}

// Engine runs forecast rollouts.
type Engine struct {
	observations   ObservationReader
	catalog        ModelCatalog
	artifacts      artifacts.Store
	maxHorizonDays int
	logger         *logrus.Logger
}

// NewEngine wires the forecast dependencies.
func NewEngine(observations ObservationReader, catalog ModelCatalog, artifactStore artifacts.Store, cfg config.ForecastConfig, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		observations:   observations,
		catalog:        catalog,
		artifacts:      artifactStore,
		maxHorizonDays: cfg.MaxHorizonDays,
		logger:         logger,
	}
}

// Descriptor resolves the cheap identifying facts of a request without
// running the rollout: the concrete model version, the latest observation
// date and the effective horizon. Response caches key on these because
// together they pin both the model and the data vintage.
func (e *Engine) Descriptor(ctx context.Context, req models.ForecastRequest) (version string, latest time.Time, horizon int, err error) {
	model, err := e.catalog.Get(ctx, req.Version)
	if err != nil {
		return "", time.Time{}, 0, err
	}
	points, err := e.observations.RecentPrices(ctx, 1)
	if err != nil {
		return "", time.Time{}, 0, err
	}
	latest = models.Day(points[0].Date)
	horizon, err = resolveHorizon(req, latest, e.maxHorizonDays)
	if err != nil {
		return "", time.Time{}, 0, err
	}
	return model.Version, latest, horizon, nil
}

// Forecast produces one prediction per day for the resolved horizon,
// starting the day after the latest observation.
func (e *Engine) Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	model, err := e.catalog.Get(ctx, req.Version)
	if err != nil {
		return nil, err
	}

	points, err := e.observations.RecentPrices(ctx, SeedDays)
	if err != nil {
		return nil, err
	}
	window, err := NewWindow(points)
	if err != nil {
		return nil, err
	}

	horizon, err := resolveHorizon(req, window.Latest(), e.maxHorizonDays)
	if err != nil {
		return nil, err
	}

	predictor, err := e.loadPredictor(model)
	if err != nil {
		return nil, err
	}

	crude, inrUSD, err := e.observations.LatestCovariates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load covariates: %w", err)
	}

	predictions := make([]models.ForecastPoint, 0, horizon)
	for i := 0; i < horizon; i++ {
		date := window.Latest().AddDate(0, 0, 1)
		vector, err := window.featureVector(date, crude, inrUSD)
		if err != nil {
			return nil, fmt.Errorf("rollout step %d: %w", i+1, err)
		}
		value, err := predictor.Predict(vector)
		if err != nil {
			return nil, &apperrors.ModelLoadError{Location: model.ArtifactLocation, Err: err}
		}

		predictions = append(predictions, models.ForecastPoint{Date: date, Price: value})
		window = window.Advance(date, value)
	}

	e.logger.WithFields(logrus.Fields{
		"model_version": model.Version,
		"horizon_days":  horizon,
		"first_date":    predictions[0].Date.Format(models.DateLayout),
	}).Info("Forecast rollout complete")

	return &models.ForecastResult{
		Version:     model.Version,
		HorizonDays: horizon,
		Predictions: predictions,
	}, nil
}

func (e *Engine) loadPredictor(model *models.ModelVersion) (*mlmodel.Predictor, error) {
	data, err := e.artifacts.Load(model.ArtifactLocation)
	if err != nil {
		return nil, &apperrors.ModelLoadError{Location: model.ArtifactLocation, Err: err}
	}
	predictor, err := mlmodel.Decode(data)
	if err != nil {
		return nil, &apperrors.ModelLoadError{Location: model.ArtifactLocation, Err: err}
	}
	return predictor, nil
}

// resolveHorizon turns a request into a day count. Exactly one of
// HorizonDays and EndDate must be set; an end date counts the days from the
// latest observation to it.
func resolveHorizon(req models.ForecastRequest, latest time.Time, maxDays int) (int, error) {
	hasDays := req.HorizonDays != 0
	hasEnd := !req.EndDate.IsZero()
	if hasDays == hasEnd {
		return 0, &apperrors.InvalidRangeError{Reason: "exactly one of horizon_days and end_date must be set"}
	}

	horizon := req.HorizonDays
	if hasEnd {
		end := models.Day(req.EndDate)
		horizon = int(end.Sub(latest).Hours() / 24)
		if horizon <= 0 {
			return 0, &apperrors.InvalidRangeError{
				Reason: fmt.Sprintf("end_date %s is not after the latest observation %s",
					end.Format(models.DateLayout), latest.Format(models.DateLayout)),
			}
		}
	}

	if horizon <= 0 {
		return 0, &apperrors.InvalidRangeError{Reason: fmt.Sprintf("horizon_days must be positive, got %d", horizon)}
	}
	if maxDays > 0 && horizon > maxDays {
		return 0, &apperrors.InvalidRangeError{Reason: fmt.Sprintf("horizon of %d days exceeds the maximum of %d", horizon, maxDays)}
	}
	return horizon, nil
}
