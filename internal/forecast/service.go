package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/config"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// Cache is the response cache dependency, normally Redis.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// PredictionLog is the audit trail for served forecasts.
type PredictionLog interface {
	Append(ctx context.Context, entry models.PredictionLogEntry) error
	Recent(ctx context.Context, limit int) ([]models.PredictionLogEntry, error)
}

// Service wraps the engine with response caching and audit logging. Cache
// keys include the model version and the latest observation date, so a hit
// can never serve a result computed from an older model or older data.
type Service struct {
	engine   *Engine
	log      PredictionLog
	cache    Cache
	cacheTTL time.Duration
	logger   *logrus.Logger
}

// NewService wires the serving-side forecast dependencies. Cache and log may
// be nil; the service then always recomputes and skips the audit trail.
func NewService(engine *Engine, log PredictionLog, cache Cache, cfg config.ForecastConfig, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		engine:   engine,
		log:      log,
		cache:    cache,
		cacheTTL: time.Duration(cfg.CacheTTLSeconds) * time.Second,
		logger:   logger,
	}
}

// Forecast serves one forecast, from cache when possible. Cache and audit
// failures are logged but never fail the request.
func (s *Service) Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	version, latest, horizon, err := s.engine.Descriptor(ctx, req)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("forecast:%s:%s:%d", version, latest.Format(models.DateLayout), horizon)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var result models.ForecastResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				s.logger.WithField("cache_key", key).Debug("Served forecast from cache")
				// The audit trail records every served forecast, cached
				// or not.
				s.appendLog(ctx, &result)
				return &result, nil
			}
		}
	}

	result, err := s.engine.Forecast(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.WithError(err).Warn("Failed to cache forecast")
			}
		}
	}

	s.appendLog(ctx, result)

	return result, nil
}

// appendLog records a served forecast in the audit trail. Failures are
// logged but never fail the request.
func (s *Service) appendLog(ctx context.Context, result *models.ForecastResult) {
	if s.log == nil {
		return
	}
	entry := models.PredictionLogEntry{
		HorizonDays: result.HorizonDays,
		Version:     result.Version,
		Predictions: result.Predictions,
	}
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.WithError(err).Warn("Failed to append prediction log")
	}
}

// History returns recent prediction log entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.PredictionLogEntry, error) {
	if s.log == nil {
		return nil, nil
	}
	return s.log.Recent(ctx, limit)
}
