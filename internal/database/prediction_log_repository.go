package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fuelcast/fuelcast-go/internal/models"
)

// PredictionLogRepository appends served forecasts to the audit trail.
// Entries are append-only and never mutated.
type PredictionLogRepository struct {
	pool DatabasePool
}

// NewPredictionLogRepository creates a new prediction log repository.
func NewPredictionLogRepository(pool DatabasePool) *PredictionLogRepository {
	return &PredictionLogRepository{pool: pool}
}

// Append writes one log entry. A missing ID or request time is filled in.
func (r *PredictionLogRepository) Append(ctx context.Context, entry models.PredictionLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RequestTime.IsZero() {
		entry.RequestTime = time.Now().UTC()
	}

	predictions, err := json.Marshal(entry.Predictions)
	if err != nil {
		return fmt.Errorf("failed to marshal predictions: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO prediction_log (id, request_time, horizon_days, model_version, predictions)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.RequestTime, entry.HorizonDays, entry.Version, predictions)
	if err != nil {
		return fmt.Errorf("failed to append prediction log: %w", err)
	}
	return nil
}

// Recent returns the newest limit entries, newest first.
func (r *PredictionLogRepository) Recent(ctx context.Context, limit int) ([]models.PredictionLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, request_time, horizon_days, model_version, predictions
		FROM prediction_log
		ORDER BY request_time DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction log: %w", err)
	}
	defer rows.Close()

	var entries []models.PredictionLogEntry
	for rows.Next() {
		var entry models.PredictionLogEntry
		var predictions []byte
		if err := rows.Scan(&entry.ID, &entry.RequestTime, &entry.HorizonDays, &entry.Version, &predictions); err != nil {
			return nil, fmt.Errorf("failed to scan prediction log entry: %w", err)
		}
		if err := json.Unmarshal(predictions, &entry.Predictions); err != nil {
			return nil, fmt.Errorf("failed to decode predictions for entry %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prediction log: %w", err)
	}
	return entries, nil
}
