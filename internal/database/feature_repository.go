package database

import (
	"context"
	"fmt"

	"github.com/fuelcast/fuelcast-go/internal/models"
)

// FeatureRepository persists the derived feature table. The table is fully
// recomputed on every preparation run rather than patched incrementally, so
// any raw-data correction propagates consistently.
type FeatureRepository struct {
	pool DatabasePool
}

// NewFeatureRepository creates a new feature repository.
func NewFeatureRepository(pool DatabasePool) *FeatureRepository {
	return &FeatureRepository{pool: pool}
}

// ReplaceAll swaps the feature table contents for rows inside one
// transaction and returns the number of rows written.
func (r *FeatureRepository) ReplaceAll(ctx context.Context, rows []models.FeatureRow) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin feature transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM processed_features`); err != nil {
		return 0, fmt.Errorf("failed to clear feature table: %w", err)
	}

	for _, row := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO processed_features
				(date, petrol_price, lag_1, lag_2, lag_7, lag_14, rolling_7,
				 crude_oil_price, inr_usd, target)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			row.Date, row.Price, row.Lag1, row.Lag2, row.Lag7, row.Lag14,
			row.Rolling7, row.CrudeOilPrice, row.INRUSD, row.Target)
		if err != nil {
			return 0, fmt.Errorf("failed to insert feature row for %s: %w", row.Date.Format(models.DateLayout), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit feature table: %w", err)
	}
	return len(rows), nil
}

// Count returns the number of persisted feature rows.
func (r *FeatureRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM processed_features`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feature rows: %w", err)
	}
	return count, nil
}
