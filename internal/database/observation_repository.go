package database

import (
	"context"
	"fmt"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// ObservationRepository reads and writes the raw observation tables. Raw
// points are immutable once written; corrections are upserts by date.
type ObservationRepository struct {
	pool DatabasePool
}

// NewObservationRepository creates a new observation repository.
func NewObservationRepository(pool DatabasePool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// GetRawSeries loads both raw series filtered by the source selector,
// ordered by date ascending.
func (r *ObservationRepository) GetRawSeries(ctx context.Context, source models.DataSource) (*models.RawSeries, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("invalid data source %q", source)
	}

	priceQuery := `
		SELECT date, petrol_price, source, created_at
		FROM raw_petrol_prices`
	covariateQuery := `
		SELECT date, crude_oil_price, inr_usd, source, created_at
		FROM raw_covariates`
	var args []interface{}
	if source != models.SourceCombined {
		priceQuery += ` WHERE source = $1`
		covariateQuery += ` WHERE source = $1`
		args = append(args, string(source))
	}
	priceQuery += ` ORDER BY date ASC`
	covariateQuery += ` ORDER BY date ASC`

	series := &models.RawSeries{}

	rows, err := r.pool.Query(ctx, priceQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p models.RawPricePoint
		if err := rows.Scan(&p.Date, &p.Price, &p.Source, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan raw price: %w", err)
		}
		series.Prices = append(series.Prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw prices: %w", err)
	}

	covRows, err := r.pool.Query(ctx, covariateQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw covariates: %w", err)
	}
	defer covRows.Close()
	for covRows.Next() {
		var c models.RawCovariatePoint
		if err := covRows.Scan(&c.Date, &c.CrudeOilPrice, &c.INRUSD, &c.Source, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan raw covariate: %w", err)
		}
		series.Covariates = append(series.Covariates, c)
	}
	if err := covRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw covariates: %w", err)
	}

	return series, nil
}

// RecentPrices returns the newest limit price points, newest first. The
// forecast engine uses this to seed its rolling window.
func (r *ObservationRepository) RecentPrices(ctx context.Context, limit int) ([]models.RawPricePoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, petrol_price, source, created_at
		FROM raw_petrol_prices
		ORDER BY date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent prices: %w", err)
	}
	defer rows.Close()

	var points []models.RawPricePoint
	for rows.Next() {
		var p models.RawPricePoint
		if err := rows.Scan(&p.Date, &p.Price, &p.Source, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent price: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent prices: %w", err)
	}
	if len(points) == 0 {
		return nil, &apperrors.DataInsufficientError{Rows: 0, Minimum: 1}
	}
	return points, nil
}

// LatestCovariates returns the most recent known value of each covariate.
// They are held constant across a forecast horizon.
func (r *ObservationRepository) LatestCovariates(ctx context.Context) (crude float64, inrUSD float64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT crude_oil_price FROM raw_covariates
			 WHERE crude_oil_price IS NOT NULL ORDER BY date DESC LIMIT 1),
			(SELECT inr_usd FROM raw_covariates
			 WHERE inr_usd IS NOT NULL ORDER BY date DESC LIMIT 1)`).Scan(&crude, &inrUSD)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query latest covariates: %w", err)
	}
	return crude, inrUSD, nil
}

// UpsertPrices inserts or updates raw price points by date and returns the
// number of points written.
func (r *ObservationRepository) UpsertPrices(ctx context.Context, points []models.RawPricePoint) (int, error) {
	count := 0
	for _, p := range points {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO raw_petrol_prices (date, petrol_price, source)
			VALUES ($1, $2, $3)
			ON CONFLICT (date) DO UPDATE
			SET petrol_price = EXCLUDED.petrol_price, source = EXCLUDED.source`,
			models.Day(p.Date), p.Price, string(p.Source))
		if err != nil {
			return count, fmt.Errorf("failed to upsert price for %s: %w", p.Date.Format(models.DateLayout), err)
		}
		count++
	}
	return count, nil
}

// UpsertCovariates inserts or updates covariate points by date and returns
// the number of points written.
func (r *ObservationRepository) UpsertCovariates(ctx context.Context, points []models.RawCovariatePoint) (int, error) {
	count := 0
	for _, p := range points {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO raw_covariates (date, crude_oil_price, inr_usd, source)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (date) DO UPDATE
			SET crude_oil_price = COALESCE(EXCLUDED.crude_oil_price, raw_covariates.crude_oil_price),
			    inr_usd = COALESCE(EXCLUDED.inr_usd, raw_covariates.inr_usd),
			    source = EXCLUDED.source`,
			models.Day(p.Date), p.CrudeOilPrice, p.INRUSD, string(p.Source))
		if err != nil {
			return count, fmt.Errorf("failed to upsert covariate for %s: %w", p.Date.Format(models.DateLayout), err)
		}
		count++
	}
	return count, nil
}
