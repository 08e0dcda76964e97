// Package features turns raw petrol price and covariate observations into a
// supervised feature matrix for next-day price regression.
package features

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// LagDays are the calendar-day lag offsets computed for every row.
var LagDays = []int{1, 2, 7, 14}

const (
	// MaxLagDays is the largest lag offset; rows need this much history.
	MaxLagDays = 14
	// RollingWindowDays is the span of the trailing rolling mean, anchored
	// at the row date inclusive.
	RollingWindowDays = 7
)

// Builder computes feature rows from raw series. Given identical input it
// produces identical output: no randomness, no I/O, no clock reads.
type Builder struct {
	minRows int
	logger  *logrus.Logger
}

// NewBuilder creates a feature builder that fails with DataInsufficientError
// when fewer than minRows valid rows can be produced.
func NewBuilder(minRows int, logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Builder{minRows: minRows, logger: logger}
}

// Build joins the raw series by date, forward-fills covariate gaps, and
// computes lag, rolling and target columns. A row is emitted for a date only
// when every lag date exists, the full rolling window exists, both covariates
// have a value at or before the date, and the next day's price is known.
func (b *Builder) Build(series models.RawSeries) ([]models.FeatureRow, error) {
	prices, dates := priceByDate(series.Prices)
	if len(dates) == 0 {
		return nil, &apperrors.DataInsufficientError{Rows: 0, Minimum: b.minRows}
	}

	crude := covariateSeries(series.Covariates, func(p models.RawCovariatePoint) (float64, bool) {
		if p.CrudeOilPrice == nil {
			return 0, false
		}
		v, _ := p.CrudeOilPrice.Float64()
		return v, true
	})
	inrUSD := covariateSeries(series.Covariates, func(p models.RawCovariatePoint) (float64, bool) {
		if p.INRUSD == nil {
			return 0, false
		}
		v, _ := p.INRUSD.Float64()
		return v, true
	})

	rows := make([]models.FeatureRow, 0, len(dates))
	for _, date := range dates {
		row, ok := b.buildRow(date, prices, crude, inrUSD)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	b.logger.WithFields(logrus.Fields{
		"raw_dates":  len(dates),
		"valid_rows": len(rows),
	}).Info("Feature build complete")

	if len(rows) < b.minRows {
		return nil, &apperrors.DataInsufficientError{Rows: len(rows), Minimum: b.minRows}
	}
	return rows, nil
}

// buildRow assembles the feature row anchored at date, or reports false when
// any required input is missing.
func (b *Builder) buildRow(date time.Time, prices map[time.Time]float64, crude, inrUSD *covariate) (models.FeatureRow, bool) {
	row := models.FeatureRow{Date: date, Price: prices[date]}

	// Lags are strict calendar-date lookups. A missing calendar date means
	// the lag is undefined and the row is excluded.
	lags := make([]float64, len(LagDays))
	for i, lag := range LagDays {
		v, ok := prices[date.AddDate(0, 0, -lag)]
		if !ok {
			return models.FeatureRow{}, false
		}
		lags[i] = v
	}
	row.Lag1, row.Lag2, row.Lag7, row.Lag14 = lags[0], lags[1], lags[2], lags[3]

	rolling, ok := rollingMean(prices, date, RollingWindowDays)
	if !ok {
		return models.FeatureRow{}, false
	}
	row.Rolling7 = rolling

	// Covariates are forward-filled: the value at the most recent date at
	// or before the row date. No prior value means no row.
	if row.CrudeOilPrice, ok = crude.at(date); !ok {
		return models.FeatureRow{}, false
	}
	if row.INRUSD, ok = inrUSD.at(date); !ok {
		return models.FeatureRow{}, false
	}

	// Supervised shift: the target is tomorrow's price. The newest date has
	// no known next value and is excluded from the training set.
	target, ok := prices[date.AddDate(0, 0, 1)]
	if !ok {
		return models.FeatureRow{}, false
	}
	row.Target = target

	return row, true
}

// rollingMean averages prices over the window days ending at date inclusive.
// Every date in the window must exist.
func rollingMean(prices map[time.Time]float64, date time.Time, window int) (float64, bool) {
	sum := 0.0
	for i := 0; i < window; i++ {
		v, ok := prices[date.AddDate(0, 0, -i)]
		if !ok {
			return 0, false
		}
		sum += v
	}
	return sum / float64(window), true
}

// priceByDate indexes the target series by normalized date and returns the
// sorted distinct dates. The first point wins when a date repeats.
func priceByDate(points []models.RawPricePoint) (map[time.Time]float64, []time.Time) {
	prices := make(map[time.Time]float64, len(points))
	dates := make([]time.Time, 0, len(points))
	for _, p := range points {
		date := models.Day(p.Date)
		if _, seen := prices[date]; seen {
			continue
		}
		v, _ := p.Price.Float64()
		prices[date] = v
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return prices, dates
}

// covariate is one exogenous series prepared for forward-fill lookups.
type covariate struct {
	dates  []time.Time
	values []float64
}

// covariateSeries extracts one covariate column, sorted by date, keeping only
// dates where the column has a value.
func covariateSeries(points []models.RawCovariatePoint, extract func(models.RawCovariatePoint) (float64, bool)) *covariate {
	type obs struct {
		date  time.Time
		value float64
	}
	seen := make(map[time.Time]bool, len(points))
	all := make([]obs, 0, len(points))
	for _, p := range points {
		v, ok := extract(p)
		if !ok {
			continue
		}
		date := models.Day(p.Date)
		if seen[date] {
			continue
		}
		seen[date] = true
		all = append(all, obs{date: date, value: v})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].date.Before(all[j].date) })

	c := &covariate{
		dates:  make([]time.Time, len(all)),
		values: make([]float64, len(all)),
	}
	for i, o := range all {
		c.dates[i] = o.date
		c.values[i] = o.value
	}
	return c
}

// at returns the forward-filled value for date: the observation at the most
// recent date at or before it. False when no prior observation exists.
func (c *covariate) at(date time.Time) (float64, bool) {
	// First index with dates[i] > date; the answer sits just before it.
	idx := sort.Search(len(c.dates), func(i int) bool { return c.dates[i].After(date) })
	if idx == 0 {
		return 0, false
	}
	return c.values[idx-1], true
}
