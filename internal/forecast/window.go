package forecast

import (
	"fmt"
	"time"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/features"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// SeedDays is how many trailing calendar days a window must cover before a
// rollout can start: enough that every lag and rolling lookup for the first
// forecast date lands on an observed value.
const SeedDays = features.MaxLagDays + 1

// Window is an immutable snapshot of recent daily prices keyed by calendar
// date. Advance returns a new Window; existing snapshots are never mutated,
// so a rollout can never contaminate another request's state.
type Window struct {
	prices map[time.Time]float64
	latest time.Time
}

// NewWindow seeds a window from observed price points (any order, duplicates
// by date keep the first seen). Every one of the SeedDays calendar dates
// ending at the newest point must be present; a gap in the seed means lag
// and rolling lookups would silently reach past it, so it is rejected.
func NewWindow(points []models.RawPricePoint) (*Window, error) {
	if len(points) == 0 {
		return nil, &apperrors.DataInsufficientError{Rows: 0, Minimum: SeedDays}
	}

	prices := make(map[time.Time]float64, len(points))
	var latest time.Time
	for _, p := range points {
		day := models.Day(p.Date)
		if _, ok := prices[day]; !ok {
			prices[day], _ = p.Price.Float64()
		}
		if day.After(latest) {
			latest = day
		}
	}

	for offset := 0; offset < SeedDays; offset++ {
		if _, ok := prices[latest.AddDate(0, 0, -offset)]; !ok {
			return nil, &apperrors.DataInsufficientError{Rows: len(prices), Minimum: SeedDays}
		}
	}

	return &Window{prices: prices, latest: latest}, nil
}

// Latest returns the date of the newest value in the window.
func (w *Window) Latest() time.Time {
	return w.latest
}

// ValueAt returns the value for a date, observed or predicted.
func (w *Window) ValueAt(date time.Time) (float64, bool) {
	v, ok := w.prices[models.Day(date)]
	return v, ok
}

// Advance returns a new window extended with one value. Entries older than
// the deepest lag relative to the new latest date are dropped.
func (w *Window) Advance(date time.Time, value float64) *Window {
	day := models.Day(date)
	next := &Window{
		prices: make(map[time.Time]float64, len(w.prices)+1),
		latest: day,
	}
	if w.latest.After(day) {
		next.latest = w.latest
	}
	horizon := next.latest.AddDate(0, 0, -features.MaxLagDays)
	for d, v := range w.prices {
		if !d.Before(horizon) {
			next.prices[d] = v
		}
	}
	next.prices[day] = value
	return next
}

// featureVector assembles the model input for the date being predicted, in
// the order the model was trained on. Every lookup sits strictly before the
// target date, so in a rollout lag_1 is the value predicted one step earlier
// and the rolling mean spans the seven most recent window values.
func (w *Window) featureVector(target time.Time, crude, inrUSD float64) ([]float64, error) {
	target = models.Day(target)
	vector := make([]float64, 0, len(models.FeatureColumns))
	for _, lag := range features.LagDays {
		v, ok := w.prices[target.AddDate(0, 0, -lag)]
		if !ok {
			return nil, fmt.Errorf("window is missing the value %d days before %s", lag, target.Format(models.DateLayout))
		}
		vector = append(vector, v)
	}

	var sum float64
	for offset := 1; offset <= features.RollingWindowDays; offset++ {
		v, ok := w.prices[target.AddDate(0, 0, -offset)]
		if !ok {
			return nil, fmt.Errorf("window is missing the value %d days before %s", offset, target.Format(models.DateLayout))
		}
		sum += v
	}
	vector = append(vector, sum/float64(features.RollingWindowDays))

	return append(vector, crude, inrUSD), nil
}
