package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// seedPoints returns days consecutive points ending at latest, newest first,
// priced 100, 99, 98, ... going back in time.
func seedPoints(latest time.Time, days int) []models.RawPricePoint {
	points := make([]models.RawPricePoint, 0, days)
	for i := 0; i < days; i++ {
		points = append(points, models.RawPricePoint{
			Date:  latest.AddDate(0, 0, -i),
			Price: decimal.NewFromFloat(100 - float64(i)),
		})
	}
	return points
}

func TestNewWindow(t *testing.T) {
	latest := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	w, err := NewWindow(seedPoints(latest, SeedDays))
	require.NoError(t, err)
	assert.Equal(t, latest, w.Latest())

	v, ok := w.ValueAt(latest)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
	v, ok = w.ValueAt(latest.AddDate(0, 0, -14))
	require.True(t, ok)
	assert.Equal(t, 86.0, v)
}

func TestNewWindow_RejectsGaps(t *testing.T) {
	latest := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	points := seedPoints(latest, SeedDays)
	// Knock out a day in the middle of the seed span.
	points = append(points[:5], points[6:]...)

	_, err := NewWindow(points)
	assert.True(t, apperrors.IsDataInsufficient(err))
}

func TestNewWindow_Empty(t *testing.T) {
	_, err := NewWindow(nil)
	assert.True(t, apperrors.IsDataInsufficient(err))
}

func TestWindow_AdvanceIsImmutable(t *testing.T) {
	latest := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	w, err := NewWindow(seedPoints(latest, SeedDays))
	require.NoError(t, err)

	next := w.Advance(latest.AddDate(0, 0, 1), 104.5)

	assert.Equal(t, latest, w.Latest(), "original window must not move")
	_, ok := w.ValueAt(latest.AddDate(0, 0, 1))
	assert.False(t, ok, "original window must not see the new value")

	assert.Equal(t, latest.AddDate(0, 0, 1), next.Latest())
	v, ok := next.ValueAt(latest.AddDate(0, 0, 1))
	require.True(t, ok)
	assert.Equal(t, 104.5, v)
}

func TestWindow_AdvanceDropsStaleEntries(t *testing.T) {
	latest := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	w, err := NewWindow(seedPoints(latest, SeedDays))
	require.NoError(t, err)

	oldest := latest.AddDate(0, 0, -14)
	next := w.Advance(latest.AddDate(0, 0, 1), 104.5)

	_, ok := w.ValueAt(oldest)
	assert.True(t, ok)
	_, ok = next.ValueAt(oldest)
	assert.False(t, ok, "entry beyond the deepest lag should be dropped")
	_, ok = next.ValueAt(oldest.AddDate(0, 0, 1))
	assert.True(t, ok)
}

func TestWindow_FeatureVectorOrder(t *testing.T) {
	latest := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	w, err := NewWindow(seedPoints(latest, SeedDays))
	require.NoError(t, err)

	target := latest.AddDate(0, 0, 1)
	vector, err := w.featureVector(target, 80.5, 83.2)
	require.NoError(t, err)
	require.Len(t, vector, len(models.FeatureColumns))

	// Prices fall by 1 per day back in time from 100 at the latest date,
	// so lag_k relative to the target date is 101 - k and the mean of the
	// seven most recent values is the value three days before the target.
	assert.Equal(t, 100.0, vector[0])
	assert.Equal(t, 99.0, vector[1])
	assert.Equal(t, 94.0, vector[2])
	assert.Equal(t, 87.0, vector[3])
	assert.InDelta(t, 97.0, vector[4], 1e-9)
	assert.Equal(t, 80.5, vector[5])
	assert.Equal(t, 83.2, vector[6])
}

func TestWindow_FeatureVectorFeedsBackLatestValue(t *testing.T) {
	latest := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	w, err := NewWindow(seedPoints(latest, SeedDays))
	require.NoError(t, err)

	next := w.Advance(latest.AddDate(0, 0, 1), 123.4)

	vector, err := next.featureVector(next.Latest().AddDate(0, 0, 1), 80.5, 83.2)
	require.NoError(t, err)
	assert.Equal(t, 123.4, vector[0], "lag_1 must be the value pushed one step earlier")
}
