package features

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// dailyPrices builds n consecutive daily observations starting at testStart
// with prices 100.0, 100.5, 101.0, ...
func dailyPrices(n int) []models.RawPricePoint {
	points := make([]models.RawPricePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, models.RawPricePoint{
			Date:   testStart.AddDate(0, 0, i),
			Price:  decimal.NewFromFloat(100.0 + 0.5*float64(i)),
			Source: models.SourceMarket,
		})
	}
	return points
}

// dailyCovariates builds covariates for every one of the n days.
func dailyCovariates(n int) []models.RawCovariatePoint {
	points := make([]models.RawCovariatePoint, 0, n)
	for i := 0; i < n; i++ {
		crude := decimal.NewFromFloat(80.0 + 0.1*float64(i))
		inr := decimal.NewFromFloat(83.0)
		points = append(points, models.RawCovariatePoint{
			Date:          testStart.AddDate(0, 0, i),
			CrudeOilPrice: &crude,
			INRUSD:        &inr,
		})
	}
	return points
}

func TestBuild_SeventyDaysYieldsFiftyFiveRows(t *testing.T) {
	builder := NewBuilder(1, nil)
	rows, err := builder.Build(models.RawSeries{
		Prices:     dailyPrices(70),
		Covariates: dailyCovariates(70),
	})
	require.NoError(t, err)

	// 14 rows lost to the largest lag, 1 lost to the shift target on the
	// final date.
	assert.Len(t, rows, 55)
	assert.Equal(t, testStart.AddDate(0, 0, 14), rows[0].Date)
	assert.Equal(t, testStart.AddDate(0, 0, 68), rows[len(rows)-1].Date)
}

func TestBuild_LagValuesMatchCalendarOffsets(t *testing.T) {
	builder := NewBuilder(1, nil)
	rows, err := builder.Build(models.RawSeries{
		Prices:     dailyPrices(70),
		Covariates: dailyCovariates(70),
	})
	require.NoError(t, err)

	priceAt := func(d time.Time) float64 {
		offset := int(d.Sub(testStart).Hours() / 24)
		return 100.0 + 0.5*float64(offset)
	}

	for _, row := range rows {
		assert.InDelta(t, priceAt(row.Date.AddDate(0, 0, -1)), row.Lag1, 1e-9)
		assert.InDelta(t, priceAt(row.Date.AddDate(0, 0, -2)), row.Lag2, 1e-9)
		assert.InDelta(t, priceAt(row.Date.AddDate(0, 0, -7)), row.Lag7, 1e-9)
		assert.InDelta(t, priceAt(row.Date.AddDate(0, 0, -14)), row.Lag14, 1e-9)
		assert.InDelta(t, priceAt(row.Date.AddDate(0, 0, 1)), row.Target, 1e-9)

		// Trailing mean over the row date and the 6 days before it. With a
		// linear series that is the value 3 days back.
		assert.InDelta(t, priceAt(row.Date.AddDate(0, 0, -3)), row.Rolling7, 1e-9)
	}
}

func TestBuild_MissingCalendarDateExcludesDependentRows(t *testing.T) {
	prices := dailyPrices(40)
	// Remove day 20 entirely. Lags target the exact calendar offset, so any
	// row whose lag, rolling window or target lands on day 20 is excluded.
	gap := testStart.AddDate(0, 0, 20)
	kept := prices[:0]
	for _, p := range prices {
		if !p.Date.Equal(gap) {
			kept = append(kept, p)
		}
	}

	builder := NewBuilder(1, nil)
	rows, err := builder.Build(models.RawSeries{
		Prices:     kept,
		Covariates: dailyCovariates(40),
	})
	require.NoError(t, err)

	for _, row := range rows {
		assert.False(t, row.Date.Equal(gap), "row for removed date must not exist")
		for _, lag := range LagDays {
			assert.False(t, row.Date.AddDate(0, 0, -lag).Equal(gap),
				"row %s depends on removed lag date", row.Date.Format(models.DateLayout))
		}
		for i := 0; i < RollingWindowDays; i++ {
			assert.False(t, row.Date.AddDate(0, 0, -i).Equal(gap),
				"row %s depends on removed rolling date", row.Date.Format(models.DateLayout))
		}
		assert.False(t, row.Date.AddDate(0, 0, 1).Equal(gap),
			"row %s depends on removed target date", row.Date.Format(models.DateLayout))
	}
}

func TestBuild_CovariatesForwardFilled(t *testing.T) {
	// Covariates only on days 0, 3 and 30; prices daily.
	crude0, crude3, crude30 := decimal.NewFromFloat(78.0), decimal.NewFromFloat(81.0), decimal.NewFromFloat(85.0)
	inr := decimal.NewFromFloat(83.2)
	covariates := []models.RawCovariatePoint{
		{Date: testStart, CrudeOilPrice: &crude0, INRUSD: &inr},
		{Date: testStart.AddDate(0, 0, 3), CrudeOilPrice: &crude3, INRUSD: &inr},
		{Date: testStart.AddDate(0, 0, 30), CrudeOilPrice: &crude30, INRUSD: &inr},
	}

	builder := NewBuilder(1, nil)
	rows, err := builder.Build(models.RawSeries{
		Prices:     dailyPrices(50),
		Covariates: covariates,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		want := 81.0
		if !row.Date.Before(testStart.AddDate(0, 0, 30)) {
			want = 85.0
		}
		assert.InDelta(t, want, row.CrudeOilPrice, 1e-9, "date %s", row.Date.Format(models.DateLayout))
		assert.InDelta(t, 83.2, row.INRUSD, 1e-9)
	}
}

func TestBuild_NoPriorCovariateDropsRow(t *testing.T) {
	// Covariates start on day 20: every earlier date has no prior value to
	// carry forward and cannot produce a row.
	crude := decimal.NewFromFloat(80.0)
	inr := decimal.NewFromFloat(83.0)
	covariates := []models.RawCovariatePoint{
		{Date: testStart.AddDate(0, 0, 20), CrudeOilPrice: &crude, INRUSD: &inr},
	}

	builder := NewBuilder(1, nil)
	rows, err := builder.Build(models.RawSeries{
		Prices:     dailyPrices(50),
		Covariates: covariates,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, testStart.AddDate(0, 0, 20), rows[0].Date)
}

func TestBuild_PureFunction(t *testing.T) {
	series := models.RawSeries{
		Prices:     dailyPrices(70),
		Covariates: dailyCovariates(70),
	}

	builder := NewBuilder(1, nil)
	first, err := builder.Build(series)
	require.NoError(t, err)
	second, err := builder.Build(series)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_BelowMinimumFails(t *testing.T) {
	builder := NewBuilder(60, nil)
	// 20 days of prices produce 5 valid rows (days 14..18), below the
	// configured minimum of 60.
	_, err := builder.Build(models.RawSeries{
		Prices:     dailyPrices(20),
		Covariates: dailyCovariates(20),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsDataInsufficient(err))

	var insufficient *apperrors.DataInsufficientError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Rows)
	assert.Equal(t, 60, insufficient.Minimum)
}

func TestBuild_EmptyInput(t *testing.T) {
	builder := NewBuilder(1, nil)
	_, err := builder.Build(models.RawSeries{})
	assert.True(t, apperrors.IsDataInsufficient(err))
}
