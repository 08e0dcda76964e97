// Package services holds read-side summary services that sit between the
// repositories and the HTTP layer.
package services

import (
	"context"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

const (
	shortPeriod = 7
	longPeriod  = 14
	// trendLookbackDays bounds how much history the summary reads.
	trendLookbackDays = 90
)

// PriceReader loads recent observed prices, newest first.
type PriceReader interface {
	RecentPrices(ctx context.Context, limit int) ([]models.RawPricePoint, error)
}

// TrendSummary is a dashboard-style snapshot of the observed price series.
type TrendSummary struct {
	LatestDate  string          `json:"latest_date"`
	LatestPrice decimal.Decimal `json:"latest_price"`
	SMA7        decimal.Decimal `json:"sma_7"`
	SMA14       decimal.Decimal `json:"sma_14"`
	EMA7        decimal.Decimal `json:"ema_7"`
	RSI14       decimal.Decimal `json:"rsi_14"`
	Direction   string          `json:"direction"` // "rising", "falling" or "flat"
	Samples     int             `json:"samples"`
}

// TrendService computes trend summaries over the raw price series.
type TrendService struct {
	prices PriceReader
	logger *logrus.Logger
}

// NewTrendService creates a trend service.
func NewTrendService(prices PriceReader, logger *logrus.Logger) *TrendService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TrendService{prices: prices, logger: logger}
}

// Summary computes the latest indicator values. RSI needs one extra sample
// beyond its period, so at least longPeriod+1 observations are required.
func (s *TrendService) Summary(ctx context.Context) (*TrendSummary, error) {
	points, err := s.prices.RecentPrices(ctx, trendLookbackDays)
	if err != nil {
		return nil, err
	}
	if len(points) < longPeriod+1 {
		return nil, &apperrors.DataInsufficientError{Rows: len(points), Minimum: longPeriod + 1}
	}

	// Points arrive newest first; indicators consume ascending series.
	values := make([]float64, len(points))
	for i, p := range points {
		values[len(points)-1-i], _ = p.Price.Float64()
	}

	sma7 := lastValue(helper.ChanToSlice(trend.NewSmaWithPeriod[float64](shortPeriod).Compute(helper.SliceToChan(values))))
	sma14 := lastValue(helper.ChanToSlice(trend.NewSmaWithPeriod[float64](longPeriod).Compute(helper.SliceToChan(values))))
	ema7 := lastValue(helper.ChanToSlice(trend.NewEmaWithPeriod[float64](shortPeriod).Compute(helper.SliceToChan(values))))
	rsi14 := lastValue(helper.ChanToSlice(momentum.NewRsiWithPeriod[float64](longPeriod).Compute(helper.SliceToChan(values))))

	latest := values[len(values)-1]
	direction := "flat"
	switch {
	case latest > sma7:
		direction = "rising"
	case latest < sma7:
		direction = "falling"
	}

	return &TrendSummary{
		LatestDate:  points[0].Date.Format(models.DateLayout),
		LatestPrice: points[0].Price,
		SMA7:        decimal.NewFromFloat(sma7).Round(4),
		SMA14:       decimal.NewFromFloat(sma14).Round(4),
		EMA7:        decimal.NewFromFloat(ema7).Round(4),
		RSI14:       decimal.NewFromFloat(rsi14).Round(4),
		Direction:   direction,
		Samples:     len(points),
	}, nil
}

func lastValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
