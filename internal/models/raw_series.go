package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates. All series are keyed by
// calendar date at day granularity with no timezone component.
const DateLayout = "2006-01-02"

// Day normalizes t to midnight UTC so dates compare and subtract cleanly.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RawPricePoint is one observed petrol price, keyed by date. Points are
// written by ingestion and immutable afterward; corrections are upserts by
// date.
type RawPricePoint struct {
	Date      time.Time       `json:"date" db:"date"`
	Price     decimal.Decimal `json:"petrol_price" db:"petrol_price"`
	Source    DataSource      `json:"source" db:"source"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// RawCovariatePoint holds the exogenous series values for one date. Either
// covariate may be missing for a given date; the feature builder carries the
// most recent prior value forward.
type RawCovariatePoint struct {
	Date          time.Time        `json:"date" db:"date"`
	CrudeOilPrice *decimal.Decimal `json:"crude_oil_price,omitempty" db:"crude_oil_price"`
	INRUSD        *decimal.Decimal `json:"inr_usd,omitempty" db:"inr_usd"`
	Source        DataSource       `json:"source" db:"source"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// RawSeries bundles the two raw inputs to the feature builder.
type RawSeries struct {
	Prices     []RawPricePoint
	Covariates []RawCovariatePoint
}
