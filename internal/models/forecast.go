package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ForecastRequest asks for a multi-day forecast. Exactly one of HorizonDays
// or EndDate must be supplied; Version may be an explicit version id or
// "latest".
type ForecastRequest struct {
	HorizonDays int
	EndDate     time.Time
	Version     string
}

// ForecastPoint is one predicted value. Consecutive points in a
// ForecastResult are strictly increasing calendar dates.
type ForecastPoint struct {
	Date  time.Time
	Price float64
}

// MarshalJSON emits the date at day granularity and the price rounded to two
// decimal places, matching the persisted prediction log format.
func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string          `json:"date"`
		Price decimal.Decimal `json:"predicted_price"`
	}{
		Date:  p.Date.Format(DateLayout),
		Price: decimal.NewFromFloat(p.Price).Round(2),
	})
}

// UnmarshalJSON parses the wire form produced by MarshalJSON.
func (p *ForecastPoint) UnmarshalJSON(data []byte) error {
	var wire struct {
		Date  string          `json:"date"`
		Price decimal.Decimal `json:"predicted_price"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	date, err := time.ParseInLocation(DateLayout, wire.Date, time.UTC)
	if err != nil {
		return err
	}
	price, _ := wire.Price.Float64()
	p.Date = date
	p.Price = price
	return nil
}

// ForecastResult is an ordered forecast, one point per day starting the day
// after the latest known observation.
type ForecastResult struct {
	Version     string          `json:"model_version"`
	HorizonDays int             `json:"horizon_days"`
	Predictions []ForecastPoint `json:"predictions"`
}

// PredictionLogEntry is one appended audit record of a served forecast.
// Entries are never mutated.
type PredictionLogEntry struct {
	ID          string          `json:"id" db:"id"`
	RequestTime time.Time       `json:"request_time" db:"request_time"`
	HorizonDays int             `json:"horizon_days" db:"horizon_days"`
	Version     string          `json:"model_version" db:"model_version"`
	Predictions []ForecastPoint `json:"predictions" db:"predictions"`
}
