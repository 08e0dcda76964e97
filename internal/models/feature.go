package models

import "time"

// FeatureColumns names the predictor columns, in the order the model expects
// them. The row date's own price is persisted for inspection and window
// seeding but is not part of the input vector.
var FeatureColumns = []string{
	"lag_1", "lag_2", "lag_7", "lag_14", "rolling_7", "crude_oil_price", "inr_usd",
}

// FeatureRow is one supervised training sample. Lags are calendar-date
// lookups into the target series (lag_k = price at date−k days), rolling_7 is
// the trailing 7-day mean anchored at Date inclusive, and Target is the price
// one day ahead. A row only exists when every one of those is computable.
type FeatureRow struct {
	Date          time.Time `json:"date" db:"date"`
	Price         float64   `json:"petrol_price" db:"petrol_price"`
	Lag1          float64   `json:"lag_1" db:"lag_1"`
	Lag2          float64   `json:"lag_2" db:"lag_2"`
	Lag7          float64   `json:"lag_7" db:"lag_7"`
	Lag14         float64   `json:"lag_14" db:"lag_14"`
	Rolling7      float64   `json:"rolling_7" db:"rolling_7"`
	CrudeOilPrice float64   `json:"crude_oil_price" db:"crude_oil_price"`
	INRUSD        float64   `json:"inr_usd" db:"inr_usd"`
	Target        float64   `json:"target" db:"target"`
}

// Vector returns the predictor values in FeatureColumns order.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.Lag1, r.Lag2, r.Lag7, r.Lag14, r.Rolling7, r.CrudeOilPrice, r.INRUSD}
}
