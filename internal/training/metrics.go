package training

import (
	"fmt"
	"math"

	"github.com/fuelcast/fuelcast-go/internal/models"
)

// Evaluate computes validation metrics comparing predictions against
// actuals. MAPE excludes zero actuals from its denominator; RMSE and MAE
// always cover every pair.
func Evaluate(actuals, predictions []float64) (models.Metrics, error) {
	if len(actuals) == 0 {
		return models.Metrics{}, fmt.Errorf("cannot evaluate an empty validation partition")
	}
	if len(actuals) != len(predictions) {
		return models.Metrics{}, fmt.Errorf("got %d predictions for %d actuals", len(predictions), len(actuals))
	}

	var sqSum, absSum, pctSum float64
	pctCount := 0
	for i, actual := range actuals {
		diff := predictions[i] - actual
		sqSum += diff * diff
		absSum += math.Abs(diff)
		if actual != 0 {
			pctSum += math.Abs(diff / actual)
			pctCount++
		}
	}

	n := float64(len(actuals))
	metrics := models.Metrics{
		RMSE: math.Sqrt(sqSum / n),
		MAE:  absSum / n,
	}
	if pctCount > 0 {
		metrics.MAPE = pctSum / float64(pctCount) * 100
	}
	return metrics, nil
}
