package models

import "time"

// Metrics holds validation metrics for one trained model. All three are
// "lower is better".
type Metrics struct {
	RMSE float64 `json:"rmse" db:"rmse"`
	MAE  float64 `json:"mae" db:"mae"`
	MAPE float64 `json:"mape" db:"mape"`
}

// MetricValue returns the named metric, or false if the name is unknown.
func (m Metrics) MetricValue(name string) (float64, bool) {
	switch name {
	case "rmse":
		return m.RMSE, true
	case "mae":
		return m.MAE, true
	case "mape":
		return m.MAPE, true
	}
	return 0, false
}

// ModelVersion is one immutable entry in the model registry. A retrain always
// creates a new version; entries are never updated in place. The artifact
// file is referenced by location, not embedded.
type ModelVersion struct {
	ID                int64      `json:"id" db:"id"`
	Version           string     `json:"model_version" db:"model_version"`
	Metrics           Metrics    `json:"metrics"`
	ArtifactLocation  string     `json:"artifact_location" db:"artifact_location"`
	TrainingSamples   int        `json:"training_samples" db:"training_samples"`
	ValidationSamples int        `json:"validation_samples" db:"validation_samples"`
	DataSource        DataSource `json:"data_source" db:"data_source"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// VersionLatest is the selector that resolves to the most recently registered
// model version.
const VersionLatest = "latest"
