// Package mlmodel decodes serialized model artifacts produced by the external
// trainer service and evaluates them locally. An artifact is a JSON document
// describing the input standardization and a stack of dense layers; the
// forecast engine needs nothing more than a deterministic single-row predict.
package mlmodel

import (
	"encoding/json"
	"fmt"
	"math"
)

// Scaler holds per-feature standardization parameters fitted by the trainer.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Layer is one dense layer. Weights are indexed [output][input].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// Artifact is the serialized model contract shared with the trainer service.
type Artifact struct {
	FeatureNames []string `json:"feature_names"`
	Scaler       Scaler   `json:"scaler"`
	Layers       []Layer  `json:"layers"`
}

// Predictor evaluates a decoded artifact.
type Predictor struct {
	artifact Artifact
}

// Decode parses and validates an artifact document.
func Decode(data []byte) (*Predictor, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("malformed artifact JSON: %w", err)
	}
	if err := validate(artifact); err != nil {
		return nil, err
	}
	return &Predictor{artifact: artifact}, nil
}

// FeatureNames returns the input column names the model was trained on.
func (p *Predictor) FeatureNames() []string {
	return p.artifact.FeatureNames
}

// Predict runs one feature vector through the network and returns the single
// regression output.
func (p *Predictor) Predict(vector []float64) (float64, error) {
	if len(vector) != len(p.artifact.FeatureNames) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(vector), len(p.artifact.FeatureNames))
	}

	// Standardize inputs with the trainer's fitted parameters.
	current := make([]float64, len(vector))
	for i, v := range vector {
		current[i] = (v - p.artifact.Scaler.Mean[i]) / p.artifact.Scaler.Std[i]
	}

	for _, layer := range p.artifact.Layers {
		next := make([]float64, len(layer.Bias))
		for out := range layer.Bias {
			sum := layer.Bias[out]
			for in, v := range current {
				sum += layer.Weights[out][in] * v
			}
			next[out] = activate(layer.Activation, sum)
		}
		current = next
	}

	value := current[0]
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("model produced a non-finite prediction")
	}
	return value, nil
}

func activate(name string, x float64) float64 {
	switch name {
	case "relu":
		return math.Max(0, x)
	default: // linear
		return x
	}
}

func validate(artifact Artifact) error {
	inputs := len(artifact.FeatureNames)
	if inputs == 0 {
		return fmt.Errorf("artifact has no feature names")
	}
	if len(artifact.Scaler.Mean) != inputs || len(artifact.Scaler.Std) != inputs {
		return fmt.Errorf("scaler dimensions do not match %d features", inputs)
	}
	for i, std := range artifact.Scaler.Std {
		if std <= 0 {
			return fmt.Errorf("scaler std for feature %d must be positive, got %v", i, std)
		}
	}
	if len(artifact.Layers) == 0 {
		return fmt.Errorf("artifact has no layers")
	}

	width := inputs
	for i, layer := range artifact.Layers {
		if len(layer.Weights) == 0 || len(layer.Weights) != len(layer.Bias) {
			return fmt.Errorf("layer %d has %d weight rows and %d biases", i, len(layer.Weights), len(layer.Bias))
		}
		for _, row := range layer.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d expects %d inputs, weight row has %d", i, width, len(row))
			}
		}
		switch layer.Activation {
		case "relu", "linear", "":
		default:
			return fmt.Errorf("layer %d has unsupported activation %q", i, layer.Activation)
		}
		width = len(layer.Bias)
	}
	if width != 1 {
		return fmt.Errorf("final layer must have one output, got %d", width)
	}
	return nil
}
