package decision

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"gopkg.in/yaml.v3"
)

// Scaler maps a raw feature vector into the classifier's input space.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// Classifier returns the probability that a scaled vector should be approved.
type Classifier interface {
	PredictProbability(x []float64) (float64, error)
}

// Model is one immutable scaler/classifier pair plus its version.
type Model struct {
	Version    string
	Scaler     Scaler
	Classifier Classifier
}

// StandardScaler is z-score standardization with externally fitted parameters.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Transform implements Scaler. A zero scale leaves the centered value unscaled.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) || len(x) != len(s.Scale) {
		return nil, fmt.Errorf("StandardScaler: got %d features, fitted on %d", len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// LogisticClassifier is a binary logistic regression.
type LogisticClassifier struct {
	Intercept    float64
	Coefficients []float64
}

// PredictProbability implements Classifier.
func (c *LogisticClassifier) PredictProbability(x []float64) (float64, error) {
	if len(x) != len(c.Coefficients) {
		return 0, fmt.Errorf("LogisticClassifier: got %d features, want %d", len(x), len(c.Coefficients))
	}
	z := c.Intercept
	for i, v := range x {
		z += c.Coefficients[i] * v
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, fmt.Errorf("LogisticClassifier: probability is NaN")
	}
	return p, nil
}

// Artifact is the on-disk model format (JSON or YAML).
type Artifact struct {
	Version      string             `json:"version" yaml:"version"`
	FeatureOrder []string           `json:"feature_order" yaml:"feature_order"`
	Scaler       ScalerArtifact     `json:"scaler" yaml:"scaler"`
	Classifier   ClassifierArtifact `json:"classifier" yaml:"classifier"`
}

// ScalerArtifact holds fitted standardization parameters.
type ScalerArtifact struct {
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// ClassifierArtifact holds fitted classifier parameters.
type ClassifierArtifact struct {
	Type         string    `json:"type" yaml:"type"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
}

// LoadModel reads an artifact file; ".yaml"/".yml" files are parsed as YAML,
// everything else as JSON.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadModel: reading %s: %w", path, err)
	}

	var a Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &a)
	default:
		err = json.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadModel: parsing %s: %w", path, err)
	}

	m, err := a.Build()
	if err != nil {
		return nil, fmt.Errorf("LoadModel: %s: %w", path, err)
	}
	return m, nil
}

// Build validates the artifact against the current feature order and
// returns the Model it describes.
func (a *Artifact) Build() (*Model, error) {
	if len(a.FeatureOrder) != domain.NumFeatures {
		return nil, fmt.Errorf("artifact has %d features, want %d", len(a.FeatureOrder), domain.NumFeatures)
	}
	for i, name := range domain.FeatureNames {
		if a.FeatureOrder[i] != name {
			return nil, fmt.Errorf("feature %d is %q, want %q", i, a.FeatureOrder[i], name)
		}
	}
	if len(a.Scaler.Mean) != domain.NumFeatures || len(a.Scaler.Scale) != domain.NumFeatures {
		return nil, fmt.Errorf("scaler must have %d mean and scale values", domain.NumFeatures)
	}

	var clf Classifier
	switch a.Classifier.Type {
	case "logistic", "":
		if len(a.Classifier.Coefficients) != domain.NumFeatures {
			return nil, fmt.Errorf("classifier has %d coefficients, want %d", len(a.Classifier.Coefficients), domain.NumFeatures)
		}
		clf = &LogisticClassifier{
			Intercept:    a.Classifier.Intercept,
			Coefficients: append([]float64(nil), a.Classifier.Coefficients...),
		}
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", a.Classifier.Type)
	}

	return &Model{
		Version: a.Version,
		Scaler: &StandardScaler{
			Mean:  append([]float64(nil), a.Scaler.Mean...),
			Scale: append([]float64(nil), a.Scaler.Scale...),
		},
		Classifier: clf,
	}, nil
}
