package decision

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testArtifact(version string) Artifact {
	a := Artifact{
		Version:      version,
		FeatureOrder: append([]string(nil), domain.FeatureNames[:]...),
		Scaler: ScalerArtifact{
			Mean:  make([]float64, domain.NumFeatures),
			Scale: make([]float64, domain.NumFeatures),
		},
		Classifier: ClassifierArtifact{
			Type:         "logistic",
			Coefficients: make([]float64, domain.NumFeatures),
		},
	}
	for i := range a.Scaler.Scale {
		a.Scaler.Scale[i] = 1
	}
	return a
}

func writeJSON(t *testing.T, path string, a Artifact) {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadModel_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	a := testArtifact("v1")
	a.Classifier.Intercept = 2
	writeJSON(t, path, a)

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", m.Version)

	scaled, err := m.Scaler.Transform(make([]float64, domain.NumFeatures))
	require.NoError(t, err)
	p, err := m.Classifier.PredictProbability(scaled)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), p, 1e-12)
}

func TestLoadModel_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	data, err := yaml.Marshal(testArtifact("v-yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "v-yaml", m.Version)
}

func TestLoadModel_RejectsBadArtifacts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{"feature order swapped", func(a *Artifact) {
			a.FeatureOrder[0], a.FeatureOrder[1] = a.FeatureOrder[1], a.FeatureOrder[0]
		}},
		{"missing feature", func(a *Artifact) { a.FeatureOrder = a.FeatureOrder[1:] }},
		{"short scaler", func(a *Artifact) { a.Scaler.Mean = a.Scaler.Mean[:3] }},
		{"short coefficients", func(a *Artifact) { a.Classifier.Coefficients = nil }},
		{"unknown classifier", func(a *Artifact) { a.Classifier.Type = "forest" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testArtifact("bad")
			tt.mutate(&a)
			path := filepath.Join(t.TempDir(), "model.json")
			writeJSON(t, path, a)

			_, err := LoadModel(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestStandardScaler_ZeroScale(t *testing.T) {
	s := &StandardScaler{Mean: []float64{10, 10}, Scale: []float64{0, 2}}

	out, err := s.Transform([]float64{12, 14})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2}, out)

	_, err = s.Transform([]float64{1})
	assert.Error(t, err)
}

func TestRegistry_ReloadSwapsAndKeepsOldOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writeJSON(t, path, testArtifact("v1"))

	reg, err := NewRegistry(path)
	require.NoError(t, err)
	first, err := reg.Current()
	require.NoError(t, err)
	assert.Equal(t, "v1", first.Version)

	writeJSON(t, path, testArtifact("v2"))
	_, err = reg.Reload()
	require.NoError(t, err)
	second, _ := reg.Current()
	assert.Equal(t, "v2", second.Version)
	assert.Equal(t, "v1", first.Version, "earlier snapshot must stay untouched")

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = reg.Reload()
	assert.Error(t, err)
	current, _ := reg.Current()
	assert.Equal(t, "v2", current.Version)
}

func TestNewRegistry_MissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadModel_ShippedArtifact(t *testing.T) {
	m, err := LoadModel(filepath.Join("..", "..", "models", "risk_model.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, m.Version)

	rec := Decide(domain.FeatureVector{}, m.Scaler, m.Classifier)
	assert.False(t, rec.IsError(), rec.Error)
}
