package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("unknown model type", func(t *testing.T) {
		path := writeArtifact(t, `{"model_type":"svm"}`)
		_, err := Load(path)
		assert.ErrorContains(t, err, "unsupported model_type")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := writeArtifact(t, `{"model_type":`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLogistic(t *testing.T) {
	t.Run("zero margin scores one half", func(t *testing.T) {
		path := writeArtifact(t, `{"model_type":"logistic","weights":[1,1],"intercept":0}`)
		est, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 2, est.NumFeatures())

		p, err := est.PredictProba([]float64{0, 0})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, p, 1e-12)
	})

	t.Run("standardization shifts the margin", func(t *testing.T) {
		path := writeArtifact(t, `{"model_type":"logistic","weights":[2],"intercept":0,"means":[10],"scales":[5]}`)
		est, err := Load(path)
		require.NoError(t, err)

		// x=15 standardizes to 1, margin 2, sigmoid(2).
		p, err := est.PredictProba([]float64{15})
		require.NoError(t, err)
		assert.InDelta(t, 1/(1+math.Exp(-2)), p, 1e-12)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		path := writeArtifact(t, `{"model_type":"logistic","weights":[0.3,-0.7,0.1],"intercept":-1.2}`)
		est, err := Load(path)
		require.NoError(t, err)

		first, err := est.PredictProba([]float64{1, 2, 3})
		require.NoError(t, err)
		second, err := est.PredictProba([]float64{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("feature count mismatch", func(t *testing.T) {
		path := writeArtifact(t, `{"model_type":"logistic","weights":[1,2],"intercept":0}`)
		est, err := Load(path)
		require.NoError(t, err)

		_, err = est.PredictProba([]float64{1})
		assert.Error(t, err)
	})

	t.Run("rejects zero scale", func(t *testing.T) {
		path := writeArtifact(t, `{"model_type":"logistic","weights":[1],"intercept":0,"means":[0],"scales":[0]}`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestGradientBoosting(t *testing.T) {
	// Single stump: x0 <= 0.5 -> -2.0, else +2.0.
	const stump = `{
		"model_type": "gradient_boosting",
		"num_features": 2,
		"base_score": 0,
		"learning_rate": 0.5,
		"trees": [[
			{"feature_idx": 0, "threshold": 0.5, "left_child": 1, "right_child": 2, "is_leaf": false},
			{"value": -2.0, "is_leaf": true},
			{"value": 2.0, "is_leaf": true}
		]]
	}`

	t.Run("margin is base plus scaled leaf", func(t *testing.T) {
		est, err := Load(writeArtifact(t, stump))
		require.NoError(t, err)

		low, err := est.PredictProba([]float64{0, 9})
		require.NoError(t, err)
		assert.InDelta(t, 1/(1+math.Exp(1)), low, 1e-12, "left leaf: sigmoid(0.5*-2)")

		high, err := est.PredictProba([]float64{1, 9})
		require.NoError(t, err)
		assert.InDelta(t, 1/(1+math.Exp(-1)), high, 1e-12, "right leaf: sigmoid(0.5*2)")
	})

	t.Run("probability stays inside the unit interval", func(t *testing.T) {
		est, err := Load(writeArtifact(t, stump))
		require.NoError(t, err)

		p, err := est.PredictProba([]float64{math.MaxFloat64, 0})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	})

	t.Run("rejects out-of-range feature index", func(t *testing.T) {
		bad := `{
			"model_type": "gradient_boosting",
			"num_features": 1,
			"trees": [[
				{"feature_idx": 3, "threshold": 0, "left_child": 1, "right_child": 2, "is_leaf": false},
				{"value": 0, "is_leaf": true},
				{"value": 0, "is_leaf": true}
			]]
		}`
		_, err := Load(writeArtifact(t, bad))
		assert.Error(t, err)
	})

	t.Run("rejects backward child references", func(t *testing.T) {
		bad := `{
			"model_type": "gradient_boosting",
			"num_features": 1,
			"trees": [[
				{"feature_idx": 0, "threshold": 0, "left_child": 0, "right_child": 1, "is_leaf": false},
				{"value": 0, "is_leaf": true}
			]]
		}`
		_, err := Load(writeArtifact(t, bad))
		assert.Error(t, err)
	})

	t.Run("rejects empty ensemble", func(t *testing.T) {
		_, err := Load(writeArtifact(t, `{"model_type":"gradient_boosting","num_features":1,"trees":[]}`))
		assert.Error(t, err)
	})
}
