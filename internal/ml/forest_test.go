package ml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"norn-analytics/internal/ml"
)

var testParams = ml.Hyperparams{
	NumTrees:        20,
	MaxDepth:        8,
	MinSamplesSplit: 5,
	MinSamplesLeaf:  2,
	Seed:            42,
}

// 两类线性可分数据：x < 0 为类 0，x > 0 为类 1
func separableData() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 20; i++ {
		X = append(X, []float64{-5 - float64(i)*0.1, 1})
		y = append(y, 0)
		X = append(X, []float64{5 + float64(i)*0.1, 1})
		y = append(y, 1)
	}
	return X, y
}

func TestClassifier_UntrainedReturnsError(t *testing.T) {
	c := ml.NewClassifier(testParams, 2)
	require.False(t, c.Trained())

	_, _, err := c.PredictClass([]float64{1, 2})
	require.ErrorIs(t, err, ml.ErrModelNotTrained)
}

func TestClassifier_FitAndPredict(t *testing.T) {
	X, y := separableData()
	c := ml.NewClassifier(testParams, 2)
	require.NoError(t, c.Fit(X, y))
	require.True(t, c.Trained())

	pred, probs, err := c.PredictClass([]float64{-6, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, pred)
	assert.Greater(t, probs[0], 0.9)

	pred, probs, err = c.PredictClass([]float64{6, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, pred)
	assert.Greater(t, probs[1], 0.9)

	// 概率分布归一化
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-9)
}

func TestClassifier_DeterministicInference(t *testing.T) {
	X, y := separableData()
	c := ml.NewClassifier(testParams, 2)
	require.NoError(t, c.Fit(X, y))

	x := []float64{-3, 1}
	pred1, probs1, err := c.PredictClass(x)
	require.NoError(t, err)
	pred2, probs2, err := c.PredictClass(x)
	require.NoError(t, err)
	assert.Equal(t, pred1, pred2)
	assert.Equal(t, probs1, probs2)
}

func TestClassifier_Score(t *testing.T) {
	X, y := separableData()
	c := ml.NewClassifier(testParams, 2)
	require.NoError(t, c.Fit(X, y))

	score, err := c.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95)
}

func TestClassifier_FitRejectsBadInput(t *testing.T) {
	c := ml.NewClassifier(testParams, 2)
	require.ErrorIs(t, c.Fit(nil, nil), ml.ErrNoTrainingData)

	err := c.Fit([][]float64{{1}}, []int{5})
	require.Error(t, err)
}

func TestRegressor_FitAndPredict(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, float64(i)*2)
	}

	r := ml.NewRegressor(testParams)
	require.NoError(t, r.Fit(X, y))
	require.True(t, r.Trained())

	pred, err := r.PredictValue([]float64{25})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, pred, 10.0)

	score, err := r.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.8)
}

func TestRegressor_UntrainedReturnsError(t *testing.T) {
	r := ml.NewRegressor(testParams)
	_, err := r.PredictValue([]float64{1})
	require.ErrorIs(t, err, ml.ErrModelNotTrained)
}

func TestStandardScaler_FitTransform(t *testing.T) {
	s := ml.NewStandardScaler()
	require.NoError(t, s.Fit([][]float64{
		{0, 10},
		{2, 10},
		{4, 10},
	}))

	out, err := s.Transform([]float64{2, 10})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out[0], 1e-9)
	// 零方差列除以 1，不产生 NaN
	assert.InDelta(t, 0.0, out[1], 1e-9)
}

func TestStandardScaler_NotFitted(t *testing.T) {
	s := ml.NewStandardScaler()
	_, err := s.Transform([]float64{1})
	require.ErrorIs(t, err, ml.ErrScalerNotFitted)
}

func TestStandardScaler_WidthMismatch(t *testing.T) {
	s := ml.NewStandardScaler()
	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}, {5, 6}}))

	_, err := s.Transform([]float64{1})
	require.Error(t, err)
}
