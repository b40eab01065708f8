package classifier_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"norn-analytics/internal/classifier"
	"norn-analytics/internal/features"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
)

var fallTestParams = ml.Hyperparams{
	NumTrees:        10,
	MaxDepth:        8,
	MinSamplesSplit: 5,
	MinSamplesLeaf:  2,
	Seed:            42,
}

func newUntrainedFall(t *testing.T) *classifier.Fall {
	t.Helper()
	mgr := ml.NewClassifierManager(
		filepath.Join(t.TempDir(), "fall"), fallTestParams, ml.FallNumClasses, zap.NewNop())
	return classifier.NewFall(10, mgr, zap.NewNop())
}

func fallSample(motion, movement, dwell, fallStatus int) models.FallSample {
	return models.FallSample{
		Existence:       1,
		Motion:          motion,
		BodyMovement:    movement,
		StationaryDwell: dwell,
		FallStatus:      fallStatus,
	}
}

func TestFall_InsufficientDataReturnsNativeFlag(t *testing.T) {
	f := newUntrainedFall(t)

	v := f.Predict(fallSample(2, 10, 0, 1))
	require.Equal(t, models.PatternInsufficientData, v.Analysis.Pattern)
	assert.True(t, v.IsRealFall)
	assert.Equal(t, 0.5, v.Confidence)

	v = f.Predict(fallSample(2, 10, 0, 0))
	require.Equal(t, models.PatternInsufficientData, v.Analysis.Pattern)
	assert.False(t, v.IsRealFall)
	assert.Equal(t, 0.5, v.Confidence)
}

func TestFall_VeryHighMovementYieldsHighestConfidence(t *testing.T) {
	f := newUntrainedFall(t)
	f.Predict(fallSample(2, 10, 0, 0))
	f.Predict(fallSample(2, 70, 0, 0))

	v := f.Predict(fallSample(0, 70, 6, 0))
	require.Equal(t, models.PatternRealFallLikely, v.Analysis.Pattern)
	assert.True(t, v.IsRealFall)
	assert.Equal(t, 0.95, v.Confidence)
}

func TestFall_NormalActivity(t *testing.T) {
	f := newUntrainedFall(t)
	f.Predict(fallSample(2, 20, 0, 0))
	f.Predict(fallSample(2, 20, 0, 0))

	v := f.Predict(fallSample(2, 20, 0, 0))
	require.Equal(t, models.PatternNormalActivity, v.Analysis.Pattern)
	assert.False(t, v.IsRealFall)
	assert.Equal(t, 0.60, v.Confidence)
}

func TestFall_SensorFalsePositive(t *testing.T) {
	f := newUntrainedFall(t)
	f.Predict(fallSample(2, 10, 0, 0))
	f.Predict(fallSample(2, 10, 0, 0))

	v := f.Predict(fallSample(2, 10, 0, 1))
	require.Equal(t, models.PatternSensorFalsePositive, v.Analysis.Pattern)
	assert.False(t, v.IsRealFall)
	assert.Equal(t, 0.75, v.Confidence)
}

func TestFall_ConfidenceAlwaysInRange(t *testing.T) {
	f := newUntrainedFall(t)
	extremes := []models.FallSample{
		fallSample(2, 255, 0, 1),
		fallSample(0, 0, 255, 0),
		fallSample(1, 255, 255, 1),
		fallSample(2, 0, 0, 0),
		fallSample(0, 255, 1, 1),
	}
	for _, s := range extremes {
		v := f.Predict(s)
		assert.GreaterOrEqual(t, v.Confidence, 0.0)
		assert.LessOrEqual(t, v.Confidence, 1.0)
	}
}

// 构造恒定读数的窗口并提取特征，用作训练样本
func fallTrainingData(t *testing.T) ([][]float64, []int) {
	t.Helper()
	var X [][]float64
	var y []int
	for i := 0; i < 20; i++ {
		calm := make([]models.FallSample, 10)
		for j := range calm {
			calm[j] = fallSample(2, 5+i%3, 0, 0)
		}
		vec, err := features.ExtractFall(calm)
		require.NoError(t, err)
		X = append(X, vec)
		y = append(y, 0)

		fell := make([]models.FallSample, 10)
		for j := range fell {
			fell[j] = fallSample(0, 80+i%3, 5, 1)
		}
		vec, err = features.ExtractFall(fell)
		require.NoError(t, err)
		X = append(X, vec)
		y = append(y, 1)
	}
	return X, y
}

func TestFall_TrainedModelPath(t *testing.T) {
	mgr := ml.NewClassifierManager(
		filepath.Join(t.TempDir(), "fall"), fallTestParams, ml.FallNumClasses, zap.NewNop())
	X, y := fallTrainingData(t)
	_, err := mgr.Train(X, y)
	require.NoError(t, err)

	f := classifier.NewFall(10, mgr, zap.NewNop())
	var v models.FallVerdict
	for i := 0; i < 10; i++ {
		v = f.Predict(fallSample(2, 5, 0, 0))
	}
	assert.False(t, v.IsRealFall)
	assert.GreaterOrEqual(t, v.Confidence, 0.0)
	assert.LessOrEqual(t, v.Confidence, 1.0)
	// 解释性元数据仍来自模式分析
	assert.Equal(t, models.PatternNormalActivity, v.Analysis.Pattern)
}

func TestFall_ClearResetsWindow(t *testing.T) {
	f := newUntrainedFall(t)
	for i := 0; i < 5; i++ {
		f.Predict(fallSample(2, 10, 0, 0))
	}
	f.Clear()

	v := f.Predict(fallSample(2, 10, 0, 0))
	assert.Equal(t, models.PatternInsufficientData, v.Analysis.Pattern)
	assert.Equal(t, 1, v.Analysis.BufferSize)
}
