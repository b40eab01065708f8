package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBinary(t *testing.T) {
	yTrue := []int{1, 1, 1, 0, 0, 0, 1, 0}
	yPred := []int{1, 1, 0, 0, 0, 1, 1, 0}

	r := EvaluateBinary(yTrue, yPred)
	assert.InDelta(t, 0.75, r.Accuracy, 1e-9)
	assert.InDelta(t, 0.75, r.Precision, 1e-9) // TP=3, FP=1
	assert.InDelta(t, 0.75, r.Recall, 1e-9)    // TP=3, FN=1
	assert.InDelta(t, 0.75, r.F1, 1e-9)
	assert.Equal(t, 3, r.Confusion[1][1])
	assert.Equal(t, 1, r.Confusion[0][1])
}

func TestEvaluateBinary_NoPositivePredictions(t *testing.T) {
	r := EvaluateBinary([]int{1, 0}, []int{0, 0})
	assert.Equal(t, 0.0, r.Precision)
	assert.Equal(t, 0.0, r.Recall)
	assert.Equal(t, 0.0, r.F1)
	assert.InDelta(t, 0.5, r.Accuracy, 1e-9)
}

func TestEvaluateMulticlass(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 2, 2}
	yPred := []int{0, 1, 1, 1, 2, 0}

	r := EvaluateMulticlass(yTrue, yPred, 4)
	assert.InDelta(t, 4.0/6.0, r.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, r.PerClassAccuracy[0], 1e-9)
	assert.InDelta(t, 1.0, r.PerClassAccuracy[1], 1e-9)
	assert.InDelta(t, 0.5, r.PerClassAccuracy[2], 1e-9)
	assert.Equal(t, 0.0, r.PerClassAccuracy[3])
	assert.Equal(t, 1, r.Confusion[0][1])
}

func TestEvaluateRegression(t *testing.T) {
	yTrue := []float64{10, 20, 30}
	yPred := []float64{12, 20, 27}

	r := EvaluateRegression(yTrue, yPred)
	assert.InDelta(t, 5.0/3.0, r.MAE, 1e-9)
	assert.InDelta(t, math.Sqrt(13.0/3.0), r.RMSE, 1e-9)
	// ssRes=13, ssTot=200
	assert.InDelta(t, 1-13.0/200.0, r.R2, 1e-9)
}

func TestEvaluateRegression_Empty(t *testing.T) {
	r := EvaluateRegression(nil, nil)
	assert.Equal(t, 0.0, r.MAE)
	assert.Equal(t, 0.0, r.RMSE)
}
