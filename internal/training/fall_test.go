package training_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
	"norn-analytics/internal/repository"
	"norn-analytics/internal/training"
)

var testParams = ml.Hyperparams{
	NumTrees:        10,
	MaxDepth:        8,
	MinSamplesSplit: 5,
	MinSamplesLeaf:  2,
	Seed:            42,
}

type fakeFallSource struct {
	readings []repository.FallReadingRow
	labels   map[string]map[int64]int
}

func (f *fakeFallSource) FetchFallReadings(ctx context.Context, limit int) ([]repository.FallReadingRow, error) {
	if limit < len(f.readings) {
		return f.readings[:limit], nil
	}
	return f.readings, nil
}

func (f *fakeFallSource) FetchFallLabels(ctx context.Context, deviceID string) (map[int64]int, error) {
	return f.labels[deviceID], nil
}

// 两台设备交替平静与跌倒时段，启发式标注能产出两个类别
func fakeFallReadings() []repository.FallReadingRow {
	var rows []repository.FallReadingRow
	for _, device := range []string{"radar-a", "radar-b"} {
		ts := int64(0)
		for block := 0; block < 8; block++ {
			for i := 0; i < 10; i++ {
				sample := models.FallSample{
					Timestamp:    ts,
					Existence:    1,
					Motion:       2,
					BodyMovement: 4,
				}
				if block%2 == 1 {
					sample.Motion = 0
					sample.BodyMovement = 50
					sample.StationaryDwell = 6
					sample.FallStatus = 1
				}
				rows = append(rows, repository.FallReadingRow{DeviceID: device, Sample: sample})
				ts++
			}
		}
	}
	return rows
}

func TestFallTrainer_Run(t *testing.T) {
	source := &fakeFallSource{readings: fakeFallReadings()}
	mgr := ml.NewClassifierManager(
		filepath.Join(t.TempDir(), "fall"), testParams, ml.FallNumClasses, zap.NewNop())

	trainer := training.NewFallTrainer(source, mgr, 10, 1000, 0.2, zap.NewNop())
	result, err := trainer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 160, result.TotalReadings)
	// 每台设备前 2 条窗口不足被跳过
	assert.Equal(t, 156, result.FeatureRows)
	assert.Greater(t, result.TrainScore, 0.8)
	assert.Greater(t, result.Report.Accuracy, 0.8)

	// 训练产物已持久化，模型进入已训练状态
	model, _ := mgr.Snapshot()
	assert.True(t, model.Trained())
}

func TestFallTrainer_ManualLabelsOverrideHeuristic(t *testing.T) {
	readings := fakeFallReadings()
	// 把 radar-a 的全部读数人工标注为 0
	labels := map[int64]int{}
	for ts := int64(0); ts < 80; ts++ {
		labels[ts] = 0
	}
	source := &fakeFallSource{
		readings: readings,
		labels:   map[string]map[int64]int{"radar-a": labels},
	}
	mgr := ml.NewClassifierManager(
		filepath.Join(t.TempDir(), "fall"), testParams, ml.FallNumClasses, zap.NewNop())

	trainer := training.NewFallTrainer(source, mgr, 10, 1000, 0.2, zap.NewNop())
	result, err := trainer.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestFallTrainer_EmptyInput(t *testing.T) {
	source := &fakeFallSource{}
	mgr := ml.NewClassifierManager(
		filepath.Join(t.TempDir(), "fall"), testParams, ml.FallNumClasses, zap.NewNop())

	trainer := training.NewFallTrainer(source, mgr, 10, 1000, 0.2, zap.NewNop())
	_, err := trainer.Run(context.Background())
	require.ErrorIs(t, err, ml.ErrNoTrainingData)
}
