package training

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"norn-analytics/internal/buffer"
	"norn-analytics/internal/features"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
	"norn-analytics/internal/repository"
)

// 启发式标注阈值：设备判定为跌倒且伴随明显体动与驻留时采信
const (
	heuristicMovementHigh = 8
	heuristicDwellShort   = 5
	heuristicMovementLow  = 5
	heuristicDwellLong    = 10
)

// FallReadingsSource 跌倒训练数据来源
type FallReadingsSource interface {
	FetchFallReadings(ctx context.Context, limit int) ([]repository.FallReadingRow, error)
	FetchFallLabels(ctx context.Context, deviceID string) (map[int64]int, error)
}

// FallTrainingResult 一次跌倒模型训练的产出
type FallTrainingResult struct {
	TotalReadings int
	FeatureRows   int
	TrainScore    float64
	Report        BinaryReport
}

// FallTrainer 跌倒检测模型的训练管线
type FallTrainer struct {
	source     FallReadingsSource
	manager    *ml.ClassifierManager
	windowSize int
	fetchLimit int
	testSize   float64
	logger     *zap.Logger
}

// NewFallTrainer 构造跌倒训练管线
func NewFallTrainer(source FallReadingsSource, manager *ml.ClassifierManager, windowSize, fetchLimit int, testSize float64, logger *zap.Logger) *FallTrainer {
	return &FallTrainer{
		source:     source,
		manager:    manager,
		windowSize: windowSize,
		fetchLimit: fetchLimit,
		testSize:   testSize,
		logger:     logger,
	}
}

// Run 执行完整训练：拉取读数，回放提特征，分层划分，训练评估并持久化
// 训练失败时现有工件保持不变
func (t *FallTrainer) Run(ctx context.Context) (*FallTrainingResult, error) {
	readings, err := t.source.FetchFallReadings(ctx, t.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fall readings: %w", err)
	}
	if len(readings) == 0 {
		return nil, ml.ErrNoTrainingData
	}

	X, y, err := t.buildDataset(ctx, readings)
	if err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("%w: no valid feature rows after windowing", ml.ErrNoTrainingData)
	}

	rng := rand.New(rand.NewSource(42))
	trainIdx, testIdx := stratifiedSplit(y, t.testSize, rng)

	trainScore, err := t.manager.Train(selectRows(X, trainIdx), selectInts(y, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("failed to train fall model: %w", err)
	}

	report, err := t.evaluate(selectRows(X, testIdx), selectInts(y, testIdx))
	if err != nil {
		return nil, err
	}

	result := &FallTrainingResult{
		TotalReadings: len(readings),
		FeatureRows:   len(X),
		TrainScore:    trainScore,
		Report:        report,
	}
	t.logger.Info("fall model training completed",
		zap.Int("total_readings", result.TotalReadings),
		zap.Int("feature_rows", result.FeatureRows),
		zap.Float64("train_score", result.TrainScore),
		zap.Float64("test_accuracy", report.Accuracy),
		zap.Float64("test_precision", report.Precision),
		zap.Float64("test_recall", report.Recall),
		zap.Float64("test_f1", report.F1))
	return result, nil
}

// buildDataset 按设备回放读数，提取特征并标注
// 人工标注优先于启发式标注；窗口不足的样本（每设备前几条）跳过
func (t *FallTrainer) buildDataset(ctx context.Context, readings []repository.FallReadingRow) ([][]float64, []int, error) {
	byDevice := make(map[string][]models.FallSample)
	var deviceOrder []string
	for _, row := range readings {
		if _, ok := byDevice[row.DeviceID]; !ok {
			deviceOrder = append(deviceOrder, row.DeviceID)
		}
		byDevice[row.DeviceID] = append(byDevice[row.DeviceID], row.Sample)
	}

	var X [][]float64
	var y []int
	for _, deviceID := range deviceOrder {
		labels, err := t.source.FetchFallLabels(ctx, deviceID)
		if err != nil {
			t.logger.Warn("failed to fetch manual labels, using heuristic labeling only",
				zap.String("device_id", deviceID),
				zap.Error(err))
			labels = nil
		}

		window := buffer.NewWindow[models.FallSample](t.windowSize)
		for _, sample := range byDevice[deviceID] {
			window.Push(sample)
			vec, err := features.ExtractFall(window.Snapshot())
			if err != nil {
				continue
			}
			X = append(X, vec)
			y = append(y, labelFor(sample, labels))
		}
	}
	return X, y, nil
}

// labelFor 人工标注缺失时的启发式标注
func labelFor(sample models.FallSample, labels map[int64]int) int {
	if label, ok := labels[sample.Timestamp]; ok {
		return label
	}
	if sample.FallStatus == 0 {
		return 0
	}
	if sample.BodyMovement >= heuristicMovementHigh && sample.StationaryDwell >= heuristicDwellShort {
		return 1
	}
	if sample.BodyMovement >= heuristicMovementLow && sample.StationaryDwell >= heuristicDwellLong {
		return 1
	}
	return 0
}

func (t *FallTrainer) evaluate(X [][]float64, y []int) (BinaryReport, error) {
	model, scaler := t.manager.Snapshot()
	yPred := make([]int, len(X))
	for i, row := range X {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return BinaryReport{}, fmt.Errorf("failed to scale evaluation row: %w", err)
		}
		class, _, err := model.PredictClass(scaled)
		if err != nil {
			return BinaryReport{}, fmt.Errorf("failed to predict evaluation row: %w", err)
		}
		yPred[i] = class
	}
	return EvaluateBinary(y, yPred), nil
}
