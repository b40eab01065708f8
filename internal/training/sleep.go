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
)

// minRecordMinutes 短于该时长的参考记录不参与训练
const minRecordMinutes = 30

// trainMinBuffer 回放时开始采集特征行的最小窗口占用
const trainMinBuffer = 10

// ReferenceSource 参考睡眠记录来源
type ReferenceSource interface {
	FetchSleepRecords(ctx context.Context) ([]ReferenceRecord, error)
}

// SleepTrainingResult 一次睡眠模型训练的产出
type SleepTrainingResult struct {
	TotalRecords    int
	SkippedRecords  int
	FeatureRows     int
	QualityScore    float64
	QualityReport   RegressionReport
	StageTrainScore float64
	StageReport     MulticlassReport
}

// SleepTrainer 睡眠质量与阶段模型的训练管线
// 参考记录只有整夜的阶段构成，按构成合成分钟级样本后回放提特征
type SleepTrainer struct {
	source     ReferenceSource
	quality    *ml.RegressorManager
	stage      *ml.ClassifierManager
	windowSize int
	testSize   float64
	logger     *zap.Logger
}

// NewSleepTrainer 构造睡眠训练管线
func NewSleepTrainer(source ReferenceSource, quality *ml.RegressorManager, stage *ml.ClassifierManager, windowSize int, testSize float64, logger *zap.Logger) *SleepTrainer {
	return &SleepTrainer{
		source:     source,
		quality:    quality,
		stage:      stage,
		windowSize: windowSize,
		testSize:   testSize,
		logger:     logger,
	}
}

// Run 执行完整训练：合成样本回放提特征，分别训练质量回归与阶段分类模型
func (t *SleepTrainer) Run(ctx context.Context) (*SleepTrainingResult, error) {
	records, err := t.source.FetchSleepRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reference sleep records: %w", err)
	}
	if len(records) == 0 {
		return nil, ml.ErrNoTrainingData
	}

	X, yQuality, yStage, skipped := t.buildDataset(records)
	if len(X) == 0 {
		return nil, fmt.Errorf("%w: no valid feature rows after windowing", ml.ErrNoTrainingData)
	}

	result := &SleepTrainingResult{
		TotalRecords:   len(records),
		SkippedRecords: skipped,
		FeatureRows:    len(X),
	}

	// 质量回归
	rng := rand.New(rand.NewSource(42))
	trainIdx, testIdx := splitIndices(len(X), t.testSize, rng)
	score, err := t.quality.Train(selectRows(X, trainIdx), selectFloats(yQuality, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("failed to train sleep quality model: %w", err)
	}
	result.QualityScore = score
	result.QualityReport, err = t.evaluateQuality(selectRows(X, testIdx), selectFloats(yQuality, testIdx))
	if err != nil {
		return nil, err
	}

	// 阶段分类（分层划分）
	stageRng := rand.New(rand.NewSource(42))
	stageTrainIdx, stageTestIdx := stratifiedSplit(yStage, t.testSize, stageRng)
	stageScore, err := t.stage.Train(selectRows(X, stageTrainIdx), selectInts(yStage, stageTrainIdx))
	if err != nil {
		return nil, fmt.Errorf("failed to train sleep stage model: %w", err)
	}
	result.StageTrainScore = stageScore
	result.StageReport, err = t.evaluateStage(selectRows(X, stageTestIdx), selectInts(yStage, stageTestIdx))
	if err != nil {
		return nil, err
	}

	t.logger.Info("sleep model training completed",
		zap.Int("total_records", result.TotalRecords),
		zap.Int("skipped_records", result.SkippedRecords),
		zap.Int("feature_rows", result.FeatureRows),
		zap.Float64("quality_mae", result.QualityReport.MAE),
		zap.Float64("quality_rmse", result.QualityReport.RMSE),
		zap.Float64("quality_r2", result.QualityReport.R2),
		zap.Float64("stage_accuracy", result.StageReport.Accuracy))
	return result, nil
}

// buildDataset 逐条记录合成样本并回放提取特征
// 质量标签沿用记录的整夜评分，阶段标签取窗口末样本的合成阶段
func (t *SleepTrainer) buildDataset(records []ReferenceRecord) ([][]float64, []float64, []int, int) {
	var X [][]float64
	var yQuality []float64
	var yStage []int
	skipped := 0

	for i, rec := range records {
		if rec.TimeInBedMinutes < minRecordMinutes {
			skipped++
			continue
		}
		rng := rand.New(rand.NewSource(42 + int64(i)))
		samples := SynthesizeSamples(rec, rng)
		if len(samples) == 0 {
			skipped++
			continue
		}

		window := buffer.NewWindow[models.SleepSample](t.windowSize)
		for _, sample := range samples {
			window.Push(sample)
			if window.Len() < trainMinBuffer {
				continue
			}
			vec, err := features.ExtractSleep(window.Snapshot())
			if err != nil {
				continue
			}
			X = append(X, vec)
			yQuality = append(yQuality, rec.SleepPerformance)
			yStage = append(yStage, sample.SleepStatus)
		}
	}
	return X, yQuality, yStage, skipped
}

func (t *SleepTrainer) evaluateQuality(X [][]float64, y []float64) (RegressionReport, error) {
	model, scaler := t.quality.Snapshot()
	yPred := make([]float64, len(X))
	for i, row := range X {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return RegressionReport{}, fmt.Errorf("failed to scale evaluation row: %w", err)
		}
		v, err := model.PredictValue(scaled)
		if err != nil {
			return RegressionReport{}, fmt.Errorf("failed to predict evaluation row: %w", err)
		}
		yPred[i] = v
	}
	return EvaluateRegression(y, yPred), nil
}

func (t *SleepTrainer) evaluateStage(X [][]float64, y []int) (MulticlassReport, error) {
	model, scaler := t.stage.Snapshot()
	yPred := make([]int, len(X))
	for i, row := range X {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return MulticlassReport{}, fmt.Errorf("failed to scale evaluation row: %w", err)
		}
		class, _, err := model.PredictClass(scaled)
		if err != nil {
			return MulticlassReport{}, fmt.Errorf("failed to predict evaluation row: %w", err)
		}
		yPred[i] = class
	}
	return EvaluateMulticlass(y, yPred, ml.SleepStageNumClasses), nil
}
