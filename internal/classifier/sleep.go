package classifier

import (
	"go.uber.org/zap"

	"norn-analytics/internal/buffer"
	"norn-analytics/internal/features"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
	"norn-analytics/internal/pattern"
)

// 规则回退路径的基准质量分
const (
	qualityDeep         = 85.0
	qualityLight        = 70.0
	qualityRestless     = 50.0
	qualityApneaConcern = 40.0
	qualityAwake        = 30.0
	qualityNormal       = 70.0
	qualityInsufficient = 50.0

	// 扣分上限
	restlessnessPenaltyMax = 20.0
	apneaPenaltyMax        = 25.0
)

// Sleep 睡眠质量与阶段分类器，持有该会话的滑动窗口
// 质量为回归模型，阶段为可选的四分类模型；非并发安全
type Sleep struct {
	window  *buffer.Window[models.SleepSample]
	quality *ml.RegressorManager
	stage   *ml.ClassifierManager
	logger  *zap.Logger
}

// NewSleep 构造睡眠分类器
func NewSleep(windowSize int, quality *ml.RegressorManager, stage *ml.ClassifierManager, logger *zap.Logger) *Sleep {
	return &Sleep{
		window:  buffer.NewWindow[models.SleepSample](windowSize),
		quality: quality,
		stage:   stage,
		logger:  logger,
	}
}

// Predict 推入样本后给出质量评分与可选的阶段预测
// 质量评分恒在 [0,100] 内
func (s *Sleep) Predict(sample models.SleepSample) models.SleepPrediction {
	s.window.Push(sample)
	snapshot := s.window.Snapshot()

	vec, err := features.ExtractSleep(snapshot)
	if err != nil {
		return models.SleepPrediction{
			QualityScore: qualityInsufficient,
			Analysis: models.SleepAnalysis{
				Pattern:      models.SleepPatternInsufficient,
				CurrentStage: sample.SleepStatus,
				BufferSize:   s.window.Len(),
			},
		}
	}

	patternName, ind := pattern.AnalyzeSleep(snapshot)
	analysis := models.SleepAnalysis{
		Pattern:           patternName,
		CurrentStage:      ind.CurrentStage,
		AvgHeartRate:      ind.AvgHeartRate,
		AvgRespiration:    ind.AvgRespiration,
		MovementLevel:     ind.MovementLevel,
		TotalApneaEvents:  ind.TotalApneaEvents,
		RestlessnessScore: ind.RestlessnessScore,
		BufferSize:        ind.BufferSize,
	}

	score := s.qualityScore(vec, patternName, ind)
	s.predictStage(vec, &analysis)

	return models.SleepPrediction{
		QualityScore: clamp100(score),
		Analysis:     analysis,
	}
}

// Clear 清空会话窗口
func (s *Sleep) Clear() {
	s.window.Clear()
}

// Len 当前窗口占用
func (s *Sleep) Len() int {
	return s.window.Len()
}

func (s *Sleep) qualityScore(vec []float64, patternName string, ind pattern.SleepIndicators) float64 {
	model, scaler := s.quality.Snapshot()
	if !model.Trained() {
		return ruleQualityScore(patternName, ind)
	}
	scaled, err := scaler.Transform(vec)
	if err != nil {
		s.logger.Warn("feature scaling failed, falling back to rule-based quality",
			zap.Error(err))
		return ruleQualityScore(patternName, ind)
	}
	score, err := model.PredictValue(scaled)
	if err != nil {
		s.logger.Warn("quality inference failed, falling back to rule-based quality",
			zap.Error(err))
		return ruleQualityScore(patternName, ind)
	}
	return score
}

// predictStage 阶段子模型已训练时补充阶段预测与概率分布
func (s *Sleep) predictStage(vec []float64, analysis *models.SleepAnalysis) {
	model, scaler := s.stage.Snapshot()
	if !model.Trained() {
		return
	}
	scaled, err := scaler.Transform(vec)
	if err != nil {
		s.logger.Warn("feature scaling failed, skipping stage prediction", zap.Error(err))
		return
	}
	class, probs, err := model.PredictClass(scaled)
	if err != nil {
		s.logger.Warn("stage inference failed, skipping stage prediction", zap.Error(err))
		return
	}
	stage := class
	analysis.PredictedStage = &stage
	analysis.StageProbabilities = &models.StageProbabilities{
		Deep:  probs[models.StageDeep],
		Light: probs[models.StageLight],
		Awake: probs[models.StageAwake],
		None:  probs[models.StageNone],
	}
}

// ruleQualityScore 模式基准分减去不安与呼吸暂停扣分
func ruleQualityScore(patternName string, ind pattern.SleepIndicators) float64 {
	var base float64
	switch patternName {
	case models.SleepPatternDeep:
		base = qualityDeep
	case models.SleepPatternLight:
		base = qualityLight
	case models.SleepPatternRestless:
		base = qualityRestless
	case models.SleepPatternApneaConcern:
		base = qualityApneaConcern
	case models.SleepPatternAwake:
		base = qualityAwake
	default:
		base = qualityNormal
	}

	restlessPenalty := ind.RestlessnessScore * 0.3
	if restlessPenalty > restlessnessPenaltyMax {
		restlessPenalty = restlessnessPenaltyMax
	}
	apneaPenalty := float64(ind.TotalApneaEvents) * 5
	if apneaPenalty > apneaPenaltyMax {
		apneaPenalty = apneaPenaltyMax
	}

	return clamp100(base - restlessPenalty - apneaPenalty)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
