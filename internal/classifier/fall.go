// Package classifier 实现两级判定：有训练模型时走模型推理，
// 否则回退到模式级联的规则映射。软性失败一律降级为保守结果，
// 不向调用方抛出预测失败。
package classifier

import (
	"go.uber.org/zap"

	"norn-analytics/internal/buffer"
	"norn-analytics/internal/features"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
	"norn-analytics/internal/pattern"
)

// 规则回退路径的置信度常量
const (
	confVeryHighFall     = 0.95
	confSensorSpikeFall  = 0.90
	confPatternFall      = 0.85
	confFalsePositive    = 0.75
	confIntentional      = 0.70
	confInsufficientFall = 0.65
	confInsufficientLow  = 0.50
	confSensorHighNormal = 0.75
	confNormal           = 0.60
)

// Fall 跌倒检测分类器，持有该会话的滑动窗口
// 非并发安全，由会话上下文串行化访问
type Fall struct {
	window  *buffer.Window[models.FallSample]
	manager *ml.ClassifierManager
	logger  *zap.Logger
}

// NewFall 构造跌倒分类器
func NewFall(windowSize int, manager *ml.ClassifierManager, logger *zap.Logger) *Fall {
	return &Fall{
		window:  buffer.NewWindow[models.FallSample](windowSize),
		manager: manager,
		logger:  logger,
	}
}

// Predict 推入样本后给出跌倒判定
// 窗口不足时返回设备自身判定（置信度 0.5），永不因数据稀薄而失败
func (f *Fall) Predict(sample models.FallSample) models.FallVerdict {
	f.window.Push(sample)
	snapshot := f.window.Snapshot()

	vec, err := features.ExtractFall(snapshot)
	if err != nil {
		return models.FallVerdict{
			IsRealFall: sample.FallStatus > 0,
			Confidence: 0.5,
			Analysis: models.FallAnalysis{
				Pattern:            models.PatternInsufficientData,
				SensorDetectedFall: sample.FallStatus > 0,
				CurrentDwellTime:   sample.StationaryDwell,
				MotionState:        sample.Motion,
				BufferSize:         f.window.Len(),
			},
		}
	}

	patternName, ind := pattern.AnalyzeFall(snapshot)
	analysis := fallAnalysis(patternName, ind)

	model, scaler := f.manager.Snapshot()
	if !model.Trained() {
		return ruleFallVerdict(patternName, ind, analysis)
	}

	scaled, err := scaler.Transform(vec)
	if err != nil {
		f.logger.Warn("feature scaling failed, falling back to rule-based verdict",
			zap.Error(err))
		return ruleFallVerdict(patternName, ind, analysis)
	}
	class, probs, err := model.PredictClass(scaled)
	if err != nil {
		f.logger.Warn("model inference failed, falling back to rule-based verdict",
			zap.Error(err))
		return ruleFallVerdict(patternName, ind, analysis)
	}

	return models.FallVerdict{
		IsRealFall: class == 1,
		Confidence: clamp01(probs[class]),
		Analysis:   analysis,
	}
}

// Clear 清空会话窗口
func (f *Fall) Clear() {
	f.window.Clear()
}

// ruleFallVerdict 模式到判定的规则映射（未训练/推理失败时的回退）
func ruleFallVerdict(patternName string, ind pattern.FallIndicators, analysis models.FallAnalysis) models.FallVerdict {
	var isFall bool
	var confidence float64

	switch patternName {
	case models.PatternRealFallLikely:
		isFall = true
		switch {
		case ind.VeryHighMovement:
			confidence = confVeryHighFall
		case ind.SensorDetectedFall:
			confidence = confSensorSpikeFall
		default:
			confidence = confPatternFall
		}
	case models.PatternSensorFalsePositive:
		isFall = false
		confidence = confFalsePositive
	case models.PatternIntentionalSitting:
		isFall = ind.HighMovement
		confidence = confIntentional
	case models.PatternInsufficientData:
		isFall = true
		if ind.SensorDetectedFall {
			confidence = confInsufficientFall
		} else {
			confidence = confInsufficientLow
		}
	default:
		if ind.SensorDetectedFall && ind.HighMovement {
			isFall = true
			confidence = confSensorHighNormal
		} else {
			isFall = false
			confidence = confNormal
		}
	}

	return models.FallVerdict{
		IsRealFall: isFall,
		Confidence: confidence,
		Analysis:   analysis,
	}
}

func fallAnalysis(patternName string, ind pattern.FallIndicators) models.FallAnalysis {
	return models.FallAnalysis{
		Pattern:            patternName,
		BodyMovementSpike:  ind.BodyMovementSpike,
		HighMovement:       ind.HighMovement,
		VeryHighMovement:   ind.VeryHighMovement,
		RapidToStationary:  ind.RapidToStationary,
		ProlongedStillness: ind.ProlongedStillness,
		BecomingStill:      ind.BecomingStill,
		SensorDetectedFall: ind.SensorDetectedFall,
		MovementMax:        ind.MovementMax,
		MovementVariance:   ind.MovementVariance,
		CurrentDwellTime:   ind.CurrentDwellTime,
		MotionState:        ind.MotionState,
		BufferSize:         ind.BufferSize,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
