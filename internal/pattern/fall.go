// Package pattern 从窗口内容推导事件模式与指示量
//
// 跌倒分类是优先级级联：规则按顺序求值，首个命中者胜出。
// 级联编码为有序的 (谓词, 模式) 表，顺序即正确性契约，不可重排。
package pattern

import (
	"norn-analytics/internal/models"
)

// 跌倒判定阈值（体动强度指数 0-255）
const (
	// HighMovementThreshold 高体动阈值
	HighMovementThreshold = 30
	// VeryHighMovementThreshold 极高体动阈值，单独即可判定疑似真实跌倒
	VeryHighMovementThreshold = 60
	// ProlongedStillnessDwell 判定持续静止的最小驻留时间
	ProlongedStillnessDwell = 3
	// SpikeMeanMargin 尖峰判定：近期峰值超过窗口均值的幅度
	SpikeMeanMargin = 3
	// FallMinSamples 模式分析所需的最小窗口样本数
	FallMinSamples = 3
)

// FallIndicators 跌倒模式分析的中间指示量
type FallIndicators struct {
	BodyMovementSpike  bool
	HighMovement       bool
	VeryHighMovement   bool
	RapidToStationary  bool
	ProlongedStillness bool
	BecomingStill      bool
	SensorDetectedFall bool

	MovementMax      int
	MovementVariance float64
	CurrentDwellTime int
	MotionState      int
	BufferSize       int
}

// fallRule 级联中的一条规则
type fallRule struct {
	name      string
	predicate func(ind FallIndicators) bool
	pattern   string
}

// fallCascade 跌倒模式级联，按优先级从高到低排列
// 规则 7（设备判定 + 持续/渐进静止）在设备上报跌倒但无体动尖峰时，
// 以静止证据佐证设备判定；缺少静止证据则落入规则 9 判为设备误报
var fallCascade = []fallRule{
	{
		name:    "very_high_movement",
		pattern: models.PatternRealFallLikely,
		predicate: func(ind FallIndicators) bool {
			return ind.VeryHighMovement
		},
	},
	{
		name:    "sensor_fall_with_spike",
		pattern: models.PatternRealFallLikely,
		predicate: func(ind FallIndicators) bool {
			return ind.SensorDetectedFall && ind.BodyMovementSpike
		},
	},
	{
		name:    "high_movement_then_stationary",
		pattern: models.PatternRealFallLikely,
		predicate: func(ind FallIndicators) bool {
			return ind.HighMovement && ind.RapidToStationary
		},
	},
	{
		name:    "spike_with_prolonged_stillness",
		pattern: models.PatternRealFallLikely,
		predicate: func(ind FallIndicators) bool {
			return ind.BodyMovementSpike && ind.ProlongedStillness
		},
	},
	{
		name:    "spike_becoming_still",
		pattern: models.PatternRealFallLikely,
		predicate: func(ind FallIndicators) bool {
			return ind.BodyMovementSpike && ind.BecomingStill
		},
	},
	{
		name:    "high_movement",
		pattern: models.PatternRealFallLikely,
		predicate: func(ind FallIndicators) bool {
			return ind.HighMovement
		},
	},
	{
		name:    "sensor_fall_with_stillness",
		pattern: models.PatternRealFallLikely,
		predicate: func(ind FallIndicators) bool {
			return ind.SensorDetectedFall && (ind.ProlongedStillness || ind.BecomingStill)
		},
	},
	{
		name:    "spike_while_upright",
		pattern: models.PatternIntentionalSitting,
		predicate: func(ind FallIndicators) bool {
			return ind.BodyMovementSpike && !ind.RapidToStationary &&
				ind.MotionState > models.MotionNone && !ind.HighMovement
		},
	},
	{
		name:    "sensor_fall_without_spike",
		pattern: models.PatternSensorFalsePositive,
		predicate: func(ind FallIndicators) bool {
			return ind.SensorDetectedFall && !ind.BodyMovementSpike
		},
	},
	{
		name:    "default",
		pattern: models.PatternNormalActivity,
		predicate: func(ind FallIndicators) bool {
			return true
		},
	},
}

// AnalyzeFall 对窗口快照（末位为刚到达的样本）做模式分类
// 窗口不足 FallMinSamples 时返回 insufficient_data 模式，指示量全零
func AnalyzeFall(window []models.FallSample) (string, FallIndicators) {
	n := len(window)
	if n < FallMinSamples {
		ind := FallIndicators{BufferSize: n}
		if n > 0 {
			latest := window[n-1]
			ind.SensorDetectedFall = latest.FallStatus > 0
			ind.CurrentDwellTime = latest.StationaryDwell
			ind.MotionState = latest.Motion
		}
		return models.PatternInsufficientData, ind
	}

	latest := window[n-1]
	movement := make([]float64, n)
	for i, s := range window {
		movement[i] = float64(s.BodyMovement)
	}

	ind := FallIndicators{
		CurrentDwellTime: latest.StationaryDwell,
		MotionState:      latest.Motion,
		BufferSize:       n,
	}

	// 体动尖峰：近 3 个样本（含当前）的峰值超过窗口均值 + 余量，或绝对值达到高体动阈值
	recent := movement
	if n > 3 {
		recent = movement[n-3:]
	}
	recentMax := maxOf(recent)
	ind.BodyMovementSpike = recentMax > mean(movement)+SpikeMeanMargin ||
		recentMax >= HighMovementThreshold

	ind.HighMovement = latest.BodyMovement >= HighMovementThreshold
	ind.VeryHighMovement = latest.BodyMovement >= VeryHighMovementThreshold

	// 活动转静止：最后两个样本内运动状态从活动降为静止或无
	prev := window[n-2]
	ind.RapidToStationary = prev.Motion == models.MotionActive &&
		latest.Motion <= models.MotionStill

	ind.ProlongedStillness = latest.StationaryDwell >= ProlongedStillnessDwell
	ind.BecomingStill = latest.StationaryDwell > prev.StationaryDwell
	ind.SensorDetectedFall = latest.FallStatus > 0

	ind.MovementMax = int(maxOf(movement))
	ind.MovementVariance = variance(movement)

	for _, rule := range fallCascade {
		if rule.predicate(ind) {
			return rule.pattern, ind
		}
	}
	return models.PatternNormalActivity, ind
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
