// Package features 从滑动窗口内容构造定长特征向量
//
// 特征顺序是模型工件的契约：持久化模型按训练时的下标消费特征，
// 因此这里用命名常量固定每个特征的位置，禁止隐式重排。
package features

import (
	"errors"

	"norn-analytics/internal/models"
)

// ErrInsufficientData 窗口样本数不足，无法构造特征向量
var ErrInsufficientData = errors.New("insufficient data points in window")

// FallMinWindow 跌倒特征提取所需的最小窗口样本数
const FallMinWindow = 3

// 跌倒特征下标（顺序即模型契约，不可重排）
const (
	FFCurrentExistence = iota
	FFCurrentMotion
	FFCurrentMovement
	FFCurrentFallStatus
	FFCurrentDwell
	FFMovementMean
	FFMovementStd
	FFMovementMax
	FFMovementMin
	FFMovementDelta
	FFMotionChanges
	FFMotionToMoving
	FFMotionToStill
	FFVelocityMean
	FFVelocityMax
	FFVelocityMin
	FFVelocityStd
	FFAccelMean
	FFAccelMax
	FFAccelMin
	FFAccelStd
	FFDwellCurrent
	FFDwellMean
	FFDwellMax
	FFDwellDelta
	FFMovementSpikeFlag
	FFProlongedStationary
	FFFallConsistency

	// FallFeatureCount 跌倒特征向量长度
	FallFeatureCount
)

// ExtractFall 从窗口快照提取跌倒特征向量
// 向量长度恒为 FallFeatureCount，窗口过短的派生特征补零
func ExtractFall(window []models.FallSample) ([]float64, error) {
	if len(window) < FallMinWindow {
		return nil, ErrInsufficientData
	}

	n := len(window)
	movement := make([]float64, n)
	motion := make([]float64, n)
	dwell := make([]float64, n)
	fallStatus := make([]float64, n)
	for i, s := range window {
		movement[i] = float64(s.BodyMovement)
		motion[i] = float64(s.Motion)
		dwell[i] = float64(s.StationaryDwell)
		fallStatus[i] = float64(s.FallStatus)
	}
	latest := window[n-1]

	vec := make([]float64, FallFeatureCount)

	// 1. 当前读数
	vec[FFCurrentExistence] = float64(latest.Existence)
	vec[FFCurrentMotion] = float64(latest.Motion)
	vec[FFCurrentMovement] = float64(latest.BodyMovement)
	vec[FFCurrentFallStatus] = float64(latest.FallStatus)
	vec[FFCurrentDwell] = float64(latest.StationaryDwell)

	// 2. 体动统计（跌倒判定最重要的信号）
	vec[FFMovementMean] = mean(movement)
	vec[FFMovementStd] = std(movement)
	vec[FFMovementMax] = maxOf(movement)
	vec[FFMovementMin] = minOf(movement)
	vec[FFMovementDelta] = movement[n-1] - movement[0]

	// 3. 运动状态转换
	motionChanges := diff(motion)
	var changes, toMoving, toStill float64
	for _, c := range motionChanges {
		if c != 0 {
			changes++
		}
		if c > 0 {
			toMoving++
		}
		if c < 0 {
			toStill++
		}
	}
	vec[FFMotionChanges] = changes
	vec[FFMotionToMoving] = toMoving
	vec[FFMotionToStill] = toStill

	// 4. 体动变化率（一阶/二阶差分），窗口过短时保持补零
	velocity := diff(movement)
	if len(velocity) > 0 {
		vec[FFVelocityMean] = mean(velocity)
		vec[FFVelocityMax] = maxOf(velocity)
		vec[FFVelocityMin] = minOf(velocity)
		vec[FFVelocityStd] = std(velocity)

		accel := diff(velocity)
		if len(accel) > 0 {
			vec[FFAccelMean] = mean(accel)
			vec[FFAccelMax] = maxOf(accel)
			vec[FFAccelMin] = minOf(accel)
			vec[FFAccelStd] = std(accel)
		}
	}

	// 5. 静止驻留统计（真实跌倒的关键特征）
	vec[FFDwellCurrent] = dwell[n-1]
	vec[FFDwellMean] = mean(dwell)
	vec[FFDwellMax] = maxOf(dwell)
	vec[FFDwellDelta] = dwell[n-1] - dwell[0]

	// 6. 派生指示量
	// 体动尖峰：近 3 个样本的峰值超过窗口均值的 2 倍（窗口 >3 时才有意义）
	if n > 3 {
		recentMax := maxOf(movement[n-3:])
		if recentMax > 2*mean(movement) {
			vec[FFMovementSpikeFlag] = 1
		}
	}

	// 停止后的持续静止
	if latest.Motion == models.MotionNone && latest.StationaryDwell > 3 {
		vec[FFProlongedStationary] = 1
	}

	// 设备侧跌倒判定的一致性比例
	var fallHits float64
	for _, f := range fallStatus {
		if f > 0 {
			fallHits++
		}
	}
	vec[FFFallConsistency] = fallHits / float64(n)

	return vec, nil
}
