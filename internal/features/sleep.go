package features

import (
	"norn-analytics/internal/models"
)

// SleepMinWindow 睡眠特征提取所需的最小窗口样本数
const SleepMinWindow = 5

// 睡眠特征下标（顺序即模型契约，不可重排）
const (
	SFCurrentHeartRate = iota
	SFCurrentRespiration
	SFHRMean
	SFHRStd
	SFHRMax
	SFHRMin
	SFHRRange
	SFRespMean
	SFRespStd
	SFRespMax
	SFRespMin
	SFMovementMean
	SFMovementStd
	SFMovementMax
	SFLargeMovesTotal
	SFMinorMovesTotal
	SFTurnsTotal
	SFHumanMovementMean
	SFApneaTotal
	SFInBedTotal
	SFWindowLength
	SFStageChanges
	SFStageDeepFlag
	SFStageLightFlag
	SFStageAwakeFlag
	SFStageNoneFlag
	SFVelocityAbsMean
	SFVelocityAbsMax
	SFHRStability
	SFRespStability

	// SleepFeatureCount 睡眠特征向量长度
	SleepFeatureCount
)

// ExtractSleep 从窗口快照提取睡眠特征向量
// 生命体征统计只在有效读数（>0）上计算；无有效读数时对应特征保持 0
func ExtractSleep(window []models.SleepSample) ([]float64, error) {
	if len(window) < SleepMinWindow {
		return nil, ErrInsufficientData
	}

	n := len(window)
	heartRate := make([]float64, n)
	respiration := make([]float64, n)
	movement := make([]float64, n)
	humanMovement := make([]float64, n)
	stages := make([]float64, n)
	largeMoves := make([]float64, n)
	minorMoves := make([]float64, n)
	turns := make([]float64, n)
	apnea := make([]float64, n)
	inBed := make([]float64, n)
	for i := range window {
		s := &window[i]
		heartRate[i] = float64(s.HeartRate)
		respiration[i] = float64(s.RespirationRate)
		movement[i] = float64(s.BodyMovementRange)
		humanMovement[i] = float64(s.HumanMovement)
		stages[i] = float64(s.SleepStatus)
		largeMoves[i] = float64(s.LargeBodyMoves())
		minorMoves[i] = float64(s.MinorBodyMoves())
		turns[i] = float64(s.Turns())
		apnea[i] = float64(s.ApneaEvents())
		inBed[i] = float64(s.InBed)
	}
	latest := &window[n-1]

	vec := make([]float64, SleepFeatureCount)

	// 1. 当前生命体征
	vec[SFCurrentHeartRate] = float64(latest.HeartRate)
	vec[SFCurrentRespiration] = float64(latest.RespirationRate)

	// 2. 心率统计（过滤掉 0 读数）
	hrValid := filterPositive(heartRate)
	if len(hrValid) > 0 {
		vec[SFHRMean] = mean(hrValid)
		vec[SFHRStd] = std(hrValid)
		vec[SFHRMax] = maxOf(hrValid)
		vec[SFHRMin] = minOf(hrValid)
		vec[SFHRRange] = maxOf(hrValid) - minOf(hrValid)
	}

	// 3. 呼吸统计
	respValid := filterPositive(respiration)
	if len(respValid) > 0 {
		vec[SFRespMean] = mean(respValid)
		vec[SFRespStd] = std(respValid)
		vec[SFRespMax] = maxOf(respValid)
		vec[SFRespMin] = minOf(respValid)
	}

	// 4. 体动统计
	vec[SFMovementMean] = mean(movement)
	vec[SFMovementStd] = std(movement)
	vec[SFMovementMax] = maxOf(movement)
	vec[SFLargeMovesTotal] = sumOf(largeMoves)
	vec[SFMinorMovesTotal] = sumOf(minorMoves)
	vec[SFTurnsTotal] = sumOf(turns)
	vec[SFHumanMovementMean] = mean(humanMovement)

	// 5. 睡眠质量指示量
	vec[SFApneaTotal] = sumOf(apnea)
	vec[SFInBedTotal] = sumOf(inBed)
	vec[SFWindowLength] = float64(n)

	// 6. 睡眠阶段稳定性 + 当前阶段 one-hot（0=深睡,1=浅睡,2=清醒,3=无）
	stageDiffs := diff(stages)
	var stageChanges float64
	for _, d := range stageDiffs {
		if d != 0 {
			stageChanges++
		}
	}
	vec[SFStageChanges] = stageChanges
	switch latest.SleepStatus {
	case models.StageDeep:
		vec[SFStageDeepFlag] = 1
	case models.StageLight:
		vec[SFStageLightFlag] = 1
	case models.StageAwake:
		vec[SFStageAwakeFlag] = 1
	default:
		vec[SFStageNoneFlag] = 1
	}

	// 7. 体动变化率
	velocity := absAll(diff(movement))
	if len(velocity) > 0 {
		vec[SFVelocityAbsMean] = mean(velocity)
		vec[SFVelocityAbsMax] = maxOf(velocity)
	}

	// 8. 生命体征稳定性（相邻有效读数差分的标准差）
	if len(hrValid) >= 2 {
		vec[SFHRStability] = std(diff(hrValid))
	}
	if len(respValid) >= 2 {
		vec[SFRespStability] = std(diff(respValid))
	}

	return vec, nil
}

func filterPositive(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x > 0 {
			out = append(out, x)
		}
	}
	return out
}
