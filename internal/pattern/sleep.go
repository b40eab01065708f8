package pattern

import (
	"norn-analytics/internal/models"
)

// 睡眠模式阈值
const (
	// ApneaConcernThreshold 窗口内呼吸暂停事件数超过该值时判定为呼吸暂停关注
	ApneaConcernThreshold = 5
	// RestlessThreshold 不安评分超过该值时判定为不安睡眠
	RestlessThreshold = 30
	// SleepMinSamples 睡眠模式分析所需的最小窗口样本数
	SleepMinSamples = 5
)

// SleepIndicators 睡眠模式分析的中间指示量
type SleepIndicators struct {
	CurrentStage      int
	AvgHeartRate      float64
	AvgRespiration    float64
	MovementLevel     float64
	TotalApneaEvents  int
	RestlessnessScore float64
	BufferSize        int
}

// AnalyzeSleep 对睡眠窗口快照做模式分类
// 优先级：呼吸暂停关注 > 不安睡眠 > 当前阶段映射 > 正常睡眠
func AnalyzeSleep(window []models.SleepSample) (string, SleepIndicators) {
	n := len(window)
	if n < SleepMinSamples {
		ind := SleepIndicators{CurrentStage: models.StageNone, BufferSize: n}
		if n > 0 {
			ind.CurrentStage = window[n-1].SleepStatus
		}
		return models.SleepPatternInsufficient, ind
	}

	latest := window[n-1]

	var hrSum, hrCount, rrSum, rrCount, moveSum float64
	var apnea int
	movement := make([]float64, n)
	for i := range window {
		s := &window[i]
		if s.HeartRate > 0 && s.HeartRate != models.VitalInvalid {
			hrSum += float64(s.HeartRate)
			hrCount++
		}
		if s.RespirationRate > 0 && s.RespirationRate != models.VitalInvalid {
			rrSum += float64(s.RespirationRate)
			rrCount++
		}
		movement[i] = float64(s.BodyMovementRange)
		moveSum += movement[i]
		apnea += s.ApneaEvents()
	}

	ind := SleepIndicators{
		CurrentStage:     latest.SleepStatus,
		MovementLevel:    moveSum / float64(n),
		TotalApneaEvents: apnea,
		BufferSize:       n,
	}
	if hrCount > 0 {
		ind.AvgHeartRate = hrSum / hrCount
	}
	if rrCount > 0 {
		ind.AvgRespiration = rrSum / rrCount
	}

	// 不安评分：体动水平变化的样本占比（0-100）
	var changes float64
	for i := 1; i < n; i++ {
		if movement[i] != movement[i-1] {
			changes++
		}
	}
	ind.RestlessnessScore = changes / float64(n) * 100

	switch {
	case ind.TotalApneaEvents > ApneaConcernThreshold:
		return models.SleepPatternApneaConcern, ind
	case ind.RestlessnessScore > RestlessThreshold:
		return models.SleepPatternRestless, ind
	case latest.SleepStatus == models.StageDeep:
		return models.SleepPatternDeep, ind
	case latest.SleepStatus == models.StageLight:
		return models.SleepPatternLight, ind
	case latest.SleepStatus == models.StageAwake:
		return models.SleepPatternAwake, ind
	default:
		return models.SleepPatternNormal, ind
	}
}
