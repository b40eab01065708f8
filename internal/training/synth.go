package training

import (
	"math/rand"

	"norn-analytics/internal/models"
)

// ReferenceRecord 第三方参考睡眠数据的一晚记录
// 阶段构成以分钟计，SleepPerformance 为 0-100 的质量评分
type ReferenceRecord struct {
	Date              string  `json:"date"`
	SleepPerformance  float64 `json:"sleep_performance"`
	TimeInBedMinutes  int     `json:"time_in_bed_minutes"`
	DeepSleepMinutes  int     `json:"deep_sleep_minutes"`
	REMSleepMinutes   int     `json:"rem_sleep_minutes"`
	LightSleepMinutes int     `json:"light_sleep_minutes"`
	AwakeMinutes      int     `json:"awake_minutes"`
	RespiratoryRate   float64 `json:"respiratory_rate"`
}

// 合成参数
const (
	// sleepCycleMinutes 睡眠周期长度，阶段按周期交替而非整夜连续
	sleepCycleMinutes = 90
	// apneaInjectProbability 低质量记录中每分钟注入呼吸暂停事件的概率
	apneaInjectProbability = 0.02
	// lowPerformanceThreshold 低于该评分的记录注入呼吸暂停事件
	lowPerformanceThreshold = 60
)

// SynthesizeSamples 按参考记录的阶段构成合成分钟级传感器样本
// REM 映射为浅睡（传感器无 REM 编码）；阶段在 90 分钟周期内交替出现，
// 生命体征按阶段取基准值并加抖动
func SynthesizeSamples(rec ReferenceRecord, rng *rand.Rand) []models.SleepSample {
	remaining := map[int]int{
		models.StageDeep:  rec.DeepSleepMinutes,
		models.StageLight: rec.LightSleepMinutes + rec.REMSleepMinutes,
		models.StageAwake: rec.AwakeMinutes,
	}
	total := remaining[models.StageDeep] + remaining[models.StageLight] + remaining[models.StageAwake]
	if total <= 0 {
		return nil
	}

	injectApnea := rec.SleepPerformance < lowPerformanceThreshold

	samples := make([]models.SleepSample, 0, total)
	ts := int64(0)
	for left := total; left > 0; {
		cycle := sleepCycleMinutes
		if cycle > left {
			cycle = left
		}
		// 周期内顺序：浅睡入睡、深睡、浅睡、清醒，份额与剩余构成成比例
		lightShare := cycleShare(remaining[models.StageLight], left, cycle)
		deepShare := cycleShare(remaining[models.StageDeep], left, cycle)
		awakeShare := cycle - lightShare - deepShare

		plan := []struct {
			stage   int
			minutes int
		}{
			{models.StageLight, lightShare / 2},
			{models.StageDeep, deepShare},
			{models.StageLight, lightShare - lightShare/2},
			{models.StageAwake, awakeShare},
		}
		for _, seg := range plan {
			for m := 0; m < seg.minutes && remaining[seg.stage] > 0; m++ {
				samples = append(samples, synthSample(ts, seg.stage, injectApnea, rng))
				remaining[seg.stage]--
				ts += 60
				left--
			}
		}
	}
	return samples
}

// cycleShare 该阶段在本周期内应占的分钟数
func cycleShare(stageLeft, totalLeft, cycle int) int {
	if totalLeft == 0 {
		return 0
	}
	return stageLeft * cycle / totalLeft
}

// synthSample 按阶段基准值生成一条分钟级样本
func synthSample(ts int64, stage int, injectApnea bool, rng *rand.Rand) models.SleepSample {
	var hr, rr, movement int
	switch stage {
	case models.StageDeep:
		hr = 54 + rng.Intn(5)
		rr = 12 + rng.Intn(3)
		movement = rng.Intn(3)
	case models.StageLight:
		hr = 60 + rng.Intn(7)
		rr = 14 + rng.Intn(3)
		movement = 1 + rng.Intn(4)
	default:
		hr = 68 + rng.Intn(11)
		rr = 16 + rng.Intn(4)
		movement = 5 + rng.Intn(8)
	}

	sample := models.SleepSample{
		Timestamp:         ts,
		InBed:             1,
		SleepStatus:       stage,
		HeartRate:         hr,
		RespirationRate:   rr,
		BodyMovementRange: movement,
		HumanMovement:     movement / 2,
	}
	if injectApnea && rng.Float64() < apneaInjectProbability {
		sample.Comprehensive = &models.SleepComprehensive{ApneaEvents: 1}
	}
	return sample
}
