package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"norn-analytics/internal/models"
	"norn-analytics/internal/pattern"
)

func sleepSample(stage, hr, rr, movement int) models.SleepSample {
	return models.SleepSample{
		InBed:             1,
		SleepStatus:       stage,
		HeartRate:         hr,
		RespirationRate:   rr,
		BodyMovementRange: movement,
	}
}

func TestAnalyzeSleep_InsufficientData(t *testing.T) {
	window := []models.SleepSample{
		sleepSample(models.StageDeep, 58, 14, 1),
		sleepSample(models.StageDeep, 58, 14, 1),
	}

	p, ind := pattern.AnalyzeSleep(window)
	require.Equal(t, models.SleepPatternInsufficient, p)
	assert.Equal(t, models.StageDeep, ind.CurrentStage)
	assert.Equal(t, 2, ind.BufferSize)
}

func TestAnalyzeSleep_DeepSleep(t *testing.T) {
	var window []models.SleepSample
	for i := 0; i < 5; i++ {
		window = append(window, sleepSample(models.StageDeep, 56+i%2, 13, 1))
	}

	p, ind := pattern.AnalyzeSleep(window)
	require.Equal(t, models.SleepPatternDeep, p)
	assert.Equal(t, models.StageDeep, ind.CurrentStage)
	assert.InDelta(t, 56.4, ind.AvgHeartRate, 0.01)
}

func TestAnalyzeSleep_ApneaConcernTakesPriority(t *testing.T) {
	// 呼吸暂停事件超阈值时优先于阶段映射
	var window []models.SleepSample
	for i := 0; i < 5; i++ {
		s := sleepSample(models.StageDeep, 58, 14, 1)
		s.Comprehensive = &models.SleepComprehensive{ApneaEvents: 2}
		window = append(window, s)
	}

	p, ind := pattern.AnalyzeSleep(window)
	require.Equal(t, models.SleepPatternApneaConcern, p)
	assert.Equal(t, 10, ind.TotalApneaEvents)
}

func TestAnalyzeSleep_RestlessSleep(t *testing.T) {
	// 每个样本体动都在变化：不安评分 80，超过阈值
	window := []models.SleepSample{
		sleepSample(models.StageLight, 62, 15, 2),
		sleepSample(models.StageLight, 64, 15, 8),
		sleepSample(models.StageLight, 63, 15, 3),
		sleepSample(models.StageLight, 65, 16, 9),
		sleepSample(models.StageLight, 64, 15, 4),
	}

	p, ind := pattern.AnalyzeSleep(window)
	require.Equal(t, models.SleepPatternRestless, p)
	assert.InDelta(t, 80.0, ind.RestlessnessScore, 1e-9)
}

func TestAnalyzeSleep_AwakeAndNone(t *testing.T) {
	var awake []models.SleepSample
	for i := 0; i < 5; i++ {
		awake = append(awake, sleepSample(models.StageAwake, 70, 16, 5))
	}
	p, _ := pattern.AnalyzeSleep(awake)
	assert.Equal(t, models.SleepPatternAwake, p)

	var none []models.SleepSample
	for i := 0; i < 5; i++ {
		none = append(none, sleepSample(models.StageNone, 0, 0, 0))
	}
	p, ind := pattern.AnalyzeSleep(none)
	assert.Equal(t, models.SleepPatternNormal, p)
	assert.Equal(t, 0.0, ind.AvgHeartRate)
}

func TestAnalyzeSleep_InvalidVitalsExcluded(t *testing.T) {
	window := []models.SleepSample{
		sleepSample(models.StageLight, models.VitalInvalid, models.VitalInvalid, 2),
		sleepSample(models.StageLight, 60, 14, 2),
		sleepSample(models.StageLight, 62, 15, 2),
		sleepSample(models.StageLight, 0, 0, 2),
		sleepSample(models.StageLight, 61, 16, 2),
	}

	_, ind := pattern.AnalyzeSleep(window)
	assert.InDelta(t, 61.0, ind.AvgHeartRate, 1e-9)
	assert.InDelta(t, 15.0, ind.AvgRespiration, 1e-9)
}
