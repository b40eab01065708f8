package report_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
	"norn-analytics/internal/report"
)

func newTestAggregator(t *testing.T) *report.Aggregator {
	t.Helper()
	dir := t.TempDir()
	params := ml.Hyperparams{NumTrees: 5, MaxDepth: 5, MinSamplesSplit: 5, MinSamplesLeaf: 2, Seed: 42}
	quality := ml.NewRegressorManager(filepath.Join(dir, "quality"), params, zap.NewNop())
	stage := ml.NewClassifierManager(filepath.Join(dir, "stage"), params, ml.SleepStageNumClasses, zap.NewNop())
	return report.NewAggregator(quality, stage, 30, zap.NewNop())
}

func deepSleepNight(n int) []models.SleepSample {
	samples := make([]models.SleepSample, n)
	for i := range samples {
		samples[i] = models.SleepSample{
			Timestamp:         int64(i),
			InBed:             1,
			SleepStatus:       models.StageDeep,
			HeartRate:         56,
			RespirationRate:   13,
			BodyMovementRange: 1,
		}
	}
	return samples
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := newTestAggregator(t)
	_, err := a.Analyze("user-1", "2026-08-26", nil)
	require.ErrorIs(t, err, report.ErrNoSamples)
}

func TestAnalyze_TwoHoursPureDeepSleep(t *testing.T) {
	a := newTestAggregator(t)

	summary, err := a.Analyze("user-1", "2026-08-26", deepSleepNight(7200))
	require.NoError(t, err)

	assert.Equal(t, 120, summary.SleepStages.DeepSleepMinutes)
	assert.Equal(t, 100.0, summary.SleepStages.DeepSleepPercent)
	assert.Equal(t, 0, summary.SleepStages.AwakeMinutes)
	assert.Equal(t, 120, summary.TotalSleepTimeMinutes)
	assert.Equal(t, 120, summary.TimeInBedMinutes)
	assert.Equal(t, 100.0, summary.SleepEfficiencyPercent)
	assert.Equal(t, 7200, summary.TotalReadings)
	assert.NotEmpty(t, summary.ReportID)
	assert.Equal(t, "user-1", summary.UserID)

	// 规则路径下纯深睡的质量分为 85，对应 A 级
	assert.Equal(t, 85.0, summary.OverallQuality)
	assert.Equal(t, "A", summary.SleepScoreGrade)

	require.NotNil(t, summary.SleepOnset)
	require.NotNil(t, summary.WakeTime)
	assert.Equal(t, int64(0), *summary.SleepOnset)
	assert.Equal(t, int64(7199), *summary.WakeTime)
}

func TestAnalyze_VitalSignsSummary(t *testing.T) {
	a := newTestAggregator(t)
	samples := deepSleepNight(3600)
	samples[100].HeartRate = 70
	samples[200].HeartRate = 50
	samples[300].HeartRate = 0 // 无效读数不计入
	samples[400].RespirationRate = models.VitalInvalid

	summary, err := a.Analyze("user-1", "2026-08-26", samples)
	require.NoError(t, err)

	assert.Equal(t, 70.0, summary.VitalSigns.MaxHeartRate)
	assert.Equal(t, 50.0, summary.VitalSigns.MinHeartRate)
	assert.Equal(t, 13.0, summary.VitalSigns.AvgRespiration)
}

func TestAnalyze_BasicFallbackOnShortSession(t *testing.T) {
	a := newTestAggregator(t)

	// 20 个样本产生的模型预测不足一个窗口，退回统计分析
	samples := deepSleepNight(20)
	summary, err := a.Analyze("user-1", "2026-08-26", samples)
	require.NoError(t, err)

	// 纯深睡的统计评分：100% × 1.5 截断到 100
	assert.Equal(t, 100.0, summary.OverallQuality)
	assert.Equal(t, "statistical-basic-v1", summary.ModelVersion)
}

func TestAnalyze_RecommendationsFromThresholds(t *testing.T) {
	a := newTestAggregator(t)

	// 一小时会话：深睡 20 分钟，浅睡 5 分钟，清醒 35 分钟
	var samples []models.SleepSample
	ts := int64(0)
	appendStage := func(stage, minutes int) {
		for i := 0; i < minutes*60; i++ {
			samples = append(samples, models.SleepSample{
				Timestamp:         ts,
				InBed:             1,
				SleepStatus:       stage,
				HeartRate:         62,
				RespirationRate:   15,
				BodyMovementRange: 2,
			})
			ts++
		}
	}
	appendStage(models.StageDeep, 20)
	appendStage(models.StageLight, 5)
	appendStage(models.StageAwake, 35)

	summary, err := a.Analyze("user-1", "2026-08-26", samples)
	require.NoError(t, err)

	assert.Equal(t, 20, summary.SleepStages.DeepSleepMinutes)
	assert.Equal(t, 35, summary.SleepStages.AwakeMinutes)

	joined := ""
	for _, r := range summary.Recommendations {
		joined += r + "\n"
	}
	assert.Contains(t, joined, "Deep sleep below 60 minutes")
	assert.Contains(t, joined, "Light sleep below 2 hours")
	assert.Contains(t, joined, "minutes awake during the session")
	assert.Contains(t, joined, "Sleep efficiency")
}

func TestAnalyze_UniqueReportIDs(t *testing.T) {
	a := newTestAggregator(t)
	s1, err := a.Analyze("user-1", "2026-08-26", deepSleepNight(700))
	require.NoError(t, err)
	s2, err := a.Analyze("user-1", "2026-08-26", deepSleepNight(700))
	require.NoError(t, err)

	assert.NotEqual(t, s1.ReportID, s2.ReportID)
}
