// Package report 批量回放整夜睡眠样本并生成会话汇总报告
package report

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"norn-analytics/internal/classifier"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
)

// ErrNoSamples 批量分析的输入为空
var ErrNoSamples = errors.New("no samples to analyze")

const (
	// samplesPerMinute 每分钟的样本数（设备按 1Hz 上报）
	samplesPerMinute = 60
	// predictMinBuffer 开始记录模型预测的最小窗口占用
	predictMinBuffer = 10

	// 模型版本标识，随报告返回给边界层
	modelVersionML    = "random-forest-v1"
	modelVersionBasic = "statistical-basic-v1"
)

// Aggregator 睡眠会话批量分析器
// 每次 Analyze 构造独立的分类器窗口，多个报告可并发生成
type Aggregator struct {
	quality    *ml.RegressorManager
	stage      *ml.ClassifierManager
	windowSize int
	logger     *zap.Logger
}

// NewAggregator 构造批量分析器
func NewAggregator(quality *ml.RegressorManager, stage *ml.ClassifierManager, windowSize int, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		quality:    quality,
		stage:      stage,
		windowSize: windowSize,
		logger:     logger,
	}
}

// Analyze 按时间序回放样本，生成整夜睡眠汇总
// 模型预测不足一个窗口时退回到基于原始阶段码的统计分析
func (a *Aggregator) Analyze(userID, date string, samples []models.SleepSample) (models.SleepSessionSummary, error) {
	if len(samples) == 0 {
		return models.SleepSessionSummary{}, ErrNoSamples
	}

	sleep := classifier.NewSleep(a.windowSize, a.quality, a.stage, a.logger)
	sleep.Clear()

	stageCounts := make(map[int]int)
	var qualitySum float64
	var qualityCount int
	var sleepOnset, wakeTime *int64

	var hr, rr, movement []float64
	apneaSamples := 0

	for i := range samples {
		sample := samples[i]
		prediction := sleep.Predict(sample)

		// 阶段计数：模型给出阶段预测时用预测值，否则用原始阶段码
		stage := sample.SleepStatus
		if prediction.Analysis.PredictedStage != nil {
			stage = *prediction.Analysis.PredictedStage
		}
		stageCounts[stage]++

		if prediction.Analysis.BufferSize >= predictMinBuffer {
			qualitySum += prediction.QualityScore
			qualityCount++
		}

		if sample.InBed == 1 {
			ts := sample.Timestamp
			if sleepOnset == nil {
				onset := ts
				sleepOnset = &onset
			}
			wake := ts
			if wakeTime == nil {
				wakeTime = &wake
			} else {
				*wakeTime = ts
			}
		}

		if sample.HeartRate > 0 && sample.HeartRate != models.VitalInvalid {
			hr = append(hr, float64(sample.HeartRate))
		}
		if sample.RespirationRate > 0 && sample.RespirationRate != models.VitalInvalid {
			rr = append(rr, float64(sample.RespirationRate))
		}
		movement = append(movement, float64(sample.BodyMovementRange))
		if sample.ApneaEvents() > 0 {
			apneaSamples++
		}
	}

	total := len(samples)
	stages := models.SleepStageBreakdown{
		DeepSleepMinutes:  stageCounts[models.StageDeep] / samplesPerMinute,
		DeepSleepPercent:  percent(stageCounts[models.StageDeep], total),
		LightSleepMinutes: stageCounts[models.StageLight] / samplesPerMinute,
		LightSleepPercent: percent(stageCounts[models.StageLight], total),
		AwakeMinutes:      stageCounts[models.StageAwake] / samplesPerMinute,
		AwakePercent:      percent(stageCounts[models.StageAwake], total),
	}

	totalSleepMinutes := stages.DeepSleepMinutes + stages.LightSleepMinutes
	timeInBed := timeInBedMinutes(sleepOnset, wakeTime, total)
	efficiency := 0.0
	if timeInBed > 0 {
		efficiency = math.Min(float64(totalSleepMinutes)/float64(timeInBed)*100, 100)
	}

	restlessness := math.Min(std(movement)*10, 100)

	quality, version := a.overallQuality(qualitySum, qualityCount, stages)

	summary := models.SleepSessionSummary{
		ReportID:               uuid.New().String(),
		UserID:                 userID,
		Date:                   date,
		OverallQuality:         quality,
		SleepScoreGrade:        grade(quality),
		TotalSleepTimeMinutes:  totalSleepMinutes,
		TimeInBedMinutes:       timeInBed,
		SleepEfficiencyPercent: round1(efficiency),
		SleepStages:            stages,
		VitalSigns:             vitalSummary(hr, rr),
		SleepPatterns: models.SleepPatternsSummary{
			AvgBodyMovement:   round1(mean(movement)),
			RestlessnessScore: round1(restlessness),
			ApneaEvents:       apneaSamples,
		},
		SleepOnset:      sleepOnset,
		WakeTime:        wakeTime,
		Recommendations: recommendations(quality, efficiency, restlessness, apneaSamples, stages),
		TotalReadings:   total,
		ModelVersion:    version,
	}

	a.logger.Info("sleep session analyzed",
		zap.String("user_id", userID),
		zap.String("report_id", summary.ReportID),
		zap.Int("total_readings", total),
		zap.Float64("overall_quality", quality),
		zap.String("model_version", version))

	return summary, nil
}

// overallQuality 模型预测不足一个窗口时使用基于阶段构成的统计评分
func (a *Aggregator) overallQuality(sum float64, count int, stages models.SleepStageBreakdown) (float64, string) {
	if count >= a.windowSize {
		return round1(sum / float64(count)), modelVersionML
	}
	basic := stages.DeepSleepPercent*1.5 + stages.LightSleepPercent*0.8 - stages.AwakePercent*2
	return round1(clamp100(basic)), modelVersionBasic
}

// timeInBedMinutes 以首末在床时间戳计算在床时长；缺少在床样本时退回样本总数
func timeInBedMinutes(onset, wake *int64, totalSamples int) int {
	if onset == nil || wake == nil {
		return totalSamples / samplesPerMinute
	}
	seconds := *wake - *onset + 1
	if seconds < 0 {
		seconds = 0
	}
	return int(seconds) / samplesPerMinute
}

func grade(quality float64) string {
	switch {
	case quality >= 85:
		return "A"
	case quality >= 75:
		return "B"
	case quality >= 65:
		return "C"
	case quality >= 50:
		return "D"
	default:
		return "F"
	}
}

// recommendations 固定阈值规则生成的建议列表
func recommendations(quality, efficiency, restlessness float64, apneaSamples int, stages models.SleepStageBreakdown) []string {
	var recs []string

	if stages.DeepSleepMinutes < 60 {
		recs = append(recs, "Deep sleep below 60 minutes. Keep a consistent bedtime and avoid screens before sleep.")
	} else if stages.DeepSleepMinutes > 120 {
		recs = append(recs, "Excellent deep sleep duration. Keep up your current sleep routine.")
	}
	if efficiency < 85 {
		recs = append(recs, fmt.Sprintf("Sleep efficiency at %.0f%% is below the 85%% target. Consider going to bed only when sleepy.", efficiency))
	}
	if apneaSamples > 5 {
		recs = append(recs, fmt.Sprintf("Detected %d readings with apnea events. Consider consulting a physician about sleep apnea.", apneaSamples))
	}
	if restlessness > 40 {
		recs = append(recs, "High restlessness detected. Check mattress comfort and room temperature.")
	}
	if stages.LightSleepMinutes < 120 {
		recs = append(recs, "Light sleep below 2 hours. Total sleep time may be insufficient.")
	}
	if stages.AwakeMinutes > 30 {
		recs = append(recs, "More than 30 minutes awake during the session. Reduce caffeine and evening fluid intake.")
	}

	if len(recs) == 0 {
		if quality >= 80 {
			recs = append(recs, "Great sleep quality. No changes recommended.")
		} else if quality >= 65 {
			recs = append(recs, "Reasonable sleep quality with room for improvement. Aim for a regular sleep schedule.")
		} else {
			recs = append(recs, "Sleep quality below average. Review sleep hygiene basics.")
		}
	}
	return recs
}

func vitalSummary(hr, rr []float64) models.VitalSignsSummary {
	out := models.VitalSignsSummary{}
	if len(hr) > 0 {
		out.AvgHeartRate = round1(mean(hr))
		out.MinHeartRate = minOf(hr)
		out.MaxHeartRate = maxOf(hr)
	}
	if len(rr) > 0 {
		out.AvgRespiration = round1(mean(rr))
		out.MinRespiration = minOf(rr)
		out.MaxRespiration = maxOf(rr)
	}
	return out
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
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

func std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
