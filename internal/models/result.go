package models

// 跌倒事件模式（规则级联输出，优先级从高到低见 pattern 包）
const (
	PatternRealFallLikely      = "real_fall_likely"
	PatternIntentionalSitting  = "intentional_sitting"
	PatternSensorFalsePositive = "sensor_false_positive"
	PatternNormalActivity      = "normal_activity"
	PatternInsufficientData    = "insufficient_data"
)

// 睡眠模式标签
const (
	SleepPatternDeep         = "deep_sleep"
	SleepPatternLight        = "light_sleep"
	SleepPatternRestless     = "restless_sleep"
	SleepPatternApneaConcern = "sleep_apnea_concern"
	SleepPatternAwake        = "awake"
	SleepPatternNormal       = "normal_sleep"
	SleepPatternInsufficient = "insufficient_data"
)

// FallAnalysis 跌倒判定的结构化解释（随判定返回给边界层）
type FallAnalysis struct {
	Pattern            string  `json:"pattern"`
	BodyMovementSpike  bool    `json:"body_movement_spike"`
	HighMovement       bool    `json:"high_movement"`
	VeryHighMovement   bool    `json:"very_high_movement"`
	RapidToStationary  bool    `json:"rapid_to_stationary"`
	ProlongedStillness bool    `json:"prolonged_stillness"`
	BecomingStill      bool    `json:"becoming_still"`
	SensorDetectedFall bool    `json:"sensor_detected_fall"`
	MovementMax        int     `json:"movement_max"`
	MovementVariance   float64 `json:"movement_variance"`
	CurrentDwellTime   int     `json:"current_dwell_time"`
	MotionState        int     `json:"motion_state"`
	BufferSize         int     `json:"buffer_size,omitempty"`
}

// FallVerdict 跌倒分类结果
type FallVerdict struct {
	IsRealFall bool         `json:"is_real_fall"`
	Confidence float64      `json:"confidence"` // [0,1]
	Analysis   FallAnalysis `json:"analysis"`
}

// StageProbabilities 四分类睡眠阶段概率分布
type StageProbabilities struct {
	Deep  float64 `json:"deep"`
	Light float64 `json:"light"`
	Awake float64 `json:"awake"`
	None  float64 `json:"none"`
}

// SleepAnalysis 睡眠质量判定的结构化解释
type SleepAnalysis struct {
	Pattern            string              `json:"pattern"`
	CurrentStage       int                 `json:"current_stage"`
	AvgHeartRate       float64             `json:"avg_heart_rate"`
	AvgRespiration     float64             `json:"avg_respiration"`
	MovementLevel      float64             `json:"movement_level"`
	TotalApneaEvents   int                 `json:"total_apnea_events"`
	RestlessnessScore  float64             `json:"restlessness_score"`
	PredictedStage     *int                `json:"predicted_stage,omitempty"`
	StageProbabilities *StageProbabilities `json:"stage_probabilities,omitempty"`
	BufferSize         int                 `json:"buffer_size,omitempty"`
}

// SleepPrediction 单条睡眠读数的质量预测
type SleepPrediction struct {
	QualityScore float64       `json:"quality_score"` // [0,100]
	Analysis     SleepAnalysis `json:"analysis"`
}

// SleepStageBreakdown 各睡眠阶段的时长统计
type SleepStageBreakdown struct {
	DeepSleepMinutes  int     `json:"deep_sleep_minutes"`
	DeepSleepPercent  float64 `json:"deep_sleep_percent"`
	LightSleepMinutes int     `json:"light_sleep_minutes"`
	LightSleepPercent float64 `json:"light_sleep_percent"`
	AwakeMinutes      int     `json:"awake_minutes"`
	AwakePercent      float64 `json:"awake_percent"`
}

// VitalSignsSummary 会话期间的生命体征统计
type VitalSignsSummary struct {
	AvgHeartRate   float64 `json:"avg_heart_rate"`
	MinHeartRate   float64 `json:"min_heart_rate"`
	MaxHeartRate   float64 `json:"max_heart_rate"`
	AvgRespiration float64 `json:"avg_respiration"`
	MinRespiration float64 `json:"min_respiration"`
	MaxRespiration float64 `json:"max_respiration"`
}

// SleepPatternsSummary 会话期间的体动/不安统计
type SleepPatternsSummary struct {
	AvgBodyMovement   float64 `json:"avg_body_movement"`
	RestlessnessScore float64 `json:"restlessness_score"`
	ApneaEvents       int     `json:"apnea_events"`
}

// SleepSessionSummary 整夜睡眠会话的汇总报告
// 由 report.Aggregator 一次性生成，不在核心层持久化
type SleepSessionSummary struct {
	ReportID               string               `json:"report_id"`
	UserID                 string               `json:"user_id"`
	Date                   string               `json:"date"`
	OverallQuality         float64              `json:"overall_quality"`
	SleepScoreGrade        string               `json:"sleep_score_grade"`
	TotalSleepTimeMinutes  int                  `json:"total_sleep_time_minutes"`
	TimeInBedMinutes       int                  `json:"time_in_bed_minutes"`
	SleepEfficiencyPercent float64              `json:"sleep_efficiency_percent"`
	SleepStages            SleepStageBreakdown  `json:"sleep_stages"`
	VitalSigns             VitalSignsSummary    `json:"vital_signs"`
	SleepPatterns          SleepPatternsSummary `json:"sleep_patterns"`
	SleepOnset             *int64               `json:"sleep_onset,omitempty"` // in_bed 首次为 1 的时间戳
	WakeTime               *int64               `json:"wake_time,omitempty"`   // in_bed 最后为 1 的时间戳
	Recommendations        []string             `json:"recommendations"`
	TotalReadings          int                  `json:"total_readings"`
	ModelVersion           string               `json:"ml_model_version"`
}
