package models

// 传感器工作模式
const (
	ModeFallDetection  = "fall_detection"
	ModeSleepDetection = "sleep_detection"
)

// 运动状态（跌倒检测模式）
const (
	MotionNone   = 0 // 无人
	MotionStill  = 1 // 静止
	MotionActive = 2 // 活动
)

// 睡眠阶段编码
const (
	StageDeep  = 0
	StageLight = 1
	StageAwake = 2
	StageNone  = 3
)

// VitalInvalid 生命体征无效读数（设备以 255 表示无效）
const VitalInvalid = 255

// FallSample 跌倒检测模式的单条传感器读数
// 由边界层解析产生，核心层只读不改
type FallSample struct {
	Timestamp       int64 `json:"timestamp"`        // 设备启动以来的秒数
	Existence       int   `json:"existence"`        // 0=无人, 1=有人
	Motion          int   `json:"motion"`           // 0=无, 1=静止, 2=活动
	BodyMovement    int   `json:"body_movement"`    // 体动强度指数 (0-255)
	StationaryDwell int   `json:"stationary_dwell"` // 静止驻留时间
	FallStatus      int   `json:"fall_status"`      // 设备自身的跌倒判定 (0/1)
	HeartRate       *int  `json:"heart_rate,omitempty"`       // 0-255, 255=无效
	RespirationRate *int  `json:"respiration_rate,omitempty"` // 0-255, 255=无效
}

// SleepComprehensive 睡眠综合子记录
type SleepComprehensive struct {
	Turns         int `json:"turns"`
	LargeBodyMove int `json:"large_body_move"`
	MinorBodyMove int `json:"minor_body_move"`
	ApneaEvents   int `json:"apnea_events"`
}

// SleepSample 睡眠监测模式的单条传感器读数
type SleepSample struct {
	Timestamp         int64               `json:"timestamp"`
	InBed             int                 `json:"in_bed"`       // 0/1
	SleepStatus       int                 `json:"sleep_status"` // 0=深睡, 1=浅睡, 2=清醒, 3=无
	HeartRate         int                 `json:"heart_rate"`
	RespirationRate   int                 `json:"respiration_rate"`
	BodyMovementRange int                 `json:"body_movement_range"`
	HumanMovement     int                 `json:"human_movement"`
	Comprehensive     *SleepComprehensive `json:"comprehensive,omitempty"`
}

// Turns 返回综合子记录中的翻身次数（无记录时为 0）
func (s *SleepSample) Turns() int {
	if s.Comprehensive == nil {
		return 0
	}
	return s.Comprehensive.Turns
}

// LargeBodyMoves 返回大体动次数
func (s *SleepSample) LargeBodyMoves() int {
	if s.Comprehensive == nil {
		return 0
	}
	return s.Comprehensive.LargeBodyMove
}

// MinorBodyMoves 返回小体动次数
func (s *SleepSample) MinorBodyMoves() int {
	if s.Comprehensive == nil {
		return 0
	}
	return s.Comprehensive.MinorBodyMove
}

// ApneaEvents 返回呼吸暂停事件次数
func (s *SleepSample) ApneaEvents() int {
	if s.Comprehensive == nil {
		return 0
	}
	return s.Comprehensive.ApneaEvents
}
