package models

import "time"

// 充电会话跟踪阶段
const (
	TrackerIdle     = "idle"
	TrackerTracking = "tracking"
)

// TrackerState 充电会话跟踪器的持久化状态（单个序列化值）
type TrackerState struct {
	Phase           string `json:"phase"`
	StartTimeMillis int64  `json:"start_time_ms,omitempty"`
	StartLevel      int    `json:"start_level,omitempty"`
}

// IdleState 空闲状态
func IdleState() TrackerState {
	return TrackerState{Phase: TrackerIdle}
}

// TrackingState 跟踪中状态
func TrackingState(startMillis int64, startLevel int) TrackerState {
	return TrackerState{Phase: TrackerTracking, StartTimeMillis: startMillis, StartLevel: startLevel}
}

// BatterySnapshot 当前电池快照
type BatterySnapshot struct {
	Percent    int       `json:"percent"`
	IsCharging bool      `json:"is_charging"`
	ObservedAt time.Time `json:"observed_at"`
}

// 提醒类型
const (
	AlertLow  = "low"
	AlertHigh = "high"
)

// Alert 电量提醒
type Alert struct {
	Kind         string    `json:"kind"`
	Level        int       `json:"level"`
	Threshold    int       `json:"threshold"`
	ScheduleID   *int64    `json:"schedule_id,omitempty"`
	ScheduleName string    `json:"schedule_name,omitempty"`
	At           time.Time `json:"at"`
}

// AlertFeedback 用户对提醒的反馈计数
type AlertFeedback struct {
	ShortSnoozeCount  int `json:"short_snooze_count"`
	LongSnoozeCount   int `json:"long_snooze_count"`
	DisableTodayCount int `json:"disable_today_count"`
}

// FeedbackCountMax 反馈计数上限
const FeedbackCountMax = 1000

// 反馈类型
const (
	FeedbackShortSnooze  = "short_snooze"
	FeedbackLongSnooze   = "long_snooze"
	FeedbackDisableToday = "disable_today"
)
