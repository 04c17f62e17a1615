package models

import "time"

// ChargeSession 一次完整的充电过程（插入到拔出）
type ChargeSession struct {
	ID              int64 `json:"id" db:"id"`
	StartTimeMillis int64 `json:"start_time_ms" db:"start_time_ms"`
	EndTimeMillis   int64 `json:"end_time_ms" db:"end_time_ms"`
	StartLevel      int   `json:"start_level" db:"start_level"`
	EndLevel        int   `json:"end_level" db:"end_level"`
}

// Duration 充电时长
func (s ChargeSession) Duration() time.Duration {
	return time.Duration(s.EndTimeMillis-s.StartTimeMillis) * time.Millisecond
}

// HistorySettings 历史记录设置
type HistorySettings struct {
	HistoryDays int `json:"history_days"`
}

// DefaultHistoryDays 默认历史天数
const DefaultHistoryDays = 30
