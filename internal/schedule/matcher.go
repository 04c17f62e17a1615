package schedule

import (
	"time"

	"github.com/langchou/surecharge/internal/models"
)

// IsActive 判断定时规则在给定时刻是否生效
//
// 时间段含起点不含终点；起止相同表示全天；起点不小于终点时视为跨午夜，
// 此时只在 [end, start) 区间之外生效。
func IsActive(s models.Schedule, nowMillis int64, loc *time.Location) bool {
	if !s.Enabled {
		return false
	}
	if loc == nil {
		loc = time.Local
	}

	t := time.UnixMilli(nowMillis).In(loc)

	dayIndex := clampDay(int(t.Weekday()))
	if (s.DaysMask>>dayIndex)&1 == 0 {
		return false
	}

	minutes := t.Hour()*60 + t.Minute()

	if s.IsAllDay() {
		return true
	}

	start, end := s.StartMinutes, s.EndMinutes
	if start < end {
		return minutes >= start && minutes < end
	}
	// 跨午夜
	return !(minutes >= end && minutes < start)
}

func clampDay(d int) int {
	if d < 0 {
		return 0
	}
	if d > 6 {
		return 6
	}
	return d
}
