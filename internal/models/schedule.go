package models

import "fmt"

// 星期掩码，bit0 = 周日 ... bit6 = 周六
const (
	DaySunday    = 1 << 0
	DayMonday    = 1 << 1
	DayTuesday   = 1 << 2
	DayWednesday = 1 << 3
	DayThursday  = 1 << 4
	DayFriday    = 1 << 5
	DaySaturday  = 1 << 6

	DaysWeekdays = DayMonday | DayTuesday | DayWednesday | DayThursday | DayFriday
	DaysWeekend  = DaySunday | DaySaturday
	DaysAll      = DaysWeekdays | DaysWeekend
)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 24 * 60

// Schedule 定时规则：按星期与时间段替换档案或覆盖部分阈值
type Schedule struct {
	ID           int64  `json:"id" db:"id"` // 0 表示新建
	Name         string `json:"name" db:"name"`
	Enabled      bool   `json:"enabled" db:"enabled"`
	DaysMask     int    `json:"days_mask" db:"days_mask"`
	StartMinutes int    `json:"start_minutes" db:"start_minutes"`
	EndMinutes   int    `json:"end_minutes" db:"end_minutes"`

	// 弱引用：按 ID 查找档案，档案被删除时回退到覆盖合并
	UseProfileID *int64 `json:"use_profile_id,omitempty" db:"use_profile_id"`

	OverrideLowEnabled    *bool `json:"override_low_enabled,omitempty" db:"override_low_enabled"`
	OverrideLowPercent    *int  `json:"override_low_percent,omitempty" db:"override_low_percent"`
	OverrideHighEnabled   *bool `json:"override_high_enabled,omitempty" db:"override_high_enabled"`
	OverrideHighPercent   *int  `json:"override_high_percent,omitempty" db:"override_high_percent"`
	OverrideRepeatMinutes *int  `json:"override_repeat_minutes,omitempty" db:"override_repeat_minutes"`

	Priority int `json:"priority" db:"priority"`
}

// IsAllDay 起止相同表示全天
func (s Schedule) IsAllDay() bool {
	return s.StartMinutes == s.EndMinutes
}

// AutoName 名称为空时使用的默认名称
func (s Schedule) AutoName() string {
	if s.UseProfileID != nil {
		return "Profile schedule"
	}
	return "Custom schedule"
}

// Validate 校验星期掩码与时间段
func (s Schedule) Validate() error {
	if s.DaysMask < 0 || s.DaysMask > DaysAll {
		return fmt.Errorf("days_mask %d out of range [0,%d]", s.DaysMask, DaysAll)
	}
	if s.StartMinutes < 0 || s.StartMinutes >= MinutesPerDay {
		return fmt.Errorf("start_minutes %d out of range [0,%d)", s.StartMinutes, MinutesPerDay)
	}
	if s.EndMinutes < 0 || s.EndMinutes >= MinutesPerDay {
		return fmt.Errorf("end_minutes %d out of range [0,%d)", s.EndMinutes, MinutesPerDay)
	}
	if s.OverrideLowPercent != nil && (*s.OverrideLowPercent < LowPercentMin || *s.OverrideLowPercent > LowPercentMax) {
		return fmt.Errorf("override_low_percent %d out of range", *s.OverrideLowPercent)
	}
	if s.OverrideHighPercent != nil && (*s.OverrideHighPercent < HighPercentMin || *s.OverrideHighPercent > HighPercentMax) {
		return fmt.Errorf("override_high_percent %d out of range", *s.OverrideHighPercent)
	}
	if s.OverrideRepeatMinutes != nil && (*s.OverrideRepeatMinutes < RepeatMinutesMin || *s.OverrideRepeatMinutes > RepeatMinutesMax) {
		return fmt.Errorf("override_repeat_minutes %d out of range", *s.OverrideRepeatMinutes)
	}
	return nil
}
