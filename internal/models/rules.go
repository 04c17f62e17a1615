package models

import "fmt"

// 规则取值范围
const (
	LowPercentMin    = 5
	LowPercentMax    = 50
	HighPercentMin   = 60
	HighPercentMax   = 100
	RepeatMinutesMin = 5
	RepeatMinutesMax = 60
)

// BatteryRules 电量提醒规则（值对象，修改时复制）
type BatteryRules struct {
	LowLevelEnabled       bool `json:"low_level_enabled"`
	LowLevelPercentage    int  `json:"low_level_percentage"`
	HighLevelEnabled      bool `json:"high_level_enabled"`
	HighLevelPercentage   int  `json:"high_level_percentage"`
	RepeatIntervalMinutes *int `json:"repeat_interval_minutes,omitempty"`
}

// DefaultRules 默认规则：低电量 15%，高电量 80%，不重复提醒
func DefaultRules() BatteryRules {
	return BatteryRules{
		LowLevelEnabled:     true,
		LowLevelPercentage:  15,
		HighLevelEnabled:    true,
		HighLevelPercentage: 80,
	}
}

// Validate 校验规则取值范围
func (r BatteryRules) Validate() error {
	if r.LowLevelPercentage < LowPercentMin || r.LowLevelPercentage > LowPercentMax {
		return fmt.Errorf("low_level_percentage %d out of range [%d,%d]", r.LowLevelPercentage, LowPercentMin, LowPercentMax)
	}
	if r.HighLevelPercentage < HighPercentMin || r.HighLevelPercentage > HighPercentMax {
		return fmt.Errorf("high_level_percentage %d out of range [%d,%d]", r.HighLevelPercentage, HighPercentMin, HighPercentMax)
	}
	if r.RepeatIntervalMinutes != nil {
		m := *r.RepeatIntervalMinutes
		if m < RepeatMinutesMin || m > RepeatMinutesMax {
			return fmt.Errorf("repeat_interval_minutes %d out of range [%d,%d]", m, RepeatMinutesMin, RepeatMinutesMax)
		}
	}
	return nil
}

// RepeatOrZero 未设置重复间隔时返回 0
func (r BatteryRules) RepeatOrZero() int {
	if r.RepeatIntervalMinutes == nil {
		return 0
	}
	return *r.RepeatIntervalMinutes
}

// Equal 严格按值比较：重复间隔为空与 0 视为不同，非空时比较指针指向的值。
// 判断当前生效档案请使用 Equivalent。
func (r BatteryRules) Equal(other BatteryRules) bool {
	if r.LowLevelEnabled != other.LowLevelEnabled ||
		r.LowLevelPercentage != other.LowLevelPercentage ||
		r.HighLevelEnabled != other.HighLevelEnabled ||
		r.HighLevelPercentage != other.HighLevelPercentage {
		return false
	}
	if (r.RepeatIntervalMinutes == nil) != (other.RepeatIntervalMinutes == nil) {
		return false
	}
	return r.RepeatIntervalMinutes == nil || *r.RepeatIntervalMinutes == *other.RepeatIntervalMinutes
}

// Equivalent 判断两套规则是否等效，用于确定当前生效的档案。
// 重复间隔为空与 0 视为相同（都表示不重复提醒）。
func (r BatteryRules) Equivalent(other BatteryRules) bool {
	return r.LowLevelEnabled == other.LowLevelEnabled &&
		r.LowLevelPercentage == other.LowLevelPercentage &&
		r.HighLevelEnabled == other.HighLevelEnabled &&
		r.HighLevelPercentage == other.HighLevelPercentage &&
		r.RepeatOrZero() == other.RepeatOrZero()
}

// IntPtr 返回 int 指针
func IntPtr(v int) *int {
	return &v
}

// BoolPtr 返回 bool 指针
func BoolPtr(v bool) *bool {
	return &v
}

// Int64Ptr 返回 int64 指针
func Int64Ptr(v int64) *int64 {
	return &v
}
