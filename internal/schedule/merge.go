package schedule

import "github.com/langchou/surecharge/internal/models"

// ApplyOverrides 将定时规则中设置的覆盖字段逐项替换到基础规则的副本上
func ApplyOverrides(s models.Schedule, base models.BatteryRules) models.BatteryRules {
	result := base
	if s.OverrideLowEnabled != nil {
		result.LowLevelEnabled = *s.OverrideLowEnabled
	}
	if s.OverrideLowPercent != nil {
		result.LowLevelPercentage = *s.OverrideLowPercent
	}
	if s.OverrideHighEnabled != nil {
		result.HighLevelEnabled = *s.OverrideHighEnabled
	}
	if s.OverrideHighPercent != nil {
		result.HighLevelPercentage = *s.OverrideHighPercent
	}
	if s.OverrideRepeatMinutes != nil {
		result.RepeatIntervalMinutes = models.IntPtr(*s.OverrideRepeatMinutes)
	}
	return result
}
