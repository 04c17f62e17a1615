package models

// AutoSettings 自动调优设置
// 基线在开启自动模式（或自动模式下手动修改规则）时记录，作为阻尼锚点，不是当前生效的规则。
type AutoSettings struct {
	Enabled               bool `json:"enabled"`
	BaselineLow           *int `json:"baseline_low,omitempty"`
	BaselineHigh          *int `json:"baseline_high,omitempty"`
	BaselineRepeatMinutes *int `json:"baseline_repeat_minutes,omitempty"`
}

// WithBaseline 用规则更新基线；规则未设置重复间隔时保留原基线
func (a AutoSettings) WithBaseline(rules BatteryRules) AutoSettings {
	a.BaselineLow = IntPtr(rules.LowLevelPercentage)
	a.BaselineHigh = IntPtr(rules.HighLevelPercentage)
	if rules.RepeatIntervalMinutes != nil {
		a.BaselineRepeatMinutes = IntPtr(*rules.RepeatIntervalMinutes)
	}
	return a
}
