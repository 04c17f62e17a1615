package models

import "time"

// BatteryProfile 电量提醒档案
type BatteryProfile struct {
	ID                    int64     `json:"id" db:"id"` // 0 表示未保存
	Name                  string    `json:"name" db:"name"`
	LowLevelEnabled       bool      `json:"low_level_enabled" db:"low_level_enabled"`
	LowLevelPercentage    int       `json:"low_level_percentage" db:"low_level_percentage"`
	HighLevelEnabled      bool      `json:"high_level_enabled" db:"high_level_enabled"`
	HighLevelPercentage   int       `json:"high_level_percentage" db:"high_level_percentage"`
	RepeatIntervalMinutes *int      `json:"repeat_interval_minutes,omitempty" db:"repeat_interval_minutes"`
	IsBuiltIn             bool      `json:"is_built_in" db:"built_in"`
	OrderIndex            int       `json:"order_index" db:"order_index"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// ToRules 转换为规则（丢弃 ID、名称与内置标记）
func (p BatteryProfile) ToRules() BatteryRules {
	return BatteryRules{
		LowLevelEnabled:       p.LowLevelEnabled,
		LowLevelPercentage:    p.LowLevelPercentage,
		HighLevelEnabled:      p.HighLevelEnabled,
		HighLevelPercentage:   p.HighLevelPercentage,
		RepeatIntervalMinutes: p.RepeatIntervalMinutes,
	}
}

// ProfileFromRules 根据规则创建档案
func ProfileFromRules(name string, rules BatteryRules) BatteryProfile {
	return BatteryProfile{
		Name:                  name,
		LowLevelEnabled:       rules.LowLevelEnabled,
		LowLevelPercentage:    rules.LowLevelPercentage,
		HighLevelEnabled:      rules.HighLevelEnabled,
		HighLevelPercentage:   rules.HighLevelPercentage,
		RepeatIntervalMinutes: rules.RepeatIntervalMinutes,
	}
}

// DefaultProfiles 首次启动时写入的内置档案
func DefaultProfiles() []BatteryProfile {
	return []BatteryProfile{
		{
			Name:                  "Balanced daily",
			LowLevelEnabled:       true,
			LowLevelPercentage:    20,
			HighLevelEnabled:      true,
			HighLevelPercentage:   80,
			RepeatIntervalMinutes: IntPtr(15),
			IsBuiltIn:             true,
			OrderIndex:            0,
		},
		{
			Name:                  "Battery health first",
			LowLevelEnabled:       true,
			LowLevelPercentage:    25,
			HighLevelEnabled:      true,
			HighLevelPercentage:   75,
			RepeatIntervalMinutes: IntPtr(30),
			IsBuiltIn:             true,
			OrderIndex:            1,
		},
		{
			Name:                "Full charge",
			LowLevelEnabled:     false,
			LowLevelPercentage:  15,
			HighLevelEnabled:    true,
			HighLevelPercentage: 100,
			IsBuiltIn:           true,
			OrderIndex:          2,
		},
	}
}
