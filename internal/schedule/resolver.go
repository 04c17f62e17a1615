package schedule

import (
	"sort"
	"time"

	"github.com/langchou/surecharge/internal/models"
)

// Result 生效规则解析结果
type Result struct {
	Rules          models.BatteryRules `json:"rules"`
	ActiveSchedule *models.Schedule    `json:"active_schedule,omitempty"`
	// ProfileID 实际采用的档案，档案引用失效时为空
	ProfileID *int64 `json:"profile_id,omitempty"`
}

// ProfileLookup 按 ID 查找档案，找不到返回 false
type ProfileLookup func(id int64) (models.BatteryProfile, bool)

// ProfilesByID 基于档案列表构造查找函数
func ProfilesByID(profiles []models.BatteryProfile) ProfileLookup {
	return func(id int64) (models.BatteryProfile, bool) {
		for _, p := range profiles {
			if p.ID == id {
				return p, true
			}
		}
		return models.BatteryProfile{}, false
	}
}

// Resolve 计算给定时刻的生效规则
//
// 所有生效的定时规则中按优先级降序、ID 升序取第一个。引用档案时直接使用档案规则，
// 档案不存在则回退到在基础规则上应用覆盖字段。无副作用。
func Resolve(base models.BatteryRules, schedules []models.Schedule, profiles []models.BatteryProfile, nowMillis int64, loc *time.Location) Result {
	return ResolveWith(base, schedules, ProfilesByID(profiles), nowMillis, loc)
}

// ResolveWith 同 Resolve，使用自定义档案查找
func ResolveWith(base models.BatteryRules, schedules []models.Schedule, lookup ProfileLookup, nowMillis int64, loc *time.Location) Result {
	matching := make([]models.Schedule, 0, len(schedules))
	for _, s := range schedules {
		if IsActive(s, nowMillis, loc) {
			matching = append(matching, s)
		}
	}
	if len(matching) == 0 {
		return Result{Rules: base}
	}

	winner := SelectHighestPriority(matching)
	result := Result{ActiveSchedule: &winner}

	if winner.UseProfileID != nil {
		if p, ok := lookup(*winner.UseProfileID); ok {
			result.Rules = p.ToRules()
			result.ProfileID = models.Int64Ptr(p.ID)
			return result
		}
	}

	result.Rules = ApplyOverrides(winner, base)
	return result
}

// SelectHighestPriority 优先级高者优先，相同优先级取 ID 较小者（最早创建）
func SelectHighestPriority(schedules []models.Schedule) models.Schedule {
	sorted := make([]models.Schedule, len(schedules))
	copy(sorted, schedules)
	SortByPriority(sorted)
	return sorted[0]
}

// SortByPriority 按优先级降序、ID 升序原地排序
func SortByPriority(schedules []models.Schedule) {
	sort.SliceStable(schedules, func(i, j int) bool {
		if schedules[i].Priority != schedules[j].Priority {
			return schedules[i].Priority > schedules[j].Priority
		}
		return schedules[i].ID < schedules[j].ID
	})
}
