package health

import (
	"math"

	"github.com/langchou/surecharge/internal/models"
)

// 评分阈值与惩罚参数
const (
	fullChargeLevel    = 95
	deepDischargeLevel = 10
	minSpeedSampleMs   = 15 * 60 * 1000
	msPerHour          = 3_600_000.0
	msPerDay           = 86_400_000

	slowSpeedPercentPerHour = 10.0
)

// 判定标签
const (
	VerdictGreat    = "Great"
	VerdictGood     = "Good"
	VerdictWorn     = "Worn"
	VerdictDegraded = "Degraded"
)

// 建议文案
const (
	SuggestionFullCharges   = "Try unplugging closer to 80–90% instead of charging to 100% almost every time."
	SuggestionDeepDischarge = "Avoid letting the battery drop below 10% regularly; plugging in a bit earlier is easier on the battery."
	SuggestionManyCycles    = "Your history suggests several hundred full charge cycles. A moderate capacity loss is normal at this point."
	SuggestionSlowCharging  = "Charging often seems quite slow. If you're using an older cable or charger, trying a different charger/cable may help."
	SuggestionHabitsFine    = "Your habits already look quite battery-friendly. Keeping most cycles between roughly 20% and 80% will help in the long run."
)

// Summary 电池健康摘要
type Summary struct {
	Score                     int       `json:"score"`
	VerdictLabel              string    `json:"verdict_label"`
	SessionCount              int       `json:"session_count"`
	FullChargeCount           int       `json:"full_charge_count"`
	DeepDischargeCount        int       `json:"deep_discharge_count"`
	ApproxCycles              float64   `json:"approx_cycles"`
	AgeDays                   *int      `json:"age_days,omitempty"`
	AverageChargeSpeedPerHour *float64  `json:"average_charge_speed_percent_per_hour,omitempty"`
	HasSlowCharging           bool      `json:"has_slow_charging"`
	Penalties                 Penalties `json:"penalties"`
	Suggestions               []string  `json:"suggestions"`
}

// Penalties 各项扣分
type Penalties struct {
	FullCharge    float64 `json:"full_charge"`
	DeepDischarge float64 `json:"deep_discharge"`
	Cycles        float64 `json:"cycles"`
	Age           float64 `json:"age"`
	SlowCharging  float64 `json:"slow_charging"`
}

// Total 总扣分
func (p Penalties) Total() float64 {
	return p.FullCharge + p.DeepDischarge + p.Cycles + p.Age + p.SlowCharging
}

// FromSessions 根据充电记录计算健康摘要，记录为空时返回 nil（数据不足，不是错误）
func FromSessions(sessions []models.ChargeSession, nowMillis int64) *Summary {
	if len(sessions) == 0 {
		return nil
	}

	var (
		fullChargeCount    int
		deepDischargeCount int
		totalDeltaPercent  float64
		firstTimestamp     int64 = math.MaxInt64
		speedSamples       int
		speedSum           float64
	)

	for _, s := range sessions {
		start := clamp(s.StartLevel, 0, 100)
		end := clamp(s.EndLevel, 0, 100)
		delta := end - start
		if delta < 0 {
			delta = 0
		}
		totalDeltaPercent += float64(delta)

		if end >= fullChargeLevel {
			fullChargeCount++
		}
		if start <= deepDischargeLevel {
			deepDischargeCount++
		}
		if s.StartTimeMillis < firstTimestamp {
			firstTimestamp = s.StartTimeMillis
		}

		durationMs := s.EndTimeMillis - s.StartTimeMillis
		if delta > 0 && durationMs > minSpeedSampleMs {
			hours := float64(durationMs) / msPerHour
			speedSum += float64(delta) / hours
			speedSamples++
		}
	}

	approxCycles := totalDeltaPercent / 100.0

	var ageDays *int
	if firstTimestamp != math.MaxInt64 {
		days := int(math.Floor(float64(nowMillis-firstTimestamp) / msPerDay))
		if days < 0 {
			days = 0
		}
		ageDays = &days
	}

	count := float64(len(sessions))
	ratioFull := float64(fullChargeCount) / count
	ratioDeep := float64(deepDischargeCount) / count

	var avgSpeed *float64
	if speedSamples > 0 {
		v := speedSum / float64(speedSamples)
		avgSpeed = &v
	}
	slow := avgSpeed != nil && *avgSpeed < slowSpeedPercentPerHour

	penalties := Penalties{
		FullCharge:    math.Min(30, ratioFull*40),
		DeepDischarge: math.Min(25, ratioDeep*35),
		Cycles:        math.Min(25, approxCycles*0.08),
	}
	if ageDays != nil {
		penalties.Age = math.Min(15, (float64(*ageDays)/365.0)*10)
	}
	if slow {
		penalties.SlowCharging = 5
	}

	score := clamp(int(math.Round(100-penalties.Total())), 0, 100)

	var suggestions []string
	if ratioFull > 0.30 {
		suggestions = append(suggestions, SuggestionFullCharges)
	}
	if ratioDeep > 0.20 {
		suggestions = append(suggestions, SuggestionDeepDischarge)
	}
	if approxCycles > 300 {
		suggestions = append(suggestions, SuggestionManyCycles)
	}
	if slow {
		suggestions = append(suggestions, SuggestionSlowCharging)
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, SuggestionHabitsFine)
	}

	return &Summary{
		Score:                     score,
		VerdictLabel:              Verdict(score),
		SessionCount:              len(sessions),
		FullChargeCount:           fullChargeCount,
		DeepDischargeCount:        deepDischargeCount,
		ApproxCycles:              approxCycles,
		AgeDays:                   ageDays,
		AverageChargeSpeedPerHour: avgSpeed,
		HasSlowCharging:           slow,
		Penalties:                 penalties,
		Suggestions:               suggestions,
	}
}

// Verdict 根据分数给出判定标签
func Verdict(score int) string {
	switch {
	case score >= 85:
		return VerdictGreat
	case score >= 70:
		return VerdictGood
	case score >= 55:
		return VerdictWorn
	default:
		return VerdictDegraded
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
