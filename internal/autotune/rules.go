package autotune

import (
	"math"

	"github.com/langchou/surecharge/internal/models"
)

// 混合与限幅参数
const (
	SuggestionWeight = 0.6
	BaselineWeight   = 0.4

	DefaultRepeatMinutes = 20

	suggestLowOffset = 5
	suggestLowMin    = 15
	suggestLowMax    = 40
	suggestHighMin   = 70
	suggestHighMax   = 85

	fallbackLow  = 20
	fallbackHigh = 80

	tunedLowMin    = 5
	tunedLowMax    = 40
	tunedHighMin   = 60
	tunedHighMax   = 95
	tunedRepeatMin = 5
	tunedRepeatMax = 60
)

// Averages 计算起止电量的四舍五入平均值，没有记录时返回 nil
func Averages(sessions []models.ChargeSession) (avgStart, avgEnd *int) {
	if len(sessions) == 0 {
		return nil, nil
	}
	var sumStart, sumEnd float64
	for _, s := range sessions {
		sumStart += float64(s.StartLevel)
		sumEnd += float64(s.EndLevel)
	}
	n := float64(len(sessions))
	start := int(math.Round(sumStart / n))
	end := int(math.Round(sumEnd / n))
	return &start, &end
}

// FromHistory 根据历史平均值给出建议规则
func FromHistory(avgStart, avgEnd *int) models.BatteryRules {
	rules := models.BatteryRules{
		LowLevelEnabled:       true,
		LowLevelPercentage:    fallbackLow,
		HighLevelEnabled:      true,
		HighLevelPercentage:   fallbackHigh,
		RepeatIntervalMinutes: models.IntPtr(DefaultRepeatMinutes),
	}
	if avgStart != nil && avgEnd != nil {
		rules.LowLevelPercentage = clamp(*avgStart-suggestLowOffset, suggestLowMin, suggestLowMax)
		rules.HighLevelPercentage = clamp(*avgEnd, suggestHighMin, suggestHighMax)
	}
	return rules
}

// Blend 阻尼混合：0.6 * 建议值 + 0.4 * 基线，四舍五入
func Blend(baseline, suggestion int) int {
	return int(math.Round(SuggestionWeight*float64(suggestion) + BaselineWeight*float64(baseline)))
}

// Baseline 混合使用的基线锚点
type Baseline struct {
	Low    int `json:"low"`
	High   int `json:"high"`
	Repeat int `json:"repeat"`
}

// ResolveBaseline 优先使用已存储的基线，否则回退到当前规则（重复间隔再回退到 20）
func ResolveBaseline(settings models.AutoSettings, current models.BatteryRules) Baseline {
	b := Baseline{
		Low:    current.LowLevelPercentage,
		High:   current.HighLevelPercentage,
		Repeat: DefaultRepeatMinutes,
	}
	if settings.BaselineLow != nil {
		b.Low = *settings.BaselineLow
	}
	if settings.BaselineHigh != nil {
		b.High = *settings.BaselineHigh
	}
	switch {
	case settings.BaselineRepeatMinutes != nil:
		b.Repeat = *settings.BaselineRepeatMinutes
	case current.RepeatIntervalMinutes != nil:
		b.Repeat = *current.RepeatIntervalMinutes
	}
	return b
}

// Tune 将建议与基线混合并限幅，返回新的规则（高低电量提醒始终开启）
func Tune(current models.BatteryRules, baseline Baseline, suggestion models.BatteryRules) models.BatteryRules {
	suggestedRepeat := baseline.Repeat
	if suggestion.RepeatIntervalMinutes != nil {
		suggestedRepeat = *suggestion.RepeatIntervalMinutes
	}

	tuned := current
	tuned.LowLevelEnabled = true
	tuned.LowLevelPercentage = clamp(Blend(baseline.Low, suggestion.LowLevelPercentage), tunedLowMin, tunedLowMax)
	tuned.HighLevelEnabled = true
	tuned.HighLevelPercentage = clamp(Blend(baseline.High, suggestion.HighLevelPercentage), tunedHighMin, tunedHighMax)
	tuned.RepeatIntervalMinutes = models.IntPtr(clamp(Blend(baseline.Repeat, suggestedRepeat), tunedRepeatMin, tunedRepeatMax))
	return tuned
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
