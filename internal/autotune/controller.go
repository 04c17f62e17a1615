package autotune

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
)

// RulesStore 规则存储
type RulesStore interface {
	Get(ctx context.Context) (models.BatteryRules, error)
	Set(ctx context.Context, rules models.BatteryRules) error
}

// AutoSettingsStore 自动调优设置存储
type AutoSettingsStore interface {
	Get(ctx context.Context) (models.AutoSettings, error)
}

// SessionStore 充电记录存储
type SessionStore interface {
	SessionsSince(ctx context.Context, sinceMillis int64) ([]models.ChargeSession, error)
}

// 运行结果状态
const (
	StatusDisabled  = "disabled"
	StatusNoHistory = "no_history"
	StatusTuned     = "tuned"
)

// RunResult 一次调优的结果
type RunResult struct {
	Status       string               `json:"status"`
	SessionCount int                  `json:"session_count"`
	AvgStart     *int                 `json:"avg_start,omitempty"`
	AvgEnd       *int                 `json:"avg_end,omitempty"`
	Suggestion   *models.BatteryRules `json:"suggestion,omitempty"`
	Baseline     *Baseline            `json:"baseline,omitempty"`
	Before       *models.BatteryRules `json:"before,omitempty"`
	After        *models.BatteryRules `json:"after,omitempty"`
}

// Controller 自动调优控制器
type Controller struct {
	logger      *zap.Logger
	rules       RulesStore
	auto        AutoSettingsStore
	sessions    SessionStore
	historyDays int
	now         func() time.Time
}

// NewController 创建控制器
func NewController(logger *zap.Logger, rules RulesStore, auto AutoSettingsStore, sessions SessionStore, historyDays int, now func() time.Time) *Controller {
	if historyDays <= 0 {
		historyDays = models.DefaultHistoryDays
	}
	if now == nil {
		now = time.Now
	}
	return &Controller{
		logger:      logger,
		rules:       rules,
		auto:        auto,
		sessions:    sessions,
		historyDays: historyDays,
		now:         now,
	}
}

// Run 执行一次调优
//
// 自动模式关闭或没有历史记录时不做任何修改。最终规则一次性整体写入，
// 写入前 ctx 被取消则放弃，不会留下部分更新。
func (c *Controller) Run(ctx context.Context) (*RunResult, error) {
	c.logger.Info("Auto-tune run started")

	settings, err := c.auto.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read auto settings: %w", err)
	}
	c.logger.Debug("Auto settings loaded",
		zap.Bool("enabled", settings.Enabled),
		zap.Intp("baseline_low", settings.BaselineLow),
		zap.Intp("baseline_high", settings.BaselineHigh),
		zap.Intp("baseline_repeat", settings.BaselineRepeatMinutes))

	if !settings.Enabled {
		c.logger.Info("Auto mode disabled, skipping tuning")
		return &RunResult{Status: StatusDisabled}, nil
	}

	since := c.now().Add(-time.Duration(c.historyDays) * 24 * time.Hour).UnixMilli()
	sessions, err := c.sessions.SessionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("read charge sessions: %w", err)
	}
	if len(sessions) == 0 {
		c.logger.Info("No charge history, nothing to tune")
		return &RunResult{Status: StatusNoHistory}, nil
	}

	avgStart, avgEnd := Averages(sessions)

	current, err := c.rules.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	suggestion := FromHistory(avgStart, avgEnd)
	baseline := ResolveBaseline(settings, current)
	tuned := Tune(current, baseline, suggestion)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("auto-tune cancelled: %w", err)
	}
	if err := c.rules.Set(ctx, tuned); err != nil {
		return nil, fmt.Errorf("write tuned rules: %w", err)
	}

	c.logger.Info("Auto-tune applied",
		zap.Int("sessions", len(sessions)),
		zap.Intp("avg_start", avgStart),
		zap.Intp("avg_end", avgEnd),
		zap.Int("low_from", baseline.Low),
		zap.Int("low_to", tuned.LowLevelPercentage),
		zap.Int("high_from", baseline.High),
		zap.Int("high_to", tuned.HighLevelPercentage),
		zap.Int("repeat_from", baseline.Repeat),
		zap.Intp("repeat_to", tuned.RepeatIntervalMinutes))

	return &RunResult{
		Status:       StatusTuned,
		SessionCount: len(sessions),
		AvgStart:     avgStart,
		AvgEnd:       avgEnd,
		Suggestion:   &suggestion,
		Baseline:     &baseline,
		Before:       &current,
		After:        &tuned,
	}, nil
}
