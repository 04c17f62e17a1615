package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
)

// 键值存储中的键
const (
	SnoozeKey   = "snooze_until"
	FeedbackKey = "alert_feedback"
)

// 反馈动作对应的免打扰时长
const (
	shortSnoozeMinutes = 60
	longSnoozeMinutes  = 24 * 60
	// 关闭今日提醒持续到次日凌晨 3 点
	disableTodayResetHour = 3
)

// SnoozeStatus 免打扰状态
type SnoozeStatus struct {
	Snoozed bool       `json:"snoozed"`
	Until   *time.Time `json:"until,omitempty"`
}

// SnoozeService 免打扰与提醒反馈
type SnoozeService struct {
	logger *zap.Logger
	kv     KVStore
	clock  Clock
}

// NewSnoozeService 创建免打扰服务
func NewSnoozeService(logger *zap.Logger, kv KVStore, clock Clock) *SnoozeService {
	return &SnoozeService{logger: logger, kv: kv, clock: clock}
}

// SnoozeFor 从现在起免打扰 minutes 分钟
func (s *SnoozeService) SnoozeFor(ctx context.Context, minutes int) (SnoozeStatus, error) {
	if minutes <= 0 {
		return SnoozeStatus{}, fmt.Errorf("%w: minutes must be positive", ErrInvalidInput)
	}
	until := s.clock.Now().Add(time.Duration(minutes) * time.Minute)
	if err := s.kv.Save(ctx, SnoozeKey, until.UnixMilli()); err != nil {
		return SnoozeStatus{}, fmt.Errorf("save snooze: %w", err)
	}
	s.logger.Info("Alerts snoozed", zap.Int("minutes", minutes), zap.Time("until", until))
	return SnoozeStatus{Snoozed: true, Until: &until}, nil
}

// Clear 取消免打扰
func (s *SnoozeService) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, SnoozeKey); err != nil {
		return fmt.Errorf("clear snooze: %w", err)
	}
	s.logger.Info("Snooze cleared")
	return nil
}

// Status 当前免打扰状态
func (s *SnoozeService) Status(ctx context.Context) (SnoozeStatus, error) {
	var untilMillis int64
	found, err := s.kv.Load(ctx, SnoozeKey, &untilMillis)
	if err != nil {
		return SnoozeStatus{}, fmt.Errorf("load snooze: %w", err)
	}
	if !found || untilMillis <= s.clock.Now().UnixMilli() {
		return SnoozeStatus{}, nil
	}
	until := time.UnixMilli(untilMillis).In(s.clock.Location())
	return SnoozeStatus{Snoozed: true, Until: &until}, nil
}

// IsSnoozed 是否处于免打扰
func (s *SnoozeService) IsSnoozed(ctx context.Context) (bool, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Snoozed, nil
}

// Feedback 反馈计数
func (s *SnoozeService) Feedback(ctx context.Context) (models.AlertFeedback, error) {
	var fb models.AlertFeedback
	if _, err := s.kv.Load(ctx, FeedbackKey, &fb); err != nil {
		return models.AlertFeedback{}, fmt.Errorf("load feedback: %w", err)
	}
	return fb, nil
}

// RecordFeedback 执行反馈动作对应的免打扰并累加计数（上限 1000）
func (s *SnoozeService) RecordFeedback(ctx context.Context, kind string) (models.AlertFeedback, SnoozeStatus, error) {
	var minutes int
	switch kind {
	case models.FeedbackShortSnooze:
		minutes = shortSnoozeMinutes
	case models.FeedbackLongSnooze:
		minutes = longSnoozeMinutes
	case models.FeedbackDisableToday:
		minutes = minutesUntilNextMorning(s.clock.Now())
	default:
		return models.AlertFeedback{}, SnoozeStatus{}, fmt.Errorf("%w: unknown feedback kind %q", ErrInvalidInput, kind)
	}

	status, err := s.SnoozeFor(ctx, minutes)
	if err != nil {
		return models.AlertFeedback{}, SnoozeStatus{}, err
	}

	fb, err := s.Feedback(ctx)
	if err != nil {
		return models.AlertFeedback{}, SnoozeStatus{}, err
	}
	switch kind {
	case models.FeedbackShortSnooze:
		fb.ShortSnoozeCount = increment(fb.ShortSnoozeCount)
	case models.FeedbackLongSnooze:
		fb.LongSnoozeCount = increment(fb.LongSnoozeCount)
	case models.FeedbackDisableToday:
		fb.DisableTodayCount = increment(fb.DisableTodayCount)
	}
	if err := s.kv.Save(ctx, FeedbackKey, fb); err != nil {
		return models.AlertFeedback{}, SnoozeStatus{}, fmt.Errorf("save feedback: %w", err)
	}

	s.logger.Info("Alert feedback recorded", zap.String("kind", kind), zap.Int("snooze_minutes", minutes))
	return fb, status, nil
}

func increment(n int) int {
	return min(n+1, models.FeedbackCountMax)
}

// minutesUntilNextMorning 距下一个凌晨 3 点的分钟数，结果不为正时返回 60
func minutesUntilNextMorning(now time.Time) int {
	next := time.Date(now.Year(), now.Month(), now.Day(), disableTodayResetHour, 0, 0, 0, now.Location())
	if now.Hour() >= disableTodayResetHour {
		next = next.AddDate(0, 0, 1)
	}
	minutes := int(next.Sub(now) / time.Minute)
	if minutes <= 0 {
		return 60
	}
	return minutes
}
