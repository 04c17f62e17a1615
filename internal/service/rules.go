package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/internal/schedule"
	"github.com/langchou/surecharge/pkg/ws"
)

// 生效规则来源
const (
	SourceBase     = "base"
	SourceSchedule = "schedule"
)

// EffectiveRules 某一时刻的生效规则
type EffectiveRules struct {
	Rules          models.BatteryRules `json:"rules"`
	Source         string              `json:"source"`
	ActiveSchedule *models.Schedule    `json:"active_schedule,omitempty"`
	ProfileID      *int64              `json:"profile_id,omitempty"`
	EvaluatedAt    time.Time           `json:"evaluated_at"`
}

// RulesService 基础规则、自动模式与生效规则
type RulesService struct {
	logger   *zap.Logger
	rules    RulesStore
	auto     AutoSettingsStore
	snapshot SnapshotReader
	clock    Clock
	notifier Notifier
}

// NewRulesService 创建规则服务
func NewRulesService(logger *zap.Logger, rules RulesStore, auto AutoSettingsStore, snapshot SnapshotReader, clock Clock, notifier Notifier) *RulesService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &RulesService{
		logger:   logger,
		rules:    rules,
		auto:     auto,
		snapshot: snapshot,
		clock:    clock,
		notifier: notifier,
	}
}

// Rules 当前基础规则
func (s *RulesService) Rules(ctx context.Context) (models.BatteryRules, error) {
	rules, err := s.rules.Get(ctx)
	if err != nil {
		return models.BatteryRules{}, fmt.Errorf("get rules: %w", err)
	}
	return rules, nil
}

// SetRules 校验并替换基础规则；自动模式开启时同时更新基线
func (s *RulesService) SetRules(ctx context.Context, rules models.BatteryRules) error {
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 基线先于规则写入，任一步失败时基础规则保持不变
	settings, err := s.auto.Get(ctx)
	if err != nil {
		return fmt.Errorf("get auto settings: %w", err)
	}
	if settings.Enabled {
		if err := s.auto.UpdateBaseline(ctx, rules); err != nil {
			return fmt.Errorf("update auto baseline: %w", err)
		}
		s.logger.Debug("Auto baseline captured from manual rules change")
	}

	if err := s.rules.Set(ctx, rules); err != nil {
		return fmt.Errorf("set rules: %w", err)
	}

	s.logger.Info("Rules updated",
		zap.Bool("low_enabled", rules.LowLevelEnabled),
		zap.Int("low", rules.LowLevelPercentage),
		zap.Bool("high_enabled", rules.HighLevelEnabled),
		zap.Int("high", rules.HighLevelPercentage),
		zap.Intp("repeat", rules.RepeatIntervalMinutes))

	s.notifier.BroadcastMessage(ws.MsgTypeRulesUpdate, rules)
	s.PublishEffective(ctx)
	return nil
}

// Effective 当前时刻的生效规则
func (s *RulesService) Effective(ctx context.Context) (*EffectiveRules, error) {
	return s.EffectiveAt(ctx, s.clock.Now())
}

// EffectiveAt 指定时刻的生效规则，基于一次快照读取计算
func (s *RulesService) EffectiveAt(ctx context.Context, at time.Time) (*EffectiveRules, error) {
	snap, err := s.snapshot.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rules snapshot: %w", err)
	}

	result := schedule.Resolve(snap.Rules, snap.Schedules, snap.Profiles, at.UnixMilli(), s.clock.Location())

	eff := &EffectiveRules{
		Rules:          result.Rules,
		Source:         SourceBase,
		ActiveSchedule: result.ActiveSchedule,
		ProfileID:      result.ProfileID,
		EvaluatedAt:    at,
	}
	if result.ActiveSchedule != nil {
		eff.Source = SourceSchedule
	}
	return eff, nil
}

// PublishEffective 重新计算并推送生效规则
func (s *RulesService) PublishEffective(ctx context.Context) {
	eff, err := s.Effective(ctx)
	if err != nil {
		s.logger.Warn("Failed to compute effective rules", zap.Error(err))
		return
	}
	s.notifier.BroadcastMessage(ws.MsgTypeEffectiveUpdate, eff)
}

// AutoSettings 自动模式设置
func (s *RulesService) AutoSettings(ctx context.Context) (models.AutoSettings, error) {
	settings, err := s.auto.Get(ctx)
	if err != nil {
		return models.AutoSettings{}, fmt.Errorf("get auto settings: %w", err)
	}
	return settings, nil
}

// SetAutoEnabled 开关自动模式，开启时以当前规则作为基线
func (s *RulesService) SetAutoEnabled(ctx context.Context, enabled bool) (models.AutoSettings, error) {
	if err := s.auto.SetEnabled(ctx, enabled); err != nil {
		return models.AutoSettings{}, fmt.Errorf("set auto enabled: %w", err)
	}
	if enabled {
		current, err := s.rules.Get(ctx)
		if err != nil {
			return models.AutoSettings{}, fmt.Errorf("get rules: %w", err)
		}
		if err := s.auto.UpdateBaseline(ctx, current); err != nil {
			return models.AutoSettings{}, fmt.Errorf("update auto baseline: %w", err)
		}
	}
	s.logger.Info("Auto mode toggled", zap.Bool("enabled", enabled))
	return s.AutoSettings(ctx)
}
