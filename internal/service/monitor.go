package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/pkg/ws"
)

// SessionTracker 充电会话跟踪
type SessionTracker interface {
	OnBatteryUpdate(ctx context.Context, level int, charging bool, nowMillis int64) error
}

// MonitorService 处理电量读数：跟踪充电会话并按生效规则发出提醒
//
// 每个充电周期内高低电量提醒各最多一次，充电状态变化时重置。
type MonitorService struct {
	logger   *zap.Logger
	tracker  SessionTracker
	snooze   *SnoozeService
	rules    *RulesService
	notifier Notifier
	clock    Clock

	mu           sync.Mutex
	lastCharging *bool
	firedLow     bool
	firedHigh    bool
	latest       *models.BatterySnapshot
}

// NewMonitorService 创建监控服务
func NewMonitorService(logger *zap.Logger, tracker SessionTracker, snooze *SnoozeService, rules *RulesService, notifier Notifier, clock Clock) *MonitorService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &MonitorService{
		logger:   logger,
		tracker:  tracker,
		snooze:   snooze,
		rules:    rules,
		notifier: notifier,
		clock:    clock,
	}
}

// Latest 最近一次电量读数
func (s *MonitorService) Latest() (models.BatterySnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return models.BatterySnapshot{}, false
	}
	return *s.latest, true
}

// HandleBatteryUpdate 处理一次电量读数，返回本次发出的提醒
func (s *MonitorService) HandleBatteryUpdate(ctx context.Context, snap models.BatterySnapshot) ([]models.Alert, error) {
	if snap.Percent < 0 || snap.Percent > 100 {
		return nil, fmt.Errorf("%w: percent %d out of range [0,100]", ErrInvalidInput, snap.Percent)
	}
	if snap.ObservedAt.IsZero() {
		snap.ObservedAt = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &snap
	s.notifier.BroadcastMessage(ws.MsgTypeBatteryUpdate, snap)

	s.logger.Debug("Battery update",
		zap.Int("level", snap.Percent),
		zap.Bool("charging", snap.IsCharging))

	// 会话跟踪失败不影响提醒
	if err := s.tracker.OnBatteryUpdate(ctx, snap.Percent, snap.IsCharging, snap.ObservedAt.UnixMilli()); err != nil {
		s.logger.Error("Charge session tracking failed", zap.Error(err))
	}

	snoozed, err := s.snooze.IsSnoozed(ctx)
	if err != nil {
		return nil, err
	}
	if snoozed {
		s.logger.Debug("Snoozed, skipping alerts for this update")
		return nil, nil
	}

	if s.lastCharging != nil && *s.lastCharging != snap.IsCharging {
		s.logger.Debug("Charging state changed, resetting cycle flags",
			zap.Bool("from", *s.lastCharging),
			zap.Bool("to", snap.IsCharging))
		s.firedLow = false
		s.firedHigh = false
	}
	charging := snap.IsCharging
	s.lastCharging = &charging

	eff, err := s.rules.EffectiveAt(ctx, snap.ObservedAt)
	if err != nil {
		return nil, err
	}
	rules := eff.Rules

	var alerts []models.Alert
	if !snap.IsCharging && rules.LowLevelEnabled && !s.firedLow && snap.Percent <= rules.LowLevelPercentage {
		alerts = append(alerts, s.alert(models.AlertLow, snap, rules.LowLevelPercentage, eff))
		s.firedLow = true
	}
	if snap.IsCharging && rules.HighLevelEnabled && !s.firedHigh && snap.Percent >= rules.HighLevelPercentage {
		alerts = append(alerts, s.alert(models.AlertHigh, snap, rules.HighLevelPercentage, eff))
		s.firedHigh = true
	}
	return alerts, nil
}

func (s *MonitorService) alert(kind string, snap models.BatterySnapshot, threshold int, eff *EffectiveRules) models.Alert {
	a := models.Alert{
		Kind:      kind,
		Level:     snap.Percent,
		Threshold: threshold,
		At:        snap.ObservedAt,
	}
	if eff.ActiveSchedule != nil {
		id := eff.ActiveSchedule.ID
		a.ScheduleID = &id
		a.ScheduleName = eff.ActiveSchedule.Name
	}

	s.logger.Info("Battery alert",
		zap.String("kind", kind),
		zap.Int("level", snap.Percent),
		zap.Int("threshold", threshold),
		zap.String("source", eff.Source))
	s.notifier.BroadcastMessage(ws.MsgTypeAlert, a)
	return a
}
