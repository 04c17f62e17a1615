package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/autotune"
	"github.com/langchou/surecharge/internal/health"
	"github.com/langchou/surecharge/internal/models"
)

// HistorySettingsKey 历史设置在键值存储中的键
const HistorySettingsKey = "history_settings"

const maxHistoryDays = 3650

// HistoryView 历史窗口内的充电记录与统计
type HistoryView struct {
	HistoryDays int                    `json:"history_days"`
	Sessions    []models.ChargeSession `json:"sessions"`
	AvgStart    *int                   `json:"avg_start_level,omitempty"`
	AvgEnd      *int                   `json:"avg_end_level,omitempty"`
	Health      *health.Summary        `json:"health,omitempty"`
}

// HistoryService 充电历史
type HistoryService struct {
	logger      *zap.Logger
	sessions    SessionStore
	kv          KVStore
	clock       Clock
	defaultDays int
}

// NewHistoryService 创建历史服务
func NewHistoryService(logger *zap.Logger, sessions SessionStore, kv KVStore, clock Clock, defaultDays int) *HistoryService {
	if defaultDays <= 0 {
		defaultDays = models.DefaultHistoryDays
	}
	return &HistoryService{
		logger:      logger,
		sessions:    sessions,
		kv:          kv,
		clock:       clock,
		defaultDays: defaultDays,
	}
}

// Settings 历史设置，未保存时使用默认天数
func (s *HistoryService) Settings(ctx context.Context) (models.HistorySettings, error) {
	settings := models.HistorySettings{HistoryDays: s.defaultDays}
	if _, err := s.kv.Load(ctx, HistorySettingsKey, &settings); err != nil {
		return models.HistorySettings{}, fmt.Errorf("load history settings: %w", err)
	}
	if settings.HistoryDays <= 0 {
		settings.HistoryDays = s.defaultDays
	}
	return settings, nil
}

// SetHistoryDays 设置历史窗口天数
func (s *HistoryService) SetHistoryDays(ctx context.Context, days int) (models.HistorySettings, error) {
	if days <= 0 || days > maxHistoryDays {
		return models.HistorySettings{}, fmt.Errorf("%w: history_days %d out of range [1,%d]", ErrInvalidInput, days, maxHistoryDays)
	}
	settings := models.HistorySettings{HistoryDays: days}
	if err := s.kv.Save(ctx, HistorySettingsKey, settings); err != nil {
		return models.HistorySettings{}, fmt.Errorf("save history settings: %w", err)
	}
	s.logger.Info("History window changed", zap.Int("days", days))
	return settings, nil
}

// History 当前窗口内的记录、平均起止电量与健康度
func (s *HistoryService) History(ctx context.Context) (*HistoryView, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sessions, err := s.sessionsWithin(ctx, now, settings.HistoryDays)
	if err != nil {
		return nil, err
	}

	view := &HistoryView{
		HistoryDays: settings.HistoryDays,
		Sessions:    sessions,
		Health:      health.FromSessions(sessions, now.UnixMilli()),
	}
	if view.Sessions == nil {
		view.Sessions = []models.ChargeSession{}
	}
	view.AvgStart, view.AvgEnd = autotune.Averages(sessions)
	return view, nil
}

// Health 当前窗口的健康度，没有记录时返回 nil
func (s *HistoryService) Health(ctx context.Context) (*health.Summary, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	sessions, err := s.sessionsWithin(ctx, now, settings.HistoryDays)
	if err != nil {
		return nil, err
	}
	return health.FromSessions(sessions, now.UnixMilli()), nil
}

// Prune 删除早于指定天数的记录，只在显式调用时执行
func (s *HistoryService) Prune(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("%w: older_than_days must be positive", ErrInvalidInput)
	}
	before := s.clock.Now().Add(-days(olderThanDays)).UnixMilli()
	deleted, err := s.sessions.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	s.logger.Info("Pruned charge sessions", zap.Int("older_than_days", olderThanDays), zap.Int64("deleted", deleted))
	return deleted, nil
}

func (s *HistoryService) sessionsWithin(ctx context.Context, now time.Time, n int) ([]models.ChargeSession, error) {
	sessions, err := s.sessions.SessionsSince(ctx, now.Add(-days(n)).UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
