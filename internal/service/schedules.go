package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
)

// ScheduleService 定时规则
type ScheduleService struct {
	logger    *zap.Logger
	schedules ScheduleStore
	rules     *RulesService
}

// NewScheduleService 创建定时规则服务
func NewScheduleService(logger *zap.Logger, schedules ScheduleStore, rules *RulesService) *ScheduleService {
	return &ScheduleService{
		logger:    logger,
		schedules: schedules,
		rules:     rules,
	}
}

// List 按优先级降序、ID 升序
func (s *ScheduleService) List(ctx context.Context) ([]models.Schedule, error) {
	schedules, err := s.schedules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// Get 获取定时规则
func (s *ScheduleService) Get(ctx context.Context, id int64) (*models.Schedule, error) {
	return s.schedules.GetByID(ctx, id)
}

// Save 新建（ID 为 0）或更新定时规则。优先级由存储分配，请求中的值被忽略。
func (s *ScheduleService) Save(ctx context.Context, sc models.Schedule) (*models.Schedule, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.schedules.Upsert(ctx, &sc); err != nil {
		return nil, err
	}

	s.logger.Info("Schedule saved",
		zap.Int64("id", sc.ID),
		zap.String("name", sc.Name),
		zap.Int("priority", sc.Priority),
		zap.Int("days_mask", sc.DaysMask),
		zap.Int("start_minutes", sc.StartMinutes),
		zap.Int("end_minutes", sc.EndMinutes))
	s.rules.PublishEffective(ctx)
	return &sc, nil
}

// Delete 删除定时规则
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Schedule deleted", zap.Int64("id", id))
	s.rules.PublishEffective(ctx)
	return nil
}

// SetEnabled 启用或停用
func (s *ScheduleService) SetEnabled(ctx context.Context, id int64, enabled bool) (*models.Schedule, error) {
	if err := s.schedules.SetEnabled(ctx, id, enabled); err != nil {
		return nil, err
	}
	s.logger.Info("Schedule toggled", zap.Int64("id", id), zap.Bool("enabled", enabled))
	s.rules.PublishEffective(ctx)
	return s.schedules.GetByID(ctx, id)
}
