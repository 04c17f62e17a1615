package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
)

// ErrNoProfiles 没有可用档案
var ErrNoProfiles = errors.New("no profiles")

// ProfileService 电量档案
type ProfileService struct {
	logger   *zap.Logger
	profiles ProfileStore
	rules    *RulesService
}

// NewProfileService 创建档案服务
func NewProfileService(logger *zap.Logger, profiles ProfileStore, rules *RulesService) *ProfileService {
	return &ProfileService{
		logger:   logger,
		profiles: profiles,
		rules:    rules,
	}
}

// EnsureDefaults 没有任何档案时写入内置档案
func (s *ProfileService) EnsureDefaults(ctx context.Context) error {
	count, err := s.profiles.Count(ctx)
	if err != nil {
		return fmt.Errorf("count profiles: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, p := range models.DefaultProfiles() {
		if err := s.profiles.Insert(ctx, &p); err != nil {
			return fmt.Errorf("seed profile %q: %w", p.Name, err)
		}
	}
	s.logger.Info("Seeded built-in profiles", zap.Int("count", len(models.DefaultProfiles())))
	return nil
}

// List 全部档案
func (s *ProfileService) List(ctx context.Context) ([]models.BatteryProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Create 新建档案，名称为空时自动命名，排序追加到末尾
func (s *ProfileService) Create(ctx context.Context, name string, rules models.BatteryRules) (*models.BatteryProfile, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	maxOrder, err := s.profiles.MaxOrderIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("max profile order: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Profile %d", maxOrder+2)
	}

	p := models.ProfileFromRules(name, rules)
	p.OrderIndex = maxOrder + 1
	if err := s.profiles.Insert(ctx, &p); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	s.logger.Info("Profile created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return &p, nil
}

// CreateFromCurrent 以当前基础规则保存为档案
func (s *ProfileService) CreateFromCurrent(ctx context.Context, name string) (*models.BatteryProfile, error) {
	rules, err := s.rules.Rules(ctx)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, name, rules)
}

// Update 修改档案名称与阈值
func (s *ProfileService) Update(ctx context.Context, id int64, name string, rules models.BatteryRules) (*models.BatteryProfile, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	existing, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = existing.Name
	}
	p := models.ProfileFromRules(name, rules)
	p.ID = id
	if err := s.profiles.Update(ctx, &p); err != nil {
		return nil, err
	}

	s.logger.Info("Profile updated", zap.Int64("id", id))
	s.rules.PublishEffective(ctx)
	return &p, nil
}

// Delete 删除档案，引用它的定时规则在解析时回退到基础规则
func (s *ProfileService) Delete(ctx context.Context, id int64) error {
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Profile deleted", zap.Int64("id", id))
	s.rules.PublishEffective(ctx)
	return nil
}

// Apply 将档案写入为基础规则
func (s *ProfileService) Apply(ctx context.Context, id int64) (*models.BatteryProfile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rules.SetRules(ctx, p.ToRules()); err != nil {
		return nil, err
	}
	s.logger.Info("Profile applied", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Cycle 按 ID 顺序切换到当前生效档案的下一个；当前规则不匹配任何档案时使用第一个
func (s *ProfileService) Cycle(ctx context.Context) (*models.BatteryProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })

	current, err := s.rules.Rules(ctx)
	if err != nil {
		return nil, err
	}

	next := 0
	if idx := indexOfMatching(profiles, current); idx >= 0 {
		next = (idx + 1) % len(profiles)
	}

	p := profiles[next]
	if err := s.rules.SetRules(ctx, p.ToRules()); err != nil {
		return nil, err
	}
	s.logger.Info("Cycled to profile", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return &p, nil
}

// Active 与当前基础规则等效的档案，没有时返回 nil
func (s *ProfileService) Active(ctx context.Context) (*models.BatteryProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	current, err := s.rules.Rules(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOfMatching(profiles, current); idx >= 0 {
		return &profiles[idx], nil
	}
	return nil, nil
}

func indexOfMatching(profiles []models.BatteryProfile, rules models.BatteryRules) int {
	for i, p := range profiles {
		if p.ToRules().Equivalent(rules) {
			return i
		}
	}
	return -1
}
