// Package memstore 提供所有存储接口的内存实现，用于 STORAGE=memory 与测试。
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/internal/repository"
	"github.com/langchou/surecharge/internal/schedule"
)

// Rules 规则存储
type Rules struct {
	mu    sync.RWMutex
	rules models.BatteryRules
}

// NewRules 以默认规则初始化
func NewRules() *Rules {
	return &Rules{rules: models.DefaultRules()}
}

// Get 获取规则
func (s *Rules) Get(ctx context.Context) (models.BatteryRules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules, nil
}

// Set 整体替换规则
func (s *Rules) Set(ctx context.Context, rules models.BatteryRules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rules
	return nil
}

// AutoSettings 自动调优设置存储
type AutoSettings struct {
	mu       sync.RWMutex
	settings models.AutoSettings
}

// NewAutoSettings 创建设置存储
func NewAutoSettings() *AutoSettings {
	return &AutoSettings{}
}

// Get 获取设置
func (s *AutoSettings) Get(ctx context.Context) (models.AutoSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

// SetEnabled 开关自动模式
func (s *AutoSettings) SetEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Enabled = enabled
	return nil
}

// UpdateBaseline 用规则更新基线
func (s *AutoSettings) UpdateBaseline(ctx context.Context, rules models.BatteryRules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = s.settings.WithBaseline(rules)
	return nil
}

// Profiles 档案存储
type Profiles struct {
	mu       sync.RWMutex
	nextID   int64
	profiles map[int64]models.BatteryProfile
}

// NewProfiles 创建档案存储
func NewProfiles() *Profiles {
	return &Profiles{profiles: make(map[int64]models.BatteryProfile)}
}

// List 按排序序号返回全部档案
func (s *Profiles) List(ctx context.Context) ([]models.BatteryProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.BatteryProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderIndex != list[j].OrderIndex {
			return list[i].OrderIndex < list[j].OrderIndex
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// GetByID 获取档案
func (s *Profiles) GetByID(ctx context.Context, id int64) (*models.BatteryProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("get profile %d: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

// Insert 新建档案并回填 ID
func (s *Profiles) Insert(ctx context.Context, p *models.BatteryProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.profiles[p.ID] = *p
	return nil
}

// Update 更新档案（内置标记不可修改）
func (s *Profiles) Update(ctx context.Context, p *models.BatteryProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[p.ID]
	if !ok {
		return fmt.Errorf("update profile %d: %w", p.ID, repository.ErrNotFound)
	}
	p.IsBuiltIn = existing.IsBuiltIn
	p.OrderIndex = existing.OrderIndex
	p.CreatedAt = existing.CreatedAt
	s.profiles[p.ID] = *p
	return nil
}

// Delete 删除档案，不级联清理引用它的定时规则
func (s *Profiles) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return fmt.Errorf("delete profile %d: %w", id, repository.ErrNotFound)
	}
	delete(s.profiles, id)
	return nil
}

// Count 档案数量
func (s *Profiles) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.profiles)), nil
}

// MaxOrderIndex 最大排序序号，没有档案时为 -1
func (s *Profiles) MaxOrderIndex(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxOrder := -1
	for _, p := range s.profiles {
		if p.OrderIndex > maxOrder {
			maxOrder = p.OrderIndex
		}
	}
	return maxOrder, nil
}

// Schedules 定时规则存储
type Schedules struct {
	mu        sync.RWMutex
	nextID    int64
	schedules map[int64]models.Schedule
}

// NewSchedules 创建定时规则存储
func NewSchedules() *Schedules {
	return &Schedules{schedules: make(map[int64]models.Schedule)}
}

// List 按优先级降序、ID 升序返回
func (s *Schedules) List(ctx context.Context) ([]models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		list = append(list, sc)
	}
	schedule.SortByPriority(list)
	return list, nil
}

// GetByID 获取定时规则
func (s *Schedules) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schedules[id]
	if !ok {
		return nil, fmt.Errorf("get schedule %d: %w", id, repository.ErrNotFound)
	}
	return &sc, nil
}

// Upsert 新建时优先级为当前最大值 +1；更新时保留已存储的优先级
func (s *Schedules) Upsert(ctx context.Context, sc *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = sc.AutoName()
	}

	if sc.ID == 0 {
		maxPriority := 0
		for _, existing := range s.schedules {
			if existing.Priority > maxPriority {
				maxPriority = existing.Priority
			}
		}
		s.nextID++
		sc.ID = s.nextID
		sc.Priority = maxPriority + 1
		s.schedules[sc.ID] = *sc
		return nil
	}

	existing, ok := s.schedules[sc.ID]
	if !ok {
		return fmt.Errorf("update schedule %d: %w", sc.ID, repository.ErrNotFound)
	}
	sc.Priority = existing.Priority
	s.schedules[sc.ID] = *sc
	return nil
}

// Delete 删除定时规则
func (s *Schedules) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return fmt.Errorf("delete schedule %d: %w", id, repository.ErrNotFound)
	}
	delete(s.schedules, id)
	return nil
}

// SetEnabled 启用或停用
func (s *Schedules) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return fmt.Errorf("set schedule %d enabled: %w", id, repository.ErrNotFound)
	}
	sc.Enabled = enabled
	s.schedules[id] = sc
	return nil
}

// Sessions 充电记录存储
type Sessions struct {
	mu       sync.RWMutex
	nextID   int64
	sessions []models.ChargeSession
}

// NewSessions 创建充电记录存储
func NewSessions() *Sessions {
	return &Sessions{}
}

// SessionsSince 返回开始时间不早于 since 的记录，按开始时间降序
func (s *Sessions) SessionsSince(ctx context.Context, sinceMillis int64) ([]models.ChargeSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChargeSession
	for _, cs := range s.sessions {
		if cs.StartTimeMillis >= sinceMillis {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTimeMillis > out[j].StartTimeMillis
	})
	return out, nil
}

// Append 追加记录并回填 ID
func (s *Sessions) Append(ctx context.Context, cs *models.ChargeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cs.ID = s.nextID
	s.sessions = append(s.sessions, *cs)
	return nil
}

// DeleteBefore 删除开始时间早于 before 的记录，返回删除数量
func (s *Sessions) DeleteBefore(ctx context.Context, beforeMillis int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sessions[:0]
	var deleted int64
	for _, cs := range s.sessions {
		if cs.StartTimeMillis < beforeMillis {
			deleted++
			continue
		}
		kept = append(kept, cs)
	}
	s.sessions = kept
	return deleted, nil
}

// All 返回全部记录副本
func (s *Sessions) All() []models.ChargeSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChargeSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// KV 键值状态存储，值按 JSON 序列化保存
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewKV 创建键值存储
func NewKV() *KV {
	return &KV{values: make(map[string][]byte)}
}

// Load 读取键值到 dst，不存在时返回 false
func (s *KV) Load(ctx context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	data, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save 保存键值
func (s *KV) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = data
	return nil
}

// Delete 删除键
func (s *KV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Snapshotter 组合三个内存存储读取快照，各自加锁读取
type Snapshotter struct {
	Rules     *Rules
	Schedules *Schedules
	Profiles  *Profiles
}

// Snapshot 读取基础规则、定时规则与档案
func (s *Snapshotter) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	rules, err := s.Rules.Get(ctx)
	if err != nil {
		return nil, err
	}
	schedules, err := s.Schedules.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.Profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	return &repository.Snapshot{Rules: rules, Schedules: schedules, Profiles: profiles}, nil
}
