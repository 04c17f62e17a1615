package service

import (
	"context"
	"errors"
	"time"

	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/internal/repository"
)

// ErrInvalidInput 输入不合法
var ErrInvalidInput = errors.New("invalid input")

// RulesStore 基础规则存储
type RulesStore interface {
	Get(ctx context.Context) (models.BatteryRules, error)
	Set(ctx context.Context, rules models.BatteryRules) error
}

// AutoSettingsStore 自动调优设置存储
type AutoSettingsStore interface {
	Get(ctx context.Context) (models.AutoSettings, error)
	SetEnabled(ctx context.Context, enabled bool) error
	UpdateBaseline(ctx context.Context, rules models.BatteryRules) error
}

// ProfileStore 档案存储
type ProfileStore interface {
	List(ctx context.Context) ([]models.BatteryProfile, error)
	GetByID(ctx context.Context, id int64) (*models.BatteryProfile, error)
	Insert(ctx context.Context, p *models.BatteryProfile) error
	Update(ctx context.Context, p *models.BatteryProfile) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	MaxOrderIndex(ctx context.Context) (int, error)
}

// ScheduleStore 定时规则存储
type ScheduleStore interface {
	List(ctx context.Context) ([]models.Schedule, error)
	GetByID(ctx context.Context, id int64) (*models.Schedule, error)
	Upsert(ctx context.Context, s *models.Schedule) error
	Delete(ctx context.Context, id int64) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// SessionStore 充电记录存储
type SessionStore interface {
	SessionsSince(ctx context.Context, sinceMillis int64) ([]models.ChargeSession, error)
	Append(ctx context.Context, cs *models.ChargeSession) error
	DeleteBefore(ctx context.Context, beforeMillis int64) (int64, error)
}

// KVStore 小型持久状态存储
type KVStore interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// SnapshotReader 读取生效规则所需的一致性快照
type SnapshotReader interface {
	Snapshot(ctx context.Context) (*repository.Snapshot, error)
}

// Notifier 向客户端推送消息，*ws.Hub 实现了该接口
type Notifier interface {
	BroadcastMessage(msgType string, data interface{})
	BroadcastError(message string)
}

// Clock 时钟与时区
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock 使用系统时间，loc 为空时使用本地时区
func NewSystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) Location() *time.Location {
	return c.loc
}

type nopNotifier struct{}

func (nopNotifier) BroadcastMessage(string, interface{}) {}
func (nopNotifier) BroadcastError(string)               {}

// NopNotifier 丢弃所有消息
func NopNotifier() Notifier {
	return nopNotifier{}
}
