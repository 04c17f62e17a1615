package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
)

// 事件常量
const (
	EventStartCharging = "start_charging"
	EventStopCharging  = "stop_charging"
)

// StateKey 跟踪状态在键值存储中的键
const StateKey = "tracker_state"

const emitTimeout = 10 * time.Second

// StateStore 持久化跟踪状态
type StateStore interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, value any) error
}

// SessionAppender 接收完成的充电会话
type SessionAppender interface {
	Append(ctx context.Context, cs *models.ChargeSession) error
}

// Tracker 充电会话跟踪器
//
// 两个状态 idle / tracking，状态以单个值持久化，重启后恢复。
// 所有电量更新在互斥锁内串行处理，同一段充电只会产生一条记录。
type Tracker struct {
	mu        sync.Mutex
	logger    *zap.Logger
	store     StateStore
	sessions  SessionAppender
	fsm       *fsm.FSM
	state     models.TrackerState
	onSession func(models.ChargeSession)
	wg        sync.WaitGroup
}

// NewTracker 创建跟踪器并恢复持久化状态
func NewTracker(ctx context.Context, logger *zap.Logger, store StateStore, sessions SessionAppender, onSession func(models.ChargeSession)) (*Tracker, error) {
	st := models.IdleState()
	found, err := store.Load(ctx, StateKey, &st)
	if err != nil {
		return nil, fmt.Errorf("load tracker state: %w", err)
	}
	if !found || st.Phase != models.TrackerTracking {
		st = models.IdleState()
	}

	t := &Tracker{
		logger:    logger,
		store:     store,
		sessions:  sessions,
		state:     st,
		onSession: onSession,
	}

	t.fsm = fsm.NewFSM(
		st.Phase,
		fsm.Events{
			{Name: EventStartCharging, Src: []string{models.TrackerIdle}, Dst: models.TrackerTracking},
			{Name: EventStopCharging, Src: []string{models.TrackerTracking}, Dst: models.TrackerIdle},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				t.logger.Debug("Tracker transition",
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst))
			},
		},
	)

	if st.Phase == models.TrackerTracking {
		logger.Info("Restored in-progress charge session",
			zap.Int64("start_time_ms", st.StartTimeMillis),
			zap.Int("start_level", st.StartLevel))
	}
	return t, nil
}

// State 当前跟踪状态
func (t *Tracker) State() models.TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// OnBatteryUpdate 处理一次电量读数
//
// 空闲时开始充电进入 tracking；tracking 时停止充电回到 idle 并异步写入会话。
// 相同充电状态的重复读数不改变状态。状态先持久化再切换，持久化失败时保持原状态。
func (t *Tracker) OnBatteryUpdate(ctx context.Context, level int, charging bool, nowMillis int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case charging && t.fsm.Is(models.TrackerIdle):
		next := models.TrackingState(nowMillis, level)
		if err := t.store.Save(ctx, StateKey, next); err != nil {
			return fmt.Errorf("persist tracking state: %w", err)
		}
		if err := t.fsm.Event(ctx, EventStartCharging); err != nil {
			return fmt.Errorf("trigger event %s: %w", EventStartCharging, err)
		}
		t.state = next
		t.logger.Info("Charge session started", zap.Int("level", level), zap.Int64("at_ms", nowMillis))

	case !charging && t.fsm.Is(models.TrackerTracking):
		started := t.state
		next := models.IdleState()
		if err := t.store.Save(ctx, StateKey, next); err != nil {
			return fmt.Errorf("persist idle state: %w", err)
		}
		if err := t.fsm.Event(ctx, EventStopCharging); err != nil {
			return fmt.Errorf("trigger event %s: %w", EventStopCharging, err)
		}
		t.state = next

		if !validSession(started, level) {
			t.logger.Warn("Discarding invalid charge session",
				zap.Int64("start_time_ms", started.StartTimeMillis),
				zap.Int("start_level", started.StartLevel),
				zap.Int("end_level", level))
			return nil
		}
		t.emit(ctx, models.ChargeSession{
			StartTimeMillis: started.StartTimeMillis,
			EndTimeMillis:   nowMillis,
			StartLevel:      started.StartLevel,
			EndLevel:        level,
		})
	}
	return nil
}

// Wait 等待已发出的会话写入完成
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) emit(ctx context.Context, cs models.ChargeSession) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
		defer cancel()

		if err := t.sessions.Append(emitCtx, &cs); err != nil {
			t.logger.Error("Failed to record charge session",
				zap.Int64("start_time_ms", cs.StartTimeMillis),
				zap.Int64("end_time_ms", cs.EndTimeMillis),
				zap.Error(err))
			return
		}

		t.logger.Info("Charge session recorded",
			zap.Int64("id", cs.ID),
			zap.Int("start_level", cs.StartLevel),
			zap.Int("end_level", cs.EndLevel),
			zap.Duration("duration", cs.Duration()))

		if t.onSession != nil {
			t.onSession(cs)
		}
	}()
}

func validSession(started models.TrackerState, endLevel int) bool {
	return started.StartTimeMillis > 0 &&
		inPercentRange(started.StartLevel) &&
		inPercentRange(endLevel)
}

func inPercentRange(v int) bool {
	return v >= 0 && v <= 100
}
