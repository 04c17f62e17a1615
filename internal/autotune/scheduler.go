package autotune

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrRunInProgress 已有调优正在执行
var ErrRunInProgress = errors.New("auto-tune run already in progress")

// Runner 可执行一次调优
type Runner interface {
	Run(ctx context.Context) (*RunResult, error)
}

// Scheduler 周期调度器：首次延迟后按固定间隔执行。
// 同一时刻只存在一个已调度实例和一个执行中的任务，重复调度保留已有实例。
type Scheduler struct {
	logger       *zap.Logger
	runner       Runner
	interval     time.Duration
	initialDelay time.Duration

	mu        sync.Mutex
	scheduled bool
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastRun   time.Time
	lastErr   error
}

// NewScheduler 创建调度器
func NewScheduler(logger *zap.Logger, runner Runner, interval, initialDelay time.Duration) *Scheduler {
	return &Scheduler{
		logger:       logger,
		runner:       runner,
		interval:     interval,
		initialDelay: initialDelay,
	}
}

// Schedule 启动周期调度，已调度时返回 false 并保持原实例
func (s *Scheduler) Schedule(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled {
		s.logger.Debug("Auto-tune already scheduled, keeping existing instance")
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.scheduled = true

	s.wg.Add(1)
	go s.loop(loopCtx)

	s.logger.Info("Auto-tune scheduled",
		zap.Duration("initial_delay", s.initialDelay),
		zap.Duration("interval", s.interval))
	return true
}

// Stop 停止调度并等待执行中的任务退出
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.scheduled {
		s.mu.Unlock()
		return
	}
	s.scheduled = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Auto-tune scheduler stopped")
}

// Scheduled 是否已调度
func (s *Scheduler) Scheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// LastRun 上次执行时间与错误
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// RunNow 立即执行一次；已有任务执行中时返回 ErrRunInProgress
func (s *Scheduler) RunNow(ctx context.Context) (*RunResult, error) {
	if !s.acquire() {
		return nil, ErrRunInProgress
	}
	defer s.release()

	result, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	return result, err
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.RunNow(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Debug("Skipping scheduled auto-tune, previous run still in progress")
	case err != nil:
		s.logger.Error("Auto-tune run failed", zap.Error(err))
	default:
		s.logger.Info("Auto-tune run finished", zap.String("status", result.Status))
	}
}

func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
