package battery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
)

// 读取失败时的退避上限
const maxBackoff = 30 * time.Minute

// UpdateHandler 处理电量读数
type UpdateHandler interface {
	HandleBatteryUpdate(ctx context.Context, snap models.BatterySnapshot) ([]models.Alert, error)
}

// Poller 按固定间隔读取电池并交给 handler，连续失败时指数退避
type Poller struct {
	logger   *zap.Logger
	source   Source
	handler  UpdateHandler
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPoller 创建轮询器
func NewPoller(logger *zap.Logger, source Source, handler UpdateHandler, interval time.Duration) *Poller {
	return &Poller{
		logger:   logger,
		source:   source,
		handler:  handler,
		interval: interval,
	}
}

// Start 启动轮询，已运行时忽略
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.logger.Info("Battery poller already running, skipping start")
		return
	}
	p.stopCh = make(chan struct{})
	p.running = true

	p.wg.Add(1)
	go p.loop(ctx, p.stopCh)
	p.logger.Info("Battery poller started", zap.Duration("interval", p.interval))
}

// Stop 停止轮询并等待退出
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Battery poller stopped")
}

func (p *Poller) loop(ctx context.Context, stopCh <-chan struct{}) {
	defer p.wg.Done()

	// 启动时立即读取一次
	delay := p.poll(ctx, p.interval)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			delay = p.poll(ctx, delay)
			timer.Reset(delay)
		}
	}
}

// poll 读取一次并返回下一次的等待时间
func (p *Poller) poll(ctx context.Context, current time.Duration) time.Duration {
	snap, err := p.source.Read(ctx)
	if err != nil {
		next := min(current*2, max(maxBackoff, p.interval))
		p.logger.Warn("Failed to read battery", zap.Error(err), zap.Duration("retry_in", next))
		return next
	}

	if _, err := p.handler.HandleBatteryUpdate(ctx, snap); err != nil {
		p.logger.Error("Failed to handle battery update", zap.Error(err))
	}
	return p.interval
}
