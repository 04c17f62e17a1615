package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/autotune"
	"github.com/langchou/surecharge/pkg/ws"
)

// AutoTuneRunner 包装调优控制器，调优生效后推送新规则
type AutoTuneRunner struct {
	logger   *zap.Logger
	runner   autotune.Runner
	rules    *RulesService
	notifier Notifier
}

// NewAutoTuneRunner 创建调优执行器
func NewAutoTuneRunner(logger *zap.Logger, runner autotune.Runner, rules *RulesService, notifier Notifier) *AutoTuneRunner {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &AutoTuneRunner{
		logger:   logger,
		runner:   runner,
		rules:    rules,
		notifier: notifier,
	}
}

// Run 执行一次调优
func (r *AutoTuneRunner) Run(ctx context.Context) (*autotune.RunResult, error) {
	result, err := r.runner.Run(ctx)
	if err != nil {
		r.notifier.BroadcastError("Auto-tune failed")
		return nil, err
	}

	r.logger.Debug("Publishing auto-tune result", zap.String("status", result.Status))
	r.notifier.BroadcastMessage(ws.MsgTypeAutoTune, result)
	if result.Status == autotune.StatusTuned && result.After != nil {
		r.notifier.BroadcastMessage(ws.MsgTypeRulesUpdate, *result.After)
		r.rules.PublishEffective(ctx)
	}
	return result, nil
}
