package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/autotune"
	"github.com/langchou/surecharge/pkg/ws"
)

func TestAutoTuneRunnerPublishesTunedRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	addSession(t, f, 1, 30, 90)

	_, err := f.rules.SetAutoEnabled(ctx, true)
	require.NoError(t, err)

	ctrl := autotune.NewController(zap.NewNop(), f.rulesDB, f.autoDB, f.sessionDB, 30, f.clock.Now)
	runner := NewAutoTuneRunner(zap.NewNop(), ctrl, f.rules, f.notifier)

	result, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, autotune.StatusTuned, result.Status)

	require.Len(t, f.notifier.ofType(ws.MsgTypeAutoTune), 1)
	updates := f.notifier.ofType(ws.MsgTypeRulesUpdate)
	require.NotEmpty(t, updates)

	// 基线 15/80/20，建议 25/85/20
	rules, err := f.rules.Rules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, rules.LowLevelPercentage)
	assert.Equal(t, 83, rules.HighLevelPercentage)

	// 调优写入不会改写基线
	settings, err := f.rules.AutoSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, *settings.BaselineLow)
}

func TestAutoTuneRunnerDisabled(t *testing.T) {
	f := newFixture(t)
	ctrl := autotune.NewController(zap.NewNop(), f.rulesDB, f.autoDB, f.sessionDB, 30, func() time.Time { return f.clock.Now() })
	runner := NewAutoTuneRunner(zap.NewNop(), ctrl, f.rules, f.notifier)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, autotune.StatusDisabled, result.Status)
	assert.Empty(t, f.notifier.ofType(ws.MsgTypeRulesUpdate))
}

type failingRunner struct{}

func (failingRunner) Run(ctx context.Context) (*autotune.RunResult, error) {
	return nil, errors.New("store down")
}

func TestAutoTuneRunnerBroadcastsFailure(t *testing.T) {
	f := newFixture(t)
	runner := NewAutoTuneRunner(zap.NewNop(), failingRunner{}, f.rules, f.notifier)

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, f.notifier.ofType(ws.MsgTypeError), 1)
	assert.Empty(t, f.notifier.ofType(ws.MsgTypeAutoTune))
}
