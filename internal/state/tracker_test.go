package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/internal/repository/memstore"
)

const minute = int64(60_000)

// brokenSessions 可切换为写入失败的充电记录存储
type brokenSessions struct {
	*memstore.Sessions
	mu  sync.Mutex
	err error
}

func (s *brokenSessions) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *brokenSessions) Append(ctx context.Context, cs *models.ChargeSession) error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Sessions.Append(ctx, cs)
}

// brokenKV 可切换为写入失败的键值存储
type brokenKV struct {
	*memstore.KV
	mu  sync.Mutex
	err error
}

func (s *brokenKV) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *brokenKV) Save(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.KV.Save(ctx, key, value)
}

func newTracker(t *testing.T, kv StateStore, sessions SessionAppender) *Tracker {
	t.Helper()
	tr, err := NewTracker(context.Background(), zap.NewNop(), kv, sessions, nil)
	require.NoError(t, err)
	return tr
}

func TestTrackerSingleSessionPerCycle(t *testing.T) {
	ctx := context.Background()
	kv := memstore.NewKV()
	sessions := memstore.NewSessions()
	tr := newTracker(t, kv, sessions)

	base := int64(1_700_000_000_000)
	require.NoError(t, tr.OnBatteryUpdate(ctx, 20, true, base))
	require.NoError(t, tr.OnBatteryUpdate(ctx, 35, true, base+10*minute))
	require.NoError(t, tr.OnBatteryUpdate(ctx, 80, false, base+60*minute))
	require.NoError(t, tr.OnBatteryUpdate(ctx, 79, false, base+70*minute))
	tr.Wait()

	all := sessions.All()
	require.Len(t, all, 1)
	assert.Equal(t, base, all[0].StartTimeMillis)
	assert.Equal(t, base+60*minute, all[0].EndTimeMillis)
	assert.Equal(t, 20, all[0].StartLevel)
	assert.Equal(t, 80, all[0].EndLevel)
	assert.Equal(t, models.IdleState(), tr.State())
}

func TestTrackerRepeatedChargingKeepsStart(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, memstore.NewKV(), memstore.NewSessions())

	require.NoError(t, tr.OnBatteryUpdate(ctx, 20, true, 1000))
	require.NoError(t, tr.OnBatteryUpdate(ctx, 40, true, 2000))

	assert.Equal(t, models.TrackingState(1000, 20), tr.State())
}

func TestTrackerDischargingWhileIdleIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := memstore.NewKV()
	sessions := memstore.NewSessions()
	tr := newTracker(t, kv, sessions)

	require.NoError(t, tr.OnBatteryUpdate(ctx, 50, false, 1000))
	tr.Wait()

	assert.Empty(t, sessions.All())
	var persisted models.TrackerState
	found, err := kv.Load(ctx, StateKey, &persisted)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTrackerEmissionFailureStillResets(t *testing.T) {
	ctx := context.Background()
	kv := memstore.NewKV()
	sessions := &brokenSessions{Sessions: memstore.NewSessions()}
	sessions.setErr(errors.New("disk full"))
	tr := newTracker(t, kv, sessions)

	require.NoError(t, tr.OnBatteryUpdate(ctx, 20, true, 1000))
	require.NoError(t, tr.OnBatteryUpdate(ctx, 80, false, 5000))
	tr.Wait()

	assert.Empty(t, sessions.All())
	assert.Equal(t, models.IdleState(), tr.State())

	var persisted models.TrackerState
	found, err := kv.Load(ctx, StateKey, &persisted)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.TrackerIdle, persisted.Phase)

	// 下一段充电正常记录
	sessions.setErr(nil)
	require.NoError(t, tr.OnBatteryUpdate(ctx, 30, true, 9000))
	require.NoError(t, tr.OnBatteryUpdate(ctx, 90, false, 12000))
	tr.Wait()
	require.Len(t, sessions.All(), 1)
	assert.Equal(t, 30, sessions.All()[0].StartLevel)
}

func TestTrackerRestoresAfterRestart(t *testing.T) {
	ctx := context.Background()
	kv := memstore.NewKV()
	sessions := memstore.NewSessions()

	first := newTracker(t, kv, sessions)
	require.NoError(t, first.OnBatteryUpdate(ctx, 25, true, 1000))

	second := newTracker(t, kv, sessions)
	assert.Equal(t, models.TrackingState(1000, 25), second.State())

	require.NoError(t, second.OnBatteryUpdate(ctx, 85, false, 4000))
	second.Wait()

	all := sessions.All()
	require.Len(t, all, 1)
	assert.Equal(t, int64(1000), all[0].StartTimeMillis)
	assert.Equal(t, 25, all[0].StartLevel)
	assert.Equal(t, 85, all[0].EndLevel)
}

func TestTrackerDiscardsInvalidSessions(t *testing.T) {
	tests := []struct {
		name       string
		startAt    int64
		startLevel int
		endLevel   int
	}{
		{"zero start time", 0, 20, 80},
		{"start level above range", 1000, 101, 80},
		{"end level below range", 1000, 20, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			sessions := memstore.NewSessions()
			tr := newTracker(t, memstore.NewKV(), sessions)

			require.NoError(t, tr.OnBatteryUpdate(ctx, tc.startLevel, true, tc.startAt))
			require.NoError(t, tr.OnBatteryUpdate(ctx, tc.endLevel, false, 5000))
			tr.Wait()

			assert.Empty(t, sessions.All())
			assert.Equal(t, models.IdleState(), tr.State())
		})
	}
}

func TestTrackerPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	kv := &brokenKV{KV: memstore.NewKV()}
	tr := newTracker(t, kv, memstore.NewSessions())

	kv.setErr(errors.New("read-only"))
	err := tr.OnBatteryUpdate(ctx, 20, true, 1000)
	require.Error(t, err)
	assert.Equal(t, models.IdleState(), tr.State())

	kv.setErr(nil)
	require.NoError(t, tr.OnBatteryUpdate(ctx, 20, true, 2000))
	assert.Equal(t, models.TrackingState(2000, 20), tr.State())
}

func TestTrackerConcurrentStopEmitsOnce(t *testing.T) {
	ctx := context.Background()
	sessions := memstore.NewSessions()
	tr := newTracker(t, memstore.NewKV(), sessions)
	require.NoError(t, tr.OnBatteryUpdate(ctx, 10, true, 1000))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, tr.OnBatteryUpdate(ctx, 90, false, 5000+int64(i)))
		}(i)
	}
	wg.Wait()
	tr.Wait()

	assert.Len(t, sessions.All(), 1)
}

func TestTrackerNotifiesRecordedSession(t *testing.T) {
	ctx := context.Background()
	var got []models.ChargeSession
	var mu sync.Mutex
	tr, err := NewTracker(ctx, zap.NewNop(), memstore.NewKV(), memstore.NewSessions(), func(cs models.ChargeSession) {
		mu.Lock()
		got = append(got, cs)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, tr.OnBatteryUpdate(ctx, 40, true, 1000))
	require.NoError(t, tr.OnBatteryUpdate(ctx, 60, false, 2000))
	tr.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.NotZero(t, got[0].ID)
	assert.Equal(t, 40, got[0].StartLevel)
}
