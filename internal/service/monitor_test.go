package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/internal/state"
	"github.com/langchou/surecharge/pkg/ws"
)

type failingTracker struct {
	calls int
}

func (t *failingTracker) OnBatteryUpdate(ctx context.Context, level int, charging bool, nowMillis int64) error {
	t.calls++
	return errors.New("store offline")
}

func newMonitor(t *testing.T, f *fixture) (*MonitorService, *state.Tracker) {
	t.Helper()
	tracker, err := state.NewTracker(context.Background(), zap.NewNop(), f.kv, f.sessionDB, nil)
	require.NoError(t, err)
	return NewMonitorService(zap.NewNop(), tracker, f.snooze, f.rules, f.notifier, f.clock), tracker
}

func reading(f *fixture, percent int, charging bool) models.BatterySnapshot {
	f.clock.Advance(time.Minute)
	return models.BatterySnapshot{Percent: percent, IsCharging: charging, ObservedAt: f.clock.Now()}
}

func kinds(alerts []models.Alert) []string {
	out := []string{}
	for _, a := range alerts {
		out = append(out, a.Kind)
	}
	return out
}

func TestMonitorLowAlertOncePerCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, _ := newMonitor(t, f)

	alerts, err := m.HandleBatteryUpdate(ctx, reading(f, 40, false))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 15, false))
	require.NoError(t, err)
	require.Equal(t, []string{models.AlertLow}, kinds(alerts))
	assert.Equal(t, 15, alerts[0].Threshold)

	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 12, false))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// 插上再拔掉，重置本周期标记
	_, err = m.HandleBatteryUpdate(ctx, reading(f, 12, true))
	require.NoError(t, err)
	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 12, false))
	require.NoError(t, err)
	assert.Equal(t, []string{models.AlertLow}, kinds(alerts))

	assert.Len(t, f.notifier.ofType(ws.MsgTypeAlert), 2)
}

func TestMonitorHighAlertWhileCharging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, _ := newMonitor(t, f)

	alerts, err := m.HandleBatteryUpdate(ctx, reading(f, 79, true))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 80, true))
	require.NoError(t, err)
	assert.Equal(t, []string{models.AlertHigh}, kinds(alerts))

	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 85, true))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// 未充电时高电量不提醒
	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 90, false))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestMonitorRespectsDisabledAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.rules.SetRules(ctx, models.BatteryRules{
		LowLevelEnabled: false, LowLevelPercentage: 20, HighLevelEnabled: false, HighLevelPercentage: 80,
	}))
	m, _ := newMonitor(t, f)

	alerts, err := m.HandleBatteryUpdate(ctx, reading(f, 5, false))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 100, true))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestMonitorSnoozedSkipsAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, _ := newMonitor(t, f)

	_, err := f.snooze.SnoozeFor(ctx, 60)
	require.NoError(t, err)

	alerts, err := m.HandleBatteryUpdate(ctx, reading(f, 10, false))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	require.NoError(t, f.snooze.Clear(ctx))
	alerts, err = m.HandleBatteryUpdate(ctx, reading(f, 10, false))
	require.NoError(t, err)
	assert.Equal(t, []string{models.AlertLow}, kinds(alerts))
}

func TestMonitorUsesScheduleThresholds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sc, err := f.schedules.Save(ctx, models.Schedule{
		Name: "Workday", Enabled: true, DaysMask: models.DaysWeekdays,
		StartMinutes: 8 * 60, EndMinutes: 18 * 60, OverrideLowPercent: models.IntPtr(35),
	})
	require.NoError(t, err)
	m, _ := newMonitor(t, f)

	alerts, err := m.HandleBatteryUpdate(ctx, reading(f, 30, false))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 35, alerts[0].Threshold)
	require.NotNil(t, alerts[0].ScheduleID)
	assert.Equal(t, sc.ID, *alerts[0].ScheduleID)
	assert.Equal(t, "Workday", alerts[0].ScheduleName)
}

func TestMonitorRecordsChargeSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, tracker := newMonitor(t, f)

	_, err := m.HandleBatteryUpdate(ctx, reading(f, 30, true))
	require.NoError(t, err)
	_, err = m.HandleBatteryUpdate(ctx, reading(f, 50, true))
	require.NoError(t, err)
	_, err = m.HandleBatteryUpdate(ctx, reading(f, 70, false))
	require.NoError(t, err)
	tracker.Wait()

	sessions := f.sessionDB.All()
	require.Len(t, sessions, 1)
	assert.Equal(t, 30, sessions[0].StartLevel)
	assert.Equal(t, 70, sessions[0].EndLevel)

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, 70, latest.Percent)
	assert.False(t, latest.IsCharging)
}

func TestMonitorTrackerFailureDoesNotBlockAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tracker := &failingTracker{}
	m := NewMonitorService(zap.NewNop(), tracker, f.snooze, f.rules, f.notifier, f.clock)

	alerts, err := m.HandleBatteryUpdate(ctx, reading(f, 10, false))
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.Equal(t, 1, tracker.calls)
}

func TestMonitorRejectsInvalidReading(t *testing.T) {
	f := newFixture(t)
	m, _ := newMonitor(t, f)

	_, err := m.HandleBatteryUpdate(context.Background(), models.BatterySnapshot{Percent: 101})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, ok := m.Latest()
	assert.False(t, ok)
}
