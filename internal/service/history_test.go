package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/surecharge/internal/models"
)

func addSession(t *testing.T, f *fixture, daysAgo int, from, to int) {
	t.Helper()
	start := f.clock.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour)
	require.NoError(t, f.sessionDB.Append(context.Background(), &models.ChargeSession{
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   start.Add(90 * time.Minute).UnixMilli(),
		StartLevel:      from,
		EndLevel:        to,
	}))
}

func TestHistorySettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	settings, err := f.history.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, settings.HistoryDays)

	settings, err = f.history.SetHistoryDays(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, settings.HistoryDays)

	settings, err = f.history.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, settings.HistoryDays)

	_, err = f.history.SetHistoryDays(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHistoryEmpty(t *testing.T) {
	f := newFixture(t)

	view, err := f.history.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, view.Sessions)
	assert.NotNil(t, view.Sessions)
	assert.Nil(t, view.AvgStart)
	assert.Nil(t, view.AvgEnd)
	assert.Nil(t, view.Health)
}

func TestHistoryWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	addSession(t, f, 1, 20, 80)
	addSession(t, f, 5, 30, 90)
	addSession(t, f, 40, 5, 100)

	view, err := f.history.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, view.HistoryDays)
	require.Len(t, view.Sessions, 2)
	// 最新的在前
	assert.Equal(t, 20, view.Sessions[0].StartLevel)
	assert.Equal(t, 25, *view.AvgStart)
	assert.Equal(t, 85, *view.AvgEnd)
	require.NotNil(t, view.Health)
	assert.Equal(t, 2, view.Health.SessionCount)

	_, err = f.history.SetHistoryDays(ctx, 3)
	require.NoError(t, err)
	summary, err := f.history.Health(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.SessionCount)
}

func TestPruneIsExplicit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	addSession(t, f, 1, 20, 80)
	addSession(t, f, 60, 30, 90)
	addSession(t, f, 90, 30, 90)

	// 读取历史不会删除任何记录
	_, err := f.history.History(ctx)
	require.NoError(t, err)
	assert.Len(t, f.sessionDB.All(), 3)

	deleted, err := f.history.Prune(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Len(t, f.sessionDB.All(), 1)

	_, err = f.history.Prune(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
