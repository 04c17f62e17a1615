package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/surecharge/internal/models"
	"github.com/langchou/surecharge/internal/repository"
)

func TestSaveScheduleAssignsPriorityAndName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.schedules.Save(ctx, models.Schedule{Enabled: true, DaysMask: models.DaysAll, StartMinutes: 60, EndMinutes: 120})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, "Custom schedule", first.Name)

	second, err := f.schedules.Save(ctx, models.Schedule{
		Enabled: true, DaysMask: models.DaysWeekend, StartMinutes: 0, EndMinutes: 0, UseProfileID: models.Int64Ptr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Priority)
	assert.Equal(t, "Profile schedule", second.Name)

	// 更新时忽略请求中的优先级
	edited := *first
	edited.Name = "Night"
	edited.Priority = 100
	updated, err := f.schedules.Save(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Priority)
	assert.Equal(t, "Night", updated.Name)

	list, err := f.schedules.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestSaveScheduleValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		s    models.Schedule
	}{
		{"start past midnight", models.Schedule{DaysMask: models.DaysAll, StartMinutes: 1440}},
		{"negative end", models.Schedule{DaysMask: models.DaysAll, EndMinutes: -1}},
		{"days mask overflow", models.Schedule{DaysMask: 1 << 7}},
		{"override high too low", models.Schedule{DaysMask: models.DaysAll, OverrideHighPercent: models.IntPtr(50)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.schedules.Save(ctx, tc.s)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateMissingSchedule(t *testing.T) {
	f := newFixture(t)
	_, err := f.schedules.Save(context.Background(), models.Schedule{ID: 9, DaysMask: models.DaysAll})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestToggleAndDeleteSchedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sc, err := f.schedules.Save(ctx, models.Schedule{
		Enabled: true, DaysMask: models.DaysAll, OverrideLowPercent: models.IntPtr(40),
	})
	require.NoError(t, err)

	eff, err := f.rules.Effective(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, eff.Rules.LowLevelPercentage)

	toggled, err := f.schedules.SetEnabled(ctx, sc.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	eff, err = f.rules.Effective(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceBase, eff.Source)

	require.NoError(t, f.schedules.Delete(ctx, sc.ID))
	_, err = f.schedules.Get(ctx, sc.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.schedules.Delete(ctx, sc.ID), repository.ErrNotFound)
}
