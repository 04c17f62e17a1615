package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/surecharge/internal/models"
)

var base = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

func session(start time.Time, d time.Duration, from, to int) models.ChargeSession {
	return models.ChargeSession{
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   start.Add(d).UnixMilli(),
		StartLevel:      from,
		EndLevel:        to,
	}
}

func TestFromSessionsEmpty(t *testing.T) {
	assert.Nil(t, FromSessions(nil, base.UnixMilli()))
	assert.Nil(t, FromSessions([]models.ChargeSession{}, base.UnixMilli()))
}

func TestFromSessionsFullAndDeepHabits(t *testing.T) {
	var sessions []models.ChargeSession
	for i := 0; i < 4; i++ {
		sessions = append(sessions, session(base.Add(time.Duration(i)*24*time.Hour), 2*time.Hour, 5, 100))
	}
	now := base.Add(3 * 24 * time.Hour).Add(3 * time.Hour)

	s := FromSessions(sessions, now.UnixMilli())
	require.NotNil(t, s)

	assert.Equal(t, 4, s.FullChargeCount)
	assert.Equal(t, 4, s.DeepDischargeCount)
	assert.InDelta(t, 3.8, s.ApproxCycles, 1e-9)
	assert.Equal(t, 30.0, s.Penalties.FullCharge)
	assert.Equal(t, 25.0, s.Penalties.DeepDischarge)
	require.NotNil(t, s.AgeDays)
	assert.Equal(t, 3, *s.AgeDays)
	assert.False(t, s.HasSlowCharging)
	assert.Equal(t, 45, s.Score)
	assert.Equal(t, VerdictDegraded, s.VerdictLabel)
	assert.Equal(t, []string{SuggestionFullCharges, SuggestionDeepDischarge}, s.Suggestions)
}

func TestFromSessionsMixedScenario(t *testing.T) {
	sessions := []models.ChargeSession{
		session(base, time.Hour, 20, 100),
		session(base.Add(3*time.Hour), time.Hour, 20, 100),
		session(base.Add(6*time.Hour), time.Hour, 50, 90),
	}
	now := base.Add(8 * time.Hour)

	s := FromSessions(sessions, now.UnixMilli())
	require.NotNil(t, s)

	assert.InDelta(t, 2.0, s.ApproxCycles, 1e-9)
	assert.Equal(t, 2, s.FullChargeCount)
	assert.Equal(t, 0, s.DeepDischargeCount)
	require.NotNil(t, s.AverageChargeSpeedPerHour)
	assert.InDelta(t, 200.0/3.0, *s.AverageChargeSpeedPerHour, 1e-9)
	require.NotNil(t, s.AgeDays)
	assert.Equal(t, 0, *s.AgeDays)
	assert.InDelta(t, 2.0/3.0*40, s.Penalties.FullCharge, 1e-9)
	assert.Equal(t, 73, s.Score)
	assert.Equal(t, VerdictGood, s.VerdictLabel)
	assert.Equal(t, []string{SuggestionFullCharges}, s.Suggestions)
}

func TestFromSessionsSlowCharging(t *testing.T) {
	s := FromSessions([]models.ChargeSession{session(base, time.Hour, 50, 55)}, base.Add(time.Hour).UnixMilli())
	require.NotNil(t, s)

	require.NotNil(t, s.AverageChargeSpeedPerHour)
	assert.InDelta(t, 5.0, *s.AverageChargeSpeedPerHour, 1e-9)
	assert.True(t, s.HasSlowCharging)
	assert.Equal(t, 5.0, s.Penalties.SlowCharging)
	assert.Equal(t, 95, s.Score)
	assert.Equal(t, []string{SuggestionSlowCharging}, s.Suggestions)
}

func TestFromSessionsShortSessionsNotSampled(t *testing.T) {
	sessions := []models.ChargeSession{
		session(base, 10*time.Minute, 50, 60),
		session(base.Add(time.Hour), 15*time.Minute, 50, 60),
		session(base.Add(2*time.Hour), 2*time.Hour, 70, 60),
	}
	s := FromSessions(sessions, base.Add(5*time.Hour).UnixMilli())
	require.NotNil(t, s)

	assert.Nil(t, s.AverageChargeSpeedPerHour)
	assert.False(t, s.HasSlowCharging)
	assert.InDelta(t, 0.2, s.ApproxCycles, 1e-9)
	assert.Equal(t, []string{SuggestionHabitsFine}, s.Suggestions)
}

func TestFromSessionsAgePenaltyCapped(t *testing.T) {
	old := base.AddDate(-3, 0, 0)
	s := FromSessions([]models.ChargeSession{session(old, 2*time.Hour, 30, 80)}, base.UnixMilli())
	require.NotNil(t, s)

	require.NotNil(t, s.AgeDays)
	assert.Greater(t, *s.AgeDays, 1000)
	assert.Equal(t, 15.0, s.Penalties.Age)
	assert.Equal(t, 85, s.Score)
	assert.Equal(t, VerdictGreat, s.VerdictLabel)
}

func TestFromSessionsClampsLevels(t *testing.T) {
	s := FromSessions([]models.ChargeSession{session(base, 2*time.Hour, -10, 120)}, base.Add(2*time.Hour).UnixMilli())
	require.NotNil(t, s)

	assert.InDelta(t, 1.0, s.ApproxCycles, 1e-9)
	assert.Equal(t, 1, s.FullChargeCount)
	assert.Equal(t, 1, s.DeepDischargeCount)
}

func TestFromSessionsManyCycles(t *testing.T) {
	var sessions []models.ChargeSession
	for i := 0; i < 400; i++ {
		sessions = append(sessions, session(base.Add(time.Duration(i)*time.Hour), 2*time.Hour, 15, 90))
	}
	s := FromSessions(sessions, sessions[len(sessions)-1].EndTimeMillis)
	require.NotNil(t, s)

	assert.InDelta(t, 300.0, s.ApproxCycles, 1e-6)
	assert.NotContains(t, s.Suggestions, SuggestionManyCycles)

	sessions = append(sessions, session(base, 2*time.Hour, 15, 90))
	s = FromSessions(sessions, sessions[len(sessions)-2].EndTimeMillis)
	require.NotNil(t, s)
	assert.Contains(t, s.Suggestions, SuggestionManyCycles)
	assert.InDelta(t, 24.06, s.Penalties.Cycles, 1e-9)
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, VerdictGreat},
		{85, VerdictGreat},
		{84, VerdictGood},
		{70, VerdictGood},
		{69, VerdictWorn},
		{55, VerdictWorn},
		{54, VerdictDegraded},
		{0, VerdictDegraded},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Verdict(tc.score), "score %d", tc.score)
	}
}
