package service

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/repository/memstore"
	"github.com/langchou/surecharge/pkg/ws"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Location() *time.Location {
	return time.UTC
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentMessage struct {
	Type string
	Data interface{}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (n *recordingNotifier) BroadcastMessage(msgType string, data interface{}) {
	n.mu.Lock()
	n.messages = append(n.messages, sentMessage{Type: msgType, Data: data})
	n.mu.Unlock()
}

func (n *recordingNotifier) BroadcastError(message string) {
	n.BroadcastMessage(ws.MsgTypeError, message)
}

func (n *recordingNotifier) ofType(msgType string) []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentMessage
	for _, m := range n.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	clock     *fakeClock
	notifier  *recordingNotifier
	rulesDB   *memstore.Rules
	autoDB    *memstore.AutoSettings
	profileDB *memstore.Profiles
	schedDB   *memstore.Schedules
	sessionDB *memstore.Sessions
	kv        *memstore.KV

	rules     *RulesService
	profiles  *ProfileService
	schedules *ScheduleService
	history   *HistoryService
	snooze    *SnoozeService
}

// 2024-01-08 是星期一
var monday = time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	f := &fixture{
		clock:     newFakeClock(monday),
		notifier:  &recordingNotifier{},
		rulesDB:   memstore.NewRules(),
		autoDB:    memstore.NewAutoSettings(),
		profileDB: memstore.NewProfiles(),
		schedDB:   memstore.NewSchedules(),
		sessionDB: memstore.NewSessions(),
		kv:        memstore.NewKV(),
	}
	snap := &memstore.Snapshotter{Rules: f.rulesDB, Schedules: f.schedDB, Profiles: f.profileDB}
	f.rules = NewRulesService(logger, f.rulesDB, f.autoDB, snap, f.clock, f.notifier)
	f.profiles = NewProfileService(logger, f.profileDB, f.rules)
	f.schedules = NewScheduleService(logger, f.schedDB, f.rules)
	f.history = NewHistoryService(logger, f.sessionDB, f.kv, f.clock, 30)
	f.snooze = NewSnoozeService(logger, f.kv, f.clock)
	return f
}
