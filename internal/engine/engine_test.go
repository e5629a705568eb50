package engine_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/delivery"
	"github.com/skalola/3kathletez/internal/engine"
	"github.com/skalola/3kathletez/internal/schedule"
	"github.com/skalola/3kathletez/internal/storage"
	"github.com/skalola/3kathletez/internal/vitals"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testUser = "u1"

var testStart = time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)

func nopLogger() internal.Logger {
	return internal.NewZapLogger(zap.NewNop().Sugar())
}

// memStore is an in-memory backend for all three repositories.
type memStore struct {
	mu       sync.Mutex
	vitals   map[string]internal.VitalsRecord
	alarms   map[string][]internal.Alarm
	profiles map[string]internal.UserProfile
}

func newMemStore() *memStore {
	return &memStore{
		vitals:   make(map[string]internal.VitalsRecord),
		alarms:   make(map[string][]internal.Alarm),
		profiles: make(map[string]internal.UserProfile),
	}
}

func (m *memStore) LoadVitals(_ context.Context, userID string) (*internal.VitalsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.vitals[userID]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memStore) SaveVitals(_ context.Context, rec *internal.VitalsRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vitals[rec.UserID] = *rec
	return nil
}

func (m *memStore) ListAlarms(_ context.Context, userID string) ([]internal.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]internal.Alarm, len(m.alarms[userID]))
	copy(out, m.alarms[userID])
	return out, nil
}

func (m *memStore) SaveAlarms(_ context.Context, userID string, alarms []internal.Alarm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]internal.Alarm, len(alarms))
	copy(cp, alarms)
	m.alarms[userID] = cp
	return nil
}

func (m *memStore) LoadProfile(_ context.Context, userID string) (*internal.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memStore) SaveProfile(_ context.Context, profile *internal.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = *profile
	return nil
}

var (
	_ storage.VitalsRepository  = (*memStore)(nil)
	_ storage.AlarmRepository   = (*memStore)(nil)
	_ storage.ProfileRepository = (*memStore)(nil)
)

// fakeClock lets tests advance engine time explicitly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	eng       *engine.Engine
	store     *memStore
	submitter *delivery.MemorySubmitter
	clock     *fakeClock
}

func newFixture(t *testing.T, mutate func(*engine.Config)) *fixture {
	t.Helper()
	store := newMemStore()
	// Anchor the water-evaluation day so day rollover only happens when a
	// test advances the clock across midnight.
	profile := internal.DefaultProfile(testUser)
	profile.LastWaterEvaluation = testStart
	store.profiles[testUser] = profile

	clock := &fakeClock{now: testStart}
	cfg := engine.DefaultConfig()
	cfg.Clock = clock.Now
	if mutate != nil {
		mutate(&cfg)
	}

	submitter := delivery.NewMemorySubmitter(nopLogger())
	eng := engine.New(cfg, nopLogger(), storage.Repositories{
		Vitals:   store,
		Alarms:   store,
		Profiles: store,
	}, submitter)
	return &fixture{eng: eng, store: store, submitter: submitter, clock: clock}
}

func planAt(hour, min int) schedule.PlanInput {
	return schedule.PlanInput{
		ArrivalTime:     time.Date(2026, time.June, 11, hour, min, 0, 0, time.UTC),
		RoutineDuration: 30 * time.Minute,
	}
}

func TestLogActionWater(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	status, err := f.eng.LogAction(ctx, testUser, engine.ActionWater, 64)
	assert.NoError(t, err)
	// 64oz fills a whole day's hydration; 0.7 clamps at 1.0.
	assert.Equal(t, 1.0, status.Vitals.Hydration)
	assert.Equal(t, vitals.MoodDrinking, status.Mood.Mood)

	hyd := f.eng.Hydration(ctx, testUser)
	assert.Equal(t, 80.0, hyd.GoalOunces)
	assert.Equal(t, 64.0, hyd.LoggedOunces)
	assert.Equal(t, 2, hyd.RemainingCups)
}

func TestLogActionSleep(t *testing.T) {
	f := newFixture(t, nil)

	status, err := f.eng.LogAction(context.Background(), testUser, engine.ActionSleep, 4)
	assert.NoError(t, err)
	// 4h of an 8h target: energy +0.5, mindfulness +0.10.
	assert.InDelta(t, 1.0, status.Vitals.Energy, 1e-9)
	assert.InDelta(t, 0.60, status.Vitals.Mindfulness, 1e-9)
	assert.Equal(t, vitals.MoodEnergized, status.Mood.Mood)
	assert.NotNil(t, status.Vitals.LastSleepTime)
}

func TestLogActionExerciseSplit(t *testing.T) {
	f := newFixture(t, nil)

	status, err := f.eng.LogAction(context.Background(), testUser, engine.ActionExercise, 60)
	assert.NoError(t, err)
	assert.InDelta(t, 0.40, status.Vitals.Energy, 1e-9)
	assert.InDelta(t, 0.40, status.Vitals.Fitness, 1e-9)
}

func TestLogActionExerciseFlat(t *testing.T) {
	f := newFixture(t, func(cfg *engine.Config) { cfg.ExerciseMode = engine.ExerciseModeFlat })

	status, err := f.eng.LogAction(context.Background(), testUser, engine.ActionExercise, 20)
	assert.NoError(t, err)
	assert.InDelta(t, 0.90, status.Vitals.Energy, 1e-9)
	assert.InDelta(t, 0.70, status.Vitals.Mindfulness, 1e-9)
	assert.InDelta(t, 0.30, status.Vitals.Fitness, 1e-9)
}

func TestLogActionMindfulness(t *testing.T) {
	f := newFixture(t, nil)

	status, err := f.eng.LogAction(context.Background(), testUser, engine.ActionMindfulness, 10)
	assert.NoError(t, err)
	assert.InDelta(t, 0.70, status.Vitals.Mindfulness, 1e-9)
	assert.Equal(t, vitals.MoodMindful, status.Mood.Mood)
}

func TestLogActionRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.eng.LogAction(ctx, testUser, engine.ActionWater, -1)
	assert.Error(t, err)

	_, err = f.eng.LogAction(ctx, testUser, "juggling", 5)
	assert.Error(t, err)

	var appErr *internal.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
}

func TestTickDecaysLoadedUsers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	before := f.eng.Status(ctx, testUser)
	f.clock.Advance(5 * time.Minute)
	f.eng.Tick(ctx)

	after := f.eng.Status(ctx, testUser)
	assert.InDelta(t, before.Vitals.Energy-0.05, after.Vitals.Energy, 1e-9)
	assert.InDelta(t, before.Vitals.Hydration-0.05, after.Vitals.Hydration, 1e-9)
	assert.InDelta(t, before.Vitals.Mindfulness-0.025, after.Vitals.Mindfulness, 1e-9)
	assert.InDelta(t, before.Vitals.Fitness-0.025, after.Vitals.Fitness, 1e-9)
}

func TestTickPartialIntervalDoesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	before := f.eng.Status(ctx, testUser)
	f.clock.Advance(30 * time.Second)
	f.eng.Tick(ctx)

	after := f.eng.Status(ctx, testUser)
	assert.Equal(t, before.Vitals, after.Vitals)
}

func TestCatchUpDecayOnLoad(t *testing.T) {
	f := newFixture(t, nil)
	f.store.vitals[testUser] = internal.VitalsRecord{
		UserID:    testUser,
		Snapshot:  vitals.Snapshot{Energy: 1, Hydration: 1, Mindfulness: 1, Fitness: 1},
		LastDecay: testStart.Add(-10 * time.Minute),
	}

	status := f.eng.Status(context.Background(), testUser)
	assert.InDelta(t, 0.90, status.Vitals.Energy, 1e-9)
	assert.InDelta(t, 0.90, status.Vitals.Hydration, 1e-9)
	assert.InDelta(t, 0.95, status.Vitals.Mindfulness, 1e-9)
	assert.InDelta(t, 0.95, status.Vitals.Fitness, 1e-9)
}

func TestCommitAlarmSchedulesReminders(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	alarm, err := f.eng.CommitAlarm(ctx, testUser, planAt(8, 0), internal.RepeatDaily, "chime")
	assert.NoError(t, err)
	assert.True(t, alarm.Enabled)
	assert.Len(t, alarm.Bedtimes, 4)
	assert.Len(t, alarm.ReminderHandles, 9)
	assert.Len(t, f.submitter.Pending(), 9)

	alarms := f.eng.ListAlarms(ctx, testUser)
	assert.Len(t, alarms, 1)

	// Committing a plan earns a mindfulness credit.
	status := f.eng.Status(ctx, testUser)
	assert.InDelta(t, 0.65, status.Vitals.Mindfulness, 1e-9)
}

func TestCommitAlarmRejectsBadRepeat(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.eng.CommitAlarm(context.Background(), testUser, planAt(8, 0), "fortnightly", "")
	var appErr *internal.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
}

func descriptorsByCorrelation(m *delivery.MemorySubmitter) map[string]internal.ReminderDescriptor {
	out := make(map[string]internal.ReminderDescriptor)
	for _, d := range m.Pending() {
		out[d.CorrelationID] = d
	}
	return out
}

func TestToggleCancelsAndReplansExactly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	alarm, err := f.eng.CommitAlarm(ctx, testUser, planAt(8, 0), internal.RepeatDaily, "chime")
	assert.NoError(t, err)
	original := descriptorsByCorrelation(f.submitter)

	toggled, err := f.eng.ToggleAlarm(ctx, testUser, alarm.ID)
	assert.NoError(t, err)
	assert.False(t, toggled.Enabled)
	assert.Empty(t, toggled.ReminderHandles)
	assert.Empty(t, f.submitter.Pending())

	toggled, err = f.eng.ToggleAlarm(ctx, testUser, alarm.ID)
	assert.NoError(t, err)
	assert.True(t, toggled.Enabled)
	assert.Len(t, toggled.ReminderHandles, 9)

	// The replanned set equals the original modulo handle ids.
	assert.Equal(t, original, descriptorsByCorrelation(f.submitter))
}

func TestRepeatedReplanningNeverLeaksReminders(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	alarm, err := f.eng.CommitAlarm(ctx, testUser, planAt(8, 0), internal.RepeatDaily, "")
	assert.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = f.eng.ToggleAlarm(ctx, testUser, alarm.ID)
		assert.NoError(t, err)
		_, err = f.eng.ToggleAlarm(ctx, testUser, alarm.ID)
		assert.NoError(t, err)
	}
	assert.Len(t, f.submitter.Pending(), 9)
}

func TestToggleUnknownAlarm(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.eng.ToggleAlarm(context.Background(), testUser, "missing")
	var appErr *internal.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
}

func TestDeleteAlarmCancelsReminders(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	alarm, err := f.eng.CommitAlarm(ctx, testUser, planAt(8, 0), internal.RepeatOnce, "")
	assert.NoError(t, err)

	assert.NoError(t, f.eng.DeleteAlarm(ctx, testUser, alarm.ID))
	assert.Empty(t, f.submitter.Pending())
	assert.Empty(t, f.eng.ListAlarms(ctx, testUser))

	assert.Error(t, f.eng.DeleteAlarm(ctx, testUser, alarm.ID))
}

// flakySubmitter fails the Nth submission.
type flakySubmitter struct {
	*delivery.MemorySubmitter
	failAt int
	calls  int
}

func (f *flakySubmitter) Submit(d internal.ReminderDescriptor) (string, error) {
	f.calls++
	if f.calls == f.failAt {
		return "", errors.New("downstream unavailable")
	}
	return f.MemorySubmitter.Submit(d)
}

func TestCommitAlarmRollsBackOnSubmitFailure(t *testing.T) {
	store := newMemStore()
	profile := internal.DefaultProfile(testUser)
	profile.LastWaterEvaluation = testStart
	store.profiles[testUser] = profile

	clock := &fakeClock{now: testStart}
	cfg := engine.DefaultConfig()
	cfg.Clock = clock.Now

	flaky := &flakySubmitter{MemorySubmitter: delivery.NewMemorySubmitter(nopLogger()), failAt: 5}
	eng := engine.New(cfg, nopLogger(), storage.Repositories{Vitals: store, Alarms: store, Profiles: store}, flaky)

	ctx := context.Background()
	_, err := eng.CommitAlarm(ctx, testUser, planAt(8, 0), internal.RepeatDaily, "")
	assert.Error(t, err)
	assert.Empty(t, flaky.Pending())
	assert.Empty(t, eng.ListAlarms(ctx, testUser))
}

func TestSleepingMoodDuringAlarmWindow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// Now is 23:00 on the 10th; the earliest bedtime for an 08:00 arrival on
	// the 11th is 22:15 on the 10th, so now sits inside the sleep window.
	f.clock.Advance(14 * time.Hour)
	f.eng.Tick(ctx)

	_, err := f.eng.CommitAlarm(ctx, testUser, planAt(8, 0), internal.RepeatDaily, "")
	assert.NoError(t, err)

	status := f.eng.Status(ctx, testUser)
	assert.Equal(t, vitals.MoodSleeping, status.Mood.Mood)
}

func TestWaterRolloverRewardsMetGoal(t *testing.T) {
	f := newFixture(t, func(cfg *engine.Config) { cfg.DecayTick = 48 * time.Hour })
	ctx := context.Background()

	// 64oz is exactly 80% of the 80oz goal.
	_, err := f.eng.LogAction(ctx, testUser, engine.ActionWater, 64)
	assert.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	f.eng.Tick(ctx)

	status := f.eng.Status(ctx, testUser)
	assert.InDelta(t, 0.95, status.Vitals.Energy, 1e-9)
	assert.InDelta(t, 0.75, status.Vitals.Mindfulness, 1e-9)
	assert.Equal(t, 0.0, f.eng.Hydration(ctx, testUser).LoggedOunces)
}

func TestWaterRolloverPenalizesMissedGoal(t *testing.T) {
	f := newFixture(t, func(cfg *engine.Config) { cfg.DecayTick = 48 * time.Hour })
	ctx := context.Background()

	_, err := f.eng.LogAction(ctx, testUser, engine.ActionWater, 10)
	assert.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	f.eng.Tick(ctx)

	status := f.eng.Status(ctx, testUser)
	assert.InDelta(t, 0.20, status.Vitals.Energy, 1e-9)
	assert.InDelta(t, 0.0, status.Vitals.Mindfulness, 1e-9)
}

func TestBedtimesPersistSorted(t *testing.T) {
	f := newFixture(t, nil)

	alarm, err := f.eng.CommitAlarm(context.Background(), testUser, planAt(8, 0), internal.RepeatDaily, "")
	assert.NoError(t, err)
	assert.True(t, sort.SliceIsSorted(alarm.Bedtimes, func(i, j int) bool {
		return alarm.Bedtimes[i].Before(alarm.Bedtimes[j])
	}))
}

func TestConcurrentActionsAndTicks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.eng.LogAction(ctx, testUser, engine.ActionWater, 1)
		}()
		go func() {
			defer wg.Done()
			f.eng.Tick(ctx)
		}()
	}
	wg.Wait()

	hyd := f.eng.Hydration(ctx, testUser)
	assert.Equal(t, 8.0, hyd.LoggedOunces)
}
