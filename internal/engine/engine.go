package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/delivery"
	"github.com/skalola/3kathletez/internal/planner"
	"github.com/skalola/3kathletez/internal/schedule"
	"github.com/skalola/3kathletez/internal/storage"
	"github.com/skalola/3kathletez/internal/vitals"
	"github.com/skalola/3kathletez/internal/water"
)

type ActionKind string

const (
	ActionSleep       ActionKind = "sleep"
	ActionWater       ActionKind = "water"
	ActionExercise    ActionKind = "exercise"
	ActionMindfulness ActionKind = "mindfulness"
)

// Exercise logging modes. Two formulas exist in the product's tuning history;
// both stay supported, selected by configuration (see DESIGN.md).
const (
	ExerciseModeSplit = "split" // drains energy, builds fitness
	ExerciseModeFlat  = "flat"  // flat boost to energy and mindfulness
)

type Config struct {
	DecayTick    time.Duration
	Rates        vitals.DecayRates
	Thresholds   vitals.Thresholds
	ExerciseMode string
	Clock        func() time.Time
}

func DefaultConfig() Config {
	return Config{
		DecayTick:    time.Minute,
		Rates:        vitals.DefaultDecayRates(),
		Thresholds:   vitals.DefaultThresholds(),
		ExerciseMode: ExerciseModeSplit,
	}
}

// Status is the observable engine state for one athlete.
type Status struct {
	Vitals vitals.Snapshot  `json:"vitals"`
	Mood   vitals.MoodState `json:"mood"`
}

// HydrationStatus reports daily water progress for one athlete.
type HydrationStatus struct {
	GoalOunces    float64 `json:"goal_ounces"`
	LoggedOunces  float64 `json:"logged_ounces"`
	RemainingCups int     `json:"remaining_cups"`
}

type userState struct {
	snapshot  vitals.Snapshot
	lastDecay time.Time
	profile   internal.UserProfile
	alarms    []internal.Alarm
	flag      vitals.TransientFlag
	mood      vitals.MoodState
}

// Engine is the single mutable owner of every athlete's snapshot and alarm
// list. User actions and decay ticks both serialize through its mutex, so a
// tick and a logged action can never race and drop an update. All
// collaborators are injected; nothing here is a process-wide singleton.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	log internal.Logger

	vitalsRepo  storage.VitalsRepository
	alarmRepo   storage.AlarmRepository
	profileRepo storage.ProfileRepository
	submitter   delivery.Submitter

	calc      schedule.Calculator
	planner   planner.Planner
	waterCalc water.Calculator

	states map[string]*userState
}

func New(cfg Config, log internal.Logger, repos storage.Repositories, submitter delivery.Submitter) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.DecayTick <= 0 {
		cfg.DecayTick = time.Minute
	}
	return &Engine{
		cfg:         cfg,
		log:         log,
		vitalsRepo:  repos.Vitals,
		alarmRepo:   repos.Alarms,
		profileRepo: repos.Profiles,
		submitter:   submitter,
		calc:        schedule.DefaultCalculator(),
		planner:     planner.DefaultPlanner(),
		waterCalc:   water.DefaultCalculator(),
		states:      make(map[string]*userState),
	}
}

// state lazily loads one athlete, falling back to defaults on any load
// failure. Suspended time is caught up immediately: every decay tick missed
// since the persisted last-decay instant is applied on load.
func (e *Engine) state(ctx context.Context, userID string) *userState {
	if st, ok := e.states[userID]; ok {
		return st
	}

	now := e.cfg.Clock()
	st := &userState{
		snapshot:  vitals.DefaultSnapshot(),
		lastDecay: now,
		profile:   internal.DefaultProfile(userID),
	}

	if rec, err := e.vitalsRepo.LoadVitals(ctx, userID); err != nil {
		e.log.Warnf("engine: vitals load failed for %s, using defaults: %v", userID, err)
	} else if rec != nil {
		st.snapshot = rec.Snapshot
		st.lastDecay = rec.LastDecay
	}

	if profile, err := e.profileRepo.LoadProfile(ctx, userID); err != nil {
		e.log.Warnf("engine: profile load failed for %s, using defaults: %v", userID, err)
	} else if profile != nil {
		st.profile = *profile
	}

	if alarms, err := e.alarmRepo.ListAlarms(ctx, userID); err != nil {
		e.log.Warnf("engine: alarm load failed for %s, starting empty: %v", userID, err)
	} else {
		st.alarms = alarms
	}

	e.states[userID] = st
	e.decayLocked(ctx, userID, st, now)
	e.reclassify(st, now)
	return st
}

// --- Action ledger ---

// LogAction applies one user-reported action as an immediate stat delta,
// stamps the matching last-event time, raises the action's transient flag
// and re-evaluates the mood.
func (e *Engine) LogAction(ctx context.Context, userID string, kind ActionKind, magnitude float64) (Status, error) {
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return Status{}, internal.NewAppError(400, "magnitude must be a finite number")
	}
	if magnitude < 0 {
		return Status{}, internal.NewAppError(400, "magnitude must not be negative")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(ctx, userID)
	now := e.cfg.Clock()
	e.rolloverWater(ctx, st, now)

	profileDirty := false
	switch kind {
	case ActionSleep:
		hours := magnitude
		st.snapshot = st.snapshot.Apply(vitals.Delta{
			Energy:      hours / 8.0,
			Mindfulness: schedule.MentalBoost(hours, st.profile.TargetSleepHours),
		})
		st.snapshot.LastSleepTime = &now
		st.flag = vitals.TransientFlag{Mood: vitals.MoodEnergized, SetAt: now}

	case ActionWater:
		ounces := magnitude
		st.snapshot = st.snapshot.Apply(vitals.Delta{Hydration: ounces / 64.0})
		st.snapshot.LastWaterTime = &now
		st.profile.CurrentWaterOunces += ounces
		profileDirty = true
		st.flag = vitals.TransientFlag{Mood: vitals.MoodDrinking, SetAt: now}

	case ActionExercise:
		minutes := magnitude
		var d vitals.Delta
		if e.cfg.ExerciseMode == ExerciseModeFlat {
			d = vitals.Delta{Energy: minutes * 0.01, Mindfulness: minutes * 0.01}
		} else {
			d = vitals.Delta{Energy: -(minutes / 60.0) * 0.30, Fitness: (minutes / 60.0) * 0.10}
		}
		st.snapshot = st.snapshot.Apply(d)
		st.snapshot.LastWorkoutTime = &now
		st.flag = vitals.TransientFlag{Mood: vitals.MoodExercising, SetAt: now}

	case ActionMindfulness:
		minutes := magnitude
		st.snapshot = st.snapshot.Apply(vitals.Delta{Mindfulness: (minutes / 10.0) * 0.20})
		st.snapshot.LastMindfulnessTime = &now
		st.flag = vitals.TransientFlag{Mood: vitals.MoodMindful, SetAt: now}

	default:
		return Status{}, internal.NewAppError(400, fmt.Sprintf("unknown action kind %q", kind))
	}

	e.persistVitals(ctx, userID, st)
	if profileDirty {
		e.persistProfile(ctx, st)
	}
	e.reclassify(st, now)
	return Status{Vitals: st.snapshot, Mood: st.mood}, nil
}

// --- Decay clock ---

// Tick applies pending decay for every loaded athlete. Driven by the
// periodic ticker, but callable directly (tests, resume-from-suspend).
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.cfg.Clock()
	for userID, st := range e.states {
		e.rolloverWater(ctx, st, now)
		e.decayLocked(ctx, userID, st, now)
		e.reclassify(st, now)
	}
}

func (e *Engine) decayLocked(ctx context.Context, userID string, st *userState, now time.Time) {
	elapsed := now.Sub(st.lastDecay)
	ticks := int(elapsed / e.cfg.DecayTick)
	if ticks <= 0 {
		return
	}
	st.snapshot = vitals.Decay(st.snapshot, ticks, e.cfg.Rates)
	st.lastDecay = st.lastDecay.Add(time.Duration(ticks) * e.cfg.DecayTick)
	e.persistVitals(ctx, userID, st)
}

// --- Observation ---

func (e *Engine) Status(ctx context.Context, userID string) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(ctx, userID)
	e.reclassify(st, e.cfg.Clock())
	return Status{Vitals: st.snapshot, Mood: st.mood}
}

func (e *Engine) Hydration(ctx context.Context, userID string) HydrationStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(ctx, userID)
	goal := e.waterCalc.DailyRequirement(st.profile.WeightInLbs)
	return HydrationStatus{
		GoalOunces:    goal,
		LoggedOunces:  st.profile.CurrentWaterOunces,
		RemainingCups: e.waterCalc.RemainingCups(goal, st.profile.CurrentWaterOunces),
	}
}

// --- Schedule + alarms ---

// PreviewSchedule validates and computes without touching any state. Safe to
// call speculatively while the user edits inputs; only a committed result is
// ever persisted, so the latest input always wins.
func (e *Engine) PreviewSchedule(in schedule.PlanInput) (schedule.Schedule, error) {
	if err := schedule.ValidateInput(in); err != nil {
		return schedule.Schedule{}, err
	}
	return e.calc.Compute(in), nil
}

// CommitAlarm computes the schedule, plans its reminders and submits them.
// If any submission fails, everything already issued is cancelled and the
// alarm is not persisted: an alarm never records handles that do not exist.
func (e *Engine) CommitAlarm(ctx context.Context, userID string, in schedule.PlanInput, repeat internal.RepeatRule, soundID string) (internal.Alarm, error) {
	if err := schedule.ValidateInput(in); err != nil {
		return internal.Alarm{}, err
	}
	switch repeat {
	case internal.RepeatOnce, internal.RepeatDaily, internal.RepeatWeekly:
	default:
		return internal.Alarm{}, internal.NewAppError(400, fmt.Sprintf("unknown repeat rule %q", repeat))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(ctx, userID)
	now := e.cfg.Clock()
	sched := e.calc.Compute(in)

	alarm := internal.Alarm{
		ID:         uuid.NewString(),
		UserID:     userID,
		WakeUpTime: sched.WakeUpTime,
		Bedtimes:   sched.Bedtimes,
		Enabled:    true,
		Repeat:     repeat,
		SoundID:    soundID,
		CreatedAt:  now,
	}

	handles, err := e.submitReminders(st, alarm)
	if err != nil {
		return internal.Alarm{}, err
	}
	alarm.ReminderHandles = handles

	st.alarms = append(st.alarms, alarm)
	e.persistAlarms(ctx, userID, st)

	// Planning ahead earns a small focus credit.
	st.snapshot = st.snapshot.Apply(vitals.Delta{Mindfulness: 0.15})
	e.persistVitals(ctx, userID, st)
	e.reclassify(st, now)
	return alarm, nil
}

// ToggleAlarm disables an enabled alarm (cancelling its reminders) or
// re-enables a disabled one by replanning from scratch. The replanned set
// matches a fresh creation modulo handle ids.
func (e *Engine) ToggleAlarm(ctx context.Context, userID, alarmID string) (internal.Alarm, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(ctx, userID)
	idx := -1
	for i := range st.alarms {
		if st.alarms[i].ID == alarmID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return internal.Alarm{}, internal.NewAppError(404, "alarm not found")
	}

	alarm := st.alarms[idx]
	if alarm.Enabled {
		e.cancelHandles(alarm.ReminderHandles)
		alarm.ReminderHandles = nil
		alarm.Enabled = false
	} else {
		handles, err := e.submitReminders(st, alarm)
		if err != nil {
			return internal.Alarm{}, err
		}
		alarm.ReminderHandles = handles
		alarm.Enabled = true
	}

	st.alarms[idx] = alarm
	e.persistAlarms(ctx, userID, st)
	e.reclassify(st, e.cfg.Clock())
	return alarm, nil
}

// DeleteAlarm cancels the alarm's reminders before removing it, so no
// orphaned reminders outlive their alarm.
func (e *Engine) DeleteAlarm(ctx context.Context, userID, alarmID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(ctx, userID)
	for i := range st.alarms {
		if st.alarms[i].ID != alarmID {
			continue
		}
		e.cancelHandles(st.alarms[i].ReminderHandles)
		st.alarms = append(st.alarms[:i], st.alarms[i+1:]...)
		e.persistAlarms(ctx, userID, st)
		return nil
	}
	return internal.NewAppError(404, "alarm not found")
}

func (e *Engine) ListAlarms(ctx context.Context, userID string) []internal.Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(ctx, userID)
	out := make([]internal.Alarm, len(st.alarms))
	copy(out, st.alarms)
	return out
}

// submitReminders plans and submits the full reminder set for an alarm,
// rolling back already-issued handles on the first failure.
func (e *Engine) submitReminders(st *userState, alarm internal.Alarm) ([]string, error) {
	goal := e.waterCalc.DailyRequirement(st.profile.WeightInLbs)
	descriptors := e.planner.Plan(alarm, goal, st.profile.CurrentWaterOunces)

	handles := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		h, err := e.submitter.Submit(d)
		if err != nil {
			e.cancelHandles(handles)
			e.log.Errorf("engine: reminder submission failed for %s: %v", d.CorrelationID, err)
			return nil, fmt.Errorf("reminder submission failed: %w", err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (e *Engine) cancelHandles(handles []string) {
	for _, h := range handles {
		if err := e.submitter.Cancel(h); err != nil {
			e.log.Warnf("engine: cancel failed for handle %s: %v", h, err)
		}
	}
}

// --- Daily water evaluation ---

// rolloverWater settles yesterday's hydration ledger on the first touch of a
// new day: hitting 80% of the goal earns a boost, missing it costs dearly,
// and the counter resets either way.
func (e *Engine) rolloverWater(ctx context.Context, st *userState, now time.Time) {
	last := st.profile.LastWaterEvaluation
	y1, m1, d1 := last.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return
	}

	goal := e.waterCalc.DailyRequirement(st.profile.WeightInLbs)
	if goal > 0 && st.profile.CurrentWaterOunces >= goal*0.8 {
		st.snapshot = st.snapshot.Apply(vitals.Delta{Energy: 0.25, Mindfulness: 0.25})
	} else {
		st.snapshot = st.snapshot.Apply(vitals.Delta{Energy: -0.50, Mindfulness: -0.50})
	}
	st.profile.CurrentWaterOunces = 0
	st.profile.LastWaterEvaluation = now

	e.persistVitals(ctx, st.profile.UserID, st)
	e.persistProfile(ctx, st)
}

// --- Internals ---

func (e *Engine) reclassify(st *userState, now time.Time) {
	st.mood = vitals.Classify(now, st.snapshot, st.flag, e.sleepWindow(st, now), vitals.HydrationProgress{
		LoggedOunces:  st.profile.CurrentWaterOunces,
		SessionOunces: e.waterCalc.SessionOunces(st.profile.WeightInLbs),
	}, e.cfg.Thresholds)
}

// sleepWindow finds the bedtime-to-wake span of an enabled alarm covering
// now, if any.
func (e *Engine) sleepWindow(st *userState, now time.Time) *vitals.SleepWindow {
	for _, a := range st.alarms {
		if !a.Enabled || len(a.Bedtimes) == 0 || !a.WakeUpTime.After(now) {
			continue
		}
		w := vitals.SleepWindow{Start: a.Bedtimes[0], End: a.WakeUpTime}
		if w.Contains(now) {
			return &w
		}
	}
	return nil
}

// Persistence is best-effort from the engine's point of view: failures are
// logged and the in-memory state stays authoritative.

func (e *Engine) persistVitals(ctx context.Context, userID string, st *userState) {
	rec := &internal.VitalsRecord{UserID: userID, Snapshot: st.snapshot, LastDecay: st.lastDecay}
	if err := e.vitalsRepo.SaveVitals(ctx, rec); err != nil {
		e.log.Errorf("engine: vitals save failed for %s: %v", userID, err)
	}
}

func (e *Engine) persistProfile(ctx context.Context, st *userState) {
	p := st.profile
	if err := e.profileRepo.SaveProfile(ctx, &p); err != nil {
		e.log.Errorf("engine: profile save failed for %s: %v", p.UserID, err)
	}
}

func (e *Engine) persistAlarms(ctx context.Context, userID string, st *userState) {
	if err := e.alarmRepo.SaveAlarms(ctx, userID, st.alarms); err != nil {
		e.log.Errorf("engine: alarm save failed for %s: %v", userID, err)
	}
}
