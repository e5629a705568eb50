package vitals

import "time"

// Mood is the single discrete classification shown to the user. Exactly one
// mood is active at a time.
type Mood string

const (
	MoodNeutral    Mood = "neutral"
	MoodHappy      Mood = "happy"
	MoodTired      Mood = "tired"
	MoodThirsty    Mood = "thirsty"
	MoodEnergized  Mood = "energized"
	MoodSleeping   Mood = "sleeping"
	MoodElite      Mood = "elite"
	MoodLowEnergy  Mood = "low_energy"
	MoodDehydrated Mood = "dehydrated"
	MoodMindful    Mood = "mindful"
	MoodExercising Mood = "exercising"
	MoodDrinking   Mood = "drinking"
)

// MoodState pairs the mood with its human-readable status line.
type MoodState struct {
	Mood   Mood   `json:"mood"`
	Status string `json:"status"`
}

// TransientFlag marks an in-progress one-shot action (e.g. the athlete is
// mid-drink). While unexpired it pre-empts every stat-based rule.
type TransientFlag struct {
	Mood  Mood
	SetAt time.Time
}

// Active reports whether the flag still pre-empts classification at now.
func (f TransientFlag) Active(now time.Time, ttl time.Duration) bool {
	if f.Mood == "" {
		return false
	}
	return now.Sub(f.SetAt) < ttl
}

// SleepWindow is the bedtime-to-wake span of an enabled alarm.
type SleepWindow struct {
	Start time.Time
	End   time.Time
}

func (w SleepWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// HydrationProgress carries the session-relative water state the thirsty
// rule needs.
type HydrationProgress struct {
	LoggedOunces  float64
	SessionOunces float64
}

// Thresholds are the classifier's tuning constants. Values are configuration,
// the rule ordering is the contract.
type Thresholds struct {
	EliteFitness   float64
	EliteEnergy    float64
	LowEnergy      float64
	Dehydrated     float64
	ThirstyPortion float64       // fraction of a session portion that counts as "enough"
	FlagTTL        time.Duration // how long a transient action pre-empts classification
}

// DefaultThresholds carry the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EliteFitness:   0.9,
		EliteEnergy:    0.8,
		LowEnergy:      0.2,
		Dehydrated:     0.2,
		ThirstyPortion: 0.5,
		FlagTTL:        3 * time.Second,
	}
}

var transientStatus = map[Mood]string{
	MoodDrinking:   "Ahhh, water's so good!",
	MoodExercising: "Putting in the work!",
	MoodMindful:    "Finding some calm.",
	MoodHappy:      "Feeling great!",
	MoodEnergized:  "Fully charged!",
	MoodTired:      "Could use some rest.",
}

// Classify maps a snapshot plus transient context to exactly one mood. It is
// total, deterministic and side-effect-free; callers own scheduling the
// re-evaluation. Priority order: transient flag, active sleep window, then
// stat rules with first match winning.
func Classify(now time.Time, s Snapshot, flag TransientFlag, window *SleepWindow, hyd HydrationProgress, cfg Thresholds) MoodState {
	if flag.Active(now, cfg.FlagTTL) {
		status, ok := transientStatus[flag.Mood]
		if !ok {
			status = "In the zone."
		}
		return MoodState{Mood: flag.Mood, Status: status}
	}

	if window != nil && window.Contains(now) {
		return MoodState{Mood: MoodSleeping, Status: "Recharging for tomorrow."}
	}

	switch {
	case s.Fitness >= cfg.EliteFitness && s.Energy >= cfg.EliteEnergy:
		return MoodState{Mood: MoodElite, Status: "Elite form!"}
	case s.Energy < cfg.LowEnergy:
		return MoodState{Mood: MoodLowEnergy, Status: "Running on empty."}
	case s.Hydration < cfg.Dehydrated:
		return MoodState{Mood: MoodDehydrated, Status: "Seriously parched."}
	case hyd.SessionOunces > 0 && hyd.LoggedOunces < hyd.SessionOunces*cfg.ThirstyPortion:
		return MoodState{Mood: MoodThirsty, Status: "Could use some water."}
	default:
		return MoodState{Mood: MoodNeutral, Status: "Ready to train!"}
	}
}
