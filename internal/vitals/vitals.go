package vitals

import "time"

// Snapshot is the athlete's stat vector. Every stat lives in [0,1] and is
// clamped after each mutation; the last-event timestamps feed transient-flag
// logic in the classifier.
type Snapshot struct {
	Energy      float64 `json:"energy"`
	Hydration   float64 `json:"hydration"`
	Mindfulness float64 `json:"mindfulness"`
	Fitness     float64 `json:"fitness"`

	LastSleepTime       *time.Time `json:"last_sleep_time,omitempty"`
	LastWaterTime       *time.Time `json:"last_water_time,omitempty"`
	LastWorkoutTime     *time.Time `json:"last_workout_time,omitempty"`
	LastMindfulnessTime *time.Time `json:"last_mindfulness_time,omitempty"`
}

// Delta is a one-shot adjustment to the stat vector. Fields may be negative.
type Delta struct {
	Energy      float64
	Hydration   float64
	Mindfulness float64
	Fitness     float64
}

// DefaultSnapshot is the initial state for a new athlete.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Energy:      0.7,
		Hydration:   0.7,
		Mindfulness: 0.5,
		Fitness:     0.3,
	}
}

// Clamp bounds v to [0,1]. Inputs are coerced, never rejected.
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Apply returns a new snapshot with the delta added and every field clamped.
func (s Snapshot) Apply(d Delta) Snapshot {
	s.Energy = Clamp(s.Energy + d.Energy)
	s.Hydration = Clamp(s.Hydration + d.Hydration)
	s.Mindfulness = Clamp(s.Mindfulness + d.Mindfulness)
	s.Fitness = Clamp(s.Fitness + d.Fitness)
	return s
}

// DecayRates are the per-tick passive drains. Energy and hydration decay at
// the physical rate, mindfulness and fitness at the mental rate.
type DecayRates struct {
	Physical float64
	Mental   float64
}

// DefaultDecayRates drain the physical stats in ~100 ticks and the mental
// stats in ~200 ticks.
func DefaultDecayRates() DecayRates {
	return DecayRates{Physical: 0.01, Mental: 0.005}
}

// Decay applies ticks passive decrements and saturates at the floor. Decay
// never fails; out-of-range tick counts contribute nothing.
func Decay(s Snapshot, ticks int, rates DecayRates) Snapshot {
	if ticks <= 0 {
		return s
	}
	n := float64(ticks)
	return s.Apply(Delta{
		Energy:      -rates.Physical * n,
		Hydration:   -rates.Physical * n,
		Mindfulness: -rates.Mental * n,
		Fitness:     -rates.Mental * n,
	})
}
