package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/skalola/3kathletez/internal"
)

// PlanInput is the validated input to the calculator. ArrivalTime is the
// "start my day" instant; the durations are subtracted from it.
type PlanInput struct {
	ArrivalTime     time.Time
	RoutineDuration time.Duration
	CommuteDuration time.Duration
}

// Schedule is the computed result: one wake-up time and the recommended
// bedtimes sorted ascending, earliest first. Always replaced wholesale,
// never mutated in place.
type Schedule struct {
	WakeUpTime time.Time   `json:"wake_up_time"`
	Bedtimes   []time.Time `json:"bedtimes"`
}

// Calculator back-computes bedtimes from sleep cycles. It is pure and
// reentrant; callers may invoke it speculatively while the user edits inputs.
type Calculator struct {
	Cycles           []time.Duration
	FallAsleepBuffer time.Duration
}

// DefaultCalculator uses the four 90-minute-multiple cycles and the
// 15-minute fall-asleep buffer.
func DefaultCalculator() Calculator {
	return Calculator{
		Cycles: []time.Duration{
			9 * time.Hour,
			7*time.Hour + 30*time.Minute,
			6 * time.Hour,
			4*time.Hour + 30*time.Minute,
		},
		FallAsleepBuffer: 15 * time.Minute,
	}
}

// ValidateInput rejects negative durations at the boundary so the pure
// computation never has to clamp.
func ValidateInput(in PlanInput) error {
	if in.ArrivalTime.IsZero() {
		return internal.NewAppError(400, "arrival time is required")
	}
	if in.RoutineDuration < 0 {
		return internal.NewAppError(400, "routine duration must not be negative")
	}
	if in.CommuteDuration < 0 {
		return internal.NewAppError(400, "commute duration must not be negative")
	}
	return nil
}

// Compute derives the wake-up time and the recommended bedtimes:
// wake = arrival - (routine + commute), then for each cycle
// bedtime = wake - buffer - cycle. Bedtimes come back sorted ascending
// regardless of cycle order.
func (c Calculator) Compute(in PlanInput) Schedule {
	wake := in.ArrivalTime.Add(-(in.RoutineDuration + in.CommuteDuration))
	onset := wake.Add(-c.FallAsleepBuffer)

	bedtimes := make([]time.Time, 0, len(c.Cycles))
	for _, cycle := range c.Cycles {
		bedtimes = append(bedtimes, onset.Add(-cycle))
	}
	sort.Slice(bedtimes, func(i, j int) bool {
		return bedtimes[i].Before(bedtimes[j])
	})

	return Schedule{WakeUpTime: wake, Bedtimes: bedtimes}
}

// CycleFor recovers the sleep-cycle length that produced a bedtime.
func (c Calculator) CycleFor(s Schedule, bedtime time.Time) time.Duration {
	return s.WakeUpTime.Add(-c.FallAsleepBuffer).Sub(bedtime)
}

// NextOccurrence maps a wall-clock time of day to the next future instant,
// rolling to the following day if it has already passed. This is the
// required pre-processing step before Compute.
func NextOccurrence(hour, minute int, now time.Time) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// MentalBoost is the mindfulness credit for sleeping toward a target:
// hitting the full target earns a 20% boost, proportional below that.
func MentalBoost(hoursSlept, targetHours float64) float64 {
	if targetHours <= 0 || math.IsNaN(hoursSlept) || math.IsInf(hoursSlept, 0) {
		return 0
	}
	return (hoursSlept / targetHours) * 0.20
}
