package planner

import (
	"fmt"
	"time"

	"github.com/skalola/3kathletez/internal"
)

// Planner turns a committed alarm and the day's hydration picture into the
// full set of reminder descriptors. It is pure; replanning the same alarm
// yields the same correlation ids so stale submissions can be cancelled
// exactly, never accumulated.
type Planner struct {
	FallAsleepBuffer time.Duration
	WindDownLead     time.Duration
	MorningOffset    time.Duration
	MiddayOffset     time.Duration
	EveningLead      time.Duration
	CupOunces        float64
}

func DefaultPlanner() Planner {
	return Planner{
		FallAsleepBuffer: 15 * time.Minute,
		WindDownLead:     30 * time.Minute,
		MorningOffset:    time.Hour,
		MiddayOffset:     8 * time.Hour,
		EveningLead:      time.Hour,
		CupOunces:        8.0,
	}
}

// Bedtime tiers, longest cycle first. A bedtime's tier follows from the
// amount of sleep it buys, not from its position in any iteration order.
var bedtimeTiers = []string{"Optimal Bedtime", "Good Bedtime", "OK Bedtime", "Minimum Bedtime"}

func tierFor(index, total int) string {
	if index < len(bedtimeTiers) && total == len(bedtimeTiers) {
		return bedtimeTiers[index]
	}
	return "Bedtime"
}

// Plan produces the wake-up reminder, one reminder per bedtime (ascending,
// earliest first), a wind-down reminder before the earliest bedtime, and up
// to three hydration reminders anchored to the schedule.
func (p Planner) Plan(alarm internal.Alarm, goalOunces, loggedOunces float64) []internal.ReminderDescriptor {
	out := make([]internal.ReminderDescriptor, 0, len(alarm.Bedtimes)+5)

	out = append(out, internal.ReminderDescriptor{
		CorrelationID: fmt.Sprintf("ALARM-%s", alarm.ID),
		TriggerTime:   alarm.WakeUpTime,
		Repeat:        alarm.Repeat,
		Title:         "Time to Wake Up!",
		Body:          "Time to start your day and feed your athlete!",
		SoundID:       alarm.SoundID,
	})

	onset := alarm.WakeUpTime.Add(-p.FallAsleepBuffer)
	for i, bedtime := range alarm.Bedtimes {
		hours := onset.Sub(bedtime).Hours()
		out = append(out, internal.ReminderDescriptor{
			CorrelationID: fmt.Sprintf("BEDTIME-%s-%d", alarm.ID, i),
			TriggerTime:   bedtime,
			Repeat:        internal.RepeatOnce,
			Title:         fmt.Sprintf("Bedtime Reminder (%s)", tierFor(i, len(alarm.Bedtimes))),
			Body:          fmt.Sprintf("Time to go to bed to get your %s hours of sleep.", formatHours(hours)),
			SoundID:       alarm.SoundID,
		})
	}

	if len(alarm.Bedtimes) > 0 {
		earliest := alarm.Bedtimes[0]
		out = append(out, internal.ReminderDescriptor{
			CorrelationID: fmt.Sprintf("WINDDOWN-%s", alarm.ID),
			TriggerTime:   earliest.Add(-p.WindDownLead),
			Repeat:        internal.RepeatOnce,
			Title:         "Wind Down",
			Body:          "Screens off soon. Start winding down for your earliest bedtime.",
			SoundID:       alarm.SoundID,
		})
		out = append(out, p.hydrationReminders(alarm, earliest, goalOunces, loggedOunces)...)
	}

	return out
}

func (p Planner) hydrationReminders(alarm internal.Alarm, earliestBedtime time.Time, goalOunces, loggedOunces float64) []internal.ReminderDescriptor {
	totalCups := cups(goalOunces, p.CupOunces)
	remainingCups := cups(goalOunces-loggedOunces, p.CupOunces)

	return []internal.ReminderDescriptor{
		{
			CorrelationID: fmt.Sprintf("WATER-%s-morning", alarm.ID),
			TriggerTime:   alarm.WakeUpTime.Add(p.MorningOffset),
			Repeat:        internal.RepeatDaily,
			Title:         "Morning Hydration",
			Body:          fmt.Sprintf("Good morning! Start your day with some water. Your goal is %d cups.", totalCups),
		},
		{
			CorrelationID: fmt.Sprintf("WATER-%s-midday", alarm.ID),
			TriggerTime:   alarm.WakeUpTime.Add(p.MiddayOffset),
			Repeat:        internal.RepeatDaily,
			Title:         "Afternoon Hydration",
			Body:          fmt.Sprintf("Don't forget to hydrate! You have about %d cups to go.", remainingCups),
		},
		{
			CorrelationID: fmt.Sprintf("WATER-%s-evening", alarm.ID),
			TriggerTime:   earliestBedtime.Add(-p.EveningLead),
			Repeat:        internal.RepeatDaily,
			Title:         "Final Hydration",
			Body:          "Last call for water! Finish up your remaining cups before bed.",
		},
	}
}

func cups(ounces, cupOunces float64) int {
	if ounces <= 0 || cupOunces <= 0 {
		return 0
	}
	return int(ounces/cupOunces + 0.5)
}

func formatHours(h float64) string {
	if h == float64(int(h)) {
		return fmt.Sprintf("%d", int(h))
	}
	return fmt.Sprintf("%.1f", h)
}
