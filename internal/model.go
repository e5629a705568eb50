package internal

import (
	"time"

	"github.com/skalola/3kathletez/internal/vitals"
)

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// UserProfile holds the personal data the calculators need (water goal is
// weight-based, sleep boost is target-based).
type UserProfile struct {
	UserID              string    `json:"user_id"`
	UserName            string    `json:"user_name"`
	WeightInLbs         float64   `json:"weight_in_lbs"`
	TargetSleepHours    float64   `json:"target_sleep_hours"`
	CurrentWaterOunces  float64   `json:"current_water_ounces"`
	LastWaterEvaluation time.Time `json:"last_water_evaluation"`
}

func DefaultProfile(userID string) UserProfile {
	return UserProfile{
		UserID:              userID,
		UserName:            "Athlete",
		WeightInLbs:         160.0,
		TargetSleepHours:    8.0,
		LastWaterEvaluation: time.Now(),
	}
}

// VitalsRecord is the persisted form of a snapshot. LastDecay anchors the
// catch-up decay applied after the process was suspended.
type VitalsRecord struct {
	UserID    string          `json:"user_id"`
	Snapshot  vitals.Snapshot `json:"snapshot"`
	LastDecay time.Time       `json:"last_decay"`
}

// RepeatRule selects which date components a reminder trigger matches on.
type RepeatRule string

const (
	RepeatOnce   RepeatRule = "once"
	RepeatDaily  RepeatRule = "daily"
	RepeatWeekly RepeatRule = "weekly"
)

// Alarm is a committed sleep schedule. Bedtimes are kept ascending, earliest
// first. ReminderHandles are the delivery-side ids for everything this alarm
// scheduled, so toggling or deleting can cancel without orphans.
type Alarm struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	WakeUpTime      time.Time   `json:"wake_up_time"`
	Bedtimes        []time.Time `json:"bedtimes"`
	Enabled         bool        `json:"enabled"`
	Repeat          RepeatRule  `json:"repeat"`
	SoundID         string      `json:"sound_id"`
	ReminderHandles []string    `json:"reminder_handles"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ReminderDescriptor is a planned future notification, prior to submission to
// the delivery collaborator. CorrelationID is stable across replans of the
// same alarm so stale submissions can be cancelled exactly.
type ReminderDescriptor struct {
	CorrelationID string     `json:"correlation_id"`
	TriggerTime   time.Time  `json:"trigger_time"`
	Repeat        RepeatRule `json:"repeat"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	SoundID       string     `json:"sound_id"`
}
