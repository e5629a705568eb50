package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/schedule"
)

type SchedulePreviewRequest struct {
	ArrivalHour    int     `json:"arrival_hour" validate:"gte=0,lte=23"`
	ArrivalMinute  int     `json:"arrival_minute" validate:"gte=0,lte=59"`
	RoutineMinutes float64 `json:"routine_minutes" validate:"gte=0"`
	CommuteMinutes float64 `json:"commute_minutes" validate:"gte=0"`
}

type AlarmCreateRequest struct {
	SchedulePreviewRequest
	Repeat  string `json:"repeat" validate:"required,oneof=once daily weekly"`
	SoundID string `json:"sound_id"`
}

// planInput rolls the requested arrival time of day forward to its next
// future occurrence before handing it to the calculator.
func (r SchedulePreviewRequest) planInput(now time.Time) schedule.PlanInput {
	return schedule.PlanInput{
		ArrivalTime:     schedule.NextOccurrence(r.ArrivalHour, r.ArrivalMinute, now),
		RoutineDuration: time.Duration(r.RoutineMinutes * float64(time.Minute)),
		CommuteDuration: time.Duration(r.CommuteMinutes * float64(time.Minute)),
	}
}

// PostSchedulePreview computes a schedule without committing anything.
// Clients may call it on every input edit; the newest response wins.
func PostSchedulePreview(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SchedulePreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := validate.Struct(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		sched, err := app.Engine().PreviewSchedule(req.planInput(time.Now()))
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to compute schedule")
			return
		}
		HandleSuccess(c, app.Logger(), sched, nil)
	}
}

// PostAlarm commits a schedule: persists the alarm and submits its reminders.
func PostAlarm(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req AlarmCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := validate.Struct(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		alarm, err := app.Engine().CommitAlarm(c.Request.Context(), user.ID, req.planInput(time.Now()), internal.RepeatRule(req.Repeat), req.SoundID)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to commit alarm")
			return
		}
		HandleSuccess(c, app.Logger(), alarm, nil)
	}
}

func GetAlarms(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		alarms := app.Engine().ListAlarms(c.Request.Context(), user.ID)
		HandleSuccess(c, app.Logger(), alarms, nil)
	}
}

// PatchAlarmToggle flips an alarm between enabled (reminders scheduled) and
// disabled (reminders cancelled).
func PatchAlarmToggle(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		alarm, err := app.Engine().ToggleAlarm(c.Request.Context(), user.ID, c.Param("id"))
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to toggle alarm")
			return
		}
		HandleSuccess(c, app.Logger(), alarm, nil)
	}
}

func DeleteAlarm(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		if err := app.Engine().DeleteAlarm(c.Request.Context(), user.ID, c.Param("id")); err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to delete alarm")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"deleted": c.Param("id")}, nil)
	}
}
