package api

import (
	"github.com/gin-gonic/gin"
	"github.com/skalola/3kathletez/internal/auth"
	"github.com/skalola/3kathletez/internal/config"
)

// NewRouter wires every route behind auth and request-id middleware.
func NewRouter(app App, provider auth.Provider, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(RequestIDMiddleware())
	r.Use(auth.AuthMiddleware(provider, cfg))

	r.GET("/status", GetStatus(app))
	r.POST("/actions", PostAction(app))
	r.GET("/hydration", GetHydration(app))

	r.POST("/schedule/preview", PostSchedulePreview(app))
	r.POST("/alarms", PostAlarm(app))
	r.GET("/alarms", GetAlarms(app))
	r.PATCH("/alarms/:id/toggle", PatchAlarmToggle(app))
	r.DELETE("/alarms/:id", DeleteAlarm(app))

	return r
}
