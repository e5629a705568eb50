package api

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/engine"
)

var validate = validator.New()

type ActionRequest struct {
	Kind      string  `json:"kind" validate:"required,oneof=sleep water exercise mindfulness"`
	Magnitude float64 `json:"magnitude" validate:"gte=0"`
}

// GetStatus returns the current vitals and the derived mood.
func GetStatus(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		status := app.Engine().Status(c.Request.Context(), user.ID)
		HandleSuccess(c, app.Logger(), status, nil)
	}
}

// PostAction logs a user-reported action (hours slept, ounces drunk, minutes
// exercised or meditated) and returns the re-evaluated status.
func PostAction(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req ActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := validate.Struct(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		status, err := app.Engine().LogAction(c.Request.Context(), user.ID, engine.ActionKind(req.Kind), req.Magnitude)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to log action")
			return
		}
		HandleSuccess(c, app.Logger(), status, nil)
	}
}

// GetHydration reports the daily water goal and progress.
func GetHydration(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		hyd := app.Engine().Hydration(c.Request.Context(), user.ID)
		HandleSuccess(c, app.Logger(), hyd, nil)
	}
}
