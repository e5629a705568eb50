package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/response"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg + ": " + err.Error())
	case 404:
		resp = response.NotFound(msg + ": " + err.Error())
	case 500:
		resp = response.InternalError(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

// HandleEngineError maps engine errors onto HTTP statuses: AppErrors carry
// their own code, anything else is a 500.
func HandleEngineError(c *gin.Context, logger internal.Logger, err error, msg string) {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		HandleError(c, logger, err, appErr.Code, msg)
		return
	}
	HandleError(c, logger, err, 500, msg)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(200, response.Success(data, meta))
}
