package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/models"
	"github.com/use-agent/dailyclaim/report"
)

// LatestRun returns a handler for GET /api/v1/runs/latest.
func LatestRun(lock *automation.RunLock) gin.HandlerFunc {
	return func(c *gin.Context) {
		last := lock.Last()
		if last == nil {
			c.JSON(http.StatusNotFound, models.RunResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "no run has finished yet",
				},
			})
			return
		}
		c.JSON(http.StatusOK, models.RunResponse{Success: true, Run: last.View()})
	}
}

// TriggerRun returns a handler for POST /api/v1/runs.
//
// The run is started in the background under ctx (the server's lifetime,
// not the request's) and the handler answers 202 immediately. A trigger
// while another run holds the lock gets 409 and nothing is queued.
func TriggerRun(ctx context.Context, lock *automation.RunLock, run automation.RunFunc, after func(*report.Summary)) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := lock.Start(ctx, run, after)
		if errors.Is(err, automation.ErrRunInProgress) {
			c.JSON(http.StatusConflict, models.RunResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRunInProgress,
					Message: err.Error(),
				},
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.RunResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: err.Error(),
				},
			})
			return
		}

		slog.Info("run triggered via API", "client_ip", c.ClientIP())
		c.JSON(http.StatusAccepted, models.RunResponse{Success: true})
	}
}
