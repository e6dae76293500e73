package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status is "running" while a run holds the lock and "idle" otherwise.
// nextRun may be nil when no schedule is configured.
func Health(lock *automation.RunLock, nextRun func() *time.Time, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := models.RunnerStats{
			Running:     lock.Running(),
			RunsStarted: lock.RunsStarted(),
			LastRunAt:   lock.LastRunAt(),
		}
		if nextRun != nil {
			stats.NextRunAt = nextRun()
		}

		status := "idle"
		if stats.Running {
			status = "running"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Runner:  stats,
			Version: Version,
		})
	}
}
