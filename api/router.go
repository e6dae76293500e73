package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/dailyclaim/api/handler"
	"github.com/use-agent/dailyclaim/api/middleware"
	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/report"
)

// Deps are the run controls the status API exposes.
type Deps struct {
	// Ctx bounds API-triggered runs and the rate limiter sweeper.
	Ctx  context.Context
	Lock *automation.RunLock
	Run  automation.RunFunc

	// After receives every API-triggered summary (report file, notify).
	After func(*report.Summary)

	// NextRun reports the next scheduled run; nil without a schedule.
	NextRun   func() *time.Time
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(d.Lock, d.NextRun, d.StartTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(d.Ctx, cfg.RateLimit))

	// Runs
	protected.GET("/runs/latest", handler.LatestRun(d.Lock))
	protected.POST("/runs", handler.TriggerRun(d.Ctx, d.Lock, d.Run, d.After))

	return r
}
