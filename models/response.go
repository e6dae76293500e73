package models

import "time"

// RunResponse is the response for GET /api/v1/runs/latest and POST /api/v1/runs.
type RunResponse struct {
	// Success indicates whether the request was served without errors.
	Success bool `json:"success"`

	// Run is the most recent finished run, if any.
	Run *RunView `json:"run,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// RunView is the API rendering of a finished run summary.
type RunView struct {
	RunID        string           `json:"run_id"`
	Site         string           `json:"site"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
	ElapsedMs    int64            `json:"elapsed_ms"`
	Total        int              `json:"total"`
	Succeeded    int              `json:"succeeded"`
	SuccessRate  float64          `json:"success_rate"`
	MeanDuration string           `json:"mean_duration"`
	RewardTotal  string           `json:"reward_total,omitempty"`
	Outcomes     []AccountOutcome `json:"outcomes"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string      `json:"status"` // "idle" or "running"
	Uptime  string      `json:"uptime"`
	Runner  RunnerStats `json:"runner"`
	Version string      `json:"version"`
}

// RunnerStats reports the state of the run lock and the schedule.
type RunnerStats struct {
	Running     bool       `json:"running"`
	RunsStarted int64      `json:"runs_started"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
}
