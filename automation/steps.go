package automation

import (
	"log/slog"
	"time"

	"github.com/use-agent/dailyclaim/config"
)

// Timing holds the bounds for every wait inside the steps.
type Timing struct {
	ElementWait  time.Duration
	LoginWait    time.Duration
	ConfirmWait  time.Duration
	PollInterval time.Duration
	SettleDelay  time.Duration
}

// TimingFrom copies the wait bounds out of the run configuration.
func TimingFrom(rc config.RunConfig) Timing {
	return Timing{
		ElementWait:  rc.ElementWait,
		LoginWait:    rc.LoginWait,
		ConfirmWait:  rc.ConfirmWait,
		PollInterval: rc.PollInterval,
		SettleDelay:  rc.SettleDelay,
	}
}

// Steps runs the per-page steps for one site profile. It holds no
// per-account state and is safe to reuse across accounts and runs.
type Steps struct {
	site   config.Site
	timing Timing
	log    *slog.Logger
}

// NewSteps creates the steps for site.
func NewSteps(site config.Site, timing Timing) *Steps {
	return &Steps{
		site:   site,
		timing: timing,
		log:    slog.With("component", "automation", "site", site.Name),
	}
}

// Site returns the profile the steps were built for.
func (s *Steps) Site() config.Site {
	return s.site
}
