// Package report aggregates account outcomes into a run summary and
// renders it as a text artifact or a console table.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/dailyclaim/models"
)

// Summary is the ordered result of one run. It is owned by the run that
// created it and is not safe for concurrent mutation.
type Summary struct {
	RunID      string
	Site       string
	StartedAt  time.Time
	FinishedAt time.Time

	// RewardFormat renders RewardTotal, e.g. "%.2f 元". Empty means "%.2f".
	RewardFormat string

	outcomes  []models.AccountOutcome
	succeeded int
}

// NewSummary starts a summary for a run against site.
func NewSummary(site string) *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		Site:      site,
		StartedAt: time.Now(),
	}
}

// Add appends an outcome. Earlier outcomes are never changed.
func (s *Summary) Add(o models.AccountOutcome) {
	s.outcomes = append(s.outcomes, o)
	if o.Succeeded {
		s.succeeded++
	}
}

// Finish stamps the end time. Calling it again has no effect.
func (s *Summary) Finish() {
	if s.FinishedAt.IsZero() {
		s.FinishedAt = time.Now()
	}
}

// Outcomes returns a copy of the outcomes in input order.
func (s *Summary) Outcomes() []models.AccountOutcome {
	return append([]models.AccountOutcome(nil), s.outcomes...)
}

func (s *Summary) Total() int     { return len(s.outcomes) }
func (s *Summary) Succeeded() int { return s.succeeded }
func (s *Summary) Failed() int    { return len(s.outcomes) - s.succeeded }

// SuccessRate returns the success percentage, 0 for an empty run.
func (s *Summary) SuccessRate() float64 {
	if len(s.outcomes) == 0 {
		return 0
	}
	return float64(s.succeeded) * 100 / float64(len(s.outcomes))
}

// MeanDuration averages the duration of the processed accounts. Accounts
// recorded as interrupted before they were started are not counted.
func (s *Summary) MeanDuration() time.Duration {
	var (
		total time.Duration
		n     int
	)
	for _, o := range s.outcomes {
		if !processed(o) {
			continue
		}
		total += o.Duration
		n++
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

func processed(o models.AccountOutcome) bool {
	return o.Status != models.StatusInterrupted || o.Duration > 0
}

// RewardTotal sums the reward amounts parsed during the run.
func (s *Summary) RewardTotal() float64 {
	var total float64
	for _, o := range s.outcomes {
		total += o.Reward
	}
	return total
}

// RewardTotalText renders RewardTotal, or "" when no account showed a reward.
func (s *Summary) RewardTotalText() string {
	total := s.RewardTotal()
	if total <= 0 {
		return ""
	}
	format := s.RewardFormat
	if format == "" {
		format = "%.2f"
	}
	return fmt.Sprintf(format, total)
}

// Elapsed is the wall time of the run, up to now if it is not finished.
func (s *Summary) Elapsed() time.Duration {
	end := s.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartedAt)
}

// Notifications converts every outcome into the notifier contract.
func (s *Summary) Notifications() []models.NotificationRecord {
	recs := make([]models.NotificationRecord, len(s.outcomes))
	for i, o := range s.outcomes {
		recs[i] = o.ToNotification()
	}
	return recs
}

// View renders the summary for the status API.
func (s *Summary) View() *models.RunView {
	return &models.RunView{
		RunID:        s.RunID,
		Site:         s.Site,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		ElapsedMs:    s.Elapsed().Milliseconds(),
		Total:        s.Total(),
		Succeeded:    s.Succeeded(),
		SuccessRate:  s.SuccessRate(),
		MeanDuration: s.MeanDuration().Round(time.Millisecond).String(),
		RewardTotal:  s.RewardTotalText(),
		Outcomes:     s.Outcomes(),
	}
}
