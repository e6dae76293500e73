package models

import "time"

// Status labels recorded on account outcomes.
const (
	StatusCheckedIn         = "check-in succeeded"
	StatusAlreadyCheckedIn  = "already checked in today"
	StatusRewardNotFound    = "logged in, check-in control not found"
	StatusLoggedIn          = "logged in"
	StatusCheckinUnknown    = "check-in result unknown"
	StatusInvalidCredential = "invalid credentials"
	StatusFailed            = "processing failed"
	StatusInterrupted       = "interrupted"

	// UncertainSuffix is appended when login was only softly confirmed.
	UncertainSuffix = " (unconfirmed login)"
)

// Balance is the part of an extraction result an outcome keeps. It is
// produced by extract.Record and is empty when nothing could be read.
type Balance struct {
	// Summary is the rendered one-line balance description.
	Summary string `json:"summary,omitempty"`

	// Reward is the reward amount parsed after check-in, if any.
	Reward string `json:"reward,omitempty"`

	// Fields holds every populated field with the strategy that produced it.
	Fields map[string]FieldValue `json:"fields,omitempty"`
}

// FieldValue is one extracted value and its source strategy.
type FieldValue struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Empty reports whether no field was extracted.
func (b *Balance) Empty() bool {
	return b == nil || len(b.Fields) == 0
}

// AccountOutcome is the result of processing one credential. It is created
// once at the end of processing and never changed afterwards.
type AccountOutcome struct {
	Identifier string        `json:"identifier"`
	Succeeded  bool          `json:"succeeded"`
	Duration   time.Duration `json:"duration"`
	Status     string        `json:"status"`
	Extracted  *Balance      `json:"extracted,omitempty"`
	Error      string        `json:"error,omitempty"`
	FinishedAt time.Time     `json:"finished_at"`

	// Reward is the parsed reward amount, 0 when none was shown.
	Reward float64 `json:"reward,omitempty"`
}

// NotificationRecord is the per-account shape handed to notifiers.
type NotificationRecord struct {
	Account        string `json:"account"`
	Success        bool   `json:"success"`
	Status         string `json:"status"`
	BalanceSummary string `json:"balance_summary,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ToNotification converts the outcome into the notifier contract.
func (o AccountOutcome) ToNotification() NotificationRecord {
	rec := NotificationRecord{
		Account: o.Identifier,
		Success: o.Succeeded,
		Status:  o.Status,
		Message: o.Error,
	}
	if !o.Extracted.Empty() {
		rec.BalanceSummary = o.Extracted.Summary
	}
	return rec
}
