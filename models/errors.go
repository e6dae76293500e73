package models

import "fmt"

// Error codes used in logs, account outcomes and API responses.
const (
	ErrCodeConfig        = "CONFIG_ERROR"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeSessionOpen   = "SESSION_OPEN_FAILED"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeFieldNotFound = "FIELD_NOT_FOUND"
	ErrCodeTimeout       = "TIMEOUT"
	ErrCodeRunInProgress = "RUN_IN_PROGRESS"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckinError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CheckinError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CheckinError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CheckinError) Unwrap() error {
	return e.Err
}

// NewCheckinError creates a new CheckinError.
func NewCheckinError(code, message string, err error) *CheckinError {
	return &CheckinError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *CheckinError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
