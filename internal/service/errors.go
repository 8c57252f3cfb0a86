package service

import "errors"

var (
	// ErrStoreUnavailable marks a failed store read or write; callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNoEntriesInWindow means the week is ready but holds no journal text.
	ErrNoEntriesInWindow = errors.New("no journal entries in window")
	// ErrAIService wraps transport, status and timeout failures of the scoring call.
	ErrAIService = errors.New("ai service error")
	// ErrMalformedAIResponse means the scorer answered outside the requested schema.
	ErrMalformedAIResponse = errors.New("malformed ai response")

	ErrReportNotFound     = errors.New("report not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("username already taken")
)

// MalformedResponseError keeps the raw scorer output for diagnosis.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "malformed ai response: " + e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedAIResponse, e.Err}
}
