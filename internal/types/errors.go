package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNoOutput             = errors.New("completion service returned no output")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	ErrClientClosed         = errors.New("completion client is closed")
)

// AssistantUnavailableError is the single user-facing failure of a chat request.
type AssistantUnavailableError struct {
	Cause error
}

func (e *AssistantUnavailableError) Error() string {
	details := "An unknown error occurred with the AI service."
	if e.Cause != nil {
		details = e.Cause.Error()
	}
	return fmt.Sprintf("Nizhal is unable to respond right now. Details: %s", details)
}

func (e *AssistantUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrAssistantUnavailable}
	}
	return []error{ErrAssistantUnavailable, e.Cause}
}

// Response is the generic error envelope used in API docs.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
