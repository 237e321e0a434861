// Package apperr defines the structured error values the application core
// returns across its boundary. Callers branch on the Code rather than on
// error strings or types.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation              Code = "VALIDATION_ERROR"
	CodeInvalidPrivateEvent     Code = "INVALID_PRIVATE_EVENT"
	CodeInvalidTimeRange        Code = "INVALID_TIME_RANGE"
	CodeForbidden               Code = "FORBIDDEN"
	CodeNotFound                Code = "NOT_FOUND"
	CodeEventCreationFailed     Code = "EVENT_CREATION_FAILED"
	CodeParticipantInsertFailed Code = "PARTICIPANT_INSERT_FAILED"
	CodeTaskCreationFailed      Code = "TASK_CREATION_FAILED"
	CodeSuggestionEngine        Code = "AI_ENGINE_ERROR"
	CodeDatabase                Code = "DATABASE_ERROR"
)

type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails returns a copy of e carrying the given details map.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the code from err. Errors that never got a code are
// reported as DATABASE_ERROR, the generic collaborator-failure bucket.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeDatabase
}
