package domain

import (
	"errors"
	"fmt"
)

// ErrorType categorizes pipeline failures. Every error that crosses a stage
// boundary is one of these; the orchestrator folds them into the structured
// result rather than letting them escape.
type ErrorType string

const (
	// ErrorTypeConfiguration indicates a required credential or setting is
	// absent. Raised before any network call is attempted.
	ErrorTypeConfiguration ErrorType = "configuration"

	// ErrorTypeUpstream indicates a non-success response or transport
	// failure from one of the remote services.
	ErrorTypeUpstream ErrorType = "upstream"

	// ErrorTypeParse indicates malformed or structurally invalid JSON from
	// the classification stage.
	ErrorTypeParse ErrorType = "parse"

	// ErrorTypePersistence indicates an I/O failure writing the history
	// store. Reported to callers as a boolean, never raised past them.
	ErrorTypePersistence ErrorType = "persistence"
)

// StageError is the canonical error carried across stage boundaries.
type StageError struct {
	Type    ErrorType `json:"type"`
	Stage   Stage     `json:"stage,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *StageError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s error in %s stage: %s", e.Type, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// WithStage tags the error with the stage it surfaced in.
func (e *StageError) WithStage(stage Stage) *StageError {
	e.Stage = stage
	return e
}

// ErrConfiguration creates a configuration error.
func ErrConfiguration(message string) *StageError {
	return &StageError{Type: ErrorTypeConfiguration, Message: message}
}

// ErrUpstream wraps a remote-service failure.
func ErrUpstream(message string, cause error) *StageError {
	return &StageError{Type: ErrorTypeUpstream, Message: message, Cause: cause}
}

// ErrParse wraps a malformed classifier response.
func ErrParse(message string, cause error) *StageError {
	return &StageError{Type: ErrorTypeParse, Message: message, Cause: cause}
}

// ErrPersistence wraps a history store write failure.
func ErrPersistence(message string, cause error) *StageError {
	return &StageError{Type: ErrorTypePersistence, Message: message, Cause: cause}
}

// TypeOf returns the StageError type of err, or ErrorTypeUpstream when err
// is not a StageError. Unknown failures at a stage boundary are by
// definition upstream failures.
func TypeOf(err error) ErrorType {
	var se *StageError
	if errors.As(err, &se) {
		return se.Type
	}
	return ErrorTypeUpstream
}
