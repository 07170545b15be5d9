// Package errors provides structured error handling for ratingsim.
//
// Every error raised while validating a simulation carries a machine-readable
// Code. Callers branch on the code with errors.Is against a sentinel built by
// New, or on the whole configuration class with IsConfiguration.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Configuration errors
	CodeInvalidAgentCount Code = "INVALID_AGENT_COUNT"
	CodeInvalidSkill      Code = "INVALID_SKILL"
	CodeInvalidGames      Code = "INVALID_GAMES"
	CodeInvalidKFactor    Code = "INVALID_K_FACTOR"
	CodeInvalidWinRate    Code = "INVALID_WIN_RATE"
	CodeInvalidMode       Code = "INVALID_MODE"
	CodeInvalidRating     Code = "INVALID_RATING"
	CodeInvalidScore      Code = "INVALID_SCORE"
	CodeInvalidTrials     Code = "INVALID_TRIALS"
	CodeSameAgent         Code = "SAME_AGENT"

	// CodeDivisionGuard marks a journey computation that would divide by
	// agentCount-1 with fewer than two agents.
	CodeDivisionGuard Code = "DIVISION_GUARD"

	// CodeRateLimited marks an MCP tool call rejected by its rate limit.
	CodeRateLimited Code = "RATE_LIMITED"
)

// IsConfiguration reports whether the code belongs to the configuration class.
func (c Code) IsConfiguration() bool {
	switch c {
	case CodeInvalidAgentCount,
		CodeInvalidSkill,
		CodeInvalidGames,
		CodeInvalidKFactor,
		CodeInvalidWinRate,
		CodeInvalidMode,
		CodeInvalidRating,
		CodeInvalidScore,
		CodeInvalidTrials,
		CodeSameAgent,
		CodeDivisionGuard:
		return true
	default:
		return false
	}
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	Metadata map[string]string // Offending values, for logs and tool output
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// WithMetadata creates a domain error with metadata attached.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the code from the first *Error in err's chain.
// Returns CodeUnknown when there is none.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return CodeOf(err).IsConfiguration()
}
