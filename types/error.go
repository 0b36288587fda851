package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Initialization error codes
const (
	ErrConfiguration       ErrorCode = "CONFIGURATION"
	ErrConstruction        ErrorCode = "CONSTRUCTION"
	ErrConstructionTimeout ErrorCode = "CONSTRUCTION_TIMEOUT"
	ErrSetup               ErrorCode = "SETUP"
	ErrNotReady            ErrorCode = "NOT_READY"
	ErrAlreadyInitializing ErrorCode = "ALREADY_INITIALIZING"
)

// Workflow error codes
const (
	ErrValidation      ErrorCode = "VALIDATION"
	ErrUnknownWorkflow ErrorCode = "UNKNOWN_WORKFLOW"
	ErrNoMember        ErrorCode = "NO_MEMBER"
	ErrStageExecution  ErrorCode = "STAGE_EXECUTION"
)

// Provider error codes
const (
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrUpstreamError       ErrorCode = "UPSTREAM_ERROR"
	ErrUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrHealthCheck         ErrorCode = "HEALTH_CHECK"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider identifier the error originated from.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
