// Package errors defines the application error taxonomy shown to users and reported to Sentry.
package errors

import (
	"errors"
	"fmt"
	"time"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation  = "E100"
	CodeStorage     = "E200"
	CodeExternalAPI = "E300"
	CodeState       = "E400"
	CodePermission  = "E403"
	CodeNotFound    = "E404"
	CodeRateLimit   = "E500"
)

// AppError carries a stable code, an internal message and the i18n key of the user-facing text.
// UserMessage, when set, is shown verbatim instead of the translated UserKey.
type AppError struct {
	Code        string
	Message     string
	UserKey     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	// RetryAfter is the server-requested delay before a retry, when known.
	RetryAfter time.Duration
	cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// Code returns the AppError code found in err's chain, or an empty string.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return Code(err) == code
}

// NewValidationError describes rejected user input. userMessage is the re-prompt shown to the user.
func NewValidationError(msg, userMessage string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserKey:     "errors.validation",
		UserMessage: userMessage,
		Severity:    SeverityLow,
	}
}

func NewStorageError(cause error) *AppError {
	return &AppError{
		Code:      CodeStorage,
		Message:   "storage error",
		UserKey:   "errors.storage",
		Severity:  SeverityHigh,
		Retryable: true,
		cause:     cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:      CodeExternalAPI,
		Message:   fmt.Sprintf("external API error: %s", apiName),
		UserKey:   "errors.external",
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

func NewStateError(msg string, cause error) *AppError {
	return &AppError{
		Code:     CodeState,
		Message:  msg,
		UserKey:  "errors.state",
		Severity: SeverityMedium,
		cause:    cause,
	}
}

func NewPermissionError(action string, userID int64) *AppError {
	return &AppError{
		Code:     CodePermission,
		Message:  fmt.Sprintf("user %d is not allowed to %s", userID, action),
		UserKey:  "errors.permission",
		Severity: SeverityLow,
	}
}

// NewNotFoundError describes a missing entity; userKey selects the specific text.
func NewNotFoundError(entity, id, userKey string) *AppError {
	if userKey == "" {
		userKey = "errors.not_found"
	}
	return &AppError{
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("%s %q not found", entity, id),
		UserKey:  userKey,
		Severity: SeverityLow,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:     CodeRateLimit,
		Message:    fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserKey:    "errors.rate_limit",
		Severity:   SeverityLow,
		RetryAfter: time.Duration(retryAfter) * time.Second,
	}
}
