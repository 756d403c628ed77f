package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a medmastery error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrConflict         ErrorCode = "CONFLICT"          // 409
	ErrCardTooLarge     ErrorCode = "CARD_TOO_LARGE"    // 413
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrPersistenceRead  ErrorCode = "PERSISTENCE_READ"  // 500, recovered by the caller
	ErrPersistenceWrite ErrorCode = "PERSISTENCE_WRITE" // 503, non-fatal warning
)

// MasteryError represents a structured error with code, status, and details.
type MasteryError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MasteryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MasteryError {
	return &MasteryError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a card, question or subject cannot be found.
func NewNotFound(kind, identifier string) *MasteryError {
	return &MasteryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *MasteryError {
	return &MasteryError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *MasteryError {
	return &MasteryError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCardTooLarge creates a 413 error when card content exceeds the size limit.
func NewCardTooLarge(max, actual int) *MasteryError {
	return &MasteryError{
		Code:    ErrCardTooLarge,
		Status:  413,
		Message: fmt.Sprintf("card exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled via context.
func NewCancelled(op string) *MasteryError {
	return &MasteryError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewPersistenceRead creates an error for stored data that is missing or unparseable.
// Callers recover by substituting defaults; it is only ever logged.
func NewPersistenceRead(key string, err error) *MasteryError {
	details := map[string]any{"key": key}
	if err != nil {
		details["cause"] = err.Error()
	}
	return &MasteryError{
		Code:    ErrPersistenceRead,
		Status:  500,
		Message: fmt.Sprintf("stored value %q is unreadable", key),
		Details: details,
	}
}

// NewPersistenceWrite creates a 503 error for a durable write that did not complete.
// The in-memory state is still updated; the caller should warn, not abort.
func NewPersistenceWrite(key string, err error) *MasteryError {
	details := map[string]any{"key": key}
	if err != nil {
		details["cause"] = err.Error()
	}
	return &MasteryError{
		Code:    ErrPersistenceWrite,
		Status:  503,
		Message: fmt.Sprintf("changes kept in memory but not saved (%s)", key),
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message is generic; the underlying error is kept in Details for logging.
func NewInternal(err error) *MasteryError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &MasteryError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or any error it wraps) is a MasteryError with the given code.
func Is(err error, code ErrorCode) bool {
	var mErr *MasteryError
	if stderrors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// IsWarning reports whether err is a non-fatal persistence warning.
func IsWarning(err error) bool {
	return Is(err, ErrPersistenceWrite)
}
