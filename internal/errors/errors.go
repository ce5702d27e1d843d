// Package errors defines the error taxonomy of the voicebox client.
// Every failure a user action can produce maps to one AppError code; the
// Update branch that receives it decides how to surface it.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is the text shown to the user (or logged for silent codes).
	Message string `json:"message"`
	// Status is the HTTP status that produced the error, if any.
	Status int `json:"status,omitempty"`
	// Cause is the underlying error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// UserFacing reports whether the message should be shown as an alert.
func (e *AppError) UserFacing() bool { return IsUserFacingCode(e.Code) }

// New creates an AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// PermissionDenied is returned when the capture device cannot be opened.
func PermissionDenied(cause error) *AppError {
	return &AppError{
		Code:    ErrCodePermissionDenied,
		Message: "Unable to access microphone. Please check permissions.",
		Cause:   cause,
	}
}

// NoRecording is returned when an upload is attempted with nothing recorded.
func NoRecording() *AppError {
	return &AppError{Code: ErrCodeNoRecording, Message: "No audio recorded"}
}

// ServerRejected wraps the error message returned by the server verbatim.
func ServerRejected(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &AppError{Code: ErrCodeServerRejected, Message: message, Status: status}
}

// Network is returned when a request could not complete.
func Network(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: "Failed to upload audio. Please try again.",
		Cause:   cause,
	}
}

// LoadHistory is returned when the initial history fetch fails.
func LoadHistory(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeLoadHistory,
		Message: "Error loading transcriptions",
		Cause:   cause,
	}
}

// InvalidState is returned when a recorder operation is not valid right now.
func InvalidState(op, state string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("cannot %s while %s", op, state),
	}
}

// Config is returned when configuration loading or validation fails.
func Config(cause error) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: "invalid configuration", Cause: cause}
}

// --- Inspection ---

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsPermissionDenied reports whether err is a PERMISSION_DENIED error.
func IsPermissionDenied(err error) bool { return HasCode(err, ErrCodePermissionDenied) }

// IsNoRecording reports whether err is a NO_RECORDING error.
func IsNoRecording(err error) bool { return HasCode(err, ErrCodeNoRecording) }

// IsServerRejected reports whether err is a SERVER_REJECTED error.
func IsServerRejected(err error) bool { return HasCode(err, ErrCodeServerRejected) }

// IsNetwork reports whether err is a NETWORK error.
func IsNetwork(err error) bool { return HasCode(err, ErrCodeNetwork) }
