// Package apperr defines the user-facing error kinds of the application and
// the helpers used to classify them at the request boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes for the failures a request can surface
const (
	// CodeUnknownAccount indicates the username could not be resolved by the tweet source
	CodeUnknownAccount = "UNKNOWN_ACCOUNT"
	// CodeUpstreamFailure indicates the tweet source or embedding provider call failed
	CodeUpstreamFailure = "UPSTREAM_FAILURE"
	// CodeInsufficientSelection indicates fewer than two distinct users with tweets were chosen
	CodeInsufficientSelection = "INSUFFICIENT_SELECTION"
	// CodeEmptyInput indicates a required text field was blank
	CodeEmptyInput = "EMPTY_INPUT"
	// CodeNotFound indicates the requested user has no stored record
	CodeNotFound = "NOT_FOUND"
	// CodeIncompatibleEmbeddings indicates vectors of different dimensionality were combined
	CodeIncompatibleEmbeddings = "INCOMPATIBLE_EMBEDDINGS"
	// CodeStorageFailure indicates the database rejected a read or write
	CodeStorageFailure = "STORAGE_FAILURE"
)

// Error is an application error carrying a code, a human readable message,
// the username it concerns (if any) and the underlying cause.
type Error struct {
	Code     string // Error code identifying the kind of failure
	Message  string // Human readable message, safe to render
	Username string // Username the failure concerns, if any
	Err      error  // Underlying error if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Username != "" {
		msg = fmt.Sprintf("%s (user %s)", msg, e.Username)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ForUser creates a new Error attached to a username.
func ForUser(code, username, message string, err error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Username: username,
		Err:      err,
	}
}

// CodeOf returns the code of the first Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err's chain contains an Error with the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the renderable message of err. Errors that are not
// application errors are reported with their full text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil && e.Code != CodeEmptyInput && e.Code != CodeInsufficientSelection {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return err.Error()
}
