package wmerr

import (
	"errors"
	"fmt"
)

// Code identifies a failure class. Codes are names, not numbers; they
// travel over the wire verbatim in failure frames.
type Code string

const (
	// Input errors
	EmptyCommand    Code = "empty_command"
	UnknownDomain   Code = "unknown_domain"
	UnknownCommand  Code = "unknown_command"
	MissingArgument Code = "missing_argument"
	InvalidArgument Code = "invalid_argument"
	InvalidSelector Code = "invalid_selector"
	InvalidValue    Code = "invalid_value"

	// Not-found errors
	WindowNotFound  Code = "window_not_found"
	SpaceNotFound   Code = "space_not_found"
	DisplayNotFound Code = "display_not_found"
	NoFocusedWindow Code = "no_focused_window"
	NoFocusedSpace  Code = "no_focused_space"

	// State errors
	WindowNotManaged Code = "window_not_managed"
	SpaceNotVisible  Code = "space_not_visible"
	AlreadyExists    Code = "already_exists"

	// System errors
	AXError       Code = "ax_error"
	PlatformError Code = "platform_error"
	SocketError   Code = "socket_error"

	// Permission errors
	SANotLoaded      Code = "sa_not_loaded"
	PermissionDenied Code = "permission_denied"
)

// Error carries a taxonomy code plus optional human detail.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// New creates an error with just a code.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Newf creates an error with a code and formatted detail.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying error's message.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return New(code)
	}
	return &Error{Code: code, Detail: err.Error()}
}

// CodeOf extracts the taxonomy code from an error chain.
// Unclassified errors map to platform_error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return PlatformError
}
