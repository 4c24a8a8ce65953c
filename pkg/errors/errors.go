package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the failure classes of a feed refresh
type ErrorType string

const (
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeHTTPStatus    ErrorType = "http_status"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeImageDownload ErrorType = "image_download"
	ErrorTypeImageStorage  ErrorType = "image_storage"
	ErrorTypeCacheWrite    ErrorType = "cache_write"
	ErrorTypeRegistry      ErrorType = "registry"
)

// Error represents a refresh error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, err error, message string) *Error {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &Error{Type: t, Message: message, Err: err}
}

// Config reports a missing or unusable plugin setting
func Config(message string) *Error {
	return New(ErrorTypeConfig, message)
}

// Network reports a transport-level failure (DNS, connect, timeout, body read)
func Network(err error) *Error {
	return Wrap(ErrorTypeNetwork, err, "request failed")
}

// HTTPStatus reports a non-200 response
func HTTPStatus(code int) *Error {
	return &Error{
		Type:    ErrorTypeHTTPStatus,
		Message: fmt.Sprintf("unexpected status code: %d", code),
		Code:    code,
	}
}

// Parsing reports a malformed feed document
func Parsing(message string) *Error {
	return New(ErrorTypeParsing, message)
}

// IsType reports whether err carries the given error type
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the error type of err, or an empty type for untyped errors
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}
