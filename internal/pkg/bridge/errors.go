package bridge

import (
	"errors"
	"fmt"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

const (
	CodeNotImplemented      = "not_implemented"
	CodeArgumentMissing     = "argument_missing"
	CodeSerializationFailed = "serialization_failed"
	CodeDecodeFailed        = "decode_failed"
	CodeHostUIUnavailable   = "host_ui_unavailable"
	CodeInternal            = "internal_error"
	CodeUnknown             = "unknown"
)

// ErrAlreadyResolved is returned when a call is resolved or rejected after
// its outcome was already reported.
var ErrAlreadyResolved = errors.New("call already resolved")

// Error is the rejection payload handed to the host: a machine-readable code
// and a human-readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotImplemented() *Error {
	return &Error{Code: CodeNotImplemented, Message: "method not implemented"}
}

func MissingArgument(name string) *Error {
	return &Error{Code: CodeArgumentMissing, Message: fmt.Sprintf("Argument %s was not passed to a native module.", name)}
}

func SerializationFailure() *Error {
	return &Error{Code: CodeSerializationFailed, Message: "Failed to serialize data on a client side"}
}

func HostUIUnavailable(method string) *Error {
	return &Error{Code: CodeHostUIUnavailable, Message: fmt.Sprintf("%s requires a foreground host UI", method)}
}

// NativeError carries an error reported by the native SDK. Code and message
// are passed through untouched.
func NativeError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsError maps err onto the host error payload. *Error values pass through,
// decode failures become decode_failed and anything else is unknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if adapty.IsDecodeError(err) {
		return &Error{Code: CodeDecodeFailed, Message: err.Error()}
	}
	return &Error{Code: CodeUnknown, Message: err.Error()}
}
