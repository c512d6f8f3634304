package adapty

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrUnrecognizedEnumValue = errors.New("unrecognized enum value")
	ErrNullRecord            = errors.New("null record")
	ErrInvariant             = errors.New("invariant violated")
)

// MissingRequiredFieldError reports a required wire key that was absent or null.
type MissingRequiredFieldError struct {
	Entity string
	Field  string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Entity, ErrMissingRequiredField, e.Field)
}

func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// UnrecognizedEnumValueError reports a token outside a closed enumeration
// that has no Unknown member.
type UnrecognizedEnumValueError struct {
	Enum  string
	Value string
}

func (e *UnrecognizedEnumValueError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Enum, ErrUnrecognizedEnumValue, e.Value)
}

func (e *UnrecognizedEnumValueError) Is(target error) bool {
	return target == ErrUnrecognizedEnumValue
}

// InvariantError reports a decoded record that is well-formed but violates
// a model invariant (e.g. a non-positive period count).
type InvariantError struct {
	Entity string
	Field  string
	Rule   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: field %q fails %q", e.Entity, ErrInvariant, e.Field, e.Rule)
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

// IsDecodeError reports whether err originates from wire decoding rather
// than from I/O or a caller bug.
func IsDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrUnrecognizedEnumValue) ||
		errors.Is(err, ErrNullRecord) ||
		errors.Is(err, ErrInvariant)
}
