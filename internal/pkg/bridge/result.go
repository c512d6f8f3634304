package bridge

import "reflect"

// Outcome is a finished native call: either a payload or an error.
type Outcome interface {
	Payload() (interface{}, *Error)
}

// Result is the typed outcome of one native SDK call. There is no partial
// success: exactly one of value and err is meaningful.
type Result[T any] struct {
	value T
	err   *Error
}

func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Failure[T any](err *Error) Result[T] {
	if err == nil {
		err = &Error{Code: CodeUnknown, Message: "failure without error detail"}
	}
	return Result[T]{err: err}
}

// FromError builds a Result from a Go-style (value, error) pair.
func FromError[T any](v T, err error) Result[T] {
	if err != nil {
		return Failure[T](AsError(err))
	}
	return Success(v)
}

func (r Result[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

func (r Result[T]) Err() *Error {
	return r.err
}

func (r Result[T]) Payload() (interface{}, *Error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.value, nil
}

// isNil reports whether v carries no value, including typed nil pointers,
// maps and slices boxed in an interface.
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
