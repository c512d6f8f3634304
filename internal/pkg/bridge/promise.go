package bridge

import (
	"context"
	"sync"
)

// Promise is the host's one-shot result channel for a call. A nil value
// means "resolved with no value".
type Promise interface {
	Resolve(value *string)
	Reject(err *Error)
}

// Future is an in-process Promise that a caller can wait on. It keeps the
// first outcome and counts later attempts as violations.
type Future struct {
	mu         sync.Mutex
	done       chan struct{}
	settled    bool
	value      *string
	err        *Error
	violations int
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) Resolve(value *string) {
	f.settle(value, nil)
}

func (f *Future) Reject(err *Error) {
	if err == nil {
		err = &Error{Code: CodeUnknown, Message: "rejected without error detail"}
	}
	f.settle(nil, err)
}

func (f *Future) settle(value *string, err *Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		f.violations++
		return
	}
	f.settled = true
	f.value = value
	f.err = err
	close(f.done)
}

// Done is closed once the future has an outcome.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx ends. A rejection is returned
// as a *Error. An outcome that is already in wins over an expired ctx.
func (f *Future) Wait(ctx context.Context) (*string, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		select {
		case <-f.done:
		default:
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Violations reports how many times the future was settled after the first.
func (f *Future) Violations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.violations
}
