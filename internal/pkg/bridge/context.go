package bridge

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

// Args are the named, string-encoded arguments of one call.
type Args map[string]string

// HostUI is the host's foreground UI handle, an Activity on Android or the
// presenting view controller on iOS.
type HostUI interface {
	ID() string
}

// Context is created per host call. It carries the arguments, the codec
// and the host's promise, and guarantees the promise is settled at most
// once.
type Context struct {
	ID     string
	Method string
	Args   Args
	Host   HostUI

	promise Promise
	codec   *adapty.Codec

	mu      sync.Mutex
	settled bool
}

func NewContext(method string, args Args, promise Promise, codec *adapty.Codec, host HostUI) *Context {
	if args == nil {
		args = Args{}
	}
	if codec == nil {
		codec = adapty.NewCodec()
	}
	return &Context{
		ID:      uuid.NewString(),
		Method:  method,
		Args:    args,
		Host:    host,
		promise: promise,
		codec:   codec,
	}
}

// Settled reports whether the promise already has its outcome.
func (c *Context) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

func (c *Context) claim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return false
	}
	c.settled = true
	return true
}

// Success resolves the promise with payload, nil meaning no value.
func (c *Context) Success(payload *string) error {
	if !c.claim() {
		log.Warnf("[Bridge] %s (%s): resolve after completion ignored", c.Method, c.ID)
		return ErrAlreadyResolved
	}
	c.promise.Resolve(payload)
	return nil
}

// Reject rejects the promise with err.
func (c *Context) Reject(err *Error) error {
	if !c.claim() {
		log.Warnf("[Bridge] %s (%s): reject after completion ignored", c.Method, c.ID)
		return ErrAlreadyResolved
	}
	if err == nil {
		err = &Error{Code: CodeUnknown, Message: "rejected without error detail"}
	}
	c.promise.Reject(err)
	return nil
}

// ResolveValue settles the promise from a native outcome. A failure rejects
// with the native error, a nil payload resolves with no value and anything
// else is encoded. An encoding failure rejects with a serialization error.
func (c *Context) ResolveValue(o Outcome) error {
	payload, nerr := o.Payload()
	if nerr != nil {
		return c.Reject(nerr)
	}
	if isNil(payload) {
		return c.Success(nil)
	}
	encoded, err := c.codec.EncodeString(payload)
	if err != nil {
		log.Errorf("[Bridge] %s (%s): encoding result failed: %v", c.Method, c.ID, err)
		return c.RejectSerialization()
	}
	return c.Success(&encoded)
}

// ResolveEmpty settles a call that produces no payload: it resolves with no
// value when err is nil and rejects otherwise.
func (c *Context) ResolveEmpty(err error) error {
	if nerr := AsError(err); nerr != nil {
		return c.Reject(nerr)
	}
	return c.Success(nil)
}

func (c *Context) RejectNotImplemented() error {
	return c.Reject(NotImplemented())
}

func (c *Context) RejectMissingArgument(name string) error {
	return c.Reject(MissingArgument(name))
}

func (c *Context) RejectSerialization() error {
	return c.Reject(SerializationFailure())
}

// StringArgument returns the raw argument under key. Absent and empty
// arguments are both reported as not present.
func (c *Context) StringArgument(key string) (string, bool) {
	v, ok := c.Args[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ParseArgument decodes the argument under key into T. It never fails: an
// absent, empty or malformed argument is reported as not present, and the
// handler decides whether that means MissingArgument.
func ParseArgument[T any](c *Context, key string) (T, bool) {
	var zero T
	raw, ok := c.StringArgument(key)
	if !ok {
		return zero, false
	}
	var v T
	if err := c.codec.Decode([]byte(raw), &v); err != nil {
		log.Debugf("[Bridge] %s (%s): argument %s not decodable: %v", c.Method, c.ID, key, err)
		return zero, false
	}
	return v, true
}
