package bridge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

// HandlerFunc serves one method. It must settle c exactly once before
// returning.
type HandlerFunc func(ctx context.Context, c *Context)

// Call is one inbound host request.
type Call struct {
	Method  string
	Args    Args
	Promise Promise
	Host    HostUI
}

// Dispatcher routes host calls to method handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	codec    *adapty.Codec
	platform adapty.Platform
}

func NewDispatcher(platform adapty.Platform) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		codec:    adapty.NewCodec(),
		platform: platform,
	}
}

func (d *Dispatcher) Platform() adapty.Platform {
	return d.platform
}

func (d *Dispatcher) Codec() *adapty.Codec {
	return d.codec
}

// Handle registers h for method, replacing any earlier handler.
func (d *Dispatcher) Handle(method string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = h
}

func (d *Dispatcher) Handles(method string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[method]
	return ok
}

// Methods lists the registered method names in order.
func (d *Dispatcher) Methods() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for m := range d.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler for call and returns its Context. The promise is
// always settled once Dispatch returns: unknown methods are rejected as not
// implemented, and a handler that panics or returns without settling is
// rejected with an internal error.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) *Context {
	c := NewContext(call.Method, call.Args, call.Promise, d.codec, call.Host)

	d.mu.RLock()
	h, ok := d.handlers[call.Method]
	d.mu.RUnlock()
	if !ok {
		log.Warnf("[Bridge] Unknown method %q", call.Method)
		_ = c.RejectNotImplemented()
		return c
	}

	d.run(ctx, c, h)
	if !c.Settled() {
		log.Errorf("[Bridge] %s (%s): handler returned without settling", c.Method, c.ID)
		_ = c.Reject(&Error{Code: CodeInternal, Message: fmt.Sprintf("%s returned no result", c.Method)})
	}
	return c
}

func (d *Dispatcher) run(ctx context.Context, c *Context, h HandlerFunc) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Bridge] %s (%s): handler panic: %v", c.Method, c.ID, r)
			if !c.Settled() {
				_ = c.Reject(&Error{Code: CodeInternal, Message: fmt.Sprintf("%v", r)})
			}
		}
	}()
	h(ctx, c)
}
