package apiv1

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/metrics/counter"
)

const defaultCallTimeout = 30 * time.Second

// hostUI is the host UI handle named by the X-Host-UI header.
type hostUI string

func (h hostUI) ID() string { return string(h) }

// APIServer implements the ServerInterface on top of a bridge dispatcher
type APIServer struct {
	dispatcher *bridge.Dispatcher
	counter    counter.Recorder
	timeout    time.Duration
}

// NewAPIServer creates a new API server instance
func NewAPIServer(d *bridge.Dispatcher) *APIServer {
	return &APIServer{dispatcher: d, counter: counter.NewMemoryCounter(), timeout: defaultCallTimeout}
}

// WithCounter replaces the in-memory call counter.
func (s *APIServer) WithCounter(r counter.Recorder) *APIServer {
	if r != nil {
		s.counter = r
	}
	return s
}

// WithTimeout bounds how long a call may wait for its result.
func (s *APIServer) WithTimeout(d time.Duration) *APIServer {
	s.timeout = d
	return s
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetBridgeMethods lists the methods the bridge answers.
func (s *APIServer) GetBridgeMethods(c *fiber.Ctx) error {
	return c.JSON(MethodList{
		Platform: string(s.dispatcher.Platform()),
		Methods:  s.dispatcher.Methods(),
	})
}

// GetBridgeStats reports settled calls per method.
func (s *APIServer) GetBridgeStats(c *fiber.Ctx) error {
	snapshot, err := s.counter.Snapshot(c.UserContext())
	if err != nil {
		log.Errorf("[Bridge] Reading call counters failed: %v", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "call counters unavailable")
	}
	return c.JSON(methodStats(snapshot))
}

// DeleteBridgeStats reports settled calls per method and resets the counters.
func (s *APIServer) DeleteBridgeStats(c *fiber.Ctx) error {
	drained, err := s.counter.Drain(c.UserContext())
	if err != nil {
		log.Errorf("[Bridge] Draining call counters failed: %v", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "call counters unavailable")
	}
	log.Infof("[Bridge] Call counters reset (%d methods)", len(drained))
	return c.JSON(methodStats(drained))
}

func methodStats(snapshot map[string]counter.Counts) []MethodStats {
	stats := make([]MethodStats, 0, len(snapshot))
	for _, m := range counter.Methods(snapshot) {
		stats = append(stats, MethodStats{Method: m, Resolved: snapshot[m].Resolved, Rejected: snapshot[m].Rejected})
	}
	return stats
}

func (s *APIServer) count(ctx context.Context, method string, rejected bool) {
	if !s.dispatcher.Handles(method) {
		return
	}
	if err := s.counter.Add(ctx, method, rejected); err != nil {
		log.Warnf("[Bridge] Counting %s failed: %v", method, err)
	}
}

// PostBridgeCall runs one bridge call and reports its single outcome: the
// encoded value on success, the error payload on rejection. The timeout only
// bounds how long the HTTP caller waits; the native call keeps the request
// context and runs to completion.
func (s *APIServer) PostBridgeCall(c *fiber.Ctx, method string) error {
	var req BridgeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(bridge.Error{Code: "invalid_request", Message: err.Error()})
		}
	}

	// Params and headers point into the request buffer, which fiber reuses
	// once this handler returns.
	method = utils.CopyString(method)
	var host bridge.HostUI
	if h := c.Get(HostUIHeader); h != "" {
		host = hostUI(utils.CopyString(h))
	}

	ctx := c.UserContext()
	f := bridge.NewFuture()
	calls := make(chan *bridge.Context, 1)
	go func() {
		calls <- s.dispatcher.Dispatch(ctx, bridge.Call{
			Method:  method,
			Args:    bridge.Args(req.Args),
			Promise: f,
			Host:    host,
		})
	}()

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := f.Wait(waitCtx)
	if err != nil {
		var berr *bridge.Error
		if errors.As(err, &berr) {
			log.Debugf("[Bridge] %s rejected: %s", method, berr.Code)
			s.count(ctx, method, true)
			return c.Status(fiber.StatusUnprocessableEntity).JSON(berr)
		}
		log.Errorf("[Bridge] %s gave no result within %s: %v", method, s.timeout, err)
		go s.countLate(context.WithoutCancel(ctx), method, f, calls)
		return c.Status(fiber.StatusGatewayTimeout).JSON(bridge.Error{Code: "timeout", Message: err.Error()})
	}

	s.count(ctx, method, false)
	return c.JSON(BridgeResponse{Value: value})
}

// countLate records the outcome of a call whose HTTP caller already got a
// timeout.
func (s *APIServer) countLate(ctx context.Context, method string, f *bridge.Future, calls <-chan *bridge.Context) {
	call := <-calls
	_, err := f.Wait(ctx)
	log.Warnf("[Bridge] %s (%s) settled after its caller timed out", method, call.ID)
	s.count(ctx, method, err != nil)
}
