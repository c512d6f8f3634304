package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// HostUIHeader names the foreground host UI a call may present on.
const HostUIHeader = "X-Host-UI"

// Pong defines model for Pong.
type Pong struct {
	Ping string `json:"ping"`
}

// BridgeRequest defines model for BridgeRequest.
type BridgeRequest struct {
	Args map[string]string `json:"args"`
}

// BridgeResponse defines model for BridgeResponse. A nil Value is a call
// that resolved with no value.
type BridgeResponse struct {
	Value *string `json:"value"`
}

// MethodList defines model for MethodList.
type MethodList struct {
	Platform string   `json:"platform"`
	Methods  []string `json:"methods"`
}

// MethodStats defines model for MethodStats.
type MethodStats struct {
	Method   string `json:"method"`
	Resolved int64  `json:"resolved"`
	Rejected int64  `json:"rejected"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// (GET /bridge/methods)
	GetBridgeMethods(c *fiber.Ctx) error
	// (GET /bridge/stats)
	GetBridgeStats(c *fiber.Ctx) error
	// (DELETE /bridge/stats)
	DeleteBridgeStats(c *fiber.Ctx) error
	// (POST /bridge/{method})
	PostBridgeCall(c *fiber.Ctx, method string) error
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetPing(c *fiber.Ctx) error {
	return w.Handler.GetPing(c)
}

func (w *ServerInterfaceWrapper) GetBridgeMethods(c *fiber.Ctx) error {
	return w.Handler.GetBridgeMethods(c)
}

func (w *ServerInterfaceWrapper) GetBridgeStats(c *fiber.Ctx) error {
	return w.Handler.GetBridgeStats(c)
}

func (w *ServerInterfaceWrapper) DeleteBridgeStats(c *fiber.Ctx) error {
	return w.Handler.DeleteBridgeStats(c)
}

func (w *ServerInterfaceWrapper) PostBridgeCall(c *fiber.Ctx) error {
	method := c.Params("method")
	if method == "" {
		return fiber.NewError(fiber.StatusBadRequest, "method path parameter is required")
	}
	return w.Handler.PostBridgeCall(c, method)
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.Get("/ping", wrapper.GetPing)
	router.Get("/bridge/methods", wrapper.GetBridgeMethods)
	router.Get("/bridge/stats", wrapper.GetBridgeStats)
	router.Delete("/bridge/stats", wrapper.DeleteBridgeStats)
	router.Post("/bridge/:method", wrapper.PostBridgeCall)
}
