package router

import (
	apiv1 "github.com/ManuelReschke/PaywallBridge/internal/api/v1"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/env"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	dispatcher *bridge.Dispatcher
	counter    counter.Recorder
	specPath   string
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiterConfig()))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from paywall bridge",
		})
	})

	if h.specPath != "" {
		validator, err := NewRequestValidator(h.specPath)
		if err != nil {
			log.Warnf("[Router] Request validation disabled: %v", err)
		} else {
			api.Use(validator.Handler())
		}
	}

	// API v1 routes
	v1 := api.Group("/v1")
	if keys := middleware.ParseAPIKeys(env.GetEnv("BRIDGE_API_KEYS", "")); len(keys) > 0 {
		v1.Use("/bridge", middleware.APIKeyAuthMiddleware(keys))
	}
	apiServer := apiv1.NewAPIServer(h.dispatcher).WithCounter(h.counter)
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter(d *bridge.Dispatcher, rec counter.Recorder, specPath string) *ApiRouter {
	return &ApiRouter{dispatcher: d, counter: rec, specPath: specPath}
}
