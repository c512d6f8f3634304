package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/metrics/counter"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter mounts the API. A nil rec counts calls in memory.
func InstallRouter(app *fiber.App, d *bridge.Dispatcher, rec counter.Recorder, specPath string) {
	setup(app, NewApiRouter(d, rec, specPath))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
