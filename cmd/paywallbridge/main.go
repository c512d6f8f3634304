package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/cache"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/env"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/fallback"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/router"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/sandbox"
)

const specFile = "public/docs/v1/openapi.yml"

func main() {
	app := NewApplication()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigs
		log.Infof("[Bridge] Received %s, shutting down", sig)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("[Bridge] Shutdown: %v", err)
		}
	}()

	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))); err != nil {
		log.Fatal(err)
	}
	if err := cache.Close(); err != nil {
		log.Warnf("[SnapshotCache] Closing Redis client: %v", err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	if env.IsDev() {
		log.SetLevel(log.LevelDebug)
	}
	useCache := false
	if cache.Enabled() {
		cache.SetupCache()
		useCache = cache.Ready(2 * time.Second)
	}

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/paywallbridge to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + specFile); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	dispatcher, err := newDispatcher(context.Background(), useCache)
	if err != nil {
		panic(err)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "PaywallBridge",
		BodyLimit: 4 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + specFile,
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	var calls counter.Recorder
	if useCache {
		calls = counter.NewRedisCounter(cache.GetClient())
	}
	router.InstallRouter(app, dispatcher, calls, basePath+specFile)

	return app
}

// newDispatcher builds the sandbox SDK on the configured store and catalog,
// registers it on a dispatcher for the configured platform and installs the
// fallback paywalls when a source is configured.
func newDispatcher(ctx context.Context, useCache bool) (*bridge.Dispatcher, error) {
	platform, err := adapty.ParsePlatform(env.GetEnv("BRIDGE_PLATFORM", string(adapty.PlatformIOS)))
	if err != nil {
		return nil, err
	}

	catalog := sandbox.DefaultCatalog()
	if path := env.GetEnv("SANDBOX_CATALOG_FILE", ""); path != "" {
		if catalog, err = sandbox.LoadCatalog(path); err != nil {
			return nil, err
		}
		log.Infof("[Sandbox] Catalog loaded from %s", path)
	}

	var store sandbox.Store = sandbox.NewMemoryStore()
	if useCache {
		ttl, err := time.ParseDuration(env.GetEnv("PROFILE_TTL", "720h"))
		if err != nil {
			return nil, fmt.Errorf("PROFILE_TTL: %w", err)
		}
		store = cache.NewSnapshotStore(cache.GetClient(), ttl)
	}

	sdk := sandbox.New(store, catalog, platform)
	if err := sdk.SeedPaywalls(ctx); err != nil {
		return nil, err
	}

	d := bridge.NewDispatcher(platform)
	bridge.RegisterSDK(d, sdk)

	cfg, err := fallback.LoadConfig()
	if err != nil {
		return nil, err
	}
	doc, err := fallback.Load(ctx, cfg)
	switch {
	case errors.Is(err, fallback.ErrNotConfigured):
		log.Info("[Fallback] No fallback paywalls configured")
	case err != nil:
		log.Errorf("[Fallback] Loading fallback paywalls failed: %v", err)
	default:
		if err := fallback.Install(ctx, d, doc); err != nil {
			log.Errorf("[Fallback] Installing fallback paywalls failed: %v", err)
			doc = nil
		}
	}
	if cfg.Configured() && cfg.Refresh != "" {
		if err := fallback.NewRefresher(cfg, d, doc).Start(cfg.Refresh); err != nil {
			return nil, err
		}
	}

	log.Infof("[Bridge] Ready on %s with %d methods", platform, len(d.Methods()))
	return d, nil
}
