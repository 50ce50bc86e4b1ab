// Command server hosts the HTTP + websocket front door: health and
// metrics endpoints over HTTP, and the websocket session manager, which
// validates workflows and runs them, streaming their results.
// Grounded on the teacher's fiber app wiring, generalised from its
// single websocket.go route into the full message-typed dispatcher.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Narcis13/workscript-sub004/internal/bootstrap"
	"github.com/Narcis13/workscript-sub004/internal/config"
	"github.com/Narcis13/workscript-sub004/internal/engine"
	"github.com/Narcis13/workscript-sub004/internal/logging"
	"github.com/Narcis13/workscript-sub004/internal/metrics"
	"github.com/Narcis13/workscript-sub004/internal/registry"
	"github.com/Narcis13/workscript-sub004/internal/validator"
	"github.com/Narcis13/workscript-sub004/internal/wsserver"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	reg := registry.New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	providers, resources, err := bootstrap.BuildProviders(ctx, cfg, logger, reg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build node providers")
	}
	if err := reg.Discover(providers); err != nil {
		logger.Fatal().Err(err).Msg("failed to register nodes")
	}

	collector := metrics.New(prometheus.DefaultRegisterer)
	eng := engine.New(reg, logger, engine.WithMetrics(collector))
	val := validator.New(reg)

	dispatcher := &wsserver.WorkflowDispatcher{Engine: eng, Validator: val, Logger: logger}
	mgr := wsserver.NewManager(logger, collector, dispatcher)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(cfg.WS.Path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get(cfg.WS.Path, websocket.New(wsserver.HandleConn(mgr, logger)))

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := app.Listen(addr); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = app.ShutdownWithContext(shutdownCtx)
	_ = resources.Redis.Close()
	_ = resources.Asynq.Close()
}
