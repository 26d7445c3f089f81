package server

import (
	"context"
	"time"

	"curator-bot/internal/config"
	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/mymmrac/telego"
)

// HealthChecker reports whether the content store is reachable.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// UpdateSink receives webhook deliveries.
type UpdateSink interface {
	Push(ctx context.Context, update telego.Update) error
}

type Server struct {
	app    *fiber.App
	cfg    *config.Config
	logger logger.ILogger
}

func New(cfg *config.Config, health HealthChecker, sink UpdateSink, log logger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	s := &Server{app: app, cfg: cfg, logger: log}
	s.registerRoutes(health, sink)
	return s
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("Server", "HTTP server listening", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes(health HealthChecker, sink UpdateSink) {
	s.app.Get("/healthz", func(ctx *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
		defer cancel()

		if err := health.PingContext(pingCtx); err != nil {
			s.logger.Warn("Server", "Health check failed", map[string]interface{}{"error": err.Error()})
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	if s.cfg.Telegram.Mode != "webhook" || sink == nil {
		return
	}

	s.app.Post("/telegram/webhook/:secret",
		serverutils.WebhookSecretMiddleware(s.cfg.Telegram.WebhookSecret),
		func(ctx *fiber.Ctx) error {
			var update telego.Update
			if err := ctx.BodyParser(&update); err != nil {
				s.logger.Warn("Server", "Unreadable webhook update", map[string]interface{}{"error": err.Error()})
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid update"})
			}
			if err := sink.Push(ctx.UserContext(), update); err != nil {
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "Shutting down"})
			}
			return ctx.SendStatus(fiber.StatusOK)
		},
	)
}
