package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"shopapi/internal/auth"
	"shopapi/internal/config"
	handlers "shopapi/internal/http/handler"
	"shopapi/internal/http/middleware"
	"shopapi/internal/logger"
	"shopapi/internal/otel"
	"shopapi/internal/server"
)

// @title       Shop API
// @version     1.0
// @description Storefront and admin API with mobile-money checkout.
// @BasePath    /
// @securityDefinitions.apikey ClerkSession
// @in          header
// @name        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "production")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := otel.Init(ctx, otel.DefaultServiceName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	srv, err := server.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	clerk := auth.NewClerk(cfg.Auth.SecretKey)
	prom, err := middleware.NewPrometheusMiddleware(srv.Registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register http metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	// RequestID must run first so the request logger can pick it up.
	app.Use(middleware.RequestID())
	app.Use(middleware.When(tracing.Enabled, otelfiber.Middleware()))
	app.Use(middleware.Logger(log))
	app.Use(prom.Handler())

	svcs := srv.Services
	handlers.RegisterRoutes(app, srv.DB, handlers.Deps{
		Auth:          middleware.NewAuth(clerk, svcs.Users, log),
		Identities:    clerk,
		Gatherer:      srv.Registry,
		Catalog:       svcs.Catalog,
		Cart:          svcs.Cart,
		Reviews:       svcs.Reviews,
		Users:         svcs.Users,
		Addresses:     svcs.Addresses,
		Orders:        svcs.Orders,
		Payments:      svcs.Payments,
		Notifications: svcs.Notifications,
		Admin:         svcs.Admin,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := srv.Close(); err != nil {
		log.Error().Err(err).Msg("close connections")
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
