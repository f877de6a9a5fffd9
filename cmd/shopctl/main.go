// Command shopctl runs migrations and the payment recovery scripts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"shopapi/internal/cli"
	"shopapi/internal/config"
	"shopapi/internal/database"
	"shopapi/internal/logger"
	"shopapi/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "production")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.Env).With().Str("component", "shopctl").Logger()

	open := func(ctx context.Context) (*cli.Env, error) {
		// Migrations are an explicit command here.
		cfg.Database.AutoMigrate = false
		srv, err := server.New(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &cli.Env{
			Payments:      srv.Services.Payments,
			Notifications: srv.Services.Notifications,
			Logger:        log,
			Close:         srv.Close,
		}, nil
	}
	migrate := func(ctx context.Context) error {
		return database.Migrate(ctx, cfg.Database, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open, migrate).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
