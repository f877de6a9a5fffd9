// Command worker runs the asynq task server and the payment sweeps.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopapi/internal/config"
	"shopapi/internal/jobs"
	"shopapi/internal/logger"
	"shopapi/internal/otel"
	"shopapi/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "production")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := otel.Init(ctx, otel.DefaultServiceName+"-worker", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	srv, err := server.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	worker := jobs.NewWorker(jobs.RedisOpt(cfg.Redis), srv.Services.Payments, srv.Services.Notifications, log)
	if err := worker.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start job server")
	}

	scheduler, err := jobs.NewScheduler(srv.Services.Payments, jobs.SchedulerConfig{}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule payment sweeps")
	}
	scheduler.Start()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	worker.Stop()
	if err := srv.Close(); err != nil {
		log.Error().Err(err).Msg("close connections")
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
