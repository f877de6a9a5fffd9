package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"shopapi/internal/model"
	"shopapi/internal/service"
)

// Default sweep schedules.
const (
	RecoverSpec = "@every 5m"
	ExpireSpec  = "@every 15m"
)

// SchedulerConfig tunes the periodic payment sweeps.
type SchedulerConfig struct {
	RecoverSpec      string
	ExpireSpec       string
	RecoverOlderThan time.Duration
	BatchSize        int
	// RunTimeout bounds a single sweep run.
	RunTimeout time.Duration
}

// Scheduler runs the payment sweeps that catch sessions whose webhook and
// reconcile tasks never settled them.
type Scheduler struct {
	cron     *cron.Cron
	payments service.PaymentService
	cfg      SchedulerConfig
	log      zerolog.Logger
}

func NewScheduler(payments service.PaymentService, cfg SchedulerConfig, log zerolog.Logger) (*Scheduler, error) {
	if cfg.RecoverSpec == "" {
		cfg.RecoverSpec = RecoverSpec
	}
	if cfg.ExpireSpec == "" {
		cfg.ExpireSpec = ExpireSpec
	}
	if cfg.RecoverOlderThan <= 0 {
		cfg.RecoverOlderThan = 10 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 4 * time.Minute
	}

	l := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{l}
	s := &Scheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl))),
		payments: payments,
		cfg:      cfg,
		log:      l,
	}
	if _, err := s.cron.AddFunc(cfg.RecoverSpec, s.RecoverStuck); err != nil {
		return nil, fmt.Errorf("schedule recover sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.ExpireSpec, s.ExpireSessions); err != nil {
		return nil, fmt.Errorf("schedule expire sweep: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info().Str("recover", s.cfg.RecoverSpec).Str("expire", s.cfg.ExpireSpec).Msg("starting payment sweeps")
	s.cron.Start()
}

// Stop waits for running sweeps to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("payment sweep still running at shutdown")
	}
}

// RecoverStuck reconciles pending sessions older than the configured age.
func (s *Scheduler) RecoverStuck() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()
	if _, err := s.payments.RecoverStuck(ctx, service.RecoverOptions{
		OlderThan: s.cfg.RecoverOlderThan,
		Limit:     s.cfg.BatchSize,
		Source:    model.SourceSweep,
	}); err != nil {
		s.log.Error().Err(err).Msg("recover sweep failed")
	}
}

// ExpireSessions settles sessions past their expiry.
func (s *Scheduler) ExpireSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()
	if _, err := s.payments.ExpireSessions(ctx, s.cfg.BatchSize, model.SourceSweep); err != nil {
		s.log.Error().Err(err).Msg("expire sweep failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
