package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"shopapi/internal/model"
	"shopapi/internal/service"
)

var errStillPending = errors.New("payment still pending")

const (
	reconcileBaseDelay = 15 * time.Second
	reconcileMaxDelay  = 10 * time.Minute
)

// Worker processes queued tasks.
type Worker struct {
	server        *asynq.Server
	payments      service.PaymentService
	notifications service.NotificationService
	log           zerolog.Logger
}

func NewWorker(opt asynq.RedisConnOpt, payments service.PaymentService, notifications service.NotificationService, log zerolog.Logger) *Worker {
	w := &Worker{
		payments:      payments,
		notifications: notifications,
		log:           log.With().Str("component", "worker").Logger(),
	}
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		RetryDelayFunc: RetryDelay,
		ErrorHandler:   asynq.ErrorHandlerFunc(w.logFailure),
		Logger:         asynqLogger{w.log},
	})
	return w
}

// Mux routes task types to their handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePaymentReconcile, w.handleReconcile)
	mux.HandleFunc(TypeOrderConfirmation, w.handleOrderConfirmation)
	mux.HandleFunc(TypeAdminNewOrder, w.handleAdminNewOrder)
	return mux
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	w.log.Info().Msg("starting background job server")
	return w.server.Start(w.Mux())
}

func (w *Worker) Stop() {
	w.log.Info().Msg("stopping background job server")
	w.server.Shutdown()
}

// RetryDelay backs reconcile tasks off exponentially from 15s up to 10m so a
// session is polled through its whole lifetime. Other tasks use the asynq default.
func RetryDelay(n int, err error, t *asynq.Task) time.Duration {
	if t.Type() != TypePaymentReconcile {
		return asynq.DefaultRetryDelayFunc(n, err, t)
	}
	d := time.Duration(float64(reconcileBaseDelay) * math.Pow(2, float64(n)))
	if d <= 0 || d > reconcileMaxDelay {
		return reconcileMaxDelay
	}
	return d
}

func (w *Worker) handleReconcile(ctx context.Context, t *asynq.Task) error {
	var p ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal reconcile payload: %v: %w", err, asynq.SkipRetry)
	}

	res, err := w.payments.Reconcile(ctx, p.SessionID, model.SourceJob)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fmt.Errorf("session %s: %w", p.SessionID, asynq.SkipRetry)
		}
		return err
	}
	w.log.Info().Str("session_id", p.SessionID).Str("outcome", res.Outcome).Msg("payment reconciled")
	if res.Outcome == service.OutcomePending {
		// Retried on the reconcile schedule until the session settles or expires.
		return errStillPending
	}
	return nil
}

func (w *Worker) handleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	return w.handleOrderEmail(ctx, t, w.notifications.SendOrderConfirmation)
}

func (w *Worker) handleAdminNewOrder(ctx context.Context, t *asynq.Task) error {
	return w.handleOrderEmail(ctx, t, w.notifications.SendAdminNewOrder)
}

func (w *Worker) handleOrderEmail(ctx context.Context, t *asynq.Task, send func(context.Context, string) error) error {
	var p OrderEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal order email payload: %v: %w", err, asynq.SkipRetry)
	}

	w.log.Info().Str("type", t.Type()).Str("order_id", p.OrderID).Msg("processing order email task")
	if err := send(ctx, p.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) || errors.Is(err, service.ErrOrderNotPaid) {
			return fmt.Errorf("order %s: %v: %w", p.OrderID, err, asynq.SkipRetry)
		}
		return err
	}
	w.log.Info().Str("type", t.Type()).Str("order_id", p.OrderID).Msg("order email sent")
	return nil
}

func (w *Worker) logFailure(ctx context.Context, t *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	ev := w.log.Warn()
	if errors.Is(err, errStillPending) {
		ev = w.log.Debug()
	}
	if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
		ev = w.log.Error()
	}
	ev.Err(err).Str("type", t.Type()).Int("retried", retried).Int("max_retry", maxRetry).Msg("task failed")
}

// asynqLogger routes asynq's own logs through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
