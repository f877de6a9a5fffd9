package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"shopapi/internal/config"
)

// RedisOpt converts the shared Redis settings for asynq.
func RedisOpt(c config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Address, Password: c.Password, DB: c.DB}
}

// enqueuer is the part of *asynq.Client the queue uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues tasks. It implements service.TaskQueue.
type Client struct {
	client enqueuer
	log    zerolog.Logger
}

func NewClient(opt asynq.RedisConnOpt, log zerolog.Logger) *Client {
	return &Client{client: asynq.NewClient(opt), log: log.With().Str("component", "jobs").Logger()}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueReconcile(ctx context.Context, sessionID string, delay time.Duration) error {
	task, err := NewReconcileTask(sessionID)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.ProcessIn(delay), asynq.TaskID(taskID(TypePaymentReconcile, sessionID)))
}

// EnqueueOrderPaid queues the buyer confirmation and the admin notice. Task ids
// keep a second completion signal for the same order from mailing twice.
func (c *Client) EnqueueOrderPaid(ctx context.Context, orderID string) error {
	var errs []error
	for _, typ := range []string{TypeOrderConfirmation, TypeAdminNewOrder} {
		task, err := NewOrderEmailTask(typ, orderID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := c.enqueue(ctx, task, asynq.TaskID(taskID(typ, orderID))); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) EnqueueConfirmation(ctx context.Context, orderID string) error {
	task, err := NewOrderEmailTask(TypeOrderConfirmation, orderID)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		c.log.Debug().Str("type", task.Type()).Msg("task already queued")
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	c.log.Debug().Str("type", task.Type()).Str("task_id", info.ID).Str("queue", info.Queue).Msg("task enqueued")
	return nil
}
