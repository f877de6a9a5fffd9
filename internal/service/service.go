// Package service holds the storefront, admin and payment use cases.
// Services depend on repository interfaces and return sentinel errors from errors.go.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"shopapi/internal/repository"
)

// ListResult is the service-level DTO for paginated listings.
type ListResult[T any] struct {
	Items  []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func pageQuery(limit, offset int) repository.PageQuery {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.PageQuery{Limit: limit, Offset: offset}
}

func listResult[T any](res *repository.PageResult[T], pq repository.PageQuery) *ListResult[T] {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return &ListResult[T]{Items: items, Total: res.Total, Limit: pq.Limit, Offset: pq.Offset}
}

// TaskQueue schedules background work. The asynq client in internal/jobs implements it.
type TaskQueue interface {
	EnqueueReconcile(ctx context.Context, sessionID string, delay time.Duration) error
	// EnqueueOrderPaid schedules the buyer confirmation and the admin notice once per order.
	EnqueueOrderPaid(ctx context.Context, orderID string) error
	// EnqueueConfirmation schedules a buyer confirmation unconditionally, for manual resends.
	EnqueueConfirmation(ctx context.Context, orderID string) error
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func componentLogger(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
