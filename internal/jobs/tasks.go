// Package jobs runs the background work of the shop on asynq: payment
// reconciliation after checkout and the emails that follow a paid order.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task types stored in Redis.
const (
	TypePaymentReconcile  = "payment:reconcile"
	TypeOrderConfirmation = "email:order_confirmation"
	TypeAdminNewOrder     = "email:admin_new_order"
)

// Queues and their share of the worker pool.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

const (
	reconcileMaxRetry = 12
	emailMaxRetry     = 5
)

// ReconcilePayload identifies the payment session to check against the gateway.
type ReconcilePayload struct {
	SessionID string `json:"session_id"`
}

// OrderEmailPayload identifies the paid order an email is about.
type OrderEmailPayload struct {
	OrderID string `json:"order_id"`
}

// NewReconcileTask builds a reconcile task for sessionID.
func NewReconcileTask(sessionID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReconcilePayload{SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TypePaymentReconcile,
		payload,
		asynq.MaxRetry(reconcileMaxRetry),
		asynq.Queue(QueueCritical),
		asynq.Timeout(time.Minute),
	), nil
}

// NewOrderEmailTask builds one of the order email tasks.
func NewOrderEmailTask(taskType, orderID string) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderEmailPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		taskType,
		payload,
		asynq.MaxRetry(emailMaxRetry),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

// taskID is the dedupe key of a task that must run once per subject.
func taskID(taskType, subject string) string {
	return taskType + ":" + subject
}
