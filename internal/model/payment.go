package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a payment session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionExpired   SessionStatus = "expired"
)

// Terminal reports whether s is final. Terminal sessions never change again.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionExpired
}

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	return s == SessionPending || s.Terminal()
}

// GatewayZenoPay is the only gateway in use.
const GatewayZenoPay = "zenopay"

// PaymentSession is one attempt to collect money for an order through the gateway.
type PaymentSession struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	UserID           string          `json:"user_id"`
	Gateway          string          `json:"gateway"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	IdempotencyKey   *string         `json:"-"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Phone            string          `json:"phone"`
	Status           SessionStatus   `json:"status"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	TransactionID    string          `json:"transaction_id,omitempty"`
	Channel          string          `json:"channel,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	Attempts         int             `json:"attempts"`
	LastCheckedAt    *time.Time      `json:"last_checked_at,omitempty"`
	ExpiresAt        time.Time       `json:"expires_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the session reached a final state.
func (p *PaymentSession) IsTerminal() bool {
	return p.Status.Terminal()
}

// Expired reports whether a pending session outlived its TTL at now.
func (p *PaymentSession) Expired(now time.Time) bool {
	return p.Status == SessionPending && !now.Before(p.ExpiresAt)
}

// DueForCheck reports whether a pending session was not checked against the gateway within interval.
func (p *PaymentSession) DueForCheck(now time.Time, interval time.Duration) bool {
	if p.Status != SessionPending {
		return false
	}
	if p.LastCheckedAt == nil {
		return true
	}
	return now.Sub(*p.LastCheckedAt) >= interval
}

// Payment log events.
const (
	LogInitiated    = "initiated"
	LogWebhook      = "webhook"
	LogStatusCheck  = "status_check"
	LogCompleted    = "completed"
	LogFailed       = "failed"
	LogExpired      = "expired"
	LogGatewayError = "gateway_error"
	LogRefund       = "refund_required"
)

// Sources of a payment state change.
const (
	SourceCheckout = "checkout"
	SourceWebhook  = "webhook"
	SourcePoll     = "poll"
	SourceJob      = "job"
	SourceSweep    = "sweep"
	SourceAdmin    = "admin"
	SourceCLI      = "cli"
)

// PaymentLog is an append-only audit record of everything that happened to a session.
type PaymentLog struct {
	ID        int64           `json:"id"`
	SessionID *string         `json:"session_id,omitempty"`
	OrderID   *string         `json:"order_id,omitempty"`
	Event     string          `json:"event"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// SweepReport summarises a batch reconciliation of pending sessions.
type SweepReport struct {
	Checked    int      `json:"checked"`
	Completed  int      `json:"completed"`
	Failed     int      `json:"failed"`
	Expired    int      `json:"expired"`
	Pending    int      `json:"pending"`
	Errors     int      `json:"errors"`
	SessionIDs []string `json:"session_ids"`
	DryRun     bool     `json:"dry_run"`
}
