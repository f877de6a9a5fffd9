package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// PaymentPostgres is a PostgreSQL implementation of repository.PaymentRepository.
// State changes of a session happen inside transactions that hold the session row lock.
type PaymentPostgres struct {
	db *sql.DB
}

func NewPaymentPostgres(db *sql.DB) *PaymentPostgres {
	return &PaymentPostgres{db: db}
}

var _ repository.PaymentRepository = (*PaymentPostgres)(nil)

const sessionColumns = `id, order_id, user_id, gateway, gateway_order_id, idempotency_key, amount, currency, phone,
	status, gateway_reference, transaction_id, channel, failure_reason, attempts, last_checked_at, expires_at,
	completed_at, created_at, updated_at`

func scanSession(row rowScanner) (*model.PaymentSession, error) {
	var (
		s           model.PaymentSession
		key         sql.NullString
		lastChecked sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&s.ID,
		&s.OrderID,
		&s.UserID,
		&s.Gateway,
		&s.GatewayOrderID,
		&key,
		&s.Amount,
		&s.Currency,
		&s.Phone,
		&s.Status,
		&s.GatewayReference,
		&s.TransactionID,
		&s.Channel,
		&s.FailureReason,
		&s.Attempts,
		&lastChecked,
		&s.ExpiresAt,
		&completedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.IdempotencyKey = stringPtr(key)
	s.LastCheckedAt = timePtr(lastChecked)
	s.CompletedAt = timePtr(completedAt)
	return &s, nil
}

func querySessions(ctx context.Context, db repository.DBTX, q string, args ...any) ([]model.PaymentSession, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PaymentSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// findOptional returns nil, nil when the query yields no row.
func findOptional[T any](v *T, err error) (*T, error) {
	if IsNoRowsError(err) {
		return nil, nil
	}
	return v, err
}

func payloadJSON(b []byte) string {
	if len(b) == 0 || !json.Valid(b) {
		return "{}"
	}
	return string(b)
}

func insertLog(ctx context.Context, db repository.DBTX, l *model.PaymentLog) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO payment_logs (session_id, order_id, event, source, payload) VALUES ($1, $2, $3, $4, $5::jsonb)`,
		ptrArg(l.SessionID), ptrArg(l.OrderID), l.Event, l.Source, payloadJSON(l.Payload))
	return err
}

func ptrArg(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreatePendingCheckout serializes checkouts of one user with a transaction scoped advisory lock, then
// reuses a session by idempotency key, reuses a live session of an identical pending order, or opens a new one.
func (r *PaymentPostgres) CreatePendingCheckout(ctx context.Context, in repository.CheckoutInput) (*repository.CheckoutResult, error) {
	var res *repository.CheckoutResult
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, in.UserID); err != nil {
			return fmt.Errorf("acquire checkout lock: %w", err)
		}

		if in.IdempotencyKey != nil {
			s, err := findOptional(scanSession(tx.QueryRowContext(ctx,
				`SELECT `+sessionColumns+` FROM payment_sessions WHERE idempotency_key = $1`, *in.IdempotencyKey)))
			if err != nil {
				return err
			}
			if s != nil {
				o, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, s.OrderID))
				if err != nil {
					return err
				}
				res = &repository.CheckoutResult{Order: o, Session: s, Reused: true}
				return nil
			}
		}

		order, err := findOptional(scanOrder(tx.QueryRowContext(ctx, `
			SELECT `+orderColumns+` FROM orders
			WHERE user_id = $1 AND status = 'pending' AND cart_fingerprint = $2
			ORDER BY created_at DESC LIMIT 1`, in.UserID, in.Order.CartFingerprint)))
		if err != nil {
			return err
		}

		if order != nil {
			live, err := findOptional(scanSession(tx.QueryRowContext(ctx, `
				SELECT `+sessionColumns+` FROM payment_sessions
				WHERE order_id = $1 AND status = 'pending' AND expires_at > $2
				ORDER BY created_at DESC LIMIT 1`, order.ID, in.Now)))
			if err != nil {
				return err
			}
			if live != nil {
				res = &repository.CheckoutResult{Order: order, Session: live, Reused: true}
				return nil
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE orders SET payment_status = 'unpaid', buyer_phone = $2, updated_at = $3 WHERE id = $1`,
				order.ID, in.Order.BuyerPhone, in.Now); err != nil {
				return err
			}
			order.PaymentStatus = model.PaymentUnpaid
			order.BuyerPhone = in.Order.BuyerPhone
		} else {
			if order, err = insertOrder(ctx, tx, in.Order); err != nil {
				return err
			}
		}

		s := in.Session
		session, err := scanSession(tx.QueryRowContext(ctx, `
			INSERT INTO payment_sessions (order_id, user_id, gateway, gateway_order_id, idempotency_key, amount, currency, phone, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+sessionColumns,
			order.ID, in.UserID, s.Gateway, s.GatewayOrderID, ptrArg(in.IdempotencyKey), order.Total, order.Currency, s.Phone, s.ExpiresAt))
		if err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]any{
			"gateway_order_id": session.GatewayOrderID,
			"amount":           session.Amount.String(),
			"phone":            session.Phone,
		})
		if err := insertLog(ctx, tx, &model.PaymentLog{
			SessionID: &session.ID,
			OrderID:   &order.ID,
			Event:     model.LogInitiated,
			Source:    model.SourceCheckout,
			Payload:   payload,
		}); err != nil {
			return err
		}

		res = &repository.CheckoutResult{Order: order, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, o *model.Order) (*model.Order, error) {
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}
	out, err := scanOrder(tx.QueryRowContext(ctx, `
		INSERT INTO orders (order_number, user_id, subtotal, shipping_fee, total, currency, shipping_address,
			cart_fingerprint, buyer_name, buyer_email, buyer_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11)
		RETURNING `+orderColumns,
		o.OrderNumber, o.UserID, o.Subtotal, o.ShippingFee, o.Total, o.Currency, string(address),
		o.CartFingerprint, o.BuyerName, o.BuyerEmail, o.BuyerPhone))
	if err != nil {
		return nil, err
	}

	const qItem = `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	out.Items = make([]model.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		it.OrderID = out.ID
		if err := tx.QueryRowContext(ctx, qItem, out.ID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.LineTotal).
			Scan(&it.ID); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func lockSession(ctx context.Context, tx *sql.Tx, id string) (*model.PaymentSession, error) {
	return scanSession(tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM payment_sessions WHERE id = $1 FOR UPDATE`, id))
}

// CompleteSession marks the session completed and the order paid, takes the purchased units out of stock
// and removes the purchased products from the buyer's cart. A capture on a closed session or a cancelled
// order changes nothing on the order and is logged as refund_required.
func (r *PaymentPostgres) CompleteSession(ctx context.Context, in repository.CompleteInput) (*repository.TransitionResult, error) {
	var res *repository.TransitionResult
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		s, err := lockSession(ctx, tx, in.SessionID)
		if err != nil {
			return err
		}
		if s.IsTerminal() {
			res = &repository.TransitionResult{Session: s, AlreadyProcessed: true}
			if s.Status == model.SessionCompleted {
				return nil
			}
			res.RefundRequired = true
			return insertLog(ctx, tx, refundLog(s, in))
		}

		// Sessions are locked before their order, the same order UpdateStatus uses when cancelling.
		order, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, s.OrderID))
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE payment_sessions
			SET status = 'completed', gateway_reference = $2, transaction_id = $3, channel = $4,
				completed_at = $5, updated_at = $5
			WHERE id = $1`,
			s.ID, in.GatewayReference, in.TransactionID, in.Channel, in.Now); err != nil {
			return err
		}
		s.Status = model.SessionCompleted
		s.GatewayReference = in.GatewayReference
		s.TransactionID = in.TransactionID
		s.Channel = in.Channel
		now := in.Now
		s.CompletedAt = &now

		if order.Status == model.OrderCancelled {
			res = &repository.TransitionResult{Session: s, Order: order, RefundRequired: true}
			return insertLog(ctx, tx, refundLog(s, in))
		}

		order, err = scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders
			SET status = CASE WHEN status = 'pending' THEN 'paid' ELSE status END,
				payment_status = 'paid', paid_at = COALESCE(paid_at, $2), updated_at = $2
			WHERE id = $1
			RETURNING `+orderColumns, s.OrderID, in.Now))
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = GREATEST(p.stock - oi.quantity, 0), updated_at = now()
			FROM order_items oi
			WHERE oi.order_id = $1 AND p.id = oi.product_id`, order.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cart_items
			WHERE user_id = $1 AND product_id IN (SELECT product_id FROM order_items WHERE order_id = $2)`,
			order.UserID, order.ID); err != nil {
			return err
		}
		if err := insertLog(ctx, tx, &model.PaymentLog{
			SessionID: &s.ID,
			OrderID:   &order.ID,
			Event:     model.LogCompleted,
			Source:    in.Source,
			Payload:   in.Payload,
		}); err != nil {
			return err
		}
		if order.Items, err = loadOrderItems(ctx, tx, order.ID); err != nil {
			return err
		}

		res = &repository.TransitionResult{Session: s, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func refundLog(s *model.PaymentSession, in repository.CompleteInput) *model.PaymentLog {
	return &model.PaymentLog{
		SessionID: &s.ID,
		OrderID:   &s.OrderID,
		Event:     model.LogRefund,
		Source:    in.Source,
		Payload:   in.Payload,
	}
}

// CloseSession fails or expires a pending session. The order is flagged as failed unless another
// session of the same order is still pending or already completed.
func (r *PaymentPostgres) CloseSession(ctx context.Context, in repository.CloseInput) (*repository.TransitionResult, error) {
	if in.Status != model.SessionFailed && in.Status != model.SessionExpired {
		return nil, fmt.Errorf("close session: invalid target status %q", in.Status)
	}
	event := model.LogFailed
	if in.Status == model.SessionExpired {
		event = model.LogExpired
	}

	var res *repository.TransitionResult
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		s, err := lockSession(ctx, tx, in.SessionID)
		if err != nil {
			return err
		}
		if s.IsTerminal() {
			res = &repository.TransitionResult{Session: s, AlreadyProcessed: true}
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE payment_sessions SET status = $2, failure_reason = $3, updated_at = $4 WHERE id = $1`,
			s.ID, string(in.Status), in.Reason, in.Now); err != nil {
			return err
		}
		s.Status = in.Status
		s.FailureReason = in.Reason

		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET payment_status = 'failed', updated_at = $2
			WHERE id = $1 AND payment_status <> 'paid'
				AND NOT EXISTS (
					SELECT 1 FROM payment_sessions ps
					WHERE ps.order_id = $1 AND ps.id <> $3 AND ps.status IN ('pending', 'completed')
				)`, s.OrderID, in.Now, s.ID); err != nil {
			return err
		}
		if err := insertLog(ctx, tx, &model.PaymentLog{
			SessionID: &s.ID,
			OrderID:   &s.OrderID,
			Event:     event,
			Source:    in.Source,
			Payload:   in.Payload,
		}); err != nil {
			return err
		}

		res = &repository.TransitionResult{Session: s}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *PaymentPostgres) FindSession(ctx context.Context, id string) (*model.PaymentSession, error) {
	return scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM payment_sessions WHERE id = $1`, id))
}

func (r *PaymentPostgres) FindSessionByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.PaymentSession, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM payment_sessions WHERE gateway_order_id = $1`, gatewayOrderID))
}

func (r *PaymentPostgres) TouchSession(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_sessions SET attempts = attempts + 1, last_checked_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *PaymentPostgres) AppendLog(ctx context.Context, l *model.PaymentLog) error {
	return insertLog(ctx, r.db, l)
}

func (r *PaymentPostgres) ListSessions(ctx context.Context, f repository.SessionFilter) (*repository.PageResult[model.PaymentSession], error) {
	where := ""
	var args []any
	if f.Status != "" {
		where = ` WHERE status = $1`
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_sessions`+where, args...).Scan(&total); err != nil {
		return nil, err
	}
	args = append(args, f.Limit, f.Offset)
	items, err := querySessions(ctx, r.db, fmt.Sprintf(
		`SELECT %s FROM payment_sessions%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		sessionColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.PaymentSession]{Items: items, Total: total}, nil
}

// ListLogs returns a session's audit trail, oldest first.
func (r *PaymentPostgres) ListLogs(ctx context.Context, sessionID string) ([]model.PaymentLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, order_id, event, source, payload::text, created_at
		FROM payment_logs
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PaymentLog, 0)
	for rows.Next() {
		var (
			l         model.PaymentLog
			sessionID sql.NullString
			orderID   sql.NullString
			payload   string
		)
		if err := rows.Scan(&l.ID, &sessionID, &orderID, &l.Event, &l.Source, &payload, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.SessionID = stringPtr(sessionID)
		l.OrderID = stringPtr(orderID)
		l.Payload = json.RawMessage(payload)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PaymentPostgres) ListPendingCreatedBefore(ctx context.Context, t time.Time, limit int) ([]model.PaymentSession, error) {
	return querySessions(ctx, r.db, `
		SELECT `+sessionColumns+` FROM payment_sessions
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`, t, limit)
}

func (r *PaymentPostgres) ListExpiredPending(ctx context.Context, t time.Time, limit int) ([]model.PaymentSession, error) {
	return querySessions(ctx, r.db, `
		SELECT `+sessionColumns+` FROM payment_sessions
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2`, t, limit)
}
