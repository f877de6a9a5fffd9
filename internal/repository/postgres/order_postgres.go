package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

// OrderPostgres is a PostgreSQL implementation of repository.OrderRepository.
type OrderPostgres struct {
	db *sql.DB
}

func NewOrderPostgres(db *sql.DB) *OrderPostgres {
	return &OrderPostgres{db: db}
}

var _ repository.OrderRepository = (*OrderPostgres)(nil)

const orderColumns = `id, order_number, user_id, status, payment_status, subtotal, shipping_fee, total, currency,
	shipping_address, cart_fingerprint, buyer_name, buyer_email, buyer_phone, paid_at, created_at, updated_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o       model.Order
		address []byte
		paidAt  sql.NullTime
	)
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.ShippingFee,
		&o.Total,
		&o.Currency,
		&address,
		&o.CartFingerprint,
		&o.BuyerName,
		&o.BuyerEmail,
		&o.BuyerPhone,
		&paidAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	o.PaidAt = timePtr(paidAt)
	return &o, nil
}

func queryOrders(ctx context.Context, db repository.DBTX, q string, args ...any) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func loadOrderItems(ctx context.Context, db repository.DBTX, orderID string) ([]model.OrderItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.OrderItem, 0)
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.LineTotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *OrderPostgres) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.Order], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, err
	}
	items, err := queryOrders(ctx, r.db,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Order]{Items: items, Total: total}, nil
}

func (r *OrderPostgres) List(ctx context.Context, f repository.OrderFilter) (*repository.PageResult[model.Order], error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(order_number ILIKE $%d OR buyer_email ILIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, err
	}
	args = append(args, f.Limit, f.Offset)
	items, err := queryOrders(ctx, r.db, fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Order]{Items: items, Total: total}, nil
}

func (r *OrderPostgres) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *OrderPostgres) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.findOne(ctx, `order_number = $1`, number)
}

func (r *OrderPostgres) findOne(ctx context.Context, cond string, arg any) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg))
	if err != nil {
		return nil, err
	}
	if o.Items, err = loadOrderItems(ctx, r.db, o.ID); err != nil {
		return nil, err
	}
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM payment_sessions WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`, o.ID))
	switch {
	case err == nil:
		o.LatestPayment = s
	case !IsNoRowsError(err):
		return nil, err
	}
	return o, nil
}

const cancelReason = "order cancelled"

func (r *OrderPostgres) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	if to == model.OrderCancelled {
		return withTx(ctx, r.db, func(tx *sql.Tx) error {
			return cancelOrder(ctx, tx, id, from)
		})
	}
	return updateStatus(ctx, r.db, id, from, to)
}

func updateStatus(ctx context.Context, db repository.DBTX, id string, from, to model.OrderStatus) error {
	res, err := db.ExecContext(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if err := expectAffected(res); err != nil {
		return repository.ErrStateConflict
	}
	return nil
}

// cancelOrder locks the order's pending sessions before the order itself, so a concurrent
// CompleteSession either finishes first and the cancel conflicts, or finds its session failed.
func cancelOrder(ctx context.Context, tx *sql.Tx, id string, from model.OrderStatus) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM payment_sessions WHERE order_id = $1 AND status = 'pending' ORDER BY id FOR UPDATE`, id)
	if err != nil {
		return err
	}
	var sessionIDs []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			rows.Close()
			return err
		}
		sessionIDs = append(sessionIDs, sid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if err := updateStatus(ctx, tx, id, from, model.OrderCancelled); err != nil {
		return err
	}
	if len(sessionIDs) == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET payment_status = 'failed' WHERE id = $1 AND payment_status <> 'paid'`, id); err != nil {
		return err
	}
	for _, sid := range sessionIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE payment_sessions SET status = 'failed', failure_reason = $2, updated_at = now() WHERE id = $1`,
			sid, cancelReason); err != nil {
			return err
		}
		if err := insertLog(ctx, tx, &model.PaymentLog{
			SessionID: &sid,
			OrderID:   &id,
			Event:     model.LogFailed,
			Source:    model.SourceAdmin,
			Payload:   []byte(`{"reason":"` + cancelReason + `"}`),
		}); err != nil {
			return err
		}
	}
	return nil
}
