package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/model"
	"shopapi/internal/repository"
)

func checkoutInput(key *string) repository.CheckoutInput {
	return repository.CheckoutInput{
		UserID:         "user_1",
		IdempotencyKey: key,
		Now:            testNow,
		Order: &model.Order{
			OrderNumber:     "ORD-20260314-ABC123",
			UserID:          "user_1",
			Status:          model.OrderPending,
			PaymentStatus:   model.PaymentUnpaid,
			Subtotal:        decimal.NewFromInt(30000),
			ShippingFee:     decimal.Zero,
			Total:           decimal.NewFromInt(30000),
			Currency:        "TZS",
			CartFingerprint: "fp",
			BuyerPhone:      "0712345678",
			Items: []model.OrderItem{{
				ProductID: "p1", ProductName: "Kitenge", UnitPrice: decimal.NewFromInt(15000), Quantity: 2, LineTotal: decimal.NewFromInt(30000),
			}},
		},
		Session: &model.PaymentSession{
			Gateway:        model.GatewayZenoPay,
			GatewayOrderID: "gw-new",
			Phone:          "0712345678",
			ExpiresAt:      testNow.Add(15 * time.Minute),
		},
	}
}

func TestPaymentPostgres_CreatePendingCheckout_ReusesIdempotencyKey(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)
	key := "idem-1"

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).WithArgs("user_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM payment_sessions WHERE idempotency_key = \$1`).
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "pending")...))
	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(orderValues("o1", "pending", "unpaid")...))
	mock.ExpectCommit()

	res, err := repo.CreatePendingCheckout(context.Background(), checkoutInput(&key))
	require.NoError(t, err)
	assert.True(t, res.Reused)
	assert.Equal(t, "s1", res.Session.ID)
	assert.Equal(t, "o1", res.Order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CreatePendingCheckout_ReusesLiveSessionOfSameCart(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WithArgs("user_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM orders\s+WHERE user_id = \$1 AND status = 'pending' AND cart_fingerprint = \$2`).
		WithArgs("user_1", "fp").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(orderValues("o1", "pending", "unpaid")...))
	mock.ExpectQuery(`FROM payment_sessions\s+WHERE order_id = \$1 AND status = 'pending' AND expires_at > \$2`).
		WithArgs("o1", testNow).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "pending")...))
	mock.ExpectCommit()

	res, err := repo.CreatePendingCheckout(context.Background(), checkoutInput(nil))
	require.NoError(t, err)
	assert.True(t, res.Reused)
	assert.Equal(t, "s1", res.Session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CreatePendingCheckout_NewOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WithArgs("user_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`cart_fingerprint = \$2`).WithArgs("user_1", "fp").WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(orderValues("o2", "pending", "unpaid")...))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WithArgs("o2", "p1", "Kitenge", sqlmock.AnyArg(), 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("oi1"))
	mock.ExpectQuery(`INSERT INTO payment_sessions`).
		WithArgs("o2", "user_1", "zenopay", "gw-new", nil, sqlmock.AnyArg(), "TZS", "0712345678", testNow.Add(15*time.Minute)).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s2", "o2", "pending")...))
	mock.ExpectExec(`INSERT INTO payment_logs`).
		WithArgs("s2", "o2", model.LogInitiated, model.SourceCheckout, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := repo.CreatePendingCheckout(context.Background(), checkoutInput(nil))
	require.NoError(t, err)
	assert.False(t, res.Reused)
	assert.Equal(t, "s2", res.Session.ID)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "oi1", res.Order.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CompleteSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payment_sessions WHERE id = \$1 FOR UPDATE`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "pending")...))
	mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(orderValues("o1", "pending", "unpaid")...))
	mock.ExpectExec(`UPDATE payment_sessions\s+SET status = 'completed'`).
		WithArgs("s1", "REF1", "TX1", "MPESA-TZ", testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE orders\s+SET status = CASE`).
		WithArgs("o1", testNow).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(orderValues("o1", "paid", "paid")...))
	mock.ExpectExec(`UPDATE products p\s+SET stock = GREATEST\(p.stock - oi.quantity, 0\)`).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM cart_items`).
		WithArgs("user_1", "o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO payment_logs`).
		WithArgs("s1", "o1", model.LogCompleted, model.SourceWebhook, `{"payment_status":"COMPLETED"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`FROM order_items`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(orderItemCols).AddRow("oi1", "o1", "p1", "Kitenge", "15000.00", 2, "30000.00"))
	mock.ExpectCommit()

	res, err := repo.CompleteSession(context.Background(), repository.CompleteInput{
		SessionID:        "s1",
		GatewayReference: "REF1",
		TransactionID:    "TX1",
		Channel:          "MPESA-TZ",
		Source:           model.SourceWebhook,
		Payload:          []byte(`{"payment_status":"COMPLETED"}`),
		Now:              testNow,
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadyProcessed)
	assert.Equal(t, model.SessionCompleted, res.Session.Status)
	assert.Equal(t, model.PaymentPaid, res.Order.PaymentStatus)
	assert.Len(t, res.Order.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CompleteSession_AlreadyTerminal(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "completed")...))
	mock.ExpectCommit()

	res, err := repo.CompleteSession(context.Background(), repository.CompleteInput{SessionID: "s1", Now: testNow})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Nil(t, res.Order)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CompleteSession_CancelledOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payment_sessions WHERE id = \$1 FOR UPDATE`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "pending")...))
	mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(orderValues("o1", "cancelled", "unpaid")...))
	mock.ExpectExec(`UPDATE payment_sessions\s+SET status = 'completed'`).
		WithArgs("s1", "REF1", "TX1", "MPESA-TZ", testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO payment_logs`).
		WithArgs("s1", "o1", model.LogRefund, model.SourceWebhook, "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := repo.CompleteSession(context.Background(), repository.CompleteInput{
		SessionID:        "s1",
		GatewayReference: "REF1",
		TransactionID:    "TX1",
		Channel:          "MPESA-TZ",
		Source:           model.SourceWebhook,
		Now:              testNow,
	})
	require.NoError(t, err)
	assert.True(t, res.RefundRequired)
	assert.False(t, res.AlreadyProcessed)
	assert.Equal(t, model.SessionCompleted, res.Session.Status)
	assert.Equal(t, model.OrderCancelled, res.Order.Status)
	assert.Equal(t, model.PaymentUnpaid, res.Order.PaymentStatus)
	// No order update, stock change or cart cleanup was expected.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CompleteSession_ClosedSessionNeedsRefund(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM payment_sessions WHERE id = \$1 FOR UPDATE`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "failed")...))
	mock.ExpectExec(`INSERT INTO payment_logs`).
		WithArgs("s1", "o1", model.LogRefund, model.SourcePoll, "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := repo.CompleteSession(context.Background(), repository.CompleteInput{SessionID: "s1", Source: model.SourcePoll, Now: testNow})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.True(t, res.RefundRequired)
	assert.Equal(t, model.SessionFailed, res.Session.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CloseSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "pending")...))
	mock.ExpectExec(`UPDATE payment_sessions SET status = \$2, failure_reason = \$3`).
		WithArgs("s1", "expired", "session expired", testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET payment_status = 'failed'`).
		WithArgs("o1", testNow, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO payment_logs`).
		WithArgs("s1", "o1", model.LogExpired, model.SourceSweep, "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := repo.CloseSession(context.Background(), repository.CloseInput{
		SessionID: "s1", Status: model.SessionExpired, Reason: "session expired", Source: model.SourceSweep, Now: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionExpired, res.Session.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_CloseSession_RejectsCompleted(t *testing.T) {
	db, _ := newMock(t)
	repo := NewPaymentPostgres(db)

	_, err := repo.CloseSession(context.Background(), repository.CloseInput{SessionID: "s1", Status: model.SessionCompleted})
	assert.Error(t, err)
}

func TestPaymentPostgres_CompleteSession_UnknownRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.CompleteSession(context.Background(), repository.CompleteInput{SessionID: "nope", Now: testNow})
	assert.True(t, IsNoRowsError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentPostgres_ListLogs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectQuery(`FROM payment_logs`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "order_id", "event", "source", "payload", "created_at"}).
			AddRow(1, "s1", "o1", "initiated", "checkout", `{"amount":"30000"}`, testNow).
			AddRow(2, "s1", nil, "webhook", "webhook", `{}`, testNow))

	logs, err := repo.ListLogs(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.JSONEq(t, `{"amount":"30000"}`, string(logs[0].Payload))
	assert.Nil(t, logs[1].OrderID)
}

func TestPaymentPostgres_TouchSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	mock.ExpectExec(`SET attempts = attempts \+ 1`).WithArgs("s1", testNow).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.TouchSession(context.Background(), "s1", testNow))
}

func TestPaymentPostgres_ListPendingCreatedBefore(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentPostgres(db)

	cutoff := testNow.Add(-10 * time.Minute)
	mock.ExpectQuery(`WHERE status = 'pending' AND created_at < \$1`).
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionValues("s1", "o1", "pending")...))

	out, err := repo.ListPendingCreatedBefore(context.Background(), cutoff, 50)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
