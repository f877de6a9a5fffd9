package postgres

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var productCols = []string{"id", "category_id", "category_name", "name", "slug", "description", "price",
	"compare_at_price", "stock", "image_urls", "is_active", "is_featured", "created_at", "updated_at"}

func productValues(id, slug string, stock int) []driver.Value {
	return []driver.Value{id, "cat-1", "Fabrics", "Kitenge " + slug, slug, "Wax print", "15000.00",
		nil, stock, `["https://cdn.example.com/a.jpg"]`, true, false, testNow, testNow}
}

var orderCols = []string{"id", "order_number", "user_id", "status", "payment_status", "subtotal", "shipping_fee",
	"total", "currency", "shipping_address", "cart_fingerprint", "buyer_name", "buyer_email", "buyer_phone",
	"paid_at", "created_at", "updated_at"}

func orderValues(id, status, paymentStatus string) []driver.Value {
	return []driver.Value{id, "ORD-20260314-ABC123", "user_1", status, paymentStatus, "30000.00", "0.00",
		"30000.00", "TZS", []byte(`{"full_name":"Asha Mushi","city":"Arusha","country":"TZ"}`), "fp",
		"Asha Mushi", "asha@example.com", "0712345678", nil, testNow, testNow}
}

var sessionCols = []string{"id", "order_id", "user_id", "gateway", "gateway_order_id", "idempotency_key", "amount",
	"currency", "phone", "status", "gateway_reference", "transaction_id", "channel", "failure_reason", "attempts",
	"last_checked_at", "expires_at", "completed_at", "created_at", "updated_at"}

func sessionValues(id, orderID, status string) []driver.Value {
	return []driver.Value{id, orderID, "user_1", "zenopay", "gw-" + id, nil, "30000.00", "TZS", "0712345678",
		status, "", "", "", "", 0, nil, testNow.Add(15 * time.Minute), nil, testNow, testNow}
}

var orderItemCols = []string{"id", "order_id", "product_id", "product_name", "unit_price", "quantity", "line_total"}
