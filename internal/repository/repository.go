// Package repository declares the persistence contracts used by services.
// Implementations live in subpackages; postgres is the only one.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shopapi/internal/model"
)

// ErrStateConflict is returned by conditional updates when the row is not in the expected state.
var ErrStateConflict = errors.New("row is not in the expected state")

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Product sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategorySlug    string
	Search          string
	Featured        *bool
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Sort            string
	IncludeInactive bool
	PageQuery
}

// Key is a stable identifier of the filter, used for caching listings.
func (f ProductFilter) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "c=%s|q=%s|s=%s|all=%t|l=%d|o=%d", f.CategorySlug, strings.ToLower(f.Search), f.Sort, f.IncludeInactive, f.Limit, f.Offset)
	if f.Featured != nil {
		fmt.Fprintf(&b, "|f=%t", *f.Featured)
	}
	if f.MinPrice != nil {
		fmt.Fprintf(&b, "|min=%s", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		fmt.Fprintf(&b, "|max=%s", f.MaxPrice.String())
	}
	return b.String()
}

type ProductRepository interface {
	List(ctx context.Context, f ProductFilter) (*PageResult[model.Product], error)
	// FindByID and FindBySlug return inactive products too, with category name and rating summary.
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	Update(ctx context.Context, p *model.Product) (*model.Product, error)
	// Deactivate hides a product from the storefront without deleting it.
	Deactivate(ctx context.Context, id string) error
	AppendImage(ctx context.Context, id, url string) (*model.Product, error)
}

type CategoryRepository interface {
	// List returns every category with its count of active products.
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	Update(ctx context.Context, c *model.Category) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}

type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID string, pq PageQuery) (*PageResult[model.Review], error)
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Review], error)
	// Create flags the review as a verified purchase when the author has a paid order with the product.
	// A second review of the same product by the same user violates unique_reviews_product_user.
	Create(ctx context.Context, r *model.Review) (*model.Review, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	// Upsert inserts or refreshes a user. An existing admin role is never downgraded.
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, pq PageQuery) (*PageResult[model.User], error)
}

type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Address, error)
	FindByID(ctx context.Context, userID, id string) (*model.Address, error)
	// Create makes the address the default when asked to or when it is the user's first.
	Create(ctx context.Context, a *model.Address) (*model.Address, error)
	Update(ctx context.Context, a *model.Address) (*model.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) error
}

// CartLine is a product and quantity pair, as sent by a client-side cart.
type CartLine struct {
	ProductID string
	Quantity  int
}

type CartRepository interface {
	ListItems(ctx context.Context, userID string) ([]model.CartItem, error)
	// AddItem adds qty to the line for productID, never exceeding maxQty.
	AddItem(ctx context.Context, userID, productID string, qty, maxQty int) (*model.CartItem, error)
	FindItem(ctx context.Context, userID, itemID string) (*model.CartItem, error)
	SetQuantity(ctx context.Context, userID, itemID string, qty int) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
	// Merge keeps the larger of the stored and incoming quantity per product, capped at stock,
	// in a single transaction. Inactive or unknown products are skipped.
	Merge(ctx context.Context, userID string, lines []CartLine) error
}

// OrderFilter narrows the admin order listing. Search matches order number or buyer email.
type OrderFilter struct {
	Status string
	Search string
	PageQuery
}

type OrderRepository interface {
	ListByUser(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.Order], error)
	List(ctx context.Context, f OrderFilter) (*PageResult[model.Order], error)
	// FindByID loads the order with its items and most recent payment session.
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByNumber(ctx context.Context, number string) (*model.Order, error)
	// UpdateStatus moves an order from one status to another, returning ErrStateConflict
	// if the order is no longer in from. Cancelling fails the order's pending payment
	// sessions in the same transaction.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error
}

// CheckoutInput carries everything needed to open a payment session for a priced cart.
type CheckoutInput struct {
	UserID         string
	IdempotencyKey *string
	Order          *model.Order
	Session        *model.PaymentSession
	Now            time.Time
}

// CheckoutResult is the session the caller should use. Reused is set when an
// existing session was returned instead of creating a new one.
type CheckoutResult struct {
	Order   *model.Order
	Session *model.PaymentSession
	Reused  bool
}

// CompleteInput records a confirmed payment.
type CompleteInput struct {
	SessionID        string
	GatewayReference string
	TransactionID    string
	Channel          string
	Source           string
	Payload          []byte
	Now              time.Time
}

// CloseInput moves a pending session to failed or expired.
type CloseInput struct {
	SessionID string
	Status    model.SessionStatus
	Reason    string
	Source    string
	Payload   []byte
	Now       time.Time
}

// TransitionResult reports the session after a state change attempt.
// AlreadyProcessed means the session was terminal and nothing changed.
// RefundRequired means the gateway captured money that cannot be applied to the order,
// either because the session was already closed or because the order was cancelled.
type TransitionResult struct {
	Session          *model.PaymentSession
	Order            *model.Order
	AlreadyProcessed bool
	RefundRequired   bool
}

// SessionFilter narrows the admin session listing.
type SessionFilter struct {
	Status string
	PageQuery
}

type PaymentRepository interface {
	// CreatePendingCheckout runs under a per-user advisory lock in one transaction.
	CreatePendingCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
	FindSession(ctx context.Context, id string) (*model.PaymentSession, error)
	FindSessionByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.PaymentSession, error)
	// CompleteSession and CloseSession lock the session row and are no-ops on terminal sessions.
	CompleteSession(ctx context.Context, in CompleteInput) (*TransitionResult, error)
	CloseSession(ctx context.Context, in CloseInput) (*TransitionResult, error)
	// TouchSession records a gateway status check.
	TouchSession(ctx context.Context, id string, at time.Time) error
	AppendLog(ctx context.Context, l *model.PaymentLog) error
	ListSessions(ctx context.Context, f SessionFilter) (*PageResult[model.PaymentSession], error)
	ListLogs(ctx context.Context, sessionID string) ([]model.PaymentLog, error)
	// ListPendingCreatedBefore returns pending sessions created before t, oldest first.
	ListPendingCreatedBefore(ctx context.Context, t time.Time, limit int) ([]model.PaymentSession, error)
	// ListExpiredPending returns pending sessions whose expires_at is not after t.
	ListExpiredPending(ctx context.Context, t time.Time, limit int) ([]model.PaymentSession, error)
}

type StatsRepository interface {
	Dashboard(ctx context.Context, lowStockThreshold, recentLimit int) (*model.DashboardStats, error)
}
