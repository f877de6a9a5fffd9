package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a user's cart joined with current product data.
type CartItem struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	ImageURL    string          `json:"image_url"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	Quantity    int             `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Cart is the priced view of all cart items of a user.
type Cart struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int             `json:"count"`
}

// NewCart prices items.
func NewCart(items []CartItem) *Cart {
	c := &Cart{Items: items, Subtotal: decimal.Zero}
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	for _, it := range c.Items {
		c.Subtotal = c.Subtotal.Add(it.LineTotal())
		c.Count += it.Quantity
	}
	return c
}

// Fingerprint identifies the cart contents independently of line order.
// Two carts with the same products, quantities and prices share a fingerprint.
func (c *Cart) Fingerprint() string {
	lines := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, fmt.Sprintf("%s:%d:%s", it.ProductID, it.Quantity, it.UnitPrice.StringFixed(2)))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "|")))
	return hex.EncodeToString(sum[:])
}
