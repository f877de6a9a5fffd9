package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the storefront navigation.
type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	ProductCount int       `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product is a sellable item. Price is in the shop currency.
type Product struct {
	ID             string           `json:"id"`
	CategoryID     *string          `json:"category_id,omitempty"`
	CategoryName   string           `json:"category_name,omitempty"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Stock          int              `json:"stock"`
	ImageURLs      []string         `json:"image_urls"`
	IsActive       bool             `json:"is_active"`
	IsFeatured     bool             `json:"is_featured"`
	Rating         *RatingSummary   `json:"rating,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// InStock reports whether qty units can be sold right now.
func (p *Product) InStock(qty int) bool {
	return p.IsActive && qty > 0 && p.Stock >= qty
}

// RatingSummary aggregates the reviews of one product.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Review is a customer's rating of a product. One per product and user.
type Review struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"product_id"`
	UserID             string    `json:"user_id"`
	AuthorName         string    `json:"author_name,omitempty"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}
