package service

import "errors"

var (
	ErrIDRequired        = errors.New("id is required")
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrAddressNotFound   = errors.New("address not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrSessionNotFound   = errors.New("payment session not found")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAlreadyReviewed   = errors.New("product already reviewed by this user")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus     = errors.New("unknown status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrOrderNotPaid      = errors.New("order is not paid")
	ErrBuyerEmail        = errors.New("buyer email is required")
	ErrIdempotencyKey    = errors.New("idempotency key already used for another checkout")
	ErrGatewayFailed     = errors.New("payment gateway request failed")
	ErrWebhookKey        = errors.New("invalid webhook api key")
	ErrWebhookPayload    = errors.New("invalid webhook payload")
	ErrReaderNil         = errors.New("reader is nil")
	ErrStorageDisabled   = errors.New("image storage is not configured")
)
