package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"shopapi/internal/errs"
	"shopapi/internal/http/middleware"
	"shopapi/internal/payment"
	"shopapi/internal/service"
	"shopapi/internal/sqlerr"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  []errs.FieldError `json:"errors,omitempty"`
}

// writeError writes a standardized JSON error response.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeHTTPError(c, errs.New(status, code, message))
}

func writeHTTPError(c *fiber.Ctx, e *errs.HTTPError) error {
	return c.Status(e.Status).JSON(errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    e.Code,
			Message: e.Message,
			Errors:  e.Errors,
		},
	})
}

// sentinel maps service and domain errors onto client errors.
var sentinel = []struct {
	err  error
	http *errs.HTTPError
}{
	{service.ErrProductNotFound, errs.NewNotFoundError("product not found", "PRODUCT_NOT_FOUND")},
	{service.ErrCategoryNotFound, errs.NewNotFoundError("category not found", "CATEGORY_NOT_FOUND")},
	{service.ErrReviewNotFound, errs.NewNotFoundError("review not found", "REVIEW_NOT_FOUND")},
	{service.ErrUserNotFound, errs.NewNotFoundError("user not found", "USER_NOT_FOUND")},
	{service.ErrAddressNotFound, errs.NewNotFoundError("address not found", "ADDRESS_NOT_FOUND")},
	{service.ErrCartItemNotFound, errs.NewNotFoundError("cart item not found", "CART_ITEM_NOT_FOUND")},
	{service.ErrOrderNotFound, errs.NewNotFoundError("order not found", "ORDER_NOT_FOUND")},
	{service.ErrSessionNotFound, errs.NewNotFoundError("payment session not found", "PAYMENT_SESSION_NOT_FOUND")},

	{service.ErrIDRequired, errs.NewBadRequestError("id is required", "INVALID_ID", nil)},
	{service.ErrEmptyCart, errs.NewBadRequestError("cart is empty", "EMPTY_CART", nil)},
	{service.ErrInvalidQuantity, errs.NewBadRequestError("quantity must be greater than zero", "INVALID_QUANTITY", nil)},
	{service.ErrInvalidRating, errs.NewBadRequestError("rating must be between 1 and 5", "INVALID_RATING", nil)},
	{service.ErrInvalidStatus, errs.NewBadRequestError("unknown status", "INVALID_STATUS", nil)},
	{service.ErrBuyerEmail, errs.NewBadRequestError("buyer email is required", "BUYER_EMAIL_REQUIRED", nil)},
	{service.ErrWebhookPayload, errs.NewBadRequestError("invalid webhook payload", "INVALID_PAYLOAD", nil)},
	{service.ErrReaderNil, errs.NewBadRequestError("file is required", "FILE_REQUIRED", nil)},
	{payment.ErrInvalidPhone, errs.NewBadRequestError(payment.ErrInvalidPhone.Error(), "INVALID_PHONE",
		[]errs.FieldError{{Field: "phone", Error: "must be a Tanzanian mobile number"}})},

	{service.ErrInsufficientStock, errs.NewConflictError("not enough stock", "INSUFFICIENT_STOCK")},
	{service.ErrAlreadyReviewed, errs.NewConflictError("you have already reviewed this product", "REVIEW_ALREADY_EXISTS")},
	{service.ErrInvalidTransition, errs.NewConflictError("order status transition not allowed", "INVALID_TRANSITION")},
	{service.ErrIdempotencyKey, errs.NewConflictError("idempotency key already used", "IDEMPOTENCY_KEY_REUSED")},
	{service.ErrOrderNotPaid, errs.NewConflictError("order is not paid", "ORDER_NOT_PAID")},

	{service.ErrWebhookKey, errs.NewUnauthorizedError("invalid api key")},
	{service.ErrGatewayFailed, errs.NewBadGatewayError("payment provider is unavailable, try again", "GATEWAY_ERROR")},
	{service.ErrStorageDisabled, errs.NewServiceUnavailableError("image storage is not configured")},
}

// toHTTPError classifies err. Anything unknown becomes a 500 without detail.
func toHTTPError(err error) *errs.HTTPError {
	var he *errs.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fiberError(fe)
	}
	for _, s := range sentinel {
		if errors.Is(err, s.err) {
			return s.http
		}
	}
	var mapped *errs.HTTPError
	if errors.As(sqlerr.HandleError(err), &mapped) {
		return mapped
	}
	return errs.NewInternalServerError()
}

func fiberError(fe *fiber.Error) *errs.HTTPError {
	switch fe.Code {
	case fiber.StatusBadRequest:
		return errs.New(fe.Code, "BAD_REQUEST", "bad request")
	case fiber.StatusNotFound:
		return errs.New(fe.Code, "NOT_FOUND", "resource not found")
	case fiber.StatusMethodNotAllowed:
		return errs.New(fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
	case fiber.StatusRequestEntityTooLarge:
		return errs.New(fe.Code, "PAYLOAD_TOO_LARGE", "request body too large")
	}
	if fe.Code >= fiber.StatusInternalServerError {
		return errs.NewInternalServerError()
	}
	return errs.New(fe.Code, "", fe.Message)
}

// respond renders err without leaking internal details. Server errors are logged
// with the request's logger.
func respond(c *fiber.Ctx, err error) error {
	he := toHTTPError(err)
	if he.Status >= fiber.StatusInternalServerError {
		zerolog.Ctx(c.UserContext()).Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return writeHTTPError(c, he)
}

// ErrorHandler returns the Fiber global error handler. Middleware errors and
// unmatched routes end up here.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return respond(c, err)
	}
}
