package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"shopapi/internal/errs"
	"shopapi/internal/http/middleware"
	"shopapi/internal/model"
	"shopapi/internal/service"
	"shopapi/internal/validation"
)

const (
	// IdempotencyKeyHeader lets a client retry a checkout without creating a second order.
	IdempotencyKeyHeader = "Idempotency-Key"
	// WebhookKeyHeader carries the gateway's api key on webhook calls.
	WebhookKeyHeader = "x-api-key"
)

type initiatePaymentRequest struct {
	Phone      string `json:"phone" validate:"required,max=20"`
	AddressID  string `json:"address_id" validate:"required,uuid"`
	BuyerName  string `json:"buyer_name" validate:"max=200"`
	BuyerEmail string `json:"buyer_email" validate:"omitempty,email"`
}

type recoverPaymentsRequest struct {
	OlderThan string `json:"older_than"`
	Limit     int    `json:"limit" validate:"min=0,max=1000"`
	DryRun    bool   `json:"dry_run"`
}

// InitiatePayment godoc
// @Summary  Check out the cart and start a mobile-money payment
// @Tags     payments
// @Security ClerkSession
// @Param    Idempotency-Key header string false "client retry key"
// @Param    body body initiatePaymentRequest true "checkout"
// @Success  201 {object} service.InitiateResult
// @Success  200 {object} service.InitiateResult "existing session reused"
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /api/v1/payments/initiate [post]
func InitiatePayment(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req initiatePaymentRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		key := c.Get(IdempotencyKeyHeader)
		if len(key) > 255 {
			return respond(c, errs.NewBadRequestError("idempotency key too long", "INVALID_IDEMPOTENCY_KEY", nil))
		}

		res, err := svc.Initiate(c.UserContext(), middleware.UserID(c), service.InitiateInput{
			Phone:          req.Phone,
			AddressID:      req.AddressID,
			BuyerName:      req.BuyerName,
			BuyerEmail:     req.BuyerEmail,
			IdempotencyKey: key,
		})
		if err != nil {
			return respond(c, err)
		}
		status := fiber.StatusCreated
		if res.Reused {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(res)
	}
}

// GetPaymentStatus godoc
// @Summary  Status of one of the caller's payment sessions
// @Tags     payments
// @Security ClerkSession
// @Param    id path string true "payment session id"
// @Success  200 {object} model.PaymentSession
// @Failure  404 {object} errorPayload
// @Router   /api/v1/payments/{id}/status [get]
func GetPaymentStatus(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		sess, err := svc.GetStatus(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(sess)
	}
}

// PaymentWebhook godoc
// @Summary  Payment notification from the gateway
// @Tags     payments
// @Param    x-api-key header string true "gateway api key"
// @Success  200 {object} service.WebhookResult
// @Failure  401 {object} errorPayload
// @Router   /api/v1/payments/webhook [post]
func PaymentWebhook(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// fasthttp reuses the body buffer once the handler returns.
		body := append([]byte(nil), c.Body()...)
		res, err := svc.HandleWebhook(c.UserContext(), c.Get(WebhookKeyHeader), body)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

func ListPaymentSessions(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return respond(c, err)
		}
		res, err := svc.ListSessions(c.UserContext(), c.Query("status"), limit, offset)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

func GetPaymentSession(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		sess, err := svc.GetSession(c.UserContext(), id)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(sess)
	}
}

func ListPaymentLogs(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		logs, err := svc.ListLogs(c.UserContext(), id)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(fiber.Map{"data": logs})
	}
}

// ReconcilePayment godoc
// @Summary  Check a session against the gateway now
// @Tags     admin
// @Security ClerkSession
// @Param    id path string true "payment session id"
// @Success  200 {object} service.ReconcileResult
// @Failure  502 {object} errorPayload
// @Router   /api/v1/admin/payments/{id}/reconcile [post]
func ReconcilePayment(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		res, err := svc.Reconcile(c.UserContext(), id, model.SourceAdmin)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

// RecoverPayments godoc
// @Summary  Reconcile every pending session older than older_than
// @Tags     admin
// @Security ClerkSession
// @Param    body body recoverPaymentsRequest false "sweep options"
// @Success  200 {object} model.SweepReport
// @Router   /api/v1/admin/payments/recover [post]
func RecoverPayments(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req recoverPaymentsRequest
		if len(c.Body()) > 0 {
			if err := validation.BindAndValidate(c, &req); err != nil {
				return respond(c, err)
			}
		}
		opts := service.RecoverOptions{Limit: req.Limit, DryRun: req.DryRun, Source: model.SourceAdmin}
		if req.OlderThan != "" {
			d, err := time.ParseDuration(req.OlderThan)
			if err != nil || d <= 0 {
				return respond(c, errs.NewBadRequestError("older_than must be a duration like 15m", "VALIDATION_FAILED",
					[]errs.FieldError{{Field: "older_than", Error: "must be a positive duration"}}))
			}
			opts.OlderThan = d
		}
		report, err := svc.RecoverStuck(c.UserContext(), opts)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(report)
	}
}
