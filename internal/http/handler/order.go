package handler

import (
	"github.com/gofiber/fiber/v2"

	"shopapi/internal/http/middleware"
	"shopapi/internal/model"
	"shopapi/internal/service"
	"shopapi/internal/validation"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled refunded"`
}

// ListMyOrders godoc
// @Summary  The caller's orders, newest first
// @Tags     orders
// @Security ClerkSession
// @Success  200 {object} service.ListResult[model.Order]
// @Router   /api/v1/orders [get]
func ListMyOrders(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return respond(c, err)
		}
		res, err := svc.ListMine(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

// GetMyOrder godoc
// @Summary  One of the caller's orders with items and latest payment session
// @Tags     orders
// @Security ClerkSession
// @Param    id path string true "order id"
// @Success  200 {object} model.Order
// @Failure  404 {object} errorPayload
// @Router   /api/v1/orders/{id} [get]
func GetMyOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		o, err := svc.GetMine(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(o)
	}
}

func ListOrders(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return respond(c, err)
		}
		res, err := svc.List(c.UserContext(), c.Query("status"), c.Query("q"), limit, offset)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

func GetOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		o, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(o)
	}
}

// UpdateOrderStatus godoc
// @Summary  Move an order along the fulfilment workflow
// @Tags     admin
// @Security ClerkSession
// @Param    id path string true "order id"
// @Param    body body updateOrderStatusRequest true "new status"
// @Success  200 {object} model.Order
// @Failure  409 {object} errorPayload
// @Router   /api/v1/admin/orders/{id}/status [patch]
func UpdateOrderStatus(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		var req updateOrderStatusRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		o, err := svc.UpdateStatus(c.UserContext(), id, model.OrderStatus(req.Status))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(o)
	}
}

// ResendConfirmation queues another confirmation email for a paid order.
func ResendConfirmation(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		o, err := svc.ResendConfirmation(c.UserContext(), id)
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"order_id": o.ID, "order_number": o.OrderNumber, "queued": true})
	}
}
