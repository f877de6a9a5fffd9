package handler

import (
	"github.com/gofiber/fiber/v2"

	"shopapi/internal/http/middleware"
	"shopapi/internal/repository"
	"shopapi/internal/service"
	"shopapi/internal/validation"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type updateCartItemRequest struct {
	// Zero removes the line.
	Quantity *int `json:"quantity" validate:"required,min=0,max=1000"`
}

type syncCartRequest struct {
	Items []addCartItemRequest `json:"items" validate:"max=100,dive"`
}

// GetCart godoc
// @Summary  Current cart with live prices and stock
// @Tags     cart
// @Security ClerkSession
// @Success  200 {object} model.Cart
// @Router   /api/v1/cart [get]
func GetCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cart, err := svc.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(cart)
	}
}

// AddCartItem godoc
// @Summary  Add a product to the cart; quantities accumulate up to stock
// @Tags     cart
// @Security ClerkSession
// @Param    body body addCartItemRequest true "line"
// @Success  201 {object} model.CartItem
// @Router   /api/v1/cart/items [post]
func AddCartItem(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addCartItemRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		item, err := svc.AddItem(c.UserContext(), middleware.UserID(c), req.ProductID, req.Quantity)
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// UpdateCartItem godoc
// @Summary  Set the quantity of a cart line; zero removes it
// @Tags     cart
// @Security ClerkSession
// @Param    id path string true "cart item id"
// @Param    body body updateCartItemRequest true "quantity"
// @Success  200 {object} model.CartItem
// @Success  204
// @Router   /api/v1/cart/items/{id} [patch]
func UpdateCartItem(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		var req updateCartItemRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		item, err := svc.UpdateItem(c.UserContext(), middleware.UserID(c), id, *req.Quantity)
		if err != nil {
			return respond(c, err)
		}
		if item == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(item)
	}
}

func RemoveCartItem(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		if err := svc.RemoveItem(c.UserContext(), middleware.UserID(c), id); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ClearCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Clear(c.UserContext(), middleware.UserID(c)); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SyncCart godoc
// @Summary  Merge a guest cart into the stored cart
// @Tags     cart
// @Security ClerkSession
// @Param    body body syncCartRequest true "guest cart"
// @Success  200 {object} model.Cart
// @Router   /api/v1/cart/sync [post]
func SyncCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req syncCartRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		lines := make([]repository.CartLine, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, repository.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		cart, err := svc.Sync(c.UserContext(), middleware.UserID(c), lines)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(cart)
	}
}
