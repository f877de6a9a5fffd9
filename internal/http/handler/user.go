package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"shopapi/internal/errs"
	"shopapi/internal/http/middleware"
	"shopapi/internal/service"
	"shopapi/internal/validation"
)

// IdentityProvider reads a user's profile from the auth provider.
type IdentityProvider interface {
	Identity(ctx context.Context, userID string) (service.Identity, error)
}

// SyncUser godoc
// @Summary  Create or refresh the caller's user row from the auth provider
// @Tags     users
// @Security ClerkSession
// @Success  200 {object} model.User
// @Router   /api/v1/users/sync [post]
func SyncUser(users service.UserService, identities IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identities.Identity(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respond(c, errs.NewBadGatewayError("could not load profile from the auth provider", "AUTH_PROVIDER_ERROR"))
		}
		id.UserID = middleware.UserID(c)
		id.OrgRole = middleware.OrgRole(c)

		u, err := users.Sync(c.UserContext(), id)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(u)
	}
}

// GetMe godoc
// @Summary  The caller's user row
// @Tags     users
// @Security ClerkSession
// @Success  200 {object} model.User
// @Failure  404 {object} errorPayload
// @Router   /api/v1/me [get]
func GetMe(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := users.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(u)
	}
}

func ListUsers(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return respond(c, err)
		}
		res, err := users.List(c.UserContext(), limit, offset)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

type addressRequest struct {
	FullName   string `json:"full_name" validate:"required,max=200"`
	Phone      string `json:"phone" validate:"required,max=32"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2" validate:"max=255"`
	City       string `json:"city" validate:"required,max=100"`
	Region     string `json:"region" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country" validate:"omitempty,len=2"`
	IsDefault  bool   `json:"is_default"`
}

func (r addressRequest) input() service.AddressInput {
	return service.AddressInput{
		FullName:   r.FullName,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		Region:     r.Region,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}

func ListAddresses(svc service.AddressService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(fiber.Map{"data": list})
	}
}

// CreateAddress godoc
// @Summary  Save a shipping address; the first one becomes the default
// @Tags     addresses
// @Security ClerkSession
// @Param    body body addressRequest true "address"
// @Success  201 {object} model.Address
// @Router   /api/v1/addresses [post]
func CreateAddress(svc service.AddressService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addressRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		a, err := svc.Create(c.UserContext(), middleware.UserID(c), req.input())
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

func UpdateAddress(svc service.AddressService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		var req addressRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		a, err := svc.Update(c.UserContext(), middleware.UserID(c), id, req.input())
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(a)
	}
}

func DeleteAddress(svc service.AddressService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SetDefaultAddress(svc service.AddressService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		if err := svc.SetDefault(c.UserContext(), middleware.UserID(c), id); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
