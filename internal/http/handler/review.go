package handler

import (
	"github.com/gofiber/fiber/v2"

	"shopapi/internal/http/middleware"
	"shopapi/internal/service"
	"shopapi/internal/validation"
)

type createReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Title  string `json:"title" validate:"max=200"`
	Body   string `json:"body" validate:"max=5000"`
}

// ListReviews godoc
// @Summary  List reviews of a product, newest first
// @Tags     reviews
// @Param    id path string true "product id"
// @Success  200 {object} service.ListResult[model.Review]
// @Router   /api/v1/products/{id}/reviews [get]
func ListReviews(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		limit, offset, err := page(c)
		if err != nil {
			return respond(c, err)
		}
		res, err := svc.ListByProduct(c.UserContext(), id, limit, offset)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

// CreateReview godoc
// @Summary  Review a product
// @Tags     reviews
// @Security ClerkSession
// @Param    id path string true "product id"
// @Param    body body createReviewRequest true "review"
// @Success  201 {object} model.Review
// @Failure  409 {object} errorPayload
// @Router   /api/v1/products/{id}/reviews [post]
func CreateReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		var req createReviewRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		r, err := svc.Create(c.UserContext(), middleware.UserID(c), id, service.ReviewInput{
			Rating: req.Rating,
			Title:  req.Title,
			Body:   req.Body,
		})
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

func ListAllReviews(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return respond(c, err)
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

func DeleteReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
