package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"shopapi/internal/errs"
	"shopapi/internal/service"
	"shopapi/internal/validation"
)

type createProductRequest struct {
	CategoryID     *string          `json:"category_id" validate:"omitempty,uuid"`
	Name           string           `json:"name" validate:"required,max=200"`
	Slug           string           `json:"slug" validate:"max=200"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          int              `json:"stock" validate:"min=0"`
	IsActive       *bool            `json:"is_active"`
	IsFeatured     bool             `json:"is_featured"`
}

type updateProductRequest struct {
	CategoryID     *string          `json:"category_id" validate:"omitempty,uuid"`
	ClearCategory  bool             `json:"clear_category"`
	Name           *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Slug           *string          `json:"slug" validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          *int             `json:"stock" validate:"omitempty,min=0"`
	IsActive       *bool            `json:"is_active"`
	IsFeatured     *bool            `json:"is_featured"`
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

func (r categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Slug: r.Slug, Description: r.Description, ImageURL: r.ImageURL}
}

// checkPrices rejects negative and zero prices, which the validator cannot see on decimals.
func checkPrices(price, compareAt *decimal.Decimal) error {
	var fields []errs.FieldError
	if price != nil && !price.IsPositive() {
		fields = append(fields, errs.FieldError{Field: "price", Error: "must be greater than 0"})
	}
	if compareAt != nil && compareAt.IsNegative() {
		fields = append(fields, errs.FieldError{Field: "compare_at_price", Error: "must not be negative"})
	}
	if len(fields) > 0 {
		return errs.NewBadRequestError("validation failed", "VALIDATION_FAILED", fields)
	}
	return nil
}

func AdminListProducts(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := productFilter(c)
		if err != nil {
			return respond(c, err)
		}
		res, err := svc.ListProducts(c.UserContext(), f)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(res)
	}
}

func AdminGetProduct(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		p, err := svc.GetProduct(c.UserContext(), id)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(p)
	}
}

// CreateProduct godoc
// @Summary  Create a product
// @Tags     admin
// @Security ClerkSession
// @Param    body body createProductRequest true "product"
// @Success  201 {object} model.Product
// @Failure  409 {object} errorPayload
// @Router   /api/v1/admin/products [post]
func CreateProduct(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createProductRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		if err := checkPrices(&req.Price, req.CompareAtPrice); err != nil {
			return respond(c, err)
		}
		p, err := svc.CreateProduct(c.UserContext(), service.ProductInput{
			CategoryID:     req.CategoryID,
			Name:           req.Name,
			Slug:           req.Slug,
			Description:    req.Description,
			Price:          req.Price,
			CompareAtPrice: req.CompareAtPrice,
			Stock:          req.Stock,
			IsActive:       req.IsActive,
			IsFeatured:     req.IsFeatured,
		})
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// UpdateProduct godoc
// @Summary  Update the given fields of a product
// @Tags     admin
// @Security ClerkSession
// @Param    id path string true "product id"
// @Param    body body updateProductRequest true "fields to change"
// @Success  200 {object} model.Product
// @Router   /api/v1/admin/products/{id} [patch]
func UpdateProduct(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		var req updateProductRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		if err := checkPrices(req.Price, req.CompareAtPrice); err != nil {
			return respond(c, err)
		}
		p, err := svc.UpdateProduct(c.UserContext(), id, service.ProductPatch{
			CategoryID:     req.CategoryID,
			ClearCategory:  req.ClearCategory,
			Name:           req.Name,
			Slug:           req.Slug,
			Description:    req.Description,
			Price:          req.Price,
			CompareAtPrice: req.CompareAtPrice,
			Stock:          req.Stock,
			IsActive:       req.IsActive,
			IsFeatured:     req.IsFeatured,
		})
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(p)
	}
}

func DeleteProduct(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		if err := svc.DeleteProduct(c.UserContext(), id); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadProductImage godoc
// @Summary  Upload a product image (multipart field "image")
// @Tags     admin
// @Security ClerkSession
// @Accept   multipart/form-data
// @Param    id path string true "product id"
// @Param    image formData file true "image"
// @Success  201 {object} model.Product
// @Failure  503 {object} errorPayload
// @Router   /api/v1/admin/products/{id}/images [post]
func UploadProductImage(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "image is required")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		if !strings.HasPrefix(ct, "image/") {
			return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "only images can be uploaded")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		p, err := svc.UploadProductImage(c.UserContext(), id, service.ImageUpload{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
		})
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

func CreateCategory(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req categoryRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		cat, err := svc.CreateCategory(c.UserContext(), req.input())
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

func UpdateCategory(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		var req categoryRequest
		if err := validation.BindAndValidate(c, &req); err != nil {
			return respond(c, err)
		}
		cat, err := svc.UpdateCategory(c.UserContext(), id, req.input())
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(cat)
	}
}

// DeleteCategory removes a category; its products keep existing without one.
func DeleteCategory(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuidParam(c, "id")
		if err != nil {
			return respond(c, err)
		}
		if err := svc.DeleteCategory(c.UserContext(), id); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DashboardStats godoc
// @Summary  Revenue, order counts, pending sessions and low stock
// @Tags     admin
// @Security ClerkSession
// @Success  200 {object} model.DashboardStats
// @Router   /api/v1/admin/stats [get]
func DashboardStats(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Stats(c.UserContext())
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(st)
	}
}
