package handler

import (
	"github.com/gofiber/fiber/v2"

	"shopapi/internal/repository"
	"shopapi/internal/service"
)

// productFilter reads the listing query shared by the storefront and the dashboard.
func productFilter(c *fiber.Ctx) (repository.ProductFilter, error) {
	f := repository.ProductFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("q"),
		Sort:         c.Query("sort"),
	}
	var err error
	if f.Limit, f.Offset, err = page(c); err != nil {
		return f, err
	}
	if f.Featured, err = queryBool(c, "featured"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return f, err
	}
	return f, nil
}

// ListProducts godoc
// @Summary  List active products
// @Tags     catalog
// @Param    category query string false "category slug"
// @Param    q query string false "search text"
// @Param    featured query bool false "featured only"
// @Param    min_price query number false "minimum price"
// @Param    max_price query number false "maximum price"
// @Param    sort query string false "newest, price_asc or price_desc"
// @Param    limit query int false "page size"
// @Param    offset query int false "page offset"
// @Success  200 {object} service.ListResult[model.Product]
// @Router   /api/v1/products [get]
func ListProducts(svc service.CatalogService) fiber.Handler {
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

// GetProduct godoc
// @Summary  Get a product by id or slug
// @Tags     catalog
// @Param    idOrSlug path string true "product id or slug"
// @Success  200 {object} model.Product
// @Failure  404 {object} errorPayload
// @Router   /api/v1/products/{idOrSlug} [get]
func GetProduct(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.GetProduct(c.UserContext(), c.Params("idOrSlug"))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(p)
	}
}

// ListCategories godoc
// @Summary  List categories with active product counts
// @Tags     catalog
// @Success  200 {array} model.Category
// @Router   /api/v1/categories [get]
func ListCategories(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.ListCategories(c.UserContext())
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(fiber.Map{"data": cats})
	}
}
