package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopapi/internal/errs"
)

var errInvalidID = errs.NewBadRequestError("invalid id format", "INVALID_ID", nil)

// uuidParam returns the named path parameter if it is a UUID.
func uuidParam(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", errInvalidID
	}
	return id, nil
}

// page reads limit and offset. Zero values fall back to the service defaults.
func page(c *fiber.Ctx) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit"); err != nil {
		return 0, 0, errs.NewBadRequestError("invalid limit", "INVALID_LIMIT", nil)
	}
	if offset, err = queryInt(c, "offset"); err != nil {
		return 0, 0, errs.NewBadRequestError("invalid offset", "INVALID_OFFSET", nil)
	}
	return limit, offset, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errs.NewBadRequestError("invalid "+key, "INVALID_"+errs.MakeUpperCaseWithUnderscores(key), nil)
	}
	return &b, nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return nil, errs.NewBadRequestError("invalid "+key, "INVALID_"+errs.MakeUpperCaseWithUnderscores(key), nil)
	}
	return &d, nil
}
