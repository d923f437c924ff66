package api

import (
	"log"

	domain "github.com/example/catalog-admin/domain/catalog"
	"github.com/gofiber/fiber/v2"
)

// CreateCategory handles category creation.
func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	var in domain.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.catalog.CategoryService().Create(c.UserContext(), in)
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetCategory handles a single category read.
func (h *Handlers) GetCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid category ID")
	}

	resp, err := h.catalog.CategoryService().Get(c.UserContext(), uint(id))
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// UpdateCategory handles category updates.
func (h *Handlers) UpdateCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid category ID")
	}

	var in domain.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.catalog.CategoryService().Update(c.UserContext(), uint(id), in)
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// DeleteCategory handles category deletion.
func (h *Handlers) DeleteCategory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid category ID")
	}

	if err := h.catalog.CategoryService().Delete(c.UserContext(), uint(id)); err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListCategories handles category search.
func (h *Handlers) ListCategories(c *fiber.Ctx) error {
	f := domain.CategoryFilter{
		Q:      c.Query("q"),
		Status: c.Query("status"),
		Offset: c.QueryInt("offset", 0),
		Limit:  c.QueryInt("limit", 20),
	}

	page, err := h.catalog.CategoryService().Search(c.UserContext(), f)
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// CreateProduct handles product creation.
func (h *Handlers) CreateProduct(c *fiber.Ctx) error {
	var in domain.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.catalog.ProductService().Create(c.UserContext(), in)
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetProduct handles a single product read.
func (h *Handlers) GetProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid product ID")
	}

	resp, err := h.catalog.ProductService().Get(c.UserContext(), uint(id))
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// UpdateProduct handles product updates.
func (h *Handlers) UpdateProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid product ID")
	}

	var in domain.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.catalog.ProductService().Update(c.UserContext(), uint(id), in)
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// DeleteProduct handles product deletion.
func (h *Handlers) DeleteProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid product ID")
	}

	if err := h.catalog.ProductService().Delete(c.UserContext(), uint(id)); err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListProducts handles product search.
func (h *Handlers) ListProducts(c *fiber.Ctx) error {
	f, err := productFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	page, err := h.catalog.ProductService().Search(c.UserContext(), f)
	if err != nil {
		return h.handleCatalogError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// ExportProducts streams the filtered product list as a CSV attachment.
func (h *Handlers) ExportProducts(c *fiber.Ctx) error {
	f, err := productFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.csv"`)
	if err := h.catalog.ProductService().ExportCSV(c.UserContext(), c.Response().BodyWriter(), f); err != nil {
		return h.handleCatalogError(c, err)
	}
	return nil
}

// CacheStats returns the cache counters.
func (h *Handlers) CacheStats(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.cache.GetCache().Snapshot())
}

// ResetCacheStats zeroes the cache counters.
func (h *Handlers) ResetCacheStats(c *fiber.Ctx) error {
	h.cache.GetCache().ResetStats()
	return c.SendStatus(fiber.StatusNoContent)
}

// EventStats returns the event pipeline counters.
func (h *Handlers) EventStats(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.events.Stats())
}

func productFilter(c *fiber.Ctx) (domain.ProductFilter, error) {
	f := domain.ProductFilter{
		Q:          c.Query("q"),
		SKU:        c.Query("sku"),
		CategoryID: uint(c.QueryInt("category_id", 0)),
		Status:     c.Query("status"),
		Offset:     c.QueryInt("offset", 0),
		Limit:      c.QueryInt("limit", 20),
	}
	if c.Query("stock_lt") != "" {
		v := c.QueryInt("stock_lt", -1)
		if v < 0 {
			return f, domain.Validationf("stock_lt must be a non-negative integer")
		}
		f.StockLt = &v
	}
	return f, nil
}

// handleCatalogError maps catalog errors to HTTP responses.
func (h *Handlers) handleCatalogError(c *fiber.Ctx, err error) error {
	switch {
	case domain.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
	case domain.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case domain.IsConflict(err):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}
