package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/makerforge/api/internal/service"
	"github.com/makerforge/api/pkg/response"
)

type CatalogHandler struct {
	service *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Products handles GET /api/catalog/products
// @Summary      List printed-goods catalog
// @Description  List active storefront products available for ordering
// @Tags         Catalog
// @Produce      json
// @Success      200 {object} model.CatalogResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Failure      504 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/catalog/products [get]
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	result, err := h.service.ListProducts(c.Context())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return response.Timeout(c, "Storefront request timed out")
		}
		return response.ProviderError(c, err.Error())
	}

	return response.OK(c, result)
}
