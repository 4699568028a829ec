package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/makerforge/api/internal/model"
	"github.com/makerforge/api/internal/scad"
	"github.com/makerforge/api/pkg/response"
)

type PreviewHandler struct {
	validator *validator.Validate
}

func NewPreviewHandler(v *validator.Validate) *PreviewHandler {
	return &PreviewHandler{validator: v}
}

// Primitives handles POST /api/preview/primitives
// @Summary      Extract preview primitives
// @Description  Recover basic geometric primitives from OpenSCAD source for preview rendering
// @Tags         Preview
// @Accept       json
// @Produce      json
// @Param        request body model.PreviewRequest true "Source to scan"
// @Success      200 {object} model.PreviewResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/preview/primitives [post]
func (h *PreviewHandler) Primitives(c *fiber.Ctx) error {
	var req model.PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return response.OK(c, model.PreviewResponse{
		Shapes: scad.Extract(req.Source),
	})
}
