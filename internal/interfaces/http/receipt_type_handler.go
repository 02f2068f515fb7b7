package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
)

// ReceiptTypeHandler tipos de comprobante (B01, B02, E31...).
type ReceiptTypeHandler struct {
	uc *sequencing.ReceiptTypeUseCase
}

// NewReceiptTypeHandler construye el handler.
func NewReceiptTypeHandler(uc *sequencing.ReceiptTypeUseCase) *ReceiptTypeHandler {
	return &ReceiptTypeHandler{uc: uc}
}

// Create POST /api/receipt-types
func (h *ReceiptTypeHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateReceiptTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rt, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewReceiptTypeResponse(rt))
}

// List GET /api/receipt-types
func (h *ReceiptTypeHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.List(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReceiptTypeResponse, 0, len(list))
	for _, rt := range list {
		out = append(out, dto.NewReceiptTypeResponse(rt))
	}
	return c.JSON(out)
}

// GetByID GET /api/receipt-types/:id
func (h *ReceiptTypeHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	rt, err := h.uc.Get(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewReceiptTypeResponse(rt))
}

// Update PUT /api/receipt-types/:id
func (h *ReceiptTypeHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateReceiptTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rt, err := h.uc.Update(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewReceiptTypeResponse(rt))
}
