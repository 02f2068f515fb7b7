package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// ReceiptHandler consultas sobre el pool de NCF.
type ReceiptHandler struct {
	uc *sequencing.SeriesUseCase
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *sequencing.SeriesUseCase) *ReceiptHandler {
	return &ReceiptHandler{uc: uc}
}

func receiptResponses(list []*entity.Receipt) []dto.ReceiptResponse {
	out := make([]dto.ReceiptResponse, 0, len(list))
	for _, rc := range list {
		out = append(out, dto.NewReceiptResponse(rc))
	}
	return out
}

// Available GET /api/receipts/available?receipt_type_id=
func (h *ReceiptHandler) Available(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListAvailableReceipts(c.Context(), companyID, c.Query("receipt_type_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(receiptResponses(list))
}

// Availability GET /api/receipts/availability?receipt_type_id=&number=
func (h *ReceiptHandler) Availability(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	typeID := c.Query("receipt_type_id")
	if typeID == "" {
		return writeError(c, domain.NewValidationError("receipt_type_id", "requerido"))
	}
	number, err := strconv.ParseInt(c.Query("number"), 10, 64)
	if err != nil || number <= 0 {
		return writeError(c, domain.NewValidationError("number", "debe ser un entero positivo"))
	}
	ok, err := h.uc.IsAvailable(c.Context(), companyID, typeID, number)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{ReceiptTypeID: typeID, Number: number, Available: ok})
}
