package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
)

// SeriesHandler series de NCF: alta, edición, anulación y alertas de agotamiento.
type SeriesHandler struct {
	uc               *sequencing.SeriesUseCase
	monitor          *sequencing.ExhaustionMonitor
	defaultThreshold int64
}

// NewSeriesHandler construye el handler. defaultThreshold aplica cuando la query no trae threshold.
func NewSeriesHandler(uc *sequencing.SeriesUseCase, monitor *sequencing.ExhaustionMonitor, defaultThreshold int64) *SeriesHandler {
	return &SeriesHandler{uc: uc, monitor: monitor, defaultThreshold: defaultThreshold}
}

// Create POST /api/receipt-series
func (h *SeriesHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateSeriesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.uc.CreateSeries(c.Context(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSeriesResponse(s))
}

// List GET /api/receipt-series
func (h *SeriesHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListSeries(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SeriesResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.NewSeriesResponse(s))
	}
	return c.JSON(out)
}

// GetByID GET /api/receipt-series/:id
func (h *SeriesHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	s, err := h.uc.GetSeries(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSeriesResponse(s))
}

// Update PATCH /api/receipt-series/:id
func (h *SeriesHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateSeriesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.uc.UpdateSeries(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSeriesResponse(s))
}

// Void POST /api/receipt-series/:id/void
func (h *SeriesHandler) Void(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	n, err := h.uc.VoidSeries(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.VoidSeriesResponse{Message: "serie anulada", VoidedCount: n})
}

// Receipts GET /api/receipt-series/:id/receipts
func (h *SeriesHandler) Receipts(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListSeriesReceipts(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(receiptResponses(list))
}

// Alerts GET /api/receipt-series/alerts?threshold=5
func (h *SeriesHandler) Alerts(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	threshold := h.defaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		n := c.QueryInt("threshold", -1)
		if n < 0 {
			return writeError(c, domain.NewValidationError("threshold", "debe ser un entero no negativo"))
		}
		threshold = int64(n)
	}
	alerts, err := h.monitor.ListAlerts(c.Context(), companyID, threshold)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, dto.AlertResponse{
			SeriesID:         a.Series.ID,
			ReceiptTypeID:    a.Series.ReceiptTypeID,
			ReceiptType:      a.ReceiptTypeCode,
			RangeFrom:        a.Series.RangeFrom,
			RangeTo:          a.Series.RangeTo,
			Current:          a.Series.Current,
			Remaining:        a.Remaining,
			IsExhausted:      a.IsExhausted,
			IsNearExhaustion: a.IsNearExhaustion,
			ExpiresOn:        a.Series.ExpiresOn.Format(dto.DateLayout),
		})
	}
	return c.JSON(out)
}
