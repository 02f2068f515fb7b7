package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// DateLayout formato de fechas en requests y responses.
const DateLayout = "2006-01-02"

// CreateReceiptTypeRequest body para POST /api/receipt-types.
type CreateReceiptTypeRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// UpdateReceiptTypeRequest body para PUT /api/receipt-types/:id.
type UpdateReceiptTypeRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ReceiptTypeResponse tipo de comprobante en respuestas.
type ReceiptTypeResponse struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// CreateSeriesRequest body para POST /api/receipt-series.
type CreateSeriesRequest struct {
	ReceiptTypeID string `json:"receipt_type_id"`
	RangeFrom     int64  `json:"range_from"`
	RangeTo       int64  `json:"range_to"`
	ExpiresOn     string `json:"expires_on"` // YYYY-MM-DD
}

// UpdateSeriesRequest body para PATCH /api/receipt-series/:id. Campos nil no se tocan.
type UpdateSeriesRequest struct {
	ReceiptTypeID *string `json:"receipt_type_id,omitempty"`
	RangeFrom     *int64  `json:"range_from,omitempty"`
	RangeTo       *int64  `json:"range_to,omitempty"`
	ExpiresOn     *string `json:"expires_on,omitempty"`
	Current       *int64  `json:"current,omitempty"`
}

// SeriesResponse serie de NCF en respuestas.
type SeriesResponse struct {
	ID            string `json:"id"`
	CompanyID     string `json:"company_id"`
	ReceiptTypeID string `json:"receipt_type_id"`
	RangeFrom     int64  `json:"range_from"`
	RangeTo       int64  `json:"range_to"`
	Current       int64  `json:"current"`
	Remaining     int64  `json:"remaining"`
	ExpiresOn     string `json:"expires_on"`
	Voided        bool   `json:"voided"`
}

// VoidSeriesResponse respuesta de POST /api/receipt-series/:id/void.
type VoidSeriesResponse struct {
	Message     string `json:"message"`
	VoidedCount int64  `json:"voided_count"`
}

// ReceiptResponse NCF individual en respuestas.
type ReceiptResponse struct {
	ID            string  `json:"id"`
	ReceiptTypeID string  `json:"receipt_type_id"`
	Number        int64   `json:"number"`
	FullNumber    string  `json:"full_number"`
	IssuedOn      string  `json:"issued_on"`
	ExpiresOn     string  `json:"expires_on"`
	Voided        bool    `json:"voided"`
	Available     bool    `json:"available"`
	ClientID      *string `json:"client_id,omitempty"`
	InvoiceID     *string `json:"invoice_id,omitempty"`
}

// AvailabilityResponse respuesta de GET /api/receipts/availability.
type AvailabilityResponse struct {
	ReceiptTypeID string `json:"receipt_type_id"`
	Number        int64  `json:"number"`
	Available     bool   `json:"available"`
}

// AlertResponse serie agotada o por agotarse.
type AlertResponse struct {
	SeriesID         string `json:"series_id"`
	ReceiptTypeID    string `json:"receipt_type_id"`
	ReceiptType      string `json:"receipt_type"`
	RangeFrom        int64  `json:"range_from"`
	RangeTo          int64  `json:"range_to"`
	Current          int64  `json:"current"`
	Remaining        int64  `json:"remaining"`
	IsExhausted      bool   `json:"is_exhausted"`
	IsNearExhaustion bool   `json:"is_near_exhaustion"`
	ExpiresOn        string `json:"expires_on"`
}

// CreateInvoiceRequest body para POST /api/invoices.
// State: Draft | Pending (por defecto) | Active (activa y asigna números en la misma operación).
type CreateInvoiceRequest struct {
	ClientID      string          `json:"client_id"`
	ReceiptTypeID string          `json:"receipt_type_id"`
	Total         decimal.Decimal `json:"total"`
	IssuedOn      string          `json:"issued_on,omitempty"`
	DueOn         string          `json:"due_on,omitempty"`
	State         string          `json:"state,omitempty"`
}

// TransitionInvoiceRequest body para POST /api/invoices/:id/state.
type TransitionInvoiceRequest struct {
	State string `json:"state"`
}

// InvoiceResponse factura en respuestas.
type InvoiceResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	Number        *int64          `json:"number,omitempty"`
	ReceiptTypeID string          `json:"receipt_type_id"`
	ReceiptID     *string         `json:"receipt_id,omitempty"`
	State         string          `json:"state"`
	ClientID      string          `json:"client_id"`
	Total         decimal.Decimal `json:"total"`
	IssuedOn      string          `json:"issued_on"`
	DueOn         string          `json:"due_on"`
}

// CreateQuoteRequest body para POST /api/quotes.
type CreateQuoteRequest struct {
	ClientID  string          `json:"client_id"`
	Total     decimal.Decimal `json:"total"`
	IssuedOn  string          `json:"issued_on,omitempty"`
	ExpiresOn string          `json:"expires_on,omitempty"`
}

// QuoteResponse cotización en respuestas.
type QuoteResponse struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	Number    int64           `json:"number"`
	ClientID  string          `json:"client_id"`
	Total     decimal.Decimal `json:"total"`
	IssuedOn  string          `json:"issued_on"`
	ExpiresOn string          `json:"expires_on"`
	Voided    bool            `json:"voided"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// NewReceiptTypeResponse mapea la entidad a su respuesta.
func NewReceiptTypeResponse(rt *entity.ReceiptType) ReceiptTypeResponse {
	return ReceiptTypeResponse{ID: rt.ID, CompanyID: rt.CompanyID, Code: rt.Code, Description: rt.Description}
}

// NewSeriesResponse mapea la entidad a su respuesta.
func NewSeriesResponse(s *entity.ReceiptSeries) SeriesResponse {
	return SeriesResponse{
		ID:            s.ID,
		CompanyID:     s.CompanyID,
		ReceiptTypeID: s.ReceiptTypeID,
		RangeFrom:     s.RangeFrom,
		RangeTo:       s.RangeTo,
		Current:       s.Current,
		Remaining:     s.Remaining(),
		ExpiresOn:     formatDate(s.ExpiresOn),
		Voided:        s.Voided,
	}
}

// NewReceiptResponse mapea la entidad a su respuesta.
func NewReceiptResponse(r *entity.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:            r.ID,
		ReceiptTypeID: r.ReceiptTypeID,
		Number:        r.Number,
		FullNumber:    r.FullNumber,
		IssuedOn:      formatDate(r.IssuedOn),
		ExpiresOn:     formatDate(r.ExpiresOn),
		Voided:        r.Voided,
		Available:     r.IsAvailable(),
		ClientID:      r.ClientID,
		InvoiceID:     r.InvoiceID,
	}
}

// NewInvoiceResponse mapea la entidad a su respuesta.
func NewInvoiceResponse(inv *entity.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		Number:        inv.Number,
		ReceiptTypeID: inv.ReceiptTypeID,
		ReceiptID:     inv.ReceiptID,
		State:         string(inv.State),
		ClientID:      inv.ClientID,
		Total:         inv.Total,
		IssuedOn:      formatDate(inv.IssuedOn),
		DueOn:         formatDate(inv.DueOn),
	}
}

// NewQuoteResponse mapea la entidad a su respuesta.
func NewQuoteResponse(q *entity.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		CompanyID: q.CompanyID,
		Number:    q.Number,
		ClientID:  q.ClientID,
		Total:     q.Total,
		IssuedOn:  formatDate(q.IssuedOn),
		ExpiresOn: formatDate(q.ExpiresOn),
		Voided:    q.Voided,
	}
}
