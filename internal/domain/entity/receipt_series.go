package entity

import "time"

// DefaultAlertThreshold umbral de comprobantes restantes a partir del cual se alerta.
const DefaultAlertThreshold int64 = 5

// ReceiptSeries representa un rango de NCF autorizado por la DGII para un tipo de comprobante.
// El rango [RangeFrom, RangeTo] no cambia una vez que alguno de sus comprobantes fue asignado;
// solo ExpiresOn y Current siguen siendo editables.
type ReceiptSeries struct {
	ID            string
	CompanyID     string
	ReceiptTypeID string
	RangeFrom     int64     // desde
	RangeTo       int64     // hasta
	Current       int64     // último número consumido; RangeFrom-1 mientras no se use ninguno
	ExpiresOn     time.Time // fecha de vencimiento de la serie
	Voided        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SeriesStatus estado de agotamiento de una serie para un umbral dado.
type SeriesStatus struct {
	Remaining        int64
	IsExhausted      bool
	IsNearExhaustion bool
}

// HasBounds indica si la serie tiene ambos límites definidos.
func (s *ReceiptSeries) HasBounds() bool {
	return s.RangeFrom > 0 && s.RangeTo > 0
}

// Size cantidad de números del rango.
func (s *ReceiptSeries) Size() int64 {
	if !s.HasBounds() || s.RangeTo < s.RangeFrom {
		return 0
	}
	return s.RangeTo - s.RangeFrom + 1
}

// Contains indica si el número cae dentro del rango de la serie.
func (s *ReceiptSeries) Contains(number int64) bool {
	return number >= s.RangeFrom && number <= s.RangeTo
}

// Overlaps indica si [from, to] intersecta el rango de la serie.
func (s *ReceiptSeries) Overlaps(from, to int64) bool {
	return from <= s.RangeTo && to >= s.RangeFrom
}

// Remaining comprobantes restantes según la marca de agua: max(0, hasta - actual).
func (s *ReceiptSeries) Remaining() int64 {
	if !s.HasBounds() {
		return 0
	}
	if r := s.RangeTo - s.Current; r > 0 {
		return r
	}
	return 0
}

// Status calcula el estado de agotamiento para el umbral dado.
func (s *ReceiptSeries) Status(threshold int64) SeriesStatus {
	remaining := s.Remaining()
	return SeriesStatus{
		Remaining:        remaining,
		IsExhausted:      remaining == 0,
		IsNearExhaustion: remaining > 0 && remaining <= threshold,
	}
}

// ShouldAlert indica si la serie debe reportarse: activa, con límites y remaining <= threshold.
func (s *ReceiptSeries) ShouldAlert(threshold int64) bool {
	return !s.Voided && s.HasBounds() && s.Remaining() <= threshold
}

// Advance sube la marca de agua a max(Current, number).
func (s *ReceiptSeries) Advance(number int64) bool {
	if number <= s.Current {
		return false
	}
	s.Current = number
	return true
}
