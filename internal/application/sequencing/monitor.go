package sequencing

import (
	"context"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
	"github.com/jhoicas/facturacion-ncf/pkg/logger"
)

// Alert serie agotada o por agotarse.
type Alert struct {
	Series          *entity.ReceiptSeries
	ReceiptTypeCode string
	entity.SeriesStatus
}

// ExhaustionMonitor calcula el estado de agotamiento de las series. Solo lectura.
type ExhaustionMonitor struct {
	types  repository.ReceiptTypeRepository
	series repository.ReceiptSeriesRepository
	log    *logger.Logger
}

// NewExhaustionMonitor construye el monitor.
func NewExhaustionMonitor(types repository.ReceiptTypeRepository, series repository.ReceiptSeriesRepository, log *logger.Logger) *ExhaustionMonitor {
	return &ExhaustionMonitor{types: types, series: series, log: log.Component("monitor")}
}

// ListAlerts reporta las series activas con remaining <= threshold.
func (m *ExhaustionMonitor) ListAlerts(ctx context.Context, companyID string, threshold int64) ([]Alert, error) {
	if threshold < 0 {
		return nil, domain.NewValidationError("threshold", "no puede ser negativo")
	}
	all, err := m.series.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]string)
	alerts := make([]Alert, 0)
	for _, s := range all {
		if !s.ShouldAlert(threshold) {
			continue
		}
		code, ok := codes[s.ReceiptTypeID]
		if !ok {
			rt, err := m.types.GetByID(ctx, s.ReceiptTypeID)
			if err != nil {
				return nil, err
			}
			if rt != nil {
				code = rt.Code
			}
			codes[s.ReceiptTypeID] = code
		}
		a := Alert{Series: s, ReceiptTypeCode: code, SeriesStatus: s.Status(threshold)}
		if a.IsExhausted {
			m.log.ForCompany(companyID).Warn().
				Str("series_id", s.ID).
				Str("receipt_type", code).
				Msg("serie de comprobantes agotada")
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}
