package repository

import (
	"context"

	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// ReceiptSeriesRepository puerto de persistencia para series de NCF.
type ReceiptSeriesRepository interface {
	Create(ctx context.Context, s *entity.ReceiptSeries) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.ReceiptSeries, error)

	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.ReceiptSeries, error)

	// ListByType lista todas las series (anuladas incluidas) de un tipo, ordenadas por RangeFrom.
	ListByType(ctx context.Context, companyID, receiptTypeID string) ([]*entity.ReceiptSeries, error)

	// ListByCompany lista las series de la empresa ordenadas por tipo y RangeFrom.
	ListByCompany(ctx context.Context, companyID string) ([]*entity.ReceiptSeries, error)

	// FindContaining devuelve la serie no anulada del tipo cuyo rango contiene number, o nil.
	FindContaining(ctx context.Context, companyID, receiptTypeID string, number int64) (*entity.ReceiptSeries, error)

	CountByType(ctx context.Context, companyID, receiptTypeID string) (int64, error)

	Update(ctx context.Context, s *entity.ReceiptSeries) error
}
