package repository

import (
	"context"

	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// QuoteRepository puerto de persistencia para cotizaciones.
type QuoteRepository interface {
	Create(ctx context.Context, q *entity.Quote) error
	GetByID(ctx context.Context, id string) (*entity.Quote, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Quote, error)
	MaxNumber(ctx context.Context, companyID string) (int64, error)
}
