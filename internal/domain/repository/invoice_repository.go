package repository

import (
	"context"

	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// InvoiceRepository puerto de persistencia para facturas.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error)

	// MaxNumber mayor número de factura de la empresa (0 si no hay ninguno).
	MaxNumber(ctx context.Context, companyID string) (int64, error)

	// Update persiste número, NCF, estado y updated_at.
	Update(ctx context.Context, inv *entity.Invoice) error
}
