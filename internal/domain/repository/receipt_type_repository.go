package repository

import (
	"context"

	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// ReceiptTypeRepository puerto de persistencia para tipos de comprobante.
type ReceiptTypeRepository interface {
	Create(ctx context.Context, rt *entity.ReceiptType) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.ReceiptType, error)
	GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.ReceiptType, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.ReceiptType, error)
	Update(ctx context.Context, rt *entity.ReceiptType) error
}
