package repository

import (
	"context"

	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// ReceiptRepository puerto de persistencia para el pool de NCF individuales.
type ReceiptRepository interface {
	// CreateBatch inserta todos los comprobantes materializados de una serie.
	CreateBatch(ctx context.Context, receipts []*entity.Receipt) error

	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Receipt, error)
	GetByTypeAndNumber(ctx context.Context, companyID, receiptTypeID string, number int64) (*entity.Receipt, error)

	// NextAvailable devuelve el comprobante disponible de menor número (bloqueado para update), o nil.
	NextAvailable(ctx context.Context, companyID, receiptTypeID string) (*entity.Receipt, error)

	// ListAvailable comprobantes disponibles del tipo, ascendente por número.
	ListAvailable(ctx context.Context, companyID, receiptTypeID string) ([]*entity.Receipt, error)

	// ListRange comprobantes del tipo con número en [from, to], ascendente.
	ListRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) ([]*entity.Receipt, error)

	// Bind liga cliente y factura en una sola escritura. Devuelve domain.ErrConflict
	// si el comprobante ya no está disponible.
	Bind(ctx context.Context, receiptID, clientID, invoiceID string) error

	// VoidAvailableInRange anula los comprobantes disponibles del rango y devuelve cuántos.
	VoidAvailableInRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) (int64, error)

	CountAssignedInRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) (int64, error)

	// DeleteRange borra los comprobantes del rango (solo válido si ninguno fue asignado).
	DeleteRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) (int64, error)
}
