package sequencing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

// lockReceiptType toma el lock (empresa, tipo) compartido por asignación, creación y anulación.
func lockReceiptType(ctx context.Context, r Repos, companyID, receiptTypeID string) error {
	if err := r.Locker.Lock(ctx, receiptsKey(companyID, receiptTypeID)); err != nil {
		return fmt.Errorf("lock comprobantes: %w", err)
	}
	return nil
}

// loadReceiptType devuelve domain.ErrNotFound si el tipo no existe o es de otra empresa.
func loadReceiptType(ctx context.Context, r Repos, companyID, receiptTypeID string) (*entity.ReceiptType, error) {
	rt, err := r.ReceiptTypes.GetByID(ctx, receiptTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil || rt.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return rt, nil
}

// claimNext bloquea el tipo y devuelve el NCF disponible de menor número sin mutar nada.
// Si no hay ninguno devuelve *domain.ExhaustionError.
func claimNext(ctx context.Context, r Repos, companyID string, rt *entity.ReceiptType) (*entity.Receipt, error) {
	if err := lockReceiptType(ctx, r, companyID, rt.ID); err != nil {
		return nil, err
	}
	rc, err := r.Receipts.NextAvailable(ctx, companyID, rt.ID)
	if err != nil {
		return nil, fmt.Errorf("buscar comprobante disponible: %w", err)
	}
	if rc == nil {
		return nil, &domain.ExhaustionError{ReceiptTypeID: rt.ID, Code: rt.Code}
	}
	return rc, nil
}

// bindReceipt liga cliente y factura al comprobante y sube la marca de agua de su serie.
// Debe llamarse con el lock del tipo tomado (claimNext).
func bindReceipt(ctx context.Context, r Repos, rc *entity.Receipt, clientID, invoiceID string, now time.Time) error {
	if err := r.Receipts.Bind(ctx, rc.ID, clientID, invoiceID); err != nil {
		return fmt.Errorf("ligar comprobante %s: %w", rc.FullNumber, err)
	}
	rc.ClientID = &clientID
	rc.InvoiceID = &invoiceID
	rc.UpdatedAt = now

	series, err := r.Series.FindContaining(ctx, rc.CompanyID, rc.ReceiptTypeID, rc.Number)
	if err != nil {
		return fmt.Errorf("buscar serie del comprobante: %w", err)
	}
	if series != nil && series.Advance(rc.Number) {
		series.UpdatedAt = now
		if err := r.Series.Update(ctx, series); err != nil {
			return fmt.Errorf("actualizar numero actual de la serie: %w", err)
		}
	}
	return nil
}

// AssignNextAvailable liga el NCF disponible de menor número del tipo a la factura y al cliente.
// Se ejecuta con los repos de la transacción del llamador: un error aborta toda la unidad.
func AssignNextAvailable(ctx context.Context, r Repos, companyID, receiptTypeID, invoiceID, clientID string, now time.Time) (*entity.Receipt, error) {
	rt, err := loadReceiptType(ctx, r, companyID, receiptTypeID)
	if err != nil {
		return nil, err
	}
	rc, err := claimNext(ctx, r, companyID, rt)
	if err != nil {
		return nil, err
	}
	if err := bindReceipt(ctx, r, rc, clientID, invoiceID, now); err != nil {
		return nil, err
	}
	return rc, nil
}
