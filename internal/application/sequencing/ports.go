// Package sequencing asigna números de factura y NCF sin duplicados ni saltos.
//
// Toda mutación ocurre dentro de TxRunner.RunSequencing: si el callback devuelve
// error se revierte completa. La serialización por clave la provee Repos.Locker.
package sequencing

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Locker       repository.SequenceLocker
	ReceiptTypes repository.ReceiptTypeRepository
	Series       repository.ReceiptSeriesRepository
	Receipts     repository.ReceiptRepository
	Invoices     repository.InvoiceRepository
	Quotes       repository.QuoteRepository
}

// TxRunner ejecuta fn dentro de una transacción; Commit si fn devuelve nil, Rollback si no.
// Los locks adquiridos con Repos.Locker se liberan al terminar la transacción.
type TxRunner interface {
	RunSequencing(ctx context.Context, fn func(r Repos) error) error
}

// Clock fuente de la hora actual (inyectable en tests).
type Clock func() time.Time

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Claves de serialización. Orden de adquisición dentro de una transacción:
// invoice -> receipts -> invoice-number.
func invoiceKey(invoiceID string) string { return "invoice:" + invoiceID }

func receiptsKey(companyID, receiptTypeID string) string {
	return "receipts:" + companyID + ":" + receiptTypeID
}
