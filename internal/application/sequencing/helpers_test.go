package sequencing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/infrastructure/memory"
	"github.com/jhoicas/facturacion-ncf/pkg/logger"
)

const (
	companyA = "00000000-0000-0000-0000-00000000000a"
	companyB = "00000000-0000-0000-0000-00000000000b"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// env casos de uso sobre un Store en memoria.
type env struct {
	store    *memory.Store
	types    *sequencing.ReceiptTypeUseCase
	series   *sequencing.SeriesUseCase
	invoices *sequencing.InvoiceUseCase
	quotes   *sequencing.QuoteUseCase
	monitor  *sequencing.ExhaustionMonitor
}

func newEnv() *env {
	s := memory.New()
	log := logger.Nop()
	return &env{
		store:    s,
		types:    sequencing.NewReceiptTypeUseCase(s, s.ReceiptTypes()),
		series:   sequencing.NewSeriesUseCase(s, s.ReceiptTypes(), s.Series(), s.Receipts(), log).WithClock(clock),
		invoices: sequencing.NewInvoiceUseCase(s, s.Invoices(), s.ReceiptTypes(), log).WithClock(clock),
		quotes:   sequencing.NewQuoteUseCase(s, s.Quotes()),
		monitor:  sequencing.NewExhaustionMonitor(s.ReceiptTypes(), s.Series(), log),
	}
}

func (e *env) receiptType(t *testing.T, companyID, code string) *entity.ReceiptType {
	t.Helper()
	rt, err := e.types.Create(context.Background(), companyID, dto.CreateReceiptTypeRequest{Code: code, Description: "tipo " + code})
	require.NoError(t, err)
	return rt
}

func (e *env) newSeries(t *testing.T, companyID, typeID string, from, to int64) *entity.ReceiptSeries {
	t.Helper()
	s, err := e.series.CreateSeries(context.Background(), companyID, dto.CreateSeriesRequest{
		ReceiptTypeID: typeID, RangeFrom: from, RangeTo: to, ExpiresOn: "2025-12-31",
	})
	require.NoError(t, err)
	return s
}

func (e *env) pendingInvoice(t *testing.T, companyID, typeID string) *entity.Invoice {
	t.Helper()
	inv, err := e.invoices.CreateInvoice(context.Background(), companyID, dto.CreateInvoiceRequest{
		ClientID: "cliente-1", ReceiptTypeID: typeID, Total: decimal.NewFromInt(1180),
	})
	require.NoError(t, err)
	return inv
}
