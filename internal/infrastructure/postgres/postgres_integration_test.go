package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/infrastructure/postgres"
	"github.com/jhoicas/facturacion-ncf/pkg/config"
	"github.com/jhoicas/facturacion-ncf/pkg/logger"
)

// Requiere TEST_DATABASE_URL; sin ella los tests se omiten.
func setup(t *testing.T) (*sequencing.SeriesUseCase, *sequencing.InvoiceUseCase, string, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definida")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))

	log := logger.Nop()
	tx := postgres.NewTxRunner(pool)
	types := postgres.NewReceiptTypeRepository(pool)
	seriesRepo := postgres.NewReceiptSeriesRepository(pool)
	receipts := postgres.NewReceiptRepository(pool)
	invoices := postgres.NewInvoiceRepository(pool)

	companyID := uuid.New().String()
	rt, err := sequencing.NewReceiptTypeUseCase(tx, types).
		Create(ctx, companyID, dto.CreateReceiptTypeRequest{Code: "B01"})
	require.NoError(t, err)

	return sequencing.NewSeriesUseCase(tx, types, seriesRepo, receipts, log),
		sequencing.NewInvoiceUseCase(tx, invoices, types, log),
		companyID, rt.ID
}

func TestPostgres_ActivacionConcurrente(t *testing.T) {
	series, invoices, companyID, typeID := setup(t)
	ctx := context.Background()
	_, err := series.CreateSeries(ctx, companyID, dto.CreateSeriesRequest{
		ReceiptTypeID: typeID, RangeFrom: 1, RangeTo: 10, ExpiresOn: "2030-12-31",
	})
	require.NoError(t, err)

	ids := make([]string, 12)
	for i := range ids {
		inv, err := invoices.CreateInvoice(ctx, companyID, dto.CreateInvoiceRequest{ClientID: "c", ReceiptTypeID: typeID})
		require.NoError(t, err)
		ids[i] = inv.ID
	}

	var g errgroup.Group
	results := make([]error, len(ids))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			_, results[i] = invoices.ActivateInvoice(ctx, companyID, id)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, exhausted int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrExhausted):
			exhausted++
		}
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, 2, exhausted)

	available, err := series.ListAvailableReceipts(ctx, companyID, typeID)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestPostgres_SolapamientoYAnulacion(t *testing.T) {
	series, _, companyID, typeID := setup(t)
	ctx := context.Background()
	s, err := series.CreateSeries(ctx, companyID, dto.CreateSeriesRequest{
		ReceiptTypeID: typeID, RangeFrom: 1, RangeTo: 5, ExpiresOn: "2030-12-31",
	})
	require.NoError(t, err)

	_, err = series.CreateSeries(ctx, companyID, dto.CreateSeriesRequest{
		ReceiptTypeID: typeID, RangeFrom: 5, RangeTo: 9, ExpiresOn: "2030-12-31",
	})
	assert.ErrorIs(t, err, domain.ErrRangeOverlap)

	n, err := series.VoidSeries(ctx, companyID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
